package pubsub

import (
	"context"
	"encoding/json"
	"fmt"

	"catalog-sync/domain/model"
	"catalog-sync/infrastructure/logger"

	"cloud.google.com/go/pubsub"
)

func NewClient(ctx context.Context, projectID string) (*pubsub.Client, error) {
	client, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	return client, nil
}

// TagNotifier publishes revalidation messages to a Pub/Sub topic.
type TagNotifier struct {
	client  *pubsub.Client
	topicID string
}

func NewTagNotifier(client *pubsub.Client, topicID string) *TagNotifier {
	return &TagNotifier{client: client, topicID: topicID}
}

// Publish sends {"tags": [...]} and waits for the server id. The topic is
// created when it does not exist yet.
func (n *TagNotifier) Publish(ctx context.Context, tags []string) error {
	payload, err := json.Marshal(model.RevalidateMessage{Tags: tags})
	if err != nil {
		return err
	}

	topic := n.client.Topic(n.topicID)
	defer topic.Stop()

	exists, err := topic.Exists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check topic %s: %w", n.topicID, err)
	}
	if !exists {
		logger.GetLogger().WithField("topic", n.topicID).Info("Topic doesn't exist - creating it")
		if _, err := n.client.CreateTopic(ctx, n.topicID); err != nil {
			return fmt.Errorf("failed to create topic %s: %w", n.topicID, err)
		}
	}

	serverID, err := topic.Publish(ctx, &pubsub.Message{Data: payload}).Get(ctx)
	if err != nil {
		return fmt.Errorf("failed to publish to %s: %w", n.topicID, err)
	}

	logger.GetLogger().WithField("serverId", serverID).WithField("tags", tags).Info("Revalidation published")
	return nil
}
