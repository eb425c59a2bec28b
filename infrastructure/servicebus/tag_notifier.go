package servicebus

import (
	"context"
	"encoding/json"
	"fmt"

	"catalog-sync/domain/model"
	"catalog-sync/infrastructure/logger"

	"github.com/Azure/azure-sdk-for-go/sdk/azidentity"
	"github.com/Azure/azure-sdk-for-go/sdk/messaging/azservicebus"
)

// NewClient connects to namespace (e.g. "example.servicebus.windows.net")
// with the default Azure credential chain.
func NewClient(namespace string) (*azservicebus.Client, error) {
	cred, err := azidentity.NewDefaultAzureCredential(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build azure credential: %w", err)
	}
	client, err := azservicebus.NewClient(namespace, cred, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create service bus client: %w", err)
	}
	return client, nil
}

type messageSender interface {
	SendMessage(ctx context.Context, message *azservicebus.Message, options *azservicebus.SendMessageOptions) error
	Close(ctx context.Context) error
}

// TagNotifier sends revalidation messages to a Service Bus queue.
type TagNotifier struct {
	queue     string
	newSender func() (messageSender, error)
}

func NewTagNotifier(client *azservicebus.Client, queue string) *TagNotifier {
	return &TagNotifier{
		queue: queue,
		newSender: func() (messageSender, error) {
			return client.NewSender(queue, nil)
		},
	}
}

func (n *TagNotifier) Publish(ctx context.Context, tags []string) error {
	payload, err := json.Marshal(model.RevalidateMessage{Tags: tags})
	if err != nil {
		return err
	}

	sender, err := n.newSender()
	if err != nil {
		logger.GetLogger().
			WithField("error", err).
			Error("Error while making new sender service bus.")
		return fmt.Errorf("failed to create sender for %s: %w", n.queue, err)
	}
	defer func() {
		if err := sender.Close(context.Background()); err != nil {
			logger.GetLogger().
				WithField("error", err).
				Error("Error while closing sender.")
		}
	}()

	contentType := "application/json"
	if err := sender.SendMessage(ctx, &azservicebus.Message{Body: payload, ContentType: &contentType}, nil); err != nil {
		logger.GetLogger().WithField("error", err).Error("Error while sending message.")
		return fmt.Errorf("failed to send to %s: %w", n.queue, err)
	}
	return nil
}
