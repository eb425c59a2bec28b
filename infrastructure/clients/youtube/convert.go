package youtube

import (
	"catalog-sync/domain/model"

	"google.golang.org/api/youtube/v3"
)

func convertToExternalChannel(item *youtube.Channel) (model.ExternalChannel, bool) {
	if item == nil || item.Id == "" || item.ContentDetails == nil ||
		item.ContentDetails.RelatedPlaylists == nil || item.ContentDetails.RelatedPlaylists.Uploads == "" {
		return model.ExternalChannel{}, false
	}
	channel := model.ExternalChannel{
		ID:                item.Id,
		UploadsPlaylistID: item.ContentDetails.RelatedPlaylists.Uploads,
	}
	if item.Snippet != nil {
		channel.Title = item.Snippet.Title
	}
	return channel, true
}

func convertToExternalPlaylistItem(item *youtube.PlaylistItem) (model.ExternalPlaylistItem, bool) {
	if item == nil || item.ContentDetails == nil || item.ContentDetails.VideoId == "" {
		return model.ExternalPlaylistItem{}, false
	}
	return model.ExternalPlaylistItem{
		ID:          item.Id,
		VideoID:     item.ContentDetails.VideoId,
		PublishedAt: item.ContentDetails.VideoPublishedAt,
	}, true
}

func convertToExternalVideo(item *youtube.Video) (model.ExternalVideo, bool) {
	if item == nil || item.Id == "" || item.Snippet == nil || item.Snippet.PublishedAt == "" {
		return model.ExternalVideo{}, false
	}
	video := model.ExternalVideo{
		ID:          item.Id,
		ChannelID:   item.Snippet.ChannelId,
		Title:       item.Snippet.Title,
		PublishedAt: item.Snippet.PublishedAt,
	}
	if item.ContentDetails != nil {
		video.Duration = item.ContentDetails.Duration
	}
	if details := item.LiveStreamingDetails; details != nil {
		video.LiveStreamingDetails = &model.LiveStreamingDetails{
			ScheduledStartTime: details.ScheduledStartTime,
			ActualStartTime:    details.ActualStartTime,
			ActualEndTime:      details.ActualEndTime,
		}
	}
	if thumbnails := item.Snippet.Thumbnails; thumbnails != nil {
		video.Thumbnails = model.ExternalThumbnails{
			Maxres:   convertThumbnail(thumbnails.Maxres),
			Standard: convertThumbnail(thumbnails.Standard),
			High:     convertThumbnail(thumbnails.High),
		}
	}
	return video, true
}

func convertThumbnail(thumbnail *youtube.Thumbnail) *model.ExternalThumbnail {
	if thumbnail == nil || thumbnail.Url == "" {
		return nil
	}
	return &model.ExternalThumbnail{
		URL:    thumbnail.Url,
		Width:  int(thumbnail.Width),
		Height: int(thumbnail.Height),
	}
}
