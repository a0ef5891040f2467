package services

import (
	"context"
	"log"

	"github.com/CianusDev/synkrone-backend-sub000/internal/models"
	"github.com/CianusDev/synkrone-backend-sub000/internal/storage"
)

type MediaService interface {
	CreateMedia(ctx context.Context, media *models.Media) (*models.Media, error)
	GetMediaByID(ctx context.Context, id string) (*models.Media, error)
	UpdateMedia(ctx context.Context, id string, upd storage.MediaUpdate) (*models.Media, error)
	DeleteMedia(ctx context.Context, id string) error
	ListMedia(ctx context.Context, filter storage.MediaFilter) ([]models.Media, error)

	AttachMediaToMessage(ctx context.Context, messageID, mediaID string) error
	DetachMediaFromMessage(ctx context.Context, messageID, mediaID string) (bool, error)
	GetMediaForMessage(ctx context.Context, messageID string) ([]models.Media, error)

	AttachMediaToDeliverable(ctx context.Context, deliverableID, mediaID string) error
	DetachMediaFromDeliverable(ctx context.Context, deliverableID, mediaID string) (bool, error)
	GetMediaForDeliverable(ctx context.Context, deliverableID string) ([]models.Media, error)
	// PurgeDeliverableMedia removes every active link of a rejected
	// deliverable. Messages have no such purge; their links survive a soft
	// delete on purpose.
	PurgeDeliverableMedia(ctx context.Context, deliverableID string) (int, error)
}

type mediaService struct {
	media            storage.MediaStore
	messages         storage.MessageStore
	messageMedia     storage.LinkStore
	deliverableMedia storage.LinkStore
}

func NewMediaService(media storage.MediaStore, messages storage.MessageStore, messageMedia, deliverableMedia storage.LinkStore) *mediaService {
	return &mediaService{
		media:            media,
		messages:         messages,
		messageMedia:     messageMedia,
		deliverableMedia: deliverableMedia,
	}
}

func (s *mediaService) CreateMedia(ctx context.Context, media *models.Media) (*models.Media, error) {
	if media.URL == "" {
		return nil, &models.ValidationError{Field: "url", Reason: "required"}
	}
	if media.UploadedBy == "" {
		return nil, &models.ValidationError{Field: "uploaded_by", Reason: "required"}
	}
	if media.Type == "" {
		media.Type = models.MediaTypeOther
	}
	if !models.IsValidMediaType(media.Type) {
		return nil, &models.ValidationError{Field: "type", Reason: "must be one of pdf, image, doc, zip, other"}
	}
	return s.media.Create(ctx, media)
}

func (s *mediaService) GetMediaByID(ctx context.Context, id string) (*models.Media, error) {
	return s.media.GetByID(ctx, id)
}

func (s *mediaService) UpdateMedia(ctx context.Context, id string, upd storage.MediaUpdate) (*models.Media, error) {
	if upd.Type != nil && !models.IsValidMediaType(*upd.Type) {
		return nil, &models.ValidationError{Field: "type", Reason: "must be one of pdf, image, doc, zip, other"}
	}
	return s.media.Update(ctx, id, upd)
}

func (s *mediaService) DeleteMedia(ctx context.Context, id string) error {
	return s.media.Delete(ctx, id)
}

func (s *mediaService) ListMedia(ctx context.Context, filter storage.MediaFilter) ([]models.Media, error) {
	return s.media.List(ctx, filter)
}

func (s *mediaService) AttachMediaToMessage(ctx context.Context, messageID, mediaID string) error {
	exists, err := s.messages.Exists(ctx, messageID)
	if err != nil {
		return err
	}
	if !exists {
		return models.ErrMessageNotFound
	}
	return s.attach(ctx, s.media, s.messageMedia, messageID, mediaID)
}

func (s *mediaService) AttachMediaToDeliverable(ctx context.Context, deliverableID, mediaID string) error {
	return s.attach(ctx, s.media, s.deliverableMedia, deliverableID, mediaID)
}

func (s *mediaService) attach(ctx context.Context, media storage.MediaStore, links storage.LinkStore, parentID, mediaID string) error {
	exists, err := media.Exists(ctx, mediaID)
	if err != nil {
		return err
	}
	if !exists {
		return models.ErrMediaNotFound
	}
	return links.AddLink(ctx, parentID, mediaID)
}

func (s *mediaService) DetachMediaFromMessage(ctx context.Context, messageID, mediaID string) (bool, error) {
	return s.messageMedia.RemoveLink(ctx, messageID, mediaID)
}

func (s *mediaService) DetachMediaFromDeliverable(ctx context.Context, deliverableID, mediaID string) (bool, error) {
	return s.deliverableMedia.RemoveLink(ctx, deliverableID, mediaID)
}

func (s *mediaService) GetMediaForMessage(ctx context.Context, messageID string) ([]models.Media, error) {
	return s.resolveLinks(ctx, s.messageMedia, messageID)
}

func (s *mediaService) GetMediaForDeliverable(ctx context.Context, deliverableID string) ([]models.Media, error) {
	return s.resolveLinks(ctx, s.deliverableMedia, deliverableID)
}

func (s *mediaService) resolveLinks(ctx context.Context, links storage.LinkStore, parentID string) ([]models.Media, error) {
	mediaIDs, err := links.GetLinksFor(ctx, parentID)
	if err != nil {
		return nil, err
	}

	items := make([]models.Media, 0, len(mediaIDs))
	for _, mediaID := range mediaIDs {
		media, err := s.media.GetByID(ctx, mediaID)
		if err != nil {
			// A dangling link should not break the whole listing.
			log.Printf("Error resolving media %s linked to %s: %v", mediaID, parentID, err)
			continue
		}
		items = append(items, *media)
	}
	return items, nil
}

func (s *mediaService) PurgeDeliverableMedia(ctx context.Context, deliverableID string) (int, error) {
	return s.deliverableMedia.RemoveAllLinks(ctx, deliverableID)
}
