package services_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jonboulle/clockwork"

	"github.com/CianusDev/synkrone-backend-sub000/internal/models"
	"github.com/CianusDev/synkrone-backend-sub000/internal/services"
	"github.com/CianusDev/synkrone-backend-sub000/internal/storage"
	"github.com/CianusDev/synkrone-backend-sub000/internal/storage/memory"
)

type mediaFixture struct {
	media            *memory.MediaStore
	messages         *memory.MessageStore
	messageMedia     *memory.LinkStore
	deliverableMedia *memory.LinkStore
	svc              services.MediaService
}

func newMediaFixture(t *testing.T) *mediaFixture {
	t.Helper()

	clock := clockwork.NewFakeClock()
	f := &mediaFixture{
		media:            memory.NewMediaStore(clock),
		messages:         memory.NewMessageStore(clock),
		messageMedia:     memory.NewMessageMediaStore(clock),
		deliverableMedia: memory.NewDeliverableMediaStore(clock),
	}
	f.svc = services.NewMediaService(f.media, f.messages, f.messageMedia, f.deliverableMedia)
	return f
}

func (f *mediaFixture) createMedia(t *testing.T, url string) *models.Media {
	t.Helper()

	media, err := f.svc.CreateMedia(context.Background(), &models.Media{
		URL:        url,
		Type:       models.MediaTypeImage,
		UploadedBy: freelanceID,
	})
	if err != nil {
		t.Fatalf("CreateMedia failed: %v", err)
	}
	return media
}

func (f *mediaFixture) insertMessage(t *testing.T) *models.Message {
	t.Helper()

	msg, err := f.messages.Insert(context.Background(), &models.Message{
		ConversationID: "77777777-7777-7777-7777-777777777777",
		SenderID:       freelanceID,
		ReceiverID:     companyID,
		Content:        "see attachment",
	})
	if err != nil {
		t.Fatalf("insert failed: %v", err)
	}
	return msg
}

func TestCreateMediaValidation(t *testing.T) {
	ctx := context.Background()
	f := newMediaFixture(t)

	var vErr *models.ValidationError
	_, err := f.svc.CreateMedia(ctx, &models.Media{UploadedBy: freelanceID})
	if !errors.As(err, &vErr) || vErr.Field != "url" {
		t.Fatalf("expected url validation error, got %v", err)
	}
	_, err = f.svc.CreateMedia(ctx, &models.Media{URL: "https://cdn.example.com/a.png"})
	if !errors.As(err, &vErr) || vErr.Field != "uploaded_by" {
		t.Fatalf("expected uploaded_by validation error, got %v", err)
	}
	_, err = f.svc.CreateMedia(ctx, &models.Media{
		URL:        "https://cdn.example.com/a.png",
		UploadedBy: freelanceID,
		Type:       models.MediaType("video"),
	})
	if !errors.As(err, &vErr) || vErr.Field != "type" {
		t.Fatalf("expected type validation error, got %v", err)
	}

	// A missing type defaults to other.
	media, err := f.svc.CreateMedia(ctx, &models.Media{
		URL:        "https://cdn.example.com/a.bin",
		UploadedBy: freelanceID,
	})
	if err != nil {
		t.Fatalf("CreateMedia failed: %v", err)
	}
	if media.Type != models.MediaTypeOther {
		t.Fatalf("expected default type other, got %s", media.Type)
	}
}

func TestUpdateAndListMedia(t *testing.T) {
	ctx := context.Background()
	f := newMediaFixture(t)

	media := f.createMedia(t, "https://cdn.example.com/a.png")

	newType := models.MediaTypePDF
	updated, err := f.svc.UpdateMedia(ctx, media.ID, storage.MediaUpdate{Type: &newType})
	if err != nil {
		t.Fatalf("UpdateMedia failed: %v", err)
	}
	if updated.Type != models.MediaTypePDF {
		t.Fatalf("expected updated type pdf, got %s", updated.Type)
	}

	badType := models.MediaType("video")
	_, err = f.svc.UpdateMedia(ctx, media.ID, storage.MediaUpdate{Type: &badType})
	var vErr *models.ValidationError
	if !errors.As(err, &vErr) || vErr.Field != "type" {
		t.Fatalf("expected type validation error, got %v", err)
	}

	f.createMedia(t, "https://cdn.example.com/b.png")

	pdfOnly := models.MediaTypePDF
	list, err := f.svc.ListMedia(ctx, storage.MediaFilter{Type: &pdfOnly})
	if err != nil {
		t.Fatalf("ListMedia failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != media.ID {
		t.Fatalf("expected only the pdf media, got %+v", list)
	}

	if err := f.svc.DeleteMedia(ctx, media.ID); err != nil {
		t.Fatalf("DeleteMedia failed: %v", err)
	}
	if _, err := f.svc.GetMediaByID(ctx, media.ID); !errors.Is(err, models.ErrMediaNotFound) {
		t.Fatalf("expected ErrMediaNotFound after delete, got %v", err)
	}
}

func TestAttachMediaToMessageFailsFast(t *testing.T) {
	ctx := context.Background()
	f := newMediaFixture(t)

	media := f.createMedia(t, "https://cdn.example.com/a.png")

	err := f.svc.AttachMediaToMessage(ctx, "99999999-9999-9999-9999-999999999999", media.ID)
	if !errors.Is(err, models.ErrMessageNotFound) {
		t.Fatalf("expected ErrMessageNotFound, got %v", err)
	}

	msg := f.insertMessage(t)
	err = f.svc.AttachMediaToMessage(ctx, msg.ID, "99999999-9999-9999-9999-999999999999")
	if !errors.Is(err, models.ErrMediaNotFound) {
		t.Fatalf("expected ErrMediaNotFound, got %v", err)
	}
}

func TestMessageMediaLinksDoNotRelink(t *testing.T) {
	ctx := context.Background()
	f := newMediaFixture(t)

	msg := f.insertMessage(t)
	media := f.createMedia(t, "https://cdn.example.com/a.png")

	if err := f.svc.AttachMediaToMessage(ctx, msg.ID, media.ID); err != nil {
		t.Fatalf("AttachMediaToMessage failed: %v", err)
	}
	if err := f.svc.AttachMediaToMessage(ctx, msg.ID, media.ID); !errors.Is(err, models.ErrMediaAlreadyLinked) {
		t.Fatalf("expected ErrMediaAlreadyLinked on duplicate attach, got %v", err)
	}

	detached, err := f.svc.DetachMediaFromMessage(ctx, msg.ID, media.ID)
	if err != nil || !detached {
		t.Fatalf("expected detach to apply, got detached=%v err=%v", detached, err)
	}
	detached, err = f.svc.DetachMediaFromMessage(ctx, msg.ID, media.ID)
	if err != nil || detached {
		t.Fatalf("expected a no-op second detach, got detached=%v err=%v", detached, err)
	}

	// A detached message link stays dead: history is not rewritten.
	if err := f.svc.AttachMediaToMessage(ctx, msg.ID, media.ID); !errors.Is(err, models.ErrMediaAlreadyLinked) {
		t.Fatalf("expected ErrMediaAlreadyLinked on re-attach, got %v", err)
	}

	list, err := f.svc.GetMediaForMessage(ctx, msg.ID)
	if err != nil {
		t.Fatalf("GetMediaForMessage failed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no active media after detach, got %+v", list)
	}
}

func TestDeliverableMediaLinksCanRelink(t *testing.T) {
	ctx := context.Background()
	f := newMediaFixture(t)

	deliverableID := "88888888-8888-8888-8888-888888888888"
	media := f.createMedia(t, "https://cdn.example.com/report.pdf")

	if err := f.svc.AttachMediaToDeliverable(ctx, deliverableID, media.ID); err != nil {
		t.Fatalf("AttachMediaToDeliverable failed: %v", err)
	}
	if err := f.svc.AttachMediaToDeliverable(ctx, deliverableID, media.ID); !errors.Is(err, models.ErrMediaAlreadyLinked) {
		t.Fatalf("expected ErrMediaAlreadyLinked on duplicate attach, got %v", err)
	}

	detached, err := f.svc.DetachMediaFromDeliverable(ctx, deliverableID, media.ID)
	if err != nil || !detached {
		t.Fatalf("expected detach to apply, got detached=%v err=%v", detached, err)
	}

	// Deliverables iterate: a removed file can come back in a later revision.
	if err := f.svc.AttachMediaToDeliverable(ctx, deliverableID, media.ID); err != nil {
		t.Fatalf("expected re-attach to revive the link, got %v", err)
	}

	list, err := f.svc.GetMediaForDeliverable(ctx, deliverableID)
	if err != nil {
		t.Fatalf("GetMediaForDeliverable failed: %v", err)
	}
	if len(list) != 1 || list[0].ID != media.ID {
		t.Fatalf("expected the revived link, got %+v", list)
	}
}

func TestPurgeDeliverableMedia(t *testing.T) {
	ctx := context.Background()
	f := newMediaFixture(t)

	deliverableID := "88888888-8888-8888-8888-888888888888"
	first := f.createMedia(t, "https://cdn.example.com/report.pdf")
	second := f.createMedia(t, "https://cdn.example.com/annex.zip")

	for _, media := range []*models.Media{first, second} {
		if err := f.svc.AttachMediaToDeliverable(ctx, deliverableID, media.ID); err != nil {
			t.Fatalf("AttachMediaToDeliverable failed: %v", err)
		}
	}

	purged, err := f.svc.PurgeDeliverableMedia(ctx, deliverableID)
	if err != nil {
		t.Fatalf("PurgeDeliverableMedia failed: %v", err)
	}
	if purged != 2 {
		t.Fatalf("expected 2 purged links, got %d", purged)
	}

	list, err := f.svc.GetMediaForDeliverable(ctx, deliverableID)
	if err != nil {
		t.Fatalf("GetMediaForDeliverable failed: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("expected no media after purge, got %+v", list)
	}

	// The media objects themselves survive the purge.
	if _, err := f.svc.GetMediaByID(ctx, first.ID); err != nil {
		t.Fatalf("media must survive a link purge: %v", err)
	}

	purged, err = f.svc.PurgeDeliverableMedia(ctx, deliverableID)
	if err != nil || purged != 0 {
		t.Fatalf("expected a no-op second purge, got purged=%d err=%v", purged, err)
	}
}
