package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CianusDev/synkrone-backend-sub000/internal/models"
	"github.com/CianusDev/synkrone-backend-sub000/internal/services"
	"github.com/CianusDev/synkrone-backend-sub000/internal/storage"
)

type MediaHandler struct {
	media services.MediaService
}

func NewMediaHandler(media services.MediaService) *MediaHandler {
	return &MediaHandler{media: media}
}

func (h *MediaHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		URL         string `json:"url"`
		Type        string `json:"type"`
		Description string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	media, err := h.media.CreateMedia(r.Context(), &models.Media{
		URL:         req.URL,
		Type:        models.MediaType(req.Type),
		UploadedBy:  userID,
		Description: req.Description,
	})
	if err != nil {
		log.Printf("Error creating media for user %s: %v", userID, err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, media)
}

func (h *MediaHandler) Get(w http.ResponseWriter, r *http.Request) {
	mediaID := chi.URLParam(r, "mediaID")

	media, err := h.media.GetMediaByID(r.Context(), mediaID)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, media)
}

func (h *MediaHandler) Update(w http.ResponseWriter, r *http.Request) {
	mediaID := chi.URLParam(r, "mediaID")

	var req struct {
		URL         *string `json:"url"`
		Type        *string `json:"type"`
		Description *string `json:"description"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	upd := storage.MediaUpdate{URL: req.URL, Description: req.Description}
	if req.Type != nil {
		t := models.MediaType(*req.Type)
		upd.Type = &t
	}

	media, err := h.media.UpdateMedia(r.Context(), mediaID, upd)
	if err != nil {
		log.Printf("Error updating media %s: %v", mediaID, err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, media)
}

func (h *MediaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	mediaID := chi.URLParam(r, "mediaID")

	if err := h.media.DeleteMedia(r.Context(), mediaID); err != nil {
		log.Printf("Error deleting media %s: %v", mediaID, err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Media deleted successfully"})
}

func (h *MediaHandler) List(w http.ResponseWriter, r *http.Request) {
	var filter storage.MediaFilter
	if t := r.URL.Query().Get("type"); t != "" {
		mediaType := models.MediaType(t)
		filter.Type = &mediaType
	}
	if by := r.URL.Query().Get("uploaded_by"); by != "" {
		filter.UploadedBy = &by
	}

	items, err := h.media.ListMedia(r.Context(), filter)
	if err != nil {
		log.Printf("Error listing media: %v", err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *MediaHandler) AttachToMessage(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageID")
	mediaID := chi.URLParam(r, "mediaID")

	if err := h.media.AttachMediaToMessage(r.Context(), messageID, mediaID); err != nil {
		log.Printf("Error attaching media %s to message %s: %v", mediaID, messageID, err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Media attached successfully"})
}

func (h *MediaHandler) DetachFromMessage(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageID")
	mediaID := chi.URLParam(r, "mediaID")

	removed, err := h.media.DetachMediaFromMessage(r.Context(), messageID, mediaID)
	if err != nil {
		log.Printf("Error detaching media %s from message %s: %v", mediaID, messageID, err)
		writeServiceError(w, err)
		return
	}
	if !removed {
		http.Error(w, "Link not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Media detached successfully"})
}

func (h *MediaHandler) ListForMessage(w http.ResponseWriter, r *http.Request) {
	messageID := chi.URLParam(r, "messageID")

	items, err := h.media.GetMediaForMessage(r.Context(), messageID)
	if err != nil {
		log.Printf("Error listing media for message %s: %v", messageID, err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *MediaHandler) AttachToDeliverable(w http.ResponseWriter, r *http.Request) {
	deliverableID := chi.URLParam(r, "deliverableID")
	mediaID := chi.URLParam(r, "mediaID")

	if err := h.media.AttachMediaToDeliverable(r.Context(), deliverableID, mediaID); err != nil {
		log.Printf("Error attaching media %s to deliverable %s: %v", mediaID, deliverableID, err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Media attached successfully"})
}

func (h *MediaHandler) DetachFromDeliverable(w http.ResponseWriter, r *http.Request) {
	deliverableID := chi.URLParam(r, "deliverableID")
	mediaID := chi.URLParam(r, "mediaID")

	removed, err := h.media.DetachMediaFromDeliverable(r.Context(), deliverableID, mediaID)
	if err != nil {
		log.Printf("Error detaching media %s from deliverable %s: %v", mediaID, deliverableID, err)
		writeServiceError(w, err)
		return
	}
	if !removed {
		http.Error(w, "Link not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"message": "Media detached successfully"})
}

func (h *MediaHandler) ListForDeliverable(w http.ResponseWriter, r *http.Request) {
	deliverableID := chi.URLParam(r, "deliverableID")

	items, err := h.media.GetMediaForDeliverable(r.Context(), deliverableID)
	if err != nil {
		log.Printf("Error listing media for deliverable %s: %v", deliverableID, err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (h *MediaHandler) PurgeDeliverable(w http.ResponseWriter, r *http.Request) {
	deliverableID := chi.URLParam(r, "deliverableID")

	purged, err := h.media.PurgeDeliverableMedia(r.Context(), deliverableID)
	if err != nil {
		log.Printf("Error purging media for deliverable %s: %v", deliverableID, err)
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"deliverable_id": deliverableID,
		"purged":         purged,
	})
}
