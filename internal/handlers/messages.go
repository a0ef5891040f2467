package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/CianusDev/synkrone-backend-sub000/internal/models"
	"github.com/CianusDev/synkrone-backend-sub000/internal/services"
)

type MessageHandler struct {
	messaging services.MessagingService
}

func NewMessageHandler(messaging services.MessagingService) *MessageHandler {
	return &MessageHandler{messaging: messaging}
}

func (h *MessageHandler) Send(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		ConversationID   string   `json:"conversation_id"`
		ReceiverID       string   `json:"receiver_id"`
		Content          string   `json:"content"`
		TypeMessage      string   `json:"type_message"`
		ReplyToMessageID *string  `json:"reply_to_message_id"`
		ProjectID        *string  `json:"project_id"`
		ApplicationID    *string  `json:"application_id"`
		MediaIDs         []string `json:"media_ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	message, err := h.messaging.SendMessage(r.Context(), services.SendMessageInput{
		ConversationID:   req.ConversationID,
		SenderID:         userID,
		ReceiverID:       req.ReceiverID,
		Content:          req.Content,
		TypeMessage:      models.MessageType(req.TypeMessage),
		ReplyToMessageID: req.ReplyToMessageID,
		ProjectID:        req.ProjectID,
		ApplicationID:    req.ApplicationID,
		MediaIDs:         req.MediaIDs,
	})
	if err != nil {
		log.Printf("Error sending message from user %s: %v", userID, err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, message)
}

func (h *MessageHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	messageID := chi.URLParam(r, "messageID")
	if messageID == "" {
		http.Error(w, "Missing message ID in URL", http.StatusBadRequest)
		return
	}

	changed, err := h.messaging.MarkAsRead(r.Context(), messageID, userID)
	if err != nil {
		log.Printf("Error marking message %s as read for user %s: %v", messageID, userID, err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message_id": messageID,
		"updated":    changed,
	})
}

func (h *MessageHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	messageID := chi.URLParam(r, "messageID")
	if messageID == "" {
		http.Error(w, "Missing message ID in URL", http.StatusBadRequest)
		return
	}

	var req struct {
		Content     string  `json:"content"`
		TypeMessage *string `json:"type_message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var typeMessage *models.MessageType
	if req.TypeMessage != nil {
		t := models.MessageType(*req.TypeMessage)
		typeMessage = &t
	}

	updated, err := h.messaging.UpdateMessageContent(r.Context(), messageID, req.Content, typeMessage, &userID)
	if err != nil {
		log.Printf("Error updating message %s: %v", messageID, err)
		writeServiceError(w, err)
		return
	}
	if !updated {
		http.Error(w, "Message not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message_id": messageID,
		"updated":    true,
	})
}

func (h *MessageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	messageID := chi.URLParam(r, "messageID")
	if messageID == "" {
		http.Error(w, "Missing message ID in URL", http.StatusBadRequest)
		return
	}

	deleted, err := h.messaging.SoftDeleteMessage(r.Context(), messageID, &userID)
	if err != nil {
		log.Printf("Error deleting message %s: %v", messageID, err)
		writeServiceError(w, err)
		return
	}
	if !deleted {
		http.Error(w, "Message not found", http.StatusNotFound)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message_id": messageID,
		"deleted":    true,
	})
}
