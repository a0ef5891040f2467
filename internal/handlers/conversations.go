package handlers

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/CianusDev/synkrone-backend-sub000/internal/services"
)

type ConversationHandler struct {
	messaging services.MessagingService
}

func NewConversationHandler(messaging services.MessagingService) *ConversationHandler {
	return &ConversationHandler{messaging: messaging}
}

func (h *ConversationHandler) CreateOrGet(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	var req struct {
		FreelanceID   string  `json:"freelance_id"`
		CompanyID     string  `json:"company_id"`
		ApplicationID *string `json:"application_id"`
		ContractID    *string `json:"contract_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding request body: %v", err)
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	conversation, err := h.messaging.CreateOrGetConversation(r.Context(), services.ConversationParams{
		FreelanceID:   req.FreelanceID,
		CompanyID:     req.CompanyID,
		ApplicationID: req.ApplicationID,
		ContractID:    req.ContractID,
	}, userID)
	if err != nil {
		log.Printf("Error resolving conversation for user %s: %v", userID, err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, conversation)
}

func (h *ConversationHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conversations, err := h.messaging.ListConversationsForUser(r.Context(), userID)
	if err != nil {
		log.Printf("Error listing conversations for user %s: %v", userID, err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, conversations)
}

func (h *ConversationHandler) GetMessages(w http.ResponseWriter, r *http.Request) {
	if _, ok := currentUserID(r); !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		http.Error(w, "Missing conversation ID in URL", http.StatusBadRequest)
		return
	}

	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit < 1 {
		limit = 20
	}
	offset, err := strconv.Atoi(r.URL.Query().Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}

	messages, err := h.messaging.GetMessagesForConversation(r.Context(), conversationID, limit, offset)
	if err != nil {
		log.Printf("Error getting messages for conversation %s: %v", conversationID, err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversation_id": conversationID,
		"messages":        messages,
	})
}

func (h *ConversationHandler) MarkAllRead(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUserID(r)
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return
	}

	conversationID := chi.URLParam(r, "conversationID")
	if conversationID == "" {
		http.Error(w, "Missing conversation ID in URL", http.StatusBadRequest)
		return
	}

	marked, err := h.messaging.MarkAllMessagesAsReadInConversation(r.Context(), conversationID, userID)
	if err != nil {
		log.Printf("Error marking conversation %s as read for user %s: %v", conversationID, userID, err)
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"conversation_id": conversationID,
		"marked":          marked,
	})
}
