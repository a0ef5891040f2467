package services

import (
	"context"
	"log"

	"github.com/pkg/errors"

	"github.com/CianusDev/synkrone-backend-sub000/internal/crypto"
	"github.com/CianusDev/synkrone-backend-sub000/internal/models"
	"github.com/CianusDev/synkrone-backend-sub000/internal/storage"
)

// ConversationParams addresses a conversation either by application id or by
// the freelance+company pair.
type ConversationParams struct {
	FreelanceID   string
	CompanyID     string
	ApplicationID *string
	ContractID    *string
}

type SendMessageInput struct {
	// ConversationID may be empty on first contact; the service resolves or
	// creates the conversation from sender and receiver.
	ConversationID   string
	SenderID         string
	ReceiverID       string
	Content          string
	TypeMessage      models.MessageType
	ReplyToMessageID *string
	ProjectID        *string
	ApplicationID    *string
	MediaIDs         []string
}

type MessagingService interface {
	CreateOrGetConversation(ctx context.Context, params ConversationParams, viewerID string) (*models.ConversationWithDetails, error)
	ListConversationsForUser(ctx context.Context, userID string) ([]models.ConversationWithDetails, error)
	SendMessage(ctx context.Context, input SendMessageInput) (*models.MessageWithUserInfo, error)
	GetMessagesForConversation(ctx context.Context, conversationID string, limit, offset int) ([]models.MessageWithUserInfo, error)
	MarkAsRead(ctx context.Context, messageID, userID string) (bool, error)
	MarkAllMessagesAsReadInConversation(ctx context.Context, conversationID, userID string) (int, error)
	UpdateMessageContent(ctx context.Context, messageID, newContent string, typeMessage *models.MessageType, requestingUserID *string) (bool, error)
	SoftDeleteMessage(ctx context.Context, messageID string, requestingUserID *string) (bool, error)
}

type messagingService struct {
	conversations storage.ConversationStore
	messages      storage.MessageStore
	media         storage.MediaStore
	messageMedia  storage.LinkStore
	directory     UserDirectory
	broadcaster   Broadcaster
	cipher        *crypto.Cipher
}

func NewMessagingService(
	conversations storage.ConversationStore,
	messages storage.MessageStore,
	media storage.MediaStore,
	messageMedia storage.LinkStore,
	directory UserDirectory,
	broadcaster Broadcaster,
	cipher *crypto.Cipher,
) *messagingService {
	if broadcaster == nil {
		broadcaster = NopBroadcaster{}
	}
	return &messagingService{
		conversations: conversations,
		messages:      messages,
		media:         media,
		messageMedia:  messageMedia,
		directory:     directory,
		broadcaster:   broadcaster,
		cipher:        cipher,
	}
}

func (s *messagingService) CreateOrGetConversation(ctx context.Context, params ConversationParams, viewerID string) (*models.ConversationWithDetails, error) {
	if params.FreelanceID == "" {
		return nil, &models.ValidationError{Field: "freelance_id", Reason: "required"}
	}
	if params.CompanyID == "" {
		return nil, &models.ValidationError{Field: "company_id", Reason: "required"}
	}

	conv, err := s.resolveConversation(ctx, params)
	if err != nil {
		return nil, err
	}
	return s.enrichConversation(ctx, conv, viewerID)
}

// resolveConversation is the idempotent create-or-fetch protocol. A
// uniqueness violation on create means a concurrent caller won the race; the
// loser converges onto the winner's row instead of failing, optionally
// re-pointing it to the requested application.
func (s *messagingService) resolveConversation(ctx context.Context, params ConversationParams) (*models.Conversation, error) {
	if params.ApplicationID != nil {
		conv, err := s.conversations.GetByApplicationID(ctx, *params.ApplicationID)
		if err == nil {
			return conv, nil
		}
		if !errors.Is(err, models.ErrConversationNotFound) {
			return nil, err
		}
	} else {
		conv, err := s.conversations.GetByParticipants(ctx, params.FreelanceID, params.CompanyID)
		if err == nil {
			return conv, nil
		}
		if !errors.Is(err, models.ErrConversationNotFound) {
			return nil, err
		}
	}

	created, err := s.conversations.Create(ctx, &models.Conversation{
		FreelanceID:   params.FreelanceID,
		CompanyID:     params.CompanyID,
		ApplicationID: params.ApplicationID,
		ContractID:    params.ContractID,
	})
	if err == nil {
		return created, nil
	}
	if !errors.Is(err, models.ErrConversationExists) {
		return nil, err
	}

	log.Printf("Converging on existing conversation (freelance %s, company %s)", params.FreelanceID, params.CompanyID)
	return s.convergeOnWinner(ctx, params)
}

// convergeOnWinner resolves a lost creation race. The winner is either the
// row holding the requested application id, or the pair's unscoped row —
// which gets re-pointed to the application the caller asked for.
func (s *messagingService) convergeOnWinner(ctx context.Context, params ConversationParams) (*models.Conversation, error) {
	if params.ApplicationID != nil {
		conv, err := s.conversations.GetByApplicationID(ctx, *params.ApplicationID)
		if err == nil {
			return conv, nil
		}
		if !errors.Is(err, models.ErrConversationNotFound) {
			return nil, err
		}
	}

	conv, err := s.conversations.GetByParticipants(ctx, params.FreelanceID, params.CompanyID)
	if err != nil {
		return nil, err
	}
	if params.ApplicationID != nil && conv.ApplicationID == nil {
		if err := s.conversations.SetApplicationID(ctx, conv.ID, *params.ApplicationID); err != nil {
			return nil, err
		}
		return s.conversations.GetByApplicationID(ctx, *params.ApplicationID)
	}
	return conv, nil
}

func (s *messagingService) enrichConversation(ctx context.Context, conv *models.Conversation, viewerID string) (*models.ConversationWithDetails, error) {
	details := &models.ConversationWithDetails{Conversation: *conv}

	freelance, err := s.directory.Resolve(ctx, conv.FreelanceID)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve freelance %s", conv.FreelanceID)
	}
	details.Freelance = freelance

	company, err := s.directory.Resolve(ctx, conv.CompanyID)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve company %s", conv.CompanyID)
	}
	details.Company = company

	last, err := s.messages.LastMessage(ctx, conv.ID)
	if err != nil {
		return nil, err
	}
	if last != nil {
		last.Content = s.cipher.Decrypt(last.Content)
		details.LastMessage = last
	}

	if viewerID != "" {
		count, err := s.messages.UnreadCount(ctx, conv.ID, viewerID)
		if err != nil {
			return nil, err
		}
		details.UnreadCount = count
	}
	return details, nil
}

func (s *messagingService) ListConversationsForUser(ctx context.Context, userID string) ([]models.ConversationWithDetails, error) {
	conversations, err := s.conversations.ListForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	items := make([]models.ConversationWithDetails, 0, len(conversations))
	for i := range conversations {
		details, err := s.enrichConversation(ctx, &conversations[i], userID)
		if err != nil {
			log.Printf("Error enriching conversation %s: %v", conversations[i].ID, err)
			continue
		}
		items = append(items, *details)
	}
	return items, nil
}

func (s *messagingService) SendMessage(ctx context.Context, input SendMessageInput) (*models.MessageWithUserInfo, error) {
	if input.SenderID == "" {
		return nil, &models.ValidationError{Field: "sender_id", Reason: "required"}
	}
	if input.ReceiverID == "" {
		return nil, &models.ValidationError{Field: "receiver_id", Reason: "required"}
	}
	if input.Content == "" && len(input.MediaIDs) == 0 {
		return nil, &models.ValidationError{Field: "content", Reason: "required when no media is attached"}
	}
	if input.TypeMessage == "" {
		input.TypeMessage = models.MessageTypeText
	}
	if !models.IsValidMessageType(input.TypeMessage) {
		return nil, &models.ValidationError{Field: "type_message", Reason: "must be one of text, media, system"}
	}

	// The response contract needs both parties; resolving them up front also
	// fails the send before anything is persisted.
	sender, err := s.directory.Resolve(ctx, input.SenderID)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve sender %s", input.SenderID)
	}
	receiver, err := s.directory.Resolve(ctx, input.ReceiverID)
	if err != nil {
		return nil, errors.Wrapf(err, "resolve receiver %s", input.ReceiverID)
	}

	conversationID := input.ConversationID
	if conversationID == "" {
		params, err := participantsOf(sender, receiver)
		if err != nil {
			return nil, err
		}
		params.ApplicationID = input.ApplicationID
		conv, err := s.resolveConversation(ctx, params)
		if err != nil {
			return nil, err
		}
		conversationID = conv.ID
	} else if _, err := s.conversations.GetByID(ctx, conversationID); err != nil {
		return nil, err
	}

	// Actual content shape wins over the caller-declared type.
	if len(input.MediaIDs) > 0 {
		input.TypeMessage = models.MessageTypeMedia
	}

	stored, err := s.cipher.Encrypt(input.Content)
	if err != nil {
		return nil, err
	}

	msg, err := s.messages.Insert(ctx, &models.Message{
		ConversationID:   conversationID,
		SenderID:         input.SenderID,
		ReceiverID:       input.ReceiverID,
		Content:          stored,
		TypeMessage:      input.TypeMessage,
		ReplyToMessageID: input.ReplyToMessageID,
		ProjectID:        input.ProjectID,
	})
	if err != nil {
		return nil, err
	}

	// Media linking is best-effort relative to the already-persisted message.
	for _, mediaID := range input.MediaIDs {
		if err := s.linkMedia(ctx, msg.ID, mediaID); err != nil {
			log.Printf("Error linking media %s to message %s: %v", mediaID, msg.ID, err)
		}
	}

	enriched := &models.MessageWithUserInfo{
		Message:  *msg,
		Sender:   sender,
		Receiver: receiver,
		Media:    s.resolveMedia(ctx, msg.ID),
	}
	enriched.Content = input.Content

	// Fire-and-forget fan-out: push failures never fail the send.
	s.broadcaster.EmitToUser(input.ReceiverID, EventReceiveMessage, enriched)
	s.broadcaster.EmitToUser(input.SenderID, EventSendMessage, enriched)

	return enriched, nil
}

func participantsOf(sender, receiver *models.UserSummary) (ConversationParams, error) {
	switch {
	case sender.Kind == models.UserKindFreelance && receiver.Kind == models.UserKindCompany:
		return ConversationParams{FreelanceID: sender.ID, CompanyID: receiver.ID}, nil
	case sender.Kind == models.UserKindCompany && receiver.Kind == models.UserKindFreelance:
		return ConversationParams{FreelanceID: receiver.ID, CompanyID: sender.ID}, nil
	default:
		return ConversationParams{}, &models.ValidationError{
			Field:  "receiver_id",
			Reason: "a conversation needs one freelance and one company",
		}
	}
}

func (s *messagingService) linkMedia(ctx context.Context, messageID, mediaID string) error {
	exists, err := s.media.Exists(ctx, mediaID)
	if err != nil {
		return err
	}
	if !exists {
		return models.ErrMediaNotFound
	}
	return s.messageMedia.AddLink(ctx, messageID, mediaID)
}

// resolveMedia joins the link table to the media registry. Failures degrade
// to an empty list; media display is never worth failing a message for.
func (s *messagingService) resolveMedia(ctx context.Context, messageID string) []models.Media {
	mediaIDs, err := s.messageMedia.GetLinksFor(ctx, messageID)
	if err != nil {
		log.Printf("Error getting media links for message %s: %v", messageID, err)
		return []models.Media{}
	}

	items := make([]models.Media, 0, len(mediaIDs))
	for _, mediaID := range mediaIDs {
		media, err := s.media.GetByID(ctx, mediaID)
		if err != nil {
			log.Printf("Error resolving media %s for message %s: %v", mediaID, messageID, err)
			continue
		}
		items = append(items, *media)
	}
	return items
}

func (s *messagingService) GetMessagesForConversation(ctx context.Context, conversationID string, limit, offset int) ([]models.MessageWithUserInfo, error) {
	if limit <= 0 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	page, err := s.messages.ListPage(ctx, conversationID, limit, offset)
	if err != nil {
		return nil, err
	}

	// The store returns newest-first; flip to chronological reading order
	// within the page.
	for i, j := 0, len(page)-1; i < j; i, j = i+1, j-1 {
		page[i], page[j] = page[j], page[i]
	}

	summaries := make(map[string]*models.UserSummary)
	items := make([]models.MessageWithUserInfo, 0, len(page))
	for i := range page {
		msg := page[i]
		msg.Content = s.cipher.Decrypt(msg.Content)

		sender, err := s.resolveCached(ctx, summaries, msg.SenderID)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve sender %s", msg.SenderID)
		}
		receiver, err := s.resolveCached(ctx, summaries, msg.ReceiverID)
		if err != nil {
			return nil, errors.Wrapf(err, "resolve receiver %s", msg.ReceiverID)
		}

		item := models.MessageWithUserInfo{
			Message:  msg,
			Sender:   sender,
			Receiver: receiver,
			Media:    s.resolveMedia(ctx, msg.ID),
		}

		if msg.ReplyToMessageID != nil {
			// Best-effort: a missing parent leaves the reference absent.
			parent, err := s.messages.GetByID(ctx, *msg.ReplyToMessageID)
			if err != nil {
				log.Printf("Error resolving reply parent %s of message %s: %v", *msg.ReplyToMessageID, msg.ID, err)
			} else {
				item.ReplyTo = &models.ReplyPreview{
					ID:        parent.ID,
					Content:   s.cipher.Decrypt(parent.Content),
					SenderID:  parent.SenderID,
					CreatedAt: parent.CreatedAt,
				}
			}
		}

		items = append(items, item)
	}
	return items, nil
}

func (s *messagingService) resolveCached(ctx context.Context, cache map[string]*models.UserSummary, id string) (*models.UserSummary, error) {
	if summary, ok := cache[id]; ok {
		return summary, nil
	}
	summary, err := s.directory.Resolve(ctx, id)
	if err != nil {
		return nil, err
	}
	cache[id] = summary
	return summary, nil
}

func (s *messagingService) MarkAsRead(ctx context.Context, messageID, userID string) (bool, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, models.ErrMessageNotFound) {
			return false, nil
		}
		return false, err
	}

	// Ownership is structural: the UPDATE matches only the receiver's
	// still-unread row, so duplicates and non-receivers degrade to a no-op.
	changed, err := s.messages.MarkAsRead(ctx, messageID, userID)
	if err != nil || !changed {
		return false, err
	}

	count, err := s.messages.UnreadCount(ctx, msg.ConversationID, userID)
	if err != nil {
		return true, err
	}

	s.broadcaster.EmitToUser(msg.SenderID, EventReadMessage, map[string]interface{}{
		"message_id":      messageID,
		"conversation_id": msg.ConversationID,
		"reader_id":       userID,
	})
	s.broadcaster.EmitToUser(userID, EventMessageMarkedRead, map[string]interface{}{
		"message_id":      messageID,
		"conversation_id": msg.ConversationID,
		"unread_count":    count,
	})

	log.Printf("Message %s marked as read by user %s", messageID, userID)
	return true, nil
}

func (s *messagingService) MarkAllMessagesAsReadInConversation(ctx context.Context, conversationID, userID string) (int, error) {
	// Snapshot first: the bulk UPDATE erases which rows were unread and who
	// sent them, and senders must only learn about their own messages.
	refs, err := s.messages.ListUnread(ctx, conversationID, userID)
	if err != nil {
		return 0, err
	}
	if len(refs) == 0 {
		return 0, nil
	}

	if err := s.messages.MarkAllAsRead(ctx, conversationID, userID); err != nil {
		return 0, err
	}

	count, err := s.messages.UnreadCount(ctx, conversationID, userID)
	if err != nil {
		return 0, err
	}

	allIDs := make([]string, 0, len(refs))
	bySender := make(map[string][]string)
	for _, ref := range refs {
		allIDs = append(allIDs, ref.MessageID)
		bySender[ref.SenderID] = append(bySender[ref.SenderID], ref.MessageID)
	}

	s.broadcaster.EmitToUser(userID, EventBatchMessagesMarkedRead, map[string]interface{}{
		"conversation_id": conversationID,
		"message_ids":     allIDs,
		"unread_count":    count,
	})

	for senderID, messageIDs := range bySender {
		if senderID == userID {
			// Self-conversation edge case: the reader already got the batch.
			continue
		}
		s.broadcaster.EmitToUser(senderID, EventBatchMessagesRead, map[string]interface{}{
			"conversation_id": conversationID,
			"message_ids":     messageIDs,
			"reader_id":       userID,
		})
	}

	log.Printf("User %s marked %d messages as read in conversation %s", userID, len(refs), conversationID)
	return len(refs), nil
}

func (s *messagingService) UpdateMessageContent(ctx context.Context, messageID, newContent string, typeMessage *models.MessageType, requestingUserID *string) (bool, error) {
	if newContent == "" {
		return false, &models.ValidationError{Field: "content", Reason: "required"}
	}
	if typeMessage != nil && !models.IsValidMessageType(*typeMessage) {
		return false, &models.ValidationError{Field: "type_message", Reason: "must be one of text, media, system"}
	}

	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, models.ErrMessageNotFound) {
			return false, nil
		}
		return false, err
	}
	if requestingUserID != nil && *requestingUserID != msg.SenderID {
		return false, models.ErrNotMessageSender
	}

	stored, err := s.cipher.Encrypt(newContent)
	if err != nil {
		return false, err
	}
	if err := s.messages.UpdateContent(ctx, messageID, stored, typeMessage); err != nil {
		if errors.Is(err, models.ErrMessageNotFound) {
			return false, nil
		}
		return false, err
	}

	payload := map[string]interface{}{
		"message_id":      messageID,
		"conversation_id": msg.ConversationID,
		"content":         newContent,
	}
	if typeMessage != nil {
		payload["type_message"] = *typeMessage
	}
	s.broadcaster.EmitToUser(msg.SenderID, EventUpdateMessage, payload)
	s.broadcaster.EmitToUser(msg.ReceiverID, EventUpdateMessage, payload)

	log.Printf("Message %s content updated", messageID)
	return true, nil
}

func (s *messagingService) SoftDeleteMessage(ctx context.Context, messageID string, requestingUserID *string) (bool, error) {
	msg, err := s.messages.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, models.ErrMessageNotFound) {
			return false, nil
		}
		return false, err
	}
	if requestingUserID != nil && *requestingUserID != msg.SenderID {
		return false, models.ErrNotMessageSender
	}

	changed, err := s.messages.SoftDelete(ctx, messageID)
	if err != nil || !changed {
		return false, err
	}

	// Media links survive on purpose; only the deliverable workflow purges.
	payload := map[string]interface{}{
		"message_id":      messageID,
		"conversation_id": msg.ConversationID,
	}
	s.broadcaster.EmitToUser(msg.SenderID, EventDeleteMessage, payload)
	s.broadcaster.EmitToUser(msg.ReceiverID, EventDeleteMessage, payload)

	log.Printf("Message %s soft-deleted", messageID)
	return true, nil
}
