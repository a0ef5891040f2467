package services

// Wire event names. Clients depend on these exact strings.
const (
	EventReceiveMessage          = "receive_message"
	EventSendMessage             = "send_message"
	EventReadMessage             = "read_message"
	EventUpdateMessage           = "update_message"
	EventDeleteMessage           = "delete_message"
	EventBatchMessagesMarkedRead = "batch_messages_marked_read"
	EventBatchMessagesRead       = "batch_messages_read"
	EventMessageMarkedRead       = "message_marked_read"
)

// Broadcaster delivers one event to every connection of one user. It is
// injected into the messaging service; implementations must never block the
// caller on delivery and must swallow (log) transport failures.
type Broadcaster interface {
	EmitToUser(userID, event string, payload interface{})
}

// NopBroadcaster drops every event. Useful for internal call paths that do
// not want fan-out.
type NopBroadcaster struct{}

func (NopBroadcaster) EmitToUser(string, string, interface{}) {}
