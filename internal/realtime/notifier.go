package realtime

import (
	"context"
	"time"
)

// Event names carried over the broadcast transport.
const (
	EventChatMessage     = "chat.message"
	EventChatMessageRead = "chat.message.read"
	EventCalculation     = "calculation.performed"
)

// CalculationsChannel receives calculation.performed events.
const CalculationsChannel = "calculations"

// RoomChannel names the broadcast channel of one chat room.
func RoomChannel(roomID string) string {
	return "chat.room." + roomID
}

// Envelope is the wire format published on a channel.
type Envelope struct {
	Event   string      `json:"event"`
	Payload interface{} `json:"payload"`
	SentAt  time.Time   `json:"sentAt"`
}

// Notifier delivers an event to a named channel. Implementations must not
// return until the transport has acknowledged (or refused) the send; callers
// treat a returned error as a failed delivery and do not retry.
type Notifier interface {
	Broadcast(ctx context.Context, channel, event string, payload interface{}) error
}
