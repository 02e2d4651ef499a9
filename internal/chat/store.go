package chat

import (
	"context"
	"time"

	"koalitos/backend/internal/models"
)

// RoomStore is the persistence capability set for rooms and memberships.
type RoomStore interface {
	// CreateRoom inserts the room and one participant row per user id in a
	// single transaction. A non-nil directKey makes the insert subject to
	// the direct-key uniqueness constraint.
	CreateRoom(ctx context.Context, name, roomType string, directKey *string, userIDs []string) (*models.Room, []models.Participant, error)
	FindRoomByID(ctx context.Context, roomID string) (*models.Room, error)
	FindRoomByDirectKey(ctx context.Context, directKey string) (*models.Room, error)
	ListRoomsForUser(ctx context.Context, userID string) ([]models.Room, error)
	ListParticipants(ctx context.Context, roomID string) ([]models.Participant, error)
	// FindParticipant returns NOT_FOUND when the user has no membership row
	// in the room, without checking whether the room itself exists.
	FindParticipant(ctx context.Context, roomID, userID string) (*models.Participant, error)
	TouchRoom(ctx context.Context, roomID string) error
}

// MessageStore is the persistence capability set for messages.
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error)
	// ListMessages returns up to limit messages newest-first. A non-empty
	// cursor is a message id; rows at or after the cursor row in display
	// order are excluded (exclusive cursor).
	ListMessages(ctx context.Context, roomID string, limit int, cursor string) ([]models.Message, error)
	FindMessage(ctx context.Context, roomID, messageID string) (*models.Message, error)
	LatestMessage(ctx context.Context, roomID string) (*models.Message, error)
}

// ReceiptStore is the persistence capability set for read receipts.
type ReceiptStore interface {
	// CreateReceipts inserts one receipt per participant id, pre-marking the
	// sender's as read at sentAt. Duplicate inserts are skipped.
	CreateReceipts(ctx context.Context, messageID string, participantIDs []string, senderParticipantID string, sentAt time.Time) error
	// ReceiptsForViewer batch-fetches one participant's receipts for the
	// given message ids, keyed by message id.
	ReceiptsForViewer(ctx context.Context, participantID string, messageIDs []string) (map[string]models.Receipt, error)
	// MarkRead sets read_at if it is still null and returns the receipt.
	// Re-marking returns the previously stored value.
	MarkRead(ctx context.Context, messageID, participantID string, readAt time.Time) (*models.Receipt, error)
}

// ProfileDirectory resolves user handles for the direct-room resolver.
type ProfileDirectory interface {
	FindProfileByHandle(ctx context.Context, handle string) (*models.Profile, error)
	FindProfileByUserID(ctx context.Context, userID string) (*models.Profile, error)
}

// Store is everything the chat service needs from persistence.
type Store interface {
	RoomStore
	MessageStore
	ReceiptStore
	ProfileDirectory
}
