package models

import "time"

// Room types. A DIRECT room holds exactly two participants and carries a
// unique direct key derived from their user ids.
const (
	RoomTypeGroup  = "GROUP"
	RoomTypeDirect = "DIRECT"
)

// Room is a conversation container.
type Room struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	Type      string    `json:"type" db:"type"`
	DirectKey *string   `json:"-" db:"direct_key"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`
}

// Participant is a user's membership record within one room.
type Participant struct {
	ID       string    `json:"id" db:"id"`
	RoomID   string    `json:"roomId" db:"room_id"`
	UserID   string    `json:"userId" db:"user_id"`
	JoinedAt time.Time `json:"joinedAt" db:"joined_at"`
}

// Message is a persisted chat message. Content is stored encrypted; the
// plaintext never touches the database.
type Message struct {
	ID                  string    `json:"id" db:"id"`
	RoomID              string    `json:"roomId" db:"room_id"`
	SenderParticipantID string    `json:"senderParticipantId" db:"sender_participant_id"`
	SenderUserID        string    `json:"senderUserId" db:"sender_user_id"`
	Ciphertext          string    `json:"-" db:"ciphertext"`
	IV                  string    `json:"-" db:"iv"`
	AuthTag             string    `json:"-" db:"auth_tag"`
	CreatedAt           time.Time `json:"createdAt" db:"created_at"`
}

// Receipt is the per-participant read state of one message.
type Receipt struct {
	ID            string     `json:"id" db:"id"`
	MessageID     string     `json:"messageId" db:"message_id"`
	ParticipantID string     `json:"participantId" db:"participant_id"`
	ReadAt        *time.Time `json:"readAt,omitempty" db:"read_at"`
}

// MessageView is a decrypted message as returned to the viewer, annotated
// with the viewer's own read state.
type MessageView struct {
	ID           string     `json:"id"`
	RoomID       string     `json:"roomId"`
	SenderUserID string     `json:"senderUserId"`
	Content      string     `json:"content"`
	CreatedAt    time.Time  `json:"createdAt"`
	ReadAt       *time.Time `json:"readAt,omitempty"`
	IsRead       bool       `json:"isRead"`
}

// RoomView is a room with its participants and decrypted last message.
type RoomView struct {
	ID           string        `json:"id"`
	Name         string        `json:"name"`
	Type         string        `json:"type"`
	CreatedAt    time.Time     `json:"createdAt"`
	UpdatedAt    time.Time     `json:"updatedAt"`
	Participants []Participant `json:"participants"`
	LastMessage  *MessageView  `json:"lastMessage"`
}

// ReadConfirmation is the result of marking a message read.
type ReadConfirmation struct {
	MessageID string    `json:"messageId"`
	ReadAt    time.Time `json:"readAt"`
}
