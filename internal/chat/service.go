package chat

import (
	"context"
	"strings"
	"time"

	"koalitos/backend/internal/apperr"
	"koalitos/backend/internal/models"
	"koalitos/backend/internal/realtime"
)

const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// Service implements the encrypted chat operations: room creation and
// listing, the message pipeline, and read receipts. Collaborators come in
// through the constructor so tests can substitute fakes.
type Service struct {
	store    Store
	enc      *Encryptor
	notifier realtime.Notifier
}

func NewService(store Store, enc *Encryptor, notifier realtime.Notifier) *Service {
	return &Service{store: store, enc: enc, notifier: notifier}
}

// CreateRoom creates a GROUP room holding the caller plus the given users.
func (s *Service) CreateRoom(ctx context.Context, user models.AuthUser, name string, participantIDs []string) (*models.RoomView, error) {
	seen := map[string]bool{user.ID: true}
	members := []string{user.ID}
	for _, id := range participantIDs {
		if !seen[id] {
			seen[id] = true
			members = append(members, id)
		}
	}

	if len(members) < 2 {
		return nil, apperr.InvalidArg("a room needs at least two distinct participants")
	}

	room, participants, err := s.store.CreateRoom(ctx, strings.TrimSpace(name), models.RoomTypeGroup, nil, members)
	if err != nil {
		return nil, err
	}

	return &models.RoomView{
		ID:           room.ID,
		Name:         room.Name,
		Type:         room.Type,
		CreatedAt:    room.CreatedAt,
		UpdatedAt:    room.UpdatedAt,
		Participants: participants,
		LastMessage:  nil,
	}, nil
}

// ListRooms returns the caller's rooms most-recently-updated first, each
// with participants and its decrypted last message.
func (s *Service) ListRooms(ctx context.Context, user models.AuthUser) ([]models.RoomView, error) {
	rooms, err := s.store.ListRoomsForUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	views := make([]models.RoomView, 0, len(rooms))
	for i := range rooms {
		view, err := s.roomView(ctx, &rooms[i], user.ID)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// SendMessage encrypts content, persists it, fans out receipts to every
// participant (sender pre-marked read), and broadcasts the decrypted view.
// The broadcast is awaited: a transport failure surfaces to the caller even
// though the message is already committed.
func (s *Service) SendMessage(ctx context.Context, roomID string, user models.AuthUser, content string) (*models.MessageView, error) {
	sender, err := s.ensureParticipant(ctx, roomID, user.ID)
	if err != nil {
		return nil, err
	}

	env, err := s.enc.Encrypt(content)
	if err != nil {
		return nil, err
	}

	msg, err := s.store.CreateMessage(ctx, &models.Message{
		RoomID:              roomID,
		SenderParticipantID: sender.ID,
		SenderUserID:        user.ID,
		Ciphertext:          env.Ciphertext,
		IV:                  env.IV,
		AuthTag:             env.AuthTag,
	})
	if err != nil {
		return nil, err
	}

	participants, err := s.store.ListParticipants(ctx, roomID)
	if err != nil {
		return nil, err
	}
	participantIDs := make([]string, len(participants))
	for i, p := range participants {
		participantIDs[i] = p.ID
	}

	sentAt := msg.CreatedAt
	if err := s.store.CreateReceipts(ctx, msg.ID, participantIDs, sender.ID, sentAt); err != nil {
		return nil, err
	}

	if err := s.store.TouchRoom(ctx, roomID); err != nil {
		return nil, err
	}

	// The plaintext is already in hand; no redundant decryption.
	view := &models.MessageView{
		ID:           msg.ID,
		RoomID:       msg.RoomID,
		SenderUserID: msg.SenderUserID,
		Content:      content,
		CreatedAt:    msg.CreatedAt,
		ReadAt:       &sentAt,
		IsRead:       true,
	}

	if err := s.notifier.Broadcast(ctx, realtime.RoomChannel(roomID), realtime.EventChatMessage, view); err != nil {
		return nil, err
	}

	return view, nil
}

// GetMessages pages through the room's history. Fetching is newest-first for
// cursor pagination; the response is reversed into chronological order.
func (s *Service) GetMessages(ctx context.Context, roomID string, user models.AuthUser, limit int, cursor string) ([]models.MessageView, error) {
	viewer, err := s.ensureParticipant(ctx, roomID, user.ID)
	if err != nil {
		return nil, err
	}

	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	messages, err := s.store.ListMessages(ctx, roomID, limit, cursor)
	if err != nil {
		return nil, err
	}

	messageIDs := make([]string, len(messages))
	for i, m := range messages {
		messageIDs[i] = m.ID
	}
	receipts, err := s.store.ReceiptsForViewer(ctx, viewer.ID, messageIDs)
	if err != nil {
		return nil, err
	}

	views := make([]models.MessageView, 0, len(messages))
	for i := len(messages) - 1; i >= 0; i-- {
		view, err := s.messageView(&messages[i], receipts)
		if err != nil {
			return nil, err
		}
		views = append(views, *view)
	}
	return views, nil
}

// MarkMessageAsRead stamps the viewer's receipt for the message and
// broadcasts the read event. Re-marking an already-read message returns the
// original timestamp.
func (s *Service) MarkMessageAsRead(ctx context.Context, roomID, messageID string, user models.AuthUser) (*models.ReadConfirmation, error) {
	viewer, err := s.ensureParticipant(ctx, roomID, user.ID)
	if err != nil {
		return nil, err
	}

	if _, err := s.store.FindMessage(ctx, roomID, messageID); err != nil {
		return nil, err
	}

	receipt, err := s.store.MarkRead(ctx, messageID, viewer.ID, time.Now())
	if err != nil {
		return nil, err
	}
	if receipt.ReadAt == nil {
		return nil, apperr.Internal("receipt missing read timestamp after mark")
	}

	confirmation := &models.ReadConfirmation{
		MessageID: messageID,
		ReadAt:    *receipt.ReadAt,
	}

	err = s.notifier.Broadcast(ctx, realtime.RoomChannel(roomID), realtime.EventChatMessageRead, map[string]interface{}{
		"messageId":    messageID,
		"readerUserId": user.ID,
		"readAt":       confirmation.ReadAt,
	})
	if err != nil {
		return nil, err
	}

	return confirmation, nil
}

// ensureParticipant authorizes access to a room: NOT_FOUND when the room
// does not exist, PERMISSION_DENIED when it does but the user is no member.
func (s *Service) ensureParticipant(ctx context.Context, roomID, userID string) (*models.Participant, error) {
	participant, err := s.store.FindParticipant(ctx, roomID, userID)
	if err == nil {
		return participant, nil
	}
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		return nil, err
	}

	if _, roomErr := s.store.FindRoomByID(ctx, roomID); roomErr != nil {
		return nil, roomErr
	}
	return nil, apperr.Forbidden("user is not a participant of this room")
}

func (s *Service) messageView(msg *models.Message, receipts map[string]models.Receipt) (*models.MessageView, error) {
	plaintext, err := s.enc.Decrypt(Envelope{
		Ciphertext: msg.Ciphertext,
		IV:         msg.IV,
		AuthTag:    msg.AuthTag,
	})
	if err != nil {
		return nil, err
	}

	view := &models.MessageView{
		ID:           msg.ID,
		RoomID:       msg.RoomID,
		SenderUserID: msg.SenderUserID,
		Content:      plaintext,
		CreatedAt:    msg.CreatedAt,
	}
	if receipt, ok := receipts[msg.ID]; ok && receipt.ReadAt != nil {
		view.ReadAt = receipt.ReadAt
		view.IsRead = true
	}
	return view, nil
}

func (s *Service) roomView(ctx context.Context, room *models.Room, viewerUserID string) (*models.RoomView, error) {
	participants, err := s.store.ListParticipants(ctx, room.ID)
	if err != nil {
		return nil, err
	}

	view := &models.RoomView{
		ID:           room.ID,
		Name:         room.Name,
		Type:         room.Type,
		CreatedAt:    room.CreatedAt,
		UpdatedAt:    room.UpdatedAt,
		Participants: participants,
	}

	latest, err := s.store.LatestMessage(ctx, room.ID)
	if err != nil {
		if apperr.IsCode(err, apperr.CodeNotFound) {
			return view, nil
		}
		return nil, err
	}

	receipts := map[string]models.Receipt{}
	for _, p := range participants {
		if p.UserID == viewerUserID {
			receipts, err = s.store.ReceiptsForViewer(ctx, p.ID, []string{latest.ID})
			if err != nil {
				return nil, err
			}
			break
		}
	}

	last, err := s.messageView(latest, receipts)
	if err != nil {
		return nil, err
	}
	view.LastMessage = last
	return view, nil
}
