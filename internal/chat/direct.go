package chat

import (
	"context"
	"sort"
	"strings"

	"koalitos/backend/internal/apperr"
	"koalitos/backend/internal/models"
)

// DirectKey derives the canonical identity of a two-party conversation.
// The ids are sorted before joining, so the key is the same no matter which
// side initiates.
func DirectKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + "#" + b
}

// StartDirectChat resolves (or creates) the direct room between the caller
// and the user owning the handle.
func (s *Service) StartDirectChat(ctx context.Context, user models.AuthUser, handle string) (*models.RoomView, error) {
	room, err := s.resolveDirectRoom(ctx, user, handle, true)
	if err != nil {
		return nil, err
	}
	return s.roomView(ctx, room, user.ID)
}

// SendDirectMessage sends into the direct room with the handle's owner,
// creating the room on first contact.
func (s *Service) SendDirectMessage(ctx context.Context, user models.AuthUser, handle, content string) (*models.MessageView, error) {
	room, err := s.resolveDirectRoom(ctx, user, handle, true)
	if err != nil {
		return nil, err
	}
	return s.SendMessage(ctx, room.ID, user, content)
}

// GetDirectMessages pages through the history with the handle's owner. The
// room is not created on read: no conversation yet means NOT_FOUND.
func (s *Service) GetDirectMessages(ctx context.Context, user models.AuthUser, handle string, limit int, cursor string) ([]models.MessageView, error) {
	room, err := s.resolveDirectRoom(ctx, user, handle, false)
	if err != nil {
		return nil, err
	}
	return s.GetMessages(ctx, room.ID, user, limit, cursor)
}

func (s *Service) resolveDirectRoom(ctx context.Context, user models.AuthUser, rawHandle string, createIfMissing bool) (*models.Room, error) {
	handle := strings.ToLower(strings.TrimSpace(rawHandle))
	if handle == "" {
		return nil, apperr.InvalidArg("handle is required")
	}

	target, err := s.store.FindProfileByHandle(ctx, handle)
	if err != nil {
		return nil, err
	}
	if target.UserID == user.ID {
		return nil, apperr.InvalidArg("cannot start a direct chat with yourself")
	}

	directKey := DirectKey(user.ID, target.UserID)

	room, err := s.store.FindRoomByDirectKey(ctx, directKey)
	if err == nil {
		return room, nil
	}
	if !apperr.IsCode(err, apperr.CodeNotFound) {
		return nil, err
	}
	if !createIfMissing {
		return nil, apperr.NotFound("no direct conversation with this user yet")
	}

	requester, err := s.store.FindProfileByUserID(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	if requester.Handle == nil || *requester.Handle == "" {
		return nil, apperr.NotFound("configure a handle before starting direct chats")
	}

	handles := []string{*requester.Handle, *target.Handle}
	sort.Strings(handles)
	name := "Chat " + strings.Join(handles, " & ")

	room, _, err = s.store.CreateRoom(ctx, name, models.RoomTypeDirect, &directKey, []string{user.ID, target.UserID})
	if err == nil {
		return room, nil
	}

	// Lost the creation race: the unique direct key guarantees the winner's
	// room is the one to return.
	if apperr.IsCode(err, apperr.CodeAlreadyExists) {
		return s.store.FindRoomByDirectKey(ctx, directKey)
	}
	return nil, err
}
