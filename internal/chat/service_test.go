package chat

import (
	"context"
	"fmt"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koalitos/backend/internal/apperr"
	"koalitos/backend/internal/models"
	"koalitos/backend/internal/realtime"
)

type fixture struct {
	service  *Service
	store    *fakeStore
	notifier *fakeNotifier
	alice    models.AuthUser
	bob      models.AuthUser
	room     *models.RoomView
}

func newRoomFixture(t *testing.T) *fixture {
	t.Helper()
	store := newFakeStore()
	notifier := &fakeNotifier{}
	enc, err := NewEncryptor(testKeyHex(t))
	require.NoError(t, err)
	service := NewService(store, enc, notifier)

	alice := models.AuthUser{ID: uuid.NewString(), Email: "alice@example.com", Handle: "alice"}
	bob := models.AuthUser{ID: uuid.NewString(), Email: "bob@example.com", Handle: "bob"}
	store.addProfile(alice.ID, "alice")
	store.addProfile(bob.ID, "bob")

	room, err := service.CreateRoom(context.Background(), alice, "Project Room", []string{bob.ID})
	require.NoError(t, err)

	return &fixture{
		service:  service,
		store:    store,
		notifier: notifier,
		alice:    alice,
		bob:      bob,
		room:     room,
	}
}

func TestCreateRoom_RequiresTwoDistinctParticipants(t *testing.T) {
	store := newFakeStore()
	enc, err := NewEncryptor(testKeyHex(t))
	require.NoError(t, err)
	service := NewService(store, enc, &fakeNotifier{})

	caller := models.AuthUser{ID: uuid.NewString()}

	// Only the caller, who is also listed explicitly.
	_, err = service.CreateRoom(context.Background(), caller, "Lonely", []string{caller.ID})
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument))
}

func TestCreateRoom_DeduplicatesParticipants(t *testing.T) {
	f := newRoomFixture(t)

	room, err := f.service.CreateRoom(context.Background(), f.alice, "Dupes", []string{f.bob.ID, f.bob.ID, f.alice.ID})
	require.NoError(t, err)
	assert.Len(t, room.Participants, 2)
}

func TestSendMessage_CreatesReceiptPerParticipant(t *testing.T) {
	f := newRoomFixture(t)

	view, err := f.service.SendMessage(context.Background(), f.room.ID, f.alice, "hello")
	require.NoError(t, err)

	assert.Equal(t, "hello", view.Content)
	assert.True(t, view.IsRead)
	require.NotNil(t, view.ReadAt)

	// One receipt per room participant, only the sender's stamped.
	read, unread := 0, 0
	for _, receipt := range f.store.receipts {
		require.Equal(t, view.ID, receipt.MessageID)
		if receipt.ReadAt != nil {
			read++
		} else {
			unread++
		}
	}
	assert.Equal(t, 1, read)
	assert.Equal(t, 1, unread)
}

func TestSendMessage_PlaintextNeverStored(t *testing.T) {
	f := newRoomFixture(t)

	_, err := f.service.SendMessage(context.Background(), f.room.ID, f.alice, "top secret")
	require.NoError(t, err)

	require.Len(t, f.store.messages, 1)
	stored := f.store.messages[0]
	assert.NotContains(t, stored.Ciphertext, "top secret")
	assert.NotEmpty(t, stored.IV)
	assert.NotEmpty(t, stored.AuthTag)
}

func TestSendMessage_BroadcastsToRoomChannel(t *testing.T) {
	f := newRoomFixture(t)

	view, err := f.service.SendMessage(context.Background(), f.room.ID, f.alice, "ping")
	require.NoError(t, err)

	require.Equal(t, 1, f.notifier.count())
	event := f.notifier.events[0]
	assert.Equal(t, realtime.RoomChannel(f.room.ID), event.Channel)
	assert.Equal(t, realtime.EventChatMessage, event.Event)
	assert.Equal(t, view, event.Payload)
}

func TestSendMessage_BroadcastFailureSurfacesAfterPersist(t *testing.T) {
	f := newRoomFixture(t)
	f.notifier.err = apperr.Broadcast("transport down", nil)

	_, err := f.service.SendMessage(context.Background(), f.room.ID, f.alice, "lost event")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeBroadcast))

	// The message and its receipts were still committed.
	assert.Len(t, f.store.messages, 1)
	assert.Len(t, f.store.receipts, 2)
}

func TestSendMessage_RoomChecks(t *testing.T) {
	f := newRoomFixture(t)
	stranger := models.AuthUser{ID: uuid.NewString()}

	t.Run("unknown room is not found", func(t *testing.T) {
		_, err := f.service.SendMessage(context.Background(), uuid.NewString(), f.alice, "hi")
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
	})

	t.Run("non-member is forbidden", func(t *testing.T) {
		_, err := f.service.SendMessage(context.Background(), f.room.ID, stranger, "hi")
		require.Error(t, err)
		assert.True(t, apperr.IsCode(err, apperr.CodePermissionDenied))
	})
}

func TestReadFlow(t *testing.T) {
	f := newRoomFixture(t)
	ctx := context.Background()

	sent, err := f.service.SendMessage(ctx, f.room.ID, f.alice, "hello")
	require.NoError(t, err)

	// Bob sees the message unread.
	history, err := f.service.GetMessages(ctx, f.room.ID, f.bob, 0, "")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "hello", history[0].Content)
	assert.False(t, history[0].IsRead)
	assert.Nil(t, history[0].ReadAt)

	// Bob marks it read.
	confirmation, err := f.service.MarkMessageAsRead(ctx, f.room.ID, sent.ID, f.bob)
	require.NoError(t, err)
	assert.Equal(t, sent.ID, confirmation.MessageID)
	assert.False(t, confirmation.ReadAt.IsZero())

	// Re-marking is idempotent.
	again, err := f.service.MarkMessageAsRead(ctx, f.room.ID, sent.ID, f.bob)
	require.NoError(t, err)
	assert.Equal(t, confirmation.ReadAt, again.ReadAt)

	// Bob now sees it read.
	history, err = f.service.GetMessages(ctx, f.room.ID, f.bob, 0, "")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.True(t, history[0].IsRead)
	require.NotNil(t, history[0].ReadAt)
	assert.Equal(t, confirmation.ReadAt, *history[0].ReadAt)

	// Read events were broadcast for both mark calls, plus the send.
	require.Equal(t, 3, f.notifier.count())
	assert.Equal(t, realtime.EventChatMessageRead, f.notifier.events[1].Event)
}

func TestMarkMessageAsRead_MessageOutsideRoom(t *testing.T) {
	f := newRoomFixture(t)
	ctx := context.Background()

	other, err := f.service.CreateRoom(ctx, f.alice, "Other Room", []string{f.bob.ID})
	require.NoError(t, err)

	sent, err := f.service.SendMessage(ctx, other.ID, f.alice, "elsewhere")
	require.NoError(t, err)

	// The message exists, but not in the addressed room.
	_, err = f.service.MarkMessageAsRead(ctx, f.room.ID, sent.ID, f.bob)
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestGetMessages_ChronologicalOrder(t *testing.T) {
	f := newRoomFixture(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := f.service.SendMessage(ctx, f.room.ID, f.alice, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
	}

	history, err := f.service.GetMessages(ctx, f.room.ID, f.bob, 0, "")
	require.NoError(t, err)
	require.Len(t, history, 5)
	for i, view := range history {
		assert.Equal(t, fmt.Sprintf("message %d", i), view.Content)
	}
}

func TestGetMessages_CursorIsExclusive(t *testing.T) {
	f := newRoomFixture(t)
	ctx := context.Background()

	var sent []*models.MessageView
	for i := 0; i < 6; i++ {
		view, err := f.service.SendMessage(ctx, f.room.ID, f.alice, fmt.Sprintf("message %d", i))
		require.NoError(t, err)
		sent = append(sent, view)
	}

	// Page from the newest two, then continue behind the cursor.
	page, err := f.service.GetMessages(ctx, f.room.ID, f.bob, 2, "")
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "message 4", page[0].Content)
	assert.Equal(t, "message 5", page[1].Content)

	cursor := page[0].ID
	older, err := f.service.GetMessages(ctx, f.room.ID, f.bob, 10, cursor)
	require.NoError(t, err)
	require.Len(t, older, 4)
	for _, view := range older {
		assert.NotEqual(t, cursor, view.ID)
		assert.True(t, view.CreatedAt.Before(sent[4].CreatedAt))
	}
	assert.Equal(t, "message 3", older[3].Content)
}

func TestGetMessages_LimitClamped(t *testing.T) {
	f := newRoomFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.service.SendMessage(ctx, f.room.ID, f.alice, "m")
		require.NoError(t, err)
	}

	// A limit beyond the maximum falls back to the cap, not an error.
	history, err := f.service.GetMessages(ctx, f.room.ID, f.bob, MaxPageSize+50, "")
	require.NoError(t, err)
	assert.Len(t, history, 3)
}

func TestListRooms_MostRecentFirstWithLastMessage(t *testing.T) {
	f := newRoomFixture(t)
	ctx := context.Background()

	second, err := f.service.CreateRoom(ctx, f.alice, "Second Room", []string{f.bob.ID})
	require.NoError(t, err)

	_, err = f.service.SendMessage(ctx, f.room.ID, f.alice, "older activity")
	require.NoError(t, err)
	_, err = f.service.SendMessage(ctx, second.ID, f.bob, "newest activity")
	require.NoError(t, err)

	rooms, err := f.service.ListRooms(ctx, f.alice)
	require.NoError(t, err)
	require.Len(t, rooms, 2)

	assert.Equal(t, second.ID, rooms[0].ID)
	require.NotNil(t, rooms[0].LastMessage)
	assert.Equal(t, "newest activity", rooms[0].LastMessage.Content)
	// Bob sent it; Alice has not read it.
	assert.False(t, rooms[0].LastMessage.IsRead)

	require.NotNil(t, rooms[1].LastMessage)
	assert.Equal(t, "older activity", rooms[1].LastMessage.Content)
	// Alice sent this one herself.
	assert.True(t, rooms[1].LastMessage.IsRead)
}

func TestListRooms_EmptyRoomHasNoLastMessage(t *testing.T) {
	f := newRoomFixture(t)

	rooms, err := f.service.ListRooms(context.Background(), f.alice)
	require.NoError(t, err)
	require.Len(t, rooms, 1)
	assert.Nil(t, rooms[0].LastMessage)
}
