package chat

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koalitos/backend/internal/apperr"
	"koalitos/backend/internal/models"
)

func TestDirectKey_OrderIndependent(t *testing.T) {
	for i := 0; i < 20; i++ {
		a, b := uuid.NewString(), uuid.NewString()
		assert.Equal(t, DirectKey(a, b), DirectKey(b, a))
	}
	assert.Equal(t, "a#b", DirectKey("b", "a"))
}

func newDirectFixture(t *testing.T) (*Service, *fakeStore, models.AuthUser, models.AuthUser) {
	t.Helper()
	store := newFakeStore()
	enc, err := NewEncryptor(testKeyHex(t))
	require.NoError(t, err)
	service := NewService(store, enc, &fakeNotifier{})

	alice := models.AuthUser{ID: uuid.NewString(), Email: "alice@example.com", Handle: "alice"}
	bob := models.AuthUser{ID: uuid.NewString(), Email: "bob@example.com", Handle: "bob"}
	store.addProfile(alice.ID, "alice")
	store.addProfile(bob.ID, "bob")
	return service, store, alice, bob
}

func TestStartDirectChat_CreatesRoomWithBothParticipants(t *testing.T) {
	service, _, alice, bob := newDirectFixture(t)

	room, err := service.StartDirectChat(context.Background(), alice, "bob")
	require.NoError(t, err)

	assert.Equal(t, models.RoomTypeDirect, room.Type)
	assert.Equal(t, "Chat alice & bob", room.Name)
	assert.Len(t, room.Participants, 2)

	userIDs := []string{room.Participants[0].UserID, room.Participants[1].UserID}
	assert.ElementsMatch(t, []string{alice.ID, bob.ID}, userIDs)
}

func TestStartDirectChat_IdempotentAcrossDirections(t *testing.T) {
	service, _, alice, bob := newDirectFixture(t)

	first, err := service.StartDirectChat(context.Background(), alice, "bob")
	require.NoError(t, err)

	again, err := service.StartDirectChat(context.Background(), alice, "bob")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	reverse, err := service.StartDirectChat(context.Background(), bob, "alice")
	require.NoError(t, err)
	assert.Equal(t, first.ID, reverse.ID)
}

// racingStore makes the direct-key lookup miss a set number of times, so the
// resolver takes the create path against a room that already exists.
type racingStore struct {
	*fakeStore
	misses int
}

func (s *racingStore) FindRoomByDirectKey(ctx context.Context, directKey string) (*models.Room, error) {
	if s.misses > 0 {
		s.misses--
		return nil, apperr.NotFound("chat room not found")
	}
	return s.fakeStore.FindRoomByDirectKey(ctx, directKey)
}

func TestStartDirectChat_CreationRaceReturnsExistingRoom(t *testing.T) {
	store := newFakeStore()
	enc, err := NewEncryptor(testKeyHex(t))
	require.NoError(t, err)

	alice := models.AuthUser{ID: uuid.NewString(), Email: "alice@example.com", Handle: "alice"}
	bob := models.AuthUser{ID: uuid.NewString(), Email: "bob@example.com", Handle: "bob"}
	store.addProfile(alice.ID, "alice")
	store.addProfile(bob.ID, "bob")

	// Bob wins the race: his room is committed first.
	winner := NewService(store, enc, &fakeNotifier{})
	won, err := winner.StartDirectChat(context.Background(), bob, "alice")
	require.NoError(t, err)

	// Alice's lookup raced ahead of Bob's commit and missed, so her create
	// hits the duplicate direct key and must recover the winner's room.
	loser := NewService(&racingStore{fakeStore: store, misses: 1}, enc, &fakeNotifier{})
	recovered, err := loser.StartDirectChat(context.Background(), alice, "bob")
	require.NoError(t, err)
	assert.Equal(t, won.ID, recovered.ID)
}

func TestStartDirectChat_HandleIsNormalized(t *testing.T) {
	service, _, alice, _ := newDirectFixture(t)

	room, err := service.StartDirectChat(context.Background(), alice, "  BOB ")
	require.NoError(t, err)
	assert.Equal(t, models.RoomTypeDirect, room.Type)
}

func TestStartDirectChat_SelfChatRejected(t *testing.T) {
	service, _, alice, _ := newDirectFixture(t)

	_, err := service.StartDirectChat(context.Background(), alice, "alice")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeInvalidArgument))
}

func TestStartDirectChat_UnknownHandle(t *testing.T) {
	service, _, alice, _ := newDirectFixture(t)

	_, err := service.StartDirectChat(context.Background(), alice, "nobody")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestStartDirectChat_RequesterWithoutHandle(t *testing.T) {
	store := newFakeStore()
	enc, err := NewEncryptor(testKeyHex(t))
	require.NoError(t, err)
	service := NewService(store, enc, &fakeNotifier{})

	anon := models.AuthUser{ID: uuid.NewString(), Email: "anon@example.com"}
	bob := models.AuthUser{ID: uuid.NewString(), Email: "bob@example.com", Handle: "bob"}
	store.addProfileWithoutHandle(anon.ID)
	store.addProfile(bob.ID, "bob")

	_, err = service.StartDirectChat(context.Background(), anon, "bob")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestGetDirectMessages_NoConversationYet(t *testing.T) {
	service, _, alice, _ := newDirectFixture(t)

	_, err := service.GetDirectMessages(context.Background(), alice, "bob", 0, "")
	require.Error(t, err)
	assert.True(t, apperr.IsCode(err, apperr.CodeNotFound))
}

func TestSendDirectMessage_CreatesRoomOnFirstContact(t *testing.T) {
	service, _, alice, bob := newDirectFixture(t)

	view, err := service.SendDirectMessage(context.Background(), alice, "bob", "first contact")
	require.NoError(t, err)
	assert.Equal(t, "first contact", view.Content)

	history, err := service.GetDirectMessages(context.Background(), bob, "alice", 0, "")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "first contact", history[0].Content)
	assert.False(t, history[0].IsRead)
}
