package realtime

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"koalitos/backend/internal/models"
)

type fakeMemberships struct {
	roomsByUser   map[string][]models.Room
	membersByRoom map[string][]string
}

func (f *fakeMemberships) ListRoomsForUser(ctx context.Context, userID string) ([]models.Room, error) {
	return f.roomsByUser[userID], nil
}

func (f *fakeMemberships) ListRoomMemberIDs(ctx context.Context, roomID string) ([]string, error) {
	return f.membersByRoom[roomID], nil
}

func newTestClient(hub *Hub, userID string) *Client {
	return &Client{UserID: userID, Send: make(chan []byte, 8), Hub: hub}
}

func TestHub_DispatchReachesEveryRoomMember(t *testing.T) {
	memberships := &fakeMemberships{
		roomsByUser: map[string][]models.Room{
			"alice": {{ID: "room-1"}},
			"bob":   {{ID: "room-1"}},
			"carol": {{ID: "room-2"}},
		},
	}
	hub := NewHub(memberships)

	alice := newTestClient(hub, "alice")
	bob := newTestClient(hub, "bob")
	carol := newTestClient(hub, "carol")
	hub.registerClient(alice)
	hub.registerClient(bob)
	hub.registerClient(carol)

	hub.dispatch(RoomChannel("room-1"), []byte("event"))

	assert.Equal(t, []byte("event"), <-alice.Send)
	assert.Equal(t, []byte("event"), <-bob.Send)
	assert.Empty(t, carol.Send)
}

func TestHub_IndexesUnknownRoomOnFirstEvent(t *testing.T) {
	memberships := &fakeMemberships{
		membersByRoom: map[string][]string{
			"fresh-room": {"alice"},
		},
	}
	hub := NewHub(memberships)

	alice := newTestClient(hub, "alice")
	hub.registerClient(alice)

	// The room was created after alice connected, so it is not in her
	// connect-time snapshot.
	hub.dispatch(RoomChannel("fresh-room"), []byte("first event"))

	assert.Equal(t, []byte("first event"), <-alice.Send)
}

func TestHub_CalculationsChannelReachesEveryone(t *testing.T) {
	hub := NewHub(&fakeMemberships{})

	alice := newTestClient(hub, "alice")
	bob := newTestClient(hub, "bob")
	hub.registerClient(alice)
	hub.registerClient(bob)

	hub.dispatch(CalculationsChannel, []byte("sum"))

	assert.Equal(t, []byte("sum"), <-alice.Send)
	assert.Equal(t, []byte("sum"), <-bob.Send)
}

func TestHub_NewConnectionReplacesOld(t *testing.T) {
	hub := NewHub(&fakeMemberships{})

	first := newTestClient(hub, "alice")
	second := newTestClient(hub, "alice")
	hub.registerClient(first)
	hub.registerClient(second)

	_, open := <-first.Send
	assert.False(t, open, "old connection's channel should be closed")
	assert.Equal(t, 1, hub.OnlineCount())
}

func TestHub_UnregisterIgnoresStaleClient(t *testing.T) {
	memberships := &fakeMemberships{
		roomsByUser: map[string][]models.Room{
			"alice": {{ID: "room-1"}},
		},
	}
	hub := NewHub(memberships)

	old := newTestClient(hub, "alice")
	current := newTestClient(hub, "alice")
	hub.registerClient(old)
	hub.registerClient(current)

	// The old connection's teardown must not evict the replacement.
	hub.unregisterClient(old)
	require.Equal(t, 1, hub.OnlineCount())

	hub.dispatch(RoomChannel("room-1"), []byte("still connected"))
	assert.Equal(t, []byte("still connected"), <-current.Send)
}

func TestHub_UnregisterRemovesClient(t *testing.T) {
	hub := NewHub(&fakeMemberships{})

	client := newTestClient(hub, "alice")
	hub.registerClient(client)
	require.Equal(t, 1, hub.OnlineCount())

	hub.unregisterClient(client)
	assert.Equal(t, 0, hub.OnlineCount())
}
