package realtime

import (
	"context"
	"log"
	"strings"
	"sync"

	"github.com/redis/go-redis/v9"

	"koalitos/backend/internal/models"
)

// Memberships tells the hub which rooms a user belongs to at connect time,
// and who belongs to a room it has not seen yet.
type Memberships interface {
	ListRoomsForUser(ctx context.Context, userID string) ([]models.Room, error)
	ListRoomMemberIDs(ctx context.Context, roomID string) ([]string, error)
}

// Hub maintains the set of connected websocket clients and forwards chat
// events arriving from the broadcast transport to the clients whose rooms
// they belong to.
type Hub struct {
	// Registered clients mapped by user ID
	clients map[string]*Client

	// Room membership index: room id -> user ids
	rooms map[string]map[string]bool

	Register   chan *Client
	Unregister chan *Client

	memberships Memberships

	mu sync.RWMutex
}

func NewHub(memberships Memberships) *Hub {
	return &Hub{
		clients:     make(map[string]*Client),
		rooms:       make(map[string]map[string]bool),
		Register:    make(chan *Client),
		Unregister:  make(chan *Client),
		memberships: memberships,
	}
}

// Run starts the hub's register/unregister loop.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.registerClient(client)
		case client := <-h.Unregister:
			h.unregisterClient(client)
		}
	}
}

// Listen subscribes to every room channel plus the calculations channel on
// Redis and dispatches incoming events until ctx is cancelled.
func (h *Hub) Listen(ctx context.Context, client *redis.Client) {
	sub := client.PSubscribe(ctx, RoomChannel("*"), CalculationsChannel)
	defer sub.Close()

	for {
		select {
		case msg, ok := <-sub.Channel():
			if !ok {
				return
			}
			h.dispatch(msg.Channel, []byte(msg.Payload))
		case <-ctx.Done():
			return
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	rooms, err := h.memberships.ListRoomsForUser(context.Background(), client.UserID)
	if err != nil {
		log.Printf("Failed to load rooms for %s: %v", client.UserID, err)
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	// If the user already has a connection, close the old one
	if existing, ok := h.clients[client.UserID]; ok {
		close(existing.Send)
	}
	h.clients[client.UserID] = client

	for _, room := range rooms {
		if h.rooms[room.ID] == nil {
			h.rooms[room.ID] = make(map[string]bool)
		}
		h.rooms[room.ID][client.UserID] = true
	}

	log.Printf("Client connected: %s", client.UserID)
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if current, ok := h.clients[client.UserID]; ok && current == client {
		delete(h.clients, client.UserID)
		close(client.Send)

		for _, members := range h.rooms {
			delete(members, client.UserID)
		}

		log.Printf("Client disconnected: %s", client.UserID)
	}
}

func (h *Hub) dispatch(channel string, data []byte) {
	if channel == CalculationsChannel {
		h.broadcastAll(data)
		return
	}

	roomID := strings.TrimPrefix(channel, RoomChannel(""))

	h.mu.RLock()
	_, ok := h.rooms[roomID]
	h.mu.RUnlock()
	if !ok {
		// First event for a room created after its members connected;
		// index it before fanning out.
		h.indexRoom(roomID)
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for userID := range h.rooms[roomID] {
		client, ok := h.clients[userID]
		if !ok {
			continue
		}
		select {
		case client.Send <- data:
		default:
			log.Printf("Dropping event for slow client: %s", userID)
		}
	}
}

// broadcastAll fans an event out to every connected client, used for
// channels that are not scoped to a room.
func (h *Hub) broadcastAll(data []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for userID, client := range h.clients {
		select {
		case client.Send <- data:
		default:
			log.Printf("Dropping event for slow client: %s", userID)
		}
	}
}

func (h *Hub) indexRoom(roomID string) {
	userIDs, err := h.memberships.ListRoomMemberIDs(context.Background(), roomID)
	if err != nil {
		log.Printf("Failed to load members for room %s: %v", roomID, err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[roomID]; ok {
		return
	}
	members := make(map[string]bool, len(userIDs))
	for _, id := range userIDs {
		members[id] = true
	}
	h.rooms[roomID] = members
}

// OnlineCount returns the number of currently connected clients.
func (h *Hub) OnlineCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
