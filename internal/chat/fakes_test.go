package chat

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"koalitos/backend/internal/apperr"
	"koalitos/backend/internal/models"
)

// fakeStore is an in-memory Store used to exercise the service without a
// database. Ordering mirrors the real store: newest-first fetch with an
// exclusive cursor.
type fakeStore struct {
	mu           sync.Mutex
	rooms        map[string]models.Room
	participants []models.Participant
	messages     []models.Message
	receipts     map[string]models.Receipt // message id + "/" + participant id
	profiles     []models.Profile
	clock        time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		rooms:    make(map[string]models.Room),
		receipts: make(map[string]models.Receipt),
		clock:    time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
}

func (f *fakeStore) tick() time.Time {
	f.clock = f.clock.Add(time.Second)
	return f.clock
}

func (f *fakeStore) addProfile(userID, handle string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	h := handle
	f.profiles = append(f.profiles, models.Profile{
		ID:     uuid.NewString(),
		UserID: userID,
		Handle: &h,
	})
}

func (f *fakeStore) addProfileWithoutHandle(userID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profiles = append(f.profiles, models.Profile{
		ID:     uuid.NewString(),
		UserID: userID,
	})
}

func (f *fakeStore) CreateRoom(ctx context.Context, name, roomType string, directKey *string, userIDs []string) (*models.Room, []models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if directKey != nil {
		for _, room := range f.rooms {
			if room.DirectKey != nil && *room.DirectKey == *directKey {
				return nil, nil, apperr.Wrap(apperr.CodeAlreadyExists, "duplicate record", nil)
			}
		}
	}

	now := f.tick()
	room := models.Room{
		ID:        uuid.NewString(),
		Name:      name,
		Type:      roomType,
		DirectKey: directKey,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.rooms[room.ID] = room

	var participants []models.Participant
	for _, userID := range userIDs {
		p := models.Participant{
			ID:       uuid.NewString(),
			RoomID:   room.ID,
			UserID:   userID,
			JoinedAt: now,
		}
		f.participants = append(f.participants, p)
		participants = append(participants, p)
	}
	return &room, participants, nil
}

func (f *fakeStore) FindRoomByID(ctx context.Context, roomID string) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if room, ok := f.rooms[roomID]; ok {
		return &room, nil
	}
	return nil, apperr.NotFound("chat room not found")
}

func (f *fakeStore) FindRoomByDirectKey(ctx context.Context, directKey string) (*models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, room := range f.rooms {
		if room.DirectKey != nil && *room.DirectKey == directKey {
			r := room
			return &r, nil
		}
	}
	return nil, apperr.NotFound("chat room not found")
}

func (f *fakeStore) ListRoomsForUser(ctx context.Context, userID string) ([]models.Room, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var rooms []models.Room
	for _, p := range f.participants {
		if p.UserID == userID {
			rooms = append(rooms, f.rooms[p.RoomID])
		}
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].UpdatedAt.After(rooms[j].UpdatedAt)
	})
	return rooms, nil
}

func (f *fakeStore) ListParticipants(ctx context.Context, roomID string) ([]models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []models.Participant
	for _, p := range f.participants {
		if p.RoomID == roomID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeStore) FindParticipant(ctx context.Context, roomID, userID string) (*models.Participant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.participants {
		if p.RoomID == roomID && p.UserID == userID {
			out := p
			return &out, nil
		}
	}
	return nil, apperr.NotFound("participant not found")
}

func (f *fakeStore) TouchRoom(ctx context.Context, roomID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	room, ok := f.rooms[roomID]
	if !ok {
		return apperr.NotFound("chat room not found")
	}
	room.UpdatedAt = f.tick()
	f.rooms[roomID] = room
	return nil
}

func (f *fakeStore) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	created := *msg
	created.ID = uuid.NewString()
	created.CreatedAt = f.tick()
	f.messages = append(f.messages, created)
	return &created, nil
}

func (f *fakeStore) ListMessages(ctx context.Context, roomID string, limit int, cursor string) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var all []models.Message
	for _, m := range f.messages {
		if m.RoomID == roomID {
			all = append(all, m)
		}
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})

	if cursor != "" {
		idx := -1
		for i, m := range all {
			if m.ID == cursor {
				idx = i
				break
			}
		}
		if idx < 0 {
			return nil, nil
		}
		all = all[idx+1:]
	}

	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeStore) FindMessage(ctx context.Context, roomID, messageID string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, m := range f.messages {
		if m.ID == messageID && m.RoomID == roomID {
			out := m
			return &out, nil
		}
	}
	return nil, apperr.NotFound("message not found in this room")
}

func (f *fakeStore) LatestMessage(ctx context.Context, roomID string) (*models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var latest *models.Message
	for i := range f.messages {
		m := f.messages[i]
		if m.RoomID != roomID {
			continue
		}
		if latest == nil || m.CreatedAt.After(latest.CreatedAt) {
			latest = &m
		}
	}
	if latest == nil {
		return nil, apperr.NotFound("room has no messages")
	}
	return latest, nil
}

func (f *fakeStore) CreateReceipts(ctx context.Context, messageID string, participantIDs []string, senderParticipantID string, sentAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, pid := range participantIDs {
		key := messageID + "/" + pid
		if _, exists := f.receipts[key]; exists {
			continue
		}
		receipt := models.Receipt{
			ID:            uuid.NewString(),
			MessageID:     messageID,
			ParticipantID: pid,
		}
		if pid == senderParticipantID {
			t := sentAt
			receipt.ReadAt = &t
		}
		f.receipts[key] = receipt
	}
	return nil
}

func (f *fakeStore) ReceiptsForViewer(ctx context.Context, participantID string, messageIDs []string) (map[string]models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(map[string]models.Receipt)
	for _, id := range messageIDs {
		if receipt, ok := f.receipts[id+"/"+participantID]; ok {
			out[id] = receipt
		}
	}
	return out, nil
}

func (f *fakeStore) MarkRead(ctx context.Context, messageID, participantID string, readAt time.Time) (*models.Receipt, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := messageID + "/" + participantID
	receipt, ok := f.receipts[key]
	if !ok {
		return nil, apperr.NotFound("receipt not found")
	}
	if receipt.ReadAt == nil {
		t := readAt
		receipt.ReadAt = &t
		f.receipts[key] = receipt
	}
	out := receipt
	return &out, nil
}

func (f *fakeStore) FindProfileByHandle(ctx context.Context, handle string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.Handle != nil && *p.Handle == handle {
			out := p
			return &out, nil
		}
	}
	return nil, apperr.NotFound("no user with this handle")
}

func (f *fakeStore) FindProfileByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.profiles {
		if p.UserID == userID {
			out := p
			return &out, nil
		}
	}
	return nil, apperr.NotFound("profile not found")
}

// fakeNotifier records every broadcast.
type fakeNotifier struct {
	mu     sync.Mutex
	events []fakeEvent
	err    error
}

type fakeEvent struct {
	Channel string
	Event   string
	Payload interface{}
}

func (f *fakeNotifier) Broadcast(ctx context.Context, channel, event string, payload interface{}) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, fakeEvent{Channel: channel, Event: event, Payload: payload})
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.events)
}
