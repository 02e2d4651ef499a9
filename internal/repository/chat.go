package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"

	"koalitos/backend/internal/apperr"
	"koalitos/backend/internal/models"
)

// ChatRepository is the pgx-backed implementation of chat.Store.
type ChatRepository struct {
	pool *pgxpool.Pool
}

func NewChatRepository(pool *pgxpool.Pool) *ChatRepository {
	return &ChatRepository{pool: pool}
}

const roomColumns = "id, name, type, direct_key, created_at, updated_at"

func (r *ChatRepository) CreateRoom(ctx context.Context, name, roomType string, directKey *string, userIDs []string) (*models.Room, []models.Participant, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, apperr.FromDB(errors.Wrap(err, "chatRepo.CreateRoom.Begin"), "")
	}
	defer tx.Rollback(ctx)

	var room models.Room
	err = tx.QueryRow(ctx, `
		INSERT INTO chat_rooms (name, type, direct_key)
		VALUES ($1, $2, $3)
		RETURNING `+roomColumns,
		name, roomType, directKey).
		Scan(&room.ID, &room.Name, &room.Type, &room.DirectKey, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		return nil, nil, apperr.FromDB(errors.Wrap(err, "chatRepo.CreateRoom.InsertRoom"), "")
	}

	participants := make([]models.Participant, 0, len(userIDs))
	for _, userID := range userIDs {
		var p models.Participant
		err = tx.QueryRow(ctx, `
			INSERT INTO chat_participants (room_id, user_id)
			VALUES ($1, $2)
			RETURNING id, room_id, user_id, joined_at`,
			room.ID, userID).
			Scan(&p.ID, &p.RoomID, &p.UserID, &p.JoinedAt)
		if err != nil {
			return nil, nil, apperr.FromDB(errors.Wrap(err, "chatRepo.CreateRoom.InsertParticipant"), "")
		}
		participants = append(participants, p)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, apperr.FromDB(errors.Wrap(err, "chatRepo.CreateRoom.Commit"), "")
	}
	return &room, participants, nil
}

func (r *ChatRepository) FindRoomByID(ctx context.Context, roomID string) (*models.Room, error) {
	return r.scanRoom(r.pool.QueryRow(ctx,
		`SELECT `+roomColumns+` FROM chat_rooms WHERE id = $1`, roomID),
		"chatRepo.FindRoomByID")
}

func (r *ChatRepository) FindRoomByDirectKey(ctx context.Context, directKey string) (*models.Room, error) {
	return r.scanRoom(r.pool.QueryRow(ctx,
		`SELECT `+roomColumns+` FROM chat_rooms WHERE direct_key = $1`, directKey),
		"chatRepo.FindRoomByDirectKey")
}

func (r *ChatRepository) scanRoom(row pgx.Row, op string) (*models.Room, error) {
	var room models.Room
	err := row.Scan(&room.ID, &room.Name, &room.Type, &room.DirectKey, &room.CreatedAt, &room.UpdatedAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, op), "chat room not found")
	}
	return &room, nil
}

func (r *ChatRepository) ListRoomsForUser(ctx context.Context, userID string) ([]models.Room, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.name, r.type, r.direct_key, r.created_at, r.updated_at
		FROM chat_rooms r
		INNER JOIN chat_participants p ON p.room_id = r.id
		WHERE p.user_id = $1
		ORDER BY r.updated_at DESC`, userID)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "chatRepo.ListRoomsForUser"), "")
	}
	defer rows.Close()

	var rooms []models.Room
	for rows.Next() {
		var room models.Room
		if err := rows.Scan(&room.ID, &room.Name, &room.Type, &room.DirectKey, &room.CreatedAt, &room.UpdatedAt); err != nil {
			return nil, apperr.FromDB(errors.Wrap(err, "chatRepo.ListRoomsForUser.Scan"), "")
		}
		rooms = append(rooms, room)
	}
	return rooms, rows.Err()
}

func (r *ChatRepository) ListParticipants(ctx context.Context, roomID string) ([]models.Participant, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, room_id, user_id, joined_at
		FROM chat_participants
		WHERE room_id = $1
		ORDER BY joined_at`, roomID)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "chatRepo.ListParticipants"), "")
	}
	defer rows.Close()

	var participants []models.Participant
	for rows.Next() {
		var p models.Participant
		if err := rows.Scan(&p.ID, &p.RoomID, &p.UserID, &p.JoinedAt); err != nil {
			return nil, apperr.FromDB(errors.Wrap(err, "chatRepo.ListParticipants.Scan"), "")
		}
		participants = append(participants, p)
	}
	return participants, rows.Err()
}

func (r *ChatRepository) ListRoomMemberIDs(ctx context.Context, roomID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM chat_participants WHERE room_id = $1`, roomID)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "chatRepo.ListRoomMemberIDs"), "")
	}
	defer rows.Close()

	var userIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, apperr.FromDB(errors.Wrap(err, "chatRepo.ListRoomMemberIDs.Scan"), "")
		}
		userIDs = append(userIDs, id)
	}
	return userIDs, rows.Err()
}

func (r *ChatRepository) FindParticipant(ctx context.Context, roomID, userID string) (*models.Participant, error) {
	var p models.Participant
	err := r.pool.QueryRow(ctx, `
		SELECT id, room_id, user_id, joined_at
		FROM chat_participants
		WHERE room_id = $1 AND user_id = $2`, roomID, userID).
		Scan(&p.ID, &p.RoomID, &p.UserID, &p.JoinedAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "chatRepo.FindParticipant"), "participant not found")
	}
	return &p, nil
}

func (r *ChatRepository) TouchRoom(ctx context.Context, roomID string) error {
	_, err := r.pool.Exec(ctx,
		`UPDATE chat_rooms SET updated_at = now() WHERE id = $1`, roomID)
	if err != nil {
		return apperr.FromDB(errors.Wrap(err, "chatRepo.TouchRoom"), "")
	}
	return nil
}

const messageColumns = "id, room_id, sender_participant_id, sender_user_id, ciphertext, iv, auth_tag, created_at"

func (r *ChatRepository) CreateMessage(ctx context.Context, msg *models.Message) (*models.Message, error) {
	var created models.Message
	err := r.pool.QueryRow(ctx, `
		INSERT INTO chat_messages (room_id, sender_participant_id, sender_user_id, ciphertext, iv, auth_tag)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING `+messageColumns,
		msg.RoomID, msg.SenderParticipantID, msg.SenderUserID, msg.Ciphertext, msg.IV, msg.AuthTag).
		Scan(&created.ID, &created.RoomID, &created.SenderParticipantID, &created.SenderUserID,
			&created.Ciphertext, &created.IV, &created.AuthTag, &created.CreatedAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "chatRepo.CreateMessage"), "")
	}
	return &created, nil
}

func (r *ChatRepository) ListMessages(ctx context.Context, roomID string, limit int, cursor string) ([]models.Message, error) {
	var (
		rows pgx.Rows
		err  error
	)
	if cursor == "" {
		rows, err = r.pool.Query(ctx, `
			SELECT `+messageColumns+`
			FROM chat_messages
			WHERE room_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2`, roomID, limit)
	} else {
		// Exclusive cursor: only rows strictly older than the cursor row.
		rows, err = r.pool.Query(ctx, `
			SELECT `+messageColumns+`
			FROM chat_messages
			WHERE room_id = $1
			  AND (created_at, id) < (
				SELECT created_at, id FROM chat_messages
				WHERE id = $3 AND room_id = $1
			  )
			ORDER BY created_at DESC, id DESC
			LIMIT $2`, roomID, limit, cursor)
	}
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "chatRepo.ListMessages"), "")
	}
	defer rows.Close()

	var messages []models.Message
	for rows.Next() {
		var m models.Message
		err := rows.Scan(&m.ID, &m.RoomID, &m.SenderParticipantID, &m.SenderUserID,
			&m.Ciphertext, &m.IV, &m.AuthTag, &m.CreatedAt)
		if err != nil {
			return nil, apperr.FromDB(errors.Wrap(err, "chatRepo.ListMessages.Scan"), "")
		}
		messages = append(messages, m)
	}
	return messages, rows.Err()
}

func (r *ChatRepository) FindMessage(ctx context.Context, roomID, messageID string) (*models.Message, error) {
	var m models.Message
	err := r.pool.QueryRow(ctx, `
		SELECT `+messageColumns+`
		FROM chat_messages
		WHERE id = $1 AND room_id = $2`, messageID, roomID).
		Scan(&m.ID, &m.RoomID, &m.SenderParticipantID, &m.SenderUserID,
			&m.Ciphertext, &m.IV, &m.AuthTag, &m.CreatedAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "chatRepo.FindMessage"), "message not found in this room")
	}
	return &m, nil
}

func (r *ChatRepository) LatestMessage(ctx context.Context, roomID string) (*models.Message, error) {
	var m models.Message
	err := r.pool.QueryRow(ctx, `
		SELECT `+messageColumns+`
		FROM chat_messages
		WHERE room_id = $1
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, roomID).
		Scan(&m.ID, &m.RoomID, &m.SenderParticipantID, &m.SenderUserID,
			&m.Ciphertext, &m.IV, &m.AuthTag, &m.CreatedAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "chatRepo.LatestMessage"), "room has no messages")
	}
	return &m, nil
}

func (r *ChatRepository) CreateReceipts(ctx context.Context, messageID string, participantIDs []string, senderParticipantID string, sentAt time.Time) error {
	batch := &pgx.Batch{}
	for _, participantID := range participantIDs {
		var readAt *time.Time
		if participantID == senderParticipantID {
			readAt = &sentAt
		}
		batch.Queue(`
			INSERT INTO chat_message_receipts (message_id, participant_id, read_at)
			VALUES ($1, $2, $3)
			ON CONFLICT (message_id, participant_id) DO NOTHING`,
			messageID, participantID, readAt)
	}

	results := r.pool.SendBatch(ctx, batch)
	defer results.Close()

	for range participantIDs {
		if _, err := results.Exec(); err != nil {
			return apperr.FromDB(errors.Wrap(err, "chatRepo.CreateReceipts"), "")
		}
	}
	return nil
}

func (r *ChatRepository) ReceiptsForViewer(ctx context.Context, participantID string, messageIDs []string) (map[string]models.Receipt, error) {
	receipts := make(map[string]models.Receipt, len(messageIDs))
	if len(messageIDs) == 0 {
		return receipts, nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, message_id, participant_id, read_at
		FROM chat_message_receipts
		WHERE participant_id = $1 AND message_id = ANY($2)`,
		participantID, messageIDs)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "chatRepo.ReceiptsForViewer"), "")
	}
	defer rows.Close()

	for rows.Next() {
		var receipt models.Receipt
		if err := rows.Scan(&receipt.ID, &receipt.MessageID, &receipt.ParticipantID, &receipt.ReadAt); err != nil {
			return nil, apperr.FromDB(errors.Wrap(err, "chatRepo.ReceiptsForViewer.Scan"), "")
		}
		receipts[receipt.MessageID] = receipt
	}
	return receipts, rows.Err()
}

func (r *ChatRepository) MarkRead(ctx context.Context, messageID, participantID string, readAt time.Time) (*models.Receipt, error) {
	var receipt models.Receipt
	err := r.pool.QueryRow(ctx, `
		UPDATE chat_message_receipts
		SET read_at = COALESCE(read_at, $3)
		WHERE message_id = $1 AND participant_id = $2
		RETURNING id, message_id, participant_id, read_at`,
		messageID, participantID, readAt).
		Scan(&receipt.ID, &receipt.MessageID, &receipt.ParticipantID, &receipt.ReadAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, "chatRepo.MarkRead"), "receipt not found")
	}
	return &receipt, nil
}

func (r *ChatRepository) FindProfileByHandle(ctx context.Context, handle string) (*models.Profile, error) {
	return r.scanProfile(r.pool.QueryRow(ctx, `
		SELECT id, user_id, handle, display_name, avatar_url, user_type_id, created_at, updated_at
		FROM profiles WHERE handle = $1`, handle),
		"chatRepo.FindProfileByHandle", "no user with this handle")
}

func (r *ChatRepository) FindProfileByUserID(ctx context.Context, userID string) (*models.Profile, error) {
	return r.scanProfile(r.pool.QueryRow(ctx, `
		SELECT id, user_id, handle, display_name, avatar_url, user_type_id, created_at, updated_at
		FROM profiles WHERE user_id = $1`, userID),
		"chatRepo.FindProfileByUserID", "profile not found")
}

func (r *ChatRepository) scanProfile(row pgx.Row, op, notFoundMsg string) (*models.Profile, error) {
	var p models.Profile
	err := row.Scan(&p.ID, &p.UserID, &p.Handle, &p.DisplayName, &p.AvatarURL, &p.UserTypeID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, apperr.FromDB(errors.Wrap(err, op), notFoundMsg)
	}
	return &p, nil
}
