package chat

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"alterview/internal/domain"
)

// PostgresStore persists rooms and messages in PostgreSQL. The partial
// unique index on system messages enforces the one-seed-per-room invariant
// at the storage layer, below any application locking.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, pool *pgxpool.Pool) (*PostgresStore, error) {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS chat_rooms (
			id TEXT PRIMARY KEY,
			user_id TEXT NOT NULL,
			profile_id TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			deleted_at TIMESTAMPTZ
		);`,
		`CREATE TABLE IF NOT EXISTS chat_messages (
			id TEXT PRIMARY KEY,
			room_id TEXT NOT NULL REFERENCES chat_rooms(id),
			seq BIGSERIAL,
			speaker_user_id TEXT,
			speaker_profile_id TEXT,
			text TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL,
			CHECK (speaker_user_id IS NULL OR speaker_profile_id IS NULL)
		);`,
		`CREATE INDEX IF NOT EXISTS idx_chat_messages_room_order
			ON chat_messages (room_id, created_at, seq);`,
		`CREATE UNIQUE INDEX IF NOT EXISTS idx_chat_messages_one_seed
			ON chat_messages (room_id)
			WHERE speaker_user_id IS NULL AND speaker_profile_id IS NULL;`,
	}
	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return nil, fmt.Errorf("init chat schema failed on %q: %w", stmt, err)
		}
	}
	return &PostgresStore{pool: pool}, nil
}

func (s *PostgresStore) CreateRoom(ctx context.Context, userID, profileID string) (Room, error) {
	room := Room{
		ID:        uuid.NewString(),
		UserID:    userID,
		ProfileID: profileID,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO chat_rooms (id, user_id, profile_id, created_at) VALUES ($1, $2, $3, $4)`,
		room.ID, room.UserID, room.ProfileID, room.CreatedAt,
	)
	if err != nil {
		return Room{}, fmt.Errorf("insert room: %w", err)
	}
	return room, nil
}

func (s *PostgresStore) GetRoom(ctx context.Context, roomID string) (Room, error) {
	var room Room
	err := s.pool.QueryRow(ctx,
		`SELECT id, user_id, profile_id, created_at, deleted_at
		 FROM chat_rooms WHERE id=$1 AND deleted_at IS NULL`, roomID,
	).Scan(&room.ID, &room.UserID, &room.ProfileID, &room.CreatedAt, &room.DeletedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Room{}, domain.ErrNotFound
	}
	if err != nil {
		return Room{}, fmt.Errorf("get room: %w", err)
	}
	return room, nil
}

func (s *PostgresStore) SoftDeleteRoom(ctx context.Context, roomID string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE chat_rooms SET deleted_at=now() WHERE id=$1 AND deleted_at IS NULL`, roomID,
	)
	if err != nil {
		return fmt.Errorf("soft delete room: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// appendSQL stamps the new row no earlier than any timestamp already visible
// in the room, so per-room order survives clock skew across writers.
const appendSQL = `
	INSERT INTO chat_messages (id, room_id, speaker_user_id, speaker_profile_id, text, created_at)
	SELECT $1, $2, $3, $4, $5, GREATEST(
		clock_timestamp(),
		COALESCE(
			(SELECT max(created_at) + interval '1 microsecond' FROM chat_messages WHERE room_id = $2),
			clock_timestamp()
		)
	)
	RETURNING created_at`

func (s *PostgresStore) AppendMessage(ctx context.Context, msg Message) (Message, error) {
	if _, err := s.GetRoom(ctx, msg.RoomID); err != nil {
		return Message{}, err
	}

	msg.ID = uuid.NewString()
	userID, profileID := speakerColumns(msg.Speaker)
	err := s.pool.QueryRow(ctx, appendSQL,
		msg.ID, msg.RoomID, userID, profileID, msg.Text,
	).Scan(&msg.CreatedAt)
	if err != nil {
		return Message{}, fmt.Errorf("insert message: %w", err)
	}
	return msg, nil
}

func (s *PostgresStore) ListMessages(ctx context.Context, roomID string) ([]Message, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM chat_rooms WHERE id=$1)`, roomID,
	).Scan(&exists); err != nil {
		return nil, fmt.Errorf("check room: %w", err)
	}
	if !exists {
		return nil, domain.ErrNotFound
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, room_id, speaker_user_id, speaker_profile_id, text, created_at
		 FROM chat_messages WHERE room_id=$1 ORDER BY created_at ASC, seq ASC`, roomID,
	)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	var out []Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate message rows: %w", err)
	}
	return out, nil
}

const seedSQL = `
	INSERT INTO chat_messages (id, room_id, speaker_user_id, speaker_profile_id, text, created_at)
	SELECT $1, $2, NULL, NULL, $3, GREATEST(
		clock_timestamp(),
		COALESCE(
			(SELECT max(created_at) + interval '1 microsecond' FROM chat_messages WHERE room_id = $2),
			clock_timestamp()
		)
	)
	ON CONFLICT (room_id) WHERE speaker_user_id IS NULL AND speaker_profile_id IS NULL
	DO NOTHING
	RETURNING created_at`

func (s *PostgresStore) SeedSystemMessage(ctx context.Context, roomID, text string) (Message, bool, error) {
	if _, err := s.GetRoom(ctx, roomID); err != nil {
		return Message{}, false, err
	}

	msg, err := NewSystemMessage(roomID, text)
	if err != nil {
		return Message{}, false, err
	}
	msg.ID = uuid.NewString()

	err = s.pool.QueryRow(ctx, seedSQL, msg.ID, roomID, text).Scan(&msg.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the race (or a seed already existed); hand back the winner.
		existing, err := s.systemMessage(ctx, roomID)
		if err != nil {
			return Message{}, false, err
		}
		return existing, false, nil
	}
	if err != nil {
		return Message{}, false, fmt.Errorf("insert seed message: %w", err)
	}
	return msg, true, nil
}

func (s *PostgresStore) systemMessage(ctx context.Context, roomID string) (Message, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, room_id, speaker_user_id, speaker_profile_id, text, created_at
		 FROM chat_messages
		 WHERE room_id=$1 AND speaker_user_id IS NULL AND speaker_profile_id IS NULL`, roomID,
	)
	msg, err := scanMessage(row)
	if err != nil {
		return Message{}, fmt.Errorf("load seed message: %w", err)
	}
	return msg, nil
}

func speakerColumns(sp Speaker) (userID, profileID *string) {
	if id, ok := sp.UserID(); ok {
		return &id, nil
	}
	if id, ok := sp.ProfileID(); ok {
		return nil, &id
	}
	return nil, nil
}

func scanMessage(row pgx.Row) (Message, error) {
	var (
		msg               Message
		userID, profileID *string
	)
	if err := row.Scan(&msg.ID, &msg.RoomID, &userID, &profileID, &msg.Text, &msg.CreatedAt); err != nil {
		return Message{}, fmt.Errorf("scan message row: %w", err)
	}
	speaker, err := speakerFromColumns(userID, profileID)
	if err != nil {
		return Message{}, err
	}
	msg.Speaker = speaker
	return msg, nil
}

// NewStore creates a postgres-backed chat store when a pool is provided,
// otherwise in-memory.
func NewStore(ctx context.Context, pool *pgxpool.Pool) (Store, error) {
	if pool == nil {
		return NewInMemoryStore(), nil
	}
	return NewPostgresStore(ctx, pool)
}
