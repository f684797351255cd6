package conversation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"socialex/internal/app/db"
	"socialex/internal/pkg/randx"
)

// PgStore persists conversations in PostgreSQL.
// The participant pair is stored sorted under a unique constraint, so concurrent
// find-or-create calls for the same pair converge on one row.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore returns a Store backed by pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const (
	conversationColumns = `id, participant_a, participant_b, last_message, last_message_time, created_at, updated_at`

	insertConversationSQL = `
		INSERT INTO conversations (id, participant_a, participant_b)
		VALUES ($1, $2, $3)
		ON CONFLICT ON CONSTRAINT conversations_pair_unique DO NOTHING
		RETURNING ` + conversationColumns

	selectConversationByPairSQL = `SELECT ` + conversationColumns + `
		FROM conversations WHERE participant_a = $1 AND participant_b = $2`

	selectConversationByIDSQL = `SELECT ` + conversationColumns + `
		FROM conversations WHERE id = $1`

	selectConversationsForUserSQL = `SELECT ` + conversationColumns + `
		FROM conversations
		WHERE participant_a = $1 OR participant_b = $1
		ORDER BY last_message_time DESC, id`

	selectMessagesSQL = `
		SELECT id, sender_id, body, message_type, created_at, is_read
		FROM messages WHERE conversation_id = $1 ORDER BY seq`

	insertMessageSQL = `
		INSERT INTO messages (id, conversation_id, sender_id, body, message_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`

	updateSummarySQL = `
		UPDATE conversations
		SET last_message = $2, last_message_time = $3, updated_at = now()
		WHERE id = $1`

	markReadSQL = `
		UPDATE messages SET is_read = true
		WHERE conversation_id = $1 AND sender_id <> $2 AND NOT is_read`

	conversationExistsSQL = `SELECT EXISTS (SELECT 1 FROM conversations WHERE id = $1)`

	deleteConversationSQL = `DELETE FROM conversations WHERE id = $1`
)

// FindOrCreate implements Store.
func (s *PgStore) FindOrCreate(ctx context.Context, a, b string) (Conversation, error) {
	pair, err := Pair(a, b)
	if err != nil {
		return Conversation{}, err
	}

	c, err := scanConversation(s.pool.QueryRow(ctx, insertConversationSQL, randx.ID(), pair[0], pair[1]))
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, fmt.Errorf("insert conversation: %w", err)
	}

	// Lost the race or the pair already existed.
	c, err = scanConversation(s.pool.QueryRow(ctx, selectConversationByPairSQL, pair[0], pair[1]))
	if err != nil {
		return Conversation{}, fmt.Errorf("select conversation by pair: %w", err)
	}
	if c.Messages, err = s.messages(ctx, c.ID); err != nil {
		return Conversation{}, err
	}

	return c, nil
}

// Get implements Store.
func (s *PgStore) Get(ctx context.Context, id string) (Conversation, error) {
	c, err := scanConversation(s.pool.QueryRow(ctx, selectConversationByIDSQL, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Conversation{}, ErrNotFound
	}
	if err != nil {
		return Conversation{}, fmt.Errorf("select conversation %s: %w", id, err)
	}

	if c.Messages, err = s.messages(ctx, id); err != nil {
		return Conversation{}, err
	}

	return c, nil
}

// AppendMessage implements Store.
func (s *PgStore) AppendMessage(ctx context.Context, id string, msg Message) (Message, error) {
	msg.ID = randx.ID()

	err := pgx.BeginFunc(ctx, s.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertMessageSQL, msg.ID, id, msg.Sender, msg.Body, string(msg.Kind), msg.Timestamp); err != nil {
			if db.IsForeignKeyViolation(err) {
				return ErrNotFound
			}
			return fmt.Errorf("insert message: %w", err)
		}

		tag, err := tx.Exec(ctx, updateSummarySQL, id, msg.Body, msg.Timestamp)
		if err != nil {
			return fmt.Errorf("update conversation summary: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return ErrNotFound
		}

		return nil
	})
	if err != nil {
		return Message{}, err
	}

	return msg, nil
}

// MarkRead implements Store.
func (s *PgStore) MarkRead(ctx context.Context, id string, readerID string) (int, error) {
	var exists bool
	if err := s.pool.QueryRow(ctx, conversationExistsSQL, id).Scan(&exists); err != nil {
		return 0, fmt.Errorf("check conversation %s: %w", id, err)
	}
	if !exists {
		return 0, ErrNotFound
	}

	tag, err := s.pool.Exec(ctx, markReadSQL, id, readerID)
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// ListForUser implements Store.
func (s *PgStore) ListForUser(ctx context.Context, userID string) ([]Conversation, error) {
	rows, err := s.pool.Query(ctx, selectConversationsForUserSQL, userID)
	if err != nil {
		return nil, fmt.Errorf("select conversations for %s: %w", userID, err)
	}

	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Conversation, error) {
		return scanConversation(row)
	})
	if err != nil {
		return nil, fmt.Errorf("scan conversations for %s: %w", userID, err)
	}

	return out, nil
}

// Delete implements Store.
func (s *PgStore) Delete(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, deleteConversationSQL, id)
	if err != nil {
		return fmt.Errorf("delete conversation %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *PgStore) messages(ctx context.Context, id string) ([]Message, error) {
	rows, err := s.pool.Query(ctx, selectMessagesSQL, id)
	if err != nil {
		return nil, fmt.Errorf("select messages of %s: %w", id, err)
	}

	msgs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (Message, error) {
		var (
			m    Message
			kind string
			ts   time.Time
		)
		if err := row.Scan(&m.ID, &m.Sender, &m.Body, &kind, &ts, &m.IsRead); err != nil {
			return Message{}, err
		}
		m.Kind = Kind(kind)
		m.Timestamp = ts.UTC()
		return m, nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan messages of %s: %w", id, err)
	}

	return msgs, nil
}

func scanConversation(row pgx.Row) (Conversation, error) {
	var c Conversation
	err := row.Scan(
		&c.ID,
		&c.Participants[0],
		&c.Participants[1],
		&c.LastMessage,
		&c.LastMessageTime,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	return c, err
}
