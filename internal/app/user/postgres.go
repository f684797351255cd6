package user

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgStore reads users and follow edges from PostgreSQL.
type PgStore struct {
	pool *pgxpool.Pool
}

// NewPgStore returns a Store backed by pool.
func NewPgStore(pool *pgxpool.Pool) *PgStore {
	return &PgStore{pool: pool}
}

const (
	selectUserSQL = `SELECT id, username, profile_pic FROM users WHERE id = $1`

	selectFollowingSQL = `SELECT followee_id FROM follows WHERE follower_id = $1 ORDER BY created_at`

	selectFollowersSQL = `SELECT follower_id FROM follows WHERE followee_id = $1 ORDER BY created_at`
)

// GetUser implements Store.
func (s *PgStore) GetUser(ctx context.Context, id string) (User, error) {
	var u User
	err := s.pool.QueryRow(ctx, selectUserSQL, id).Scan(&u.ID, &u.Username, &u.ProfilePic)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("select user %s: %w", id, err)
	}

	if u.Following, err = s.ids(ctx, selectFollowingSQL, id); err != nil {
		return User{}, fmt.Errorf("select following of %s: %w", id, err)
	}
	if u.Followers, err = s.ids(ctx, selectFollowersSQL, id); err != nil {
		return User{}, fmt.Errorf("select followers of %s: %w", id, err)
	}

	return u, nil
}

func (s *PgStore) ids(ctx context.Context, query string, id string) ([]string, error) {
	rows, err := s.pool.Query(ctx, query, id)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[string])
}
