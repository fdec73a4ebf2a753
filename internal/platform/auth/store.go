package auth

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"bookbnb-backend/internal/platform/db"
)

type Account struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	FirstName    string
	LastName     string
	Avatar       sql.NullString
	Rating       float64
	TotalRatings int
	IsVerified   bool
	JoinedAt     time.Time
}

type AccountStore interface {
	GetByID(ctx context.Context, id string) (*Account, error)
	// GetByLogin looks an account up by email or username.
	GetByLogin(ctx context.Context, login string) (*Account, error)
	Create(ctx context.Context, a *Account) error
}

type Store struct{ db *sql.DB }

func NewStore(db *sql.DB) AccountStore {
	return &Store{db: db}
}

const accountCols = `user_id, username, email, password_hash, first_name, last_name, avatar, rating, total_ratings, is_verified, joined_at`

func scanAccount(row *sql.Row) (*Account, error) {
	var a Account
	err := row.Scan(
		&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.FirstName, &a.LastName,
		&a.Avatar, &a.Rating, &a.TotalRatings, &a.IsVerified, &a.JoinedAt,
	)
	// 見つからない場合は (nil, nil)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) GetByID(ctx context.Context, id string) (*Account, error) {
	const q = `SELECT ` + accountCols + ` FROM users WHERE user_id = ? LIMIT 1`
	return scanAccount(s.db.QueryRowContext(ctx, q, id))
}

func (s *Store) GetByLogin(ctx context.Context, login string) (*Account, error) {
	const q = `SELECT ` + accountCols + ` FROM users WHERE email = ? OR username = ? LIMIT 1`
	return scanAccount(s.db.QueryRowContext(ctx, q, login, login))
}

func (s *Store) Create(ctx context.Context, a *Account) error {
	const q = `
INSERT INTO users (user_id, username, email, password_hash, first_name, last_name, avatar, rating, total_ratings, is_verified, joined_at)
VALUES (?, ?, ?, ?, ?, ?, ?, 0, 0, 0, ?)
`
	_, err := s.db.ExecContext(ctx, q, a.ID, a.Username, a.Email, a.PasswordHash, a.FirstName, a.LastName, a.Avatar, a.JoinedAt)
	if db.IsDuplicateKey(err) {
		return ErrAlreadyExists
	}
	return err
}
