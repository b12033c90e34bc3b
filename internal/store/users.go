package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultRank is assigned when a wallet logs in for the first time.
// Review submission never touches it.
const DefaultRank = "Novice Scout"

type User struct {
	ID            int64     `json:"id"`
	WalletAddress string    `json:"wallet_address"`
	TotalPoints   int       `json:"total_points"`
	Rank          string    `json:"rank"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type UsersStore struct {
	db *pgxpool.Pool
}

// Upsert implements the login flow: create the user on first login,
// no-op (but still return the row) on every later one.
func (s *UsersStore) Upsert(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (wallet_address, total_points, rank)
		VALUES ($1, 0, $2)
		ON CONFLICT (wallet_address) DO UPDATE SET wallet_address = EXCLUDED.wallet_address
		RETURNING id, wallet_address, total_points, rank, created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	return s.db.QueryRow(ctx, query, user.WalletAddress, DefaultRank).Scan(
		&user.ID,
		&user.WalletAddress,
		&user.TotalPoints,
		&user.Rank,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}

func (s *UsersStore) GetByWallet(ctx context.Context, wallet string) (*User, error) {
	query := `
		SELECT id, wallet_address, total_points, rank, created_at, updated_at
		FROM users
		WHERE wallet_address = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	user := &User{}
	err := s.db.QueryRow(ctx, query, wallet).Scan(
		&user.ID,
		&user.WalletAddress,
		&user.TotalPoints,
		&user.Rank,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *UsersStore) GetByID(ctx context.Context, userID int64) (*User, error) {
	query := `
		SELECT id, wallet_address, total_points, rank, created_at, updated_at
		FROM users
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	user := &User{}
	err := s.db.QueryRow(ctx, query, userID).Scan(
		&user.ID,
		&user.WalletAddress,
		&user.TotalPoints,
		&user.Rank,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// Leaderboard returns the top users by accumulated points.
func (s *UsersStore) Leaderboard(ctx context.Context, limit int) ([]User, error) {
	query := `
		SELECT id, wallet_address, total_points, rank, created_at, updated_at
		FROM users
		ORDER BY total_points DESC, id ASC
		LIMIT $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		var user User
		err := rows.Scan(
			&user.ID,
			&user.WalletAddress,
			&user.TotalPoints,
			&user.Rank,
			&user.CreatedAt,
			&user.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}
