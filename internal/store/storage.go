package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var (
	ErrNotFound          = errors.New("resource not found")
	ErrUserNotFound      = errors.New("user not found")
	ErrCafeNotFound      = errors.New("cafe not found")
	ErrDuplicateCafe     = errors.New("a cafe with that name already exists")
	QueryTimeoutDuration = time.Second * 5
)

type Storage struct {
	Users interface {
		Upsert(context.Context, *User) error
		GetByWallet(context.Context, string) (*User, error)
		GetByID(context.Context, int64) (*User, error)
		Leaderboard(context.Context, int) ([]User, error)
	}
	Cafes interface {
		Create(context.Context, *Cafe) error
		GetByID(context.Context, string) (*Cafe, error)
		List(context.Context) ([]Cafe, error)
		MergeSuggestions(context.Context, []Cafe) (int, error)
		AddPhotoURL(context.Context, string, string) error
		RemovePhotoURL(context.Context, string, string) error
	}
	Reviews interface {
		Submit(context.Context, SubmitReviewParams) (*ReviewOutcome, error)
		ListByCafe(context.Context, string, int) ([]Review, error)
	}
}

func NewStorage(db *pgxpool.Pool) Storage {
	return Storage{
		Users:   &UsersStore{db},
		Cafes:   &CafesStore{db},
		Reviews: &ReviewsStore{db},
	}
}

// withTx runs fn inside a single transaction, rolling back on any
// error so no partial writes ever become visible.
func withTx(db *pgxpool.Pool, ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}

	return tx.Commit(ctx)
}
