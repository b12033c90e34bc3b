package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"brewscout/internal/scoring"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Review struct {
	ID        int64              `json:"id"`
	CafeID    string             `json:"cafe_id"`
	UserID    int64              `json:"user_id"`
	Ratings   map[string]float64 `json:"ratings"`
	Text      string             `json:"text"`
	CreatedAt time.Time          `json:"created_at"`

	// Joined fields
	UserWallet string `json:"user_wallet,omitempty"`
	UserRank   string `json:"user_rank,omitempty"`
}

type SubmitReviewParams struct {
	CafeID        string
	WalletAddress string
	Ratings       map[string]float64
	Text          string
}

// ReviewOutcome is returned to the handler on a successful submission.
type ReviewOutcome struct {
	Review       Review `json:"review"`
	EarnedPoints int    `json:"earned_points"`
	NewTotal     int    `json:"new_total"`
}

type ReviewsStore struct {
	db *pgxpool.Pool
}

// Submit runs the whole review transaction: create the review, bump
// the user's points, fold the ratings into the cafe's running
// averages. All three writes commit together or not at all.
//
// The cafe snapshot is read with FOR UPDATE inside the same
// transaction that writes it back, so two concurrent submissions to
// one cafe serialize instead of both computing against the same
// review_count and losing an update.
func (s *ReviewsStore) Submit(ctx context.Context, params SubmitReviewParams) (*ReviewOutcome, error) {
	user, err := s.getUserByWallet(ctx, params.WalletAddress)
	if err != nil {
		return nil, err
	}

	outcome := &ReviewOutcome{}
	err = withTx(s.db, ctx, func(tx pgx.Tx) error {
		snap, err := lockCafeSnapshot(ctx, tx, params.CafeID)
		if err != nil {
			return err
		}

		result := scoring.ComputeReviewOutcome(snap, params.Ratings)

		review := Review{
			CafeID:  params.CafeID,
			UserID:  user.ID,
			Ratings: params.Ratings,
			Text:    params.Text,
		}
		if err := insertReview(ctx, tx, &review); err != nil {
			return err
		}

		// Atomic increment, never read-modify-write: a second device
		// submitting for the same wallet must not clobber this award.
		newTotal, err := addUserPoints(ctx, tx, user.ID, result.EarnedPoints)
		if err != nil {
			return err
		}

		if err := updateCafeAggregates(ctx, tx, params.CafeID, result.ReviewCount, result.Amenities); err != nil {
			return err
		}

		review.UserWallet = user.WalletAddress
		review.UserRank = user.Rank
		outcome.Review = review
		outcome.EarnedPoints = result.EarnedPoints
		outcome.NewTotal = newTotal
		return nil
	})
	if err != nil {
		return nil, err
	}
	return outcome, nil
}

func (s *ReviewsStore) getUserByWallet(ctx context.Context, wallet string) (*User, error) {
	query := `
		SELECT id, wallet_address, total_points, rank
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
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// lockCafeSnapshot reads the cafe state this transaction will compute
// against, holding a row lock until commit.
func lockCafeSnapshot(ctx context.Context, tx pgx.Tx, cafeID string) (scoring.Snapshot, error) {
	query := `
		SELECT review_count, amenities
		FROM cafes
		WHERE id = $1
		FOR UPDATE
	`

	var snap scoring.Snapshot
	var amenitiesJSON []byte
	err := tx.QueryRow(ctx, query, cafeID).Scan(&snap.ReviewCount, &amenitiesJSON)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return snap, ErrCafeNotFound
		}
		return snap, err
	}
	if err := json.Unmarshal(amenitiesJSON, &snap.Amenities); err != nil {
		return snap, err
	}
	return snap, nil
}

func insertReview(ctx context.Context, tx pgx.Tx, review *Review) error {
	query := `
		INSERT INTO reviews (cafe_id, user_id, ratings, text)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	ratingsJSON, err := json.Marshal(review.Ratings)
	if err != nil {
		return err
	}

	return tx.QueryRow(ctx, query,
		review.CafeID,
		review.UserID,
		ratingsJSON,
		review.Text,
	).Scan(&review.ID, &review.CreatedAt)
}

func addUserPoints(ctx context.Context, tx pgx.Tx, userID int64, points int) (int, error) {
	query := `
		UPDATE users
		SET total_points = total_points + $1, updated_at = NOW()
		WHERE id = $2
		RETURNING total_points
	`

	var newTotal int
	if err := tx.QueryRow(ctx, query, points, userID).Scan(&newTotal); err != nil {
		return 0, err
	}
	return newTotal, nil
}

func updateCafeAggregates(ctx context.Context, tx pgx.Tx, cafeID string, reviewCount int, amenities map[string]float64) error {
	query := `
		UPDATE cafes
		SET review_count = $1, amenities = $2, updated_at = NOW()
		WHERE id = $3
	`

	amenitiesJSON, err := json.Marshal(amenities)
	if err != nil {
		return err
	}

	_, err = tx.Exec(ctx, query, reviewCount, amenitiesJSON, cafeID)
	return err
}

// ListByCafe returns a cafe's reviews with the reviewer joined in,
// newest first.
func (s *ReviewsStore) ListByCafe(ctx context.Context, cafeID string, limit int) ([]Review, error) {
	query := `
		SELECT r.id, r.cafe_id, r.user_id, r.ratings, r.text, r.created_at,
		       u.wallet_address, u.rank
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.cafe_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query, cafeID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var reviews []Review
	for rows.Next() {
		var review Review
		var ratingsJSON []byte
		err := rows.Scan(
			&review.ID,
			&review.CafeID,
			&review.UserID,
			&ratingsJSON,
			&review.Text,
			&review.CreatedAt,
			&review.UserWallet,
			&review.UserRank,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(ratingsJSON, &review.Ratings); err != nil {
			return nil, err
		}
		reviews = append(reviews, review)
	}
	return reviews, rows.Err()
}
