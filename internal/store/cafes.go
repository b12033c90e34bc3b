package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Cafe represents a venue on the map. Amenities holds the running
// average score per amenity key (wifi, outlet, comfort, hygiene,
// quality, noise, service), each in [0,10] at one decimal of precision.
type Cafe struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Address       string             `json:"address"`
	Description   *string            `json:"description,omitempty"`
	Latitude      float64            `json:"latitude"`
	Longitude     float64            `json:"longitude"`
	Amenities     map[string]float64 `json:"amenities"`
	ReviewCount   int                `json:"review_count"`
	ImageURLs     []string           `json:"image_urls,omitempty"`
	GoogleMapsURI *string            `json:"google_maps_uri,omitempty"`
	CreatedAt     time.Time          `json:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at"`

	// RecentReviews is populated by List for map previews.
	RecentReviews []Review `json:"recent_reviews,omitempty"`
}

type CafesStore struct {
	db *pgxpool.Pool
}

// Create inserts a new cafe. The ID is expected to be set by the
// caller (a fresh UUID); amenities start empty and review_count at 0.
func (s *CafesStore) Create(ctx context.Context, cafe *Cafe) error {
	query := `
		INSERT INTO cafes (id, name, address, description, latitude, longitude, amenities, review_count, image_urls, google_maps_uri)
		VALUES ($1, $2, $3, $4, $5, $6, '{}'::jsonb, 0, $7, $8)
		RETURNING created_at, updated_at
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	if cafe.ImageURLs == nil {
		cafe.ImageURLs = []string{}
	}

	err := s.db.QueryRow(ctx, query,
		cafe.ID,
		cafe.Name,
		cafe.Address,
		cafe.Description,
		cafe.Latitude,
		cafe.Longitude,
		cafe.ImageURLs,
		cafe.GoogleMapsURI,
	).Scan(&cafe.CreatedAt, &cafe.UpdatedAt)
	if err != nil {
		var pgErr interface{ SQLState() string }
		if errors.As(err, &pgErr) && pgErr.SQLState() == "23505" {
			return ErrDuplicateCafe
		}
		return err
	}
	if cafe.Amenities == nil {
		cafe.Amenities = map[string]float64{}
	}
	return nil
}

func (s *CafesStore) GetByID(ctx context.Context, cafeID string) (*Cafe, error) {
	query := `
		SELECT id, name, address, description, latitude, longitude, amenities, review_count, image_urls, google_maps_uri, created_at, updated_at
		FROM cafes
		WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	row := s.db.QueryRow(ctx, query, cafeID)
	cafe, err := scanCafe(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCafeNotFound
		}
		return nil, err
	}
	return cafe, nil
}

// List returns every cafe, each carrying its five most recent reviews
// so the map can render previews without a second round trip.
func (s *CafesStore) List(ctx context.Context) ([]Cafe, error) {
	query := `
		SELECT id, name, address, description, latitude, longitude, amenities, review_count, image_urls, google_maps_uri, created_at, updated_at
		FROM cafes
		ORDER BY name ASC
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	rows, err := s.db.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var cafes []Cafe
	for rows.Next() {
		cafe, err := scanCafe(rows)
		if err != nil {
			return nil, err
		}
		cafes = append(cafes, *cafe)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range cafes {
		reviews, err := s.recentReviews(ctx, cafes[i].ID, 5)
		if err != nil {
			return nil, err
		}
		cafes[i].RecentReviews = reviews
	}
	return cafes, nil
}

func (s *CafesStore) recentReviews(ctx context.Context, cafeID string, limit int) ([]Review, error) {
	query := `
		SELECT r.id, r.cafe_id, r.user_id, r.ratings, r.text, r.created_at,
		       u.wallet_address, u.rank
		FROM reviews r
		JOIN users u ON u.id = r.user_id
		WHERE r.cafe_id = $1
		ORDER BY r.created_at DESC
		LIMIT $2
	`

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

// MergeSuggestions additively inserts discovered cafes, de-duplicating
// by name. Existing rows are never overwritten: crowd data beats the
// model's guesses. Returns how many rows were actually inserted.
func (s *CafesStore) MergeSuggestions(ctx context.Context, cafes []Cafe) (int, error) {
	query := `
		INSERT INTO cafes (id, name, address, description, latitude, longitude, amenities, review_count, image_urls, google_maps_uri)
		VALUES ($1, $2, $3, $4, $5, $6, $7, 0, $8, $9)
		ON CONFLICT (name) DO NOTHING
	`

	inserted := 0
	err := withTx(s.db, ctx, func(tx pgx.Tx) error {
		for _, cafe := range cafes {
			amenities := cafe.Amenities
			if amenities == nil {
				amenities = map[string]float64{}
			}
			amenitiesJSON, err := json.Marshal(amenities)
			if err != nil {
				return err
			}
			imageURLs := cafe.ImageURLs
			if imageURLs == nil {
				imageURLs = []string{}
			}
			tag, err := tx.Exec(ctx, query,
				cafe.ID,
				cafe.Name,
				cafe.Address,
				cafe.Description,
				cafe.Latitude,
				cafe.Longitude,
				amenitiesJSON,
				imageURLs,
				cafe.GoogleMapsURI,
			)
			if err != nil {
				return err
			}
			inserted += int(tag.RowsAffected())
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return inserted, nil
}

// AddPhotoURL appends a photo URL to a cafe's image_urls array
func (s *CafesStore) AddPhotoURL(ctx context.Context, cafeID string, photoURL string) error {
	query := `
		UPDATE cafes
		SET image_urls = array_append(image_urls, $1), updated_at = NOW()
		WHERE id = $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, photoURL, cafeID)
	if err != nil {
		return fmt.Errorf("failed to add photo URL: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCafeNotFound
	}
	return nil
}

// RemovePhotoURL removes a specific photo URL from a cafe's image_urls array
func (s *CafesStore) RemovePhotoURL(ctx context.Context, cafeID string, photoURL string) error {
	query := `
		UPDATE cafes
		SET image_urls = array_remove(image_urls, $1), updated_at = NOW()
		WHERE id = $2
	`

	ctx, cancel := context.WithTimeout(ctx, QueryTimeoutDuration)
	defer cancel()

	tag, err := s.db.Exec(ctx, query, photoURL, cafeID)
	if err != nil {
		return fmt.Errorf("failed to remove photo URL: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrCafeNotFound
	}
	return nil
}

func scanCafe(row pgx.Row) (*Cafe, error) {
	var cafe Cafe
	var amenitiesJSON []byte
	err := row.Scan(
		&cafe.ID,
		&cafe.Name,
		&cafe.Address,
		&cafe.Description,
		&cafe.Latitude,
		&cafe.Longitude,
		&amenitiesJSON,
		&cafe.ReviewCount,
		&cafe.ImageURLs,
		&cafe.GoogleMapsURI,
		&cafe.CreatedAt,
		&cafe.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(amenitiesJSON, &cafe.Amenities); err != nil {
		return nil, err
	}
	return &cafe, nil
}
