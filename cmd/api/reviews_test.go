package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"brewscout/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubUsers struct {
	upsert      func(context.Context, *store.User) error
	getByWallet func(context.Context, string) (*store.User, error)
	getByID     func(context.Context, int64) (*store.User, error)
	leaderboard func(context.Context, int) ([]store.User, error)
}

func (s *stubUsers) Upsert(ctx context.Context, u *store.User) error {
	return s.upsert(ctx, u)
}
func (s *stubUsers) GetByWallet(ctx context.Context, wallet string) (*store.User, error) {
	return s.getByWallet(ctx, wallet)
}
func (s *stubUsers) GetByID(ctx context.Context, id int64) (*store.User, error) {
	return s.getByID(ctx, id)
}
func (s *stubUsers) Leaderboard(ctx context.Context, limit int) ([]store.User, error) {
	return s.leaderboard(ctx, limit)
}

type stubCafes struct {
	getByID func(context.Context, string) (*store.Cafe, error)
	list    func(context.Context) ([]store.Cafe, error)
}

func (s *stubCafes) Create(ctx context.Context, c *store.Cafe) error { return nil }
func (s *stubCafes) GetByID(ctx context.Context, id string) (*store.Cafe, error) {
	return s.getByID(ctx, id)
}
func (s *stubCafes) List(ctx context.Context) ([]store.Cafe, error) { return s.list(ctx) }
func (s *stubCafes) MergeSuggestions(ctx context.Context, cafes []store.Cafe) (int, error) {
	return 0, nil
}
func (s *stubCafes) AddPhotoURL(ctx context.Context, id, url string) error    { return nil }
func (s *stubCafes) RemovePhotoURL(ctx context.Context, id, url string) error { return nil }

type stubReviews struct {
	submit     func(context.Context, store.SubmitReviewParams) (*store.ReviewOutcome, error)
	listByCafe func(context.Context, string, int) ([]store.Review, error)
}

func (s *stubReviews) Submit(ctx context.Context, p store.SubmitReviewParams) (*store.ReviewOutcome, error) {
	return s.submit(ctx, p)
}
func (s *stubReviews) ListByCafe(ctx context.Context, id string, limit int) ([]store.Review, error) {
	return s.listByCafe(ctx, id, limit)
}

func newTestApplication(storage store.Storage) *application {
	return &application{
		config: config{env: "test"},
		store:  storage,
		logger: zap.NewNop().Sugar(),
	}
}

func postReview(t *testing.T, app *application, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/v1/reviews", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	app.mount().ServeHTTP(rr, req)
	return rr
}

func TestCreateReviewMissingFields(t *testing.T) {
	called := false
	app := newTestApplication(store.Storage{
		Reviews: &stubReviews{
			submit: func(context.Context, store.SubmitReviewParams) (*store.ReviewOutcome, error) {
				called = true
				return nil, nil
			},
		},
	})

	for _, body := range []string{
		`{}`,
		`{"cafeId":"c1","walletAddress":"0xabc"}`,
		`{"cafeId":"c1","ratings":{"wifi":8}}`,
		`{"walletAddress":"0xabc","ratings":{"wifi":8}}`,
		`{"cafeId":"c1","walletAddress":"0xabc","ratings":{}}`,
	} {
		rr := postReview(t, app, body)
		assert.Equal(t, http.StatusBadRequest, rr.Code, "body: %s", body)
	}
	assert.False(t, called, "the coordinator must not run for invalid requests")
}

func TestCreateReviewOutOfRangeRating(t *testing.T) {
	app := newTestApplication(store.Storage{
		Reviews: &stubReviews{
			submit: func(context.Context, store.SubmitReviewParams) (*store.ReviewOutcome, error) {
				t.Fatal("submit should not be reached")
				return nil, nil
			},
		},
	})

	rr := postReview(t, app, `{"cafeId":"c1","walletAddress":"0xabc","ratings":{"wifi":42}}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code, "scores outside [0,10] are rejected at the boundary")
}

func TestCreateReviewUnknownUser(t *testing.T) {
	app := newTestApplication(store.Storage{
		Reviews: &stubReviews{
			submit: func(context.Context, store.SubmitReviewParams) (*store.ReviewOutcome, error) {
				return nil, store.ErrUserNotFound
			},
		},
	})

	rr := postReview(t, app, `{"cafeId":"c1","walletAddress":"0xghost","ratings":{"wifi":8}}`)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "login")
}

func TestCreateReviewUnknownCafe(t *testing.T) {
	app := newTestApplication(store.Storage{
		Reviews: &stubReviews{
			submit: func(context.Context, store.SubmitReviewParams) (*store.ReviewOutcome, error) {
				return nil, store.ErrCafeNotFound
			},
		},
	})

	rr := postReview(t, app, `{"cafeId":"missing","walletAddress":"0xabc","ratings":{"wifi":8}}`)

	assert.Equal(t, http.StatusNotFound, rr.Code)
	assert.Contains(t, rr.Body.String(), "cafe not found")
}

func TestCreateReviewSuccess(t *testing.T) {
	var got store.SubmitReviewParams
	app := newTestApplication(store.Storage{
		Reviews: &stubReviews{
			submit: func(_ context.Context, p store.SubmitReviewParams) (*store.ReviewOutcome, error) {
				got = p
				return &store.ReviewOutcome{EarnedPoints: 15, NewTotal: 40}, nil
			},
		},
	})

	rr := postReview(t, app, `{"cafeId":"c1","walletAddress":"0xabc","ratings":{"wifi":8,"noise":6},"text":"cozy"}`)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp reviewResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, 15, resp.EarnedPoints)
	assert.Equal(t, 40, resp.NewTotal)
	assert.Equal(t, "Review posted! You earned 15 points.", resp.Message)

	assert.Equal(t, "c1", got.CafeID)
	assert.Equal(t, "0xabc", got.WalletAddress)
	assert.Equal(t, map[string]float64{"wifi": 8, "noise": 6}, got.Ratings)
	assert.Equal(t, "cozy", got.Text)
}

func TestCreateReviewStorageFailureIsGeneric(t *testing.T) {
	app := newTestApplication(store.Storage{
		Reviews: &stubReviews{
			submit: func(context.Context, store.SubmitReviewParams) (*store.ReviewOutcome, error) {
				return nil, errors.New("pq: deadlock detected on relation cafes")
			},
		},
	})

	rr := postReview(t, app, `{"cafeId":"c1","walletAddress":"0xabc","ratings":{"wifi":8}}`)

	assert.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.NotContains(t, rr.Body.String(), "deadlock", "internal detail must not leak to the client")
}

func TestLoginMissingWallet(t *testing.T) {
	app := newTestApplication(store.Storage{})

	req := httptest.NewRequest(http.MethodPost, "/v1/auth/login", bytes.NewBufferString(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	app.mount().ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}
