package main

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"brewscout/internal/store"

	"github.com/go-chi/chi/v5"
)

type createReviewPayload struct {
	CafeID        string             `json:"cafeId" validate:"required"`
	WalletAddress string             `json:"walletAddress" validate:"required"`
	Ratings       map[string]float64 `json:"ratings" validate:"required,min=1,dive,min=0,max=10"`
	Text          string             `json:"text" validate:"max=1000"`
}

type reviewResponse struct {
	Success      bool   `json:"success"`
	EarnedPoints int    `json:"earnedPoints"`
	NewTotal     int    `json:"newTotal"`
	Message      string `json:"message"`
}

// createReviewHandler accepts a review submission and runs it through
// the scoring transaction. Scores are range-checked here at the
// boundary; the engine itself never clamps.
func (app *application) createReviewHandler(w http.ResponseWriter, r *http.Request) {
	var payload createReviewPayload
	if err := readJSON(w, r, &payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	if err := Validate.Struct(payload); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	outcome, err := app.store.Reviews.Submit(r.Context(), store.SubmitReviewParams{
		CafeID:        payload.CafeID,
		WalletAddress: payload.WalletAddress,
		Ratings:       payload.Ratings,
		Text:          payload.Text, // empty text is stored as ""
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrUserNotFound):
			app.notFoundResponse(w, r, errors.New("user not found, please login first"))
		case errors.Is(err, store.ErrCafeNotFound):
			app.notFoundResponse(w, r, errors.New("cafe not found"))
		default:
			app.internalServerError(w, r, err)
		}
		return
	}

	// Contract response, not the data envelope: the map client reads
	// these fields at the top level.
	writeJSON(w, http.StatusOK, reviewResponse{
		Success:      true,
		EarnedPoints: outcome.EarnedPoints,
		NewTotal:     outcome.NewTotal,
		Message:      fmt.Sprintf("Review posted! You earned %d points.", outcome.EarnedPoints),
	})
}

// getCafeReviewsHandler lists a cafe's reviews, newest first.
func (app *application) getCafeReviewsHandler(w http.ResponseWriter, r *http.Request) {
	cafeID := chi.URLParam(r, "cafeID")

	limit := 50
	if val := r.URL.Query().Get("limit"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil || parsed < 1 || parsed > 200 {
			app.badRequestResponse(w, r, errors.New("invalid limit"))
			return
		}
		limit = parsed
	}

	if _, err := app.store.Cafes.GetByID(r.Context(), cafeID); err != nil {
		if errors.Is(err, store.ErrCafeNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	reviews, err := app.store.Reviews.ListByCafe(r.Context(), cafeID, limit)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, map[string]any{
		"reviews": reviews,
		"total":   len(reviews),
	})
}
