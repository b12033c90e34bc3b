package main

import (
	"errors"
	"net/http"
	"strconv"

	"brewscout/internal/store"
)

// getCurrentUserHandler returns the authenticated user's profile with
// their accumulated points and rank.
func (app *application) getCurrentUserHandler(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		app.unauthorizedErrorResponse(w, r, errors.New("no authenticated user in context"))
		return
	}

	user, err := app.store.Users.GetByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, user)
}

func (app *application) leaderboardHandler(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if val := r.URL.Query().Get("limit"); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil || parsed < 1 || parsed > 100 {
			app.badRequestResponse(w, r, errors.New("invalid limit"))
			return
		}
		limit = parsed
	}

	users, err := app.store.Users.Leaderboard(r.Context(), limit)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, users)
}
