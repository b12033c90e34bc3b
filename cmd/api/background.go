package main

import (
	"context"
	"time"

	"brewscout/internal/store"

	"github.com/google/uuid"
)

// runDiscoveryInBackground periodically asks the discovery model for
// cafes the map does not know yet. Strictly fire-and-forget: every
// failure is logged and swallowed, the review path never waits on it.
func (app *application) runDiscoveryInBackground() {
	go func() {
		ticker := time.NewTicker(app.config.discovery.interval)
		defer ticker.Stop()

		// Run once immediately
		app.discoverCafes()

		for range ticker.C {
			app.discoverCafes()
		}
	}()
}

func (app *application) discoverCafes() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	suggestions, err := app.discovery.FetchSuggestions(ctx, app.config.discovery.area)
	if err != nil {
		app.logger.Errorw("cafe discovery failed", "error", err)
		return
	}
	if len(suggestions) == 0 {
		app.logger.Infow("cafe discovery returned no usable suggestions")
		return
	}

	cafes := make([]store.Cafe, 0, len(suggestions))
	for _, s := range suggestions {
		description := s.Description
		cafes = append(cafes, store.Cafe{
			ID:          uuid.New().String(),
			Name:        s.Name,
			Address:     s.Address,
			Description: &description,
			Latitude:    s.Latitude,
			Longitude:   s.Longitude,
			Amenities:   s.Amenities,
		})
	}

	inserted, err := app.store.Cafes.MergeSuggestions(ctx, cafes)
	if err != nil {
		app.logger.Errorw("failed to merge discovered cafes", "error", err)
		return
	}
	app.logger.Infow("cafe discovery merged", "suggested", len(cafes), "inserted", inserted)
}
