package main

import (
	"errors"
	"net/http"

	"brewscout/internal/store"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

type createCafePayload struct {
	Name          string  `json:"name" validate:"required,max=120"`
	Address       string  `json:"address" validate:"required,max=255"`
	Description   *string `json:"description,omitempty" validate:"omitempty,max=1000"`
	Latitude      float64 `json:"latitude" validate:"min=-90,max=90"`
	Longitude     float64 `json:"longitude" validate:"min=-180,max=180"`
	GoogleMapsURI *string `json:"google_maps_uri,omitempty" validate:"omitempty,url"`
}

// createCafeHandler registers a new venue. Photos ride along in the
// same multipart request and land on cloudinary before the insert.
func (app *application) createCafeHandler(w http.ResponseWriter, r *http.Request) {
	var payload createCafePayload
	files, err := app.parseCafeForm(w, r, &payload)
	if err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	imageURLs, err := app.uploadImages(w, r, files)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	cafe := &store.Cafe{
		ID:            uuid.New().String(),
		Name:          payload.Name,
		Address:       payload.Address,
		Description:   payload.Description,
		Latitude:      payload.Latitude,
		Longitude:     payload.Longitude,
		ImageURLs:     imageURLs,
		GoogleMapsURI: payload.GoogleMapsURI,
	}

	if err := app.store.Cafes.Create(r.Context(), cafe); err != nil {
		if errors.Is(err, store.ErrDuplicateCafe) {
			app.badRequestResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, cafe)
}

// listCafesHandler returns every cafe with its five most recent
// reviews for map previews.
func (app *application) listCafesHandler(w http.ResponseWriter, r *http.Request) {
	cafes, err := app.store.Cafes.List(r.Context())
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, cafes)
}

func (app *application) getCafeHandler(w http.ResponseWriter, r *http.Request) {
	cafeID := chi.URLParam(r, "cafeID")

	cafe, err := app.store.Cafes.GetByID(r.Context(), cafeID)
	if err != nil {
		if errors.Is(err, store.ErrCafeNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusOK, cafe)
}

func (app *application) uploadCafePhotoHandler(w http.ResponseWriter, r *http.Request) {
	cafeID := chi.URLParam(r, "cafeID")

	const maxBytes = 15 * 1024 * 1024
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	if err := r.ParseMultipartForm(maxBytes); err != nil {
		app.badRequestResponse(w, r, err)
		return
	}

	file, _, err := r.FormFile("photo")
	if err != nil {
		app.badRequestResponse(w, r, errors.New("photo file is required"))
		return
	}
	defer file.Close()

	url, err := app.uploadCafePhotoToCloudinary(file)
	if err != nil {
		app.internalServerError(w, r, err)
		return
	}

	if err := app.store.Cafes.AddPhotoURL(r.Context(), cafeID, url); err != nil {
		if errors.Is(err, store.ErrCafeNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	app.jsonResponse(w, http.StatusCreated, map[string]string{"photo_url": url})
}

// deleteCafePhotoHandler removes a photo. Call DELETE /cafes/{cafeID}/photos?photo_url={url}
func (app *application) deleteCafePhotoHandler(w http.ResponseWriter, r *http.Request) {
	cafeID := chi.URLParam(r, "cafeID")

	photoURL := r.URL.Query().Get("photo_url")
	if photoURL == "" {
		app.badRequestResponse(w, r, errors.New("photo_url query parameter is required"))
		return
	}

	if err := app.store.Cafes.RemovePhotoURL(r.Context(), cafeID, photoURL); err != nil {
		if errors.Is(err, store.ErrCafeNotFound) {
			app.notFoundResponse(w, r, err)
			return
		}
		app.internalServerError(w, r, err)
		return
	}

	if err := app.deletePhotoFromCloudinary(photoURL); err != nil {
		// The row is already updated; losing the orphaned asset is
		// logged, not surfaced.
		app.logger.Errorw("failed to delete cloudinary asset", "url", photoURL, "error", err)
	}

	app.jsonResponse(w, http.StatusOK, map[string]string{"message": "photo deleted"})
}
