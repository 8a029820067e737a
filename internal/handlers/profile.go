package handlers

import (
	"net/http"

	"hscplanner-backend/internal/models"
	"hscplanner-backend/internal/store"
)

type ProfileHandler struct {
	store store.Store
}

func NewProfileHandler(st store.Store) *ProfileHandler {
	return &ProfileHandler{store: st}
}

// Get returns the stored profile, seeding the Bengali defaults on first run.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	profile := models.InitialProfile
	found, err := store.GetJSON(ctx, h.store, store.KeyProfile, &profile)
	if err != nil {
		internalError(w, r)
		return
	}
	if !found {
		if err := store.SetJSON(ctx, h.store, store.KeyProfile, profile); err != nil {
			internalError(w, r)
			return
		}
	}

	writeJSON(w, http.StatusOK, profile)
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var profile models.Profile
	if !decodeBody(w, r, &profile) {
		return
	}

	if err := store.SetJSON(r.Context(), h.store, store.KeyProfile, profile); err != nil {
		internalError(w, r)
		return
	}
	writeJSON(w, http.StatusOK, profile)
}
