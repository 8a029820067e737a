package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"hscplanner-backend/internal/models"
	"hscplanner-backend/internal/store"
)

type SubjectHandler struct {
	store store.Store
}

func NewSubjectHandler(st store.Store) *SubjectHandler {
	return &SubjectHandler{store: st}
}

// List returns the subject tracker, seeding the twenty default HSC subjects
// on first run.
func (h *SubjectHandler) List(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	subjects, seeded, err := h.load(ctx)
	if err != nil {
		internalError(w, r)
		return
	}
	if seeded {
		if err := store.SetJSON(ctx, h.store, store.KeySubjects, subjects); err != nil {
			internalError(w, r)
			return
		}
	}

	writeJSON(w, http.StatusOK, subjects)
}

func (h *SubjectHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Subject name is required", r))
		return
	}

	ctx := r.Context()
	subjects, _, err := h.load(ctx)
	if err != nil {
		internalError(w, r)
		return
	}

	subject := models.Subject{ID: uuid.NewString(), Name: name, Progress: 0}
	subjects = append(subjects, subject)
	if err := store.SetJSON(ctx, h.store, store.KeySubjects, subjects); err != nil {
		internalError(w, r)
		return
	}

	writeJSON(w, http.StatusCreated, subject)
}

// UpdateProgress sets one subject's completion percentage.
func (h *SubjectHandler) UpdateProgress(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Progress int `json:"progress"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Progress < 0 || req.Progress > 100 {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Progress must be between 0 and 100", r))
		return
	}

	h.patch(w, r, func(s *models.Subject) {
		s.Progress = req.Progress
	})
}

func (h *SubjectHandler) UpdateName(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name string `json:"name"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Subject name is required", r))
		return
	}

	h.patch(w, r, func(s *models.Subject) {
		s.Name = name
	})
}

// patch applies fn to the subject addressed by the {id} URL param and writes
// the updated list back.
func (h *SubjectHandler) patch(w http.ResponseWriter, r *http.Request, fn func(*models.Subject)) {
	id := chi.URLParam(r, "id")
	ctx := r.Context()

	subjects, _, err := h.load(ctx)
	if err != nil {
		internalError(w, r)
		return
	}

	for i := range subjects {
		if subjects[i].ID == id {
			fn(&subjects[i])
			if err := store.SetJSON(ctx, h.store, store.KeySubjects, subjects); err != nil {
				internalError(w, r)
				return
			}
			writeJSON(w, http.StatusOK, subjects[i])
			return
		}
	}

	writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Subject not found", r))
}

func (h *SubjectHandler) load(ctx context.Context) ([]models.Subject, bool, error) {
	var subjects []models.Subject
	found, err := store.GetJSON(ctx, h.store, store.KeySubjects, &subjects)
	if err != nil {
		return nil, false, err
	}
	if !found {
		return append([]models.Subject{}, models.InitialSubjects...), true, nil
	}
	return subjects, false, nil
}
