package handlers

import (
	"net/http"
	"regexp"

	"github.com/go-chi/chi/v5"

	"hscplanner-backend/internal/exam"
	"hscplanner-backend/internal/models"
	"hscplanner-backend/internal/services"
	"hscplanner-backend/internal/store"
)

type ExamHandler struct {
	store  store.Store
	exams  *exam.Service
	gemini *services.GeminiService
}

func NewExamHandler(st store.Store, exams *exam.Service, gemini *services.GeminiService) *ExamHandler {
	return &ExamHandler{store: st, exams: exams, gemini: gemini}
}

// Generate samples a fresh paper for the subject, replacing any earlier
// snapshot and clearing its saved answers.
func (h *ExamHandler) Generate(w http.ResponseWriter, r *http.Request) {
	subject, ok := h.subject(w, r)
	if !ok {
		return
	}

	bank, err := h.exams.Generate(r.Context(), subject)
	if err != nil {
		internalError(w, r)
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

func (h *ExamHandler) GetBank(w http.ResponseWriter, r *http.Request) {
	bank, err := h.exams.Bank(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		internalError(w, r)
		return
	}
	if bank == nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No exam generated for this subject", r))
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

func (h *ExamHandler) SaveAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode   string `json:"mode"`
		Index  int    `json:"index"`
		Answer string `json:"answer"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	err := h.exams.SaveAnswer(r.Context(), chi.URLParam(r, "id"), req.Mode, req.Index, req.Answer)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// GradeLocal scores the snapshot offline. MCQ mode uses the containment rule;
// CQ mode switches the session to self-review.
func (h *ExamHandler) GradeLocal(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := h.exams.GradeLocally(r.Context(), chi.URLParam(r, "id"), req.Mode)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", err.Error(), r))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GradeAI sends the extended-response sheet to the AI grader.
func (h *ExamHandler) GradeAI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	subjectID := chi.URLParam(r, "id")

	bank, err := h.exams.Bank(ctx, subjectID)
	if err != nil {
		internalError(w, r)
		return
	}
	if bank == nil {
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "No exam generated for this subject", r))
		return
	}

	answers, err := h.exams.UserAnswers(ctx, subjectID, exam.ModeCQ, len(bank.CQs))
	if err != nil {
		internalError(w, r)
		return
	}

	result, err := h.gemini.GradeSubmission(ctx, bank.CQs, answers)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("AI_UNAVAILABLE", err.Error(), r))
		return
	}
	writeJSON(w, http.StatusOK, result)
}

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// GetExamDate returns the countdown target, falling back to the default
// session date.
func (h *ExamHandler) GetExamDate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	date, err := store.GetString(ctx, h.store, store.KeyExamDate)
	if err != nil {
		internalError(w, r)
		return
	}
	if date == "" {
		date = models.DefaultExamDate
	}

	synced, err := store.GetString(ctx, h.store, store.KeyDateSynced)
	if err != nil {
		internalError(w, r)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"examDate": date,
		"isSynced": synced == "true",
	})
}

// SetExamDate stores a manual countdown target and clears the auto-synced
// flag.
func (h *ExamHandler) SetExamDate(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExamDate string `json:"examDate"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if !datePattern.MatchString(req.ExamDate) {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Exam date must be YYYY-MM-DD", r))
		return
	}

	ctx := r.Context()
	if err := store.SetString(ctx, h.store, store.KeyExamDate, req.ExamDate); err != nil {
		internalError(w, r)
		return
	}
	if err := store.SetString(ctx, h.store, store.KeyDateSynced, "false"); err != nil {
		internalError(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"examDate": req.ExamDate})
}

// subject resolves the {id} URL param against the tracker list.
func (h *ExamHandler) subject(w http.ResponseWriter, r *http.Request) (models.Subject, bool) {
	id := chi.URLParam(r, "id")

	var subjects []models.Subject
	if _, err := store.GetJSON(r.Context(), h.store, store.KeySubjects, &subjects); err != nil {
		internalError(w, r)
		return models.Subject{}, false
	}
	if subjects == nil {
		subjects = models.InitialSubjects
	}

	for _, s := range subjects {
		if s.ID == id {
			return s, true
		}
	}
	writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", "Subject not found", r))
	return models.Subject{}, false
}
