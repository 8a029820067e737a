package handlers

import (
	"net/http"
	"strings"

	"hscplanner-backend/internal/models"
	"hscplanner-backend/internal/questionbank"
	"hscplanner-backend/internal/services"
)

type QuestionHandler struct {
	questions *questionbank.Service
	gemini    *services.GeminiService
}

func NewQuestionHandler(questions *questionbank.Service, gemini *services.GeminiService) *QuestionHandler {
	return &QuestionHandler{questions: questions, gemini: gemini}
}

// Stats reports the question pool figures the dashboard card shows.
func (h *QuestionHandler) Stats(w http.ResponseWriter, r *http.Request) {
	subject := r.URL.Query().Get("subject")
	if strings.TrimSpace(subject) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "subject query parameter is required", r))
		return
	}

	stats, err := h.questions.DatabaseStats(r.Context(), subject)
	if err != nil {
		internalError(w, r)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Add appends a single handwritten question to the user bank.
func (h *QuestionHandler) Add(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject  string `json:"subject"`
		Type     string `json:"type"`
		Question string `json:"question"`
		Answer   string `json:"answer"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Subject) == "" || strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Subject and question are required", r))
		return
	}
	if req.Type != "mcq" && req.Type != "cq" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Type must be mcq or cq", r))
		return
	}

	pair := models.QuestionPair{Question: req.Question, Answer: req.Answer}
	if err := h.questions.SaveUserQuestion(r.Context(), req.Subject, req.Type, pair); err != nil {
		internalError(w, r)
		return
	}
	writeJSON(w, http.StatusCreated, pair)
}

// GenerateAI asks the AI for a batch of board-standard questions and folds
// them into the user bank, so later local exams sample from them too.
func (h *QuestionHandler) GenerateAI(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject string `json:"subject"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Subject) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Subject is required", r))
		return
	}

	ctx := r.Context()
	bank, err := h.gemini.GenerateQuestions(ctx, req.Subject)
	if err != nil {
		writeJSON(w, http.StatusServiceUnavailable, errorResp("AI_UNAVAILABLE", err.Error(), r))
		return
	}

	if err := h.questions.SaveBulkUserQuestions(ctx, req.Subject, bank.MCQs, bank.CQs); err != nil {
		internalError(w, r)
		return
	}
	writeJSON(w, http.StatusOK, bank)
}

// QuickAnswer runs a web-grounded query. AI failures come back inside the
// response body so the solver card can show the Bengali guidance directly.
func (h *QuestionHandler) QuickAnswer(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Subject string `json:"subject"`
		Query   string `json:"query"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Query is required", r))
		return
	}

	writeJSON(w, http.StatusOK, h.gemini.QuickAnswer(r.Context(), req.Subject, req.Query))
}
