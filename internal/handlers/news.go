package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"hscplanner-backend/internal/models"
	"hscplanner-backend/internal/services"
	"hscplanner-backend/internal/store"
)

// newsCacheTTL keeps board news fetches down to a few per day.
const newsCacheTTL = 6 * time.Hour

type NewsHandler struct {
	store  store.Store
	gemini *services.GeminiService
}

func NewNewsHandler(st store.Store, gemini *services.GeminiService) *NewsHandler {
	return &NewsHandler{store: st, gemini: gemini}
}

// Get returns the cached board news, refreshing when the cache is older than
// the TTL or ?force=true. A detected exam date in the answer updates the
// countdown target and marks it auto-synced.
func (h *NewsHandler) Get(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	force := r.URL.Query().Get("force") == "true"

	if !force {
		if cached, ok := h.cached(ctx); ok {
			writeJSON(w, http.StatusOK, cached)
			return
		}
	}

	news := h.gemini.BoardNews(ctx)
	if news.Error != "" {
		// Serve the stale cache over an error card when we have one.
		var stale models.StudyTipResponse
		if found, err := store.GetJSON(ctx, h.store, store.KeyCachedNews, &stale); err == nil && found {
			writeJSON(w, http.StatusOK, stale)
			return
		}
		writeJSON(w, http.StatusOK, news)
		return
	}

	if err := store.SetJSON(ctx, h.store, store.KeyCachedNews, news); err != nil {
		internalError(w, r)
		return
	}
	now := time.Now()
	ts := strconv.FormatInt(now.UnixMilli(), 10)
	if err := store.SetString(ctx, h.store, store.KeyLastCheckTS, ts); err != nil {
		internalError(w, r)
		return
	}
	if err := store.SetString(ctx, h.store, store.KeyLastCheck, now.Format("2 Jan 2006, 3:04 PM")); err != nil {
		internalError(w, r)
		return
	}

	if news.DetectedDate != "" {
		if err := store.SetString(ctx, h.store, store.KeyExamDate, news.DetectedDate); err != nil {
			internalError(w, r)
			return
		}
		if err := store.SetString(ctx, h.store, store.KeyDateSynced, "true"); err != nil {
			internalError(w, r)
			return
		}
	}

	writeJSON(w, http.StatusOK, news)
}

func (h *NewsHandler) cached(ctx context.Context) (models.StudyTipResponse, bool) {
	tsStr, err := store.GetString(ctx, h.store, store.KeyLastCheckTS)
	if err != nil || tsStr == "" {
		return models.StudyTipResponse{}, false
	}
	ts, err := strconv.ParseInt(tsStr, 10, 64)
	if err != nil {
		return models.StudyTipResponse{}, false
	}
	if time.Since(time.UnixMilli(ts)) > newsCacheTTL {
		return models.StudyTipResponse{}, false
	}

	var cached models.StudyTipResponse
	found, err := store.GetJSON(ctx, h.store, store.KeyCachedNews, &cached)
	if err != nil || !found {
		return models.StudyTipResponse{}, false
	}
	return cached, true
}
