package handlers

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"hscplanner-backend/internal/masterfile"
	"hscplanner-backend/internal/models"
	"hscplanner-backend/internal/services"
	"hscplanner-backend/internal/store"
	"hscplanner-backend/internal/websocket"
	"hscplanner-backend/internal/worker"
)

// restoreBodyLimit caps uploaded backup files. Master files are a few hundred
// KB at most even with a large user question bank.
const restoreBodyLimit = 10 << 20

type SyncHandler struct {
	store     store.Store
	codec     *masterfile.Codec
	autosync  *worker.AutoSync
	driveAuth *services.DriveAuthService
	hub       *websocket.Hub
}

func NewSyncHandler(st store.Store, codec *masterfile.Codec, autosync *worker.AutoSync, driveAuth *services.DriveAuthService, hub *websocket.Hub) *SyncHandler {
	return &SyncHandler{store: st, codec: codec, autosync: autosync, driveAuth: driveAuth, hub: hub}
}

// Status reports what the sync settings card renders: whether an access token
// and a client id are present, and the remote file id when known.
func (h *SyncHandler) Status(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	token, err := store.GetString(ctx, h.store, store.KeyDriveToken)
	if err != nil {
		internalError(w, r)
		return
	}
	fileID, err := store.GetString(ctx, h.store, store.KeyDriveFileID)
	if err != nil {
		internalError(w, r)
		return
	}

	hasClientID := true
	if _, err := h.driveAuth.ClientID(ctx); err != nil {
		if !errors.Is(err, services.ErrNoClientID) {
			internalError(w, r)
			return
		}
		hasClientID = false
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"connected":   token != "",
		"hasClientId": hasClientID,
		"fileId":      fileID,
	})
}

func (h *SyncHandler) GetClientID(w http.ResponseWriter, r *http.Request) {
	id, err := h.driveAuth.ClientID(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrNoClientID) {
			writeJSON(w, http.StatusOK, map[string]string{"clientId": ""})
			return
		}
		internalError(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"clientId": id})
}

func (h *SyncHandler) SaveClientID(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ClientID string `json:"clientId"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	if err := h.driveAuth.SaveClientID(r.Context(), req.ClientID); err != nil {
		msg := services.TranslateAuthError("missing_client_id", "")
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", msg, r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

// Connect stores the access token the browser consent popup produced and runs
// the reconcile pass: restore from the remote file when one exists, otherwise
// create it from current state.
func (h *SyncHandler) Connect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccessToken      string `json:"accessToken"`
		ErrorCode        string `json:"errorCode"`
		ErrorDescription string `json:"errorDescription"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	// The popup failed browser-side; translate the code for the settings card.
	if req.ErrorCode != "" {
		msg := services.TranslateAuthError(req.ErrorCode, req.ErrorDescription)
		writeJSON(w, http.StatusBadRequest, errorResp("AUTH_FAILED", msg, r))
		return
	}

	token := strings.TrimSpace(req.AccessToken)
	if token == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Access token is required", r))
		return
	}

	ctx := r.Context()
	if err := store.SetString(ctx, h.store, store.KeyDriveToken, token); err != nil {
		internalError(w, r)
		return
	}

	outcome, err := h.autosync.Reconcile(ctx)
	if err != nil {
		writeJSON(w, http.StatusBadGateway, errorResp("SYNC_FAILED", "ক্লাউড সিঙ্ক করা যায়নি। আবার চেষ্টা করুন।", r))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"outcome": string(outcome)})
}

// Disconnect drops the token; local data stays.
func (h *SyncHandler) Disconnect(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := store.SetString(ctx, h.store, store.KeyDriveToken, ""); err != nil {
		internalError(w, r)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
}

// SyncNow forces an immediate upload, skipping the debounce window.
func (h *SyncHandler) SyncNow(w http.ResponseWriter, r *http.Request) {
	token, err := store.GetString(r.Context(), h.store, store.KeyDriveToken)
	if err != nil {
		internalError(w, r)
		return
	}
	if token == "" {
		writeJSON(w, http.StatusBadRequest, errorResp("NOT_CONNECTED", "গুগল ড্রাইভ কানেক্ট করা নেই।", r))
		return
	}

	h.autosync.Flush()
	writeJSON(w, http.StatusOK, map[string]string{"status": "synced"})
}

// Backup streams the current master file as a dated download.
func (h *SyncHandler) Backup(w http.ResponseWriter, r *http.Request) {
	content, err := h.codec.Serialize(r.Context())
	if err != nil {
		internalError(w, r)
		return
	}

	filename := fmt.Sprintf("HSC_Backup_%s.json", time.Now().Format("2006-01-02"))
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="`+filename+`"`)
	w.Write([]byte(content))
}

// Restore applies an uploaded master file and tells every open tab to reload.
func (h *SyncHandler) Restore(w http.ResponseWriter, r *http.Request) {
	content, err := io.ReadAll(io.LimitReader(r.Body, restoreBodyLimit))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "Could not read backup file", r))
		return
	}

	if err := h.codec.Restore(r.Context(), content); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResp("VALIDATION_ERROR", "ফাইলটি সঠিক ব্যাকআপ ফাইল নয়।", r))
		return
	}

	h.hub.Broadcast(models.WSMessage{Type: "reload"})
	writeJSON(w, http.StatusOK, map[string]string{"status": "restored"})
}
