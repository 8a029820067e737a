package worker

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"hscplanner-backend/internal/masterfile"
	"hscplanner-backend/internal/models"
	"hscplanner-backend/internal/store"
)

// EventsChannel carries dashboard push messages (reload after restore, sync
// status) from background work to the websocket hub.
const EventsChannel = "planner:events"

// RemoteStore is the slice of the cloud client the scheduler needs.
// FindMasterFile reports "" for both absence and lookup failure; the
// scheduler then takes the safe create-new path.
type RemoteStore interface {
	FindMasterFile(ctx context.Context, token string) string
	Upload(ctx context.Context, token, content, fileID string) (string, error)
	Download(ctx context.Context, token, fileID string) (string, error)
}

// ReconcileOutcome describes what the startup pass did.
type ReconcileOutcome string

const (
	ReconcileIdle     ReconcileOutcome = "idle"     // no token stored
	ReconcileRestored ReconcileOutcome = "restored" // remote file pulled into the store
	ReconcileCreated  ReconcileOutcome = "created"  // fresh remote file uploaded
)

// AutoSync watches the store and pushes a freshly generated master file to
// the remote store after a quiescence window. Sync is best effort: upload
// failures are logged and swallowed, and the next state change simply tries
// again.
type AutoSync struct {
	store    store.Store
	codec    *masterfile.Codec
	remote   RemoteStore
	redis    *redis.Client // nil disables event publishing
	debounce time.Duration

	mu        sync.Mutex
	timer     *time.Timer
	suspended bool
}

// Keys whose writes schedule an upload. Sync bookkeeping keys (token, file
// id) are deliberately absent so a flush never re-arms itself.
var watchedKeys = map[string]bool{
	store.KeySubjects:   true,
	store.KeyProfile:    true,
	store.KeyRoutine:    true,
	store.KeyExamDate:   true,
	store.KeyTheme:      true,
	store.KeyDateSynced: true,
	store.KeyLastCheck:  true,
}

func NewAutoSync(st store.Store, codec *masterfile.Codec, remote RemoteStore, redisClient *redis.Client, debounce time.Duration) *AutoSync {
	return &AutoSync{
		store:    st,
		codec:    codec,
		remote:   remote,
		redis:    redisClient,
		debounce: debounce,
	}
}

// Start subscribes to store changes. Call once.
func (a *AutoSync) Start() {
	a.store.Subscribe(a.onChange)
	log.Printf("auto-sync: watching %d keys (debounce %s)", len(watchedKeys), a.debounce)
}

// Stop cancels any pending upload timer. In-flight uploads finish on their
// own; the remote write is an idempotent overwrite either way.
func (a *AutoSync) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}

// onChange implements the trailing-edge debounce: each qualifying write
// cancels the pending timer and arms a new one, so at most one upload is
// scheduled and it fires one window after the last change.
func (a *AutoSync) onChange(key string) {
	if !watchedKeys[key] {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.suspended {
		return
	}
	if a.timer != nil {
		a.timer.Stop()
	}
	a.timer = time.AfterFunc(a.debounce, a.flush)
}

// setSuspended gates debounce arming while a restore is writing watched keys,
// so pulling remote state never schedules an immediate re-upload of it.
func (a *AutoSync) setSuspended(v bool) {
	a.mu.Lock()
	a.suspended = v
	a.mu.Unlock()
}

// Flush uploads immediately, bypassing the debounce window. Used by the
// manual "sync now" action.
func (a *AutoSync) Flush() {
	a.mu.Lock()
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
	a.mu.Unlock()
	a.flush()
}

// flush serializes the current state and uploads it. Skipped silently when no
// token is stored; offline mode is a no-op, not an error.
func (a *AutoSync) flush() {
	ctx := context.Background()

	token, err := store.GetString(ctx, a.store, store.KeyDriveToken)
	if err != nil {
		log.Printf("auto-sync: failed to read token: %v", err)
		return
	}
	if token == "" {
		return
	}

	content, err := a.codec.Serialize(ctx)
	if err != nil {
		log.Printf("auto-sync: serialize failed: %v", err)
		return
	}

	fileID, err := store.GetString(ctx, a.store, store.KeyDriveFileID)
	if err != nil {
		log.Printf("auto-sync: failed to read file id: %v", err)
		return
	}

	newID, err := a.remote.Upload(ctx, token, content, fileID)
	if err != nil {
		log.Printf("auto-sync: upload failed: %v", err)
		a.publish(ctx, models.WSMessage{Type: "sync_failed"})
		return
	}

	if fileID == "" {
		if err := store.SetString(ctx, a.store, store.KeyDriveFileID, newID); err != nil {
			log.Printf("auto-sync: failed to persist file id: %v", err)
		}
	}

	log.Printf("auto-sync: master file uploaded (%s)", newID)
	a.publish(ctx, models.WSMessage{Type: "sync_complete"})
}

// Reconcile runs the one-time startup pass: pull and restore the remote file
// when one exists, otherwise create it from current state. No stored token
// means idle.
func (a *AutoSync) Reconcile(ctx context.Context) (ReconcileOutcome, error) {
	token, err := store.GetString(ctx, a.store, store.KeyDriveToken)
	if err != nil {
		return ReconcileIdle, err
	}
	if token == "" {
		return ReconcileIdle, nil
	}

	fileID := a.remote.FindMasterFile(ctx, token)
	if fileID != "" {
		if err := store.SetString(ctx, a.store, store.KeyDriveFileID, fileID); err != nil {
			return ReconcileIdle, err
		}

		content, err := a.remote.Download(ctx, token, fileID)
		if err != nil {
			return ReconcileIdle, err
		}

		a.setSuspended(true)
		err = a.codec.Restore(ctx, []byte(content))
		a.setSuspended(false)
		if err != nil {
			return ReconcileIdle, err
		}

		a.publish(ctx, models.WSMessage{Type: "reload"})
		log.Printf("auto-sync: restored local state from remote file %s", fileID)
		return ReconcileRestored, nil
	}

	content, err := a.codec.Serialize(ctx)
	if err != nil {
		return ReconcileIdle, err
	}
	newID, err := a.remote.Upload(ctx, token, content, "")
	if err != nil {
		return ReconcileIdle, err
	}
	if err := store.SetString(ctx, a.store, store.KeyDriveFileID, newID); err != nil {
		return ReconcileIdle, err
	}

	log.Printf("auto-sync: created remote file %s", newID)
	return ReconcileCreated, nil
}

func (a *AutoSync) publish(ctx context.Context, msg models.WSMessage) {
	if a.redis == nil {
		return
	}
	data, _ := json.Marshal(msg)
	if err := a.redis.Publish(ctx, EventsChannel, string(data)).Err(); err != nil {
		log.Printf("auto-sync: publish failed: %v", err)
	}
}
