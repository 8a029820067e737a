package worker

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"hscplanner-backend/internal/masterfile"
	"hscplanner-backend/internal/models"
	"hscplanner-backend/internal/store"
)

// fakeRemote counts calls and replays canned behavior.
type fakeRemote struct {
	mu        sync.Mutex
	findID    string
	content   string
	uploads   []string // content of each upload
	uploadIDs []string // fileID argument of each upload
	downloads int
	nextID    string
}

func (f *fakeRemote) FindMasterFile(_ context.Context, _ string) string {
	return f.findID
}

func (f *fakeRemote) Upload(_ context.Context, _, content, fileID string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.uploads = append(f.uploads, content)
	f.uploadIDs = append(f.uploadIDs, fileID)
	if fileID != "" {
		return fileID, nil
	}
	return f.nextID, nil
}

func (f *fakeRemote) Download(_ context.Context, _, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.downloads++
	return f.content, nil
}

func (f *fakeRemote) uploadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.uploads)
}

func newAutoSync(remote *fakeRemote, debounce time.Duration) (*AutoSync, *store.MemoryStore) {
	st := store.NewMemoryStore()
	a := NewAutoSync(st, masterfile.NewCodec(st), remote, nil, debounce)
	return a, st
}

func TestDebounce_CollapsesBurstIntoOneUpload(t *testing.T) {
	remote := &fakeRemote{nextID: "f1"}
	a, st := newAutoSync(remote, 50*time.Millisecond)
	ctx := context.Background()

	store.SetString(ctx, st, store.KeyDriveToken, "tok")
	store.SetString(ctx, st, store.KeyDriveFileID, "f1")
	a.Start()

	// Burst of changes inside the quiescence window.
	for i := 0; i < 5; i++ {
		store.SetJSON(ctx, st, store.KeySubjects, []models.Subject{{ID: "1", Progress: i}})
		time.Sleep(5 * time.Millisecond)
	}

	time.Sleep(150 * time.Millisecond)
	if n := remote.uploadCount(); n != 1 {
		t.Errorf("Expected exactly 1 upload for the burst, got %d", n)
	}
}

func TestDebounce_NewChangeRestartsWindow(t *testing.T) {
	remote := &fakeRemote{nextID: "f1"}
	a, st := newAutoSync(remote, 80*time.Millisecond)
	ctx := context.Background()

	store.SetString(ctx, st, store.KeyDriveToken, "tok")
	store.SetString(ctx, st, store.KeyDriveFileID, "f1")
	a.Start()

	store.SetString(ctx, st, store.KeyExamDate, "2026-06-30")
	time.Sleep(50 * time.Millisecond)
	// Still inside the window, nothing fired yet.
	if n := remote.uploadCount(); n != 0 {
		t.Fatalf("Upload fired before the window elapsed (%d)", n)
	}

	store.SetString(ctx, st, store.KeyExamDate, "2026-07-15")
	time.Sleep(50 * time.Millisecond)
	if n := remote.uploadCount(); n != 0 {
		t.Fatalf("Second change should have restarted the window (%d)", n)
	}

	time.Sleep(80 * time.Millisecond)
	if n := remote.uploadCount(); n != 1 {
		t.Errorf("Expected 1 upload after quiescence, got %d", n)
	}
}

func TestFlush_NoTokenIsSilentNoop(t *testing.T) {
	remote := &fakeRemote{}
	a, st := newAutoSync(remote, 20*time.Millisecond)
	a.Start()

	store.SetString(context.Background(), st, store.KeyExamDate, "2026-06-30")
	time.Sleep(80 * time.Millisecond)

	if n := remote.uploadCount(); n != 0 {
		t.Errorf("Expected no upload without a token, got %d", n)
	}
}

func TestFlush_UnwatchedKeysDoNotSchedule(t *testing.T) {
	remote := &fakeRemote{}
	a, st := newAutoSync(remote, 20*time.Millisecond)
	ctx := context.Background()

	store.SetString(ctx, st, store.KeyDriveToken, "tok")
	a.Start()

	store.SetString(ctx, st, store.KeyDriveFileID, "f9")
	store.SetJSON(ctx, st, store.KeyUserAnswers, map[string]string{"1_mcq_0": "x"})
	time.Sleep(80 * time.Millisecond)

	if n := remote.uploadCount(); n != 0 {
		t.Errorf("Expected no upload for unwatched keys, got %d", n)
	}
}

func TestReconcile_NoToken_Idle(t *testing.T) {
	remote := &fakeRemote{}
	a, _ := newAutoSync(remote, time.Second)

	outcome, err := a.Reconcile(context.Background())
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if outcome != ReconcileIdle {
		t.Errorf("Expected idle, got %s", outcome)
	}
	if remote.uploadCount() != 0 || remote.downloads != 0 {
		t.Error("Idle reconcile must not touch the remote store")
	}
}

func TestReconcile_TokenButNoRemoteFile_CreatesAndPersistsID(t *testing.T) {
	remote := &fakeRemote{findID: "", nextID: "fresh-1"}
	a, st := newAutoSync(remote, time.Second)
	ctx := context.Background()

	store.SetString(ctx, st, store.KeyDriveToken, "tok")
	store.SetJSON(ctx, st, store.KeyProfile, models.Profile{Name: "রাহিম"})

	outcome, err := a.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if outcome != ReconcileCreated {
		t.Errorf("Expected created, got %s", outcome)
	}
	if n := remote.uploadCount(); n != 1 {
		t.Fatalf("Expected exactly 1 upload, got %d", n)
	}
	if remote.uploadIDs[0] != "" {
		t.Errorf("Expected create (empty fileID), got %q", remote.uploadIDs[0])
	}

	var mf models.MasterFile
	if err := json.Unmarshal([]byte(remote.uploads[0]), &mf); err != nil {
		t.Fatalf("Uploaded content is not a master file: %v", err)
	}
	if mf.AppName != masterfile.AppName {
		t.Errorf("Expected freshly serialized master file, got appName %q", mf.AppName)
	}

	id, _ := store.GetString(ctx, st, store.KeyDriveFileID)
	if id != "fresh-1" {
		t.Errorf("Expected returned id persisted, got %q", id)
	}
}

func TestReconcile_ExistingRemoteFile_DownloadsRestoresNoUpload(t *testing.T) {
	mf := models.MasterFile{
		AppName: masterfile.AppName,
		Version: masterfile.Version,
		Payload: models.MasterPayload{
			Profile:  json.RawMessage(`{"name":"করিম","college":"নটরডেম কলেজ"}`),
			Subjects: json.RawMessage(`[{"id":"1","name":"বাংলা ১ম পত্র","progress":55}]`),
		},
	}
	content, _ := json.Marshal(mf)

	remote := &fakeRemote{findID: "remote-7", content: string(content)}
	a, st := newAutoSync(remote, 30*time.Millisecond)
	ctx := context.Background()

	store.SetString(ctx, st, store.KeyDriveToken, "tok")
	a.Start()

	outcome, err := a.Reconcile(ctx)
	if err != nil {
		t.Fatalf("Reconcile failed: %v", err)
	}
	if outcome != ReconcileRestored {
		t.Errorf("Expected restored, got %s", outcome)
	}
	if remote.downloads != 1 {
		t.Errorf("Expected exactly 1 download, got %d", remote.downloads)
	}

	var p models.Profile
	if _, err := store.GetJSON(ctx, st, store.KeyProfile, &p); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if p.Name != "করিম" {
		t.Errorf("Expected restored profile, got %+v", p)
	}

	// Restoring watched keys must not schedule an upload.
	time.Sleep(100 * time.Millisecond)
	if n := remote.uploadCount(); n != 0 {
		t.Errorf("Expected no upload on the restore path, got %d", n)
	}
}

func TestFlush_FirstUploadPersistsReturnedID(t *testing.T) {
	remote := &fakeRemote{nextID: "new-id-5"}
	a, st := newAutoSync(remote, 20*time.Millisecond)
	ctx := context.Background()

	store.SetString(ctx, st, store.KeyDriveToken, "tok")
	a.Start()

	store.SetString(ctx, st, store.KeyExamDate, "2026-06-30")
	time.Sleep(100 * time.Millisecond)

	id, _ := store.GetString(ctx, st, store.KeyDriveFileID)
	if id != "new-id-5" {
		t.Errorf("Expected created file id persisted, got %q", id)
	}
}

func TestStop_CancelsPendingTimer(t *testing.T) {
	remote := &fakeRemote{nextID: "f1"}
	a, st := newAutoSync(remote, 40*time.Millisecond)
	ctx := context.Background()

	store.SetString(ctx, st, store.KeyDriveToken, "tok")
	a.Start()

	store.SetString(ctx, st, store.KeyExamDate, "2026-06-30")
	a.Stop()

	time.Sleep(120 * time.Millisecond)
	if n := remote.uploadCount(); n != 0 {
		t.Errorf("Expected no upload after Stop, got %d", n)
	}
}
