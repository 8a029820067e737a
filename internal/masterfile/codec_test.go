package masterfile

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"hscplanner-backend/internal/models"
	"hscplanner-backend/internal/store"
)

func seededStore(t *testing.T) *store.MemoryStore {
	t.Helper()
	st := store.NewMemoryStore()
	ctx := context.Background()

	store.SetJSON(ctx, st, store.KeyProfile, models.Profile{Name: "রাহিম", College: "ঢাকা কলেজ", TargetGoal: "A+"})
	store.SetJSON(ctx, st, store.KeyRoutine, map[string]string{"06:00": "3", "07:00": models.RoutineBreak})
	store.SetJSON(ctx, st, store.KeySubjects, []models.Subject{{ID: "3", Name: "ইংরেজি ১ম পত্র", Progress: 40}})
	store.SetJSON(ctx, st, store.KeyCustomQuestions, map[string]models.SubjectBank{
		"ইংরেজি ১ম পত্র": {MCQs: []models.QuestionPair{{Question: "q", Answer: "a"}}},
	})
	return st
}

func rawAt(t *testing.T, st store.Store, key string) string {
	t.Helper()
	raw, err := st.Get(context.Background(), key)
	if err != nil {
		t.Fatalf("Get %s failed: %v", key, err)
	}
	return string(raw)
}

func TestSerialize_Envelope(t *testing.T) {
	st := seededStore(t)
	codec := NewCodec(st)

	content, err := codec.Serialize(context.Background())
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	var mf models.MasterFile
	if err := json.Unmarshal([]byte(content), &mf); err != nil {
		t.Fatalf("Serialized output is not valid JSON: %v", err)
	}
	if mf.AppName != AppName || mf.Version != Version {
		t.Errorf("Expected envelope %s/%s, got %s/%s", AppName, Version, mf.AppName, mf.Version)
	}
	if mf.LastSync == "" {
		t.Error("Expected lastSync timestamp")
	}
	if !strings.Contains(content, "\n  ") {
		t.Error("Expected pretty-printed output")
	}
}

func TestSerialize_MissingEntriesNeverFail(t *testing.T) {
	codec := NewCodec(store.NewMemoryStore())

	content, err := codec.Serialize(context.Background())
	if err != nil {
		t.Fatalf("Serialize on empty store failed: %v", err)
	}

	var mf models.MasterFile
	if err := json.Unmarshal([]byte(content), &mf); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if string(mf.Payload.Profile) != "null" {
		t.Errorf("Expected null profile, got %s", mf.Payload.Profile)
	}
	if string(mf.Payload.Questions) != "{}" {
		t.Errorf("Expected {} questions, got %s", mf.Payload.Questions)
	}
	if string(mf.Payload.Subjects) != "[]" {
		t.Errorf("Expected [] subjects, got %s", mf.Payload.Subjects)
	}
}

func TestRoundTrip_Lossless(t *testing.T) {
	src := seededStore(t)
	ctx := context.Background()

	content, err := NewCodec(src).Serialize(ctx)
	if err != nil {
		t.Fatalf("Serialize failed: %v", err)
	}

	dst := store.NewMemoryStore()
	if err := NewCodec(dst).Restore(ctx, []byte(content)); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	for _, key := range []string{store.KeyProfile, store.KeyRoutine, store.KeySubjects, store.KeyCustomQuestions} {
		var a, b interface{}
		json.Unmarshal([]byte(rawAt(t, src, key)), &a)
		json.Unmarshal([]byte(rawAt(t, dst, key)), &b)
		aj, _ := json.Marshal(a)
		bj, _ := json.Marshal(b)
		if string(aj) != string(bj) {
			t.Errorf("Round trip lost data for %s:\n  src %s\n  dst %s", key, aj, bj)
		}
	}
}

func TestRestore_PartialPayloadLeavesOtherKeysAlone(t *testing.T) {
	st := seededStore(t)
	ctx := context.Background()
	routineBefore := rawAt(t, st, store.KeyRoutine)
	subjectsBefore := rawAt(t, st, store.KeySubjects)

	input := `{"payload":{"profile":{"name":"করিম","college":"নটরডেম কলেজ"}}}`
	if err := NewCodec(st).Restore(ctx, []byte(input)); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	var p models.Profile
	if _, err := store.GetJSON(ctx, st, store.KeyProfile, &p); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if p.Name != "করিম" {
		t.Errorf("Expected profile overwritten, got %+v", p)
	}
	if rawAt(t, st, store.KeyRoutine) != routineBefore {
		t.Error("Routine changed on partial restore")
	}
	if rawAt(t, st, store.KeySubjects) != subjectsBefore {
		t.Error("Subjects changed on partial restore")
	}
}

func TestRestore_BarePayloadAccepted(t *testing.T) {
	st := store.NewMemoryStore()
	input := `{"profile":{"name":"করিম"},"subjects":[{"id":"1","name":"বাংলা ১ম পত্র","progress":10}]}`

	if err := NewCodec(st).Restore(context.Background(), []byte(input)); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	var subjects []models.Subject
	if _, err := store.GetJSON(context.Background(), st, store.KeySubjects, &subjects); err != nil {
		t.Fatalf("GetJSON failed: %v", err)
	}
	if len(subjects) != 1 || subjects[0].Progress != 10 {
		t.Errorf("Expected restored subjects, got %v", subjects)
	}
}

func TestRestore_MalformedInputLeavesStoreUnchanged(t *testing.T) {
	st := seededStore(t)
	before := map[string]string{}
	for _, key := range []string{store.KeyProfile, store.KeyRoutine, store.KeySubjects, store.KeyCustomQuestions} {
		before[key] = rawAt(t, st, key)
	}

	if err := NewCodec(st).Restore(context.Background(), []byte("not json")); err == nil {
		t.Fatal("Expected error for malformed input")
	}

	for key, want := range before {
		if got := rawAt(t, st, key); got != want {
			t.Errorf("Key %s changed after failed restore", key)
		}
	}
}

func TestRestore_NullFieldsAreSkipped(t *testing.T) {
	st := seededStore(t)
	profileBefore := rawAt(t, st, store.KeyProfile)

	input := `{"payload":{"profile":null,"routine":{"08:00":"exam"}}}`
	if err := NewCodec(st).Restore(context.Background(), []byte(input)); err != nil {
		t.Fatalf("Restore failed: %v", err)
	}

	if rawAt(t, st, store.KeyProfile) != profileBefore {
		t.Error("Null profile field overwrote the stored profile")
	}
	var routine map[string]string
	store.GetJSON(context.Background(), st, store.KeyRoutine, &routine)
	if routine["08:00"] != "exam" {
		t.Errorf("Expected routine overwritten, got %v", routine)
	}
}
