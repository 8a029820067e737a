package masterfile

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hscplanner-backend/internal/models"
	"hscplanner-backend/internal/store"
)

const (
	AppName = "HSC Study Planner"
	Version = "1.2.5"
)

// Codec turns the exportable slice of the store (profile, routine, user
// questions, subjects) into one versioned JSON document and back.
type Codec struct {
	store store.Store
}

func NewCodec(st store.Store) *Codec {
	return &Codec{store: st}
}

// Serialize reads the four payload keys and wraps them in the envelope with a
// fresh timestamp. Missing entries become null/{}/[]; the document is always
// constructed whole from current reads, never partially.
func (c *Codec) Serialize(ctx context.Context) (string, error) {
	mf := models.MasterFile{
		AppName:  AppName,
		Version:  Version,
		LastSync: time.Now().UTC().Format(time.RFC3339),
		Payload: models.MasterPayload{
			Profile:   c.read(ctx, store.KeyProfile, "null"),
			Routine:   c.read(ctx, store.KeyRoutine, "null"),
			Questions: c.read(ctx, store.KeyCustomQuestions, "{}"),
			Subjects:  c.read(ctx, store.KeySubjects, "[]"),
		},
	}

	out, err := json.MarshalIndent(mf, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode master file: %w", err)
	}
	return string(out), nil
}

// Restore parses a master file (full envelope or bare payload) and overwrites
// the store key for each payload field present. Absent or null fields leave
// the corresponding key untouched; this is deliberate field-level
// last-writer-wins, not a deep merge. A JSON parse error returns before any
// key is written. Once writes start they are per-key, not atomic across the
// set.
func (c *Codec) Restore(ctx context.Context, content []byte) error {
	var mf models.MasterFile
	if err := json.Unmarshal(content, &mf); err != nil {
		return fmt.Errorf("invalid master file: %w", err)
	}

	p := mf.Payload
	if !present(p.Profile) && !present(p.Routine) && !present(p.Questions) && !present(p.Subjects) {
		// Backward compatibility: bare payload with the fields at top level.
		var bare models.MasterPayload
		if err := json.Unmarshal(content, &bare); err != nil {
			return fmt.Errorf("invalid master file: %w", err)
		}
		p = bare
	}

	fields := []struct {
		key string
		raw json.RawMessage
	}{
		{store.KeyProfile, p.Profile},
		{store.KeyRoutine, p.Routine},
		{store.KeyCustomQuestions, p.Questions},
		{store.KeySubjects, p.Subjects},
	}
	for _, f := range fields {
		if !present(f.raw) {
			continue
		}
		if err := c.store.Set(ctx, f.key, f.raw); err != nil {
			return fmt.Errorf("failed to restore %s: %w", f.key, err)
		}
	}
	return nil
}

func (c *Codec) read(ctx context.Context, key, fallback string) json.RawMessage {
	raw, err := c.store.Get(ctx, key)
	if err != nil || raw == nil {
		return json.RawMessage(fallback)
	}
	return raw
}

// present distinguishes a real value from an absent or JSON-null field.
func present(raw json.RawMessage) bool {
	return len(raw) > 0 && string(raw) != "null"
}
