package store

import (
	"context"
	"encoding/json"
	"fmt"
)

// Persisted keys. One key per logical entity; the schema is fixed and small
// enough that there is no need for per-entity tables. Names match the master
// file payload the original web client produced, so old backups restore
// cleanly.
const (
	KeyProfile         = "hsc_profile"
	KeySubjects        = "hsc_subjects"
	KeyRoutine         = "hsc_routine"
	KeyTheme           = "hsc_theme"
	KeyExamDate        = "hsc_exam_date"
	KeyLastCheck       = "hsc_last_check"
	KeyLastCheckTS     = "hsc_last_check_ts"
	KeyCachedNews      = "hsc_cached_news"
	KeyDateSynced      = "hsc_is_synced"
	KeyDriveToken      = "hsc_drive_token"
	KeyDriveFileID     = "hsc_drive_file_id"
	KeyExamBank        = "hsc_exam_bank"
	KeyUserAnswers     = "hsc_user_answers"
	KeyCustomQuestions = "hsc_user_custom_questions"
	KeyGoogleClientID  = "hsc_google_client_id"
)

// Store is key-value persistence of named JSON blobs. Get returns nil for a
// missing key. Writes to different keys are independent: there is no
// transaction across keys, so a crash mid-restore can leave a mix of old and
// new values. Accepted for a single-user dashboard.
//
// Subscribe registers an observer that is called after every successful Set
// with the key that changed. Callbacks run on the writer's goroutine and must
// not block.
type Store interface {
	Get(ctx context.Context, key string) (json.RawMessage, error)
	Set(ctx context.Context, key string, value json.RawMessage) error
	Subscribe(fn func(key string))
}

// GetJSON unmarshals the value at key into dst. Returns false when the key is
// absent, leaving dst untouched.
func GetJSON(ctx context.Context, s Store, key string, dst interface{}) (bool, error) {
	raw, err := s.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if raw == nil {
		return false, nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return false, fmt.Errorf("failed to decode %s: %w", key, err)
	}
	return true, nil
}

// SetJSON marshals v and stores it at key.
func SetJSON(ctx context.Context, s Store, key string, v interface{}) error {
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	return s.Set(ctx, key, raw)
}

// GetString reads a JSON string value; absent keys yield "".
func GetString(ctx context.Context, s Store, key string) (string, error) {
	var v string
	ok, err := GetJSON(ctx, s, key, &v)
	if err != nil || !ok {
		return "", err
	}
	return v, nil
}

// SetString stores v as a JSON string.
func SetString(ctx context.Context, s Store, key, v string) error {
	return SetJSON(ctx, s, key, v)
}
