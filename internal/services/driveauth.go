package services

import (
	"context"
	"errors"
	"strings"

	"hscplanner-backend/internal/store"
)

// The consent flow itself (Google Identity Services popup) runs in the
// browser; the backend only keeps the OAuth client id and translates the
// flow's failure codes into the dashboard's Bengali messages.

var ErrNoClientID = errors.New("google client id is not configured")

type DriveAuthService struct {
	store store.Store
}

func NewDriveAuthService(st store.Store) *DriveAuthService {
	return &DriveAuthService{store: st}
}

// ClientID returns the stored OAuth client id. ErrNoClientID when it is
// missing or too short to be real (the original applied the same length
// check before opening the popup).
func (s *DriveAuthService) ClientID(ctx context.Context) (string, error) {
	id, err := store.GetString(ctx, s.store, store.KeyGoogleClientID)
	if err != nil {
		return "", err
	}
	if len(id) < 10 {
		return "", ErrNoClientID
	}
	return id, nil
}

func (s *DriveAuthService) SaveClientID(ctx context.Context, id string) error {
	id = strings.TrimSpace(id)
	if len(id) < 10 {
		return ErrNoClientID
	}
	return store.SetString(ctx, s.store, store.KeyGoogleClientID, id)
}

// TranslateAuthError maps a consent-flow failure code to the user-facing
// message. Each failure mode gets a distinct, human-readable explanation.
func TranslateAuthError(code, description string) string {
	switch {
	case code == "missing_client_id":
		return "Client ID পাওয়া যায়নি! দয়া করে সেটিংসের ২য় ধাপে আপনার Client ID দিয়ে সেভ করুন।"
	case code == "popup_closed_by_user":
		return "পপআপ উইন্ডোটি বন্ধ হয়ে গেছে। এটি সাধারণত তখনই হয় যখন গুগল আপনার এই সাইটটিকে (Origin URL) চিনতে পারে না।"
	case code == "popup_blocked":
		return "পপআপ ওপেন হতে বাধা পেয়েছে। ব্রাউজার পপআপ ব্লকার চেক করুন।"
	case description != "":
		return description
	case code != "":
		return code
	default:
		return "গুগল কানেকশনে সমস্যা হয়েছে।"
	}
}
