package questionbank

import (
	"context"
	"math/rand"
	"strings"
	"sync"

	"hscplanner-backend/internal/models"
	"hscplanner-backend/internal/store"
)

// CQSampleSize is the fixed number of extended-response questions per exam.
const CQSampleSize = 10

type Stats struct {
	Total     int `json:"total"`
	Remaining int `json:"remaining"`
	User      int `json:"user"`
}

// Service merges the read-only bundled bank with the user/AI-added bank kept
// in the store, and samples exams from the combined pool.
type Service struct {
	store    store.Store
	bundled  map[string]models.SubjectBank
	fallback models.SubjectBank

	mu  sync.Mutex
	rnd *rand.Rand
}

// NewService builds the service around st. rnd drives sampling; tests inject
// a seeded source to get deterministic samples.
func NewService(st store.Store, rnd *rand.Rand) *Service {
	data := loadBundledBank()
	return &Service{
		store:    st,
		bundled:  data.Banks,
		fallback: data.Default,
		rnd:      rnd,
	}
}

// UserQuestions returns the mutable user bank, keyed by subject name.
func (s *Service) UserQuestions(ctx context.Context) (map[string]models.SubjectBank, error) {
	banks := map[string]models.SubjectBank{}
	if _, err := store.GetJSON(ctx, s.store, store.KeyCustomQuestions, &banks); err != nil {
		return nil, err
	}
	return banks, nil
}

// SaveBulkUserQuestions appends mcqs and cqs to the subject's user bank,
// initializing the entry on first write. Append-only: nothing is ever
// updated or removed.
func (s *Service) SaveBulkUserQuestions(ctx context.Context, subjectName string, mcqs, cqs []models.QuestionPair) error {
	name := strings.TrimSpace(subjectName)

	banks, err := s.UserQuestions(ctx)
	if err != nil {
		return err
	}

	bank := banks[name]
	bank.MCQs = append(bank.MCQs, mcqs...)
	bank.CQs = append(bank.CQs, cqs...)
	banks[name] = bank

	return store.SetJSON(ctx, s.store, store.KeyCustomQuestions, banks)
}

// SaveUserQuestion appends a single pair of the given type ("mcq" or "cq").
func (s *Service) SaveUserQuestion(ctx context.Context, subjectName, qtype string, pair models.QuestionPair) error {
	if qtype == "mcq" {
		return s.SaveBulkUserQuestions(ctx, subjectName, []models.QuestionPair{pair}, nil)
	}
	return s.SaveBulkUserQuestions(ctx, subjectName, nil, []models.QuestionPair{pair})
}

// LocalQuestions samples count MCQs and CQSampleSize CQs for the subject.
// User entries come before bundled ones in the pool; unknown subjects fall
// back to the default bank. Sampling is without replacement, returns the
// whole pool when it is smaller than requested, and is intentionally not
// idempotent: every call reshuffles so "regenerate" yields a fresh paper.
func (s *Service) LocalQuestions(ctx context.Context, subjectName string, count int) (models.SubjectBank, error) {
	name := strings.TrimSpace(subjectName)

	bank, ok := s.bundled[name]
	if !ok {
		bank = s.fallback
	}

	userBanks, err := s.UserQuestions(ctx)
	if err != nil {
		return models.SubjectBank{}, err
	}
	userBank := userBanks[name]

	pool := models.SubjectBank{
		MCQs: append(append([]models.QuestionPair{}, userBank.MCQs...), bank.MCQs...),
		CQs:  append(append([]models.QuestionPair{}, userBank.CQs...), bank.CQs...),
	}

	return models.SubjectBank{
		MCQs: s.sample(pool.MCQs, count),
		CQs:  s.sample(pool.CQs, CQSampleSize),
	}, nil
}

// DatabaseStats reports per-subject question counts. Total counts bundled
// MCQs plus all user questions; bundled CQs are excluded, matching the
// long-standing dashboard figure.
func (s *Service) DatabaseStats(ctx context.Context, subjectName string) (Stats, error) {
	name := strings.TrimSpace(subjectName)

	userBanks, err := s.UserQuestions(ctx)
	if err != nil {
		return Stats{}, err
	}

	userCount := 0
	if userBank, ok := userBanks[name]; ok {
		userCount = len(userBank.MCQs) + len(userBank.CQs)
	}

	total := userCount
	if bank, ok := s.bundled[name]; ok {
		total += len(bank.MCQs)
	}

	return Stats{Total: total, Remaining: total, User: userCount}, nil
}

// sample shuffles a copy of source (Fisher-Yates) and takes the first target
// entries.
func (s *Service) sample(source []models.QuestionPair, target int) []models.QuestionPair {
	picked := append([]models.QuestionPair{}, source...)

	s.mu.Lock()
	s.rnd.Shuffle(len(picked), func(i, j int) {
		picked[i], picked[j] = picked[j], picked[i]
	})
	s.mu.Unlock()

	if target > len(picked) {
		target = len(picked)
	}
	return picked[:target]
}
