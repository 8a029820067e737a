package exam

import (
	"context"
	"fmt"
	"strings"
	"time"

	"hscplanner-backend/internal/models"
	"hscplanner-backend/internal/questionbank"
	"hscplanner-backend/internal/store"
)

// Question modes of a practice session.
const (
	ModeMCQ = "mcq"
	ModeCQ  = "cq"
)

// DefaultMCQCount is the paper size the exam portal requests.
const DefaultMCQCount = 20

// LocalResult is the outcome of offline grading. CQ mode carries no score;
// the session switches to self-review against the model answers.
type LocalResult struct {
	Score int    `json:"score"`
	Total int    `json:"total"`
	Type  string `json:"type"`
}

// Service owns per-subject exam snapshots and the stored answer sheet. It
// needs no network: generation samples the local pool and grading is a string
// comparison.
type Service struct {
	store     store.Store
	questions *questionbank.Service
}

func NewService(st store.Store, questions *questionbank.Service) *Service {
	return &Service{store: st, questions: questions}
}

// Generate builds a fresh snapshot for the subject, replacing any prior one,
// and clears that subject's saved answers.
func (s *Service) Generate(ctx context.Context, subject models.Subject) (models.ExamQuestionBank, error) {
	sampled, err := s.questions.LocalQuestions(ctx, subject.Name, DefaultMCQCount)
	if err != nil {
		return models.ExamQuestionBank{}, err
	}

	snapshot := models.ExamQuestionBank{
		SubjectID:   subject.ID,
		SubjectName: subject.Name,
		MCQs:        sampled.MCQs,
		CQs:         sampled.CQs,
		LastUpdated: time.Now().UnixMilli(),
	}

	banks := map[string]models.ExamQuestionBank{}
	if _, err := store.GetJSON(ctx, s.store, store.KeyExamBank, &banks); err != nil {
		return models.ExamQuestionBank{}, err
	}
	banks[subject.ID] = snapshot
	if err := store.SetJSON(ctx, s.store, store.KeyExamBank, banks); err != nil {
		return models.ExamQuestionBank{}, err
	}

	if err := s.clearAnswers(ctx, subject.ID); err != nil {
		return models.ExamQuestionBank{}, err
	}
	return snapshot, nil
}

// Bank returns the active snapshot for the subject, or nil when none has been
// generated yet.
func (s *Service) Bank(ctx context.Context, subjectID string) (*models.ExamQuestionBank, error) {
	banks := map[string]models.ExamQuestionBank{}
	if _, err := store.GetJSON(ctx, s.store, store.KeyExamBank, &banks); err != nil {
		return nil, err
	}
	bank, ok := banks[subjectID]
	if !ok {
		return nil, nil
	}
	return &bank, nil
}

// SaveAnswer records the user's answer for one question of the snapshot.
func (s *Service) SaveAnswer(ctx context.Context, subjectID, mode string, index int, answer string) error {
	if mode != ModeMCQ && mode != ModeCQ {
		return fmt.Errorf("unknown exam mode %q", mode)
	}

	answers, err := s.answers(ctx)
	if err != nil {
		return err
	}
	answers[answerKey(subjectID, mode, index)] = answer
	return store.SetJSON(ctx, s.store, store.KeyUserAnswers, answers)
}

// GradeLocally scores the active snapshot without any network call. MCQ mode
// counts containment matches; CQ mode marks the session as self-review and
// computes no score.
func (s *Service) GradeLocally(ctx context.Context, subjectID, mode string) (LocalResult, error) {
	bank, err := s.Bank(ctx, subjectID)
	if err != nil {
		return LocalResult{}, err
	}
	if bank == nil {
		return LocalResult{}, fmt.Errorf("no exam generated for subject %s", subjectID)
	}

	if mode == ModeCQ {
		return LocalResult{Score: 0, Total: len(bank.CQs), Type: "CQ (Self-Review)"}, nil
	}

	answers, err := s.answers(ctx)
	if err != nil {
		return LocalResult{}, err
	}

	score := 0
	for i, q := range bank.MCQs {
		if AnswerMatches(answers[answerKey(subjectID, ModeMCQ, i)], q.Answer) {
			score++
		}
	}
	return LocalResult{Score: score, Total: len(bank.MCQs), Type: "MCQ"}, nil
}

// UserAnswers returns the answers recorded for the subject's snapshot, in
// question order, empty string for unanswered.
func (s *Service) UserAnswers(ctx context.Context, subjectID, mode string, count int) ([]string, error) {
	answers, err := s.answers(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]string, count)
	for i := range out {
		out[i] = answers[answerKey(subjectID, mode, i)]
	}
	return out, nil
}

// AnswerMatches applies the lenient offline rule: trimmed, case-folded,
// bidirectional substring containment. Empty answers never match; partial
// phrasings of the model answer do.
func AnswerMatches(userAnswer, correctAnswer string) bool {
	u := strings.ToLower(strings.TrimSpace(userAnswer))
	c := strings.ToLower(strings.TrimSpace(correctAnswer))
	if u == "" {
		return false
	}
	return strings.Contains(c, u) || strings.Contains(u, c)
}

func (s *Service) answers(ctx context.Context) (map[string]string, error) {
	answers := map[string]string{}
	if _, err := store.GetJSON(ctx, s.store, store.KeyUserAnswers, &answers); err != nil {
		return nil, err
	}
	return answers, nil
}

func (s *Service) clearAnswers(ctx context.Context, subjectID string) error {
	answers, err := s.answers(ctx)
	if err != nil {
		return err
	}
	for key := range answers {
		if strings.HasPrefix(key, subjectID+"_") {
			delete(answers, key)
		}
	}
	return store.SetJSON(ctx, s.store, store.KeyUserAnswers, answers)
}

func answerKey(subjectID, mode string, index int) string {
	return fmt.Sprintf("%s_%s_%d", subjectID, mode, index)
}
