package exam

import (
	"context"
	"math/rand"
	"testing"

	"hscplanner-backend/internal/models"
	"hscplanner-backend/internal/questionbank"
	"hscplanner-backend/internal/store"
)

func newTestService() (*Service, store.Store) {
	st := store.NewMemoryStore()
	qb := questionbank.NewService(st, rand.New(rand.NewSource(7)))
	return NewService(st, qb), st
}

var testSubject = models.Subject{ID: "6", Name: "পদার্থবিজ্ঞান ১ম পত্র"}

func TestAnswerMatches_ContainmentRule(t *testing.T) {
	tests := []struct {
		name    string
		user    string
		correct string
		match   bool
	}{
		{"exact", "গ", "গ", true},
		{"empty never matches", "", "গ", false},
		{"wrong option", "ক", "গ", false},
		{"partial phrasing of model answer", "ঠাকুর", "রবীন্দ্রনাথ ঠাকুর", true},
		{"model answer inside longer answer", "উত্তরটি হলো F = ma", "F = ma", true},
		{"case folded", "Joule", "joule", true},
		{"whitespace trimmed", "  সরণ  ", "সরণ", true},
		{"both empty", "", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := AnswerMatches(tc.user, tc.correct); got != tc.match {
				t.Errorf("AnswerMatches(%q, %q) = %v, want %v", tc.user, tc.correct, got, tc.match)
			}
		})
	}
}

func TestGenerate_ReplacesSnapshotAndClearsAnswers(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	first, err := svc.Generate(ctx, testSubject)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if first.SubjectID != testSubject.ID || len(first.MCQs) == 0 {
		t.Fatalf("Unexpected snapshot %+v", first)
	}

	if err := svc.SaveAnswer(ctx, testSubject.ID, ModeMCQ, 0, "সরণ"); err != nil {
		t.Fatalf("SaveAnswer failed: %v", err)
	}

	second, err := svc.Generate(ctx, testSubject)
	if err != nil {
		t.Fatalf("Second generate failed: %v", err)
	}
	if second.LastUpdated < first.LastUpdated {
		t.Error("Expected replacement snapshot to be newer")
	}

	answers, err := svc.UserAnswers(ctx, testSubject.ID, ModeMCQ, len(second.MCQs))
	if err != nil {
		t.Fatalf("UserAnswers failed: %v", err)
	}
	for i, a := range answers {
		if a != "" {
			t.Errorf("Expected answers cleared after regeneration, found %q at %d", a, i)
		}
	}
}

func TestGenerate_KeepsOtherSubjectsAnswers(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()
	other := models.Subject{ID: "8", Name: "রসায়ন ১ম পত্র"}

	if _, err := svc.Generate(ctx, other); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if err := svc.SaveAnswer(ctx, other.ID, ModeMCQ, 0, "মেন্ডেলিফ"); err != nil {
		t.Fatalf("SaveAnswer failed: %v", err)
	}

	if _, err := svc.Generate(ctx, testSubject); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	kept, err := svc.UserAnswers(ctx, other.ID, ModeMCQ, 1)
	if err != nil {
		t.Fatalf("UserAnswers failed: %v", err)
	}
	if kept[0] != "মেন্ডেলিফ" {
		t.Errorf("Expected other subject's answer kept, got %q", kept[0])
	}
}

func TestGradeLocally_MCQScoring(t *testing.T) {
	svc, st := newTestService()
	ctx := context.Background()

	bank, err := svc.Generate(ctx, testSubject)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	// Answer the first question correctly, the second wrongly, leave the
	// rest blank.
	if err := svc.SaveAnswer(ctx, testSubject.ID, ModeMCQ, 0, bank.MCQs[0].Answer); err != nil {
		t.Fatalf("SaveAnswer failed: %v", err)
	}
	if len(bank.MCQs) > 1 {
		if err := svc.SaveAnswer(ctx, testSubject.ID, ModeMCQ, 1, "সম্পূর্ণ ভুল উত্তর ০০০"); err != nil {
			t.Fatalf("SaveAnswer failed: %v", err)
		}
	}

	result, err := svc.GradeLocally(ctx, testSubject.ID, ModeMCQ)
	if err != nil {
		t.Fatalf("GradeLocally failed: %v", err)
	}
	if result.Score != 1 {
		t.Errorf("Expected score 1, got %d", result.Score)
	}
	if result.Total != len(bank.MCQs) {
		t.Errorf("Expected total %d, got %d", len(bank.MCQs), result.Total)
	}
	if result.Type != "MCQ" {
		t.Errorf("Expected type MCQ, got %q", result.Type)
	}

	// Grading must not touch the stored answer sheet.
	answers, _ := svc.UserAnswers(ctx, testSubject.ID, ModeMCQ, 1)
	if answers[0] != bank.MCQs[0].Answer {
		t.Error("Grading mutated stored answers")
	}
	_ = st
}

func TestGradeLocally_CQSelfReview(t *testing.T) {
	svc, _ := newTestService()
	ctx := context.Background()

	bank, err := svc.Generate(ctx, testSubject)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	result, err := svc.GradeLocally(ctx, testSubject.ID, ModeCQ)
	if err != nil {
		t.Fatalf("GradeLocally failed: %v", err)
	}
	if result.Type != "CQ (Self-Review)" {
		t.Errorf("Expected self-review type, got %q", result.Type)
	}
	if result.Score != 0 || result.Total != len(bank.CQs) {
		t.Errorf("Expected 0/%d, got %d/%d", len(bank.CQs), result.Score, result.Total)
	}
}

func TestGradeLocally_NoSnapshot(t *testing.T) {
	svc, _ := newTestService()

	if _, err := svc.GradeLocally(context.Background(), "999", ModeMCQ); err == nil {
		t.Error("Expected error when no exam has been generated")
	}
}

func TestSaveAnswer_RejectsUnknownMode(t *testing.T) {
	svc, _ := newTestService()

	if err := svc.SaveAnswer(context.Background(), "1", "essay", 0, "x"); err == nil {
		t.Error("Expected error for unknown mode")
	}
}
