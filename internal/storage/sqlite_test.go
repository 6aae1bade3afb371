package storage

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/arjunrb/interviewd/internal/interview"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLiteStore failed: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func seedResume(t *testing.T, store *SQLiteStore) {
	t.Helper()
	if err := store.InsertResume("resume-1", "user-1", "resume.pdf", "Five years of Go."); err != nil {
		t.Fatalf("InsertResume failed: %v", err)
	}
}

func testInterview() *interview.Interview {
	return &interview.Interview{
		ID:          "iv-1",
		UserID:      "user-1",
		ResumeID:    "resume-1",
		JobTitle:    "Backend Engineer",
		Status:      interview.StatusInProgress,
		SessionType: interview.SessionRealTime,
		Questions: []interview.QuestionRecord{
			{ID: "q-1", Text: "What is a goroutine?"},
		},
	}
}

func TestResumeRoundTrip(t *testing.T) {
	store := newTestStore(t)
	seedResume(t, store)

	text, err := store.GetResumeText("resume-1")
	if err != nil {
		t.Fatalf("GetResumeText failed: %v", err)
	}
	if text != "Five years of Go." {
		t.Fatalf("unexpected resume text %q", text)
	}
}

func TestGetResumeText_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetResumeText("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInterviewRoundTrip(t *testing.T) {
	store := newTestStore(t)
	seedResume(t, store)

	iv := testInterview()
	if err := store.CreateInterview(iv); err != nil {
		t.Fatalf("CreateInterview failed: %v", err)
	}
	if iv.CreatedAt.IsZero() || iv.UpdatedAt.IsZero() {
		t.Fatal("expected create to stamp timestamps")
	}

	got, err := store.GetInterview("iv-1")
	if err != nil {
		t.Fatalf("GetInterview failed: %v", err)
	}
	if got.UserID != "user-1" || got.JobTitle != "Backend Engineer" {
		t.Fatalf("unexpected interview %#v", got)
	}
	if got.Status != interview.StatusInProgress || got.SessionType != interview.SessionRealTime {
		t.Fatalf("unexpected status/type %q/%q", got.Status, got.SessionType)
	}
	if got.Feedback != nil {
		t.Fatalf("expected no feedback before completion, got %#v", got.Feedback)
	}
	if len(got.Questions) != 1 || got.Questions[0].Text != "What is a goroutine?" {
		t.Fatalf("unexpected questions %#v", got.Questions)
	}
}

func TestGetInterview_NotFound(t *testing.T) {
	store := newTestStore(t)

	_, err := store.GetInterview("missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveInterview_UpdatesAnswerAndAppendsQuestions(t *testing.T) {
	store := newTestStore(t)
	seedResume(t, store)

	iv := testInterview()
	if err := store.CreateInterview(iv); err != nil {
		t.Fatalf("CreateInterview failed: %v", err)
	}

	iv.Questions[0].UserAnswer = "A lightweight thread."
	iv.Questions[0].AIFeedback = "Good, mention the scheduler."
	iv.Questions[0].Score = 80
	iv.Questions = append(iv.Questions, interview.QuestionRecord{ID: "q-2", Text: "What about channels?"})
	if err := store.SaveInterview(iv); err != nil {
		t.Fatalf("SaveInterview failed: %v", err)
	}

	got, err := store.GetInterview("iv-1")
	if err != nil {
		t.Fatalf("GetInterview failed: %v", err)
	}
	if len(got.Questions) != 2 {
		t.Fatalf("expected 2 questions, got %d", len(got.Questions))
	}
	first := got.Questions[0]
	if first.UserAnswer != "A lightweight thread." || first.AIFeedback != "Good, mention the scheduler." || first.Score != 80 {
		t.Fatalf("unexpected first question %#v", first)
	}
	if got.Questions[1].Text != "What about channels?" {
		t.Fatalf("questions out of order: %#v", got.Questions)
	}
	if !got.UpdatedAt.After(got.CreatedAt) {
		t.Fatalf("expected updated_at to advance: created %v updated %v", got.CreatedAt, got.UpdatedAt)
	}
}

func TestSaveInterview_WritesFinalFeedback(t *testing.T) {
	store := newTestStore(t)
	seedResume(t, store)

	iv := testInterview()
	if err := store.CreateInterview(iv); err != nil {
		t.Fatalf("CreateInterview failed: %v", err)
	}

	iv.Status = interview.StatusCompleted
	iv.Feedback = &interview.Feedback{
		OverallScore: 85,
		Strengths:    []string{"depth", "clarity"},
		Weaknesses:   []string{"brevity"},
		Comments:     "Well done.",
	}
	if err := store.SaveInterview(iv); err != nil {
		t.Fatalf("SaveInterview failed: %v", err)
	}

	got, err := store.GetInterview("iv-1")
	if err != nil {
		t.Fatalf("GetInterview failed: %v", err)
	}
	if got.Status != interview.StatusCompleted {
		t.Fatalf("expected completed status, got %q", got.Status)
	}
	if got.Feedback == nil {
		t.Fatal("expected feedback after completion")
	}
	if got.Feedback.OverallScore != 85 || got.Feedback.Comments != "Well done." {
		t.Fatalf("unexpected feedback %#v", got.Feedback)
	}
	if len(got.Feedback.Strengths) != 2 || got.Feedback.Strengths[0] != "depth" {
		t.Fatalf("unexpected strengths %v", got.Feedback.Strengths)
	}
	if len(got.Feedback.Weaknesses) != 1 || got.Feedback.Weaknesses[0] != "brevity" {
		t.Fatalf("unexpected weaknesses %v", got.Feedback.Weaknesses)
	}
}

func TestSaveInterview_ZeroScoreFeedbackSurvives(t *testing.T) {
	store := newTestStore(t)
	seedResume(t, store)

	iv := testInterview()
	if err := store.CreateInterview(iv); err != nil {
		t.Fatalf("CreateInterview failed: %v", err)
	}

	iv.Status = interview.StatusCompleted
	iv.Feedback = &interview.Feedback{OverallScore: 0, Comments: "No answers given."}
	if err := store.SaveInterview(iv); err != nil {
		t.Fatalf("SaveInterview failed: %v", err)
	}

	got, err := store.GetInterview("iv-1")
	if err != nil {
		t.Fatalf("GetInterview failed: %v", err)
	}
	if got.Feedback == nil {
		t.Fatal("expected zero-score feedback to round-trip")
	}
	if got.Feedback.OverallScore != 0 || got.Feedback.Comments != "No answers given." {
		t.Fatalf("unexpected feedback %#v", got.Feedback)
	}
}

func TestSaveInterview_NotFound(t *testing.T) {
	store := newTestStore(t)

	iv := testInterview()
	err := store.SaveInterview(iv)
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestConcurrentSaves(t *testing.T) {
	store := newTestStore(t)
	seedResume(t, store)

	iv := testInterview()
	if err := store.CreateInterview(iv); err != nil {
		t.Fatalf("CreateInterview failed: %v", err)
	}

	var wg sync.WaitGroup
	for i := range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			clone := *iv
			clone.Questions = []interview.QuestionRecord{
				{ID: "q-1", Text: "What is a goroutine?", UserAnswer: "answer", Score: i},
			}
			if err := store.SaveInterview(&clone); err != nil {
				t.Errorf("SaveInterview failed: %v", err)
			}
		}()
	}
	wg.Wait()

	got, err := store.GetInterview("iv-1")
	if err != nil {
		t.Fatalf("GetInterview failed: %v", err)
	}
	if len(got.Questions) != 1 || got.Questions[0].UserAnswer != "answer" {
		t.Fatalf("unexpected questions after concurrent saves: %#v", got.Questions)
	}
}
