package session

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/arjunrb/interviewd/internal/interview"
)

const completedMessage = "Interview completed successfully!"

// Manager is the session state machine. It decides, for each inbound gateway
// event, what to persist, what to generate, and what to broadcast. Every
// read-modify-write sequence runs under a per-interview lock; the returned
// error is delivered only to the connection whose event triggered it.
type Manager struct {
	store Store
	gen   Generator
	hub   EventBroadcaster
	locks *keyedLock
}

func NewManager(store Store, gen Generator, hub EventBroadcaster) *Manager {
	return &Manager{
		store: store,
		gen:   gen,
		hub:   hub,
		locks: newKeyedLock(),
	}
}

// HandleJoin loads the interview and announces its first question to the
// room. Joining mutates nothing: a second viewer joining an in-progress
// interview sees the same announcement without disturbing the session. A
// completed interview replays its final state instead of restarting.
func (m *Manager) HandleJoin(ctx context.Context, interviewID string) error {
	iv, err := m.store.GetInterview(interviewID)
	if err != nil {
		return err
	}

	if iv.Completed() {
		m.hub.BroadcastInterviewCompleted(iv.ID, iv.Feedback, completedMessage)
		return nil
	}

	if len(iv.Questions) == 0 {
		return fmt.Errorf("interview %s: %w", interviewID, ErrNoQuestions)
	}

	m.hub.BroadcastInterviewStarted(iv.ID, iv.Questions[0])
	return nil
}

// HandleAnswer runs one full answer cycle: persist the answer, stream
// evaluation feedback to the room, persist the final feedback text, then
// either append the next question or conclude the interview.
func (m *Manager) HandleAnswer(ctx context.Context, interviewID, questionID, answer string) error {
	unlock := m.locks.Lock(interviewID)
	defer unlock()

	iv, err := m.store.GetInterview(interviewID)
	if err != nil {
		return err
	}
	if iv.Completed() {
		return fmt.Errorf("interview %s: %w", interviewID, ErrInterviewCompleted)
	}

	q := iv.Question(questionID)
	if q == nil {
		return fmt.Errorf("question %s: %w", questionID, ErrQuestionNotFound)
	}

	// The answer is persisted before any generation call so it survives a
	// generation failure.
	q.UserAnswer = answer
	if err := m.store.SaveInterview(&iv); err != nil {
		return err
	}

	m.hub.BroadcastAnswerReceived(interviewID, questionID, answer)

	buf := NewFeedbackBuffer()
	err = m.gen.StreamAnswerFeedback(ctx, iv.JobTitle, q.Text, answer, func(chunk string) error {
		m.hub.BroadcastLiveFeedback(interviewID, buf.Append(chunk))
		return nil
	})
	if err != nil {
		return err
	}

	q.AIFeedback = buf.String()
	if err := m.store.SaveInterview(&iv); err != nil {
		return err
	}

	return m.advance(ctx, interviewID)
}

// advance reloads the interview and asks the generator for the next
// question. An empty result concludes the interview.
func (m *Manager) advance(ctx context.Context, interviewID string) error {
	iv, err := m.store.GetInterview(interviewID)
	if err != nil {
		return err
	}

	next, err := m.gen.NextQuestion(ctx, iv.JobTitle, iv.Questions)
	if err != nil {
		return err
	}

	if next == "" {
		iv.Status = interview.StatusCompleted
		if err := m.store.SaveInterview(&iv); err != nil {
			return err
		}
		m.hub.BroadcastInterviewCompleted(interviewID, nil, completedMessage)
		return nil
	}

	record := interview.QuestionRecord{ID: uuid.NewString(), Text: next}
	iv.Questions = append(iv.Questions, record)
	if err := m.store.SaveInterview(&iv); err != nil {
		return err
	}

	m.hub.BroadcastNextQuestion(interviewID, record.Text, record.ID)
	return nil
}

// HandleEnd concludes the interview on request, independent of the
// per-question loop: it scores the whole transcript against the resume and
// writes the final feedback. The per-interview lock plus the completed-status
// check make the first conclusion win; a concurrent duplicate re-announces
// the stored result without a second summary call.
func (m *Manager) HandleEnd(ctx context.Context, interviewID string) error {
	unlock := m.locks.Lock(interviewID)
	defer unlock()

	iv, err := m.store.GetInterview(interviewID)
	if err != nil {
		return err
	}

	if iv.Completed() {
		log.Printf("end interview %s: already completed", interviewID)
		m.hub.BroadcastInterviewCompleted(iv.ID, iv.Feedback, completedMessage)
		return nil
	}

	resumeText, err := m.store.GetResumeText(iv.ResumeID)
	if err != nil {
		return err
	}

	fb, err := m.gen.FinalSummary(ctx, iv.Questions, resumeText)
	if err != nil {
		return err
	}

	iv.Feedback = &fb
	iv.Status = interview.StatusCompleted
	if err := m.store.SaveInterview(&iv); err != nil {
		return err
	}

	m.hub.BroadcastInterviewCompleted(interviewID, &fb, "")
	return nil
}
