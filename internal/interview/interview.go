package interview

import (
	"fmt"
	"strings"
	"time"
)

const (
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

const (
	SessionMock     = "mock"
	SessionRealTime = "real-time"
)

// QuestionRecord is one entry in an interview's ordered question list.
// The record id is the only valid key for submitting an answer to it.
type QuestionRecord struct {
	ID         string `json:"id"`
	Text       string `json:"question"`
	UserAnswer string `json:"userAnswer,omitempty"`
	AIFeedback string `json:"aiFeedback,omitempty"`
	Score      int    `json:"score,omitempty"`
}

// Feedback is the final assessment written exactly once, at completion.
type Feedback struct {
	OverallScore int      `json:"overallScore"`
	Strengths    []string `json:"strengths"`
	Weaknesses   []string `json:"weaknesses"`
	Comments     string   `json:"comments"`
}

// Interview is the aggregate the session orchestrator operates on. Questions
// is append-only except the most recently appended record, whose answer,
// feedback, and score are filled in as the session progresses. Status is
// monotonic: once completed it never reverts.
type Interview struct {
	ID          string           `json:"id"`
	UserID      string           `json:"userId"`
	ResumeID    string           `json:"resumeId"`
	JobTitle    string           `json:"jobTitle"`
	Questions   []QuestionRecord `json:"questions"`
	Status      string           `json:"status"`
	SessionType string           `json:"sessionType"`
	Feedback    *Feedback        `json:"interviewFeedback,omitempty"`
	CreatedAt   time.Time        `json:"createdAt"`
	UpdatedAt   time.Time        `json:"updatedAt"`
}

// Question returns the record with the given id, or nil if no such record
// exists in this interview.
func (iv *Interview) Question(id string) *QuestionRecord {
	for i := range iv.Questions {
		if iv.Questions[i].ID == id {
			return &iv.Questions[i]
		}
	}
	return nil
}

// Completed reports whether the interview has reached its terminal status.
func (iv *Interview) Completed() bool {
	return iv.Status == StatusCompleted
}

// Transcript renders the question/answer history as numbered Q/A pairs for
// generation prompts. Unanswered questions are marked explicitly so the model
// does not invent answers.
func Transcript(questions []QuestionRecord) string {
	var b strings.Builder
	for i, q := range questions {
		answer := q.UserAnswer
		if strings.TrimSpace(answer) == "" {
			answer = "No answer yet"
		}
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n", i+1, q.Text, i+1, answer)
	}
	return b.String()
}
