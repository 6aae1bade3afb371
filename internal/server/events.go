package server

import (
	"encoding/json"

	"github.com/arjunrb/interviewd/internal/interview"
)

// Inbound event names (client to server).
const (
	EventJoinInterview = "joinInterview"
	EventSendAnswer    = "sendAnswer"
	EventEndInterview  = "endInterview"
)

// Outbound event names (server to client). These are wire contract: clients
// match on them literally.
const (
	EventInterviewStarted   = "realTimeInterviewStarted"
	EventReceiveAnswer      = "receiveAnswer"
	EventLiveFeedback       = "liveFeedback"
	EventNextQuestion       = "nextQuestion"
	EventInterviewCompleted = "interviewCompleted"
	EventError              = "error"
)

// Envelope frames every websocket message in both directions.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type JoinInterviewPayload struct {
	InterviewID string `json:"interviewId"`
	UserID      string `json:"userId"`
}

type SendAnswerPayload struct {
	InterviewID string `json:"interviewId"`
	QuestionID  string `json:"questionId"`
	Answer      string `json:"answer"`
}

type EndInterviewPayload struct {
	InterviewID string `json:"interviewId"`
}

type InterviewStartedPayload struct {
	Question interview.QuestionRecord `json:"question"`
}

type ReceiveAnswerPayload struct {
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

// LiveFeedbackPayload carries the entire accumulated feedback text so far,
// not a delta: a late joiner's last received message is always a complete
// prefix.
type LiveFeedbackPayload struct {
	Message string `json:"message"`
}

type NextQuestionPayload struct {
	Question string `json:"question"`
	ID       string `json:"id"`
}

// InterviewCompletedPayload carries the final feedback when the interview
// was concluded by summary, or just a message when the question loop ran out.
type InterviewCompletedPayload struct {
	*interview.Feedback
	Message string `json:"message,omitempty"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}

func marshalEvent(event string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Event: event, Data: data})
}
