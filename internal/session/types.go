package session

import (
	"context"

	"github.com/arjunrb/interviewd/internal/interview"
)

type Store interface {
	GetInterview(id string) (interview.Interview, error)
	SaveInterview(iv *interview.Interview) error
	GetResumeText(resumeID string) (string, error)
}

type Generator interface {
	NextQuestion(ctx context.Context, jobTitle string, questions []interview.QuestionRecord) (string, error)
	StreamAnswerFeedback(ctx context.Context, jobTitle, question, answer string, onChunk func(chunk string) error) error
	FinalSummary(ctx context.Context, questions []interview.QuestionRecord, resumeText string) (interview.Feedback, error)
}

type EventBroadcaster interface {
	BroadcastInterviewStarted(interviewID string, question interview.QuestionRecord)
	BroadcastAnswerReceived(interviewID, questionID, answer string)
	BroadcastLiveFeedback(interviewID, message string)
	BroadcastNextQuestion(interviewID, question, questionID string)
	BroadcastInterviewCompleted(interviewID string, feedback *interview.Feedback, message string)
}
