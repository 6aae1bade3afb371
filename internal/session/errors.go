package session

import "errors"

// ErrQuestionNotFound is returned when an answer targets a question id that
// does not exist in the interview.
var ErrQuestionNotFound = errors.New("question not found")

// ErrInterviewCompleted is returned when an answer arrives after the
// interview has reached its terminal status.
var ErrInterviewCompleted = errors.New("interview already completed")

// ErrNoQuestions is returned when an interview record has an empty question
// list. A started session always carries at least the seeded first question,
// so this indicates a record created outside the normal lifecycle.
var ErrNoQuestions = errors.New("interview has no questions")
