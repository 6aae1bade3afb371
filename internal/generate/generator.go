package generate

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arjunrb/interviewd/internal/interview"
	"github.com/arjunrb/interviewd/internal/llm"
)

// doneSentinel is what the model is instructed to output when it has no
// further questions to ask. It is mapped to the empty string, which callers
// treat as the end-of-interview signal.
const doneSentinel = "DONE"

const fallbackFirstQuestion = "Tell me about yourself."

type ClientFactory func(provider, model string) (llm.Client, error)

// Generator produces interview questions, streamed answer feedback, and the
// final summary by prompting an LLM provider.
type Generator struct {
	model        string
	maxQuestions int
	factory      ClientFactory
}

func New(model string, maxQuestions int, factory ClientFactory) *Generator {
	return &Generator{model: model, maxQuestions: maxQuestions, factory: factory}
}

func (g *Generator) client() (llm.Client, error) {
	provider, model, err := llm.ParseModel(g.model)
	if err != nil {
		return nil, err
	}

	client, err := g.factory(provider, model)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	return client, nil
}

// FirstQuestion seeds a new real-time interview. Generation failures fall
// back to a generic opener so interview creation never fails on the model.
func (g *Generator) FirstQuestion(ctx context.Context, jobTitle, resumeText string) string {
	client, err := g.client()
	if err != nil {
		slog.Warn("first question: falling back to generic opener", "error", err)
		return fallbackFirstQuestion
	}

	prompt := fmt.Sprintf(`I am conducting a real-time interview for a job position of %q.
The candidate has uploaded their resume with the following details:

%s

Based on this, generate a highly relevant first interview question.
The question should be technical and role-specific.
Output only the question.`, jobTitle, resumeText)

	result, err := client.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		slog.Warn("first question: falling back to generic opener", "error", err)
		return fallbackFirstQuestion
	}

	return strings.TrimSpace(result)
}

// NextQuestion returns the next question for the transcript so far, or the
// empty string once the interview should conclude. The configured question
// cap is enforced without a model call.
func (g *Generator) NextQuestion(ctx context.Context, jobTitle string, questions []interview.QuestionRecord) (string, error) {
	if g.maxQuestions > 0 && len(questions) >= g.maxQuestions {
		return "", nil
	}

	client, err := g.client()
	if err != nil {
		return "", err
	}

	prompt := fmt.Sprintf(`You are an interviewer for a %s role.

**Previous Q&A:**
%s

Based on the job role and the past conversation, generate a relevant next interview question that:
- Is technical or behavioral based on past answers
- Matches the job requirements
- Feels like a natural next step in the interview

ONLY output the next question. Do NOT include explanations.
If the conversation already covers enough ground to assess the candidate, output exactly %s instead.`,
		jobTitle, interview.Transcript(questions), doneSentinel)

	result, err := client.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return "", fmt.Errorf("next question: %w", err)
	}

	next := strings.TrimSpace(result)
	if strings.EqualFold(strings.Trim(next, `."'`), doneSentinel) {
		return "", nil
	}
	return next, nil
}

// StreamAnswerFeedback streams evaluation fragments for a single answer, in
// order, to onChunk. The sequence is finite and not restartable.
func (g *Generator) StreamAnswerFeedback(ctx context.Context, jobTitle, question, answer string, onChunk func(chunk string) error) error {
	client, err := g.client()
	if err != nil {
		return err
	}

	system := fmt.Sprintf("You are an interviewer for a %s role. Give brief, specific, constructive feedback on the candidate's answer. Two or three sentences, spoken directly to the candidate.", jobTitle)
	user := fmt.Sprintf("Question: %s\n\nCandidate's answer: %s", question, answer)

	err = client.Stream(ctx, []llm.Message{
		{Role: "system", Content: system},
		{Role: "user", Content: user},
	}, llm.ChunkFunc(onChunk))
	if err != nil {
		return fmt.Errorf("answer feedback: %w", err)
	}
	return nil
}

// FinalSummary scores the whole transcript against the resume. The model is
// asked for JSON; the fields are extracted from wherever the object sits in
// the raw response and the score is clamped to [0, 100].
func (g *Generator) FinalSummary(ctx context.Context, questions []interview.QuestionRecord, resumeText string) (interview.Feedback, error) {
	client, err := g.client()
	if err != nil {
		return interview.Feedback{}, err
	}

	prompt := fmt.Sprintf(`Analyze the following interview responses based on the resume provided here: %s
Provide an objective assessment including an overall score (out of 100), strengths, weaknesses, and additional comments.

Questions and answers:
%s

Format the response strictly as JSON like this:
{
  "overallScore": <number>,
  "strengths": [<string>],
  "weaknesses": [<string>],
  "comments": "<string>"
}`, resumeText, interview.Transcript(questions))

	raw, err := client.Complete(ctx, []llm.Message{{Role: "user", Content: prompt}})
	if err != nil {
		return interview.Feedback{}, fmt.Errorf("final summary: %w", err)
	}

	fb, err := parseFeedback(raw)
	if err != nil {
		return interview.Feedback{}, fmt.Errorf("final summary: %w", err)
	}
	return fb, nil
}
