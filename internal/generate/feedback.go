package generate

import (
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/arjunrb/interviewd/internal/interview"
)

// parseFeedback pulls the feedback object out of a raw model response.
// Models wrap JSON in prose or markdown fences often enough that the object
// is located by its braces rather than unmarshalled directly.
func parseFeedback(raw string) (interview.Feedback, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return interview.Feedback{}, fmt.Errorf("no JSON object in response")
	}

	doc := raw[start : end+1]
	if !gjson.Valid(doc) {
		return interview.Feedback{}, fmt.Errorf("malformed JSON in response")
	}

	score := gjson.Get(doc, "overallScore")
	if !score.Exists() {
		return interview.Feedback{}, fmt.Errorf("missing overallScore in response")
	}

	fb := interview.Feedback{
		OverallScore: clampScore(int(score.Int())),
		Comments:     gjson.Get(doc, "comments").String(),
	}
	for _, s := range gjson.Get(doc, "strengths").Array() {
		fb.Strengths = append(fb.Strengths, s.String())
	}
	for _, w := range gjson.Get(doc, "weaknesses").Array() {
		fb.Weaknesses = append(fb.Weaknesses, w.String())
	}

	return fb, nil
}

func clampScore(score int) int {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}
