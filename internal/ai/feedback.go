package ai

import (
	"encoding/json"
	"strings"
)

// Feedback is the structured evaluation stored alongside a response. The
// schema is advisory: the producer is an external model, so every field
// tolerates absence.
type Feedback struct {
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Feedback     string   `json:"feedback"`
}

// Analysis is one scored answer. Score is always within [0, 100].
type Analysis struct {
	Score    int32    `json:"score"`
	Feedback Feedback `json:"-"`
}

// EmptyFeedback is the degraded result for malformed payloads.
func EmptyFeedback() Feedback {
	return Feedback{Strengths: []string{}, Improvements: []string{}, Feedback: ""}
}

type rawAnalysis struct {
	Score        *float64 `json:"score"`
	Strengths    []string `json:"strengths"`
	Improvements []string `json:"improvements"`
	Feedback     string   `json:"feedback"`
}

// ParseAnalysis validates the model's JSON payload. The second return value
// reports whether the payload parsed cleanly; when it did not, the analysis
// degrades to score 0 and empty feedback instead of failing the submission.
func ParseAnalysis(payload string) (Analysis, bool) {
	cleaned := stripCodeFences(payload)

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return Analysis{Score: 0, Feedback: EmptyFeedback()}, false
	}

	analysis := Analysis{
		Score: clampScore(raw.Score),
		Feedback: Feedback{
			Strengths:    raw.Strengths,
			Improvements: raw.Improvements,
			Feedback:     raw.Feedback,
		},
	}
	if analysis.Feedback.Strengths == nil {
		analysis.Feedback.Strengths = []string{}
	}
	if analysis.Feedback.Improvements == nil {
		analysis.Feedback.Improvements = []string{}
	}
	return analysis, true
}

// ParseFeedback decodes a stored ai_feedback column. Malformed rows degrade
// to the empty structure so a bad payload never breaks the results view.
func ParseFeedback(stored string) Feedback {
	cleaned := stripCodeFences(stored)

	var raw rawAnalysis
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		return EmptyFeedback()
	}

	fb := Feedback{
		Strengths:    raw.Strengths,
		Improvements: raw.Improvements,
		Feedback:     raw.Feedback,
	}
	if fb.Strengths == nil {
		fb.Strengths = []string{}
	}
	if fb.Improvements == nil {
		fb.Improvements = []string{}
	}
	return fb
}

// MarshalStored serializes an analysis the way the responses table stores
// it: one JSON object with score and feedback fields.
func (a Analysis) MarshalStored() string {
	stored := struct {
		Score        int32    `json:"score"`
		Strengths    []string `json:"strengths"`
		Improvements []string `json:"improvements"`
		Feedback     string   `json:"feedback"`
	}{
		Score:        a.Score,
		Strengths:    a.Feedback.Strengths,
		Improvements: a.Feedback.Improvements,
		Feedback:     a.Feedback.Feedback,
	}
	data, err := json.Marshal(stored)
	if err != nil {
		return "{}"
	}
	return string(data)
}

// The model sometimes wraps its JSON in markdown fences.
func stripCodeFences(s string) string {
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	return strings.TrimSpace(s)
}

// The scorer is an external, not fully trusted service: out-of-range or
// missing scores become 0 rather than an error.
func clampScore(score *float64) int32 {
	if score == nil {
		return 0
	}
	v := int32(*score)
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
