package generator

import (
	"encoding/json"
	"regexp"
	"strings"
)

// rawQuestion is the shape the completion is asked to produce.
type rawQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// strategy extracts candidate JSON from a completion. The first candidate that decodes to a
// well-formed question array wins.
type strategy struct {
	name    string
	extract func(content string) []string
}

var (
	fencedBlock   = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
	reasoningSpan = regexp.MustCompile(`(?s)<think>.*?</think>`)
)

var strategies = []strategy{
	{name: "direct", extract: func(content string) []string {
		return []string{strings.TrimSpace(content)}
	}},
	{name: "bracket", extract: func(content string) []string {
		if s, ok := outermostArray(content); ok {
			return []string{s}
		}
		return nil
	}},
	{name: "fenced", extract: func(content string) []string {
		var out []string
		for _, m := range fencedBlock.FindAllStringSubmatch(content, -1) {
			out = append(out, strings.TrimSpace(m[1]))
		}
		return out
	}},
	{name: "without_reasoning", extract: func(content string) []string {
		stripped := reasoningSpan.ReplaceAllString(content, "")
		if stripped == content {
			return nil
		}
		if s, ok := outermostArray(stripped); ok {
			return []string{s}
		}
		return nil
	}},
}

// outermostArray returns the substring from the first '[' to the last ']'.
func outermostArray(content string) (string, bool) {
	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")
	if start < 0 || end <= start {
		return "", false
	}
	return content[start : end+1], true
}

// parseQuestions runs the strategies in order. It reports the winning strategy name.
func parseQuestions(content string) ([]rawQuestion, string, bool) {
	for _, s := range strategies {
		for _, candidate := range s.extract(content) {
			if qs, ok := decodeQuestions(candidate); ok {
				return qs, s.name, true
			}
		}
	}
	return nil, "", false
}

// decodeQuestions accepts only a non-empty array whose every element has question text,
// at least one option and a correct answer.
func decodeQuestions(candidate string) ([]rawQuestion, bool) {
	var qs []rawQuestion
	if err := json.Unmarshal([]byte(candidate), &qs); err != nil || len(qs) == 0 {
		return nil, false
	}
	for _, q := range qs {
		if strings.TrimSpace(q.Question) == "" || len(q.Options) == 0 || strings.TrimSpace(q.CorrectAnswer) == "" {
			return nil, false
		}
	}
	return qs, true
}
