package generator

import (
	"fmt"
	"strings"
)

const outputContract = `IMPORTANT: Your output must ONLY contain a valid JSON array with question objects in this exact format:
[
  {
    "question": "Question text here?",
    "options": ["option1", "option2", "option3", "option4"],
    "correctAnswer": "option1",
    "explanation": "Brief explanation of why option1 is correct"
  }
]

Every question has exactly four distinct options and correctAnswer is copied verbatim from options.
Do not include any introductory text, explanations, or comments - ONLY output the JSON array.`

func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a quiz generator. Generate a %s difficulty quiz about %s with %d multiple choice questions",
		req.Difficulty, req.Topic, req.Count)
	if req.SourceText != "" {
		b.WriteString(" based on the provided content.\n\nHere's the content to base the quiz on:\n")
		b.WriteString(req.SourceText)
		b.WriteString("\n\n")
	} else {
		b.WriteString(".\n\n")
	}
	b.WriteString(outputContract)
	return b.String()
}
