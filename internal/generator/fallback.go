package generator

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/quizforge/backend/internal/models"
)

type template struct {
	question      string // %s is the topic
	options       [4]string
	correctAnswer string
	explanation   string
}

var templates = [...]template{
	{
		question:      "What is a key feature of %s?",
		options:       [4]string{"Automatic memory management", "Strong typing", "Dynamic routing", "Concurrent processing"},
		correctAnswer: "Dynamic routing",
		explanation:   "This is a common feature of many frameworks and systems.",
	},
	{
		question:      "Which tool is commonly used with %s?",
		options:       [4]string{"Git", "Docker", "Webpack", "Postman"},
		correctAnswer: "Docker",
		explanation:   "Docker is widely used for containerization in various development environments.",
	},
	{
		question:      "What design pattern is most associated with %s?",
		options:       [4]string{"Singleton", "Factory", "MVC", "Observer"},
		correctAnswer: "MVC",
		explanation:   "MVC (Model-View-Controller) is a commonly used design pattern in many frameworks.",
	},
	{
		question:      "When was %s first introduced?",
		options:       [4]string{"2000-2005", "2005-2010", "2010-2015", "2015-2020"},
		correctAnswer: "2010-2015",
		explanation:   "Many modern frameworks and tools were introduced during this period.",
	},
	{
		question:      "Which company is primarily responsible for developing %s?",
		options:       [4]string{"Google", "Microsoft", "Facebook", "Amazon"},
		correctAnswer: "Google",
		explanation:   "Google has contributed to many popular frameworks and technologies.",
	},
}

// fallbackQuestions returns exactly count template questions about topic. Templates are
// reused cyclically past the first round with an "Advanced: " prefix.
func fallbackQuestions(topic string, count int) []models.Question {
	out := make([]models.Question, 0, count)
	for i := 0; i < count; i++ {
		t := templates[i%len(templates)]
		q := models.Question{
			ID:            uuid.New(),
			Question:      fmt.Sprintf(t.question, topic),
			Options:       append([]string(nil), t.options[:]...),
			CorrectAnswer: t.correctAnswer,
			Explanation:   t.explanation,
		}
		if i >= len(templates) {
			q.Question = "Advanced: " + q.Question
			q.Explanation = "Advanced version of the explanation: " + q.Explanation
		}
		out = append(out, q)
	}
	return out
}
