package results

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quizforge/backend/internal/apperr"
	"github.com/quizforge/backend/internal/middleware"
	"github.com/quizforge/backend/internal/models"
)

type memStore struct {
	mu      sync.Mutex
	results []models.QuizResult
	clock   time.Time
	err     error
}

func (m *memStore) Create(_ context.Context, r *models.QuizResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.clock = m.clock.Add(time.Minute)
	r.ID = uuid.New()
	r.CreatedAt = m.clock
	cp := *r
	cp.Quiz = nil
	m.results = append(m.results, cp)
	return nil
}

func (m *memStore) GetByID(_ context.Context, id, userID uuid.UUID) (*models.QuizResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.results {
		if r.ID == id && r.UserID == userID {
			return &r, nil
		}
	}
	return nil, nil
}

func (m *memStore) ListByUser(_ context.Context, userID uuid.UUID) ([]models.QuizResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.QuizResult{}
	for _, r := range m.results {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

type quizMap map[uuid.UUID]*models.Quiz

func (q quizMap) GetByID(_ context.Context, id uuid.UUID) (*models.Quiz, error) {
	return q[id], nil
}

type countingInvalidator struct{ n int }

func (c *countingInvalidator) Invalidate(context.Context, uuid.UUID) { c.n++ }

func newQuiz() *models.Quiz {
	return &models.Quiz{
		ID:       uuid.New(),
		Title:    "Capitals",
		Topic:    "Geography",
		Settings: models.QuizSettings{NumQuestions: 2, TimeLimit: 5},
		Questions: []models.Question{
			{ID: uuid.New(), Question: "Capital of France?", Options: []string{"Paris", "Rome", "Oslo", "Bern"}, CorrectAnswer: "Paris"},
			{ID: uuid.New(), Question: "Capital of Italy?", Options: []string{"Paris", "Rome", "Oslo", "Bern"}, CorrectAnswer: "Rome"},
		},
	}
}

func TestSubmitScoresFlaggedAnswers(t *testing.T) {
	quiz := newQuiz()
	store := &memStore{}
	inv := &countingInvalidator{}
	svc := NewService(store, quizMap{quiz.ID: quiz}, Options{Analytics: inv}, zap.NewNop())

	res, err := svc.Submit(context.Background(), uuid.New(), SubmitInput{
		QuizID: quiz.ID,
		Answers: []models.Answer{
			{Question: "Capital of France?", UserAnswer: "Paris", CorrectAnswer: "Paris", IsCorrect: true},
			{Question: "Capital of Italy?", UserAnswer: "Oslo", CorrectAnswer: "Rome", IsCorrect: false},
		},
		TimeTaken: 42,
	})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Score != 1 || res.TotalQuestions != 2 || len(res.Answers) != res.TotalQuestions {
		t.Fatalf("result = %+v", res)
	}
	if res.Quiz == nil || res.Quiz.ID != quiz.ID {
		t.Fatal("quiz not joined")
	}
	if inv.n != 1 {
		t.Fatalf("invalidations = %d", inv.n)
	}
}

func TestSubmitTrustsClientFlagsByDefault(t *testing.T) {
	quiz := newQuiz()
	svc := NewService(&memStore{}, quizMap{quiz.ID: quiz}, Options{}, nil)
	answers := []models.Answer{{Question: "Capital of France?", UserAnswer: "Rome", CorrectAnswer: "Paris", IsCorrect: true}}

	res, err := svc.Submit(context.Background(), uuid.New(), SubmitInput{QuizID: quiz.ID, Answers: answers})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Score != 1 {
		t.Fatalf("score = %d, want client flag honoured", res.Score)
	}
}

func TestSubmitVerifiesCorrectnessWhenEnabled(t *testing.T) {
	quiz := newQuiz()
	svc := NewService(&memStore{}, quizMap{quiz.ID: quiz}, Options{VerifyCorrectness: true}, nil)
	answers := []models.Answer{
		{Question: "Capital of France?", UserAnswer: "Rome", CorrectAnswer: "Rome", IsCorrect: true},
		{Question: "Capital of Italy?", UserAnswer: "Rome", CorrectAnswer: "", IsCorrect: false},
		{Question: "Unknown question?", UserAnswer: "x", CorrectAnswer: "x", IsCorrect: true},
	}

	res, err := svc.Submit(context.Background(), uuid.New(), SubmitInput{QuizID: quiz.ID, Answers: answers})
	if err != nil {
		t.Fatalf("Submit: %v", err)
	}
	if res.Score != 1 || res.Answers[0].CorrectAnswer != "Paris" || !res.Answers[1].IsCorrect || res.Answers[2].IsCorrect {
		t.Fatalf("result = %+v", res)
	}
	if !answers[0].IsCorrect {
		t.Fatal("caller's slice was modified")
	}
}

func TestSubmitValidation(t *testing.T) {
	quiz := newQuiz()
	svc := NewService(&memStore{}, quizMap{quiz.ID: quiz}, Options{}, nil)
	tests := []struct {
		name string
		in   SubmitInput
	}{
		{"missing answers", SubmitInput{QuizID: quiz.ID}},
		{"missing quiz id", SubmitInput{Answers: []models.Answer{}}},
		{"unknown quiz", SubmitInput{QuizID: uuid.New(), Answers: []models.Answer{}}},
		{"negative time", SubmitInput{QuizID: quiz.ID, Answers: []models.Answer{}, TimeTaken: -1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Submit(context.Background(), uuid.New(), tt.in); !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("err = %v, want validation", err)
			}
		})
	}
}

func TestSubmitStoreFailureIsInternal(t *testing.T) {
	quiz := newQuiz()
	svc := NewService(&memStore{err: errors.New("disk full")}, quizMap{quiz.ID: quiz}, Options{}, nil)
	_, err := svc.Submit(context.Background(), uuid.New(), SubmitInput{QuizID: quiz.ID, Answers: []models.Answer{}})
	if apperr.KindOf(err) != apperr.KindInternal {
		t.Fatalf("err = %v", err)
	}
}

func TestResultsAreScopedToUser(t *testing.T) {
	quiz := newQuiz()
	quizzes := quizMap{quiz.ID: quiz}
	svc := NewService(&memStore{}, quizzes, Options{}, nil)
	alice, bob := uuid.New(), uuid.New()

	first, _ := svc.Submit(context.Background(), alice, SubmitInput{QuizID: quiz.ID, Answers: []models.Answer{}})
	second, _ := svc.Submit(context.Background(), alice, SubmitInput{QuizID: quiz.ID, Answers: []models.Answer{}})

	if _, err := svc.GetByID(context.Background(), first.ID, bob); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign get err = %v", err)
	}
	got, err := svc.GetByID(context.Background(), first.ID, alice)
	if err != nil || got.Quiz == nil {
		t.Fatalf("own get = %+v, %v", got, err)
	}

	delete(quizzes, quiz.ID)
	list, err := svc.ListForUser(context.Background(), alice)
	if err != nil {
		t.Fatalf("ListForUser: %v", err)
	}
	if len(list) != 2 || list[0].ID != second.ID || list[0].Quiz != nil {
		t.Fatalf("list = %+v", list)
	}
	if others, _ := svc.ListForUser(context.Background(), bob); len(others) != 0 {
		t.Fatalf("bob sees %d results", len(others))
	}
}

func TestHandlerSubmit(t *testing.T) {
	gin.SetMode(gin.TestMode)
	quiz := newQuiz()
	h := NewHandler(NewService(&memStore{}, quizMap{quiz.ID: quiz}, Options{}, nil), zap.NewNop())
	r := gin.New()
	r.Use(func(c *gin.Context) { c.Set(middleware.ContextUserID, uuid.New()); c.Next() })
	r.POST("/api/quiz-results", h.Submit)

	post := func(body string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/quiz-results", bytes.NewBufferString(body)))
		return w
	}

	if w := post(`{"quiz_id":"` + quiz.ID.String() + `","time_taken":10}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing answers status = %d", w.Code)
	}
	if w := post(`{"quiz_id":"` + quiz.ID.String() + `","answers":{"a":1}}`); w.Code != http.StatusBadRequest {
		t.Fatalf("object answers status = %d", w.Code)
	}

	w := post(`{"quiz_id":"` + quiz.ID.String() + `","time_taken":10,"answers":[{"question":"Capital of France?","user_answer":"Paris","correct_answer":"Paris","is_correct":true}]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body)
	}
	var body struct {
		Data models.QuizResult `json:"data"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &body)
	if body.Data.Score != 1 || body.Data.TotalQuestions != 1 {
		t.Fatalf("result = %+v", body.Data)
	}
}
