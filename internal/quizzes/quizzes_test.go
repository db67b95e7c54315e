package quizzes

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"io/fs"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quizforge/backend/internal/apperr"
	"github.com/quizforge/backend/internal/extractor"
	"github.com/quizforge/backend/internal/generator"
	"github.com/quizforge/backend/internal/middleware"
	"github.com/quizforge/backend/internal/models"
	"github.com/quizforge/backend/pkg/queue"
	"github.com/quizforge/backend/pkg/storage"
)

type memStore struct {
	mu      sync.Mutex
	quizzes map[uuid.UUID]models.Quiz
	clock   time.Time
}

func newMemStore() *memStore {
	return &memStore{quizzes: map[uuid.UUID]models.Quiz{}, clock: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (m *memStore) tick() time.Time {
	m.clock = m.clock.Add(time.Second)
	return m.clock
}

func (m *memStore) Create(_ context.Context, q *models.Quiz) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	q.ID = uuid.New()
	q.CreatedAt = m.tick()
	q.UpdatedAt = q.CreatedAt
	m.quizzes[q.ID] = *q
	return nil
}

func (m *memStore) GetByID(_ context.Context, id uuid.UUID) (*models.Quiz, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quizzes[id]
	if !ok {
		return nil, nil
	}
	q.Questions = append([]models.Question(nil), q.Questions...)
	return &q, nil
}

func (m *memStore) List(ctx context.Context) ([]models.Quiz, error) {
	return m.filter(func(models.Quiz) bool { return true }), nil
}

func (m *memStore) ListByUser(_ context.Context, userID uuid.UUID) ([]models.Quiz, error) {
	return m.filter(func(q models.Quiz) bool { return q.CreatedBy == userID }), nil
}

func (m *memStore) filter(keep func(models.Quiz) bool) []models.Quiz {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.Quiz{}
	for _, q := range m.quizzes {
		if keep(q) {
			out = append(out, q)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (m *memStore) Update(_ context.Context, q *models.Quiz) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.quizzes[q.ID]
	if !ok || cur.CreatedBy != q.CreatedBy {
		return false, nil
	}
	q.UpdatedAt = m.tick()
	m.quizzes[q.ID] = *q
	return true, nil
}

func (m *memStore) Delete(_ context.Context, id, ownerID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	q, ok := m.quizzes[id]
	if !ok || q.CreatedBy != ownerID {
		return false, nil
	}
	delete(m.quizzes, id)
	return true, nil
}

type stubGenerator struct {
	requests []generator.Request
	result   func(req generator.Request) generator.Result
}

func (g *stubGenerator) Generate(_ context.Context, req generator.Request) generator.Result {
	g.requests = append(g.requests, req)
	if g.result != nil {
		return g.result(req)
	}
	return generator.Result{Questions: sampleQuestions(req.Count)}
}

type garbageCompleter struct{}

func (garbageCompleter) Complete(context.Context, string) (string, error) {
	return "I cannot produce JSON today.", nil
}

type recordingInvalidator struct{ users []uuid.UUID }

func (r *recordingInvalidator) Invalidate(_ context.Context, userID uuid.UUID) {
	r.users = append(r.users, userID)
}

type recordingCleanup struct{ jobs []queue.ArtifactCleanupPayload }

func (r *recordingCleanup) EnqueueArtifactCleanup(_ context.Context, p queue.ArtifactCleanupPayload) error {
	r.jobs = append(r.jobs, p)
	return nil
}

// stuckArtifacts stores like Disk but cannot delete.
type stuckArtifacts struct{ *storage.Disk }

func (stuckArtifacts) Delete(context.Context, string) error { return errors.New("bucket unavailable") }

func sampleQuestions(n int) []models.Question {
	qs := make([]models.Question, n)
	for i := range qs {
		qs[i] = models.Question{
			Question:      "Question " + string(rune('A'+i%26)),
			Options:       []string{"a", "b", "c", "d"},
			CorrectAnswer: "b",
		}
	}
	return qs
}

type fixture struct {
	svc       *Service
	store     *memStore
	gen       *stubGenerator
	analytics *recordingInvalidator
	cleanup   *recordingCleanup
	root      string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	root := t.TempDir()
	disk, err := storage.NewDisk(root)
	if err != nil {
		t.Fatalf("NewDisk: %v", err)
	}
	f := &fixture{
		store:     newMemStore(),
		gen:       &stubGenerator{},
		analytics: &recordingInvalidator{},
		cleanup:   &recordingCleanup{},
		root:      root,
	}
	f.svc = NewService(Deps{
		Store:          f.store,
		Generator:      f.gen,
		Extractor:      extractor.New(1 << 20),
		Artifacts:      disk,
		Cleanup:        f.cleanup,
		Analytics:      f.analytics,
		MaxUploadBytes: 1 << 20,
	})
	return f
}

func validInput() CreateInput {
	return CreateInput{
		Title:     "Go basics",
		Topic:     "Go",
		Settings:  models.QuizSettings{NumQuestions: 2, TimeLimit: 10},
		Questions: sampleQuestions(2),
	}
}

func TestCreateWithQuestions(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	in := validInput()
	in.Title = "  Go basics  "

	q, warning, err := f.svc.Create(context.Background(), user, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if warning != "" {
		t.Fatalf("warning = %q", warning)
	}
	if q.ID == uuid.Nil || q.CreatedBy != user || q.Title != "Go basics" {
		t.Fatalf("quiz = %+v", q)
	}
	for _, qq := range q.Questions {
		if qq.ID == uuid.Nil {
			t.Fatal("question id not assigned")
		}
	}
	if len(f.gen.requests) != 0 {
		t.Fatal("generator called although questions were supplied")
	}
	if len(f.analytics.users) != 1 || f.analytics.users[0] != user {
		t.Fatalf("invalidated = %v", f.analytics.users)
	}
}

func TestCreateValidation(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(in *CreateInput)
		msg    string
	}{
		{"blank title", func(in *CreateInput) { in.Title = "   " }, "title is required"},
		{"blank topic", func(in *CreateInput) { in.Topic = "" }, "topic is required"},
		{"too many questions", func(in *CreateInput) { in.Settings.NumQuestions = 51 }, "num_questions must be between 1 and 50"},
		{"zero time limit", func(in *CreateInput) { in.Settings.TimeLimit = 0 }, "time_limit must be between 1 and 120 minutes"},
		{"empty question list", func(in *CreateInput) { in.Questions = []models.Question{} }, "quiz must have at least one question"},
		{"three options", func(in *CreateInput) { in.Questions[1].Options = []string{"a", "b", "c"} }, "question 2: must have exactly 4 options"},
		{"duplicate options", func(in *CreateInput) { in.Questions[0].Options = []string{"a", "b", "b", "d"} }, "question 1: options must be distinct"},
		{"answer not an option", func(in *CreateInput) { in.Questions[1].CorrectAnswer = "B" }, "question 2: correct answer must be one of the options"},
		{"blank question", func(in *CreateInput) { in.Questions[0].Question = " " }, "question 1: text is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			in := validInput()
			tt.mutate(&in)
			_, _, err := f.svc.Create(context.Background(), uuid.New(), in)
			if !apperr.Is(err, apperr.KindValidation) {
				t.Fatalf("err = %v, want validation", err)
			}
			if apperr.Message(err) != tt.msg {
				t.Fatalf("message = %q, want %q", apperr.Message(err), tt.msg)
			}
			if len(f.store.quizzes) != 0 {
				t.Fatal("invalid quiz persisted")
			}
		})
	}
}

func TestCreateGeneratesWhenQuestionsOmitted(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	in.Questions = nil
	in.Settings.NumQuestions = 3

	q, _, err := f.svc.Create(context.Background(), uuid.New(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if len(f.gen.requests) != 1 {
		t.Fatalf("generator calls = %d", len(f.gen.requests))
	}
	req := f.gen.requests[0]
	if req.Count != 3 || req.Difficulty != "medium" || req.Topic != "Go" {
		t.Fatalf("request = %+v", req)
	}
	if len(q.Questions) != 3 {
		t.Fatalf("questions = %d", len(q.Questions))
	}
}

func TestCreateRejectsInvalidGeneratedQuestions(t *testing.T) {
	f := newFixture(t)
	f.gen.result = func(req generator.Request) generator.Result {
		qs := sampleQuestions(req.Count)
		qs[0].CorrectAnswer = "z"
		return generator.Result{Questions: qs}
	}
	in := validInput()
	in.Questions = nil
	if _, _, err := f.svc.Create(context.Background(), uuid.New(), in); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestCreateWithFallbackQuestionsCarriesWarning(t *testing.T) {
	f := newFixture(t)
	f.svc.Generator = generator.NewAdapter(garbageCompleter{}, zap.NewNop())
	in := validInput()
	in.Questions = nil
	in.Settings.NumQuestions = 7

	q, warning, err := f.svc.Create(context.Background(), uuid.New(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if warning != generator.WarningParseFailure {
		t.Fatalf("warning = %q", warning)
	}
	if len(q.Questions) != 7 || !strings.HasPrefix(q.Questions[5].Question, "Advanced: ") {
		t.Fatalf("questions = %+v", q.Questions)
	}
}

func TestGetIsRepeatable(t *testing.T) {
	f := newFixture(t)
	created, _, _ := f.svc.Create(context.Background(), uuid.New(), validInput())

	a, err := f.svc.Get(context.Background(), created.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	b, _ := f.svc.Get(context.Background(), created.ID)
	ja, _ := json.Marshal(a)
	jb, _ := json.Marshal(b)
	if !bytes.Equal(ja, jb) {
		t.Fatalf("reads differ:\n%s\n%s", ja, jb)
	}

	if _, err := f.svc.Get(context.Background(), uuid.New()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("missing err = %v", err)
	}
}

func TestDeleteByNonOwnerIsNotFound(t *testing.T) {
	f := newFixture(t)
	owner, other := uuid.New(), uuid.New()
	q, _, _ := f.svc.Create(context.Background(), owner, validInput())

	if err := f.svc.Delete(context.Background(), q.ID, other); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
	if _, err := f.svc.Get(context.Background(), q.ID); err != nil {
		t.Fatalf("quiz gone after foreign delete: %v", err)
	}
	if err := f.svc.Delete(context.Background(), q.ID, owner); err != nil {
		t.Fatalf("owner delete: %v", err)
	}
	if err := f.svc.Delete(context.Background(), q.ID, owner); !errors.Is(err, ErrNotFound) {
		t.Fatalf("second delete err = %v", err)
	}
}

func TestUpdate(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	q, _, _ := f.svc.Create(context.Background(), owner, validInput())
	before := q.UpdatedAt

	title := "Go, revised"
	if _, err := f.svc.Update(context.Background(), q.ID, uuid.New(), Patch{Title: &title}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign update err = %v", err)
	}

	bad := sampleQuestions(1)
	bad[0].CorrectAnswer = "nope"
	if _, err := f.svc.Update(context.Background(), q.ID, owner, Patch{Questions: bad}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("invalid update err = %v", err)
	}

	updated, err := f.svc.Update(context.Background(), q.ID, owner, Patch{Title: &title, Questions: sampleQuestions(3)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != title || len(updated.Questions) != 3 || updated.Topic != "Go" {
		t.Fatalf("updated = %+v", updated)
	}
	if !updated.UpdatedAt.After(before) {
		t.Fatal("updated_at not refreshed")
	}
}

func TestCreateAssignsFreshQuestionIDs(t *testing.T) {
	f := newFixture(t)
	in := validInput()
	shared := uuid.New()
	in.Questions[0].ID = shared
	in.Questions[1].ID = shared

	q, _, err := f.svc.Create(context.Background(), uuid.New(), in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	a, b := q.Questions[0].ID, q.Questions[1].ID
	if a == b || a == shared || b == shared || a == uuid.Nil || b == uuid.Nil {
		t.Fatalf("question ids = %v, %v", a, b)
	}
}

func TestUpdateRejectsDuplicateQuestionIDs(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	q, _, _ := f.svc.Create(context.Background(), owner, validInput())

	edited := append([]models.Question(nil), q.Questions...)
	edited[1].ID = edited[0].ID
	_, err := f.svc.Update(context.Background(), q.ID, owner, Patch{Questions: edited})
	if !apperr.Is(err, apperr.KindValidation) || apperr.Message(err) != "question 2: id duplicates question 1" {
		t.Fatalf("err = %v", err)
	}

	kept, err := f.svc.Update(context.Background(), q.ID, owner, Patch{Questions: append(q.Questions[:1:1], sampleQuestions(1)...)})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if kept.Questions[0].ID != q.Questions[0].ID || kept.Questions[1].ID == uuid.Nil || kept.Questions[1].ID == kept.Questions[0].ID {
		t.Fatalf("questions = %+v", kept.Questions)
	}
}

func TestUpdateInvalidatesAnalytics(t *testing.T) {
	f := newFixture(t)
	owner := uuid.New()
	q, _, _ := f.svc.Create(context.Background(), owner, validInput())
	f.analytics.users = nil

	topic := "Golang"
	if _, err := f.svc.Update(context.Background(), q.ID, owner, Patch{Topic: &topic}); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if len(f.analytics.users) != 1 || f.analytics.users[0] != owner {
		t.Fatalf("invalidated = %v", f.analytics.users)
	}

	if _, err := f.svc.Update(context.Background(), q.ID, uuid.New(), Patch{Topic: &topic}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("foreign update err = %v", err)
	}
	if len(f.analytics.users) != 1 {
		t.Fatalf("failed update invalidated: %v", f.analytics.users)
	}
}

func TestValidateQuestionsIgnoresUnassignedIDs(t *testing.T) {
	if err := ValidateQuestions(sampleQuestions(3)); err != nil {
		t.Fatalf("err = %v", err)
	}
}

func TestMongoDocRejectsBadQuestionID(t *testing.T) {
	doc := quizDoc{
		ID:        uuid.NewString(),
		Title:     "Go basics",
		Topic:     "Go",
		CreatedBy: uuid.NewString(),
		Questions: []questionDoc{{ID: uuid.NewString()}, {ID: "not-a-uuid"}},
	}
	if _, err := doc.toModel(); err == nil {
		t.Fatal("expected error for malformed question id")
	}
	doc.Questions[1].ID = uuid.NewString()
	q, err := doc.toModel()
	if err != nil {
		t.Fatalf("toModel: %v", err)
	}
	if q.Questions[1].ID.String() != doc.Questions[1].ID {
		t.Fatalf("question id = %v", q.Questions[1].ID)
	}
}

func TestListScopes(t *testing.T) {
	f := newFixture(t)
	alice, bob := uuid.New(), uuid.New()
	first, _, _ := f.svc.Create(context.Background(), alice, validInput())
	_, _, _ = f.svc.Create(context.Background(), bob, validInput())
	last, _, _ := f.svc.Create(context.Background(), alice, validInput())

	all, _ := f.svc.List(context.Background())
	if len(all) != 3 {
		t.Fatalf("all = %d", len(all))
	}
	mine, _ := f.svc.ListByUser(context.Background(), alice)
	if len(mine) != 2 || mine[0].ID != last.ID || mine[1].ID != first.ID {
		t.Fatalf("mine = %+v", mine)
	}
}

func TestGenerateQuestions(t *testing.T) {
	f := newFixture(t)
	if _, err := f.svc.GenerateQuestions(context.Background(), GenerateInput{Topic: " "}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("blank topic err = %v", err)
	}
	if _, err := f.svc.GenerateQuestions(context.Background(), GenerateInput{Topic: "Go", Count: 51}); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("count err = %v", err)
	}
	res, err := f.svc.GenerateQuestions(context.Background(), GenerateInput{Topic: "Go"})
	if err != nil {
		t.Fatalf("GenerateQuestions: %v", err)
	}
	if len(res.Questions) != DefaultGenerateCount {
		t.Fatalf("questions = %d", len(res.Questions))
	}
}

func TestGenerateQuestionsFallbackForAlgebra(t *testing.T) {
	f := newFixture(t)
	f.svc.Generator = generator.NewAdapter(garbageCompleter{}, nil)
	res, err := f.svc.GenerateQuestions(context.Background(), GenerateInput{Topic: "Algebra", Difficulty: "medium", Count: 5})
	if err != nil {
		t.Fatalf("GenerateQuestions: %v", err)
	}
	if len(res.Questions) != 5 || res.Warning == "" {
		t.Fatalf("result = %+v", res)
	}
}

func uploadInput(filename, body string) UploadInput {
	return UploadInput{
		Title:        "Notes",
		Topic:        "Biology",
		NumQuestions: 2,
		Filename:     filename,
		ContentType:  "text/plain",
		Size:         int64(len(body)),
		Body:         strings.NewReader(body),
	}
}

func assertNoArtifacts(t *testing.T, root string) {
	t.Helper()
	var files []string
	_ = filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() {
			files = append(files, p)
		}
		return nil
	})
	if len(files) != 0 {
		t.Fatalf("artifacts left behind: %v", files)
	}
}

func TestCreateFromUpload(t *testing.T) {
	f := newFixture(t)
	q, _, err := f.svc.CreateFromUpload(context.Background(), uuid.New(), uploadInput("cells.txt", "Mitochondria are the powerhouse of the cell."))
	if err != nil {
		t.Fatalf("CreateFromUpload: %v", err)
	}
	if q.Settings.TimeLimit != UploadTimeLimit || q.Settings.NumQuestions != 2 {
		t.Fatalf("settings = %+v", q.Settings)
	}
	if len(f.gen.requests) != 1 || !strings.Contains(f.gen.requests[0].SourceText, "Mitochondria") {
		t.Fatalf("requests = %+v", f.gen.requests)
	}
	assertNoArtifacts(t, f.root)
}

func TestCreateFromUploadUnreadable(t *testing.T) {
	f := newFixture(t)
	_, _, err := f.svc.CreateFromUpload(context.Background(), uuid.New(), uploadInput("short.txt", "  tiny  "))
	if !apperr.Is(err, apperr.KindUnreadableContent) {
		t.Fatalf("err = %v, want unreadable content", err)
	}
	if len(f.gen.requests) != 0 {
		t.Fatal("generator called for unreadable upload")
	}
	assertNoArtifacts(t, f.root)
}

func TestCreateFromUploadRejectsType(t *testing.T) {
	f := newFixture(t)
	in := uploadInput("photo.png", "not really a png")
	in.ContentType = "image/png"
	if _, _, err := f.svc.CreateFromUpload(context.Background(), uuid.New(), in); !apperr.Is(err, apperr.KindValidation) {
		t.Fatalf("err = %v, want validation", err)
	}
}

func TestCreateFromUploadDefersFailedCleanup(t *testing.T) {
	f := newFixture(t)
	disk, _ := storage.NewDisk(t.TempDir())
	f.svc.Artifacts = stuckArtifacts{disk}
	user := uuid.New()

	if _, _, err := f.svc.CreateFromUpload(context.Background(), user, uploadInput("cells.txt", "Ribosomes synthesize proteins.")); err != nil {
		t.Fatalf("CreateFromUpload: %v", err)
	}
	if len(f.cleanup.jobs) != 1 || f.cleanup.jobs[0].UserID != user || !strings.HasPrefix(f.cleanup.jobs[0].Key, "uploads/") {
		t.Fatalf("cleanup jobs = %+v", f.cleanup.jobs)
	}
}

func newTestRouter(svc *Service, user uuid.UUID) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(svc, zap.NewNop())
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set(middleware.ContextUserID, user)
		c.Next()
	})
	r.GET("/api/quizzes", h.List)
	r.GET("/api/quizzes/:id", h.GetByID)
	r.POST("/api/quizzes", h.Create)
	r.PUT("/api/quizzes/:id", h.Update)
	r.DELETE("/api/quizzes/:id", h.Delete)
	r.POST("/api/quizzes/upload", h.Upload)
	r.POST("/api/quizzes/ai/generate-quiz", h.Generate)
	return r
}

func TestHandlerCreateAndList(t *testing.T) {
	f := newFixture(t)
	user := uuid.New()
	_, _, _ = f.svc.Create(context.Background(), uuid.New(), validInput())
	r := newTestRouter(f.svc, user)

	body, _ := json.Marshal(CreateRequest{Title: "Mine", Topic: "Go", Settings: models.QuizSettings{NumQuestions: 1, TimeLimit: 5}, Questions: sampleQuestions(1)})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/quizzes", bytes.NewReader(body)))
	if w.Code != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", w.Code, w.Body)
	}

	var list struct {
		Data []models.Quiz `json:"data"`
	}
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/quizzes?mine=1", nil))
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Data) != 1 || list.Data[0].Title != "Mine" {
		t.Fatalf("mine = %+v", list.Data)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/quizzes", nil))
	_ = json.Unmarshal(w.Body.Bytes(), &list)
	if len(list.Data) != 2 {
		t.Fatalf("all = %d", len(list.Data))
	}
}

func TestHandlerErrors(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f.svc, uuid.New())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/quizzes/not-a-uuid", nil))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("bad id status = %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/api/quizzes/"+uuid.NewString(), nil))
	if w.Code != http.StatusNotFound {
		t.Fatalf("missing delete status = %d", w.Code)
	}

	body, _ := json.Marshal(CreateRequest{Title: "", Topic: "Go", Settings: models.QuizSettings{NumQuestions: 1, TimeLimit: 5}})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/quizzes", bytes.NewReader(body)))
	if w.Code != http.StatusBadRequest || !strings.Contains(w.Body.String(), "title is required") {
		t.Fatalf("validation status = %d body=%s", w.Code, w.Body)
	}
}

func TestHandlerUpload(t *testing.T) {
	f := newFixture(t)
	r := newTestRouter(f.svc, uuid.New())

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("title", "Notes")
	_ = mw.WriteField("topic", "History")
	_ = mw.WriteField("num_questions", "2")
	hdr := make(textproto.MIMEHeader)
	hdr.Set("Content-Disposition", `form-data; name="file"; filename="rome.txt"`)
	hdr.Set("Content-Type", "text/plain")
	part, _ := mw.CreatePart(hdr)
	_, _ = io.WriteString(part, "Rome was founded, according to legend, in 753 BC.")
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/quizzes/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d body=%s", w.Code, w.Body)
	}
	assertNoArtifacts(t, f.root)
}
