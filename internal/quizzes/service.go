package quizzes

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/quizforge/backend/internal/apperr"
	"github.com/quizforge/backend/internal/extractor"
	"github.com/quizforge/backend/internal/generator"
	"github.com/quizforge/backend/internal/metrics"
	"github.com/quizforge/backend/internal/models"
	"github.com/quizforge/backend/pkg/events"
	"github.com/quizforge/backend/pkg/queue"
	"github.com/quizforge/backend/pkg/storage"
)

const (
	// DefaultGenerateCount is used when a generation request names no count.
	DefaultGenerateCount = 10
	// UploadTimeLimit is the time limit given to quizzes built from an upload.
	UploadTimeLimit = 30
	// minSourceText is the shortest extracted text accepted as source material.
	minSourceText = 10

	cleanupTimeout = 10 * time.Second
)

// ErrNotFound is returned for missing quizzes and for quizzes the caller does not own.
var ErrNotFound = apperr.NotFound("quiz not found")

// Generator produces questions. It never fails.
type Generator interface {
	Generate(ctx context.Context, req generator.Request) generator.Result
}

// TextExtractor turns a document into plain text.
type TextExtractor interface {
	Extract(ctx context.Context, r io.Reader, mimeType string) (string, error)
}

// CleanupScheduler defers deletion of an artifact that could not be removed inline.
type CleanupScheduler interface {
	EnqueueArtifactCleanup(ctx context.Context, payload queue.ArtifactCleanupPayload) error
}

// Invalidator drops cached per-user data derived from quizzes.
type Invalidator interface {
	Invalidate(ctx context.Context, userID uuid.UUID)
}

// Deps are the collaborators of a Service. Events, Cleanup and Analytics are optional.
type Deps struct {
	Store             Store
	Generator         Generator
	Extractor         TextExtractor
	Artifacts         storage.Artifacts
	Cleanup           CleanupScheduler
	Events            events.Publisher
	Analytics         Invalidator
	DefaultDifficulty string
	MaxUploadBytes    int64
	Logger            *zap.Logger
}

// Service implements quiz authoring.
type Service struct {
	Deps
	now func() time.Time
}

// NewService creates a quiz service.
func NewService(d Deps) *Service {
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	if d.Events == nil {
		d.Events = events.Nop{}
	}
	if d.DefaultDifficulty == "" {
		d.DefaultDifficulty = "medium"
	}
	return &Service{Deps: d, now: time.Now}
}

// CreateInput describes a new quiz. A nil Questions asks the generator for
// Settings.NumQuestions questions.
type CreateInput struct {
	Title      string
	Topic      string
	Settings   models.QuizSettings
	Questions  []models.Question
	Difficulty string
}

// Create validates, optionally generates, and persists a quiz. The returned warning is set
// when generated questions came from templates.
func (s *Service) Create(ctx context.Context, userID uuid.UUID, in CreateInput) (*models.Quiz, string, error) {
	quiz := &models.Quiz{
		Title:     strings.TrimSpace(in.Title),
		Topic:     strings.TrimSpace(in.Topic),
		Settings:  in.Settings,
		Questions: in.Questions,
		CreatedBy: userID,
	}
	if err := ValidateMeta(quiz.Title, quiz.Topic); err != nil {
		return nil, "", err
	}
	if err := ValidateSettings(quiz.Settings); err != nil {
		return nil, "", err
	}

	var warning string
	if quiz.Questions == nil {
		res := s.Generator.Generate(ctx, generator.Request{
			Topic:      quiz.Topic,
			Difficulty: s.difficulty(in.Difficulty),
			Count:      quiz.Settings.NumQuestions,
		})
		quiz.Questions, warning = res.Questions, res.Warning
	}
	if err := s.persist(ctx, quiz); err != nil {
		return nil, "", err
	}
	return quiz, warning, nil
}

// UploadInput describes a quiz built from an uploaded document.
type UploadInput struct {
	Title        string
	Topic        string
	NumQuestions int
	Filename     string
	ContentType  string
	Size         int64
	Body         io.Reader
}

// CreateFromUpload stores the document as a short-lived artifact, extracts its text and
// generates the quiz from it. The artifact is removed on every path.
func (s *Service) CreateFromUpload(ctx context.Context, userID uuid.UUID, in UploadInput) (*models.Quiz, string, error) {
	quiz := &models.Quiz{
		Title:     strings.TrimSpace(in.Title),
		Topic:     strings.TrimSpace(in.Topic),
		Settings:  models.QuizSettings{NumQuestions: in.NumQuestions, TimeLimit: UploadTimeLimit},
		CreatedBy: userID,
	}
	if err := ValidateMeta(quiz.Title, quiz.Topic); err != nil {
		return nil, "", err
	}
	if err := ValidateSettings(quiz.Settings); err != nil {
		return nil, "", err
	}
	mimeType := storage.NormalizeContentType(in.ContentType, in.Filename)
	if mimeType == "" {
		return nil, "", apperr.Validation("invalid file type: only PDF, TXT and Word documents are allowed")
	}
	if in.Size == 0 {
		return nil, "", apperr.Validation("uploaded file is empty")
	}
	if s.MaxUploadBytes > 0 && in.Size > s.MaxUploadBytes {
		return nil, "", apperr.Validationf("file exceeds the %d byte limit", s.MaxUploadBytes)
	}

	key := storage.UploadKey(userID, in.Filename, s.now())
	if err := s.Artifacts.Put(ctx, key, mimeType, in.Body, in.Size); err != nil {
		return nil, "", apperr.Upstream("store upload", err)
	}
	defer s.discard(ctx, key, userID)

	text, err := s.extract(ctx, key, mimeType)
	if err != nil {
		return nil, "", err
	}

	res := s.Generator.Generate(ctx, generator.Request{
		Topic:      quiz.Topic,
		Difficulty: s.DefaultDifficulty,
		Count:      quiz.Settings.NumQuestions,
		SourceText: text,
	})
	quiz.Questions = res.Questions
	if err := s.persist(ctx, quiz); err != nil {
		return nil, "", err
	}
	return quiz, res.Warning, nil
}

func (s *Service) extract(ctx context.Context, key, mimeType string) (string, error) {
	rc, err := s.Artifacts.Open(ctx, key)
	if err != nil {
		return "", apperr.Upstream("open upload", err)
	}
	defer rc.Close()

	text, err := s.Extractor.Extract(ctx, rc, mimeType)
	switch {
	case errors.Is(err, extractor.ErrUnsupportedType):
		return "", apperr.Validation("invalid file type: only PDF, TXT and Word documents are allowed")
	case errors.Is(err, extractor.ErrEmpty):
		return "", apperr.UnreadableContent("file content is empty or unreadable")
	case err != nil:
		s.Logger.Warn("extract upload failed", zap.String("key", key), zap.Error(err))
		return "", apperr.UnreadableContent("file content is empty or unreadable")
	}
	if len([]rune(strings.TrimSpace(text))) < minSourceText {
		return "", apperr.UnreadableContent("file content is empty or unreadable")
	}
	return text, nil
}

// discard deletes the artifact, deferring to the cleanup queue when that fails.
func (s *Service) discard(ctx context.Context, key string, userID uuid.UUID) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()

	err := s.Artifacts.Delete(ctx, key)
	if err == nil {
		metrics.ArtifactCleanup.WithLabelValues("inline").Inc()
		return
	}
	s.Logger.Warn("delete upload failed", zap.String("key", key), zap.Error(err))
	if s.Cleanup == nil {
		metrics.ArtifactCleanup.WithLabelValues("failed").Inc()
		return
	}
	if qerr := s.Cleanup.EnqueueArtifactCleanup(ctx, queue.ArtifactCleanupPayload{Key: key, UserID: userID}); qerr != nil {
		metrics.ArtifactCleanup.WithLabelValues("failed").Inc()
		s.Logger.Error("enqueue upload cleanup failed", zap.String("key", key), zap.Error(qerr))
		return
	}
	metrics.ArtifactCleanup.WithLabelValues("deferred").Inc()
}

func (s *Service) persist(ctx context.Context, quiz *models.Quiz) error {
	for i := range quiz.Questions {
		quiz.Questions[i].ID = uuid.New()
	}
	if err := ValidateQuestions(quiz.Questions); err != nil {
		return err
	}
	if err := s.Store.Create(ctx, quiz); err != nil {
		return apperr.Internal("create quiz", err)
	}
	s.Logger.Info("quiz created",
		zap.String("quiz_id", quiz.ID.String()),
		zap.String("user_id", quiz.CreatedBy.String()),
		zap.Int("questions", len(quiz.Questions)),
	)
	s.publish(ctx, events.QuizCreated, quiz.ID, quiz.CreatedBy)
	return nil
}

// Get returns a quiz by ID.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	q, err := s.Store.GetByID(ctx, id)
	if err != nil {
		return nil, apperr.Internal("get quiz", err)
	}
	if q == nil {
		return nil, ErrNotFound
	}
	return q, nil
}

// List returns every quiz, newest first.
func (s *Service) List(ctx context.Context) ([]models.Quiz, error) {
	list, err := s.Store.List(ctx)
	if err != nil {
		return nil, apperr.Internal("list quizzes", err)
	}
	return list, nil
}

// ListByUser returns the quizzes created by userID, newest first.
func (s *Service) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Quiz, error) {
	list, err := s.Store.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperr.Internal("list quizzes", err)
	}
	return list, nil
}

// Patch holds the fields of an update. Nil fields are left unchanged.
type Patch struct {
	Title     *string
	Topic     *string
	Settings  *models.QuizSettings
	Questions []models.Question
}

// Update applies p to a quiz owned by ownerID. Quizzes owned by others are reported as not found.
func (s *Service) Update(ctx context.Context, id, ownerID uuid.UUID, p Patch) (*models.Quiz, error) {
	quiz, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if quiz.CreatedBy != ownerID {
		return nil, ErrNotFound
	}

	if p.Title != nil {
		quiz.Title = strings.TrimSpace(*p.Title)
	}
	if p.Topic != nil {
		quiz.Topic = strings.TrimSpace(*p.Topic)
	}
	if p.Settings != nil {
		quiz.Settings = *p.Settings
	}
	if p.Questions != nil {
		quiz.Questions = p.Questions
		assignQuestionIDs(quiz.Questions)
	}
	if err := Validate(quiz); err != nil {
		return nil, err
	}

	ok, err := s.Store.Update(ctx, quiz)
	if err != nil {
		return nil, apperr.Internal("update quiz", err)
	}
	if !ok {
		return nil, ErrNotFound
	}
	s.publish(ctx, events.QuizUpdated, quiz.ID, ownerID)
	return quiz, nil
}

// Delete removes a quiz owned by ownerID. Results referencing it are kept.
func (s *Service) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	ok, err := s.Store.Delete(ctx, id, ownerID)
	if err != nil {
		return apperr.Internal("delete quiz", err)
	}
	if !ok {
		return ErrNotFound
	}
	s.Logger.Info("quiz deleted", zap.String("quiz_id", id.String()), zap.String("user_id", ownerID.String()))
	s.publish(ctx, events.QuizDeleted, id, ownerID)
	return nil
}

// GenerateInput describes a standalone generation request.
type GenerateInput struct {
	Topic      string
	Difficulty string
	Count      int
	SourceText string
}

// GenerateQuestions returns generated questions without persisting anything.
func (s *Service) GenerateQuestions(ctx context.Context, in GenerateInput) (generator.Result, error) {
	topic := strings.TrimSpace(in.Topic)
	if topic == "" {
		return generator.Result{}, apperr.Validation("topic is required")
	}
	count := in.Count
	if count == 0 {
		count = DefaultGenerateCount
	}
	if count < models.MinQuestions || count > models.MaxQuestions {
		return generator.Result{}, apperr.Validationf("num_questions must be between %d and %d", models.MinQuestions, models.MaxQuestions)
	}
	return s.Generator.Generate(ctx, generator.Request{
		Topic:      topic,
		Difficulty: s.difficulty(in.Difficulty),
		Count:      count,
		SourceText: in.SourceText,
	}), nil
}

func (s *Service) difficulty(d string) string {
	if d = strings.TrimSpace(d); d != "" {
		return d
	}
	return s.DefaultDifficulty
}

type quizEvent struct {
	QuizID uuid.UUID `json:"quiz_id"`
	UserID uuid.UUID `json:"user_id"`
}

func (s *Service) publish(ctx context.Context, eventType string, quizID, userID uuid.UUID) {
	if s.Analytics != nil {
		s.Analytics.Invalidate(ctx, userID)
	}
	if err := s.Events.Publish(ctx, eventType, quizEvent{QuizID: quizID, UserID: userID}); err != nil {
		s.Logger.Warn("publish event failed", zap.String("type", eventType), zap.Error(err))
	}
}

// assignQuestionIDs keeps the IDs of edited questions so existing attempts still line up and
// gives new ones a fresh ID.
func assignQuestionIDs(qs []models.Question) {
	for i := range qs {
		if qs[i].ID == uuid.Nil {
			qs[i].ID = uuid.New()
		}
	}
}
