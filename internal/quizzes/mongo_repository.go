package quizzes

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/quizforge/backend/internal/models"
	"github.com/quizforge/backend/pkg/database"
)

type questionDoc struct {
	ID            string   `bson:"id"`
	Question      string   `bson:"question"`
	Options       []string `bson:"options"`
	CorrectAnswer string   `bson:"correctAnswer"`
	Explanation   string   `bson:"explanation,omitempty"`
}

type quizDoc struct {
	ID        string        `bson:"_id"`
	Title     string        `bson:"title"`
	Topic     string        `bson:"topic"`
	Settings  settingsDoc   `bson:"settings"`
	Questions []questionDoc `bson:"questions"`
	CreatedBy string        `bson:"createdBy"`
	CreatedAt time.Time     `bson:"createdAt"`
	UpdatedAt time.Time     `bson:"updatedAt"`
}

type settingsDoc struct {
	NumQuestions int `bson:"numQuestions"`
	TimeLimit    int `bson:"timeLimit"`
}

func questionDocs(qs []models.Question) []questionDoc {
	out := make([]questionDoc, len(qs))
	for i, q := range qs {
		out[i] = questionDoc{
			ID:            q.ID.String(),
			Question:      q.Question,
			Options:       q.Options,
			CorrectAnswer: q.CorrectAnswer,
			Explanation:   q.Explanation,
		}
	}
	return out
}

func (d *quizDoc) toModel() (*models.Quiz, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	createdBy, err := uuid.Parse(d.CreatedBy)
	if err != nil {
		return nil, err
	}
	q := &models.Quiz{
		ID:        id,
		Title:     d.Title,
		Topic:     d.Topic,
		Settings:  models.QuizSettings{NumQuestions: d.Settings.NumQuestions, TimeLimit: d.Settings.TimeLimit},
		Questions: make([]models.Question, len(d.Questions)),
		CreatedBy: createdBy,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
	for i, qd := range d.Questions {
		qid, err := uuid.Parse(qd.ID)
		if err != nil {
			return nil, fmt.Errorf("question %d of quiz %s: %w", i+1, d.ID, err)
		}
		q.Questions[i] = models.Question{
			ID:            qid,
			Question:      qd.Question,
			Options:       qd.Options,
			CorrectAnswer: qd.CorrectAnswer,
			Explanation:   qd.Explanation,
		}
	}
	return q, nil
}

// MongoRepository handles quiz persistence in MongoDB.
type MongoRepository struct {
	collection *mongo.Collection
}

var _ Store = (*MongoRepository)(nil)

// NewMongoRepository creates a MongoDB-backed quiz store.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{collection: db.Collection(database.CollectionQuizzes)}
}

// EnsureIndexes creates the (title, topic) and (createdBy, createdAt) indexes.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "title", Value: 1}, {Key: "topic", Value: 1}}},
		{Keys: bson.D{{Key: "createdBy", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

// Create inserts a quiz and fills ID and timestamps.
func (r *MongoRepository) Create(ctx context.Context, q *models.Quiz) error {
	now := time.Now().UTC()
	doc := quizDoc{
		ID:        uuid.New().String(),
		Title:     q.Title,
		Topic:     q.Topic,
		Settings:  settingsDoc{NumQuestions: q.Settings.NumQuestions, TimeLimit: q.Settings.TimeLimit},
		Questions: questionDocs(q.Questions),
		CreatedBy: q.CreatedBy.String(),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return err
	}
	q.ID = uuid.MustParse(doc.ID)
	q.CreatedAt, q.UpdatedAt = now, now
	return nil
}

// GetByID returns a quiz by ID.
func (r *MongoRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	var doc quizDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel()
}

// List returns all quizzes, newest first.
func (r *MongoRepository) List(ctx context.Context) ([]models.Quiz, error) {
	return r.find(ctx, bson.M{})
}

// ListByUser returns the user's quizzes, newest first.
func (r *MongoRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Quiz, error) {
	return r.find(ctx, bson.M{"createdBy": userID.String()})
}

func (r *MongoRepository) find(ctx context.Context, filter bson.M) ([]models.Quiz, error) {
	cur, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	list := []models.Quiz{}
	for cur.Next(ctx) {
		var doc quizDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		q, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		list = append(list, *q)
	}
	return list, cur.Err()
}

// Update overwrites title, topic, settings and questions and refreshes updatedAt.
func (r *MongoRepository) Update(ctx context.Context, q *models.Quiz) (bool, error) {
	now := time.Now().UTC()
	res, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": q.ID.String(), "createdBy": q.CreatedBy.String()},
		bson.M{"$set": bson.M{
			"title":     q.Title,
			"topic":     q.Topic,
			"settings":  settingsDoc{NumQuestions: q.Settings.NumQuestions, TimeLimit: q.Settings.TimeLimit},
			"questions": questionDocs(q.Questions),
			"updatedAt": now,
		}},
	)
	if err != nil {
		return false, err
	}
	if res.MatchedCount == 0 {
		return false, nil
	}
	q.UpdatedAt = now
	return true, nil
}

// Delete removes a quiz owned by ownerID.
func (r *MongoRepository) Delete(ctx context.Context, id, ownerID uuid.UUID) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id.String(), "createdBy": ownerID.String()})
	if err != nil {
		return false, err
	}
	return res.DeletedCount > 0, nil
}
