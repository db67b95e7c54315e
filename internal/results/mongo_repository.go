package results

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/quizforge/backend/internal/models"
	"github.com/quizforge/backend/pkg/database"
)

type answerDoc struct {
	Question      string `bson:"question"`
	UserAnswer    string `bson:"userAnswer"`
	CorrectAnswer string `bson:"correctAnswer"`
	IsCorrect     bool   `bson:"isCorrect"`
}

type resultDoc struct {
	ID             string      `bson:"_id"`
	QuizID         string      `bson:"quiz"`
	UserID         string      `bson:"user"`
	Score          int         `bson:"score"`
	TotalQuestions int         `bson:"totalQuestions"`
	TimeTaken      int         `bson:"timeTaken"`
	Answers        []answerDoc `bson:"answers"`
	CreatedAt      time.Time   `bson:"createdAt"`
}

func (d *resultDoc) toModel() (*models.QuizResult, error) {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		return nil, err
	}
	quizID, err := uuid.Parse(d.QuizID)
	if err != nil {
		return nil, err
	}
	userID, err := uuid.Parse(d.UserID)
	if err != nil {
		return nil, err
	}
	r := &models.QuizResult{
		ID:             id,
		QuizID:         quizID,
		UserID:         userID,
		Score:          d.Score,
		TotalQuestions: d.TotalQuestions,
		TimeTaken:      d.TimeTaken,
		Answers:        make([]models.Answer, len(d.Answers)),
		CreatedAt:      d.CreatedAt,
	}
	for i, a := range d.Answers {
		r.Answers[i] = models.Answer(a)
	}
	return r, nil
}

// MongoRepository handles quiz result persistence in MongoDB.
type MongoRepository struct {
	collection *mongo.Collection
}

var _ Store = (*MongoRepository)(nil)

// NewMongoRepository creates a MongoDB-backed result store.
func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{collection: db.Collection(database.CollectionResults)}
}

// EnsureIndexes creates the (quiz, user) and (user, createdAt) indexes.
func (r *MongoRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "quiz", Value: 1}, {Key: "user", Value: 1}}},
		{Keys: bson.D{{Key: "user", Value: 1}, {Key: "createdAt", Value: -1}}},
	})
	return err
}

// Create inserts a result and fills ID and createdAt.
func (r *MongoRepository) Create(ctx context.Context, res *models.QuizResult) error {
	doc := resultDoc{
		ID:             uuid.New().String(),
		QuizID:         res.QuizID.String(),
		UserID:         res.UserID.String(),
		Score:          res.Score,
		TotalQuestions: res.TotalQuestions,
		TimeTaken:      res.TimeTaken,
		Answers:        make([]answerDoc, len(res.Answers)),
		CreatedAt:      time.Now().UTC(),
	}
	for i, a := range res.Answers {
		doc.Answers[i] = answerDoc(a)
	}
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return err
	}
	res.ID = uuid.MustParse(doc.ID)
	res.CreatedAt = doc.CreatedAt
	return nil
}

// GetByID returns a result owned by userID.
func (r *MongoRepository) GetByID(ctx context.Context, id, userID uuid.UUID) (*models.QuizResult, error) {
	var doc resultDoc
	err := r.collection.FindOne(ctx, bson.M{"_id": id.String(), "user": userID.String()}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return doc.toModel()
}

// ListByUser returns the user's results, newest first.
func (r *MongoRepository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.QuizResult, error) {
	cur, err := r.collection.Find(ctx, bson.M{"user": userID.String()},
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	list := []models.QuizResult{}
	for cur.Next(ctx) {
		var doc resultDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		res, err := doc.toModel()
		if err != nil {
			return nil, err
		}
		list = append(list, *res)
	}
	return list, cur.Err()
}
