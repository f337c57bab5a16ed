package judgestore

import (
	"context"
	"time"

	"github.com/coderhub/coderhub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("judges")}
}

// GetByID loads a judge by ObjectID. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Judge, error) {
	var j models.Judge
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&j); err != nil {
		return nil, err
	}
	return &j, nil
}

// List returns all judges.
func (s *Store) List(ctx context.Context) ([]models.Judge, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var judges []models.Judge
	if err := cur.All(ctx, &judges); err != nil {
		return nil, err
	}
	return judges, nil
}

// EnsureByName inserts the judge if no judge with the same name exists.
// Used by the startup seeder; idempotent across restarts.
func (s *Store) EnsureByName(ctx context.Context, name, url string) error {
	err := s.c.FindOne(ctx, bson.M{"name": name}).Err()
	if err == nil {
		return nil
	}
	if err != mongo.ErrNoDocuments {
		return err
	}

	now := time.Now().UTC()
	_, err = s.c.InsertOne(ctx, models.Judge{
		ID:        primitive.NewObjectID(),
		Name:      name,
		URL:       url,
		CreatedAt: now,
		UpdatedAt: now,
	})
	return err
}
