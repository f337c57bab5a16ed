package hubstore

import (
	"context"
	"errors"
	"time"

	"github.com/coderhub/coderhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// ErrDuplicateKey is returned when another hub already owns the derived
// unique key (i.e. an equivalent name is already registered).
var ErrDuplicateKey = errors.New("a hub with this unique key already exists")

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("hubs")}
}

// GetByID loads a hub by ObjectID. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Hub, error) {
	var h models.Hub
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&h); err != nil {
		return nil, err
	}
	return &h, nil
}

// GetByUniqueKey loads a hub by its derived unique key.
func (s *Store) GetByUniqueKey(ctx context.Context, key string) (*models.Hub, error) {
	var h models.Hub
	if err := s.c.FindOne(ctx, bson.M{"unique_key": key}).Decode(&h); err != nil {
		return nil, err
	}
	return &h, nil
}

// List returns all hubs.
func (s *Store) List(ctx context.Context) ([]models.Hub, error) {
	cur, err := s.c.Find(ctx, bson.M{})
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var hubs []models.Hub
	if err := cur.All(ctx, &hubs); err != nil {
		return nil, err
	}
	return hubs, nil
}

// Create inserts a new hub. The unique index on unique_key is the real
// uniqueness authority; a duplicate insert maps to ErrDuplicateKey.
func (s *Store) Create(ctx context.Context, h models.Hub) (models.Hub, error) {
	h.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	h.CreatedAt = now
	h.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, h); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Hub{}, ErrDuplicateKey
		}
		return models.Hub{}, err
	}
	return h, nil
}

// Update replaces the mutable fields of a hub. Callers pass the full
// document with UniqueKey already re-derived when the name changed.
func (s *Store) Update(ctx context.Context, h models.Hub) (models.Hub, error) {
	h.UpdatedAt = time.Now().UTC()
	set := bson.M{
		"name":        h.Name,
		"unique_key":  h.UniqueKey,
		"description": h.Description,
		"institution": h.Institution,
		"phone":       h.Phone,
		"contact":     h.Contact,
		"address":     h.Address,
		"zip_code":    h.ZipCode,
		"state":       h.State,
		"country":     h.Country,
		"updated_at":  h.UpdatedAt,
	}
	if _, err := s.c.UpdateOne(ctx, bson.M{"_id": h.ID}, bson.M{"$set": set}); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Hub{}, ErrDuplicateKey
		}
		return models.Hub{}, err
	}
	return h, nil
}

// Delete removes a hub document. User hub sets are not cascaded; a
// dangling hub id in a user document is tolerated.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
