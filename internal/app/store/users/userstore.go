package userstore

import (
	"context"
	"errors"
	"time"

	"github.com/coderhub/coderhub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicateEmail is returned when a user with the email already exists.
	ErrDuplicateEmail = errors.New("a user with this email already exists")
	// ErrAlreadyInHub is returned when linking a hub the user already has.
	ErrAlreadyInHub = errors.New("user is already linked to this hub")
	// ErrDuplicateJudgeAccount is returned when the user already holds an
	// account on the judge.
	ErrDuplicateJudgeAccount = errors.New("user already has an account for this judge")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("users")}
}

// GetByID loads a user by ObjectID. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetByEmail looks up a user by exact email. Returns mongo.ErrNoDocuments if absent.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"email": email}).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// GetBySocialAccount looks up a user by a linked provider identity.
func (s *Store) GetBySocialAccount(ctx context.Context, provider, providerUserID string) (*models.User, error) {
	var u models.User
	filter := bson.M{"social_accounts": bson.M{"$elemMatch": bson.M{
		"provider":         provider,
		"provider_user_id": providerUserID,
	}}}
	if err := s.c.FindOne(ctx, filter).Decode(&u); err != nil {
		return nil, err
	}
	return &u, nil
}

// List returns all users, excluding the secret fields at the query
// level so they never leave the database.
func (s *Store) List(ctx context.Context) ([]models.User, error) {
	opts := options.Find().SetProjection(bson.M{
		"password":           0,
		"verification_token": 0,
	})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// ListByHub returns the users whose hub set contains hubID, with the
// same secret-field projection as List.
func (s *Store) ListByHub(ctx context.Context, hubID primitive.ObjectID) ([]models.User, error) {
	opts := options.Find().SetProjection(bson.M{
		"password":           0,
		"verification_token": 0,
	})
	cur, err := s.c.Find(ctx, bson.M{"hub_ids": hubID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var users []models.User
	if err := cur.All(ctx, &users); err != nil {
		return nil, err
	}
	return users, nil
}

// Create inserts a new user. The unique index on email is the real
// uniqueness authority; a duplicate insert maps to ErrDuplicateEmail.
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	u.ID = primitive.NewObjectID()
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// AddHub appends hubID to the user's hub set. The filter excludes users
// already holding the hub, so the append and the duplicate check are a
// single atomic document operation.
func (s *Store) AddHub(ctx context.Context, userID, hubID primitive.ObjectID) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "hub_ids": bson.M{"$ne": hubID}},
		bson.M{
			"$addToSet": bson.M{"hub_ids": hubID},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrAlreadyInHub
	}
	return nil
}

// RemoveHub removes hubID from the user's hub set. Removing an absent
// hub is a no-op success.
func (s *Store) RemoveHub(ctx context.Context, userID, hubID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$pull": bson.M{"hub_ids": hubID},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	return err
}

// AddJudgeAccount appends a judge account, enforcing at most one entry
// per judge with the same atomic-filter pattern as AddHub.
func (s *Store) AddJudgeAccount(ctx context.Context, userID primitive.ObjectID, account models.JudgeAccount) error {
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID, "judge_accounts.judge_id": bson.M{"$ne": account.JudgeID}},
		bson.M{
			"$push": bson.M{"judge_accounts": account},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrDuplicateJudgeAccount
	}
	return nil
}

// RemoveJudgeAccount filters out any entry for judgeID. Removing a
// non-existent entry is a no-op success.
func (s *Store) RemoveJudgeAccount(ctx context.Context, userID, judgeID primitive.ObjectID) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$pull": bson.M{"judge_accounts": bson.M{"judge_id": judgeID}},
			"$set":  bson.M{"updated_at": time.Now().UTC()},
		})
	return err
}

// LinkSocialAccount attaches a provider identity if not already linked.
// Idempotent: linking an existing identity changes nothing.
func (s *Store) LinkSocialAccount(ctx context.Context, userID primitive.ObjectID, account models.SocialAccount) error {
	_, err := s.c.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{
			"$addToSet": bson.M{"social_accounts": account},
			"$set":      bson.M{"updated_at": time.Now().UTC()},
		})
	return err
}
