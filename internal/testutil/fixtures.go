package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/coderhub/coderhub/internal/app/system/uniquekey"
	"github.com/coderhub/coderhub/internal/domain/models"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParams adds chi URL parameters to the request context.
// Use this in handler tests that need chi.URLParam values.
func WithChiURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a test user with the given email and permission
// set. Returns the created user with its generated ID.
func (f *Fixtures) CreateUser(ctx context.Context, email string, permissions map[string][]string) models.User {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:          primitive.NewObjectID(),
		Name:        "Test",
		Lastname:    "User",
		Email:       email,
		Password:    "$2a$10$unusable.test.hash.value.padding.0123456789012345678",
		IsActive:    true,
		Permissions: permissions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateHub inserts a test hub with the unique key derived from name.
func (f *Fixtures) CreateHub(ctx context.Context, name string) models.Hub {
	f.t.Helper()

	now := time.Now().UTC()
	hub := models.Hub{
		ID:          primitive.NewObjectID(),
		Name:        name,
		UniqueKey:   uniquekey.Derive(name),
		Institution: "Test Institution",
		Country:     "Testland",
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("hubs").InsertOne(ctx, hub); err != nil {
		f.t.Fatalf("failed to create test hub: %v", err)
	}
	return hub
}

// CreateJudge inserts a test judge.
func (f *Fixtures) CreateJudge(ctx context.Context, name string) models.Judge {
	f.t.Helper()

	now := time.Now().UTC()
	judge := models.Judge{
		ID:        primitive.NewObjectID(),
		Name:      name,
		URL:       "https://judge.test/",
		CreatedAt: now,
		UpdatedAt: now,
	}

	if _, err := f.db.Collection("judges").InsertOne(ctx, judge); err != nil {
		f.t.Fatalf("failed to create test judge: %v", err)
	}
	return judge
}

// CreateRole inserts a role permission template.
func (f *Fixtures) CreateRole(ctx context.Context, name string, permissions map[string][]string) models.Role {
	f.t.Helper()

	now := time.Now().UTC()
	role := models.Role{
		ID:          primitive.NewObjectID(),
		Name:        name,
		Permissions: permissions,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := f.db.Collection("roles").InsertOne(ctx, role); err != nil {
		f.t.Fatalf("failed to create test role: %v", err)
	}
	return role
}
