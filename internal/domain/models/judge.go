package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Judge is a reference to an external online programming judge.
// Read-mostly; created by the seeder.
type Judge struct {
	ID   primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name string             `bson:"name" json:"name"`
	URL  string             `bson:"url" json:"url"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
