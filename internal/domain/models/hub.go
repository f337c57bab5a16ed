package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Hub is an institutional grouping (e.g. a university) users affiliate with.
//
// UniqueKey is derived from Name (see system/uniquekey) and carries a
// unique index, so two hubs whose names normalize to the same value
// cannot coexist.
type Hub struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	UniqueKey   string             `bson:"unique_key" json:"unique_key"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Institution string             `bson:"institution,omitempty" json:"institution,omitempty"`
	Phone       string             `bson:"phone,omitempty" json:"phone,omitempty"`
	Contact     string             `bson:"contact,omitempty" json:"contact,omitempty"`
	Address     string             `bson:"address,omitempty" json:"address,omitempty"`
	ZipCode     string             `bson:"zip_code,omitempty" json:"zip_code,omitempty"`
	State       string             `bson:"state,omitempty" json:"state,omitempty"`
	Country     string             `bson:"country,omitempty" json:"country,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
