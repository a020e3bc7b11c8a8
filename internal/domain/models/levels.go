// internal/domain/models/levels.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// BeltLevel is one entry in a style's belt taxonomy (e.g. "Blue" in "bjj").
// Belt levels are immutable once created: there is no update or delete
// operation, only creation and ordering by rank.
type BeltLevel struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	NameCI    string             `bson:"name_ci" json:"name_ci"`
	Style     string             `bson:"style" json:"style"` // style tag, e.g. "bjj", "muay-thai"
	Rank      int                `bson:"rank" json:"rank"`   // ascending order within the style
	CreatedBy primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}

// StudentLevel is a free-standing progression entry not tied to a style
// (e.g. "Beginner", "Intermediate"). Immutable once created, like BeltLevel.
type StudentLevel struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	NameCI    string             `bson:"name_ci" json:"name_ci"`
	Rank      int                `bson:"rank" json:"rank"`
	CreatedBy primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
}
