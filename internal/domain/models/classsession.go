// internal/domain/models/classsession.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ClassSession is a scheduled class on the gym calendar. Prepaid members burn
// a credit when checked in against a session.
type ClassSession struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"name_ci"`
	Style       string             `bson:"style,omitempty" json:"style,omitempty"`
	StartsAt    time.Time          `bson:"starts_at" json:"starts_at"`
	DurationMin int                `bson:"duration_min" json:"duration_min"`
	Capacity    int                `bson:"capacity,omitempty" json:"capacity,omitempty"`
	Instructor  string             `bson:"instructor,omitempty" json:"instructor,omitempty"`
	Notes       string             `bson:"notes,omitempty" json:"notes,omitempty"`
	CreatedBy   primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt   time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt   time.Time          `bson:"updated_at" json:"updated_at"`
}
