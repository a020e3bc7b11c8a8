// internal/domain/models/checkin.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CheckIn records one member attendance, optionally tied to a class session.
type CheckIn struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MemberID  primitive.ObjectID `bson:"member_id" json:"member_id"`
	SessionID primitive.ObjectID `bson:"session_id,omitempty" json:"session_id,omitempty"`
	At        time.Time          `bson:"at" json:"at"`
}
