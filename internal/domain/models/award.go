// internal/domain/models/award.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Award kinds.
const (
	AwardBelt         = "belt"
	AwardStudentLevel = "student_level"
)

// Award is a timestamped join between a member and a taxonomy entry. The
// level name is denormalized so award history renders without a lookup even
// if taxonomy naming conventions change later.
type Award struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MemberID  primitive.ObjectID `bson:"member_id" json:"member_id"`
	Kind      string             `bson:"kind" json:"kind"` // belt | student_level
	LevelID   primitive.ObjectID `bson:"level_id" json:"level_id"`
	LevelName string             `bson:"level_name" json:"level_name"`
	GrantedBy primitive.ObjectID `bson:"granted_by" json:"granted_by"`
	GrantedAt time.Time          `bson:"granted_at" json:"granted_at"`
	Notes     string             `bson:"notes,omitempty" json:"notes,omitempty"`
}
