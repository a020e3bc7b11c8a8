// internal/domain/models/activity.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity event names. Append-only; renaming one would orphan history.
const (
	EventMemberCreated     = "member_created"
	EventStatusChanged     = "status_changed"
	EventBeltAwarded       = "belt_awarded"
	EventLevelAwarded      = "level_awarded"
	EventMemberDeactivated = "member_deactivated"
	EventCheckIn           = "check_in"
)

// ActivityEntry is one row of the append-only activity log. Detail holds
// event-specific fields ("from"/"to" for status changes, the level name for
// awards) and is rendered verbatim on the member timeline.
type ActivityEntry struct {
	ID       primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MemberID primitive.ObjectID `bson:"member_id" json:"member_id"`
	Event    string             `bson:"event" json:"event"`
	ActorID  primitive.ObjectID `bson:"actor_id,omitempty" json:"actor_id,omitempty"`
	Detail   map[string]string  `bson:"detail,omitempty" json:"detail,omitempty"`
	At       time.Time          `bson:"at" json:"at"`
}
