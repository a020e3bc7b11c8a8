// internal/domain/models/member.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Membership type values.
const (
	MembershipRecurring = "recurring"
	MembershipPrepaid   = "prepaid"
)

// Membership status values.
const (
	StatusNone    = "none"
	StatusActive  = "active"
	StatusPaused  = "paused"
	StatusOverdue = "overdue"
)

// ValidStatus reports whether s is one of the recognized membership statuses.
func ValidStatus(s string) bool {
	switch s {
	case StatusNone, StatusActive, StatusPaused, StatusOverdue:
		return true
	}
	return false
}

// EmergencyContact is the person to call when something goes wrong on the mat.
type EmergencyContact struct {
	Name     string `bson:"name" json:"name"`
	Phone    string `bson:"phone" json:"phone"`
	Relation string `bson:"relation,omitempty" json:"relation,omitempty"`
}

// Address is a member's mailing address.
type Address struct {
	Street string `bson:"street,omitempty" json:"street,omitempty"`
	City   string `bson:"city,omitempty" json:"city,omitempty"`
	State  string `bson:"state,omitempty" json:"state,omitempty"`
	Zip    string `bson:"zip,omitempty" json:"zip,omitempty"`
}

// Membership holds the billing side of a member record.
//
// AmountCents is the monthly charge for recurring memberships; Credits is the
// remaining class balance for prepaid ones. Status side-effect timestamps are
// stamped by the status-transition operation, never by callers directly.
type Membership struct {
	Type        string     `bson:"type" json:"type"`     // recurring | prepaid
	Status      string     `bson:"status" json:"status"` // none | active | paused | overdue
	AmountCents int64      `bson:"amount_cents,omitempty" json:"amount_cents,omitempty"`
	Credits     int        `bson:"credits,omitempty" json:"credits,omitempty"`
	AutoRenew   bool       `bson:"auto_renew" json:"auto_renew"`
	StartedAt   *time.Time `bson:"started_at,omitempty" json:"started_at,omitempty"`
	PausedAt    *time.Time `bson:"paused_at,omitempty" json:"paused_at,omitempty"`
	PauseReason string     `bson:"pause_reason,omitempty" json:"pause_reason,omitempty"`
	OverdueAt   *time.Time `bson:"overdue_at,omitempty" json:"overdue_at,omitempty"`
}

// RankSnapshot is the denormalized "current belt / current level" stamp kept on
// the member so list screens never need a join. It is rewritten whenever an
// award is granted.
type RankSnapshot struct {
	LevelID   primitive.ObjectID `bson:"level_id" json:"level_id"`
	Name      string             `bson:"name" json:"name"`
	AwardedAt time.Time          `bson:"awarded_at" json:"awarded_at"`
}

// VisitCounters tracks attendance. Month resets are handled lazily by the
// check-in path comparing MonthStamp ("2006-01") against the current month.
type VisitCounters struct {
	Total      int    `bson:"total" json:"total"`
	Month      int    `bson:"month" json:"month"`
	MonthStamp string `bson:"month_stamp,omitempty" json:"month_stamp,omitempty"`
}

// Member represents a gym member. Members are never physically deleted;
// deactivation clears Active and records who did it and when.
type Member struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FirstName  string             `bson:"first_name" json:"first_name"`
	LastName   string             `bson:"last_name" json:"last_name"`
	FullNameCI string             `bson:"full_name_ci" json:"full_name_ci"` // lowercase, diacritics-stripped
	Email      string             `bson:"email" json:"email"`
	Phone      string             `bson:"phone" json:"phone"`

	Emergency EmergencyContact `bson:"emergency" json:"emergency"`
	Address   Address          `bson:"address,omitempty" json:"address,omitempty"`

	Membership   Membership    `bson:"membership" json:"membership"`
	WaiverSigned bool          `bson:"waiver_signed" json:"waiver_signed"`
	Tags         []string      `bson:"tags,omitempty" json:"tags,omitempty"`
	Visits       VisitCounters `bson:"visits" json:"visits"`

	CurrentBelt  *RankSnapshot `bson:"current_belt,omitempty" json:"current_belt,omitempty"`
	CurrentLevel *RankSnapshot `bson:"current_level,omitempty" json:"current_level,omitempty"`

	Active        bool                `bson:"active" json:"active"`
	DeactivatedAt *time.Time          `bson:"deactivated_at,omitempty" json:"deactivated_at,omitempty"`
	DeactivatedBy *primitive.ObjectID `bson:"deactivated_by,omitempty" json:"deactivated_by,omitempty"`

	CreatedBy primitive.ObjectID `bson:"created_by,omitempty" json:"created_by,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// FullName returns the display name ("First Last").
func (m Member) FullName() string {
	if m.FirstName == "" {
		return m.LastName
	}
	if m.LastName == "" {
		return m.FirstName
	}
	return m.FirstName + " " + m.LastName
}
