// internal/testutil/fixtures.go
package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/dojohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
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

// CreateMember inserts a test member with sensible defaults. Fields that
// vary per test come from the caller; everything else is filled in.
func (f *Fixtures) CreateMember(ctx context.Context, first, last, email string) models.Member {
	f.t.Helper()

	now := time.Now().UTC()
	m := models.Member{
		ID:         primitive.NewObjectID(),
		FirstName:  first,
		LastName:   last,
		FullNameCI: text.Fold(first + " " + last),
		Email:      email,
		Phone:      "+15550000000",
		Membership: models.Membership{
			Type:   models.MembershipRecurring,
			Status: models.StatusNone,
		},
		Active:    true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("members").InsertOne(ctx, m); err != nil {
		f.t.Fatalf("insert test member: %v", err)
	}
	return m
}

// CreateBeltLevel inserts a belt taxonomy entry.
func (f *Fixtures) CreateBeltLevel(ctx context.Context, name, style string, rank int) models.BeltLevel {
	f.t.Helper()

	b := models.BeltLevel{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Style:     style,
		Rank:      rank,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("belt_levels").InsertOne(ctx, b); err != nil {
		f.t.Fatalf("insert test belt level: %v", err)
	}
	return b
}

// CreateStudentLevel inserts a student-level taxonomy entry.
func (f *Fixtures) CreateStudentLevel(ctx context.Context, name string, rank int) models.StudentLevel {
	f.t.Helper()

	l := models.StudentLevel{
		ID:        primitive.NewObjectID(),
		Name:      name,
		NameCI:    text.Fold(name),
		Rank:      rank,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := f.db.Collection("student_levels").InsertOne(ctx, l); err != nil {
		f.t.Fatalf("insert test student level: %v", err)
	}
	return l
}

// CreateClassSession inserts a class on the calendar.
func (f *Fixtures) CreateClassSession(ctx context.Context, name string, startsAt time.Time) models.ClassSession {
	f.t.Helper()

	now := time.Now().UTC()
	cs := models.ClassSession{
		ID:          primitive.NewObjectID(),
		Name:        name,
		NameCI:      text.Fold(name),
		StartsAt:    startsAt,
		DurationMin: 60,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if _, err := f.db.Collection("class_sessions").InsertOne(ctx, cs); err != nil {
		f.t.Fatalf("insert test class session: %v", err)
	}
	return cs
}
