// internal/app/store/classsessions/store.go
package classsessionstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/dojohub/internal/app/system/normalize"
	"github.com/dalemusser/dojohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrNotFound is returned when the class session does not exist.
	ErrNotFound = errors.New("class session not found")

	errMissingName  = errors.New("class name is required")
	errMissingStart = errors.New("class start time is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("class_sessions")}
}

// EnsureIndexes creates the calendar index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "starts_at", Value: 1}},
		Options: options.Index().SetName("idx_class_sessions_starts"),
	})
	return err
}

// Create inserts a class session.
func (s *Store) Create(ctx context.Context, cs models.ClassSession) (models.ClassSession, error) {
	cs.ID = primitive.NewObjectID()
	cs.Name = normalize.Name(cs.Name)
	cs.NameCI = text.Fold(cs.Name)
	if cs.Name == "" {
		return models.ClassSession{}, errMissingName
	}
	if cs.StartsAt.IsZero() {
		return models.ClassSession{}, errMissingStart
	}
	now := time.Now().UTC()
	cs.CreatedAt = now
	cs.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, cs); err != nil {
		return models.ClassSession{}, err
	}
	return cs, nil
}

// GetByID loads a class session. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.ClassSession, error) {
	var cs models.ClassSession
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&cs); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &cs, nil
}

// Upcoming returns sessions starting at or after the cutoff, soonest first.
func (s *Store) Upcoming(ctx context.Context, from time.Time, limit int64) ([]models.ClassSession, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "starts_at", Value: 1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"starts_at": bson.M{"$gte": from}}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ClassSession
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Update rewrites the schedulable fields of a session. Returns ErrNotFound
// when absent.
func (s *Store) Update(ctx context.Context, id primitive.ObjectID, cs models.ClassSession) error {
	cs.Name = normalize.Name(cs.Name)
	cs.NameCI = text.Fold(cs.Name)
	if cs.Name == "" {
		return errMissingName
	}
	if cs.StartsAt.IsZero() {
		return errMissingStart
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"name":         cs.Name,
		"name_ci":      cs.NameCI,
		"style":        cs.Style,
		"starts_at":    cs.StartsAt,
		"duration_min": cs.DurationMin,
		"capacity":     cs.Capacity,
		"instructor":   cs.Instructor,
		"notes":        cs.Notes,
		"updated_at":   time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes a session from the calendar.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}
