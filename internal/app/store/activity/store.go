// internal/app/store/activity/store.go
package activitystore

import (
	"context"
	"time"

	"github.com/dalemusser/dojohub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store is the append-only activity log. Entries are never updated or
// deleted; the member timeline is a straight read of this collection.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("activity_log")}
}

// EnsureIndexes creates the timeline index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "member_id", Value: 1}, {Key: "at", Value: -1}},
		Options: options.Index().SetName("idx_activity_member_at"),
	})
	return err
}

// Append records one activity entry.
func (s *Store) Append(ctx context.Context, e models.ActivityEntry) error {
	e.ID = primitive.NewObjectID()
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	_, err := s.c.InsertOne(ctx, e)
	return err
}

// ForMember returns a member's timeline, newest first, capped at limit.
func (s *Store) ForMember(ctx context.Context, memberID primitive.ObjectID, limit int64) ([]models.ActivityEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{"member_id": memberID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ActivityEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Recent returns the latest entries across all members, for the dashboard.
func (s *Store) Recent(ctx context.Context, limit int64) ([]models.ActivityEntry, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "at", Value: -1}}).
		SetLimit(limit)
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ActivityEntry
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
