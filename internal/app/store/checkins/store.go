// internal/app/store/checkins/store.go
package checkinstore

import (
	"context"
	"time"

	"github.com/dalemusser/dojohub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Store persists individual check-ins. The rolled-up counters live on the
// member document; this collection is the per-visit history behind them.
type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("checkins")}
}

// EnsureIndexes creates the member history and session roster indexes.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "member_id", Value: 1}, {Key: "at", Value: -1}},
			Options: options.Index().SetName("idx_checkins_member_at"),
		},
		{
			Keys:    bson.D{{Key: "session_id", Value: 1}},
			Options: options.Index().SetName("idx_checkins_session"),
		},
	})
	return err
}

// Record inserts one check-in.
func (s *Store) Record(ctx context.Context, ci models.CheckIn) (models.CheckIn, error) {
	ci.ID = primitive.NewObjectID()
	if ci.At.IsZero() {
		ci.At = time.Now().UTC()
	}
	if _, err := s.c.InsertOne(ctx, ci); err != nil {
		return models.CheckIn{}, err
	}
	return ci, nil
}

// ForMember returns a member's check-ins since the cutoff, newest first.
func (s *Store) ForMember(ctx context.Context, memberID primitive.ObjectID, since time.Time) ([]models.CheckIn, error) {
	filter := bson.M{"member_id": memberID}
	if !since.IsZero() {
		filter["at"] = bson.M{"$gte": since}
	}
	opts := options.Find().SetSort(bson.D{{Key: "at", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.CheckIn
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountForSession returns the attendance count for a class session.
func (s *Store) CountForSession(ctx context.Context, sessionID primitive.ObjectID) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"session_id": sessionID})
}
