// internal/app/store/awards/store.go
package awardstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/dojohub/internal/app/system/txn"
	"github.com/dalemusser/dojohub/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	// ErrMemberNotFound is returned when the target member does not exist or
	// has been deactivated.
	ErrMemberNotFound = errors.New("member not found")

	errBadKind = errors.New("unknown award kind")
)

// Store writes award history and keeps the member's denormalized rank
// snapshot in step with it. Both writes happen in one transaction where the
// server supports them.
type Store struct {
	client  *mongo.Client
	c       *mongo.Collection // awards
	members *mongo.Collection
	log     *zap.Logger
}

func New(db *mongo.Database, log *zap.Logger) *Store {
	return &Store{
		client:  db.Client(),
		c:       db.Collection("awards"),
		members: db.Collection("members"),
		log:     log,
	}
}

// EnsureIndexes creates the member history index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "member_id", Value: 1}, {Key: "granted_at", Value: -1}},
		Options: options.Index().SetName("idx_awards_member_granted"),
	})
	return err
}

// Grant records an award and rewrites the member's current belt or current
// level snapshot. The award row and the snapshot never diverge: either both
// writes land or neither does.
func (s *Store) Grant(ctx context.Context, a models.Award) (models.Award, error) {
	if a.Kind != models.AwardBelt && a.Kind != models.AwardStudentLevel {
		return models.Award{}, errBadKind
	}
	a.ID = primitive.NewObjectID()
	a.GrantedAt = time.Now().UTC()

	snapField := "current_belt"
	if a.Kind == models.AwardStudentLevel {
		snapField = "current_level"
	}
	snap := models.RankSnapshot{
		LevelID:   a.LevelID,
		Name:      a.LevelName,
		AwardedAt: a.GrantedAt,
	}

	err := txn.WithTransaction(ctx, s.client, s.log, func(sc context.Context) error {
		res, err := s.members.UpdateOne(sc,
			bson.M{"_id": a.MemberID, "active": true},
			bson.M{"$set": bson.M{
				snapField:    snap,
				"updated_at": a.GrantedAt,
			}},
		)
		if err != nil {
			return err
		}
		if res.MatchedCount == 0 {
			return ErrMemberNotFound
		}
		_, err = s.c.InsertOne(sc, a)
		return err
	})
	if err != nil {
		return models.Award{}, err
	}
	return a, nil
}

// History returns a member's awards, newest first.
func (s *Store) History(ctx context.Context, memberID primitive.ObjectID) ([]models.Award, error) {
	opts := options.Find().SetSort(bson.D{{Key: "granted_at", Value: -1}})
	cur, err := s.c.Find(ctx, bson.M{"member_id": memberID}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Award
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
