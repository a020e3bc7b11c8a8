// internal/app/store/beltlevels/store.go
package beltlevelstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/dojohub/internal/app/system/normalize"
	"github.com/dalemusser/dojohub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	// ErrDuplicate is returned when the (style, name) pair already exists.
	ErrDuplicate = errors.New("a belt level with this name already exists for the style")
	// ErrNotFound is returned when the belt level does not exist.
	ErrNotFound = errors.New("belt level not found")

	errMissingName  = errors.New("belt level name is required")
	errMissingStyle = errors.New("belt level style is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("belt_levels")}
}

// EnsureIndexes creates the unique (style, name_ci) index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "style", Value: 1}, {Key: "name_ci", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_belt_levels_style_name"),
	})
	return err
}

// Create inserts a belt level. Belt levels are immutable afterwards; there is
// no update or delete.
func (s *Store) Create(ctx context.Context, b models.BeltLevel) (models.BeltLevel, error) {
	b.ID = primitive.NewObjectID()
	b.Name = normalize.Name(b.Name)
	b.NameCI = text.Fold(b.Name)
	b.Style = normalize.Tag(b.Style)
	if b.Name == "" {
		return models.BeltLevel{}, errMissingName
	}
	if b.Style == "" {
		return models.BeltLevel{}, errMissingStyle
	}
	b.CreatedAt = time.Now().UTC()

	if _, err := s.c.InsertOne(ctx, b); err != nil {
		if wafflemongo.IsDup(err) {
			return models.BeltLevel{}, ErrDuplicate
		}
		return models.BeltLevel{}, err
	}
	return b, nil
}

// GetByID loads a belt level. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.BeltLevel, error) {
	var b models.BeltLevel
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&b); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &b, nil
}

// List returns every belt level ordered by style, then rank.
func (s *Store) List(ctx context.Context) ([]models.BeltLevel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "style", Value: 1}, {Key: "rank", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.BeltLevel
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// ListByStyle returns the belt ladder for one style, rank ascending.
func (s *Store) ListByStyle(ctx context.Context, style string) ([]models.BeltLevel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "rank", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{"style": normalize.Tag(style)}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.BeltLevel
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
