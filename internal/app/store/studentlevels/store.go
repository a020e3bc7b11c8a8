// internal/app/store/studentlevels/store.go
package studentlevelstore

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
	// ErrDuplicate is returned when a level with this name already exists.
	ErrDuplicate = errors.New("a student level with this name already exists")
	// ErrNotFound is returned when the student level does not exist.
	ErrNotFound = errors.New("student level not found")

	errMissingName = errors.New("student level name is required")
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("student_levels")}
}

// EnsureIndexes creates the unique name_ci index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "name_ci", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_student_levels_name"),
	})
	return err
}

// Create inserts a student level. Immutable afterwards.
func (s *Store) Create(ctx context.Context, l models.StudentLevel) (models.StudentLevel, error) {
	l.ID = primitive.NewObjectID()
	l.Name = normalize.Name(l.Name)
	l.NameCI = text.Fold(l.Name)
	if l.Name == "" {
		return models.StudentLevel{}, errMissingName
	}
	l.CreatedAt = time.Now().UTC()

	if _, err := s.c.InsertOne(ctx, l); err != nil {
		if wafflemongo.IsDup(err) {
			return models.StudentLevel{}, ErrDuplicate
		}
		return models.StudentLevel{}, err
	}
	return l, nil
}

// GetByID loads a student level. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.StudentLevel, error) {
	var l models.StudentLevel
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&l); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

// List returns every student level, rank ascending.
func (s *Store) List(ctx context.Context) ([]models.StudentLevel, error) {
	opts := options.Find().SetSort(bson.D{{Key: "rank", Value: 1}})
	cur, err := s.c.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.StudentLevel
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
