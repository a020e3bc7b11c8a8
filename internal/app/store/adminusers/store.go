// internal/app/store/adminusers/store.go
package adminuserstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/dojohub/internal/app/system/normalize"
	"github.com/dalemusser/dojohub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

var (
	// ErrDuplicateEmail is returned when an admin with this email exists.
	ErrDuplicateEmail = errors.New("an admin with this email already exists")
	// ErrNotFound is returned when the admin user does not exist.
	ErrNotFound = errors.New("admin user not found")

	errBadEmail = errors.New("a valid email is required")
	errBadRole  = errors.New("role must be owner or staff")
)

// Admin roles.
const (
	RoleOwner = "owner"
	RoleStaff = "staff"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("admin_users")}
}

// EnsureIndexes creates the unique email index.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	_, err := s.c.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_admin_users_email"),
	})
	return err
}

// Create inserts an admin user, hashing the supplied password.
func (s *Store) Create(ctx context.Context, u models.AdminUser, password string) (models.AdminUser, error) {
	u.ID = primitive.NewObjectID()
	u.Email = normalize.Email(u.Email)
	u.FullName = normalize.Name(u.FullName)
	u.FullNameCI = text.Fold(u.FullName)
	if !validate.SimpleEmailValid(u.Email) {
		return models.AdminUser{}, errBadEmail
	}
	if u.Role != RoleOwner && u.Role != RoleStaff {
		return models.AdminUser{}, errBadRole
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.AdminUser{}, err
	}
	u.PasswordHash = hash
	if u.Status == "" {
		u.Status = "active"
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.AdminUser{}, ErrDuplicateEmail
		}
		return models.AdminUser{}, err
	}
	return u, nil
}

// GetByEmail loads an admin by normalized email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.AdminUser, error) {
	var u models.AdminUser
	err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&u)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// GetByID loads an admin by id.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.AdminUser, error) {
	var u models.AdminUser
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

// Authenticate verifies email+password and returns the admin on success.
// Callers get ErrNotFound for both unknown emails and bad passwords so the
// login form cannot be used to probe for accounts.
func (s *Store) Authenticate(ctx context.Context, email, password string) (*models.AdminUser, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u.Status != "active" {
		return nil, ErrNotFound
	}
	if bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(password)) != nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// Count returns the number of admin accounts. Bootstrap uses a zero count to
// decide whether to seed the initial owner.
func (s *Store) Count(ctx context.Context) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{})
}
