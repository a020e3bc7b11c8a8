// internal/app/system/credentials/mongoissuer.go
package credentials

import (
	"context"
	"time"

	"github.com/dalemusser/dojohub/internal/app/system/normalize"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/validate"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is the floor the issuer enforces on new identities.
const MinPasswordLength = 8

// MongoIssuer stores portal credentials in their own collection, hashed with
// bcrypt. Portal sessions live in portal_sessions, separate from the admin
// cookie sessions, which is what makes SignOutAll safe to call while an admin
// is signed in.
type MongoIssuer struct {
	creds    *mongo.Collection
	sessions *mongo.Collection
}

// NewMongoIssuer constructs the production Issuer.
func NewMongoIssuer(db *mongo.Database) *MongoIssuer {
	return &MongoIssuer{
		creds:    db.Collection("portal_credentials"),
		sessions: db.Collection("portal_sessions"),
	}
}

// CreateIdentity mints a new portal login. Returns ErrInvalidEmail,
// ErrWeakPassword, or ErrDuplicateEmail per the taxonomy; any other error is
// a store failure.
func (m *MongoIssuer) CreateIdentity(ctx context.Context, email, password string) (Identity, error) {
	email = normalize.Email(email)
	if !validate.SimpleEmailValid(email) {
		return Identity{}, ErrInvalidEmail
	}
	if len(password) < MinPasswordLength {
		return Identity{}, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return Identity{}, err
	}

	id := Identity{
		ID:          uuid.NewString(),
		Email:       email,
		DisplayName: "",
		CreatedAt:   time.Now().UTC(),
	}
	doc := bson.M{
		"_id":           id.ID,
		"email":         id.Email,
		"display_name":  id.DisplayName,
		"password_hash": hash,
		"disabled":      false,
		"created_at":    id.CreatedAt,
	}
	if _, err := m.creds.InsertOne(ctx, doc); err != nil {
		if wafflemongo.IsDup(err) {
			return Identity{}, ErrDuplicateEmail
		}
		return Identity{}, err
	}
	return id, nil
}

// UpdateDisplayName sets the display name on an existing identity.
func (m *MongoIssuer) UpdateDisplayName(ctx context.Context, id, name string) error {
	res, err := m.creds.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"display_name": normalize.Name(name)}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Disable marks the identity unusable. Idempotent.
func (m *MongoIssuer) Disable(ctx context.Context, id string) error {
	res, err := m.creds.UpdateOne(ctx,
		bson.M{"_id": id},
		bson.M{"$set": bson.M{"disabled": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SignOutAll deletes every portal session for the identity. The admin's own
// session is cookie-based and never stored here, so it is untouched.
func (m *MongoIssuer) SignOutAll(ctx context.Context, id string) error {
	_, err := m.sessions.DeleteMany(ctx, bson.M{"credential_id": id})
	return err
}

// VerifyPassword checks a portal login attempt. Disabled identities never
// verify. Used by the (out-of-scope here) member portal, and by tests.
func (m *MongoIssuer) VerifyPassword(ctx context.Context, email, password string) (Identity, error) {
	var doc struct {
		Identity     `bson:",inline"`
		PasswordHash []byte `bson:"password_hash"`
	}
	err := m.creds.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return Identity{}, ErrNotFound
	}
	if err != nil {
		return Identity{}, err
	}
	if doc.Disabled {
		return Identity{}, ErrNotFound
	}
	if err := bcrypt.CompareHashAndPassword(doc.PasswordHash, []byte(password)); err != nil {
		return Identity{}, ErrNotFound
	}
	return doc.Identity, nil
}

// PurgeExpiredSessions deletes portal sessions whose expiry has passed.
// A backup for when MongoDB's TTL cleanup is delayed.
func (m *MongoIssuer) PurgeExpiredSessions(ctx context.Context, before time.Time) (int64, error) {
	res, err := m.sessions.DeleteMany(ctx, bson.M{"expires_at": bson.M{"$lt": before}})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// EnsureIndexes creates the unique email index backing ErrDuplicateEmail.
func (m *MongoIssuer) EnsureIndexes(ctx context.Context) error {
	_, err := m.creds.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("idx_portal_credentials_email"),
	})
	return err
}
