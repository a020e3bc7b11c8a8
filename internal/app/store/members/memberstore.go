// internal/app/store/members/memberstore.go
package memberstore

import (
	"context"
	"errors"
	"time"

	"github.com/dalemusser/dojohub/internal/app/system/normalize"
	"github.com/dalemusser/dojohub/internal/app/system/txn"
	"github.com/dalemusser/dojohub/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

var (
	// ErrDuplicateEmail is returned when a member with the email already exists.
	ErrDuplicateEmail = errors.New("a member with this email already exists")
	// ErrNotFound is returned when the member does not exist.
	ErrNotFound = errors.New("member not found")

	errBadStatus = errors.New(`status must be "none"|"active"|"paused"|"overdue"`)
	errBadType   = errors.New(`membership type must be "recurring"|"prepaid"`)
)

type Store struct {
	client   *mongo.Client
	c        *mongo.Collection
	profiles *mongo.Collection
	log      *zap.Logger
}

func New(db *mongo.Database, logger *zap.Logger) *Store {
	return &Store{
		client:   db.Client(),
		c:        db.Collection("members"),
		profiles: db.Collection("portal_profiles"),
		log:      logger,
	}
}

// EnsureIndexes creates the indexes the list/search paths rely on.
func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("idx_members_email"),
		},
		{
			Keys:    bson.D{{Key: "active", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_members_active_created"),
		},
		{
			Keys:    bson.D{{Key: "full_name_ci", Value: 1}},
			Options: options.Index().SetName("idx_members_name_ci"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// CreateWithProfile inserts the member document and its portal profile in one
// transaction (both-or-neither on replica-set deployments). The member's
// normalized fields are filled in here.
func (s *Store) CreateWithProfile(ctx context.Context, m models.Member, p models.PortalProfile) (models.Member, error) {
	if m.ID.IsZero() {
		m.ID = primitive.NewObjectID()
	}
	m.FirstName = normalize.Name(m.FirstName)
	m.LastName = normalize.Name(m.LastName)
	m.FullNameCI = text.Fold(m.FullName())
	m.Email = normalize.Email(m.Email)
	m.Phone = normalize.Phone(m.Phone)
	m.Tags = normalize.Tags(m.Tags)
	if m.Membership.Status == "" {
		m.Membership.Status = models.StatusNone
	}
	if !models.ValidStatus(m.Membership.Status) {
		return models.Member{}, errBadStatus
	}
	switch m.Membership.Type {
	case models.MembershipRecurring, models.MembershipPrepaid:
	default:
		return models.Member{}, errBadType
	}
	m.Active = true

	now := time.Now().UTC()
	m.CreatedAt = now
	m.UpdatedAt = now

	p.ID = primitive.NewObjectID()
	p.MemberID = m.ID
	p.Email = m.Email
	p.DisplayName = m.FullName()
	p.CreatedAt = now

	err := txn.WithTransaction(ctx, s.client, s.log, func(ctx context.Context) error {
		if _, err := s.c.InsertOne(ctx, m); err != nil {
			return err
		}
		_, err := s.profiles.InsertOne(ctx, p)
		return err
	})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return models.Member{}, ErrDuplicateEmail
		}
		return models.Member{}, err
	}
	return m, nil
}

// GetByID loads a member by ObjectID. Returns ErrNotFound when absent.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (*models.Member, error) {
	var m models.Member
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// GetByEmail looks up a member by case-insensitive email.
func (s *Store) GetByEmail(ctx context.Context, email string) (*models.Member, error) {
	var m models.Member
	if err := s.c.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&m); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &m, nil
}

// ProfileFor returns the member's portal profile.
func (s *Store) ProfileFor(ctx context.Context, memberID primitive.ObjectID) (*models.PortalProfile, error) {
	var p models.PortalProfile
	if err := s.profiles.FindOne(ctx, bson.M{"member_id": memberID}).Decode(&p); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List returns active members plus members deactivated within the retention
// window, newest first.
func (s *Store) List(ctx context.Context, retention time.Duration) ([]models.Member, error) {
	filter := bson.M{"active": true}
	if retention > 0 {
		cutoff := time.Now().UTC().Add(-retention)
		filter = bson.M{"$or": bson.A{
			bson.M{"active": true},
			bson.M{"active": false, "deactivated_at": bson.M{"$gte": cutoff}},
		}}
	}
	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Member
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Patch holds the optional updates for a member. Nil fields are left alone.
// Membership sub-fields are merged against the stored membership snapshot by
// ApplyPatch, never against zero values.
type Patch struct {
	FirstName *string
	LastName  *string
	Email     *string
	Phone     *string
	Emergency *models.EmergencyContact
	Address   *models.Address
	Waiver    *bool
	Tags      *[]string

	MembershipType *string
	AmountCents    *int64
	Credits        *int
	AutoRenew      *bool
}

// ApplyPatch merges the patch into the stored member. The current document is
// loaded first so partial membership updates never clobber sibling fields.
func (s *Store) ApplyPatch(ctx context.Context, id primitive.ObjectID, p Patch) error {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	set := bson.M{"updated_at": time.Now().UTC()}

	first, last := cur.FirstName, cur.LastName
	if p.FirstName != nil {
		first = normalize.Name(*p.FirstName)
		set["first_name"] = first
	}
	if p.LastName != nil {
		last = normalize.Name(*p.LastName)
		set["last_name"] = last
	}
	if p.FirstName != nil || p.LastName != nil {
		set["full_name_ci"] = text.Fold(models.Member{FirstName: first, LastName: last}.FullName())
	}
	if p.Email != nil {
		set["email"] = normalize.Email(*p.Email)
	}
	if p.Phone != nil {
		set["phone"] = normalize.Phone(*p.Phone)
	}
	if p.Emergency != nil {
		set["emergency"] = *p.Emergency
	}
	if p.Address != nil {
		set["address"] = *p.Address
	}
	if p.Waiver != nil {
		set["waiver_signed"] = *p.Waiver
	}
	if p.Tags != nil {
		set["tags"] = normalize.Tags(*p.Tags)
	}

	// Merge membership sub-fields against the stored snapshot.
	ms := cur.Membership
	touched := false
	if p.MembershipType != nil {
		switch *p.MembershipType {
		case models.MembershipRecurring, models.MembershipPrepaid:
		default:
			return errBadType
		}
		ms.Type = *p.MembershipType
		touched = true
	}
	if p.AmountCents != nil {
		ms.AmountCents = *p.AmountCents
		touched = true
	}
	if p.Credits != nil {
		ms.Credits = *p.Credits
		touched = true
	}
	if p.AutoRenew != nil {
		ms.AutoRenew = *p.AutoRenew
		touched = true
	}
	if touched {
		set["membership"] = ms
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateEmail
		}
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// SetStatus performs an unguarded status transition and stamps the matching
// side-effect timestamp. Any status may move to any other; manual overrides
// are always allowed.
func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status, reason string) error {
	status = normalize.Status(status)
	if !models.ValidStatus(status) {
		return errBadStatus
	}

	now := time.Now().UTC()
	set := bson.M{
		"membership.status": status,
		"updated_at":        now,
	}
	switch status {
	case models.StatusActive:
		set["membership.started_at"] = now
	case models.StatusPaused:
		set["membership.paused_at"] = now
		if reason != "" {
			set["membership.pause_reason"] = reason
		}
	case models.StatusOverdue:
		set["membership.overdue_at"] = now
	}

	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// Deactivate soft-deletes the member: active cleared, actor and time
// recorded. Awards, activity, and check-ins are left untouched.
func (s *Store) Deactivate(ctx context.Context, id, actorID primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{
		"active":         false,
		"deactivated_at": now,
		"deactivated_by": actorID,
		"updated_at":     now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// BumpVisit increments the visit counters, resetting the month counter when
// the calendar month has rolled over since the last check-in.
func (s *Store) BumpVisit(ctx context.Context, id primitive.ObjectID, at time.Time) error {
	cur, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	stamp := at.UTC().Format("2006-01")
	month := cur.Visits.Month + 1
	if cur.Visits.MonthStamp != stamp {
		month = 1
	}

	_, err = s.c.UpdateOne(ctx, bson.M{"_id": id}, bson.M{
		"$inc": bson.M{"visits.total": 1},
		"$set": bson.M{
			"visits.month":       month,
			"visits.month_stamp": stamp,
			"updated_at":         time.Now().UTC(),
		},
	})
	return err
}
