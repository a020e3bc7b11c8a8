// internal/app/memberdata/service.go
//
// Package memberdata is the member-facing service layer: every console
// feature that touches member records goes through it. It owns the read
// cache, coalesces redundant writes through the batcher, and keeps member
// documents, portal credentials, and the activity log consistent with each
// other.
package memberdata

import (
	"context"
	"errors"
	"strings"
	"time"

	awardstore "github.com/dalemusser/dojohub/internal/app/store/awards"
	beltlevelstore "github.com/dalemusser/dojohub/internal/app/store/beltlevels"
	checkinstore "github.com/dalemusser/dojohub/internal/app/store/checkins"
	memberstore "github.com/dalemusser/dojohub/internal/app/store/members"
	studentlevelstore "github.com/dalemusser/dojohub/internal/app/store/studentlevels"
	"github.com/dalemusser/dojohub/internal/app/system/activitylog"
	"github.com/dalemusser/dojohub/internal/app/system/batch"
	"github.com/dalemusser/dojohub/internal/app/system/cache"
	"github.com/dalemusser/dojohub/internal/app/system/credentials"
	"github.com/dalemusser/dojohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/validate"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// RetentionWindow is how long deactivated members stay visible in list
// results before disappearing from the console.
const RetentionWindow = 30 * 24 * time.Hour

// Cache keys.
const keyAllMembers = "members:all"

func memberKey(id primitive.ObjectID) string { return "members:id:" + id.Hex() }

// Batch keys. One window per operation family; distinct argument tuples
// within a window still execute independently.
const (
	batchKeyUpdate = "member:update"
	batchKeyStatus = "member:status"
)

// The store contracts are unexported interfaces so tests can swap in fakes
// without a live database.

type memberStore interface {
	CreateWithProfile(ctx context.Context, m models.Member, p models.PortalProfile) (models.Member, error)
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.Member, error)
	List(ctx context.Context, retention time.Duration) ([]models.Member, error)
	ApplyPatch(ctx context.Context, id primitive.ObjectID, p memberstore.Patch) error
	SetStatus(ctx context.Context, id primitive.ObjectID, status, reason string) error
	Deactivate(ctx context.Context, id, actorID primitive.ObjectID) error
	BumpVisit(ctx context.Context, id primitive.ObjectID, at time.Time) error
	ProfileFor(ctx context.Context, memberID primitive.ObjectID) (*models.PortalProfile, error)
}

type awardStore interface {
	Grant(ctx context.Context, a models.Award) (models.Award, error)
	History(ctx context.Context, memberID primitive.ObjectID) ([]models.Award, error)
}

type beltLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.BeltLevel, error)
}

type levelLookup interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (*models.StudentLevel, error)
}

type checkinStore interface {
	Record(ctx context.Context, ci models.CheckIn) (models.CheckIn, error)
}

// Service is the member data-access layer.
type Service struct {
	members  memberStore
	awards   awardStore
	belts    beltLookup
	levels   levelLookup
	checkins checkinStore
	issuer   credentials.Issuer

	cache    *cache.Cache
	batch    *batch.Batcher
	activity *activitylog.Recorder
	log      *zap.Logger
}

// Deps carries the constructed collaborators. Bootstrap fills it from the
// live database; tests fill it with fakes.
type Deps struct {
	Members  *memberstore.Store
	Awards   *awardstore.Store
	Belts    *beltlevelstore.Store
	Levels   *studentlevelstore.Store
	Checkins *checkinstore.Store
	Issuer   credentials.Issuer
	Cache    *cache.Cache
	Batcher  *batch.Batcher
	Activity *activitylog.Recorder
	Log      *zap.Logger
}

func New(d Deps) *Service {
	return &Service{
		members:  d.Members,
		awards:   d.Awards,
		belts:    d.Belts,
		levels:   d.Levels,
		checkins: d.Checkins,
		issuer:   d.Issuer,
		cache:    d.Cache,
		batch:    d.Batcher,
		activity: d.Activity,
		log:      d.Log,
	}
}

// NewMember is the create-member input.
type NewMember struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string

	Emergency models.EmergencyContact
	Address   models.Address

	MembershipType string
	AmountCents    int64
	Credits        int
	AutoRenew      bool

	WaiverSigned bool
	Tags         []string

	CreatedBy primitive.ObjectID
}

// validate re-checks what the form handlers already enforce: the service is
// the last line before a credential gets minted, so malformed input must not
// reach the issuer.
func (in NewMember) validate() error {
	if strings.TrimSpace(in.FirstName) == "" && strings.TrimSpace(in.LastName) == "" {
		return errors.New("a name is required")
	}
	if !validate.SimpleEmailValid(strings.TrimSpace(in.Email)) {
		return errors.New("a valid email is required")
	}
	return nil
}

// CreateMember mints a portal credential, then writes the member document and
// its portal profile in one transaction. The generated password is returned
// exactly once for the staff member to hand over; it is never stored in
// plain text.
//
// If the document write fails after the credential was minted, the credential
// is disabled and its sessions revoked so no orphaned login survives.
func (s *Service) CreateMember(ctx context.Context, in NewMember) (models.Member, string, error) {
	const op = "memberdata.CreateMember"

	if err := in.validate(); err != nil {
		return models.Member{}, "", wrap(KindInvalid, op, err)
	}

	m := models.Member{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     in.Email,
		Phone:     in.Phone,
		Emergency: in.Emergency,
		Address:   in.Address,
		Membership: models.Membership{
			Type:        in.MembershipType,
			Status:      models.StatusNone,
			AmountCents: in.AmountCents,
			Credits:     in.Credits,
			AutoRenew:   in.AutoRenew,
		},
		WaiverSigned: in.WaiverSigned,
		Tags:         in.Tags,
		CreatedBy:    in.CreatedBy,
	}

	password := credentials.GeneratePassword()
	ident, err := s.issuer.CreateIdentity(ctx, in.Email, password)
	if err != nil {
		switch {
		case errors.Is(err, credentials.ErrDuplicateEmail):
			return models.Member{}, "", wrap(KindDuplicate, op, err)
		case errors.Is(err, credentials.ErrInvalidEmail):
			return models.Member{}, "", wrap(KindInvalid, op, err)
		default:
			return models.Member{}, "", wrap(KindCredentialDenied, op, err)
		}
	}

	profile := models.PortalProfile{
		CredentialID: ident.ID,
		Email:        ident.Email,
		DisplayName:  m.FullName(),
	}

	stored, err := s.members.CreateWithProfile(ctx, m, profile)
	if err != nil {
		s.revokeCredential(ctx, ident.ID)
		if errors.Is(err, memberstore.ErrDuplicateEmail) {
			return models.Member{}, "", wrap(KindDuplicate, op, err)
		}
		return models.Member{}, "", wrap(KindUnavailable, op, err)
	}

	if err := s.issuer.UpdateDisplayName(ctx, ident.ID, stored.FullName()); err != nil {
		s.log.Warn("display name update failed", zap.Error(err))
	}

	s.invalidate(stored.ID)
	s.activity.Record(ctx, stored.ID, in.CreatedBy, models.EventMemberCreated, map[string]string{
		"name": stored.FullName(),
	})
	return stored, password, nil
}

// revokeCredential is the compensating action for a failed member write.
// Both failures are logged and dropped; the caller already has a better
// error to report.
func (s *Service) revokeCredential(ctx context.Context, credentialID string) {
	if err := s.issuer.Disable(ctx, credentialID); err != nil {
		s.log.Error("orphaned credential could not be disabled",
			zap.String("credential_id", credentialID), zap.Error(err))
	}
	if err := s.issuer.SignOutAll(ctx, credentialID); err != nil {
		s.log.Warn("session revocation failed",
			zap.String("credential_id", credentialID), zap.Error(err))
	}
}

// ListMembers returns active members plus recently deactivated ones, served
// from the cache. The list entry refreshes itself in the background so the
// console roster stays warm.
func (s *Service) ListMembers(ctx context.Context) ([]models.Member, error) {
	const op = "memberdata.ListMembers"
	out, err := cache.GetAs(ctx, s.cache, keyAllMembers, func(ctx context.Context) ([]models.Member, error) {
		return s.members.List(ctx, RetentionWindow)
	}, true)
	if err != nil {
		return nil, wrap(KindUnavailable, op, err)
	}
	return out, nil
}

// GetMember returns one member, served from the cache.
func (s *Service) GetMember(ctx context.Context, id primitive.ObjectID) (*models.Member, error) {
	const op = "memberdata.GetMember"
	m, err := cache.GetAs(ctx, s.cache, memberKey(id), func(ctx context.Context) (*models.Member, error) {
		return s.members.GetByID(ctx, id)
	}, false)
	if err != nil {
		if errors.Is(err, memberstore.ErrNotFound) {
			return nil, wrap(KindNotFound, op, err)
		}
		return nil, wrap(KindUnavailable, op, err)
	}
	return m, nil
}

// SubscribeMember registers fn to run when the member's cache entry is next
// repopulated. The returned function cancels the subscription.
func (s *Service) SubscribeMember(id primitive.ObjectID, fn func(*models.Member)) func() {
	return s.cache.Subscribe(memberKey(id), func(v any) {
		if m, ok := v.(*models.Member); ok {
			fn(m)
		}
	})
}

// UpdateMember applies a partial update. Identical updates to the same
// member landing within the batch window run once.
func (s *Service) UpdateMember(ctx context.Context, id primitive.ObjectID, p memberstore.Patch) error {
	const op = "memberdata.UpdateMember"
	_, err := s.batch.Do(ctx, batchKeyUpdate, func(ctx context.Context, args []any) (any, error) {
		mid := args[0].(primitive.ObjectID)
		patch := args[1].(memberstore.Patch)
		if err := s.members.ApplyPatch(ctx, mid, patch); err != nil {
			return nil, err
		}
		s.invalidate(mid)
		return nil, nil
	}, id, p)
	if err != nil {
		switch {
		case errors.Is(err, memberstore.ErrNotFound):
			return wrap(KindNotFound, op, err)
		case errors.Is(err, memberstore.ErrDuplicateEmail):
			return wrap(KindDuplicate, op, err)
		default:
			return wrap(KindUnavailable, op, err)
		}
	}
	return nil
}

// UpdateMembershipStatus moves a member to the given status. Transitions are
// deliberately unguarded: front-desk staff may need to force any state, so
// every status can move to every other. Duplicate transitions within the
// batch window collapse to one write.
func (s *Service) UpdateMembershipStatus(ctx context.Context, id primitive.ObjectID, status, reason string, actorID primitive.ObjectID) error {
	const op = "memberdata.UpdateMembershipStatus"

	before, err := s.members.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, memberstore.ErrNotFound) {
			return wrap(KindNotFound, op, err)
		}
		return wrap(KindUnavailable, op, err)
	}

	_, err = s.batch.Do(ctx, batchKeyStatus, func(ctx context.Context, args []any) (any, error) {
		mid := args[0].(primitive.ObjectID)
		st := args[1].(string)
		rs := args[2].(string)
		if err := s.members.SetStatus(ctx, mid, st, rs); err != nil {
			return nil, err
		}
		s.invalidate(mid)
		return nil, nil
	}, id, status, reason)
	if err != nil {
		switch {
		case errors.Is(err, memberstore.ErrNotFound):
			return wrap(KindNotFound, op, err)
		default:
			return wrap(KindUnavailable, op, err)
		}
	}

	s.activity.Record(ctx, id, actorID, models.EventStatusChanged, map[string]string{
		"from": before.Membership.Status,
		"to":   status,
	})
	return nil
}

// DeactivateMember soft-deletes the member and cuts portal access: the
// credential is disabled and every portal session revoked. The member's
// awards, check-ins, and activity history are preserved.
func (s *Service) DeactivateMember(ctx context.Context, id, actorID primitive.ObjectID) error {
	const op = "memberdata.DeactivateMember"

	if err := s.members.Deactivate(ctx, id, actorID); err != nil {
		if errors.Is(err, memberstore.ErrNotFound) {
			return wrap(KindNotFound, op, err)
		}
		return wrap(KindUnavailable, op, err)
	}

	// Portal access removal is best-effort once the soft delete has landed.
	if profile, err := s.members.ProfileFor(ctx, id); err == nil {
		s.revokeCredential(ctx, profile.CredentialID)
	} else if !errors.Is(err, memberstore.ErrNotFound) {
		s.log.Warn("portal profile lookup failed on deactivate",
			zap.String("member_id", id.Hex()), zap.Error(err))
	}

	s.invalidate(id)
	s.activity.Record(ctx, id, actorID, models.EventMemberDeactivated, nil)
	return nil
}

// AwardBelt grants a belt and rewrites the member's current-belt snapshot.
func (s *Service) AwardBelt(ctx context.Context, memberID, beltID, actorID primitive.ObjectID, notes string) (models.Award, error) {
	const op = "memberdata.AwardBelt"

	belt, err := s.belts.GetByID(ctx, beltID)
	if err != nil {
		if errors.Is(err, beltlevelstore.ErrNotFound) {
			return models.Award{}, wrap(KindNotFound, op, err)
		}
		return models.Award{}, wrap(KindUnavailable, op, err)
	}

	a, err := s.grant(ctx, models.Award{
		MemberID:  memberID,
		Kind:      models.AwardBelt,
		LevelID:   belt.ID,
		LevelName: belt.Name,
		GrantedBy: actorID,
		Notes:     notes,
	}, op)
	if err != nil {
		return models.Award{}, err
	}

	s.activity.Record(ctx, memberID, actorID, models.EventBeltAwarded, map[string]string{
		"level": belt.Name,
	})
	return a, nil
}

// AwardStudentLevel grants a student level and rewrites the member's
// current-level snapshot.
func (s *Service) AwardStudentLevel(ctx context.Context, memberID, levelID, actorID primitive.ObjectID, notes string) (models.Award, error) {
	const op = "memberdata.AwardStudentLevel"

	level, err := s.levels.GetByID(ctx, levelID)
	if err != nil {
		if errors.Is(err, studentlevelstore.ErrNotFound) {
			return models.Award{}, wrap(KindNotFound, op, err)
		}
		return models.Award{}, wrap(KindUnavailable, op, err)
	}

	a, err := s.grant(ctx, models.Award{
		MemberID:  memberID,
		Kind:      models.AwardStudentLevel,
		LevelID:   level.ID,
		LevelName: level.Name,
		GrantedBy: actorID,
		Notes:     notes,
	}, op)
	if err != nil {
		return models.Award{}, err
	}

	s.activity.Record(ctx, memberID, actorID, models.EventLevelAwarded, map[string]string{
		"level": level.Name,
	})
	return a, nil
}

func (s *Service) grant(ctx context.Context, a models.Award, op string) (models.Award, error) {
	out, err := s.awards.Grant(ctx, a)
	if err != nil {
		if errors.Is(err, awardstore.ErrMemberNotFound) {
			return models.Award{}, wrap(KindNotFound, op, err)
		}
		return models.Award{}, wrap(KindUnavailable, op, err)
	}
	s.invalidate(a.MemberID)
	return out, nil
}

// MemberAwards returns a member's award history, newest first.
func (s *Service) MemberAwards(ctx context.Context, memberID primitive.ObjectID) ([]models.Award, error) {
	const op = "memberdata.MemberAwards"
	out, err := s.awards.History(ctx, memberID)
	if err != nil {
		return nil, wrap(KindUnavailable, op, err)
	}
	return out, nil
}

// RecordCheckIn logs attendance: visit counters bump, a check-in row is
// written, and prepaid members burn one class credit. Deactivated members
// are rejected.
func (s *Service) RecordCheckIn(ctx context.Context, memberID, sessionID, actorID primitive.ObjectID) error {
	const op = "memberdata.RecordCheckIn"

	m, err := s.members.GetByID(ctx, memberID)
	if err != nil {
		if errors.Is(err, memberstore.ErrNotFound) {
			return wrap(KindNotFound, op, err)
		}
		return wrap(KindUnavailable, op, err)
	}
	if !m.Active {
		return wrap(KindInvalid, op, errors.New("member is deactivated"))
	}

	now := time.Now().UTC()
	if err := s.members.BumpVisit(ctx, memberID, now); err != nil {
		return wrap(KindUnavailable, op, err)
	}
	if _, err := s.checkins.Record(ctx, models.CheckIn{
		MemberID:  memberID,
		SessionID: sessionID,
		At:        now,
	}); err != nil {
		return wrap(KindUnavailable, op, err)
	}

	if m.Membership.Type == models.MembershipPrepaid && m.Membership.Credits > 0 {
		credits := m.Membership.Credits - 1
		if err := s.members.ApplyPatch(ctx, memberID, memberstore.Patch{Credits: &credits}); err != nil {
			s.log.Warn("credit decrement failed",
				zap.String("member_id", memberID.Hex()), zap.Error(err))
		}
	}

	s.invalidate(memberID)
	s.activity.Record(ctx, memberID, actorID, models.EventCheckIn, nil)
	return nil
}

// invalidate drops the member's cache entries after a write. Subscribed
// entries become placeholders and notify on the next read.
func (s *Service) invalidate(id primitive.ObjectID) {
	s.cache.Delete(memberKey(id))
	s.cache.Delete(keyAllMembers)
}

// CacheStats exposes cache counters for the admin screen.
func (s *Service) CacheStats() cache.Stats { return s.cache.GetStats() }

// ClearCache drops every cached entry.
func (s *Service) ClearCache() { s.cache.Clear() }
