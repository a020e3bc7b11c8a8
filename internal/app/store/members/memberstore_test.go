// internal/app/store/members/memberstore_test.go
package memberstore

import (
	"errors"
	"testing"
	"time"

	"github.com/dalemusser/dojohub/internal/domain/models"
	"github.com/dalemusser/dojohub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	db := testutil.SetupTestDB(t)
	s := New(db, zap.NewNop())
	if err := s.EnsureIndexes(testutil.TestContext(t)); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	return s
}

func sampleMember(email string) models.Member {
	return models.Member{
		FirstName: "Ana",
		LastName:  "Silva",
		Email:     email,
		Phone:     "(555) 123-4567",
		Membership: models.Membership{
			Type:        models.MembershipRecurring,
			Status:      models.StatusNone,
			AmountCents: 9900,
		},
	}
}

func sampleProfile(email string) models.PortalProfile {
	return models.PortalProfile{
		CredentialID: primitive.NewObjectID().Hex(),
		Email:        email,
		DisplayName:  "Ana Silva",
	}
}

func TestCreateWithProfile_WritesBothDocuments(t *testing.T) {
	s := newTestStore(t)
	ctx := testutil.TestContext(t)

	m, err := s.CreateWithProfile(ctx, sampleMember("Ana.Silva@Example.COM"), sampleProfile("ana.silva@example.com"))
	if err != nil {
		t.Fatalf("CreateWithProfile: %v", err)
	}
	if m.Email != "ana.silva@example.com" {
		t.Errorf("email not normalized: %q", m.Email)
	}
	if m.FullNameCI != "ana silva" {
		t.Errorf("FullNameCI = %q", m.FullNameCI)
	}
	if m.Phone != "5551234567" {
		t.Errorf("phone not normalized: %q", m.Phone)
	}
	if !m.Active {
		t.Error("new member not active")
	}

	p, err := s.ProfileFor(ctx, m.ID)
	if err != nil {
		t.Fatalf("ProfileFor: %v", err)
	}
	if p.MemberID != m.ID {
		t.Errorf("profile member id = %s, want %s", p.MemberID.Hex(), m.ID.Hex())
	}
}

func TestCreateWithProfile_DuplicateEmail(t *testing.T) {
	s := newTestStore(t)
	ctx := testutil.TestContext(t)

	if _, err := s.CreateWithProfile(ctx, sampleMember("dup@example.com"), sampleProfile("dup@example.com")); err != nil {
		t.Fatal(err)
	}
	_, err := s.CreateWithProfile(ctx, sampleMember("dup@example.com"), sampleProfile("dup@example.com"))
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Fatalf("err = %v, want ErrDuplicateEmail", err)
	}
}

func TestApplyPatch_MergesMembershipAgainstStored(t *testing.T) {
	s := newTestStore(t)
	ctx := testutil.TestContext(t)

	m, err := s.CreateWithProfile(ctx, sampleMember("patch@example.com"), sampleProfile("patch@example.com"))
	if err != nil {
		t.Fatal(err)
	}

	// Change only the amount; the type must survive the partial update.
	amount := int64(12900)
	if err := s.ApplyPatch(ctx, m.ID, Patch{AmountCents: &amount}); err != nil {
		t.Fatalf("ApplyPatch: %v", err)
	}

	got, err := s.GetByID(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Membership.AmountCents != 12900 {
		t.Errorf("AmountCents = %d, want 12900", got.Membership.AmountCents)
	}
	if got.Membership.Type != models.MembershipRecurring {
		t.Errorf("membership type clobbered: %q", got.Membership.Type)
	}
}

func TestSetStatus_StampsSideEffectTimestamps(t *testing.T) {
	s := newTestStore(t)
	ctx := testutil.TestContext(t)

	m, err := s.CreateWithProfile(ctx, sampleMember("status@example.com"), sampleProfile("status@example.com"))
	if err != nil {
		t.Fatal(err)
	}

	if err := s.SetStatus(ctx, m.ID, models.StatusActive, ""); err != nil {
		t.Fatalf("SetStatus active: %v", err)
	}
	got, _ := s.GetByID(ctx, m.ID)
	if got.Membership.StartedAt == nil {
		t.Error("started_at not stamped on activation")
	}

	if err := s.SetStatus(ctx, m.ID, models.StatusPaused, "injury"); err != nil {
		t.Fatalf("SetStatus paused: %v", err)
	}
	got, _ = s.GetByID(ctx, m.ID)
	if got.Membership.PausedAt == nil {
		t.Error("paused_at not stamped on pause")
	}
	if got.Membership.PauseReason != "injury" {
		t.Errorf("pause_reason = %q", got.Membership.PauseReason)
	}

	// Unguarded: paused can jump straight back to overdue.
	if err := s.SetStatus(ctx, m.ID, models.StatusOverdue, ""); err != nil {
		t.Fatalf("SetStatus overdue: %v", err)
	}
	got, _ = s.GetByID(ctx, m.ID)
	if got.Membership.OverdueAt == nil {
		t.Error("overdue_at not stamped")
	}
}

func TestSetStatus_RejectsUnknownStatus(t *testing.T) {
	s := newTestStore(t)
	ctx := testutil.TestContext(t)

	m, err := s.CreateWithProfile(ctx, sampleMember("bad@example.com"), sampleProfile("bad@example.com"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SetStatus(ctx, m.ID, "cancelled", ""); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestDeactivate_SoftDeletesAndList_RespectsRetention(t *testing.T) {
	s := newTestStore(t)
	ctx := testutil.TestContext(t)

	keep, err := s.CreateWithProfile(ctx, sampleMember("keep@example.com"), sampleProfile("keep@example.com"))
	if err != nil {
		t.Fatal(err)
	}
	gone, err := s.CreateWithProfile(ctx, sampleMember("gone@example.com"), sampleProfile("gone@example.com"))
	if err != nil {
		t.Fatal(err)
	}

	actor := primitive.NewObjectID()
	if err := s.Deactivate(ctx, gone.ID, actor); err != nil {
		t.Fatalf("Deactivate: %v", err)
	}

	got, err := s.GetByID(ctx, gone.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Active {
		t.Error("member still active after deactivate")
	}
	if got.DeactivatedAt == nil || got.DeactivatedBy == nil || *got.DeactivatedBy != actor {
		t.Error("deactivation audit fields not recorded")
	}

	// Freshly deactivated members stay inside the retention window.
	list, err := s.List(ctx, 30*24*time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 {
		t.Fatalf("list = %d members, want 2", len(list))
	}

	// A zero retention window hides them.
	list, err = s.List(ctx, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 1 || list[0].ID != keep.ID {
		t.Fatalf("retention-less list should hold only the active member")
	}
}

func TestBumpVisit_MonthRollover(t *testing.T) {
	s := newTestStore(t)
	ctx := testutil.TestContext(t)

	m, err := s.CreateWithProfile(ctx, sampleMember("visits@example.com"), sampleProfile("visits@example.com"))
	if err != nil {
		t.Fatal(err)
	}

	jan := time.Date(2026, 1, 10, 18, 0, 0, 0, time.UTC)
	for i := 0; i < 3; i++ {
		if err := s.BumpVisit(ctx, m.ID, jan); err != nil {
			t.Fatalf("BumpVisit: %v", err)
		}
	}
	got, _ := s.GetByID(ctx, m.ID)
	if got.Visits.Total != 3 || got.Visits.Month != 3 {
		t.Fatalf("visits = %+v, want total 3 month 3", got.Visits)
	}

	feb := time.Date(2026, 2, 1, 18, 0, 0, 0, time.UTC)
	if err := s.BumpVisit(ctx, m.ID, feb); err != nil {
		t.Fatal(err)
	}
	got, _ = s.GetByID(ctx, m.ID)
	if got.Visits.Total != 4 {
		t.Errorf("total = %d, want 4", got.Visits.Total)
	}
	if got.Visits.Month != 1 {
		t.Errorf("month = %d, want 1 after rollover", got.Visits.Month)
	}
}

func TestGetByID_NotFound(t *testing.T) {
	s := newTestStore(t)
	_, err := s.GetByID(testutil.TestContext(t), primitive.NewObjectID())
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}
