package members_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	uierrors "github.com/dalemusser/dojohub/internal/app/features/errors"
	"github.com/dalemusser/dojohub/internal/app/features/members"
	"github.com/dalemusser/dojohub/internal/app/memberdata"
	activitystore "github.com/dalemusser/dojohub/internal/app/store/activity"
	awardstore "github.com/dalemusser/dojohub/internal/app/store/awards"
	beltlevelstore "github.com/dalemusser/dojohub/internal/app/store/beltlevels"
	checkinstore "github.com/dalemusser/dojohub/internal/app/store/checkins"
	memberstore "github.com/dalemusser/dojohub/internal/app/store/members"
	studentlevelstore "github.com/dalemusser/dojohub/internal/app/store/studentlevels"
	"github.com/dalemusser/dojohub/internal/app/system/activitylog"
	"github.com/dalemusser/dojohub/internal/app/system/auth"
	"github.com/dalemusser/dojohub/internal/app/system/batch"
	"github.com/dalemusser/dojohub/internal/app/system/cache"
	"github.com/dalemusser/dojohub/internal/app/system/credentials"
	"github.com/dalemusser/dojohub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*members.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	c := cache.New(cache.Options{Expiry: time.Minute, RefreshInterval: time.Hour})
	b := batch.New(batch.Options{Window: 20 * time.Millisecond})
	t.Cleanup(func() {
		c.Close()
		b.Close()
	})

	belts := beltlevelstore.New(db)
	levels := studentlevelstore.New(db)

	svc := memberdata.New(memberdata.Deps{
		Members:  memberstore.New(db, logger),
		Awards:   awardstore.New(db, logger),
		Belts:    belts,
		Levels:   levels,
		Checkins: checkinstore.New(db),
		Issuer:   credentials.NewMongoIssuer(db),
		Cache:    c,
		Batcher:  b,
		Activity: activitylog.New(activitystore.New(db), logger),
		Log:      logger,
	})

	errLog := uierrors.NewErrorLogger(logger)
	handler := members.NewHandler(svc, belts, levels, errLog, logger)
	fixtures := testutil.NewFixtures(t, db)
	return handler, fixtures
}

func postForm(target string, form url.Values, user testutil.TestUser) *http.Request {
	req := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return testutil.WithUser(req, user)
}

func TestHandleCreate_WritesMemberAndProfile(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	form := url.Values{
		"first_name":      {"Rosa"},
		"last_name":       {"Almeida"},
		"email":           {"rosa@example.com"},
		"phone":           {"(555) 201-3344"},
		"membership_type": {"recurring"},
		"amount":          {"129.50"},
		"auto_renew":      {"on"},
		"waiver_signed":   {"on"},
		"tags":            {"adults, competition"},
	}

	req := postForm("/members", form, testutil.StaffUser())
	rec := httptest.NewRecorder()

	// Renders the one-time password page, which needs a booted template
	// engine; the DB writes are what this test is about.
	func() {
		defer func() { recover() }()
		handler.HandleCreate(rec, req)
	}()

	var m struct {
		FirstName string `bson:"first_name"`
		Email     string `bson:"email"`
		Phone     string `bson:"phone"`
		Active    bool   `bson:"active"`
		Membership struct {
			Type        string `bson:"type"`
			AmountCents int64  `bson:"amount_cents"`
			AutoRenew   bool   `bson:"auto_renew"`
		} `bson:"membership"`
		Tags []string `bson:"tags"`
	}
	err := fixtures.DB().Collection("members").FindOne(ctx, bson.M{"email": "rosa@example.com"}).Decode(&m)
	if err != nil {
		t.Fatalf("FindOne member: %v", err)
	}
	if m.FirstName != "Rosa" {
		t.Errorf("FirstName: got %q, want %q", m.FirstName, "Rosa")
	}
	if m.Phone != "5552013344" {
		t.Errorf("Phone: got %q, want digits only", m.Phone)
	}
	if !m.Active {
		t.Error("new member should be active")
	}
	if m.Membership.Type != "recurring" || m.Membership.AmountCents != 12950 || !m.Membership.AutoRenew {
		t.Errorf("membership: got %+v", m.Membership)
	}
	if len(m.Tags) != 2 {
		t.Errorf("Tags: got %v, want 2 entries", m.Tags)
	}

	// Portal credential and profile must exist alongside the document.
	n, err := fixtures.DB().Collection("portal_credentials").CountDocuments(ctx, bson.M{"email": "rosa@example.com"})
	if err != nil {
		t.Fatalf("CountDocuments credentials: %v", err)
	}
	if n != 1 {
		t.Errorf("portal credentials: got %d, want 1", n)
	}
	p, err := fixtures.DB().Collection("portal_profiles").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments profiles: %v", err)
	}
	if p != 1 {
		t.Errorf("portal profiles: got %d, want 1", p)
	}
}

func TestHandleCreate_MissingEmail_NoWrite(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	form := url.Values{
		"first_name": {"No"},
		"last_name":  {"Email"},
	}
	req := postForm("/members", form, testutil.StaffUser())
	rec := httptest.NewRecorder()

	func() {
		defer func() { recover() }()
		handler.HandleCreate(rec, req)
	}()

	n, err := fixtures.DB().Collection("members").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 0 {
		t.Errorf("members written: got %d, want 0", n)
	}
}

func TestHandleCreate_FailureLeavesAdminSessionIntact(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	admin := testutil.StaffUser()

	// "lifetime" is not a membership type the store accepts, so the write
	// fails after the portal credential has already been minted.
	form := url.Values{
		"first_name":      {"Rosa"},
		"last_name":       {"Almeida"},
		"email":           {"rosa@example.com"},
		"membership_type": {"lifetime"},
	}
	req := postForm("/members", form, admin)
	rec := httptest.NewRecorder()

	func() {
		defer func() { recover() }()
		handler.HandleCreate(rec, req)
	}()

	// The minted credential was revoked with the failed create.
	var cred struct {
		Disabled bool `bson:"disabled"`
	}
	err := fixtures.DB().Collection("portal_credentials").
		FindOne(ctx, bson.M{"email": "rosa@example.com"}).Decode(&cred)
	if err != nil {
		t.Fatalf("FindOne credential: %v", err)
	}
	if !cred.Disabled {
		t.Error("failed create left its portal credential enabled")
	}

	n, err := fixtures.DB().Collection("members").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 0 {
		t.Errorf("members written: got %d, want 0", n)
	}

	// The revocation swept only the new credential: the staff member who
	// drove the request is still signed in as themselves.
	role, name, id, ok := auth.UserCtx(req)
	if !ok || id != admin.ID || name != admin.Name || role != admin.Role {
		t.Errorf("admin session changed: role=%q name=%q id=%q ok=%v", role, name, id, ok)
	}
}

func TestHandleEdit_PartialPatch(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	m := fixtures.CreateMember(ctx, "Joao", "Pereira", "joao@example.com")

	form := url.Values{
		"phone": {"555-777-8888"},
	}
	req := postForm("/members/"+m.ID.Hex()+"/edit", form, testutil.StaffUser())
	req = testutil.WithChiURLParam(req, "id", m.ID.Hex())
	rec := httptest.NewRecorder()

	handler.HandleEdit(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d (body: %s)", rec.Code, http.StatusSeeOther, rec.Body.String())
	}

	var got struct {
		FirstName string `bson:"first_name"`
		Email     string `bson:"email"`
		Phone     string `bson:"phone"`
	}
	if err := fixtures.DB().Collection("members").FindOne(ctx, bson.M{"_id": m.ID}).Decode(&got); err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if got.Phone != "5557778888" {
		t.Errorf("Phone: got %q, want %q", got.Phone, "5557778888")
	}
	// Untouched fields survive a partial edit.
	if got.FirstName != "Joao" || got.Email != "joao@example.com" {
		t.Errorf("untouched fields changed: %+v", got)
	}
}

func TestHandleStatus_TransitionStampsTimestamps(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	m := fixtures.CreateMember(ctx, "Ana", "Silva", "ana@example.com")

	form := url.Values{
		"status": {"active"},
	}
	req := postForm("/members/"+m.ID.Hex()+"/status", form, testutil.StaffUser())
	req = testutil.WithChiURLParam(req, "id", m.ID.Hex())
	rec := httptest.NewRecorder()

	handler.HandleStatus(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}

	var got struct {
		Membership struct {
			Status    string     `bson:"status"`
			StartedAt *time.Time `bson:"started_at"`
		} `bson:"membership"`
	}
	if err := fixtures.DB().Collection("members").FindOne(ctx, bson.M{"_id": m.ID}).Decode(&got); err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if got.Membership.Status != "active" {
		t.Errorf("Status: got %q, want %q", got.Membership.Status, "active")
	}
	if got.Membership.StartedAt == nil {
		t.Error("StartedAt should be stamped on activation")
	}
}

func TestHandleCheckIn_RecordsVisit(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	m := fixtures.CreateMember(ctx, "Bjorn", "Eriksen", "bjorn@example.com")

	// Member must be active to check in.
	activate := url.Values{"status": {"active"}}
	req := postForm("/members/"+m.ID.Hex()+"/status", activate, testutil.StaffUser())
	req = testutil.WithChiURLParam(req, "id", m.ID.Hex())
	handler.HandleStatus(httptest.NewRecorder(), req)

	req = postForm("/members/"+m.ID.Hex()+"/checkin", url.Values{}, testutil.StaffUser())
	req = testutil.WithChiURLParam(req, "id", m.ID.Hex())
	rec := httptest.NewRecorder()

	handler.HandleCheckIn(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}

	n, err := fixtures.DB().Collection("checkins").CountDocuments(ctx, bson.M{"member_id": m.ID})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 1 {
		t.Errorf("checkins: got %d, want 1", n)
	}

	var got struct {
		Visits struct {
			Total int `bson:"total"`
		} `bson:"visits"`
	}
	if err := fixtures.DB().Collection("members").FindOne(ctx, bson.M{"_id": m.ID}).Decode(&got); err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if got.Visits.Total != 1 {
		t.Errorf("Visits.Total: got %d, want 1", got.Visits.Total)
	}
}

func TestHandleAward_GrantsBelt(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	m := fixtures.CreateMember(ctx, "Mei", "Tanaka", "mei@example.com")
	belt := fixtures.CreateBeltLevel(ctx, "Blue Belt", "bjj", 2)

	form := url.Values{
		"kind":     {"belt"},
		"level_id": {belt.ID.Hex()},
		"notes":    {"strong guard passing"},
	}
	req := postForm("/members/"+m.ID.Hex()+"/award", form, testutil.StaffUser())
	req = testutil.WithChiURLParam(req, "id", m.ID.Hex())
	rec := httptest.NewRecorder()

	handler.HandleAward(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}

	var got struct {
		CurrentBelt *struct {
			Name string `bson:"name"`
		} `bson:"current_belt"`
	}
	if err := fixtures.DB().Collection("members").FindOne(ctx, bson.M{"_id": m.ID}).Decode(&got); err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if got.CurrentBelt == nil || got.CurrentBelt.Name != "Blue Belt" {
		t.Errorf("CurrentBelt: got %+v, want Blue Belt", got.CurrentBelt)
	}

	n, err := fixtures.DB().Collection("awards").CountDocuments(ctx, bson.M{"member_id": m.ID})
	if err != nil {
		t.Fatalf("CountDocuments awards: %v", err)
	}
	if n != 1 {
		t.Errorf("awards: got %d, want 1", n)
	}
}

func TestHandleAward_UnknownLevel_NothingWritten(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	m := fixtures.CreateMember(ctx, "Luka", "Novak", "luka@example.com")

	form := url.Values{
		"kind":     {"belt"},
		"level_id": {primitive.NewObjectID().Hex()},
	}
	req := postForm("/members/"+m.ID.Hex()+"/award", form, testutil.StaffUser())
	req = testutil.WithChiURLParam(req, "id", m.ID.Hex())
	rec := httptest.NewRecorder()

	func() {
		defer func() { recover() }()
		handler.HandleAward(rec, req)
	}()

	n, err := fixtures.DB().Collection("awards").CountDocuments(ctx, bson.M{"member_id": m.ID})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 0 {
		t.Errorf("awards: got %d, want 0", n)
	}
}

func TestHandleDeactivate_ClearsActive(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	m := fixtures.CreateMember(ctx, "Sara", "Lindqvist", "sara@example.com")

	req := postForm("/members/"+m.ID.Hex()+"/deactivate", url.Values{}, testutil.OwnerUser())
	req = testutil.WithChiURLParam(req, "id", m.ID.Hex())
	rec := httptest.NewRecorder()

	handler.HandleDeactivate(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}

	var got struct {
		Active        bool       `bson:"active"`
		DeactivatedAt *time.Time `bson:"deactivated_at"`
	}
	if err := fixtures.DB().Collection("members").FindOne(ctx, bson.M{"_id": m.ID}).Decode(&got); err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if got.Active {
		t.Error("member should be inactive after deactivation")
	}
	if got.DeactivatedAt == nil {
		t.Error("DeactivatedAt should be stamped")
	}
}

func TestMemberID_BadHex_NotFound(t *testing.T) {
	handler, _ := newTestHandler(t)

	req := postForm("/members/notahexid/status", url.Values{"status": {"active"}}, testutil.StaffUser())
	req = testutil.WithChiURLParam(req, "id", "notahexid")
	rec := httptest.NewRecorder()

	func() {
		defer func() { recover() }()
		handler.HandleStatus(rec, req)
	}()

	if rec.Code == http.StatusSeeOther {
		t.Error("bad id should not redirect to a member page")
	}
}
