package classsessions_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/dalemusser/dojohub/internal/app/features/classsessions"
	uierrors "github.com/dalemusser/dojohub/internal/app/features/errors"
	checkinstore "github.com/dalemusser/dojohub/internal/app/store/checkins"
	classsessionstore "github.com/dalemusser/dojohub/internal/app/store/classsessions"
	"github.com/dalemusser/dojohub/internal/testutil"
	"go.mongodb.org/mongo-driver/bson"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*classsessions.Handler, *testutil.Fixtures) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	h := classsessions.NewHandler(
		classsessionstore.New(db),
		checkinstore.New(db),
		uierrors.NewErrorLogger(logger),
		logger,
	)
	return h, testutil.NewFixtures(t, db)
}

func postForm(target string, form url.Values, user testutil.TestUser) *http.Request {
	req := httptest.NewRequest("POST", target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return testutil.WithUser(req, user)
}

func TestHandleCreate_SchedulesClass(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	form := url.Values{
		"name":       {"Evening Fundamentals"},
		"style":      {"bjj"},
		"starts_at":  {"2026-10-01T18:00"},
		"duration":   {"60"},
		"capacity":   {"24"},
		"instructor": {"Prof. Costa"},
	}
	rec := httptest.NewRecorder()
	handler.HandleCreate(rec, postForm("/sessions", form, testutil.StaffUser()))

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}

	var got struct {
		Name        string `bson:"name"`
		DurationMin int    `bson:"duration_min"`
		Capacity    int    `bson:"capacity"`
	}
	if err := fixtures.DB().Collection("class_sessions").FindOne(ctx, bson.M{"name": "Evening Fundamentals"}).Decode(&got); err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if got.DurationMin != 60 || got.Capacity != 24 {
		t.Errorf("session: got %+v", got)
	}
}

func TestHandleCreate_BadStartTime(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	form := url.Values{
		"name":      {"Broken"},
		"starts_at": {"next tuesday"},
	}
	rec := httptest.NewRecorder()

	func() {
		defer func() { recover() }()
		handler.HandleCreate(rec, postForm("/sessions", form, testutil.StaffUser()))
	}()

	n, err := fixtures.DB().Collection("class_sessions").CountDocuments(ctx, bson.M{})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 0 {
		t.Errorf("sessions written: got %d, want 0", n)
	}
}

func TestHandleEdit_Reschedules(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	cs := fixtures.CreateClassSession(ctx, "Open Mat", time.Now().Add(48*time.Hour))

	form := url.Values{
		"name":       {"Open Mat (moved)"},
		"starts_at":  {"2026-10-02T19:30"},
		"duration":   {"90"},
		"capacity":   {"30"},
		"instructor": {"Prof. Costa"},
	}
	req := postForm("/sessions/"+cs.ID.Hex()+"/edit", form, testutil.StaffUser())
	req = testutil.WithChiURLParam(req, "id", cs.ID.Hex())
	rec := httptest.NewRecorder()

	handler.HandleEdit(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}

	var got struct {
		Name        string `bson:"name"`
		DurationMin int    `bson:"duration_min"`
		Capacity    int    `bson:"capacity"`
		Instructor  string `bson:"instructor"`
	}
	if err := fixtures.DB().Collection("class_sessions").FindOne(ctx, bson.M{"_id": cs.ID}).Decode(&got); err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if got.Name != "Open Mat (moved)" || got.DurationMin != 90 || got.Capacity != 30 || got.Instructor != "Prof. Costa" {
		t.Errorf("session after edit: got %+v", got)
	}
}

func TestHandleEdit_UnknownID(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	cs := fixtures.CreateClassSession(ctx, "Open Mat", time.Now().Add(48*time.Hour))

	form := url.Values{
		"name":      {"Ghost"},
		"starts_at": {"2026-10-02T19:30"},
	}
	missing := "ffffffffffffffffffffffff"
	req := postForm("/sessions/"+missing+"/edit", form, testutil.StaffUser())
	req = testutil.WithChiURLParam(req, "id", missing)
	rec := httptest.NewRecorder()

	func() {
		defer func() { recover() }()
		handler.HandleEdit(rec, req)
	}()

	var got struct {
		Name string `bson:"name"`
	}
	if err := fixtures.DB().Collection("class_sessions").FindOne(ctx, bson.M{"_id": cs.ID}).Decode(&got); err != nil {
		t.Fatalf("FindOne: %v", err)
	}
	if got.Name != "Open Mat" {
		t.Errorf("existing session touched: got %+v", got)
	}
}

func TestHandleDelete_RemovesClass(t *testing.T) {
	handler, fixtures := newTestHandler(t)
	ctx := testutil.TestContext(t)

	cs := fixtures.CreateClassSession(ctx, "Open Mat", time.Now().Add(48*time.Hour))

	req := postForm("/sessions/"+cs.ID.Hex()+"/delete", url.Values{}, testutil.StaffUser())
	req = testutil.WithChiURLParam(req, "id", cs.ID.Hex())
	rec := httptest.NewRecorder()

	handler.HandleDelete(rec, req)

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}

	n, err := fixtures.DB().Collection("class_sessions").CountDocuments(ctx, bson.M{"_id": cs.ID})
	if err != nil {
		t.Fatalf("CountDocuments: %v", err)
	}
	if n != 0 {
		t.Errorf("session still present after delete")
	}
}
