package login_test

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	uierrors "github.com/dalemusser/dojohub/internal/app/features/errors"
	"github.com/dalemusser/dojohub/internal/app/features/login"
	adminuserstore "github.com/dalemusser/dojohub/internal/app/store/adminusers"
	"github.com/dalemusser/dojohub/internal/app/system/auth"
	"github.com/dalemusser/dojohub/internal/domain/models"
	"github.com/dalemusser/dojohub/internal/testutil"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*login.Handler, *mongo.Database) {
	t.Helper()
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	// SignIn needs a real cookie store.
	if err := auth.InitSessionStore("test-session-key-0123456789abcdef", "", false, logger); err != nil {
		t.Fatalf("InitSessionStore: %v", err)
	}

	return login.NewHandler(db, uierrors.NewErrorLogger(logger), logger), db
}

func seedAdmin(t *testing.T, db *mongo.Database, email, password string) {
	t.Helper()
	ctx := testutil.TestContext(t)
	_, err := adminuserstore.New(db).Create(ctx, models.AdminUser{
		FullName: "Front Desk",
		Email:    email,
		Role:     adminuserstore.RoleStaff,
	}, password)
	if err != nil {
		t.Fatalf("seed admin: %v", err)
	}
}

func postLogin(handler *login.Handler, email, password string) *httptest.ResponseRecorder {
	form := url.Values{"email": {email}, "password": {password}}
	req := httptest.NewRequest("POST", "/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.RemoteAddr = "10.0.0.9:4242"
	rec := httptest.NewRecorder()

	func() {
		defer func() { recover() }()
		handler.HandleLogin(rec, req)
	}()
	return rec
}

func TestHandleLogin_Success(t *testing.T) {
	handler, db := newTestHandler(t)
	seedAdmin(t, db, "desk@dojo.example", "correct horse battery")

	rec := postLogin(handler, "desk@dojo.example", "correct horse battery")

	if rec.Code != http.StatusSeeOther {
		t.Fatalf("status: got %d, want %d", rec.Code, http.StatusSeeOther)
	}
	if loc := rec.Header().Get("Location"); loc != "/dashboard" {
		t.Errorf("redirect: got %q, want /dashboard", loc)
	}
	if rec.Header().Get("Set-Cookie") == "" {
		t.Error("no session cookie set on successful sign-in")
	}
}

func TestHandleLogin_WrongPassword(t *testing.T) {
	handler, db := newTestHandler(t)
	seedAdmin(t, db, "desk@dojo.example", "correct horse battery")

	rec := postLogin(handler, "desk@dojo.example", "guess")

	if rec.Code == http.StatusSeeOther {
		t.Fatal("wrong password redirected as if signed in")
	}
}

func TestHandleLogin_RateLimitsRepeatedFailures(t *testing.T) {
	handler, db := newTestHandler(t)
	seedAdmin(t, db, "owner@dojo.example", "correct horse battery")

	for i := 0; i < 5; i++ {
		postLogin(handler, "owner@dojo.example", "guess")
	}

	// Even the right password is refused while the account allowance is
	// exhausted.
	rec := postLogin(handler, "owner@dojo.example", "correct horse battery")
	if rec.Code == http.StatusSeeOther {
		t.Fatal("rate-limited account still signed in")
	}
}
