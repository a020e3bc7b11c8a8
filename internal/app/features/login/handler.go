// internal/app/features/login/handler.go
package login

import (
	"context"
	"errors"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/dojohub/internal/app/features/errors"
	adminuserstore "github.com/dalemusser/dojohub/internal/app/store/adminusers"
	"github.com/dalemusser/dojohub/internal/app/system/auth"
	"github.com/dalemusser/dojohub/internal/app/system/limits"
	"github.com/dalemusser/dojohub/internal/app/system/ratelimit"
	"github.com/dalemusser/dojohub/internal/app/system/timeouts"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Handler serves the staff sign-in screen. Only console admins log in here;
// member portal logins live in a separate credential collection and never
// touch the admin session cookie.
type Handler struct {
	DB      *mongo.Database
	Log     *zap.Logger
	ErrLog  *uierrors.ErrorLogger
	Admins  *adminuserstore.Store
	Limiter *ratelimit.LoginLimiter
}

func NewHandler(db *mongo.Database, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		DB:      db,
		Log:     logger,
		ErrLog:  errLog,
		Admins:  adminuserstore.New(db),
		Limiter: ratelimit.NewLoginLimiter(),
	}
}

type loginVM struct {
	Title string
	Email string
	Error string
}

// ServeLogin handles GET /login.
func (h *Handler) ServeLogin(w http.ResponseWriter, r *http.Request) {
	if _, signedIn := auth.CurrentUser(r); signedIn {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	templates.Render(w, r, "login", loginVM{Title: "Sign in"})
}

// HandleLogin handles POST /login.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxLoginFormSize)
	if err := r.ParseForm(); err != nil {
		h.renderError(w, r, "", "That didn't look like a valid form submission.")
		return
	}
	email := strings.TrimSpace(r.PostFormValue("email"))
	password := r.PostFormValue("password")
	if email == "" || password == "" {
		h.renderError(w, r, email, "Email and password are both required.")
		return
	}

	if allowed, reason := h.Limiter.Check(r, email); !allowed {
		h.Log.Warn("login rate limited", zap.String("ip", ratelimit.ClientIP(r)))
		h.renderError(w, r, email, reason)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Short())
	defer cancel()

	admin, err := h.Admins.Authenticate(ctx, email, password)
	if err != nil {
		if errors.Is(err, adminuserstore.ErrNotFound) {
			h.renderError(w, r, email, "Email or password is incorrect.")
			return
		}
		h.ErrLog.ServerError(w, r, err, "Sign-in is unavailable right now.")
		return
	}

	if err := auth.SignIn(w, r, auth.SessionUser{
		ID:    admin.ID.Hex(),
		Name:  admin.FullName,
		Email: admin.Email,
		Role:  admin.Role,
	}); err != nil {
		h.ErrLog.ServerError(w, r, err, "Sign-in is unavailable right now.")
		return
	}

	h.Limiter.ResetEmail(email)
	h.Log.Info("admin signed in",
		zap.String("admin_id", admin.ID.Hex()),
		zap.String("role", admin.Role))
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, email, msg string) {
	w.WriteHeader(http.StatusUnprocessableEntity)
	templates.Render(w, r, "login", loginVM{Title: "Sign in", Email: email, Error: msg})
}
