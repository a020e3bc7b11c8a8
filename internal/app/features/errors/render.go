// internal/app/features/errors/render.go
package errors

import (
	"net/http"

	"github.com/dalemusser/dojohub/internal/app/system/auth"
	"github.com/dalemusser/waffle/pantry/templates"
)

// pageData is the view model for every error page.
type pageData struct {
	Title      string
	IsLoggedIn bool
	Role       string
	UserName   string
	Message    string
	BackURL    string
}

func pageUser(r *http.Request) (signed bool, role, name string) {
	u, ok := auth.CurrentUser(r)
	if !ok || u == nil {
		return false, "", ""
	}
	return true, u.Role, u.Name
}

// RenderUnauthorized shows the "sign in required" page. An empty backURL
// defaults to /login.
func RenderUnauthorized(w http.ResponseWriter, r *http.Request, backURL string) {
	signed, role, name := pageUser(r)
	if backURL == "" {
		backURL = "/login"
	}

	w.WriteHeader(http.StatusUnauthorized)
	templates.Render(w, r, "error_forbidden", pageData{
		Title:      "Sign in required",
		IsLoggedIn: signed,
		Role:       role,
		UserName:   name,
		Message:    "Please sign in to continue.",
		BackURL:    backURL,
	})
}

// RenderForbidden shows the access-denied page with a custom message.
func RenderForbidden(w http.ResponseWriter, r *http.Request, msg, backURL string) {
	signed, role, name := pageUser(r)
	if backURL == "" {
		backURL = "/"
	}
	if msg == "" {
		msg = "You don't have permission to view this page."
	}

	w.WriteHeader(http.StatusForbidden)
	templates.Render(w, r, "error_forbidden", pageData{
		Title:      "Access denied",
		IsLoggedIn: signed,
		Role:       role,
		UserName:   name,
		Message:    msg,
		BackURL:    backURL,
	})
}

// RenderNotFound shows the not-found page.
func RenderNotFound(w http.ResponseWriter, r *http.Request, msg string) {
	signed, role, name := pageUser(r)
	if msg == "" {
		msg = "That page doesn't exist."
	}

	w.WriteHeader(http.StatusNotFound)
	templates.Render(w, r, "error_forbidden", pageData{
		Title:      "Not found",
		IsLoggedIn: signed,
		Role:       role,
		UserName:   name,
		Message:    msg,
		BackURL:    "/",
	})
}
