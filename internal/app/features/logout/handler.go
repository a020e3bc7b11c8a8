// internal/app/features/logout/handler.go
package logout

import (
	"net/http"

	"github.com/dalemusser/dojohub/internal/app/system/auth"
	"go.uber.org/zap"
)

// Handler clears the admin session.
type Handler struct {
	Log *zap.Logger
}

func NewHandler(logger *zap.Logger) *Handler {
	return &Handler{Log: logger}
}

// HandleLogout handles POST /logout.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := auth.SignOut(w, r); err != nil {
		h.Log.Warn("sign out failed", zap.Error(err))
	}
	http.Redirect(w, r, "/", http.StatusSeeOther)
}
