// internal/app/features/dashboard/handler.go
package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"time"

	uierrors "github.com/dalemusser/dojohub/internal/app/features/errors"
	"github.com/dalemusser/dojohub/internal/app/memberdata"
	activitystore "github.com/dalemusser/dojohub/internal/app/store/activity"
	classsessionstore "github.com/dalemusser/dojohub/internal/app/store/classsessions"
	"github.com/dalemusser/dojohub/internal/app/system/auth"
	"github.com/dalemusser/dojohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.uber.org/zap"
)

const dashboardTimeout = 10 * time.Second

// How much recent history the dashboard shows.
const (
	recentActivityLimit  = 15
	upcomingSessionLimit = 8
)

// Handler renders the staff landing page: membership stats, the activity
// feed, and the upcoming class schedule.
type Handler struct {
	Svc      *memberdata.Service
	Activity *activitystore.Store
	Sessions *classsessionstore.Store
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(svc *memberdata.Service, activity *activitystore.Store, sessions *classsessionstore.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:      svc,
		Activity: activity,
		Sessions: sessions,
		Log:      logger,
		ErrLog:   errLog,
	}
}

type dashboardVM struct {
	Title    string
	Role     string
	UserName string

	Stats          memberdata.MembershipStats
	MonthlyRevenue string
	Activity       []models.ActivityEntry
	Sessions       []models.ClassSession
}

// ServeDashboard renders the console landing page.
// GET /dashboard
func (h *Handler) ServeDashboard(w http.ResponseWriter, r *http.Request) {
	role, name, _, ok := auth.UserCtx(r)
	if !ok {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), dashboardTimeout)
	defer cancel()

	stats, err := h.Svc.Stats(ctx)
	if err != nil {
		h.ErrLog.ServerError(w, r, err, "The dashboard is unavailable right now.")
		return
	}

	// Feed and schedule are decorative next to the stats; an empty section
	// beats a dead page.
	entries, err := h.Activity.Recent(ctx, recentActivityLimit)
	if err != nil {
		h.Log.Warn("activity feed unavailable")
	}
	sessions, err := h.Sessions.Upcoming(ctx, time.Now(), upcomingSessionLimit)
	if err != nil {
		h.Log.Warn("class schedule unavailable")
	}

	templates.Render(w, r, "dashboard", dashboardVM{
		Title:          "Dashboard",
		Role:           role,
		UserName:       name,
		Stats:          stats,
		MonthlyRevenue: fmt.Sprintf("$%.2f", float64(stats.RecurringRevenueCents)/100),
		Activity:       entries,
		Sessions:       sessions,
	})
}
