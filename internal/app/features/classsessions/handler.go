// internal/app/features/classsessions/handler.go
package classsessions

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	uierrors "github.com/dalemusser/dojohub/internal/app/features/errors"
	checkinstore "github.com/dalemusser/dojohub/internal/app/store/checkins"
	classsessionstore "github.com/dalemusser/dojohub/internal/app/store/classsessions"
	"github.com/dalemusser/dojohub/internal/app/system/auth"
	"github.com/dalemusser/dojohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const sessionsTimeout = 10 * time.Second

const upcomingListLimit = 50

type Handler struct {
	Sessions *classsessionstore.Store
	Checkins *checkinstore.Store
	Log      *zap.Logger
	ErrLog   *uierrors.ErrorLogger
}

func NewHandler(sessions *classsessionstore.Store, checkins *checkinstore.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Sessions: sessions,
		Checkins: checkins,
		Log:      logger,
		ErrLog:   errLog,
	}
}

// sessionRow pairs a session with its attendance count for the list page.
type sessionRow struct {
	Session   models.ClassSession
	Attending int64
}

type sessionListVM struct {
	Title    string
	Role     string
	UserName string

	Rows  []sessionRow
	Error string
}

// ServeList renders the upcoming schedule with attendance counts.
// GET /sessions
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, "")
}

func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, errMsg string) {
	role, name, _, _ := auth.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), sessionsTimeout)
	defer cancel()

	sessions, err := h.Sessions.Upcoming(ctx, time.Now(), upcomingListLimit)
	if err != nil {
		h.ErrLog.ServerError(w, r, err, "The class schedule is unavailable right now.")
		return
	}

	rows := make([]sessionRow, 0, len(sessions))
	for _, cs := range sessions {
		n, err := h.Checkins.CountForSession(ctx, cs.ID)
		if err != nil {
			h.Log.Warn("attendance count unavailable", zap.String("session", cs.ID.Hex()))
		}
		rows = append(rows, sessionRow{Session: cs, Attending: n})
	}

	if errMsg != "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	templates.Render(w, r, "session_list", sessionListVM{
		Title:    "Classes",
		Role:     role,
		UserName: name,
		Rows:     rows,
		Error:    errMsg,
	})
}

// parseSessionForm reads the schedulable fields shared by the create and
// edit forms. The second return value is a user-facing error message, empty
// on success.
func parseSessionForm(r *http.Request) (models.ClassSession, string) {
	startsAt, err := time.ParseInLocation("2006-01-02T15:04", strings.TrimSpace(r.PostFormValue("starts_at")), time.Local)
	if err != nil {
		return models.ClassSession{}, "The start time must look like 2026-01-15T18:00."
	}

	cs := models.ClassSession{
		Name:       r.PostFormValue("name"),
		Style:      strings.TrimSpace(r.PostFormValue("style")),
		StartsAt:   startsAt.UTC(),
		Instructor: strings.TrimSpace(r.PostFormValue("instructor")),
		Notes:      strings.TrimSpace(r.PostFormValue("notes")),
	}
	if v := strings.TrimSpace(r.PostFormValue("duration")); v != "" {
		mins, err := strconv.Atoi(v)
		if err != nil || mins < 0 {
			return models.ClassSession{}, "The duration must be a whole number of minutes."
		}
		cs.DurationMin = mins
	}
	if v := strings.TrimSpace(r.PostFormValue("capacity")); v != "" {
		seats, err := strconv.Atoi(v)
		if err != nil || seats < 0 {
			return models.ClassSession{}, "The capacity must be a whole number."
		}
		cs.Capacity = seats
	}
	return cs, ""
}

// HandleCreate schedules a class.
// POST /sessions  (name, style, starts_at, duration, capacity, instructor, notes)
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderList(w, r, "That didn't look like a valid form submission.")
		return
	}

	cs, msg := parseSessionForm(r)
	if msg != "" {
		h.renderList(w, r, msg)
		return
	}
	cs.CreatedBy = creatorID(r)

	ctx, cancel := context.WithTimeout(r.Context(), sessionsTimeout)
	defer cancel()

	if _, err := h.Sessions.Create(ctx, cs); err != nil {
		h.renderList(w, r, "The class could not be scheduled. Check the name and start time.")
		return
	}

	http.Redirect(w, r, "/sessions", http.StatusSeeOther)
}

type sessionEditVM struct {
	Title    string
	Role     string
	UserName string

	Session       models.ClassSession
	StartsAtLocal string
	Error         string
}

// ServeEdit renders the reschedule form.
// GET /sessions/{id}/edit
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "That class doesn't exist.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), sessionsTimeout)
	defer cancel()

	cs, err := h.Sessions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, classsessionstore.ErrNotFound) {
			uierrors.RenderNotFound(w, r, "That class doesn't exist.")
			return
		}
		h.ErrLog.ServerError(w, r, err, "The class is unavailable right now.")
		return
	}

	h.renderEdit(w, r, *cs, "")
}

func (h *Handler) renderEdit(w http.ResponseWriter, r *http.Request, cs models.ClassSession, errMsg string) {
	role, name, _, _ := auth.UserCtx(r)

	if errMsg != "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	templates.Render(w, r, "session_edit", sessionEditVM{
		Title:         "Edit class",
		Role:          role,
		UserName:      name,
		Session:       cs,
		StartsAtLocal: cs.StartsAt.In(time.Local).Format("2006-01-02T15:04"),
		Error:         errMsg,
	})
}

// HandleEdit reschedules a class.
// POST /sessions/{id}/edit
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "That class doesn't exist.")
		return
	}

	if err := r.ParseForm(); err != nil {
		uierrors.RenderNotFound(w, r, "That didn't look like a valid form submission.")
		return
	}

	cs, msg := parseSessionForm(r)
	if msg != "" {
		cs.ID = id
		h.renderEdit(w, r, cs, msg)
		return
	}
	cs.ID = id

	ctx, cancel := context.WithTimeout(r.Context(), sessionsTimeout)
	defer cancel()

	if err := h.Sessions.Update(ctx, id, cs); err != nil {
		if errors.Is(err, classsessionstore.ErrNotFound) {
			uierrors.RenderNotFound(w, r, "That class doesn't exist.")
			return
		}
		h.renderEdit(w, r, cs, "The class could not be updated. Check the name and start time.")
		return
	}

	http.Redirect(w, r, "/sessions", http.StatusSeeOther)
}

// HandleDelete takes a class off the calendar.
// POST /sessions/{id}/delete
func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	id, err := primitive.ObjectIDFromHex(chi.URLParam(r, "id"))
	if err != nil {
		uierrors.RenderNotFound(w, r, "That class doesn't exist.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), sessionsTimeout)
	defer cancel()

	if err := h.Sessions.Delete(ctx, id); err != nil {
		if errors.Is(err, classsessionstore.ErrNotFound) {
			uierrors.RenderNotFound(w, r, "That class doesn't exist.")
			return
		}
		h.ErrLog.ServerError(w, r, err, "The class could not be removed.")
		return
	}

	http.Redirect(w, r, "/sessions", http.StatusSeeOther)
}

func creatorID(r *http.Request) primitive.ObjectID {
	_, _, id, ok := auth.UserCtx(r)
	if !ok {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}
