// internal/app/features/belts/handler.go
//
// Belt levels and student levels are the rank taxonomy: created once by an
// owner, then referenced by awards forever. There is deliberately no edit or
// delete — award history pins the names.
package belts

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	uierrors "github.com/dalemusser/dojohub/internal/app/features/errors"
	beltlevelstore "github.com/dalemusser/dojohub/internal/app/store/beltlevels"
	studentlevelstore "github.com/dalemusser/dojohub/internal/app/store/studentlevels"
	"github.com/dalemusser/dojohub/internal/app/system/auth"
	"github.com/dalemusser/dojohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const beltsTimeout = 10 * time.Second

type Handler struct {
	Belts  *beltlevelstore.Store
	Levels *studentlevelstore.Store
	Log    *zap.Logger
	ErrLog *uierrors.ErrorLogger
}

func NewHandler(belts *beltlevelstore.Store, levels *studentlevelstore.Store, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Belts:  belts,
		Levels: levels,
		Log:    logger,
		ErrLog: errLog,
	}
}

type taxonomyVM struct {
	Title    string
	Role     string
	UserName string

	Belts  []models.BeltLevel
	Levels []models.StudentLevel
	Error  string
}

// ServeList renders both taxonomies on one page.
// GET /belts
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	h.renderList(w, r, "")
}

func (h *Handler) renderList(w http.ResponseWriter, r *http.Request, errMsg string) {
	role, name, _, _ := auth.UserCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), beltsTimeout)
	defer cancel()

	belts, err := h.Belts.List(ctx)
	if err != nil {
		h.ErrLog.ServerError(w, r, err, "The belt list is unavailable right now.")
		return
	}
	levels, err := h.Levels.List(ctx)
	if err != nil {
		h.ErrLog.ServerError(w, r, err, "The level list is unavailable right now.")
		return
	}

	if errMsg != "" {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}
	templates.Render(w, r, "belt_list", taxonomyVM{
		Title:    "Belts & levels",
		Role:     role,
		UserName: name,
		Belts:    belts,
		Levels:   levels,
		Error:    errMsg,
	})
}

// HandleCreateBelt adds a belt level to a style's ladder.
// POST /belts  (name, style, rank)
func (h *Handler) HandleCreateBelt(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderList(w, r, "That didn't look like a valid form submission.")
		return
	}

	rank, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("rank")))
	if err != nil || rank < 0 {
		h.renderList(w, r, "The rank must be a whole number.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), beltsTimeout)
	defer cancel()

	_, err = h.Belts.Create(ctx, models.BeltLevel{
		Name:      r.PostFormValue("name"),
		Style:     r.PostFormValue("style"),
		Rank:      rank,
		CreatedBy: creatorID(r),
	})
	if err != nil {
		if errors.Is(err, beltlevelstore.ErrDuplicate) {
			h.renderList(w, r, "That style already has a belt with this name.")
			return
		}
		h.ErrLog.ServerError(w, r, err, "The belt could not be created.")
		return
	}

	http.Redirect(w, r, "/belts", http.StatusSeeOther)
}

// HandleCreateLevel adds a student level.
// POST /belts/levels  (name, rank)
func (h *Handler) HandleCreateLevel(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderList(w, r, "That didn't look like a valid form submission.")
		return
	}

	rank, err := strconv.Atoi(strings.TrimSpace(r.PostFormValue("rank")))
	if err != nil || rank < 0 {
		h.renderList(w, r, "The rank must be a whole number.")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), beltsTimeout)
	defer cancel()

	_, err = h.Levels.Create(ctx, models.StudentLevel{
		Name:      r.PostFormValue("name"),
		Rank:      rank,
		CreatedBy: creatorID(r),
	})
	if err != nil {
		if errors.Is(err, studentlevelstore.ErrDuplicate) {
			h.renderList(w, r, "A student level with this name already exists.")
			return
		}
		h.ErrLog.ServerError(w, r, err, "The level could not be created.")
		return
	}

	http.Redirect(w, r, "/belts", http.StatusSeeOther)
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
