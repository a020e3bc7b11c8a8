// internal/app/features/members/view.go
package members

import (
	"context"
	"fmt"
	"html/template"
	"net/http"

	uierrors "github.com/dalemusser/dojohub/internal/app/features/errors"
	"github.com/dalemusser/dojohub/internal/app/memberdata"
	"github.com/dalemusser/dojohub/internal/app/system/htmlsanitize"
	"github.com/dalemusser/dojohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

// awardRow carries an award plus its notes prepared for rendering; staff
// sometimes paste simple markup into notes.
type awardRow struct {
	models.Award
	NotesHTML template.HTML
}

type viewVM struct {
	Title    string
	Role     string
	UserName string

	Member models.Member
	Awards []awardRow

	Statuses []string
	Belts    []models.BeltLevel
	Levels   []models.StudentLevel

	MonthlyDisplay string
}

// ServeView renders the member detail page with award history and the
// status/check-in/award action forms.
// GET /members/{id}/view
func (h *Handler) ServeView(w http.ResponseWriter, r *http.Request) {
	role, name, _, _ := userCtx(r)

	id, ok := h.memberID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), membersLongTimeout)
	defer cancel()

	m, err := h.Svc.GetMember(ctx, id)
	if err != nil {
		if memberdata.KindOf(err) == memberdata.KindNotFound {
			uierrors.RenderNotFound(w, r, "That member doesn't exist.")
			return
		}
		h.ErrLog.ServerError(w, r, err, "The member record is unavailable right now.")
		return
	}

	history, err := h.Svc.MemberAwards(ctx, id)
	if err != nil {
		h.Log.Warn("award history unavailable")
		history = nil
	}
	awards := make([]awardRow, 0, len(history))
	for _, a := range history {
		awards = append(awards, awardRow{Award: a, NotesHTML: htmlsanitize.PrepareForDisplay(a.Notes)})
	}

	// Taxonomy lists feed the award form; the page still renders without them.
	belts, err := h.Belts.List(ctx)
	if err != nil {
		h.Log.Warn("belt list unavailable")
	}
	levels, err := h.Levels.List(ctx)
	if err != nil {
		h.Log.Warn("student level list unavailable")
	}

	templates.Render(w, r, "member_view", viewVM{
		Title:    m.FullName(),
		Role:     role,
		UserName: name,
		Member:   *m,
		Awards:   awards,
		Statuses: []string{
			models.StatusNone,
			models.StatusActive,
			models.StatusPaused,
			models.StatusOverdue,
		},
		Belts:  belts,
		Levels: levels,

		MonthlyDisplay: fmt.Sprintf("$%.2f", float64(m.Membership.AmountCents)/100),
	})
}
