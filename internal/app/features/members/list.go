// internal/app/features/members/list.go
package members

import (
	"context"
	"net/http"
	"strings"

	"github.com/dalemusser/dojohub/internal/app/memberdata"
	"github.com/dalemusser/dojohub/internal/app/system/paging"
	"github.com/dalemusser/dojohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

type listVM struct {
	Title    string
	Role     string
	UserName string

	Members []models.Member
	Stats   memberdata.MembershipStats
	Page    paging.Range

	Search string
	Status string
	Type   string
	Tag    string
}

// ServeList renders the member roster with search and filters applied.
// GET /members?search=&status=&type=&tag=&start=
func (h *Handler) ServeList(w http.ResponseWriter, r *http.Request) {
	role, name, _, _ := userCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), membersLongTimeout)
	defer cancel()

	q := memberdata.SearchQuery{
		Term:           strings.TrimSpace(r.URL.Query().Get("search")),
		Status:         strings.TrimSpace(r.URL.Query().Get("status")),
		MembershipType: strings.TrimSpace(r.URL.Query().Get("type")),
		Tag:            strings.TrimSpace(r.URL.Query().Get("tag")),
	}

	results, err := h.Svc.Search(ctx, q)
	if err != nil {
		h.ErrLog.ServerError(w, r, err, "The member list is unavailable right now.")
		return
	}

	stats, err := h.Svc.Stats(ctx)
	if err != nil {
		h.ErrLog.ServerError(w, r, err, "The member list is unavailable right now.")
		return
	}

	pageRange := paging.Page(&results, paging.ParseStart(r))

	templates.Render(w, r, "member_list", listVM{
		Title:    "Members",
		Role:     role,
		UserName: name,
		Members:  results,
		Stats:    stats,
		Page:     pageRange,
		Search:   q.Term,
		Status:   q.Status,
		Type:     q.MembershipType,
		Tag:      q.Tag,
	})
}
