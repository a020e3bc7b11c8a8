// internal/app/features/members/edit.go
package members

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	uierrors "github.com/dalemusser/dojohub/internal/app/features/errors"
	"github.com/dalemusser/dojohub/internal/app/memberdata"
	memberstore "github.com/dalemusser/dojohub/internal/app/store/members"
	"github.com/dalemusser/dojohub/internal/app/system/limits"
	"github.com/dalemusser/dojohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type editVM struct {
	Title    string
	Role     string
	UserName string

	Member models.Member
	Error  string
}

// ServeEdit renders the edit form pre-filled from the current record.
// GET /members/{id}/edit
func (h *Handler) ServeEdit(w http.ResponseWriter, r *http.Request) {
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

	templates.Render(w, r, "member_edit", editVM{
		Title:    "Edit " + m.FullName(),
		Role:     role,
		UserName: name,
		Member:   *m,
	})
}

// HandleEdit applies a partial update built from the submitted fields. Only
// fields present in the form make it into the patch, so concurrent edits to
// other fields survive.
// POST /members/{id}/edit
func (h *Handler) HandleEdit(w http.ResponseWriter, r *http.Request) {
	id, ok := h.memberID(w, r)
	if !ok {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxMemberFormSize)
	if err := r.ParseForm(); err != nil {
		uierrors.RenderForbidden(w, r, "That didn't look like a valid form submission.", "")
		return
	}

	var p memberstore.Patch
	if v, present := formValue(r, "first_name"); present {
		p.FirstName = &v
	}
	if v, present := formValue(r, "last_name"); present {
		p.LastName = &v
	}
	if v, present := formValue(r, "email"); present {
		p.Email = &v
	}
	if v, present := formValue(r, "phone"); present {
		p.Phone = &v
	}
	if v, present := formValue(r, "emergency_name"); present {
		phone, _ := formValue(r, "emergency_phone")
		p.Emergency = &models.EmergencyContact{Name: v, Phone: phone}
	}
	if v, present := formValue(r, "membership_type"); present {
		p.MembershipType = &v
	}
	if v, present := formValue(r, "amount"); present && v != "" {
		dollars, err := strconv.ParseFloat(v, 64)
		if err != nil || dollars < 0 {
			h.renderEditError(w, r, id, "The monthly amount must be a number.")
			return
		}
		cents := int64(dollars * 100)
		p.AmountCents = &cents
	}
	if v, present := formValue(r, "credits"); present && v != "" {
		credits, err := strconv.Atoi(v)
		if err != nil || credits < 0 {
			h.renderEditError(w, r, id, "Class credits must be a whole number.")
			return
		}
		p.Credits = &credits
	}
	if r.PostForm.Has("auto_renew_present") {
		autoRenew := r.PostFormValue("auto_renew") == "on"
		p.AutoRenew = &autoRenew
	}
	if r.PostForm.Has("waiver_present") {
		waiver := r.PostFormValue("waiver_signed") == "on"
		p.Waiver = &waiver
	}
	if v, present := formValue(r, "tags"); present {
		var tags []string
		for _, t := range strings.Split(v, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tags = append(tags, t)
			}
		}
		p.Tags = &tags
	}

	ctx, cancel := context.WithTimeout(r.Context(), membersLongTimeout)
	defer cancel()

	if err := h.Svc.UpdateMember(ctx, id, p); err != nil {
		switch memberdata.KindOf(err) {
		case memberdata.KindNotFound:
			uierrors.RenderNotFound(w, r, "That member doesn't exist.")
		case memberdata.KindDuplicate:
			h.renderEditError(w, r, id, "Another member already uses this email.")
		default:
			h.ErrLog.ServerError(w, r, err, "The member could not be updated.")
		}
		return
	}

	http.Redirect(w, r, "/members/"+id.Hex()+"/view", http.StatusSeeOther)
}

// formValue reports both the trimmed value and whether the field was
// submitted at all; an absent field stays out of the patch entirely.
func formValue(r *http.Request, key string) (string, bool) {
	if !r.PostForm.Has(key) {
		return "", false
	}
	return strings.TrimSpace(r.PostFormValue(key)), true
}

func (h *Handler) renderEditError(w http.ResponseWriter, r *http.Request, id primitive.ObjectID, msg string) {
	role, name, _, _ := userCtx(r)

	ctx, cancel := context.WithTimeout(r.Context(), membersLongTimeout)
	defer cancel()

	m, err := h.Svc.GetMember(ctx, id)
	if err != nil {
		uierrors.RenderNotFound(w, r, "That member doesn't exist.")
		return
	}
	w.WriteHeader(http.StatusUnprocessableEntity)
	templates.Render(w, r, "member_edit", editVM{
		Title:    "Edit " + m.FullName(),
		Role:     role,
		UserName: name,
		Member:   *m,
		Error:    msg,
	})
}
