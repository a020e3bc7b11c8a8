// internal/app/features/members/create.go
package members

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/dalemusser/dojohub/internal/app/memberdata"
	"github.com/dalemusser/dojohub/internal/app/system/limits"
	"github.com/dalemusser/dojohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/templates"
)

type newVM struct {
	Title    string
	Role     string
	UserName string

	Form  newForm
	Error string
}

type newForm struct {
	FirstName      string
	LastName       string
	Email          string
	Phone          string
	EmergencyName  string
	EmergencyPhone string
	MembershipType string
	AmountDollars  string
	Credits        string
	AutoRenew      bool
	WaiverSigned   bool
	Tags           string
}

type createdVM struct {
	Title    string
	Role     string
	UserName string

	Member models.Member
	// Password is shown exactly once on this page and never again.
	Password string
}

// ServeNew renders the add-member form.
// GET /members/new
func (h *Handler) ServeNew(w http.ResponseWriter, r *http.Request) {
	role, name, _, _ := userCtx(r)
	templates.Render(w, r, "member_new", newVM{
		Title:    "Add member",
		Role:     role,
		UserName: name,
		Form:     newForm{MembershipType: models.MembershipRecurring, AutoRenew: true},
	})
}

// HandleCreate creates the member and shows the one-time portal password.
// POST /members
func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	role, name, _, _ := userCtx(r)

	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxMemberFormSize)
	if err := r.ParseForm(); err != nil {
		h.renderNewError(w, r, newForm{}, "That didn't look like a valid form submission.")
		return
	}

	form := newForm{
		FirstName:      strings.TrimSpace(r.PostFormValue("first_name")),
		LastName:       strings.TrimSpace(r.PostFormValue("last_name")),
		Email:          strings.TrimSpace(r.PostFormValue("email")),
		Phone:          strings.TrimSpace(r.PostFormValue("phone")),
		EmergencyName:  strings.TrimSpace(r.PostFormValue("emergency_name")),
		EmergencyPhone: strings.TrimSpace(r.PostFormValue("emergency_phone")),
		MembershipType: strings.TrimSpace(r.PostFormValue("membership_type")),
		AmountDollars:  strings.TrimSpace(r.PostFormValue("amount")),
		Credits:        strings.TrimSpace(r.PostFormValue("credits")),
		AutoRenew:      r.PostFormValue("auto_renew") == "on",
		WaiverSigned:   r.PostFormValue("waiver_signed") == "on",
		Tags:           strings.TrimSpace(r.PostFormValue("tags")),
	}

	if form.FirstName == "" && form.LastName == "" {
		h.renderNewError(w, r, form, "A name is required.")
		return
	}
	if form.Email == "" {
		h.renderNewError(w, r, form, "An email is required for the member portal login.")
		return
	}

	in := memberdata.NewMember{
		FirstName: form.FirstName,
		LastName:  form.LastName,
		Email:     form.Email,
		Phone:     form.Phone,
		Emergency: models.EmergencyContact{
			Name:  form.EmergencyName,
			Phone: form.EmergencyPhone,
		},
		MembershipType: form.MembershipType,
		AutoRenew:      form.AutoRenew,
		WaiverSigned:   form.WaiverSigned,
		CreatedBy:      actorID(r),
	}
	if form.AmountDollars != "" {
		dollars, err := strconv.ParseFloat(form.AmountDollars, 64)
		if err != nil || dollars < 0 {
			h.renderNewError(w, r, form, "The monthly amount must be a number.")
			return
		}
		in.AmountCents = int64(dollars * 100)
	}
	if form.Credits != "" {
		credits, err := strconv.Atoi(form.Credits)
		if err != nil || credits < 0 {
			h.renderNewError(w, r, form, "Class credits must be a whole number.")
			return
		}
		in.Credits = credits
	}
	if form.Tags != "" {
		for _, t := range strings.Split(form.Tags, ",") {
			if t = strings.TrimSpace(t); t != "" {
				in.Tags = append(in.Tags, t)
			}
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), membersLongTimeout)
	defer cancel()

	m, password, err := h.Svc.CreateMember(ctx, in)
	if err != nil {
		switch memberdata.KindOf(err) {
		case memberdata.KindDuplicate:
			h.renderNewError(w, r, form, "A member with this email already exists.")
		case memberdata.KindInvalid:
			h.renderNewError(w, r, form, "That email address doesn't look right.")
		case memberdata.KindCredentialDenied:
			h.ErrLog.ServerError(w, r, err, "The member portal is unavailable; the member was not created.")
		default:
			h.ErrLog.ServerError(w, r, err, "The member could not be created.")
		}
		return
	}

	templates.Render(w, r, "member_created", createdVM{
		Title:    "Member created",
		Role:     role,
		UserName: name,
		Member:   m,
		Password: password,
	})
}

func (h *Handler) renderNewError(w http.ResponseWriter, r *http.Request, form newForm, msg string) {
	role, name, _, _ := userCtx(r)
	w.WriteHeader(http.StatusUnprocessableEntity)
	templates.Render(w, r, "member_new", newVM{
		Title:    "Add member",
		Role:     role,
		UserName: name,
		Form:     form,
		Error:    msg,
	})
}
