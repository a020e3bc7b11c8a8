// internal/app/features/members/actions.go
package members

import (
	"context"
	"net/http"
	"strings"

	uierrors "github.com/dalemusser/dojohub/internal/app/features/errors"
	"github.com/dalemusser/dojohub/internal/app/memberdata"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// HandleStatus applies a membership status transition.
// POST /members/{id}/status  (status, reason)
func (h *Handler) HandleStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := h.memberID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		uierrors.RenderForbidden(w, r, "That didn't look like a valid form submission.", "")
		return
	}

	status := strings.TrimSpace(r.PostFormValue("status"))
	reason := strings.TrimSpace(r.PostFormValue("reason"))

	ctx, cancel := context.WithTimeout(r.Context(), membersLongTimeout)
	defer cancel()

	if err := h.Svc.UpdateMembershipStatus(ctx, id, status, reason, actorID(r)); err != nil {
		switch memberdata.KindOf(err) {
		case memberdata.KindNotFound:
			uierrors.RenderNotFound(w, r, "That member doesn't exist.")
		default:
			h.ErrLog.ServerError(w, r, err, "The status change could not be saved.")
		}
		return
	}

	http.Redirect(w, r, "/members/"+id.Hex()+"/view", http.StatusSeeOther)
}

// HandleCheckIn records an attendance for the member, optionally against a
// class session.
// POST /members/{id}/checkin  (session_id optional)
func (h *Handler) HandleCheckIn(w http.ResponseWriter, r *http.Request) {
	id, ok := h.memberID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		uierrors.RenderForbidden(w, r, "That didn't look like a valid form submission.", "")
		return
	}

	sessionID := primitive.NilObjectID
	if raw := strings.TrimSpace(r.PostFormValue("session_id")); raw != "" {
		oid, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			uierrors.RenderNotFound(w, r, "That class session doesn't exist.")
			return
		}
		sessionID = oid
	}

	ctx, cancel := context.WithTimeout(r.Context(), membersLongTimeout)
	defer cancel()

	if err := h.Svc.RecordCheckIn(ctx, id, sessionID, actorID(r)); err != nil {
		switch memberdata.KindOf(err) {
		case memberdata.KindNotFound:
			uierrors.RenderNotFound(w, r, "That member doesn't exist.")
		case memberdata.KindInvalid:
			uierrors.RenderForbidden(w, r, "Deactivated members can't check in.", "/members/"+id.Hex()+"/view")
		default:
			h.ErrLog.ServerError(w, r, err, "The check-in could not be recorded.")
		}
		return
	}

	http.Redirect(w, r, "/members/"+id.Hex()+"/view", http.StatusSeeOther)
}

// HandleAward grants a belt or student level.
// POST /members/{id}/award  (kind, level_id, notes)
func (h *Handler) HandleAward(w http.ResponseWriter, r *http.Request) {
	id, ok := h.memberID(w, r)
	if !ok {
		return
	}
	if err := r.ParseForm(); err != nil {
		uierrors.RenderForbidden(w, r, "That didn't look like a valid form submission.", "")
		return
	}

	levelID, err := primitive.ObjectIDFromHex(strings.TrimSpace(r.PostFormValue("level_id")))
	if err != nil {
		uierrors.RenderNotFound(w, r, "That level doesn't exist.")
		return
	}
	kind := strings.TrimSpace(r.PostFormValue("kind"))
	notes := strings.TrimSpace(r.PostFormValue("notes"))

	ctx, cancel := context.WithTimeout(r.Context(), membersLongTimeout)
	defer cancel()

	switch kind {
	case "belt":
		_, err = h.Svc.AwardBelt(ctx, id, levelID, actorID(r), notes)
	case "student_level":
		_, err = h.Svc.AwardStudentLevel(ctx, id, levelID, actorID(r), notes)
	default:
		uierrors.RenderNotFound(w, r, "Unknown award kind.")
		return
	}
	if err != nil {
		switch memberdata.KindOf(err) {
		case memberdata.KindNotFound:
			uierrors.RenderNotFound(w, r, "That member or level doesn't exist.")
		default:
			h.ErrLog.ServerError(w, r, err, "The award could not be recorded.")
		}
		return
	}

	http.Redirect(w, r, "/members/"+id.Hex()+"/view", http.StatusSeeOther)
}

// HandleDeactivate soft-deletes the member and revokes portal access.
// POST /members/{id}/deactivate
func (h *Handler) HandleDeactivate(w http.ResponseWriter, r *http.Request) {
	id, ok := h.memberID(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), membersLongTimeout)
	defer cancel()

	if err := h.Svc.DeactivateMember(ctx, id, actorID(r)); err != nil {
		switch memberdata.KindOf(err) {
		case memberdata.KindNotFound:
			uierrors.RenderNotFound(w, r, "That member doesn't exist.")
		default:
			h.ErrLog.ServerError(w, r, err, "The member could not be deactivated.")
		}
		return
	}

	http.Redirect(w, r, "/members", http.StatusSeeOther)
}
