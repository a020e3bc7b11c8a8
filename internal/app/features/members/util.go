// internal/app/features/members/util.go
package members

import (
	"net/http"
	"time"

	uierrors "github.com/dalemusser/dojohub/internal/app/features/errors"
	"github.com/dalemusser/dojohub/internal/app/system/auth"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const membersLongTimeout = 10 * time.Second

func userCtx(r *http.Request) (role, name, id string, ok bool) {
	return auth.UserCtx(r)
}

// memberID pulls the {id} route parameter. A malformed id renders the
// not-found page and reports false.
func (h *Handler) memberID(w http.ResponseWriter, r *http.Request) (primitive.ObjectID, bool) {
	raw := chi.URLParam(r, "id")
	id, err := primitive.ObjectIDFromHex(raw)
	if err != nil {
		uierrors.RenderNotFound(w, r, "That member doesn't exist.")
		return primitive.NilObjectID, false
	}
	return id, true
}

// actorID returns the signed-in admin's ObjectID.
func actorID(r *http.Request) primitive.ObjectID {
	_, _, id, ok := userCtx(r)
	if !ok {
		return primitive.NilObjectID
	}
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID
	}
	return oid
}
