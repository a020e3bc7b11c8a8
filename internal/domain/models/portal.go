// internal/domain/models/portal.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// PortalProfile is the lightweight companion document written atomically with
// a new Member. It links the member record to its portal login identity.
type PortalProfile struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	MemberID     primitive.ObjectID `bson:"member_id" json:"member_id"`
	CredentialID string             `bson:"credential_id" json:"credential_id"`
	Email        string             `bson:"email" json:"email"`
	DisplayName  string             `bson:"display_name" json:"display_name"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
}
