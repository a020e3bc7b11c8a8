// internal/domain/models/adminuser.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminUser is a console operator (front-desk staff or gym owner). Admin
// accounts are separate from member portal credentials; the two never share
// a collection or a session store.
type AdminUser struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FullName     string             `bson:"full_name" json:"full_name"`
	FullNameCI   string             `bson:"full_name_ci" json:"full_name_ci"`
	Email        string             `bson:"email" json:"email"`
	PasswordHash []byte             `bson:"password_hash" json:"-"`
	Role         string             `bson:"role" json:"role"` // owner | staff
	Status       string             `bson:"status" json:"status"`
	CreatedAt    time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updated_at" json:"updated_at"`
}
