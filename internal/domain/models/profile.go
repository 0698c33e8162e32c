package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Profile roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// DefaultSiteName is used when no site settings are configured.
const DefaultSiteName = "Salescope"

// Profile holds per-user role and display metadata, distinct from the
// identity record. At most one profile exists per user (unique index on
// user_id); it is created lazily on first access with role "user".
type Profile struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID      primitive.ObjectID `bson:"user_id" json:"user_id"`
	Email       string             `bson:"email,omitempty" json:"email,omitempty"`
	Role        string             `bson:"role" json:"role"` // user | admin
	DisplayName string             `bson:"display_name,omitempty" json:"display_name,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// IsValidRole reports whether role is one of the known profile roles.
func IsValidRole(role string) bool {
	return role == RoleUser || role == RoleAdmin
}
