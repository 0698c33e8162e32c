package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User is the identity record: who can sign in.
//
// NOTE:
//   - Role and display metadata do NOT live here; see Profile.
//     The identity record is immutable after sign-up except for email changes.
type User struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Email   string             `bson:"email" json:"email"`
	EmailCI string             `bson:"email_ci" json:"email_ci"` // lowercase, diacritics-stripped

	// PasswordHash is nil for users who only sign in via Google OAuth.
	PasswordHash *string `bson:"password_hash,omitempty" json:"-"`

	Status string `bson:"status,omitempty" json:"status,omitempty"` // active | disabled

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
