package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MetricRow is one day of sales metrics for one owner.
// Uniqueness is (owner_id, day); day is a UTC midnight timestamp.
// All values are non-negative.
type MetricRow struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"-"`
	OwnerID primitive.ObjectID `bson:"owner_id" json:"-"`
	Day     time.Time          `bson:"day" json:"-"`

	Revenue      float64 `bson:"revenue" json:"revenue"`
	Orders       int64   `bson:"orders" json:"orders"`
	Sessions     int64   `bson:"sessions" json:"sessions"`
	NewCustomers int64   `bson:"new_customers" json:"new_customers"`

	CreatedAt time.Time `bson:"created_at" json:"-"`
	UpdatedAt time.Time `bson:"updated_at" json:"-"`
}
