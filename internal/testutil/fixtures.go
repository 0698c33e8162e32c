package testutil

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/go-chi/chi/v5"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mwholloway/salescope/internal/domain/models"
)

// WithChiURLParam adds a chi URL parameter to the request context.
// Use this in handler tests that need to access chi.URLParam values.
func WithChiURLParam(r *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

// Fixtures provides helper methods for creating test data.
type Fixtures struct {
	db *mongo.Database
	t  *testing.T
}

// NewFixtures creates a new Fixtures instance for the given test database.
func NewFixtures(t *testing.T, db *mongo.Database) *Fixtures {
	t.Helper()
	return &Fixtures{db: db, t: t}
}

// DB returns the underlying database for direct access in tests.
func (f *Fixtures) DB() *mongo.Database {
	return f.db
}

// CreateUser inserts a user and a matching profile with the given role.
func (f *Fixtures) CreateUser(ctx context.Context, email, role string) (models.User, models.Profile) {
	f.t.Helper()

	now := time.Now().UTC()
	user := models.User{
		ID:        primitive.NewObjectID(),
		Email:     email,
		EmailCI:   text.Fold(email),
		Status:    "active",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("users").InsertOne(ctx, user); err != nil {
		f.t.Fatalf("failed to create test user: %v", err)
	}

	profile := models.Profile{
		ID:        primitive.NewObjectID(),
		UserID:    user.ID,
		Email:     email,
		Role:      role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if _, err := f.db.Collection("profiles").InsertOne(ctx, profile); err != nil {
		f.t.Fatalf("failed to create test profile: %v", err)
	}

	return user, profile
}

// CreateAdmin inserts an admin user with profile.
func (f *Fixtures) CreateAdmin(ctx context.Context, email string) (models.User, models.Profile) {
	f.t.Helper()
	return f.CreateUser(ctx, email, models.RoleAdmin)
}

// CreateMetricRow inserts one metric row for the owner on the given day.
func (f *Fixtures) CreateMetricRow(ctx context.Context, ownerID primitive.ObjectID, day time.Time, revenue float64, orders, sessions, newCustomers int64) models.MetricRow {
	f.t.Helper()

	now := time.Now().UTC()
	row := models.MetricRow{
		ID:           primitive.NewObjectID(),
		OwnerID:      ownerID,
		Day:          time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.UTC),
		Revenue:      revenue,
		Orders:       orders,
		Sessions:     sessions,
		NewCustomers: newCustomers,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if _, err := f.db.Collection("metric_rows").InsertOne(ctx, row); err != nil {
		f.t.Fatalf("failed to create test metric row: %v", err)
	}
	return row
}
