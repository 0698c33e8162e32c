// Package metricsvc is the metrics aggregation service. It owns the rules
// that every metrics consumer must agree on: the caller's role comes from
// the profile store, never from the session; the requested window is clamped
// to the role's maximum while keeping its end date; and only admins may read
// another owner's rows.
package metricsvc

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mwholloway/salescope/internal/app/store/metricrows"
	"github.com/mwholloway/salescope/internal/app/store/profiles"
	"github.com/mwholloway/salescope/internal/app/system/daterange"
	"github.com/mwholloway/salescope/internal/domain/models"
)

var (
	// ErrInvalidRange mirrors daterange.ErrInvalidRange for callers that
	// only import this package.
	ErrInvalidRange = daterange.ErrInvalidRange

	// ErrBadUserID means an admin supplied an unparseable user_id override.
	ErrBadUserID = errors.New("invalid user_id")
)

// Query is a metrics request as it arrives from the wire, before any
// validation or clamping.
type Query struct {
	From   string
	To     string
	UserID string // admin-only owner override, ignored for other roles
}

// Result is the aggregated answer: the effective window after clamping, the
// per-day rows inside it, and their totals.
type Result struct {
	From   time.Time
	To     time.Time
	Role   string
	Rows   []models.MetricRow
	Totals metricrows.Totals
}

type Service struct {
	profiles *profiles.Store
	metrics  *metricrows.Store
	log      *zap.Logger
}

func New(profileStore *profiles.Store, metricStore *metricrows.Store, logger *zap.Logger) *Service {
	return &Service{
		profiles: profileStore,
		metrics:  metricStore,
		log:      logger,
	}
}

// Fetch runs a metrics query on behalf of the signed-in caller.
func (s *Service) Fetch(ctx context.Context, callerID primitive.ObjectID, callerEmail string, q Query) (Result, error) {
	// A profile lookup failure degrades to the least-privileged role rather
	// than failing the whole query.
	role := models.RoleUser
	if profile, err := s.profiles.EnsureForUser(ctx, callerID, callerEmail); err != nil {
		s.log.Warn("profile lookup failed, treating caller as user",
			zap.String("caller_id", callerID.Hex()), zap.Error(err))
	} else {
		role = profile.Role
	}

	rng, err := s.resolveRange(q, role)
	if err != nil {
		return Result{}, err
	}

	owner := callerID
	if role == models.RoleAdmin && q.UserID != "" {
		oid, err := primitive.ObjectIDFromHex(q.UserID)
		if err != nil {
			return Result{}, ErrBadUserID
		}
		owner = oid
	}

	rows, err := s.metrics.QueryRange(ctx, owner, rng)
	if err != nil {
		return Result{}, err
	}
	rows = fillMissingDays(rng, owner, rows)

	return Result{
		From:   rng.From,
		To:     rng.To,
		Role:   role,
		Rows:   rows,
		Totals: metricrows.Summarize(rows),
	}, nil
}

// fillMissingDays materializes a zeroed row for every day of the window that
// has no stored document, so consumers always see one row per day.
func fillMissingDays(rng daterange.Range, owner primitive.ObjectID, rows []models.MetricRow) []models.MetricRow {
	byDay := make(map[time.Time]models.MetricRow, len(rows))
	for _, r := range rows {
		byDay[daterange.Day(r.Day)] = r
	}

	filled := make([]models.MetricRow, 0, rng.Days())
	rng.EachDay(func(day time.Time) {
		if r, ok := byDay[day]; ok {
			filled = append(filled, r)
			return
		}
		filled = append(filled, models.MetricRow{OwnerID: owner, Day: day})
	})
	return filled
}

// resolveRange parses the requested window, defaulting to the role's full
// window ending today, then clamps it to the role's maximum.
func (s *Service) resolveRange(q Query, role string) (daterange.Range, error) {
	if q.From == "" && q.To == "" {
		return daterange.LastNDaysEnding(time.Now().UTC(), daterange.MaxDaysForRole(role)), nil
	}
	rng, err := daterange.Parse(q.From, q.To)
	if err != nil {
		return daterange.Range{}, err
	}
	return rng.ClampForRole(role), nil
}
