package metricrows

import (
	"context"
	"math"
	"time"

	"github.com/mwholloway/salescope/internal/app/system/daterange"
	"github.com/mwholloway/salescope/internal/domain/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Totals aggregates a set of metric rows. AvgOrderValue and ConversionRate
// are derived: revenue per order, and orders per session as a 0..1 fraction.
// Both are zero when their denominator is zero.
type Totals struct {
	Revenue        float64 `json:"revenue"`
	Orders         int64   `json:"orders"`
	Sessions       int64   `json:"sessions"`
	NewCustomers   int64   `json:"new_customers"`
	AvgOrderValue  float64 `json:"avg_order_value"`
	ConversionRate float64 `json:"conversion_rate"`
}

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("metric_rows")}
}

func (s *Store) EnsureIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "owner_id", Value: 1},
				{Key: "day", Value: 1},
			},
			Options: options.Index().SetUnique(true).SetName("idx_metrics_owner_day"),
		},
	}
	_, err := s.c.Indexes().CreateMany(ctx, indexes)
	return err
}

// QueryRange returns the owner's rows whose day falls inside the range,
// oldest first. Days with no document are simply absent.
func (s *Store) QueryRange(ctx context.Context, ownerID primitive.ObjectID, rng daterange.Range) ([]models.MetricRow, error) {
	filter := bson.M{
		"owner_id": ownerID,
		"day": bson.M{
			"$gte": rng.From,
			"$lte": rng.To,
		},
	}
	opts := options.Find().SetSort(bson.D{{Key: "day", Value: 1}})

	cur, err := s.c.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	rows := []models.MetricRow{}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Summarize folds rows into totals with the derived ratios.
func Summarize(rows []models.MetricRow) Totals {
	var t Totals
	for _, r := range rows {
		t.Revenue += r.Revenue
		t.Orders += r.Orders
		t.Sessions += r.Sessions
		t.NewCustomers += r.NewCustomers
	}
	if t.Orders > 0 {
		t.AvgOrderValue = t.Revenue / float64(t.Orders)
	}
	if t.Sessions > 0 {
		t.ConversionRate = float64(t.Orders) / float64(t.Sessions)
	}
	return t
}

// Upsert writes one row keyed by (owner, day), replacing the metric values
// if the day already exists.
func (s *Store) Upsert(ctx context.Context, row models.MetricRow) error {
	now := time.Now().UTC()
	filter := bson.M{
		"owner_id": row.OwnerID,
		"day":      daterange.Day(row.Day),
	}
	update := bson.M{
		"$set": bson.M{
			"revenue":       row.Revenue,
			"orders":        row.Orders,
			"sessions":      row.Sessions,
			"new_customers": row.NewCustomers,
			"updated_at":    now,
		},
		"$setOnInsert": bson.M{
			"created_at": now,
		},
	}
	_, err := s.c.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// SeedDemo fills the last n days for an owner with deterministic sample
// figures, leaving days that already have data untouched.
func (s *Store) SeedDemo(ctx context.Context, ownerID primitive.ObjectID, days int) error {
	rng := daterange.LastNDaysEnding(time.Now().UTC(), days)
	i := 0
	for day := rng.From; !day.After(rng.To); day = day.AddDate(0, 0, 1) {
		// A gentle weekly cycle so charts look plausible.
		wave := 1 + 0.35*math.Sin(2*math.Pi*float64(i)/7)
		sessions := int64(900 + 400*wave)
		orders := int64(float64(sessions) * 0.041)
		row := bson.M{
			"revenue":       math.Round(float64(orders)*57.5*wave*100) / 100,
			"orders":        orders,
			"sessions":      sessions,
			"new_customers": orders / 4,
			"created_at":    time.Now().UTC(),
			"updated_at":    time.Now().UTC(),
		}
		filter := bson.M{"owner_id": ownerID, "day": day}
		_, err := s.c.UpdateOne(ctx, filter,
			bson.M{"$setOnInsert": row},
			options.Update().SetUpsert(true))
		if err != nil {
			return err
		}
		i++
	}
	return nil
}

// HasAny reports whether the owner has any metric rows at all.
func (s *Store) HasAny(ctx context.Context, ownerID primitive.ObjectID) (bool, error) {
	err := s.c.FindOne(ctx, bson.M{"owner_id": ownerID}).Err()
	if err == mongo.ErrNoDocuments {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
