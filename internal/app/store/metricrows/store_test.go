package metricrows_test

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mwholloway/salescope/internal/app/store/metricrows"
	"github.com/mwholloway/salescope/internal/app/system/daterange"
	"github.com/mwholloway/salescope/internal/domain/models"
	"github.com/mwholloway/salescope/internal/testutil"
)

func day(s string) time.Time {
	t, err := time.ParseInLocation(daterange.Layout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func TestSummarize(t *testing.T) {
	rows := []models.MetricRow{
		{Revenue: 100, Orders: 4, Sessions: 100, NewCustomers: 2},
		{Revenue: 300, Orders: 6, Sessions: 150, NewCustomers: 1},
	}
	totals := metricrows.Summarize(rows)

	if totals.Revenue != 400 {
		t.Errorf("revenue: got %v", totals.Revenue)
	}
	if totals.Orders != 10 {
		t.Errorf("orders: got %v", totals.Orders)
	}
	if totals.AvgOrderValue != 40 {
		t.Errorf("avg order value: got %v", totals.AvgOrderValue)
	}
	if totals.ConversionRate != 0.04 {
		t.Errorf("conversion rate: got %v", totals.ConversionRate)
	}
}

func TestSummarize_EmptyIsAllZero(t *testing.T) {
	totals := metricrows.Summarize(nil)
	if totals != (metricrows.Totals{}) {
		t.Errorf("expected zero totals, got %+v", totals)
	}
}

func TestSummarize_ZeroDenominators(t *testing.T) {
	totals := metricrows.Summarize([]models.MetricRow{
		{Revenue: 50, Orders: 0, Sessions: 0},
	})
	if totals.AvgOrderValue != 0 {
		t.Errorf("avg order value with zero orders: got %v", totals.AvgOrderValue)
	}
	if totals.ConversionRate != 0 {
		t.Errorf("conversion rate with zero sessions: got %v", totals.ConversionRate)
	}
}

func TestQueryRange(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	store := metricrows.New(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()
	fx.CreateMetricRow(ctx, owner, day("2025-01-01"), 100, 4, 100, 2)
	fx.CreateMetricRow(ctx, owner, day("2025-01-03"), 200, 5, 120, 1)
	fx.CreateMetricRow(ctx, owner, day("2025-01-10"), 999, 9, 999, 9)
	fx.CreateMetricRow(ctx, other, day("2025-01-02"), 500, 5, 500, 5)

	rng, err := daterange.Parse("2025-01-01", "2025-01-05")
	if err != nil {
		t.Fatalf("parse range: %v", err)
	}

	rows, err := store.QueryRange(ctx, owner, rng)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("got %d rows, want 2", len(rows))
	}
	if !rows[0].Day.Before(rows[1].Day) {
		t.Error("rows should be sorted oldest first")
	}
	for _, r := range rows {
		if r.OwnerID != owner {
			t.Error("query leaked another owner's rows")
		}
	}
}

func TestQueryRange_EmptyIsNonNil(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	store := metricrows.New(db)
	rows, err := store.QueryRange(ctx, primitive.NewObjectID(), daterange.New(day("2025-01-01"), day("2025-01-05")))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if rows == nil {
		t.Error("empty result should be an empty slice, not nil")
	}
	if len(rows) != 0 {
		t.Errorf("got %d rows, want 0", len(rows))
	}
}

func TestUpsert_ReplacesExistingDay(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)

	store := metricrows.New(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	owner := primitive.NewObjectID()
	row := models.MetricRow{OwnerID: owner, Day: day("2025-02-01"), Revenue: 100, Orders: 2, Sessions: 50}
	if err := store.Upsert(ctx, row); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	row.Revenue = 250
	if err := store.Upsert(ctx, row); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	rows, err := store.QueryRange(ctx, owner, daterange.New(day("2025-02-01"), day("2025-02-01")))
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].Revenue != 250 {
		t.Errorf("revenue after upsert: got %v", rows[0].Revenue)
	}
}

func TestSeedDemo_DoesNotOverwrite(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	fx := testutil.NewFixtures(t, db)

	store := metricrows.New(db)
	if err := store.EnsureIndexes(ctx); err != nil {
		t.Fatalf("ensure indexes: %v", err)
	}

	owner := primitive.NewObjectID()
	today := daterange.Day(time.Now().UTC())
	fx.CreateMetricRow(ctx, owner, today, 12345, 7, 70, 3)

	if err := store.SeedDemo(ctx, owner, 10); err != nil {
		t.Fatalf("seed: %v", err)
	}

	rng := daterange.LastNDaysEnding(today, 10)
	rows, err := store.QueryRange(ctx, owner, rng)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(rows) != 10 {
		t.Fatalf("got %d rows, want 10", len(rows))
	}
	for _, r := range rows {
		if r.Day.Equal(today) && r.Revenue != 12345 {
			t.Errorf("seed overwrote existing day: revenue %v", r.Revenue)
		}
	}
}
