package metricsapi_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mwholloway/salescope/internal/app/features/metricsapi"
	"github.com/mwholloway/salescope/internal/app/store/metricrows"
	"github.com/mwholloway/salescope/internal/app/store/profiles"
	"github.com/mwholloway/salescope/internal/app/system/daterange"
	"github.com/mwholloway/salescope/internal/app/system/metricsvc"
	"github.com/mwholloway/salescope/internal/app/system/timeouts"
	"github.com/mwholloway/salescope/internal/domain/models"
	"github.com/mwholloway/salescope/internal/testutil"
)

type apiResponse struct {
	From   string `json:"from"`
	To     string `json:"to"`
	Rows   []struct {
		Day     string  `json:"day"`
		Revenue float64 `json:"revenue"`
	} `json:"rows"`
	Totals struct {
		Revenue        float64 `json:"revenue"`
		Orders         int64   `json:"orders"`
		Sessions       int64   `json:"sessions"`
		NewCustomers   int64   `json:"new_customers"`
		AvgOrderValue  float64 `json:"avg_order_value"`
		ConversionRate float64 `json:"conversion_rate"`
	} `json:"totals"`
}

func day(s string) time.Time {
	t, err := time.ParseInLocation(daterange.Layout, s, time.UTC)
	if err != nil {
		panic(err)
	}
	return t
}

func newTestHandler(t *testing.T) (*metricsapi.Handler, *testutil.Fixtures) {
	t.Helper()
	timeouts.Reset()
	db := testutil.SetupTestDB(t)
	fx := testutil.NewFixtures(t, db)
	svc := metricsvc.New(profiles.New(db), metricrows.New(db), zap.NewNop())
	return metricsapi.NewHandler(svc, zap.NewNop()), fx
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) apiResponse {
	t.Helper()
	var resp apiResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp
}

func TestServe_Unauthenticated(t *testing.T) {
	h, _ := newTestHandler(t)

	rec := httptest.NewRecorder()
	h.Serve(rec, httptest.NewRequest("GET", "/api/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Empty(t, resp.Rows)
	assert.Zero(t, resp.Totals.Revenue)
	assert.Zero(t, resp.Totals.ConversionRate)
}

func TestServe_RowsAndTotals(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testutil.TestContext(t)

	user, _ := fx.CreateUser(ctx, "ada@example.com", models.RoleUser)
	fx.CreateMetricRow(ctx, user.ID, day("2025-01-02"), 100, 4, 100, 2)
	fx.CreateMetricRow(ctx, user.ID, day("2025-01-03"), 300, 6, 150, 1)

	req := httptest.NewRequest("GET", "/api/metrics?from=2025-01-01&to=2025-01-05", nil)
	req = testutil.WithUser(req, testutil.TestUser{ID: user.ID.Hex(), Email: user.Email, Role: "user"})
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)

	// One row per day of the window, zeroed where no data was stored.
	require.Len(t, resp.Rows, 5)
	assert.Equal(t, "2025-01-01", resp.Rows[0].Day)
	assert.Zero(t, resp.Rows[0].Revenue)
	assert.Equal(t, "2025-01-02", resp.Rows[1].Day)
	assert.Equal(t, float64(100), resp.Rows[1].Revenue)
	assert.Equal(t, float64(400), resp.Totals.Revenue)
	assert.Equal(t, int64(10), resp.Totals.Orders)
	assert.Equal(t, float64(40), resp.Totals.AvgOrderValue)
	assert.InDelta(t, 0.04, resp.Totals.ConversionRate, 1e-9)
}

func TestServe_ClampReflectedInResponse(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testutil.TestContext(t)

	user, _ := fx.CreateUser(ctx, "ada@example.com", models.RoleUser)

	req := httptest.NewRequest("GET", "/api/metrics?from=2025-01-01&to=2025-02-01", nil)
	req = testutil.WithUser(req, testutil.TestUser{ID: user.ID.Hex(), Email: user.Email, Role: "user"})
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, "2025-01-28", resp.From)
	assert.Equal(t, "2025-02-01", resp.To)
}

func TestServe_InvalidRange(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testutil.TestContext(t)

	user, _ := fx.CreateUser(ctx, "ada@example.com", models.RoleUser)

	req := httptest.NewRequest("GET", "/api/metrics?from=bogus&to=2025-01-05", nil)
	req = testutil.WithUser(req, testutil.TestUser{ID: user.ID.Hex(), Email: user.Email, Role: "user"})
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServe_AdminUserIDOverride(t *testing.T) {
	h, fx := newTestHandler(t)
	ctx := testutil.TestContext(t)

	admin, _ := fx.CreateAdmin(ctx, "root@example.com")
	target, _ := fx.CreateUser(ctx, "ada@example.com", models.RoleUser)
	fx.CreateMetricRow(ctx, target.ID, day("2025-01-02"), 777, 7, 70, 7)

	req := httptest.NewRequest("GET", "/api/metrics?from=2025-01-01&to=2025-01-05&user_id="+target.ID.Hex(), nil)
	req = testutil.WithUser(req, testutil.TestUser{ID: admin.ID.Hex(), Email: admin.Email, Role: "admin"})
	rec := httptest.NewRecorder()
	h.Serve(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode(t, rec)
	assert.Equal(t, float64(777), resp.Totals.Revenue)
}
