package dashboard

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dalemusser/waffle/pantry/query"
	"github.com/dalemusser/waffle/pantry/templates"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	uierrors "github.com/mwholloway/salescope/internal/app/features/errors"
	"github.com/mwholloway/salescope/internal/app/store/metricrows"
	"github.com/mwholloway/salescope/internal/app/system/auth"
	"github.com/mwholloway/salescope/internal/app/system/daterange"
	"github.com/mwholloway/salescope/internal/app/system/metricsvc"
	"github.com/mwholloway/salescope/internal/app/system/timeouts"
	"github.com/mwholloway/salescope/internal/app/system/viewdata"
	"github.com/mwholloway/salescope/internal/domain/models"
)

// retryDelay is how long the data endpoint waits before its single second
// look at the session. A freshly established session can race the first
// dashboard poll; one short retry absorbs that without masking real
// sign-outs.
const retryDelay = 350 * time.Millisecond

type Handler struct {
	Metrics    *metricsvc.Service
	SessionMgr *auth.SessionManager
	ErrLog     *uierrors.ErrorLogger
	Log        *zap.Logger
}

func NewHandler(metrics *metricsvc.Service, sessionMgr *auth.SessionManager, errLog *uierrors.ErrorLogger, logger *zap.Logger) *Handler {
	return &Handler{
		Metrics:    metrics,
		SessionMgr: sessionMgr,
		ErrLog:     errLog,
		Log:        logger,
	}
}

// kpiCard is one headline number with a small companion figure underneath.
type kpiCard struct {
	Label     string
	Value     string
	Companion string
}

type rowVM struct {
	Day          string
	Revenue      string
	Orders       int64
	Sessions     int64
	NewCustomers int64
}

type pageData struct {
	viewdata.BaseVM
	From     string
	To       string
	UserID   string
	IsAdmin  bool
	MaxDays  int
	Cards    []kpiCard
	Rows     []rowVM
	HasRows  bool
	QueryErr string
}

// ServePage handles GET /, the dashboard. The guard guarantees a signed-in
// user by the time this runs.
func (h *Handler) ServePage(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		http.Redirect(w, r, "/sign-in?next=%2F", http.StatusSeeOther)
		return
	}

	data, ok := h.buildPageData(w, r, user)
	if !ok {
		return
	}
	templates.Render(w, r, "dashboard", data)
}

// ServeData handles GET /dashboard/data, the polled HTMX fragment. When the
// session is missing it waits once and looks again before giving up with an
// HX-Redirect, since the cookie may have been rewritten mid-poll.
func (h *Handler) ServeData(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		time.Sleep(retryDelay)
		user = h.SessionMgr.Resolve(w, r)
	}
	if user == nil {
		w.Header().Set("HX-Redirect", "/sign-in?next=%2F")
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	data, ok := h.buildPageData(w, r, user)
	if !ok {
		return
	}
	templates.RenderSnippet(w, "dashboard_data", data)
}

func (h *Handler) buildPageData(w http.ResponseWriter, r *http.Request, user *auth.SessionUser) (pageData, bool) {
	data := pageData{
		BaseVM: viewdata.NewBaseVM(r, "Dashboard", "/"),
		From:   query.Get(r, "from"),
		To:     query.Get(r, "to"),
		UserID: query.Get(r, "user_id"),
	}

	callerID, err := primitive.ObjectIDFromHex(user.ID)
	if err != nil {
		h.ErrLog.LogBadRequest(w, r, "malformed user id in session", err, "Please sign in again.", "/sign-in")
		return pageData{}, false
	}

	ctx, cancel := context.WithTimeout(r.Context(), timeouts.Medium())
	defer cancel()

	res, err := h.Metrics.Fetch(ctx, callerID, user.Email, metricsvc.Query{
		From:   data.From,
		To:     data.To,
		UserID: data.UserID,
	})
	switch err {
	case nil:
		// continue
	case metricsvc.ErrInvalidRange:
		data.QueryErr = "Dates must be in YYYY-MM-DD form."
		return data, true
	case metricsvc.ErrBadUserID:
		data.QueryErr = "That user id is not valid."
		return data, true
	default:
		h.ErrLog.LogServerError(w, r, "dashboard metrics query", err, "Unable to load metrics.", "/")
		return pageData{}, false
	}

	data.From = res.From.Format(daterange.Layout)
	data.To = res.To.Format(daterange.Layout)
	data.IsAdmin = res.Role == models.RoleAdmin
	data.MaxDays = daterange.MaxDaysForRole(res.Role)
	data.Cards = buildCards(res)
	data.HasRows = res.Totals != (metricrows.Totals{})

	for _, row := range res.Rows {
		data.Rows = append(data.Rows, rowVM{
			Day:          row.Day.Format(daterange.Layout),
			Revenue:      fmt.Sprintf("$%.2f", row.Revenue),
			Orders:       row.Orders,
			Sessions:     row.Sessions,
			NewCustomers: row.NewCustomers,
		})
	}
	return data, true
}

// buildCards pairs each headline metric with the companion figure shown
// beneath it.
func buildCards(res metricsvc.Result) []kpiCard {
	t := res.Totals
	return []kpiCard{
		{
			Label:     "Revenue",
			Value:     fmt.Sprintf("$%.2f", t.Revenue),
			Companion: fmt.Sprintf("%d orders", t.Orders),
		},
		{
			Label:     "Orders",
			Value:     fmt.Sprintf("%d", t.Orders),
			Companion: fmt.Sprintf("$%.2f avg order", t.AvgOrderValue),
		},
		{
			Label:     "Sessions",
			Value:     fmt.Sprintf("%d", t.Sessions),
			Companion: fmt.Sprintf("%.1f%% conversion", t.ConversionRate*100),
		},
		{
			Label:     "New customers",
			Value:     fmt.Sprintf("%d", t.NewCustomers),
			Companion: fmt.Sprintf("over %d days", daterange.New(res.From, res.To).Days()),
		},
	}
}
