package simulator_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/sprinkler/internal/api"
	"github.com/five82/sprinkler/internal/model"
	"github.com/five82/sprinkler/internal/pins"
	"github.com/five82/sprinkler/internal/simulator"
	"github.com/five82/sprinkler/internal/sprinkler"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type harness struct {
	ctrl   *simulator.Controller
	srv    *httptest.Server
	client *sprinkler.Client
	hits   atomic.Int32
}

func newHarness(t *testing.T, opts simulator.Options, token string) *harness {
	t.Helper()
	h := &harness{ctrl: simulator.NewController([]int{4, 5, 6}, nil)}
	routes := simulator.NewServer(h.ctrl, opts).Routes()
	h.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.hits.Add(1)
		routes.ServeHTTP(w, r)
	}))
	t.Cleanup(h.srv.Close)

	transport := api.New(api.WithRetryDelay(time.Millisecond), api.WithRateLimit(0, 0))
	client, err := sprinkler.NewClient(h.srv.URL, transport, sprinkler.BearerToken(token))
	require.NoError(t, err)
	h.client = client
	return h
}

func TestServerRequiresToken(t *testing.T) {
	h := newHarness(t, simulator.Options{Token: "s3cret"}, "wrong")
	_, err := h.client.FetchStatus(context.Background())

	var apiErr *api.Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Missing or invalid token", apiErr.Message)
	assert.Equal(t, int32(1), h.hits.Load(), "401 must not be retried")

	ok := newHarness(t, simulator.Options{Token: "s3cret"}, "s3cret")
	st, err := ok.client.FetchStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "simulator", st.Backend)
}

func TestServerScheduleLifecycle(t *testing.T) {
	h := newHarness(t, simulator.Options{}, "")
	ctx := context.Background()

	created, err := h.client.CreateSchedule(ctx, model.Schedule{
		Name: model.String("Lawn"), StartTime: "06:00", Days: []string{"Tue"},
		Enabled: true, RunTimeMinutes: model.Int(15),
	})
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)

	second, err := h.client.CreateSchedule(ctx, model.Schedule{
		ID: "beds", StartTime: "23:30", Days: []string{"Mon"}, Enabled: true,
		Sequence: []model.Step{{Pin: 4, DurationMinutes: 45}, {Pin: 5, DurationMinutes: 90}},
	})
	require.NoError(t, err)

	require.NoError(t, h.client.ReorderSchedules(ctx, []string{second.ID, created.ID}))
	list, err := h.client.ListSchedules(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "beds", list[0].ID)
	assert.Equal(t, "Lawn", list[1].Label())

	created.Enabled = false
	updated, err := h.client.UpdateSchedule(ctx, created)
	require.NoError(t, err)
	assert.False(t, updated.Enabled)

	require.NoError(t, h.client.DeleteSchedule(ctx, "beds"))
	err = h.client.DeleteSchedule(ctx, "beds")
	assert.ErrorIs(t, err, &api.Error{Kind: api.KindRequestFailed, Status: http.StatusNotFound})
}

func TestServerRevalidatesWithETag(t *testing.T) {
	h := newHarness(t, simulator.Options{}, "")
	ctx := context.Background()

	first, err := h.client.FetchPins(ctx)
	require.NoError(t, err)
	second, err := h.client.FetchPins(ctx)
	require.NoError(t, err)
	assert.Equal(t, first, second, "304 must serve the cached body")

	req := httptest.NewRequest(http.MethodGet, "/api/pins", nil)
	rec := httptest.NewRecorder()
	simulator.NewServer(h.ctrl, simulator.Options{}).Routes().ServeHTTP(rec, req)
	etag := rec.Header().Get("ETag")
	require.NotEmpty(t, etag)

	req = httptest.NewRequest(http.MethodGet, "/api/pins", nil)
	req.Header.Set("If-None-Match", etag)
	rec = httptest.NewRecorder()
	simulator.NewServer(h.ctrl, simulator.Options{}).Routes().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusNotModified, rec.Code)
}

func TestServerStopFallsBackToEmptyBody(t *testing.T) {
	h := newHarness(t, simulator.Options{RejectStopBody: true}, "")
	ctx := context.Background()

	require.NoError(t, h.client.RunPin(ctx, 4, 10))
	pinsNow, err := h.client.FetchPins(ctx)
	require.NoError(t, err)
	assert.True(t, pinsNow[0].Active())

	before := h.hits.Load()
	require.NoError(t, h.client.StopPin(ctx, 4))
	assert.Equal(t, int32(2), h.hits.Load()-before, "415 then one empty-body resend")

	pinsNow, err = h.client.FetchPins(ctx)
	require.NoError(t, err)
	assert.False(t, pinsNow[0].Active())
}

func TestServerRainLockBlocksRuns(t *testing.T) {
	h := newHarness(t, simulator.Options{}, "")
	ctx := context.Background()

	state, err := h.client.SetRainLock(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, state.ExpiresAt)

	err = h.client.RunPin(ctx, 5, 5)
	var apiErr *api.Error
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusConflict, apiErr.Status)
	assert.Equal(t, "Rain lock active", api.UserMessage(err))

	st, err := h.client.FetchStatus(ctx)
	require.NoError(t, err)
	assert.True(t, st.RainLocked(time.Now()))

	require.NoError(t, h.client.ClearRainLock(ctx))
	require.NoError(t, h.client.RunPin(ctx, 5, 5))
}

func TestServerPinsMergeIntoCatalog(t *testing.T) {
	h := newHarness(t, simulator.Options{}, "")
	ctx := context.Background()
	catalog, err := pins.NewCatalog([]int{6, 5, 4, 7})
	require.NoError(t, err)

	remote, err := h.client.FetchPins(ctx)
	require.NoError(t, err)
	merged := catalog.Merge(nil, remote)
	require.Len(t, merged, 4)
	assert.Equal(t, 4, merged[0].Number, "reported pins come first in report order")
	assert.Equal(t, 7, merged[3].Number)
	assert.False(t, merged[3].Enabled())
}

func TestMonitorAgainstSimulator(t *testing.T) {
	h := newHarness(t, simulator.Options{}, "")
	m := sprinkler.NewMonitor(h.client, time.Second)
	st, err := m.Check(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.1.0", st.Version)
}
