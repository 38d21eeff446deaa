package sprinkler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/sprinkler/internal/api"
	"github.com/five82/sprinkler/internal/model"
)

// recordingDoer captures endpoints and answers with canned JSON.
type recordingDoer struct {
	calls    []api.Endpoint
	bases    []string
	response string
	err      error
}

func (d *recordingDoer) Do(_ context.Context, baseURL string, ep api.Endpoint, dest any) error {
	d.calls = append(d.calls, ep)
	d.bases = append(d.bases, baseURL)
	if d.err != nil {
		return d.err
	}
	if _, ok := dest.(*api.NoContent); ok || dest == nil || d.response == "" {
		return nil
	}
	return json.Unmarshal([]byte(d.response), dest)
}

func (d *recordingDoer) last() api.Endpoint {
	return d.calls[len(d.calls)-1]
}

type failingAuth struct{}

func (failingAuth) AuthorizationHeader(context.Context) (string, error) {
	return "", errors.New("keychain locked")
}

func newTestClient(t *testing.T, doer api.Doer, auth Authenticator) *Client {
	t.Helper()
	c, err := NewClient("http://10.0.0.20:8000", doer, auth)
	require.NoError(t, err)
	return c
}

func validSchedule() model.Schedule {
	return model.Schedule{
		ID:             "front",
		StartTime:      "06:00",
		Days:           []string{"Tue"},
		Enabled:        true,
		RunTimeMinutes: model.Int(15),
	}
}

func TestNewClientRejectsBadInput(t *testing.T) {
	_, err := NewClient("http://[::1", &recordingDoer{}, nil)
	require.ErrorIs(t, err, api.ErrInvalidURL)

	_, err = NewClient("http://host", nil, nil)
	require.Error(t, err)
}

func TestClient_AttachesAuthorization(t *testing.T) {
	doer := &recordingDoer{response: `[]`}
	c := newTestClient(t, doer, BearerToken("s3cret"))

	_, err := c.ListSchedules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer s3cret", doer.last().Headers["Authorization"])
	assert.Equal(t, "http://10.0.0.20:8000", doer.bases[0])

	anon := &recordingDoer{response: `[]`}
	_, err = newTestClient(t, anon, BearerToken("  ")).ListSchedules(context.Background())
	require.NoError(t, err)
	assert.NotContains(t, anon.last().Headers, "Authorization")
}

func TestClient_AuthFailureStopsCall(t *testing.T) {
	doer := &recordingDoer{}
	err := newTestClient(t, doer, failingAuth{}).StopPin(context.Background(), 4)
	require.ErrorContains(t, err, "keychain locked")
	assert.Empty(t, doer.calls)
}

func TestClient_ScheduleEndpoints(t *testing.T) {
	doer := &recordingDoer{response: `{"id":"front","start_time":"06:00","days":["Tue"],"is_enabled":true,"duration":15}`}
	c := newTestClient(t, doer, nil)
	ctx := context.Background()

	created, err := c.CreateSchedule(ctx, validSchedule())
	require.NoError(t, err)
	assert.Equal(t, "front", created.ID)
	assert.Equal(t, http.MethodPost, doer.last().Method)
	assert.Equal(t, "/api/schedules", doer.last().Path)

	_, err = c.UpdateSchedule(ctx, validSchedule())
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, doer.last().Method)
	assert.Equal(t, "/api/schedules/front", doer.last().Path)

	require.NoError(t, c.DeleteSchedule(ctx, "back yard/2"))
	assert.Equal(t, http.MethodDelete, doer.last().Method)
	assert.Equal(t, "/api/schedules/back%20yard%2F2", doer.last().Path)

	require.NoError(t, c.ReorderSchedules(ctx, []string{"b", "a"}))
	assert.Equal(t, "/api/schedules/reorder", doer.last().Path)
	body, err := json.Marshal(doer.last().Body)
	require.NoError(t, err)
	assert.JSONEq(t, `["b","a"]`, string(body))
}

func TestClient_CreateAssignsIDAndValidates(t *testing.T) {
	doer := &recordingDoer{response: `{}`}
	c := newTestClient(t, doer, nil)

	s := validSchedule()
	s.ID = ""
	_, err := c.CreateSchedule(context.Background(), s)
	require.NoError(t, err)
	sent := doer.last().Body.(model.Schedule)
	assert.Len(t, sent.ID, 36)

	bad := validSchedule()
	bad.StartTime = "6pm"
	_, err = c.CreateSchedule(context.Background(), bad)
	require.ErrorContains(t, err, "invalid schedule")
	assert.Len(t, doer.calls, 1, "invalid schedules must not reach the transport")
}

func TestClient_PinActions(t *testing.T) {
	doer := &recordingDoer{}
	c := newTestClient(t, doer, nil)
	ctx := context.Background()

	require.NoError(t, c.RunPin(ctx, 17, 10))
	run := doer.last()
	assert.Equal(t, "/api/pins/17/action", run.Path)
	assert.Equal(t, model.PinAction{DurationMinutes: 10}, run.Body)
	assert.False(t, run.FallbackToEmptyBody)

	require.NoError(t, c.StopPin(ctx, 17))
	stop := doer.last()
	assert.Equal(t, "/api/pins/17/action", stop.Path)
	assert.Equal(t, model.PinAction{DurationMinutes: 0}, stop.Body)
	assert.True(t, stop.FallbackToEmptyBody)

	require.Error(t, c.RunPin(ctx, 17, 0))
	require.Error(t, c.StopPin(ctx, -1))
	assert.Len(t, doer.calls, 2)
}

func TestClient_StatusBypassesCache(t *testing.T) {
	doer := &recordingDoer{response: `{"version":"1.0.0"}`}
	st, err := newTestClient(t, doer, nil).FetchStatus(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", st.Version)
	assert.Equal(t, api.CacheBypass, doer.last().CachePolicy())
}

func TestClient_PassesTransportErrorsThrough(t *testing.T) {
	want := &api.Error{Kind: api.KindRequestFailed, Status: http.StatusConflict, Message: "Rain lock active"}
	doer := &recordingDoer{err: want}
	err := newTestClient(t, doer, nil).RunPin(context.Background(), 4, 5)
	require.ErrorIs(t, err, want)
	assert.Len(t, doer.calls, 1)
}
