package main

import (
	"bytes"
	"context"
	"io"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/five82/sprinkler/internal/model"
	"github.com/five82/sprinkler/internal/pins"
	"github.com/five82/sprinkler/internal/simulator"
)

type harness struct {
	ctrl *simulator.Controller
	url  string
	dir  string
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	ctrl := simulator.NewController(pins.DefaultCatalog().Numbers(), nil)
	srv := httptest.NewServer(simulator.NewServer(ctrl, simulator.Options{Token: "s3cret"}).Routes())
	t.Cleanup(srv.Close)
	return &harness{ctrl: ctrl, url: srv.URL, dir: dir}
}

func (h *harness) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	base := []string{
		"--host", h.url,
		"--token", "s3cret",
		"--config", filepath.Join(h.dir, "config.toml"),
		"--prefs", filepath.Join(h.dir, "prefs.toml"),
	}
	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs(append(base, args...))
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestStatusCommand(t *testing.T) {
	h := newHarness(t)
	out, err := h.run(t, "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:    1.1.0")
	assert.Contains(t, out, "Rain lock:  off")
	assert.Contains(t, out, "ZONE")
}

func TestPinsRunStopList(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "pins", "run", "12", "-m", "5")
	require.NoError(t, err)
	assert.Equal(t, "pin 12 running for 5 min\n", out)
	assert.True(t, h.ctrl.Pins()[0].Active())

	out, err = h.run(t, "pins", "list")
	require.NoError(t, err)
	assert.Regexp(t, `12\s+Pin 12\s+running\s+true`, out)

	_, err = h.run(t, "pins", "stop", "12")
	require.NoError(t, err)
	assert.False(t, h.ctrl.Pins()[0].Active())

	_, err = h.run(t, "pins", "run", "zero")
	require.ErrorContains(t, err, `invalid pin "zero"`)
}

func TestSchedulesLifecycle(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "schedules", "add",
		"--id", "front", "--name", "Front lawn",
		"--start", "06:00", "--days", "Mon,Wed", "--minutes", "15")
	require.NoError(t, err)
	assert.Equal(t, "created front\n", out)

	_, err = h.run(t, "schedules", "add", "--id", "beds",
		"--start", "23:30", "--days", "Tue", "--step", "12:45", "--step", "16:90")
	require.NoError(t, err)

	out, err = h.run(t, "schedules", "list")
	require.NoError(t, err)
	assert.Regexp(t, `front\s+Front lawn\s+06:00\s+Mon,Wed\s+15\s+true`, out)
	assert.Regexp(t, `beds\s+-\s+23:30\s+Tue\s+135\s+true`, out)

	_, err = h.run(t, "schedules", "disable", "front")
	require.NoError(t, err)
	assert.False(t, h.ctrl.Schedules()[0].Enabled)

	_, err = h.run(t, "schedules", "reorder", "beds", "front")
	require.NoError(t, err)
	assert.Equal(t, "beds", h.ctrl.Schedules()[0].ID)

	out, err = h.run(t, "schedules", "next", "--days", "7")
	require.NoError(t, err)
	assert.Contains(t, out, "beds")
	assert.NotContains(t, out, "Front lawn", "disabled schedules have no next run")

	_, err = h.run(t, "schedules", "delete", "front")
	require.NoError(t, err)
	assert.Len(t, h.ctrl.Schedules(), 1)

	_, err = h.run(t, "schedules", "enable", "missing")
	require.ErrorContains(t, err, `schedule "missing" not found`)
}

func TestRainLockBlocksRuns(t *testing.T) {
	h := newHarness(t)

	out, err := h.run(t, "rain-lock", "set", "6")
	require.NoError(t, err)
	assert.Contains(t, out, "rain lock until")

	_, err = h.run(t, "pins", "run", "12")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Rain lock active")

	_, err = h.run(t, "rain-lock", "clear")
	require.NoError(t, err)
	_, err = h.run(t, "pins", "run", "12")
	require.NoError(t, err)
}

func TestWrongTokenIsRejected(t *testing.T) {
	h := newHarness(t)
	cmd := newRootCmd()
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--host", h.url, "--token", "nope", "--config", filepath.Join(h.dir, "none.toml"), "status"})
	err := cmd.ExecuteContext(context.Background())
	require.Error(t, err)
}

func TestLogsCommand(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)
	logFile := filepath.Join(dir, "sprinkler.log")
	lines := `{"level":"debug","ts":"2025-06-02T06:00:00Z","msg":"tick"}
{"level":"warn","ts":"2025-06-02T06:00:01Z","logger":"poller","msg":"controller reported pins outside the catalog"}
not json at all
`
	require.NoError(t, os.WriteFile(logFile, []byte(lines), 0o644))
	t.Setenv("SPRINKLER_LOG_FILE", logFile)

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(io.Discard)
	cmd.SetArgs([]string{"--config", filepath.Join(dir, "none.toml"), "logs", "--level", "warn"})
	require.NoError(t, cmd.ExecuteContext(context.Background()))

	assert.Contains(t, out.String(), "[poller] controller reported pins outside the catalog")
	assert.NotContains(t, out.String(), "tick")
}

func TestParseStep(t *testing.T) {
	step, err := parseStep(" 12:45 ")
	require.NoError(t, err)
	assert.Equal(t, model.Step{Pin: 12, DurationMinutes: 45}, step)

	for _, bad := range []string{"12", "x:5", "12:0", "-1:5", "12:y"} {
		_, err := parseStep(bad)
		assert.Error(t, err, bad)
	}
}
