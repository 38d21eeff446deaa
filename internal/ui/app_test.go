package ui

import (
	"context"
	"net/http"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/sprinkler/internal/api"
	"github.com/five82/sprinkler/internal/model"
	"github.com/five82/sprinkler/internal/prefs"
	"github.com/five82/sprinkler/internal/state"
)

type fakeController struct {
	runs    [][2]int
	stops   []int
	updated []model.Schedule
	locks   []int
	cleared int
	err     error
}

func (f *fakeController) FetchStatus(context.Context) (model.Status, error) {
	return model.Status{}, f.err
}
func (f *fakeController) ListSchedules(context.Context) ([]model.Schedule, error) {
	return nil, f.err
}
func (f *fakeController) CreateSchedule(_ context.Context, s model.Schedule) (model.Schedule, error) {
	return s, f.err
}
func (f *fakeController) UpdateSchedule(_ context.Context, s model.Schedule) (model.Schedule, error) {
	f.updated = append(f.updated, s)
	return s, f.err
}
func (f *fakeController) DeleteSchedule(context.Context, string) error     { return f.err }
func (f *fakeController) ReorderSchedules(context.Context, []string) error { return f.err }
func (f *fakeController) FetchPins(context.Context) ([]model.Pin, error)   { return nil, f.err }
func (f *fakeController) RunPin(_ context.Context, pin, minutes int) error {
	f.runs = append(f.runs, [2]int{pin, minutes})
	return f.err
}
func (f *fakeController) StopPin(_ context.Context, pin int) error {
	f.stops = append(f.stops, pin)
	return f.err
}
func (f *fakeController) SetRainLock(_ context.Context, hours int) (model.RainLockState, error) {
	f.locks = append(f.locks, hours)
	return model.RainLockState{}, f.err
}
func (f *fakeController) ClearRainLock(context.Context) error {
	f.cleared++
	return f.err
}

var testNow = time.Date(2025, 6, 3, 6, 5, 0, 0, time.UTC) // Tuesday

func testSnapshot() state.Snapshot {
	return state.Snapshot{
		HasStatus: true,
		Status: model.Status{
			Version: "2.1.0",
			Zones:   []model.ZoneState{{Zone: 2, GPIO: 16, IsOn: true, RemainingMinutes: model.Int(7)}},
		},
		Pins: []model.Pin{
			{Number: 12, Name: model.String("Front lawn"), IsActive: model.Bool(false), IsEnabled: model.Bool(true)},
			{Number: 16, Name: model.String("Back beds"), IsActive: model.Bool(true), IsEnabled: model.Bool(true)},
			{Number: 20, IsActive: model.Bool(false), IsEnabled: model.Bool(false)},
		},
		Schedules: []model.Schedule{
			{
				ID:        "morning",
				Name:      model.String("Morning"),
				StartTime: "06:00",
				Days:      []string{"Tue", "Thu"},
				Enabled:   true,
				Sequence: []model.Step{
					{Pin: 12, DurationMinutes: 3},
					{Pin: 16, DurationMinutes: 10},
				},
			},
			{ID: "evening", StartTime: "19:30", Days: []string{"Sat"}, RunTimeMinutes: model.Int(20)},
		},
		LastUpdated: testNow,
	}
}

func newTestModel(t *testing.T, ctrl *fakeController, refreshes *int) Model {
	t.Helper()
	opts := Options{
		Host:      "http://garden.local:8000",
		Location:  time.UTC,
		PrefsPath: filepath.Join(t.TempDir(), "prefs.toml"),
		Refresh:   func() { *refreshes++ },
	}
	if ctrl != nil {
		opts.Controller = ctrl
	}
	m := New(opts)
	m.now = func() time.Time { return testNow }
	m, _ = update(m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = update(m, snapshotMsg(testSnapshot()))
	return m
}

func update(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func press(m Model, keys string) (Model, tea.Cmd) {
	msg := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(keys)}
	if keys == " " {
		msg = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(keys)}
	}
	return update(m, msg)
}

func TestNextThemeCycles(t *testing.T) {
	names := ThemeNames()
	for i, name := range names {
		want := names[(i+1)%len(names)]
		if got := NextTheme(name); got != want {
			t.Fatalf("NextTheme(%q) = %q, want %q", name, got, want)
		}
	}
	if got := NextTheme("unknown"); got != names[0] {
		t.Fatalf("NextTheme(unknown) = %q, want %q", got, names[0])
	}
	if got := GetTheme("nope").Name; got != "Meadow" {
		t.Fatalf("GetTheme fallback = %q, want Meadow", got)
	}
}

func TestRunKeyRunsSelectedPin(t *testing.T) {
	ctrl := &fakeController{}
	refreshes := 0
	m := newTestModel(t, ctrl, &refreshes)

	m, _ = press(m, "j")
	m, cmd := press(m, "r")
	if cmd == nil {
		t.Fatal("expected a command for run")
	}
	if m.pending != 1 {
		t.Fatalf("pending = %d, want 1", m.pending)
	}

	m, _ = update(m, cmd())
	if len(ctrl.runs) != 1 || ctrl.runs[0] != [2]int{16, defaultRunMinutes} {
		t.Fatalf("runs = %v, want [[16 %d]]", ctrl.runs, defaultRunMinutes)
	}
	if refreshes != 1 {
		t.Fatalf("refreshes = %d, want 1", refreshes)
	}
	if m.pending != 0 || m.flashErr || !strings.Contains(m.flash, "Pin 16 running") {
		t.Fatalf("unexpected flash state: pending=%d err=%v flash=%q", m.pending, m.flashErr, m.flash)
	}
}

func TestStopAllStopsRunningPins(t *testing.T) {
	ctrl := &fakeController{}
	refreshes := 0
	m := newTestModel(t, ctrl, &refreshes)

	_, cmd := press(m, "x")
	if cmd == nil {
		t.Fatal("expected a command for stop all")
	}
	cmd()
	if len(ctrl.stops) != 1 || ctrl.stops[0] != 16 {
		t.Fatalf("stops = %v, want [16]", ctrl.stops)
	}

	idle := testSnapshot()
	idle.Pins[1].IsActive = model.Bool(false)
	m, _ = update(m, snapshotMsg(idle))
	m, cmd = press(m, "x")
	if cmd != nil {
		t.Fatal("stop all with nothing running should not call the controller")
	}
	if m.flash != "No pins running" {
		t.Fatalf("flash = %q", m.flash)
	}
}

func TestToggleFlipsScheduleEnabled(t *testing.T) {
	ctrl := &fakeController{}
	refreshes := 0
	m := newTestModel(t, ctrl, &refreshes)

	m, _ = press(m, "2")
	m, _ = press(m, "j")
	_, cmd := press(m, " ")
	if cmd == nil {
		t.Fatal("expected a command for toggle")
	}
	msg := cmd().(actionMsg)
	if len(ctrl.updated) != 1 {
		t.Fatalf("updated = %d, want 1", len(ctrl.updated))
	}
	if got := ctrl.updated[0]; got.ID != "evening" || !got.Enabled {
		t.Fatalf("updated schedule = %+v, want evening enabled", got)
	}
	if msg.text != "evening enabled" {
		t.Fatalf("action text = %q", msg.text)
	}
}

func TestActionErrorShowsControllerMessage(t *testing.T) {
	ctrl := &fakeController{err: &api.Error{
		Kind:    api.KindRequestFailed,
		Status:  http.StatusConflict,
		Message: "Rain lock active",
	}}
	refreshes := 0
	m := newTestModel(t, ctrl, &refreshes)

	m, cmd := press(m, "r")
	m, _ = update(m, cmd())
	if !m.flashErr || m.flash != "Rain lock active" {
		t.Fatalf("flash = %q (err=%v), want controller message", m.flash, m.flashErr)
	}
	if refreshes != 0 {
		t.Fatalf("failed actions should not trigger a refresh")
	}
}

func TestRainLockKeys(t *testing.T) {
	ctrl := &fakeController{}
	refreshes := 0
	m := newTestModel(t, ctrl, &refreshes)

	_, cmd := press(m, "R")
	cmd()
	_, cmd = press(m, "C")
	cmd()
	if len(ctrl.locks) != 1 || ctrl.locks[0] != rainLockHours {
		t.Fatalf("locks = %v", ctrl.locks)
	}
	if ctrl.cleared != 1 {
		t.Fatalf("cleared = %d, want 1", ctrl.cleared)
	}
}

func TestActionsWithoutControllerFlash(t *testing.T) {
	refreshes := 0
	m := newTestModel(t, nil, &refreshes)

	m, cmd := press(m, "r")
	if cmd != nil {
		t.Fatal("expected no command without a controller")
	}
	if !m.flashErr {
		t.Fatalf("expected error flash, got %q", m.flash)
	}
}

func TestCycleThemeSavesPrefs(t *testing.T) {
	refreshes := 0
	m := newTestModel(t, &fakeController{}, &refreshes)
	if err := prefs.Save(m.prefsPath, prefs.Prefs{Theme: "Meadow", LastHost: "garden.local"}); err != nil {
		t.Fatalf("Save: %v", err)
	}

	m, cmd := press(m, "T")
	if m.theme.Name != "Dusk" {
		t.Fatalf("theme = %q, want Dusk", m.theme.Name)
	}
	cmd()

	p, err := prefs.Load(m.prefsPath)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if p.Theme != "Dusk" || p.LastHost != "garden.local" {
		t.Fatalf("prefs = %+v", p)
	}
}

func TestViewRendersPins(t *testing.T) {
	refreshes := 0
	m := newTestModel(t, &fakeController{}, &refreshes)

	out := m.View()
	for _, want := range []string{"ONLINE", "v2.1.0", "Front lawn", "running 7m left", "Morning", "disabled", "Pin 20"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestViewRendersSchedules(t *testing.T) {
	refreshes := 0
	m := newTestModel(t, &fakeController{}, &refreshes)
	m, _ = press(m, "2")

	out := m.View()
	for _, want := range []string{"Morning", "running until 06:13", "evening", "Tue,Thu"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestViewShowsOfflineAndRainLock(t *testing.T) {
	refreshes := 0
	m := newTestModel(t, &fakeController{}, &refreshes)

	snap := testSnapshot()
	snap.Status.RainLockExpiresAt = &model.Timestamp{Time: testNow.Add(3 * time.Hour)}
	snap.ConsecutiveFailures = 2
	snap.LastError = &api.Error{Kind: api.KindUnreachable}
	m, _ = update(m, snapshotMsg(snap))

	out := m.View()
	for _, want := range []string{"OFFLINE", "rain lock until Tue 09:05", "could not be reached"} {
		if !strings.Contains(out, want) {
			t.Fatalf("view missing %q:\n%s", want, out)
		}
	}
}

func TestCursorClampsWhenListShrinks(t *testing.T) {
	refreshes := 0
	m := newTestModel(t, &fakeController{}, &refreshes)
	m, _ = press(m, "G")
	if m.pinRow != 2 {
		t.Fatalf("pinRow = %d, want 2", m.pinRow)
	}

	snap := testSnapshot()
	snap.Pins = snap.Pins[:1]
	m, _ = update(m, snapshotMsg(snap))
	if m.pinRow != 0 {
		t.Fatalf("pinRow = %d, want 0 after shrink", m.pinRow)
	}
}

func TestTickClearsExpiredFlash(t *testing.T) {
	refreshes := 0
	m := newTestModel(t, &fakeController{}, &refreshes)
	m.setFlash("done", false)

	m, _ = update(m, tickMsg(testNow.Add(time.Second)))
	if m.flash == "" {
		t.Fatal("flash cleared too early")
	}
	m, _ = update(m, tickMsg(testNow.Add(flashTTL)))
	if m.flash != "" {
		t.Fatalf("flash = %q, want cleared", m.flash)
	}
}
