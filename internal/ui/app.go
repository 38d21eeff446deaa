package ui

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap/zapcore"

	"github.com/five82/sprinkler/internal/logtail"
	"github.com/five82/sprinkler/internal/model"
	"github.com/five82/sprinkler/internal/prefs"
	"github.com/five82/sprinkler/internal/sprinkler"
	"github.com/five82/sprinkler/internal/state"
)

// View represents the current active view.
type View int

const (
	ViewPins View = iota
	ViewSchedules
	ViewLogs
)

const (
	defaultRunMinutes = 10
	rainLockHours     = 24
	upcomingDays      = 7
	logLines          = 200
	flashTTL          = 6 * time.Second
)

// Options configures the UI.
type Options struct {
	Context           context.Context
	Controller        sprinkler.Controller
	Store             *state.Store
	Refresh           func()
	Host              string
	Location          *time.Location
	DefaultRunMinutes int
	PollTick          time.Duration
	ThemeName         string
	PrefsPath         string
	LogFile           string
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx        context.Context
	ctrl       sprinkler.Controller
	store      *state.Store
	refresh    func()
	host       string
	loc        *time.Location
	runMinutes int
	prefsPath  string
	logFile    string
	pollTick   time.Duration
	now        func() time.Time

	// UI state
	theme       Theme
	keys        keyMap
	help        help.Model
	currentView View
	width       int
	height      int
	ready       bool

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time
	logs        []logtail.Entry
	logErr      error

	pinRow      int
	scheduleRow int

	// Action feedback
	flash      string
	flashErr   bool
	flashUntil time.Time
	pending    int
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	pollTick := opts.PollTick
	if pollTick == 0 {
		pollTick = time.Second
	}

	themeName := opts.ThemeName
	if themeName == "" {
		themeName = "Meadow"
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	runMinutes := opts.DefaultRunMinutes
	if runMinutes <= 0 {
		runMinutes = defaultRunMinutes
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	refresh := opts.Refresh
	if refresh == nil {
		refresh = func() {}
	}

	return Model{
		ctx:         ctx,
		ctrl:        opts.Controller,
		store:       opts.Store,
		refresh:     refresh,
		host:        opts.Host,
		loc:         loc,
		runMinutes:  runMinutes,
		prefsPath:   prefsPath,
		logFile:     opts.LogFile,
		pollTick:    pollTick,
		now:         time.Now,
		theme:       GetTheme(themeName),
		keys:        DefaultKeyMap(),
		help:        help.New(),
		currentView: ViewPins,
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.ready = true
		return m, nil

	case tickMsg:
		return m.handleTick(time.Time(msg))

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = m.now()
		m.clampRows()
		return m, nil

	case logsMsg:
		m.logs = msg.entries
		m.logErr = msg.err
		return m, nil

	case actionMsg:
		return m.handleAction(msg)
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	return m.renderMain()
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		return m, saveThemeCmd(m.prefsPath, m.theme.Name)

	case key.Matches(msg, m.keys.Tab):
		m.currentView = (m.currentView + 1) % 3
		return m, m.enterView()

	case key.Matches(msg, m.keys.ViewPins):
		m.currentView = ViewPins
		return m, nil

	case key.Matches(msg, m.keys.ViewSchedules):
		m.currentView = ViewSchedules
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		return m, m.enterView()

	case key.Matches(msg, m.keys.Refresh):
		m.refresh()
		m.setFlash("Refreshing…", false)
		return m, nil

	case key.Matches(msg, m.keys.RainLock):
		return m.startAction(setRainLockCmd(m.ctx, m.ctrl, rainLockHours, m.loc))

	case key.Matches(msg, m.keys.ClearRain):
		return m.startAction(clearRainLockCmd(m.ctx, m.ctrl))

	case key.Matches(msg, m.keys.StopAll):
		active := m.snapshot.ActivePins()
		if len(active) == 0 {
			m.setFlash("No pins running", false)
			return m, nil
		}
		numbers := make([]int, 0, len(active))
		for _, p := range active {
			numbers = append(numbers, p.Number)
		}
		return m.startAction(stopPinsCmd(m.ctx, m.ctrl, numbers))
	}

	switch m.currentView {
	case ViewPins:
		return m.handlePinsKey(msg)
	case ViewSchedules:
		return m.handleSchedulesKey(msg)
	}
	return m, nil
}

func (m Model) handlePinsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.snapshot.Pins)
	switch {
	case key.Matches(msg, m.keys.Up):
		m.pinRow = moveRow(m.pinRow, -1, count)
	case key.Matches(msg, m.keys.Down):
		m.pinRow = moveRow(m.pinRow, 1, count)
	case key.Matches(msg, m.keys.Top):
		m.pinRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.pinRow = max(count-1, 0)
	case key.Matches(msg, m.keys.Run):
		pin, ok := m.selectedPin()
		if !ok {
			return m, nil
		}
		return m.startAction(runPinCmd(m.ctx, m.ctrl, pin.Number, m.runMinutes))
	case key.Matches(msg, m.keys.Stop):
		pin, ok := m.selectedPin()
		if !ok {
			return m, nil
		}
		return m.startAction(stopPinsCmd(m.ctx, m.ctrl, []int{pin.Number}))
	}
	return m, nil
}

func (m Model) handleSchedulesKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.snapshot.Schedules)
	switch {
	case key.Matches(msg, m.keys.Up):
		m.scheduleRow = moveRow(m.scheduleRow, -1, count)
	case key.Matches(msg, m.keys.Down):
		m.scheduleRow = moveRow(m.scheduleRow, 1, count)
	case key.Matches(msg, m.keys.Top):
		m.scheduleRow = 0
	case key.Matches(msg, m.keys.Bottom):
		m.scheduleRow = max(count-1, 0)
	case key.Matches(msg, m.keys.Toggle):
		if m.scheduleRow >= count {
			return m, nil
		}
		s := m.snapshot.Schedules[m.scheduleRow]
		return m.startAction(toggleScheduleCmd(m.ctx, m.ctrl, s))
	}
	return m, nil
}

func (m Model) handleTick(now time.Time) (tea.Model, tea.Cmd) {
	cmds := []tea.Cmd{tickCmd(m.pollTick)}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	if m.currentView == ViewLogs && m.logFile != "" {
		cmds = append(cmds, fetchLogsCmd(m.logFile))
	}
	if m.flash != "" && !now.Before(m.flashUntil) {
		m.flash = ""
		m.flashErr = false
	}
	return m, tea.Batch(cmds...)
}

func (m Model) handleAction(msg actionMsg) (tea.Model, tea.Cmd) {
	if m.pending > 0 {
		m.pending--
	}
	if msg.err != nil {
		m.setFlash(msg.err.Error(), true)
		return m, nil
	}
	m.setFlash(msg.text, false)
	m.refresh()
	return m, nil
}

func (m Model) startAction(cmd tea.Cmd) (tea.Model, tea.Cmd) {
	if m.ctrl == nil {
		m.setFlash("Not connected to a controller", true)
		return m, nil
	}
	m.pending++
	return m, cmd
}

func (m Model) enterView() tea.Cmd {
	if m.currentView == ViewLogs && m.logFile != "" {
		return fetchLogsCmd(m.logFile)
	}
	return nil
}

func (m *Model) setFlash(text string, isErr bool) {
	m.flash = text
	m.flashErr = isErr
	m.flashUntil = m.now().Add(flashTTL)
}

func (m Model) selectedPin() (model.Pin, bool) {
	if m.pinRow >= len(m.snapshot.Pins) {
		return model.Pin{}, false
	}
	return m.snapshot.Pins[m.pinRow], true
}

func (m *Model) clampRows() {
	m.pinRow = clampRow(m.pinRow, len(m.snapshot.Pins))
	m.scheduleRow = clampRow(m.scheduleRow, len(m.snapshot.Schedules))
}

func moveRow(row, delta, count int) int {
	return clampRow(row+delta, count)
}

func clampRow(row, count int) int {
	if count == 0 || row < 0 {
		return 0
	}
	if row >= count {
		return count - 1
	}
	return row
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type logsMsg struct {
	entries []logtail.Entry
	err     error
}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func fetchLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		entries, err := logtail.Tail(path, logLines, zapcore.DebugLevel)
		return logsMsg{entries: entries, err: err}
	}
}

// Run starts the Bubble Tea program.
func Run(opts Options) error {
	m := New(opts)
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
