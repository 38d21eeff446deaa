package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap/zapcore"

	"github.com/five82/sprinkler/internal/api"
	"github.com/five82/sprinkler/internal/model"
	"github.com/five82/sprinkler/internal/schedule"
)

func (m Model) renderMain() string {
	sections := []string{
		m.renderHeader(),
		m.renderTabs(),
		m.renderContent(),
		m.renderFooter(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	var body string
	switch m.currentView {
	case ViewPins:
		body = m.renderPins()
	case ViewSchedules:
		body = m.renderSchedules()
	case ViewLogs:
		body = m.renderLogs()
	}
	panel := m.theme.Styles().Panel
	if m.width > 4 {
		panel = panel.Width(m.width - 2)
	}
	return panel.Render(body)
}

func (m Model) renderHeader() string {
	st := m.theme.Styles()
	now := m.now()
	snap := m.snapshot

	parts := []string{st.Title.Render("sprinkler")}
	if m.host != "" {
		parts = append(parts, st.Muted.Render(m.host))
	}

	switch {
	case snap.IsOffline():
		parts = append(parts, st.Danger.Render("● OFFLINE"))
	case !snap.HasStatus:
		parts = append(parts, st.Muted.Render("○ connecting"))
	default:
		parts = append(parts, st.Running.Render("● ONLINE"))
	}
	if snap.HasStatus && snap.Status.Version != "" {
		parts = append(parts, st.Muted.Render("v"+snap.Status.Version))
	}
	if snap.RainLocked(now) {
		until := snap.Status.RainLockExpiresAt.Time.In(m.loc).Format("Mon 15:04")
		parts = append(parts, st.Warning.Render("☂ rain lock until "+until))
	}
	if active := len(snap.ActivePins()); active > 0 {
		parts = append(parts, st.Running.Render(fmt.Sprintf("%d running", active)))
	}
	if !snap.LastUpdated.IsZero() {
		parts = append(parts, st.Muted.Render("updated "+snap.LastUpdated.In(m.loc).Format("15:04:05")))
	}

	header := strings.Join(parts, "  ")
	if snap.LastError != nil {
		header += "\n" + st.Danger.Render(api.UserMessage(snap.LastError))
	}
	return header
}

func (m Model) renderTabs() string {
	st := m.theme.Styles()
	names := []string{"1 Pins", "2 Schedules", "3 Logs"}
	tabs := make([]string, len(names))
	for i, name := range names {
		if View(i) == m.currentView {
			tabs[i] = st.TabActive.Render(name)
		} else {
			tabs[i] = st.Tab.Render(name)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m Model) renderPins() string {
	st := m.theme.Styles()
	snap := m.snapshot
	if len(snap.Pins) == 0 {
		return st.Muted.Render("No pins reported yet.")
	}

	now := m.now()
	zones := make(map[int]model.ZoneState, len(snap.Status.Zones))
	for _, z := range snap.Status.Zones {
		zones[z.GPIO] = z
	}
	scheduled := scheduledPins(schedule.Occurrences(snap.Schedules, now, m.loc), now)

	lines := make([]string, 0, len(snap.Pins)+1)
	lines = append(lines, st.Muted.Render(fmt.Sprintf("  %-5s %-22s %-18s %s", "GPIO", "NAME", "STATE", "SOURCE")))
	for i, p := range snap.Pins {
		stateText, style := pinState(p, zones[p.Number], st)
		source := scheduled[p.Number]
		row := fmt.Sprintf("%-5d %-22s %-18s %s", p.Number, truncate(p.Label(), 22), stateText, truncate(source, 24))
		lines = append(lines, m.renderRow(i == m.pinRow, row, style))
	}
	return strings.Join(lines, "\n")
}

func pinState(p model.Pin, zone model.ZoneState, st Styles) (string, lipgloss.Style) {
	switch {
	case !p.Enabled():
		return "disabled", st.Disabled
	case p.Active():
		if zone.RemainingMinutes != nil {
			return fmt.Sprintf("running %dm left", *zone.RemainingMinutes), st.Running
		}
		return "running", st.Running
	default:
		return "idle", st.Idle
	}
}

// scheduledPins maps each pin driven right now by a schedule to that
// schedule's label.
func scheduledPins(occurrences []schedule.Occurrence, now time.Time) map[int]string {
	out := make(map[int]string)
	for _, o := range occurrences {
		if !o.Contains(now) {
			continue
		}
		if step, ok := o.ActiveStep(now); ok {
			out[step.Pin] = o.Name
		}
	}
	return out
}

func (m Model) renderSchedules() string {
	st := m.theme.Styles()
	snap := m.snapshot
	if len(snap.Schedules) == 0 {
		return st.Muted.Render("No schedules.")
	}

	now := m.now()
	next := make(map[string]schedule.Occurrence)
	for _, o := range snap.Upcoming(now, m.loc, upcomingDays) {
		next[o.ScheduleID] = o
	}

	lines := make([]string, 0, len(snap.Schedules)+1)
	lines = append(lines, st.Muted.Render(fmt.Sprintf("  %-2s %-22s %-6s %-28s %-6s %s", "", "NAME", "START", "DAYS", "MIN", "NEXT")))
	for i, s := range snap.Schedules {
		marker, style := "○", st.Disabled
		if s.Enabled {
			marker, style = "●", st.Text
		}
		nextText := "-"
		if o, ok := next[s.ID]; ok {
			if o.Contains(now) {
				nextText = "running until " + o.End.Format("15:04")
				style = st.Running
			} else {
				nextText = o.Start.Format("Mon 15:04") + "-" + o.End.Format("15:04")
			}
		}
		row := fmt.Sprintf("%-2s %-22s %-6s %-28s %-6d %s",
			marker,
			truncate(s.Label(), 22),
			s.StartTime,
			truncate(strings.Join(s.Days, ","), 28),
			int(s.TotalDuration()/time.Minute),
			nextText)
		lines = append(lines, m.renderRow(i == m.scheduleRow, row, style))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderLogs() string {
	st := m.theme.Styles()
	if m.logFile == "" {
		return st.Muted.Render("Logging to console; no log file to show.")
	}
	if m.logErr != nil {
		return st.Danger.Render("Log unavailable: " + m.logErr.Error())
	}
	if len(m.logs) == 0 {
		return st.Muted.Render("No log entries yet.")
	}

	limit := len(m.logs)
	if m.height > 10 {
		limit = min(limit, m.height-10)
	}
	lines := make([]string, 0, limit)
	for _, e := range m.logs[len(m.logs)-limit:] {
		style := st.Text
		switch {
		case e.Level >= zapcore.ErrorLevel:
			style = st.Danger
		case e.Level == zapcore.WarnLevel:
			style = st.Warning
		case e.Level == zapcore.DebugLevel:
			style = st.Muted
		}
		lines = append(lines, style.Render(e.String()))
	}
	return strings.Join(lines, "\n")
}

func (m Model) renderFooter() string {
	st := m.theme.Styles()
	var flash string
	switch {
	case m.pending > 0:
		flash = st.Info.Render("Working…")
	case m.flash != "" && m.flashErr:
		flash = st.Danger.Render(m.flash)
	case m.flash != "":
		flash = st.Accent.Render(m.flash)
	}
	helpView := m.help.View(m.keys)
	if flash == "" {
		return helpView
	}
	return flash + "\n" + helpView
}

func (m Model) renderRow(selected bool, row string, style lipgloss.Style) string {
	if selected {
		return m.theme.Styles().Selected.Render("› " + row)
	}
	return style.Render("  " + row)
}

func truncate(s string, width int) string {
	r := []rune(s)
	if len(r) <= width {
		return s
	}
	if width <= 1 {
		return string(r[:width])
	}
	return string(r[:width-1]) + "…"
}
