// Package ui provides the terminal dashboard for the sprinkler controller.
//
// # Architecture Overview
//
// The dashboard is a Bubble Tea program. Everything it draws comes from a
// state.Store snapshot that the poller keeps current; rendering never calls
// the controller. Keys that change the controller (run, stop, toggle, rain
// lock) run as tea.Cmds, report back through an action message and then ask
// the poller for a fresh snapshot.
//
// # Views
//
//   - Pins: the merged pin catalog with live state and the schedule driving each pin
//   - Schedules: every schedule with its next run within a week
//   - Logs: tail of the client's own log file
//
// # Key Bindings
//
//   - 1/2/3 or Tab: switch views
//   - r / s: run or stop the selected pin; x stops every running pin
//   - Space: enable or disable the selected schedule
//   - R / C: set a 24 hour rain lock or clear it
//   - u: refresh now
//   - T: cycle theme (saved to prefs)
//   - ?: full help
//   - q or Ctrl+C: quit
package ui
