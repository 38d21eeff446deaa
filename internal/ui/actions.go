package ui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/sprinkler/internal/api"
	"github.com/five82/sprinkler/internal/model"
	"github.com/five82/sprinkler/internal/prefs"
	"github.com/five82/sprinkler/internal/sprinkler"
)

// actionMsg reports the outcome of a controller mutation.
type actionMsg struct {
	text string
	err  error
}

func actionResult(text string, err error) actionMsg {
	if err != nil {
		return actionMsg{err: errors.New(api.UserMessage(err))}
	}
	return actionMsg{text: text}
}

func runPinCmd(ctx context.Context, ctrl sprinkler.Controller, pin, minutes int) tea.Cmd {
	return func() tea.Msg {
		err := ctrl.RunPin(ctx, pin, minutes)
		return actionResult(fmt.Sprintf("Pin %d running for %d min", pin, minutes), err)
	}
}

// stopPinsCmd stops each pin in turn and reports the first failure.
func stopPinsCmd(ctx context.Context, ctrl sprinkler.Controller, pins []int) tea.Cmd {
	return func() tea.Msg {
		for _, pin := range pins {
			if err := ctrl.StopPin(ctx, pin); err != nil {
				return actionResult("", fmt.Errorf("stop pin %d: %w", pin, err))
			}
		}
		if len(pins) == 1 {
			return actionResult(fmt.Sprintf("Pin %d stopped", pins[0]), nil)
		}
		return actionResult(fmt.Sprintf("%d pins stopped", len(pins)), nil)
	}
}

func toggleScheduleCmd(ctx context.Context, ctrl sprinkler.Controller, s model.Schedule) tea.Cmd {
	s.Enabled = !s.Enabled
	return func() tea.Msg {
		_, err := ctrl.UpdateSchedule(ctx, s)
		verb := "disabled"
		if s.Enabled {
			verb = "enabled"
		}
		return actionResult(fmt.Sprintf("%s %s", s.Label(), verb), err)
	}
}

func setRainLockCmd(ctx context.Context, ctrl sprinkler.Controller, hours int, loc *time.Location) tea.Cmd {
	return func() tea.Msg {
		lock, err := ctrl.SetRainLock(ctx, hours)
		if err != nil {
			return actionResult("", err)
		}
		if lock.ExpiresAt != nil {
			return actionResult("Rain lock until "+lock.ExpiresAt.Time.In(loc).Format("Mon 15:04"), nil)
		}
		return actionResult(fmt.Sprintf("Rain lock set for %dh", hours), nil)
	}
}

func clearRainLockCmd(ctx context.Context, ctrl sprinkler.Controller) tea.Cmd {
	return func() tea.Msg {
		return actionResult("Rain lock cleared", ctrl.ClearRainLock(ctx))
	}
}

func saveThemeCmd(path, theme string) tea.Cmd {
	return func() tea.Msg {
		_ = prefs.SetTheme(path, theme)
		return nil
	}
}
