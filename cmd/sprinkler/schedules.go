package main

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/sprinkler/internal/app"
	"github.com/five82/sprinkler/internal/model"
	"github.com/five82/sprinkler/internal/schedule"
)

func (c *cli) schedulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "schedules",
		Aliases: []string{"schedule", "sched"},
		Short:   "List and manage watering schedules",
	}
	cmd.AddCommand(
		c.schedulesListCmd(),
		c.schedulesNextCmd(),
		c.schedulesAddCmd(),
		c.schedulesDeleteCmd(),
		c.schedulesReorderCmd(),
		c.schedulesEnableCmd("enable", true),
		c.schedulesEnableCmd("disable", false),
	)
	return cmd
}

func (c *cli) schedulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List schedules in controller order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEnv(cmd, func(env *app.Env) error {
				schedules, err := env.Client.ListSchedules(cmd.Context())
				if err != nil {
					return err
				}
				return printSchedules(cmd.OutOrStdout(), schedules)
			})
		},
	}
}

func (c *cli) schedulesNextCmd() *cobra.Command {
	var days int
	cmd := &cobra.Command{
		Use:   "next",
		Short: "Show each schedule's next run",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEnv(cmd, func(env *app.Env) error {
				schedules, err := env.Client.ListSchedules(cmd.Context())
				if err != nil {
					return err
				}
				now := time.Now().In(env.Location)
				return printOccurrences(cmd.OutOrStdout(), schedule.Upcoming(schedules, now, env.Location, days), now)
			})
		},
	}
	cmd.Flags().IntVar(&days, "days", 7, "look-ahead window in days")
	return cmd
}

func (c *cli) schedulesAddCmd() *cobra.Command {
	var (
		id, name, start string
		days            []string
		minutes         int
		steps           []string
		disabled        bool
	)
	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a schedule",
		Example: `  sprinkler schedules add --name "Front lawn" --start 06:00 --days Mon,Wed,Fri --minutes 15
  sprinkler schedules add --start 23:30 --days Tue --step 12:45 --step 16:90`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s := model.Schedule{
				ID:        id,
				StartTime: start,
				Days:      days,
				Enabled:   !disabled,
			}
			if name != "" {
				s.Name = model.String(name)
			}
			if minutes > 0 {
				s.RunTimeMinutes = model.Int(minutes)
			}
			for _, raw := range steps {
				step, err := parseStep(raw)
				if err != nil {
					return err
				}
				s.Sequence = append(s.Sequence, step)
			}
			return c.withEnv(cmd, func(env *app.Env) error {
				created, err := env.Client.CreateSchedule(cmd.Context(), s)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "created %s\n", created.ID)
				return nil
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&id, "id", "", "schedule ID (default: generated)")
	flags.StringVar(&name, "name", "", "display name")
	flags.StringVar(&start, "start", "", "start time, HH:MM")
	flags.StringSliceVar(&days, "days", nil, "weekdays, e.g. Mon,Wed,Fri")
	flags.IntVar(&minutes, "minutes", 0, "run time in minutes")
	flags.StringArrayVar(&steps, "step", nil, "sequence step PIN:MINUTES (repeatable)")
	flags.BoolVar(&disabled, "disabled", false, "create the schedule disabled")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("days")
	cmd.MarkFlagsMutuallyExclusive("minutes", "step")
	cmd.MarkFlagsOneRequired("minutes", "step")
	return cmd
}

func (c *cli) schedulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete ID",
		Short: "Delete a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(env *app.Env) error {
				return env.Client.DeleteSchedule(cmd.Context(), args[0])
			})
		},
	}
}

func (c *cli) schedulesReorderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reorder ID...",
		Short: "Set schedule order; every schedule ID must be listed",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(env *app.Env) error {
				return env.Client.ReorderSchedules(cmd.Context(), args)
			})
		},
	}
}

func (c *cli) schedulesEnableCmd(use string, enabled bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " ID",
		Short: strings.ToUpper(use[:1]) + use[1:] + " a schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.withEnv(cmd, func(env *app.Env) error {
				ctx := cmd.Context()
				schedules, err := env.Client.ListSchedules(ctx)
				if err != nil {
					return err
				}
				i := slices.IndexFunc(schedules, func(s model.Schedule) bool { return s.ID == args[0] })
				if i < 0 {
					return fmt.Errorf("schedule %q not found", args[0])
				}
				s := schedules[i]
				if s.Enabled == enabled {
					return nil
				}
				s.Enabled = enabled
				_, err = env.Client.UpdateSchedule(ctx, s)
				return err
			})
		},
	}
}

// parseStep reads PIN:MINUTES.
func parseStep(raw string) (model.Step, error) {
	pinText, minText, ok := strings.Cut(strings.TrimSpace(raw), ":")
	if !ok {
		return model.Step{}, fmt.Errorf("step %q: want PIN:MINUTES", raw)
	}
	pin, err := strconv.Atoi(pinText)
	if err != nil || pin <= 0 {
		return model.Step{}, fmt.Errorf("step %q: invalid pin", raw)
	}
	minutes, err := strconv.Atoi(minText)
	if err != nil || minutes <= 0 {
		return model.Step{}, fmt.Errorf("step %q: invalid minutes", raw)
	}
	return model.Step{Pin: pin, DurationMinutes: minutes}, nil
}

func printSchedules(w io.Writer, schedules []model.Schedule) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tSTART\tDAYS\tMINUTES\tENABLED")
	for _, s := range schedules {
		name := "-"
		if s.Name != nil && *s.Name != "" {
			name = *s.Name
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%t\n",
			s.ID, name, s.StartTime, strings.Join(s.Days, ","),
			int(s.TotalDuration()/time.Minute), s.Enabled)
	}
	return tw.Flush()
}

func printOccurrences(w io.Writer, occurrences []schedule.Occurrence, now time.Time) error {
	if len(occurrences) == 0 {
		fmt.Fprintln(w, "No upcoming runs.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "SCHEDULE\tSTART\tEND\tSTATE")
	for _, o := range occurrences {
		state := "in " + o.Start.Sub(now).Round(time.Minute).String()
		if o.Contains(now) {
			state = "running"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
			o.Name, o.Start.Format("Mon Jan 2 15:04"), o.End.Format("Mon 15:04"), state)
		for _, step := range o.Steps {
			fmt.Fprintf(tw, "  pin %d\t%s\t%s\t\n", step.Pin, step.Start.Format("15:04"), step.End.Format("15:04"))
		}
	}
	return tw.Flush()
}
