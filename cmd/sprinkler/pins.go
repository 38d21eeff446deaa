package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/five82/sprinkler/internal/app"
	"github.com/five82/sprinkler/internal/model"
)

func (c *cli) pinsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "pins",
		Aliases: []string{"pin", "zones"},
		Short:   "List, run and stop outputs",
	}
	cmd.AddCommand(c.pinsListCmd(), c.pinsRunCmd(), c.pinsStopCmd())
	return cmd
}

func (c *cli) pinsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every catalog pin merged with the controller's report",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEnv(cmd, func(env *app.Env) error {
				remote, err := env.Client.FetchPins(cmd.Context())
				if err != nil {
					return err
				}
				if unknown := env.Catalog.Unknown(remote); len(unknown) > 0 {
					env.Log.Warn("controller reported pins outside the catalog", zap.Ints("pins", unknown))
				}
				return printPins(cmd.OutOrStdout(), env.Catalog.Merge(nil, remote))
			})
		},
	}
}

func (c *cli) pinsRunCmd() *cobra.Command {
	var minutes int
	cmd := &cobra.Command{
		Use:   "run PIN",
		Short: "Run a pin for a number of minutes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := parsePin(args[0])
			if err != nil {
				return err
			}
			return c.withEnv(cmd, func(env *app.Env) error {
				if minutes <= 0 {
					minutes = env.Config.DefaultRunMinutes
				}
				if err := env.Client.RunPin(cmd.Context(), pin, minutes); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "pin %d running for %d min\n", pin, minutes)
				return nil
			})
		},
	}
	cmd.Flags().IntVarP(&minutes, "minutes", "m", 0, "run time (default from config)")
	return cmd
}

func (c *cli) pinsStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop PIN",
		Short: "Stop a running pin",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pin, err := parsePin(args[0])
			if err != nil {
				return err
			}
			return c.withEnv(cmd, func(env *app.Env) error {
				return env.Client.StopPin(cmd.Context(), pin)
			})
		},
	}
}

func parsePin(raw string) (int, error) {
	pin, err := strconv.Atoi(raw)
	if err != nil || pin <= 0 {
		return 0, fmt.Errorf("invalid pin %q", raw)
	}
	return pin, nil
}

func printPins(w io.Writer, pins []model.Pin) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PIN\tNAME\tSTATE\tENABLED")
	for _, p := range pins {
		state := "idle"
		if p.Active() {
			state = "running"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%t\n", p.Number, p.Label(), state, p.Enabled())
	}
	return tw.Flush()
}
