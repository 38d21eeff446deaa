package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/five82/sprinkler/internal/app"
)

func (c *cli) rainLockCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rain-lock",
		Short: "Suspend or resume scheduled watering",
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "set HOURS",
			Short: "Suspend watering for a number of hours",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				hours, err := strconv.Atoi(args[0])
				if err != nil || hours <= 0 {
					return fmt.Errorf("invalid hours %q", args[0])
				}
				return c.withEnv(cmd, func(env *app.Env) error {
					lock, err := env.Client.SetRainLock(cmd.Context(), hours)
					if err != nil {
						return err
					}
					if lock.ExpiresAt != nil {
						fmt.Fprintf(cmd.OutOrStdout(), "rain lock until %s\n",
							lock.ExpiresAt.Time.In(env.Location).Format("Mon Jan 2 15:04"))
					}
					return nil
				})
			},
		},
		&cobra.Command{
			Use:   "clear",
			Short: "Lift an active rain lock",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return c.withEnv(cmd, func(env *app.Env) error {
					return env.Client.ClearRainLock(cmd.Context())
				})
			},
		},
	)
	return cmd
}
