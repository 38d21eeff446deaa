package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/sprinkler/internal/app"
	"github.com/five82/sprinkler/internal/model"
)

func (c *cli) statusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show controller health, rain lock and zone state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.withEnv(cmd, func(env *app.Env) error {
				st, err := env.Monitor.Check(cmd.Context())
				if err != nil {
					return err
				}
				return printStatus(cmd.OutOrStdout(), env.Host, st, time.Now(), env.Location)
			})
		},
	}
}

func printStatus(w io.Writer, host string, st model.Status, now time.Time, loc *time.Location) error {
	fmt.Fprintf(w, "Controller: %s\n", host)
	fmt.Fprintf(w, "Version:    %s\n", orDash(st.Version))
	if st.Backend != "" {
		fmt.Fprintf(w, "Backend:    %s\n", st.Backend)
	}
	if st.RainLocked(now) {
		fmt.Fprintf(w, "Rain lock:  until %s\n", st.RainLockExpiresAt.Time.In(loc).Format("Mon Jan 2 15:04"))
	} else {
		fmt.Fprintln(w, "Rain lock:  off")
	}
	if len(st.Zones) == 0 {
		return nil
	}

	fmt.Fprintln(w)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ZONE\tGPIO\tSTATE\tREMAINING")
	for _, z := range st.Zones {
		state, remaining := "off", "-"
		if z.IsOn {
			state = "on"
			if z.RemainingMinutes != nil {
				remaining = fmt.Sprintf("%dm", *z.RemainingMinutes)
			}
		}
		fmt.Fprintf(tw, "%d\t%d\t%s\t%s\n", z.Zone, z.GPIO, state, remaining)
	}
	return tw.Flush()
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
