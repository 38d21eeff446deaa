package main

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/five82/sprinkler/internal/discovery"
)

func (c *cli) discoverCmd() *cobra.Command {
	var timeout time.Duration
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Find controllers on the local network over mDNS",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			log, closeLog, err := consoleLogger(cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			defer func() { _ = closeLog() }()

			found, err := discovery.Browse(cmd.Context(), timeout, log)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(found) == 0 {
				fmt.Fprintln(out, "No controllers found.")
				return nil
			}
			tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "INSTANCE\tURL\tINFO")
			for _, ctrl := range found {
				info := make([]string, 0, len(ctrl.Text))
				for _, k := range slices.Sorted(maps.Keys(ctrl.Text)) {
					info = append(info, k+"="+ctrl.Text[k])
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", ctrl.Instance, ctrl.BaseURL(), strings.Join(info, " "))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "how long to listen")
	return cmd
}
