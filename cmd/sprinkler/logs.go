package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/five82/sprinkler/internal/logging"
	"github.com/five82/sprinkler/internal/logtail"
)

func (c *cli) logsCmd() *cobra.Command {
	var (
		lines int
		level string
	)
	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the tail of the dashboard log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			entries, err := logtail.Tail(cfg.LogFile, lines, logging.ToLevel(level))
			if err != nil {
				return err
			}
			if len(entries) == 0 {
				fmt.Fprintf(cmd.ErrOrStderr(), "no log entries in %s\n", cfg.LogFile)
				return nil
			}
			out := cmd.OutOrStdout()
			for _, e := range entries {
				fmt.Fprintln(out, e.String())
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "number of lines; 0 prints all")
	cmd.Flags().StringVar(&level, "level", logging.DebugLevel, "minimum level: "+strings.Join(logtail.Levels(), ", "))
	return cmd
}
