package main

import (
	"net"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/five82/sprinkler/internal/discovery"
	"github.com/five82/sprinkler/internal/simulator"
)

func (c *cli) simulateCmd() *cobra.Command {
	var (
		addr           string
		token          string
		seed           bool
		rejectStopBody bool
		advertise      bool
		instance       string
	)
	cmd := &cobra.Command{
		Use:   "simulate",
		Short: "Serve a simulated controller for local testing",
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

			gin.SetMode(gin.ReleaseMode)
			ctrl := simulator.NewController(cfg.Pins, nil)
			if seed {
				ctrl.Seed()
			}
			srv := simulator.NewServer(ctrl, simulator.Options{
				Token:          token,
				RejectStopBody: rejectStopBody,
				Logger:         log.Named("simulator"),
			})

			var mdns interface{ Shutdown() }
			defer func() {
				if mdns != nil {
					mdns.Shutdown()
				}
			}()

			return srv.Serve(cmd.Context(), addr, func(bound net.Addr) {
				log.Info("simulator listening",
					zap.String("addr", bound.String()),
					zap.Ints("pins", cfg.Pins),
					zap.Bool("auth", token != ""))
				if !advertise {
					return
				}
				port := bound.(*net.TCPAddr).Port
				server, err := discovery.Advertise(instance, port, []string{"version=" + ctrl.Status().Version, "backend=simulator"})
				if err != nil {
					log.Warn("mdns advertise failed", zap.Error(err))
					return
				}
				mdns = server
			})
		},
	}
	flags := cmd.Flags()
	flags.StringVar(&addr, "addr", ":8000", "listen address")
	flags.StringVar(&token, "api-token", "", "require this bearer token")
	flags.BoolVar(&seed, "seed", true, "install demo pin names and schedules")
	flags.BoolVar(&rejectStopBody, "reject-stop-body", false, "answer 415 to stop requests with a body")
	flags.BoolVar(&advertise, "advertise", false, "advertise over mDNS")
	flags.StringVar(&instance, "instance", defaultInstance(), "mDNS instance name")
	return cmd
}

func defaultInstance() string {
	host, err := os.Hostname()
	if err != nil || host == "" {
		return "sprinkler-simulator"
	}
	return "sprinkler-simulator-" + host
}
