package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/five82/sprinkler/internal/api"
	"github.com/five82/sprinkler/internal/app"
	"github.com/five82/sprinkler/internal/config"
	"github.com/five82/sprinkler/internal/logging"
	"github.com/five82/sprinkler/internal/prefs"
)

func main() {
	os.Exit(run())
}

func run() int {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "sprinkler: %s\n", api.UserMessage(err))
		return 1
	}
	return 0
}

// cli carries the settings shared by every subcommand.
type cli struct {
	v          *viper.Viper
	configPath string
	prefsPath  string
}

func newRootCmd() *cobra.Command {
	c := &cli{v: config.New()}

	root := &cobra.Command{
		Use:           "sprinkler",
		Short:         "Watch and drive an irrigation controller",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          c.runDashboard,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&c.configPath, "config", "", "config file (default "+config.DefaultPath()+")")
	flags.StringVar(&c.prefsPath, "prefs", "", "preferences file (default "+prefs.DefaultPath()+")")
	flags.String("host", "", "controller address, e.g. http://garden.local:8000")
	flags.String("token", "", "API bearer token")
	flags.String("log-level", "", "debug, info, warn or error")
	_ = c.v.BindPFlag("host", flags.Lookup("host"))
	_ = c.v.BindPFlag("token", flags.Lookup("token"))
	_ = c.v.BindPFlag("log_level", flags.Lookup("log-level"))

	root.AddCommand(
		c.statusCmd(),
		c.schedulesCmd(),
		c.pinsCmd(),
		c.rainLockCmd(),
		c.discoverCmd(),
		c.simulateCmd(),
		c.logsCmd(),
	)
	return root
}

// loadConfig merges the config file into the flag-bound viper instance.
func (c *cli) loadConfig() (config.Config, error) {
	if err := config.ReadFile(c.v, c.configPath); err != nil {
		return config.Config{}, err
	}
	return config.Decode(c.v)
}

// consoleLogger is used by one-shot commands; the dashboard logs to a file.
func consoleLogger(cfg config.Config, w io.Writer) (*zap.Logger, func() error, error) {
	return logging.New(logging.Options{Level: cfg.LogLevel, Console: w})
}

// withEnv resolves the controller and runs fn against the wired client stack.
func (c *cli) withEnv(cmd *cobra.Command, fn func(*app.Env) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	log, closeLog, err := consoleLogger(cfg, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	host, err := app.ResolveHost(cmd.Context(), cfg, c.prefsPath, log)
	if err != nil {
		return err
	}
	env, err := app.NewEnv(cfg, host, log)
	if err != nil {
		return err
	}
	return fn(env)
}

func (c *cli) runDashboard(cmd *cobra.Command, _ []string) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	log, closeLog, err := logging.New(logging.Options{Level: cfg.LogLevel, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	ctx := cmd.Context()
	host, err := app.ResolveHost(ctx, cfg, c.prefsPath, log)
	if err != nil {
		return err
	}
	env, err := app.NewEnv(cfg, host, log)
	if err != nil {
		return err
	}
	log.Info("dashboard starting", zap.String("host", host))
	return app.Run(ctx, env, app.Options{PrefsPath: c.prefsPath, LogFile: cfg.LogFile})
}
