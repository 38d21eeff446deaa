package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/five82/sprinkler/internal/api"
	"github.com/five82/sprinkler/internal/config"
	"github.com/five82/sprinkler/internal/discovery"
	"github.com/five82/sprinkler/internal/pins"
	"github.com/five82/sprinkler/internal/prefs"
	"github.com/five82/sprinkler/internal/sprinkler"
	"github.com/five82/sprinkler/internal/state"
	"github.com/five82/sprinkler/internal/ui"
)

// ErrNoHost is returned when no controller address is configured,
// remembered or discovered.
var ErrNoHost = errors.New("no controller host: set host in config, SPRINKLER_HOST or --host")

// Env is the wired client stack shared by the dashboard and CLI commands.
type Env struct {
	Config   config.Config
	Host     string
	Client   *sprinkler.Client
	Monitor  *sprinkler.Monitor
	Catalog  pins.Catalog
	Location *time.Location
	Log      *zap.Logger
}

// NewEnv builds the transport, client and health monitor for host.
func NewEnv(cfg config.Config, host string, log *zap.Logger) (*Env, error) {
	if log == nil {
		log = zap.NewNop()
	}
	catalog, err := cfg.Catalog()
	if err != nil {
		return nil, fmt.Errorf("pin catalog: %w", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	transport := api.New(
		api.WithTimeout(cfg.Timeout),
		api.WithMaxRetries(cfg.MaxRetries),
		api.WithRetryDelay(cfg.RetryDelay),
		api.WithRateLimit(cfg.RateLimit, burstFor(cfg.RateLimit)),
		api.WithCacheEntries(cfg.CacheEntries),
		api.WithLogger(log.Named("api")),
	)
	client, err := sprinkler.NewClient(host, transport, sprinkler.BearerToken(cfg.Token),
		sprinkler.WithLogger(log.Named("client")))
	if err != nil {
		return nil, fmt.Errorf("init controller client: %w", err)
	}

	return &Env{
		Config:   cfg,
		Host:     host,
		Client:   client,
		Monitor:  sprinkler.NewMonitor(client, worstCase(cfg)),
		Catalog:  catalog,
		Location: loc,
		Log:      log,
	}, nil
}

// ResolveHost picks the controller address: configured host, then the host
// remembered in prefs, then the first controller found over mDNS.
func ResolveHost(ctx context.Context, cfg config.Config, prefsPath string, log *zap.Logger) (string, error) {
	if cfg.Host != "" {
		return cfg.Host, nil
	}
	if p, _ := prefs.Load(prefsPath); p.LastHost != "" {
		return p.LastHost, nil
	}
	found, err := discovery.Browse(ctx, 0, log)
	if err != nil {
		return "", fmt.Errorf("discover controller: %w", err)
	}
	if len(found) == 0 {
		return "", ErrNoHost
	}
	if log != nil {
		log.Info("using discovered controller",
			zap.String("instance", found[0].Instance),
			zap.String("url", found[0].BaseURL()))
	}
	return found[0].BaseURL(), nil
}

// Options configure the dashboard.
type Options struct {
	PrefsPath string // empty uses default ~/.config/sprinkler/prefs.toml
	LogFile   string
}

// Run boots the dashboard until the context is cancelled or the user quits.
func Run(ctx context.Context, env *Env, opts Options) error {
	userPrefs, _ := prefs.Load(opts.PrefsPath)

	store := &state.Store{}
	poller := NewPoller(store, env.Monitor, env.Client, env.Catalog, env.Config.PollInterval, env.Log.Named("poller"))

	// Do initial refresh to populate store before UI starts
	if err := poller.Refresh(ctx); err == nil {
		if err := prefs.RememberHost(opts.PrefsPath, env.Host); err != nil {
			env.Log.Warn("save last host", zap.Error(err))
		}
	}

	// Start background poller
	poller.Start(ctx)

	return ui.Run(ui.Options{
		Context:           ctx,
		Controller:        env.Client,
		Store:             store,
		Refresh:           poller.Trigger,
		Host:              env.Host,
		Location:          env.Location,
		DefaultRunMinutes: env.Config.DefaultRunMinutes,
		PollTick:          time.Second,
		ThemeName:         userPrefs.Theme,
		PrefsPath:         opts.PrefsPath,
		LogFile:           opts.LogFile,
	})
}

// worstCase bounds one status call: every attempt timing out plus the
// backoff waits between them.
func worstCase(cfg config.Config) time.Duration {
	attempts := time.Duration(cfg.MaxRetries + 1)
	waits := cfg.RetryDelay * time.Duration((1<<cfg.MaxRetries)-1)
	return cfg.Timeout*attempts + waits
}

func burstFor(perSecond float64) int {
	if perSecond < 1 {
		return 1
	}
	return int(perSecond)
}
