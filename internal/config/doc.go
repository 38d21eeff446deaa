// Package config loads the sprinkler client configuration.
//
// # Overview
//
// Settings come from three layers, later layers winning:
//
//  1. Built-in defaults
//  2. ~/.config/sprinkler/config.toml (or an explicit path); a missing file is fine
//  3. SPRINKLER_* environment variables
//
// The CLI adds a fourth layer by binding its persistent flags to the viper
// instance returned by New before calling Decode.
//
// # Keys
//
//	host                 controller address, e.g. "10.0.0.20:8000"
//	token                bearer token (also SPRINKLER_API_TOKEN)
//	pins                 wired GPIO numbers in display order (also SPRINKLER_GPIO_PINS)
//	timezone             IANA zone for schedule times; empty means local
//	timeout              per-request timeout, default "8s"
//	max_retries          retries after the first attempt, default 2
//	retry_delay          initial backoff delay, default "500ms"
//	rate_limit           requests per second to the controller, 0 disables
//	cache_entries        GET response cache size
//	default_run_minutes  manual run length when none is given
//	poll_interval        dashboard refresh cadence, default "5s"
//	log_level            debug, info, warn or error
//	log_file             JSON log written while the dashboard owns the terminal
//
// Durations are strings in time.ParseDuration form. Paths may start with ~.
package config
