// Package app provides the orchestration layer for the sprinkler client.
//
// # Overview
//
// This package wires configuration, the controller client, polling, state
// management and the UI. It is the composition root shared by the dashboard
// and the one-shot CLI commands.
//
// # Architecture
//
//  1. config.Load / viper flags produce a config.Config
//  2. ResolveHost picks the controller: config, remembered host, or mDNS
//  3. NewEnv builds the api.Transport, sprinkler.Client and health Monitor
//  4. Run creates the shared state.Store and performs a first refresh
//  5. The Poller keeps the store current in the background
//  6. ui.Run renders the store and blocks until the user exits
//
// # Data Flow
//
//	┌──────────────┐
//	│   Run()      │
//	└──────┬───────┘
//	       ├─────> NewPoller()     Monitor + Client + Catalog
//	       ├─────> Refresh()       Populate store before the UI starts
//	       ├─────> Start()         Background loop
//	       └─────> ui.Run()        Dashboard (blocks)
//
//	Poller loop:
//	┌─────────────────────────────────────────────┐
//	│ Monitor.Check()   single-flight status      │
//	│ FetchPins()       partial report            │
//	│ Catalog.Merge()   one record per wired pin  │
//	│ ListSchedules()                             │
//	│ store.Update()                              │
//	│ wait interval, doubled per failure (≤30s)   │
//	│ or until Trigger()                          │
//	└─────────────────────────────────────────────┘
//
// # Failure Handling
//
// A failed poll keeps the previous data in the store and records the error.
// Pins the controller reports that are not in the catalog are dropped from
// the view and logged as a warning.
package app
