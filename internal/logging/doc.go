// Package logging builds the zap logger shared by the client packages.
//
// One-shot CLI commands log human-readable lines to stderr. The dashboard
// owns the terminal, so it logs JSON lines to a lumberjack-rotated file
// instead; `sprinkler logs` reads that file back through logtail.
package logging
