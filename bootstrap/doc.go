// Package bootstrap runs command-line tools with a uniform lifecycle:
// typed configuration, logger setup, component start, ready check, the
// task itself and graceful shutdown on completion or on SIGINT/SIGTERM.
package bootstrap
