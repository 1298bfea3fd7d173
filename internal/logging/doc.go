// Package logging provides structured logging for nsd.
//
// This package wraps a zap logger with convenience functions used by the
// discovery engine, the status server and the CLI.
//
// # Log Levels
//
//   - Debug: datagram dumps, per-interface sends, purge passes
//   - Info: engine start/stop, services appearing and disappearing
//   - Warn: dropped datagrams, skipped interfaces, failed sends
//   - Error: bind failures and socket faults
//
// # Configuration
//
// Logging is silent unless a level is given, either explicitly or through
// the NSD_LOG_LEVEL environment variable:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// # Thread Safety
//
// All logging functions are safe for concurrent use.
package logging
