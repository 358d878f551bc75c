// Package logging provides structured logging for the camrelay daemon.
//
// This package wraps zap logger with convenience functions for common logging
// patterns used throughout the daemon. It provides both general logging
// functions and specialized functions for discovery and HTTP logging.
//
// # Log Levels
//
// The package supports standard log levels:
//   - Debug: Detailed debugging info (SOAP payloads, probe matches)
//   - Info: Normal operations (discovery passes, HTTP requests)
//   - Warn: Non-fatal issues (per-device failures, frame retries)
//   - Error: Fatal issues (startup failures, transport failures)
//
// # Structured Logging
//
// All log functions use structured fields for queryability:
//
//	logging.Info("Device session opened",
//	    zap.String("address", "192.168.1.100"),
//	    zap.String("profile", "Profile_1"),
//	)
//
// # Configuration
//
// Initialize logging at daemon startup:
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
//
// When no level is given, the CAMRELAY_LOG_LEVEL environment variable is
// consulted; if that is also unset, logging is silent. This keeps one-shot
// CLI commands quiet by default.
//
// # Thread Safety
//
// All logging functions are safe for concurrent use. The underlying zap
// logger handles synchronization automatically.
package logging
