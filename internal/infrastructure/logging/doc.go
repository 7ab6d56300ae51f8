// Package logging provides structured logging for the lighting scheduler.
//
// It wraps log/slog so every component logs through one handler with the
// service and version attributes attached. Components receive a child logger
// via Component("name").
//
// Configuration (config.yaml):
//
//	logging:
//	  level: "info"      # debug, info, warn, error
//	  format: "json"     # json, text
//	  output: "stdout"   # stdout, stderr
//
// Never log the controller auth token or broker credentials.
package logging
