// Package log provides the logging abstraction used by every libero2lerobot
// component.
//
// Components accept a [Logger] and never import a logging library directly.
// A zerolog console adapter is provided for the CLI, and a no-op logger for
// tests and for embedding applications that do not want converter output.
//
// # Usage
//
//	logger := log.NewZerologAdapter(os.Stderr, zerolog.InfoLevel)
//	logger.Info("chunk complete", log.String("chunk", "chunk-000"), log.Int("episodes", 50))
//
// Implement [Logger] to route converter output into an existing logging
// setup:
//
//	func (l *MyLogger) Info(msg string, fields ...log.Field) { ... }
package log
