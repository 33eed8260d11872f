// Package logger provides structured logging for pubqueue using zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers. Library packages never configure logging
// themselves: they take a *Logger through an option and fall back to
// the global logger tagged with their component name.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//
// # Usage
//
//	log := logger.WithComponent("executor")
//	log.Info("loop started", logger.Fields("name", name))
package logger
