// Package logger provides structured logging for filegate.
//
// This package wraps zap for structured logging:
//
//   - logger.go: the Logger interface, configuration and the global default
//   - zap.go: the zap-backed implementation
//   - context.go: context-aware logging with request and user ids
//   - redact.go: sensitive data redaction
//
// Features:
//
//   - JSON and console output formats
//   - Dynamic log level (SetLevel), used by config hot-reload
//   - Automatic masking of tokens, bot credentials and database passwords
package logger
