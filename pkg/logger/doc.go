// Package logger builds configured log/slog loggers for the SDK. The SDK
// is silent by default (Discard); enabling the debug flag switches to
// human-readable text output at debug level.
package logger
