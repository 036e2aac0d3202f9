// Package logger builds the application slog.Logger. Environment presets pick
// the format and level: development logs text at debug, everything else logs
// JSON at info for log aggregation.
package logger
