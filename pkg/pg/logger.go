package pg

import "context"

// logger is the slice of slog the migration run needs; *slog.Logger satisfies
// it.
type logger interface {
	InfoContext(ctx context.Context, msg string, args ...any)
	ErrorContext(ctx context.Context, msg string, args ...any)
}
