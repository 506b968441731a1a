package logger

import "context"

type contextKey string

const (
	loggerKey    contextKey = "tablesh.logger"
	commandIDKey contextKey = "tablesh.command_id"
)

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context.
// Returns the default logger if none is set.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithCommandID tags the context with the id of the shell command being run.
func WithCommandID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, commandIDKey, id)
}

// CommandIDFromContext extracts the command id from context.
func CommandIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(commandIDKey).(string); ok {
		return id
	}
	return ""
}

// L returns the context logger enriched with the command id, if any.
func L(ctx context.Context) Logger {
	l := FromContext(ctx)
	if id := CommandIDFromContext(ctx); id != "" {
		l = l.With("command_id", id)
	}
	return l.WithContext(ctx)
}
