package logging

// NopLogger is a logger that does nothing.
// Use this for testing or when logging should be disabled.
type NopLogger struct{}

// NewNop creates a new no-op logger instance.
func NewNop() Logger {
	return &NopLogger{}
}

// Debug does nothing.
func (l *NopLogger) Debug(msg string, keysAndValues ...any) {}

// Info does nothing.
func (l *NopLogger) Info(msg string, keysAndValues ...any) {}

// Warn does nothing.
func (l *NopLogger) Warn(msg string, keysAndValues ...any) {}

// Error does nothing.
func (l *NopLogger) Error(msg string, keysAndValues ...any) {}

// Fatal does nothing (does not exit in no-op mode).
func (l *NopLogger) Fatal(msg string, keysAndValues ...any) {}

// With returns the same no-op logger.
func (l *NopLogger) With(keysAndValues ...any) Logger {
	return l
}

// Sync does nothing and returns nil.
func (l *NopLogger) Sync() error {
	return nil
}
