package errx

import (
	"errors"
	"sync/atomic"

	"go.uber.org/zap"
)

var debugMode atomic.Bool

// SetDebugMode toggles structured error logging for LogStructured.
func SetDebugMode(enabled bool) {
	debugMode.Store(enabled)
}

// IsDebugMode returns whether debug mode is enabled.
func IsDebugMode() bool {
	return debugMode.Load()
}

// Fields returns the zap fields describing err:
//
//   - error.code: "77000"
//   - error.category: "Push error"
//   - error.message
//   - error.context.<key> for each context entry
//   - error.cause when a cause is attached
//
// Non-errx errors yield a single zap.Error field.
func Fields(err error) []zap.Field {
	if err == nil {
		return nil
	}
	var e *Error
	if !errors.As(err, &e) {
		return []zap.Field{zap.Error(err)}
	}
	fields := []zap.Field{
		zap.String("error.code", e.Code()),
		zap.String("error.category", e.Description()),
		zap.String("error.message", e.Message()),
		zap.Error(err),
	}
	for _, key := range sortedKeys(e.context) {
		fields = append(fields, zap.Any("error.context."+key, e.context[key]))
	}
	// distinct name so it does not collide with the "error" field above
	if cause := e.Cause(); cause != nil {
		fields = append(fields, zap.NamedError("error.cause", cause))
	}
	return fields
}

// LogStructured logs err with its structured fields at error level.
// It is a no-op unless debug mode is enabled (--debug).
func LogStructured(logger *zap.Logger, err error, msg string) {
	if logger == nil || err == nil || !IsDebugMode() {
		return
	}
	logger.Error(msg, Fields(err)...)
}
