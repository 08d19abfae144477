// Package logging wraps the application logger so that every string that
// reaches a log sink is scrubbed for credentials first. Batch runs log
// notification delivery attempts, and those code paths handle the Telegram
// bot token; routing them through SecureLogger keeps the token out of the
// rotated log files.
package logging

import (
	"github.com/olegiv/go-logger"
	"github.com/rs/zerolog"

	internalerrors "github.com/avionworks/podlog-go/internal/errors"
)

// SecureLogger wraps a logger.Logger with credential sanitization.
type SecureLogger struct {
	log *logger.Logger
}

// NewSecure wraps the given logger.
func NewSecure(log *logger.Logger) *SecureLogger {
	return &SecureLogger{log: log}
}

// SecureEvent is a zerolog event whose string-accepting methods run
// values through the credential sanitizer before emission.
type SecureEvent struct {
	event *zerolog.Event
}

// Info starts an info-level event.
func (s *SecureLogger) Info() *SecureEvent {
	return &SecureEvent{event: s.log.Info()}
}

// Debug starts a debug-level event.
func (s *SecureLogger) Debug() *SecureEvent {
	return &SecureEvent{event: s.log.Debug()}
}

// Warn starts a warn-level event.
func (s *SecureLogger) Warn() *SecureEvent {
	return &SecureEvent{event: s.log.Warn()}
}

// Error starts an error-level event.
func (s *SecureLogger) Error() *SecureEvent {
	return &SecureEvent{event: s.log.Error()}
}

// Close flushes and closes the underlying logger.
func (s *SecureLogger) Close() error {
	return s.log.Close()
}

// Str adds a string field, redacting any embedded credentials.
func (e *SecureEvent) Str(key, val string) *SecureEvent {
	e.event.Str(key, internalerrors.SanitizeString(val))
	return e
}

// Int adds an integer field.
func (e *SecureEvent) Int(key string, val int) *SecureEvent {
	e.event.Int(key, val)
	return e
}

// Int64 adds an int64 field.
func (e *SecureEvent) Int64(key string, val int64) *SecureEvent {
	e.event.Int64(key, val)
	return e
}

// Float64 adds a float64 field.
func (e *SecureEvent) Float64(key string, val float64) *SecureEvent {
	e.event.Float64(key, val)
	return e
}

// Bool adds a boolean field.
func (e *SecureEvent) Bool(key string, val bool) *SecureEvent {
	e.event.Bool(key, val)
	return e
}

// Err adds an error field with its message redacted. Delivery errors
// from the Telegram API can echo the request URL, token included.
func (e *SecureEvent) Err(err error) *SecureEvent {
	if err != nil {
		e.event.Err(internalerrors.SanitizeError(err))
	}
	return e
}

// Msg emits the event with a sanitized message.
func (e *SecureEvent) Msg(msg string) {
	e.event.Msg(internalerrors.SanitizeString(msg))
}

// Msgf emits a formatted event. String and error arguments are
// sanitized; other argument types pass through unchanged.
func (e *SecureEvent) Msgf(format string, v ...interface{}) {
	args := make([]interface{}, len(v))
	for i, arg := range v {
		switch val := arg.(type) {
		case string:
			args[i] = internalerrors.SanitizeString(val)
		case error:
			args[i] = internalerrors.SanitizeError(val)
		default:
			args[i] = arg
		}
	}
	e.event.Msgf(format, args...)
}

// Interface adds an arbitrary field. Plain strings are sanitized;
// other types are passed through, so prefer Str for anything that may
// carry a credential.
func (e *SecureEvent) Interface(key string, val interface{}) *SecureEvent {
	if s, ok := val.(string); ok {
		e.event.Str(key, internalerrors.SanitizeString(s))
	} else {
		e.event.Interface(key, val)
	}
	return e
}
