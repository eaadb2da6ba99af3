package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldStore is the structured log field key for the backing store name.
	FieldStore = "store"
	// FieldEvent is the structured log field key for a fan-out event name.
	FieldEvent = "event"
	// FieldStep is the structured log field key for a single fan-out step.
	FieldStep = "step"
	// FieldRequestID is the structured log field key for the HTTP request id.
	FieldRequestID = "request_id"
)

// StringField describes a string-valued structured logging field.
type StringField struct {
	Key   string
	Value string
}

// StringFields converts the provided key/value pairs into zap fields, trimming
// whitespace and omitting entries with empty keys or values.
func StringFields(fields ...StringField) []zap.Field {
	result := make([]zap.Field, 0, len(fields))
	for _, field := range fields {
		key := strings.TrimSpace(field.Key)
		if key == "" {
			continue
		}

		value := strings.TrimSpace(field.Value)
		if value == "" {
			continue
		}

		result = append(result, zap.String(key, value))
	}

	return result
}

// WithFields safely attaches the provided fields to the logger.
// A nil logger is replaced by a no-op one.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// StepFields describes one fan-out step: the event it belongs to, its name and
// the store it writes to. Empty values are dropped.
func StepFields(event, step, store string) []zap.Field {
	return StringFields(
		StringField{Key: FieldEvent, Value: event},
		StringField{Key: FieldStep, Value: step},
		StringField{Key: FieldStore, Value: store},
	)
}

// ForStore returns a named child logger tagged with the store name.
func ForStore(logger *zap.Logger, store string) *zap.Logger {
	return WithFields(logger, StringFields(StringField{Key: FieldStore, Value: store})...).Named(store)
}
