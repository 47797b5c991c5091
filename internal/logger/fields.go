package logger

import (
	"strings"

	"go.uber.org/zap"
)

const (
	// FieldBackend is the structured log field key for a cascade candidate.
	FieldBackend = "backend"
	// FieldProvider is the structured log field key for the AI provider name.
	FieldProvider = "ai_provider"
	// FieldModel is the structured log field key for the AI model identifier.
	FieldModel = "ai_model"
	// FieldFingerprint is the structured log field key for a request cache key.
	FieldFingerprint = "fingerprint"
	// FieldRequestID correlates every log line of one generate or evaluate call.
	FieldRequestID = "request_id"
	// FieldSource names the tier that produced a result: cache, backend or catalog.
	FieldSource = "source"
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
// A nil logger becomes a no-op logger.
func WithFields(logger *zap.Logger, fields ...zap.Field) *zap.Logger {
	if logger == nil {
		logger = zap.NewNop()
	}

	if len(fields) == 0 {
		return logger
	}

	return logger.With(fields...)
}

// BackendFields describes a backend by provider and model, skipping empty values.
func BackendFields(provider, model string) []zap.Field {
	return StringFields(
		StringField{Key: FieldProvider, Value: provider},
		StringField{Key: FieldModel, Value: model},
	)
}

// WithBackend attaches the provider and model fields to the provided logger.
func WithBackend(logger *zap.Logger, provider, model string) *zap.Logger {
	return WithFields(logger, BackendFields(provider, model)...)
}

// WithRequest attaches a request id and, when known, the request fingerprint.
func WithRequest(logger *zap.Logger, requestID, fingerprint string) *zap.Logger {
	return WithFields(logger, StringFields(
		StringField{Key: FieldRequestID, Value: requestID},
		StringField{Key: FieldFingerprint, Value: fingerprint},
	)...)
}
