package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/talentum-plus/talentum/internal/logger"
	"github.com/talentum-plus/talentum/internal/models"
)

// apiError is rendered as {"detail": Detail} with Status.
type apiError struct {
	Status int
	Detail string
}

func (e *apiError) Error() string {
	return fmt.Sprintf("%d: %s", e.Status, e.Detail)
}

func newError(status int, format string, args ...any) *apiError {
	return &apiError{Status: status, Detail: fmt.Sprintf(format, args...)}
}

func badRequest(format string, args ...any) *apiError {
	return newError(http.StatusBadRequest, format, args...)
}

func notFound(format string, args ...any) *apiError {
	return newError(http.StatusNotFound, format, args...)
}

func forbidden(format string, args ...any) *apiError {
	return newError(http.StatusForbidden, format, args...)
}

func unauthorized(format string, args ...any) *apiError {
	return newError(http.StatusUnauthorized, format, args...)
}

// object is a free-form JSON response body.
type object = map[string]any

func detail(msg string) object {
	return object{"detail": msg}
}

// handlerFunc is an http handler that reports failures by returning them.
type handlerFunc func(w http.ResponseWriter, r *http.Request) error

func (s *Server) handle(h handlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		err := h(w, r)
		if err == nil {
			return
		}

		var apiErr *apiError
		var validation *models.ValidationError
		switch {
		case errors.As(err, &apiErr):
			writeJSON(w, apiErr.Status, detail(apiErr.Detail))
		case errors.As(err, &validation):
			writeJSON(w, http.StatusUnprocessableEntity, detail(validation.Error()))
		default:
			s.logger.Error("request failed",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String(logger.FieldRequestID, requestIDFrom(r.Context())),
				zap.Error(err),
			)
			writeJSON(w, http.StatusInternalServerError, detail("Error interno: "+err.Error()))
		}
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// decode reads a JSON body into v. Malformed bodies are reported as 422.
func decode(r *http.Request, v any) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return newError(http.StatusUnprocessableEntity, "body: field required")
		}
		return newError(http.StatusUnprocessableEntity, "body: %v", err)
	}
	return nil
}

// validator is implemented by request models.
type validator interface {
	Validate() error
}

// decodeValid decodes the body into v and validates it.
func decodeValid(r *http.Request, v validator) error {
	if err := decode(r, v); err != nil {
		return err
	}
	return v.Validate()
}

// flatten merges v's JSON fields into a single object with extra fields.
func flatten(v any, extra object) (object, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}
	out := object{}
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("encoding response: %w", err)
	}
	for k, val := range extra {
		out[k] = val
	}
	return out, nil
}

// checkChanges verifies that a partial update fits the field types of target.
// Unknown keys are allowed; the stores decide what to keep.
func checkChanges(changes map[string]any, target any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           target,
		DecodeHook:       mapstructure.StringToTimeHookFunc(time.RFC3339),
	})
	if err != nil {
		return fmt.Errorf("building decoder: %w", err)
	}
	if err := dec.Decode(changes); err != nil {
		return newError(http.StatusUnprocessableEntity, "body: %v", err)
	}
	return nil
}
