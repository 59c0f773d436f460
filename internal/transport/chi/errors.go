package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/piiredact/internal/domain"
	logpkg "github.com/kailas-cloud/piiredact/internal/logger"
)

// ErrorCode is a machine-readable error code in API responses.
type ErrorCode string

// API error codes.
const (
	CodeBadRequest             ErrorCode = "bad_request"
	CodeUnauthorized           ErrorCode = "unauthorized"
	CodeValidationFailed       ErrorCode = "validation_failed"
	CodeUnsupportedFormat      ErrorCode = "unsupported_format"
	CodePayloadTooLarge        ErrorCode = "payload_too_large"
	CodeRateLimited            ErrorCode = "rate_limited"
	CodeNotFound               ErrorCode = "not_found"
	CodeRecognitionUnavailable ErrorCode = "recognition_unavailable"
	CodeExtractionFailed       ErrorCode = "extraction_failed"
	CodeRenderingFailed        ErrorCode = "rendering_failed"
	CodeInternalError          ErrorCode = "internal_error"
)

// ErrorResponse is the JSON body of every error reply.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

func defaultErrorHandlers() []errorHandler {
	return []errorHandler{
		sentinelHandler(domain.ErrInvalidInput, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrUnsupportedFormat, http.StatusUnsupportedMediaType, CodeUnsupportedFormat),
		sentinelHandler(domain.ErrPayloadTooLarge, http.StatusRequestEntityTooLarge, CodePayloadTooLarge),
		sentinelHandler(domain.ErrRateLimited, http.StatusTooManyRequests, CodeRateLimited),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrRecognitionUnavailable, http.StatusServiceUnavailable, CodeRecognitionUnavailable),
		sentinelHandler(domain.ErrExtractionFailed, http.StatusUnprocessableEntity, CodeExtractionFailed),
		sentinelHandler(domain.ErrRenderingFailed, http.StatusInternalServerError, CodeRenderingFailed),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrInvalidInput,
		domain.ErrUnsupportedFormat,
		domain.ErrPayloadTooLarge,
		domain.ErrRateLimited,
		domain.ErrNotFound,
		domain.ErrRecognitionUnavailable,
		domain.ErrExtractionFailed,
		domain.ErrRenderingFailed,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// handleDomainError logs through the request-scoped logger set by WideEventMiddleware.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
