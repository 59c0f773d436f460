package chi

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	domaudit "github.com/kailas-cloud/piiredact/internal/domain/audit"
	domdoc "github.com/kailas-cloud/piiredact/internal/domain/document"
	documentuc "github.com/kailas-cloud/piiredact/internal/usecase/document"
	healthuc "github.com/kailas-cloud/piiredact/internal/usecase/health"
	textuc "github.com/kailas-cloud/piiredact/internal/usecase/text"
	"github.com/kailas-cloud/piiredact/internal/version"
)

// DefaultMaxBodyBytes bounds uploads when no limit is configured.
const DefaultMaxBodyBytes = 20 << 20

// maxPadding bounds the padding query parameter.
const maxPadding = 100

// TextRedactor redacts free text.
type TextRedactor interface {
	Redact(ctx context.Context, s string) (textuc.Result, error)
}

// TextRenderer lays redacted text out as a PDF.
type TextRenderer interface {
	RenderText(ctx context.Context, s string) ([]byte, error)
}

// DocumentRedactor redacts PDF and image containers.
type DocumentRedactor interface {
	Redact(ctx context.Context, data []byte, opts ...documentuc.Option) (domdoc.Result, error)
}

// Auditor records completed requests.
type Auditor interface {
	Record(ctx context.Context, kind domaudit.Kind, itemCount int) domaudit.Record
	Stats(ctx context.Context) (domaudit.Stats, error)
}

// HealthChecker reports component health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// Server holds the HTTP handlers of the redaction API.
type Server struct {
	text          TextRedactor
	renderer      TextRenderer
	documents     DocumentRedactor
	audit         Auditor
	health        HealthChecker
	maxBodyBytes  int64
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	text TextRedactor,
	renderer TextRenderer,
	documents DocumentRedactor,
	audit Auditor,
	health HealthChecker,
	logger *zap.Logger,
) *Server {
	return &Server{
		text:          text,
		renderer:      renderer,
		documents:     documents,
		audit:         audit,
		health:        health,
		maxBodyBytes:  DefaultMaxBodyBytes,
		logger:        logger,
		errorHandlers: defaultErrorHandlers(),
	}
}

// WithMaxBodyBytes sets the request body limit. Non-positive values keep the default.
func (s *Server) WithMaxBodyBytes(n int64) *Server {
	if n > 0 {
		s.maxBodyBytes = n
	}
	return s
}

// RedactText handles POST /redact.
func (s *Server) RedactText(w http.ResponseWriter, r *http.Request) {
	text, ok := s.decodeTextRequest(w, r)
	if !ok {
		return
	}

	res, err := s.text.Redact(r.Context(), text)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	pdf, err := s.renderer.RenderText(r.Context(), res.Text)
	if err != nil {
		s.handleDomainError(w, r, fmt.Errorf("render text: %w", err))
		return
	}

	s.audit.Record(r.Context(), domaudit.Text, utf8.RuneCountInString(text))

	w.Header().Set("X-Redactions", strconv.Itoa(res.Total()))
	writeJSON(w, http.StatusOK, RedactTextResponse{
		Message:      "Text redacted successfully",
		RedactedText: res.Text,
		PDFBase64:    base64.StdEncoding.EncodeToString(pdf),
		Redactions:   res.Total(),
		Links:        links("/redact"),
	})
}

// RedactPDF handles POST /redact/pdf.
func (s *Server) RedactPDF(w http.ResponseWriter, r *http.Request) {
	opts, ok := s.documentOptions(w, r)
	if !ok {
		return
	}
	data, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	if domdoc.Detect(data) != domdoc.PDF {
		writeError(w, http.StatusUnsupportedMediaType, CodeUnsupportedFormat, "file must be a PDF")
		return
	}

	res, err := s.documents.Redact(r.Context(), data, opts...)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	s.audit.Record(r.Context(), domaudit.Document, res.Pages)

	w.Header().Set("X-Redactions", strconv.Itoa(res.Redactions))
	w.Header().Set("X-Redaction-Mode", string(res.Mode))
	writeJSON(w, http.StatusOK, RedactPDFResponse{
		Message:    "PDF redacted successfully",
		Mode:       string(res.Mode),
		Pages:      res.Pages,
		Redactions: res.Redactions,
		PDFBase64:  base64.StdEncoding.EncodeToString(res.Data),
		Links:      links("/redact/pdf"),
	})
}

// RedactImage handles POST /redact/image. The body is the redacted image itself.
func (s *Server) RedactImage(w http.ResponseWriter, r *http.Request) {
	opts, ok := s.documentOptions(w, r)
	if !ok {
		return
	}
	data, ok := s.readUpload(w, r)
	if !ok {
		return
	}
	if !domdoc.Detect(data).IsImage() {
		writeError(w, http.StatusUnsupportedMediaType, CodeUnsupportedFormat,
			"file must be a PNG, JPEG, TIFF, BMP or WEBP image")
		return
	}

	res, err := s.documents.Redact(r.Context(), data, opts...)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	s.audit.Record(r.Context(), domaudit.Document, res.Pages)

	w.Header().Set("Content-Type", res.Format.ContentType())
	w.Header().Set("X-Redactions", strconv.Itoa(res.Redactions))
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="redacted.%s"`, res.Format))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(res.Data)
}

// Hash handles POST /hash.
func (s *Server) Hash(w http.ResponseWriter, r *http.Request) {
	text, ok := s.decodeTextRequest(w, r)
	if !ok {
		return
	}
	sum := sha256.Sum256([]byte(text))
	writeJSON(w, http.StatusOK, HashResponse{
		Hash:  hex.EncodeToString(sum[:]),
		Links: links("/hash"),
	})
}

// Stats handles GET /stats.
func (s *Server) Stats(w http.ResponseWriter, r *http.Request) {
	st, err := s.audit.Stats(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, statsToResponse(st))
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status:  string(report.Status),
		Version: version.Version,
		Checks:  checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decodeTextRequest returns the request text. An empty string is valid.
func (s *Server) decodeTextRequest(w http.ResponseWriter, r *http.Request) (string, bool) {
	var req TextRequest
	body := http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "request body too large")
			return "", false
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: expected JSON with a text field")
		return "", false
	}
	if req.Text == nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "text is required")
		return "", false
	}
	if !utf8.ValidString(*req.Text) {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "text must be valid UTF-8")
		return "", false
	}
	return *req.Text, true
}

// readUpload reads the multipart "file" field.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	if err := r.ParseMultipartForm(s.maxBodyBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, CodePayloadTooLarge, "upload too large")
			return nil, false
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "expected multipart/form-data with a file field")
		return nil, false
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	f, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "file is required")
		return nil, false
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		s.handleDomainError(w, r, fmt.Errorf("read upload: %w", err))
		return nil, false
	}
	if len(data) == 0 {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "file is empty")
		return nil, false
	}
	s.logger.Debug("upload received", zap.String("path", r.URL.Path), zap.Int("bytes", len(data)))
	return data, true
}

// documentOptions binds the optional padding query parameter.
func (s *Server) documentOptions(w http.ResponseWriter, r *http.Request) ([]documentuc.Option, bool) {
	var padding *int
	if err := runtime.BindQueryParameter("form", true, false, "padding", r.URL.Query(), &padding); err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "padding must be an integer")
		return nil, false
	}
	if padding == nil {
		return nil, true
	}
	if *padding < 0 || *padding > maxPadding {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("padding must be between 0 and %d", maxPadding))
		return nil, false
	}
	return []documentuc.Option{documentuc.WithPadding(*padding)}, true
}

func statsToResponse(st domaudit.Stats) StatsResponse {
	recent := make([]AuditRecordResponse, len(st.Recent))
	for i, rec := range st.Recent {
		recent[i] = AuditRecordResponse{
			ID:        rec.ID,
			Kind:      string(rec.Kind),
			ItemCount: rec.ItemCount,
			Timestamp: rec.Timestamp.UTC().Format(time.RFC3339),
		}
	}
	return StatsResponse{
		Total:     st.Total,
		Text:      st.Text,
		Documents: st.Documents,
		Recent:    recent,
	}
}
