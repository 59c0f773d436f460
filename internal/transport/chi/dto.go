package chi

// TextRequest is the body of POST /redact and POST /hash.
// Text is required but may be empty.
type TextRequest struct {
	Text *string `json:"text"`
}

// Link is a HATEOAS link.
type Link struct {
	Href   string `json:"href"`
	Method string `json:"method,omitempty"`
}

// Links are the navigation links attached to redaction responses.
type Links map[string]Link

func links(self string) Links {
	return Links{
		"self":       {Href: self, Method: "POST"},
		"redact":     {Href: "/redact", Method: "POST"},
		"redact_pdf": {Href: "/redact/pdf", Method: "POST"},
		"hash":       {Href: "/hash", Method: "POST"},
		"stats":      {Href: "/stats", Method: "GET"},
	}
}

// RedactTextResponse is the body of POST /redact.
type RedactTextResponse struct {
	Message      string `json:"message"`
	RedactedText string `json:"redacted_text"`
	PDFBase64    string `json:"pdf_base64"`
	Redactions   int    `json:"redactions"`
	Links        Links  `json:"_links"`
}

// RedactPDFResponse is the body of POST /redact/pdf.
type RedactPDFResponse struct {
	Message    string `json:"message"`
	Mode       string `json:"mode"`
	Pages      int    `json:"pages"`
	Redactions int    `json:"redactions"`
	PDFBase64  string `json:"pdf_base64"`
	Links      Links  `json:"_links"`
}

// HashResponse is the body of POST /hash.
type HashResponse struct {
	Hash  string `json:"hash"`
	Links Links  `json:"_links"`
}

// AuditRecordResponse is one entry of the recent audit list.
type AuditRecordResponse struct {
	ID        string `json:"id"`
	Kind      string `json:"kind"`
	ItemCount int    `json:"item_count"`
	Timestamp string `json:"timestamp"`
}

// StatsResponse is the body of GET /stats.
type StatsResponse struct {
	Total     int64                 `json:"total"`
	Text      int64                 `json:"text"`
	Documents int64                 `json:"documents"`
	Recent    []AuditRecordResponse `json:"recent"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string            `json:"status"`
	Version string            `json:"version"`
	Checks  map[string]string `json:"checks"`
}
