package document

import "bytes"

// Format is a document container format.
type Format string

// Supported container formats.
const (
	Unknown Format = ""
	PDF     Format = "pdf"
	PNG     Format = "png"
	JPEG    Format = "jpeg"
	TIFF    Format = "tiff"
	BMP     Format = "bmp"
	WEBP    Format = "webp"
)

var signatures = []struct {
	format Format
	match  func([]byte) bool
}{
	{PDF, prefix("%PDF-")},
	{PNG, prefix("\x89PNG\r\n\x1a\n")},
	{JPEG, prefix("\xff\xd8\xff")},
	{TIFF, func(b []byte) bool { return hasPrefix(b, "II*\x00") || hasPrefix(b, "MM\x00*") }},
	{BMP, prefix("BM")},
	{WEBP, func(b []byte) bool { return len(b) >= 12 && hasPrefix(b, "RIFF") && string(b[8:12]) == "WEBP" }},
}

func prefix(p string) func([]byte) bool {
	return func(b []byte) bool { return hasPrefix(b, p) }
}

func hasPrefix(b []byte, p string) bool {
	return bytes.HasPrefix(b, []byte(p))
}

// Detect sniffs the container format from leading magic bytes.
func Detect(data []byte) Format {
	for _, s := range signatures {
		if s.match(data) {
			return s.format
		}
	}
	return Unknown
}

// IsImage reports whether the format is a single raster image.
func (f Format) IsImage() bool {
	switch f {
	case PNG, JPEG, TIFF, BMP, WEBP:
		return true
	}
	return false
}

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	switch f {
	case PDF:
		return "application/pdf"
	case PNG:
		return "image/png"
	case JPEG:
		return "image/jpeg"
	case TIFF:
		return "image/tiff"
	case BMP:
		return "image/bmp"
	case WEBP:
		return "image/webp"
	}
	return "application/octet-stream"
}

// Mode is the representation chosen for a document.
type Mode string

// Document representations.
const (
	// TextExtractable documents carry a usable text layer and are redacted as text.
	TextExtractable Mode = "text"
	// ImageOnly documents are redacted page by page on rasters.
	ImageOnly Mode = "image"
)

// Result is a redacted document.
type Result struct {
	Data   []byte
	Format Format
	Mode   Mode
	Pages  int
	// Redactions counts replaced spans for text mode and masked words for image mode.
	Redactions int
}
