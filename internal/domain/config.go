package domain

// PipelineConfig holds redaction pipeline tuning, not exposed to clients.
type PipelineConfig struct {
	// MaskPadding is the pixel margin added on every side of a redacted word box.
	MaskPadding int
	// MinTextChars is the smallest trimmed text layer that still counts as extractable.
	MinTextChars int
	// PageWorkers bounds how many pages of one document are processed concurrently.
	PageWorkers int
}

// DefaultPipelineConfig returns the default pipeline configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		MaskPadding:  5,
		MinTextChars: 5,
		PageWorkers:  1,
	}
}
