package document

// Option adjusts a single redaction request.
type Option func(*requestConfig)

type requestConfig struct {
	padding int
}

// WithPadding overrides the mask padding for image pages.
func WithPadding(p int) Option {
	return func(c *requestConfig) {
		if p >= 0 {
			c.padding = p
		}
	}
}
