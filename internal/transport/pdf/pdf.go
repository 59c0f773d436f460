// Package pdf reads and writes PDF containers for the document pipeline.
// Text layers are read with ledongthuc/pdf. Page images are extracted and
// image pages assembled with pdfcpu.
package pdf

import (
	"sync"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
)

// Page geometry defaults, in PDF points (1/72 inch).
const (
	A4Width  = 595.0
	A4Height = 842.0

	// RasterDPI is the resolution assumed when mapping raster pixels to points.
	RasterDPI = 150
)

var disableConfigDir sync.Once

// Config controls the layout of rendered documents.
type Config struct {
	PageWidth  float64
	PageHeight float64
	Margin     float64
	FontSize   float64
	LineHeight float64
}

// DefaultConfig returns an A4 layout with 11pt text.
func DefaultConfig() Config {
	return Config{
		PageWidth:  A4Width,
		PageHeight: A4Height,
		Margin:     50,
		FontSize:   11,
		LineHeight: 14,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.PageWidth <= 0 {
		c.PageWidth = d.PageWidth
	}
	if c.PageHeight <= 0 {
		c.PageHeight = d.PageHeight
	}
	if c.Margin < 0 {
		c.Margin = d.Margin
	}
	if c.FontSize <= 0 {
		c.FontSize = d.FontSize
	}
	if c.LineHeight <= 0 {
		c.LineHeight = c.FontSize * 1.3
	}
	return c
}

// Adapter implements the document pipeline's PDF contract.
type Adapter struct {
	cfg    Config
	logger *zap.Logger
}

// New creates an Adapter. Zero config fields fall back to DefaultConfig.
func New(cfg Config, logger *zap.Logger) *Adapter {
	// pdfcpu writes a config directory under $HOME unless told otherwise.
	disableConfigDir.Do(api.DisableConfigDir)
	return &Adapter{cfg: cfg.withDefaults(), logger: logger}
}

// pdfConf returns a fresh configuration per call; pdfcpu records the
// running command on it.
func pdfConf() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}
