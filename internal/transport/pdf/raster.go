package pdf

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	_ "image/jpeg" // extracted DCT streams
	_ "image/png"  // extracted Flate streams
	"io"
	"sort"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"go.uber.org/zap"
	_ "golang.org/x/image/tiff" // extracted CCITT streams

	"github.com/kailas-cloud/piiredact/internal/domain"
)

// Blank page raster size: A4 at RasterDPI.
const (
	blankWidth  = 1240
	blankHeight = 1754
)

// pageImage is one embedded image pulled out of a page.
type pageImage struct {
	page     int // 1-based
	name     string
	fileType string
	width    int
	height   int
	data     []byte
}

// Rasterize returns one image per page. Scanned documents carry each page
// as an embedded image, so the largest image on a page becomes its raster.
// Pages without images become blank white rasters to keep page order.
func (a *Adapter) Rasterize(ctx context.Context, data []byte) (pages []image.Image, err error) {
	defer func() {
		if r := recover(); r != nil {
			pages = nil
			err = fmt.Errorf("rasterize: %v: %w", r, domain.ErrExtractionFailed)
		}
	}()

	n, err := api.PageCount(bytes.NewReader(data), pdfConf())
	if err != nil {
		return nil, fmt.Errorf("parse pdf: %w: %w", err, domain.ErrExtractionFailed)
	}

	var found []pageImage
	collect := func(img model.Image, _ bool, _ int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		raw, err := io.ReadAll(img)
		if err != nil {
			return fmt.Errorf("read image %s: %w", img.Name, err)
		}
		found = append(found, pageImage{
			page:     img.PageNr,
			name:     img.Name,
			fileType: img.FileType,
			width:    img.Width,
			height:   img.Height,
			data:     raw,
		})
		return nil
	}
	if err := api.ExtractImages(bytes.NewReader(data), nil, collect, pdfConf()); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, fmt.Errorf("rasterize: %w", ctxErr)
		}
		return nil, fmt.Errorf("extract images: %w: %w", err, domain.ErrExtractionFailed)
	}

	byPage := groupByPage(found)
	pages = make([]image.Image, n)
	for i := range pages {
		candidates := byPage[i+1]
		if len(candidates) == 0 {
			a.logger.Debug("Page has no image, using blank raster", zap.Int("page", i+1))
			pages[i] = blankPage()
			continue
		}
		img, err := decodeLargest(candidates)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w: %w", i+1, err, domain.ErrExtractionFailed)
		}
		pages[i] = img
	}
	return pages, nil
}

// groupByPage buckets images by 1-based page number, largest first.
func groupByPage(images []pageImage) map[int][]pageImage {
	out := make(map[int][]pageImage)
	for _, im := range images {
		out[im.page] = append(out[im.page], im)
	}
	for _, list := range out {
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].width*list[i].height > list[j].width*list[j].height
		})
	}
	return out
}

// decodeLargest returns the first candidate that decodes.
func decodeLargest(candidates []pageImage) (image.Image, error) {
	var lastErr error
	for _, im := range candidates {
		img, _, err := image.Decode(bytes.NewReader(im.data))
		if err == nil {
			return img, nil
		}
		lastErr = fmt.Errorf("decode %s image %s: %w", im.fileType, im.name, err)
	}
	return nil, fmt.Errorf("no decodable page image: %w", lastErr)
}

func blankPage() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, blankWidth, blankHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	return img
}
