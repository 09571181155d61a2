// Package img checks and conditions rasterized page images before OCR.
package img

import (
	"fmt"

	"github.com/disintegration/imaging"
)

// PageOptions controls how a page image is conditioned in place.
type PageOptions struct {
	Grayscale bool // drop color; speeds up OCR on color scans
	MaxWidth  int  // downscale wider pages to this width; 0 keeps the original
	Quality   int  // JPEG quality when the page is rewritten (default 90)
}

// PageInfo describes a prepared page image.
type PageInfo struct {
	Width     int
	Height    int
	Rewritten bool
}

// PreparePage decodes the image at path to make sure it is readable and
// applies opts. The image is only rewritten when an option changes it; a
// page narrower than MaxWidth is never upscaled.
func PreparePage(path string, opts PageOptions) (PageInfo, error) {
	src, err := imaging.Open(path, imaging.AutoOrientation(true))
	if err != nil {
		return PageInfo{}, fmt.Errorf("open: %w", err)
	}

	out := src
	changed := false
	if opts.MaxWidth > 0 && src.Bounds().Dx() > opts.MaxWidth {
		out = imaging.Resize(out, opts.MaxWidth, 0, imaging.Lanczos)
		changed = true
	}
	if opts.Grayscale {
		out = imaging.Grayscale(out)
		changed = true
	}

	b := out.Bounds()
	info := PageInfo{Width: b.Dx(), Height: b.Dy()}
	if !changed {
		return info, nil
	}

	quality := opts.Quality
	if quality <= 0 || quality > 100 {
		quality = 90
	}
	if err := imaging.Save(out, path, imaging.JPEGQuality(quality)); err != nil {
		return PageInfo{}, fmt.Errorf("save: %w", err)
	}
	info.Rewritten = true
	return info, nil
}
