// Package preview rasterizes layer cross-sections into images for visual
// inspection of slicing results. Contours are counter-clockwise and holes
// clockwise, so the rasterizer's winding accumulation carves holes out
// without explicit even-odd handling.
package preview

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"

	"golang.org/x/image/vector"

	"github.com/printforge/slicer/internal/geom"
)

// Options control rasterization.
type Options struct {
	// WidthPx is the image width; height follows the slice aspect ratio.
	WidthPx int

	// MarginMM is blank space around the geometry in mm.
	MarginMM float64

	// Fill is the slice color; background stays transparent.
	Fill color.Color
}

// DefaultOptions renders 512 px wide with a 1 mm margin.
func DefaultOptions() Options {
	return Options{WidthPx: 512, MarginMM: 1, Fill: color.NRGBA{R: 0xe0, G: 0x6c, B: 0x00, A: 0xff}}
}

// Render rasterizes one layer's cross-section. Y grows upward in slice
// coordinates and downward in image coordinates; the image is flipped so
// the preview matches the bed orientation.
func Render(slices geom.ExPolygons, opts Options) (*image.RGBA, error) {
	if opts.WidthPx <= 0 {
		return nil, fmt.Errorf("preview: width %d px", opts.WidthPx)
	}
	bb := slices.BoundingBox()
	if !bb.Defined {
		return nil, fmt.Errorf("preview: empty cross-section")
	}
	bb = bb.Inflated(geom.Coord(opts.MarginMM / geom.ScalingFactor))

	size := bb.Size()
	scale := float64(opts.WidthPx) / float64(size.X)
	heightPx := int(float64(size.Y)*scale + 0.5)
	if heightPx < 1 {
		heightPx = 1
	}

	toPx := func(p geom.Point) (float32, float32) {
		x := float64(p.X-bb.Min.X) * scale
		y := float64(heightPx) - float64(p.Y-bb.Min.Y)*scale
		return float32(x), float32(y)
	}

	r := vector.NewRasterizer(opts.WidthPx, heightPx)
	for _, ex := range slices {
		tracePolygon(r, ex.Contour, toPx)
		for _, h := range ex.Holes {
			tracePolygon(r, h, toPx)
		}
	}

	img := image.NewRGBA(image.Rect(0, 0, opts.WidthPx, heightPx))
	fill := opts.Fill
	if fill == nil {
		fill = DefaultOptions().Fill
	}
	r.Draw(img, img.Bounds(), image.NewUniform(fill), image.Point{})
	return img, nil
}

func tracePolygon(r *vector.Rasterizer, poly geom.Polygon, toPx func(geom.Point) (float32, float32)) {
	if len(poly.Points) < 3 {
		return
	}
	x0, y0 := toPx(poly.Points[0])
	r.MoveTo(x0, y0)
	for _, p := range poly.Points[1:] {
		x, y := toPx(p)
		r.LineTo(x, y)
	}
	r.ClosePath()
}

// WritePNG renders and encodes one cross-section.
func WritePNG(w io.Writer, slices geom.ExPolygons, opts Options) error {
	img, err := Render(slices, opts)
	if err != nil {
		return err
	}
	return png.Encode(w, img)
}
