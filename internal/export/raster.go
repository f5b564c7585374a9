/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"image/png"
	"math"
	"os"
	"path/filepath"

	xdraw "golang.org/x/image/draw"

	"canvasstudio/internal/domain"
	img "canvasstudio/internal/imaging"
)

// PageRaster is one rendered page ready for assembly. WidthPt/HeightPt are
// the page dimensions in output units (logical pixels times scale), used for
// paged-document sizing.
type PageRaster struct {
	Name     string
	Img      image.Image
	WidthPt  float64
	HeightPt float64
}

// paintBackground fills the surface according to the background variant.
// Gradients are reconstructed from their stops at output resolution; any
// screen-space gradient the editor holds is at the wrong resolution.
func paintBackground(dst *image.NRGBA, bg domain.Background) {
	b := dst.Bounds()
	switch bg.Kind {
	case domain.BackgroundSolid:
		c, err := img.ParseHex(bg.Color)
		if err != nil {
			c = color.NRGBA{255, 255, 255, 255}
		}
		draw.Draw(dst, b, &image.Uniform{C: c}, image.Point{}, draw.Src)
	case domain.BackgroundGradient:
		if bg.Gradient == nil || len(bg.Gradient.Stops) == 0 {
			draw.Draw(dst, b, image.White, image.Point{}, draw.Src)
			return
		}
		paintGradient(dst, *bg.Gradient)
	case domain.BackgroundImage:
		if bg.Image == nil {
			draw.Draw(dst, b, image.White, image.Point{}, draw.Src)
			return
		}
		draw.Draw(dst, b, image.White, image.Point{}, draw.Src)
		src, err := img.Load(bg.Image.Src)
		if err != nil {
			return
		}
		// An unset (zero) opacity paints fully opaque, matching the editor's
		// style default.
		op := clamp01(bg.Image.Opacity)
		if bg.Image.Opacity == 0 {
			op = 1
		}
		if op >= 1 {
			xdraw.BiLinear.Scale(dst, b, src, src.Bounds(), xdraw.Over, nil)
			return
		}
		scaled := image.NewNRGBA(b)
		xdraw.BiLinear.Scale(scaled, b, src, src.Bounds(), xdraw.Src, nil)
		mask := image.NewUniform(color.Alpha{A: uint8(math.Round(op * 255))})
		draw.DrawMask(dst, b, scaled, b.Min, mask, image.Point{}, draw.Over)
	default:
		draw.Draw(dst, b, image.White, image.Point{}, draw.Src)
	}
}

func paintGradient(dst *image.NRGBA, g domain.Gradient) {
	b := dst.Bounds()
	w := float64(b.Dx())
	h := float64(b.Dy())
	stops := normalizeStops(g.Stops)

	if g.Kind == domain.GradientRadial {
		fx := g.RadialX * w
		fy := g.RadialY * h
		if g.RadialX == 0 && g.RadialY == 0 {
			fx, fy = w/2, h/2
		}
		// Farthest corner defines t=1.
		maxR := 0.0
		for _, c := range [][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}} {
			r := math.Hypot(c[0]-fx, c[1]-fy)
			if r > maxR {
				maxR = r
			}
		}
		for y := b.Min.Y; y < b.Max.Y; y++ {
			for x := b.Min.X; x < b.Max.X; x++ {
				t := math.Hypot(float64(x)-fx, float64(y)-fy) / maxR
				dst.SetNRGBA(x, y, colorAt(stops, t))
			}
		}
		return
	}

	// Linear: project each pixel onto the gradient axis. Angle is degrees
	// clockwise from "up", CSS-style: 0deg bottom-to-top, 90deg left-to-right.
	rad := g.Angle * math.Pi / 180
	dx := math.Sin(rad)
	dy := -math.Cos(rad)
	// Projection extent over the rectangle determines normalization.
	minP, maxP := math.Inf(1), math.Inf(-1)
	for _, c := range [][2]float64{{0, 0}, {w, 0}, {0, h}, {w, h}} {
		p := c[0]*dx + c[1]*dy
		minP = math.Min(minP, p)
		maxP = math.Max(maxP, p)
	}
	span := maxP - minP
	if span == 0 {
		span = 1
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p := float64(x)*dx + float64(y)*dy
			dst.SetNRGBA(x, y, colorAt(stops, (p-minP)/span))
		}
	}
}

type stop struct {
	offset float64
	c      color.NRGBA
}

func normalizeStops(in []domain.ColorStop) []stop {
	out := make([]stop, 0, len(in))
	for _, s := range in {
		c, err := img.ParseHex(s.Color)
		if err != nil {
			continue
		}
		out = append(out, stop{offset: clamp01(s.Offset), c: c})
	}
	if len(out) == 0 {
		out = append(out, stop{0, color.NRGBA{255, 255, 255, 255}})
	}
	return out
}

func colorAt(stops []stop, t float64) color.NRGBA {
	t = clamp01(t)
	if t <= stops[0].offset {
		return stops[0].c
	}
	for i := 1; i < len(stops); i++ {
		if t <= stops[i].offset {
			a, b := stops[i-1], stops[i]
			span := b.offset - a.offset
			if span <= 0 {
				return b.c
			}
			f := (t - a.offset) / span
			return color.NRGBA{
				R: lerp8(a.c.R, b.c.R, f),
				G: lerp8(a.c.G, b.c.G, f),
				B: lerp8(a.c.B, b.c.B, f),
				A: lerp8(a.c.A, b.c.A, f),
			}
		}
	}
	return stops[len(stops)-1].c
}

func lerp8(a, b uint8, f float64) uint8 {
	return uint8(math.Round(float64(a) + (float64(b)-float64(a))*f))
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// composeCapture draws the scene capture over the prepared surface, scaling
// if rounding left the capture a pixel off the surface size.
func composeCapture(dst *image.NRGBA, capture image.Image) {
	if capture.Bounds().Size() == dst.Bounds().Size() {
		draw.Draw(dst, dst.Bounds(), capture, capture.Bounds().Min, draw.Over)
		return
	}
	xdraw.BiLinear.Scale(dst, dst.Bounds(), capture, capture.Bounds(), xdraw.Over, nil)
}

// writeRasterFile encodes a single page image to disk.
func writeRasterFile(path string, m image.Image, format Format, quality int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer func() { _ = f.Close() }()
	switch format {
	case FormatJPEG:
		// JPEG has no alpha; flatten onto white.
		flat := image.NewNRGBA(m.Bounds())
		draw.Draw(flat, flat.Bounds(), image.White, image.Point{}, draw.Src)
		draw.Draw(flat, flat.Bounds(), m, m.Bounds().Min, draw.Over)
		if err := jpeg.Encode(f, flat, &jpeg.Options{Quality: quality}); err != nil {
			return fmt.Errorf("encode jpeg: %w", err)
		}
	default:
		if err := png.Encode(f, m); err != nil {
			return fmt.Errorf("encode png: %w", err)
		}
	}
	return f.Sync()
}
