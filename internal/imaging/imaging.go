/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package imaging loads image assets and applies the document model's
// adjustment filters. Filter application always starts from the original,
// unfiltered source so exports never trust a cached preview bitmap.
package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"

	img "github.com/disintegration/imaging"

	"canvasstudio/internal/domain"
)

// Load decodes an image from a source reference: a filesystem path or a
// base64 data URI (data:image/...;base64,...).
func Load(src string) (image.Image, error) {
	if strings.HasPrefix(src, "data:") {
		return decodeDataURI(src)
	}
	f, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", src, err)
	}
	defer func() { _ = f.Close() }()
	im, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode image %s: %w", src, err)
	}
	return im, nil
}

func decodeDataURI(src string) (image.Image, error) {
	idx := strings.Index(src, ",")
	if idx < 0 || !strings.Contains(src[:idx], "base64") {
		return nil, fmt.Errorf("unsupported data URI")
	}
	raw, err := base64.StdEncoding.DecodeString(src[idx+1:])
	if err != nil {
		return nil, fmt.Errorf("decode data URI: %w", err)
	}
	im, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode data URI image: %w", err)
	}
	return im, nil
}

// Apply re-derives an adjusted bitmap from src using the given filter
// parameters. Identity filters return src unchanged.
func Apply(src image.Image, f domain.Filters) image.Image {
	if f.IsIdentity() {
		return src
	}
	out := img.Clone(src)
	if f.Brightness != 0 {
		out = img.AdjustBrightness(out, clampPct(f.Brightness))
	}
	if f.Contrast != 0 {
		out = img.AdjustContrast(out, clampPct(f.Contrast))
	}
	if f.Saturation != 0 {
		out = img.AdjustSaturation(out, clampPct(f.Saturation))
	}
	if f.Grayscale > 0 {
		// Partial grayscale is approximated by desaturation.
		if f.Grayscale >= 1 {
			out = img.Grayscale(out)
		} else {
			out = img.AdjustSaturation(out, -100*f.Grayscale)
		}
	}
	if f.Blur > 0 {
		out = img.Blur(out, f.Blur)
	}
	if f.Sharpen > 0 {
		out = img.Sharpen(out, f.Sharpen)
	}
	return out
}

// Crop cuts the crop region out of src. Out-of-range regions are clamped to
// the source bounds; a degenerate region returns src unchanged.
func Crop(src image.Image, c domain.CropRect) image.Image {
	b := src.Bounds()
	x0 := b.Min.X + int(c.X)
	y0 := b.Min.Y + int(c.Y)
	x1 := x0 + int(c.Width)
	y1 := y0 + int(c.Height)
	if x0 < b.Min.X {
		x0 = b.Min.X
	}
	if y0 < b.Min.Y {
		y0 = b.Min.Y
	}
	if x1 > b.Max.X {
		x1 = b.Max.X
	}
	if y1 > b.Max.Y {
		y1 = b.Max.Y
	}
	if x1 <= x0 || y1 <= y0 {
		return src
	}
	return img.Crop(src, image.Rect(x0, y0, x1, y1))
}

// Resize scales src to exactly w by h pixels.
func Resize(src image.Image, w, h int) image.Image {
	if w <= 0 || h <= 0 {
		return src
	}
	return img.Resize(src, w, h, img.Lanczos)
}

func clampPct(v float64) float64 {
	if v > 100 {
		return 100
	}
	if v < -100 {
		return -100
	}
	return v
}

// ParseHex parses #rgb, #rrggbb or #rrggbbaa color strings.
// Unparseable input yields opaque black and an error.
func ParseHex(s string) (color.NRGBA, error) {
	c := color.NRGBA{A: 0xff}
	s = strings.TrimPrefix(strings.TrimSpace(s), "#")
	var err error
	switch len(s) {
	case 3:
		_, err = fmt.Sscanf(s, "%1x%1x%1x", &c.R, &c.G, &c.B)
		c.R *= 17
		c.G *= 17
		c.B *= 17
	case 6:
		_, err = fmt.Sscanf(s, "%02x%02x%02x", &c.R, &c.G, &c.B)
	case 8:
		_, err = fmt.Sscanf(s, "%02x%02x%02x%02x", &c.R, &c.G, &c.B, &c.A)
	default:
		err = fmt.Errorf("invalid hex color %q", s)
	}
	if err != nil {
		return color.NRGBA{A: 0xff}, fmt.Errorf("parse color %q: %w", s, err)
	}
	return c, nil
}
