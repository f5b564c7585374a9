/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package textmetrics

// Deterministic text measurement and line breaking for text elements.
// All measurement goes through a Provider so tests can pin a fixed face
// while production code resolves real project fonts.

import (
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"canvasstudio/internal/domain"
	"canvasstudio/internal/fontsvc"
)

// Spec describes a requested font.
type Spec struct {
	Family string
	SizePt float64
	Weight int // 100..900
	Italic bool
}

// Metrics provides font metrics in pixels for the resolved face.
type Metrics struct {
	Ascent, Descent, LineGap float64
}

// Line is a single laid out line with its advance width.
type Line struct {
	Text  string
	Width float64
}

// Box is the result of laying out text into a maximum width.
type Box struct {
	Lines   []Line
	Width   float64
	Height  float64
	Metrics Metrics
}

// Provider maps a Spec to a concrete font.Face.
type Provider interface {
	Resolve(Spec) (font.Face, Metrics)
}

// BasicProvider uses x/image/basicfont Face7x13 for deterministic tests.
type BasicProvider struct{}

func (BasicProvider) Resolve(Spec) (font.Face, Metrics) {
	f := basicfont.Face7x13
	m := f.Metrics()
	return f, Metrics{
		Ascent:  float64(m.Ascent.Round()),
		Descent: float64(m.Descent.Round()),
		LineGap: float64(m.Height.Round() - m.Ascent.Round() - m.Descent.Round()),
	}
}

// ServiceProvider resolves faces from a font service, falling back to the
// basic face when the family has not been loaded.
type ServiceProvider struct {
	Fonts *fontsvc.Service
}

func (p ServiceProvider) Resolve(spec Spec) (font.Face, Metrics) {
	if p.Fonts != nil && spec.Family != "" {
		size := spec.SizePt
		if size <= 0 {
			size = 16
		}
		if face, err := p.Fonts.Face(spec.Family, spec.Weight, size); err == nil {
			m := face.Metrics()
			return face, Metrics{
				Ascent:  fixedToPx(m.Ascent),
				Descent: fixedToPx(m.Descent),
				LineGap: fixedToPx(m.Height) - fixedToPx(m.Ascent) - fixedToPx(m.Descent),
			}
		}
	}
	return BasicProvider{}.Resolve(spec)
}

// Layout breaks text on spaces and explicit newlines into lines no wider
// than maxWidth. A maxWidth of zero or less disables wrapping. Words wider
// than maxWidth are kept whole on their own line.
func Layout(provider Provider, text string, spec Spec, maxWidth float64) Box {
	if provider == nil {
		provider = BasicProvider{}
	}
	face, met := provider.Resolve(spec)
	drawer := &font.Drawer{Face: face}
	box := Box{Metrics: met}
	lineH := met.Ascent + met.Descent + met.LineGap

	var cur Line
	flush := func() {
		box.Lines = append(box.Lines, cur)
		if cur.Width > box.Width {
			box.Width = cur.Width
		}
		box.Height += lineH
		cur = Line{}
	}

	start := 0
	for i := 0; i <= len(text); i++ {
		if i < len(text) && text[i] != ' ' && text[i] != '\n' {
			continue
		}
		word := text[start:i]
		w := advance(drawer, word)
		if cur.Width > 0 && maxWidth > 0 && cur.Width+w > maxWidth {
			flush()
		}
		if word != "" {
			cur.Text += word
			cur.Width += w
		}
		if i < len(text) {
			if text[i] == ' ' {
				cur.Text += " "
				cur.Width += advance(drawer, " ")
			} else {
				flush()
			}
		}
		start = i + 1
	}
	if cur.Text != "" || len(box.Lines) == 0 {
		flush()
	}
	return box
}

// MeasureElement returns the natural size of a text element's content,
// wrapped to the element's current width when it has one.
func MeasureElement(provider Provider, el *domain.Element) (w, h float64) {
	if el == nil || el.Type != domain.KindText || el.Text == nil {
		return 0, 0
	}
	spec := Spec{
		Family: el.Text.Style.FontFamily,
		SizePt: el.Text.Style.FontSize,
		Weight: el.Text.Style.FontWeight,
		Italic: el.Text.Style.FontStyle == "italic",
	}
	box := Layout(provider, el.Text.Content, spec, el.Transform.Width)
	return box.Width, box.Height
}

func advance(d *font.Drawer, s string) float64 {
	return float64(d.MeasureString(s)) / 64 // fixed.Int26_6 to px
}

func fixedToPx(v fixed.Int26_6) float64 { return float64(v.Round()) }
