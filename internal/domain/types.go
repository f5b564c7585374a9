/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package domain defines the serializable document model for Canvas Studio:
// projects, pages, canvas elements, transforms and styles. It is pure data
// with no rendering behavior; the live render scene is always derived from it.
package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Project is the root of the document model. Invariants: Pages is non-empty
// and ActivePageID always references an existing page.
type Project struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Pages        []Page    `json:"pages"`
	ActivePageID string    `json:"activePageId"`
	Metadata     Metadata  `json:"metadata,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Metadata carries optional descriptive fields for a project.
type Metadata struct {
	Author      string   `json:"author,omitempty"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// Page is a single canvas with its own size, background and element list.
type Page struct {
	ID         string     `json:"id"`
	Name       string     `json:"name"`
	Width      float64    `json:"width"`
	Height     float64    `json:"height"`
	DPI        int        `json:"dpi"`
	Background Background `json:"background"`
	Elements   []Element  `json:"elements"`
	Hidden     bool       `json:"hidden"`
	Locked     bool       `json:"locked"`
	Thumbnail  string     `json:"thumbnail,omitempty"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// BackgroundKind discriminates the Background variant.
type BackgroundKind string

const (
	BackgroundSolid    BackgroundKind = "solid"
	BackgroundGradient BackgroundKind = "gradient"
	BackgroundImage    BackgroundKind = "image"
)

// Background is a tagged variant: solid color, gradient or image.
// A zero Background (empty Kind) means "no background"; exporters paint white.
type Background struct {
	Kind     BackgroundKind `json:"kind,omitempty"`
	Color    string         `json:"color,omitempty"`
	Gradient *Gradient      `json:"gradient,omitempty"`
	Image    *ImageFill     `json:"image,omitempty"`
}

// GradientKind selects linear or radial interpolation.
type GradientKind string

const (
	GradientLinear GradientKind = "linear"
	GradientRadial GradientKind = "radial"
)

// Gradient describes a background gradient by its stops and geometry.
// Angle is degrees, clockwise, for linear gradients; RadialX/RadialY are the
// focus point for radial gradients in 0..1 page-relative coordinates.
type Gradient struct {
	Kind    GradientKind `json:"kind"`
	Stops   []ColorStop  `json:"stops"`
	Angle   float64      `json:"angle,omitempty"`
	RadialX float64      `json:"radialX,omitempty"`
	RadialY float64      `json:"radialY,omitempty"`
}

// ColorStop is one gradient stop; Offset is in 0..1.
type ColorStop struct {
	Offset float64 `json:"offset"`
	Color  string  `json:"color"`
}

// ImageFill is an image background with an opacity multiplier.
type ImageFill struct {
	Src     string  `json:"src"`
	Opacity float64 `json:"opacity"`
}

// ElementKind discriminates the Element sum type.
type ElementKind string

const (
	KindText    ElementKind = "text"
	KindImage   ElementKind = "image"
	KindShape   ElementKind = "shape"
	KindLine    ElementKind = "line"
	KindSticker ElementKind = "sticker"
	KindGroup   ElementKind = "group"
)

// Element is the closed sum type of everything that can live on a page.
// Exactly one payload pointer matching Type is non-nil. Group children are
// Elements themselves, stored in group-relative coordinates.
type Element struct {
	ID         string      `json:"id"`
	Type       ElementKind `json:"type"`
	Name       string      `json:"name"`
	Transform  Transform   `json:"transform"`
	Style      Style       `json:"style"`
	Locked     bool        `json:"locked"`
	Visible    bool        `json:"visible"`
	Selectable bool        `json:"selectable"`
	ZIndex     int         `json:"zIndex"`
	BlendMode  string      `json:"blendMode,omitempty"`

	Text    *TextPayload    `json:"text,omitempty"`
	Image   *ImagePayload   `json:"image,omitempty"`
	Shape   *ShapePayload   `json:"shape,omitempty"`
	Line    *LinePayload    `json:"line,omitempty"`
	Sticker *StickerPayload `json:"sticker,omitempty"`
	Group   *GroupPayload   `json:"group,omitempty"`
}

// Transform positions an element on the page. X,Y are the center-anchored
// position in page pixels at scale 1; Width,Height are the unscaled intrinsic
// size. Visual size is Width*|ScaleX| by Height*|ScaleY|; negative scale flips.
// Rotation is degrees, clockwise, about the origin.
type Transform struct {
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	ScaleX   float64 `json:"scaleX"`
	ScaleY   float64 `json:"scaleY"`
	Rotation float64 `json:"rotation"`
	SkewX    float64 `json:"skewX,omitempty"`
	SkewY    float64 `json:"skewY,omitempty"`
	OriginX  string  `json:"originX,omitempty"` // default "center"
	OriginY  string  `json:"originY,omitempty"` // default "center"
}

// Style holds the generic paint attributes shared by all element kinds.
type Style struct {
	Fill        string  `json:"fill,omitempty"`
	Stroke      string  `json:"stroke,omitempty"`
	StrokeWidth float64 `json:"strokeWidth,omitempty"`
	Opacity     float64 `json:"opacity"`
}

// TextPayload is the text-specific part of an Element.
type TextPayload struct {
	Content string    `json:"content"`
	Style   TextStyle `json:"style"`
}

// TextStyle carries typography settings for a text element.
type TextStyle struct {
	FontFamily     string  `json:"fontFamily"`
	FontSize       float64 `json:"fontSize"`
	FontWeight     int     `json:"fontWeight"`
	FontStyle      string  `json:"fontStyle,omitempty"`
	TextAlign      string  `json:"textAlign,omitempty"`
	LineHeight     float64 `json:"lineHeight,omitempty"`
	LetterSpacing  float64 `json:"letterSpacing,omitempty"`
	TextDecoration string  `json:"textDecoration,omitempty"`
	TextTransform  string  `json:"textTransform,omitempty"`
}

// ImagePayload is the image-specific part of an Element.
// OriginalSrc is the unfiltered source of truth used when filter parameters
// are re-applied; Src may point at a cached, already-adjusted bitmap.
// OriginalTransform snapshots the pre-promotion transform when the image is
// promoted to a page background, and is restored on demotion.
type ImagePayload struct {
	Src               string        `json:"src"`
	OriginalSrc       string        `json:"originalSrc,omitempty"`
	Filters           Filters       `json:"filters"`
	Crop              *CropRect     `json:"crop,omitempty"`
	ColorReplace      *ColorReplace `json:"colorReplace,omitempty"`
	Mask              *Mask         `json:"mask,omitempty"`
	IsBackground      bool          `json:"isBackground,omitempty"`
	OriginalTransform *Transform    `json:"originalTransform,omitempty"`
}

// Filters holds image adjustment parameters. The zero value is the identity.
// Brightness/Contrast/Saturation are percentage deltas (-100..100), Grayscale
// is 0..1, Blur and Sharpen are effect strengths, HueRotate is degrees.
type Filters struct {
	Brightness float64 `json:"brightness,omitempty"`
	Contrast   float64 `json:"contrast,omitempty"`
	Saturation float64 `json:"saturation,omitempty"`
	Grayscale  float64 `json:"grayscale,omitempty"`
	Blur       float64 `json:"blur,omitempty"`
	Sharpen    float64 `json:"sharpen,omitempty"`
	HueRotate  float64 `json:"hueRotate,omitempty"`
}

// IsIdentity reports whether every adjustment is at its default.
func (f Filters) IsIdentity() bool { return f == Filters{} }

// CropRect is a crop region in source-image pixel coordinates.
type CropRect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// ColorReplace swaps a source color for a target within a tolerance.
type ColorReplace struct {
	From      string  `json:"from"`
	To        string  `json:"to"`
	Tolerance float64 `json:"tolerance,omitempty"`
}

// Mask is a shape-based clip path applied to an image.
type Mask struct {
	Shape   string  `json:"shape"` // circle, ellipse, rect, roundedRect
	Radius  float64 `json:"radius,omitempty"`
	InsetX  float64 `json:"insetX,omitempty"`
	InsetY  float64 `json:"insetY,omitempty"`
	Feather float64 `json:"feather,omitempty"`
}

// ShapePayload is the shape-specific part of an Element.
type ShapePayload struct {
	ShapeType string `json:"shapeType"` // rect, ellipse, triangle, polygon, star
	Sides     int    `json:"sides,omitempty"`
	Radius    float64 `json:"radius,omitempty"`
}

// LinePayload is the line-specific part of an Element. Endpoints are
// authoritative page coordinates; the generic Transform is auxiliary.
type LinePayload struct {
	X1          float64   `json:"x1"`
	Y1          float64   `json:"y1"`
	X2          float64   `json:"x2"`
	Y2          float64   `json:"y2"`
	Style       LineStyle `json:"style"`
	StrokeWidth float64   `json:"strokeWidth"`
	StrokeColor string    `json:"strokeColor"`
}

// LineStyle carries dash/cap decoration for a line element.
type LineStyle struct {
	DashPattern []float64 `json:"dashPattern,omitempty"`
	StartCap    string    `json:"startCap,omitempty"` // none, arrow, circle, square
	EndCap      string    `json:"endCap,omitempty"`
	CapFill     bool      `json:"capFill,omitempty"`
}

// StickerPayload is the sticker-specific part of an Element.
// OriginalSVGContent is the recoloring source of truth; SVGContent is always
// re-derived from it and never mutated destructively.
type StickerPayload struct {
	SVGContent         string            `json:"svgContent"`
	OriginalSVGContent string            `json:"originalSvgContent"`
	ColorMap           map[string]string `json:"colorMap,omitempty"`
}

// GroupPayload holds the children of a group element. Child transforms are
// relative to the group center, not the page origin.
type GroupPayload struct {
	Children []Element `json:"children"`
}

// NewID returns a fresh globally unique element/page/project identifier.
func NewID() string { return uuid.NewString() }

// NewProject builds a project with one empty default page.
func NewProject(name string, pageWidth, pageHeight float64, dpi int) *Project {
	now := time.Now()
	page := NewPage("Page 1", pageWidth, pageHeight, dpi)
	return &Project{
		ID:           NewID(),
		Name:         name,
		Pages:        []Page{page},
		ActivePageID: page.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

// NewPage builds an empty page with a solid white background.
func NewPage(name string, width, height float64, dpi int) Page {
	now := time.Now()
	return Page{
		ID:         NewID(),
		Name:       name,
		Width:      width,
		Height:     height,
		DPI:        dpi,
		Background: Background{Kind: BackgroundSolid, Color: "#ffffff"},
		Elements:   []Element{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// VisualWidth is the rendered width: intrinsic width times |ScaleX|.
func (t Transform) VisualWidth() float64 {
	s := t.ScaleX
	if s < 0 {
		s = -s
	}
	return t.Width * s
}

// VisualHeight is the rendered height: intrinsic height times |ScaleY|.
func (t Transform) VisualHeight() float64 {
	s := t.ScaleY
	if s < 0 {
		s = -s
	}
	return t.Height * s
}

// ActivePage returns a pointer to the active page, or nil if the invariant
// is broken (which Validate would report).
func (p *Project) ActivePage() *Page {
	return p.PageByID(p.ActivePageID)
}

// PageByID returns a pointer into Pages, or nil if absent.
func (p *Project) PageByID(id string) *Page {
	for i := range p.Pages {
		if p.Pages[i].ID == id {
			return &p.Pages[i]
		}
	}
	return nil
}

// ElementByID returns a pointer to the top-level element with the given id on
// the page, or nil. Group children are not searched; they are addressed
// through their group.
func (pg *Page) ElementByID(id string) *Element {
	for i := range pg.Elements {
		if pg.Elements[i].ID == id {
			return &pg.Elements[i]
		}
	}
	return nil
}

// Validate checks the structural invariants of the document model.
func (p *Project) Validate() error {
	if len(p.Pages) == 0 {
		return errors.New("project has no pages")
	}
	if p.PageByID(p.ActivePageID) == nil {
		return errors.New("activePageId does not reference an existing page")
	}
	for i := range p.Pages {
		if p.Pages[i].Width <= 0 || p.Pages[i].Height <= 0 {
			return errors.New("page dimensions must be positive")
		}
	}
	return nil
}
