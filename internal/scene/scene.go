/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package scene defines the boundary to the rendering engine: a live scene
// graph keyed by document element IDs, with mutation, query and raster-capture
// operations. The document model is the source of truth; everything a Scene
// holds is a derived, disposable projection of it.
package scene

import (
	"context"
	"image"

	"canvasstudio/internal/domain"
)

// PartialTransform is a sparse transform update; nil fields are left as-is.
type PartialTransform struct {
	X        *float64
	Y        *float64
	Width    *float64
	Height   *float64
	ScaleX   *float64
	ScaleY   *float64
	Rotation *float64
}

// PartialStyle is a sparse style update; nil fields are left as-is.
type PartialStyle struct {
	Fill        *string
	Stroke      *string
	StrokeWidth *float64
	Opacity     *float64
}

// RasterOptions controls a raster capture. Multiplier scales the scene's
// internal working resolution; a capture is Multiplier times the working size.
type RasterOptions struct {
	Multiplier float64
}

// Object is a live scene-graph handle for one element.
type Object interface {
	// ID returns the document element ID this handle mirrors.
	ID() string
	// Element returns the current element state as realized in the scene,
	// including in-scene edits not yet flushed to the document model.
	Element() domain.Element
	// SetElement replaces the realized element state.
	SetElement(el domain.Element)
	// Loaded reports whether the object's backing resources (bitmaps) are
	// fully loaded.
	Loaded() bool
	// VisualBounds returns the axis-aligned rendered bounds in page
	// coordinates, post-scale and including stroke extent.
	VisualBounds() Rect
}

// Scene is the render-engine boundary the editor core depends on.
//
// LoadPage must complete before any subsequent bounds query or capture; page
// swaps are asynchronous because backing resources may need to load.
type Scene interface {
	// AddElement realizes an element as a scene object. Adding an ID that
	// already exists replaces that object without moving its paint position
	// among equal z-indexes.
	AddElement(el domain.Element) error
	RemoveObject(id string)
	UpdateElementTransform(id string, t PartialTransform)
	UpdateElementStyle(id string, s PartialStyle)
	ObjectByID(id string) (Object, bool)
	SetObjectByID(id string, obj Object)
	SelectObjects(ids []string)
	CreateGroup(group domain.Element, memberIDs []string) error
	UngroupObjects(groupID string, children []domain.Element) error
	ApplyImageMask(id string, mask domain.Mask)
	RemoveImageMask(id string)
	UpdateStickerSVG(id string, svgContent string)
	SetBackground(bg domain.Background)

	// Rasterize captures the current scene as a bitmap. The result includes
	// the scene background unless it has been stripped via SetBackground with
	// a zero Background.
	Rasterize(opts RasterOptions) (image.Image, error)

	// LoadPage tears down the current scene and rebuilds it fully from the
	// page's element list.
	LoadPage(ctx context.Context, page domain.Page) error

	// WorkingScale is the ratio between the scene's internal working
	// resolution and page logical pixels.
	WorkingScale() float64

	// PaintOrder returns the IDs of all top-level objects in ascending paint
	// order (bottom first).
	PaintOrder() []string
}
