/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

// Smart guides and snapping for interactive element dragging. Deterministic
// and UI-agnostic so frontends only render the returned guide lines.

import (
	"math"

	"canvasstudio/internal/domain"
	"canvasstudio/internal/scene"
)

// SnapOptions controls which guide candidates are considered and the threshold.
type SnapOptions struct {
	// Threshold is the maximum distance in page pixels at which snapping
	// occurs. Typical UI values are 6-8.
	Threshold float64
	// Snap to edges (left, right, top, bottom)
	SnapToEdges bool
	// Snap to centers (cx, cy)
	SnapToCenters bool
}

// Anchor is a static reference rect (a sibling element or the page itself).
// Weight biases selection when distances tie (higher = preferred).
type Anchor struct {
	Rect   scene.Rect
	Weight float64
}

// GuideLine describes a visual guide generated during a snap alignment.
// Orientation is "vertical" or "horizontal"; Kind is "edge" or "center".
// Position is the x (vertical) or y (horizontal) coordinate of the guide.
// Values are rounded to 3 decimal places for deterministic behavior.
type GuideLine struct {
	Orientation string
	Kind        string
	Position    float64
	From        scene.Pt
	To          scene.Pt
}

// SnapAnchors builds the anchor set a dragged element snaps against: every
// other visible element on the page plus the page bounds, which carries a
// higher weight so page centering wins ties.
func SnapAnchors(pg *domain.Page, movingID string) []Anchor {
	if pg == nil {
		return nil
	}
	anchors := []Anchor{{Rect: scene.R(0, 0, pg.Width, pg.Height), Weight: 2}}
	for i := range pg.Elements {
		el := &pg.Elements[i]
		if el.ID == movingID || !el.Visible {
			continue
		}
		w, h := el.Transform.VisualWidth(), el.Transform.VisualHeight()
		anchors = append(anchors, Anchor{Rect: scene.RectAround(el.Transform.X, el.Transform.Y, w, h), Weight: 1})
	}
	return anchors
}

// ComputeSmartGuides computes snapping adjustments for a moving rectangle
// against a set of anchors. It returns the snapped rectangle and any guide
// lines to render for visual feedback. Snapping happens independently in X
// and Y.
func ComputeSmartGuides(moving scene.Rect, anchors []Anchor, opts SnapOptions) (scene.Rect, []GuideLine) {
	if opts.Threshold <= 0 {
		opts.Threshold = 6
	}
	var guides []GuideLine

	bestX := candidate{dist: math.Inf(1), score: math.Inf(1)}
	bestY := candidate{dist: math.Inf(1), score: math.Inf(1)}

	mL, mR, mT, mB := moving.X, moving.X+moving.W, moving.Y, moving.Y+moving.H
	mCX, mCY := moving.X+moving.W/2, moving.Y+moving.H/2

	for _, a := range anchors {
		aL, aR, aT, aB := a.Rect.X, a.Rect.X+a.Rect.W, a.Rect.Y, a.Rect.Y+a.Rect.H
		aCX, aCY := a.Rect.X+a.Rect.W/2, a.Rect.Y+a.Rect.H/2

		if opts.SnapToEdges {
			bestX.consider(mL-aL, opts.Threshold, a.Weight, verticalGuide(aL, moving, a.Rect, "edge"))
			bestX.consider(mR-aR, opts.Threshold, a.Weight, verticalGuide(aR, moving, a.Rect, "edge"))
			bestX.consider(mL-aR, opts.Threshold, a.Weight, verticalGuide(aR, moving, a.Rect, "edge"))
			bestX.consider(mR-aL, opts.Threshold, a.Weight, verticalGuide(aL, moving, a.Rect, "edge"))

			bestY.consider(mT-aT, opts.Threshold, a.Weight, horizontalGuide(aT, moving, a.Rect, "edge"))
			bestY.consider(mB-aB, opts.Threshold, a.Weight, horizontalGuide(aB, moving, a.Rect, "edge"))
			bestY.consider(mT-aB, opts.Threshold, a.Weight, horizontalGuide(aB, moving, a.Rect, "edge"))
			bestY.consider(mB-aT, opts.Threshold, a.Weight, horizontalGuide(aT, moving, a.Rect, "edge"))
		}
		if opts.SnapToCenters {
			bestX.consider(mCX-aCX, opts.Threshold, a.Weight, verticalGuide(aCX, moving, a.Rect, "center"))
			bestY.consider(mCY-aCY, opts.Threshold, a.Weight, horizontalGuide(aCY, moving, a.Rect, "center"))
		}
	}

	snapped := moving
	if bestX.dist <= opts.Threshold {
		snapped.X = round3(moving.X - bestX.delta)
		guides = append(guides, bestX.guide)
	}
	if bestY.dist <= opts.Threshold {
		snapped.Y = round3(moving.Y - bestY.delta)
		guides = append(guides, bestY.guide)
	}
	return snapped, guides
}

type candidate struct {
	delta float64
	dist  float64
	score float64
	guide GuideLine
}

func (c *candidate) consider(delta, threshold, weight float64, g GuideLine) {
	dist := math.Abs(delta)
	if dist > threshold {
		return
	}
	score := dist / math.Max(1, weight)
	if score < c.score {
		c.delta = delta
		c.dist = dist
		c.score = score
		c.guide = g
	}
}

func verticalGuide(x float64, a, b scene.Rect, kind string) GuideLine {
	minY := math.Min(a.Y, b.Y)
	maxY := math.Max(a.Y+a.H, b.Y+b.H)
	x = round3(x)
	return GuideLine{
		Orientation: "vertical",
		Kind:        kind,
		Position:    x,
		From:        scene.Pt{X: x, Y: minY},
		To:          scene.Pt{X: x, Y: maxY},
	}
}

func horizontalGuide(y float64, a, b scene.Rect, kind string) GuideLine {
	minX := math.Min(a.X, b.X)
	maxX := math.Max(a.X+a.W, b.X+b.W)
	y = round3(y)
	return GuideLine{
		Orientation: "horizontal",
		Kind:        kind,
		Position:    y,
		From:        scene.Pt{X: minX, Y: y},
		To:          scene.Pt{X: maxX, Y: y},
	}
}

func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
