/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"testing"

	"canvasstudio/internal/domain"
	"canvasstudio/internal/scene"
)

func TestComputeSmartGuides_SnapToPageEdges(t *testing.T) {
	page := scene.R(0, 0, 200, 100)
	moving := scene.R(3, 4, 80, 40) // near top-left edges
	opts := SnapOptions{Threshold: 6, SnapToEdges: true}

	snapped, guides := ComputeSmartGuides(moving, []Anchor{{Rect: page, Weight: 1}}, opts)
	if snapped.X != 0 {
		t.Fatalf("expected X snapped to 0, got %v", snapped.X)
	}
	if snapped.Y != 0 {
		t.Fatalf("expected Y snapped to 0, got %v", snapped.Y)
	}
	var vOK, hOK bool
	for _, g := range guides {
		if g.Orientation == "vertical" && g.Position == 0 {
			vOK = true
		}
		if g.Orientation == "horizontal" && g.Position == 0 {
			hOK = true
		}
	}
	if !vOK || !hOK {
		t.Fatalf("expected guides at x=0 (%v) and y=0 (%v)", vOK, hOK)
	}
}

func TestComputeSmartGuides_SnapToCenters(t *testing.T) {
	page := scene.R(0, 0, 200, 100)
	// Moving rect's center is within threshold of the page center.
	moving := scene.R(100-50-2, 50-30-3, 100, 60)
	opts := SnapOptions{Threshold: 5, SnapToCenters: true}

	snapped, guides := ComputeSmartGuides(moving, []Anchor{{Rect: page, Weight: 1}}, opts)
	if snapped.X != 50 {
		t.Fatalf("expected X snapped to 50, got %v", snapped.X)
	}
	if snapped.Y != 20 {
		t.Fatalf("expected Y snapped to 20, got %v", snapped.Y)
	}
	var vOK, hOK bool
	for _, g := range guides {
		if g.Orientation == "vertical" && g.Kind == "center" && g.Position == 100 {
			vOK = true
		}
		if g.Orientation == "horizontal" && g.Kind == "center" && g.Position == 50 {
			hOK = true
		}
	}
	if !vOK || !hOK {
		t.Fatalf("expected center guides present")
	}
}

func TestComputeSmartGuides_ThresholdPreventsSnap(t *testing.T) {
	page := scene.R(0, 0, 200, 100)
	moving := scene.R(10, 10, 50, 20) // 10px away from top-left
	opts := SnapOptions{Threshold: 5, SnapToEdges: true}

	snapped, guides := ComputeSmartGuides(moving, []Anchor{{Rect: page, Weight: 1}}, opts)
	if snapped.X != moving.X || snapped.Y != moving.Y {
		t.Fatalf("expected no snapping when outside threshold; got %+v", snapped)
	}
	if len(guides) != 0 {
		t.Fatalf("expected no guides when no snap")
	}
}

func TestComputeSmartGuides_PicksClosestAxisIndependently(t *testing.T) {
	anchors := []Anchor{
		{Rect: scene.R(0, 0, 100, 100), Weight: 1},
		{Rect: scene.R(300, 0, 100, 100), Weight: 1},
	}
	moving := scene.R(2, 97, 80, 80) // left edge near X=0, top near first anchor bottom Y=100

	snapped, _ := ComputeSmartGuides(moving, anchors, SnapOptions{Threshold: 5, SnapToEdges: true})
	if snapped.X != 0 {
		t.Fatalf("expected X snapped to 0, got %v", snapped.X)
	}
	if snapped.Y != 100 {
		t.Fatalf("expected Y snapped to 100, got %v", snapped.Y)
	}
}

func TestSnapAnchorsSkipsMovingAndHidden(t *testing.T) {
	pg := domain.NewPage("p", 800, 600, 72)
	pg.Elements = []domain.Element{
		{ID: "a", Visible: true, Transform: domain.Transform{X: 100, Y: 100, Width: 40, Height: 40, ScaleX: 1, ScaleY: 1}},
		{ID: "b", Visible: false, Transform: domain.Transform{X: 200, Y: 200, Width: 40, Height: 40, ScaleX: 1, ScaleY: 1}},
		{ID: "c", Visible: true, Transform: domain.Transform{X: 300, Y: 300, Width: 40, Height: 40, ScaleX: 1, ScaleY: 1}},
	}

	anchors := SnapAnchors(&pg, "a")
	// page bounds plus the one visible sibling
	if len(anchors) != 2 {
		t.Fatalf("expected 2 anchors, got %d", len(anchors))
	}
	if anchors[0].Weight <= anchors[1].Weight {
		t.Fatalf("expected page anchor to carry higher weight")
	}
	got := anchors[1].Rect
	want := scene.RectAround(300, 300, 40, 40)
	if got != want {
		t.Fatalf("expected sibling anchor %+v, got %+v", want, got)
	}
}
