/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import "canvasstudio/internal/scene"

// AlignEdge names an alignment target relative to the union of the selected
// elements' rendered bounds.
type AlignEdge string

const (
	AlignLeft    AlignEdge = "left"
	AlignCenterX AlignEdge = "centerX"
	AlignRight   AlignEdge = "right"
	AlignTop     AlignEdge = "top"
	AlignCenterY AlignEdge = "centerY"
	AlignBottom  AlignEdge = "bottom"
)

// AlignElements lines up elements along an edge of their combined bounds.
// Bounds are read from the live scene handles: the scene is the authority for
// visually realized size (post-scale, post-stroke), while the document stays
// the authority for the intended transform parameters written back.
func (s *Store) AlignElements(ids []string, edge AlignEdge) {
	pg := s.ActivePage()
	if pg == nil || len(ids) < 2 {
		return
	}
	type entry struct {
		id     string
		bounds scene.Rect
	}
	var entries []entry
	var union scene.Rect
	for _, id := range ids {
		obj, ok := s.scene.ObjectByID(id)
		if !ok {
			continue
		}
		b := obj.VisualBounds()
		if len(entries) == 0 {
			union = b
		} else {
			union = union.Union(b)
		}
		entries = append(entries, entry{id: id, bounds: b})
	}
	if len(entries) < 2 {
		return
	}
	for _, e := range entries {
		if pg.ElementByID(e.id) == nil {
			continue
		}
		var nx, ny *float64
		switch edge {
		case AlignLeft:
			v := union.X + e.bounds.W/2
			nx = &v
		case AlignCenterX:
			v := union.Center().X
			nx = &v
		case AlignRight:
			v := union.Max().X - e.bounds.W/2
			nx = &v
		case AlignTop:
			v := union.Y + e.bounds.H/2
			ny = &v
		case AlignCenterY:
			v := union.Center().Y
			ny = &v
		case AlignBottom:
			v := union.Max().Y - e.bounds.H/2
			ny = &v
		default:
			return
		}
		s.UpdateTransform(e.id, scene.PartialTransform{X: nx, Y: ny})
	}
}
