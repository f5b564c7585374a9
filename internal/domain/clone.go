/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package domain

// Explicit deep-clone routines. History snapshots and duplicated elements must
// never alias live document state, so every slice, map and pointer payload is
// copied by hand rather than via a serialize round-trip.

// Clone returns a deep copy of the project.
func (p *Project) Clone() *Project {
	if p == nil {
		return nil
	}
	cp := *p
	cp.Metadata.Tags = append([]string(nil), p.Metadata.Tags...)
	cp.Pages = make([]Page, len(p.Pages))
	for i := range p.Pages {
		cp.Pages[i] = p.Pages[i].Clone()
	}
	return &cp
}

// Clone returns a deep copy of the page.
func (pg Page) Clone() Page {
	cp := pg
	cp.Background = pg.Background.Clone()
	cp.Elements = CloneElements(pg.Elements)
	return cp
}

// Clone returns a deep copy of the background variant.
func (b Background) Clone() Background {
	cp := b
	if b.Gradient != nil {
		g := *b.Gradient
		g.Stops = append([]ColorStop(nil), b.Gradient.Stops...)
		cp.Gradient = &g
	}
	if b.Image != nil {
		img := *b.Image
		cp.Image = &img
	}
	return cp
}

// CloneElements deep-copies a slice of elements.
func CloneElements(els []Element) []Element {
	out := make([]Element, len(els))
	for i := range els {
		out[i] = els[i].Clone()
	}
	return out
}

// Clone returns a deep copy of the element, recursing into group children.
func (e Element) Clone() Element {
	cp := e
	if e.Text != nil {
		t := *e.Text
		cp.Text = &t
	}
	if e.Image != nil {
		img := *e.Image
		if e.Image.Crop != nil {
			c := *e.Image.Crop
			img.Crop = &c
		}
		if e.Image.ColorReplace != nil {
			c := *e.Image.ColorReplace
			img.ColorReplace = &c
		}
		if e.Image.Mask != nil {
			m := *e.Image.Mask
			img.Mask = &m
		}
		if e.Image.OriginalTransform != nil {
			t := *e.Image.OriginalTransform
			img.OriginalTransform = &t
		}
		cp.Image = &img
	}
	if e.Shape != nil {
		s := *e.Shape
		cp.Shape = &s
	}
	if e.Line != nil {
		l := *e.Line
		l.Style.DashPattern = append([]float64(nil), e.Line.Style.DashPattern...)
		cp.Line = &l
	}
	if e.Sticker != nil {
		s := *e.Sticker
		if e.Sticker.ColorMap != nil {
			s.ColorMap = make(map[string]string, len(e.Sticker.ColorMap))
			for k, v := range e.Sticker.ColorMap {
				s.ColorMap[k] = v
			}
		}
		cp.Sticker = &s
	}
	if e.Group != nil {
		g := GroupPayload{Children: CloneElements(e.Group.Children)}
		cp.Group = &g
	}
	return cp
}

// RegenerateIDs assigns a fresh unique ID to the element and, recursively, to
// every nested group child. Duplication and paste go through this so no ID is
// ever reused anywhere in the project.
func (e *Element) RegenerateIDs() {
	e.ID = NewID()
	if e.Group != nil {
		for i := range e.Group.Children {
			e.Group.Children[i].RegenerateIDs()
		}
	}
}

// CollectIDs appends the element's ID and all nested child IDs to dst.
func (e Element) CollectIDs(dst []string) []string {
	dst = append(dst, e.ID)
	if e.Group != nil {
		for _, c := range e.Group.Children {
			dst = c.CollectIDs(dst)
		}
	}
	return dst
}
