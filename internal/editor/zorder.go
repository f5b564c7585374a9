/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

// Z-order operations. ZIndex is a relative ordering key, not an absolute
// value; the scene's paint order must always match ascending zIndex of the
// document elements, so document and scene are updated together.

// BringToFront raises the element above all siblings.
func (s *Store) BringToFront(id string) {
	pg := s.ActivePage()
	if pg == nil {
		return
	}
	if el := pg.ElementByID(id); el != nil {
		s.setZ(el.ID, s.maxZ(pg)+1)
	}
}

// SendToBack lowers the element below all siblings.
func (s *Store) SendToBack(id string) {
	pg := s.ActivePage()
	if pg == nil {
		return
	}
	if el := pg.ElementByID(id); el != nil {
		s.setZ(el.ID, s.minZ(pg)-1)
	}
}

// BringForward raises the element one step.
func (s *Store) BringForward(id string) {
	pg := s.ActivePage()
	if pg == nil {
		return
	}
	if el := pg.ElementByID(id); el != nil {
		s.setZ(el.ID, el.ZIndex+1)
	}
}

// SendBackward lowers the element one step.
func (s *Store) SendBackward(id string) {
	pg := s.ActivePage()
	if pg == nil {
		return
	}
	if el := pg.ElementByID(id); el != nil {
		s.setZ(el.ID, el.ZIndex-1)
	}
}

// setZ writes the new zIndex into the document and into the live scene handle
// in place, preserving the scene's insertion order for tie-breaking.
func (s *Store) setZ(id string, z int) {
	pg := s.ActivePage()
	el := pg.ElementByID(id)
	if el == nil {
		return
	}
	el.ZIndex = z
	if obj, ok := s.scene.ObjectByID(id); ok {
		live := obj.Element()
		live.ZIndex = z
		obj.SetElement(live)
	}
	s.markDirty()
}
