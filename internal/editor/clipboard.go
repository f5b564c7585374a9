/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import "canvasstudio/internal/domain"

// pasteOffset keeps duplicated content from landing exactly on its source.
const pasteOffset = 20.0

// Copy stores deep clones of the given elements on the internal clipboard.
func (s *Store) Copy(ids []string) {
	pg := s.ActivePage()
	if pg == nil {
		return
	}
	var clones []domain.Element
	for _, id := range ids {
		if el := pg.ElementByID(id); el != nil {
			clones = append(clones, el.Clone())
		}
	}
	if len(clones) > 0 {
		s.clipboard = clones
	}
}

// Cut copies then removes the elements.
func (s *Store) Cut(ids []string) {
	s.Copy(ids)
	for _, id := range ids {
		s.RemoveElement(id)
	}
}

// Paste inserts clipboard contents with fresh IDs (recursively, including
// nested group children) offset from the originals. Returns the new IDs.
func (s *Store) Paste() []string {
	return s.insertClones(s.clipboard)
}

// DuplicateElements clones the given elements in place with fresh IDs.
func (s *Store) DuplicateElements(ids []string) []string {
	pg := s.ActivePage()
	if pg == nil {
		return nil
	}
	var src []domain.Element
	for _, id := range ids {
		if el := pg.ElementByID(id); el != nil {
			src = append(src, *el)
		}
	}
	return s.insertClones(src)
}

func (s *Store) insertClones(src []domain.Element) []string {
	pg := s.ActivePage()
	if pg == nil || len(src) == 0 {
		return nil
	}
	newIDs := make([]string, 0, len(src))
	z := s.maxZ(pg)
	for _, el := range src {
		c := el.Clone()
		c.RegenerateIDs()
		c.Transform.X += pasteOffset
		c.Transform.Y += pasteOffset
		z++
		c.ZIndex = z
		pg.Elements = append(pg.Elements, c.Clone())
		if err := s.scene.AddElement(c); err != nil {
			s.log.Warn("scene add failed", "id", c.ID, "err", err)
		}
		newIDs = append(newIDs, c.ID)
	}
	s.markDirty()
	s.Select(newIDs...)
	return newIDs
}
