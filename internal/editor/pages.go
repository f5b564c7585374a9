/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"context"
	"fmt"

	"canvasstudio/internal/domain"
)

// Page management. SwitchPage awaits the scene rebuild; a page swap is never
// assumed to complete synchronously.

// AddPage appends a new page and returns its ID.
func (s *Store) AddPage(name string, width, height float64, dpi int) string {
	if width <= 0 || height <= 0 {
		return ""
	}
	pg := domain.NewPage(name, width, height, dpi)
	s.project.Pages = append(s.project.Pages, pg)
	s.markDirty()
	return pg.ID
}

// RemovePage deletes a page by ID. The last remaining page is never removed.
// Removing the active page switches to its nearest neighbor.
func (s *Store) RemovePage(ctx context.Context, id string) error {
	if len(s.project.Pages) <= 1 {
		return fmt.Errorf("cannot remove the last page")
	}
	idx := -1
	for i := range s.project.Pages {
		if s.project.Pages[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil
	}
	wasActive := s.project.ActivePageID == id
	s.project.Pages = append(s.project.Pages[:idx], s.project.Pages[idx+1:]...)
	s.markDirty()
	if wasActive {
		if idx >= len(s.project.Pages) {
			idx = len(s.project.Pages) - 1
		}
		return s.SwitchPage(ctx, s.project.Pages[idx].ID)
	}
	return nil
}

// SwitchPage makes the page active and rebuilds the scene from it, waiting
// for resources to load.
func (s *Store) SwitchPage(ctx context.Context, id string) error {
	pg := s.project.PageByID(id)
	if pg == nil {
		return fmt.Errorf("no page %s", id)
	}
	if err := s.scene.LoadPage(ctx, *pg); err != nil {
		return fmt.Errorf("load page %s: %w", id, err)
	}
	s.project.ActivePageID = id
	s.selection = nil
	return nil
}

// RenamePage sets the display name of a page.
func (s *Store) RenamePage(id, name string) {
	if pg := s.project.PageByID(id); pg != nil {
		pg.Name = name
		s.markDirty()
	}
}

// SetPageHidden toggles export exclusion for a page.
func (s *Store) SetPageHidden(id string, hidden bool) {
	if pg := s.project.PageByID(id); pg != nil {
		pg.Hidden = hidden
		s.markDirty()
	}
}

// SetPageBackground replaces the active page's background variant and mirrors
// it into the scene.
func (s *Store) SetPageBackground(bg domain.Background) {
	pg := s.ActivePage()
	if pg == nil {
		return
	}
	pg.Background = bg.Clone()
	s.scene.SetBackground(bg)
	s.markDirty()
}
