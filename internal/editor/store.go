/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package editor implements the element store: the mutation API over the
// document model for the active page. Every mutation updates the document
// first, mirrors the change into the render scene second, and marks the
// document dirty last. The scene is a derived projection; the document model
// is the single source of truth for what exists.
package editor

import (
	"context"
	"fmt"
	"log/slog"

	"canvasstudio/internal/domain"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/scene"
	"canvasstudio/internal/textmetrics"
)

// Store coordinates document-model mutations with the render scene.
// It is not safe for concurrent use; the editor runs single-threaded with
// explicit asynchronous boundaries (page loads).
type Store struct {
	log       *slog.Logger
	project   *domain.Project
	scene     scene.Scene
	selection []string
	clipboard []domain.Element
	fonts     textmetrics.Provider
	dirty     bool
}

// New builds a store over an existing project and scene. The caller is
// responsible for the initial LoadPage of the active page.
func New(project *domain.Project, sc scene.Scene) *Store {
	return &Store{
		log:     applog.WithComponent("editor"),
		project: project,
		scene:   sc,
		fonts:   textmetrics.BasicProvider{},
	}
}

// SetFontProvider swaps the measurement provider used to auto-size new text
// elements. The default measures with a fixed fallback face.
func (s *Store) SetFontProvider(p textmetrics.Provider) {
	if p != nil {
		s.fonts = p
	}
}

// Project returns the live document model.
func (s *Store) Project() *domain.Project { return s.project }

// Scene returns the render-scene boundary.
func (s *Store) Scene() scene.Scene { return s.scene }

// Dirty reports whether unsaved mutations exist.
func (s *Store) Dirty() bool { return s.dirty }

// ClearDirty resets the dirty flag, typically after a successful save.
func (s *Store) ClearDirty() { s.dirty = false }

func (s *Store) markDirty() { s.dirty = true }

// ActivePage returns the active page, or nil when the project invariant is
// broken.
func (s *Store) ActivePage() *domain.Page { return s.project.ActivePage() }

// Selection returns the current selection set.
func (s *Store) Selection() []string { return append([]string(nil), s.selection...) }

// Select replaces the selection, dropping locked or unselectable ids, and
// mirrors it into the scene.
func (s *Store) Select(ids ...string) {
	pg := s.ActivePage()
	if pg == nil {
		return
	}
	sel := make([]string, 0, len(ids))
	for _, id := range ids {
		if el := pg.ElementByID(id); el != nil && el.Selectable && !el.Locked {
			sel = append(sel, id)
		}
	}
	s.selection = sel
	s.scene.SelectObjects(sel)
}

// ClearSelection empties the selection.
func (s *Store) ClearSelection() {
	s.selection = nil
	s.scene.SelectObjects(nil)
}

func (s *Store) dropFromSelection(id string) {
	out := s.selection[:0]
	for _, v := range s.selection {
		if v != id {
			out = append(out, v)
		}
	}
	s.selection = out
	s.scene.SelectObjects(s.selection)
}

// AddElement inserts an element on the active page, assigning a fresh ID if
// absent and placing it on top of the z-order. Returns the element ID.
func (s *Store) AddElement(el domain.Element) string {
	pg := s.ActivePage()
	if pg == nil {
		return ""
	}
	if el.ID == "" {
		el.ID = domain.NewID()
	}
	if el.Transform.ScaleX == 0 {
		el.Transform.ScaleX = 1
	}
	if el.Transform.ScaleY == 0 {
		el.Transform.ScaleY = 1
	}
	if el.Style.Opacity == 0 {
		el.Style.Opacity = 1
	}
	if el.Type == domain.KindText && el.Transform.Width == 0 && el.Transform.Height == 0 {
		el.Transform.Width, el.Transform.Height = textmetrics.MeasureElement(s.fonts, &el)
	}
	el.Visible = true
	el.Selectable = !el.Locked
	el.ZIndex = s.maxZ(pg) + 1
	pg.Elements = append(pg.Elements, el.Clone())

	if err := s.scene.AddElement(el); err != nil {
		s.log.Warn("scene add failed", slog.String("id", el.ID), slog.Any("err", err))
	}
	s.markDirty()
	s.Select(el.ID)
	return el.ID
}

// RemoveElement deletes an element by ID. Unknown IDs are a no-op; the UI may
// race with concurrent removal.
func (s *Store) RemoveElement(id string) {
	pg := s.ActivePage()
	if pg == nil {
		return
	}
	idx := indexOf(pg.Elements, id)
	if idx < 0 {
		return
	}
	pg.Elements = append(pg.Elements[:idx], pg.Elements[idx+1:]...)
	s.scene.RemoveObject(id)
	s.dropFromSelection(id)
	s.markDirty()
}

// UpdateElement applies an arbitrary mutation to the element, then fully
// resyncs its scene object. Unknown IDs are a no-op.
func (s *Store) UpdateElement(id string, mutate func(*domain.Element)) {
	pg := s.ActivePage()
	if pg == nil {
		return
	}
	el := pg.ElementByID(id)
	if el == nil {
		return
	}
	mutate(el)
	s.resync(*el)
	s.markDirty()
}

// UpdateTransform applies a sparse transform update to the document and
// mirrors it into the scene.
func (s *Store) UpdateTransform(id string, t scene.PartialTransform) {
	pg := s.ActivePage()
	if pg == nil {
		return
	}
	el := pg.ElementByID(id)
	if el == nil {
		return
	}
	applyPartialTransform(&el.Transform, t)
	s.scene.UpdateElementTransform(id, t)
	s.markDirty()
}

// UpdateStyle applies a sparse style update to the document and mirrors it
// into the scene.
func (s *Store) UpdateStyle(id string, st scene.PartialStyle) {
	pg := s.ActivePage()
	if pg == nil {
		return
	}
	el := pg.ElementByID(id)
	if el == nil {
		return
	}
	if st.Fill != nil {
		el.Style.Fill = *st.Fill
	}
	if st.Stroke != nil {
		el.Style.Stroke = *st.Stroke
	}
	if st.StrokeWidth != nil {
		el.Style.StrokeWidth = *st.StrokeWidth
	}
	if st.Opacity != nil {
		el.Style.Opacity = *st.Opacity
	}
	s.scene.UpdateElementStyle(id, st)
	s.markDirty()
}

// LockElement makes an element unreachable to pointer-driven mutation. It
// stays programmatically mutable and is dropped from the selection.
func (s *Store) LockElement(id string) {
	pg := s.ActivePage()
	if pg == nil {
		return
	}
	el := pg.ElementByID(id)
	if el == nil {
		return
	}
	el.Locked = true
	el.Selectable = false
	s.resync(*el)
	s.dropFromSelection(id)
	s.markDirty()
}

// UnlockElement reverses LockElement.
func (s *Store) UnlockElement(id string) {
	pg := s.ActivePage()
	if pg == nil {
		return
	}
	el := pg.ElementByID(id)
	if el == nil {
		return
	}
	el.Locked = false
	el.Selectable = true
	s.resync(*el)
	s.markDirty()
}

// ReplaceProject atomically swaps the live document model and rebuilds the
// scene for the restored active page. Used by history restore and import.
func (s *Store) ReplaceProject(ctx context.Context, p *domain.Project) error {
	if p == nil {
		return fmt.Errorf("nil project")
	}
	if err := p.Validate(); err != nil {
		return fmt.Errorf("replace project: %w", err)
	}
	active := p.ActivePage()
	if err := s.scene.LoadPage(ctx, *active); err != nil {
		return fmt.Errorf("rebuild scene: %w", err)
	}
	s.project = p
	s.selection = nil
	return nil
}

// resync replaces the element's scene object wholesale. Updates that have no
// dedicated scene operation go through here. The scene keeps the object's
// paint position among equal z-indexes, so a non-z mutation never reorders
// ties; the document's insertion order stays authoritative.
func (s *Store) resync(el domain.Element) {
	if err := s.scene.AddElement(el); err != nil {
		s.log.Warn("scene resync failed", slog.String("id", el.ID), slog.Any("err", err))
	}
}

func (s *Store) maxZ(pg *domain.Page) int {
	m := 0
	for i := range pg.Elements {
		if pg.Elements[i].ZIndex > m {
			m = pg.Elements[i].ZIndex
		}
	}
	return m
}

func (s *Store) minZ(pg *domain.Page) int {
	if len(pg.Elements) == 0 {
		return 0
	}
	m := pg.Elements[0].ZIndex
	for i := range pg.Elements {
		if pg.Elements[i].ZIndex < m {
			m = pg.Elements[i].ZIndex
		}
	}
	return m
}

func indexOf(els []domain.Element, id string) int {
	for i := range els {
		if els[i].ID == id {
			return i
		}
	}
	return -1
}

func applyPartialTransform(tr *domain.Transform, t scene.PartialTransform) {
	if t.X != nil {
		tr.X = *t.X
	}
	if t.Y != nil {
		tr.Y = *t.Y
	}
	if t.Width != nil {
		tr.Width = *t.Width
	}
	if t.Height != nil {
		tr.Height = *t.Height
	}
	if t.ScaleX != nil {
		tr.ScaleX = *t.ScaleX
	}
	if t.ScaleY != nil {
		tr.ScaleY = *t.ScaleY
	}
	if t.Rotation != nil {
		tr.Rotation = *t.Rotation
	}
}
