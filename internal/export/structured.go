/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"canvasstudio/internal/domain"
	"canvasstudio/internal/scene"
)

// StructuredVersion is the format version of the structured JSON export.
const StructuredVersion = 1

// StructuredDocument is the structured export payload: a direct dump of the
// document model's pages.
type StructuredDocument struct {
	ExportVersion   int              `json:"exportVersion"`
	ExportedAt      time.Time        `json:"exportedAt"`
	Pages           []StructuredPage `json:"pages"`
	ProjectMetadata domain.Metadata  `json:"projectMetadata"`
}

// StructuredPage is one exported page.
type StructuredPage struct {
	Name       string            `json:"name"`
	Width      float64           `json:"width"`
	Height     float64           `json:"height"`
	DPI        int               `json:"dpi"`
	Background domain.Background `json:"background"`
	Elements   []domain.Element  `json:"elements"`
}

// writeStructured serializes the given pages as JSON. Text element style and
// geometry are re-synced from the live scene handles right before
// serialization, to capture in-place edits not yet flushed to the document.
func writeStructured(outPath string, proj *domain.Project, pages []domain.Page, sc scene.Scene) error {
	doc := StructuredDocument{
		ExportVersion:   StructuredVersion,
		ExportedAt:      time.Now().UTC(),
		Pages:           make([]StructuredPage, 0, len(pages)),
		ProjectMetadata: proj.Metadata,
	}
	for _, pg := range pages {
		sp := StructuredPage{
			Name:       pg.Name,
			Width:      pg.Width,
			Height:     pg.Height,
			DPI:        pg.DPI,
			Background: pg.Background.Clone(),
			Elements:   domain.CloneElements(pg.Elements),
		}
		resyncText(sp.Elements, sc)
		doc.Pages = append(doc.Pages, sp)
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal structured export: %w", err)
	}
	data = append(data, '\n')
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := os.WriteFile(outPath, data, 0o644); err != nil {
		return fmt.Errorf("write structured export: %w", err)
	}
	return nil
}

// resyncText overwrites text element transform and style from the scene's
// realized object state where a live handle exists. Elements without a handle
// (other pages, deleted objects) keep their document values.
func resyncText(els []domain.Element, sc scene.Scene) {
	if sc == nil {
		return
	}
	for i := range els {
		el := &els[i]
		switch el.Type {
		case domain.KindText:
			obj, ok := sc.ObjectByID(el.ID)
			if !ok {
				continue
			}
			live := obj.Element()
			if live.Type != domain.KindText || live.Text == nil {
				continue
			}
			el.Transform = live.Transform
			el.Text.Content = live.Text.Content
			el.Text.Style = live.Text.Style
		case domain.KindGroup:
			if el.Group != nil {
				resyncText(el.Group.Children, sc)
			}
		}
	}
}
