/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package editor

import (
	"math"
	"strings"

	"canvasstudio/internal/domain"
)

// Image, mask, sticker and background-promotion operations.

// SetImageFilters replaces the adjustment parameters of an image element.
func (s *Store) SetImageFilters(id string, f domain.Filters) {
	s.UpdateElement(id, func(el *domain.Element) {
		if el.Type == domain.KindImage && el.Image != nil {
			el.Image.Filters = f
		}
	})
}

// SetImageCrop sets or clears the crop region of an image element.
func (s *Store) SetImageCrop(id string, crop *domain.CropRect) {
	s.UpdateElement(id, func(el *domain.Element) {
		if el.Type == domain.KindImage && el.Image != nil {
			if crop == nil {
				el.Image.Crop = nil
			} else {
				c := *crop
				el.Image.Crop = &c
			}
		}
	})
}

// ApplyImageMask attaches a shape clip to an image element.
func (s *Store) ApplyImageMask(id string, mask domain.Mask) {
	pg := s.ActivePage()
	if pg == nil {
		return
	}
	el := pg.ElementByID(id)
	if el == nil || el.Type != domain.KindImage || el.Image == nil {
		return
	}
	m := mask
	el.Image.Mask = &m
	s.scene.ApplyImageMask(id, mask)
	s.markDirty()
}

// RemoveImageMask clears the shape clip of an image element.
func (s *Store) RemoveImageMask(id string) {
	pg := s.ActivePage()
	if pg == nil {
		return
	}
	el := pg.ElementByID(id)
	if el == nil || el.Type != domain.KindImage || el.Image == nil {
		return
	}
	el.Image.Mask = nil
	s.scene.RemoveImageMask(id)
	s.markDirty()
}

// RecolorSticker re-derives the sticker SVG from its original content with
// the given color map. The original is never mutated; recoloring always
// starts from it so repeated recolors cannot degrade the artwork.
func (s *Store) RecolorSticker(id string, colorMap map[string]string) {
	pg := s.ActivePage()
	if pg == nil {
		return
	}
	el := pg.ElementByID(id)
	if el == nil || el.Type != domain.KindSticker || el.Sticker == nil {
		return
	}
	svg := el.Sticker.OriginalSVGContent
	for from, to := range colorMap {
		svg = strings.ReplaceAll(svg, from, to)
	}
	el.Sticker.SVGContent = svg
	el.Sticker.ColorMap = colorMap
	s.scene.UpdateStickerSVG(id, svg)
	s.markDirty()
}

// SetAsBackground promotes an image element to fill the page behind all other
// content. The current transform is snapshotted so demotion can round-trip
// it exactly.
func (s *Store) SetAsBackground(id string) {
	pg := s.ActivePage()
	if pg == nil {
		return
	}
	el := pg.ElementByID(id)
	if el == nil || el.Type != domain.KindImage || el.Image == nil || el.Image.IsBackground {
		return
	}
	snap := el.Transform
	el.Image.OriginalTransform = &snap
	el.Image.IsBackground = true

	// Cover the page preserving aspect ratio.
	cover := math.Max(pg.Width/el.Transform.Width, pg.Height/el.Transform.Height)
	el.Transform.X = pg.Width / 2
	el.Transform.Y = pg.Height / 2
	el.Transform.ScaleX = cover
	el.Transform.ScaleY = cover
	el.Transform.Rotation = 0
	el.ZIndex = s.minZ(pg) - 1
	el.Selectable = false

	s.resync(*el)
	s.dropFromSelection(id)
	s.markDirty()
}

// RemoveFromBackground demotes a background image, restoring the transform
// snapshotted at promotion time.
func (s *Store) RemoveFromBackground(id string) {
	pg := s.ActivePage()
	if pg == nil {
		return
	}
	el := pg.ElementByID(id)
	if el == nil || el.Type != domain.KindImage || el.Image == nil || !el.Image.IsBackground {
		return
	}
	if el.Image.OriginalTransform != nil {
		el.Transform = *el.Image.OriginalTransform
	}
	el.Image.OriginalTransform = nil
	el.Image.IsBackground = false
	el.ZIndex = s.maxZ(pg) + 1
	el.Selectable = true

	s.resync(*el)
	s.markDirty()
}
