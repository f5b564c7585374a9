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

	"canvasstudio/internal/domain"
	"canvasstudio/internal/scene"
)

// Grouping protocol. Group children are stored in group-relative coordinates
// (relative to the group center); ungrouping restores absolute positions and
// folds group-level scale/rotation back into each child.

// GroupElements replaces the given top-level elements with a single group.
// Fewer than two resolvable ids is a no-op returning "". The group's bounds
// are the axis-aligned union of the members' visual bounds; rotation is not
// accounted for in that box.
func (s *Store) GroupElements(ids []string) string {
	pg := s.ActivePage()
	if pg == nil {
		return ""
	}
	var members []domain.Element
	for _, id := range ids {
		if el := pg.ElementByID(id); el != nil {
			members = append(members, *el)
		}
	}
	if len(members) < 2 {
		return ""
	}

	var box scene.Rect
	maxMemberZ := members[0].ZIndex
	for i, m := range members {
		t := m.Transform
		r := scene.RectAround(t.X, t.Y, t.VisualWidth(), t.VisualHeight())
		if i == 0 {
			box = r
		} else {
			box = box.Union(r)
		}
		if m.ZIndex > maxMemberZ {
			maxMemberZ = m.ZIndex
		}
	}
	center := box.Center()

	children := make([]domain.Element, len(members))
	for i, m := range members {
		c := m.Clone()
		c.Transform.X -= center.X
		c.Transform.Y -= center.Y
		children[i] = c
	}

	group := domain.Element{
		ID:   domain.NewID(),
		Type: domain.KindGroup,
		Name: "Group",
		Transform: domain.Transform{
			X: center.X, Y: center.Y,
			Width: box.W, Height: box.H,
			ScaleX: 1, ScaleY: 1,
		},
		Style:      domain.Style{Opacity: 1},
		Visible:    true,
		Selectable: true,
		ZIndex:     maxMemberZ + 1,
		Group:      &domain.GroupPayload{Children: children},
	}

	memberIDs := make([]string, len(members))
	for i, m := range members {
		memberIDs[i] = m.ID
	}
	kept := pg.Elements[:0]
	for _, el := range pg.Elements {
		if !containsID(memberIDs, el.ID) {
			kept = append(kept, el)
		}
	}
	pg.Elements = append(kept, group.Clone())

	if err := s.scene.CreateGroup(group, memberIDs); err != nil {
		s.log.Warn("scene group failed", "id", group.ID, "err", err)
	}
	s.markDirty()
	s.Select(group.ID)
	return group.ID
}

// UngroupElement dissolves a group back into its children: absolute position
// is restored and the group's scale and rotation are composed into each
// child, so transforms applied to the group after grouping survive. Children
// take zIndex offsets from the group's zIndex by their index to keep a stable
// relative order. Returns the restored child IDs; unknown or non-group ids
// are a no-op returning nil.
func (s *Store) UngroupElement(groupID string) []string {
	pg := s.ActivePage()
	if pg == nil {
		return nil
	}
	idx := indexOf(pg.Elements, groupID)
	if idx < 0 {
		return nil
	}
	g := pg.Elements[idx]
	if g.Type != domain.KindGroup || g.Group == nil {
		return nil
	}

	sin, cos := sinCosDeg(g.Transform.Rotation)
	restored := make([]domain.Element, len(g.Group.Children))
	ids := make([]string, len(g.Group.Children))
	for i, c := range g.Group.Children {
		r := c.Clone()
		// Child offsets are relative to the group center: scale them by the
		// group's scale, then rotate them into page space.
		ox := c.Transform.X * g.Transform.ScaleX
		oy := c.Transform.Y * g.Transform.ScaleY
		r.Transform.X = g.Transform.X + ox*cos - oy*sin
		r.Transform.Y = g.Transform.Y + ox*sin + oy*cos
		r.Transform.ScaleX = c.Transform.ScaleX * g.Transform.ScaleX
		r.Transform.ScaleY = c.Transform.ScaleY * g.Transform.ScaleY
		r.Transform.Rotation = c.Transform.Rotation + g.Transform.Rotation
		r.ZIndex = g.ZIndex + i
		restored[i] = r
		ids[i] = r.ID
	}

	// Splice children where the group sat to keep document insertion order.
	tail := append([]domain.Element(nil), pg.Elements[idx+1:]...)
	pg.Elements = append(pg.Elements[:idx], domain.CloneElements(restored)...)
	pg.Elements = append(pg.Elements, tail...)

	if err := s.scene.UngroupObjects(groupID, restored); err != nil {
		s.log.Warn("scene ungroup failed", "id", groupID, "err", err)
	}
	s.markDirty()
	s.Select(ids...)
	return ids
}

func sinCosDeg(deg float64) (sin, cos float64) {
	rad := deg * math.Pi / 180
	return math.Sin(rad), math.Cos(rad)
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
