/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package scene

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"math"
	"sort"
	"sync"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"canvasstudio/internal/domain"
	"canvasstudio/internal/imaging"
	applog "canvasstudio/internal/log"
)

// AssetLoader resolves an image source reference to a decoded bitmap.
type AssetLoader func(src string) (image.Image, error)

// Softscene is a software scene graph painting with image/draw. Rotation and
// skew are approximated by axis-aligned bounds; it is a faithful stand-in for
// a GPU canvas in everything the editor core and export pipeline depend on:
// identity-keyed objects, z-ordered painting, bounds queries and raster
// capture at a working scale.
type Softscene struct {
	mu           sync.Mutex
	log          *slog.Logger
	page         domain.Page
	background   domain.Background
	nodes        map[string]*node
	selection    []string
	workingScale float64
	seq          int
	loadAsset    AssetLoader
}

type node struct {
	el     domain.Element
	bitmap image.Image
	loaded bool
	seq    int
}

func (n *node) ID() string                   { return n.el.ID }
func (n *node) Element() domain.Element      { return n.el.Clone() }
func (n *node) SetElement(el domain.Element) { n.el = el.Clone() }
func (n *node) Loaded() bool                 { return n.el.Type != domain.KindImage || n.loaded }

func (n *node) VisualBounds() Rect {
	t := n.el.Transform
	if n.el.Type == domain.KindLine && n.el.Line != nil {
		l := n.el.Line
		r := R(math.Min(l.X1, l.X2), math.Min(l.Y1, l.Y2),
			math.Abs(l.X2-l.X1), math.Abs(l.Y2-l.Y1))
		return r.Inset(-l.StrokeWidth/2, -l.StrokeWidth/2)
	}
	r := RectAround(t.X, t.Y, t.VisualWidth(), t.VisualHeight())
	if sw := n.el.Style.StrokeWidth; sw > 0 {
		r = r.Inset(-sw/2, -sw/2)
	}
	return r
}

// Option configures a Softscene.
type Option func(*Softscene)

// WithWorkingScale sets the ratio between internal working resolution and
// page logical pixels (editing canvases are typically scaled down).
func WithWorkingScale(ws float64) Option {
	return func(s *Softscene) {
		if ws > 0 {
			s.workingScale = ws
		}
	}
}

// WithAssetLoader overrides how image sources are resolved to bitmaps.
func WithAssetLoader(l AssetLoader) Option {
	return func(s *Softscene) { s.loadAsset = l }
}

// NewSoftscene builds an empty scene.
func NewSoftscene(opts ...Option) *Softscene {
	s := &Softscene{
		log:          applog.WithComponent("scene"),
		nodes:        make(map[string]*node),
		workingScale: 1,
		loadAsset:    imaging.Load,
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewImageObject builds a detached scene handle for an image element with an
// already-decoded bitmap, for splicing in via SetObjectByID.
func NewImageObject(el domain.Element, bitmap image.Image) Object {
	return &node{el: el.Clone(), bitmap: bitmap, loaded: bitmap != nil}
}

func (s *Softscene) AddElement(el domain.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addLocked(el)
}

func (s *Softscene) addLocked(el domain.Element) error {
	n := &node{el: el.Clone(), seq: s.seq}
	if old, ok := s.nodes[el.ID]; ok {
		// Re-adding an existing ID replaces the object in place; its paint
		// position among equal z-indexes must not move.
		n.seq = old.seq
	} else {
		s.seq++
	}
	if el.Type == domain.KindImage && el.Image != nil {
		bm, err := s.loadAsset(el.Image.Src)
		if err != nil {
			// Resource-load failure: keep the node, paint nothing for it.
			s.log.Warn("image load failed", slog.String("id", el.ID), slog.Any("err", err))
		} else {
			n.bitmap = bm
			n.loaded = true
		}
	}
	s.nodes[el.ID] = n
	return nil
}

func (s *Softscene) RemoveObject(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.nodes, id)
	s.selection = removeID(s.selection, id)
}

func (s *Softscene) UpdateElementTransform(id string, t PartialTransform) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	tr := &n.el.Transform
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

func (s *Softscene) UpdateElementStyle(id string, st PartialStyle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	if !ok {
		return
	}
	if st.Fill != nil {
		n.el.Style.Fill = *st.Fill
	}
	if st.Stroke != nil {
		n.el.Style.Stroke = *st.Stroke
	}
	if st.StrokeWidth != nil {
		n.el.Style.StrokeWidth = *st.StrokeWidth
	}
	if st.Opacity != nil {
		n.el.Style.Opacity = *st.Opacity
	}
}

func (s *Softscene) ObjectByID(id string) (Object, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.nodes[id]
	return n, ok
}

func (s *Softscene) SetObjectByID(id string, obj Object) {
	s.mu.Lock()
	defer s.mu.Unlock()
	old, ok := s.nodes[id]
	seq := s.seq
	if ok {
		seq = old.seq
	} else {
		s.seq++
	}
	if nn, isNode := obj.(*node); isNode {
		nn.seq = seq
		s.nodes[id] = nn
		return
	}
	s.nodes[id] = &node{el: obj.Element(), seq: seq, loaded: obj.Loaded()}
}

func (s *Softscene) SelectObjects(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sel := make([]string, 0, len(ids))
	for _, id := range ids {
		if n, ok := s.nodes[id]; ok && n.el.Selectable && !n.el.Locked {
			sel = append(sel, id)
		}
	}
	s.selection = sel
}

// Selection returns the currently selected object IDs.
func (s *Softscene) Selection() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.selection...)
}

func (s *Softscene) CreateGroup(group domain.Element, memberIDs []string) error {
	if group.Type != domain.KindGroup || group.Group == nil {
		return fmt.Errorf("element %s is not a group", group.ID)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range memberIDs {
		delete(s.nodes, id)
		s.selection = removeID(s.selection, id)
	}
	return s.addLocked(group)
}

func (s *Softscene) UngroupObjects(groupID string, children []domain.Element) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.nodes[groupID]; !ok {
		return fmt.Errorf("no scene object for group %s", groupID)
	}
	delete(s.nodes, groupID)
	s.selection = removeID(s.selection, groupID)
	for _, c := range children {
		if err := s.addLocked(c); err != nil {
			return err
		}
	}
	return nil
}

func (s *Softscene) ApplyImageMask(id string, mask domain.Mask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.nodes[id]; ok && n.el.Type == domain.KindImage && n.el.Image != nil {
		m := mask
		n.el.Image.Mask = &m
	}
}

func (s *Softscene) RemoveImageMask(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.nodes[id]; ok && n.el.Type == domain.KindImage && n.el.Image != nil {
		n.el.Image.Mask = nil
	}
}

func (s *Softscene) UpdateStickerSVG(id, svgContent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if n, ok := s.nodes[id]; ok && n.el.Type == domain.KindSticker && n.el.Sticker != nil {
		n.el.Sticker.SVGContent = svgContent
	}
}

func (s *Softscene) SetBackground(bg domain.Background) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.background = bg.Clone()
}

func (s *Softscene) WorkingScale() float64 { return s.workingScale }

func (s *Softscene) LoadPage(ctx context.Context, page domain.Page) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nodes = make(map[string]*node)
	s.selection = nil
	s.seq = 0
	s.page = page.Clone()
	s.background = page.Background.Clone()
	for _, el := range page.Elements {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.addLocked(el); err != nil {
			return err
		}
	}
	return nil
}

func (s *Softscene) PaintOrder() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ns := s.orderedLocked()
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.el.ID
	}
	return out
}

// orderedLocked returns nodes sorted ascending by zIndex, insertion order
// breaking ties.
func (s *Softscene) orderedLocked() []*node {
	ns := make([]*node, 0, len(s.nodes))
	for _, n := range s.nodes {
		ns = append(ns, n)
	}
	sort.SliceStable(ns, func(i, j int) bool {
		if ns[i].el.ZIndex != ns[j].el.ZIndex {
			return ns[i].el.ZIndex < ns[j].el.ZIndex
		}
		return ns[i].seq < ns[j].seq
	})
	return ns
}

func (s *Softscene) Rasterize(opts RasterOptions) (image.Image, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.page.Width <= 0 || s.page.Height <= 0 {
		return nil, fmt.Errorf("scene has no page loaded")
	}
	mult := opts.Multiplier
	if mult <= 0 {
		mult = 1
	}
	px := s.workingScale * mult
	w := int(math.Round(s.page.Width * px))
	h := int(math.Round(s.page.Height * px))
	out := image.NewNRGBA(image.Rect(0, 0, w, h))

	if s.background.Kind == domain.BackgroundSolid && s.background.Color != "" {
		c, err := imaging.ParseHex(s.background.Color)
		if err == nil {
			draw.Draw(out, out.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
		}
	}

	for _, n := range s.orderedLocked() {
		s.paintNode(out, n.el, n.bitmap, 0, 0, px)
	}
	return out, nil
}

// paintNode draws one element. dx,dy offset child coordinates of groups.
func (s *Softscene) paintNode(dst *image.NRGBA, el domain.Element, bitmap image.Image, dx, dy, px float64) {
	if !el.Visible {
		return
	}
	t := el.Transform
	cx, cy := (t.X+dx)*px, (t.Y+dy)*px
	vw, vh := t.VisualWidth()*px, t.VisualHeight()*px
	x0 := int(math.Round(cx - vw/2))
	y0 := int(math.Round(cy - vh/2))
	x1 := int(math.Round(cx + vw/2))
	y1 := int(math.Round(cy + vh/2))

	switch el.Type {
	case domain.KindShape, domain.KindSticker:
		if fc, err := imaging.ParseHex(el.Style.Fill); err == nil && el.Style.Fill != "" {
			fillRect(dst, x0, y0, x1-1, y1-1, fc)
		}
		if sc, err := imaging.ParseHex(el.Style.Stroke); err == nil && el.Style.Stroke != "" {
			strokeRect(dst, x0, y0, x1-1, y1-1, sc)
		}
	case domain.KindImage:
		if bitmap == nil || x1 <= x0 || y1 <= y0 {
			return
		}
		src := bitmap
		if el.Image != nil && el.Image.Crop != nil {
			src = imaging.Crop(src, *el.Image.Crop)
		}
		xdraw.BiLinear.Scale(dst, image.Rect(x0, y0, x1, y1), src, src.Bounds(), xdraw.Over, nil)
		if el.Image != nil && el.Image.Mask != nil {
			applyMask(dst, image.Rect(x0, y0, x1, y1), *el.Image.Mask)
		}
	case domain.KindLine:
		if el.Line != nil {
			lc := color.NRGBA{A: 0xff}
			if c, err := imaging.ParseHex(el.Line.StrokeColor); err == nil {
				lc = c
			}
			drawLine(dst,
				int(math.Round((el.Line.X1+dx)*px)), int(math.Round((el.Line.Y1+dy)*px)),
				int(math.Round((el.Line.X2+dx)*px)), int(math.Round((el.Line.Y2+dy)*px)), lc)
		}
	case domain.KindText:
		if el.Text != nil {
			tc := color.NRGBA{A: 0xff}
			if c, err := imaging.ParseHex(el.Style.Fill); err == nil && el.Style.Fill != "" {
				tc = c
			}
			drawText(dst, el.Text.Content, int(math.Round(cx)), int(math.Round(cy)), tc)
		}
	case domain.KindGroup:
		if el.Group != nil {
			// Children are group-relative; their bitmaps are loaded lazily
			// and re-derived from the unfiltered source, so nested image
			// adjustments paint the same as top-level ones.
			for _, c := range el.Group.Children {
				var bm image.Image
				if c.Type == domain.KindImage && c.Image != nil {
					src := c.Image.OriginalSrc
					if src == "" {
						src = c.Image.Src
					}
					if b, err := s.loadAsset(src); err == nil {
						bm = imaging.Apply(b, c.Image.Filters)
					}
				}
				s.paintNode(dst, c, bm, t.X+dx, t.Y+dy, px)
			}
		}
	}
}

// applyMask clears pixels outside the mask shape within r.
func applyMask(dst *image.NRGBA, r image.Rectangle, m domain.Mask) {
	if m.Shape != "circle" && m.Shape != "ellipse" {
		return
	}
	cx := float64(r.Min.X+r.Max.X) / 2
	cy := float64(r.Min.Y+r.Max.Y) / 2
	rx := float64(r.Dx()) / 2
	ry := float64(r.Dy()) / 2
	if m.Shape == "circle" {
		rr := math.Min(rx, ry)
		rx, ry = rr, rr
	}
	if rx <= 0 || ry <= 0 {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			nx := (float64(x) + 0.5 - cx) / rx
			ny := (float64(y) + 0.5 - cy) / ry
			if nx*nx+ny*ny > 1 {
				dst.SetNRGBA(x, y, color.NRGBA{})
			}
		}
	}
}

// strokeRect draws a 1px axis-aligned rectangle border inclusive of endpoints.
func strokeRect(img *image.NRGBA, x0, y0, x1, y1 int, col color.NRGBA) {
	for x := x0; x <= x1; x++ {
		setClamped(img, x, y0, col)
		setClamped(img, x, y1, col)
	}
	for y := y0; y <= y1; y++ {
		setClamped(img, x0, y, col)
		setClamped(img, x1, y, col)
	}
}

func fillRect(img *image.NRGBA, x0, y0, x1, y1 int, col color.NRGBA) {
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			setClamped(img, x, y, col)
		}
	}
}

func setClamped(img *image.NRGBA, x, y int, col color.NRGBA) {
	if image.Pt(x, y).In(img.Bounds()) {
		img.SetNRGBA(x, y, col)
	}
}

// drawLine paints a 1px line using the integer midpoint algorithm.
func drawLine(img *image.NRGBA, x0, y0, x1, y1 int, col color.NRGBA) {
	dx := abs(x1 - x0)
	dy := -abs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		setClamped(img, x0, y0, col)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func drawText(img *image.NRGBA, text string, cx, cy int, col color.NRGBA) {
	face := basicfont.Face7x13
	w := font.MeasureString(face, text).Round()
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(col),
		Face: face,
		Dot:  fixed.P(cx-w/2, cy+face.Metrics().Ascent.Round()/2),
	}
	d.DrawString(text)
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
