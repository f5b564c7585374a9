/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package fontsvc resolves and loads fonts for rendering and export. Export
// blocks on readiness of every distinct family/weight pair before capture;
// partially loaded fonts produce visibly wrong glyph metrics in the output.
package fontsvc

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/opentype"

	applog "canvasstudio/internal/log"
)

// Ref names one family/weight pairing used by a text element.
type Ref struct {
	Family string
	Weight int
}

// Variant registers a source file for one weight/italic variant of a family.
type Variant struct {
	Weight int
	Italic bool
	Path   string
}

type fontKey struct {
	family string
	weight int
}

// Service is an in-memory font registry with explicit load-on-demand.
// Registered variants are parsed lazily on first load; readiness is per
// family/weight pair. Safe for concurrent use.
type Service struct {
	log *slog.Logger

	mu         sync.Mutex
	registered map[fontKey]string // path, not yet parsed
	loaded     map[fontKey]*opentype.Font

	// settle is a short delay after readiness to absorb asynchronous
	// re-layout in the rendering environment.
	settle time.Duration
}

// New builds an empty service with the given settle delay.
func New(settle time.Duration) *Service {
	return &Service{
		log:        applog.WithComponent("fontsvc"),
		registered: make(map[fontKey]string),
		loaded:     make(map[fontKey]*opentype.Font),
		settle:     settle,
	}
}

// Register makes a font file available under family/weight without parsing it.
func (s *Service) Register(family string, weight int, path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.registered[fontKey{family, weight}] = path
}

// IsFontReady reports whether the exact family/weight pair is parsed and
// usable.
func (s *Service) IsFontReady(family string, weight int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.loaded[fontKey{family, weight}]
	return ok
}

// LoadFont parses the registered source files for the given variants of a
// family. Unregistered variants fail; already-loaded variants are no-ops.
func (s *Service) LoadFont(ctx context.Context, family string, variants []Variant) error {
	for _, v := range variants {
		if err := ctx.Err(); err != nil {
			return err
		}
		key := fontKey{family, v.Weight}
		s.mu.Lock()
		_, done := s.loaded[key]
		path, ok := s.registered[key]
		s.mu.Unlock()
		if done {
			continue
		}
		if !ok {
			return fmt.Errorf("font %s weight %d is not registered", family, v.Weight)
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read font %s: %w", path, err)
		}
		f, err := opentype.Parse(data)
		if err != nil {
			return fmt.Errorf("parse font %s: %w", path, err)
		}
		s.mu.Lock()
		s.loaded[key] = f
		s.mu.Unlock()
	}
	return nil
}

// AllFontsReady loads every registered variant that is not yet parsed.
func (s *Service) AllFontsReady(ctx context.Context) error {
	s.mu.Lock()
	pending := make(map[string][]Variant)
	for key, path := range s.registered {
		if _, ok := s.loaded[key]; !ok {
			pending[key.family] = append(pending[key.family], Variant{Weight: key.weight, Path: path})
		}
	}
	s.mu.Unlock()
	for family, variants := range pending {
		if err := s.LoadFont(ctx, family, variants); err != nil {
			return err
		}
	}
	return nil
}

// EnsureReady loads every ref not already ready, waits until each reports
// ready, then sleeps the settle delay once. Refs with no registered source
// are logged and skipped; the renderer falls back to a default face rather
// than failing the export.
func (s *Service) EnsureReady(ctx context.Context, refs []Ref) error {
	loadedAny := false
	for _, r := range refs {
		if s.IsFontReady(r.Family, r.Weight) {
			continue
		}
		s.mu.Lock()
		_, registered := s.registered[fontKey{r.Family, r.Weight}]
		s.mu.Unlock()
		if !registered {
			s.log.Warn("font not registered, using fallback",
				slog.String("family", r.Family), slog.Int("weight", r.Weight))
			continue
		}
		if err := s.LoadFont(ctx, r.Family, []Variant{{Weight: r.Weight}}); err != nil {
			return fmt.Errorf("ensure font %s/%d: %w", r.Family, r.Weight, err)
		}
		loadedAny = true
	}
	if loadedAny && s.settle > 0 {
		select {
		case <-time.After(s.settle):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return nil
}

// Face resolves a concrete drawing face at the given point size, falling back
// to any loaded weight of the family.
func (s *Service) Face(family string, weight int, sizePt float64) (font.Face, error) {
	if sizePt <= 0 {
		sizePt = 12
	}
	s.mu.Lock()
	f, ok := s.loaded[fontKey{family, weight}]
	if !ok {
		for key, lf := range s.loaded {
			if key.family == family {
				f, ok = lf, true
				break
			}
		}
	}
	s.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("no loaded font for family %s", family)
	}
	return opentype.NewFace(f, &opentype.FaceOptions{Size: sizePt, DPI: 72, Hinting: font.HintingFull})
}
