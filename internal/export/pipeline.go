/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

// Package export renders document pages into raster, paged-document, archive
// and structured-data outputs. The pipeline drives the scene offline: it loads
// each page from the document model rather than trusting whatever the live
// editing session left behind, so an export of a historical state is
// reproducible pixel for pixel.
package export

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"

	"canvasstudio/internal/domain"
	"canvasstudio/internal/fontsvc"
	img "canvasstudio/internal/imaging"
	applog "canvasstudio/internal/log"
	"canvasstudio/internal/scene"
)

// Format selects the output container.
type Format string

const (
	FormatPNG     Format = "png"
	FormatJPEG    Format = "jpeg"
	FormatPDF     Format = "pdf"
	FormatArchive Format = "archive" // zip of per-page PNG files
	FormatJSON    Format = "json"    // structured document dump, no rasterization
)

// PageSelection chooses which pages of the project to export.
type PageSelection string

const (
	SelectAll     PageSelection = "all"
	SelectCurrent PageSelection = "current"
	SelectCustom  PageSelection = "custom"
)

// Phase is a discrete progress stage reported on the progress channel.
type Phase string

const (
	PhasePreparing  Phase = "preparing"
	PhaseRendering  Phase = "rendering"
	PhaseProcessing Phase = "processing"
	PhaseComplete   Phase = "complete"
	PhaseError      Phase = "error"
)

// Progress is one status update from a running export job.
type Progress struct {
	Phase   Phase
	Message string
	Page    int // 1-based page being rendered, 0 outside rendering
	Total   int
}

// Options controls one export job.
type Options struct {
	Format      Format
	Scale       float64 // output pixels per logical page pixel; default 1
	Transparent bool    // skip background; PNG only
	Quality     int     // JPEG quality 1..100; default 90
	Selection   PageSelection
	PageIDs     []string // used when Selection is SelectCustom
	OutPath     string
}

// assetSettleTimeout bounds stage 4; a slow asset degrades the output rather
// than hanging the job.
const assetSettleTimeout = 5 * time.Second

var (
	// ErrNoScene means the pipeline was run without an initialized scene.
	ErrNoScene = errors.New("export: scene is not initialized")
	// ErrNoPages means the selection resolved to zero exportable pages.
	ErrNoPages = errors.New("export: no pages to export")
)

// Pipeline renders pages through a Scene. One Pipeline runs one job at a
// time; the live editor must not navigate pages while a job is running, since
// both drive the same scene.
type Pipeline struct {
	log      *slog.Logger
	sc       scene.Scene
	fonts    *fontsvc.Service
	progress chan Progress
}

// New builds a pipeline over the given scene and font service.
func New(sc scene.Scene, fonts *fontsvc.Service) *Pipeline {
	return &Pipeline{
		log:      applog.WithComponent("export"),
		sc:       sc,
		fonts:    fonts,
		progress: make(chan Progress, 16),
	}
}

// Progress returns the channel of status updates for the current job.
// Updates are dropped, not blocked on, if the receiver falls behind.
func (p *Pipeline) Progress() <-chan Progress {
	return p.progress
}

func (p *Pipeline) emit(pr Progress) {
	select {
	case p.progress <- pr:
	default:
	}
}

// Run executes one export job. The page list is captured at job start; the
// live document changing mid-job does not affect the output. On return,
// success or failure, the scene has been restored to the page that was active
// before the job began.
func (p *Pipeline) Run(ctx context.Context, proj *domain.Project, opts Options) (err error) {
	if p.sc == nil {
		return ErrNoScene
	}
	if opts.Scale <= 0 {
		opts.Scale = 1
	}
	if opts.Quality <= 0 || opts.Quality > 100 {
		opts.Quality = 90
	}

	pages := p.selectPages(proj, opts)
	if len(pages) == 0 {
		return ErrNoPages
	}

	preExportPageID := proj.ActivePageID
	start := time.Now()
	defer func() {
		if pg := proj.PageByID(preExportPageID); pg != nil {
			if rerr := p.sc.LoadPage(context.WithoutCancel(ctx), *pg); rerr != nil {
				p.log.Error("restore pre-export page failed", slog.Any("err", rerr))
			}
		}
		if err != nil {
			p.emit(Progress{Phase: PhaseError, Message: err.Error()})
			p.log.Error("export failed", slog.Any("err", err), slog.String("format", string(opts.Format)))
		} else {
			p.emit(Progress{Phase: PhaseComplete, Message: opts.OutPath})
			p.log.Info("export complete",
				slog.String("format", string(opts.Format)),
				slog.Int("pages", len(pages)),
				slog.Duration("took", time.Since(start)))
		}
	}()

	p.emit(Progress{Phase: PhasePreparing, Total: len(pages)})

	// Structured export bypasses rasterization entirely.
	if opts.Format == FormatJSON {
		p.emit(Progress{Phase: PhaseProcessing, Total: len(pages)})
		return writeStructured(opts.OutPath, proj, pages, p.sc)
	}

	// Stage 1: every distinct family/weight pair must be ready before any
	// capture; partially loaded fonts produce wrong glyph metrics.
	if p.fonts != nil {
		if ferr := p.fonts.EnsureReady(ctx, refsForPages(pages)); ferr != nil {
			return ferr
		}
	}

	rasters := make([]PageRaster, 0, len(pages))
	for i, pg := range pages {
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		p.emit(Progress{Phase: PhaseRendering, Page: i + 1, Total: len(pages), Message: pg.Name})

		capture, rerr := p.renderPage(ctx, pg, opts)
		if rerr != nil {
			return fmt.Errorf("render page %q: %w", pg.Name, rerr)
		}
		rasters = append(rasters, PageRaster{
			Name:     pg.Name,
			Img:      capture,
			WidthPt:  pg.Width * opts.Scale,
			HeightPt: pg.Height * opts.Scale,
		})
	}

	p.emit(Progress{Phase: PhaseProcessing, Total: len(pages)})
	return p.assemble(rasters, opts)
}

// renderPage runs stages 2 through 6 for one page and returns the composed
// output surface.
func (p *Pipeline) renderPage(ctx context.Context, pg domain.Page, opts Options) (image.Image, error) {
	// Stage 2: full rebuild from the serialized element list.
	if err := p.sc.LoadPage(ctx, pg); err != nil {
		return nil, fmt.Errorf("load page: %w", err)
	}

	// Stage 3: re-derive filtered bitmaps from the original source. The live
	// scene may hold a cached preview that does not match the authoritative
	// filter parameters.
	p.reapplyFilters(pg)

	// Stage 4: bounded wait for image bitmaps; proceed past the timeout.
	p.waitAssets(ctx, pg)

	// Stage 5: output surface at the requested logical scale.
	outW := int(math.Round(pg.Width * opts.Scale))
	outH := int(math.Round(pg.Height * opts.Scale))
	if outW <= 0 || outH <= 0 {
		return nil, fmt.Errorf("page %q has no output area", pg.Name)
	}
	surface := image.NewNRGBA(image.Rect(0, 0, outW, outH))
	transparent := opts.Transparent && opts.Format == FormatPNG
	if !transparent {
		paintBackground(surface, pg.Background)
	}

	// Stage 6: strip the scene background so it cannot leak into the capture
	// (it was painted above at output resolution), then rasterize at a
	// multiplier correcting for the scene's internal working resolution.
	p.sc.SetBackground(domain.Background{})
	multiplier := opts.Scale / p.sc.WorkingScale()
	capture, err := p.sc.Rasterize(scene.RasterOptions{Multiplier: multiplier})
	p.sc.SetBackground(pg.Background)
	if err != nil {
		return nil, fmt.Errorf("rasterize: %w", err)
	}
	composeCapture(surface, capture)
	return surface, nil
}

// reapplyFilters rebuilds every non-identity-filtered image object from its
// unfiltered source and splices the new handle into the scene in place.
func (p *Pipeline) reapplyFilters(pg domain.Page) {
	for i := range pg.Elements {
		el := &pg.Elements[i]
		if el.Type != domain.KindImage || el.Image == nil {
			continue
		}
		if el.Image.Filters.IsIdentity() && el.Image.Crop == nil {
			continue
		}
		src := el.Image.OriginalSrc
		if src == "" {
			src = el.Image.Src
		}
		bitmap, err := img.Load(src)
		if err != nil {
			// Resource-load failure: keep whatever the scene already shows.
			p.log.Warn("filter source load failed, skipping adjustment",
				slog.String("element", el.ID), slog.Any("err", err))
			continue
		}
		bitmap = img.Apply(bitmap, el.Image.Filters)
		if el.Image.Crop != nil {
			bitmap = img.Crop(bitmap, *el.Image.Crop)
		}
		if _, ok := p.sc.ObjectByID(el.ID); !ok {
			continue
		}
		p.sc.SetObjectByID(el.ID, scene.NewImageObject(*el, bitmap))
	}
}

// waitAssets polls image objects until every backing bitmap reports loaded or
// the settle timeout elapses.
func (p *Pipeline) waitAssets(ctx context.Context, pg domain.Page) {
	deadline := time.Now().Add(assetSettleTimeout)
	for {
		pending := 0
		for i := range pg.Elements {
			el := &pg.Elements[i]
			if el.Type != domain.KindImage {
				continue
			}
			if obj, ok := p.sc.ObjectByID(el.ID); ok && !obj.Loaded() {
				pending++
			}
		}
		if pending == 0 {
			return
		}
		if time.Now().After(deadline) {
			p.log.Warn("asset settle timeout, proceeding", slog.Int("pending", pending))
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(25 * time.Millisecond):
		}
	}
}

// assemble runs stage 7: single page to a single file, multiple pages to a
// paged document or archive depending on the format.
func (p *Pipeline) assemble(rasters []PageRaster, opts Options) error {
	switch opts.Format {
	case FormatPDF:
		return writePDF(opts.OutPath, rasters)
	case FormatArchive:
		return writeArchive(opts.OutPath, rasters)
	case FormatPNG, FormatJPEG:
		if len(rasters) == 1 {
			return writeRasterFile(opts.OutPath, rasters[0].Img, opts.Format, opts.Quality)
		}
		return writeArchive(opts.OutPath, rasters)
	default:
		return fmt.Errorf("unknown export format %q", opts.Format)
	}
}

// selectPages resolves the page selection against the project, always
// excluding hidden pages.
func (p *Pipeline) selectPages(proj *domain.Project, opts Options) []domain.Page {
	var out []domain.Page
	include := func(pg *domain.Page) bool {
		if pg.Hidden {
			return false
		}
		switch opts.Selection {
		case SelectCurrent:
			return pg.ID == proj.ActivePageID
		case SelectCustom:
			for _, id := range opts.PageIDs {
				if id == pg.ID {
					return true
				}
			}
			return false
		default:
			return true
		}
	}
	for i := range proj.Pages {
		if include(&proj.Pages[i]) {
			out = append(out, proj.Pages[i].Clone())
		}
	}
	return out
}

// refsForPages collects distinct font family/weight pairs across the selected
// pages only.
func refsForPages(pages []domain.Page) []fontsvc.Ref {
	tmp := domain.Project{Pages: pages}
	return fontsvc.RefsFromProject(&tmp)
}
