/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"archive/zip"
	"context"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"canvasstudio/internal/domain"
	"canvasstudio/internal/editor"
	"canvasstudio/internal/scene"
)

func redLoader(src string) (image.Image, error) {
	img := image.NewNRGBA(image.Rect(0, 0, 100, 80))
	for y := 0; y < 80; y++ {
		for x := 0; x < 100; x++ {
			img.SetNRGBA(x, y, color.NRGBA{255, 0, 0, 255})
		}
	}
	return img, nil
}

func decodePNGFile(t *testing.T, path string) image.Image {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open %s: %v", path, err)
	}
	defer f.Close()
	m, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode %s: %v", path, err)
	}
	return m
}

func TestExportScaleCorrectness(t *testing.T) {
	// The scene works at half resolution; the output must still be exactly
	// pageW*scale x pageH*scale.
	sc := scene.NewSoftscene(scene.WithWorkingScale(0.5))
	proj := domain.NewProject("Scale", 100, 50, 72)
	out := filepath.Join(t.TempDir(), "out.png")

	p := New(sc, nil)
	err := p.Run(context.Background(), proj, Options{
		Format: FormatPNG, Scale: 2, Selection: SelectAll, OutPath: out,
	})
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	m := decodePNGFile(t, out)
	if got := m.Bounds().Size(); got.X != 200 || got.Y != 100 {
		t.Fatalf("output size %v, want 200x100", got)
	}
}

func TestHiddenPageExcludedFromAllSelections(t *testing.T) {
	sc := scene.NewSoftscene()
	proj := domain.NewProject("Hidden", 80, 60, 72)
	hidden := domain.NewPage("Secret", 80, 60, 72)
	hidden.Hidden = true
	proj.Pages = append(proj.Pages, hidden)

	p := New(sc, nil)

	// Explicitly requesting the hidden page yields nothing.
	err := p.Run(context.Background(), proj, Options{
		Format: FormatPNG, Selection: SelectCustom, PageIDs: []string{hidden.ID},
		OutPath: filepath.Join(t.TempDir(), "x.png"),
	})
	if err != ErrNoPages {
		t.Fatalf("custom selection of hidden page: err = %v, want ErrNoPages", err)
	}

	// All-pages archive contains only the visible page.
	out := filepath.Join(t.TempDir(), "all.zip")
	if err := p.Run(context.Background(), proj, Options{
		Format: FormatArchive, Selection: SelectAll, OutPath: out,
	}); err != nil {
		t.Fatalf("archive run: %v", err)
	}
	zr, err := zip.OpenReader(out)
	if err != nil {
		t.Fatalf("open archive: %v", err)
	}
	defer zr.Close()
	if len(zr.File) != 1 {
		t.Fatalf("archive has %d files, want 1", len(zr.File))
	}
}

func TestBackgroundPromoteDemoteRoundTrip(t *testing.T) {
	sc := scene.NewSoftscene(scene.WithAssetLoader(redLoader))
	proj := domain.NewProject("Hello Scene", 1920, 1080, 96)
	store := editor.New(proj, sc)

	textID := store.AddElement(domain.Element{
		Type:      domain.KindText,
		Transform: domain.Transform{X: 960, Y: 540, Width: 120, Height: 48},
		Style:     domain.Style{Fill: "#000000"},
		Text:      &domain.TextPayload{Content: "Hi", Style: domain.TextStyle{FontSize: 32}},
	})
	imgID := store.AddElement(domain.Element{
		Type:      domain.KindImage,
		Transform: domain.Transform{X: 300, Y: 300, Width: 100, Height: 80},
		Image:     &domain.ImagePayload{Src: "mem://red"},
	})
	if textID == "" || imgID == "" {
		t.Fatal("element creation failed")
	}
	before := store.ActivePage().ElementByID(imgID).Transform

	store.SetAsBackground(imgID)
	out := filepath.Join(t.TempDir(), "bg.png")
	p := New(sc, nil)
	if err := p.Run(context.Background(), proj, Options{
		Format: FormatPNG, Scale: 1, Selection: SelectAll, OutPath: out,
	}); err != nil {
		t.Fatalf("export with background image: %v", err)
	}
	m := decodePNGFile(t, out)
	if got := m.Bounds().Size(); got.X != 1920 || got.Y != 1080 {
		t.Fatalf("output size %v, want 1920x1080", got)
	}
	// The promoted image covers the frame; a corner pixel is the image, not
	// the white page fill.
	r, g, b, _ := m.At(10, 10).RGBA()
	if r>>8 < 200 || g>>8 > 50 || b>>8 > 50 {
		t.Fatalf("corner pixel = %d,%d,%d, want red background image", r>>8, g>>8, b>>8)
	}

	store.RemoveFromBackground(imgID)
	after := store.ActivePage().ElementByID(imgID).Transform
	if after != before {
		t.Fatalf("transform after demote = %+v, want exact restore of %+v", after, before)
	}

	out2 := filepath.Join(t.TempDir(), "fg.png")
	if err := p.Run(context.Background(), proj, Options{
		Format: FormatPNG, Scale: 1, Selection: SelectAll, OutPath: out2,
	}); err != nil {
		t.Fatalf("re-export: %v", err)
	}
	m2 := decodePNGFile(t, out2)
	r2, g2, b2, _ := m2.At(10, 10).RGBA()
	if r2>>8 < 200 || g2>>8 < 200 || b2>>8 < 200 {
		t.Fatalf("corner pixel after demote = %d,%d,%d, want white page fill", r2>>8, g2>>8, b2>>8)
	}
}

func TestExportAppliesFiltersInsideGroups(t *testing.T) {
	sc := scene.NewSoftscene(scene.WithAssetLoader(redLoader))
	proj := domain.NewProject("Grouped", 200, 200, 72)
	store := editor.New(proj, sc)

	child := domain.Element{
		ID:        "img",
		Type:      domain.KindImage,
		Image:     &domain.ImagePayload{Src: "mem://red", Filters: domain.Filters{Grayscale: 1}},
		Transform: domain.Transform{X: 0, Y: 0, Width: 80, Height: 80, ScaleX: 1, ScaleY: 1},
		Style:     domain.Style{Opacity: 1},
		Visible:   true,
	}
	store.AddElement(domain.Element{
		Type:      domain.KindGroup,
		Group:     &domain.GroupPayload{Children: []domain.Element{child}},
		Transform: domain.Transform{X: 100, Y: 100, Width: 80, Height: 80},
	})

	out := filepath.Join(t.TempDir(), "grouped.png")
	p := New(sc, nil)
	if err := p.Run(context.Background(), proj, Options{
		Format: FormatPNG, Scale: 1, Selection: SelectAll, OutPath: out,
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	m := decodePNGFile(t, out)
	r, g, b, _ := m.At(100, 100).RGBA()
	if r != g || g != b {
		t.Fatalf("grouped image exported unfiltered: %d,%d,%d", r>>8, g>>8, b>>8)
	}
	if r>>8 > 200 {
		t.Fatalf("pixel %d,%d,%d is the white page fill, image not painted", r>>8, g>>8, b>>8)
	}
}

func TestImageBackgroundHonorsOpacity(t *testing.T) {
	// A real asset file: paintBackground loads through the imaging package.
	src := filepath.Join(t.TempDir(), "red.png")
	red := image.NewNRGBA(image.Rect(0, 0, 10, 10))
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			red.SetNRGBA(x, y, color.NRGBA{255, 0, 0, 255})
		}
	}
	f, err := os.Create(src)
	if err != nil {
		t.Fatalf("create asset: %v", err)
	}
	if err := png.Encode(f, red); err != nil {
		t.Fatalf("encode asset: %v", err)
	}
	f.Close()

	surface := image.NewNRGBA(image.Rect(0, 0, 20, 20))
	paintBackground(surface, domain.Background{
		Kind:  domain.BackgroundImage,
		Image: &domain.ImageFill{Src: src, Opacity: 0.5},
	})
	c := surface.NRGBAAt(10, 10)
	// half-opacity red over the white underlay
	if c.R < 250 || c.G < 100 || c.G > 160 || c.B < 100 || c.B > 160 {
		t.Fatalf("blended pixel = %+v, want half red over white", c)
	}

	// an unset opacity paints the image fully opaque
	paintBackground(surface, domain.Background{
		Kind:  domain.BackgroundImage,
		Image: &domain.ImageFill{Src: src},
	})
	c = surface.NRGBAAt(10, 10)
	if c.R < 250 || c.G > 5 || c.B > 5 {
		t.Fatalf("opaque pixel = %+v, want pure red", c)
	}
}

func TestStructuredExportResyncsTextFromScene(t *testing.T) {
	sc := scene.NewSoftscene()
	proj := domain.NewProject("Structured", 400, 300, 72)
	store := editor.New(proj, sc)
	id := store.AddElement(domain.Element{
		Type:      domain.KindText,
		Transform: domain.Transform{X: 50, Y: 50, Width: 100, Height: 40},
		Text:      &domain.TextPayload{Content: "draft", Style: domain.TextStyle{FontSize: 14}},
	})

	// Simulate an in-scene edit not yet flushed to the document model.
	obj, ok := sc.ObjectByID(id)
	if !ok {
		t.Fatal("scene handle missing")
	}
	live := obj.Element()
	live.Text.Content = "final"
	live.Transform.X = 75
	obj.SetElement(live)

	out := filepath.Join(t.TempDir(), "doc.json")
	p := New(sc, nil)
	if err := p.Run(context.Background(), proj, Options{
		Format: FormatJSON, Selection: SelectAll, OutPath: out,
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	var doc StructuredDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if doc.ExportVersion != StructuredVersion {
		t.Fatalf("exportVersion = %d", doc.ExportVersion)
	}
	if len(doc.Pages) != 1 || len(doc.Pages[0].Elements) != 1 {
		t.Fatalf("unexpected shape: %d pages", len(doc.Pages))
	}
	el := doc.Pages[0].Elements[0]
	if el.Text == nil || el.Text.Content != "final" {
		t.Fatalf("text content not resynced from scene: %+v", el.Text)
	}
	if el.Transform.X != 75 {
		t.Fatalf("transform not resynced: X = %v", el.Transform.X)
	}
	// The document model itself stays untouched.
	if got := proj.ActivePage().ElementByID(id).Text.Content; got != "draft" {
		t.Fatalf("document mutated by structured export: %q", got)
	}
}

func TestRunReportsPhasesAndRestoresActivePage(t *testing.T) {
	sc := scene.NewSoftscene()
	proj := domain.NewProject("Phases", 100, 100, 72)
	second := domain.NewPage("Page 2", 100, 100, 72)
	proj.Pages = append(proj.Pages, second)

	p := New(sc, nil)
	out := filepath.Join(t.TempDir(), "multi.zip")
	if err := p.Run(context.Background(), proj, Options{
		Format: FormatArchive, Selection: SelectAll, OutPath: out,
	}); err != nil {
		t.Fatalf("Run: %v", err)
	}

	var phases []Phase
	for {
		select {
		case pr := <-p.Progress():
			phases = append(phases, pr.Phase)
			continue
		default:
		}
		break
	}
	want := map[Phase]bool{PhasePreparing: false, PhaseRendering: false, PhaseProcessing: false, PhaseComplete: false}
	for _, ph := range phases {
		want[ph] = true
	}
	for ph, seen := range want {
		if !seen {
			t.Fatalf("phase %q never reported (got %v)", ph, phases)
		}
	}
	if phases[len(phases)-1] != PhaseComplete {
		t.Fatalf("terminal phase = %q", phases[len(phases)-1])
	}

	// The scene must hold the pre-export active page again.
	if got := len(sc.PaintOrder()); got != 0 {
		t.Fatalf("restored page should be empty, scene has %d objects", got)
	}
}

func TestRunUnknownFormatReportsError(t *testing.T) {
	sc := scene.NewSoftscene()
	proj := domain.NewProject("Bad", 100, 100, 72)
	p := New(sc, nil)
	err := p.Run(context.Background(), proj, Options{
		Format: Format("tiff"), Selection: SelectAll,
		OutPath: filepath.Join(t.TempDir(), "x.tiff"),
	})
	if err == nil {
		t.Fatal("expected error for unknown format")
	}
	var last Progress
	for {
		select {
		case pr := <-p.Progress():
			last = pr
			continue
		default:
		}
		break
	}
	if last.Phase != PhaseError {
		t.Fatalf("terminal phase = %q, want error", last.Phase)
	}
}

func TestNilSceneIsFatal(t *testing.T) {
	p := New(nil, nil)
	proj := domain.NewProject("NoScene", 10, 10, 72)
	if err := p.Run(context.Background(), proj, Options{Format: FormatPNG}); err != ErrNoScene {
		t.Fatalf("err = %v, want ErrNoScene", err)
	}
}

func TestWritePDFProducesDocument(t *testing.T) {
	img1 := image.NewNRGBA(image.Rect(0, 0, 40, 20))
	out := filepath.Join(t.TempDir(), "doc.pdf")
	err := writePDF(out, []PageRaster{
		{Name: "a", Img: img1, WidthPt: 40, HeightPt: 20},
		{Name: "b", Img: img1, WidthPt: 40, HeightPt: 20},
	})
	if err != nil {
		t.Fatalf("writePDF: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read pdf: %v", err)
	}
	if len(data) < 8 || string(data[:5]) != "%PDF-" {
		t.Fatalf("output is not a PDF (%d bytes)", len(data))
	}
}
