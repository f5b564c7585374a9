/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"path/filepath"
	"testing"
)

func TestPresetOptions(t *testing.T) {
	cases := []struct {
		preset PresetName
		format Format
		scale  float64
	}{
		{PresetWeb, FormatPNG, 1},
		{PresetPrint, FormatPDF, 3},
		{PresetSocial, FormatJPEG, 2},
	}
	for _, c := range cases {
		opts, err := PresetOptions(c.preset)
		if err != nil {
			t.Fatalf("PresetOptions(%q): %v", c.preset, err)
		}
		if opts.Format != c.format || opts.Scale != c.scale {
			t.Fatalf("preset %q = %q scale %v, want %q scale %v", c.preset, opts.Format, opts.Scale, c.format, c.scale)
		}
		if opts.Selection != SelectAll {
			t.Fatalf("preset %q selection = %q, want all", c.preset, opts.Selection)
		}
		if opts.OutPath != "" {
			t.Fatalf("preset %q should leave OutPath empty, got %q", c.preset, opts.OutPath)
		}
	}
	if opts, _ := PresetOptions(PresetSocial); opts.Quality != 85 {
		t.Fatalf("social quality = %d, want 85", opts.Quality)
	}
	if _, err := PresetOptions("poster"); err == nil {
		t.Fatal("expected error for unknown preset")
	}
}

func TestResolveOutPath(t *testing.T) {
	root := string(filepath.Separator) + filepath.Join("tmp", "proj")

	got := ResolveOutPath(root, "My Design", "", FormatPNG)
	want := filepath.Join(root, "exports", "My-Design.png")
	if got != want {
		t.Fatalf("ResolveOutPath = %q, want %q", got, want)
	}

	got = ResolveOutPath(root, "My Design", "cover", FormatPDF)
	if want := filepath.Join(root, "exports", "cover.pdf"); got != want {
		t.Fatalf("extensionless path = %q, want %q", got, want)
	}

	abs := string(filepath.Separator) + filepath.Join("out", "final.png")
	if got := ResolveOutPath(root, "x", abs, FormatPNG); got != abs {
		t.Fatalf("absolute path rewritten to %q", got)
	}
}

func TestBaseName(t *testing.T) {
	cases := []struct{ in, want string }{
		{"My Design!", "My-Design"},
		{"  spaced  out  ", "spaced-out"},
		{"", "design"},
		{"---", "design"},
		{"c2f7ab0e-9a47-4a41-b6bb-0a4a4f0ce51a", "design"},
	}
	for _, c := range cases {
		if got := BaseName(c.in); got != c.want {
			t.Fatalf("BaseName(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
