/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"canvasstudio/internal/domain"
)

func TestOpenFallsBackToBackupOnCorruptDocument(t *testing.T) {
	root := t.TempDir()
	ph, err := InitProject(root, *domain.NewProject("Corrupt", 800, 600, 72))
	if err != nil {
		t.Fatalf("InitProject: %v", err)
	}
	// Second save produces a backup of the first version.
	ph.Project.Name = "Corrupt v2"
	time.Sleep(1100 * time.Millisecond) // distinct backup timestamp (second resolution)
	if err := Save(ph); err != nil {
		t.Fatalf("Save: %v", err)
	}
	// Truncate the live document mid-write style.
	if err := os.WriteFile(ph.DocumentPath, []byte(`{"version":1,"project":{"id":"x","pa`), 0o644); err != nil {
		t.Fatalf("corrupt document: %v", err)
	}
	got, err := Open(root)
	if err != nil {
		t.Fatalf("Open with backup present: %v", err)
	}
	if got.Project.Name != "Corrupt" {
		t.Fatalf("recovered name %q, want the backed-up %q", got.Project.Name, "Corrupt")
	}
}

func TestOpenCorruptWithoutBackupFails(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(root, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, DocumentFileName), []byte("not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Open(root); err == nil {
		t.Fatal("expected error for corrupt document with no backup")
	}
}

func TestValidateEnvelopeRejectsMissingFields(t *testing.T) {
	cases := []struct {
		name string
		doc  string
	}{
		{"no version", `{"project":{"id":"p","pages":[{"id":"a","width":800,"height":600}]}}`},
		{"no pages", `{"version":1,"project":{"id":"p"}}`},
		{"empty pages", `{"version":1,"project":{"id":"p","pages":[]}}`},
		{"zero page size", `{"version":1,"project":{"id":"p","pages":[{"id":"a","width":0,"height":600}]}}`},
		{"element without type", `{"version":1,"project":{"id":"p","pages":[{"id":"a","width":800,"height":600,"elements":[{"id":"e"}]}]}}`},
	}
	for _, tc := range cases {
		if err := ValidateEnvelope([]byte(tc.doc)); err == nil {
			t.Fatalf("%s: expected schema violation", tc.name)
		}
	}
}

func TestValidateEnvelopeAcceptsMinimalDocument(t *testing.T) {
	doc := `{"version":1,"project":{"id":"p","pages":[{"id":"a","width":800,"height":600,"elements":[]}]}}`
	if err := ValidateEnvelope([]byte(doc)); err != nil {
		t.Fatalf("minimal document rejected: %v", err)
	}
}
