/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package assetpack

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"
)

func TestExportAndInstallPack(t *testing.T) {
	projDir := t.TempDir()
	assetsDir := filepath.Join(projDir, "assets")
	if err := os.MkdirAll(assetsDir, 0o755); err != nil {
		t.Fatalf("mkdir assets: %v", err)
	}
	if err := os.WriteFile(filepath.Join(assetsDir, "logo.png"), []byte("png-bytes"), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}
	sub := filepath.Join(assetsDir, "fonts")
	if err := os.MkdirAll(sub, 0o755); err != nil {
		t.Fatalf("mkdir fonts: %v", err)
	}
	if err := os.WriteFile(filepath.Join(sub, "inter.ttf"), []byte("ttf"), 0o644); err != nil {
		t.Fatalf("write font: %v", err)
	}

	zipPath := filepath.Join(projDir, "out.zip")
	if err := ExportProjectAssets(projDir, zipPath); err != nil {
		t.Fatalf("export pack: %v", err)
	}
	st, err := os.Stat(zipPath)
	if err != nil || st.Size() == 0 {
		t.Fatalf("zip not created or empty: %v", err)
	}

	proj2 := t.TempDir()
	installed, err := InstallPack(proj2, zipPath)
	if err != nil {
		t.Fatalf("install pack: %v", err)
	}
	if installed != 2 {
		t.Fatalf("expected 2 installed, got %d", installed)
	}
	if _, err := os.Stat(filepath.Join(proj2, "assets", "logo.png")); err != nil {
		t.Fatalf("expected logo.png installed: %v", err)
	}
	if _, err := os.Stat(filepath.Join(proj2, "assets", "fonts", "inter.ttf")); err != nil {
		t.Fatalf("expected font installed: %v", err)
	}
}

func TestExportProjectAssets_ErrorArgsAndEmptyDir(t *testing.T) {
	if err := ExportProjectAssets("", ""); err == nil {
		t.Fatalf("expected error on empty args")
	}
	proj := t.TempDir()
	zipPath := filepath.Join(proj, "only_manifest.zip")
	// assets dir does not exist; export should create it and still produce a
	// zip holding the manifest
	if err := ExportProjectAssets(proj, zipPath); err != nil {
		t.Fatalf("export empty assets: %v", err)
	}
	r, err := zip.OpenReader(zipPath)
	if err != nil {
		t.Fatalf("open zip: %v", err)
	}
	defer r.Close()
	found := false
	for _, f := range r.File {
		if f.Name == ManifestName {
			found = true
			break
		}
	}
	if !found {
		t.Fatalf("manifest not found in zip")
	}
}

func TestInstallPack_ZipSlipAndSkipExisting(t *testing.T) {
	proj := t.TempDir()
	zpath := filepath.Join(proj, "pack.zip")
	f, err := os.Create(zpath)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	zw := zip.NewWriter(f)
	w, err := zw.Create("../evil.txt")
	if err != nil {
		t.Fatalf("create malicious zip entry: %v", err)
	}
	if _, err := w.Write([]byte("nope")); err != nil {
		t.Fatalf("write malicious entry: %v", err)
	}
	w2, err := zw.Create("assets/good.txt")
	if err != nil {
		t.Fatalf("create good zip entry: %v", err)
	}
	if _, err := w2.Write([]byte("ok")); err != nil {
		t.Fatalf("write good entry: %v", err)
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close zip file: %v", err)
	}

	// Pre-create the good file so install skips it
	target := filepath.Join(proj, "assets", "good.txt")
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		t.Fatalf("mkdir assets dir: %v", err)
	}
	if err := os.WriteFile(target, []byte("existing"), 0o644); err != nil {
		t.Fatalf("precreate file: %v", err)
	}

	installed, err := InstallPack(proj, zpath)
	if err != nil {
		t.Fatalf("install pack: %v", err)
	}
	if installed != 0 {
		t.Fatalf("expected 0 installed due to skip+escape, got %d", installed)
	}
	if _, err := os.Stat(filepath.Join(proj, "evil.txt")); err == nil {
		t.Fatalf("evil.txt should not exist")
	}
	if _, err := os.Stat(filepath.Join(filepath.Dir(proj), "evil.txt")); err == nil {
		t.Fatalf("evil.txt escaped the project root")
	}
}

func TestInstallPack_PrefixesLooseEntriesAndSkipsDirEntries(t *testing.T) {
	proj := t.TempDir()
	zpath := filepath.Join(proj, "pack2.zip")
	f, err := os.Create(zpath)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	zw := zip.NewWriter(f)

	dh := &zip.FileHeader{Name: "assets/subdir/"}
	dh.SetMode(os.ModeDir | 0o755)
	if _, err := zw.CreateHeader(dh); err != nil {
		t.Fatalf("create dir header: %v", err)
	}

	// Loose entry gets placed under assets/ by the installer
	w, _ := zw.Create("top/inner.txt")
	_, _ = w.Write([]byte("content"))

	_ = zw.Close()
	_ = f.Close()

	installed, err := InstallPack(proj, zpath)
	if err != nil {
		t.Fatalf("install pack: %v", err)
	}
	if installed != 1 {
		t.Fatalf("expected installed=1, got %d", installed)
	}
	if _, err := os.Stat(filepath.Join(proj, "assets", "top", "inner.txt")); err != nil {
		t.Fatalf("expected installed file under assets/top: %v", err)
	}
}
