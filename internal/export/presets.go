/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"fmt"
	"path/filepath"
	"strings"
)

// PresetName represents a named export preset.
type PresetName string

const (
	PresetWeb    PresetName = "web"    // screen-resolution PNG
	PresetPrint  PresetName = "print"  // high-resolution PDF
	PresetSocial PresetName = "social" // 2x JPEG for feed uploads
)

// PresetOptions returns the baseline Options for a preset. OutPath is left
// empty; callers resolve it with ResolveOutPath.
func PresetOptions(p PresetName) (Options, error) {
	switch p {
	case PresetWeb:
		return Options{Format: FormatPNG, Scale: 1, Selection: SelectAll}, nil
	case PresetPrint:
		// 288 output pixels per inch at the usual 96px/inch logical density.
		return Options{Format: FormatPDF, Scale: 3, Selection: SelectAll}, nil
	case PresetSocial:
		return Options{Format: FormatJPEG, Scale: 2, Quality: 85, Selection: SelectAll}, nil
	default:
		return Options{}, fmt.Errorf("unknown preset %q", p)
	}
}

// ResolveOutPath places a relative output path under the project's exports
// folder, filling in a name derived from the project when none is given.
func ResolveOutPath(projectRoot, projectName, outPath string, format Format) string {
	if outPath == "" {
		outPath = BaseName(projectName) + "." + Ext(format)
	}
	if !strings.ContainsRune(outPath, '.') {
		outPath += "." + Ext(format)
	}
	if !filepath.IsAbs(outPath) && projectRoot != "" {
		outPath = filepath.Join(projectRoot, "exports", outPath)
	}
	return outPath
}
