/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"strings"

	"github.com/google/uuid"
)

// DefaultBaseName is used when a project name sanitizes to nothing or is a
// bare generated UUID.
const DefaultBaseName = "design"

// BaseName derives a filesystem-safe output name from a project name:
// non-alphanumeric runs collapse to single dashes, and names that are just a
// UUID (never renamed by the user) fall back to a generic label.
func BaseName(projectName string) string {
	trimmed := strings.TrimSpace(projectName)
	if trimmed == "" {
		return DefaultBaseName
	}
	if _, err := uuid.Parse(trimmed); err == nil {
		return DefaultBaseName
	}
	var b strings.Builder
	lastDash := true // suppress leading dash
	for _, r := range trimmed {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			b.WriteRune(r)
			lastDash = false
		default:
			if !lastDash {
				b.WriteByte('-')
				lastDash = true
			}
		}
	}
	out := strings.Trim(b.String(), "-")
	if out == "" {
		return DefaultBaseName
	}
	return out
}

// Ext returns the file extension for a format, without the dot.
func Ext(f Format) string {
	switch f {
	case FormatPNG:
		return "png"
	case FormatJPEG:
		return "jpg"
	case FormatPDF:
		return "pdf"
	case FormatArchive:
		return "zip"
	case FormatJSON:
		return "json"
	default:
		return string(f)
	}
}
