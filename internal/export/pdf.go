/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package export

import (
	"bytes"
	"fmt"
	"image/png"
	"os"
	"path/filepath"

	"github.com/jung-kurt/gofpdf"
)

// writePDF assembles one PDF with one embedded raster per page. Each PDF page
// matches its source page's scaled dimensions, so mixed page sizes survive.
func writePDF(outPath string, rasters []PageRaster) error {
	if len(rasters) == 0 {
		return ErrNoPages
	}
	first := gofpdf.SizeType{Wd: rasters[0].WidthPt, Ht: rasters[0].HeightPt}
	pdf := gofpdf.NewCustom(&gofpdf.InitType{
		UnitStr:        "pt",
		Size:           first,
		OrientationStr: "",
	})
	pdf.SetAutoPageBreak(false, 0)

	buf := &bytes.Buffer{}
	for i, pr := range rasters {
		size := gofpdf.SizeType{Wd: pr.WidthPt, Ht: pr.HeightPt}
		pdf.AddPageFormat("", size)

		buf.Reset()
		if err := png.Encode(buf, pr.Img); err != nil {
			return fmt.Errorf("encode page %d: %w", i+1, err)
		}
		name := fmt.Sprintf("page-%d", i+1)
		opt := gofpdf.ImageOptions{ImageType: "PNG"}
		pdf.RegisterImageOptionsReader(name, opt, bytes.NewReader(buf.Bytes()))
		pdf.ImageOptions(name, 0, 0, pr.WidthPt, pr.HeightPt, false, opt, 0, "")
		if pdf.Err() {
			return fmt.Errorf("embed page %d: %w", i+1, pdf.Error())
		}
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return fmt.Errorf("ensure out dir: %w", err)
	}
	if err := pdf.OutputFileAndClose(outPath); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}
