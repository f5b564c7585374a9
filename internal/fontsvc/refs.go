/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package fontsvc

import (
	"sort"

	"canvasstudio/internal/domain"
)

// RefsFromProject collects the distinct family/weight pairs used by text
// elements across all pages, including text inside groups. Order is stable.
func RefsFromProject(p *domain.Project) []Ref {
	seen := make(map[Ref]struct{})
	for _, pg := range p.Pages {
		collectRefs(pg.Elements, seen)
	}
	refs := make([]Ref, 0, len(seen))
	for r := range seen {
		refs = append(refs, r)
	}
	sort.Slice(refs, func(i, j int) bool {
		if refs[i].Family != refs[j].Family {
			return refs[i].Family < refs[j].Family
		}
		return refs[i].Weight < refs[j].Weight
	})
	return refs
}

func collectRefs(els []domain.Element, seen map[Ref]struct{}) {
	for i := range els {
		el := &els[i]
		switch el.Type {
		case domain.KindText:
			if el.Text == nil || el.Text.Style.FontFamily == "" {
				continue
			}
			w := el.Text.Style.FontWeight
			if w == 0 {
				w = 400
			}
			seen[Ref{Family: el.Text.Style.FontFamily, Weight: w}] = struct{}{}
		case domain.KindGroup:
			if el.Group != nil {
				collectRefs(el.Group.Children, seen)
			}
		}
	}
}
