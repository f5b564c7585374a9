/*
 * Copyright (c) 2025 by Alexander Drost, Oldenburg, Germany.
 * This file is licensed to you under the Apache License, Version 2.0 (the "License"); you may not use this file except in compliance with the License.  You may obtain a copy of the License at
 *   http://www.apache.org/licenses/LICENSE-2.0
 * Unless required by applicable law or agreed to in writing, software distributed under the License is distributed on an
 * "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.  See the License for the specific language governing permissions and limitations under the License.
 */

package storage

import (
	"errors"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
)

// envelopeSchema is the structural contract for persisted documents. It is
// deliberately loose below the element level: payload shapes evolve faster
// than the envelope, and domain.Validate covers the semantic rules.
const envelopeSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["version", "project"],
  "properties": {
    "version": {"type": "integer", "minimum": 1},
    "savedAt": {"type": "string"},
    "project": {
      "type": "object",
      "required": ["id", "pages"],
      "properties": {
        "id": {"type": "string", "minLength": 1},
        "name": {"type": "string"},
        "activePageId": {"type": "string"},
        "pages": {
          "type": "array",
          "minItems": 1,
          "items": {
            "type": "object",
            "required": ["id", "width", "height"],
            "properties": {
              "id": {"type": "string", "minLength": 1},
              "width": {"type": "number", "exclusiveMinimum": 0},
              "height": {"type": "number", "exclusiveMinimum": 0},
              "elements": {
                "type": "array",
                "items": {
                  "type": "object",
                  "required": ["id", "type"],
                  "properties": {
                    "id": {"type": "string", "minLength": 1},
                    "type": {"type": "string", "minLength": 1}
                  }
                }
              }
            }
          }
        }
      }
    }
  }
}`

var compiledEnvelopeSchema *gojsonschema.Schema

func init() {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(envelopeSchema))
	if err != nil {
		panic(fmt.Sprintf("storage: invalid envelope schema: %v", err))
	}
	compiledEnvelopeSchema = s
}

// ValidateEnvelope checks raw document bytes against the envelope schema and
// returns a single error listing every violation.
func ValidateEnvelope(b []byte) error {
	res, err := compiledEnvelopeSchema.Validate(gojsonschema.NewBytesLoader(b))
	if err != nil {
		return fmt.Errorf("validate envelope: %w", err)
	}
	if res.Valid() {
		return nil
	}
	msgs := make([]string, 0, len(res.Errors()))
	for _, e := range res.Errors() {
		msgs = append(msgs, e.String())
	}
	return errors.New("envelope schema: " + strings.Join(msgs, "; "))
}
