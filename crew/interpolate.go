// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package crew

import (
	"regexp"
	"slices"
	"strings"
)

var placeholderRegexp = regexp.MustCompile(`\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Interpolate replaces every {name} placeholder of the template with the
// corresponding input. Placeholders without an input are reported in a
// MissingInputError and the template is not modified.
func Interpolate(template string, inputs map[string]string) (string, error) {
	var missing []string
	out := interpolateTemplate(template, inputs, &missing)
	if len(missing) > 0 {
		return template, MissingInputError{Keys: dedupe(missing)}
	}
	return out, nil
}

// Placeholders lists the distinct placeholder names of the template, in order
// of first appearance.
func Placeholders(template string) []string {
	var names []string
	for _, m := range placeholderRegexp.FindAllStringSubmatch(template, -1) {
		names = append(names, m[1])
	}
	return dedupe(names)
}

func interpolateTemplate(template string, inputs map[string]string, missing *[]string) string {
	if !strings.Contains(template, "{") {
		return template
	}
	return placeholderRegexp.ReplaceAllStringFunc(template, func(match string) string {
		name := match[1 : len(match)-1]
		v, ok := inputs[name]
		if !ok {
			*missing = append(*missing, name)
			return match
		}
		return v
	})
}

func dedupe(values []string) []string {
	var out []string
	for _, v := range values {
		if !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
