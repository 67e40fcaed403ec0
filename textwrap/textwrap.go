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

// Package textwrap reformats result text into fixed-width lines.
package textwrap

import (
	"strings"
	"unicode/utf8"
)

// DefaultWidth is the line width used by PrettyPrintResult.
const DefaultWidth = 80

// Wrap re-splits every line of text that is longer than width into several
// lines, breaking only at single spaces. Existing newlines are preserved as hard
// breaks, and lines that already fit are emitted unchanged.
//
// Wrapping is greedy. The first word of an output line is always accepted, so a
// single word longer than width is emitted as-is rather than split. Lengths are
// counted in runes. A non-positive width means DefaultWidth.
func Wrap(text string, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}

	lines := strings.Split(text, "\n")
	out := make([]string, 0, len(lines))
	for _, line := range lines {
		if utf8.RuneCountInString(line) <= width {
			out = append(out, line)
			continue
		}
		out = appendWrapped(out, line, width)
	}
	return strings.Join(out, "\n")
}

func appendWrapped(out []string, line string, width int) []string {
	var current strings.Builder
	currentLen := 0

	for _, word := range strings.Split(line, " ") {
		wordLen := utf8.RuneCountInString(word)
		switch {
		case currentLen == 0:
			// An empty buffer is never flushed: it would only add a blank line.
			current.Reset()
			current.WriteString(word)
			currentLen = wordLen
		case currentLen+1+wordLen > width:
			out = append(out, current.String())
			current.Reset()
			current.WriteString(word)
			currentLen = wordLen
		default:
			current.WriteByte(' ')
			current.WriteString(word)
			currentLen += 1 + wordLen
		}
	}
	return append(out, current.String())
}

// PrettyPrintResult formats a crew result so that no line exceeds
// DefaultWidth characters, except for lines holding a single longer word.
func PrettyPrintResult(result string) string {
	return Wrap(result, DefaultWidth)
}
