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
	"fmt"
	"strings"
)

func indent(text string, indentLevel int) string {
	indentString := strings.Repeat("  ", indentLevel)

	var sb strings.Builder
	for line := range strings.Lines(text) {
		sb.WriteString(indentString)
		sb.WriteString(line)
	}
	return sb.String()
}

// PrettyPrintOutput renders a summary of the kickoff result for logs and
// terminals.
func PrettyPrintOutput(out CrewOutput) string {
	var sb strings.Builder

	sb.WriteString("CrewOutput:")
	_, _ = fmt.Fprintf(&sb, "\n- %d task output(s)", len(out.TasksOutput))
	for i, t := range out.TasksOutput {
		_, _ = fmt.Fprintf(&sb, "\n  %d. %s (agent=%q)", i+1, t.Summary, t.AgentRole)
	}
	if u := out.TokenUsage; u != nil {
		_, _ = fmt.Fprintf(&sb, "\n- Token usage: %d request(s), %d input, %d output, %d total",
			u.Requests, u.InputTokens, u.OutputTokens, u.TotalTokens)
	}
	sb.WriteString("\n- Final output:\n")
	sb.WriteString(indent(strings.TrimSuffix(out.Raw, "\n"), 2))
	return sb.String()
}
