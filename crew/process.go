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

// Process is the strategy used to run the tasks of a crew.
type Process string

const (
	// Sequential runs the tasks in order, each with its own agent.
	Sequential Process = "sequential"

	// Hierarchical gives every task to a manager agent, which delegates
	// the work to the crew agents.
	Hierarchical Process = "hierarchical"
)

func ParseProcess(s string) (Process, error) {
	switch p := Process(strings.ToLower(strings.TrimSpace(s))); p {
	case Sequential, Hierarchical:
		return p, nil
	default:
		return "", fmt.Errorf("unknown process %q", s)
	}
}

func (p Process) String() string { return string(p) }
