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

package crewtesting

import (
	"context"
	"reflect"
	"slices"
	"sync"

	"github.com/nlpodyssey/trading-crew-go/crew"
	"github.com/nlpodyssey/trading-crew-go/modelsettings"
	"github.com/nlpodyssey/trading-crew-go/usage"
)

// FakeModel replays queued outputs, one per request.
type FakeModel struct {
	mu             sync.Mutex
	TurnOutputs    []FakeModelTurnOutput
	LastTurnArgs   FakeModelLastTurnArgs
	Requests       []crew.ModelRequest
	HardcodedUsage *usage.Usage
}

type FakeModelTurnOutput struct {
	Value crew.Message
	Error error
}

type FakeModelLastTurnArgs struct {
	SystemInstructions string
	Messages           []crew.Message
	ModelSettings      modelsettings.ModelSettings
	Tools              []crew.Tool
}

func NewFakeModel(initialOutput *FakeModelTurnOutput) *FakeModel {
	var turnOutputs []FakeModelTurnOutput
	if initialOutput != nil && !reflect.ValueOf(*initialOutput).IsZero() {
		turnOutputs = []FakeModelTurnOutput{*initialOutput}
	}
	return &FakeModel{TurnOutputs: turnOutputs}
}

func (m *FakeModel) SetHardcodedUsage(u usage.Usage) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.HardcodedUsage = &u
}

func (m *FakeModel) SetNextOutput(output FakeModelTurnOutput) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TurnOutputs = append(m.TurnOutputs, output)
}

func (m *FakeModel) AddMultipleTurnOutputs(outputs []FakeModelTurnOutput) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.TurnOutputs = append(m.TurnOutputs, outputs...)
}

// RequestCount returns the number of requests received so far.
func (m *FakeModel) RequestCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Requests)
}

func (m *FakeModel) GetResponse(ctx context.Context, req crew.ModelRequest) (*crew.ModelResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastTurnArgs = FakeModelLastTurnArgs{
		SystemInstructions: req.SystemInstructions,
		Messages:           slices.Clone(req.Messages),
		ModelSettings:      req.ModelSettings,
		Tools:              req.Tools,
	}
	m.Requests = append(m.Requests, req)

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var output FakeModelTurnOutput
	if len(m.TurnOutputs) > 0 {
		output = m.TurnOutputs[0]
		m.TurnOutputs = m.TurnOutputs[1:]
	}
	if output.Error != nil {
		return nil, output.Error
	}

	u := usage.NewUsage()
	if m.HardcodedUsage != nil {
		u = m.HardcodedUsage.Snapshot()
	}
	u.Requests = 1

	msg := output.Value
	msg.Role = crew.RoleAssistant
	return &crew.ModelResponse{Message: msg, Usage: u}, nil
}
