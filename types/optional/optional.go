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

package optional

import (
	"encoding"
	"encoding/json"
	"fmt"
)

// Optional holds a value that may be absent.
//
// Absence is a regular state, not an error: callers decide whether a missing
// value is acceptable at the point of use.
type Optional[T any] struct {
	Present bool
	Value   T
}

func (o Optional[T]) Get() (T, bool) {
	return o.Value, o.Present
}

func (o Optional[T]) IsPresent() bool {
	return o.Present
}

func (o Optional[T]) ValueOrFallback(fallback T) T {
	if o.Present {
		return o.Value
	}
	return fallback
}

func (o Optional[T]) ValueOrFallbackFunc(fallbackFunc func() T) T {
	if o.Present {
		return o.Value
	}
	return fallbackFunc()
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if !o.Present {
		return []byte("null"), nil
	}
	return json.Marshal(o.Value)
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*o = None[T]()
		return nil
	}
	o.Present = true
	return json.Unmarshal(data, &o.Value)
}

// UnmarshalText makes an Optional decodable from environment variables and
// flags. Only string values and types implementing encoding.TextUnmarshaler
// are supported.
func (o *Optional[T]) UnmarshalText(text []byte) error {
	switch v := any(&o.Value).(type) {
	case *string:
		*v = string(text)
	case encoding.TextUnmarshaler:
		if err := v.UnmarshalText(text); err != nil {
			return err
		}
	default:
		return fmt.Errorf("optional: cannot unmarshal text into %T", o.Value)
	}
	o.Present = true
	return nil
}

func Value[T any](v T) Optional[T] {
	return Optional[T]{Present: true, Value: v}
}

func None[T any]() Optional[T] {
	return Optional[T]{Present: false}
}

// FromLookup adapts a comma-ok lookup, such as os.LookupEnv, into an Optional.
func FromLookup[T any](v T, ok bool) Optional[T] {
	if !ok {
		return None[T]()
	}
	return Value(v)
}
