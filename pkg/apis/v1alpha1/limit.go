/*
Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package v1alpha1

import (
	"encoding/json"
	"fmt"
)

// LimitValue is a scalar-or-range tagged variant: Min == Max denotes the
// scalar case. It marshals to a bare number when scalar, and to
// {"min","max"} when it's a genuine range; a range whose bounds are equal
// therefore marshals as a bare number.
type LimitValue struct {
	Min float64
	Max float64
}

// Scalar builds a LimitValue representing a single value.
func Scalar(v float64) LimitValue {
	return LimitValue{Min: v, Max: v}
}

// Range builds a LimitValue representing a {min,max} range.
func Range(min, max float64) LimitValue {
	return LimitValue{Min: min, Max: max}
}

// IsScalar reports whether the value collapses to a single number.
func (l LimitValue) IsScalar() bool {
	return l.Min == l.Max
}

// Add returns the element-wise sum of two LimitValues.
func (l LimitValue) Add(o LimitValue) LimitValue {
	return LimitValue{Min: l.Min + o.Min, Max: l.Max + o.Max}
}

// Scale returns l with both bounds multiplied by n, used to project a
// per-service limit across its placement count.
func (l LimitValue) Scale(n float64) LimitValue {
	return LimitValue{Min: l.Min * n, Max: l.Max * n}
}

// Div returns the element-wise ratio of l over o, used for over-commit ratios.
func (l LimitValue) Div(o LimitValue) LimitValue {
	return LimitValue{Min: safeDiv(l.Min, o.Min), Max: safeDiv(l.Max, o.Max)}
}

func safeDiv(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}

func (l LimitValue) MarshalJSON() ([]byte, error) {
	if l.IsScalar() {
		return json.Marshal(l.Min)
	}
	return json.Marshal(struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	}{l.Min, l.Max})
}

func (l *LimitValue) UnmarshalJSON(data []byte) error {
	var scalar float64
	if err := json.Unmarshal(data, &scalar); err == nil {
		*l = Scalar(scalar)
		return nil
	}
	var ranged struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	}
	if err := json.Unmarshal(data, &ranged); err != nil {
		return fmt.Errorf("limit value is neither a scalar nor a {min,max} range: %w", err)
	}
	*l = Range(ranged.Min, ranged.Max)
	return nil
}
