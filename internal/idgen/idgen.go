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

// Package idgen mints zone, node, service and workload ids for a single
// sizing call. Counters live on a value created fresh per call, so
// concurrent callers never share state, and a given input with the same
// prefix always produces the same ids. With an empty prefix a random one
// is drawn per Allocator, so ids then differ from one call to the next.
package idgen

import (
	"fmt"

	"github.com/google/uuid"
)

// Allocator hands out sequential, human-readable ids scoped to one
// sizing call. It is not safe for concurrent use by multiple goroutines;
// callers needing that should construct one Allocator per goroutine.
type Allocator struct {
	prefix   string
	zones    int
	nodes    int
	services int
	workload int
}

// New creates an Allocator. prefix namespaces ids minted by this call so
// ids from two unrelated sizing calls never collide if concatenated into
// the same log stream; a short run-scoped uuid is used when prefix is
// empty.
func New(prefix string) *Allocator {
	if prefix == "" {
		prefix = uuid.NewString()[:8]
	}
	return &Allocator{prefix: prefix}
}

// NextZoneID implements scheduling.IDAllocator.
func (a *Allocator) NextZoneID() string {
	a.zones++
	return fmt.Sprintf("%s-zone-%d", a.prefix, a.zones)
}

// NextNodeID implements scheduling.IDAllocator.
func (a *Allocator) NextNodeID() string {
	a.nodes++
	return fmt.Sprintf("%s-node-%d", a.prefix, a.nodes)
}

// NextServiceID mints a Service id during WorkloadDescriptor expansion.
func (a *Allocator) NextServiceID() string {
	a.services++
	return fmt.Sprintf("%s-svc-%d", a.prefix, a.services)
}

// NextWorkloadID mints a Workload id during WorkloadDescriptor expansion.
func (a *Allocator) NextWorkloadID() string {
	a.workload++
	return fmt.Sprintf("%s-wl-%d", a.prefix, a.workload)
}
