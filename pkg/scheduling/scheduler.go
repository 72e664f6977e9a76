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

package scheduling

import (
	"fmt"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"k8s.io/apimachinery/pkg/util/sets"

	v1alpha1 "github.com/openshift/cluster-sizer/pkg/apis/v1alpha1"
)

// IDAllocator mints zone and node ids for a single sizing call. Kept as an
// interface so pkg/sizing's per-call allocator (internal/idgen) can be
// injected without this package importing it.
type IDAllocator interface {
	NextZoneID() string
	NextNodeID() string
}

// State is the mutable (zones, nodes) pair the Scheduler threads through
// successive workload calls. NodeOrder records node creation order so
// callers can render a deterministic node list without depending on Go's
// randomized map iteration.
type State struct {
	Zones     []v1alpha1.Zone
	Nodes     map[string]v1alpha1.Node
	NodeOrder []string
}

// Scheduler orchestrates resource accounting, feasibility, bundling and
// zone selection to place an entire workload across zones and nodes.
type Scheduler struct {
	Log         *zap.SugaredLogger
	Allocator   IDAllocator
	World       World
	MachineSets []v1alpha1.MachineSet
}

// Results pairs a State with the services it was computed against, as a
// way to introspect what got placed. Schedule itself returns the State and
// the service map as separate values, not a Results.
type Results struct {
	State    State
	Services map[string]v1alpha1.Service
}

// AllServicesScheduled reports whether every service reached its target
// zone replication.
func (r Results) AllServicesScheduled() bool {
	for _, s := range r.Services {
		if !s.Placed {
			return false
		}
	}
	return true
}

// Schedule places workload's services across state: ensure enough zones
// exist, then walk services in input order, computing each unplaced
// service's bundle and placing it once per required zone.
func (s *Scheduler) Schedule(workload v1alpha1.Workload, services map[string]v1alpha1.Service, state State) (State, map[string]v1alpha1.Service, error) {
	wServices := orderedWorkloadServices(workload, services)

	maxZones := 1
	for _, svc := range wServices {
		if svc.Zones > maxZones {
			maxZones = svc.Zones
		}
	}
	state.Zones = EnsureZones(state.Zones, maxZones, func() v1alpha1.Zone {
		return v1alpha1.Zone{ID: s.Allocator.NextZoneID()}
	})

	placed := map[string]bool{}
	for _, svc := range wServices {
		if placed[svc.ID] {
			continue
		}
		bundle := Bundles(wServices)
		var target []v1alpha1.Service
		for _, b := range bundle {
			if containsID(b, svc.ID) {
				target = b
				break
			}
		}
		if target == nil {
			target = []v1alpha1.Service{svc}
		}

		replicas := BundleZones(target)
		usedZones := sets.NewString()
		for r := 0; r < replicas; r++ {
			zone, err := s.pickZone(state, usedZones, target)
			if err != nil {
				return state, services, err
			}
			usedZones.Insert(zone.ID)

			newState, err := s.addServiceToZone(state, zone.ID, target, workload)
			if err != nil {
				return state, services, fmt.Errorf("placing workload %q: %w", workload.Name, err)
			}
			state = newState
		}
		for _, member := range target {
			placed[member.ID] = true
			if svc2, ok := services[member.ID]; ok {
				svc2.Placed = true
				services[member.ID] = svc2
			}
		}
	}
	return state, services, nil
}

// pickZone selects the best unused zone for bundle. When no unused zone has
// a node able to host it, the first unused zone is returned (a new node is
// then created there); only when every zone is already used by this bundle
// does it fall back to the highest-id zone.
func (s *Scheduler) pickZone(state State, usedZones sets.String, bundle []v1alpha1.Service) (v1alpha1.Zone, error) {
	candidates := lo.Filter(state.Zones, func(z v1alpha1.Zone, _ int) bool { return !usedZones.Has(z.ID) })
	ranked := SortBestZones(candidates, state.Nodes, bundle, s.World)
	if len(ranked) > 0 {
		return ranked[0], nil
	}
	if len(candidates) > 0 {
		return candidates[0], nil
	}
	// Reset the used-set and pick the zone with the highest id. Deliberately
	// lenient; callers that need to detect a violation of "one replica per
	// distinct zone" should check it against the final result rather than
	// relying on this path to prevent it.
	usedZones.Delete(usedZones.List()...)
	if zone, ok := HighestZoneID(state.Zones); ok {
		return zone, nil
	}
	return v1alpha1.Zone{}, fmt.Errorf("no zones available to schedule bundle")
}

// addServiceToZone places bundle onto the least-loaded capable node in
// zoneID, minting a new node from workload's MachineSet if none can host it.
func (s *Scheduler) addServiceToZone(state State, zoneID string, bundle []v1alpha1.Service, workload v1alpha1.Workload) (State, error) {
	zoneIdx := -1
	for i, z := range state.Zones {
		if z.ID == zoneID {
			zoneIdx = i
			break
		}
	}
	if zoneIdx < 0 {
		return state, fmt.Errorf("zone %q not found", zoneID)
	}
	zone := state.Zones[zoneIdx]

	var best *v1alpha1.Node
	var bestMem float64
	for _, nodeID := range zone.Nodes {
		node := state.Nodes[nodeID]
		if !nodeCanHostBundle(node, bundle, s.World) {
			continue
		}
		mem := currentMemoryUsage(node, s.World)
		if best == nil || mem < bestMem {
			n := node
			best = &n
			bestMem = mem
		}
	}

	if best == nil {
		ms, ok := GetMachineSetForWorkload(workload, s.MachineSets)
		if !ok {
			return state, fmt.Errorf("no MachineSet available to create a node for workload %q", workload.Name)
		}
		node := NewNode(s.Allocator.NextNodeID(), ms)
		best = &node
		zone.Nodes = append(zone.Nodes, node.ID)
		state.Zones[zoneIdx] = zone
		state.NodeOrder = append(state.NodeOrder, node.ID)
		if s.Log != nil {
			s.Log.Debugw("created node", "node", node.ID, "machineSet", ms.Name, "zone", zoneID)
		}
	}

	for _, member := range bundle {
		best.Services = append(best.Services, member.ID)
	}
	state.Nodes[best.ID] = *best
	return state, nil
}

func currentMemoryUsage(node v1alpha1.Node, world World) float64 {
	var total float64
	for _, id := range node.Services {
		if svc, ok := world.ServicesByID[id]; ok {
			total += svc.RequiredMemory
		}
	}
	return total
}

func containsID(services []v1alpha1.Service, id string) bool {
	for _, s := range services {
		if s.ID == id {
			return true
		}
	}
	return false
}

func orderedWorkloadServices(workload v1alpha1.Workload, services map[string]v1alpha1.Service) []v1alpha1.Service {
	out := make([]v1alpha1.Service, 0, len(workload.Services))
	for _, id := range workload.Services {
		if s, ok := services[id]; ok {
			out = append(out, s)
		}
	}
	return out
}
