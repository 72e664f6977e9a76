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
	"sort"
	"strconv"

	v1alpha1 "github.com/openshift/cluster-sizer/pkg/apis/v1alpha1"
)

// RequiredZones is how many additional zones must be allocated before
// svc's replication demand can be satisfied by the existing zone count.
func RequiredZones(svc v1alpha1.Service, zones []v1alpha1.Zone) int {
	n := svc.Zones - len(zones)
	if n < 0 {
		return 0
	}
	return n
}

// capableNodeCount counts how many nodes in zone could host bundle,
// without mutating any node.
func capableNodeCount(zone v1alpha1.Zone, nodes map[string]v1alpha1.Node, bundle []v1alpha1.Service, world World) int {
	count := 0
	for _, nodeID := range zone.Nodes {
		node, ok := nodes[nodeID]
		if !ok {
			continue
		}
		if nodeCanHostBundle(node, bundle, world) {
			count++
		}
	}
	return count
}

func nodeCanHostBundle(node v1alpha1.Node, bundle []v1alpha1.Service, world World) bool {
	for _, member := range bundle {
		if !CanNodeAddService(node, member, world) {
			return false
		}
	}
	return true
}

// SortBestZones orders zones by the number of nodes able to host bundle
// (descending), tie-broken by zone id descending, with zero-capacity zones
// dropped.
func SortBestZones(zones []v1alpha1.Zone, nodes map[string]v1alpha1.Node, bundle []v1alpha1.Service, world World) []v1alpha1.Zone {
	type scored struct {
		zone  v1alpha1.Zone
		count int
	}
	scoredZones := make([]scored, 0, len(zones))
	for _, z := range zones {
		if c := capableNodeCount(z, nodes, bundle, world); c > 0 {
			scoredZones = append(scoredZones, scored{zone: z, count: c})
		}
	}
	sort.SliceStable(scoredZones, func(i, j int) bool {
		if scoredZones[i].count != scoredZones[j].count {
			return scoredZones[i].count > scoredZones[j].count
		}
		return zoneIDLess(scoredZones[j].zone.ID, scoredZones[i].zone.ID)
	})
	out := make([]v1alpha1.Zone, len(scoredZones))
	for i, s := range scoredZones {
		out[i] = s.zone
	}
	return out
}

// zoneIDLess orders zone ids numerically when possible (they are minted as
// increasing integers by the id allocator) and falls back to a string
// comparison otherwise, so "zone-10" sorts after "zone-9".
func zoneIDLess(a, b string) bool {
	an, aerr := zoneOrdinal(a)
	bn, berr := zoneOrdinal(b)
	if aerr == nil && berr == nil {
		return an < bn
	}
	return a < b
}

func zoneOrdinal(id string) (int, error) {
	for i := len(id) - 1; i >= 0; i-- {
		if id[i] < '0' || id[i] > '9' {
			return strconv.Atoi(id[i+1:])
		}
	}
	return strconv.Atoi(id)
}

// HighestZoneID returns the zone with the numerically/lexically greatest
// id, used by the scheduler's lenient fallback path when no zone can be
// ranked by capacity.
func HighestZoneID(zones []v1alpha1.Zone) (v1alpha1.Zone, bool) {
	if len(zones) == 0 {
		return v1alpha1.Zone{}, false
	}
	best := zones[0]
	for _, z := range zones[1:] {
		if zoneIDLess(best.ID, z.ID) {
			best = z
		}
	}
	return best, true
}

// EnsureZones allocates new zones via allocate() until len(zones) >= n.
func EnsureZones(zones []v1alpha1.Zone, n int, allocate func() v1alpha1.Zone) []v1alpha1.Zone {
	for len(zones) < n {
		zones = append(zones, allocate())
	}
	return zones
}
