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

// Package scheduling groups co-placed services into bundles, decides
// whether a candidate service fits on a given node, ranks zones by
// capacity, and orchestrates the per-workload scheduler.
package scheduling

import (
	v1alpha1 "github.com/openshift/cluster-sizer/pkg/apis/v1alpha1"
)

// unionFind is the standard disjoint-set structure used to compute
// connected components of the symmetric closure of runsWith.
type unionFind struct {
	parent map[string]string
}

func newUnionFind(ids []string) *unionFind {
	uf := &unionFind{parent: make(map[string]string, len(ids))}
	for _, id := range ids {
		uf.parent[id] = id
	}
	return uf
}

func (uf *unionFind) find(id string) string {
	for uf.parent[id] != id {
		uf.parent[id] = uf.parent[uf.parent[id]]
		id = uf.parent[id]
	}
	return id
}

func (uf *unionFind) union(a, b string) {
	ra, rb := uf.find(a), uf.find(b)
	if ra != rb {
		uf.parent[ra] = rb
	}
}

// Bundles partitions services into co-placement groups: the connected
// components of the symmetric closure of RunsWith restricted to these
// services. Each bundle is returned in the same relative order as
// services for determinism.
func Bundles(services []v1alpha1.Service) [][]v1alpha1.Service {
	ids := make([]string, len(services))
	byID := make(map[string]v1alpha1.Service, len(services))
	for i, s := range services {
		ids[i] = s.ID
		byID[s.ID] = s
	}
	uf := newUnionFind(ids)
	for _, s := range services {
		for runsWith := range s.RunsWith {
			if _, ok := byID[runsWith]; ok {
				uf.union(s.ID, runsWith)
			}
		}
	}

	groups := map[string][]v1alpha1.Service{}
	var roots []string
	for _, s := range services {
		root := uf.find(s.ID)
		if _, seen := groups[root]; !seen {
			roots = append(roots, root)
		}
		groups[root] = append(groups[root], s)
	}
	bundles := make([][]v1alpha1.Service, 0, len(roots))
	for _, root := range roots {
		bundles = append(bundles, groups[root])
	}
	return bundles
}

// BundleZones is the max zones-demand across a bundle's services: the
// bundle as a whole is replicated across that many distinct zones.
func BundleZones(bundle []v1alpha1.Service) int {
	max := 1
	for _, s := range bundle {
		if s.Zones > max {
			max = s.Zones
		}
	}
	return max
}
