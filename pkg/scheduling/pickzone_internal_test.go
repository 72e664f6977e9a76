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
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"k8s.io/apimachinery/pkg/util/sets"

	v1alpha1 "github.com/openshift/cluster-sizer/pkg/apis/v1alpha1"
)

// pickZone's own call sites in Schedule never let usedZones cover every
// zone in state.Zones: EnsureZones grows the shared pool to the workload's
// max zones demand before any bundle's replica loop starts, and every
// bundle's replica count is bounded by that same max. So the fallback
// below is only reachable by calling pickZone directly with a zone pool
// deliberately starved relative to usedZones.
var _ = Describe("pickZone fallback", func() {
	It("falls back to the highest zone id once every existing zone is already used by this bundle", func() {
		svc := v1alpha1.Service{ID: "svc-1", RequiredCPU: 1, RequiredMemory: 1, Zones: 3}
		bundle := []v1alpha1.Service{svc}

		s := &Scheduler{
			World: World{ServicesByID: map[string]v1alpha1.Service{svc.ID: svc}},
		}
		state := State{
			Zones: []v1alpha1.Zone{{ID: "zone-1"}, {ID: "zone-2"}},
			Nodes: map[string]v1alpha1.Node{},
		}
		usedZones := sets.NewString("zone-1", "zone-2")

		zone, err := s.pickZone(state, usedZones, bundle)
		Expect(err).NotTo(HaveOccurred())
		Expect(zone.ID).To(Equal("zone-2"), "falls back to the highest zone id")
	})

	It("returns an error when there are no zones at all to fall back to", func() {
		s := &Scheduler{World: World{ServicesByID: map[string]v1alpha1.Service{}}}
		state := State{Nodes: map[string]v1alpha1.Node{}}

		_, err := s.pickZone(state, sets.NewString(), nil)
		Expect(err).To(HaveOccurred())
	})
})
