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

package scheduling_test

import (
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	v1alpha1 "github.com/openshift/cluster-sizer/pkg/apis/v1alpha1"
	"github.com/openshift/cluster-sizer/pkg/scheduling"
)

var _ = Describe("RequiredZones", func() {
	It("is the shortfall between demand and existing zones", func() {
		svc := v1alpha1.Service{Zones: 3}
		zones := []v1alpha1.Zone{{ID: "z1"}}
		Expect(scheduling.RequiredZones(svc, zones)).To(Equal(2))
	})

	It("never goes negative", func() {
		svc := v1alpha1.Service{Zones: 1}
		zones := []v1alpha1.Zone{{ID: "z1"}, {ID: "z2"}}
		Expect(scheduling.RequiredZones(svc, zones)).To(Equal(0))
	})
})

var _ = Describe("SortBestZones", func() {
	ms := v1alpha1.MachineSet{Name: "worker", CPU: 8, Memory: 16, NumberOfDisks: 4}

	It("ranks zones by the number of nodes able to host the bundle, descending", func() {
		wl := v1alpha1.Workload{ID: "wl1", Name: "app"}
		bundle := []v1alpha1.Service{{ID: "s1", RequiredCPU: 1, RequiredMemory: 1, OwnerReference: "wl1"}}
		w := worldOf(bundle, []v1alpha1.Workload{wl}, []v1alpha1.MachineSet{ms})

		roomy := scheduling.NewNode("n1", ms)
		tight := scheduling.NewNode("n2", ms)
		tight.Services = []string{"filler"}
		w.ServicesByID["filler"] = v1alpha1.Service{ID: "filler", RequiredCPU: 8, RequiredMemory: 16, OwnerReference: "wl1"}

		zones := []v1alpha1.Zone{
			{ID: "z1", Nodes: []string{"n1"}},
			{ID: "z2", Nodes: []string{"n2"}},
		}
		nodes := map[string]v1alpha1.Node{"n1": roomy, "n2": tight}

		ranked := scheduling.SortBestZones(zones, nodes, bundle, w)
		Expect(ranked).To(HaveLen(1))
		Expect(ranked[0].ID).To(Equal("z1"))
	})

	It("drops zones with zero capable nodes", func() {
		wl := v1alpha1.Workload{ID: "wl1", Name: "app"}
		bundle := []v1alpha1.Service{{ID: "s1", RequiredCPU: 100, RequiredMemory: 1, OwnerReference: "wl1"}}
		w := worldOf(bundle, []v1alpha1.Workload{wl}, []v1alpha1.MachineSet{ms})
		node := scheduling.NewNode("n1", ms)
		zones := []v1alpha1.Zone{{ID: "z1", Nodes: []string{"n1"}}}
		nodes := map[string]v1alpha1.Node{"n1": node}
		Expect(scheduling.SortBestZones(zones, nodes, bundle, w)).To(BeEmpty())
	})
})

var _ = Describe("HighestZoneID", func() {
	It("picks the numerically greatest zone id", func() {
		zones := []v1alpha1.Zone{{ID: "p-zone-2"}, {ID: "p-zone-10"}, {ID: "p-zone-1"}}
		z, ok := scheduling.HighestZoneID(zones)
		Expect(ok).To(BeTrue())
		Expect(z.ID).To(Equal("p-zone-10"))
	})
})

var _ = Describe("EnsureZones", func() {
	It("allocates zones until the target count is reached", func() {
		var minted int
		zones := scheduling.EnsureZones(nil, 3, func() v1alpha1.Zone {
			minted++
			return v1alpha1.Zone{ID: "z"}
		})
		Expect(zones).To(HaveLen(3))
		Expect(minted).To(Equal(3))
	})
})
