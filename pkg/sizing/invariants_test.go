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

package sizing_test

import (
	"fmt"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"k8s.io/apimachinery/pkg/util/sets"

	v1alpha1 "github.com/openshift/cluster-sizer/pkg/apis/v1alpha1"
	"github.com/openshift/cluster-sizer/pkg/resources"
	"github.com/openshift/cluster-sizer/pkg/scheduling"
	"github.com/openshift/cluster-sizer/pkg/sizing"
)

// buildWorkload procedurally generates a WorkloadDescriptor of n services
// with deterministic (not randomized) shapes: every case below is derived
// from a seed index rather than handwritten, so the invariant checks
// exercise a spread of bundle/zone/avoid shapes without depending on
// math/rand.
func buildWorkload(name string, n, zones int) sizing.WorkloadDescriptor {
	services := make([]sizing.ServiceDescriptor, 0, n)
	for i := 0; i < n; i++ {
		sd := sizing.ServiceDescriptor{
			Name:           fmt.Sprintf("svc-%d", i),
			RequiredCPU:    float64(1 + i%3),
			RequiredMemory: float64(2 + i%4),
			Zones:          zones,
		}
		if i%3 == 1 && i > 0 {
			sd.RunsWith = []string{fmt.Sprintf("svc-%d", i-1)}
		}
		if i%4 == 3 && i >= 2 {
			sd.Avoid = []string{fmt.Sprintf("svc-%d", i-2)}
		}
		services = append(services, sd)
	}
	return sizing.WorkloadDescriptor{Name: name, Services: services}
}

func hasID(ids []string, target string) bool {
	for _, id := range ids {
		if id == target {
			return true
		}
	}
	return false
}

var _ = Describe("invariants", func() {
	machineSets := []v1alpha1.MachineSet{{Name: "worker", CPU: 16, Memory: 64, NumberOfDisks: 8}}

	cases := []struct {
		name  string
		n     int
		zones int
	}{
		{"small-single-zone", 4, 1},
		{"medium-single-zone", 9, 1},
		{"small-ha", 4, 3},
		{"medium-ha", 7, 2},
	}

	for _, c := range cases {
		c := c
		It(fmt.Sprintf("holds universal invariants for %s", c.name), func() {
			req := sizing.Request{
				Platform:    v1alpha1.PlatformBareMetal,
				MachineSets: machineSets,
				Workloads:   []sizing.WorkloadDescriptor{buildWorkload(c.name, c.n, c.zones)},
			}
			result, err := sizing.Size(req, sizing.Options{IDPrefix: c.name})
			Expect(err).NotTo(HaveOccurred())

			servicesByID := map[string]v1alpha1.Service{}
			for _, s := range result.Services {
				servicesByID[s.ID] = s
			}

			// Invariant 1: capacity never exceeded on any node.
			for _, n := range result.Nodes {
				var svcs []v1alpha1.Service
				for _, id := range n.Services {
					svcs = append(svcs, servicesByID[id])
				}
				usage := resources.Total(svcs)
				overhead := resources.KubeletOverhead(n.CPU, n.Memory)
				Expect(usage.CPU + overhead.CPU).To(BeNumerically("<=", n.CPU))
				Expect(usage.Memory + overhead.Memory).To(BeNumerically("<=", n.Memory))
				Expect(usage.Disks).To(BeNumerically("<=", n.MaxDisks))
			}

			// Invariant 2: no avoid pair shares a node.
			for _, n := range result.Nodes {
				for _, a := range n.Services {
					for _, b := range n.Services {
						if a == b {
							continue
						}
						Expect(servicesByID[a].Avoid.Has(b)).To(BeFalse(), "node %s co-locates avoiding pair %s/%s", n.ID, a, b)
					}
				}
			}

			// Invariant 3: every co-placement bundle stays whole on a
			// single node wherever it appears - a bundle member never
			// shows up on a node without the rest of its bundle.
			for _, bundle := range scheduling.Bundles(result.Services) {
				if len(bundle) < 2 {
					continue
				}
				ids := make([]string, len(bundle))
				for i, s := range bundle {
					ids[i] = s.ID
				}
				for _, n := range result.Nodes {
					present := 0
					for _, id := range ids {
						if hasID(n.Services, id) {
							present++
						}
					}
					Expect(present == 0 || present == len(ids)).To(BeTrue(),
						"bundle %v split across node %s (%d/%d members present)", ids, n.ID, present, len(ids))
				}
			}

			// Invariant 4: a service with zones=Z lands on exactly Z
			// distinct zones.
			zoneOfNode := map[string]string{}
			for _, z := range result.ZoneDetails {
				for _, nid := range z.Nodes {
					zoneOfNode[nid] = z.ID
				}
			}
			for _, svc := range result.Services {
				seen := sets.NewString()
				for _, n := range result.Nodes {
					if hasID(n.Services, svc.ID) {
						if zid, ok := zoneOfNode[n.ID]; ok {
							seen.Insert(zid)
						}
					}
				}
				Expect(seen.Len()).To(Equal(svc.Zones),
					"service %s (zones=%d) landed on %d distinct zones", svc.ID, svc.Zones, seen.Len())
			}

			// Invariant 5: summary fields match their derivations.
			Expect(result.NodeCount).To(Equal(len(result.Nodes)))
			Expect(result.Zones).To(Equal(len(result.ZoneDetails)))
			var totalCPU, totalMemory float64
			for _, n := range result.Nodes {
				totalCPU += n.CPU
				totalMemory += n.Memory
			}
			Expect(result.TotalCPU).To(Equal(totalCPU))
			Expect(result.TotalMemory).To(Equal(totalMemory))

			// Invariant 7: determinism across repeated runs.
			again, err := sizing.Size(req, sizing.Options{IDPrefix: c.name})
			Expect(err).NotTo(HaveOccurred())
			Expect(again).To(Equal(result))
		})
	}
})
