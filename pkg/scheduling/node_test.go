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
	"k8s.io/apimachinery/pkg/util/sets"

	v1alpha1 "github.com/openshift/cluster-sizer/pkg/apis/v1alpha1"
	"github.com/openshift/cluster-sizer/pkg/scheduling"
)

func worldOf(services []v1alpha1.Service, workloads []v1alpha1.Workload, machineSets []v1alpha1.MachineSet) scheduling.World {
	w := scheduling.World{
		ServicesByID:    map[string]v1alpha1.Service{},
		WorkloadsByID:   map[string]v1alpha1.Workload{},
		MachineSetsByID: map[string]v1alpha1.MachineSet{},
	}
	for _, s := range services {
		w.ServicesByID[s.ID] = s
	}
	for _, wl := range workloads {
		w.WorkloadsByID[wl.ID] = wl
	}
	for _, ms := range machineSets {
		w.MachineSetsByID[ms.Name] = ms
	}
	return w
}

var _ = Describe("IsControlPlaneService", func() {
	It("matches known control-plane component names case-insensitively", func() {
		Expect(scheduling.IsControlPlaneService(v1alpha1.Service{Name: "KUBE-APISERVER"})).To(BeTrue())
		Expect(scheduling.IsControlPlaneService(v1alpha1.Service{Name: "etcd-main"})).To(BeTrue())
		Expect(scheduling.IsControlPlaneService(v1alpha1.Service{Name: "my-app"})).To(BeFalse())
	})
})

var _ = Describe("CanNodeAddService", func() {
	ms := v1alpha1.MachineSet{Name: "worker", CPU: 8, Memory: 16, NumberOfDisks: 4}

	It("rejects a candidate whose workload doesn't exist", func() {
		candidate := v1alpha1.Service{ID: "s1", OwnerReference: "missing"}
		node := scheduling.NewNode("n1", ms)
		w := worldOf(nil, nil, []v1alpha1.MachineSet{ms})
		Expect(scheduling.CanNodeAddService(node, candidate, w)).To(BeFalse())
	})

	It("accepts a candidate that fits within capacity", func() {
		wl := v1alpha1.Workload{ID: "wl1", Name: "app"}
		candidate := v1alpha1.Service{ID: "s1", RequiredCPU: 2, RequiredMemory: 4, OwnerReference: "wl1"}
		node := scheduling.NewNode("n1", ms)
		w := worldOf([]v1alpha1.Service{candidate}, []v1alpha1.Workload{wl}, []v1alpha1.MachineSet{ms})
		Expect(scheduling.CanNodeAddService(node, candidate, w)).To(BeTrue())
	})

	It("rejects anti-affinity violations in either direction", func() {
		wl := v1alpha1.Workload{ID: "wl1", Name: "app"}
		a := v1alpha1.Service{ID: "a", RequiredCPU: 1, RequiredMemory: 1, OwnerReference: "wl1", Avoid: sets.NewString("b")}
		b := v1alpha1.Service{ID: "b", RequiredCPU: 1, RequiredMemory: 1, OwnerReference: "wl1"}
		node := scheduling.NewNode("n1", ms)
		node.Services = []string{"a"}
		w := worldOf([]v1alpha1.Service{a, b}, []v1alpha1.Workload{wl}, []v1alpha1.MachineSet{ms})
		Expect(scheduling.CanNodeAddService(node, b, w)).To(BeFalse())

		// reverse direction: existing service avoids the candidate
		node2 := scheduling.NewNode("n2", ms)
		node2.Services = []string{"b"}
		bAvoidsA := b
		bAvoidsA.Avoid = sets.NewString("a")
		w2 := worldOf([]v1alpha1.Service{a, bAvoidsA}, []v1alpha1.Workload{wl}, []v1alpha1.MachineSet{ms})
		Expect(scheduling.CanNodeAddService(node2, a, w2)).To(BeFalse())
	})

	It("rejects a node tainted for a different workload", func() {
		wl := v1alpha1.Workload{ID: "wl1", Name: "app"}
		candidate := v1alpha1.Service{ID: "s1", OwnerReference: "wl1"}
		node := scheduling.NewNode("n1", ms)
		node.OnlyFor = sets.NewString("other-workload")
		w := worldOf([]v1alpha1.Service{candidate}, []v1alpha1.Workload{wl}, []v1alpha1.MachineSet{ms})
		Expect(scheduling.CanNodeAddService(node, candidate, w)).To(BeFalse())
	})

	It("routes non-control-plane services off a control-plane node unless allowed", func() {
		cpMS := v1alpha1.MachineSet{Name: "controlPlane", CPU: 16, Memory: 64}
		wl := v1alpha1.Workload{ID: "wl1", Name: "app"}
		candidate := v1alpha1.Service{ID: "s1", Name: "my-app", RequiredCPU: 1, RequiredMemory: 1, OwnerReference: "wl1"}
		node := scheduling.NewNode("n1", cpMS)
		w := worldOf([]v1alpha1.Service{candidate}, []v1alpha1.Workload{wl}, []v1alpha1.MachineSet{cpMS})
		Expect(scheduling.CanNodeAddService(node, candidate, w)).To(BeFalse())

		cpMS.AllowWorkloadScheduling = true
		node2 := scheduling.NewNode("n2", cpMS)
		w2 := worldOf([]v1alpha1.Service{candidate}, []v1alpha1.Workload{wl}, []v1alpha1.MachineSet{cpMS})
		Expect(scheduling.CanNodeAddService(node2, candidate, w2)).To(BeTrue())
	})

	It("always admits control-plane services onto a control-plane node", func() {
		cpMS := v1alpha1.MachineSet{Name: "controlPlane", CPU: 16, Memory: 64}
		wl := v1alpha1.Workload{ID: "wl1", Name: "app"}
		candidate := v1alpha1.Service{ID: "s1", Name: "etcd", RequiredCPU: 1, RequiredMemory: 1, OwnerReference: "wl1"}
		node := scheduling.NewNode("n1", cpMS)
		w := worldOf([]v1alpha1.Service{candidate}, []v1alpha1.Workload{wl}, []v1alpha1.MachineSet{cpMS})
		Expect(scheduling.CanNodeAddService(node, candidate, w)).To(BeTrue())
	})

	It("rejects a workload requiring control-plane on a non-control-plane node", func() {
		wl := v1alpha1.Workload{ID: "wl1", Name: "app", RequireControlPlane: true}
		candidate := v1alpha1.Service{ID: "s1", RequiredCPU: 1, RequiredMemory: 1, OwnerReference: "wl1"}
		node := scheduling.NewNode("n1", ms)
		w := worldOf([]v1alpha1.Service{candidate}, []v1alpha1.Workload{wl}, []v1alpha1.MachineSet{ms})
		Expect(scheduling.CanNodeAddService(node, candidate, w)).To(BeFalse())
	})

	It("requires every co-runner to fit, not just the candidate alone", func() {
		wl := v1alpha1.Workload{ID: "wl1", Name: "app"}
		a := v1alpha1.Service{ID: "a", RequiredCPU: 4, RequiredMemory: 4, OwnerReference: "wl1", RunsWith: sets.NewString("b")}
		b := v1alpha1.Service{ID: "b", RequiredCPU: 4, RequiredMemory: 4, OwnerReference: "wl1", RunsWith: sets.NewString("a")}
		node := scheduling.NewNode("n1", ms) // 8 cpu, 16 mem
		w := worldOf([]v1alpha1.Service{a, b}, []v1alpha1.Workload{wl}, []v1alpha1.MachineSet{ms})
		Expect(scheduling.CanNodeAddService(node, a, w)).To(BeFalse())
	})
})

var _ = Describe("GetMachineSetForWorkload", func() {
	worker := v1alpha1.MachineSet{Name: "worker", CPU: 8, Memory: 16}
	cp := v1alpha1.MachineSet{Name: "controlPlane", CPU: 16, Memory: 32}
	dedicated := v1alpha1.MachineSet{Name: "storage", CPU: 32, Memory: 64, OnlyFor: sets.NewString("storage-wl")}

	It("prefers a dedicated onlyFor match", func() {
		wl := v1alpha1.Workload{Name: "storage-wl"}
		ms, ok := scheduling.GetMachineSetForWorkload(wl, []v1alpha1.MachineSet{cp, worker, dedicated})
		Expect(ok).To(BeTrue())
		Expect(ms.Name).To(Equal("storage"))
	})

	It("falls back to the first usesMachines entry", func() {
		wl := v1alpha1.Workload{Name: "app", UsesMachines: sets.NewString("worker")}
		ms, ok := scheduling.GetMachineSetForWorkload(wl, []v1alpha1.MachineSet{cp, worker})
		Expect(ok).To(BeTrue())
		Expect(ms.Name).To(Equal("worker"))
	})

	It("falls back to the first non-control-plane MachineSet", func() {
		wl := v1alpha1.Workload{Name: "app"}
		ms, ok := scheduling.GetMachineSetForWorkload(wl, []v1alpha1.MachineSet{cp, worker})
		Expect(ok).To(BeTrue())
		Expect(ms.Name).To(Equal("worker"))
	})
})
