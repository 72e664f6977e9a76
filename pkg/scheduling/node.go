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
	"strings"

	v1alpha1 "github.com/openshift/cluster-sizer/pkg/apis/v1alpha1"
	"github.com/openshift/cluster-sizer/pkg/resources"
)

// controlPlaneMarkers are the case-insensitive name substrings that mark a
// service as a control-plane component. Exposed as a variable (not a
// constant literal inline) so it can be overridden as configurable policy.
var controlPlaneMarkers = []string{
	"kube-apiserver", "etcd", "kube-controller-manager", "kube-scheduler",
	"cluster-version-operator", "control-plane", "controlplane",
}

// IsControlPlaneService reports whether svc looks like a control-plane
// component by name.
func IsControlPlaneService(svc v1alpha1.Service) bool {
	name := strings.ToLower(svc.Name)
	for _, marker := range controlPlaneMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}

// World bundles the read-only context CanNodeAddService needs to evaluate
// a candidate placement: every known service, workload and machine set in
// the current sizing run.
type World struct {
	ServicesByID    map[string]v1alpha1.Service
	WorkloadsByID   map[string]v1alpha1.Workload
	MachineSetsByID map[string]v1alpha1.MachineSet
}

func (w World) workloadOf(svc v1alpha1.Service) (v1alpha1.Workload, bool) {
	wl, ok := w.WorkloadsByID[svc.OwnerReference]
	return wl, ok
}

// CanNodeAddService reports whether candidate can be placed onto node,
// checking machine-set restriction, control-plane routing, anti-affinity
// and remaining capacity in that order.
func CanNodeAddService(node v1alpha1.Node, candidate v1alpha1.Service, world World) bool {
	if candidate.ID == "" {
		return false
	}
	workload, ok := world.workloadOf(candidate)
	if !ok {
		return false
	}
	if workload.UsesMachines.Len() > 0 && !workload.UsesMachines.Has(node.MachineSet) {
		return false
	}

	ms := world.MachineSetsByID[node.MachineSet]
	isControlPlaneCandidate := IsControlPlaneService(candidate)
	if node.IsControlPlane {
		if !isControlPlaneCandidate && !(node.AllowWorkloadScheduling || ms.AllowWorkloadScheduling) {
			return false
		}
	} else if workload.RequireControlPlane {
		return false
	}

	schedulableControlPlane := v1alpha1.IsControlPlaneMachineSet(node.MachineSet) && node.AllowWorkloadScheduling
	if node.OnlyFor.Len() > 0 && !node.OnlyFor.Has(workload.Name) && !schedulableControlPlane {
		return false
	}

	servicesOnNode := nodeServiceSet(node, world)
	if candidate.Avoid.HasAny(toSlice(servicesOnNode)...) {
		return false
	}
	for _, existingID := range node.Services {
		if existing, ok := world.ServicesByID[existingID]; ok && existing.Avoid.Has(candidate.ID) {
			return false
		}
	}

	// ControlPlaneReserved is carried on Node as output metadata only: a
	// control-plane node's reservation is already reflected in capacity by
	// whatever explicit control-plane services get placed on it, so it is
	// never subtracted again here.
	bundle := coRunners(candidate, world)
	requirement := resources.Total(bundle)
	current := resources.Total(servicesOfNode(node, world))
	overhead := resources.KubeletOverhead(node.CPU, node.Memory)
	capacity := resources.NodeCapacity{CPU: node.CPU, Memory: node.Memory, MaxDisks: node.MaxDisks}
	return resources.CanSupport(requirement, current, overhead, capacity)
}

func nodeServiceSet(node v1alpha1.Node, world World) map[string]struct{} {
	set := make(map[string]struct{}, len(node.Services))
	for _, id := range node.Services {
		set[id] = struct{}{}
	}
	return set
}

func toSlice(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

func servicesOfNode(node v1alpha1.Node, world World) []v1alpha1.Service {
	out := make([]v1alpha1.Service, 0, len(node.Services))
	for _, id := range node.Services {
		if s, ok := world.ServicesByID[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// coRunners returns candidate plus every service it must be co-placed
// with (its RunsWith closure among services known to this world), used to
// size a placement atomically.
func coRunners(candidate v1alpha1.Service, world World) []v1alpha1.Service {
	all := make([]v1alpha1.Service, 0, len(world.ServicesByID))
	for _, s := range world.ServicesByID {
		all = append(all, s)
	}
	for _, bundle := range Bundles(all) {
		for _, s := range bundle {
			if s.ID == candidate.ID {
				return bundle
			}
		}
	}
	return []v1alpha1.Service{candidate}
}

// GetMachineSetForWorkload chooses the MachineSet a new node should be
// created from, in fallback order: (a) dedicated onlyFor match, (b) first
// of usesMachines, (c) first non-controlPlane, (d) first overall.
func GetMachineSetForWorkload(workload v1alpha1.Workload, machineSets []v1alpha1.MachineSet) (v1alpha1.MachineSet, bool) {
	for _, ms := range machineSets {
		if ms.OnlyFor.Has(workload.Name) {
			return ms, true
		}
	}
	if workload.UsesMachines.Len() > 0 {
		for _, ms := range machineSets {
			if workload.UsesMachines.Has(ms.Name) {
				return ms, true
			}
		}
	}
	for _, ms := range machineSets {
		if !v1alpha1.IsControlPlaneMachineSet(ms.Name) {
			return ms, true
		}
	}
	if len(machineSets) > 0 {
		return machineSets[0], true
	}
	return v1alpha1.MachineSet{}, false
}

// NewNode creates a Node from a MachineSet, initializing IsControlPlane,
// AllowWorkloadScheduling and ControlPlaneReserved.
func NewNode(id string, ms v1alpha1.MachineSet) v1alpha1.Node {
	n := v1alpha1.Node{
		ID:                      id,
		MachineSet:              ms.Name,
		CPU:                     ms.CPU,
		Memory:                  ms.Memory,
		MaxDisks:                ms.NumberOfDisks,
		InstanceName:            ms.InstanceName,
		OnlyFor:                 ms.OnlyFor,
		IsControlPlane:          v1alpha1.IsControlPlaneMachineSet(ms.Name),
		AllowWorkloadScheduling: ms.AllowWorkloadScheduling,
	}
	if n.IsControlPlane {
		if ms.ControlPlaneReserved != nil {
			n.ControlPlaneReserved = *ms.ControlPlaneReserved
		} else {
			n.ControlPlaneReserved = v1alpha1.DefaultControlPlaneReservation
		}
	}
	return n
}
