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

// Package resources sums service requests, computes kubelet overhead, and
// tests node capacity feasibility. Requests (not limits) drive scheduling;
// limits are only consumed by pkg/overcommit.
package resources

import (
	"strings"

	v1alpha1 "github.com/openshift/cluster-sizer/pkg/apis/v1alpha1"
)

// cephOSDMarker is the case-sensitive substring that causes a service to
// consume a disk slot on its node.
const cephOSDMarker = "Ceph_OSD"

// Usage is a resource tuple: cpu cores, memory in GB, disk slots.
type Usage struct {
	CPU    float64
	Memory float64
	Disks  int
}

// Add returns the element-wise sum of u and o.
func (u Usage) Add(o Usage) Usage {
	return Usage{CPU: u.CPU + o.CPU, Memory: u.Memory + o.Memory, Disks: u.Disks + o.Disks}
}

// Total sums the required cpu/memory of services and counts disk-bearing
// services.
func Total(services []v1alpha1.Service) Usage {
	var u Usage
	for _, s := range services {
		u.CPU += s.RequiredCPU
		u.Memory += s.RequiredMemory
		if strings.Contains(s.Name, cephOSDMarker) {
			u.Disks++
		}
	}
	return u
}

// NodeCapacity is the subset of Node/MachineSet fields capacity checks
// need, so resource accounting can be exercised against either a candidate
// MachineSet or a live Node without those packages importing each other.
type NodeCapacity struct {
	CPU      float64
	Memory   float64
	MaxDisks int
}

// CanSupport reports whether requirement can be added on top of
// currentUsage, given kubelet's overhead, without exceeding capacity.
func CanSupport(requirement, currentUsage Usage, overhead Usage, capacity NodeCapacity) bool {
	if requirement.CPU+currentUsage.CPU+overhead.CPU > capacity.CPU {
		return false
	}
	if requirement.Memory+currentUsage.Memory+overhead.Memory > capacity.Memory {
		return false
	}
	if requirement.Disks+currentUsage.Disks > capacity.MaxDisks {
		return false
	}
	return true
}
