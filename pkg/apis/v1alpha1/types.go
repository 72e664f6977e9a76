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

// Package v1alpha1 holds the entity model the sizing engine operates on:
// MachineSets, Services, Workloads and the Zones/Nodes the scheduler
// allocates for them.
package v1alpha1

import "k8s.io/apimachinery/pkg/util/sets"

// OverCommitMode controls how a Service's limits feed into over-commit reporting.
type OverCommitMode string

const (
	OverCommitStatic  OverCommitMode = "static"
	OverCommitDynamic OverCommitMode = "dynamic"
	OverCommitNone    OverCommitMode = "none"
)

// ControlPlaneReservation is the cpu/memory reservation recorded on a
// control-plane node. It is output metadata only: capacity checks do not
// subtract it from the node.
type ControlPlaneReservation struct {
	CPU    float64 `json:"cpu"`
	Memory float64 `json:"memory"`
}

// DefaultControlPlaneReservation is applied to a control-plane MachineSet
// that doesn't declare its own reservation.
var DefaultControlPlaneReservation = ControlPlaneReservation{CPU: 2, Memory: 4}

// MachineSet is an abstract description of a node type a cluster can be
// built from. Immutable once accepted as input.
type MachineSet struct {
	Name                    string                   `json:"name"`
	CPU                     float64                  `json:"cpu"`
	Memory                  float64                  `json:"memory"`
	InstanceName            string                   `json:"instanceName"`
	NumberOfDisks           int                      `json:"numberOfDisks"`
	OnlyFor                 sets.String              `json:"onlyFor,omitempty"`
	Label                   string                   `json:"label,omitempty"`
	AllowWorkloadScheduling bool                     `json:"allowWorkloadScheduling,omitempty"`
	ControlPlaneReserved    *ControlPlaneReservation `json:"controlPlaneReserved,omitempty"`
}

// IsControlPlaneMachineSet reports whether name identifies a control-plane
// MachineSet by exact name match. Kept as a standalone predicate (not a
// method) so the name-matching heuristic can be swapped out as policy later.
func IsControlPlaneMachineSet(name string) bool {
	return name == "controlPlane" || name == "control-plane"
}

// LimitSpec captures a Service's declared limits, in either fixed or
// dynamic-range form. See LimitValue in limit.go for the computed,
// scalar-or-range output shape.
type LimitSpec struct {
	LimitCPU    *float64 `json:"limitCPU,omitempty"`
	LimitMemory *float64 `json:"limitMemory,omitempty"`

	MinLimitCPU    *float64 `json:"minLimitCPU,omitempty"`
	MaxLimitCPU    *float64 `json:"maxLimitCPU,omitempty"`
	MinLimitMemory *float64 `json:"minLimitMemory,omitempty"`
	MaxLimitMemory *float64 `json:"maxLimitMemory,omitempty"`
}

// IsDynamic reports whether any of the min/max range fields are set.
func (l LimitSpec) IsDynamic() bool {
	return l.MinLimitCPU != nil || l.MaxLimitCPU != nil || l.MinLimitMemory != nil || l.MaxLimitMemory != nil
}

// Service is a schedulable unit: one container/pod archetype within a Workload.
type Service struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	RequiredCPU    float64        `json:"requiredCPU"`
	RequiredMemory float64        `json:"requiredMemory"`
	Limits         LimitSpec      `json:"limits,omitempty"`
	OverCommitMode OverCommitMode `json:"overCommitMode,omitempty"`
	Zones          int            `json:"zones"`
	RunsWith       sets.String    `json:"runsWith,omitempty"`
	Avoid          sets.String    `json:"avoid,omitempty"`
	OwnerReference string         `json:"ownerReference,omitempty"` // Workload id

	// Placed is populated by the scheduler as the service is bound to zones;
	// it is not part of the input contract.
	Placed bool `json:"placed"`
}

// Workload is a named bundle of Services owned by a user-level unit.
type Workload struct {
	ID                  string      `json:"id"`
	Name                string      `json:"name"`
	Count               int         `json:"count,omitempty"`
	UsesMachines        sets.String `json:"usesMachines,omitempty"`
	Services            []string    `json:"services,omitempty"` // Service ids, ordered
	AllowControlPlane   bool        `json:"allowControlPlane,omitempty"`
	RequireControlPlane bool        `json:"requireControlPlane,omitempty"`
}

// Node is an allocated machine instance.
type Node struct {
	ID                      string                  `json:"id"`
	MachineSet              string                  `json:"machineSet"`
	CPU                     float64                 `json:"cpuUnits"`
	Memory                  float64                 `json:"memory"`
	MaxDisks                int                     `json:"maxDisks"`
	InstanceName            string                  `json:"instanceName"`
	OnlyFor                 sets.String             `json:"onlyFor,omitempty"`
	Services                []string                `json:"services,omitempty"` // Service ids placed here, in placement order
	IsControlPlane          bool                    `json:"isControlPlane,omitempty"`
	AllowWorkloadScheduling bool                    `json:"allowWorkloadScheduling,omitempty"`
	ControlPlaneReserved    ControlPlaneReservation `json:"controlPlaneReserved,omitempty"`
}

// Zone is a failure domain; a Zone owns zero or more Nodes.
type Zone struct {
	ID    string   `json:"id"`
	Nodes []string `json:"nodes,omitempty"` // Node ids
}

// ClusterSizing is the result the sizing facade hands back to callers.
type ClusterSizing struct {
	NodeCount   int       `json:"nodeCount"`
	Zones       int       `json:"zones"`
	TotalCPU    float64   `json:"totalCPU"`
	TotalMemory float64   `json:"totalMemory"`
	Nodes       []Node    `json:"nodes"`
	ZoneDetails []Zone    `json:"zoneDetails"`
	Services    []Service `json:"services"`
}
