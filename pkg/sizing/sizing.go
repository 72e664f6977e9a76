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

// Package sizing is the top-level entry point: it expands
// WorkloadDescriptors into internal form, validates schedulability
// up-front, drives the scheduler for each workload, and assembles the
// ClusterSizing summary.
package sizing

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/openshift/cluster-sizer/internal/idgen"
	v1alpha1 "github.com/openshift/cluster-sizer/pkg/apis/v1alpha1"
	"github.com/openshift/cluster-sizer/pkg/feasibility"
	"github.com/openshift/cluster-sizer/pkg/platform"
	"github.com/openshift/cluster-sizer/pkg/scheduling"
)

var validate = validator.New()

// Request is the caller-facing input to Size, mirroring the HTTP request
// body (minus the HTTP envelope, which belongs to internal/httpapi).
type Request struct {
	Platform    v1alpha1.Platform     `json:"platform" validate:"required"`
	MachineSets []v1alpha1.MachineSet `json:"machineSets,omitempty"`
	Workloads   []WorkloadDescriptor  `json:"workloads" validate:"required,min=1,dive"`
}

// Options controls facade behavior that isn't part of the wire request,
// such as logging and id-prefix injection for reproducible test fixtures.
type Options struct {
	Log      *zap.SugaredLogger
	IDPrefix string
}

// Size is the primary entry point: it expands workloads, validates
// schedulability, schedules each workload in turn, and assembles the
// ClusterSizing summary.
func Size(req Request, opts Options) (v1alpha1.ClusterSizing, error) {
	if err := validate.Struct(req); err != nil {
		return v1alpha1.ClusterSizing{}, wrapError(KindInvalidInput, err, "invalid request")
	}

	log := opts.Log
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	machineSets, err := resolveMachineSets(req.Platform, req.MachineSets)
	if err != nil {
		return v1alpha1.ClusterSizing{}, wrapError(KindInternal, err, "resolving machine sets for platform %q", req.Platform)
	}

	alloc := idgen.New(opts.IDPrefix)

	services := map[string]v1alpha1.Service{}
	workloads := make([]v1alpha1.Workload, 0, len(req.Workloads))
	var serviceOrder []string
	for _, desc := range req.Workloads {
		workload, svcs, err := expandDescriptor(desc, alloc)
		if err != nil {
			return v1alpha1.ClusterSizing{}, wrapError(KindInvalidInput, err, "expanding workload %q", desc.Name)
		}
		workloads = append(workloads, workload)
		for _, s := range svcs {
			services[s.ID] = s
			serviceOrder = append(serviceOrder, s.ID)
		}
	}

	// Run feasibility on every workload up front; surface the first
	// failure rather than scheduling anything.
	orderedServices := serviceSlice(services, serviceOrder)
	for _, wl := range workloads {
		if _, err := feasibility.Analyze(wl, orderedServices, machineSets); err != nil {
			return v1alpha1.ClusterSizing{}, wrapError(KindNotSchedulable, err, "workload %q failed feasibility analysis", wl.Name)
		}
	}

	world := scheduling.World{
		ServicesByID:    services,
		WorkloadsByID:   indexWorkloads(workloads),
		MachineSetsByID: indexMachineSets(machineSets),
	}
	scheduler := &scheduling.Scheduler{
		Log:         log,
		Allocator:   alloc,
		World:       world,
		MachineSets: machineSets,
	}

	state := scheduling.State{Nodes: map[string]v1alpha1.Node{}}
	for _, wl := range workloads {
		var err error
		state, services, err = scheduler.Schedule(wl, services, state)
		if err != nil {
			return v1alpha1.ClusterSizing{}, wrapError(KindInternal, err, "scheduling workload %q", wl.Name)
		}
		log.Debugw("scheduled workload", "workload", wl.Name, "zones", len(state.Zones), "nodes", len(state.Nodes))
	}

	return assemble(state, services, serviceOrder), nil
}

func resolveMachineSets(p v1alpha1.Platform, provided []v1alpha1.MachineSet) ([]v1alpha1.MachineSet, error) {
	if len(provided) > 0 {
		for _, ms := range provided {
			if ms.CPU <= 0 || ms.Memory <= 0 || ms.NumberOfDisks < 0 {
				return nil, fmt.Errorf("%w: machine set %q has invalid capacity", ErrInvalidInput, ms.Name)
			}
		}
		return provided, nil
	}
	inst, err := platform.GetDefaultInstanceForPlatform(p)
	if err != nil {
		return nil, err
	}
	return []v1alpha1.MachineSet{instanceToMachineSet(inst)}, nil
}

func instanceToMachineSet(inst v1alpha1.Instance) v1alpha1.MachineSet {
	maxDisks := inst.MaxDisks
	if maxDisks == 0 {
		maxDisks = 1
	}
	return v1alpha1.MachineSet{
		Name:          "default",
		CPU:           inst.CPUUnits,
		Memory:        inst.Memory,
		InstanceName:  inst.Name,
		NumberOfDisks: maxDisks,
	}
}

func indexWorkloads(workloads []v1alpha1.Workload) map[string]v1alpha1.Workload {
	out := make(map[string]v1alpha1.Workload, len(workloads))
	for _, w := range workloads {
		out[w.ID] = w
	}
	return out
}

func indexMachineSets(machineSets []v1alpha1.MachineSet) map[string]v1alpha1.MachineSet {
	out := make(map[string]v1alpha1.MachineSet, len(machineSets))
	for _, ms := range machineSets {
		out[ms.Name] = ms
	}
	return out
}

// serviceSlice renders the service map as a slice in input order, so
// downstream consumers never observe map iteration order.
func serviceSlice(services map[string]v1alpha1.Service, order []string) []v1alpha1.Service {
	out := make([]v1alpha1.Service, 0, len(order))
	for _, id := range order {
		if s, ok := services[id]; ok {
			out = append(out, s)
		}
	}
	return out
}

// assemble builds the ClusterSizing summary from final scheduler state.
// Nodes and services are emitted in creation/input order (State.NodeOrder,
// serviceOrder) rather than map iteration order, so repeated runs of the
// same input produce byte-identical results.
func assemble(state scheduling.State, services map[string]v1alpha1.Service, serviceOrder []string) v1alpha1.ClusterSizing {
	nodes := make([]v1alpha1.Node, 0, len(state.NodeOrder))
	var totalCPU, totalMemory float64
	for _, id := range state.NodeOrder {
		n := state.Nodes[id]
		nodes = append(nodes, n)
		totalCPU += n.CPU
		totalMemory += n.Memory
	}
	svcs := make([]v1alpha1.Service, 0, len(serviceOrder))
	for _, id := range serviceOrder {
		svcs = append(svcs, services[id])
	}
	return v1alpha1.ClusterSizing{
		NodeCount:   len(nodes),
		Zones:       len(state.Zones),
		TotalCPU:    totalCPU,
		TotalMemory: totalMemory,
		Nodes:       nodes,
		ZoneDetails: state.Zones,
		Services:    svcs,
	}
}
