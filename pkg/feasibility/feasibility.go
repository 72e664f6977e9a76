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

// Package feasibility decides, per workload, which MachineSets could host
// its heaviest co-placed bundle before the scheduler commits to anything.
package feasibility

import (
	"fmt"
	"math"
	"sort"

	"github.com/samber/lo"
	"go.uber.org/multierr"

	v1alpha1 "github.com/openshift/cluster-sizer/pkg/apis/v1alpha1"
	"github.com/openshift/cluster-sizer/pkg/resources"
	"github.com/openshift/cluster-sizer/pkg/scheduling"
)

// Candidates selects the MachineSets eligible for a workload, following a
// fixed priority order: explicit usesMachines, then dedicated onlyFor
// MachineSets, then every remaining MachineSet not restricted away.
func Candidates(workload v1alpha1.Workload, machineSets []v1alpha1.MachineSet) []v1alpha1.MachineSet {
	if workload.UsesMachines.Len() > 0 {
		return lo.Filter(machineSets, func(ms v1alpha1.MachineSet, _ int) bool {
			return workload.UsesMachines.Has(ms.Name)
		})
	}
	if dedicated := lo.Filter(machineSets, func(ms v1alpha1.MachineSet, _ int) bool {
		return ms.OnlyFor.Has(workload.Name)
	}); len(dedicated) > 0 {
		return dedicated
	}
	return lo.Filter(machineSets, func(ms v1alpha1.MachineSet, _ int) bool {
		if ms.OnlyFor.Len() > 0 && !ms.OnlyFor.Has(workload.Name) {
			return false
		}
		if v1alpha1.IsControlPlaneMachineSet(ms.Name) && !ms.AllowWorkloadScheduling {
			return false
		}
		return true
	})
}

// Analyze reports whether workload is schedulable onto at least one
// MachineSet and returns the surviving candidates.
func Analyze(workload v1alpha1.Workload, services []v1alpha1.Service, machineSets []v1alpha1.MachineSet) ([]v1alpha1.MachineSet, error) {
	wSvcs := servicesForWorkload(workload, services)
	bundles := scheduling.Bundles(wSvcs)

	sort.SliceStable(bundles, func(i, j int) bool {
		return weight(bundles[i]) > weight(bundles[j])
	})

	candidates := Candidates(workload, machineSets)
	var survivors []v1alpha1.MachineSet
	var errs error
	for _, ms := range candidates {
		if fits, err := fitsAllBundles(ms, bundles); fits {
			survivors = append(survivors, ms)
		} else {
			errs = multierr.Append(errs, err)
		}
	}
	if len(survivors) > 0 {
		return survivors, nil
	}

	target := "none"
	if len(candidates) > 0 {
		target = candidates[0].Name
	}
	heaviest := bundles
	if len(heaviest) > 0 {
		minCPU, minMem := minimumViableSize(heaviest[0])
		return nil, fmt.Errorf("workload %q is not schedulable: no MachineSet (target %q) can host its heaviest bundle; "+
			"minimum viable MachineSet size is cpu=%g, memory=%g: %w", workload.Name, target, minCPU, minMem, errs)
	}
	return nil, fmt.Errorf("workload %q is not schedulable: no candidate MachineSets (target %q): %w", workload.Name, target, errs)
}

func servicesForWorkload(workload v1alpha1.Workload, all []v1alpha1.Service) []v1alpha1.Service {
	ids := lo.SliceToMap(workload.Services, func(id string) (string, struct{}) { return id, struct{}{} })
	return lo.Filter(all, func(s v1alpha1.Service, _ int) bool {
		_, ok := ids[s.ID]
		return ok
	})
}

func weight(bundle []v1alpha1.Service) float64 {
	u := resources.Total(bundle)
	return u.CPU + u.Memory
}

func fitsAllBundles(ms v1alpha1.MachineSet, bundles [][]v1alpha1.Service) (bool, error) {
	for _, bundle := range bundles {
		req := resources.Total(bundle)
		overhead := resources.KubeletOverhead(ms.CPU, ms.Memory)
		if req.CPU+overhead.CPU > ms.CPU {
			return false, fmt.Errorf("MachineSet %q: bundle requires %g cpu, only %g available after overhead", ms.Name, req.CPU, ms.CPU-overhead.CPU)
		}
		if req.Memory+overhead.Memory > ms.Memory {
			return false, fmt.Errorf("MachineSet %q: bundle requires %g memory, only %g available after overhead", ms.Name, req.Memory, ms.Memory-overhead.Memory)
		}
		if req.Disks > ms.NumberOfDisks {
			return false, fmt.Errorf("MachineSet %q: bundle requires %d disks, only %d available", ms.Name, req.Disks, ms.NumberOfDisks)
		}
	}
	return true, nil
}

// minimumViableSize computes the minimum viable MachineSet size for a
// bundle that could not be scheduled.
func minimumViableSize(bundle []v1alpha1.Service) (cpu, mem float64) {
	req := resources.Total(bundle)
	// Overhead at an arbitrarily small node converges quickly; use the
	// requirement itself as a stand-in capacity to estimate overhead, since
	// the formula only needs an order-of-magnitude kubelet reservation.
	overhead := resources.KubeletOverhead(req.CPU, req.Memory)
	minCPU := math.Min(200, math.Ceil((req.CPU+overhead.CPU)/2)*2)
	minMem := math.Min(512, math.Ceil((req.Memory+overhead.Memory)/4)*4)
	return minCPU, minMem
}
