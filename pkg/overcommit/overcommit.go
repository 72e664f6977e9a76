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

// Package overcommit computes per-node and cluster-wide requested/limit
// accounting and risk-level reporting.
package overcommit

import (
	v1alpha1 "github.com/openshift/cluster-sizer/pkg/apis/v1alpha1"
	"github.com/openshift/cluster-sizer/pkg/resources"
)

// RiskLevel categorizes the worst-case limits-to-allocatable ratio.
type RiskLevel string

const (
	RiskNone   RiskLevel = "none"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Report is the limit/ratio/risk summary for either a single node or the
// whole cluster.
type Report struct {
	RequestedCPU    float64
	RequestedMemory float64
	LimitCPU        v1alpha1.LimitValue
	LimitMemory     v1alpha1.LimitValue
	RatioCPU        v1alpha1.LimitValue
	RatioMemory     v1alpha1.LimitValue
	Risk            RiskLevel
}

// ForNode computes the over-commit report for a single node given the
// services placed on it.
func ForNode(node v1alpha1.Node, services []v1alpha1.Service) Report {
	return compute(services, resources.Usage{CPU: node.CPU, Memory: node.Memory}, resources.KubeletOverhead(node.CPU, node.Memory))
}

// ForCluster computes the over-commit report across the whole sizing
// result: each service's requests/limits are multiplied by its placement
// count (how many node.Services lists it appears in) before the same
// ranges-vs-scalars and risk rules are applied against total allocatable
// capacity.
func ForCluster(nodes []v1alpha1.Node, services map[string]v1alpha1.Service) Report {
	counts := placementCounts(nodes)
	expanded := make([]v1alpha1.Service, 0, len(counts))
	for id, count := range counts {
		svc, ok := services[id]
		if !ok {
			continue
		}
		for i := 0; i < count; i++ {
			expanded = append(expanded, svc)
		}
	}

	var totalCapacity, totalOverhead resources.Usage
	for _, n := range nodes {
		totalCapacity = totalCapacity.Add(resources.Usage{CPU: n.CPU, Memory: n.Memory})
		totalOverhead = totalOverhead.Add(resources.KubeletOverhead(n.CPU, n.Memory))
	}
	return compute(expanded, totalCapacity, totalOverhead)
}

func placementCounts(nodes []v1alpha1.Node) map[string]int {
	counts := map[string]int{}
	for _, n := range nodes {
		for _, id := range n.Services {
			counts[id]++
		}
	}
	return counts
}

func compute(services []v1alpha1.Service, capacity, overhead resources.Usage) Report {
	req := resources.Total(services)

	dynamic := false
	for _, s := range services {
		if s.Limits.IsDynamic() {
			dynamic = true
			break
		}
	}

	var limitCPU, limitMemory v1alpha1.LimitValue
	if dynamic {
		var minCPU, maxCPU, minMem, maxMem float64
		for _, s := range services {
			minCPU += deref(s.Limits.MinLimitCPU, deref(s.Limits.LimitCPU, s.RequiredCPU))
			maxCPU += deref(s.Limits.MaxLimitCPU, deref(s.Limits.LimitCPU, s.RequiredCPU))
			minMem += deref(s.Limits.MinLimitMemory, deref(s.Limits.LimitMemory, s.RequiredMemory))
			maxMem += deref(s.Limits.MaxLimitMemory, deref(s.Limits.LimitMemory, s.RequiredMemory))
		}
		limitCPU = v1alpha1.Range(minCPU, maxCPU)
		limitMemory = v1alpha1.Range(minMem, maxMem)
	} else {
		var cpu, mem float64
		for _, s := range services {
			cpu += deref(s.Limits.LimitCPU, s.RequiredCPU)
			mem += deref(s.Limits.LimitMemory, s.RequiredMemory)
		}
		limitCPU = v1alpha1.Scalar(cpu)
		limitMemory = v1alpha1.Scalar(mem)
	}

	availableCPU := capacity.CPU - overhead.CPU
	availableMemory := capacity.Memory - overhead.Memory
	ratioCPU := limitCPU.Div(v1alpha1.Scalar(availableCPU))
	ratioMemory := limitMemory.Div(v1alpha1.Scalar(availableMemory))

	return Report{
		RequestedCPU:    req.CPU,
		RequestedMemory: req.Memory,
		LimitCPU:        limitCPU,
		LimitMemory:     limitMemory,
		RatioCPU:        ratioCPU,
		RatioMemory:     ratioMemory,
		Risk:            riskFor(max(ratioCPU.Max, ratioMemory.Max)),
	}
}

func riskFor(maxRatio float64) RiskLevel {
	switch {
	case maxRatio <= 1.0:
		return RiskNone
	case maxRatio <= 2.0:
		return RiskLow
	case maxRatio <= 4.0:
		return RiskMedium
	default:
		return RiskHigh
	}
}

func deref(v *float64, fallback float64) float64 {
	if v == nil {
		return fallback
	}
	return *v
}
