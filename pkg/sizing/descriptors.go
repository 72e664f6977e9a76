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

package sizing

import (
	"fmt"

	"k8s.io/apimachinery/pkg/util/sets"

	"github.com/openshift/cluster-sizer/internal/idgen"
	v1alpha1 "github.com/openshift/cluster-sizer/pkg/apis/v1alpha1"
)

// ServiceDescriptor is the caller-facing (name-addressed) shape of a
// Service, before ids are assigned. runsWith/avoid name sibling services
// within the same WorkloadDescriptor by name, not id.
type ServiceDescriptor struct {
	Name           string                 `json:"name" validate:"required"`
	RequiredCPU    float64                `json:"requiredCPU" validate:"gte=0"`
	RequiredMemory float64                `json:"requiredMemory" validate:"gte=0"`
	LimitCPU       *float64               `json:"limitCPU,omitempty"`
	LimitMemory    *float64               `json:"limitMemory,omitempty"`
	MinLimitCPU    *float64               `json:"minLimitCPU,omitempty"`
	MaxLimitCPU    *float64               `json:"maxLimitCPU,omitempty"`
	MinLimitMemory *float64               `json:"minLimitMemory,omitempty"`
	MaxLimitMemory *float64               `json:"maxLimitMemory,omitempty"`
	OverCommitMode v1alpha1.OverCommitMode `json:"overCommitMode,omitempty"`
	Zones          int                     `json:"zones,omitempty"`
	RunsWith       []string                `json:"runsWith,omitempty"`
	Avoid          []string                `json:"avoid,omitempty"`
}

// WorkloadDescriptor is the caller-facing shape of a Workload, consumed by
// the facade's Size() entry point and expanded into v1alpha1.Workload /
// v1alpha1.Service values with freshly minted ids.
type WorkloadDescriptor struct {
	Name                string              `json:"name" validate:"required"`
	Count               int                 `json:"count,omitempty"`
	UsesMachines        []string            `json:"usesMachines,omitempty"`
	AllowControlPlane   bool                `json:"allowControlPlane,omitempty"`
	RequireControlPlane bool                `json:"requireControlPlane,omitempty"`
	Services            []ServiceDescriptor `json:"services" validate:"required,min=1,dive"`
}

// expandDescriptor turns a WorkloadDescriptor into a Workload plus its
// Services, minting fresh ids via alloc and resolving name-valued
// runsWith/avoid references into id sets.
func expandDescriptor(desc WorkloadDescriptor, alloc *idgen.Allocator) (v1alpha1.Workload, []v1alpha1.Service, error) {
	zones := 1
	if desc.Count > 1 {
		zones = desc.Count
	}

	byName := make(map[string]string, len(desc.Services)) // service name -> id
	services := make([]v1alpha1.Service, 0, len(desc.Services))
	workload := v1alpha1.Workload{
		ID:                  alloc.NextWorkloadID(),
		Name:                desc.Name,
		Count:               desc.Count,
		UsesMachines:        sets.NewString(desc.UsesMachines...),
		AllowControlPlane:   desc.AllowControlPlane,
		RequireControlPlane: desc.RequireControlPlane,
	}

	for _, sd := range desc.Services {
		if err := validateLimits(sd); err != nil {
			return workload, nil, fmt.Errorf("workload %q service %q: %w", desc.Name, sd.Name, err)
		}
		id := alloc.NextServiceID()
		byName[sd.Name] = id
		// When count > 1, every service's zones is unconditionally
		// overwritten to count: each replica fans out to its own zone,
		// discarding whatever the descriptor set explicitly (see
		// DESIGN.md). Otherwise an unset zones defaults to 1.
		svcZones := sd.Zones
		switch {
		case desc.Count > 1:
			svcZones = zones
		case svcZones == 0:
			svcZones = zones
		}
		services = append(services, v1alpha1.Service{
			ID:             id,
			Name:           sd.Name,
			RequiredCPU:    sd.RequiredCPU,
			RequiredMemory: sd.RequiredMemory,
			Limits: v1alpha1.LimitSpec{
				LimitCPU:       sd.LimitCPU,
				LimitMemory:    sd.LimitMemory,
				MinLimitCPU:    sd.MinLimitCPU,
				MaxLimitCPU:    sd.MaxLimitCPU,
				MinLimitMemory: sd.MinLimitMemory,
				MaxLimitMemory: sd.MaxLimitMemory,
			},
			OverCommitMode: sd.OverCommitMode,
			Zones:          svcZones,
			OwnerReference: workload.ID,
		})
		workload.Services = append(workload.Services, id)
	}

	for i, sd := range desc.Services {
		runsWith, err := resolveNames(sd.RunsWith, byName)
		if err != nil {
			return workload, nil, fmt.Errorf("workload %q service %q: runsWith: %w", desc.Name, sd.Name, err)
		}
		avoid, err := resolveNames(sd.Avoid, byName)
		if err != nil {
			return workload, nil, fmt.Errorf("workload %q service %q: avoid: %w", desc.Name, sd.Name, err)
		}
		if runsWith.HasAny(avoid.List()...) {
			return workload, nil, fmt.Errorf("%w: service %q has overlapping runsWith/avoid", ErrInvalidInput, sd.Name)
		}
		if avoid.Has(services[i].ID) {
			return workload, nil, fmt.Errorf("%w: service %q avoids itself", ErrInvalidInput, sd.Name)
		}
		services[i].RunsWith = runsWith
		services[i].Avoid = avoid
	}

	return workload, services, nil
}

// validateLimits enforces that any declared limit is at least its request.
func validateLimits(sd ServiceDescriptor) error {
	check := func(limit *float64, request float64, field string) error {
		if limit != nil && *limit < request {
			return fmt.Errorf("%w: %s %g is below the request %g", ErrInvalidInput, field, *limit, request)
		}
		return nil
	}
	for _, c := range []struct {
		limit   *float64
		request float64
		field   string
	}{
		{sd.LimitCPU, sd.RequiredCPU, "limitCPU"},
		{sd.MinLimitCPU, sd.RequiredCPU, "minLimitCPU"},
		{sd.MaxLimitCPU, sd.RequiredCPU, "maxLimitCPU"},
		{sd.LimitMemory, sd.RequiredMemory, "limitMemory"},
		{sd.MinLimitMemory, sd.RequiredMemory, "minLimitMemory"},
		{sd.MaxLimitMemory, sd.RequiredMemory, "maxLimitMemory"},
	} {
		if err := check(c.limit, c.request, c.field); err != nil {
			return err
		}
	}
	return nil
}

func resolveNames(names []string, byName map[string]string) (sets.String, error) {
	out := sets.NewString()
	for _, name := range names {
		id, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown service name %q", ErrInvalidInput, name)
		}
		out.Insert(id)
	}
	return out, nil
}
