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

// Package platform is an opaque, per-platform instance catalog external
// to the sizing core - it does no feasibility analysis of its own, it
// only hands back the Instance rows a platform's JSON file declares.
package platform

import (
	"embed"
	"encoding/json"
	"fmt"
	"sync"

	v1alpha1 "github.com/openshift/cluster-sizer/pkg/apis/v1alpha1"
)

//go:embed catalogs/*.json
var catalogFS embed.FS

var catalogFiles = map[string]string{
	"BAREMETAL":   "catalogs/aws.json", // no distinct bare-metal catalog shipped; falls through to AWS sizing like an unknown platform
	"GCP":         "catalogs/gcp.json",
	"AZURE":       "catalogs/azure.json",
	"VMWARE":      "catalogs/vmware.json",
	"RHV":         "catalogs/rhv.json",
	"AWS":         "catalogs/aws.json",
	"IBM-CLASSIC": "catalogs/ibm-classic.json",
	"IBM-VPC":     "catalogs/ibm-vpc.json",
}

const fallbackCatalog = "catalogs/aws.json"

var (
	mu    sync.Mutex
	cache = map[string][]v1alpha1.Instance{}
)

// GetInstancesForPlatform returns every Instance declared for platform,
// falling back to the AWS catalog for unrecognized platform names.
func GetInstancesForPlatform(p v1alpha1.Platform) ([]v1alpha1.Instance, error) {
	key := p.Normalize()
	mu.Lock()
	if cached, ok := cache[key]; ok {
		mu.Unlock()
		return cached, nil
	}
	mu.Unlock()

	file, ok := catalogFiles[key]
	if !ok {
		file = fallbackCatalog
	}
	raw, err := catalogFS.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("platform catalog %q: %w", file, err)
	}
	var instances []v1alpha1.Instance
	if err := json.Unmarshal(raw, &instances); err != nil {
		return nil, fmt.Errorf("platform catalog %q: invalid JSON: %w", file, err)
	}

	mu.Lock()
	cache[key] = instances
	mu.Unlock()
	return instances, nil
}

// GetDefaultInstanceForPlatform returns the instance marked `default` in
// platform's catalog, or the first entry if none is marked.
func GetDefaultInstanceForPlatform(p v1alpha1.Platform) (v1alpha1.Instance, error) {
	instances, err := GetInstancesForPlatform(p)
	if err != nil {
		return v1alpha1.Instance{}, err
	}
	if len(instances) == 0 {
		return v1alpha1.Instance{}, fmt.Errorf("platform %q: catalog is empty", p)
	}
	for _, inst := range instances {
		if inst.Default {
			return inst, nil
		}
	}
	return instances[0], nil
}
