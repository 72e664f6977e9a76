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

package v1alpha1

import "strings"

// Platform identifies the target infrastructure a cluster is sized for.
type Platform string

const (
	PlatformBareMetal  Platform = "BAREMETAL"
	PlatformGCP        Platform = "GCP"
	PlatformAzure      Platform = "AZURE"
	PlatformVMware     Platform = "VMware"
	PlatformRHV        Platform = "RHV"
	PlatformAWS        Platform = "AWS"
	PlatformIBMClassic Platform = "IBM-Classic"
	PlatformIBMVPC     Platform = "IBM-VPC"
)

// Normalize upper-cases platform for case-insensitive lookups while
// leaving the canonical constants (which carry mixed case, e.g. "VMware")
// as the values actually stored in catalogs.
func (p Platform) Normalize() string {
	return strings.ToUpper(strings.TrimSpace(string(p)))
}

// Instance is the shape a platform catalog hands back for one machine type.
// The core treats a catalog as an opaque collaborator; Instance only exists
// so pkg/platform and pkg/sizing have a common type to pass across that
// boundary.
type Instance struct {
	Name            string  `json:"name"`
	Memory          float64 `json:"memory"`
	CPUUnits        float64 `json:"cpuUnits"`
	InstanceStorage float64 `json:"instanceStorage,omitempty"`
	StorageType     string  `json:"storageType,omitempty"`
	MaxDisks        int     `json:"maxDisks,omitempty"`
	Default         bool    `json:"default,omitempty"`
	ControlPlane    bool    `json:"controlPlane,omitempty"`
	ODFDefault      bool    `json:"odfDefault,omitempty"`
}
