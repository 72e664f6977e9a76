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

package overcommit

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Namespace is the Prometheus namespace every metric in this package is
// registered under.
const Namespace = "cluster_sizer"

var (
	// NodeRiskGauge reports, per node, the max ratio overcommit.ForNode
	// computed for it, so a caller can alert on drift between sizing runs
	// instead of only reading the one-shot JSON report.
	NodeRiskGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "node",
			Name:      "overcommit_ratio",
			Help:      "Maximum CPU/memory over-commit ratio for a node, from the last sizing run.",
		},
		[]string{"node", "risk"},
	)

	ClusterRiskGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: Namespace,
			Subsystem: "cluster",
			Name:      "overcommit_ratio",
			Help:      "Maximum CPU/memory over-commit ratio across the whole cluster, from the last sizing run.",
		},
		[]string{"risk"},
	)
)

// MustRegister registers this package's collectors with reg.
func MustRegister(reg *prometheus.Registry) {
	reg.MustRegister(NodeRiskGauge, ClusterRiskGauge)
}

// observe publishes a Report's worst-case ratio under the given labels.
func (r Report) observe(gauge *prometheus.GaugeVec, labels prometheus.Labels) {
	ratio := r.RatioCPU.Max
	if r.RatioMemory.Max > ratio {
		ratio = r.RatioMemory.Max
	}
	labels["risk"] = string(r.Risk)
	gauge.With(labels).Set(ratio)
}

// ObserveNode records a per-node report against NodeRiskGauge.
func (r Report) ObserveNode(nodeID string) {
	r.observe(NodeRiskGauge, prometheus.Labels{"node": nodeID})
}

// ObserveCluster records the cluster-wide report against ClusterRiskGauge.
func (r Report) ObserveCluster() {
	r.observe(ClusterRiskGauge, prometheus.Labels{})
}
