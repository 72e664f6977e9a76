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

// Package httpapi is a thin HTTP façade: request parsing, JSON shape and
// status codes for POST /size/custom. It holds no scheduling logic of its
// own - every decision is delegated to pkg/sizing.
package httpapi

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"

	v1alpha1 "github.com/openshift/cluster-sizer/pkg/apis/v1alpha1"
	"github.com/openshift/cluster-sizer/pkg/overcommit"
	"github.com/openshift/cluster-sizer/pkg/sizing"
)

// customSizeRequest is the wire shape of the POST /size/custom request body.
type customSizeRequest struct {
	Platform    v1alpha1.Platform           `json:"platform"`
	MachineSets []v1alpha1.MachineSet       `json:"machineSets,omitempty"`
	Workloads   []sizing.WorkloadDescriptor `json:"workloads"`
	Detailed    bool                        `json:"detailed,omitempty"`
}

// envelope is the {success, data|error} response shape.
type envelope struct {
	Success bool                    `json:"success"`
	Data    *v1alpha1.ClusterSizing `json:"data,omitempty"`
	Error   *errorBody              `json:"error,omitempty"`
}

type errorBody struct {
	Message string `json:"message"`
}

// Handler serves POST /size/custom.
type Handler struct {
	Log *zap.SugaredLogger
}

// NewHandler constructs a Handler, defaulting to a no-op logger.
func NewHandler(log *zap.SugaredLogger) *Handler {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Handler{Log: log}
}

func (h *Handler) Mux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/size/custom", h.handleSizeCustom)
	return mux
}

func (h *Handler) handleSizeCustom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	var req customSizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "decoding request body: "+err.Error())
		return
	}
	if req.Platform == "" {
		writeError(w, http.StatusBadRequest, "platform is required")
		return
	}
	if len(req.Workloads) == 0 {
		writeError(w, http.StatusBadRequest, "workloads must be non-empty")
		return
	}

	result, err := sizing.Size(sizing.Request{
		Platform:    req.Platform,
		MachineSets: req.MachineSets,
		Workloads:   req.Workloads,
	}, sizing.Options{Log: h.Log})
	if err != nil {
		h.Log.Warnw("sizing request failed", "platform", req.Platform, "error", err)
		// Every failure out of the scheduling pipeline - not just
		// feasibility errors - surfaces as 500 here; only the request-shape
		// checks above (missing platform, empty workloads) are 400.
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	h.observeOverCommit(result)

	if !req.Detailed {
		result.Services = nil
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: &result})
}

// observeOverCommit recomputes over-commit reports for the final sizing
// state and republishes the per-node and cluster-wide risk gauges, so
// /metrics always reflects the most recently computed plan.
func (h *Handler) observeOverCommit(result v1alpha1.ClusterSizing) {
	services := make(map[string]v1alpha1.Service, len(result.Services))
	for _, s := range result.Services {
		services[s.ID] = s
	}
	for _, node := range result.Nodes {
		nodeServices := make([]v1alpha1.Service, 0, len(node.Services))
		for _, id := range node.Services {
			if s, ok := services[id]; ok {
				nodeServices = append(nodeServices, s)
			}
		}
		overcommit.ForNode(node, nodeServices).ObserveNode(node.ID)
	}
	overcommit.ForCluster(result.Nodes, services).ObserveCluster()
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{Success: false, Error: &errorBody{Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
