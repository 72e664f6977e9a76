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

// Command sizer is the CLI entry point: it reads a JSON workload request,
// calls pkg/sizing.Size, and prints the resulting ClusterSizing as JSON.
// Errors are printed as plain text on stderr.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	v1alpha1 "github.com/openshift/cluster-sizer/pkg/apis/v1alpha1"
	"github.com/openshift/cluster-sizer/pkg/overcommit"
	"github.com/openshift/cluster-sizer/pkg/sizing"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "sizer",
		Short: "Compute a cluster sizing plan from a workload description",
	}
	root.AddCommand(newSizeCommand())
	root.AddCommand(newServeCommand())
	return root
}

func newSizeCommand() *cobra.Command {
	var (
		platform    string
		inputPath   string
		detailed    bool
		development bool
	)
	cmd := &cobra.Command{
		Use:   "size",
		Short: "Size a cluster for the workloads in --input against --platform",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSize(platform, inputPath, detailed, development)
		},
	}
	cmd.Flags().StringVar(&platform, "platform", "", "target platform (e.g. AWS, GCP, AZURE, BAREMETAL); required")
	cmd.Flags().StringVar(&inputPath, "input", "", "path to a JSON file with {machineSets?, workloads}; required")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include per-service placement detail in the output")
	cmd.Flags().BoolVar(&development, "development", false, "use zap's development logger (human-readable, debug level)")
	_ = cmd.MarkFlagRequired("platform")
	_ = cmd.MarkFlagRequired("input")
	return cmd
}

// sizeInput is the on-disk shape read by --input: a Request minus the
// platform field, which comes from --platform instead so the same file
// can be re-run against multiple platforms.
type sizeInput struct {
	MachineSets []v1alpha1.MachineSet       `json:"machineSets,omitempty"`
	Workloads   []sizing.WorkloadDescriptor `json:"workloads"`
}

func runSize(platform, inputPath string, detailed, development bool) error {
	raw, err := os.ReadFile(inputPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", inputPath, err)
	}
	var in sizeInput
	if err := json.Unmarshal(raw, &in); err != nil {
		return fmt.Errorf("parsing %s: %w", inputPath, err)
	}

	logger, err := newLogger(development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	result, err := sizing.Size(sizing.Request{
		Platform:    v1alpha1.Platform(platform),
		MachineSets: in.MachineSets,
		Workloads:   in.Workloads,
	}, sizing.Options{Log: logger.Sugar()})
	if err != nil {
		return err
	}

	out := sizeOutput{ClusterSizing: result}
	if detailed {
		out.OverCommit = clusterOverCommit(result)
	} else {
		result.Services = nil
		out.ClusterSizing = result
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// sizeOutput is the CLI's report shape: the plan itself plus, with
// --detailed, the cluster-wide over-commit summary - not part of the
// core's ClusterSizing contract, so it's kept as a CLI-local wrapper
// rather than a field on v1alpha1.ClusterSizing.
type sizeOutput struct {
	v1alpha1.ClusterSizing
	OverCommit *overcommit.Report `json:"overCommit,omitempty"`
}

func clusterOverCommit(result v1alpha1.ClusterSizing) *overcommit.Report {
	services := make(map[string]v1alpha1.Service, len(result.Services))
	for _, s := range result.Services {
		services[s.ID] = s
	}
	report := overcommit.ForCluster(result.Nodes, services)
	return &report
}

func newLogger(development bool) (*zap.Logger, error) {
	if development {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
