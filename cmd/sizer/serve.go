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

package main

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/openshift/cluster-sizer/internal/httpapi"
	"github.com/openshift/cluster-sizer/pkg/overcommit"
)

func newServeCommand() *cobra.Command {
	var (
		addr        string
		development bool
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the POST /size/custom HTTP façade and a Prometheus /metrics endpoint",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(addr, development)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", ":8080", "address to listen on")
	cmd.Flags().BoolVar(&development, "development", false, "use zap's development logger")
	return cmd
}

func runServe(addr string, development bool) error {
	logger, err := newLogger(development)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	sugar := logger.Sugar()

	registry := prometheus.NewRegistry()
	overcommit.MustRegister(registry)

	mux := httpapi.NewHandler(sugar).Mux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	sugar.Infow("listening", "addr", addr)
	return http.ListenAndServe(addr, withLogging(sugar, mux))
}

func withLogging(log *zap.SugaredLogger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debugw("request", "method", r.Method, "path", r.URL.Path)
		next.ServeHTTP(w, r)
	})
}
