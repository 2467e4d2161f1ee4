// Copyright 2020-2021 Dolthub, Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package sqlc

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dolthub/go-query-compiler/sql/analyzer"
)

var (
	planCacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sqlc_plan_cache_hits_total",
		Help: "Number of compilations answered from the plan cache.",
	})
	planCacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sqlc_plan_cache_misses_total",
		Help: "Number of cacheable compilations not found in the plan cache.",
	})
	compileSeconds = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "sqlc_compile_seconds",
		Help:    "Time spent compiling statements.",
		Buckets: prometheus.ExponentialBuckets(0.0001, 4, 10),
	}, []string{"phase"})
)

// RegisterMetrics registers the engine and analyzer metrics with r.
func RegisterMetrics(r prometheus.Registerer) error {
	for _, c := range []prometheus.Collector{planCacheHits, planCacheMisses, compileSeconds} {
		if err := r.Register(c); err != nil {
			return err
		}
	}
	return analyzer.RegisterMetrics(r)
}
