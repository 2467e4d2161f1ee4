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

package analyzer

import "github.com/prometheus/client_golang/prometheus"

var rewrites = prometheus.NewCounterVec(prometheus.CounterOpts{
	Name: "sqlc_rewrites_total",
	Help: "Number of times an analyzer rule changed a query tree.",
}, []string{"rule"})

// RegisterMetrics registers the analyzer metrics with r.
func RegisterMetrics(r prometheus.Registerer) error {
	return r.Register(rewrites)
}
