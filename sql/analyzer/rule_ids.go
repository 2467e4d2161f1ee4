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

import "fmt"

// RuleId identifies an analyzer rule in logs, spans and metrics.
type RuleId int

const (
	// bind
	bindId RuleId = iota // bind

	// preprocess
	preprocessId // preprocess

	// outer joins
	transformOuterJoinsId // transformOuterJoins
	reorderOuterJoinsId   // reorderOuterJoins

	// unions
	normalizeUnionsId    // normalizeUnions
	avoidDistinctSortsId // avoidDistinctSorts

	// pushdown
	pushdownFiltersId     // pushdownFilters
	pushdownJoinFiltersId // pushdownJoinFilters

	// optimize
	resubstituteProbesId // resubstituteProbes
	optimizeJoinsId      // optimizeJoins

	// post-optimize
	considerMinMaxId     // considerMinMax
	revertUnusedProbesId // revertUnusedProbes
	restoreColumnOrderId // restoreColumnOrder
	fixFieldIndexesId    // fixFieldIndexes

	// FirstCustomRuleId is the first id free for rules added through the
	// Builder.
	FirstCustomRuleId RuleId = 1000
)

var ruleNames = map[RuleId]string{
	bindId:                "bind",
	preprocessId:          "preprocess",
	transformOuterJoinsId: "transformOuterJoins",
	reorderOuterJoinsId:   "reorderOuterJoins",
	normalizeUnionsId:     "normalizeUnions",
	avoidDistinctSortsId:  "avoidDistinctSorts",
	pushdownFiltersId:     "pushdownFilters",
	pushdownJoinFiltersId: "pushdownJoinFilters",
	resubstituteProbesId:  "resubstituteProbes",
	optimizeJoinsId:       "optimizeJoins",
	considerMinMaxId:      "considerMinMax",
	revertUnusedProbesId:  "revertUnusedProbes",
	restoreColumnOrderId:  "restoreColumnOrder",
	fixFieldIndexesId:     "fixFieldIndexes",
}

func (r RuleId) String() string {
	if n, ok := ruleNames[r]; ok {
		return n
	}
	return fmt.Sprintf("rule%d", int(r))
}
