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

package plan

import (
	"fmt"
	"math"

	"github.com/dolthub/go-query-compiler/sql"
)

// JoinStrategy is the way rows of an optimizable are joined to the rows of
// the tables before it in the join order.
type JoinStrategy byte

const (
	// NoJoinStrategy marks an access path that was never set.
	NoJoinStrategy JoinStrategy = iota
	// NestedLoopJoin scans the optimizable once per outer row.
	NestedLoopJoin
	// HashJoin builds a hash table over the optimizable once and probes it
	// once per outer row.
	HashJoin
)

func (s JoinStrategy) String() string {
	switch s {
	case NestedLoopJoin:
		return "nested loop"
	case HashJoin:
		return "hash"
	default:
		return "none"
	}
}

// CostEstimate is the estimated cost of producing the rows of a plan and the
// estimated number of rows it produces.
type CostEstimate struct {
	Cost float64
	Rows float64
}

// MaxCost is a cost larger than the cost of any plan.
var MaxCost = CostEstimate{Cost: math.MaxFloat64, Rows: math.MaxFloat64}

// Less reports whether c is cheaper than o.
func (c CostEstimate) Less(o CostEstimate) bool {
	return c.Cost < o.Cost
}

func (c CostEstimate) String() string {
	return fmt.Sprintf("cost=%.2f rows=%.2f", c.Cost, c.Rows)
}

// AccessPath is a combination of join strategy and index choice for one
// optimizable, with its estimated cost.
type AccessPath struct {
	JoinStrategy JoinStrategy
	// Index is the index scanned, or nil for a table scan.
	Index *sql.IndexInfo
	Cost  CostEstimate
	// UsesProbePredicate is set when an IN list probe predicate is a start
	// and stop key of Index.
	UsesProbePredicate bool
	// Keys are the predicates used as start and stop keys of Index.
	Keys []sql.Expression
}

// IsSet reports whether the path holds a plan.
func (p *AccessPath) IsSet() bool {
	return p.JoinStrategy != NoJoinStrategy
}

// CopyFrom makes p a copy of o.
func (p *AccessPath) CopyFrom(o *AccessPath) {
	*p = *o
	p.Keys = append([]sql.Expression(nil), o.Keys...)
}

// Reset clears the path.
func (p *AccessPath) Reset() {
	*p = AccessPath{}
}

func (p *AccessPath) String() string {
	if !p.IsSet() {
		return "unset"
	}
	index := "table scan"
	if p.Index != nil {
		index = "index " + p.Index.Name
	}
	return fmt.Sprintf("%s, %s, %s", p.JoinStrategy, index, p.Cost)
}

// PlanType selects which best access path an optimizable remembers.
type PlanType byte

const (
	// NormalPlan is the cheapest plan ignoring row order.
	NormalPlan PlanType = iota
	// SortAvoidancePlan is the cheapest plan producing rows in the order
	// required by an ORDER BY, so that no sort is needed.
	SortAvoidancePlan
)

// AccessPathSet is the set of access paths an optimizable keeps while the
// optimizer explores join orders. Current is the path being costed.
// BestNormal and BestSortAvoidance are the cheapest paths found for the
// current join order position. TrulyTheBest is the path of the chosen plan.
type AccessPathSet struct {
	Current           AccessPath
	BestNormal        AccessPath
	BestSortAvoidance AccessPath
	TrulyTheBest      AccessPath
}

// ResetBest forgets the best paths found for a join order position.
func (s *AccessPathSet) ResetBest() {
	s.BestNormal.Reset()
	s.BestSortAvoidance.Reset()
}

// Best returns the best path of the given plan type.
func (s *AccessPathSet) Best(planType PlanType) *AccessPath {
	if planType == SortAvoidancePlan {
		return &s.BestSortAvoidance
	}
	return &s.BestNormal
}

// Consider remembers the current path as the best of the given plan type if
// it is cheaper than the best so far. It reports whether it was.
func (s *AccessPathSet) Consider(planType PlanType) bool {
	best := s.Best(planType)
	if best.IsSet() && !s.Current.Cost.Less(best.Cost) {
		return false
	}
	best.CopyFrom(&s.Current)
	return true
}

// Optimizable is a result producing node whose access path is chosen by the
// optimizer.
type Optimizable interface {
	TableNode
	// AccessPaths returns the access paths of the node.
	AccessPaths() *AccessPathSet
	// NextAccessPath sets the current access path to the next candidate and
	// reports whether there was one. After the last candidate it returns
	// false and starts over. predicates are the predicates that can be
	// evaluated at the node's position in the join order.
	NextAccessPath(ctx *sql.Context, predicates []sql.Expression) bool
	// EstimateCost estimates the cost of the current access path, given the
	// cost of the plan for the tables before it in the join order, and
	// returns the cumulative estimate.
	EstimateCost(ctx *sql.Context, predicates []sql.Expression, outer CostEstimate) CostEstimate
	// RememberAsBest makes the best path of the given plan type the path of
	// the chosen plan.
	RememberAsBest(planType PlanType)
}
