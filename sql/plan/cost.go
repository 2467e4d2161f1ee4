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
	"math"

	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/expression"
)

// Costing constants. Costs are in arbitrary units relative to reading one
// row of a table sequentially.
const (
	// SeqIOCostFactor is the cost of reading one row in a table scan.
	SeqIOCostFactor = 1.0
	// RandIOCostFactor is the cost of fetching one row through an index.
	RandIOCostFactor = 4.0
	// IndexProbeCost is the cost of positioning an index scan on its start
	// key.
	IndexProbeCost = 2.0
	// HashProbeCostFactor is the cost of one probe of a hash table.
	HashProbeCostFactor = 0.5
	// SortCostFactor is multiplied by n*log2(n) to get the cost of sorting n
	// rows.
	SortCostFactor = 0.25
	// DefaultRowCount is used for tables without statistics.
	DefaultRowCount = 1000
)

// Selectivity estimates.
const (
	EqualsSelectivity    = 0.1
	NotEqualsSelectivity = 0.9
	RangeSelectivity     = 0.33
	InListSelectivity    = 0.3
	IsNullSelectivity    = 0.1
	DefaultSelectivity   = 0.5
)

// Selectivity estimates the fraction of rows that satisfy a predicate. The
// estimates are fixed per operator and ignore the values compared.
func Selectivity(e sql.Expression) float64 {
	switch e := e.(type) {
	case *expression.Comparison:
		switch {
		case e.IsProbe():
			return InListSelectivity
		case e.Op == expression.Equals:
			return EqualsSelectivity
		case e.Op == expression.NotEquals:
			return NotEqualsSelectivity
		default:
			return RangeSelectivity
		}
	case *expression.InList:
		return InListSelectivity
	case *expression.Between:
		return RangeSelectivity
	case *expression.IsNull:
		if e.Negated {
			return 1 - IsNullSelectivity
		}
		return IsNullSelectivity
	case *expression.And:
		return Selectivity(e.Left) * Selectivity(e.Right)
	case *expression.Or:
		l, r := Selectivity(e.Left), Selectivity(e.Right)
		return l + r - l*r
	case *expression.Literal:
		if b, ok := e.Value().(bool); ok {
			if b {
				return 1
			}
			return 0
		}
	}
	return DefaultSelectivity
}

// SortCost estimates the cost of sorting the given number of rows.
func SortCost(rows float64) float64 {
	if rows <= 1 {
		return 0
	}
	return SortCostFactor * rows * math.Log2(rows)
}

// keySelectivity estimates the fraction of index entries read through a
// start and stop key predicate, and the number of index positionings it
// needs. A probe predicate positions the index once per list value.
func keySelectivity(e sql.Expression) (float64, int) {
	if c, ok := e.(*expression.Comparison); ok && c.IsProbe() {
		n := len(c.Probe.List)
		return math.Min(1, float64(n)*EqualsSelectivity), n
	}
	return Selectivity(e), 1
}
