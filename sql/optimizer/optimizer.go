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

package optimizer

import (
	"github.com/sirupsen/logrus"

	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/expression"
	"github.com/dolthub/go-query-compiler/sql/plan"
)

// DefaultMaxPermutedTables is the largest join whose orders are all costed
// by default. Larger joins are ordered greedily.
const DefaultMaxPermutedTables = 6

// Optimizer chooses the join order of each block of inner joins of a bound
// tree and the access path of each of its tables.
type Optimizer struct {
	// MaxPermutedTables is the largest number of join inputs for which
	// every order is costed.
	MaxPermutedTables int
}

// New creates an optimizer. A non-positive maxPermuted selects
// DefaultMaxPermutedTables.
func New(maxPermuted int) *Optimizer {
	if maxPermuted <= 0 {
		maxPermuted = DefaultMaxPermutedTables
	}
	return &Optimizer{MaxPermutedTables: maxPermuted}
}

// Optimize optimizes n with the default settings.
func Optimize(ctx *sql.Context, n sql.Node) (sql.Node, error) {
	return New(DefaultMaxPermutedTables).Optimize(ctx, n)
}

// Optimize returns a copy of n in which every block of inner joins is
// rebuilt as a left deep join tree in its cheapest order, and every base
// table holds its chosen access path as its TrulyTheBest path. A sort whose
// order the chosen plan produces is marked Avoided. The column offsets of
// the result are stale where join orders changed; see plan.FixFieldIndexes.
func (o *Optimizer) Optimize(ctx *sql.Context, n sql.Node) (sql.Node, error) {
	span, ctx := ctx.Span("optimizer.Optimize")
	defer span.Finish()

	return o.optimize(ctx, n)
}

// requirement is a row order wanted by the consumer of a block.
type requirement struct {
	fields []plan.SortField
	// minMax is set when the consumer is a MIN or MAX of a single table. A
	// first or last key index scan then replaces the scan of the table.
	minMax bool
	// filtered is set when a restriction between the consumer and the
	// block drops rows.
	filtered bool
}

func (o *Optimizer) optimize(ctx *sql.Context, n sql.Node) (sql.Node, error) {
	if err := ctx.CheckCancelled(); err != nil {
		return nil, err
	}

	switch n := n.(type) {
	case *plan.Sort:
		child, avoided, err := o.optimizeOrdered(ctx, n.Child, requirement{fields: n.Fields})
		if err != nil {
			return nil, err
		}
		ns := *n
		ns.Child = child
		ns.Avoided = n.Avoided || avoided
		return &ns, nil
	case *plan.GroupBy:
		if req, ok := minMaxRequirement(n); ok {
			child, _, err := o.optimizeOrdered(ctx, n.Child, req)
			if err != nil {
				return nil, err
			}
			return n.WithChildren(child)
		}
	case *plan.Join:
		if n.Type == plan.InnerJoin {
			res, _, err := o.optimizeBlock(ctx, n, requirement{})
			return res, err
		}
	case *plan.BaseTable:
		res, _, err := o.optimizeBlock(ctx, n, requirement{})
		return res, err
	}

	return o.optimizeChildren(ctx, n)
}

func (o *Optimizer) optimizeChildren(ctx *sql.Context, n sql.Node) (sql.Node, error) {
	children := n.Children()
	if len(children) == 0 {
		return n, nil
	}
	newChildren := make([]sql.Node, len(children))
	for i, c := range children {
		nc, err := o.optimize(ctx, c)
		if err != nil {
			return nil, err
		}
		newChildren[i] = nc
	}
	return n.WithChildren(newChildren...)
}

// optimizeOrdered optimizes the block below n, passing through projections,
// so that its rows come out in the required order if that is cheaper than
// sorting them. It reports whether they do.
func (o *Optimizer) optimizeOrdered(ctx *sql.Context, n sql.Node, req requirement) (sql.Node, bool, error) {
	switch n := n.(type) {
	case *plan.ProjectRestrict:
		if n.Restriction != nil {
			req.filtered = true
		}
		child, avoided, err := o.optimizeOrdered(ctx, n.Child, req)
		if err != nil {
			return nil, false, err
		}
		nn, err := n.WithChildren(child)
		return nn, avoided, err
	case *plan.Join:
		if n.Type == plan.InnerJoin {
			return o.optimizeBlock(ctx, n, req)
		}
	case *plan.BaseTable:
		return o.optimizeBlock(ctx, n, req)
	}

	nn, err := o.optimize(ctx, n)
	return nn, false, err
}

// minMaxRequirement returns the order that lets a single MIN or MAX
// aggregate without grouping read one row of an index.
func minMaxRequirement(g *plan.GroupBy) (requirement, bool) {
	if len(g.Grouping) != 0 || len(g.Aggregates) != 1 {
		return requirement{}, false
	}
	agg := g.Aggregates[0].Aggregate
	if agg.Distinct || (agg.Func != expression.Min && agg.Func != expression.Max) {
		return requirement{}, false
	}
	if _, ok := agg.Child.(*expression.ColumnReference); !ok {
		return requirement{}, false
	}
	return requirement{
		fields: []plan.SortField{{Expr: agg.Child, Descending: agg.Func == expression.Max}},
		minMax: true,
	}, true
}

func logger(ctx *sql.Context) *logrus.Entry {
	return ctx.GetLogger().WithField("component", "optimizer")
}
