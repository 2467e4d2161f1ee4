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
	"io"
	"math"
	"slices"
	"strings"

	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/expression"
	"github.com/dolthub/go-query-compiler/sql/plan"
)

// maxRemaps bounds the walk from an output column to the table column it
// reads.
const maxRemaps = 64

// unit is one input of a block: a base table, whose access paths are
// costed, or any other node, which is optimized on its own.
type unit struct {
	node   sql.Node
	table  *plan.BaseTable
	tables sql.TableSet
}

func (u *unit) String() string {
	if t, ok := u.node.(interface{ Name() string }); ok {
		return t.Name()
	}
	return u.tables.String()
}

type predicate struct {
	expr   sql.Expression
	tables sql.TableSet
}

// block is a tree of inner joins flattened into its inputs and the
// conjuncts of its join conditions.
type block struct {
	units      []*unit
	predicates []predicate
	// joins are the table numbers of the joins of the block. The rebuilt
	// join tree reuses them.
	joins          []int
	notFlattenable bool
	req            requirement
	// fields are the sort fields of req mapped onto base table columns, or
	// nil when they are not all plain columns of the block's tables.
	fields []plan.SortField
}

// optimizeBlock chooses the join order and access paths of the block rooted
// at root. It reports whether the chosen plan produces the rows in the
// required order.
func (o *Optimizer) optimizeBlock(ctx *sql.Context, root sql.Node, req requirement) (sql.Node, bool, error) {
	b := &block{req: req}
	if j, ok := root.(*plan.Join); ok {
		b.notFlattenable = j.NotFlattenable
	}
	if err := o.collect(ctx, b, root, true); err != nil {
		return nil, false, err
	}
	b.fields = b.mapFields(ctx.Arena(), req.fields)

	order, avoided, cost, err := o.chooseOrder(ctx, b)
	if err != nil {
		return nil, false, err
	}

	names := make([]string, len(order))
	for i, k := range order {
		names[i] = b.units[k].String()
	}
	logger(ctx).Debugf("join order (%s), cost %.2f, sort avoided: %t", strings.Join(names, ", "), cost, avoided)

	return b.build(ctx, order, avoided), avoided, nil
}

// collect flattens the inner joins below n into the units and predicates of
// b. A join marked NotFlattenable below the root is a unit of its own.
func (o *Optimizer) collect(ctx *sql.Context, b *block, n sql.Node, root bool) error {
	if j, ok := n.(*plan.Join); ok && j.Type == plan.InnerJoin && (root || !j.NotFlattenable) {
		b.joins = append(b.joins, j.TableNumber())
		if j.Cond != nil {
			for _, c := range expression.SplitConjunction(j.Cond) {
				b.predicates = append(b.predicates, predicate{expr: c, tables: expression.ReferencedTables(c)})
			}
		}
		if err := o.collect(ctx, b, j.Left(), false); err != nil {
			return err
		}
		return o.collect(ctx, b, j.Right(), false)
	}

	u := &unit{tables: plan.ReferencedTables(n)}
	if t, ok := n.(plan.TableNode); ok && t.TableNumber() >= 0 {
		u.tables.Add(t.TableNumber())
	}
	if bt, ok := n.(*plan.BaseTable); ok {
		u.table = bt.WithFilters(bt.Filters)
		u.node = u.table
	} else {
		nn, err := o.optimize(ctx, n)
		if err != nil {
			return err
		}
		u.node = nn
	}
	b.units = append(b.units, u)
	return nil
}

// mapFields follows each sort field to the base table column it reads.
func (b *block) mapFields(a *sql.Arena, fields []plan.SortField) []plan.SortField {
	if len(fields) == 0 {
		return nil
	}
	mapped := make([]plan.SortField, len(fields))
	for i, f := range fields {
		c, ok := f.Expr.(*expression.ColumnReference)
		if !ok || c.Correlated() {
			return nil
		}
		c = expression.Clone(c).(*expression.ColumnReference)
		var owner *plan.BaseTable
		for n := 0; n < maxRemaps; n++ {
			if owner = b.ownerOf(c.Source); owner != nil {
				break
			}
			depth := c.RemapDepth()
			c.Remap(a)
			if c.RemapDepth() == depth {
				return nil
			}
		}
		if owner == nil {
			return nil
		}
		c.TableNumber = owner.TableNumber()
		mapped[i] = plan.SortField{Expr: c, Descending: f.Descending}
	}
	return mapped
}

func (b *block) ownerOf(id sql.ColumnID) *plan.BaseTable {
	for _, u := range b.units {
		if u.table == nil {
			continue
		}
		if slices.Contains(u.table.ResultColumns(), id) {
			return u.table
		}
	}
	return nil
}

// predicatesFor returns the predicates usable when u joins the placed
// units: its pushed down filters, and the join predicates that refer to u
// and to placed units only. Predicates on no table go with the first unit.
func (b *block) predicatesFor(u *unit, placed sql.TableSet) []sql.Expression {
	var preds []sql.Expression
	if u.table != nil {
		preds = append(preds, u.table.Filters...)
	}
	avail := placed.Union(u.tables)
	for _, p := range b.predicates {
		switch {
		case p.tables.Empty():
			if placed.Empty() {
				preds = append(preds, p.expr)
			}
		case p.tables.Intersects(u.tables) && p.tables.SubsetOf(avail):
			preds = append(preds, p.expr)
		}
	}
	return preds
}

// costUnit estimates the cost of joining u to the rows of the placed units.
// For a base table it leaves the cheapest normal path, and the cheapest
// path producing the required order when u is first, in its best paths.
func (b *block) costUnit(ctx *sql.Context, u *unit, placed sql.TableSet, outerRows float64, first bool) (plan.CostEstimate, *plan.CostEstimate) {
	preds := b.predicatesFor(u, placed)
	outer := plan.CostEstimate{Rows: outerRows}

	if u.table == nil {
		sel := 1.0
		for _, p := range preds {
			sel *= plan.Selectivity(p)
		}
		rows := math.Max(outerRows, 1)
		inner := estimateRows(u.node)
		return plan.CostEstimate{
			Cost: rows * inner * plan.SeqIOCostFactor,
			Rows: rows * inner * sel,
		}, nil
	}

	paths := u.table.AccessPaths()
	paths.ResetBest()
	for u.table.NextAccessPath(ctx, preds) {
		u.table.EstimateCost(ctx, preds, outer)
		paths.Consider(plan.NormalPlan)
		if first && b.providesOrder(u.table, preds) {
			paths.Consider(plan.SortAvoidancePlan)
		}
	}

	normal := paths.BestNormal.Cost
	if !paths.BestSortAvoidance.IsSet() {
		return normal, nil
	}
	avoid := paths.BestSortAvoidance.Cost
	return normal, &avoid
}

// providesOrder reports whether the current access path of t produces the
// required order. A MIN or MAX over an unfiltered table can also read an
// index from its last key.
func (b *block) providesOrder(t *plan.BaseTable, preds []sql.Expression) bool {
	if len(b.fields) == 0 {
		return false
	}
	if t.ProvidesOrder(b.fields) {
		return true
	}
	if !b.req.minMax || b.req.filtered || len(preds) != 0 {
		return false
	}
	reversed := make([]plan.SortField, len(b.fields))
	for i, f := range b.fields {
		reversed[i] = plan.SortField{Expr: f.Expr, Descending: !f.Descending}
	}
	return t.ProvidesOrder(reversed)
}

// evaluate returns the cost of joining the units in the given order,
// including the cost of ordering the rows when an order is required, and
// whether the order comes from the access path of the first unit.
func (b *block) evaluate(ctx *sql.Context, order []int) (float64, bool) {
	var placed sql.TableSet
	var total, firstNormal float64
	var firstAvoid *plan.CostEstimate
	rows := 1.0
	for i, k := range order {
		u := b.units[k]
		normal, avoid := b.costUnit(ctx, u, placed, rows, i == 0)
		if i == 0 {
			firstNormal, firstAvoid = normal.Cost, avoid
		}
		total += normal.Cost
		rows = normal.Rows
		placed.UnionWith(u.tables)
	}

	switch {
	case b.req.minMax:
		if firstAvoid != nil && len(b.units) == 1 {
			if c := plan.IndexProbeCost + plan.RandIOCostFactor; c < total {
				return c, true
			}
		}
		return total, false
	case len(b.fields) > 0:
		sorted := total + plan.SortCost(rows)
		if firstAvoid != nil {
			if c := total - firstNormal + firstAvoid.Cost; c < sorted {
				return c, true
			}
		}
		return sorted, false
	}
	return total, false
}

// chooseOrder returns the cheapest join order of the units of b. Every
// order is costed when there are at most MaxPermutedTables units. Among
// orders of equal cost the first found wins, so the original order is kept
// unless another is strictly cheaper.
func (o *Optimizer) chooseOrder(ctx *sql.Context, b *block) ([]int, bool, float64, error) {
	n := len(b.units)
	if n > o.MaxPermutedTables {
		return o.greedyOrder(ctx, b)
	}

	idx := make([]int, n)
	for i := range idx {
		idx[i] = i
	}

	var best []int
	var avoided bool
	bestCost := math.MaxFloat64
	perm := newQuickPerm(idx)
	for {
		order, err := perm.Next()
		if err == io.EOF {
			break
		} else if err != nil {
			return nil, false, 0, err
		}
		if err := ctx.CheckCancelled(); err != nil {
			return nil, false, 0, err
		}

		cost, avoid := b.evaluate(ctx, order)
		if cost < bestCost {
			bestCost, avoided = cost, avoid
			best = append(best[:0], order...)
		}
	}
	return best, avoided, bestCost, nil
}

// greedyOrder picks, at each position, the unit that is cheapest to join
// to the units already placed. Required orders are not considered.
func (o *Optimizer) greedyOrder(ctx *sql.Context, b *block) ([]int, bool, float64, error) {
	var order []int
	var placed sql.TableSet
	var total float64
	used := make([]bool, len(b.units))
	rows := 1.0
	for len(order) < len(b.units) {
		if err := ctx.CheckCancelled(); err != nil {
			return nil, false, 0, err
		}

		pick := -1
		var pickEst plan.CostEstimate
		for k, u := range b.units {
			if used[k] {
				continue
			}
			est, _ := b.costUnit(ctx, u, placed, rows, false)
			if pick < 0 || est.Cost < pickEst.Cost {
				pick, pickEst = k, est
			}
		}

		used[pick] = true
		order = append(order, pick)
		placed.UnionWith(b.units[pick].tables)
		total += pickEst.Cost
		rows = pickEst.Rows
	}
	return order, false, total, nil
}

// build remembers the chosen access path of every base table of the order
// and joins the units into a left deep tree. Each predicate is placed on the
// lowest join that has all the tables it refers to.
func (b *block) build(ctx *sql.Context, order []int, avoided bool) sql.Node {
	var placed sql.TableSet
	rows := 1.0
	for i, k := range order {
		u := b.units[k]
		est, _ := b.costUnit(ctx, u, placed, rows, i == 0)
		if u.table != nil {
			planType := plan.NormalPlan
			if i == 0 && avoided {
				planType = plan.SortAvoidancePlan
			}
			u.table.RememberAsBest(planType)
		}
		rows = est.Rows
		placed.UnionWith(u.tables)
	}

	joins := slices.Clone(b.joins)
	slices.Sort(joins)

	a := ctx.Arena()
	used := make([]bool, len(b.predicates))
	result := b.units[order[0]].node
	placed = b.units[order[0]].tables.Copy()
	for i := 1; i < len(order); i++ {
		u := b.units[order[i]]
		placed.UnionWith(u.tables)
		last := i == len(order)-1

		var conds []sql.Expression
		for k, p := range b.predicates {
			if !used[k] && (last || p.tables.SubsetOf(placed)) {
				conds = append(conds, p.expr)
				used[k] = true
			}
		}
		result = plan.NewBoundJoin(a, result, u.node, expression.JoinAnd(conds...), joins[i-1])
	}

	if j, ok := result.(*plan.Join); ok {
		j.NotFlattenable = b.notFlattenable
	}
	return result
}

// estimateRows estimates the number of rows a node that is not a base
// table of the block produces.
func estimateRows(n sql.Node) float64 {
	switch n := n.(type) {
	case *plan.BaseTable:
		rows := float64(plan.DefaultRowCount)
		if n.Info.RowCount > 0 {
			rows = float64(n.Info.RowCount)
		}
		for _, f := range n.Filters {
			rows *= plan.Selectivity(f)
		}
		return rows
	case *plan.Join:
		rows := estimateRows(n.Left()) * estimateRows(n.Right())
		if n.Cond != nil {
			rows *= plan.Selectivity(n.Cond)
		}
		if n.Type.IsOuter() {
			rows = math.Max(rows, estimateRows(n.Left()))
		}
		return rows
	case *plan.Union:
		return estimateRows(n.Left()) + estimateRows(n.Right())
	case *plan.ProjectRestrict:
		rows := estimateRows(n.Child)
		if n.Restriction != nil {
			rows *= plan.Selectivity(n.Restriction)
		}
		return rows
	case *plan.GroupBy:
		if len(n.Grouping) == 0 {
			return 1
		}
		return math.Max(1, estimateRows(n.Child)*plan.EqualsSelectivity)
	case *plan.Values:
		return float64(len(n.Rows))
	}
	if children := n.Children(); len(children) == 1 {
		return estimateRows(children[0])
	}
	return plan.DefaultRowCount
}
