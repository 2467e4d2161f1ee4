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
	"strings"

	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/expression"
	"github.com/dolthub/go-query-compiler/sql/transform"
)

// Names of the columns synthesized for every aggregate.
const (
	AggregateInputColumn      = "##aggregate expression"
	AggregateResultColumn     = "##aggregate result"
	AggregateAggregatorColumn = "##aggregator"
)

// AggregatorType is the type of the aggregator handle column.
var AggregatorType = sql.Type{ID: sql.UserDefined, UserClass: "Aggregator"}

// MinMaxScan is the single row access that computes a scalar MIN or MAX.
type MinMaxScan byte

const (
	NoMinMaxScan MinMaxScan = iota
	// FirstKeyScan reads the first qualifying row of an index.
	FirstKeyScan
	// LastKeyScan reads the last key of an index.
	LastKeyScan
)

func (s MinMaxScan) String() string {
	switch s {
	case FirstKeyScan:
		return "first key"
	case LastKeyScan:
		return "last key"
	default:
		return "none"
	}
}

// AggregateSlot holds the columns computing one aggregate. Input, Result
// and Aggregator are columns of the bottom projection; Mirror is the
// GroupBy column passing Result through.
type AggregateSlot struct {
	Aggregate  *expression.Aggregate
	Input      sql.ColumnID
	Result     sql.ColumnID
	Aggregator sql.ColumnID
	Mirror     sql.ColumnID
}

// GroupBy groups the rows of its child. Before decomposition Child is the
// FROM list of the query; DecomposeGroupBy puts a projection computing the
// grouping expressions and the aggregate inputs between them.
type GroupBy struct {
	UnaryNode
	Grouping   []sql.Expression
	Aggregates []AggregateSlot
	// SortKeys is the ordering the grouped rows are computed with. The input
	// of a DISTINCT aggregate, if any, is always the last key.
	SortKeys sql.ResultColumnList
	MinMax   MinMaxScan
	// SingleInputRow is set when a MIN or MAX of a constant needs a single
	// input row.
	SingleInputRow bool
	columns        sql.ResultColumnList
}

var _ sql.Node = (*GroupBy)(nil)
var _ sql.Expressioner = (*GroupBy)(nil)

// NewGroupBy creates a new GroupBy node. An empty grouping list computes
// scalar aggregates.
func NewGroupBy(grouping []sql.Expression, child sql.Node) *GroupBy {
	return &GroupBy{UnaryNode: UnaryNode{child}, Grouping: grouping}
}

// Resolved implements the Node interface.
func (g *GroupBy) Resolved() bool {
	if g.columns == nil || !g.Child.Resolved() {
		return false
	}
	for _, e := range g.Grouping {
		if !e.Resolved() {
			return false
		}
	}
	return true
}

// ResultColumns implements the Node interface.
func (g *GroupBy) ResultColumns() sql.ResultColumnList { return g.columns }

// Expressions implements the Expressioner interface.
func (g *GroupBy) Expressions() []sql.Expression { return g.Grouping }

// WithExpressions implements the Expressioner interface.
func (g *GroupBy) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	if len(exprs) != len(g.Grouping) {
		return nil, sql.ErrInvalidChildrenNumber.New(g, len(exprs), len(g.Grouping))
	}
	ng := *g
	ng.Grouping = exprs
	return &ng, nil
}

// WithChildren implements the Node interface.
func (g *GroupBy) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidChildrenNumber.New(g, len(children), 1)
	}
	ng := *g
	ng.Child = children[0]
	return &ng, nil
}

// Bottom returns the projection computing the aggregate inputs, or nil
// before decomposition.
func (g *GroupBy) Bottom() *ProjectRestrict {
	if g.columns == nil {
		return nil
	}
	p, _ := g.Child.(*ProjectRestrict)
	return p
}

// DistinctAggregate returns the DISTINCT aggregate slot, or nil.
func (g *GroupBy) DistinctAggregate() *AggregateSlot {
	for i := range g.Aggregates {
		if g.Aggregates[i].Aggregate.Distinct {
			return &g.Aggregates[i]
		}
	}
	return nil
}

func (g *GroupBy) String() string {
	pr := sql.NewTreePrinter()
	name := "GroupBy"
	if g.MinMax != NoMinMaxScan {
		name = fmt.Sprintf("GroupBy[%s]", g.MinMax)
	}
	_ = pr.WriteNode("%s", name)

	aggs := make([]string, len(g.Aggregates))
	for i, s := range g.Aggregates {
		aggs[i] = s.Aggregate.String()
	}
	_ = pr.WriteChildren(
		fmt.Sprintf("Grouping(%s)", strings.Join(exprStrings(g.Grouping), ", ")),
		fmt.Sprintf("Aggregates(%s)", strings.Join(aggs, ", ")),
		g.Child.String(),
	)
	return pr.String()
}

// DecomposeGroupBy splits the select list and HAVING clause of top, whose
// child is a GroupBy, over three levels. The GroupBy gets a new child
// projection computing the grouping expressions and, for every aggregate,
// its input, a NULL accumulator and an aggregator handle. The GroupBy
// passes those columns through, and top reads grouping expressions and
// aggregate results from them. The expressions of top and the grouping
// list must be bound against the GroupBy child; level is the nesting level
// of the query. A plain column of top that is neither grouped nor inside an
// aggregate is an error.
func DecomposeGroupBy(ctx *sql.Context, top *ProjectRestrict, level int) (*ProjectRestrict, error) {
	gb, ok := top.Child.(*GroupBy)
	sql.Assert(ok, "group by decomposition over %T", top.Child)
	a := ctx.Arena()

	for _, e := range gb.Grouping {
		if containsAggregate(e) {
			return nil, sql.ErrAggregateNotAllowed.New("GROUP BY")
		}
	}

	aggs, err := collectAggregates(top.Expressions())
	if err != nil {
		return nil, err
	}
	distinct := 0
	for _, agg := range aggs {
		if agg.Distinct {
			distinct++
		}
	}
	sql.Assert(distinct <= 1, "%d DISTINCT aggregates in one group by", distinct)

	proj := make([]sql.Expression, 0, len(gb.Grouping)+3*len(aggs))
	proj = append(proj, gb.Grouping...)
	for _, agg := range aggs {
		proj = append(proj,
			expression.NewAlias(AggregateInputColumn, aggregateInput(agg)),
			expression.NewAlias(AggregateResultColumn, expression.NewLiteral(nil, agg.Type().WithNullable(true))),
			expression.NewAlias(AggregateAggregatorColumn, expression.NewMethodCall(agg.Func.Aggregator(), AggregatorType)),
		)
	}
	bottom := NewProjectRestrict(proj, nil, gb.Child)
	bottom.bindColumns(a)
	for _, id := range bottom.columns[len(gb.Grouping):] {
		a.Get(id).Generated = true
	}

	ng := *gb
	ng.Child = bottom
	ng.columns = make(sql.ResultColumnList, len(bottom.columns))
	for i, id := range bottom.columns {
		rc := a.Get(id)
		ng.columns[i] = a.Add(sql.ResultColumn{
			Name:            rc.Name,
			TableName:       rc.TableName,
			Expr:            expression.NewVirtualColumn(a, id),
			Type:            rc.Type,
			Position:        i + 1,
			VirtualColumnID: i + 1,
			Generated:       rc.Generated,
		})
	}

	g := len(gb.Grouping)
	ng.Aggregates = make([]AggregateSlot, len(aggs))
	for i, agg := range aggs {
		off := g + 3*i
		ng.Aggregates[i] = AggregateSlot{
			Aggregate:  agg,
			Input:      bottom.columns[off],
			Result:     bottom.columns[off+1],
			Aggregator: bottom.columns[off+2],
			Mirror:     ng.columns[off+1],
		}
	}

	ng.SortKeys = append(sql.ResultColumnList(nil), ng.columns[:g]...)
	for i, slot := range ng.Aggregates {
		if slot.Aggregate.Distinct {
			ng.SortKeys = append(ng.SortKeys, ng.columns[g+3*i])
		}
	}

	ref := func(k int) sql.Expression {
		rc := a.Get(ng.columns[k])
		return expression.NewBoundColumnReference(rc.Name, &sql.ColumnBinding{
			Source:       ng.columns[k],
			TableNumber:  -1,
			ColumnNumber: k + 1,
			Index:        k,
			Level:        level,
			Type:         rc.Type,
			Table:        rc.TableName,
		}, level)
	}
	rewrite := func(e sql.Expression) (sql.Expression, error) {
		res, _, err := transform.ExprTopDown(e, func(e sql.Expression) (sql.Expression, transform.TreeIdentity, error) {
			for k, ge := range gb.Grouping {
				if expression.Equivalent(e, ge) {
					return ref(k), transform.NewTree, nil
				}
			}
			switch e := e.(type) {
			case *expression.Aggregate:
				for i, agg := range aggs {
					if expression.Equivalent(e, agg) {
						return ref(g + 3*i + 1), transform.NewTree, nil
					}
				}
				sql.Assert(false, "aggregate %s has no slot", e)
			case *expression.ColumnReference:
				if !e.Correlated() {
					return nil, transform.SameTree, sql.ErrInvalidGroupByReference.New(e.String())
				}
			}
			return e, transform.SameTree, nil
		})
		return res, err
	}

	nt := *top
	nt.Child = &ng
	if top.Projection != nil {
		nt.Projection = make([]sql.Expression, len(top.Projection))
		for i, e := range top.Projection {
			ne, err := rewrite(e)
			if err != nil {
				return nil, err
			}
			if name := columnName(e, i); columnName(ne, i) != name {
				ne = expression.NewAlias(name, ne)
			}
			nt.Projection[i] = ne
		}
	}
	if top.Restriction != nil {
		if nt.Restriction, err = rewrite(top.Restriction); err != nil {
			return nil, err
		}
	}
	nt.bindColumns(a)
	return &nt, nil
}

func aggregateInput(agg *expression.Aggregate) sql.Expression {
	if agg.Child == nil {
		return expression.NewLiteral(int32(1), sql.NewType(sql.Integer))
	}
	return agg.Child
}

// collectAggregates returns the distinct aggregates of exprs in the order
// they appear.
func collectAggregates(exprs []sql.Expression) ([]*expression.Aggregate, error) {
	var (
		aggs []*expression.Aggregate
		err  error
	)
	for _, e := range exprs {
		transform.InspectExpr(e, func(e sql.Expression) bool {
			agg, ok := e.(*expression.Aggregate)
			if !ok {
				return false
			}
			if agg.Child != nil && containsAggregate(agg.Child) {
				err = sql.ErrAggregateNotAllowed.New("an aggregate argument")
				return true
			}
			for _, seen := range aggs {
				if expression.Equivalent(seen, agg) {
					return false
				}
			}
			aggs = append(aggs, agg)
			return false
		})
		if err != nil {
			return nil, err
		}
	}
	return aggs, nil
}

func containsAggregate(e sql.Expression) bool {
	return transform.InspectExpr(e, func(e sql.Expression) bool {
		_, ok := e.(*expression.Aggregate)
		return ok
	})
}

// ConsiderMinMax sets up the single row access for a scalar MIN or MAX
// once the access path of the underlying table is known. The aggregate must
// be the only one, over a column leading the chosen index. A MIN over an
// ascending index or a MAX over a descending one reads the first qualifying
// row. The opposite direction can only read the last key, so it requires
// that nothing filters the rows. A choice made for an earlier plan is
// dropped when the current one does not support it.
func (g *GroupBy) ConsiderMinMax() *GroupBy {
	if g.MinMax != NoMinMaxScan || g.SingleInputRow {
		ng := *g
		ng.MinMax = NoMinMaxScan
		ng.SingleInputRow = false
		return ng.considerMinMax()
	}
	return g.considerMinMax()
}

func (g *GroupBy) considerMinMax() *GroupBy {
	if len(g.Grouping) != 0 || len(g.Aggregates) != 1 {
		return g
	}
	agg := g.Aggregates[0].Aggregate
	if agg.Func != expression.Min && agg.Func != expression.Max {
		return g
	}

	ng := *g
	if _, ok := expression.Unalias(agg.Child).(*expression.Literal); ok {
		ng.SingleInputRow = true
		return &ng
	}
	col, ok := agg.Child.(*expression.ColumnReference)
	if !ok {
		return g
	}
	bottom := g.Bottom()
	if bottom == nil {
		return g
	}
	filtered := bottom.Restriction != nil
	child := bottom.Child
	for {
		r, ok := child.(*ProjectRestrict)
		if !ok || !r.IsRestrictOnly() {
			break
		}
		filtered = filtered || r.Restriction != nil
		child = r.Child
	}
	table, ok := child.(*BaseTable)
	if !ok {
		return g
	}
	idx := table.paths.TrulyTheBest.Index
	if idx == nil || len(idx.Columns) == 0 || !table.isColumn(col, idx.Columns[0]) {
		return g
	}

	descending := idx.IsDescending(0)
	switch {
	case agg.Func == expression.Min && !descending, agg.Func == expression.Max && descending:
		ng.MinMax = FirstKeyScan
	case len(table.Filters) == 0 && !filtered:
		ng.MinMax = LastKeyScan
	default:
		return g
	}
	ng.SingleInputRow = true
	return &ng
}
