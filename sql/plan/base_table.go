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
	"strings"

	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/expression"
)

// UnresolvedTable is a table that has not been resolved yet against the
// catalog.
type UnresolvedTable struct {
	name  string
	alias string
}

var _ sql.Node = (*UnresolvedTable)(nil)

// NewUnresolvedTable creates a new unresolved table, optionally with a
// correlation name.
func NewUnresolvedTable(name, alias string) *UnresolvedTable {
	return &UnresolvedTable{name: name, alias: alias}
}

// Name implements the Nameable interface.
func (t *UnresolvedTable) Name() string { return t.name }

// Alias returns the correlation name of the table, if any.
func (t *UnresolvedTable) Alias() string { return t.alias }

// Resolved implements the Resolvable interface.
func (*UnresolvedTable) Resolved() bool { return false }

// Children implements the Node interface.
func (*UnresolvedTable) Children() []sql.Node { return nil }

// ResultColumns implements the Node interface.
func (*UnresolvedTable) ResultColumns() sql.ResultColumnList { return nil }

// WithChildren implements the Node interface.
func (t *UnresolvedTable) WithChildren(children ...sql.Node) (sql.Node, error) {
	return NillaryWithChildren(t, children...)
}

func (t *UnresolvedTable) String() string {
	return fmt.Sprintf("UnresolvedTable(%s)", t.name)
}

// BaseTable is a table of the catalog in a FROM list. It is the optimizable
// of the optimizer: its candidate access paths are a table scan, joined by
// nested loop or hash, and a scan of each of its indexes.
type BaseTable struct {
	Info        *sql.TableInfo
	alias       string
	tableNumber int
	columns     sql.ResultColumnList
	// Filters are the predicates on this table alone, pushed down by the
	// optimizer.
	Filters   []sql.Expression
	paths     AccessPathSet
	candidate int
}

var _ Optimizable = (*BaseTable)(nil)
var _ sql.Expressioner = (*BaseTable)(nil)

// NewBaseTable creates a base table with the given table number. Its result
// columns are added to the arena of the context.
func NewBaseTable(ctx *sql.Context, info *sql.TableInfo, alias string, tableNumber int) *BaseTable {
	t := &BaseTable{Info: info, alias: alias, tableNumber: tableNumber}
	name := t.Name()
	t.columns = make(sql.ResultColumnList, len(info.Columns))
	for i, c := range info.Columns {
		typ := c.Type.WithNullable(c.Nullable)
		t.columns[i] = ctx.Arena().Add(sql.ResultColumn{
			Name:            c.Name,
			TableName:       name,
			Expr:            expression.NewBaseColumn(name, c.Name, tableNumber, c.Position, typ),
			Type:            typ,
			Position:        c.Position,
			VirtualColumnID: i + 1,
		})
	}
	return t
}

// Name returns the exposed name of the table: its correlation name if it
// has one, else its name.
func (t *BaseTable) Name() string {
	if t.alias != "" {
		return t.alias
	}
	return t.Info.Name
}

// TableNumber implements the TableNode interface.
func (t *BaseTable) TableNumber() int { return t.tableNumber }

// Resolved implements the Resolvable interface.
func (*BaseTable) Resolved() bool { return true }

// Children implements the Node interface.
func (*BaseTable) Children() []sql.Node { return nil }

// WithChildren implements the Node interface.
func (t *BaseTable) WithChildren(children ...sql.Node) (sql.Node, error) {
	return NillaryWithChildren(t, children...)
}

// ResultColumns implements the Node interface.
func (t *BaseTable) ResultColumns() sql.ResultColumnList { return t.columns }

// Expressions implements the Expressioner interface.
func (t *BaseTable) Expressions() []sql.Expression { return t.Filters }

// WithExpressions implements the Expressioner interface.
func (t *BaseTable) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	if len(exprs) != len(t.Filters) {
		return nil, sql.ErrInvalidChildrenNumber.New(t, len(exprs), len(t.Filters))
	}
	nt := *t
	nt.Filters = exprs
	return &nt, nil
}

// WithFilters returns a copy of the table with the given pushed down
// predicates.
func (t *BaseTable) WithFilters(filters []sql.Expression) *BaseTable {
	nt := *t
	nt.Filters = filters
	return &nt
}

func (t *BaseTable) String() string {
	name := t.Info.Name
	if t.alias != "" {
		name = fmt.Sprintf("%s as %s", t.Info.Name, t.alias)
	}
	if len(t.Filters) == 0 && !t.paths.TrulyTheBest.IsSet() {
		return fmt.Sprintf("Table(%s)", name)
	}

	pr := sql.NewTreePrinter()
	_ = pr.WriteNode("Table(%s)", name)
	var children []string
	if len(t.Filters) > 0 {
		children = append(children, fmt.Sprintf("Filters(%s)", strings.Join(exprStrings(t.Filters), ", ")))
	}
	if t.paths.TrulyTheBest.IsSet() {
		children = append(children, fmt.Sprintf("AccessPath(%s)", &t.paths.TrulyTheBest))
	}
	_ = pr.WriteChildren(children...)
	return pr.String()
}

// AccessPaths implements the Optimizable interface.
func (t *BaseTable) AccessPaths() *AccessPathSet { return &t.paths }

// NextAccessPath implements the Optimizable interface. The candidates are a
// nested loop table scan, a hash join when an equijoin predicate connects
// the table to the tables before it, and a nested loop scan of each index.
func (t *BaseTable) NextAccessPath(ctx *sql.Context, predicates []sql.Expression) bool {
	for {
		c := t.candidate
		t.candidate++
		switch {
		case c == 0:
			t.paths.Current = AccessPath{JoinStrategy: NestedLoopJoin}
			return true
		case c == 1:
			if t.hasEquijoin(predicates) {
				t.paths.Current = AccessPath{JoinStrategy: HashJoin}
				return true
			}
		case c-2 < len(t.Info.Indexes):
			idx := t.Info.Indexes[c-2]
			if len(idx.Columns) == 0 {
				continue
			}
			keys := t.keyPredicates(idx, predicates)
			t.paths.Current = AccessPath{
				JoinStrategy:       NestedLoopJoin,
				Index:              idx,
				Keys:               keys,
				UsesProbePredicate: hasProbe(keys),
			}
			return true
		default:
			t.candidate = 0
			return false
		}
	}
}

// EstimateCost implements the Optimizable interface.
func (t *BaseTable) EstimateCost(ctx *sql.Context, predicates []sql.Expression, outer CostEstimate) CostEstimate {
	rows := t.rowCount()
	outerRows := math.Max(outer.Rows, 1)
	selectivity := 1.0
	for _, p := range predicates {
		selectivity *= Selectivity(p)
	}

	cur := &t.paths.Current
	var cost float64
	switch {
	case cur.JoinStrategy == HashJoin:
		cost = rows*SeqIOCostFactor + outerRows*HashProbeCostFactor
	case cur.Index == nil:
		cost = outerRows * rows * SeqIOCostFactor
	case len(cur.Keys) == 0:
		cost = outerRows * rows * RandIOCostFactor
	default:
		keySel, probes := 1.0, 1
		for _, k := range cur.Keys {
			if s, n := keySelectivity(k); s < keySel {
				keySel, probes = s, n
			}
		}
		cost = outerRows * (float64(probes)*IndexProbeCost + rows*keySel*RandIOCostFactor)
	}

	cur.Cost = CostEstimate{Cost: outer.Cost + cost, Rows: outerRows * rows * selectivity}
	return cur.Cost
}

// RememberAsBest implements the Optimizable interface.
func (t *BaseTable) RememberAsBest(planType PlanType) {
	t.paths.TrulyTheBest.CopyFrom(t.paths.Best(planType))
}

// ProvidesOrder reports whether the current access path returns rows
// ordered by the given columns of this table.
func (t *BaseTable) ProvidesOrder(fields []SortField) bool {
	idx := t.paths.Current.Index
	if idx == nil || len(fields) == 0 || len(fields) > len(idx.Columns) {
		return false
	}
	for i, f := range fields {
		if !t.isColumn(f.Expr, idx.Columns[i]) || f.Descending != idx.IsDescending(i) {
			return false
		}
	}
	return true
}

func (t *BaseTable) rowCount() float64 {
	if t.Info.RowCount > 0 {
		return float64(t.Info.RowCount)
	}
	return DefaultRowCount
}

// keyPredicates returns the predicates that can serve as start and stop
// keys on the leading column of idx.
func (t *BaseTable) keyPredicates(idx *sql.IndexInfo, predicates []sql.Expression) []sql.Expression {
	var keys []sql.Expression
	lead := idx.Columns[0]
	for _, p := range predicates {
		c, ok := p.(*expression.Comparison)
		if !ok || c.Op == expression.NotEquals {
			continue
		}
		if t.isColumn(c.Left, lead) && !t.references(c.Right) ||
			t.isColumn(c.Right, lead) && !t.references(c.Left) {
			keys = append(keys, p)
		}
	}
	return keys
}

func (t *BaseTable) hasEquijoin(predicates []sql.Expression) bool {
	for _, p := range predicates {
		c, ok := p.(*expression.Comparison)
		if !ok || c.Op != expression.Equals || c.IsProbe() {
			continue
		}
		l, lok := c.Left.(*expression.ColumnReference)
		r, rok := c.Right.(*expression.ColumnReference)
		if !lok || !rok || l.TableNumber < 0 || r.TableNumber < 0 {
			continue
		}
		if (l.TableNumber == t.tableNumber) != (r.TableNumber == t.tableNumber) {
			return true
		}
	}
	return false
}

func (t *BaseTable) isColumn(e sql.Expression, name string) bool {
	c, ok := e.(*expression.ColumnReference)
	return ok && c.TableNumber == t.tableNumber && strings.EqualFold(c.Name(), name)
}

func (t *BaseTable) references(e sql.Expression) bool {
	tables := expression.ReferencedTables(e)
	return tables.Contains(t.tableNumber)
}

func hasProbe(exprs []sql.Expression) bool {
	for _, e := range exprs {
		if c, ok := e.(*expression.Comparison); ok && c.IsProbe() {
			return true
		}
	}
	return false
}

// DerivedTable is a query in a FROM list, exposed under a correlation name.
type DerivedTable struct {
	UnaryNode
	alias       string
	tableNumber int
	columns     sql.ResultColumnList
}

var _ TableNode = (*DerivedTable)(nil)

// NewDerivedTable creates an unbound derived table.
func NewDerivedTable(alias string, child sql.Node) *DerivedTable {
	return &DerivedTable{UnaryNode: UnaryNode{child}, alias: alias, tableNumber: -1}
}

// Name implements the Nameable interface.
func (d *DerivedTable) Name() string { return d.alias }

// TableNumber implements the TableNode interface.
func (d *DerivedTable) TableNumber() int { return d.tableNumber }

// Resolved implements the Resolvable interface.
func (d *DerivedTable) Resolved() bool {
	return d.columns != nil && d.Child.Resolved()
}

// ResultColumns implements the Node interface.
func (d *DerivedTable) ResultColumns() sql.ResultColumnList { return d.columns }

// WithChildren implements the Node interface.
func (d *DerivedTable) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidChildrenNumber.New(d, len(children), 1)
	}
	nd := *d
	nd.Child = children[0]
	return &nd, nil
}

// bindColumns exposes the columns of the child under the correlation name.
func (d *DerivedTable) bindColumns(a *sql.Arena, tableNumber int) {
	d.tableNumber = tableNumber
	d.columns = make(sql.ResultColumnList, 0, len(d.Child.ResultColumns()))
	for i, id := range d.Child.ResultColumns() {
		rc := a.Get(id)
		d.columns = append(d.columns, a.Add(sql.ResultColumn{
			Name:            rc.Name,
			TableName:       d.alias,
			Expr:            expression.NewVirtualColumn(a, id),
			Type:            rc.Type,
			Position:        i + 1,
			VirtualColumnID: i + 1,
		}))
	}
}

func (d *DerivedTable) String() string {
	pr := sql.NewTreePrinter()
	_ = pr.WriteNode("DerivedTable(%s)", d.alias)
	_ = pr.WriteChildren(d.Child.String())
	return pr.String()
}
