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

	"github.com/opentracing/opentracing-go"

	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/expression"
)

// Bind resolves the tables of n against the catalog of ctx, the columns of
// its expressions against the FROM lists that enclose them, and builds the
// result columns of every node. outer is the scope of the enclosing query
// of a subquery, or nil. n is not modified; the bound tree is returned.
//
// Every table, join, derived table, union and VALUES list gets a table
// number unique within the tree.
func Bind(ctx *sql.Context, n sql.Node, outer sql.Scope) (sql.Node, error) {
	span, ctx := ctx.Span("plan.Bind")
	defer span.Finish()

	level := 0
	if outer != nil {
		level = outer.Level() + 1
	}
	b := &binder{ctx: ctx, visited: make(map[string]bool)}
	bound, err := b.bind(n, level, outer)
	if err != nil {
		return nil, err
	}
	span.SetTag("tables", b.tables)
	return bound, nil
}

type binder struct {
	ctx    *sql.Context
	tables int
	// visited holds the tables whose modification has been expanded, so
	// that referential actions are expanded once per table.
	visited map[string]bool
}

func (b *binder) next() int {
	n := b.tables
	b.tables++
	return n
}

func (b *binder) bind(n sql.Node, level int, outer sql.Scope) (sql.Node, error) {
	if err := b.ctx.CheckCancelled(); err != nil {
		return nil, err
	}

	switch n := n.(type) {
	case *UnresolvedTable:
		info, err := b.table(n.Name())
		if err != nil {
			return nil, err
		}
		return NewBaseTable(b.ctx, info, n.Alias(), b.next()), nil
	case *BaseTable:
		return n, nil
	case *Values:
		return b.bindValues(n, level, outer)
	case *Join:
		return b.bindJoin(n, level, outer)
	case *DerivedTable:
		child, err := b.bind(n.Child, level+1, outer)
		if err != nil {
			return nil, err
		}
		nd := *n
		nd.Child = child
		nd.bindColumns(b.ctx.Arena(), b.next())
		return &nd, nil
	case *ProjectRestrict:
		return b.bindProjectRestrict(n, level, outer)
	case *GroupBy:
		return b.bindProjectRestrict(NewProjectRestrict(n.Grouping, nil, n), level, outer)
	case *Union:
		left, err := b.bind(n.left, level, outer)
		if err != nil {
			return nil, err
		}
		right, err := b.bind(n.right, level, outer)
		if err != nil {
			return nil, err
		}
		nu := *n
		nu.left, nu.right = left, right
		bound, err := nu.bindColumns(b.ctx)
		if err != nil {
			return nil, err
		}
		bound.tableNumber = b.next()
		return bound, nil
	case *Sort:
		return b.bindSort(n, level, outer)
	case *Distinct:
		child, err := b.bind(n.Child, level, outer)
		if err != nil {
			return nil, err
		}
		nd := *n
		nd.Child = child
		return &nd, nil
	case *Insert:
		return b.bindInsert(n, level, outer)
	case *Update:
		return b.bindUpdate(n, level, outer)
	case *Delete:
		return b.bindDelete(n, level, outer)
	default:
		return nil, sql.ErrInvalidChildType.New(n, n, (*ProjectRestrict)(nil))
	}
}

func (b *binder) table(name string) (*sql.TableInfo, error) {
	c := b.ctx.Catalog()
	if c == nil {
		return nil, sql.ErrTableNotFound.New(name)
	}
	return c.Table(b.ctx, name)
}

func (b *binder) expr(scope sql.Scope, e sql.Expression) (sql.Expression, error) {
	return expression.Bind(b.ctx, scope, e)
}

func (b *binder) exprs(scope sql.Scope, exprs []sql.Expression) ([]sql.Expression, error) {
	if exprs == nil {
		return nil, nil
	}
	bound := make([]sql.Expression, len(exprs))
	for i, e := range exprs {
		var err error
		if bound[i], err = b.expr(scope, e); err != nil {
			return nil, err
		}
	}
	return bound, nil
}

// predicate binds a search condition of the given clause.
func (b *binder) predicate(clause string, scope sql.Scope, e sql.Expression) (sql.Expression, error) {
	bound, err := b.expr(scope, e)
	if err != nil {
		return nil, err
	}
	if t := bound.Type(); !t.IsUnknown() && t.ID != sql.Boolean {
		return nil, sql.ErrTypeIncompatible.New(clause, t, t)
	}
	if containsAggregate(bound) {
		return nil, sql.ErrAggregateNotAllowed.New(clause)
	}
	return bound, nil
}

func (b *binder) bindValues(v *Values, level int, outer sql.Scope) (sql.Node, error) {
	scope := newScope(b.ctx.Arena(), nil, level, outer)
	nv := *v
	nv.Rows = make([][]sql.Expression, len(v.Rows))
	for i, row := range v.Rows {
		var err error
		if nv.Rows[i], err = b.exprs(scope, row); err != nil {
			return nil, err
		}
	}
	if err := nv.bindColumns(b.ctx, b.next()); err != nil {
		return nil, err
	}
	return &nv, nil
}

func (b *binder) bindJoin(j *Join, level int, outer sql.Scope) (sql.Node, error) {
	nj := *j.normalize()
	var err error
	if nj.left, err = b.bind(nj.left, level, outer); err != nil {
		return nil, err
	}
	if nj.right, err = b.bind(nj.right, level, outer); err != nil {
		return nil, err
	}
	if nj.Cond != nil {
		scope := newJoinScope(b.ctx, &nj, level, outer)
		if nj.Cond, err = b.predicate("ON", scope, nj.Cond); err != nil {
			return nil, err
		}
	}
	nj.tableNumber = b.next()
	nj.columns = nil
	nj.bindColumns(b.ctx.Arena())
	return &nj, nil
}

func (b *binder) bindProjectRestrict(p *ProjectRestrict, level int, outer sql.Scope) (sql.Node, error) {
	gb, grouped := p.Child.(*GroupBy)
	from := p.Child
	if grouped {
		from = gb.Child
	}
	child, err := b.bind(from, level, outer)
	if err != nil {
		return nil, err
	}
	scope := NewScope(b.ctx, child, level, outer)

	np := *p
	np.columns = nil
	if np.Projection, err = b.exprs(scope, p.Projection); err != nil {
		return nil, err
	}
	aggregated := false
	for _, e := range np.Projection {
		aggregated = aggregated || containsAggregate(e)
	}

	if !grouped && !aggregated {
		if p.Restriction != nil {
			if np.Restriction, err = b.predicate("WHERE", scope, p.Restriction); err != nil {
				return nil, err
			}
		}
		np.Child = child
		np.bindColumns(b.ctx.Arena())
		return &np, nil
	}

	if p.Projection == nil {
		return nil, sql.ErrInvalidGroupByReference.New("*")
	}
	if !grouped {
		// Without GROUP BY the restriction is a WHERE clause, applied
		// before the rows are aggregated.
		if p.Restriction != nil {
			where, err := b.predicate("WHERE", scope, p.Restriction)
			if err != nil {
				return nil, err
			}
			r := NewRestrict(where, child)
			r.bindColumns(b.ctx.Arena())
			child = r
			np.Restriction = nil
		}
		gb = NewGroupBy(nil, child)
	} else if p.Restriction != nil {
		having, err := b.expr(scope, p.Restriction)
		if err != nil {
			return nil, err
		}
		if t := having.Type(); !t.IsUnknown() && t.ID != sql.Boolean {
			return nil, sql.ErrTypeIncompatible.New("HAVING", t, t)
		}
		np.Restriction = having
	}
	ngb := *gb
	ngb.Child = child
	if ngb.Grouping, err = b.exprs(scope, gb.Grouping); err != nil {
		return nil, err
	}
	np.Child = &ngb
	return DecomposeGroupBy(b.ctx, &np, level)
}

func (b *binder) bindSort(s *Sort, level int, outer sql.Scope) (sql.Node, error) {
	child, err := b.bind(s.Child, level, outer)
	if err != nil {
		return nil, err
	}
	scope := NewScope(b.ctx, child, level, outer)
	columns := child.ResultColumns()

	ns := *s
	ns.Child = child
	ns.Fields = make([]SortField, len(s.Fields))
	for i, f := range s.Fields {
		e := f.Expr
		if pos, ok := columnPosition(e); ok {
			if pos < 1 || pos > len(columns) {
				return nil, sql.ErrColumnNotFound.New(fmt.Sprint(pos))
			}
			rc := b.ctx.Arena().Get(columns[pos-1])
			if cb, err := scope.ResolveColumn("", rc.Name); err == nil && cb.Source == rc.ID {
				e = expression.NewBoundColumnReference(rc.Name, cb, level)
			} else {
				e = expression.NewBoundColumnReference(rc.Name, &sql.ColumnBinding{
					Source:       rc.ID,
					TableNumber:  -1,
					ColumnNumber: pos,
					Index:        pos - 1,
					Level:        level,
					Type:         rc.Type,
				}, level)
			}
		}
		bound, err := b.expr(scope, e)
		if err != nil {
			return nil, err
		}
		if containsAggregate(bound) {
			return nil, sql.ErrAggregateNotAllowed.New("ORDER BY")
		}
		ns.Fields[i] = SortField{Expr: bound, Descending: f.Descending}
	}
	return &ns, nil
}

// columnPosition returns the column number of an ORDER BY item given as an
// integer constant.
func columnPosition(e sql.Expression) (int, bool) {
	l, ok := e.(*expression.Literal)
	if !ok || !l.Type().ID.IsIntegral() || l.IsNull() {
		return 0, false
	}
	switch v := l.Value().(type) {
	case int8:
		return int(v), true
	case int16:
		return int(v), true
	case int32:
		return int(v), true
	case int64:
		return int(v), true
	case int:
		return v, true
	}
	return 0, false
}

// columnRefs returns a reference to every column of t.
func (b *binder) columnRefs(t *BaseTable, level int) []sql.Expression {
	a := b.ctx.Arena()
	refs := make([]sql.Expression, len(t.columns))
	for i, id := range t.columns {
		rc := a.Get(id)
		refs[i] = expression.NewBoundColumnReference(rc.Name, &sql.ColumnBinding{
			Source:       id,
			TableNumber:  t.tableNumber,
			ColumnNumber: rc.Position,
			Index:        i,
			Level:        level,
			Type:         rc.Type,
			Table:        t.Name(),
		}, level)
	}
	return refs
}

// coerce converts e to the type of the target column, if they differ.
func (b *binder) coerce(e sql.Expression, col *sql.ColumnInfo) (sql.Expression, error) {
	t := col.Type.WithNullable(col.Nullable)
	if et := e.Type(); et.ID == t.ID && et.Precision == t.Precision && et.Scale == t.Scale &&
		et.MaxWidth == t.MaxWidth && et.UserClass == t.UserClass {
		return e, nil
	}
	return b.expr(nil, expression.NewCast(e, t))
}

func columnIndex(info *sql.TableInfo, name string) (int, bool) {
	for i, c := range info.Columns {
		if strings.EqualFold(c.Name, name) {
			return i, true
		}
	}
	return 0, false
}

func (b *binder) bindInsert(i *Insert, level int, outer sql.Scope) (sql.Node, error) {
	span, ctx := b.ctx.Span("plan.bindInsert", opentracing.Tags{"table": i.TableName})
	defer span.Finish()

	info, err := b.table(i.TableName)
	if err != nil {
		return nil, err
	}
	b.visited[strings.ToLower(info.Name)] = true
	target := NewBaseTable(ctx, info, "", b.next())

	source, err := b.bind(i.Child, level, outer)
	if err != nil {
		return nil, err
	}

	targets := make([]int, 0, len(info.Columns))
	if len(i.Columns) == 0 {
		for k := range info.Columns {
			targets = append(targets, k)
		}
	} else {
		seen := make(map[int]bool)
		for _, name := range i.Columns {
			k, ok := columnIndex(info, name)
			if !ok {
				return nil, sql.ErrColumnNotFound.New(fmt.Sprintf("%s.%s", info.Name, name))
			}
			if seen[k] {
				return nil, sql.ErrIllegalColumnReference.New(name, "the column is specified more than once")
			}
			seen[k] = true
			targets = append(targets, k)
		}
	}

	srcCols := source.ResultColumns()
	if len(srcCols) != len(targets) {
		return nil, sql.ErrInsertColumnCount.New(len(srcCols), len(targets))
	}

	tn := -1
	if t, ok := source.(TableNode); ok {
		tn = t.TableNumber()
	}
	a := ctx.Arena()
	after := make([]sql.Expression, len(info.Columns))
	for k, col := range targets {
		rc := a.Get(srcCols[k])
		ref := expression.NewBoundColumnReference(rc.Name, &sql.ColumnBinding{
			Source:       srcCols[k],
			TableNumber:  tn,
			ColumnNumber: k + 1,
			Index:        k,
			Level:        level,
			Type:         rc.Type,
		}, level)
		if after[col], err = b.coerce(ref, info.Columns[col]); err != nil {
			return nil, err
		}
	}
	for k, e := range after {
		if e == nil {
			after[k] = expression.NewLiteral(nil, info.Columns[k].Type.WithNullable(true))
		}
	}

	ni := *i
	ni.Child = source
	ni.Target = target
	ni.After = after
	ni.Closure = closureOf(info, sql.InsertEvent, nil)
	return &ni, nil
}

func (b *binder) bindTarget(n sql.Node, level int, outer sql.Scope) (sql.Node, *BaseTable, error) {
	source, err := b.bind(n, level, outer)
	if err != nil {
		return nil, nil, err
	}
	target := targetTable(source)
	sql.Assert(target != nil, "no target table in %s", source)
	b.visited[strings.ToLower(target.Info.Name)] = true
	return source, target, nil
}

func (b *binder) referencingKeys(table string) ([]*sql.ForeignKeyInfo, error) {
	c := b.ctx.Catalog()
	if c == nil {
		return nil, nil
	}
	return c.ReferencingForeignKeys(b.ctx, table)
}

func (b *binder) bindUpdate(u *Update, level int, outer sql.Scope) (sql.Node, error) {
	span, _ := b.ctx.Span("plan.bindUpdate", opentracing.Tags{"table": u.TableName})
	defer span.Finish()

	source, target, err := b.bindTarget(u.Child, level, outer)
	if err != nil {
		return nil, err
	}
	info := target.Info
	scope := NewScope(b.ctx, target, level, outer)

	before := b.columnRefs(target, level)
	after := append([]sql.Expression(nil), before...)
	var changed []string
	seen := make(map[int]bool)
	for _, f := range u.Set {
		k, ok := columnIndex(info, f.Column)
		if !ok {
			return nil, sql.ErrColumnNotFound.New(fmt.Sprintf("%s.%s", info.Name, f.Column))
		}
		if seen[k] {
			return nil, sql.ErrIllegalColumnReference.New(f.Column, "the column is assigned more than once")
		}
		seen[k] = true

		v, err := b.expr(scope, f.Value)
		if err != nil {
			return nil, err
		}
		if containsAggregate(v) {
			return nil, sql.ErrAggregateNotAllowed.New("SET")
		}
		if after[k], err = b.coerce(v, info.Columns[k]); err != nil {
			return nil, err
		}
		changed = append(changed, info.Columns[k].Name)
	}

	closure := closureOf(info, sql.UpdateEvent, changed)
	fks, err := b.referencingKeys(info.Name)
	if err != nil {
		return nil, err
	}
	for _, fk := range fks {
		if intersects(fk.ReferencedColumns, changed) {
			closure.Checks = append(closure.Checks, fk)
		}
	}

	nu := *u
	nu.Child = source
	nu.Target = target
	nu.Before = before
	nu.After = after
	nu.Closure = closure
	return &nu, nil
}

func (b *binder) bindDelete(d *Delete, level int, outer sql.Scope) (sql.Node, error) {
	span, _ := b.ctx.Span("plan.bindDelete", opentracing.Tags{"table": d.TableName})
	defer span.Finish()

	// A table deleted from earlier in the statement has had its referential
	// actions expanded already. Its dependents run those again.
	expand := !b.visited[strings.ToLower(d.TableName)]
	source, target, err := b.bindTarget(d.Child, level, outer)
	if err != nil {
		return nil, err
	}
	info := target.Info

	closure := closureOf(info, sql.DeleteEvent, nil)
	fks, err := b.referencingKeys(info.Name)
	if err != nil {
		return nil, err
	}
	for _, fk := range fks {
		var dep sql.Node
		switch fk.OnDelete {
		case sql.Cascade:
			nd := NewDelete(fk.Table, "", nil)
			nd.ForeignKey = fk
			dep = nd
		case sql.SetNull:
			set := make([]SetField, len(fk.Columns))
			for i, c := range fk.Columns {
				set[i] = SetField{Column: c, Value: expression.NewNullLiteral()}
			}
			nu := NewUpdate(fk.Table, "", set, nil)
			nu.ForeignKey = fk
			dep = nu
		default:
			closure.Checks = append(closure.Checks, fk)
			continue
		}

		if !expand {
			b.ctx.GetLogger().Debugf("referential action %s on %s already expanded", fk.Name, fk.Table)
			continue
		}
		bound, err := b.bind(dep, level, outer)
		if err != nil {
			return nil, err
		}
		closure.Dependents = append(closure.Dependents, bound)
	}

	nd := *d
	nd.Child = source
	nd.Target = target
	nd.Before = b.columnRefs(target, level)
	nd.Closure = closure
	return &nd, nil
}
