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
)

// Closure is the set of constraints, triggers and referential actions a
// data modification statement must run.
type Closure struct {
	Constraints []*sql.ConstraintInfo
	Triggers    []*sql.TriggerInfo
	// Checks are the foreign keys verified for the changed rows.
	Checks []*sql.ForeignKeyInfo
	// Dependents are the statements cascading the change to referencing
	// tables.
	Dependents []sql.Node
}

func (c *Closure) children() []string {
	var out []string
	for _, k := range c.Constraints {
		out = append(out, fmt.Sprintf("Constraint(%s)", k.Name))
	}
	for _, t := range c.Triggers {
		out = append(out, fmt.Sprintf("Trigger(%s)", t.Name))
	}
	for _, fk := range c.Checks {
		out = append(out, fmt.Sprintf("Check(%s)", fk.Name))
	}
	for _, d := range c.Dependents {
		out = append(out, d.String())
	}
	return out
}

// closureOf collects the constraints and triggers of table affected by a
// change of the given columns. A nil list changes every column.
func closureOf(info *sql.TableInfo, event sql.TriggerEvent, changed []string) Closure {
	var c Closure
	for _, k := range info.Constraints {
		if changed == nil || intersects(k.Columns, changed) {
			c.Constraints = append(c.Constraints, k)
		}
	}
	for _, t := range info.Triggers {
		if t.Event != event {
			continue
		}
		if changed == nil || len(t.Columns) == 0 || intersects(t.Columns, changed) {
			c.Triggers = append(c.Triggers, t)
		}
	}
	if event != sql.DeleteEvent {
		for _, fk := range info.ForeignKeys {
			if changed == nil || intersects(fk.Columns, changed) {
				c.Checks = append(c.Checks, fk)
			}
		}
	}
	return c
}

func intersects(a, b []string) bool {
	for _, x := range a {
		for _, y := range b {
			if strings.EqualFold(x, y) {
				return true
			}
		}
	}
	return false
}

// SetField is an assignment of the SET clause of an UPDATE.
type SetField struct {
	Column string
	Value  sql.Expression
}

func (f SetField) String() string {
	return fmt.Sprintf("%s = %s", f.Column, f.Value)
}

// Insert inserts the rows of its child into a table.
type Insert struct {
	UnaryNode
	TableName string
	// Columns is the target column list. Empty means every column in table
	// order.
	Columns []string
	Target  *BaseTable
	// After has one expression per target table column, computing the
	// inserted value from a source row.
	After   []sql.Expression
	Closure Closure
}

var _ sql.Node = (*Insert)(nil)
var _ sql.Expressioner = (*Insert)(nil)

// NewInsert creates an INSERT of the rows of source into table.
func NewInsert(table string, columns []string, source sql.Node) *Insert {
	return &Insert{UnaryNode: UnaryNode{source}, TableName: table, Columns: columns}
}

func (i *Insert) Resolved() bool {
	return i.Target != nil && i.Child.Resolved()
}

func (*Insert) ResultColumns() sql.ResultColumnList { return nil }

func (i *Insert) Expressions() []sql.Expression { return i.After }

func (i *Insert) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	if len(exprs) != len(i.After) {
		return nil, sql.ErrInvalidChildrenNumber.New(i, len(exprs), len(i.After))
	}
	ni := *i
	ni.After = exprs
	return &ni, nil
}

func (i *Insert) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidChildrenNumber.New(i, len(children), 1)
	}
	ni := *i
	ni.Child = children[0]
	return &ni, nil
}

func (i *Insert) String() string {
	pr := sql.NewTreePrinter()
	_ = pr.WriteNode("Insert(%s)", i.TableName)
	var children []string
	if i.After != nil {
		children = append(children, fmt.Sprintf("After(%s)", strings.Join(exprStrings(i.After), ", ")))
	}
	children = append(children, i.Closure.children()...)
	children = append(children, i.Child.String())
	_ = pr.WriteChildren(children...)
	return pr.String()
}

// Update changes the rows of a table produced by its child, which scans the
// target table.
type Update struct {
	UnaryNode
	TableName string
	Set       []SetField
	// ForeignKey is set on an update cascaded from a deleted referenced row.
	ForeignKey *sql.ForeignKeyInfo
	Target     *BaseTable
	// Before reads every column of the target row; After computes its new
	// value.
	Before  []sql.Expression
	After   []sql.Expression
	Closure Closure
}

var _ sql.Node = (*Update)(nil)
var _ sql.Expressioner = (*Update)(nil)

// NewUpdate creates an UPDATE of the rows of table matching where, which
// may be nil.
func NewUpdate(table, alias string, set []SetField, where sql.Expression) *Update {
	return &Update{
		UnaryNode: UnaryNode{targetSource(table, alias, where)},
		TableName: table,
		Set:       set,
	}
}

func targetSource(table, alias string, where sql.Expression) sql.Node {
	var n sql.Node = NewUnresolvedTable(table, alias)
	if where != nil {
		n = NewRestrict(where, n)
	}
	return n
}

func (u *Update) Resolved() bool {
	return u.Target != nil && u.Child.Resolved()
}

func (*Update) ResultColumns() sql.ResultColumnList { return nil }

func (u *Update) Expressions() []sql.Expression {
	return append(append([]sql.Expression(nil), u.Before...), u.After...)
}

func (u *Update) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	expected := len(u.Before) + len(u.After)
	if len(exprs) != expected {
		return nil, sql.ErrInvalidChildrenNumber.New(u, len(exprs), expected)
	}
	nu := *u
	nu.Before = exprs[:len(u.Before)]
	nu.After = exprs[len(u.Before):]
	return &nu, nil
}

func (u *Update) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidChildrenNumber.New(u, len(children), 1)
	}
	nu := *u
	nu.Child = children[0]
	return &nu, nil
}

func (u *Update) String() string {
	set := make([]string, len(u.Set))
	for i, f := range u.Set {
		set[i] = f.String()
	}
	pr := sql.NewTreePrinter()
	if u.ForeignKey != nil {
		_ = pr.WriteNode("Update(%s) ON DELETE %s", u.TableName, u.ForeignKey.Name)
	} else {
		_ = pr.WriteNode("Update(%s)", u.TableName)
	}
	children := []string{fmt.Sprintf("Set(%s)", strings.Join(set, ", "))}
	children = append(children, u.Closure.children()...)
	children = append(children, u.Child.String())
	_ = pr.WriteChildren(children...)
	return pr.String()
}

// Delete removes the rows of a table produced by its child, which scans the
// target table.
type Delete struct {
	UnaryNode
	TableName string
	// ForeignKey is set on a delete cascaded from a deleted referenced row.
	ForeignKey *sql.ForeignKeyInfo
	Target     *BaseTable
	Before     []sql.Expression
	Closure    Closure
}

var _ sql.Node = (*Delete)(nil)
var _ sql.Expressioner = (*Delete)(nil)

// NewDelete creates a DELETE of the rows of table matching where, which may
// be nil.
func NewDelete(table, alias string, where sql.Expression) *Delete {
	return &Delete{UnaryNode: UnaryNode{targetSource(table, alias, where)}, TableName: table}
}

func (d *Delete) Resolved() bool {
	return d.Target != nil && d.Child.Resolved()
}

func (*Delete) ResultColumns() sql.ResultColumnList { return nil }

func (d *Delete) Expressions() []sql.Expression { return d.Before }

func (d *Delete) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	if len(exprs) != len(d.Before) {
		return nil, sql.ErrInvalidChildrenNumber.New(d, len(exprs), len(d.Before))
	}
	nd := *d
	nd.Before = exprs
	return &nd, nil
}

func (d *Delete) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidChildrenNumber.New(d, len(children), 1)
	}
	nd := *d
	nd.Child = children[0]
	return &nd, nil
}

func (d *Delete) String() string {
	pr := sql.NewTreePrinter()
	if d.ForeignKey != nil {
		_ = pr.WriteNode("Delete(%s) ON DELETE %s", d.TableName, d.ForeignKey.Name)
	} else {
		_ = pr.WriteNode("Delete(%s)", d.TableName)
	}
	children := d.Closure.children()
	children = append(children, d.Child.String())
	_ = pr.WriteChildren(children...)
	return pr.String()
}

// targetTable returns the table scanned by the source of an UPDATE or
// DELETE.
func targetTable(n sql.Node) *BaseTable {
	for {
		switch t := n.(type) {
		case *BaseTable:
			return t
		case *ProjectRestrict:
			n = t.Child
		default:
			return nil
		}
	}
}
