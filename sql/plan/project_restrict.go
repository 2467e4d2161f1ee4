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
)

// ProjectRestrict computes its select list over the rows of its child that
// satisfy its restriction. A nil projection passes the columns of the child
// through.
type ProjectRestrict struct {
	UnaryNode
	Projection  []sql.Expression
	Restriction sql.Expression
	columns     sql.ResultColumnList
}

var _ sql.Node = (*ProjectRestrict)(nil)
var _ sql.Expressioner = (*ProjectRestrict)(nil)

// NewProjectRestrict creates a new ProjectRestrict node.
func NewProjectRestrict(projection []sql.Expression, restriction sql.Expression, child sql.Node) *ProjectRestrict {
	return &ProjectRestrict{
		UnaryNode:   UnaryNode{child},
		Projection:  projection,
		Restriction: restriction,
	}
}

// NewRestrict creates a ProjectRestrict that only filters its child.
func NewRestrict(restriction sql.Expression, child sql.Node) *ProjectRestrict {
	return NewProjectRestrict(nil, restriction, child)
}

// Resolved implements the Resolvable interface.
func (p *ProjectRestrict) Resolved() bool {
	if p.columns == nil || !p.Child.Resolved() {
		return false
	}
	for _, e := range p.Expressions() {
		if !e.Resolved() {
			return false
		}
	}
	return true
}

// ResultColumns implements the Node interface.
func (p *ProjectRestrict) ResultColumns() sql.ResultColumnList { return p.columns }

// Expressions implements the Expressioner interface.
func (p *ProjectRestrict) Expressions() []sql.Expression {
	exprs := append([]sql.Expression(nil), p.Projection...)
	if p.Restriction != nil {
		exprs = append(exprs, p.Restriction)
	}
	return exprs
}

// WithExpressions implements the Expressioner interface.
func (p *ProjectRestrict) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	expected := len(p.Projection)
	if p.Restriction != nil {
		expected++
	}
	if len(exprs) != expected {
		return nil, sql.ErrInvalidChildrenNumber.New(p, len(exprs), expected)
	}
	np := *p
	if p.Projection != nil {
		np.Projection = exprs[:len(p.Projection)]
	}
	if p.Restriction != nil {
		np.Restriction = exprs[len(exprs)-1]
	}
	return &np, nil
}

// WithChildren implements the Node interface.
func (p *ProjectRestrict) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidChildrenNumber.New(p, len(children), 1)
	}
	np := *p
	np.Child = children[0]
	return &np, nil
}

// WithRestriction returns a copy of the node with the given restriction.
func (p *ProjectRestrict) WithRestriction(restriction sql.Expression) *ProjectRestrict {
	np := *p
	np.Restriction = restriction
	return &np
}

// IsRestrictOnly reports whether the node passes the columns of its child
// through.
func (p *ProjectRestrict) IsRestrictOnly() bool {
	return p.Projection == nil
}

func (p *ProjectRestrict) String() string {
	pr := sql.NewTreePrinter()
	if p.Projection == nil {
		_ = pr.WriteNode("Restrict")
	} else {
		_ = pr.WriteNode("ProjectRestrict(%s)", strings.Join(exprStrings(p.Projection), ", "))
	}
	var children []string
	if p.Restriction != nil {
		children = append(children, fmt.Sprintf("Restriction(%s)", p.Restriction))
	}
	children = append(children, p.Child.String())
	_ = pr.WriteChildren(children...)
	return pr.String()
}

// bindColumns creates the result columns of the node, or updates them in
// place when the node already has them.
func (p *ProjectRestrict) bindColumns(a *sql.Arena) {
	if p.Projection == nil {
		if p.columns != nil {
			return
		}
		p.columns = make(sql.ResultColumnList, 0, len(p.Child.ResultColumns()))
		for i, id := range p.Child.ResultColumns() {
			rc := a.Get(id)
			p.columns = append(p.columns, a.Add(sql.ResultColumn{
				Name:            rc.Name,
				TableName:       rc.TableName,
				Expr:            expression.NewVirtualColumn(a, id),
				Type:            rc.Type,
				Position:        i + 1,
				VirtualColumnID: i + 1,
				Generated:       rc.Generated,
				Redundant:       true,
			}))
		}
		return
	}

	update := len(p.columns) == len(p.Projection)
	if !update {
		p.columns = make(sql.ResultColumnList, len(p.Projection))
	}
	for i, e := range p.Projection {
		rc := sql.ResultColumn{
			Name:            columnName(e, i),
			TableName:       tableName(e),
			Expr:            expression.Unalias(e),
			Type:            e.Type(),
			Position:        i + 1,
			VirtualColumnID: i + 1,
		}
		if update {
			existing := a.Get(p.columns[i])
			rc.ID = existing.ID
			rc.Generated = existing.Generated
			*existing = rc
		} else {
			p.columns[i] = a.Add(rc)
		}
	}
}

// columnName is the name of a select list item: its alias or column name,
// else its position.
func columnName(e sql.Expression, i int) string {
	if n, ok := e.(sql.Nameable); ok {
		return n.Name()
	}
	return fmt.Sprint(i + 1)
}

func tableName(e sql.Expression) string {
	if t, ok := expression.Unalias(e).(sql.Tableable); ok {
		return t.Table()
	}
	return ""
}
