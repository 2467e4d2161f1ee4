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

// SortField is a key of an ORDER BY.
type SortField struct {
	Expr       sql.Expression
	Descending bool
}

func (f SortField) String() string {
	if f.Descending {
		return fmt.Sprintf("%s DESC", f.Expr)
	}
	return fmt.Sprintf("%s ASC", f.Expr)
}

// NoLimit is the Limit of a sort without FETCH FIRST.
const NoLimit = -1

// Sort orders the rows of its child.
type Sort struct {
	UnaryNode
	Fields []SortField
	// Limit is the FETCH FIRST row count, or NoLimit.
	Limit int64
	// Avoided is set when the rows of the child are already in order and no
	// sort is needed at execution.
	Avoided bool
}

var _ sql.Node = (*Sort)(nil)
var _ sql.Expressioner = (*Sort)(nil)

// NewSort creates a new Sort node.
func NewSort(fields []SortField, child sql.Node) *Sort {
	return &Sort{UnaryNode: UnaryNode{child}, Fields: fields, Limit: NoLimit}
}

// NewSortWithLimit creates a Sort that keeps the first limit rows.
func NewSortWithLimit(fields []SortField, limit int64, child sql.Node) *Sort {
	s := NewSort(fields, child)
	s.Limit = limit
	return s
}

// Resolved implements the Resolvable interface.
func (s *Sort) Resolved() bool {
	for _, f := range s.Fields {
		if !f.Expr.Resolved() {
			return false
		}
	}
	return s.Child.Resolved()
}

// ResultColumns implements the Node interface.
func (s *Sort) ResultColumns() sql.ResultColumnList { return s.Child.ResultColumns() }

// Expressions implements the Expressioner interface.
func (s *Sort) Expressions() []sql.Expression {
	exprs := make([]sql.Expression, len(s.Fields))
	for i, f := range s.Fields {
		exprs[i] = f.Expr
	}
	return exprs
}

// WithExpressions implements the Expressioner interface.
func (s *Sort) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	if len(exprs) != len(s.Fields) {
		return nil, sql.ErrInvalidChildrenNumber.New(s, len(exprs), len(s.Fields))
	}
	ns := *s
	ns.Fields = make([]SortField, len(exprs))
	for i, e := range exprs {
		ns.Fields[i] = SortField{Expr: e, Descending: s.Fields[i].Descending}
	}
	return &ns, nil
}

// WithChildren implements the Node interface.
func (s *Sort) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidChildrenNumber.New(s, len(children), 1)
	}
	ns := *s
	ns.Child = children[0]
	return &ns, nil
}

func (s *Sort) String() string {
	fields := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		fields[i] = f.String()
	}
	pr := sql.NewTreePrinter()
	name := "Sort"
	if s.Avoided {
		name = "Sort[avoided]"
	}
	if s.Limit != NoLimit {
		_ = pr.WriteNode("%s(%s) FETCH FIRST %d", name, strings.Join(fields, ", "), s.Limit)
	} else {
		_ = pr.WriteNode("%s(%s)", name, strings.Join(fields, ", "))
	}
	_ = pr.WriteChildren(s.Child.String())
	return pr.String()
}

// Distinct removes duplicate rows. Without Hash duplicates are found by
// sorting, which leaves the rows ordered by all their columns.
type Distinct struct {
	UnaryNode
	Hash bool
}

var _ sql.Node = (*Distinct)(nil)

// NewDistinct creates a new Distinct node.
func NewDistinct(child sql.Node) *Distinct {
	return &Distinct{UnaryNode: UnaryNode{child}}
}

// ResultColumns implements the Node interface.
func (d *Distinct) ResultColumns() sql.ResultColumnList { return d.Child.ResultColumns() }

// WithChildren implements the Node interface.
func (d *Distinct) WithChildren(children ...sql.Node) (sql.Node, error) {
	if len(children) != 1 {
		return nil, sql.ErrInvalidChildrenNumber.New(d, len(children), 1)
	}
	nd := *d
	nd.Child = children[0]
	return &nd, nil
}

func (d *Distinct) String() string {
	pr := sql.NewTreePrinter()
	if d.Hash {
		_ = pr.WriteNode("Distinct[hash]")
	} else {
		_ = pr.WriteNode("Distinct")
	}
	_ = pr.WriteChildren(d.Child.String())
	return pr.String()
}
