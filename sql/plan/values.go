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
	"github.com/dolthub/go-query-compiler/sql/types"
)

// Values is a constant table, the VALUES clause of a query or INSERT.
type Values struct {
	Rows        [][]sql.Expression
	tableNumber int
	columns     sql.ResultColumnList
}

var _ TableNode = (*Values)(nil)
var _ sql.Expressioner = (*Values)(nil)

// NewValues creates a new Values node.
func NewValues(rows ...[]sql.Expression) *Values {
	return &Values{Rows: rows, tableNumber: -1}
}

func (v *Values) TableNumber() int { return v.tableNumber }

func (v *Values) Resolved() bool {
	if v.columns == nil {
		return false
	}
	for _, e := range v.Expressions() {
		if !e.Resolved() {
			return false
		}
	}
	return true
}

func (*Values) Children() []sql.Node { return nil }

func (v *Values) WithChildren(children ...sql.Node) (sql.Node, error) {
	return NillaryWithChildren(v, children...)
}

func (v *Values) ResultColumns() sql.ResultColumnList { return v.columns }

func (v *Values) Expressions() []sql.Expression {
	var exprs []sql.Expression
	for _, row := range v.Rows {
		exprs = append(exprs, row...)
	}
	return exprs
}

func (v *Values) WithExpressions(exprs ...sql.Expression) (sql.Node, error) {
	expected := len(v.Expressions())
	if len(exprs) != expected {
		return nil, sql.ErrInvalidChildrenNumber.New(v, len(exprs), expected)
	}
	nv := *v
	nv.Rows = make([][]sql.Expression, len(v.Rows))
	i := 0
	for r, row := range v.Rows {
		nv.Rows[r] = exprs[i : i+len(row)]
		i += len(row)
	}
	return &nv, nil
}

func (v *Values) String() string {
	rows := make([]string, len(v.Rows))
	for i, row := range v.Rows {
		rows[i] = fmt.Sprintf("(%s)", strings.Join(exprStrings(row), ", "))
	}
	return fmt.Sprintf("Values(%s)", strings.Join(rows, ", "))
}

// bindColumns types every column with the dominant type of its rows. All
// rows must have the same number of values.
func (v *Values) bindColumns(ctx *sql.Context, tableNumber int) error {
	if len(v.Rows) == 0 {
		return sql.ErrInsertColumnCount.New(0, 0)
	}
	ts := types.Service(ctx)
	width := len(v.Rows[0])
	colTypes := make([]sql.Type, width)
	for i, e := range v.Rows[0] {
		colTypes[i] = e.Type()
	}
	for _, row := range v.Rows[1:] {
		if len(row) != width {
			return sql.ErrUnionColumnCount.New(width, len(row))
		}
		for i, e := range row {
			if !ts.Comparable(colTypes[i], e.Type(), false) {
				return sql.ErrTypeIncompatible.New("VALUES", colTypes[i], e.Type())
			}
			colTypes[i] = ts.DominantType(colTypes[i], e.Type())
		}
	}

	a := ctx.Arena()
	v.tableNumber = tableNumber
	v.columns = make(sql.ResultColumnList, width)
	for i, e := range v.Rows[0] {
		v.columns[i] = a.Add(sql.ResultColumn{
			Name:            columnName(e, i),
			Expr:            expression.Unalias(e),
			Type:            colTypes[i],
			Position:        i + 1,
			VirtualColumnID: i + 1,
		})
	}
	return nil
}
