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
	"context"
	"fmt"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/go-query-compiler/memory"
	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/expression"
)

func newTestContext(t *testing.T) *sql.Context {
	t.Helper()
	c, err := memory.LoadCatalogFile("../../memory/testdata/catalog.yaml")
	require.NoError(t, err)
	return sql.NewContext(context.Background(), sql.WithCatalog(c))
}

func col(table, name string) *expression.ColumnReference {
	return expression.NewColumnReference(table, name)
}

func table(name string) *UnresolvedTable {
	return NewUnresolvedTable(name, "")
}

func intLit(v int32) *expression.Literal {
	return expression.NewConstant(v)
}

func mustBind(t *testing.T, ctx *sql.Context, n sql.Node) sql.Node {
	t.Helper()
	bound, err := Bind(ctx, n, nil)
	require.NoError(t, err)
	require.True(t, bound.Resolved(), "unresolved tree:\n%s", bound)
	return bound
}

// columnNames returns the names of the result columns of n.
func columnNames(ctx *sql.Context, n sql.Node) []string {
	return n.ResultColumns().Names(ctx.Arena())
}

// evaluator runs a bound tree over in-memory rows with nested loops.
type evaluator struct {
	ctx  *sql.Context
	data map[string][]sql.Row
}

func (ev *evaluator) rows(t *testing.T, n sql.Node) []sql.Row {
	t.Helper()
	switch n := n.(type) {
	case *BaseTable:
		return ev.filter(t, ev.data[n.Info.Name], n.Filters...)
	case *Join:
		left, right := ev.rows(t, n.Left()), ev.rows(t, n.Right())
		width := len(relationColumns(n.Right()))
		var out []sql.Row
		for _, l := range left {
			matched := false
			for _, r := range right {
				row := l.Append(r)
				if n.Cond == nil || ev.truth(t, n.Cond, row) {
					out = append(out, row)
					matched = true
				}
			}
			if !matched && n.Type == LeftOuterJoin {
				out = append(out, l.Append(make(sql.Row, width)))
			}
		}
		return out
	case *ProjectRestrict:
		sql.Assert(n.IsRestrictOnly(), "evaluator only runs restrictions")
		if n.Restriction == nil {
			return ev.rows(t, n.Child)
		}
		return ev.filter(t, ev.rows(t, n.Child), n.Restriction)
	}
	t.Fatalf("evaluator cannot run %T", n)
	return nil
}

func (ev *evaluator) filter(t *testing.T, rows []sql.Row, preds ...sql.Expression) []sql.Row {
	var out []sql.Row
	for _, row := range rows {
		keep := true
		for _, p := range preds {
			keep = keep && ev.truth(t, p, row)
		}
		if keep {
			out = append(out, row)
		}
	}
	return out
}

func (ev *evaluator) truth(t *testing.T, e sql.Expression, row sql.Row) bool {
	v, err := expression.Eval(ev.ctx, row, e)
	require.NoError(t, err)
	return v == true
}

// relationColumns returns the columns of the flat row n produces.
func relationColumns(n sql.Node) sql.ResultColumnList {
	var cols sql.ResultColumnList
	for _, r := range relationsOf(n, false) {
		cols = append(cols, r.columns...)
	}
	return cols
}

// sortedRows renders rows in a canonical order, so that results of
// differently shaped trees can be compared.
func sortedRows(rows []sql.Row) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = rowString(r)
	}
	sort.Strings(out)
	return out
}

func rowString(r sql.Row) string {
	vals := make([]string, len(r))
	for i, v := range r {
		if v == nil {
			vals[i] = "NULL"
		} else {
			vals[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(vals, ",")
}
