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

package analyzer

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/go-query-compiler/memory"
	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/expression"
	"github.com/dolthub/go-query-compiler/sql/plan"
	"github.com/dolthub/go-query-compiler/sql/transform"
)

func newTestContext(t *testing.T, opts ...sql.ContextOption) *sql.Context {
	t.Helper()
	c, err := memory.LoadCatalogFile("../../memory/testdata/catalog.yaml")
	require.NoError(t, err)
	return sql.NewContext(context.Background(), append([]sql.ContextOption{sql.WithCatalog(c)}, opts...)...)
}

func col(table, name string) *expression.ColumnReference {
	return expression.NewColumnReference(table, name)
}

func table(name string) *plan.UnresolvedTable {
	return plan.NewUnresolvedTable(name, "")
}

func intLit(i int32) *expression.Literal {
	return expression.NewConstant(i)
}

func analyze(t *testing.T, ctx *sql.Context, n sql.Node) sql.Node {
	t.Helper()
	res, err := NewDefault().Analyze(ctx, n)
	require.NoError(t, err)
	return res
}

func mustBind(t *testing.T, ctx *sql.Context, n sql.Node) sql.Node {
	t.Helper()
	bound, err := plan.Bind(ctx, n, nil)
	require.NoError(t, err)
	return bound
}

// applyRule runs a single rule over n, the way a batch would.
func applyRule(t *testing.T, ctx *sql.Context, rule RuleFunc, n sql.Node) (sql.Node, transform.TreeIdentity) {
	t.Helper()
	res, same, err := rule(ctx, NewDefault(), n)
	require.NoError(t, err)
	return res, same
}

func baseTables(n sql.Node) []*plan.BaseTable {
	var tables []*plan.BaseTable
	transform.Inspect(n, func(n sql.Node) bool {
		if bt, ok := n.(*plan.BaseTable); ok {
			tables = append(tables, bt)
		}
		return true
	})
	return tables
}

func findTable(t *testing.T, n sql.Node, name string) *plan.BaseTable {
	t.Helper()
	for _, bt := range baseTables(n) {
		if bt.Name() == name {
			return bt
		}
	}
	require.Failf(t, "table not found", "no table %s in\n%s", name, n)
	return nil
}

func findNode[T sql.Node](n sql.Node) T {
	var found T
	transform.Inspect(n, func(n sql.Node) bool {
		if x, ok := n.(T); ok {
			found = x
			return false
		}
		return true
	})
	return found
}
