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
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/expression"
)

func TestCopyTree(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t)

	bound := mustBind(t, ctx, NewProjectRestrict(
		[]sql.Expression{col("t", "a"), col("u", "name")},
		expression.NewGreaterThan(col("t", "b"), intLit(1)),
		NewInnerJoin(table("t"), table("u"), expression.NewEquals(col("t", "a"), col("u", "c"))),
	)).(*ProjectRestrict)

	copied, err := CopyTree(bound)
	require.NoError(err)
	require.Equal(bound.String(), copied.String())
	require.Equal(bound.ResultColumns(), copied.ResultColumns())

	cp := copied.(*ProjectRestrict)
	require.NotSame(bound, cp)
	require.NotSame(bound.Projection[0], cp.Projection[0])
	require.NotSame(bound.Child, cp.Child)

	orig := bound.Child.(*Join).Left().(*BaseTable)
	dup := cp.Child.(*Join).Left().(*BaseTable)
	require.NotSame(orig, dup)
	dup.Filters = append(dup.Filters, expression.NewConstant(true))
	dup.AccessPaths().TrulyTheBest.JoinStrategy = HashJoin
	require.Empty(orig.Filters)
	require.False(orig.AccessPaths().TrulyTheBest.IsSet())
}

func TestFixFieldIndexes(t *testing.T) {
	require := require.New(t)
	ctx := newTestContext(t)

	bound := mustBind(t, ctx, NewProjectRestrict(
		[]sql.Expression{col("u", "name"), col("t", "a")},
		nil,
		NewInnerJoin(table("t"), table("u"), expression.NewEquals(col("t", "a"), col("u", "c"))),
	)).(*ProjectRestrict)
	require.Equal(6, bound.Projection[0].(*expression.ColumnReference).Index)

	// swap the join inputs the way a join order change does
	j := bound.Child.(*Join)
	swapped, err := j.WithChildren(j.Right(), j.Left())
	require.NoError(err)
	n, err := bound.WithChildren(swapped)
	require.NoError(err)

	fixed, err := FixFieldIndexes(ctx, n)
	require.NoError(err)
	pr := fixed.(*ProjectRestrict)
	require.Equal(2, pr.Projection[0].(*expression.ColumnReference).Index)
	require.Equal(3, pr.Projection[1].(*expression.ColumnReference).Index)

	cond := pr.Child.(*Join).Cond.(*expression.Comparison)
	require.Equal(3, cond.Left.(*expression.ColumnReference).Index)
	require.Equal(0, cond.Right.(*expression.ColumnReference).Index)

	// the input tree keeps its offsets
	require.Equal(6, bound.Projection[0].(*expression.ColumnReference).Index)

	again, err := FixFieldIndexes(ctx, fixed)
	require.NoError(err)
	require.Equal(fixed.String(), again.String())
}
