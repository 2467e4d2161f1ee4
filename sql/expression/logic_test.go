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

package expression

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/codegen"
)

func logicScope(ctx *sql.Context) *testScope {
	return newTestScope(ctx, 0, nil,
		scopeColumn{"t", "a", intType()},
		scopeColumn{"t", "b", intType().WithNullable(true)},
		scopeColumn{"t", "s", sql.VarcharType(10)},
		scopeColumn{"u", "c", intType()},
	)
}

func TestEliminateNots(t *testing.T) {
	ctx := sql.NewEmptyContext()
	scope := logicScope(ctx)
	one, five := NewConstant(1), NewConstant(5)

	testCases := []struct {
		name     string
		input    sql.Expression
		expected string
	}{
		{
			"negated comparison",
			NewNot(NewEquals(col("a"), one)),
			"t.a <> 1",
		},
		{
			"de morgan over and",
			NewNot(NewAnd(NewLessThan(col("a"), one), NewIsNull(col("b")))),
			"(t.a >= 1 OR t.b IS NOT NULL)",
		},
		{
			"de morgan over or",
			NewNot(NewOr(NewGreaterThanOrEqual(col("a"), one), NewLiteral(true, sql.NewType(sql.Boolean)))),
			"(t.a < 1 AND FALSE)",
		},
		{
			"double negation",
			NewNot(NewNot(NewGreaterThan(col("a"), one))),
			"t.a > 1",
		},
		{
			"between",
			NewNot(NewBetween(col("a"), one, five)),
			"(t.a < 1 OR t.a > 5)",
		},
		{
			"like keeps its negation",
			NewNot(NewLike(col("s"), NewConstant("x%"), nil)),
			"NOT(t.s LIKE 'x%')",
		},
		{
			"no negation",
			NewAnd(NewEquals(col("a"), one), NewNotEquals(col("c"), five)),
			"(t.a = 1 AND u.c <> 5)",
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			bound := mustBind(ctx, scope, tt.input)
			result := EliminateNots(ctx, bound, false)
			require.Equal(t, tt.expected, result.String())
		})
	}
}

func TestEliminateNotsUnderNot(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	bound := mustBind(ctx, logicScope(ctx), NewLessThanOrEqual(col("a"), NewConstant(3)))

	result := EliminateNots(ctx, bound, true)
	require.Equal("t.a > 3", result.String())
	// the input is not modified
	require.Equal("t.a <= 3", bound.String())
}

func TestCategorize(t *testing.T) {
	ctx := sql.NewEmptyContext()
	outer := newTestScope(ctx, 0, nil, scopeColumn{"o", "k", intType()})
	inner := newTestScope(ctx, 1, outer,
		scopeColumn{"t", "a", intType()},
		scopeColumn{"u", "c", intType()},
	)

	testCases := []struct {
		name     string
		input    sql.Expression
		simple   bool
		pushable bool
		tables   []int
	}{
		{
			"join predicate",
			NewEquals(col("a"), col("c")),
			true,
			true,
			[]int{10, 11},
		},
		{
			"constant",
			NewEquals(NewConstant(1), NewConstant(2)),
			true,
			true,
			nil,
		},
		{
			"method call when simple",
			NewEquals(NewMethodCall("abs", intType(), col("a")), NewConstant(1)),
			true,
			false,
			[]int{10},
		},
		{
			"method call",
			NewEquals(NewMethodCall("abs", intType(), col("a")), NewConstant(1)),
			false,
			true,
			[]int{10},
		},
		{
			"correlated",
			NewAnd(NewEquals(col("k"), col("a")), NewGreaterThan(col("c"), NewConstant(0))),
			false,
			false,
			[]int{0, 10, 11},
		},
		{
			"aggregate",
			NewGreaterThan(NewAggregate(Sum, col("c"), false), NewConstant(0)),
			false,
			false,
			[]int{11},
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			bound := mustBind(ctx, inner, tt.input)
			var tables sql.TableSet
			require.Equal(tt.pushable, Categorize(bound, &tables, tt.simple))
			require.True(sql.NewTableSet(tt.tables...).Equals(tables), tables.String())
		})
	}
}

func TestEquivalent(t *testing.T) {
	ctx := sql.NewEmptyContext()
	scope := logicScope(ctx)
	bind := func(e sql.Expression) sql.Expression { return mustBind(ctx, scope, e) }

	testCases := []struct {
		name       string
		a, b       sql.Expression
		equivalent bool
	}{
		{
			"same comparison",
			bind(NewEquals(col("a"), NewConstant(1))),
			bind(NewEquals(col("a"), NewConstant(1))),
			true,
		},
		{
			"different constant",
			bind(NewEquals(col("a"), NewConstant(1))),
			bind(NewEquals(col("a"), NewConstant(2))),
			false,
		},
		{
			"different operator",
			bind(NewEquals(col("a"), NewConstant(1))),
			bind(NewNotEquals(col("a"), NewConstant(1))),
			false,
		},
		{
			"different column",
			bind(col("a")),
			bind(col("c")),
			false,
		},
		{
			"parameters",
			NewTypedParameter(0, intType()),
			NewTypedParameter(0, intType()),
			false,
		},
		{
			"deterministic call",
			&MethodCall{Name: "abs", Args: []sql.Expression{bind(col("a"))}, Deterministic: true},
			&MethodCall{Name: "abs", Args: []sql.Expression{bind(col("a"))}, Deterministic: true},
			true,
		},
		{
			"non deterministic call",
			NewMethodCall("random", sql.NewType(sql.Double)),
			NewMethodCall("random", sql.NewType(sql.Double)),
			false,
		},
		{
			"casts to different widths",
			NewCast(bind(col("s")), sql.VarcharType(5)),
			NewCast(bind(col("s")), sql.VarcharType(6)),
			false,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.equivalent, Equivalent(tt.a, tt.b))
		})
	}
}

func TestCloneIsDeep(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	bound := mustBind(ctx, logicScope(ctx), NewAnd(
		NewEquals(col("a"), NewConstant(1)),
		NewIsNull(col("b")),
	))

	clone := Clone(bound)
	require.True(Equivalent(bound, clone))
	require.Equal(bound.String(), clone.String())

	left := bound.(*And).Left.(*Comparison)
	cloneLeft := clone.(*And).Left.(*Comparison)
	require.NotSame(left, cloneLeft)
	require.NotSame(left.Left, cloneLeft.Left)
}

func TestEvalLogic(t *testing.T) {
	ctx := sql.NewEmptyContext()
	scope := logicScope(ctx)
	// a, b, s, c
	row := sql.NewRow(int32(1), nil, "x", int32(5))

	testCases := []struct {
		name     string
		input    sql.Expression
		expected interface{}
	}{
		{"true and true", NewAnd(NewEquals(col("a"), NewConstant(1)), NewLessThan(col("a"), col("c"))), true},
		{"true and null", NewAnd(NewEquals(col("a"), NewConstant(1)), NewEquals(col("b"), NewConstant(1))), nil},
		{"false and null", NewAnd(NewEquals(col("a"), NewConstant(2)), NewEquals(col("b"), NewConstant(1))), false},
		{"true or null", NewOr(NewEquals(col("b"), NewConstant(1)), NewEquals(col("a"), NewConstant(1))), true},
		{"false or null", NewOr(NewEquals(col("b"), NewConstant(1)), NewEquals(col("a"), NewConstant(2))), nil},
		{"is null", NewIsNull(col("b")), true},
		{"is not null", NewIsNotNull(col("a")), true},
		{"not", NewNot(NewGreaterThan(col("a"), col("c"))), true},
		{"not null", NewNot(NewEquals(col("b"), NewConstant(1))), nil},
		{"between", NewBetween(col("c"), col("a"), NewConstant(5)), true},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			bound := mustBind(ctx, scope, tt.input)
			result, err := Eval(ctx, row, bound)
			require.NoError(err)
			require.Equal(tt.expected, result)
		})
	}
}

func TestEmitLogicalOperators(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	bound := mustBind(ctx, logicScope(ctx), NewOr(
		NewEquals(col("a"), NewConstant(1)),
		NewIsNotNull(col("b")),
	))

	p := codegen.NewProgram()
	require.NoError(Emit(ctx, p, bound))
	require.Equal([]string{"equals", "getBoolean", "isNotNull", "or"}, p.Invocations())
	require.Equal(1, p.Count(codegen.OpBranchTrue))
	require.Equal(0, p.Count(codegen.OpBranchFalse))
	require.Equal(1, p.Count(codegen.OpLabel))
}

func TestEmitBetween(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	bound := mustBind(ctx, logicScope(ctx), NewBetween(col("c"), col("a"), NewConstant(5)))

	p := codegen.NewProgram()
	require.NoError(Emit(ctx, p, bound))
	require.Equal(2, p.Count(codegen.OpLoadColumn), "the tested value is read once")
	require.Equal(1, p.Count(codegen.OpStore))
	require.Equal(2, p.Count(codegen.OpLoad))
	require.Equal([]string{"greaterOrEquals", "getBoolean", "lessOrEquals", "and"}, p.Invocations())
}
