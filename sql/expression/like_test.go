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
	"gopkg.in/src-d/go-errors.v1"

	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/types"
)

func likeScope(ctx *sql.Context) sql.Scope {
	return newTestScope(ctx, 0, nil,
		scopeColumn{"t", "a", sql.CharType(5)},
		scopeColumn{"t", "s", sql.VarcharType(10)},
		scopeColumn{"t", "u", sql.VarcharType(10).WithCollation(sql.CollationTerritoryBased)},
		scopeColumn{"t", "i", intType()},
		scopeColumn{"t", "w", sql.VarcharType(2000)},
		scopeColumn{"t", "l", sql.NewType(sql.Clob)},
	)
}

func TestBindLike(t *testing.T) {
	ctx := sql.NewEmptyContext()
	scope := likeScope(ctx)

	testCases := []struct {
		name     string
		expr     sql.Expression
		equality string
		err      *errors.Kind
	}{
		{"no wildcard", NewLike(col("s"), NewConstant("abc"), nil), "abc", nil},
		{"escaped wildcard", NewLike(col("s"), NewConstant("a!%b"), NewConstant("!")), "a%b", nil},
		{"wildcard", NewLike(col("s"), NewConstant("a%"), nil), "", nil},
		{"char column keeps like", NewLike(col("a"), NewConstant("abc"), nil), "", nil},
		{"parameter pattern", NewLike(col("s"), NewParameter(0), nil), "", nil},
		{"long escape", NewLike(col("s"), NewConstant("a%"), NewConstant("!!")), "", sql.ErrInvalidEscapeCharacter},
		{"dangling escape", NewLike(col("s"), NewConstant("a!"), NewConstant("!")), "", ErrInvalidEscapeSequence},
		{"integer receiver", NewLike(col("i"), NewConstant("1%"), nil), "", sql.ErrFunctionIncompatible},
		{"integer pattern", NewLike(col("s"), col("i"), nil), "", sql.ErrFunctionIncompatible},
		{"collation mismatch", NewLike(col("s"), col("u"), nil), "", sql.ErrCollationMismatch},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			bound, err := Bind(ctx, scope, tt.expr)
			if tt.err != nil {
				require.Error(err)
				require.True(tt.err.Is(err), "unexpected error %v", err)
				return
			}
			require.NoError(err)
			if tt.equality == "" {
				require.IsType(&LikeEscape{}, bound)
				require.True(bound.Resolved())
				return
			}
			c, ok := bound.(*Comparison)
			require.True(ok, "expected an equality, got %s", bound)
			require.Equal(Equals, c.Op)
			require.Equal(tt.equality, c.Right.(*Literal).Value())
		})
	}
}

func TestBindLikeParameters(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	scope := likeScope(ctx)

	bound := mustBind(ctx, scope, NewLike(NewParameter(0), col("u"), NewParameter(1))).(*LikeEscape)
	require.Equal(sql.Varchar, bound.Left.Type().ID)
	require.Equal(sql.CollationTerritoryBased, bound.Left.Type().Collation)
	require.Equal(1, bound.Escape.Type().MaxWidth)

	bound = mustBind(ctx, scope, NewLike(NewParameter(0), NewParameter(1), nil)).(*LikeEscape)
	require.Equal(sql.Varchar, bound.Left.Type().ID)
	require.Equal(sql.Varchar, bound.Pattern.Type().ID)
}

func TestLikeRangeOnChar(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	scope := likeScope(ctx)

	res := preprocessed(t, ctx, scope, NewLike(col("a"), NewConstant("ab%"), nil))

	// the pattern is a prefix followed by %, so the LIKE itself is dropped
	and, ok := res.(*And)
	require.True(ok)
	ge := and.Left.(*Comparison)
	require.Equal(GreaterThanOrEqual, ge.Op)
	require.Equal("ab\x00\x00\x00", ge.Right.(*Literal).Value())

	rest := and.Right.(*And)
	lt := rest.Left.(*Comparison)
	require.Equal(LessThan, lt.Op)
	require.Equal("ac\x00\x00\x00", lt.Right.(*Literal).Value())
	require.Equal(true, rest.Right.(*Literal).Value())

	require.Equal("a", ge.Left.(*ColumnReference).Name())
	require.False(ge.Left == lt.Left)
}

func TestLikeRangeKeepsLike(t *testing.T) {
	require := require.New(t)
	ctx := sql.NewEmptyContext()
	scope := likeScope(ctx)

	res := preprocessed(t, ctx, scope, NewLike(col("s"), NewConstant("ab_d%"), nil))
	conjuncts := SplitConjunction(res)
	require.Len(conjuncts, 4)
	like, ok := conjuncts[0].(*LikeEscape)
	require.True(ok)
	require.True(like.Transformed)
	require.Equal("ab"+string(make([]byte, 8)), conjuncts[1].(*Comparison).Right.(*Literal).Value())
}

func TestLikeRangeSkipped(t *testing.T) {
	ctx := sql.NewEmptyContext()
	scope := likeScope(ctx)

	testCases := []struct {
		name string
		expr sql.Expression
	}{
		{"leading wildcard", NewLike(col("s"), NewConstant("%ab"), nil)},
		{"wide column", NewLike(col("w"), NewConstant("ab%"), nil)},
		{"clob column", NewLike(col("l"), NewConstant("ab%"), nil)},
		{"territory collation", NewLike(col("u"), NewConstant("ab%"), nil)},
		{"parameter pattern", NewLike(col("s"), NewParameter(0), nil)},
		{"expression receiver", NewLike(NewConcat(col("s"), col("s")), NewConstant("ab%"), nil)},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			res := preprocessed(t, ctx, scope, tt.expr)
			like, ok := res.(*LikeEscape)
			require.True(ok, "unexpected rewrite %s", res)
			require.True(like.Transformed)
		})
	}
}

func TestLikeRangeSoundness(t *testing.T) {
	require := require.New(t)

	const width = 3
	lp, err := parseLikePattern("ab%", 0)
	require.NoError(err)
	lower := greaterEqualString(lp.prefix, width)
	upper, ok := lessThanString(lp.prefix, width)
	require.True(ok)

	re, err := likeRegex("ab%", 0)
	require.NoError(err)

	alphabet := []rune{' ', 'a', 'b', 'c', 'z'}
	var gen func(prefix string, n int)
	gen = func(prefix string, n int) {
		inRange := types.CompareStrings(prefix, lower) >= 0 && types.CompareStrings(prefix, upper) < 0
		require.Equal(re.MatchString(prefix), inRange, "value %q", prefix)
		if n == 0 {
			return
		}
		for _, r := range alphabet {
			gen(prefix+string(r), n-1)
		}
	}
	gen("", width)
}

func TestLessThanString(t *testing.T) {
	require := require.New(t)

	s, ok := lessThanString("ab", 0)
	require.True(ok)
	require.Equal("ac", s)

	s, ok = lessThanString("a\uffff", 0)
	require.True(ok)
	require.Equal("b", s)

	s, ok = lessThanString("ab", 4)
	require.True(ok)
	require.Equal("ac\x00\x00", s)

	_, ok = lessThanString("\uffff\uffff", 0)
	require.False(ok)
}

func TestEvalLike(t *testing.T) {
	ctx := sql.NewEmptyContext()

	testCases := []struct {
		value, pattern string
		escape         sql.Expression
		expected       interface{}
	}{
		{"abc", "a_c", nil, true},
		{"abc", "a%", nil, true},
		{"abc", "b%", nil, false},
		{"a.c", "a.c", nil, true},
		{"abc", "a.c", nil, false},
		{"a%c", "a!%c", NewConstant("!"), true},
		{"abc", "a!%c", NewConstant("!"), false},
		{"ab\nc", "ab%", nil, true},
	}

	for _, tt := range testCases {
		t.Run(tt.value+" LIKE "+tt.pattern, func(t *testing.T) {
			require := require.New(t)
			bound := mustBind(ctx, nil, NewLike(NewConstant(tt.value), NewConstant(tt.pattern), tt.escape))
			v, err := Eval(ctx, nil, bound)
			require.NoError(err)
			require.Equal(tt.expected, v)
		})
	}

	require := require.New(t)
	bound := mustBind(ctx, nil, NewLike(NewNullLiteral(), NewConstant("a%"), nil))
	v, err := Eval(ctx, nil, bound)
	require.NoError(err)
	require.Nil(v)
}
