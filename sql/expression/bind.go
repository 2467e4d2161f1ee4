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
	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/transform"
	"github.com/dolthub/go-query-compiler/sql/types"
)

// Bind resolves the column references of e against scope, types every
// operator and rewrites the operators that can be reduced at compile time.
// e is not modified; the bound expression is returned.
func Bind(ctx *sql.Context, scope sql.Scope, e sql.Expression) (sql.Expression, error) {
	ts := types.Service(ctx)
	bound, _, err := transform.Expr(e, func(e sql.Expression) (sql.Expression, transform.TreeIdentity, error) {
		ne, err := bindExpression(ts, scope, e)
		if err != nil {
			return nil, transform.SameTree, err
		}
		if ne == e {
			return e, transform.SameTree, nil
		}
		return ne, transform.NewTree, nil
	})
	return bound, err
}

// bindExpression binds a single expression whose children are already
// bound.
func bindExpression(ts sql.TypeService, scope sql.Scope, e sql.Expression) (sql.Expression, error) {
	switch e := e.(type) {
	case *ColumnReference:
		return bindColumn(scope, e)
	case *BinaryOperator:
		if e.Op.IsXML() {
			return bindXML(ts, e)
		}
		return bindBinaryOperator(ts, e)
	case *Comparison:
		return bindComparison(ts, e)
	case *And:
		l, r, err := bindBooleanOperands("AND", e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		return newAnd(l, r), nil
	case *Or:
		l, r, err := bindBooleanOperands("OR", e.Left, e.Right)
		if err != nil {
			return nil, err
		}
		return newOr(l, r), nil
	case *Not:
		child := withInferredType(e.Child, booleanType(true))
		if t := child.Type(); t.ID != sql.Boolean {
			return nil, sql.ErrTypeIncompatible.New("NOT", t, t)
		}
		return NewNot(child), nil
	case *IsNull:
		if isUntypedParameter(e.Child) {
			return nil, sql.ErrUntypedParameter.New("IS NULL")
		}
		return e, nil
	case *Cast:
		return bindCast(ts, e)
	case *InList:
		return bindInList(ts, e)
	case *LikeEscape:
		return bindLike(ts, e)
	case *Between:
		return bindBetween(ts, e)
	case *Aggregate:
		return bindAggregate(ts, e)
	default:
		return e, nil
	}
}

func bindColumn(scope sql.Scope, c *ColumnReference) (sql.Expression, error) {
	if c.Resolved() {
		return c, nil
	}

	var level int
	if scope != nil {
		level = scope.Level()
	}
	for s := scope; s != nil; s = s.Outer() {
		b, err := s.ResolveColumn(c.table, c.name)
		if err == nil {
			nc := c.copy()
			nc.bind(b, level)
			return nc, nil
		}
		if !sql.ErrColumnNotFound.Is(err) {
			return nil, err
		}
	}
	return nil, sql.ErrColumnNotFound.New(c.String())
}

// inferOperands gives an untyped operand the type of the other one.
func inferOperands(op interface{}, left, right sql.Expression) (sql.Expression, sql.Expression, error) {
	if isUntyped(left) && isUntyped(right) {
		return nil, nil, sql.ErrBothOperandsUntyped.New(op)
	}
	left = withInferredType(left, right.Type())
	right = withInferredType(right, left.Type())
	return left, right, nil
}

func bindBinaryOperator(ts sql.TypeService, b *BinaryOperator) (sql.Expression, error) {
	l, r := b.Left, b.Right
	if b.Op == Concatenate {
		l = withInferredType(l, concatParameterType(r.Type()))
		r = withInferredType(r, concatParameterType(l.Type()))
	}
	l, r, err := inferOperands(b.Op, l, r)
	if err != nil {
		return nil, err
	}

	lt, rt := l.Type(), r.Type()
	var typ sql.Type
	if b.Op == Concatenate {
		if !(lt.ID.IsString() && rt.ID.IsString()) && !(lt.ID.IsBit() && rt.ID.IsBit()) {
			return nil, sql.ErrTypeIncompatible.New(b.Op, lt, rt)
		}
		typ = concatType(ts, lt, rt)
	} else {
		if !lt.ID.IsNumeric() || !rt.ID.IsNumeric() {
			return nil, sql.ErrTypeIncompatible.New(b.Op, lt, rt)
		}
		typ = ts.DominantType(lt, rt)
	}

	nb := NewBinaryOperator(b.Op, l, r)
	nb.Receiver = chooseReceiver(ts, lt, rt)
	nb.typ = typ
	return nb, nil
}

// concatParameterType is the type a parameter takes when concatenated with
// a value of type t.
func concatParameterType(t sql.Type) sql.Type {
	switch {
	case t.ID.IsString():
		return sql.VarcharType(sql.Varchar.DefaultMaxWidth()).WithCollation(t.Collation)
	case t.ID.IsBit():
		return sql.NewType(sql.VarBit)
	}
	return t
}

const maxFixedWidth = 254

func concatType(ts sql.TypeService, lt, rt sql.Type) sql.Type {
	typ := ts.DominantType(lt, rt)
	typ.MaxWidth = lt.MaxWidth + rt.MaxWidth
	switch {
	case typ.ID == sql.Char && typ.MaxWidth > maxFixedWidth:
		typ.ID = sql.Varchar
	case typ.ID == sql.Bit && typ.MaxWidth > maxFixedWidth:
		typ.ID = sql.VarBit
	}
	if w := typ.ID.DefaultMaxWidth(); w > 0 && typ.MaxWidth > w {
		typ.MaxWidth = w
	}
	return typ
}

func bindXML(ts sql.TypeService, b *BinaryOperator) (sql.Expression, error) {
	if _, ok := constantString(b.Left); !ok {
		return nil, sql.ErrInvalidQueryExpression.New(b.Op)
	}
	if isUntypedParameter(b.Right) {
		return nil, sql.ErrAttemptToBindXmlParameter.New(b.Op)
	}
	if t := b.Right.Type(); t.ID != sql.XML {
		return nil, sql.ErrInvalidContextItemType.New(b.Op, t)
	}

	nb := NewBinaryOperator(b.Op, b.Left, b.Right)
	nb.Receiver = chooseReceiver(ts, b.Left.Type(), b.Right.Type())
	if b.Op == XMLExists {
		nb.typ = booleanType(b.Right.IsNullable())
	} else {
		nb.typ = sql.NewType(sql.XML).WithNullable(b.Right.IsNullable())
	}
	return nb, nil
}

func bindComparison(ts sql.TypeService, c *Comparison) (sql.Expression, error) {
	if c.Probe != nil {
		return c, nil
	}

	l, r, err := inferOperands(c.Op, c.Left, c.Right)
	if err != nil {
		return nil, err
	}

	lt, rt := l.Type(), r.Type()
	if !ts.Comparable(lt, rt, c.Op == Equals || c.Op == NotEquals) {
		return nil, sql.ErrTypeIncompatible.New(c.Op, lt, rt)
	}

	// character strings compared with datetimes are read as datetimes
	switch {
	case lt.ID.IsString() && rt.ID.IsDateTime():
		if l, err = implicitCast(ts, l, rt); err != nil {
			return nil, err
		}
	case rt.ID.IsString() && lt.ID.IsDateTime():
		if r, err = implicitCast(ts, r, lt); err != nil {
			return nil, err
		}
	}

	return newComparison(ts, c.Op, l, r), nil
}

// ImplicitCast converts e to t with a cast that is not shown in the statement
// text. Constant operands are folded.
func ImplicitCast(ts sql.TypeService, e sql.Expression, t sql.Type) (sql.Expression, error) {
	return implicitCast(ts, e, t)
}

func implicitCast(ts sql.TypeService, e sql.Expression, t sql.Type) (sql.Expression, error) {
	c := NewCast(e, t.WithNullable(e.IsNullable()))
	c.Implicit = true
	return bindCast(ts, c)
}

func bindBooleanOperands(op string, left, right sql.Expression) (sql.Expression, sql.Expression, error) {
	left = withInferredType(left, booleanType(true))
	right = withInferredType(right, booleanType(true))
	if left.Type().ID != sql.Boolean || right.Type().ID != sql.Boolean {
		return nil, nil, sql.ErrTypeIncompatible.New(op, left.Type(), right.Type())
	}
	return left, right, nil
}

// bindCast types the operand of a cast and folds casts of constants.
func bindCast(ts sql.TypeService, c *Cast) (sql.Expression, error) {
	switch child := c.Child.(type) {
	case *Literal:
		if child.IsUntypedNull() {
			return child.WithType(c.Target.WithNullable(true)), nil
		}
	case *Parameter:
		if child.Type().IsUnknown() {
			nc := *c
			nc.Child = child.WithType(c.Target.WithNullable(true))
			return &nc, nil
		}
	}

	from := c.Child.Type()
	if !ts.Convertible(from, c.Target) {
		return nil, sql.ErrInvalidCast.New(from, c.Target)
	}

	if lit, ok := c.Child.(*Literal); ok {
		if lit.IsNull() {
			return lit.WithType(c.Target.WithNullable(true)), nil
		}
		v, ok, err := types.FoldCast(lit.Value(), from, c.Target)
		if err != nil {
			return nil, err
		}
		if ok {
			nl := NewLiteral(v, c.Target)
			nl.Pos = lit.Pos
			return nl, nil
		}
	}
	return c, nil
}

func bindInList(ts sql.TypeService, in *InList) (sql.Expression, error) {
	left := in.Left
	if isUntyped(left) {
		var t sql.Type
		for _, e := range in.List {
			if !isUntyped(e) {
				t = e.Type()
				break
			}
		}
		if t.IsUnknown() {
			return nil, sql.ErrBothOperandsUntyped.New("IN")
		}
		left = withInferredType(left, t)
	}

	list := make([]sql.Expression, len(in.List))
	for i, e := range in.List {
		e = withInferredType(e, left.Type())
		if !ts.Comparable(left.Type(), e.Type(), true) {
			return nil, sql.ErrTypeIncompatible.New("IN", left.Type(), e.Type())
		}
		list[i] = e
	}

	nin := *in
	nin.Left = left
	nin.List = list
	return &nin, nil
}

// likeParameterType returns the type of a parameter operand of LIKE: the
// type of the first typed string sibling, or VARCHAR.
func likeParameterType(self int, operands []sql.Expression) sql.Type {
	for i, o := range operands {
		if i == self || isUntyped(o) || !o.Type().ID.IsString() {
			continue
		}
		t := sql.VarcharType(sql.Varchar.DefaultMaxWidth()).WithCollation(o.Type().Collation)
		if self == 2 {
			t.MaxWidth = 1
		}
		return t
	}
	if self == 2 {
		return sql.VarcharType(1)
	}
	return sql.VarcharType(sql.Varchar.DefaultMaxWidth())
}

func bindLike(ts sql.TypeService, l *LikeEscape) (sql.Expression, error) {
	operands := l.Children()
	for i, o := range operands {
		if isUntyped(o) {
			operands[i] = withInferredType(o, likeParameterType(i, operands))
		}
	}
	for _, o := range operands {
		if t := o.Type(); !t.ID.IsString() {
			return nil, sql.ErrFunctionIncompatible.New(t, "LIKE")
		}
	}

	left, pattern := operands[0], operands[1]
	var escape sql.Expression
	if len(operands) == 3 {
		escape = operands[2]
	}
	esc, constEscape, err := escapeRune(escape)
	if err != nil {
		return nil, err
	}

	lt, pt := left.Type(), pattern.Type()
	if lit, ok := pattern.(*Literal); ok {
		pattern = lit.WithType(pt.WithCollation(lt.Collation))
	} else if _, ok := left.(*Literal); !ok && lt.Collation != pt.Collation {
		return nil, sql.ErrCollationMismatch.New(lt.Collation, pt.Collation)
	}

	// a constant pattern with no wildcard is an equality test, except on
	// CHAR columns where LIKE sees the padding and = ignores it
	if col, ok := left.(*ColumnReference); ok && constEscape && lt.ID != sql.Char {
		if s, ok := constantString(pattern); ok {
			lp, err := parseLikePattern(s, esc)
			if err != nil {
				return nil, err
			}
			if !lp.wildcard {
				lit := NewLiteral(lp.prefix, sql.CharType(len([]rune(lp.prefix))).WithCollation(lt.Collation))
				return newComparison(ts, Equals, col, lit), nil
			}
		}
	}

	nl := NewLike(left, pattern, escape)
	nl.Transformed = l.Transformed
	nl.typ = booleanType(nl.IsNullable())
	return nl, nil
}

func bindBetween(ts sql.TypeService, b *Between) (sql.Expression, error) {
	val, lower, upper := b.Val, b.Lower, b.Upper
	if isUntyped(val) {
		if isUntyped(lower) && isUntyped(upper) {
			return nil, sql.ErrBothOperandsUntyped.New("BETWEEN")
		}
		val = withInferredType(val, dominantOf(ts, lower, upper))
	}
	lower = withInferredType(lower, val.Type())
	upper = withInferredType(upper, val.Type())

	for _, bound := range []sql.Expression{lower, upper} {
		if !ts.Comparable(val.Type(), bound.Type(), false) {
			return nil, sql.ErrTypeIncompatible.New("BETWEEN", val.Type(), bound.Type())
		}
	}
	return NewBetween(val, lower, upper), nil
}

func bindAggregate(ts sql.TypeService, a *Aggregate) (sql.Expression, error) {
	na := *a
	if a.Func == CountStar {
		na.typ = sql.NewType(sql.Integer).WithNullable(false)
		return &na, nil
	}
	if isUntyped(a.Child) {
		return nil, sql.ErrUntypedParameter.New(a.Func)
	}

	ct := a.Child.Type()
	switch a.Func {
	case Count:
		na.typ = sql.NewType(sql.Integer).WithNullable(false)
	case Sum, Avg:
		if !ct.ID.IsNumeric() {
			return nil, sql.ErrFunctionIncompatible.New(ct, a.Func)
		}
		na.typ = ct.WithNullable(true)
		if a.Func == Sum && ct.ID.IsIntegral() {
			na.typ = sql.NewType(sql.BigInt)
		}
	default:
		if !ts.Comparable(ct, ct, false) {
			return nil, sql.ErrFunctionIncompatible.New(ct, a.Func)
		}
		na.typ = ct.WithNullable(true)
	}
	return &na, nil
}
