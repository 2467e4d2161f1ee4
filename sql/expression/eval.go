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
	"bytes"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"
	"gopkg.in/src-d/go-errors.v1"

	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/types"
)

var (
	// ErrUnboundParameter is returned when a parameter is evaluated without
	// a value.
	ErrUnboundParameter = errors.NewKind("no value given for parameter %d")
	// ErrNotConstant is returned when a constant is required.
	ErrNotConstant = errors.NewKind("expression %s is not a constant")
	// ErrDivisionByZero is returned when dividing by zero.
	ErrDivisionByZero = errors.NewKind("attempt to divide by zero")
	// ErrNotEvaluable is returned for expressions that only execute as part
	// of a plan, such as aggregates.
	ErrNotEvaluable = errors.NewKind("expression %s cannot be evaluated on its own")
)

// Eval evaluates e against row. Column references read row by Index. It is
// the reference semantics of the operations that Emit produces code for.
func Eval(ctx *sql.Context, row sql.Row, e sql.Expression) (interface{}, error) {
	return EvalWithParams(ctx, row, nil, e)
}

// EvalWithParams is Eval with values for the statement parameters.
func EvalWithParams(ctx *sql.Context, row sql.Row, params []interface{}, e sql.Expression) (interface{}, error) {
	ev := evaluator{ts: types.Service(ctx), row: row, params: params}
	return ev.eval(e)
}

type evaluator struct {
	ts     sql.TypeService
	row    sql.Row
	params []interface{}
}

func (ev *evaluator) eval(e sql.Expression) (interface{}, error) {
	switch e := e.(type) {
	case *Literal:
		return e.Value(), nil
	case *Parameter:
		if e.Index < 0 || e.Index >= len(ev.params) {
			return nil, ErrUnboundParameter.New(e.Index)
		}
		return ev.params[e.Index], nil
	case *ColumnReference:
		return ev.column(e.Index)
	case *VirtualColumn:
		return ev.column(e.ColumnID - 1)
	case *BaseColumn:
		return ev.column(e.ColumnNumber - 1)
	case *BinaryOperator:
		return ev.binary(e)
	case *Comparison:
		if e.Probe != nil {
			return ev.inList(e.Probe)
		}
		return ev.compare(e.Op, e.Left, e.Right)
	case *And:
		return ev.and(e)
	case *Or:
		return ev.or(e)
	case *Not:
		v, err := ev.eval(e.Child)
		if err != nil || v == nil {
			return nil, err
		}
		return !v.(bool), nil
	case *IsNull:
		v, err := ev.eval(e.Child)
		if err != nil {
			return nil, err
		}
		return (v == nil) != e.Negated, nil
	case *Alias:
		return ev.eval(e.Child)
	case *Cast:
		v, err := ev.eval(e.Child)
		if err != nil {
			return nil, err
		}
		return types.Convert(v, e.Target)
	case *InList:
		return ev.inList(e)
	case *LikeEscape:
		return ev.like(e)
	case *Between:
		ge, err := ev.compare(GreaterThanOrEqual, e.Val, e.Lower)
		if err != nil {
			return nil, err
		}
		le, err := ev.compare(LessThanOrEqual, e.Val, e.Upper)
		if err != nil {
			return nil, err
		}
		return and3(ge, le), nil
	}
	return nil, ErrNotEvaluable.New(e)
}

func (ev *evaluator) column(i int) (interface{}, error) {
	sql.Assert(i >= 0 && i < len(ev.row), "column index %d out of row of %d", i, len(ev.row))
	return ev.row[i], nil
}

// and3 is the three valued AND of two booleans or NULLs.
func and3(l, r interface{}) interface{} {
	if l == false || r == false {
		return false
	}
	if l == nil || r == nil {
		return nil
	}
	return true
}

func (ev *evaluator) and(a *And) (interface{}, error) {
	l, err := ev.eval(a.Left)
	if err != nil {
		return nil, err
	}
	if l == false {
		return false, nil
	}
	r, err := ev.eval(a.Right)
	if err != nil {
		return nil, err
	}
	return and3(l, r), nil
}

func (ev *evaluator) or(o *Or) (interface{}, error) {
	l, err := ev.eval(o.Left)
	if err != nil {
		return nil, err
	}
	if l == true {
		return true, nil
	}
	r, err := ev.eval(o.Right)
	if err != nil {
		return nil, err
	}
	if r == true {
		return true, nil
	}
	if l == nil || r == nil {
		return nil, nil
	}
	return false, nil
}

func (ev *evaluator) compare(op ComparisonOp, left, right sql.Expression) (interface{}, error) {
	l, err := ev.eval(left)
	if err != nil {
		return nil, err
	}
	r, err := ev.eval(right)
	if err != nil {
		return nil, err
	}
	if l == nil || r == nil {
		return nil, nil
	}

	cmp, err := types.Compare(ev.ts.DominantType(left.Type(), right.Type()), l, r)
	if err != nil {
		return nil, err
	}
	switch op {
	case Equals:
		return cmp == 0, nil
	case NotEquals:
		return cmp != 0, nil
	case LessThan:
		return cmp < 0, nil
	case LessThanOrEqual:
		return cmp <= 0, nil
	case GreaterThan:
		return cmp > 0, nil
	default:
		return cmp >= 0, nil
	}
}

func (ev *evaluator) inList(in *InList) (interface{}, error) {
	l, err := ev.eval(in.Left)
	if err != nil || l == nil {
		return nil, err
	}

	var sawNull bool
	for _, e := range in.List {
		v, err := ev.eval(e)
		if err != nil {
			return nil, err
		}
		if v == nil {
			sawNull = true
			continue
		}
		cmp, err := types.Compare(ev.ts.DominantType(in.Left.Type(), e.Type()), l, v)
		if err != nil {
			return nil, err
		}
		if cmp == 0 {
			return true, nil
		}
	}
	if sawNull {
		return nil, nil
	}
	return false, nil
}

func (ev *evaluator) like(l *LikeEscape) (interface{}, error) {
	values := make([]interface{}, 0, 3)
	for _, c := range l.Children() {
		v, err := ev.eval(c)
		if err != nil {
			return nil, err
		}
		if v == nil {
			return nil, nil
		}
		values = append(values, v)
	}

	var esc rune
	if len(values) == 3 {
		r := []rune(cast.ToString(values[2]))
		if len(r) != 1 {
			return nil, sql.ErrInvalidEscapeCharacter.New(values[2])
		}
		esc = r[0]
	}
	re, err := likeRegex(cast.ToString(values[1]), esc)
	if err != nil {
		return nil, err
	}
	return re.MatchString(cast.ToString(values[0])), nil
}

func (ev *evaluator) binary(b *BinaryOperator) (interface{}, error) {
	if b.Op.IsXML() {
		return nil, ErrNotEvaluable.New(b)
	}

	l, err := ev.eval(b.Left)
	if err != nil {
		return nil, err
	}
	r, err := ev.eval(b.Right)
	if err != nil {
		return nil, err
	}
	if l == nil || r == nil {
		return nil, nil
	}

	typ := b.Type()
	if b.Op == Concatenate {
		if typ.ID.IsBit() {
			return bytes.Join([][]byte{l.([]byte), r.([]byte)}, nil), nil
		}
		return cast.ToString(l) + cast.ToString(r), nil
	}

	switch {
	case typ.ID.IsIntegral():
		x, err := cast.ToInt64E(l)
		if err != nil {
			return nil, err
		}
		y, err := cast.ToInt64E(r)
		if err != nil {
			return nil, err
		}
		var res int64
		switch b.Op {
		case Plus:
			res = x + y
		case Minus:
			res = x - y
		case Times:
			res = x * y
		default:
			if y == 0 {
				return nil, ErrDivisionByZero.New()
			}
			res = x / y
		}
		return types.Convert(res, typ)
	case typ.ID == sql.Decimal:
		x, err := types.ToDecimal(l)
		if err != nil {
			return nil, err
		}
		y, err := types.ToDecimal(r)
		if err != nil {
			return nil, err
		}
		var res decimal.Decimal
		switch b.Op {
		case Plus:
			res = x.Add(y)
		case Minus:
			res = x.Sub(y)
		case Times:
			res = x.Mul(y)
		default:
			if y.IsZero() {
				return nil, ErrDivisionByZero.New()
			}
			res = x.DivRound(y, int32(typ.Scale))
		}
		return res, nil
	default:
		x, err := cast.ToFloat64E(toFloatable(l))
		if err != nil {
			return nil, err
		}
		y, err := cast.ToFloat64E(toFloatable(r))
		if err != nil {
			return nil, err
		}
		var res float64
		switch b.Op {
		case Plus:
			res = x + y
		case Minus:
			res = x - y
		case Times:
			res = x * y
		default:
			if y == 0 {
				return nil, ErrDivisionByZero.New()
			}
			res = x / y
		}
		return types.Convert(res, typ)
	}
}

func toFloatable(v interface{}) interface{} {
	if d, ok := v.(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f
	}
	return v
}

// valuesEqual compares two non-NULL values of type t.
func valuesEqual(t sql.Type, a, b interface{}) bool {
	cmp, err := types.Compare(t, a, b)
	return err == nil && cmp == 0
}
