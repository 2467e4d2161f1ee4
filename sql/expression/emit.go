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
	"fmt"

	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/codegen"
	"github.com/dolthub/go-query-compiler/sql/types"
)

// ProbeValues is the saved object of a probe predicate: the IN list whose
// values a multi-probe scan visits.
type ProbeValues struct {
	List *InList
}

func (p ProbeValues) String() string {
	return "probe " + listString(p.List.List)
}

// SortedValues is the saved object of a constant IN list.
type SortedValues struct {
	Type   sql.Type
	Values []interface{}
}

// Emit appends to target the operations evaluating e. Each subexpression is
// emitted exactly once; operands whose value is needed twice are duplicated
// on the stack.
func Emit(ctx *sql.Context, target codegen.Target, e sql.Expression) error {
	em := emitter{ts: types.Service(ctx), target: target}
	return em.emit(e)
}

type emitter struct {
	ts     sql.TypeService
	target codegen.Target
}

func (em *emitter) op(op codegen.Op) {
	em.target.Append(op)
}

func (em *emitter) castTo(t sql.Type) {
	em.op(codegen.Op{Code: codegen.OpCastInterface, Name: em.ts.InterfaceName(t)})
}

func (em *emitter) invoke(method string, args int, t sql.Type) {
	em.op(codegen.Op{Code: codegen.OpInvoke, Name: method, Arg: args, Type: t})
}

func (em *emitter) emit(e sql.Expression) error {
	switch e := e.(type) {
	case *Literal:
		sql.Assert(!e.IsUntypedNull(), "untyped NULL reached code generation")
		em.op(codegen.Op{Code: codegen.OpLoadConst, Value: e.Value(), Type: e.Type()})
	case *Parameter:
		em.op(codegen.Op{Code: codegen.OpLoadParam, Arg: e.Index, Type: e.Type()})
	case *ColumnReference:
		sql.Assert(e.Resolved(), "unbound column %s reached code generation", e)
		em.op(codegen.Op{Code: codegen.OpLoadColumn, Name: e.Name(), Table: e.TableNumber, Arg: e.ColumnNumber, Type: e.Type()})
	case *VirtualColumn:
		em.op(codegen.Op{Code: codegen.OpLoadColumn, Name: e.Name(), Table: -1, Arg: e.ColumnID, Type: e.Type()})
	case *BaseColumn:
		em.op(codegen.Op{Code: codegen.OpLoadColumn, Name: e.Name(), Table: e.TableNumber, Arg: e.ColumnNumber, Type: e.Type()})
	case *BinaryOperator:
		return em.binary(e.Left, e.Right, e.Receiver, e.Op.Method(), e.Type(), e.Op.IsXML())
	case *Comparison:
		if e.Probe != nil {
			return em.probe(e)
		}
		return em.binary(e.Left, e.Right, e.Receiver, e.Op.Method(), e.Type(), false)
	case *And:
		return em.logical(e.Left, e.Right, codegen.OpBranchFalse, "and")
	case *Or:
		return em.logical(e.Left, e.Right, codegen.OpBranchTrue, "or")
	case *Alias:
		return em.emit(e.Child)
	case *Not:
		if err := em.emit(e.Child); err != nil {
			return err
		}
		em.castTo(e.Child.Type())
		em.invoke("not", 0, e.Type())
	case *IsNull:
		if err := em.emit(e.Child); err != nil {
			return err
		}
		em.castTo(sql.Type{})
		if e.Negated {
			em.invoke("isNotNull", 0, e.Type())
		} else {
			em.invoke("isNullOp", 0, e.Type())
		}
	case *Cast:
		return em.cast(e)
	case *InList:
		return em.inList(e)
	case *LikeEscape:
		return em.like(e)
	case *Between:
		return em.between(e)
	case *temporary:
		em.op(codegen.Op{Code: codegen.OpLoad, Arg: e.index, Type: e.typ})
	case *MethodCall:
		for _, a := range e.Args {
			if err := em.emit(a); err != nil {
				return err
			}
		}
		em.op(codegen.Op{Code: codegen.OpInvokeStatic, Name: e.Name, Arg: len(e.Args), Type: e.Type()})
	default:
		sql.Assert(false, "%T cannot be compiled into an expression", e)
	}
	return nil
}

// binary emits a call of method on the receiver operand with both operands
// as arguments, in left, right order. The receiver is evaluated once and
// duplicated. XML operators take the compiled query as an extra argument.
func (em *emitter) binary(left, right sql.Expression, recv Receiver, method string, t sql.Type, xml bool) error {
	sql.Assert(recv != ReceiverUnset, "receiver of %s not chosen at bind time", method)

	first, second := left, right
	if recv == ReceiverRight {
		first, second = right, left
	}

	if err := em.emit(first); err != nil {
		return err
	}
	em.castTo(first.Type())
	em.op(codegen.Op{Code: codegen.OpDup})
	if err := em.emit(second); err != nil {
		return err
	}
	em.castTo(second.Type())
	if recv == ReceiverRight {
		em.op(codegen.Op{Code: codegen.OpSwap})
	}

	args := 2
	if xml {
		query, _ := constantString(left)
		idx := em.target.Save(query)
		em.op(codegen.Op{Code: codegen.OpLoadSaved, Saved: idx})
		args++
	}

	em.op(codegen.Op{Code: codegen.OpAllocSlot, Name: em.ts.InterfaceName(t), Arg: em.target.NewSlot(), Type: t})
	em.invoke(method, args, t)
	return nil
}

// logical emits a short-circuiting AND or OR: when the left operand alone
// decides the result, the right operand is skipped.
func (em *emitter) logical(left, right sql.Expression, branch codegen.OpCode, method string) error {
	end := em.target.NewLabel()
	if err := em.emit(left); err != nil {
		return err
	}
	em.castTo(left.Type())
	em.op(codegen.Op{Code: codegen.OpDup})
	em.invoke("getBoolean", 0, sql.Type{})
	em.op(codegen.Op{Code: branch, Arg: end})
	if err := em.emit(right); err != nil {
		return err
	}
	em.castTo(right.Type())
	em.invoke(method, 1, booleanType(true))
	em.op(codegen.Op{Code: codegen.OpLabel, Arg: end})
	return nil
}

// cast emits a conversion through a fresh value of the target type. Values
// of variable length types are then set to the target width; truncation
// raises an error unless the source is itself of variable length and the
// target is not numeric.
func (em *emitter) cast(c *Cast) error {
	t := c.Target
	em.op(codegen.Op{Code: codegen.OpAllocSlot, Name: em.ts.InterfaceName(t), Arg: em.target.NewSlot(), Type: t})
	if err := em.emit(c.Child); err != nil {
		return err
	}
	em.castTo(c.Child.Type())
	em.invoke("setValue", 1, t)

	if t.ID.IsVariableLength() || t.ID == sql.Decimal {
		width := t.MaxWidth
		if t.ID == sql.Decimal {
			width = t.Precision
		}
		errorOnTrunc := !c.Child.Type().ID.IsVariableLength() || t.ID.IsNumeric()
		em.op(codegen.Op{Code: codegen.OpLoadConst, Value: width})
		em.op(codegen.Op{Code: codegen.OpLoadConst, Value: t.Scale})
		em.op(codegen.Op{Code: codegen.OpLoadConst, Value: errorOnTrunc})
		em.invoke("setWidth", 3, t)
	}
	return nil
}

// between emits both range comparisons of b. The tested value is evaluated
// once and stored in a temporary that each comparison loads.
func (em *emitter) between(b *Between) error {
	if err := em.emit(b.Val); err != nil {
		return err
	}
	val := &temporary{index: em.target.NewTemp(), typ: b.Val.Type()}
	em.op(codegen.Op{Code: codegen.OpStore, Arg: val.index, Type: val.typ})
	ge := newComparison(em.ts, GreaterThanOrEqual, val, b.Lower)
	le := newComparison(em.ts, LessThanOrEqual, val, b.Upper)
	return em.emit(newAnd(ge, le))
}

// temporary is a value the emitter has stored and loads where it is used.
type temporary struct {
	index int
	typ   sql.Type
}

func (t *temporary) Resolved() bool             { return true }
func (t *temporary) String() string             { return fmt.Sprintf("temp#%d", t.index) }
func (t *temporary) Type() sql.Type             { return t.typ }
func (t *temporary) IsNullable() bool           { return t.typ.Nullable }
func (t *temporary) Children() []sql.Expression { return nil }

func (t *temporary) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidChildrenNumber.New(t, len(children), 0)
	}
	return t, nil
}

// inList emits the membership test of the left operand, evaluated once,
// against the list. A sorted constant list is built at compile time.
func (em *emitter) inList(in *InList) error {
	if err := em.emit(in.Left); err != nil {
		return err
	}
	em.castTo(in.Left.Type())
	em.op(codegen.Op{Code: codegen.OpDup})

	if in.AllConstants() {
		t := in.Dominant
		if t.IsUnknown() {
			t = dominantOf(em.ts, in.Children()...)
		}
		values := make([]interface{}, len(in.List))
		for i, e := range in.List {
			values[i] = e.(*Literal).Value()
		}
		idx := em.target.Save(SortedValues{Type: t, Values: values})
		em.op(codegen.Op{Code: codegen.OpLoadSaved, Saved: idx})
	} else {
		for _, e := range in.List {
			if err := em.emit(e); err != nil {
				return err
			}
			em.castTo(e.Type())
		}
		em.op(codegen.Op{Code: codegen.OpInvokeStatic, Name: "valueArray", Arg: len(in.List)})
	}

	em.op(codegen.Op{Code: codegen.OpLoadConst, Value: in.Sorted})
	em.invoke("in", 3, in.Type())
	return nil
}

// probe emits a probe predicate as an equality with the placeholder, which
// the scan binds to each of the saved list values.
func (em *emitter) probe(c *Comparison) error {
	idx := em.target.Save(ProbeValues{List: c.Probe})
	if err := em.emit(c.Left); err != nil {
		return err
	}
	em.castTo(c.Left.Type())
	em.op(codegen.Op{Code: codegen.OpDup})
	em.op(codegen.Op{Code: codegen.OpLoadParam, Arg: codegen.ProbeParameter, Saved: idx, Type: c.Right.Type()})
	em.castTo(c.Right.Type())
	em.op(codegen.Op{Code: codegen.OpAllocSlot, Name: em.ts.InterfaceName(c.Type()), Arg: em.target.NewSlot(), Type: c.Type()})
	em.invoke(Equals.Method(), 2, c.Type())
	return nil
}

func (em *emitter) like(l *LikeEscape) error {
	for _, c := range l.Children() {
		if err := em.emit(c); err != nil {
			return err
		}
		em.castTo(c.Type())
	}
	em.invoke("like", len(l.Children())-1, l.Type())
	return nil
}
