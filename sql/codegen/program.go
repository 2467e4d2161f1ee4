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

package codegen

import (
	"fmt"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/dolthub/go-query-compiler/sql"
)

// OpCode is the kind of an abstract operation.
type OpCode int

const (
	// OpLoadConst pushes Value.
	OpLoadConst OpCode = iota
	// OpLoadParam pushes the value of parameter Arg. The probe placeholder
	// has Arg ProbeParameter and refers to saved object Saved.
	OpLoadParam
	// OpLoadColumn pushes column Arg of table Table of the current row.
	OpLoadColumn
	// OpLoadSaved pushes saved object Saved.
	OpLoadSaved
	// OpCastInterface casts the top of the stack to the interface Name.
	OpCastInterface
	// OpInvoke calls method Name on the receiver below Arg arguments.
	OpInvoke
	// OpInvokeStatic calls function Name with Arg arguments.
	OpInvokeStatic
	// OpAllocSlot pushes a reusable result holder of interface Name,
	// allocated once per execution in slot Arg.
	OpAllocSlot
	// OpStore pops into temporary Arg.
	OpStore
	// OpLoad pushes temporary Arg.
	OpLoad
	// OpDup duplicates the top of the stack.
	OpDup
	// OpSwap swaps the two top values of the stack.
	OpSwap
	// OpBranchFalse pops a boolean and jumps to label Arg if it is false.
	OpBranchFalse
	// OpBranchTrue pops a boolean and jumps to label Arg if it is true.
	OpBranchTrue
	// OpLabel marks label Arg.
	OpLabel
)

var opNames = map[OpCode]string{
	OpLoadConst:     "loadConst",
	OpLoadParam:     "loadParam",
	OpLoadColumn:    "loadColumn",
	OpLoadSaved:     "loadSaved",
	OpCastInterface: "castInterface",
	OpInvoke:        "invoke",
	OpInvokeStatic:  "invokeStatic",
	OpAllocSlot:     "allocSlot",
	OpStore:         "store",
	OpLoad:          "load",
	OpDup:           "dup",
	OpSwap:          "swap",
	OpBranchFalse:   "branchFalse",
	OpBranchTrue:    "branchTrue",
	OpLabel:         "label",
}

func (c OpCode) String() string {
	if n, ok := opNames[c]; ok {
		return n
	}
	return fmt.Sprintf("OpCode(%d)", int(c))
}

// ProbeParameter is the parameter number of the placeholder of a probe
// predicate.
const ProbeParameter = -1

// Op is one abstract operation.
type Op struct {
	Code  OpCode
	Name  string
	Arg   int
	Table int
	Saved int
	Value interface{}
	Type  sql.Type
}

func (o Op) String() string {
	switch o.Code {
	case OpLoadConst:
		return fmt.Sprintf("%s %v %s", o.Code, o.Value, o.Type)
	case OpLoadParam:
		if o.Arg == ProbeParameter {
			return fmt.Sprintf("%s probe #%d", o.Code, o.Saved)
		}
		return fmt.Sprintf("%s %d", o.Code, o.Arg)
	case OpLoadColumn:
		return fmt.Sprintf("%s %d.%d", o.Code, o.Table, o.Arg)
	case OpLoadSaved:
		return fmt.Sprintf("%s #%d", o.Code, o.Saved)
	case OpCastInterface:
		return fmt.Sprintf("%s %s", o.Code, o.Name)
	case OpInvoke, OpInvokeStatic:
		return fmt.Sprintf("%s %s/%d", o.Code, o.Name, o.Arg)
	case OpAllocSlot:
		return fmt.Sprintf("%s %s #%d", o.Code, o.Name, o.Arg)
	case OpDup, OpSwap:
		return o.Code.String()
	default:
		return fmt.Sprintf("%s %d", o.Code, o.Arg)
	}
}

// Target is the sink of code emission. The compiler only guarantees the
// order of the operations it appends; how they become executable is up to
// the implementation.
type Target interface {
	// Append adds an operation at the end of the sequence.
	Append(op Op)
	// Save adds an auxiliary object built at compile time, such as a sorted
	// value array, and returns its index.
	Save(obj interface{}) int
	// NewLabel reserves a branch label.
	NewLabel() int
	// NewSlot reserves a result holder slot.
	NewSlot() int
	// NewTemp reserves a temporary for OpStore and OpLoad.
	NewTemp() int
}

// Program is an in-memory Target.
type Program struct {
	Ops    []Op
	Saved  []interface{}
	labels int
	slots  int
	temps  int
}

var _ Target = (*Program)(nil)

// NewProgram creates an empty program.
func NewProgram() *Program {
	return &Program{}
}

// Append implements Target.
func (p *Program) Append(op Op) {
	p.Ops = append(p.Ops, op)
}

// Save implements Target.
func (p *Program) Save(obj interface{}) int {
	p.Saved = append(p.Saved, obj)
	return len(p.Saved) - 1
}

// NewLabel implements Target.
func (p *Program) NewLabel() int {
	p.labels++
	return p.labels
}

// NewSlot implements Target.
func (p *Program) NewSlot() int {
	p.slots++
	return p.slots
}

// NewTemp implements Target.
func (p *Program) NewTemp() int {
	p.temps++
	return p.temps
}

// Count returns how many operations of the given code the program holds.
func (p *Program) Count(code OpCode) int {
	var n int
	for _, op := range p.Ops {
		if op.Code == code {
			n++
		}
	}
	return n
}

// Invocations returns the method names of the OpInvoke operations in order.
func (p *Program) Invocations() []string {
	var names []string
	for _, op := range p.Ops {
		if op.Code == OpInvoke || op.Code == OpInvokeStatic {
			names = append(names, op.Name)
		}
	}
	return names
}

func (p *Program) String() string {
	var sb strings.Builder
	for i, op := range p.Ops {
		fmt.Fprintf(&sb, "%03d %s\n", i, op)
	}
	for i, obj := range p.Saved {
		fmt.Fprintf(&sb, "saved #%d: %v\n", i, obj)
	}
	return sb.String()
}

// Fingerprint returns a hash of the program text.
func (p *Program) Fingerprint() uint64 {
	return xxhash.Sum64String(p.String())
}
