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
	"sort"
	"strings"

	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/types"
)

// InListState tracks the rewrites applied to an IN list.
type InListState byte

const (
	// InListRaw is a list as written.
	InListRaw InListState = iota
	// InListSingle is a list that collapsed to an equality.
	InListSingle
	// InListSorted is a constant list sorted in the dominant type.
	InListSorted
	// InListProbe is a list replaced by a probe predicate.
	InListProbe
	// InListReverted is a list restored after its probe predicate was not
	// used by the chosen plan.
	InListReverted
)

func (s InListState) String() string {
	switch s {
	case InListSingle:
		return "single"
	case InListSorted:
		return "sorted"
	case InListProbe:
		return "probe"
	case InListReverted:
		return "reverted"
	default:
		return "raw"
	}
}

// InList is an IN predicate over a list of expressions.
type InList struct {
	Left sql.Expression
	List []sql.Expression
	// State is the last rewrite applied to the list.
	State InListState
	// Sorted is set when List holds distinct constants in ascending order
	// of Dominant.
	Sorted bool
	// Transformed is set once preprocessing has run on the list.
	Transformed bool
	// Dominant is the type in which the list values are compared.
	Dominant sql.Type
}

var _ sql.Expression = (*InList)(nil)

// NewInList creates a new IN predicate.
func NewInList(left sql.Expression, list ...sql.Expression) *InList {
	return &InList{Left: left, List: list}
}

// Resolved implements the Expression interface.
func (in *InList) Resolved() bool {
	if !in.Left.Resolved() {
		return false
	}
	for _, e := range in.List {
		if !e.Resolved() {
			return false
		}
	}
	return true
}

// Type implements the Expression interface.
func (in *InList) Type() sql.Type {
	return booleanType(in.IsNullable())
}

// IsNullable implements the Expression interface.
func (in *InList) IsNullable() bool {
	if in.Left.IsNullable() {
		return true
	}
	for _, e := range in.List {
		if e.IsNullable() {
			return true
		}
	}
	return false
}

// Children implements the Expression interface.
func (in *InList) Children() []sql.Expression {
	return append([]sql.Expression{in.Left}, in.List...)
}

// WithChildren implements the Expression interface.
func (in *InList) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != len(in.List)+1 {
		return nil, sql.ErrInvalidChildrenNumber.New(in, len(children), len(in.List)+1)
	}
	nin := *in
	nin.Left = children[0]
	nin.List = append([]sql.Expression(nil), children[1:]...)
	return &nin, nil
}

func (in *InList) String() string {
	return fmt.Sprintf("%s IN %s", in.Left, listString(in.List))
}

func listString(list []sql.Expression) string {
	elems := make([]string, len(list))
	for i, e := range list {
		elems[i] = e.String()
	}
	return "(" + strings.Join(elems, ", ") + ")"
}

// AllConstants reports whether every list element is a non-NULL literal.
func (in *InList) AllConstants() bool {
	for _, e := range in.List {
		l, ok := e.(*Literal)
		if !ok || l.IsNull() {
			return false
		}
	}
	return true
}

// ProbeValues returns the distinct values of the list in ascending order.
// Parameters are read from params, by index. NULL values are skipped, since
// they never match.
func (in *InList) ProbeValues(params []interface{}) ([]interface{}, error) {
	values := make([]interface{}, 0, len(in.List))
	for _, e := range in.List {
		switch e := e.(type) {
		case *Literal:
			values = append(values, e.Value())
		case *Parameter:
			if e.Index < 0 || e.Index >= len(params) {
				return nil, ErrUnboundParameter.New(e.Index)
			}
			values = append(values, params[e.Index])
		default:
			return nil, ErrNotConstant.New(e)
		}
	}

	t := in.Dominant
	if t.IsUnknown() {
		t = dominantOf(types.Default, in.Children()...)
	}
	return sortDistinct(t, values)
}

// sortDistinct sorts values in the order of t and removes NULLs and
// duplicates. Duplicates are detected by hash and confirmed by comparison.
func sortDistinct(t sql.Type, values []interface{}) ([]interface{}, error) {
	seen := make(map[uint64][]interface{}, len(values))
	distinct := make([]interface{}, 0, len(values))
	for _, v := range values {
		if v == nil {
			continue
		}
		h, err := types.HashValue(t, v)
		if err != nil {
			return nil, err
		}
		dup := false
		for _, prev := range seen[h] {
			cmp, err := types.Compare(t, prev, v)
			if err != nil {
				return nil, err
			}
			if cmp == 0 {
				dup = true
				break
			}
		}
		if !dup {
			seen[h] = append(seen[h], v)
			distinct = append(distinct, v)
		}
	}

	var sortErr error
	sort.SliceStable(distinct, func(i, j int) bool {
		cmp, err := types.Compare(t, distinct[i], distinct[j])
		if err != nil && sortErr == nil {
			sortErr = err
		}
		return cmp < 0
	})
	if sortErr != nil {
		return nil, sortErr
	}
	return distinct, nil
}
