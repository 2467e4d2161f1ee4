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
	"fmt"
	"strings"

	"github.com/dolthub/go-query-compiler/sql"
)

// relation is one entry of a FROM list as seen by name resolution.
type relation struct {
	name        string
	tableNumber int
	columns     sql.ResultColumnList
	// nullable is set for the null producing side of an outer join.
	nullable bool
}

// relationsOf flattens the joins of n into the entries of its FROM list, in
// the order their columns appear in the rows n produces.
func relationsOf(n sql.Node, nullable bool) []relation {
	switch n := n.(type) {
	case *Join:
		left := relationsOf(n.left, nullable || n.Type == RightOuterJoin)
		right := relationsOf(n.right, nullable || n.Type == LeftOuterJoin)
		return append(left, right...)
	case *BaseTable:
		return []relation{{n.Name(), n.tableNumber, n.columns, nullable}}
	case *ProjectRestrict:
		if n.IsRestrictOnly() {
			return relationsOf(n.Child, nullable)
		}
		return []relation{{"", -1, n.columns, nullable}}
	case *DerivedTable:
		return []relation{{n.alias, n.tableNumber, n.columns, nullable}}
	default:
		tn := -1
		if t, ok := n.(TableNode); ok {
			tn = t.TableNumber()
		}
		return []relation{{"", tn, n.ResultColumns(), nullable}}
	}
}

// Scope resolves column names against the entries of a FROM list. Columns
// are numbered by their offset in the flat row the FROM list produces.
type Scope struct {
	arena     *sql.Arena
	level     int
	outer     sql.Scope
	relations []relation
}

var _ sql.Scope = (*Scope)(nil)

// NewScope creates a scope over the rows produced by n.
func NewScope(ctx *sql.Context, n sql.Node, level int, outer sql.Scope) *Scope {
	return newScope(ctx.Arena(), relationsOf(n, false), level, outer)
}

// newJoinScope creates the scope of the ON clause of j. Both sides are
// visible and neither is null producing within its own join condition.
func newJoinScope(ctx *sql.Context, j *Join, level int, outer sql.Scope) *Scope {
	rels := append(relationsOf(j.left, false), relationsOf(j.right, false)...)
	return newScope(ctx.Arena(), rels, level, outer)
}

func newScope(a *sql.Arena, rels []relation, level int, outer sql.Scope) *Scope {
	return &Scope{arena: a, level: level, outer: outer, relations: rels}
}

// ResolveColumn implements the sql.Scope interface.
func (s *Scope) ResolveColumn(table, column string) (*sql.ColumnBinding, error) {
	var (
		found  *sql.ColumnBinding
		offset int
	)
	for _, r := range s.relations {
		if table == "" || strings.EqualFold(r.name, table) {
			for i, id := range r.columns {
				rc := s.arena.Get(id)
				if rc.Generated || !strings.EqualFold(rc.Name, column) {
					continue
				}
				if found != nil {
					return nil, sql.ErrIllegalColumnReference.New(column, "the column name is ambiguous")
				}
				typ := rc.Type
				if r.nullable {
					typ = typ.WithNullable(true)
				}
				found = &sql.ColumnBinding{
					Source:       id,
					TableNumber:  r.tableNumber,
					ColumnNumber: rc.Position,
					Index:        offset + i,
					Level:        s.level,
					Type:         typ,
					Table:        r.name,
				}
			}
		}
		offset += len(r.columns)
	}
	if found == nil {
		if table != "" {
			return nil, sql.ErrColumnNotFound.New(fmt.Sprintf("%s.%s", table, column))
		}
		return nil, sql.ErrColumnNotFound.New(column)
	}
	return found, nil
}

// Level implements the sql.Scope interface.
func (s *Scope) Level() int { return s.level }

// Outer implements the sql.Scope interface.
func (s *Scope) Outer() sql.Scope { return s.outer }

// Columns returns the columns of the scope in row order.
func (s *Scope) Columns() sql.ResultColumnList {
	var cols sql.ResultColumnList
	for _, r := range s.relations {
		cols = append(cols, r.columns...)
	}
	return cols
}

// IndexOf returns the offset in the row of the given column.
func (s *Scope) IndexOf(id sql.ColumnID) (int, bool) {
	for i, c := range s.Columns() {
		if c == id {
			return i, true
		}
	}
	return 0, false
}
