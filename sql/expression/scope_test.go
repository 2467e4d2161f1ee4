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
	"strings"

	"github.com/dolthub/go-query-compiler/sql"
)

type scopeColumn struct {
	table string
	name  string
	typ   sql.Type
}

// testScope resolves columns from a flat list, numbering tables in order of
// first appearance.
type testScope struct {
	level    int
	outer    sql.Scope
	names    []string
	bindings []*sql.ColumnBinding
}

func newTestScope(ctx *sql.Context, level int, outer sql.Scope, cols ...scopeColumn) *testScope {
	s := &testScope{level: level, outer: outer}
	tables := make(map[string]int)
	for i, c := range cols {
		tn, ok := tables[c.table]
		if !ok {
			tn = len(tables) + level*10
			tables[c.table] = tn
		}
		id := ctx.Arena().Add(sql.ResultColumn{
			Name:            c.name,
			TableName:       c.table,
			Expr:            NewBaseColumn(c.table, c.name, tn, i+1, c.typ),
			Type:            c.typ,
			Position:        i + 1,
			VirtualColumnID: i + 1,
		})
		s.names = append(s.names, c.name)
		s.bindings = append(s.bindings, &sql.ColumnBinding{
			Source:       id,
			TableNumber:  tn,
			ColumnNumber: i + 1,
			Index:        i,
			Level:        level,
			Type:         c.typ,
			Table:        c.table,
		})
	}
	return s
}

func (s *testScope) ResolveColumn(table, column string) (*sql.ColumnBinding, error) {
	var found *sql.ColumnBinding
	for i, b := range s.bindings {
		if !strings.EqualFold(s.names[i], column) {
			continue
		}
		if table != "" && !strings.EqualFold(b.Table, table) {
			continue
		}
		if found != nil {
			return nil, sql.ErrIllegalColumnReference.New(column, "ambiguous column name")
		}
		found = b
	}
	if found == nil {
		return nil, sql.ErrColumnNotFound.New(column)
	}
	return found, nil
}

func (s *testScope) Level() int { return s.level }

func (s *testScope) Outer() sql.Scope { return s.outer }

func col(name string) *ColumnReference {
	return NewColumnReference("", name)
}

func intType() sql.Type {
	return sql.NewType(sql.Integer)
}

// mustBind binds e and panics on error.
func mustBind(ctx *sql.Context, scope sql.Scope, e sql.Expression) sql.Expression {
	bound, err := Bind(ctx, scope, e)
	if err != nil {
		panic(err)
	}
	return bound
}
