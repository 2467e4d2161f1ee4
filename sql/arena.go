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

package sql

import (
	"strings"
)

// ColumnID is a stable handle to a ResultColumn in an Arena. The zero value
// refers to no column.
type ColumnID int

// ResultColumn is one named output column of a result producing node.
type ResultColumn struct {
	ID   ColumnID
	Name string
	// TableName is the exposed name of the table the column comes from, if
	// any.
	TableName string
	// Expr produces the value of the column. A ColumnReference or
	// VirtualColumn here reads from a column of a child node.
	Expr Expression
	Type Type
	// Position is the 1-based position of the column in its list.
	Position int
	// VirtualColumnID is the 1-based position of the column in the row
	// produced by its node at execution time.
	VirtualColumnID int
	// Generated marks columns synthesized by the compiler.
	Generated bool
	// Redundant marks pass-through columns that can be skipped at execution.
	Redundant bool
}

// Arena owns every ResultColumn of one statement compilation. Nodes and
// column references hold ColumnIDs instead of pointers so that the
// producer/consumer column chain carries no ownership.
type Arena struct {
	columns []*ResultColumn
}

// NewArena creates an empty arena.
func NewArena() *Arena {
	return &Arena{}
}

// Add stores a copy of rc and returns its handle.
func (a *Arena) Add(rc ResultColumn) ColumnID {
	c := rc
	a.columns = append(a.columns, &c)
	c.ID = ColumnID(len(a.columns))
	return c.ID
}

// Get returns the column with the given handle. It panics on an invalid
// handle.
func (a *Arena) Get(id ColumnID) *ResultColumn {
	Assert(id > 0 && int(id) <= len(a.columns), "invalid column id %d", id)
	return a.columns[id-1]
}

// Clone returns an arena holding copies of the columns of a under the same
// handles.
func (a *Arena) Clone() *Arena {
	c := &Arena{columns: make([]*ResultColumn, len(a.columns))}
	for i, rc := range a.columns {
		cp := *rc
		c.columns[i] = &cp
	}
	return c
}

// Len returns the number of columns in the arena.
func (a *Arena) Len() int {
	return len(a.columns)
}

// ResultColumnList is an ordered list of column handles.
type ResultColumnList []ColumnID

// Names returns the names of the columns in the list.
func (l ResultColumnList) Names(a *Arena) []string {
	names := make([]string, len(l))
	for i, id := range l {
		names[i] = a.Get(id).Name
	}
	return names
}

// Find returns the handle of the column with the given name, matching
// case-insensitively, and whether there was one.
func (l ResultColumnList) Find(a *Arena, name string) (ColumnID, bool) {
	for _, id := range l {
		if strings.EqualFold(a.Get(id).Name, name) {
			return id, true
		}
	}
	return 0, false
}

// Types returns the types of the columns in the list.
func (l ResultColumnList) Types(a *Arena) []Type {
	types := make([]Type, len(l))
	for i, id := range l {
		types[i] = a.Get(id).Type
	}
	return types
}

// Renumber assigns positions and virtual column ids in list order.
func (l ResultColumnList) Renumber(a *Arena) {
	for i, id := range l {
		rc := a.Get(id)
		rc.Position = i + 1
		rc.VirtualColumnID = i + 1
	}
}
