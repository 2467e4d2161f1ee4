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

import "strings"

// Catalog provides table metadata to the compiler.
type Catalog interface {
	// Table returns the descriptor of the named table or ErrTableNotFound.
	Table(ctx *Context, name string) (*TableInfo, error)
	// ReferencingForeignKeys returns the foreign keys of other tables that
	// reference the named table.
	ReferencingForeignKeys(ctx *Context, table string) ([]*ForeignKeyInfo, error)
}

// ColumnInfo describes a table column.
type ColumnInfo struct {
	Name string
	// Position is the 1-based position of the column in the table.
	Position int
	Type     Type
	Nullable bool
}

// IndexInfo describes an index (a conglomerate) over a table.
type IndexInfo struct {
	Name    string
	Table   string
	Columns []string
	// Descending holds one flag per key column.
	Descending []bool
	Unique     bool
}

// IsDescending reports whether the i-th key column is stored descending.
func (i *IndexInfo) IsDescending(col int) bool {
	return col < len(i.Descending) && i.Descending[col]
}

// ConstraintKind is the kind of a table constraint.
type ConstraintKind int

const (
	CheckConstraint ConstraintKind = iota
	PrimaryKeyConstraint
	UniqueConstraint
	ForeignKeyConstraint
)

// ConstraintInfo describes a constraint and the columns it depends on.
type ConstraintInfo struct {
	Name    string
	Kind    ConstraintKind
	Columns []string
}

// TriggerEvent is the statement type that fires a trigger.
type TriggerEvent int

const (
	InsertEvent TriggerEvent = iota
	UpdateEvent
	DeleteEvent
)

func (e TriggerEvent) String() string {
	switch e {
	case InsertEvent:
		return "INSERT"
	case UpdateEvent:
		return "UPDATE"
	default:
		return "DELETE"
	}
}

// TriggerInfo describes a trigger. An UPDATE trigger with no columns fires for
// every updated column.
type TriggerInfo struct {
	Name    string
	Event   TriggerEvent
	Columns []string
}

// ReferentialAction is the action taken on dependent rows when a referenced
// row is deleted.
type ReferentialAction int

const (
	NoAction ReferentialAction = iota
	Restrict
	Cascade
	SetNull
)

func (a ReferentialAction) String() string {
	switch a {
	case Restrict:
		return "RESTRICT"
	case Cascade:
		return "CASCADE"
	case SetNull:
		return "SET NULL"
	default:
		return "NO ACTION"
	}
}

// ForeignKeyInfo describes a foreign key from Table to ReferencedTable.
type ForeignKeyInfo struct {
	Name              string
	Table             string
	Columns           []string
	ReferencedTable   string
	ReferencedColumns []string
	OnDelete          ReferentialAction
}

// TableInfo describes a table.
type TableInfo struct {
	Name        string
	Columns     []*ColumnInfo
	Indexes     []*IndexInfo
	Constraints []*ConstraintInfo
	Triggers    []*TriggerInfo
	ForeignKeys []*ForeignKeyInfo
	// RowCount is the estimated number of rows used for costing.
	RowCount int64
}

// Column returns the column with the given name, matching case-insensitively.
func (t *TableInfo) Column(name string) (*ColumnInfo, bool) {
	for _, c := range t.Columns {
		if strings.EqualFold(c.Name, name) {
			return c, true
		}
	}
	return nil, false
}

// ColumnNames returns the names of all columns in table order.
func (t *TableInfo) ColumnNames() []string {
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}
