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
)

// ColumnReference is a reference to a column by name. Binding resolves it to
// a result column of the FROM list. Remap and Unremap let optimizations
// retarget the reference to the column that its source reads from, and
// restore it afterwards.
type ColumnReference struct {
	name  string
	table string
	// Source is the result column the reference reads. Zero until bound.
	Source sql.ColumnID
	// TableNumber is the number of the table in its FROM list, or -1.
	TableNumber int
	// ColumnNumber is the position of the column in its source.
	ColumnNumber int
	// Index is the offset of the column in the flat row seen at execution.
	Index int
	// NestingLevel is the level of the query the reference appears in.
	NestingLevel int
	// SourceLevel is the level of the query the referenced column belongs
	// to. The reference is correlated when it differs from NestingLevel.
	SourceLevel int
	typ         sql.Type
	remaps      []remapState
	Pos         sql.Pos
}

type remapState struct {
	name         string
	source       sql.ColumnID
	tableNumber  int
	columnNumber int
}

var _ sql.Expression = (*ColumnReference)(nil)
var _ sql.Tableable = (*ColumnReference)(nil)
var _ sql.Nameable = (*ColumnReference)(nil)

// NewColumnReference creates an unbound reference to a column, optionally
// qualified with a table name.
func NewColumnReference(table, name string) *ColumnReference {
	return &ColumnReference{name: name, table: table, TableNumber: -1}
}

// NewBoundColumnReference creates a reference bound to the given column.
func NewBoundColumnReference(name string, b *sql.ColumnBinding, level int) *ColumnReference {
	c := NewColumnReference(b.Table, name)
	c.bind(b, level)
	return c
}

func (c *ColumnReference) bind(b *sql.ColumnBinding, level int) {
	c.Source = b.Source
	c.TableNumber = b.TableNumber
	c.ColumnNumber = b.ColumnNumber
	c.Index = b.Index
	c.NestingLevel = level
	c.SourceLevel = b.Level
	c.typ = b.Type
	if c.table == "" {
		c.table = b.Table
	}
}

// Name implements the Nameable interface.
func (c *ColumnReference) Name() string { return c.name }

// Table implements the Tableable interface.
func (c *ColumnReference) Table() string { return c.table }

// Resolved implements the Expression interface.
func (c *ColumnReference) Resolved() bool {
	return c.Source != 0
}

// Type implements the Expression interface.
func (c *ColumnReference) Type() sql.Type {
	return c.typ
}

// IsNullable implements the Expression interface.
func (c *ColumnReference) IsNullable() bool {
	return c.typ.Nullable
}

// Correlated reports whether the reference reads a column of an enclosing
// query.
func (c *ColumnReference) Correlated() bool {
	return c.Source != 0 && c.SourceLevel != c.NestingLevel
}

// RemapDepth returns the number of Remap calls not yet undone.
func (c *ColumnReference) RemapDepth() int {
	return len(c.remaps)
}

// Remap retargets the reference to the column its current source reads
// from. It is a no-op when the source is not itself a column or virtual
// column reference.
func (c *ColumnReference) Remap(a *sql.Arena) {
	sql.Assert(c.Source != 0, "remap of unbound column %s", c.name)

	var next sql.ColumnID
	switch e := a.Get(c.Source).Expr.(type) {
	case *VirtualColumn:
		next = e.Source
	case *ColumnReference:
		next = e.Source
	default:
		return
	}
	if next == 0 {
		return
	}

	c.remaps = append(c.remaps, remapState{
		name:         c.name,
		source:       c.Source,
		tableNumber:  c.TableNumber,
		columnNumber: c.ColumnNumber,
	})

	rc := a.Get(next)
	c.Source = next
	c.name = rc.Name
	switch e := rc.Expr.(type) {
	case *VirtualColumn:
		c.ColumnNumber = rc.VirtualColumnID
	case *ColumnReference:
		c.ColumnNumber = rc.Position
		c.TableNumber = e.TableNumber
	default:
		c.ColumnNumber = rc.Position
	}
}

// Unremap undoes the most recent Remap.
func (c *ColumnReference) Unremap() {
	if len(c.remaps) == 0 {
		return
	}
	s := c.remaps[len(c.remaps)-1]
	c.remaps = c.remaps[:len(c.remaps)-1]
	c.name = s.name
	c.Source = s.source
	c.TableNumber = s.tableNumber
	c.ColumnNumber = s.columnNumber
}

func (c *ColumnReference) String() string {
	if c.table == "" {
		return c.name
	}
	return fmt.Sprintf("%s.%s", c.table, c.name)
}

// Children implements the Expression interface.
func (*ColumnReference) Children() []sql.Expression {
	return nil
}

// WithChildren implements the Expression interface.
func (c *ColumnReference) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidChildrenNumber.New(c, len(children), 0)
	}
	return c, nil
}

// copy returns a reference in the same state with its own remap history.
func (c *ColumnReference) copy() *ColumnReference {
	nc := *c
	nc.remaps = append([]remapState(nil), c.remaps...)
	return &nc
}

// VirtualColumn reads a column of the row produced by a child node. Source
// is the result column of the child.
type VirtualColumn struct {
	Source sql.ColumnID
	// ColumnID is the 1-based position of the column in the child row.
	ColumnID int
	name     string
	typ      sql.Type
}

var _ sql.Expression = (*VirtualColumn)(nil)

// NewVirtualColumn creates a virtual column over the given result column.
func NewVirtualColumn(a *sql.Arena, source sql.ColumnID) *VirtualColumn {
	rc := a.Get(source)
	return &VirtualColumn{
		Source:   source,
		ColumnID: rc.VirtualColumnID,
		name:     rc.Name,
		typ:      rc.Type,
	}
}

// Name implements the Nameable interface.
func (v *VirtualColumn) Name() string { return v.name }

// Resolved implements the Expression interface.
func (*VirtualColumn) Resolved() bool { return true }

// Type implements the Expression interface.
func (v *VirtualColumn) Type() sql.Type { return v.typ }

// IsNullable implements the Expression interface.
func (v *VirtualColumn) IsNullable() bool { return v.typ.Nullable }

func (v *VirtualColumn) String() string {
	return fmt.Sprintf("#%d(%s)", v.ColumnID, v.name)
}

// Children implements the Expression interface.
func (*VirtualColumn) Children() []sql.Expression { return nil }

// WithChildren implements the Expression interface.
func (v *VirtualColumn) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidChildrenNumber.New(v, len(children), 0)
	}
	return v, nil
}

// BaseColumn is a column as stored in a base table.
type BaseColumn struct {
	table        string
	name         string
	TableNumber  int
	ColumnNumber int
	typ          sql.Type
}

var _ sql.Expression = (*BaseColumn)(nil)

// NewBaseColumn creates a column of the given table.
func NewBaseColumn(table, name string, tableNumber, columnNumber int, typ sql.Type) *BaseColumn {
	return &BaseColumn{
		table:        table,
		name:         name,
		TableNumber:  tableNumber,
		ColumnNumber: columnNumber,
		typ:          typ,
	}
}

// Name implements the Nameable interface.
func (b *BaseColumn) Name() string { return b.name }

// Table implements the Tableable interface.
func (b *BaseColumn) Table() string { return b.table }

// Resolved implements the Expression interface.
func (*BaseColumn) Resolved() bool { return true }

// Type implements the Expression interface.
func (b *BaseColumn) Type() sql.Type { return b.typ }

// IsNullable implements the Expression interface.
func (b *BaseColumn) IsNullable() bool { return b.typ.Nullable }

func (b *BaseColumn) String() string {
	return fmt.Sprintf("%s.%s", b.table, b.name)
}

// Children implements the Expression interface.
func (*BaseColumn) Children() []sql.Expression { return nil }

// WithChildren implements the Expression interface.
func (b *BaseColumn) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	if len(children) != 0 {
		return nil, sql.ErrInvalidChildrenNumber.New(b, len(children), 0)
	}
	return b, nil
}
