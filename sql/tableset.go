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
	"fmt"
	"strings"

	"github.com/bits-and-blooms/bitset"
)

// TableSet is a set of table numbers. The zero value is an empty set.
type TableSet struct {
	bits *bitset.BitSet
}

// NewTableSet returns a set containing the given table numbers.
func NewTableSet(tables ...int) TableSet {
	var s TableSet
	for _, t := range tables {
		s.Add(t)
	}
	return s
}

// Add inserts a table number into the set.
func (s *TableSet) Add(table int) {
	Assert(table >= 0, "negative table number %d", table)
	if s.bits == nil {
		s.bits = bitset.New(8)
	}
	s.bits.Set(uint(table))
}

// Contains reports whether table is in the set.
func (s TableSet) Contains(table int) bool {
	return s.bits != nil && table >= 0 && s.bits.Test(uint(table))
}

// Len returns the number of tables in the set.
func (s TableSet) Len() int {
	if s.bits == nil {
		return 0
	}
	return int(s.bits.Count())
}

// Empty reports whether the set has no tables.
func (s TableSet) Empty() bool {
	return s.Len() == 0
}

// Union returns a new set with the tables of both sets.
func (s TableSet) Union(o TableSet) TableSet {
	switch {
	case s.bits == nil && o.bits == nil:
		return TableSet{}
	case s.bits == nil:
		return TableSet{bits: o.bits.Clone()}
	case o.bits == nil:
		return TableSet{bits: s.bits.Clone()}
	}
	return TableSet{bits: s.bits.Union(o.bits)}
}

// UnionWith adds all tables of o to s.
func (s *TableSet) UnionWith(o TableSet) {
	*s = s.Union(o)
}

// Intersects reports whether the sets share a table.
func (s TableSet) Intersects(o TableSet) bool {
	if s.bits == nil || o.bits == nil {
		return false
	}
	return s.bits.IntersectionCardinality(o.bits) > 0
}

// SubsetOf reports whether every table of s is in o.
func (s TableSet) SubsetOf(o TableSet) bool {
	if s.bits == nil {
		return true
	}
	if o.bits == nil {
		return s.Empty()
	}
	return o.bits.IsSuperSet(s.bits)
}

// Equals reports whether the sets hold the same tables.
func (s TableSet) Equals(o TableSet) bool {
	return s.SubsetOf(o) && o.SubsetOf(s)
}

// Copy returns an independent copy of the set.
func (s TableSet) Copy() TableSet {
	if s.bits == nil {
		return TableSet{}
	}
	return TableSet{bits: s.bits.Clone()}
}

// Tables returns the table numbers in ascending order.
func (s TableSet) Tables() []int {
	var tables []int
	if s.bits == nil {
		return tables
	}
	for i, ok := s.bits.NextSet(0); ok; i, ok = s.bits.NextSet(i + 1) {
		tables = append(tables, int(i))
	}
	return tables
}

func (s TableSet) String() string {
	tables := s.Tables()
	parts := make([]string, len(tables))
	for i, t := range tables {
		parts[i] = fmt.Sprint(t)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}
