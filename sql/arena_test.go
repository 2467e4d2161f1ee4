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
	"testing"

	"github.com/stretchr/testify/require"
)

func TestArena(t *testing.T) {
	require := require.New(t)

	a := NewArena()
	id1 := a.Add(ResultColumn{Name: "a", Type: NewType(Integer)})
	id2 := a.Add(ResultColumn{Name: "B", Type: CharType(5)})
	require.Equal(ColumnID(1), id1)
	require.Equal(ColumnID(2), id2)
	require.Equal(id2, a.Get(id2).ID)
	require.Equal(2, a.Len())

	l := ResultColumnList{id2, id1}
	l.Renumber(a)
	require.Equal(1, a.Get(id2).Position)
	require.Equal(2, a.Get(id1).VirtualColumnID)
	require.Equal([]string{"B", "a"}, l.Names(a))
	require.Equal([]Type{CharType(5), NewType(Integer)}, l.Types(a))

	found, ok := l.Find(a, "b")
	require.True(ok)
	require.Equal(id2, found)
	_, ok = l.Find(a, "c")
	require.False(ok)

	require.Panics(func() { a.Get(0) })
	require.Panics(func() { a.Get(3) })
}

func TestArenaClone(t *testing.T) {
	require := require.New(t)

	a := NewArena()
	id := a.Add(ResultColumn{Name: "a", Position: 1})
	c := a.Clone()
	require.Equal(1, c.Len())
	require.Equal("a", c.Get(id).Name)

	c.Get(id).Position = 2
	c.Add(ResultColumn{Name: "b"})
	require.Equal(1, a.Get(id).Position)
	require.Equal(1, a.Len())
}

func TestAssert(t *testing.T) {
	require := require.New(t)
	require.NotPanics(func() { Assert(true, "never") })

	defer func() {
		r := recover()
		err, ok := r.(error)
		require.True(ok)
		require.True(ErrSanity.Is(err))
		require.Contains(err.Error(), "receiver is nil")
	}()
	Assert(false, "receiver is %s", "nil")
}
