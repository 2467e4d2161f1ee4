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

func TestTableSet(t *testing.T) {
	require := require.New(t)

	var empty TableSet
	require.True(empty.Empty())
	require.False(empty.Contains(0))
	require.True(empty.SubsetOf(NewTableSet(1)))
	require.Equal("{}", empty.String())

	s := NewTableSet(0, 3)
	require.Equal(2, s.Len())
	require.True(s.Contains(3))
	require.False(s.Contains(1))

	o := NewTableSet(3, 5)
	require.True(s.Intersects(o))
	require.False(s.Intersects(NewTableSet(1)))

	u := s.Union(o)
	require.Equal([]int{0, 3, 5}, u.Tables())
	require.True(s.SubsetOf(u))
	require.False(u.SubsetOf(s))
	require.Equal("{0, 3, 5}", u.String())

	// Union does not alias its inputs.
	u.Add(7)
	require.False(s.Contains(7))
	require.False(o.Contains(7))

	c := s.Copy()
	c.Add(9)
	require.False(s.Contains(9))
	require.True(NewTableSet(0, 3).Equals(s))

	s.UnionWith(NewTableSet(4))
	require.Equal([]int{0, 3, 4}, s.Tables())
}
