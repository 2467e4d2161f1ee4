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

const expectedTree = `ProjectRestrict(a, b)
 ├─ Join(LEFT OUTER)
 │   ├─ BaseTable(t1)
 │   └─ BaseTable(t2)
 └─ Join(INNER)
     ├─ BaseTable(t3)
     └─ BaseTable(t4)
`

func TestTreePrinter(t *testing.T) {
	require := require.New(t)

	p := NewTreePrinter()
	require.NoError(p.WriteNode("ProjectRestrict(%s, %s)", "a", "b"))

	p2 := NewTreePrinter()
	require.NoError(p2.WriteNode("Join(LEFT OUTER)"))
	require.NoError(p2.WriteChildren("BaseTable(t1)", "BaseTable(t2)"))

	p3 := NewTreePrinter()
	require.NoError(p3.WriteNode("Join(INNER)"))
	require.NoError(p3.WriteChildren("BaseTable(t3)", "BaseTable(t4)"))

	require.NoError(p.WriteChildren(p2.String(), p3.String()))
	require.Equal(expectedTree, p.String())
}

func TestTreePrinterErrors(t *testing.T) {
	require := require.New(t)

	p := NewTreePrinter()
	err := p.WriteChildren("a")
	require.True(ErrNodeNotWritten.Is(err))

	require.NoError(p.WriteNode("x"))
	require.True(ErrNodeAlreadyWritten.Is(p.WriteNode("y")))

	require.NoError(p.WriteChildren("a"))
	require.True(ErrChildrenAlreadyWritten.Is(p.WriteChildren("b")))
}
