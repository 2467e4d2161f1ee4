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

package memory

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dolthub/go-query-compiler/sql"
)

func TestLoadCatalogFile(t *testing.T) {
	require := require.New(t)
	c, err := LoadCatalogFile("testdata/catalog.yaml")
	require.NoError(err)
	require.Equal([]string{"audit", "child", "grandchild", "parent", "t", "tree", "u", "v"}, c.TableNames())

	ctx := sql.NewEmptyContext()
	tbl, err := c.Table(ctx, "T")
	require.NoError(err)
	require.Equal(int64(1000), tbl.RowCount)
	require.Equal([]string{"a", "b", "s", "c"}, tbl.ColumnNames())

	a, ok := tbl.Column("A")
	require.True(ok)
	require.False(a.Nullable)
	require.Equal(sql.Integer, a.Type.ID)
	require.Equal(1, a.Position)

	s, ok := tbl.Column("s")
	require.True(ok)
	require.True(s.Nullable)
	require.Equal(sql.VarcharType(10), s.Type)

	require.Len(tbl.Indexes, 2)
	require.False(tbl.Indexes[0].IsDescending(0))
	require.True(tbl.Indexes[1].IsDescending(0))
	require.Len(tbl.Triggers, 3)
	require.Equal(sql.UpdateEvent, tbl.Triggers[0].Event)
}

func TestReferencingForeignKeys(t *testing.T) {
	require := require.New(t)
	c, err := LoadCatalogFile("testdata/catalog.yaml")
	require.NoError(err)
	ctx := sql.NewEmptyContext()

	fks, err := c.ReferencingForeignKeys(ctx, "parent")
	require.NoError(err)
	require.Len(fks, 2)
	require.Equal("audit_parent", fks[0].Name)
	require.Equal(sql.Restrict, fks[0].OnDelete)
	require.Equal("child_parent", fks[1].Name)
	require.Equal(sql.Cascade, fks[1].OnDelete)

	fks, err = c.ReferencingForeignKeys(ctx, "tree")
	require.NoError(err)
	require.Len(fks, 1)
	require.Equal("tree", fks[0].Table)

	fks, err = c.ReferencingForeignKeys(ctx, "v")
	require.NoError(err)
	require.Empty(fks)
}

func TestTableNotFound(t *testing.T) {
	require := require.New(t)
	_, err := NewCatalog().Table(sql.NewEmptyContext(), "nope")
	require.Error(err)
	require.True(sql.ErrTableNotFound.Is(err))
}

func TestLoadCatalogErrors(t *testing.T) {
	testCases := []struct {
		name string
		yaml string
	}{
		{"bad type", "tables: [{name: t, columns: [{name: a, type: FOO}]}]"},
		{"unknown index column", "tables: [{name: t, columns: [{name: a, type: INT}], indexes: [{name: i, columns: [b]}]}]"},
		{"unknown action", "tables: [{name: t, foreign_keys: [{name: f, on_delete: explode}]}]"},
		{"unknown field", "tables: [{name: t, colums: []}]"},
	}
	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadCatalog(strings.NewReader(tt.yaml))
			require.Error(t, err)
		})
	}
}
