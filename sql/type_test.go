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
	"gopkg.in/src-d/go-vitess.v0/sqltypes"
)

func TestTypeIDCategories(t *testing.T) {
	require := require.New(t)

	require.True(TinyInt.IsIntegral())
	require.True(BigInt.IsIntegral())
	require.False(Decimal.IsIntegral())
	require.True(Decimal.IsNumeric())
	require.True(Real.IsApproximate())
	require.True(Char.IsString())
	require.True(Clob.IsString())
	require.False(Bit.IsString())
	require.True(VarBit.IsBit())
	require.False(Boolean.IsBit())
	require.True(Timestamp.IsDateTime())
	require.True(Varchar.IsVariableLength())
	require.False(Char.IsVariableLength())
	require.False(Unknown.IsNumeric())

	require.Equal("CHAR(5)", CharType(5).String())
	require.Equal("DECIMAL(10,2)", DecimalType(10, 2).String())
	require.Equal("INTEGER", NewType(Integer).String())
	require.True(Type{}.IsUnknown())
}

func TestTypeIDSQLType(t *testing.T) {
	require := require.New(t)
	require.Equal(sqltypes.Int32, Integer.SQLType())
	require.Equal(sqltypes.VarChar, Varchar.SQLType())
	require.Equal(sqltypes.Decimal, Decimal.SQLType())
	require.Equal(sqltypes.Null, Unknown.SQLType())
	require.Equal(254, Char.DefaultMaxWidth())
	require.Equal("LONG VARCHAR", LongVarchar.String())
	require.Equal("TypeID(99)", TypeID(99).String())
}

func TestTypeModifiers(t *testing.T) {
	require := require.New(t)

	vc := VarcharType(20)
	require.True(vc.Nullable)
	require.Equal(20, vc.MaxWidth)
	require.False(vc.WithNullable(false).Nullable)
	require.True(vc.Nullable)
	require.Equal(CollationTerritoryBased, vc.WithCollation(CollationTerritoryBased).Collation)
	require.Equal("UCS_BASIC", vc.Collation.String())
	require.Equal(12, DecimalType(10, 2).MaxWidth)
	require.Equal("com.acme.Price", Type{ID: UserDefined, UserClass: "com.acme.Price"}.String())
}

func TestRow(t *testing.T) {
	require := require.New(t)
	values := []interface{}{1, "a"}
	r := NewRow(values...)
	values[0] = 2
	require.Equal(Row{1, "a"}, r)
	require.Equal(Row{1, "a", nil}, r.Append(NewRow(nil)))
	require.Equal("line 3, column 7", Pos{Line: 3, Col: 7}.String())
}
