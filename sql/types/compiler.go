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

package types

import (
	"github.com/dolthub/go-query-compiler/sql"
)

// Runtime abstractions through which values are manipulated.
const (
	DataValueInterface     = "DataValueDescriptor"
	NumberValueInterface   = "NumberDataValue"
	StringValueInterface   = "StringDataValue"
	BooleanValueInterface  = "BooleanDataValue"
	DateTimeValueInterface = "DateTimeDataValue"
	BitValueInterface      = "BitDataValue"
	XMLValueInterface      = "XMLDataValue"
	UserValueInterface     = "UserDataValue"
)

// MaxDecimalPrecision is the largest precision of a DECIMAL.
const MaxDecimalPrecision = 31

// UserTypePrecedence is the precedence of every user defined type.
const UserTypePrecedence = 1000

var precedences = map[sql.TypeID]int{
	sql.Char:        0,
	sql.Varchar:     10,
	sql.LongVarchar: 12,
	sql.Clob:        14,
	sql.TinyInt:     30,
	sql.SmallInt:    40,
	sql.Integer:     50,
	sql.BigInt:      60,
	sql.Decimal:     70,
	sql.Real:        80,
	sql.Double:      90,
	sql.Date:        100,
	sql.Timestamp:   110,
	sql.Time:        120,
	sql.Boolean:     130,
	sql.Bit:         140,
	sql.VarBit:      150,
	sql.LongVarBit:  160,
	sql.Blob:        170,
	sql.XML:         180,
	sql.UserDefined: UserTypePrecedence,
}

// TypeCompiler is the built-in implementation of sql.TypeService.
type TypeCompiler struct{}

var _ sql.TypeService = TypeCompiler{}

// Default is the type service used when the context does not carry one.
var Default sql.TypeService = TypeCompiler{}

// Service returns the type service of the context, or Default.
func Service(ctx *sql.Context) sql.TypeService {
	if ctx != nil && ctx.Types() != nil {
		return ctx.Types()
	}
	return Default
}

// Precedence implements sql.TypeService.
func (TypeCompiler) Precedence(t sql.Type) int {
	if p, ok := precedences[t.ID]; ok {
		return p
	}
	return -1
}

// InterfaceName implements sql.TypeService.
func (TypeCompiler) InterfaceName(t sql.Type) string {
	switch id := t.ID; {
	case id.IsNumeric():
		return NumberValueInterface
	case id.IsString():
		return StringValueInterface
	case id == sql.Boolean:
		return BooleanValueInterface
	case id.IsDateTime():
		return DateTimeValueInterface
	case id.IsBit():
		return BitValueInterface
	case id == sql.XML:
		return XMLValueInterface
	case id == sql.UserDefined:
		return UserValueInterface
	default:
		return DataValueInterface
	}
}

// Comparable implements sql.TypeService.
func (TypeCompiler) Comparable(a, b sql.Type, forEquals bool) bool {
	if a.IsUnknown() || b.IsUnknown() {
		return true
	}
	if a.ID.IsLOB() || b.ID.IsLOB() || a.ID == sql.XML || b.ID == sql.XML {
		return false
	}

	switch x, y := a.ID, b.ID; {
	case x.IsNumeric():
		return y.IsNumeric()
	case x.IsString():
		return y.IsString() || y.IsDateTime()
	case x.IsDateTime():
		return x == y || y.IsString()
	case x == sql.Boolean:
		return y == sql.Boolean
	case x.IsBit():
		return y.IsBit()
	case x == sql.UserDefined:
		return forEquals && y == sql.UserDefined && a.UserClass == b.UserClass
	}
	return false
}

// Convertible implements sql.TypeService.
func (TypeCompiler) Convertible(from, to sql.Type) bool {
	if from.IsUnknown() || from.ID == to.ID && from.UserClass == to.UserClass {
		return true
	}

	x, y := from.ID, to.ID
	switch {
	case x.IsNumeric():
		return y.IsNumeric() || y == sql.Char || y == sql.Varchar
	case x == sql.Clob || x == sql.LongVarchar:
		return y.IsString()
	case x.IsString():
		return y.IsString() || y.IsNumeric() || y.IsDateTime() || y == sql.Boolean
	case x == sql.Boolean:
		return y.IsString()
	case x == sql.Date:
		return y == sql.Timestamp || y == sql.Char || y == sql.Varchar
	case x == sql.Time:
		return y == sql.Timestamp || y == sql.Char || y == sql.Varchar
	case x == sql.Timestamp:
		return y == sql.Date || y == sql.Time || y == sql.Char || y == sql.Varchar
	case x == sql.Blob:
		return y == sql.Blob
	case x.IsBit():
		return y.IsBit()
	}
	return false
}

// DominantType implements sql.TypeService.
func (tc TypeCompiler) DominantType(a, b sql.Type) sql.Type {
	if a.IsUnknown() {
		return b.WithNullable(a.Nullable || b.Nullable)
	}
	if b.IsUnknown() {
		return a.WithNullable(a.Nullable || b.Nullable)
	}

	higher, lower := a, b
	if tc.Precedence(b) > tc.Precedence(a) {
		higher, lower = b, a
	}
	result := higher
	result.Nullable = a.Nullable || b.Nullable

	switch {
	case higher.ID.IsString() && lower.ID.IsString(),
		higher.ID.IsBit() && lower.ID.IsBit():
		result.MaxWidth = max(higher.MaxWidth, lower.MaxWidth)
	case higher.ID == sql.Decimal && lower.ID.IsNumeric() && !lower.ID.IsApproximate():
		scale := max(higher.Scale, lower.Scale)
		digits := max(higher.Precision-higher.Scale, lower.Precision-lower.Scale)
		result.Scale = scale
		result.Precision = min(digits+scale, MaxDecimalPrecision)
		result.MaxWidth = result.Precision + 2
	}

	return result
}
