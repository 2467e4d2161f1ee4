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

	"gopkg.in/src-d/go-vitess.v0/sqltypes"
	"gopkg.in/src-d/go-vitess.v0/vt/proto/query"
)

// TypeID identifies a built-in SQL type.
type TypeID int

const (
	// Unknown is the type of an untyped node, such as a NULL literal or a ?
	// parameter before binding.
	Unknown TypeID = iota
	Boolean
	TinyInt
	SmallInt
	Integer
	BigInt
	Decimal
	Real
	Double
	Char
	Varchar
	LongVarchar
	Clob
	Bit
	VarBit
	LongVarBit
	Blob
	Date
	Time
	Timestamp
	XML
	UserDefined
)

type typeIDInfo struct {
	name           string
	sqlType        query.Type
	maxWidth       int
	variableLength bool
}

var typeIDs = map[TypeID]typeIDInfo{
	Unknown:     {"UNKNOWN", sqltypes.Null, 0, false},
	Boolean:     {"BOOLEAN", sqltypes.Bit, 1, false},
	TinyInt:     {"TINYINT", sqltypes.Int8, 1, false},
	SmallInt:    {"SMALLINT", sqltypes.Int16, 2, false},
	Integer:     {"INTEGER", sqltypes.Int32, 4, false},
	BigInt:      {"BIGINT", sqltypes.Int64, 8, false},
	Decimal:     {"DECIMAL", sqltypes.Decimal, 31, false},
	Real:        {"REAL", sqltypes.Float32, 4, false},
	Double:      {"DOUBLE", sqltypes.Float64, 8, false},
	Char:        {"CHAR", sqltypes.Char, 254, false},
	Varchar:     {"VARCHAR", sqltypes.VarChar, 32672, true},
	LongVarchar: {"LONG VARCHAR", sqltypes.Text, 32700, true},
	Clob:        {"CLOB", sqltypes.Text, 2147483647, true},
	Bit:         {"CHAR FOR BIT DATA", sqltypes.Binary, 254, false},
	VarBit:      {"VARCHAR FOR BIT DATA", sqltypes.VarBinary, 32672, true},
	LongVarBit:  {"LONG VARCHAR FOR BIT DATA", sqltypes.Blob, 32700, true},
	Blob:        {"BLOB", sqltypes.Blob, 2147483647, true},
	Date:        {"DATE", sqltypes.Date, 10, false},
	Time:        {"TIME", sqltypes.Time, 8, false},
	Timestamp:   {"TIMESTAMP", sqltypes.Timestamp, 29, false},
	XML:         {"XML", sqltypes.Expression, 2147483647, true},
	UserDefined: {"USER", sqltypes.Expression, 0, false},
}

func (id TypeID) String() string {
	if info, ok := typeIDs[id]; ok {
		return info.name
	}
	return fmt.Sprintf("TypeID(%d)", int(id))
}

// SQLType returns the wire level type used to describe values of this type.
func (id TypeID) SQLType() query.Type {
	return typeIDs[id].sqlType
}

// DefaultMaxWidth is the maximum width of a value of the type when the
// declaration does not give one.
func (id TypeID) DefaultMaxWidth() int {
	return typeIDs[id].maxWidth
}

// IsVariableLength reports whether values of the type can be shorter than the
// declared width.
func (id TypeID) IsVariableLength() bool {
	return typeIDs[id].variableLength
}

// IsIntegral reports whether id is one of TINYINT, SMALLINT, INTEGER or BIGINT.
func (id TypeID) IsIntegral() bool {
	return id != Unknown && sqltypes.IsIntegral(id.SQLType())
}

// IsApproximate reports whether id is REAL or DOUBLE.
func (id TypeID) IsApproximate() bool {
	return sqltypes.IsFloat(id.SQLType())
}

// IsDecimal reports whether id is DECIMAL.
func (id TypeID) IsDecimal() bool {
	return id == Decimal
}

// IsNumeric reports whether id is any numeric type.
func (id TypeID) IsNumeric() bool {
	return id.IsIntegral() || id.IsApproximate() || id.IsDecimal()
}

// IsString reports whether id is a character string type.
func (id TypeID) IsString() bool {
	return sqltypes.IsText(id.SQLType()) && id != XML
}

// IsBit reports whether id is a bit string type.
func (id TypeID) IsBit() bool {
	return sqltypes.IsBinary(id.SQLType())
}

// IsDateTime reports whether id is DATE, TIME or TIMESTAMP.
func (id TypeID) IsDateTime() bool {
	return id == Date || id == Time || id == Timestamp
}

// IsLOB reports whether id is a large object type.
func (id TypeID) IsLOB() bool {
	return id == Clob || id == Blob
}

// CollationType is the collation of a character string type.
type CollationType int

const (
	// CollationUCSBasic compares strings by code point.
	CollationUCSBasic CollationType = iota
	// CollationTerritoryBased compares strings using locale rules.
	CollationTerritoryBased
)

func (c CollationType) String() string {
	if c == CollationTerritoryBased {
		return "TERRITORY_BASED"
	}
	return "UCS_BASIC"
}

// Type is a resolved semantic type. The zero value is the unknown type.
type Type struct {
	ID        TypeID
	Nullable  bool
	Precision int
	Scale     int
	MaxWidth  int
	Collation CollationType
	// UserClass names the implementation of a user defined type.
	UserClass string
}

// NewType returns the nullable type with the given id and its default width.
func NewType(id TypeID) Type {
	t := Type{ID: id, Nullable: true, MaxWidth: id.DefaultMaxWidth()}
	switch id {
	case TinyInt:
		t.Precision = 3
	case SmallInt:
		t.Precision = 5
	case Integer:
		t.Precision = 10
	case BigInt:
		t.Precision = 19
	case Real:
		t.Precision = 7
	case Double:
		t.Precision = 15
	case Decimal:
		t.Precision = 5
	}
	return t
}

// CharType returns a CHAR type of the given width.
func CharType(width int) Type {
	t := NewType(Char)
	t.MaxWidth = width
	return t
}

// VarcharType returns a VARCHAR type of the given width.
func VarcharType(width int) Type {
	t := NewType(Varchar)
	t.MaxWidth = width
	return t
}

// DecimalType returns a DECIMAL type with the given precision and scale.
func DecimalType(precision, scale int) Type {
	t := NewType(Decimal)
	t.Precision = precision
	t.Scale = scale
	t.MaxWidth = precision + 2
	return t
}

// IsUnknown reports whether the type has not been resolved.
func (t Type) IsUnknown() bool {
	return t.ID == Unknown
}

// WithNullable returns a copy of t with the given nullability.
func (t Type) WithNullable(nullable bool) Type {
	t.Nullable = nullable
	return t
}

// WithCollation returns a copy of t with the given collation.
func (t Type) WithCollation(c CollationType) Type {
	t.Collation = c
	return t
}

func (t Type) String() string {
	switch {
	case t.ID == Decimal:
		return fmt.Sprintf("DECIMAL(%d,%d)", t.Precision, t.Scale)
	case t.ID == Char || t.ID == Varchar || t.ID == Bit || t.ID == VarBit:
		return fmt.Sprintf("%s(%d)", t.ID, t.MaxWidth)
	case t.ID == UserDefined && t.UserClass != "":
		return t.UserClass
	default:
		return t.ID.String()
	}
}

// TypeService answers comparison and conversion questions about types. It
// is supplied by the surrounding system; the compiler never inspects type
// ids for these rules directly.
type TypeService interface {
	// Comparable reports whether values of the two types can be compared.
	Comparable(a, b Type, forEquals bool) bool
	// Convertible reports whether values of from can be cast to to.
	Convertible(from, to Type) bool
	// DominantType returns the type wide enough to hold values of both.
	DominantType(a, b Type) Type
	// InterfaceName returns the name of the runtime abstraction for values
	// of t.
	InterfaceName(t Type) string
	// Precedence returns the position of t in the total type order.
	Precedence(t Type) int
}
