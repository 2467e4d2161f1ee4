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
	"regexp"
	"strconv"
	"strings"

	"github.com/dolthub/go-query-compiler/sql"
)

var typeDecl = regexp.MustCompile(`^([A-Z ]+?)\s*(?:\(\s*(\d+)\s*(?:,\s*(\d+)\s*)?\))?\s*(FOR BIT DATA)?$`)

var typeNames = map[string]sql.TypeID{
	"BOOLEAN":      sql.Boolean,
	"TINYINT":      sql.TinyInt,
	"SMALLINT":     sql.SmallInt,
	"INT":          sql.Integer,
	"INTEGER":      sql.Integer,
	"BIGINT":       sql.BigInt,
	"DECIMAL":      sql.Decimal,
	"NUMERIC":      sql.Decimal,
	"REAL":         sql.Real,
	"FLOAT":        sql.Double,
	"DOUBLE":       sql.Double,
	"CHAR":         sql.Char,
	"CHARACTER":    sql.Char,
	"VARCHAR":      sql.Varchar,
	"LONG VARCHAR": sql.LongVarchar,
	"CLOB":         sql.Clob,
	"BLOB":         sql.Blob,
	"DATE":         sql.Date,
	"TIME":         sql.Time,
	"TIMESTAMP":    sql.Timestamp,
	"XML":          sql.XML,
}

var bitTypes = map[sql.TypeID]sql.TypeID{
	sql.Char:        sql.Bit,
	sql.Varchar:     sql.VarBit,
	sql.LongVarchar: sql.LongVarBit,
}

// ParseType parses a column type declaration such as VARCHAR(10),
// DECIMAL(5,2) or CHAR(4) FOR BIT DATA. The returned type is nullable.
func ParseType(decl string) (sql.Type, error) {
	m := typeDecl.FindStringSubmatch(strings.ToUpper(strings.TrimSpace(decl)))
	if m == nil {
		return sql.Type{}, sql.ErrInvalidFormat.New("type", decl)
	}
	id, ok := typeNames[strings.Join(strings.Fields(m[1]), " ")]
	if !ok {
		return sql.Type{}, sql.ErrInvalidFormat.New("type", decl)
	}
	if m[4] != "" {
		if id, ok = bitTypes[id]; !ok {
			return sql.Type{}, sql.ErrInvalidFormat.New("type", decl)
		}
	}

	t := sql.NewType(id)
	if m[2] == "" {
		if id == sql.Char || id == sql.Bit {
			t.MaxWidth = 1
		}
		return t, nil
	}

	n, err := strconv.Atoi(m[2])
	if err != nil {
		return sql.Type{}, sql.ErrInvalidFormat.New("type", decl)
	}
	switch {
	case id == sql.Decimal:
		scale := 0
		if m[3] != "" {
			if scale, err = strconv.Atoi(m[3]); err != nil {
				return sql.Type{}, sql.ErrInvalidFormat.New("type", decl)
			}
		}
		if n < 1 || n > MaxDecimalPrecision || scale > n {
			return sql.Type{}, sql.ErrOutsideRangeForDatatype.New(decl)
		}
		return sql.DecimalType(n, scale), nil
	case m[3] != "":
		return sql.Type{}, sql.ErrInvalidFormat.New("type", decl)
	case id.IsString() || id.IsBit():
		t.MaxWidth = n
		return t, nil
	default:
		return sql.Type{}, sql.ErrInvalidFormat.New("type", decl)
	}
}
