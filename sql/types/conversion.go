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
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/dolthub/go-query-compiler/sql"
)

// Layouts of the character string forms of datetime values.
const (
	DateLayout      = "2006-01-02"
	TimeLayout      = "15:04:05"
	TimestampLayout = "2006-01-02 15:04:05.999999999"
)

// TypeFromValue returns the closest matching type to the given value. For
// example, an int16 will return SMALLINT.
func TypeFromValue(val interface{}) sql.Type {
	switch v := val.(type) {
	case bool:
		return sql.NewType(sql.Boolean).WithNullable(false)
	case int8:
		return sql.NewType(sql.TinyInt).WithNullable(false)
	case int16:
		return sql.NewType(sql.SmallInt).WithNullable(false)
	case int32:
		return sql.NewType(sql.Integer).WithNullable(false)
	case int, int64:
		return sql.NewType(sql.BigInt).WithNullable(false)
	case float32:
		return sql.NewType(sql.Real).WithNullable(false)
	case float64:
		return sql.NewType(sql.Double).WithNullable(false)
	case decimal.Decimal:
		scale := int(-v.Exponent())
		if scale < 0 {
			scale = 0
		}
		digits := len(v.Abs().Truncate(0).String())
		return sql.DecimalType(digits+scale, scale).WithNullable(false)
	case string:
		return sql.CharType(len([]rune(v))).WithNullable(false)
	case []byte:
		t := sql.NewType(sql.Bit)
		t.MaxWidth = len(v)
		return t.WithNullable(false)
	case time.Time:
		return sql.NewType(sql.Timestamp).WithNullable(false)
	default:
		return sql.Type{Nullable: true}
	}
}

// FoldCast performs a cast of a constant at compile time. It only handles the
// conversions that are cheap and unambiguous: boolean to boolean or CHAR,
// CHAR to boolean, datetime or non-decimal numeric, datetime to CHAR and
// numeric to CHAR or non-decimal numeric. ok is false when no rule applies,
// in which case the cast must be left for execution.
func FoldCast(v interface{}, from, to sql.Type) (result interface{}, ok bool, err error) {
	if v == nil {
		return nil, false, nil
	}

	src, dst := from.ID, to.ID
	switch {
	case src == sql.Boolean:
		switch dst {
		case sql.Boolean:
			return v, true, nil
		case sql.Char:
			return padChar(strconv.FormatBool(v.(bool)), to)
		}
	case src == sql.Char:
		return foldFromChar(v.(string), to)
	case src.IsDateTime():
		if dst == sql.Char {
			return padChar(FormatDateTime(src, v.(time.Time)), to)
		}
	case src.IsIntegral():
		n, err := cast.ToInt64E(v)
		if err != nil {
			return nil, false, err
		}
		return foldFromIntegral(n, to)
	case src.IsApproximate():
		f, err := cast.ToFloat64E(v)
		if err != nil {
			return nil, false, err
		}
		return foldFromNonIntegral(f, to)
	case src == sql.Decimal:
		if dst == sql.Decimal {
			return nil, false, nil
		}
		f, _ := v.(decimal.Decimal).Float64()
		return foldFromNonIntegral(f, to)
	}

	return nil, false, nil
}

func foldFromChar(s string, to sql.Type) (interface{}, bool, error) {
	clean := strings.ToUpper(strings.TrimSpace(s))
	switch to.ID {
	case sql.Boolean:
		switch clean {
		case "TRUE":
			return true, true, nil
		case "FALSE":
			return false, true, nil
		}
		return nil, false, sql.ErrInvalidFormat.New("BOOLEAN", s)
	case sql.Date, sql.Time, sql.Timestamp:
		t, err := ParseDateTime(to.ID, clean)
		if err != nil {
			return nil, false, err
		}
		return t, true, nil
	case sql.TinyInt, sql.SmallInt, sql.Integer, sql.BigInt:
		n, err := strconv.ParseInt(clean, 10, 64)
		if err == nil {
			return foldFromIntegral(n, to)
		}
		if errors.Is(err, strconv.ErrRange) {
			return nil, false, sql.ErrOutsideRangeForDatatype.New(to.ID.String())
		}
		f, err := cast.ToFloat64E(clean)
		if err != nil {
			return nil, false, sql.ErrInvalidFormat.New(to.ID.String(), s)
		}
		// float64(math.MaxInt64) rounds up to 2^63, which int64 cannot hold.
		if math.IsNaN(f) || f >= 0x1p63 || f < -0x1p63 {
			return nil, false, sql.ErrOutsideRangeForDatatype.New(to.ID.String())
		}
		return foldFromIntegral(int64(f), to)
	case sql.Real:
		f, err := strconv.ParseFloat(clean, 32)
		if err != nil {
			return nil, false, sql.ErrInvalidFormat.New("REAL", s)
		}
		return float32(f), true, nil
	case sql.Double:
		f, err := cast.ToFloat64E(clean)
		if err != nil {
			return nil, false, sql.ErrInvalidFormat.New("DOUBLE", s)
		}
		return f, true, nil
	}
	return nil, false, nil
}

func foldFromIntegral(n int64, to sql.Type) (interface{}, bool, error) {
	switch to.ID {
	case sql.Char:
		return padChar(strconv.FormatInt(n, 10), to)
	case sql.TinyInt:
		if n < math.MinInt8 || n > math.MaxInt8 {
			return nil, false, sql.ErrOutsideRangeForDatatype.New("TINYINT")
		}
		return int8(n), true, nil
	case sql.SmallInt:
		if n < math.MinInt16 || n > math.MaxInt16 {
			return nil, false, sql.ErrOutsideRangeForDatatype.New("SMALLINT")
		}
		return int16(n), true, nil
	case sql.Integer:
		if n < math.MinInt32 || n > math.MaxInt32 {
			return nil, false, sql.ErrOutsideRangeForDatatype.New("INTEGER")
		}
		return int32(n), true, nil
	case sql.BigInt:
		return n, true, nil
	case sql.Real:
		if math.Abs(float64(n)) > math.MaxFloat32 {
			return nil, false, sql.ErrOutsideRangeForDatatype.New("REAL")
		}
		return float32(n), true, nil
	case sql.Double:
		return float64(n), true, nil
	}
	return nil, false, nil
}

func foldFromNonIntegral(f float64, to sql.Type) (interface{}, bool, error) {
	switch to.ID {
	case sql.Char:
		return padChar(strconv.FormatFloat(f, 'g', -1, 64), to)
	case sql.TinyInt:
		f = math.Floor(f)
		if f < math.MinInt8 || f > math.MaxInt8 {
			return nil, false, sql.ErrOutsideRangeForDatatype.New("TINYINT")
		}
		return int8(f), true, nil
	case sql.SmallInt:
		f = math.Floor(f)
		if f < math.MinInt16 || f > math.MaxInt16 {
			return nil, false, sql.ErrOutsideRangeForDatatype.New("SMALLINT")
		}
		return int16(f), true, nil
	case sql.Integer:
		f = math.Floor(f)
		if f < math.MinInt32 || f > math.MaxInt32 {
			return nil, false, sql.ErrOutsideRangeForDatatype.New("INTEGER")
		}
		return int32(f), true, nil
	case sql.BigInt:
		f = math.Floor(f)
		if f < -0x1p63 || f >= 0x1p63 {
			return nil, false, sql.ErrOutsideRangeForDatatype.New("BIGINT")
		}
		return int64(f), true, nil
	case sql.Real:
		r, err := NormalizeReal(f)
		if err != nil {
			return nil, false, err
		}
		return r, true, nil
	case sql.Double:
		return f, true, nil
	}
	return nil, false, nil
}

// NormalizeReal converts f to a REAL value, rejecting values that do not fit.
func NormalizeReal(f float64) (float32, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) > math.MaxFloat32 {
		return 0, sql.ErrOutsideRangeForDatatype.New("REAL")
	}
	r := float32(f)
	if r == 0 && f != 0 {
		// underflow collapses to zero
		return 0, nil
	}
	return r, nil
}

// padChar pads s to the declared width of a CHAR type. A value longer than
// the width is left to the runtime cast, which decides whether truncation is
// an error.
func padChar(s string, to sql.Type) (interface{}, bool, error) {
	n := len([]rune(s))
	if to.MaxWidth > 0 && n > to.MaxWidth {
		return nil, false, nil
	}
	if to.MaxWidth > n {
		s += strings.Repeat(" ", to.MaxWidth-n)
	}
	return s, true, nil
}

// ParseDateTime parses the character string form of a DATE, TIME or
// TIMESTAMP value.
func ParseDateTime(id sql.TypeID, s string) (time.Time, error) {
	var layout string
	switch id {
	case sql.Date:
		layout = DateLayout
	case sql.Time:
		layout = TimeLayout
	default:
		layout = TimestampLayout
	}

	t, err := time.Parse(layout, s)
	if err == nil {
		return t, nil
	}
	if id != sql.Time {
		if t, err := cast.ToTimeE(s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, sql.ErrInvalidFormat.New(id.String(), s)
}

// FormatDateTime returns the character string form of a datetime value.
func FormatDateTime(id sql.TypeID, t time.Time) string {
	switch id {
	case sql.Date:
		return t.Format(DateLayout)
	case sql.Time:
		return t.Format(TimeLayout)
	default:
		return t.Format(TimestampLayout)
	}
}

// Convert converts v to the representation of the given type. It is the
// generic value conversion path used at execution time: unlike FoldCast it
// handles every convertible pair, applying the same range checks.
func Convert(v interface{}, to sql.Type) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	from := TypeFromValue(v)
	if from.ID == sql.Unknown {
		return nil, sql.ErrInvalidCast.New(from.ID, to)
	}

	switch dst := to.ID; {
	case dst == from.ID && !dst.IsString():
		return v, nil
	case dst.IsString():
		s, err := toString(v, from)
		if err != nil {
			return nil, err
		}
		if dst == sql.Char {
			if padded, ok, _ := padChar(s, to); ok {
				return padded, nil
			}
		}
		if to.MaxWidth > 0 && len([]rune(s)) > to.MaxWidth {
			return nil, sql.ErrOutsideRangeForDatatype.New(to.String())
		}
		return s, nil
	case dst == sql.Decimal:
		d, err := ToDecimal(v)
		if err != nil {
			return nil, err
		}
		if to.Precision > 0 {
			d = d.Round(int32(to.Scale))
			if len(d.Abs().Truncate(0).String()) > to.Precision-to.Scale {
				return nil, sql.ErrOutsideRangeForDatatype.New(to.String())
			}
		}
		return d, nil
	case dst.IsBit() && from.ID.IsBit():
		return v, nil
	case dst.IsDateTime() && from.ID.IsDateTime():
		t := v.(time.Time)
		switch dst {
		case sql.Date:
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location()), nil
		case sql.Time:
			return time.Date(0, 1, 1, t.Hour(), t.Minute(), t.Second(), 0, t.Location()), nil
		}
		return t, nil
	}

	src := from
	if src.ID == sql.Decimal {
		f, _ := v.(decimal.Decimal).Float64()
		v, src = f, sql.NewType(sql.Double)
	}
	res, ok, err := FoldCast(v, src, to)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, sql.ErrInvalidCast.New(from, to)
	}
	return res, nil
}

func toString(v interface{}, from sql.Type) (string, error) {
	switch x := v.(type) {
	case time.Time:
		return FormatDateTime(from.ID, x), nil
	case decimal.Decimal:
		return x.String(), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'g', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'g', -1, 64), nil
	case []byte:
		return string(x), nil
	}
	return cast.ToStringE(v)
}

// ToDecimal converts a numeric or string value to a decimal.
func ToDecimal(v interface{}) (decimal.Decimal, error) {
	switch x := v.(type) {
	case decimal.Decimal:
		return x, nil
	case float32:
		return decimal.NewFromFloat32(x), nil
	case float64:
		return decimal.NewFromFloat(x), nil
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(x))
		if err != nil {
			return decimal.Zero, sql.ErrInvalidFormat.New("DECIMAL", x)
		}
		return d, nil
	}
	n, err := cast.ToInt64E(v)
	if err != nil {
		return decimal.Zero, sql.ErrInvalidCast.New(TypeFromValue(v), "DECIMAL")
	}
	return decimal.NewFromInt(n), nil
}
