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
	"bytes"
	"time"

	"github.com/mitchellh/hashstructure"
	"github.com/shopspring/decimal"
	"github.com/spf13/cast"

	"github.com/dolthub/go-query-compiler/sql"
)

// Compare compares two non-NULL values as values of type t. It returns -1, 0
// or 1.
func Compare(t sql.Type, a, b interface{}) (int, error) {
	switch id := t.ID; {
	case id.IsIntegral():
		x, err := cast.ToInt64E(a)
		if err != nil {
			return 0, err
		}
		y, err := cast.ToInt64E(b)
		if err != nil {
			return 0, err
		}
		return compareOrdered(x, y), nil
	case id.IsApproximate():
		x, err := toFloat(a)
		if err != nil {
			return 0, err
		}
		y, err := toFloat(b)
		if err != nil {
			return 0, err
		}
		return compareOrdered(x, y), nil
	case id == sql.Decimal:
		x, err := ToDecimal(a)
		if err != nil {
			return 0, err
		}
		y, err := ToDecimal(b)
		if err != nil {
			return 0, err
		}
		return x.Cmp(y), nil
	case id.IsString():
		x, err := toString(a, t)
		if err != nil {
			return 0, err
		}
		y, err := toString(b, t)
		if err != nil {
			return 0, err
		}
		return CompareStrings(x, y), nil
	case id == sql.Boolean:
		x, err := cast.ToBoolE(a)
		if err != nil {
			return 0, err
		}
		y, err := cast.ToBoolE(b)
		if err != nil {
			return 0, err
		}
		switch {
		case x == y:
			return 0, nil
		case !x:
			return -1, nil
		default:
			return 1, nil
		}
	case id.IsDateTime():
		x, err := toTime(id, a)
		if err != nil {
			return 0, err
		}
		y, err := toTime(id, b)
		if err != nil {
			return 0, err
		}
		return x.Compare(y), nil
	case id.IsBit():
		x, ok1 := a.([]byte)
		y, ok2 := b.([]byte)
		if !ok1 || !ok2 {
			return 0, sql.ErrInvalidCast.New(TypeFromValue(a), t)
		}
		return bytes.Compare(x, y), nil
	}
	return 0, sql.ErrTypeIncompatible.New("compare", t, t)
}

func compareOrdered[T int64 | float64](x, y T) int {
	switch {
	case x < y:
		return -1
	case x > y:
		return 1
	default:
		return 0
	}
}

func toFloat(v interface{}) (float64, error) {
	if d, ok := v.(decimal.Decimal); ok {
		f, _ := d.Float64()
		return f, nil
	}
	return cast.ToFloat64E(v)
}

func toTime(id sql.TypeID, v interface{}) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		return ParseDateTime(id, x)
	}
	return time.Time{}, sql.ErrInvalidCast.New(TypeFromValue(v), id)
}

// CompareStrings compares two character strings the way SQL compares CHAR
// values: the shorter string is padded with spaces.
func CompareStrings(a, b string) int {
	x, y := []rune(a), []rune(b)
	n := max(len(x), len(y))
	for i := 0; i < n; i++ {
		c1, c2 := ' ', ' '
		if i < len(x) {
			c1 = x[i]
		}
		if i < len(y) {
			c2 = y[i]
		}
		if c1 != c2 {
			if c1 < c2 {
				return -1
			}
			return 1
		}
	}
	return 0
}

// HashValue returns a hash of a constant value such that values that compare
// equal as values of t hash equal.
func HashValue(t sql.Type, v interface{}) (uint64, error) {
	key, err := hashKey(t, v)
	if err != nil {
		return 0, err
	}
	return hashstructure.Hash(key, nil)
}

func hashKey(t sql.Type, v interface{}) (interface{}, error) {
	if v == nil {
		return nil, nil
	}
	switch id := t.ID; {
	case id.IsIntegral():
		return cast.ToInt64E(v)
	case id.IsApproximate():
		return toFloat(v)
	case id == sql.Decimal:
		d, err := ToDecimal(v)
		if err != nil {
			return nil, err
		}
		return d.String(), nil
	case id.IsString():
		s, err := toString(v, t)
		if err != nil {
			return nil, err
		}
		r := []rune(s)
		end := len(r)
		for end > 0 && r[end-1] == ' ' {
			end--
		}
		return string(r[:end]), nil
	case id.IsDateTime():
		tm, err := toTime(id, v)
		if err != nil {
			return nil, err
		}
		return tm.UnixNano(), nil
	}
	return v, nil
}
