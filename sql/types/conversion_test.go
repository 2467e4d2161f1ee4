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
	"math"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gopkg.in/src-d/go-errors.v1"

	"github.com/dolthub/go-query-compiler/sql"
)

func TestFoldCast(t *testing.T) {
	testCases := []struct {
		name     string
		val      interface{}
		to       sql.Type
		expected interface{}
		folded   bool
		err      *errors.Kind
	}{
		{"bool to bool", true, sql.NewType(sql.Boolean), true, true, nil},
		{"bool to char", false, sql.CharType(5), "false", true, nil},
		{"char to bool", " true ", sql.NewType(sql.Boolean), true, true, nil},
		{"char to bool invalid", "yes", sql.NewType(sql.Boolean), nil, false, sql.ErrInvalidFormat},
		{"char to int truncates", "12.9", sql.NewType(sql.Integer), int32(12), true, nil},
		{"char to tinyint overflow", "300", sql.NewType(sql.TinyInt), nil, false, sql.ErrOutsideRangeForDatatype},
		{"char to int invalid", "abc", sql.NewType(sql.Integer), nil, false, sql.ErrInvalidFormat},
		{"char to double", "1.5", sql.NewType(sql.Double), 1.5, true, nil},
		{"char to date", "2021-03-04", sql.NewType(sql.Date), time.Date(2021, 3, 4, 0, 0, 0, 0, time.UTC), true, nil},
		{"char to varchar not folded", "abc", sql.VarcharType(5), nil, false, nil},
		{"int to tinyint", int32(100), sql.NewType(sql.TinyInt), int8(100), true, nil},
		{"int to tinyint overflow", int32(1000), sql.NewType(sql.TinyInt), nil, false, sql.ErrOutsideRangeForDatatype},
		{"int to smallint overflow", int64(40000), sql.NewType(sql.SmallInt), nil, false, sql.ErrOutsideRangeForDatatype},
		{"bigint to int overflow", int64(math.MaxInt32 + 1), sql.NewType(sql.Integer), nil, false, sql.ErrOutsideRangeForDatatype},
		{"int to char", int32(42), sql.CharType(4), "42  ", true, nil},
		{"int to real", int16(3), sql.NewType(sql.Real), float32(3), true, nil},
		{"int to decimal not folded", int32(3), sql.DecimalType(5, 2), nil, false, nil},
		{"double floors to int", -1.5, sql.NewType(sql.Integer), int32(-2), true, nil},
		{"double to tinyint overflow", 128.0, sql.NewType(sql.TinyInt), nil, false, sql.ErrOutsideRangeForDatatype},
		{"double to real overflow", math.MaxFloat64, sql.NewType(sql.Real), nil, false, sql.ErrOutsideRangeForDatatype},
		{"decimal to int", decimal.RequireFromString("7.25"), sql.NewType(sql.Integer), int32(7), true, nil},
		{"decimal to decimal not folded", decimal.RequireFromString("7.25"), sql.DecimalType(5, 1), nil, false, nil},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			res, ok, err := FoldCast(tt.val, TypeFromValue(tt.val), tt.to)
			if tt.err != nil {
				require.Error(err)
				require.True(tt.err.Is(err), "unexpected error %v", err)
				return
			}
			require.NoError(err)
			require.Equal(tt.folded, ok)
			require.Equal(tt.expected, res)
		})
	}
}

func TestFoldCastIntegerLimits(t *testing.T) {
	bigint, integer, smallint := sql.NewType(sql.BigInt), sql.NewType(sql.Integer), sql.NewType(sql.SmallInt)
	testCases := []struct {
		name     string
		val      interface{}
		to       sql.Type
		expected interface{}
		err      *errors.Kind
	}{
		{"char bigint max", "9223372036854775807", bigint, int64(math.MaxInt64), nil},
		{"char bigint max+1", "9223372036854775808", bigint, nil, sql.ErrOutsideRangeForDatatype},
		{"char bigint min", "-9223372036854775808", bigint, int64(math.MinInt64), nil},
		{"char bigint min-1", "-9223372036854775809", bigint, nil, sql.ErrOutsideRangeForDatatype},
		{"char bigint exponent", "9.3e18", bigint, nil, sql.ErrOutsideRangeForDatatype},
		{"char bigint nan", "NaN", bigint, nil, sql.ErrOutsideRangeForDatatype},
		{"char integer max", "2147483647", integer, int32(math.MaxInt32), nil},
		{"char integer max+1", "2147483648", integer, nil, sql.ErrOutsideRangeForDatatype},
		{"char integer min", "-2147483648", integer, int32(math.MinInt32), nil},
		{"char integer min-1", "-2147483649", integer, nil, sql.ErrOutsideRangeForDatatype},
		{"char smallint max", "32767", smallint, int16(math.MaxInt16), nil},
		{"char smallint max+1", "32768", smallint, nil, sql.ErrOutsideRangeForDatatype},
		{"char smallint min", "-32768", smallint, int16(math.MinInt16), nil},
		{"char smallint min-1", "-32769", smallint, nil, sql.ErrOutsideRangeForDatatype},
		{"double bigint below 2^63", 0x1p63 - 1024, bigint, int64(math.MaxInt64 - 1023), nil},
		{"double bigint 2^63", 0x1p63, bigint, nil, sql.ErrOutsideRangeForDatatype},
		{"double bigint min", -0x1p63, bigint, int64(math.MinInt64), nil},
		{"double integer max", 2147483647.0, integer, int32(math.MaxInt32), nil},
		{"double integer max+1", 2147483648.0, integer, nil, sql.ErrOutsideRangeForDatatype},
		{"double integer min", -2147483648.0, integer, int32(math.MinInt32), nil},
		{"double integer min-1", -2147483649.0, integer, nil, sql.ErrOutsideRangeForDatatype},
		{"double smallint max", 32767.0, smallint, int16(math.MaxInt16), nil},
		{"double smallint max+1", 32768.0, smallint, nil, sql.ErrOutsideRangeForDatatype},
		{"double smallint min", -32768.0, smallint, int16(math.MinInt16), nil},
		{"double smallint min-1", -32769.0, smallint, nil, sql.ErrOutsideRangeForDatatype},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			require := require.New(t)
			res, ok, err := FoldCast(tt.val, TypeFromValue(tt.val), tt.to)
			if tt.err != nil {
				require.Error(err)
				require.True(tt.err.Is(err), "unexpected error %v", err)
				return
			}
			require.NoError(err)
			require.True(ok)
			require.Equal(tt.expected, res)
		})
	}
}

func TestConvert(t *testing.T) {
	require := require.New(t)

	v, err := Convert(int32(5), sql.VarcharType(10))
	require.NoError(err)
	require.Equal("5", v)

	v, err = Convert("12345", sql.VarcharType(3))
	require.Error(err)
	require.True(sql.ErrOutsideRangeForDatatype.Is(err))

	v, err = Convert(int64(5), sql.DecimalType(5, 2))
	require.NoError(err)
	require.True(decimal.NewFromInt(5).Equal(v.(decimal.Decimal)))

	_, err = Convert(int64(123456), sql.DecimalType(5, 2))
	require.True(sql.ErrOutsideRangeForDatatype.Is(err))

	v, err = Convert(decimal.RequireFromString("2.5"), sql.NewType(sql.Double))
	require.NoError(err)
	require.Equal(2.5, v)

	ts := time.Date(2020, 1, 2, 3, 4, 5, 0, time.UTC)
	v, err = Convert(ts, sql.NewType(sql.Date))
	require.NoError(err)
	require.Equal(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), v)

	v, err = Convert(nil, sql.NewType(sql.Integer))
	require.NoError(err)
	require.Nil(v)
}

func TestCompare(t *testing.T) {
	testCases := []struct {
		t        sql.Type
		a, b     interface{}
		expected int
	}{
		{sql.NewType(sql.Integer), int8(1), int64(2), -1},
		{sql.NewType(sql.Double), float32(2), 2.0, 0},
		{sql.DecimalType(5, 2), "1.50", decimal.RequireFromString("1.5"), 0},
		{sql.CharType(5), "ab", "ab   ", 0},
		{sql.CharType(5), "ab   ", "ab\u0000\u0000\u0000", 1},
		{sql.CharType(5), "b", "ab", 1},
		{sql.NewType(sql.Boolean), false, true, -1},
		{sql.NewType(sql.Date), "2020-01-02", time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), 1},
		{sql.NewType(sql.Bit), []byte{1}, []byte{1, 0}, -1},
	}

	for _, tt := range testCases {
		cmp, err := Compare(tt.t, tt.a, tt.b)
		require.NoError(t, err)
		require.Equal(t, tt.expected, cmp, "%v vs %v", tt.a, tt.b)
	}
}

func TestHashValue(t *testing.T) {
	require := require.New(t)

	h1, err := HashValue(sql.NewType(sql.BigInt), int8(3))
	require.NoError(err)
	h2, err := HashValue(sql.NewType(sql.BigInt), int64(3))
	require.NoError(err)
	require.Equal(h1, h2)

	h1, err = HashValue(sql.CharType(5), "ab")
	require.NoError(err)
	h2, err = HashValue(sql.CharType(5), "ab   ")
	require.NoError(err)
	require.Equal(h1, h2)

	h1, err = HashValue(sql.DecimalType(5, 2), decimal.RequireFromString("1.5"))
	require.NoError(err)
	h2, err = HashValue(sql.DecimalType(5, 2), decimal.RequireFromString("2.5"))
	require.NoError(err)
	require.NotEqual(h1, h2)
}
