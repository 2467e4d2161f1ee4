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

	"gopkg.in/src-d/go-errors.v1"
)

var (
	// ErrTypeIncompatible is returned when the operands of an operator have
	// types the operator cannot work with.
	ErrTypeIncompatible = errors.NewKind("the '%s' operator with a left operand type of '%s' and a right operand type of '%s' is not supported")

	// ErrFunctionIncompatible is returned when an argument of a built-in
	// function has a type the function does not accept.
	ErrFunctionIncompatible = errors.NewKind("the type %s is not compatible with function %s")

	// ErrBothOperandsUntyped is returned when both operands of a binary
	// operator are parameters and no type can be inferred for either.
	ErrBothOperandsUntyped = errors.NewKind("it is not allowed for both operands of '%s' to be ? parameters")

	// ErrUntypedParameter is returned when a ? parameter appears where no
	// type can be inferred for it.
	ErrUntypedParameter = errors.NewKind("a ? parameter is not allowed as the operand of %s")

	// ErrOutsideRangeForDatatype is returned when a value does not fit the
	// range of the data type it is converted to.
	ErrOutsideRangeForDatatype = errors.NewKind("the resulting value is outside the range for the data type %s")

	// ErrInvalidQueryExpression is returned when the query text of an XML
	// operator is not a string literal.
	ErrInvalidQueryExpression = errors.NewKind("the first operand of %s must be a string literal")

	// ErrInvalidContextItemType is returned when the context item of an XML
	// operator is not of type XML.
	ErrInvalidContextItemType = errors.NewKind("the context item of %s must be of type XML, found %s")

	// ErrAttemptToBindXmlParameter is returned when a parameter is used as the
	// context item of an XML operator.
	ErrAttemptToBindXmlParameter = errors.NewKind("a ? parameter cannot be the context item of %s")

	// ErrColumnNotFound is returned when the column does not exist in any
	// table in scope.
	ErrColumnNotFound = errors.NewKind("column %q is not in any table in the FROM list or it appears within a join specification and is outside the scope of the join specification")

	// ErrIllegalColumnReference is returned when a column reference names an
	// unknown table or is ambiguous.
	ErrIllegalColumnReference = errors.NewKind("illegal reference to column %q: %s")

	// ErrInvalidEscapeCharacter is returned when a LIKE escape clause is not
	// exactly one character.
	ErrInvalidEscapeCharacter = errors.NewKind("escape character must be a character string of length 1, found %q")

	// ErrCollationMismatch is returned when the operands of LIKE carry
	// collations that cannot be compared.
	ErrCollationMismatch = errors.NewKind("comparisons between %s and %s are not supported: collation mismatch")

	// ErrInvalidCast is returned when no conversion exists between two types.
	ErrInvalidCast = errors.NewKind("cannot convert types '%s' to '%s'")

	// ErrInvalidFormat is returned when a character string constant cannot be
	// parsed as the destination type of a cast.
	ErrInvalidFormat = errors.NewKind("invalid character string format for type %s: %q")

	// ErrUnionColumnCount is returned when the branches of a set operation
	// produce different numbers of columns.
	ErrUnionColumnCount = errors.NewKind("the operands of a set operation must have the same number of columns, found %d and %d")

	// ErrInvalidGroupByReference is returned when a select list item of a
	// grouped query references a column that is neither grouped nor
	// aggregated.
	ErrInvalidGroupByReference = errors.NewKind("column reference %q is invalid: it is neither a grouping expression nor in an aggregate")

	// ErrAggregateNotAllowed is returned for an aggregate in a clause that is
	// evaluated before grouping.
	ErrAggregateNotAllowed = errors.NewKind("aggregates are not allowed in %s")

	// ErrInsertColumnCount is returned when an INSERT source does not produce
	// one value per target column.
	ErrInsertColumnCount = errors.NewKind("the number of values assigned is not the same as the number of specified or implied columns: %d values for %d columns")

	// ErrTableNotFound is returned when the table is not available from the
	// catalog.
	ErrTableNotFound = errors.NewKind("table not found: %s")

	// ErrQueryCancelled is returned when the compilation is cancelled between
	// optimizer steps.
	ErrQueryCancelled = errors.NewKind("statement compilation cancelled")

	// ErrInvalidChildrenNumber is returned when the WithChildren method of a
	// node or expression is called with an invalid number of arguments.
	ErrInvalidChildrenNumber = errors.NewKind("%T: invalid children number, got %d, expected %d")

	// ErrInvalidChildType is returned when the WithChildren method of a
	// node or expression is called with an invalid child type. This error is indicative of a bug.
	ErrInvalidChildType = errors.NewKind("%T: invalid child type, got %T, expected %T")

	// ErrSanity is the panic value of a failed internal consistency check. It
	// is never returned as an error.
	ErrSanity = errors.NewKind("internal consistency failure: %s")
)

// Assert panics with ErrSanity when cond does not hold. Assertions guard
// internal invariants only; user facing conditions are returned as errors.
func Assert(cond bool, format string, args ...interface{}) {
	if !cond {
		panic(ErrSanity.New(fmt.Sprintf(format, args...)))
	}
}
