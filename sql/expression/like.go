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

package expression

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"gopkg.in/src-d/go-errors.v1"

	"github.com/dolthub/go-query-compiler/sql"
)

// MaxLikeRangeWidth is the largest declared column width for which a LIKE
// predicate is turned into a range.
var MaxLikeRangeWidth = 1024

const maxChar = '\uffff'

// ErrInvalidEscapeSequence is returned when a LIKE pattern ends with the
// escape character or escapes a character that is not a wildcard.
var ErrInvalidEscapeSequence = errors.NewKind("invalid escape sequence in LIKE pattern %q")

// LikeEscape is the LIKE predicate with an optional ESCAPE clause. Left is
// the receiver matched against Pattern.
type LikeEscape struct {
	Left    sql.Expression
	Pattern sql.Expression
	Escape  sql.Expression
	// Transformed is set once the predicate has been rewritten into a
	// range.
	Transformed bool
	typ         sql.Type
}

var _ sql.Expression = (*LikeEscape)(nil)

// NewLike creates a new LIKE expression. escape may be nil.
func NewLike(left, pattern, escape sql.Expression) *LikeEscape {
	return &LikeEscape{Left: left, Pattern: pattern, Escape: escape}
}

// Resolved implements the Expression interface.
func (l *LikeEscape) Resolved() bool {
	for _, c := range l.Children() {
		if !c.Resolved() {
			return false
		}
	}
	return !l.typ.IsUnknown()
}

// Type implements the Expression interface.
func (l *LikeEscape) Type() sql.Type {
	return booleanType(l.IsNullable())
}

// IsNullable implements the Expression interface.
func (l *LikeEscape) IsNullable() bool {
	for _, c := range l.Children() {
		if c.IsNullable() {
			return true
		}
	}
	return false
}

// Children implements the Expression interface.
func (l *LikeEscape) Children() []sql.Expression {
	if l.Escape == nil {
		return []sql.Expression{l.Left, l.Pattern}
	}
	return []sql.Expression{l.Left, l.Pattern, l.Escape}
}

// WithChildren implements the Expression interface.
func (l *LikeEscape) WithChildren(children ...sql.Expression) (sql.Expression, error) {
	n := len(l.Children())
	if len(children) != n {
		return nil, sql.ErrInvalidChildrenNumber.New(l, len(children), n)
	}
	nl := *l
	nl.Left, nl.Pattern = children[0], children[1]
	if n == 3 {
		nl.Escape = children[2]
	}
	return &nl, nil
}

func (l *LikeEscape) String() string {
	if l.Escape == nil {
		return fmt.Sprintf("%s LIKE %s", l.Left, l.Pattern)
	}
	return fmt.Sprintf("%s LIKE %s ESCAPE %s", l.Left, l.Pattern, l.Escape)
}

// likePattern is a constant pattern split at its first wildcard.
type likePattern struct {
	// prefix is the unescaped literal text before the first wildcard.
	prefix string
	// wildcard is set if the pattern has any unescaped wildcard.
	wildcard bool
	// trailingPercent is set if the only wildcard is a final %.
	trailingPercent bool
}

// parseLikePattern splits pattern at its first unescaped wildcard. escape is
// zero when the predicate has no ESCAPE clause.
func parseLikePattern(pattern string, escape rune) (likePattern, error) {
	var lp likePattern
	var buf strings.Builder
	runes := []rune(pattern)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case escape != 0 && r == escape:
			i++
			if i == len(runes) {
				return lp, ErrInvalidEscapeSequence.New(pattern)
			}
			if n := runes[i]; n != '_' && n != '%' && n != escape {
				return lp, ErrInvalidEscapeSequence.New(pattern)
			}
			buf.WriteRune(runes[i])
		case r == '_' || r == '%':
			lp.prefix = buf.String()
			lp.wildcard = true
			lp.trailingPercent = r == '%' && i == len(runes)-1
			return lp, nil
		default:
			buf.WriteRune(r)
		}
	}
	lp.prefix = buf.String()
	return lp, nil
}

// greaterEqualString returns the lower bound of the strings starting with
// prefix, padded with U+0000 to width when the width is known.
func greaterEqualString(prefix string, width int) string {
	return padLow([]rune(prefix), width)
}

// lessThanString returns the least string greater than every string
// starting with prefix. A final U+FFFF cannot be incremented, so it is
// dropped and the character before it incremented instead. ok is false if
// no upper bound exists.
func lessThanString(prefix string, width int) (string, bool) {
	r := []rune(prefix)
	for len(r) > 0 && r[len(r)-1] >= maxChar {
		r = r[:len(r)-1]
	}
	if len(r) == 0 {
		return "", false
	}
	r[len(r)-1]++
	return padLow(r, width), true
}

func padLow(r []rune, width int) string {
	for len(r) < width {
		r = append(r, 0)
	}
	return string(r)
}

// likeRegex translates a LIKE pattern into an anchored regular expression.
func likeRegex(pattern string, escape rune) (*regexp.Regexp, error) {
	var buf bytes.Buffer
	buf.WriteString("(?s)^")
	var escaped bool
	for _, r := range pattern {
		switch {
		case escaped:
			buf.WriteString(regexp.QuoteMeta(string(r)))
			escaped = false
		case escape != 0 && r == escape:
			escaped = true
		case r == '_':
			buf.WriteRune('.')
		case r == '%':
			buf.WriteString(".*")
		default:
			buf.WriteString(regexp.QuoteMeta(string(r)))
		}
	}
	if escaped {
		return nil, ErrInvalidEscapeSequence.New(pattern)
	}
	buf.WriteRune('$')
	return regexp.Compile(buf.String())
}

// escapeRune returns the single character of a constant escape clause.
func escapeRune(e sql.Expression) (rune, bool, error) {
	if e == nil {
		return 0, true, nil
	}
	s, ok := constantString(e)
	if !ok {
		return 0, false, nil
	}
	r := []rune(s)
	if len(r) != 1 {
		return 0, false, sql.ErrInvalidEscapeCharacter.New(s)
	}
	return r[0], true, nil
}
