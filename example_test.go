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

package sqlc_test

import (
	"context"
	"fmt"
	"strings"

	sqlc "github.com/dolthub/go-query-compiler"
	"github.com/dolthub/go-query-compiler/memory"
	"github.com/dolthub/go-query-compiler/sql/expression"
	"github.com/dolthub/go-query-compiler/sql/plan"
)

const exampleCatalog = `
tables:
  - name: people
    rows: 100
    columns:
      - {name: id, type: INTEGER, nullable: false}
      - {name: code, type: CHAR(5)}
`

func Example() {
	catalog, err := memory.LoadCatalog(strings.NewReader(exampleCatalog))
	checkIfError(err)
	e := sqlc.NewDefault(catalog)

	const query = "SELECT * FROM people WHERE code LIKE 'ab%'"
	stmt := plan.NewRestrict(
		expression.NewLike(
			expression.NewColumnReference("people", "code"),
			expression.NewConstant("ab%"),
			nil,
		),
		plan.NewUnresolvedTable("people", ""),
	)

	c, err := e.Compile(e.NewContext(context.Background(), query), stmt)
	checkIfError(err)
	fmt.Println(c.Cached, c.Program.Invocations())

	c, err = e.Compile(e.NewContext(context.Background(), query), stmt)
	checkIfError(err)
	fmt.Println(c.Cached)

	// Output: false [greaterOrEquals lessThan]
	// true
}

func checkIfError(err error) {
	if err != nil {
		panic(err)
	}
}
