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

package analyzer

import (
	"fmt"
	"strings"

	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/codegen"
	"github.com/dolthub/go-query-compiler/sql/expression"
	"github.com/dolthub/go-query-compiler/sql/transform"
)

// Emit generates the code of every expression of an analyzed tree. The
// expressions of each node are preceded by a label op named after the
// node, in pre-order. The statements cascading the changes of a data
// modification statement follow it.
func Emit(ctx *sql.Context, n sql.Node) (*codegen.Program, error) {
	span, ctx := ctx.Span("analyzer.Emit")
	defer span.Finish()

	p := codegen.NewProgram()
	if err := emitNode(ctx, p, n); err != nil {
		return nil, err
	}
	return p, nil
}

func emitNode(ctx *sql.Context, p *codegen.Program, n sql.Node) error {
	var err error
	var dependents []sql.Node
	transform.Inspect(n, func(n sql.Node) bool {
		if c := closureOf(n); c != nil {
			dependents = append(dependents, c.Dependents...)
		}
		ne, ok := n.(sql.Expressioner)
		if !ok || len(ne.Expressions()) == 0 {
			return true
		}
		p.Append(codegen.Op{Code: codegen.OpLabel, Arg: p.NewLabel(), Name: nodeKind(n)})
		for _, e := range ne.Expressions() {
			if err = expression.Emit(ctx, p, e); err != nil {
				return false
			}
		}
		return true
	})
	if err != nil {
		return err
	}

	for _, d := range dependents {
		if err := emitNode(ctx, p, d); err != nil {
			return err
		}
	}
	return nil
}

func nodeKind(n sql.Node) string {
	name := fmt.Sprintf("%T", n)
	return name[strings.LastIndex(name, ".")+1:]
}
