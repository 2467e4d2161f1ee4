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
	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/transform"
)

// RuleFunc is the function to be applied in a rule.
type RuleFunc func(*sql.Context, *Analyzer, sql.Node) (sql.Node, transform.TreeIdentity, error)

// Rule to transform nodes.
type Rule struct {
	// Id identifies the rule.
	Id RuleId
	// Apply transforms a node.
	Apply RuleFunc
}

// Batch executes a set of rules a specific number of times.
// When this number of times is reached, the actual node
// and ErrMaxAnalysisIters is returned.
type Batch struct {
	Desc       string
	Iterations int
	Rules      []Rule
}

// Eval executes the actual rules the specified number of times on the Batch.
// If max number of iterations is reached, this method will return the actual
// processed Node and ErrMaxAnalysisIters error.
func (b *Batch) Eval(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, error) {
	if b.Iterations == 0 || len(b.Rules) == 0 {
		return n, nil
	}

	span, ctx := ctx.Span(b.Desc)
	defer span.Finish()

	cur, same, err := b.evalOnce(ctx, a, n)
	if err != nil {
		return nil, err
	}

	if b.Iterations == 1 {
		return cur, nil
	}

	for i := 1; !same; {
		cur, same, err = b.evalOnce(ctx, a, cur)
		if err != nil {
			return nil, err
		}

		i++
		if i >= b.Iterations && !same {
			return cur, ErrMaxAnalysisIters.New(b.Iterations)
		}
	}

	return cur, nil
}

func (b *Batch) evalOnce(ctx *sql.Context, a *Analyzer, n sql.Node) (sql.Node, transform.TreeIdentity, error) {
	result := n
	allSame := transform.SameTree
	for _, rule := range b.Rules {
		if err := ctx.CheckCancelled(); err != nil {
			return nil, transform.SameTree, err
		}

		a.PushDebugContext(rule.Id.String())
		span, rctx := ctx.Span(rule.Id.String())
		next, same, err := rule.Apply(rctx, a, result)
		span.Finish()
		if err != nil {
			a.PopDebugContext()
			return nil, transform.SameTree, err
		}
		if !same {
			a.Log(ctx, "rule changed the tree")
			a.LogNode(next)
			rewrites.WithLabelValues(rule.Id.String()).Inc()
			result = next
		}
		allSame = allSame && same
		a.PopDebugContext()
	}

	return result, allSame, nil
}
