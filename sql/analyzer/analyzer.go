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
	"os"
	"strings"

	"github.com/opentracing/opentracing-go"
	"gopkg.in/src-d/go-errors.v1"

	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/optimizer"
	"github.com/dolthub/go-query-compiler/sql/plan"
)

const debugAnalyzerKey = "DEBUG_ANALYZER"

// DefaultMaxAnalysisIterations bounds the passes of a batch run to a fixed
// point.
const DefaultMaxAnalysisIterations = 8

// ErrMaxAnalysisIters is thrown when the analysis iterations are exceeded
var ErrMaxAnalysisIters = errors.NewKind("exceeded max analysis iterations (%d)")

// Batch names.
const (
	bindBatch         = "bind"
	preprocessBatch   = "preprocess"
	outerJoinBatch    = "outer joins"
	reorderBatch      = "reorder outer joins"
	preOptimizeBatch  = "pre-optimize"
	unionBatch        = "unions"
	pushdownBatch     = "pushdown"
	optimizeBatch     = "optimize"
	postOptimizeBatch = "post-optimize"
	afterAllBatch     = "after-all"
)

// Builder provides an easy way to generate Analyzer with custom rules and options.
type Builder struct {
	preOptimizeRules  []Rule
	postOptimizeRules []Rule
	debug             bool
	verbose           bool
	maxIterations     int
	maxPermuted       int
}

// NewBuilder creates a new Builder.
func NewBuilder() *Builder {
	return &Builder{
		maxIterations: DefaultMaxAnalysisIterations,
		maxPermuted:   optimizer.DefaultMaxPermutedTables,
	}
}

// WithDebug activates debug on the Analyzer.
func (ab *Builder) WithDebug() *Builder {
	ab.debug = true
	return ab
}

// WithVerbose makes the analyzer print the tree after every rule that
// changed it.
func (ab *Builder) WithVerbose() *Builder {
	ab.verbose = true
	return ab
}

// WithMaxIterations sets the number of passes after which a batch run to a
// fixed point gives up.
func (ab *Builder) WithMaxIterations(n int) *Builder {
	if n > 0 {
		ab.maxIterations = n
	}
	return ab
}

// WithMaxPermutedTables sets the largest join whose orders are all costed.
func (ab *Builder) WithMaxPermutedTables(n int) *Builder {
	if n > 0 {
		ab.maxPermuted = n
	}
	return ab
}

// AddPreOptimizeRule adds a rule that runs on the bound and normalized tree
// before filters are pushed down and joins are ordered.
func (ab *Builder) AddPreOptimizeRule(id RuleId, fn RuleFunc) *Builder {
	ab.preOptimizeRules = append(ab.preOptimizeRules, Rule{id, fn})
	return ab
}

// AddPostOptimizeRule adds a rule that runs on the optimized tree, after
// the column offsets are fixed.
func (ab *Builder) AddPostOptimizeRule(id RuleId, fn RuleFunc) *Builder {
	ab.postOptimizeRules = append(ab.postOptimizeRules, Rule{id, fn})
	return ab
}

// Build creates a new Analyzer using all previous data set to the Builder
func (ab *Builder) Build() *Analyzer {
	_, debug := os.LookupEnv(debugAnalyzerKey)
	var batches = []*Batch{
		{
			Desc:       bindBatch,
			Iterations: 1,
			Rules:      BindRules,
		},
		{
			Desc:       preprocessBatch,
			Iterations: 1,
			Rules:      PreprocessRules,
		},
		{
			Desc:       outerJoinBatch,
			Iterations: 1,
			Rules:      OuterJoinRules,
		},
		{
			Desc:       reorderBatch,
			Iterations: ab.maxIterations,
			Rules:      ReorderRules,
		},
		{
			Desc:       unionBatch,
			Iterations: 1,
			Rules:      UnionRules,
		},
		{
			Desc:       preOptimizeBatch,
			Iterations: 1,
			Rules:      ab.preOptimizeRules,
		},
		{
			Desc:       pushdownBatch,
			Iterations: ab.maxIterations,
			Rules:      PushdownRules,
		},
		{
			Desc:       optimizeBatch,
			Iterations: 1,
			Rules:      OptimizeRules,
		},
		{
			Desc:       postOptimizeBatch,
			Iterations: 1,
			Rules:      PostOptimizeRules,
		},
		{
			Desc:       afterAllBatch,
			Iterations: 1,
			Rules:      ab.postOptimizeRules,
		},
	}

	return &Analyzer{
		Debug:     debug || ab.debug,
		Verbose:   ab.verbose,
		debugCtx:  make([]string, 0),
		Batches:   batches,
		Optimizer: optimizer.New(ab.maxPermuted),
	}
}

// Analyzer binds, normalizes and optimizes query trees by applying batches
// of rules to them.
type Analyzer struct {
	// Whether to log various debugging messages
	Debug bool
	// Whether to output the query plan at each step of the analyzer
	Verbose  bool
	debugCtx []string
	// Batches of Rules to apply.
	Batches []*Batch
	// Optimizer orders the joins of the tree.
	Optimizer *optimizer.Optimizer
}

// NewDefault creates a default Analyzer instance with all default Rules and configuration.
// To add custom rules, the easiest way is use the Builder.
func NewDefault() *Analyzer {
	return NewBuilder().Build()
}

// Fork returns an analyzer sharing the rules and settings of a but with its
// own debug context stack, so that it can run alongside a.
func (a *Analyzer) Fork() *Analyzer {
	f := *a
	f.debugCtx = nil
	return &f
}

// Log prints a DEBUG message with the given message and args if the
// analyzer is in debug mode.
func (a *Analyzer) Log(ctx *sql.Context, msg string, args ...interface{}) {
	if a == nil || !a.Debug {
		return
	}
	entry := ctx.GetLogger()
	if len(a.debugCtx) > 0 {
		entry = entry.WithField("rule", strings.Join(a.debugCtx, "/"))
	}
	entry.Debugf(msg, args...)
}

// LogNode prints the node given if Verbose logging is enabled.
func (a *Analyzer) LogNode(n sql.Node) {
	if a != nil && n != nil && a.Verbose {
		if len(a.debugCtx) > 0 {
			ctx := strings.Join(a.debugCtx, "/")
			fmt.Printf("%s:\n%s", ctx, n.String())
		} else {
			fmt.Printf("%s", n.String())
		}
	}
}

// PushDebugContext pushes the given context string onto the context stack, to use when logging debug messages.
func (a *Analyzer) PushDebugContext(msg string) {
	if a != nil {
		a.debugCtx = append(a.debugCtx, msg)
	}
}

// PopDebugContext pops a context message off the context stack.
func (a *Analyzer) PopDebugContext() {
	if a != nil && len(a.debugCtx) > 0 {
		a.debugCtx = a.debugCtx[:len(a.debugCtx)-1]
	}
}

// Analyze binds the node and all its children, normalizes the bound tree
// and chooses its join orders and access paths.
func (a *Analyzer) Analyze(ctx *sql.Context, n sql.Node) (sql.Node, error) {
	return a.analyzeFrom(ctx, n, bindBatch)
}

// Reoptimize chooses the join orders and access paths of an analyzed tree
// again. The tree is copied first and is not modified; IN lists reverted
// to plain lists by the previous optimization get their probe predicates
// back.
func (a *Analyzer) Reoptimize(ctx *sql.Context, n sql.Node) (sql.Node, error) {
	copied, err := plan.CopyTree(n)
	if err != nil {
		return nil, err
	}
	return a.analyzeFrom(ctx, copied, optimizeBatch)
}

func (a *Analyzer) analyzeFrom(ctx *sql.Context, n sql.Node, first string) (sql.Node, error) {
	span, ctx := ctx.Span("analyze", opentracing.Tags{
		"from": first,
	})

	prev := n
	var err error
	started := false
	a.Log(ctx, "starting analysis of node of type: %T", n)
	for _, batch := range a.Batches {
		if !started && batch.Desc != first {
			continue
		}
		started = true

		a.PushDebugContext(batch.Desc)
		prev, err = batch.Eval(ctx, a, prev)
		a.PopDebugContext()
		if ErrMaxAnalysisIters.Is(err) {
			a.Log(ctx, err.Error())
			continue
		}
		if err != nil {
			span.Finish()
			return nil, err
		}
	}

	defer func() {
		if prev != nil {
			span.SetTag("IsResolved", prev.Resolved())
		}
		span.Finish()
	}()

	return prev, nil
}
