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

package sqlc

import (
	"context"
	"time"

	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"

	"github.com/dolthub/go-query-compiler/sql"
	"github.com/dolthub/go-query-compiler/sql/analyzer"
	"github.com/dolthub/go-query-compiler/sql/codegen"
)

// Compiled is the result of compiling one statement: the optimized tree and
// the program emitted from it. Arena owns the result columns the tree
// refers to. A Compiled may be shared through the plan cache and must not
// be modified.
type Compiled struct {
	// ID is the compile id of the compilation that produced the result.
	ID string
	// Query is the statement text, if the compilation had one.
	Query   string
	Node    sql.Node
	Program *codegen.Program
	Arena   *sql.Arena
	// Cached is set when the result came from the plan cache.
	Cached bool
}

// Statement is one entry of a CompileAll call.
type Statement struct {
	Query string
	Node  sql.Node
}

// Engine compiles statements: it binds, normalizes and optimizes their
// trees with its Analyzer and emits the program of the result.
type Engine struct {
	Analyzer *analyzer.Analyzer
	Catalog  sql.Catalog
	Config   Config
	logger   *logrus.Logger
	cache    *sql.PlanCache
}

// New creates a new Engine compiling against the given catalog.
func New(catalog sql.Catalog, cfg Config) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger, err := newLogger(cfg)
	if err != nil {
		return nil, err
	}
	cfg.applyGlobals()

	ab := analyzer.NewBuilder().
		WithMaxIterations(cfg.MaxAnalysisIterations).
		WithMaxPermutedTables(cfg.MaxPermutedTables)
	if cfg.Debug {
		ab = ab.WithDebug()
	}
	if cfg.Verbose {
		ab = ab.WithVerbose()
	}

	return &Engine{
		Analyzer: ab.Build(),
		Catalog:  catalog,
		Config:   cfg,
		logger:   logger,
		cache:    sql.NewPlanCache(cfg.PlanCacheSize),
	}, nil
}

// NewDefault creates an Engine with the default configuration.
func NewDefault(catalog sql.Catalog) *Engine {
	e, err := New(catalog, DefaultConfig())
	if err != nil {
		panic(err)
	}
	return e
}

// Logger returns the logger of the engine.
func (e *Engine) Logger() *logrus.Logger { return e.logger }

// PlanCache returns the plan cache of the engine.
func (e *Engine) PlanCache() *sql.PlanCache { return e.cache }

// NewContext creates a context for compiling query with this engine: it
// carries the engine catalog and logger.
func (e *Engine) NewContext(ctx context.Context, query string, opts ...sql.ContextOption) *sql.Context {
	base := []sql.ContextOption{
		sql.WithQuery(query),
		sql.WithCatalog(e.Catalog),
		sql.WithLogger(logrus.NewEntry(e.logger)),
	}
	return sql.NewContext(ctx, append(base, opts...)...)
}

// Compile compiles the statement n. When the context carries the statement
// text the result is cached under it, and later compilations of the same
// text return the cached result.
func (e *Engine) Compile(ctx *sql.Context, n sql.Node) (*Compiled, error) {
	span, ctx := ctx.Span("sqlc.Compile", opentracing.Tags{"query": ctx.Query()})
	defer span.Finish()

	cacheable := ctx.Query() != ""
	key := sql.CacheKey(ctx.Query())
	if cacheable {
		if v, err := e.cache.Get(key); err == nil {
			planCacheHits.Inc()
			span.SetTag("cached", true)
			ctx.GetLogger().Debug("plan cache hit")
			c := *v.(*Compiled)
			c.Cached = true
			return &c, nil
		}
		planCacheMisses.Inc()
		ctx.GetLogger().Debug("plan cache miss")
	}

	start := time.Now()
	analyzed, err := e.Analyzer.Fork().Analyze(ctx, n)
	if err != nil {
		ctx.GetLogger().WithError(err).Debug("analysis failed")
		return nil, err
	}
	compileSeconds.WithLabelValues("analyze").Observe(time.Since(start).Seconds())

	c, err := e.emit(ctx, analyzed)
	if err != nil {
		return nil, err
	}

	if cacheable && e.cache.Put(key, c) {
		ctx.GetLogger().Debug("plan cache full, evicted least recently used plan")
	}
	return c, nil
}

// Reoptimize chooses the join orders and access paths of a compiled
// statement again and emits a new program for it. c is not modified; the
// result has its own copy of the arena of c.
func (e *Engine) Reoptimize(ctx *sql.Context, c *Compiled) (*Compiled, error) {
	span, ctx := ctx.Span("sqlc.Reoptimize")
	defer span.Finish()

	ctx = ctx.UsingArena(c.Arena.Clone())
	start := time.Now()
	n, err := e.Analyzer.Fork().Reoptimize(ctx, c.Node)
	if err != nil {
		return nil, err
	}
	compileSeconds.WithLabelValues("reoptimize").Observe(time.Since(start).Seconds())

	res, err := e.emit(ctx, n)
	if err != nil {
		return nil, err
	}
	res.Query = c.Query
	return res, nil
}

// CompileAll compiles the statements concurrently, each one with its own
// context forked from ctx. It stops at the first error. The results are in
// the order of stmts.
func (e *Engine) CompileAll(ctx *sql.Context, stmts []Statement) ([]*Compiled, error) {
	span, ctx := ctx.Span("sqlc.CompileAll", opentracing.Tags{"statements": len(stmts)})
	defer span.Finish()

	eg, gctx := ctx.NewErrgroup()
	if e.Config.CompileParallelism > 0 {
		eg.SetLimit(e.Config.CompileParallelism)
	}

	out := make([]*Compiled, len(stmts))
	for i, s := range stmts {
		i, s := i, s
		eg.Go(func() error {
			sctx := gctx.Fork(s.Query)
			if err := sctx.CheckCancelled(); err != nil {
				return err
			}
			c, err := e.Compile(sctx, s.Node)
			if err != nil {
				return err
			}
			out[i] = c
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

func (e *Engine) emit(ctx *sql.Context, n sql.Node) (*Compiled, error) {
	start := time.Now()
	p, err := analyzer.Emit(ctx, n)
	if err != nil {
		ctx.GetLogger().WithError(err).Debug("emission failed")
		return nil, err
	}
	compileSeconds.WithLabelValues("emit").Observe(time.Since(start).Seconds())

	return &Compiled{
		ID:      ctx.ID(),
		Query:   ctx.Query(),
		Node:    n,
		Program: p,
		Arena:   ctx.Arena(),
	}, nil
}
