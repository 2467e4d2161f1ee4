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
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/opentracing/opentracing-go"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const (
	// CompileIDLogField is the log field carrying the id of a compilation.
	CompileIDLogField = "compileID"
	// QueryLogField is the log field carrying the statement text.
	QueryLogField = "query"
)

// Context of one statement compilation. It carries cancellation, tracing and
// logging, and the per-compilation state shared by every pass: the column
// arena, the type service and the catalog.
type Context struct {
	context.Context
	id        string
	query     string
	queryTime time.Time
	tracer    opentracing.Tracer
	rootSpan  opentracing.Span
	logger    *logrus.Entry
	arena     *Arena
	types     TypeService
	catalog   Catalog
}

// ContextOption is a function to configure the context.
type ContextOption func(*Context)

// WithTracer adds the given tracer to the context.
func WithTracer(t opentracing.Tracer) ContextOption {
	return func(ctx *Context) {
		ctx.tracer = t
	}
}

// WithQuery adds the given query to the context.
func WithQuery(q string) ContextOption {
	return func(ctx *Context) {
		ctx.query = q
	}
}

// WithRootSpan sets the root span of the context.
func WithRootSpan(s opentracing.Span) ContextOption {
	return func(ctx *Context) {
		ctx.rootSpan = s
	}
}

// WithLogger sets the logger entry the context derives its logger from.
func WithLogger(l *logrus.Entry) ContextOption {
	return func(ctx *Context) {
		ctx.logger = l
	}
}

// WithArena sets the column arena of the compilation.
func WithArena(a *Arena) ContextOption {
	return func(ctx *Context) {
		ctx.arena = a
	}
}

// WithTypeService sets the type service used during binding.
func WithTypeService(ts TypeService) ContextOption {
	return func(ctx *Context) {
		ctx.types = ts
	}
}

// WithCatalog sets the catalog used to resolve tables.
func WithCatalog(c Catalog) ContextOption {
	return func(ctx *Context) {
		ctx.catalog = c
	}
}

// NewContext creates a new compilation context. Options can be passed to
// configure the context. By default, the context has a fresh compile id, a
// noop tracer, the standard logger and an empty arena.
func NewContext(ctx context.Context, opts ...ContextOption) *Context {
	c := &Context{
		Context:   ctx,
		id:        uuid.New().String(),
		queryTime: time.Now(),
		tracer:    opentracing.NoopTracer{},
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = logrus.NewEntry(logrus.StandardLogger())
	}
	c.logger = c.logger.WithFields(logrus.Fields{
		CompileIDLogField: c.id,
		QueryLogField:     c.query,
	})

	if c.arena == nil {
		c.arena = NewArena()
	}

	return c
}

// NewEmptyContext returns a default context with default values.
func NewEmptyContext() *Context { return NewContext(context.TODO()) }

// ID returns the compile id of the context.
func (c *Context) ID() string { return c.id }

// Query returns the statement text associated with this context.
func (c *Context) Query() string { return c.query }

// QueryTime returns the time the compilation started.
func (c *Context) QueryTime() time.Time { return c.queryTime }

// Arena returns the column arena of the compilation.
func (c *Context) Arena() *Arena { return c.arena }

// Types returns the configured type service, or nil if the caller should
// use the default one.
func (c *Context) Types() TypeService { return c.types }

// Catalog returns the catalog, or nil if none was configured.
func (c *Context) Catalog() Catalog { return c.catalog }

// GetLogger returns the logger of the compilation.
func (c *Context) GetLogger() *logrus.Entry { return c.logger }

// Span creates a new tracing span with the given context.
// It will return the span and a new context that should be passed to all
// children of this span.
func (c *Context) Span(
	opName string,
	opts ...opentracing.StartSpanOption,
) (opentracing.Span, *Context) {
	parentSpan := opentracing.SpanFromContext(c.Context)
	if parentSpan != nil {
		opts = append(opts, opentracing.ChildOf(parentSpan.Context()))
	}
	span := c.tracer.StartSpan(opName, opts...)
	ctx := opentracing.ContextWithSpan(c.Context, span)

	return span, c.WithContext(ctx)
}

// WithContext returns a new context with the given underlying context.
func (c *Context) WithContext(ctx context.Context) *Context {
	nc := *c
	nc.Context = ctx
	return &nc
}

// UsingArena returns a copy of c compiling against the arena a.
func (c *Context) UsingArena(a *Arena) *Context {
	nc := *c
	nc.arena = a
	return &nc
}

// Fork returns a context for compiling another statement alongside c. It
// shares cancellation, tracing, logging, the catalog and the type service
// with c and gets its own compile id and arena.
func (c *Context) Fork(query string) *Context {
	return NewContext(c.Context,
		WithQuery(query),
		WithTracer(c.tracer),
		WithRootSpan(c.rootSpan),
		WithLogger(c.logger),
		WithTypeService(c.types),
		WithCatalog(c.catalog),
	)
}

// RootSpan returns the root span, if any.
func (c *Context) RootSpan() opentracing.Span {
	return c.rootSpan
}

// NewErrgroup returns an errgroup bound to the context and the derived
// context its goroutines must use.
func (c *Context) NewErrgroup() (*errgroup.Group, *Context) {
	eg, egCtx := errgroup.WithContext(c.Context)
	return eg, c.WithContext(egCtx)
}

// CheckCancelled returns ErrQueryCancelled if the surrounding session has
// cancelled the compilation.
func (c *Context) CheckCancelled() error {
	if err := c.Err(); err != nil {
		return ErrQueryCancelled.Wrap(err)
	}
	return nil
}
