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
	"testing"

	"github.com/opentracing/opentracing-go/mocktracer"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

func TestContextDefaults(t *testing.T) {
	require := require.New(t)
	ctx := NewContext(context.Background(), WithQuery("SELECT 1"))

	require.NotEmpty(ctx.ID())
	require.Equal("SELECT 1", ctx.Query())
	require.NotNil(ctx.Arena())
	require.Nil(ctx.Types())
	require.Nil(ctx.Catalog())
	require.Equal(ctx.ID(), ctx.GetLogger().Data[CompileIDLogField])
	require.Equal("SELECT 1", ctx.GetLogger().Data[QueryLogField])
	require.NoError(ctx.CheckCancelled())

	other := NewEmptyContext()
	require.NotEqual(ctx.ID(), other.ID())
}

func TestContextSpans(t *testing.T) {
	require := require.New(t)
	tracer := mocktracer.New()
	ctx := NewContext(context.Background(), WithTracer(tracer))

	parent, ctx2 := ctx.Span("parent")
	child, _ := ctx2.Span("child")
	child.Finish()
	parent.Finish()

	spans := tracer.FinishedSpans()
	require.Len(spans, 2)
	require.Equal("child", spans[0].OperationName)
	require.Equal(spans[1].SpanContext.SpanID, spans[0].ParentID)
}

func TestContextCancelled(t *testing.T) {
	require := require.New(t)
	cctx, cancel := context.WithCancel(context.Background())
	ctx := NewContext(cctx)
	cancel()

	err := ctx.CheckCancelled()
	require.Error(err)
	require.True(ErrQueryCancelled.Is(err))
}

func TestContextFork(t *testing.T) {
	require := require.New(t)
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	ctx := NewContext(context.Background(),
		WithQuery("SELECT a FROM t"),
		WithLogger(logrus.NewEntry(logger)),
	)
	ctx.Arena().Add(ResultColumn{Name: "a"})

	forked := ctx.Fork("SELECT b FROM u")
	require.NotEqual(ctx.ID(), forked.ID())
	require.Equal("SELECT b FROM u", forked.Query())
	require.Equal(0, forked.Arena().Len())

	forked.GetLogger().Debug("forked")
	entry := hook.LastEntry()
	require.NotNil(entry)
	require.Equal(forked.ID(), entry.Data[CompileIDLogField])
	require.Equal("SELECT b FROM u", entry.Data[QueryLogField])

	a := NewArena()
	using := ctx.UsingArena(a)
	require.Same(a, using.Arena())
	require.Equal(ctx.ID(), using.ID())
	require.Equal(1, ctx.Arena().Len())
}

func TestContextErrgroup(t *testing.T) {
	require := require.New(t)
	ctx := NewEmptyContext()

	eg, gctx := ctx.NewErrgroup()
	eg.Go(func() error { return ErrQueryCancelled.New() })
	eg.Go(func() error {
		<-gctx.Done()
		return gctx.CheckCancelled()
	})
	err := eg.Wait()
	require.Error(err)
	require.True(ErrQueryCancelled.Is(err))
}
