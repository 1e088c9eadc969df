package adapter

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/openiap/openiap-go/errcode"
)

func TestConn_Lifecycle(t *testing.T) {
	var c Conn
	require.Equal(t, StateDisconnected, c.State())

	var pe *errcode.PurchaseError
	require.True(t, errors.As(c.Require(), &pe))
	require.Equal(t, errcode.NotPrepared, pe.Code)

	started := make(chan struct{})
	require.NoError(t, c.Begin(func(ctx context.Context) {
		close(started)
		<-ctx.Done()
	}))
	<-started

	require.Equal(t, StateConnected, c.State())
	require.NoError(t, c.Require())

	require.NoError(t, c.End())
	require.Equal(t, StateDisconnected, c.State())
	require.NoError(t, c.End()) // idempotent
}

func TestConn_BeginIdempotent(t *testing.T) {
	var c Conn
	var listeners atomic.Int32

	listen := func(ctx context.Context) {
		listeners.Add(1)
		<-ctx.Done()
	}

	require.NoError(t, c.Begin(listen))
	require.NoError(t, c.Begin(listen))
	require.NoError(t, c.Begin(listen))

	time.Sleep(20 * time.Millisecond)
	require.Equal(t, int32(1), listeners.Load(), "exactly one listener task")

	require.NoError(t, c.End())
}

func TestConn_EndWaitsForListener(t *testing.T) {
	var c Conn
	var exited atomic.Bool

	require.NoError(t, c.Begin(func(ctx context.Context) {
		<-ctx.Done()
		time.Sleep(10 * time.Millisecond)
		exited.Store(true)
	}))

	require.NoError(t, c.End())
	require.True(t, exited.Load(), "End returns only after the listener exits")
}

func TestConn_Reconnect(t *testing.T) {
	var c Conn
	var listeners atomic.Int32

	listen := func(ctx context.Context) {
		listeners.Add(1)
		<-ctx.Done()
	}

	require.NoError(t, c.Begin(listen))
	require.NoError(t, c.End())
	require.NoError(t, c.Begin(listen))
	require.NoError(t, c.End())

	require.Equal(t, int32(2), listeners.Load())
}
