package main

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/omochice/chatview/internal/config"
	"github.com/stretchr/testify/assert"
	"go.uber.org/goleak"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestServe_StopsOnCancel(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, config.Config{ListenAddr: "127.0.0.1:0", QueueSize: 4}, zap.New(core))
	}()

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("WebSocket server started").Len() == 1
	}, time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
	assert.Equal(t, 1, logs.FilterMessage("Server stopped").Len())
}

func TestServe_ListenError(t *testing.T) {
	err := serve(context.Background(), config.Config{ListenAddr: "256.0.0.1:0", QueueSize: 4}, zap.NewNop())
	assert.Error(t, err)
}

func TestRootCmd_RejectsBadQueueSize(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"--queue-size", "0"})
	cmd.SetOut(io.Discard)
	cmd.SetErr(io.Discard)

	assert.ErrorContains(t, cmd.Execute(), "queue_size must be positive")
}

func TestServe_TCPListener(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- serve(ctx, config.Config{ListenAddr: "127.0.0.1:0", TCPAddr: "127.0.0.1:0", QueueSize: 4}, zap.New(core))
	}()

	assert.Eventually(t, func() bool {
		return logs.FilterMessage("WebSocket server started").Len() == 1 &&
			logs.FilterMessage("TCP server started").Len() == 1
	}, time.Second, 10*time.Millisecond)

	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("serve did not return after cancel")
	}
}
