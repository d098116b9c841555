package server_test

import (
	"context"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/eventhttp/core/server"
)

func TestServer_Run(t *testing.T) {
	t.Parallel()

	srv := server.New("127.0.0.1:0", server.WithShutdownTimeout(time.Second))
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("pong"))
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, handler)() }()

	require.Eventually(t, func() bool {
		return srv.Addr() != "127.0.0.1:0"
	}, time.Second, 5*time.Millisecond)

	resp, err := http.Get("http://" + srv.Addr() + "/ping")
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	assert.Equal(t, "pong", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}

func TestServer_StartTwice(t *testing.T) {
	t.Parallel()

	srv := server.New("127.0.0.1:0")
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = srv.Start(ctx, http.NotFoundHandler()) }()
	require.Eventually(t, func() bool {
		return srv.Addr() != "127.0.0.1:0"
	}, time.Second, 5*time.Millisecond)

	assert.ErrorIs(t, srv.Start(ctx, http.NotFoundHandler()), server.ErrServerAlreadyRunning)
	assert.NoError(t, srv.Stop())
	assert.NoError(t, srv.Stop())
}

func TestServer_ListenError(t *testing.T) {
	t.Parallel()

	err := server.New("256.0.0.1:bad").Start(context.Background(), http.NotFoundHandler())
	assert.ErrorIs(t, err, server.ErrListen)
}

func TestNewFromConfig(t *testing.T) {
	t.Parallel()

	_, err := server.NewFromConfig(server.Config{})
	assert.ErrorIs(t, err, server.ErrMissingAddress)

	srv, err := server.NewFromConfig(server.Config{Addr: ":9000", ReadTimeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, ":9000", srv.Addr())

	_, err = server.NewFromConfig(server.Config{Addr: ":9000", TLSCertFile: "missing.pem", TLSKeyFile: "missing.key"})
	assert.ErrorIs(t, err, server.ErrFailedLoadCert)
}
