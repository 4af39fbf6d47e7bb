package api

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/canslim/pkg/config"
	"github.com/wonny/canslim/pkg/logger"
)

func TestServerRunStopsOnCancel(t *testing.T) {
	s := New(&config.Config{Port: "0"}, logger.Nop(), http.NotFoundHandler())
	assert.Equal(t, ":0", s.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not stop after cancel")
	}
}

func TestServerRunReportsListenError(t *testing.T) {
	s := New(&config.Config{Port: "-1"}, logger.Nop(), http.NotFoundHandler())

	err := s.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "listen")
}
