package redis

import (
	"context"
	"flag"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/staffparty/partyhub/common/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
)

var testAddr string

func TestMain(m *testing.M) {
	flag.Parse()
	if testing.Short() {
		os.Exit(m.Run())
	}

	ctx := context.Background()
	container, err := tcredis.Run(ctx, "redis:7-alpine")
	if err != nil {
		fmt.Fprintf(os.Stderr, "skipping redis integration tests: %v\n", err)
		os.Exit(m.Run())
	}

	endpoint, err := container.Endpoint(ctx, "")
	if err != nil {
		_ = container.Terminate(ctx)
		fmt.Fprintf(os.Stderr, "failed to resolve redis endpoint: %v\n", err)
		os.Exit(1)
	}
	testAddr = endpoint

	code := m.Run()
	_ = container.Terminate(ctx)
	os.Exit(code)
}

func newTestClient(t *testing.T) *Client {
	t.Helper()
	if testAddr == "" {
		t.Skip("redis container not available")
	}

	c, err := New(context.Background(), Options{Addr: testAddr}, logger.Discard())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = c.GetUnderlying().FlushDB(context.Background()).Err()
		_ = c.Close()
	})
	return c
}

func TestClientRoundTrip(t *testing.T) {
	c := newTestClient(t)
	ctx := context.Background()

	require.NoError(t, c.SetWithExpiry(ctx, "session:abc", "42", time.Minute))

	got, err := c.Get(ctx, "session:abc")
	require.NoError(t, err)
	assert.Equal(t, "42", got)

	require.NoError(t, c.Delete(ctx, "session:abc"))
	_, err = c.Get(ctx, "session:abc")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestNewFailsOnUnreachableServer(t *testing.T) {
	if testing.Short() {
		t.Skip("dials the network")
	}
	_, err := New(context.Background(), Options{Addr: "127.0.0.1:1"}, logger.Discard())
	assert.Error(t, err)
}
