//go:build integration

package redis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	platformredis "certgen/internal/platform/redis"
	"certgen/pkg/testutil/containers"
)

func TestClientHealth(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	rc := containers.GetManager().GetRedis(t)

	client, err := platformredis.New(context.Background(), rc.Config())
	require.NoError(t, err)
	require.NotNil(t, client)
	t.Cleanup(func() { _ = client.Close() })

	require.NoError(t, client.Health(context.Background()))
	require.NoError(t, client.Close())
	require.Error(t, client.Health(context.Background()))
}
