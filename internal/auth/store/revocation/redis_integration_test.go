//go:build integration

package revocation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"heirloom/pkg/testutil/containers"
)

func TestRedisList(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	list := NewRedis(rc.Client)
	ctx := context.Background()

	t.Run("revoked jti is reported until expiry", func(t *testing.T) {
		require.NoError(t, list.Revoke(ctx, "jti-1", time.Minute))

		revoked, err := list.IsRevoked(ctx, "jti-1")
		require.NoError(t, err)
		require.True(t, revoked)
	})

	t.Run("unknown jti is not revoked", func(t *testing.T) {
		revoked, err := list.IsRevoked(ctx, "jti-unknown")
		require.NoError(t, err)
		require.False(t, revoked)
	})

	t.Run("entry expires with the token", func(t *testing.T) {
		require.NoError(t, list.Revoke(ctx, "jti-short", 100*time.Millisecond))
		time.Sleep(200 * time.Millisecond)

		revoked, err := list.IsRevoked(ctx, "jti-short")
		require.NoError(t, err)
		require.False(t, revoked)
	})

	t.Run("non-positive ttl is rejected", func(t *testing.T) {
		require.Error(t, list.Revoke(ctx, "jti-bad", 0))
	})
}
