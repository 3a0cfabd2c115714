package revocation

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/redis/go-redis/v9"
)

var (
	isRevokedDurationMs = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "heirloom_is_session_revoked_duration_ms",
		Help:    "Latency of session revocation checks in milliseconds",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 25},
	})
)

// Redis key prefix for revoked session JTIs.
const revokedKeyPrefix = "revoked:jti:"

// Redis is the production denylist for deployments where multiple instances
// must share revocation state.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

// Revoke adds a JTI to the denylist with TTL. Uses SET-with-expiry so the
// entry disappears exactly when the token would have expired anyway.
func (r *Redis) Revoke(ctx context.Context, jti string, ttl time.Duration) error {
	if jti == "" {
		return nil
	}
	if err := validateTTL(ttl); err != nil {
		return err
	}
	// Store "1" as a simple marker; the key existence is what matters.
	return r.client.Set(ctx, revokedKeyPrefix+jti, "1", ttl).Err()
}

// IsRevoked checks if a JTI is denylisted. A missing key means not revoked
// (or already expired).
func (r *Redis) IsRevoked(ctx context.Context, jti string) (bool, error) {
	start := time.Now()
	defer func() {
		isRevokedDurationMs.Observe(float64(time.Since(start).Microseconds()) / 1000.0)
	}()

	if jti == "" {
		return false, nil
	}
	_, err := r.client.Get(ctx, revokedKeyPrefix+jti).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
