package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RevocationList records revoked token ids under "revoked:<id>" so every
// instance sees a logout. Entries expire when the token would have.
type RevocationList struct {
	client redis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewRevocationList creates a revocation list whose keys start with prefix.
func NewRevocationList(client redis.UniversalClient, prefix string) *RevocationList {
	if prefix == "" {
		prefix = "revoked:"
	}
	return &RevocationList{client: client, prefix: prefix, now: time.Now}
}

// Add revokes id until the given expiry. Already expired ids are ignored.
func (l *RevocationList) Add(ctx context.Context, id string, until time.Time) error {
	ttl := until.Sub(l.now())
	if id == "" || ttl <= 0 {
		return nil
	}
	if err := l.client.Set(ctx, l.prefix+id, 1, ttl).Err(); err != nil {
		return fmt.Errorf("redis set revoked: %w", err)
	}
	return nil
}

// Contains reports whether id has been revoked.
func (l *RevocationList) Contains(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	n, err := l.client.Exists(ctx, l.prefix+id).Result()
	if err != nil {
		return false, fmt.Errorf("redis exists revoked: %w", err)
	}
	return n > 0, nil
}
