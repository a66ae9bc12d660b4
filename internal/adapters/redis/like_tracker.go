package redis

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// LikeTracker keeps one set of visitor ids per listing under "likes:<id>".
type LikeTracker struct {
	client redis.UniversalClient
	prefix string
}

// NewLikeTracker creates a LikeTracker.
func NewLikeTracker(client redis.UniversalClient) *LikeTracker {
	return &LikeTracker{client: client, prefix: "likes:"}
}

// NewLikeTrackerWithPrefix creates a LikeTracker whose sets live under
// namespace + "likes:".
func NewLikeTrackerWithPrefix(client redis.UniversalClient, namespace string) *LikeTracker {
	return &LikeTracker{client: client, prefix: namespace + "likes:"}
}

// Toggle adds the visitor to the listing's set, or removes them when already present.
func (l *LikeTracker) Toggle(ctx context.Context, propertyID, visitorID string) (bool, error) {
	if propertyID == "" || visitorID == "" {
		return false, errors.New("property and visitor ids are required")
	}
	key := l.prefix + propertyID
	added, err := l.client.SAdd(ctx, key, visitorID).Result()
	if err != nil {
		return false, fmt.Errorf("redis sadd: %w", err)
	}
	if added == 1 {
		return true, nil
	}
	if err := l.client.SRem(ctx, key, visitorID).Err(); err != nil {
		return false, fmt.Errorf("redis srem: %w", err)
	}
	return false, nil
}

// Liked reports membership for each listing in one round trip.
func (l *LikeTracker) Liked(ctx context.Context, visitorID string, propertyIDs []string) (map[string]bool, error) {
	out := make(map[string]bool, len(propertyIDs))
	if visitorID == "" || len(propertyIDs) == 0 {
		return out, nil
	}
	pipe := l.client.Pipeline()
	cmds := make([]*redis.BoolCmd, len(propertyIDs))
	for i, id := range propertyIDs {
		cmds[i] = pipe.SIsMember(ctx, l.prefix+id, visitorID)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("redis pipeline: %w", err)
	}
	for i, id := range propertyIDs {
		if cmds[i].Val() {
			out[id] = true
		}
	}
	return out, nil
}

// Forget drops the listing's set.
func (l *LikeTracker) Forget(ctx context.Context, propertyID string) error {
	return l.client.Del(ctx, l.prefix+propertyID).Err()
}
