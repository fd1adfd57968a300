package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Presence marks live feed subscriptions in Redis so operators (and a
// future multi-instance fan-out) can see connected users. Writes are
// best effort liveness markers, nothing reads them on the hot path.
type Presence struct {
	client *redis.Client
	ttl    time.Duration
}

func NewPresence(client *redis.Client, ttl time.Duration) *Presence {
	return &Presence{client: client, ttl: ttl}
}

func (p *Presence) MarkOnline(userID string) {
	_ = p.client.Set(context.Background(), p.key(userID), "1", p.ttl).Err()
}

func (p *Presence) MarkOffline(userID string) {
	_ = p.client.Del(context.Background(), p.key(userID)).Err()
}

func (p *Presence) key(userID string) string {
	return "feed:online:" + userID
}
