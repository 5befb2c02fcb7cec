// Package notify publishes post events to Redis pub/sub for consumers outside
// this process. Each instance owns its own store and post ids, so nothing read
// from the channel is ever fed back into a local store or hub.
package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"postserver/internal/post/model"
)

// Channel is the Redis channel every instance publishes post events on.
const Channel = "posts:events"

// Message is the JSON payload published on Channel. PostID in Event is only
// meaningful together with Origin.
type Message struct {
	Origin string          `json:"origin"`
	Event  model.PostEvent `json:"event"`
}

// Notifier publishes post events to Redis. A nil Redis client turns every
// method into a no-op.
type Notifier struct {
	rdb        *redis.Client
	instanceID string
}

func NewNotifier(rdb *redis.Client) *Notifier {
	return &Notifier{rdb: rdb, instanceID: uuid.NewString()}
}

// NewClient parses a redis:// URL, or a bare host:port, into a client.
func NewClient(redisURL string) (*redis.Client, error) {
	if !strings.Contains(redisURL, "://") {
		return redis.NewClient(&redis.Options{Addr: redisURL}), nil
	}
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	return redis.NewClient(opts), nil
}

// InstanceID identifies this process, and so its post id space, in published messages.
func (n *Notifier) InstanceID() string {
	return n.instanceID
}

// Publish sends the event, tagged with InstanceID, to Channel subscribers.
func (n *Notifier) Publish(ctx context.Context, event model.PostEvent) error {
	if n.rdb == nil {
		return nil
	}
	payload, err := json.Marshal(Message{Origin: n.instanceID, Event: event})
	if err != nil {
		return fmt.Errorf("marshal post event: %w", err)
	}
	return n.rdb.Publish(ctx, Channel, payload).Err()
}

// Ping checks connectivity. It always succeeds without a client.
func (n *Notifier) Ping(ctx context.Context) error {
	if n.rdb == nil {
		return nil
	}
	return n.rdb.Ping(ctx).Err()
}
