package realtime

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"koalitos/backend/internal/apperr"
)

const defaultPublishTimeout = 5 * time.Second

// RedisNotifier publishes events over Redis pub/sub. The PUBLISH reply is
// the transport acknowledgment; an error or timeout before it arrives is a
// broadcast failure.
type RedisNotifier struct {
	client  *redis.Client
	timeout time.Duration
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client, timeout: defaultPublishTimeout}
}

// Dial parses a redis URL, connects, and verifies the connection.
func Dial(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

func (n *RedisNotifier) Broadcast(ctx context.Context, channel, event string, payload interface{}) error {
	data, err := json.Marshal(Envelope{
		Event:   event,
		Payload: payload,
		SentAt:  time.Now(),
	})
	if err != nil {
		return apperr.Broadcast("failed to encode event "+event, err)
	}

	ctx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	if err := n.client.Publish(ctx, channel, data).Err(); err != nil {
		return apperr.Broadcast("failed to publish event "+event+" to "+channel, err)
	}
	return nil
}
