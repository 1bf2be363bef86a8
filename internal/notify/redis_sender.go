package notify

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
)

// RedisSender publishes confirmation mail to a Redis channel consumed by
// an external mail worker.
type RedisSender struct {
	client  *redis.Client
	channel string
}

func NewRedisSender(redisURL, channel string) (*RedisSender, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)

	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}

	return &RedisSender{
		client:  client,
		channel: channel,
	}, nil
}

func (s *RedisSender) SendConfirmationCode(ctx context.Context, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	return s.client.Publish(ctx, s.channel, data).Err()
}

func (s *RedisSender) Close() error {
	return s.client.Close()
}
