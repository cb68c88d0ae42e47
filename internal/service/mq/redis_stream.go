package mq

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"gallery-core/pkg/logger"

	"go.uber.org/zap"
)

// RedisProducer implements Producer on top of Redis Streams.
type RedisProducer struct {
	client *redis.Client
}

func NewRedisProducer(client *redis.Client) *RedisProducer {
	return &RedisProducer{client: client}
}

// Publish appends the message to the stream named after the topic.
func (p *RedisProducer) Publish(ctx context.Context, topic string, key string, payload []byte) error {
	err := p.client.XAdd(ctx, &redis.XAddArgs{
		Stream: topic,
		Values: map[string]interface{}{
			"key":     key,
			"payload": payload,
		},
	}).Err()

	if err != nil {
		return fmt.Errorf("redis xadd error: %w", err)
	}

	return nil
}

// Close is a no-op; the redis client is owned by the caller.
func (p *RedisProducer) Close() error {
	return nil
}

// RedisConsumer implements Consumer with a Redis Streams consumer group.
type RedisConsumer struct {
	client *redis.Client
	group  string
	name   string
}

func NewRedisConsumer(client *redis.Client, group, name string) *RedisConsumer {
	return &RedisConsumer{
		client: client,
		group:  group,
		name:   name,
	}
}

// Subscribe blocks reading the stream; messages are acked only after the
// handler succeeds.
func (c *RedisConsumer) Subscribe(ctx context.Context, topic string, handler func(msg *Message) error) error {
	err := c.client.XGroupCreateMkStream(ctx, topic, c.group, "$").Err()
	if err != nil && err.Error() != "BUSYGROUP Consumer Group name already exists" {
		return fmt.Errorf("create consumer group: %w", err)
	}

	logger.Info("redis stream consumer listening", zap.String("topic", topic), zap.String("group", c.group))

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
				Group:    c.group,
				Consumer: c.name,
				Streams:  []string{topic, ">"},
				Count:    1,
				Block:    2 * time.Second,
			}).Result()

			if err == redis.Nil {
				continue // no message within block window
			}
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				logger.Error("redis stream read failed", zap.Error(err))
				time.Sleep(1 * time.Second)
				continue
			}

			for _, stream := range streams {
				for _, xMessage := range stream.Messages {
					val, ok := xMessage.Values["payload"].(string)
					if !ok {
						logger.Error("redis stream message missing payload", zap.String("id", xMessage.ID))
						c.ack(ctx, topic, xMessage.ID)
						continue
					}
					key, _ := xMessage.Values["key"].(string)

					msg := &Message{
						ID:      xMessage.ID,
						Topic:   topic,
						Key:     key,
						Payload: []byte(val),
					}

					if err := handler(msg); err != nil {
						logger.Error("redis stream handler failed", zap.Error(err))
						// left pending for redelivery
					} else {
						c.ack(ctx, topic, xMessage.ID)
					}
				}
			}
		}
	}
}

func (c *RedisConsumer) ack(ctx context.Context, topic, id string) {
	c.client.XAck(ctx, topic, c.group, id)
}

// Close is a no-op; the redis client is owned by the caller and may back
// other consumers and locks. Cancel the Subscribe context to stop reading.
func (c *RedisConsumer) Close() error {
	return nil
}
