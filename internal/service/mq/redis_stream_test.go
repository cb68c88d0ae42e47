package mq

import (
	"context"
	"testing"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// The redis client is shared with the reconciler's lock; closing a consumer
// must leave it open.
func TestRedisConsumerCloseLeavesClientOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	consumer := NewRedisConsumer(client, "test_group", "consumer-0")
	assert.NoError(t, consumer.Close())

	// No server is listening, so Ping fails with a dial error; a closed
	// client would fail with redis.ErrClosed instead.
	err := client.Ping(context.Background()).Err()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, redis.ErrClosed)
}

func TestRedisProducerCloseLeavesClientOpen(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"})
	defer client.Close()

	producer := NewRedisProducer(client)
	assert.NoError(t, producer.Close())

	err := client.Ping(context.Background()).Err()
	assert.Error(t, err)
	assert.NotErrorIs(t, err, redis.ErrClosed)
}
