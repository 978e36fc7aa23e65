// Package redis wires the wake-up queue between the API server and
// the task worker.
//
// The queue carries just import request ids. All task state lives in
// postgres; losing a queue entry delays an import until the worker's
// polling backstop picks it up, but never loses it.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// DefaultQueueKey is the redis list the import queue lives on.
const DefaultQueueKey = "savr:imports"

type Config struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`

	// Queue overrides DefaultQueueKey. Leave empty for default.
	Queue string `yaml:"queue"`
}

// Connect builds the queue from config.
func Connect(conf Config) *Queue {
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	return New(client, conf.Queue)
}

type Queue struct {
	client *redis.Client
	key    string
}

func New(client *redis.Client, key string) *Queue {
	if key == "" {
		key = DefaultQueueKey
	}
	return &Queue{client: client, key: key}
}

// Enqueue pushes an import request id to wake the worker up.
func (q *Queue) Enqueue(ctx context.Context, importId uuid.UUID) error {
	return q.client.LPush(ctx, q.key, importId.String()).Err()
}

// Wait blocks up to timeout for an id to arrive.
//
// The bool is false when the timeout elapsed with nothing queued.
// Ids that do not parse as UUID are dropped silently; such entries
// can only come from manual pushes.
func (q *Queue) Wait(ctx context.Context, timeout time.Duration) (uuid.UUID, bool, error) {
	got, err := q.client.BRPop(ctx, timeout, q.key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return uuid.Nil, false, nil
		}
		return uuid.Nil, false, err
	}

	// BRPop returns [key, value].
	if len(got) != 2 {
		return uuid.Nil, false, nil
	}
	importId, err := uuid.Parse(got[1])
	if err != nil {
		return uuid.Nil, false, nil
	}
	return importId, true, nil
}

// Ping probes the redis connection.
func (q *Queue) Ping(ctx context.Context) error {
	return q.client.Ping(ctx).Err()
}

func (q *Queue) Close() error {
	return q.client.Close()
}
