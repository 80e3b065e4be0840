// Package queue dispatches care-plan generation jobs through Redis. A
// plain list carries ready jobs; a sorted set scored by ready-time holds
// jobs waiting out a retry backoff.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	readyKey   = "careplan:generation:ready"
	delayedKey = "careplan:generation:delayed"

	popTimeout = 1 * time.Second
)

type job struct {
	OrderID uuid.UUID `json:"order_id"`
	Attempt int       `json:"attempt"`
}

// Queue is the Redis-backed job store. It satisfies the intake
// orchestrator's Enqueuer.
type Queue struct {
	rdb *redis.Client
}

func New(rdb *redis.Client) *Queue {
	return &Queue{rdb: rdb}
}

// Ping verifies the Redis connection.
func (q *Queue) Ping(ctx context.Context) error {
	return q.rdb.Ping(ctx).Err()
}

// EnqueueGeneration schedules the first generation attempt for an order.
func (q *Queue) EnqueueGeneration(ctx context.Context, orderID uuid.UUID) error {
	return q.push(ctx, &job{OrderID: orderID})
}

func (q *Queue) push(ctx context.Context, j *job) error {
	payload, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	if err := q.rdb.LPush(ctx, readyKey, payload).Err(); err != nil {
		return fmt.Errorf("push job: %w", err)
	}
	return nil
}

// pop blocks up to popTimeout for the next ready job and returns
// (nil, nil) when the queue stayed empty.
func (q *Queue) pop(ctx context.Context) (*job, error) {
	res, err := q.rdb.BRPop(ctx, popTimeout, readyKey).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("pop job: %w", err)
	}
	// BRPop returns [key, value].
	var j job
	if err := json.Unmarshal([]byte(res[1]), &j); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	return &j, nil
}

// pushDelayed parks a job until its backoff elapses.
func (q *Queue) pushDelayed(ctx context.Context, j *job, delay time.Duration) error {
	payload, err := json.Marshal(j)
	if err != nil {
		return fmt.Errorf("marshal job: %w", err)
	}
	err = q.rdb.ZAdd(ctx, delayedKey, redis.Z{
		Score:  float64(time.Now().Add(delay).Unix()),
		Member: payload,
	}).Err()
	if err != nil {
		return fmt.Errorf("delay job: %w", err)
	}
	return nil
}

// promoteDue moves jobs whose backoff has elapsed back onto the ready
// list.
func (q *Queue) promoteDue(ctx context.Context) error {
	now := fmt.Sprintf("%d", time.Now().Unix())
	members, err := q.rdb.ZRangeByScore(ctx, delayedKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: now,
	}).Result()
	if err != nil {
		return fmt.Errorf("scan delayed jobs: %w", err)
	}
	for _, m := range members {
		// ZRem arbitrates between competing workers: only the winner
		// promotes the job.
		removed, err := q.rdb.ZRem(ctx, delayedKey, m).Result()
		if err != nil {
			return fmt.Errorf("claim delayed job: %w", err)
		}
		if removed == 0 {
			continue
		}
		if err := q.rdb.LPush(ctx, readyKey, m).Err(); err != nil {
			return fmt.Errorf("promote job: %w", err)
		}
	}
	return nil
}
