// Package importing drives the recipe import queue.
//
// The cycle waits on the redis wake-up queue first, and when nothing
// is queued it polls postgres for pending or stalled requests. Redis
// just wakes the worker up; postgres is the source of truth, so a
// lost queue entry delays an import but never loses it.
package importing

import (
	"context"
	"log"
	"time"

	kredis "github.com/savr-app/savr/pkg/conn/redis"
	kdb "github.com/savr-app/savr/pkg/domain/imports/db"
	"github.com/savr-app/savr/pkg/domain/imports/pipeline"
	"github.com/savr-app/savr/cmd/worker/recurring"
)

// DefaultWait is how long one cycle blocks on the queue.
const DefaultWait = 5 * time.Second

// BacklogSize caps how many stalled requests one cycle picks up.
const BacklogSize = 10

// initial value for task
func Seed() struct{} {
	return struct{}{}
}

// Task processes import requests.
//
// return:
//
// - task : processing one queued request, or the polled backlog when
// the queue stays quiet.
func Task(
	logger *log.Logger,
	queue *kredis.Queue,
	imports kdb.ImportInterface,
	pipe *pipeline.Pipeline,
	wait time.Duration,
) recurring.Task[struct{}] {
	if wait <= 0 {
		wait = DefaultWait
	}
	return func(ctx context.Context, value struct{}) (struct{}, bool, error) {
		importId, woken, err := queue.Wait(ctx, wait)
		if err != nil {
			return value, false, err
		}
		if woken {
			processed, err := pipe.Process(ctx, importId)
			return value, processed, err
		}

		// queue is quiet. poll for what the queue did not deliver.
		backlog, err := imports.PickStalled(ctx, BacklogSize)
		if err != nil {
			return value, false, err
		}

		processed := false
		for _, importId := range backlog {
			ok, err := pipe.Process(ctx, importId)
			if err != nil {
				return value, processed, err
			}
			processed = processed || ok
		}
		return value, processed, nil
	}
}
