package recurring

import (
	"context"

	"github.com/savr-app/savr/pkg/loop"
)

// Task is one cycle of a recurring worker task.
//
// Return:
//
// - T : same as return value T of loop.Task[T]
//
// - bool : true when this cycle did something and more backlog can be.
//
// - error : same as err of loop.Break(err)
type Task[T any] func(context.Context, T) (T, bool, error)

// Applied executes the task and lets the policy decide what is next.
func (rt Task[T]) Applied(p Policy) loop.Task[T] {
	return func(ctx context.Context, t T) (T, loop.Next) {
		new, ok, err := rt(ctx, t)
		return new, p.Next(ok, err)
	}
}
