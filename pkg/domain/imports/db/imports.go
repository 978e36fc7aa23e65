package db

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/savr-app/savr/pkg/domain"
)

// StaleProcessingAge is how long a request may sit in processing
// before it is considered abandoned by a dead worker.
const StaleProcessingAge = 10 * time.Minute

type ImportInterface interface {
	// Register records a new pending import request.
	Register(ctx context.Context, userId int64, source domain.ImportSource, payload string) (domain.ImportRequest, error)

	// Get retrieves a request.
	Get(ctx context.Context, importId uuid.UUID) (domain.ImportRequest, error)

	// ListByUser lists the user's requests, newest first.
	ListByUser(ctx context.Context, userId int64) ([]domain.ImportRequest, error)

	// Claim atomically moves a pending request to processing and
	// increments its attempt counter.
	//
	// The bool is false when the request is not claimable: not
	// pending, or attempts are exhausted. Requests exceeding
	// domain.MaxImportAttempts are marked as errored by Claim.
	Claim(ctx context.Context, importId uuid.UUID) (domain.ImportRequest, bool, error)

	// PickStalled finds requests a worker should retry: pending
	// ones, and processing ones untouched for StaleProcessingAge.
	// Stalled processing rows are flipped back to pending.
	PickStalled(ctx context.Context, limit int) ([]uuid.UUID, error)

	// MarkSuccess finishes a request with the created recipe.
	MarkSuccess(ctx context.Context, importId uuid.UUID, recipeId int64) error

	// MarkError finishes a request with an error message.
	MarkError(ctx context.Context, importId uuid.UUID, message string) error

	// Requeue moves a processing request back to pending so a later
	// attempt retries it.
	Requeue(ctx context.Context, importId uuid.UUID) error
}
