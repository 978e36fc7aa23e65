package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/savr-app/savr/cmd/worker/recurring"
	taskembedding "github.com/savr-app/savr/cmd/worker/tasks/embedding"
	"github.com/savr-app/savr/cmd/worker/tasks/importing"
	kredis "github.com/savr-app/savr/pkg/conn/redis"
	"github.com/savr-app/savr/pkg/domain/imports/pipeline"
	"github.com/savr-app/savr/pkg/domain/ingredients/matcher"
	"github.com/savr-app/savr/pkg/domain/savr/db"
	"github.com/savr-app/savr/pkg/embedding"
	"github.com/savr-app/savr/pkg/extract"
	"github.com/savr-app/savr/pkg/formalize"
	"github.com/savr-app/savr/pkg/loop"
)

var ErrUnknownTaskType = errors.New("unknown task type")

// TaskType selects which recurring task this worker process runs.
type TaskType string

const (
	TaskImporting TaskType = "importing"
	TaskEmbedding TaskType = "embedding"
)

func (t TaskType) String() string {
	return string(t)
}

func AsTaskType(s string) (TaskType, error) {
	switch TaskType(s) {
	case TaskImporting, TaskEmbedding:
		return TaskType(s), nil
	default:
		return TaskType(s), fmt.Errorf("%w: %s", ErrUnknownTaskType, s)
	}
}

type TaskManifest struct {
	Type   TaskType
	Policy recurring.Policy
}

type Dependencies struct {
	Database   db.SavrDatabase
	Queue      *kredis.Queue
	Embedder   embedding.Embedder
	Formalizer formalize.Formalizer
	Extractor  extract.Extractor
}

// StartLoop runs the selected task until its policy breaks the loop.
func StartLoop(
	ctx context.Context,
	logger *log.Logger,
	deps Dependencies,
	manifest TaskManifest,
) error {
	switch manifest.Type {
	case TaskImporting:
		pipe := pipeline.New(
			deps.Database.Imports(),
			deps.Database.Recipes(),
			deps.Extractor,
			deps.Formalizer,
			matcher.New(deps.Embedder, deps.Database.Ingredients()),
			deps.Embedder,
			logger,
		)
		task := importing.Task(
			logger, deps.Queue, deps.Database.Imports(), pipe, importing.DefaultWait,
		)
		_, err := loop.Start(
			ctx, importing.Seed(), task.Applied(manifest.Policy),
			loop.WithTimeout(5*time.Minute),
		)
		return err

	case TaskEmbedding:
		task := taskembedding.Task(
			logger,
			deps.Database.Ingredients(),
			deps.Database.Recipes(),
			deps.Embedder,
		)
		_, err := loop.Start(
			ctx, taskembedding.Seed(), task.Applied(manifest.Policy),
			loop.WithTimeout(time.Minute),
		)
		return err
	}

	return fmt.Errorf("%w: %s", ErrUnknownTaskType, manifest.Type)
}
