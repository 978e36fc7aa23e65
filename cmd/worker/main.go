package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/savr-app/savr/cmd/worker/recurring"
	configs "github.com/savr-app/savr/pkg/configs/worker"
	kredis "github.com/savr-app/savr/pkg/conn/redis"
	kpg "github.com/savr-app/savr/pkg/domain/savr/db/postgres"
	"github.com/savr-app/savr/pkg/embedding"
	"github.com/savr-app/savr/pkg/extract"
	"github.com/savr-app/savr/pkg/formalize"
	"github.com/savr-app/savr/pkg/utils/args"
	"github.com/savr-app/savr/pkg/utils/filewatch"
	"github.com/savr-app/savr/pkg/utils/try"
)

func main() {
	logger := log.Default()
	ctx, cancel := signal.NotifyContext(
		context.Background(), os.Interrupt, os.Kill, syscall.SIGTERM,
	)
	defer cancel()

	pconfig := flag.String(
		"config", os.Getenv("SAVR_WORKER_CONFIG"), "path to config file",
	)
	pSchemaRepo := flag.String(
		"schema-repo", os.Getenv("SAVR_SCHEMA"), "schema repository path",
	)
	taskType := args.Parser(AsTaskType)
	flag.Var(taskType, "type", "one of task type: importing|embedding")
	policy := args.Parser(recurring.ParsePolicy)
	flag.Var(
		policy, "policy",
		`task policy (syntax: forever[:COOLDOWN]|backlog).`+
			` "forever[:COOLDOWN]" = run forever until error. When backlog is over, `+
			`wait COOLDOWN (optional duration. default: 0) as interval.`+
			` "backlog" = run until error or backlog is over.`,
	)
	flag.Parse()

	{
		// watch config; restart on change
		wctx, cancel, err := filewatch.UntilModifyContext(ctx, *pconfig)
		if err != nil {
			logger.Fatal(err)
		}
		defer cancel()
		ctx = wctx
	}

	conf := try.To(configs.LoadWorkerConfig(*pconfig)).OrFatal(logger)

	db := try.To(kpg.New(
		ctx, conf.DBURI, kpg.WithSchemaRepository(*pSchemaRepo),
	)).OrFatal(logger)
	defer db.Close()

	{
		ctx_, ccan := db.Schema().Context(ctx)
		defer ccan()
		ctx = ctx_
	}

	queue := kredis.Connect(conf.Redis)
	defer queue.Close()

	deps := Dependencies{
		Database:   db,
		Queue:      queue,
		Embedder:   embedding.New(conf.Embedding),
		Formalizer: formalize.New(conf.Gemini),
		Extractor:  extract.New(0),
	}

	logger.Printf(
		`start task "%s" /w policy "%s"`,
		taskType.Value().String(), policy.Value().String(),
	)

	err := StartLoop(ctx, logger, deps, TaskManifest{
		Type:   taskType.Value(),
		Policy: recurring.UntilError(policy.Value()),
	})

	if err == nil {
		return
	} else if errors.Is(err, context.Canceled) {
		logger.Fatal(err, "(task context is cancelled by:", context.Cause(ctx), ")")
	}

	logger.Fatal(err)
}
