package main

import (
	"context"
	"log"
	"os"
	"os/signal"

	kio "github.com/savr-app/savr/pkg/io"
	"github.com/savr-app/savr/pkg/domain/savr/db/postgres"
	"github.com/savr-app/savr/pkg/utils/try"
	"github.com/youta-t/flarc"
)

type Flag struct {
	Database string `flag:"database" help:"Connection string for the database."`
	Schema   string `flag:"schema" help:"The path to the schema repository directory."`
}

const ARG_SCHEMA_DEST = "ARG_SCHEMA_DEST"

func main() {
	logger := log.Default()
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		os.Interrupt, os.Kill,
	)
	defer cancel()

	cmd := try.To(flarc.NewCommand(
		"database schema upgrader",
		Flag{
			Database: os.Getenv("SAVR_DATABASE"),
			Schema:   os.Getenv("SAVR_SCHEMA"),
		},
		flarc.Args{
			{
				Name: ARG_SCHEMA_DEST, Help: "The schema files are copied to these directories.",
				Required: false, Repeatable: false,
			},
		},
		func(ctx context.Context, c flarc.Commandline[Flag], a []any) error {
			flags := c.Flags()

			dest := c.Args()[ARG_SCHEMA_DEST]
			if len(dest) != 0 {
				logger.Println("copying schema files...")
				if err := kio.DirCopy(flags.Schema, dest[0]); err != nil {
					return err
				}
			}

			db, err := postgres.New(
				ctx, flags.Database,
				postgres.WithSchemaRepository(flags.Schema),
			)
			if err != nil {
				return err
			}
			defer db.Close()

			return db.Schema().Upgrade(ctx)
		},
	)).OrFatal(logger)

	os.Exit(flarc.Run(ctx, cmd))
}
