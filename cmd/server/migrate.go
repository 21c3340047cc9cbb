package main

import (
	"context"
	"errors"
	"log"

	config "github.com/maheshrc27/postflow/configs"
	"github.com/maheshrc27/postflow/internal/repository"
	"github.com/spf13/cobra"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply the SQL schema",
	Long: `Apply the embedded SQL migrations to the Postgres database. With
STORE_DRIVER=mongo the collection indexes are created instead.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigrate(cmd.Context())
	},
}

func runMigrate(ctx context.Context) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	if cfg.StoreDriver == config.StoreDriverMongo {
		log.Println("Indexes ensured.")
		return nil
	}
	if a.db == nil {
		return errors.New("no SQL database configured")
	}

	if err := repository.RunMigrations(ctx, a.db); err != nil {
		return err
	}
	log.Println("Migrations applied.")
	return nil
}
