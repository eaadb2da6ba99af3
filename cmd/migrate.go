package cmd

import (
	"context"
	"log"

	"github.com/talentum-plus/talentum/internal/logger"
	"github.com/talentum-plus/talentum/internal/store"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create the postgres schema, mongodb indexes and neo4j constraints",
	Run: func(_ *cobra.Command, _ []string) {
		migrate()
	},
}

func init() {
	rootCmd.AddCommand(migrateCmd)
}

// migrate is idempotent, every step only creates what is missing.
func migrate() {
	ctx := context.Background()

	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"), "migrate")
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	backends, err := connectStores(ctx, config, logger)
	if err != nil {
		logger.Fatal("connecting stores", zap.Error(err))
	}
	defer backends.close(ctx, logger)

	steps := []struct {
		store string
		run   func(context.Context) error
	}{
		{store.NameRelational, backends.rel.EnsureSchema},
		{store.NameDocuments, backends.docs.EnsureIndexes},
		{store.NameGraph, backends.graph.EnsureConstraints},
	}

	for _, s := range steps {
		if err := s.run(ctx); err != nil {
			logger.Fatal("migration failed", zap.String("store", s.store), zap.Error(err))
		}
		logger.Info("migrated", zap.String("store", s.store))
	}
}
