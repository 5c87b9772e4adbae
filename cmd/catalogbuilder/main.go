// Command catalogbuilder runs one catalog build: full or incremental,
// selected by the presence of REPO and a prior catalog file (§4.6).
package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/KernelSU-Modules-Repo/modules/internal/apperr"
	"github.com/KernelSU-Modules-Repo/modules/internal/catalog"
	"github.com/KernelSU-Modules-Repo/modules/internal/config"
	"github.com/KernelSU-Modules-Repo/modules/internal/notify"
	"github.com/KernelSU-Modules-Repo/modules/internal/orchestrator"
	"github.com/KernelSU-Modules-Repo/modules/internal/platform"
	"github.com/KernelSU-Modules-Repo/modules/internal/propfile"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: time.RFC3339,
	})
	logger.SetOutput(os.Stdout)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	if cfg.GraphQLToken == "" {
		logger.Fatal("Missing required configuration (GRAPHQL_TOKEN must be set)")
	}

	platformClient := platform.NewClient(cfg.GraphQLToken, cfg.Platform, logger)
	prober := propfile.NewProber("", logger)
	releaseValidator := catalog.NewReleaseValidator(catalog.ReleaseValidatorConfig{
		RequireTagPrefix: cfg.Orchestrator.RequireTagPrefix,
	}, prober, logger)
	moduleValidator := catalog.NewModuleValidator(catalog.ModuleValidatorConfig{
		InnerConcurrency: cfg.Orchestrator.InnerConcurrency,
	}, releaseValidator, logger)
	dispatcher := notify.NewDispatcher(platformClient, cfg.Notify, logger)

	orch := orchestrator.New(platformClient, moduleValidator, dispatcher, afero.NewOsFs(), cfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := orch.Run(ctx); err != nil {
		if apperr.Is(err, apperr.ErrValidation) {
			logger.WithError(err).Error("incremental validation failed")
		} else {
			logger.WithError(err).Error("catalog build failed")
		}
		os.Exit(1)
	}
}
