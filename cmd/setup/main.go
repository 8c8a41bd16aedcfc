package main

import (
	"context"
	"flag"

	"rental-agreements-go/internal/common"
	"rental-agreements-go/internal/config"

	"go.uber.org/zap"
)

func main() {
	ctx := context.Background()

	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	seedFlag := flag.String("seed", "seed.yaml", "YAML file with demo users and properties")
	initFlag := flag.Bool("init", false, "Only create the database schema")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load config", zap.Error(err))
	}

	zap.L().Info("Setting up SQLite database", zap.String("path", cfg.Database.Path))
	dbService, err := common.InitializeDatabaseOnly(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize database", zap.Error(err))
	}
	defer dbService.Close()

	if *initFlag {
		zap.L().Info("Initialization complete")
		return
	}

	zap.L().Info("Loading seed file", zap.String("file", *seedFlag))
	seed, err := common.LoadSeedFile(*seedFlag)
	if err != nil {
		zap.L().Fatal("Failed to load seed file", zap.Error(err))
	}

	summary, err := common.ApplySeed(ctx, dbService, seed)
	if err != nil {
		zap.L().Fatal("Failed to apply seed", zap.Error(err))
	}

	common.PrintHeader("SEED SUMMARY", common.DefaultWidth)
	common.PrintField("Users created", summary.UsersCreated)
	common.PrintField("Users existing", summary.UsersExisting)
	common.PrintField("Properties created", summary.PropertiesCreated)
	common.PrintSeparator("=", common.DefaultWidth)
}
