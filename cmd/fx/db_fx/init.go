package db_fx

import (
	"go.uber.org/fx"
	"go.uber.org/zap"

	"travelplan/internal/config"
	"travelplan/internal/infra"
	"travelplan/internal/repositories"
)

var Module = fx.Provide(
	provideSnapshotRepository)

// Without POSTGRES_URL snapshots live in process memory.
func provideSnapshotRepository(lc fx.Lifecycle, cfg *config.Config, logger *zap.Logger) (repositories.IPlanSnapshotRepository, error) {
	if cfg.PostgresURL == "" {
		logger.Info("POSTGRES_URL not set, keeping plan snapshots in memory")
		return repositories.NewInMemoryPlanSnapshotRepository(), nil
	}

	db, err := infra.InitPostgresql(cfg.PostgresURL, logger)
	if err != nil {
		return nil, err
	}
	lc.Append(fx.StopHook(func() {
		infra.ClosePostgresql(db, logger)
	}))
	return repositories.NewPlanSnapshotRepository(db), nil
}
