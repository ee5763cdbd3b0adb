package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	adapterrepo "github.com/eslsoft/finquest/internal/adapter/repository"
	"github.com/eslsoft/finquest/internal/infrastructure/config"
	"github.com/eslsoft/finquest/internal/infrastructure/database"
	"github.com/eslsoft/finquest/internal/repository"
	"github.com/eslsoft/finquest/internal/usecase"
)

func provideFieldLogger(logger *logrus.Logger) logrus.FieldLogger {
	return logger
}

// OpenProgressStore opens the configured progress store and creates its
// schema when missing.
func OpenProgressStore(ctx context.Context, cfg *config.Config, logger logrus.FieldLogger) (repository.ProgressRepository, func(), error) {
	switch cfg.DatabaseDriver() {
	case "memory":
		return adapterrepo.NewMemoryProgressRepository(), func() {}, nil
	case "sqlite3":
		db, closeDB, err := database.NewSQLite(cfg.SQLiteDSN())
		if err != nil {
			return nil, nil, err
		}
		if err := database.EnsureSQLiteSchema(ctx, db); err != nil {
			closeDB()
			return nil, nil, err
		}
		return adapterrepo.NewSQLiteProgressRepository(db), closeDB, nil
	case "postgres":
		pool, closePool, err := database.NewConnection(cfg, logger)
		if err != nil {
			return nil, nil, err
		}
		if err := database.EnsurePostgresSchema(ctx, pool); err != nil {
			closePool()
			return nil, nil, err
		}
		return adapterrepo.NewPostgresProgressRepository(pool), closePool, nil
	default:
		return nil, nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// provideProgressRepository wraps the store in the redis cache when enabled.
func provideProgressRepository(cfg *config.Config, logger logrus.FieldLogger) (repository.ProgressRepository, func(), error) {
	repo, cleanup, err := OpenProgressStore(context.Background(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Redis.Enabled {
		return repo, cleanup, nil
	}
	client, closeRedis, err := database.NewRedisClient(cfg)
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	cached := adapterrepo.NewCachedProgressRepository(repo, client, cfg.Redis.TTL, logger)
	return cached, func() {
		closeRedis()
		cleanup()
	}, nil
}

func provideCatalog(cfg *config.Config) (*adapterrepo.Catalog, error) {
	return adapterrepo.LoadCatalog(cfg.Content.StagesFile, cfg.Content.BadgesFile)
}

func provideXPLedger(cfg *config.Config) (*usecase.XPLedger, error) {
	overflow := usecase.LevelOverflow(strings.ToLower(strings.TrimSpace(cfg.Progression.LevelOverflow)))
	return usecase.NewXPLedger(cfg.Progression.LevelThresholds, overflow)
}

// provideBadgeEvaluator reports malformed catalog rules once at startup.
func provideBadgeEvaluator(catalog *adapterrepo.Catalog, logger logrus.FieldLogger) (*usecase.BadgeEvaluator, error) {
	evaluator, err := usecase.NewBadgeEvaluator(logger)
	if err != nil {
		return nil, err
	}
	badges, err := catalog.ListBadges(context.Background())
	if err != nil {
		return nil, err
	}
	for _, badge := range badges {
		if err := evaluator.Validate(badge); err != nil {
			logger.WithError(err).WithField("badge_id", badge.ID).Warn("badge rule will never be awarded")
		}
	}
	return evaluator, nil
}

func provideTimeSource(cfg *config.Config) (usecase.TimeSource, error) {
	return usecase.NewTimeSource(cfg.Progression.Timezone)
}

func provideProgressionConfig(cfg *config.Config) (usecase.ProgressionConfig, error) {
	policy, err := usecase.ParseXPPolicy(cfg.Progression.XPPolicy)
	if err != nil {
		return usecase.ProgressionConfig{}, err
	}
	checkpoint := usecase.DefaultCheckpoint
	if cfg.Progression.CheckpointStage > 0 && cfg.Progression.CheckpointPosition > 0 {
		checkpoint = usecase.Checkpoint{
			StageID:  cfg.Progression.CheckpointStage,
			Position: cfg.Progression.CheckpointPosition,
		}
	}
	return usecase.ProgressionConfig{XPPolicy: policy, Checkpoint: checkpoint}, nil
}
