package db

import (
	"context"
	"embed"
	"fmt"

	"feedflow/internal/config"
	"feedflow/internal/models"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

const migrationsDir = "migrations"

// Migrate brings the schema up to date using the configured migrator.
func Migrate(ctx context.Context, db *gorm.DB, cfg config.DatabaseConfig, log *zap.Logger) error {
	switch cfg.Migrator {
	case config.MigratorGoose:
		if err := GooseUp(ctx, db); err != nil {
			return err
		}
	default:
		if err := AutoMigrate(db.WithContext(ctx)); err != nil {
			return err
		}
	}
	log.Info("Database migration completed", zap.String("migrator", cfg.Migrator))
	return nil
}

// AutoMigrate creates tables, indexes, foreign keys and check constraints from the models.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}

// GooseUp applies the embedded Postgres migrations.
func GooseUp(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if err := useEmbedded(); err != nil {
		return err
	}
	if err := goose.UpContext(ctx, sqlDB, migrationsDir); err != nil {
		return fmt.Errorf("migration up failed: %w", err)
	}
	return nil
}

// GooseStatus prints the state of every embedded migration.
func GooseStatus(ctx context.Context, db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}

	if err := useEmbedded(); err != nil {
		return err
	}
	return goose.StatusContext(ctx, sqlDB, migrationsDir)
}

// Migrations lists the embedded goose migrations in version order.
func Migrations() (goose.Migrations, error) {
	if err := useEmbedded(); err != nil {
		return nil, err
	}
	ms, err := goose.CollectMigrations(migrationsDir, 0, goose.MaxVersion)
	if err != nil {
		return nil, fmt.Errorf("failed to collect migrations: %w", err)
	}
	return ms, nil
}

func useEmbedded() error {
	goose.SetBaseFS(migrationsFS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set dialect: %w", err)
	}
	return nil
}
