package db

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/arinony/madarun/internal/models"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// ConnectAndMigrate opens the database designated by dsn and applies the GORM
// migrations. A dsn starting with postgres:// selects the Postgres driver;
// anything else is treated as a SQLite file path. Safe to call on every
// process start: AutoMigrate only creates what is missing.
func ConnectAndMigrate(dsn string) (*gorm.DB, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("DSN est vide, vérifiez la configuration de l'environnement")
	}

	logLevel := logger.Silent
	if os.Getenv("DB_DEBUG") == "1" {
		logLevel = logger.Info
	}
	cfg := &gorm.Config{Logger: logger.Default.LogMode(logLevel)}

	var conn *gorm.DB
	var err error
	lower := strings.ToLower(dsn)
	if strings.HasPrefix(lower, "postgres://") || strings.HasPrefix(lower, "postgresql://") {
		conn, err = gorm.Open(postgres.Open(dsn), cfg)
	} else {
		conn, err = gorm.Open(sqlite.Open(dsn), cfg)
		if err == nil {
			// Single device, single writer: one connection is all we want.
			if sqlDB, derr := conn.DB(); derr == nil {
				sqlDB.SetMaxOpenConns(1)
			}
		}
	}
	if err != nil {
		return nil, fmt.Errorf("connexion BDD échouée : %w", err)
	}

	modelsToMigrate := []interface{}{
		&models.User{}, &models.Product{}, &models.Notification{}, &models.KVEntry{},
	}
	for _, m := range modelsToMigrate {
		if migErr := conn.AutoMigrate(m); migErr != nil {
			return nil, fmt.Errorf("automigrate %T: %w", m, migErr)
		}
	}

	// sanity check: ensure required core tables exist
	for _, table := range []string{"users", "products", "notifications", "kv_entries"} {
		if !conn.Migrator().HasTable(table) {
			return nil, errors.New("missing table after migration: " + table)
		}
	}
	return conn, nil
}
