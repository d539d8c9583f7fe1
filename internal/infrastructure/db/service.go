package db

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/arkade-os/checkpointd/internal/core/domain"
	"github.com/arkade-os/checkpointd/internal/core/ports"
	badgerdb "github.com/arkade-os/checkpointd/internal/infrastructure/db/badger"
	inmemorydb "github.com/arkade-os/checkpointd/internal/infrastructure/db/inmemory"
	pgdb "github.com/arkade-os/checkpointd/internal/infrastructure/db/postgres"
	sqlitedb "github.com/arkade-os/checkpointd/internal/infrastructure/db/sqlite"
	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	log "github.com/sirupsen/logrus"
)

//go:embed sqlite/migration/*
var migrations embed.FS

//go:embed postgres/migration/*
var pgMigration embed.FS

var (
	checkpointStoreTypes = map[string]func(...interface{}) (domain.CheckpointRepository, error){
		"badger":   badgerdb.NewCheckpointRepository,
		"sqlite":   sqlitedb.NewCheckpointRepository,
		"postgres": pgdb.NewCheckpointRepository,
		"inmemory": inmemorydb.NewCheckpointRepository,
	}
)

const (
	sqliteDbFile = "sqlite.db"
)

type ServiceConfig struct {
	DataStoreType   string
	DataStoreConfig []interface{}
	Options         domain.RepoOptions
}

type service struct {
	checkpointStore domain.CheckpointRepository
}

func NewService(config ServiceConfig) (ports.RepoManager, error) {
	checkpointStoreFactory, ok := checkpointStoreTypes[config.DataStoreType]
	if !ok {
		return nil, fmt.Errorf("invalid data store type: %s", config.DataStoreType)
	}

	var checkpointStore domain.CheckpointRepository
	var err error

	switch config.DataStoreType {
	case "badger":
		storeConfig := append(config.DataStoreConfig, config.Options)
		checkpointStore, err = checkpointStoreFactory(storeConfig...)
		if err != nil {
			return nil, fmt.Errorf("failed to open checkpoint store: %s", err)
		}

	case "inmemory":
		checkpointStore, err = checkpointStoreFactory(config.Options)
		if err != nil {
			return nil, fmt.Errorf("failed to open checkpoint store: %s", err)
		}

	case "postgres":
		if len(config.DataStoreConfig) != 2 {
			return nil, fmt.Errorf("invalid data store config for postgres")
		}

		dsn, ok := config.DataStoreConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid DSN for postgres")
		}

		autoCreate, ok := config.DataStoreConfig[1].(bool)
		if !ok {
			return nil, fmt.Errorf("invalid autocreate flag for postgres")
		}

		db, err := pgdb.OpenDb(dsn, autoCreate && !config.Options.ReadOnly)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres db: %s", err)
		}

		if !config.Options.ReadOnly {
			if err := migratePostgres(db); err != nil {
				return nil, err
			}
		}

		checkpointStore, err = checkpointStoreFactory(db, config.Options)
		if err != nil {
			return nil, fmt.Errorf("failed to open checkpoint store: %s", err)
		}

	case "sqlite":
		if len(config.DataStoreConfig) != 1 {
			return nil, fmt.Errorf("invalid data store config")
		}

		baseDir, ok := config.DataStoreConfig[0].(string)
		if !ok {
			return nil, fmt.Errorf("invalid base directory")
		}

		dbFile := filepath.Join(baseDir, sqliteDbFile)
		db, err := sqlitedb.OpenDb(dbFile, config.Options.ReadOnly)
		if err != nil {
			return nil, fmt.Errorf("failed to open db: %s", err)
		}

		if !config.Options.ReadOnly {
			if err := migrateSqlite(db); err != nil {
				return nil, err
			}
		}

		checkpointStore, err = checkpointStoreFactory(db, config.Options)
		if err != nil {
			return nil, fmt.Errorf("failed to open checkpoint store: %s", err)
		}
	}

	log.Debugf(
		"opened %s checkpoint store (read-only: %t)",
		config.DataStoreType, config.Options.ReadOnly,
	)

	return &service{checkpointStore}, nil
}

func (s *service) Checkpoints() domain.CheckpointRepository {
	return s.checkpointStore
}

func (s *service) Close() {
	s.checkpointStore.Close()
}

func migratePostgres(db *sql.DB) error {
	pgDriver, err := migratepg.WithInstance(db, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to init postgres migration driver: %s", err)
	}

	source, err := iofs.New(pgMigration, "postgres/migration")
	if err != nil {
		return fmt.Errorf("failed to embed postgres migrations: %s", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", pgDriver)
	if err != nil {
		return fmt.Errorf("failed to create postgres migration instance: %s", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run postgres migrations: %s", err)
	}
	return nil
}

func migrateSqlite(db *sql.DB) error {
	driver, err := sqlitemigrate.WithInstance(db, &sqlitemigrate.Config{})
	if err != nil {
		return fmt.Errorf("failed to init driver: %s", err)
	}

	source, err := iofs.New(migrations, "sqlite/migration")
	if err != nil {
		return fmt.Errorf("failed to embed migrations: %s", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "checkpointdb", driver)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %s", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to run migrations: %s", err)
	}
	return nil
}
