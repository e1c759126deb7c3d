// Copyright 2025 Arcade Team
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//      http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package database

import (
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/go-arcade/vigia/pkg/log"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
	"gorm.io/plugin/dbresolver"
)

const (
	defaultSlowSQL = time.Second
)

// NewDatabase opens the configured data source and returns a ready *gorm.DB.
func NewDatabase(cfg Database) (*gorm.DB, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var dialector gorm.Dialector
	switch cfg.Type {
	case TypeMySQL:
		dialector = mysql.Open(buildMySQLDSN(cfg.MySQL))
	case TypeSQLite:
		dialector = sqlite.Open(buildSQLiteDSN(cfg.SQLite))
	}

	gormConf := &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
		// constraint violations surface as gorm.ErrDuplicatedKey on both drivers
		TranslateError: true,
		NamingStrategy: schema.NamingStrategy{
			TablePrefix:   dataTablePrefix,
			SingularTable: true,
		},
	}
	if cfg.OutPut {
		gormConf.Logger = NewGormLogger(logger.Config{
			SlowThreshold:             defaultSlowSQL,
			LogLevel:                  logger.Info,
			IgnoreRecordNotFoundError: true,
			ParameterizedQueries:      true,
		})
	}

	db, err := gorm.Open(dialector, gormConf)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB handle: %w", err)
	}

	if cfg.Type == TypeSQLite {
		// single writer; the connection is kept so an in-memory database survives
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
		sqlDB.SetConnMaxLifetime(0)
		sqlDB.SetConnMaxIdleTime(0)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(GetConnMaxLifetime(cfg.MaxLifetime))
		sqlDB.SetConnMaxIdleTime(GetConnMaxIdleTime(cfg.MaxIdleTime))
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if replicas := replicaDialectors(cfg); len(replicas) > 0 {
		if err := useReplicas(db, cfg, replicas); err != nil {
			_ = sqlDB.Close()
			return nil, err
		}
		log.Infow("database connected with read replicas", "type", cfg.Type, "replicas", len(replicas), "tables", cfg.ReplicaTables)
		return db, nil
	}

	log.Infow("database connected", "type", cfg.Type)
	return db, nil
}

func replicaDialectors(cfg Database) []gorm.Dialector {
	var out []gorm.Dialector
	switch cfg.Type {
	case TypeMySQL:
		for _, r := range cfg.MySQL.Replicas {
			out = append(out, mysql.Open(buildMySQLDSN(cfg.MySQL.replica(r))))
		}
	case TypeSQLite:
		for _, path := range cfg.SQLite.Replicas {
			out = append(out, sqlite.Open(buildSQLiteDSN(SQLiteConfig{Path: path})))
		}
	}
	return out
}

// useReplicas registers the read-write splitting plugin. Writes, transactions
// and WriteDB queries stay on the primary.
func useReplicas(db *gorm.DB, cfg Database, replicas []gorm.Dialector) error {
	tables := make([]any, 0, len(cfg.ReplicaTables))
	for _, t := range cfg.ReplicaTables {
		tables = append(tables, t)
	}

	resolver := dbresolver.Register(dbresolver.Config{
		Replicas:          replicas,
		Policy:            dbresolver.RandomPolicy{},
		TraceResolverMode: cfg.OutPut,
	}, tables...)
	if cfg.Type == TypeSQLite {
		resolver = resolver.SetMaxOpenConns(1).SetMaxIdleConns(1)
	} else {
		resolver = resolver.
			SetMaxOpenConns(cfg.MaxOpenConns).
			SetMaxIdleConns(cfg.MaxIdleConns).
			SetConnMaxLifetime(GetConnMaxLifetime(cfg.MaxLifetime)).
			SetConnMaxIdleTime(GetConnMaxIdleTime(cfg.MaxIdleTime))
	}
	if err := db.Use(resolver); err != nil {
		return fmt.Errorf("failed to register read replicas: %w", err)
	}
	return nil
}

// Close releases the pooled connections behind db.
func Close(db *gorm.DB) error {
	sqlDB, err := db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
