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
	"sync/atomic"
	"time"
)

const (
	TypeMySQL  = "mysql"
	TypeSQLite = "sqlite"

	dataTablePrefix = "t_"
)

// MySQLConfig represents MySQL data source configuration
type MySQLConfig struct {
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	DBName   string `mapstructure:"dbname"`
	// Replicas are read-only copies; empty fields inherit from the primary.
	Replicas []MySQLConfig `mapstructure:"replicas"`
}

// SQLiteConfig represents an embedded SQLite data source.
// An empty Path opens a private in-memory database.
type SQLiteConfig struct {
	Path     string   `mapstructure:"path"`
	Replicas []string `mapstructure:"replicas"`
}

func (c MySQLConfig) replica(r MySQLConfig) MySQLConfig {
	if r.Port == "" {
		r.Port = c.Port
	}
	if r.User == "" {
		r.User = c.User
		if r.Password == "" {
			r.Password = c.Password
		}
	}
	if r.DBName == "" {
		r.DBName = c.DBName
	}
	return r
}

// Database represents the database configuration with common settings and data sources
type Database struct {
	Type         string `mapstructure:"type"`
	OutPut       bool   `mapstructure:"output"`
	MaxOpenConns int    `mapstructure:"maxOpenConns"`
	MaxIdleConns int    `mapstructure:"maxIdleConns"`
	MaxLifetime  int    `mapstructure:"maxLifeTime"`
	MaxIdleTime  int    `mapstructure:"maxIdleTime"`

	MySQL  MySQLConfig  `mapstructure:"mysql"`
	SQLite SQLiteConfig `mapstructure:"sqlite"`

	// ReplicaTables limits read-replica routing to these tables. Empty routes
	// every read to the replicas.
	ReplicaTables []string `mapstructure:"replicaTables"`
}

// Validate checks that the selected data source is complete.
func (d *Database) Validate() error {
	switch d.Type {
	case TypeMySQL:
		if d.MySQL.Host == "" || d.MySQL.User == "" || d.MySQL.DBName == "" {
			return fmt.Errorf("incomplete mysql config: host, user, and dbname are required")
		}
		for i, r := range d.MySQL.Replicas {
			if r.Host == "" {
				return fmt.Errorf("incomplete mysql replica %d: host is required", i)
			}
		}
	case TypeSQLite:
		for i, path := range d.SQLite.Replicas {
			if path == "" {
				return fmt.Errorf("sqlite replica %d: path is required", i)
			}
		}
	default:
		return fmt.Errorf("unsupported database type: %q", d.Type)
	}
	return nil
}

// GetConnMaxLifetime returns ConnMaxLifetime as time.Duration from common config
func GetConnMaxLifetime(maxLifetime int) time.Duration {
	if maxLifetime > 0 {
		return time.Duration(maxLifetime) * time.Second
	}
	return 300 * time.Second
}

// GetConnMaxIdleTime returns ConnMaxIdleTime as time.Duration from common config
func GetConnMaxIdleTime(maxIdleTime int) time.Duration {
	if maxIdleTime > 0 {
		return time.Duration(maxIdleTime) * time.Second
	}
	return 60 * time.Second
}

// buildMySQLDSN builds MySQL DSN string from configuration
func buildMySQLDSN(c MySQLConfig) string {
	port := c.Port
	if port == "" {
		port = "3306"
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, port, c.DBName)
}

var memSeq atomic.Int64

// buildSQLiteDSN builds a glebarez/sqlite DSN. WAL journal and a busy timeout
// keep the sweeps and the gateway from tripping over each other.
func buildSQLiteDSN(c SQLiteConfig) string {
	if c.Path == "" {
		return fmt.Sprintf("file:vigia-mem-%d?mode=memory&cache=shared", memSeq.Add(1))
	}
	return fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)", c.Path)
}
