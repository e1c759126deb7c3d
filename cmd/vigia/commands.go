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

package main

import (
	"fmt"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/vigia/internal/bootstrap"
	"github.com/go-arcade/vigia/internal/conf"
	"github.com/go-arcade/vigia/internal/repo"
	"github.com/go-arcade/vigia/internal/scheduler"
	"github.com/go-arcade/vigia/pkg/database"
	"github.com/go-arcade/vigia/pkg/http/jwt"
	"github.com/go-arcade/vigia/pkg/log"
	"github.com/spf13/cobra"
)

var sweepJobs = map[string]string{
	"verify":    scheduler.JobVerify,
	"reconcile": scheduler.JobReconcile,
}

// SweepCmd runs one sweep in the foreground and prints its counters.
func SweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:       "sweep <verify|reconcile>",
		Short:     "Run one verification or reconciliation sweep now",
		Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		ValidArgs: []string{"verify", "reconcile"},
		RunE: func(cmd *cobra.Command, args []string) error {
			app, cleanup, err := bootstrap.Bootstrap(configFile, initApp)
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := app.Scheduler.RunOnce(cmd.Context(), sweepJobs[args[0]])
			out, _ := sonic.ConfigDefault.MarshalIndent(stats, "", "  ")
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), string(out))
			return err
		},
	}
}

// MigrateCmd creates or upgrades the tables without starting anything else.
func MigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			appConf, err := conf.LoadConfigFile(configFile)
			if err != nil {
				return err
			}
			if _, err := log.NewLog(&appConf.Log); err != nil {
				return err
			}
			db, err := database.NewDatabase(appConf.Database)
			if err != nil {
				return err
			}
			defer func() { _ = database.Close(db) }()

			if err := repo.AutoMigrate(db); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Infow("schema is up to date", "type", appConf.Database.Type)
			return nil
		},
	}
}

// TokenCmd signs a gateway access token for a collaborator such as the chat bot.
func TokenCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "token <client-id>",
		Short: "Sign an access token for the command gateway",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			appConf, err := conf.LoadConfigFile(configFile)
			if err != nil {
				return err
			}
			token, err := jwt.GenToken(args[0], appConf.Http.Auth)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), token)
			return err
		},
	}
}
