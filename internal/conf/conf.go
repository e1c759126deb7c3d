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

// Package conf loads the process configuration from a TOML file with
// VIGIA_ prefixed environment overrides.
package conf

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"github.com/go-arcade/vigia/internal/albion"
	"github.com/go-arcade/vigia/internal/audit"
	"github.com/go-arcade/vigia/internal/discord"
	"github.com/go-arcade/vigia/internal/model"
	"github.com/go-arcade/vigia/internal/notify"
	"github.com/go-arcade/vigia/internal/scheduler"
	"github.com/go-arcade/vigia/pkg/cache"
	"github.com/go-arcade/vigia/pkg/database"
	"github.com/go-arcade/vigia/pkg/duration"
	"github.com/go-arcade/vigia/pkg/http"
	"github.com/go-arcade/vigia/pkg/log"
	"github.com/go-arcade/vigia/pkg/metrics"
	"github.com/go-arcade/vigia/pkg/pprof"
	"github.com/go-arcade/vigia/pkg/trace"
	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"
)

const envPrefix = "VIGIA"

type AppConfig struct {
	Log      log.Conf              `mapstructure:"log"`
	Http     http.Http             `mapstructure:"http"`
	Database database.Database     `mapstructure:"database"`
	Redis    cache.Redis           `mapstructure:"redis"`
	Albion   albion.Conf           `mapstructure:"albion"`
	Discord  discord.Conf          `mapstructure:"discord"`
	Notify   notify.Conf           `mapstructure:"notify"`
	Schedule scheduler.Conf        `mapstructure:"schedule"`
	Metrics  metrics.MetricsConfig `mapstructure:"metrics"`
	Trace    trace.Conf            `mapstructure:"trace"`
	Pprof    pprof.Conf            `mapstructure:"pprof"`
	Audit    audit.Conf            `mapstructure:"audit"`
}

// secrets are bound explicitly so they can live only in the environment,
// e.g. VIGIA_DISCORD_TOKEN.
var secrets = []string{
	"discord.token",
	"http.auth.secretKey",
	"database.mysql.password",
	"redis.password",
	"audit.url",
}

// SetDefaults fills every section's defaults.
func (c *AppConfig) SetDefaults() {
	def := log.SetDefaults()
	if c.Log.Output == "" {
		c.Log.Output = def.Output
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Level
	}
	if c.Log.Format == "" {
		c.Log.Format = def.Format
	}
	if c.Log.Filename == "" {
		c.Log.Filename = def.Filename
	}
	if c.Database.Type == "" {
		c.Database.Type = database.TypeSQLite
	}
	if len(c.Database.ReplicaTables) == 0 {
		// only the audit trail tolerates replica lag
		c.Database.ReplicaTables = []string{model.RecruitmentLog{}.TableName()}
	}
	if c.Redis.Mode == "" {
		c.Redis.Mode = cache.ModeDisabled
	}
	c.Http.SetDefaults()
	c.Albion.SetDefaults()
	c.Discord.SetDefaults()
	c.Notify.SetDefaults()
	c.Schedule.SetDefaults()
	c.Trace.SetDefaults()
	c.Pprof.SetDefaults()
	c.Audit.SetDefaults()
}

// Validate checks every section and joins the failures.
func (c *AppConfig) Validate() error {
	return errors.Join(
		c.Log.Validate(),
		c.Http.Validate(),
		c.Database.Validate(),
		c.Redis.Validate(),
		c.Albion.Validate(),
		c.Discord.Validate(),
		c.Schedule.Validate(),
		c.Trace.Validate(),
		c.Audit.Validate(),
	)
}

var (
	cfg  AppConfig
	once sync.Once
)

// NewConf loads the file once per process and panics on failure.
func NewConf(confFile string) AppConfig {
	once.Do(func() {
		var err error
		cfg, err = LoadConfigFile(confFile)
		if err != nil {
			panic(fmt.Sprintf("load conf file error: %s", err))
		}
	})
	return cfg
}

// LoadConfigFile reads confFile, or conf.d/config.toml when it is empty,
// applies environment overrides, defaults and validation.
func LoadConfigFile(confFile string) (AppConfig, error) {
	v, err := newViper(confFile)
	if err != nil {
		return AppConfig{}, err
	}
	return decode(v)
}

// Watch reloads the file on change and hands the new configuration to
// onChange. Only settings that are safe to swap live are applied by callers.
func Watch(confFile string, onChange func(AppConfig)) error {
	v, err := newViper(confFile)
	if err != nil {
		return err
	}
	v.OnConfigChange(func(e fsnotify.Event) {
		next, err := decode(v)
		if err != nil {
			log.Warnw("configuration reload rejected", "file", e.Name, "error", err)
			return
		}
		log.Infow("configuration reloaded", "file", e.Name)
		onChange(next)
	})
	v.WatchConfig()
	return nil
}

func newViper(confFile string) (*viper.Viper, error) {
	v := viper.New()
	if confFile != "" {
		v.SetConfigFile(confFile)
	} else {
		v.AddConfigPath("./conf.d")
		v.SetConfigName("config")
	}
	v.SetConfigType("toml")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	for _, key := range secrets {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind env %s: %w", key, err)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read configuration file: %w", err)
	}
	return v, nil
}

func decode(v *viper.Viper) (AppConfig, error) {
	var c AppConfig
	hook := viper.DecodeHook(mapstructure.ComposeDecodeHookFunc(
		duration.DecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	))
	if err := v.Unmarshal(&c, hook); err != nil {
		return c, fmt.Errorf("failed to unmarshal configuration file: %w", err)
	}
	c.SetDefaults()
	if err := c.Validate(); err != nil {
		return c, fmt.Errorf("invalid configuration: %w", err)
	}
	return c, nil
}
