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

package discord

import (
	"errors"
	"time"
)

const defaultBaseURL = "https://discord.com/api/v10"

// Conf is the [discord] section.
type Conf struct {
	BaseURL   string        `mapstructure:"baseURL"`
	Token     string        `mapstructure:"token"`
	Timeout   time.Duration `mapstructure:"timeout"`
	Retries   int           `mapstructure:"retries"`
	UserAgent string        `mapstructure:"userAgent"`
}

func (c *Conf) SetDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = defaultBaseURL
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
	if c.UserAgent == "" {
		c.UserAgent = "DiscordBot (https://github.com/go-arcade/vigia, 1.0)"
	}
}

func (c *Conf) Validate() error {
	if c.Token == "" {
		return errors.New("discord: bot token is required")
	}
	return nil
}
