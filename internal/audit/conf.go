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

// Package audit mirrors recruitment log entries onto a RabbitMQ topic
// exchange so other systems can follow community membership changes.
package audit

import (
	"errors"
	"time"
)

// Conf is the [audit] section.
type Conf struct {
	Enabled       bool          `mapstructure:"enabled"`
	URL           string        `mapstructure:"url"`
	Exchange      string        `mapstructure:"exchange"`
	RoutingPrefix string        `mapstructure:"routingPrefix"`
	Timeout       time.Duration `mapstructure:"timeout"`
}

func (c *Conf) SetDefaults() {
	if c.Exchange == "" {
		c.Exchange = "vigia.audit"
	}
	if c.RoutingPrefix == "" {
		c.RoutingPrefix = "recruitment"
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
}

func (c *Conf) Validate() error {
	if c.Enabled && c.URL == "" {
		return errors.New("audit: url is required when enabled")
	}
	return nil
}
