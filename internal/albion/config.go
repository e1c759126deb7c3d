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

package albion

import (
	"fmt"
	"time"
)

var regionURLs = map[string]string{
	"americas": "https://gameinfo.albiononline.com/api/gameinfo",
	"europe":   "https://gameinfo-ams.albiononline.com/api/gameinfo",
	"asia":     "https://gameinfo-sgp.albiononline.com/api/gameinfo",
}

// Conf is the [albion] section.
type Conf struct {
	Region     string        `mapstructure:"region"`
	BaseURL    string        `mapstructure:"baseURL"`
	Timeout    time.Duration `mapstructure:"timeout"`
	Retries    int           `mapstructure:"retries"`
	Backoff    time.Duration `mapstructure:"backoff"`
	MaxBackoff time.Duration `mapstructure:"maxBackoff"`
	UserAgent  string        `mapstructure:"userAgent"`
}

func (c *Conf) SetDefaults() {
	if c.Region == "" {
		c.Region = "americas"
	}
	if c.BaseURL == "" {
		c.BaseURL = regionURLs[c.Region]
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.Retries <= 0 {
		c.Retries = 3
	}
	if c.Backoff <= 0 {
		c.Backoff = 500 * time.Millisecond
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = 10 * time.Second
	}
	if c.UserAgent == "" {
		c.UserAgent = "vigia"
	}
}

func (c *Conf) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("albion: unknown region %q and no baseURL", c.Region)
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("albion: timeout must be positive")
	}
	return nil
}
