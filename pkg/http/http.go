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

package http

import (
	"fmt"
	"time"
)

type Http struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	ContextPath     string        `mapstructure:"contextPath"`
	AccessLog       bool          `mapstructure:"accessLog"`
	BodyLimit       int           `mapstructure:"bodyLimit"`
	ReadTimeout     time.Duration `mapstructure:"readTimeout"`
	WriteTimeout    time.Duration `mapstructure:"writeTimeout"`
	IdleTimeout     time.Duration `mapstructure:"idleTimeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdownTimeout"`
	Auth            Auth          `mapstructure:"auth"`
}

// Auth configures the bearer tokens presented by the chat collaborator.
type Auth struct {
	SecretKey    string        `mapstructure:"secretKey"`
	Issuer       string        `mapstructure:"issuer"`
	AccessExpire time.Duration `mapstructure:"accessExpire"`
}

func (h *Http) SetDefaults() {
	if h.Host == "" {
		h.Host = "0.0.0.0"
	}
	if h.Port == 0 {
		h.Port = 8080
	}
	if h.ContextPath == "" {
		h.ContextPath = "/api/v1"
	}
	if h.BodyLimit <= 0 {
		h.BodyLimit = 1 << 20
	}
	if h.ReadTimeout <= 0 {
		h.ReadTimeout = 10 * time.Second
	}
	if h.WriteTimeout <= 0 {
		h.WriteTimeout = 30 * time.Second
	}
	if h.IdleTimeout <= 0 {
		h.IdleTimeout = 60 * time.Second
	}
	if h.ShutdownTimeout <= 0 {
		h.ShutdownTimeout = 15 * time.Second
	}
	if h.Auth.Issuer == "" {
		h.Auth.Issuer = "vigia"
	}
	if h.Auth.AccessExpire <= 0 {
		h.Auth.AccessExpire = 24 * time.Hour
	}
}

func (h *Http) Validate() error {
	if h.Port <= 0 || h.Port > 65535 {
		return fmt.Errorf("invalid http port: %d", h.Port)
	}
	if len(h.Auth.SecretKey) < 16 {
		return fmt.Errorf("http.auth.secretKey must be at least 16 bytes")
	}
	return nil
}

// Addr returns host:port.
func (h *Http) Addr() string {
	return fmt.Sprintf("%s:%d", h.Host, h.Port)
}
