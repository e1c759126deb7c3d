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

// Package pprof serves the runtime profiles on a private listener, away from
// the command gateway.
package pprof

import (
	"context"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/go-arcade/vigia/pkg/log"
	"github.com/go-arcade/vigia/pkg/safe"
	"github.com/gofiber/fiber/v2"
	fiberpprof "github.com/gofiber/fiber/v2/middleware/pprof"
)

// Conf is the [pprof] section. Profiles are served under Prefix + /debug/pprof/.
type Conf struct {
	Enable bool   `mapstructure:"enable"`
	Host   string `mapstructure:"host"`
	Port   int    `mapstructure:"port"`
	Prefix string `mapstructure:"prefix"`
}

func (c *Conf) SetDefaults() {
	if c.Host == "" {
		c.Host = "127.0.0.1"
	}
	if c.Port == 0 {
		c.Port = 6060
	}
	c.Prefix = strings.TrimRight(c.Prefix, "/")
}

type Server struct {
	conf Conf

	mu  sync.Mutex
	app *fiber.App
	ln  net.Listener
}

func NewServer(conf Conf) *Server {
	conf.SetDefaults()
	return &Server{conf: conf}
}

// Start binds the listener and serves in the background. A disabled server
// is a no-op.
func (s *Server) Start() error {
	if !s.conf.Enable {
		log.Info("pprof server is disabled")
		return nil
	}

	addr := fmt.Sprintf("%s:%d", s.conf.Host, s.conf.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("pprof listen %s: %w", addr, err)
	}

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use(fiberpprof.New(fiberpprof.Config{Prefix: s.conf.Prefix}))

	s.mu.Lock()
	s.app, s.ln = app, ln
	s.mu.Unlock()

	safe.Go(func() {
		log.Infow("pprof server started", "address", ln.Addr().String(), "path", s.conf.Prefix+"/debug/pprof/")
		if err := app.Listener(ln); err != nil {
			log.Errorw("pprof server failed", "error", err)
		}
	})
	return nil
}

// Addr is the bound address, empty before Start.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return ""
	}
	return s.ln.Addr().String()
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	app := s.app
	s.mu.Unlock()
	if app == nil {
		return nil
	}
	return app.ShutdownWithContext(ctx)
}
