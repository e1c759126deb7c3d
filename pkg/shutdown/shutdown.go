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

package shutdown

import (
	"sync"

	"github.com/go-arcade/vigia/pkg/http"
	"github.com/gofiber/fiber/v2"
)

// Manager manages graceful shutdown state
type Manager struct {
	mu           sync.RWMutex
	shuttingDown bool
	inflight     sync.WaitGroup
	done         chan struct{}
}

// NewManager creates a new shutdown manager
func NewManager() *Manager {
	return &Manager{done: make(chan struct{})}
}

// IsShuttingDown returns true if the service is shutting down
func (m *Manager) IsShuttingDown() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.shuttingDown
}

// Shutdown triggers graceful shutdown.
// Returns true if shutdown was triggered, false if already shutting down
func (m *Manager) Shutdown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.shuttingDown {
		return false
	}
	m.shuttingDown = true
	close(m.done)
	return true
}

// Done is closed once Shutdown has been called.
func (m *Manager) Done() <-chan struct{} {
	return m.done
}

// Acquire registers one unit of in-flight work. It returns false once
// shutdown has begun; callers must Release after a true result.
func (m *Manager) Acquire() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.shuttingDown {
		return false
	}
	m.inflight.Add(1)
	return true
}

func (m *Manager) Release() {
	m.inflight.Done()
}

// Drain blocks until all acquired work is released.
func (m *Manager) Drain() {
	m.inflight.Wait()
}

// Middleware rejects new requests with 503 once shutdown has begun and
// tracks the ones already admitted.
func (m *Manager) Middleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !m.Acquire() {
			c.Set(fiber.HeaderConnection, "close")
			return http.WithRepErr(c, http.ShuttingDown)
		}
		defer m.Release()
		return c.Next()
	}
}
