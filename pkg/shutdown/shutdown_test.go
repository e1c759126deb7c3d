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
	"io"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestManager_ShutdownOnce(t *testing.T) {
	m := NewManager()
	assert.False(t, m.IsShuttingDown())
	assert.True(t, m.Shutdown())
	assert.False(t, m.Shutdown())
	assert.True(t, m.IsShuttingDown())

	select {
	case <-m.Done():
	default:
		t.Fatal("done not closed")
	}
	assert.False(t, m.Acquire())
}

func TestManager_Middleware(t *testing.T) {
	m := NewManager()
	app := fiber.New()
	app.Use(m.Middleware())
	app.Get("/", func(c *fiber.Ctx) error { return c.SendString("ok") })

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	m.Shutdown()
	resp, err = app.Test(httptest.NewRequest(fiber.MethodGet, "/", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusServiceUnavailable, resp.StatusCode)
	body, _ := io.ReadAll(resp.Body)
	assert.Contains(t, string(body), "shutting down")
}

func TestManager_DrainWaitsForInflight(t *testing.T) {
	m := NewManager()
	require.True(t, m.Acquire())

	var drained atomic.Bool
	go func() {
		m.Drain()
		drained.Store(true)
	}()

	m.Shutdown()
	time.Sleep(20 * time.Millisecond)
	assert.False(t, drained.Load())

	m.Release()
	assert.Eventually(t, drained.Load, time.Second, 5*time.Millisecond)
}
