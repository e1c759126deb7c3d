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
	"time"

	"github.com/go-arcade/vigia/pkg/log"
	"github.com/gofiber/fiber/v2"
)

// AccessLogFormat logs one structured line per request.
func AccessLogFormat(conf *Http) fiber.Handler {
	// 不需要记录日志的路径
	excludedPaths := map[string]bool{
		"/health":  true,
		"/version": true,
	}

	return func(c *fiber.Ctx) error {
		if !conf.AccessLog || excludedPaths[c.Path()] {
			return c.Next()
		}

		start := time.Now()
		err := c.Next()

		log.Infow("HTTP request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"ip", c.IP(),
			"request_id", c.Locals(RequestIDKey),
			"latency", time.Since(start).String(),
		)
		return err
	}
}
