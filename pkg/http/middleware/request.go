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

package middleware

import (
	"github.com/go-arcade/vigia/pkg/http"
	"github.com/go-arcade/vigia/pkg/id"
	"github.com/gofiber/fiber/v2"
)

const headerRequestID = "X-Request-Id"

// RequestMiddleware keeps an inbound X-Request-Id or mints one.
func RequestMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		requestId := c.Get(headerRequestID)
		if requestId == "" {
			requestId = id.GetUUID()
		}
		c.Set(headerRequestID, requestId)
		c.Locals(http.RequestIDKey, requestId)
		return c.Next()
	}
}
