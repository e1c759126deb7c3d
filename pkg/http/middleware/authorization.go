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
	"errors"
	"strings"

	"github.com/go-arcade/vigia/pkg/http"
	"github.com/go-arcade/vigia/pkg/http/jwt"
	"github.com/go-arcade/vigia/pkg/log"
	"github.com/gofiber/fiber/v2"
	gojwt "github.com/golang-jwt/jwt/v5"
)

// AuthorizationMiddleware 认证中间件
// It accepts "Authorization: Bearer <token>" signed with auth.SecretKey and
// stores the claims under http.ClaimsKey.
func AuthorizationMiddleware(auth http.Auth) fiber.Handler {
	return func(c *fiber.Ctx) error {
		aToken := c.Get(fiber.HeaderAuthorization)
		if aToken == "" {
			return http.WithRepErr(c, http.AuthorizationEmpty)
		}

		parts := strings.SplitN(aToken, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
			return http.WithRepErr(c, http.TokenFormatIncorrect)
		}

		claims, err := jwt.ParseToken(parts[1], auth)
		if err != nil {
			if errors.Is(err, gojwt.ErrTokenExpired) {
				return http.WithRepErr(c, http.TokenExpired)
			}
			log.Warnw("parse token failed", "error", err, "path", c.Path())
			return http.WithRepErr(c, http.InvalidToken)
		}

		c.Locals(http.ClaimsKey, claims)
		return c.Next()
	}
}
