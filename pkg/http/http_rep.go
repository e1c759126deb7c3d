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
	"github.com/gofiber/fiber/v2"
)

// Response is the envelope for every non-error gateway reply. Status is the
// HTTP status and never serialized.
type Response struct {
	Status int    `json:"-"`
	Code   int    `json:"code"`
	Detail any    `json:"detail,omitempty"`
	Msg    string `json:"msg"`
}

// with copies r with detail attached; an empty msg keeps the canned one.
func (r *Response) with(msg string, detail any) Response {
	out := *r
	out.Detail = detail
	if msg != "" {
		out.Msg = msg
	}
	return out
}

func reply(c *fiber.Ctx, rep Response) error {
	if rep.Status != 0 {
		c.Status(rep.Status)
	}
	return c.JSON(rep)
}

// WithRepJSON replies Success carrying detail.
func WithRepJSON(c *fiber.Ctx, detail any) error {
	return reply(c, Success.with("", detail))
}

// WithRepCode replies an outcome that is not an error but not a success
// either, such as a verification still waiting on proof.
func WithRepCode(c *fiber.Ctx, rep *Response, msg string, detail any) error {
	return reply(c, rep.with(msg, detail))
}

// WithRepOK replies Success without detail.
func WithRepOK(c *fiber.Ctx) error {
	return reply(c, Success.with("", nil))
}
