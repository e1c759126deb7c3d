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

// ResponseErr is the envelope for a failed gateway reply.
type ResponseErr struct {
	ErrCode int    `json:"errCode"`
	ErrMsg  string `json:"errMsg"`
	Reason  string `json:"reason,omitempty"`
	Path    string `json:"path,omitempty"`
}

// WithRepErr writes a failure with the canned message of rep.
func WithRepErr(c *fiber.Ctx, rep *Response) error {
	return WithRepErrMsg(c, rep, rep.Msg)
}

// WithRepErrMsg writes a failure using rep's status and code with a custom message.
func WithRepErrMsg(c *fiber.Ctx, rep *Response, errMsg string) error {
	return WithRepErrReason(c, rep, errMsg, "")
}

// WithRepErrReason is WithRepErrMsg plus the underlying error text.
func WithRepErrReason(c *fiber.Ctx, rep *Response, errMsg, reason string) error {
	status := rep.Status
	if status == 0 {
		status = fiber.StatusInternalServerError
	}
	return c.Status(status).JSON(ResponseErr{
		ErrCode: rep.Code,
		ErrMsg:  errMsg,
		Reason:  reason,
		Path:    c.Path(),
	})
}
