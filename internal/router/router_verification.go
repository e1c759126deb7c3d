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

package router

import (
	"github.com/go-arcade/vigia/internal/service"
	"github.com/go-arcade/vigia/pkg/http"
	"github.com/gofiber/fiber/v2"
)

type registerReq struct {
	MemberId string `json:"memberId"`
	Nickname string `json:"nickname"`
}

func (rt *Router) routerVerification(r fiber.Router) {
	community := r.Group("/communities/:cid")
	{
		community.Post("/registrations", rt.register)     // POST /communities/:cid/registrations - claim an in-game name
		community.Post("/members/:mid/verify", rt.verify) // POST /communities/:cid/members/:mid/verify - check proof now
		community.Delete("/members/:mid", rt.memberLeft)  // DELETE /communities/:cid/members/:mid - member left the server
	}
}

func (rt *Router) register(c *fiber.Ctx) error {
	var req registerReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErr(c, http.RequestParameterParsingFailed)
	}
	res, err := rt.Services.Verification.Register(c.UserContext(), service.RegisterCmd{
		CommunityID: c.Params("cid"),
		MemberID:    req.MemberId,
		Nickname:    req.Nickname,
	})
	if err != nil {
		return fail(c, err)
	}
	c.Locals(http.DETAIL, res)
	return nil
}

func (rt *Router) verify(c *fiber.Ctx) error {
	res, err := rt.Services.Verification.VerifyNow(c.UserContext(), c.Params("cid"), c.Params("mid"))
	if err != nil {
		return fail(c, err)
	}
	switch res.Outcome {
	case service.OutcomeVerified, service.OutcomeAlreadyVerified:
		c.Locals(http.DETAIL, res)
		return nil
	default:
		return http.WithRepCode(c, http.ProofNotSatisfied, res.Message, res)
	}
}

func (rt *Router) memberLeft(c *fiber.Ctx) error {
	if err := rt.Services.Verification.MemberLeft(c.UserContext(), c.Params("cid"), c.Params("mid")); err != nil {
		return fail(c, err)
	}
	return http.WithRepOK(c)
}
