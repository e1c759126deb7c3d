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
	"github.com/go-arcade/vigia/internal/model"
	"github.com/go-arcade/vigia/pkg/http"
	"github.com/gofiber/fiber/v2"
	"gorm.io/datatypes"
)

type configReq struct {
	GuildName               string           `json:"guildName"`
	GuildTag                string           `json:"guildTag"`
	MemberRoleRef           string           `json:"memberRoleRef"`
	AllianceName            string           `json:"allianceName"`
	AllianceTag             string           `json:"allianceTag"`
	AllianceRoleRef         string           `json:"allianceRoleRef"`
	MinTotalFame            int64            `json:"minTotalFame"`
	MinCombatFame           int64            `json:"minCombatFame"`
	ProbationaryRoleRef     string           `json:"probationaryRoleRef"`
	RegistrationChannelRef  string           `json:"registrationChannelRef"`
	LogChannelRef           string           `json:"logChannelRef"`
	ApprovalQueueChannelRef string           `json:"approvalQueueChannelRef"`
	StaffRoles              model.StaffRoles `json:"staffRoles"`
	MinReviewTier           int              `json:"minReviewTier"`
	NicknameTemplate        string           `json:"nicknameTemplate"`
	EligibilityRule         string           `json:"eligibilityRule"`
	Locale                  string           `json:"locale"`
}

func (r *configReq) toModel(communityID string) *model.CommunityConfig {
	return &model.CommunityConfig{
		CommunityId:             communityID,
		GuildName:               r.GuildName,
		GuildTag:                r.GuildTag,
		MemberRoleRef:           r.MemberRoleRef,
		AllianceName:            r.AllianceName,
		AllianceTag:             r.AllianceTag,
		AllianceRoleRef:         r.AllianceRoleRef,
		MinTotalFame:            r.MinTotalFame,
		MinCombatFame:           r.MinCombatFame,
		ProbationaryRoleRef:     r.ProbationaryRoleRef,
		RegistrationChannelRef:  r.RegistrationChannelRef,
		LogChannelRef:           r.LogChannelRef,
		ApprovalQueueChannelRef: r.ApprovalQueueChannelRef,
		StaffRoles:              datatypes.NewJSONType(r.StaffRoles),
		MinReviewTier:           r.MinReviewTier,
		NicknameTemplate:        r.NicknameTemplate,
		EligibilityRule:         r.EligibilityRule,
		Locale:                  r.Locale,
	}
}

func (rt *Router) routerCommunity(r fiber.Router) {
	community := r.Group("/communities/:cid")
	{
		community.Get("/config", rt.getConfig)  // GET /communities/:cid/config
		community.Put("/config", rt.saveConfig) // PUT /communities/:cid/config - create or replace
		community.Get("/report", rt.report)     // GET /communities/:cid/report?since=7d&recent=20
	}
}

func (rt *Router) getConfig(c *fiber.Ctx) error {
	cfg, err := rt.Repos.Community.Get(c.UserContext(), c.Params("cid"))
	if err != nil {
		return fail(c, err)
	}
	c.Locals(http.DETAIL, cfg)
	return nil
}

func (rt *Router) saveConfig(c *fiber.Ctx) error {
	var req configReq
	if err := c.BodyParser(&req); err != nil {
		return http.WithRepErr(c, http.RequestParameterParsingFailed)
	}
	cfg := req.toModel(c.Params("cid"))
	if err := rt.Repos.Community.Save(c.UserContext(), cfg); err != nil {
		return fail(c, err)
	}
	c.Locals(http.DETAIL, cfg)
	return nil
}

func (rt *Router) report(c *fiber.Ctx) error {
	since, err := querySince(c, "since")
	if err != nil {
		return http.WithRepErrMsg(c, http.BadRequest, "since must be RFC 3339 or a duration")
	}
	report, err := rt.Services.Report.Summary(c.UserContext(), c.Params("cid"), since, queryInt(c, "recent"))
	if err != nil {
		return fail(c, err)
	}
	c.Locals(http.DETAIL, report)
	return nil
}
