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
	"context"
	"time"

	"github.com/go-arcade/vigia/internal/model"
	"github.com/go-arcade/vigia/internal/service"
	"github.com/go-arcade/vigia/pkg/http"
	"github.com/gofiber/fiber/v2"
)

type reviewReq struct {
	ReviewerId string `json:"reviewerId"`
	Reason     string `json:"reason"`
}

// queueEntry is what staff see of a request. The proof token stays with the
// requester.
type queueEntry struct {
	RequestId       string              `json:"requestId"`
	MemberId        string              `json:"memberId"`
	ClaimedNickname string              `json:"claimedNickname"`
	ExternalId      string              `json:"externalId,omitempty"`
	Status          model.RequestStatus `json:"status"`
	Affiliation     model.Affiliation   `json:"affiliation"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func toQueueEntries(reqs []*model.VerificationRequest) []queueEntry {
	entries := make([]queueEntry, 0, len(reqs))
	for _, req := range reqs {
		entries = append(entries, queueEntry{
			RequestId:       req.RequestId,
			MemberId:        req.MemberId,
			ClaimedNickname: req.ClaimedNickname,
			ExternalId:      req.ExternalId,
			Status:          req.Status,
			Affiliation:     req.Affiliation,
			CreatedAt:       req.CreatedAt,
			UpdatedAt:       req.UpdatedAt,
		})
	}
	return entries
}

func (rt *Router) routerApproval(r fiber.Router) {
	r.Get("/communities/:cid/approvals", rt.listApprovals) // GET /communities/:cid/approvals - staff queue, oldest first

	approval := r.Group("/approvals/:rid")
	{
		approval.Post("/approve", rt.approve) // POST /approvals/:rid/approve - promote on a reviewer's word
		approval.Post("/reject", rt.reject)   // POST /approvals/:rid/reject - drop with a reason
	}
}

func (rt *Router) listApprovals(c *fiber.Ctx) error {
	reqs, err := rt.Services.Arbitration.ListPending(c.UserContext(), c.Params("cid"))
	if err != nil {
		return fail(c, err)
	}
	c.Locals(http.DETAIL, fiber.Map{
		"requests": toQueueEntries(reqs),
		"total":    len(reqs),
	})
	return nil
}

// reviewer resolves the staff tier of reviewerID in the community the
// request belongs to.
func (rt *Router) reviewer(ctx context.Context, requestID, reviewerID string) (service.Reviewer, error) {
	req, err := rt.Repos.Verification.GetByRequestID(ctx, requestID)
	if err != nil {
		return service.Reviewer{}, err
	}
	cfg, err := rt.Repos.Community.Get(ctx, req.CommunityId)
	if err != nil {
		return service.Reviewer{}, err
	}
	tier, err := rt.Tiers.ReviewerTier(ctx, cfg, reviewerID)
	if err != nil {
		return service.Reviewer{}, err
	}
	return service.Reviewer{ID: reviewerID, Tier: tier}, nil
}

func (rt *Router) approve(c *fiber.Ctx) error {
	var req reviewReq
	if err := c.BodyParser(&req); err != nil || req.ReviewerId == "" {
		return http.WithRepErrMsg(c, http.BadRequest, "reviewerId is required")
	}
	reviewer, err := rt.reviewer(c.UserContext(), c.Params("rid"), req.ReviewerId)
	if err != nil {
		return fail(c, err)
	}

	res, err := rt.Services.Arbitration.Approve(c.UserContext(), c.Params("rid"), reviewer)
	if err != nil {
		return fail(c, err)
	}
	c.Locals(http.DETAIL, res)
	return nil
}

func (rt *Router) reject(c *fiber.Ctx) error {
	var req reviewReq
	if err := c.BodyParser(&req); err != nil || req.ReviewerId == "" {
		return http.WithRepErrMsg(c, http.BadRequest, "reviewerId is required")
	}
	reviewer, err := rt.reviewer(c.UserContext(), c.Params("rid"), req.ReviewerId)
	if err != nil {
		return fail(c, err)
	}

	if err := rt.Services.Arbitration.Reject(c.UserContext(), c.Params("rid"), reviewer, req.Reason); err != nil {
		return fail(c, err)
	}
	return http.WithRepOK(c)
}
