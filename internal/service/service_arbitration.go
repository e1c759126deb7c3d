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

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-arcade/vigia/internal/eligibility"
	"github.com/go-arcade/vigia/internal/locale"
	"github.com/go-arcade/vigia/internal/model"
	"github.com/go-arcade/vigia/internal/notify"
	"github.com/go-arcade/vigia/internal/privilege"
	"github.com/go-arcade/vigia/internal/repo"
	"github.com/go-arcade/vigia/pkg/log"
)

// ErrReviewerNotAllowed is wrapped together with model.ErrAuthorizationDenied
// when the reviewer's tier is below the community's minimum.
var ErrReviewerNotAllowed = errors.New("reviewer tier too low")

// Reviewer is a staff member acting on the queue. Tier has already been
// resolved from the reviewer's roles.
type Reviewer struct {
	ID   string
	Tier int
}

// ArbitrationService lets staff approve or reject queued registrations.
type ArbitrationService struct {
	promoter
	communities repo.ICommunityRepository
	directory   Directory
}

func NewArbitrationService(repos *repo.Repositories, directory Directory, mutator privilege.Mutator,
	notifier notify.Notifier) *ArbitrationService {
	return &ArbitrationService{
		promoter: promoter{
			requests: repos.Verification,
			logs:     repos.RecruitmentLog,
			mutator:  mutator,
			notifier: notifier,
		},
		communities: repos.Community,
		directory:   directory,
	}
}

// ListPending returns queued and pending requests of a community, oldest
// first.
func (as *ArbitrationService) ListPending(ctx context.Context, communityID string) ([]*model.VerificationRequest, error) {
	if communityID == "" {
		return nil, fmt.Errorf("%w: community is required", model.ErrInvalidInput)
	}
	return as.requests.ListQueue(ctx, communityID)
}

func (as *ArbitrationService) authorize(cfg *model.CommunityConfig, reviewer Reviewer) error {
	if reviewer.ID == "" || reviewer.Tier < cfg.MinReviewTier || reviewer.Tier < model.MinStaffTier {
		return fmt.Errorf("%w: %w: tier %d, community requires %d",
			model.ErrAuthorizationDenied, ErrReviewerNotAllowed, reviewer.Tier, cfg.MinReviewTier)
	}
	return nil
}

// Approve promotes a queued or pending request on a reviewer's word. The
// fame thresholds are waived, the guild or alliance membership is not.
func (as *ArbitrationService) Approve(ctx context.Context, requestID string, reviewer Reviewer) (*Result, error) {
	req, err := as.requests.GetByRequestID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	cfg, err := as.communities.Get(ctx, req.CommunityId)
	if err != nil {
		return nil, err
	}
	if err := as.authorize(cfg, reviewer); err != nil {
		return nil, err
	}
	if req.Status == model.StatusVerified || req.Status == model.StatusRevoking {
		return nil, fmt.Errorf("%w: request %s", model.ErrAlreadyVerified, requestID)
	}

	profile, err := as.directory.LookupByName(ctx, req.ClaimedNickname)
	if errors.Is(err, model.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", model.ErrProfileGone, req.ClaimedNickname)
	}
	if err != nil {
		return nil, err
	}
	affiliation := eligibility.MatchAffiliation(profile, cfg)
	if affiliation == model.AffiliationNone {
		return nil, fmt.Errorf("%w: %s must join the guild in-game first", model.ErrNotAffiliated, profile.Name)
	}

	res, err := as.promote(ctx, cfg, req, profile, affiliation,
		[]model.RequestStatus{model.StatusPending, model.StatusQueued}, model.ActionApprovedManual, reviewer.ID)
	if err != nil {
		return nil, err
	}
	log.Infow("registration approved", "requestId", requestID, "reviewerId", reviewer.ID, "memberId", req.MemberId)
	return res, nil
}

// Reject drops a queued or pending request. The recruitment log keeps the
// record.
func (as *ArbitrationService) Reject(ctx context.Context, requestID string, reviewer Reviewer, reason string) error {
	req, err := as.requests.GetByRequestID(ctx, requestID)
	if err != nil {
		return err
	}
	cfg, err := as.communities.Get(ctx, req.CommunityId)
	if err != nil {
		return err
	}
	if err := as.authorize(cfg, reviewer); err != nil {
		return err
	}

	deleted, err := as.requests.DeleteIfStatus(ctx, requestID, model.StatusPending, model.StatusQueued)
	if err != nil {
		return err
	}
	if !deleted {
		current, gerr := as.requests.GetByRequestID(ctx, requestID)
		if gerr != nil {
			return gerr
		}
		return fmt.Errorf("%w: request %s is %s", model.ErrInvalidTransition, requestID, current.Status)
	}

	reason = strings.TrimSpace(reason)
	as.audit(ctx, req, model.ActionRejectedManual, reviewer.ID, reason)
	log.Infow("registration rejected", "requestId", requestID, "reviewerId", reviewer.ID, "memberId", req.MemberId, "reason", reason)

	if reason != "" {
		as.dm(ctx, cfg, req.MemberId, "member.rejected_reason", locale.Args{"Nickname": req.ClaimedNickname, "Reason": reason})
	} else {
		as.dm(ctx, cfg, req.MemberId, "member.rejected", locale.Args{"Nickname": req.ClaimedNickname})
	}
	as.staff(ctx, cfg, "staff.rejected", locale.Args{"ReviewerID": reviewer.ID, "MemberID": req.MemberId, "Nickname": req.ClaimedNickname})
	return nil
}
