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

// Package service holds the verification, arbitration, reconciliation and
// reporting workflows. Every state change goes through a conditional
// repository transition; chat-platform calls happen before the transition
// that records them.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-arcade/vigia/internal/locale"
	"github.com/go-arcade/vigia/internal/model"
	"github.com/go-arcade/vigia/internal/notify"
	"github.com/go-arcade/vigia/internal/privilege"
	"github.com/go-arcade/vigia/internal/repo"
	"github.com/go-arcade/vigia/pkg/log"
)

// Directory resolves claimed in-game names.
type Directory interface {
	// LookupByName returns the exact, case-insensitive match for name.
	// Errors wrap model.ErrNotFound or model.ErrInconclusive.
	LookupByName(ctx context.Context, name string) (*model.Profile, error)
}

// Outcome is what a single verification attempt ended with.
type Outcome string

const (
	OutcomePending         Outcome = "pending"
	OutcomeQueued          Outcome = "queued"
	OutcomeVerified        Outcome = "verified"
	OutcomeAlreadyVerified Outcome = "already_verified"
	OutcomeProofMissing    Outcome = "proof_missing"
	OutcomeNotAffiliated   Outcome = "not_affiliated"
)

// Result is returned to the caller of a verification operation.
type Result struct {
	RequestID   string              `json:"requestId"`
	Status      model.RequestStatus `json:"status"`
	Outcome     Outcome             `json:"outcome"`
	ProofToken  string              `json:"proofToken,omitempty"`
	Affiliation model.Affiliation   `json:"affiliation,omitempty"`
	Message     string              `json:"message"`
}

// Options tunes the sweeps.
type Options struct {
	// Concurrency bounds how many communities a sweep works on at once.
	Concurrency int
	// MemberTimeout bounds the work on one member. It runs detached from the
	// sweep's cancellation so a stopped sweep never leaves a member half done.
	MemberTimeout time.Duration
}

func (o Options) concurrency() int {
	if o.Concurrency <= 0 {
		return 4
	}
	return o.Concurrency
}

// memberContext keeps ctx's values but not its cancellation.
func (o Options) memberContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := o.MemberTimeout
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return context.WithTimeout(context.WithoutCancel(ctx), timeout)
}

// promoter performs the privilege side of a promotion and records it.
// Shared by automatic verification and staff approval.
type promoter struct {
	requests repo.IVerificationRepository
	logs     repo.IRecruitmentLogRepository
	mutator  privilege.Mutator
	notifier notify.Notifier
}

// promote grants the target role, then moves req from one of `from` to
// VERIFIED. A failed grant leaves the request untouched. Revoking the
// probationary role and renaming are best effort.
func (p *promoter) promote(ctx context.Context, cfg *model.CommunityConfig, req *model.VerificationRequest,
	profile *model.Profile, affiliation model.Affiliation, from []model.RequestStatus,
	action model.ActionKind, reviewerID string) (*Result, error) {

	role := cfg.RoleFor(affiliation)
	if err := p.mutator.Grant(ctx, cfg.CommunityId, req.MemberId, []string{role}); err != nil {
		if errors.Is(err, model.ErrAuthorizationDenied) {
			p.audit(ctx, req, model.ActionPrivilegeDenied, reviewerID, "grant "+role+": "+err.Error())
			p.staff(ctx, cfg, "staff.grant_denied", locale.Args{"MemberID": req.MemberId})
		}
		return nil, fmt.Errorf("grant role to %s: %w", req.MemberId, err)
	}

	if cfg.ProbationaryRoleRef != "" {
		if err := p.mutator.Revoke(ctx, cfg.CommunityId, req.MemberId, []string{cfg.ProbationaryRoleRef}); err != nil {
			log.Warnw("failed to remove probationary role", "communityId", cfg.CommunityId, "memberId", req.MemberId, "error", err)
			if errors.Is(err, model.ErrAuthorizationDenied) {
				p.audit(ctx, req, model.ActionPrivilegeDenied, reviewerID, "revoke "+cfg.ProbationaryRoleRef+": "+err.Error())
			}
			p.staff(ctx, cfg, "staff.probation_kept", locale.Args{"MemberID": req.MemberId, "Error": err.Error()})
		}
	}
	label := cfg.Label(profile.Name, profile)
	if err := p.mutator.Rename(ctx, cfg.CommunityId, req.MemberId, label); err != nil {
		log.Warnw("failed to rename member", "communityId", cfg.CommunityId, "memberId", req.MemberId, "label", label, "error", err)
		if errors.Is(err, model.ErrAuthorizationDenied) {
			p.audit(ctx, req, model.ActionPrivilegeDenied, reviewerID, "rename: "+err.Error())
		}
		p.staff(ctx, cfg, "staff.rename_failed", locale.Args{"MemberID": req.MemberId, "Label": label, "Error": err.Error()})
	}

	updates := map[string]any{
		"proof_token":      nil,
		"affiliation":      affiliation,
		"external_id":      profile.ID,
		"claimed_nickname": profile.Name,
	}
	won, err := p.requests.Transition(ctx, req.RequestId, from, model.StatusVerified, updates)
	if err != nil {
		log.Errorw("privileges granted but request was not stored as verified",
			"inconsistent", true, "requestId", req.RequestId, "memberId", req.MemberId, "error", err)
		return nil, err
	}
	if !won {
		current, gerr := p.requests.GetByRequestID(ctx, req.RequestId)
		if gerr == nil && current.Status == model.StatusVerified {
			return &Result{
				RequestID: req.RequestId,
				Status:    model.StatusVerified,
				Outcome:   OutcomeAlreadyVerified,
				Message:   locale.T(cfg.Locale, "member.already_verified", nil),
			}, nil
		}
		log.Errorw("privileges granted but request changed concurrently",
			"inconsistent", true, "requestId", req.RequestId, "memberId", req.MemberId)
		return nil, fmt.Errorf("%w: request %s changed during promotion", model.ErrInvalidTransition, req.RequestId)
	}

	p.audit(ctx, req, action, reviewerID, "")
	p.staff(ctx, cfg, "staff.verified", locale.Args{"MemberID": req.MemberId, "Nickname": profile.Name, "Affiliation": string(affiliation)})
	p.dm(ctx, cfg, req.MemberId, "member.verified", locale.Args{"Nickname": profile.Name})

	return &Result{
		RequestID:   req.RequestId,
		Status:      model.StatusVerified,
		Outcome:     OutcomeVerified,
		Affiliation: affiliation,
		Message:     locale.T(cfg.Locale, "member.verified_result", locale.Args{"Nickname": profile.Name}),
	}, nil
}

// audit appends to the recruitment log. A failed append is logged only.
func (p *promoter) audit(ctx context.Context, req *model.VerificationRequest, action model.ActionKind, reviewerID, reason string) {
	entry := &model.RecruitmentLog{
		CommunityId:     req.CommunityId,
		MemberId:        req.MemberId,
		ClaimedNickname: req.ClaimedNickname,
		Action:          action,
		ReviewerId:      reviewerID,
		Reason:          reason,
	}
	if err := p.logs.Append(ctx, entry); err != nil {
		log.Errorw("failed to append recruitment log", "action", action, "memberId", req.MemberId, "error", err)
	}
}

// staff posts message id, rendered in the community's locale, to the log
// channel if one is set.
func (p *promoter) staff(ctx context.Context, cfg *model.CommunityConfig, id string, args locale.Args) {
	if cfg.LogChannelRef == "" {
		return
	}
	p.send(ctx, notify.Notification{CommunityID: cfg.CommunityId, ChannelRef: cfg.LogChannelRef, Text: locale.T(cfg.Locale, id, args)})
}

func (p *promoter) dm(ctx context.Context, cfg *model.CommunityConfig, memberID, id string, args locale.Args) {
	p.send(ctx, notify.Notification{CommunityID: cfg.CommunityId, MemberID: memberID, Text: locale.T(cfg.Locale, id, args)})
}

func (p *promoter) send(ctx context.Context, n notify.Notification) {
	if p.notifier == nil {
		return
	}
	if err := p.notifier.Notify(ctx, n); err != nil {
		log.Warnw("failed to queue notification", "communityId", n.CommunityID, "error", err)
	}
}
