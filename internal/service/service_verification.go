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
	"sync"
	"time"

	"github.com/go-arcade/vigia/internal/eligibility"
	"github.com/go-arcade/vigia/internal/locale"
	"github.com/go-arcade/vigia/internal/model"
	"github.com/go-arcade/vigia/internal/notify"
	"github.com/go-arcade/vigia/internal/privilege"
	"github.com/go-arcade/vigia/internal/repo"
	"github.com/go-arcade/vigia/pkg/id"
	"github.com/go-arcade/vigia/pkg/log"
	"github.com/go-arcade/vigia/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// Mode tells AttemptVerify who is asking.
type Mode int

const (
	// OnDemand is a member asking to be checked now.
	OnDemand Mode = iota
	// Sweep is the periodic background pass.
	Sweep
)

func (m Mode) String() string {
	if m == Sweep {
		return "sweep"
	}
	return "on_demand"
}

// RegisterCmd is a member claiming an in-game identity.
type RegisterCmd struct {
	CommunityID string
	MemberID    string
	Nickname    string
}

// SweepStats counts what a sweep did with each request it visited.
type SweepStats struct {
	Visited  int `json:"visited"`
	Promoted int `json:"promoted"`
	Waiting  int `json:"waiting"`
	Evicted  int `json:"evicted"`
	Removed  int `json:"removed"`
	Kept     int `json:"kept"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

type VerificationService struct {
	promoter
	communities repo.ICommunityRepository
	directory   Directory
	recorder    *metrics.Recorder
	opts        Options
}

func NewVerificationService(repos *repo.Repositories, directory Directory, mutator privilege.Mutator,
	notifier notify.Notifier, recorder *metrics.Recorder, opts Options) *VerificationService {
	return &VerificationService{
		promoter: promoter{
			requests: repos.Verification,
			logs:     repos.RecruitmentLog,
			mutator:  mutator,
			notifier: notifier,
		},
		communities: repos.Community,
		directory:   directory,
		recorder:    recorder,
		opts:        opts,
	}
}

// Register records a claim. Eligible players get a proof code to put in
// their in-game bio. Ineligible players go to the staff queue when the
// community has one, otherwise they still get a code but can only pass by
// joining the guild or alliance in-game.
func (vs *VerificationService) Register(ctx context.Context, cmd RegisterCmd) (*Result, error) {
	nickname := strings.TrimSpace(cmd.Nickname)
	if cmd.CommunityID == "" || cmd.MemberID == "" || nickname == "" {
		return nil, fmt.Errorf("%w: community, member and nickname are required", model.ErrInvalidInput)
	}

	cfg, err := vs.communities.Get(ctx, cmd.CommunityID)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	existing, err := vs.requests.GetByMember(ctx, cmd.CommunityID, cmd.MemberID)
	switch {
	case err == nil:
		if existing.Status == model.StatusVerified || existing.Status == model.StatusRevoking {
			return nil, fmt.Errorf("%w: %s is already verified as %s", model.ErrAlreadyVerified, cmd.MemberID, existing.ClaimedNickname)
		}
	case !errors.Is(err, model.ErrRequestNotFound):
		return nil, err
	}

	profile, err := vs.directory.LookupByName(ctx, nickname)
	if err != nil {
		return nil, err
	}

	verdict := eligibility.Evaluate(profile, cfg)
	affiliation := eligibility.MatchAffiliation(profile, cfg)

	req := &model.VerificationRequest{
		RequestId:       id.GetULID(),
		CommunityId:     cmd.CommunityID,
		MemberId:        cmd.MemberID,
		ClaimedNickname: profile.Name,
		NicknameKey:     model.NicknameKey(profile.Name),
		ExternalId:      profile.ID,
		Status:          model.StatusPending,
		Affiliation:     affiliation,
	}
	queued := !verdict.Passes() && cfg.StaffApprovalMode()
	if queued {
		req.Status = model.StatusQueued
	} else {
		token, err := id.NewCode()
		if err != nil {
			return nil, fmt.Errorf("generate proof code: %w", err)
		}
		req.ProofToken = &token
	}

	if err := vs.requests.Upsert(ctx, req); err != nil {
		return nil, err
	}

	log.Infow("registration stored",
		"communityId", cmd.CommunityID, "memberId", cmd.MemberID, "nickname", profile.Name,
		"verdict", verdict.String(), "status", req.Status)

	if !verdict.Passes() {
		vs.audit(ctx, req, model.ActionFilteredLowFame, "",
			fmt.Sprintf("total fame %d, combat fame %d", profile.TotalFame, profile.CombatFame))
	}
	if queued {
		vs.send(ctx, notify.Notification{
			CommunityID: cfg.CommunityId,
			ChannelRef:  cfg.ApprovalQueueChannelRef,
			Text: locale.T(cfg.Locale, "staff.queue_low_fame", locale.Args{
				"MemberID":   cmd.MemberID,
				"Nickname":   profile.Name,
				"TotalFame":  profile.TotalFame,
				"CombatFame": profile.CombatFame,
				"RequestID":  req.RequestId,
			}),
		})
		return &Result{
			RequestID:   req.RequestId,
			Status:      req.Status,
			Outcome:     OutcomeQueued,
			Affiliation: affiliation,
			Message:     locale.T(cfg.Locale, "member.queued", nil),
		}, nil
	}

	vs.audit(ctx, req, model.ActionRegistered, "", "")
	return &Result{
		RequestID:   req.RequestId,
		Status:      req.Status,
		Outcome:     OutcomePending,
		ProofToken:  *req.ProofToken,
		Affiliation: affiliation,
		Message:     locale.T(cfg.Locale, "member.proof_instructions", locale.Args{"Token": *req.ProofToken}),
	}, nil
}

// VerifyNow is AttemptVerify on behalf of the member.
func (vs *VerificationService) VerifyNow(ctx context.Context, communityID, memberID string) (*Result, error) {
	return vs.AttemptVerify(ctx, communityID, memberID, OnDemand)
}

// AttemptVerify checks a PENDING request's proof code and affiliation and
// promotes the member when both hold. It is a no-op for verified members.
func (vs *VerificationService) AttemptVerify(ctx context.Context, communityID, memberID string, mode Mode) (*Result, error) {
	req, err := vs.requests.GetByMember(ctx, communityID, memberID)
	if err != nil {
		return nil, err
	}
	switch req.Status {
	case model.StatusVerified, model.StatusRevoking:
		return &Result{RequestID: req.RequestId, Status: req.Status, Outcome: OutcomeAlreadyVerified,
			Message: locale.T(vs.localeOf(ctx, communityID), "member.already_verified", nil)}, nil
	case model.StatusQueued:
		return &Result{RequestID: req.RequestId, Status: req.Status, Outcome: OutcomeQueued,
			Message: locale.T(vs.localeOf(ctx, communityID), "member.waiting_review", nil)}, nil
	}

	cfg, err := vs.communities.Get(ctx, communityID)
	if err != nil {
		return nil, err
	}
	return vs.verify(ctx, cfg, req, mode)
}

func (vs *VerificationService) verify(ctx context.Context, cfg *model.CommunityConfig, req *model.VerificationRequest, mode Mode) (*Result, error) {
	profile, err := vs.directory.LookupByName(ctx, req.ClaimedNickname)
	if errors.Is(err, model.ErrNotFound) {
		log.Warnw("claimed player no longer found, request left pending",
			"communityId", req.CommunityId, "memberId", req.MemberId, "nickname", req.ClaimedNickname, "mode", mode.String())
		return nil, fmt.Errorf("%w: %s", model.ErrProfileGone, req.ClaimedNickname)
	}
	if err != nil {
		return nil, err
	}

	waiting := &Result{RequestID: req.RequestId, Status: req.Status, Outcome: OutcomePending}
	if req.ProofToken != nil {
		waiting.ProofToken = *req.ProofToken
	}
	if !proofPresent(profile.Bio, req.ProofToken) {
		waiting.Outcome = OutcomeProofMissing
		waiting.Message = locale.T(cfg.Locale, "member.proof_missing", nil)
		return waiting, nil
	}
	affiliation := eligibility.MatchAffiliation(profile, cfg)
	if affiliation == model.AffiliationNone {
		waiting.Outcome = OutcomeNotAffiliated
		waiting.Affiliation = affiliation
		waiting.Message = locale.T(cfg.Locale, "member.not_affiliated", nil)
		return waiting, nil
	}

	return vs.promote(ctx, cfg, req, profile, affiliation,
		[]model.RequestStatus{model.StatusPending}, model.ActionVerifiedAuto, "")
}

// localeOf is the community's locale, or "" when its config cannot be read.
func (vs *VerificationService) localeOf(ctx context.Context, communityID string) string {
	cfg, err := vs.communities.Get(ctx, communityID)
	if err != nil {
		return ""
	}
	return cfg.Locale
}

func proofPresent(bio string, token *string) bool {
	if token == nil || *token == "" {
		return false
	}
	return strings.Contains(strings.ToUpper(bio), strings.ToUpper(*token))
}

// MemberLeft forgets whatever the member had pending or verified. Calling it
// for an unknown member is a no-op.
func (vs *VerificationService) MemberLeft(ctx context.Context, communityID, memberID string) error {
	req, err := vs.requests.GetByMember(ctx, communityID, memberID)
	if errors.Is(err, model.ErrRequestNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	deleted, err := vs.requests.DeleteIfStatus(ctx, req.RequestId,
		model.StatusPending, model.StatusQueued, model.StatusVerified, model.StatusRevoking)
	if err != nil {
		return err
	}
	if deleted {
		vs.audit(ctx, req, model.ActionMemberLeft, "", "left the community")
	}
	return nil
}

// SweepPending retries every PENDING request. Communities are processed in
// parallel, members of one community one at a time. A failure on one member
// never stops the others; a cancelled ctx stops the sweep between members.
func (vs *VerificationService) SweepPending(ctx context.Context) (SweepStats, error) {
	start := time.Now()
	var stats SweepStats

	reqs, err := vs.requests.ListByStatus(ctx, "", model.StatusPending)
	if err != nil {
		vs.recorder.ObserveSweep("verify", time.Since(start), err)
		return stats, err
	}

	var mu sync.Mutex
	count := func(outcome string) {
		mu.Lock()
		defer mu.Unlock()
		stats.Visited++
		switch outcome {
		case "promoted":
			stats.Promoted++
		case "waiting":
			stats.Waiting++
		case "skipped":
			stats.Skipped++
		default:
			stats.Failed++
		}
		vs.recorder.ObserveMember("verify", outcome)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(vs.opts.concurrency())
	for communityID, members := range groupByCommunity(reqs) {
		eg.Go(func() error {
			cfg, err := vs.communities.Get(egCtx, communityID)
			if err != nil {
				if ctxErr := egCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Warnw("skipping community in verify sweep", "communityId", communityID, "error", err)
				for range members {
					count("skipped")
				}
				return nil
			}
			for _, req := range members {
				if err := egCtx.Err(); err != nil {
					return err
				}
				memberCtx, cancel := vs.opts.memberContext(egCtx)
				count(vs.sweepOne(memberCtx, cfg, req))
				cancel()
			}
			return nil
		})
	}
	err = eg.Wait()

	vs.recorder.ObserveSweep("verify", time.Since(start), err)
	log.Infow("verify sweep finished",
		"visited", stats.Visited, "promoted", stats.Promoted, "waiting", stats.Waiting,
		"skipped", stats.Skipped, "failed", stats.Failed, "duration", time.Since(start))
	return stats, err
}

func (vs *VerificationService) sweepOne(ctx context.Context, cfg *model.CommunityConfig, req *model.VerificationRequest) string {
	res, err := vs.verify(ctx, cfg, req, Sweep)
	switch {
	case err == nil && res.Outcome == OutcomeVerified:
		return "promoted"
	case err == nil:
		return "waiting"
	case errors.Is(err, model.ErrProfileGone), errors.Is(err, model.ErrInconclusive):
		log.Debugw("verify sweep skipped member", "communityId", req.CommunityId, "memberId", req.MemberId, "error", err)
		return "skipped"
	default:
		log.Warnw("verify sweep failed for member", "communityId", req.CommunityId, "memberId", req.MemberId, "error", err)
		return "failed"
	}
}

func groupByCommunity(reqs []*model.VerificationRequest) map[string][]*model.VerificationRequest {
	groups := make(map[string][]*model.VerificationRequest)
	for _, req := range reqs {
		groups[req.CommunityId] = append(groups[req.CommunityId], req)
	}
	return groups
}
