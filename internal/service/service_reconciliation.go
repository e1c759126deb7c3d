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
	"sync"
	"time"

	"github.com/go-arcade/vigia/internal/eligibility"
	"github.com/go-arcade/vigia/internal/locale"
	"github.com/go-arcade/vigia/internal/model"
	"github.com/go-arcade/vigia/internal/notify"
	"github.com/go-arcade/vigia/internal/privilege"
	"github.com/go-arcade/vigia/internal/repo"
	"github.com/go-arcade/vigia/pkg/log"
	"github.com/go-arcade/vigia/pkg/metrics"
	"golang.org/x/sync/errgroup"
)

// staleClaim is how long a REVOKING row may sit before another sweep takes
// the eviction over.
const staleClaim = 10 * time.Minute

// ReconciliationService removes privileges from verified members whose
// in-game affiliation lapsed.
type ReconciliationService struct {
	promoter
	communities repo.ICommunityRepository
	directory   Directory
	recorder    *metrics.Recorder
	opts        Options
	now         func() time.Time
}

func NewReconciliationService(repos *repo.Repositories, directory Directory, mutator privilege.Mutator,
	notifier notify.Notifier, recorder *metrics.Recorder, opts Options) *ReconciliationService {
	return &ReconciliationService{
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
		now:         time.Now,
	}
}

// Sweep checks every verified member. Only a definite answer from the
// directory evicts: lookup failures and chat platform errors skip the
// member until the next run.
func (rs *ReconciliationService) Sweep(ctx context.Context) (SweepStats, error) {
	start := time.Now()
	var stats SweepStats

	reqs, err := rs.requests.ListByStatus(ctx, "", model.StatusVerified, model.StatusRevoking)
	if err != nil {
		rs.recorder.ObserveSweep("reconcile", time.Since(start), err)
		return stats, err
	}

	var mu sync.Mutex
	count := func(outcome string) {
		mu.Lock()
		defer mu.Unlock()
		stats.Visited++
		switch outcome {
		case "kept":
			stats.Kept++
		case "evicted":
			stats.Evicted++
		case "removed":
			stats.Removed++
		case "skipped":
			stats.Skipped++
		default:
			stats.Failed++
		}
		rs.recorder.ObserveMember("reconcile", outcome)
	}

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(rs.opts.concurrency())
	for communityID, members := range groupByCommunity(reqs) {
		eg.Go(func() error {
			cfg, err := rs.communities.Get(egCtx, communityID)
			if err != nil {
				if ctxErr := egCtx.Err(); ctxErr != nil {
					return ctxErr
				}
				log.Warnw("skipping community in reconcile sweep", "communityId", communityID, "error", err)
				for range members {
					count("skipped")
				}
				return nil
			}
			for _, req := range members {
				if err := egCtx.Err(); err != nil {
					return err
				}
				memberCtx, cancel := rs.opts.memberContext(egCtx)
				count(rs.reconcile(memberCtx, cfg, req))
				cancel()
			}
			return nil
		})
	}
	err = eg.Wait()

	rs.recorder.ObserveSweep("reconcile", time.Since(start), err)
	log.Infow("reconcile sweep finished",
		"visited", stats.Visited, "kept", stats.Kept, "evicted", stats.Evicted, "removed", stats.Removed,
		"skipped", stats.Skipped, "failed", stats.Failed, "duration", time.Since(start))
	return stats, err
}

func (rs *ReconciliationService) reconcile(ctx context.Context, cfg *model.CommunityConfig, req *model.VerificationRequest) string {
	if req.Status == model.StatusRevoking && rs.now().Sub(req.UpdatedAt) < staleClaim {
		return "skipped"
	}

	present, err := rs.mutator.IsMember(ctx, cfg.CommunityId, req.MemberId)
	if err != nil {
		log.Warnw("membership check failed", "communityId", cfg.CommunityId, "memberId", req.MemberId, "error", err)
		return "skipped"
	}
	if !present {
		return rs.forget(ctx, req)
	}

	profile, err := rs.directory.LookupByName(ctx, req.ClaimedNickname)
	var reason string
	switch {
	case errors.Is(err, model.ErrNotFound):
		reason = locale.T(cfg.Locale, "reason.player_gone", locale.Args{"Nickname": req.ClaimedNickname})
	case err != nil:
		log.Debugw("lookup inconclusive, member kept", "communityId", cfg.CommunityId, "memberId", req.MemberId, "error", err)
		return "skipped"
	default:
		if eligibility.MatchAffiliation(profile, cfg) != model.AffiliationNone {
			return rs.keep(ctx, req)
		}
		reason = locale.T(cfg.Locale, "reason.left_target", locale.Args{"Nickname": profile.Name, "Target": targetName(cfg)})
	}

	return rs.evict(ctx, cfg, req, reason)
}

func targetName(cfg *model.CommunityConfig) string {
	if cfg.HasAllianceTarget() && cfg.GuildName == "" {
		return cfg.AllianceName
	}
	if cfg.HasAllianceTarget() {
		return cfg.GuildName + " / " + cfg.AllianceName
	}
	return cfg.GuildName
}

// keep releases a stale eviction claim for a member that turned out fine.
func (rs *ReconciliationService) keep(ctx context.Context, req *model.VerificationRequest) string {
	if req.Status == model.StatusRevoking {
		rs.release(ctx, req)
	}
	return "kept"
}

// forget drops the record of a member who already left the community.
func (rs *ReconciliationService) forget(ctx context.Context, req *model.VerificationRequest) string {
	deleted, err := rs.requests.DeleteIfStatus(ctx, req.RequestId, model.StatusVerified, model.StatusRevoking)
	if err != nil {
		log.Warnw("failed to delete stale request", "requestId", req.RequestId, "error", err)
		return "failed"
	}
	if deleted {
		rs.audit(ctx, req, model.ActionMemberLeft, "", "no longer in the community")
	}
	return "removed"
}

// evict claims the request, removes the member and deletes the request. The
// VERIFIED to REVOKING claim makes concurrent sweeps evict a member once.
func (rs *ReconciliationService) evict(ctx context.Context, cfg *model.CommunityConfig, req *model.VerificationRequest, reason string) string {
	if req.Status == model.StatusVerified {
		won, err := rs.requests.Transition(ctx, req.RequestId,
			[]model.RequestStatus{model.StatusVerified}, model.StatusRevoking, nil)
		if err != nil {
			log.Warnw("failed to claim eviction", "requestId", req.RequestId, "error", err)
			return "failed"
		}
		if !won {
			return "skipped"
		}
	}

	err := rs.mutator.Evict(ctx, cfg.CommunityId, req.MemberId, reason)
	switch {
	case errors.Is(err, model.ErrMemberGone):
		return rs.forget(ctx, req)
	case errors.Is(err, model.ErrAuthorizationDenied):
		rs.release(ctx, req)
		rs.audit(ctx, req, model.ActionPrivilegeDenied, "", "evict: "+err.Error())
		rs.staff(ctx, cfg, "staff.evict_denied", locale.Args{"MemberID": req.MemberId, "Reason": reason})
		return "failed"
	case err != nil:
		rs.release(ctx, req)
		log.Warnw("eviction failed, will retry next sweep", "communityId", cfg.CommunityId, "memberId", req.MemberId, "error", err)
		return "failed"
	}

	deleted, err := rs.requests.DeleteIfStatus(ctx, req.RequestId, model.StatusRevoking)
	if err != nil || !deleted {
		log.Errorw("member evicted but request was not deleted",
			"inconsistent", true, "requestId", req.RequestId, "memberId", req.MemberId, "error", err)
	}
	rs.audit(ctx, req, model.ActionKickedAuto, "", reason)
	rs.staff(ctx, cfg, "staff.evicted", locale.Args{"MemberID": req.MemberId, "Reason": reason})
	log.Infow("member evicted", "communityId", cfg.CommunityId, "memberId", req.MemberId, "reason", reason)
	return "evicted"
}

func (rs *ReconciliationService) release(ctx context.Context, req *model.VerificationRequest) {
	if _, err := rs.requests.Transition(ctx, req.RequestId,
		[]model.RequestStatus{model.StatusRevoking}, model.StatusVerified, nil); err != nil {
		log.Warnw("failed to release eviction claim", "requestId", req.RequestId, "error", err)
	}
}
