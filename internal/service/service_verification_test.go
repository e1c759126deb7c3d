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
	"testing"

	"github.com/go-arcade/vigia/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func barProfile() model.Profile {
	return model.Profile{ID: "p-bar", Name: "Bar", GuildName: "Other", TotalFame: 5_000_000, CombatFame: 500_000}
}

func register(t *testing.T, e *env, memberID, nickname string) *Result {
	t.Helper()
	res, err := e.svc.Verification.Register(context.Background(), RegisterCmd{CommunityID: "c1", MemberID: memberID, Nickname: nickname})
	require.NoError(t, err)
	return res
}

func TestRegister_EligibleGetsProofCode(t *testing.T) {
	e := newEnv(t)
	e.dir.put(barProfile())

	res := register(t, e, "m1", "  bar ")
	assert.Equal(t, OutcomePending, res.Outcome)
	assert.Equal(t, model.StatusPending, res.Status)
	assert.Len(t, res.ProofToken, 6)
	assert.Contains(t, res.Message, res.ProofToken)

	req, err := e.repos.Verification.GetByMember(context.Background(), "c1", "m1")
	require.NoError(t, err)
	assert.Equal(t, "Bar", req.ClaimedNickname)
	assert.Equal(t, res.RequestID, req.RequestId)
	require.NotNil(t, req.ProofToken)
	assert.Equal(t, res.ProofToken, *req.ProofToken)

	assert.EqualValues(t, 1, e.actions(t, "c1")[model.ActionRegistered])
	assert.Empty(t, e.mut.ops())
}

func TestRegister_IneligibleQueuedInStaffMode(t *testing.T) {
	cfg := fooCommunity()
	cfg.ApprovalQueueChannelRef = "queue"
	e := newEnv(t, cfg)
	e.dir.put(model.Profile{ID: "p-tiny", Name: "Tiny", TotalFame: 10, CombatFame: 1})

	res := register(t, e, "m1", "Tiny")
	assert.Equal(t, OutcomeQueued, res.Outcome)
	assert.Equal(t, model.StatusQueued, res.Status)
	assert.Empty(t, res.ProofToken)

	req, err := e.repos.Verification.GetByMember(context.Background(), "c1", "m1")
	require.NoError(t, err)
	assert.Nil(t, req.ProofToken)

	counts := e.actions(t, "c1")
	assert.EqualValues(t, 1, counts[model.ActionFilteredLowFame])
	assert.Zero(t, counts[model.ActionRegistered])
	require.Len(t, e.note.to("queue"), 1)
	assert.Contains(t, e.note.to("queue")[0].Text, res.RequestID)
}

func TestRegister_IneligibleWithoutQueueStaysPending(t *testing.T) {
	e := newEnv(t)
	e.dir.put(model.Profile{ID: "p-tiny", Name: "Tiny", TotalFame: 10, CombatFame: 1})

	res := register(t, e, "m1", "Tiny")
	assert.Equal(t, OutcomePending, res.Outcome)
	assert.NotEmpty(t, res.ProofToken)

	counts := e.actions(t, "c1")
	assert.EqualValues(t, 1, counts[model.ActionFilteredLowFame])
	assert.EqualValues(t, 1, counts[model.ActionRegistered])

	// proof alone is not enough without the guild
	e.dir.put(model.Profile{ID: "p-tiny", Name: "Tiny", Bio: res.ProofToken, TotalFame: 10, CombatFame: 1})
	got, err := e.svc.Verification.VerifyNow(context.Background(), "c1", "m1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotAffiliated, got.Outcome)
	assert.Equal(t, model.StatusPending, e.status(t, "c1", "m1"))
}

func TestRegister_Failures(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.dir.fail("Slow", inconclusive())

	_, err := e.svc.Verification.Register(ctx, RegisterCmd{CommunityID: "c1", MemberID: "m1", Nickname: "Nobody"})
	assert.ErrorIs(t, err, model.ErrNotFound)

	_, err = e.svc.Verification.Register(ctx, RegisterCmd{CommunityID: "c1", MemberID: "m1", Nickname: "Slow"})
	assert.ErrorIs(t, err, model.ErrInconclusive)

	_, err = e.svc.Verification.Register(ctx, RegisterCmd{CommunityID: "unknown", MemberID: "m1", Nickname: "Bar"})
	assert.ErrorIs(t, err, model.ErrConfigIncomplete)

	_, err = e.svc.Verification.Register(ctx, RegisterCmd{CommunityID: "c1", MemberID: "m1", Nickname: "  "})
	assert.ErrorIs(t, err, model.ErrInvalidInput)

	assert.Equal(t, model.RequestStatus(""), e.status(t, "c1", "m1"))
}

func TestRegister_ReplacesPendingButNotVerified(t *testing.T) {
	e := newEnv(t)
	e.dir.put(barProfile())
	e.dir.put(model.Profile{ID: "p-baz", Name: "Baz", TotalFame: 5_000_000, CombatFame: 500_000})

	first := register(t, e, "m1", "Bar")
	second := register(t, e, "m1", "Baz")
	assert.NotEqual(t, first.RequestID, second.RequestID)

	_, err := e.repos.Verification.GetByRequestID(context.Background(), first.RequestID)
	assert.ErrorIs(t, err, model.ErrRequestNotFound)

	e.seed(t, "c1", "m2", "Bar", model.StatusVerified)
	_, err = e.svc.Verification.Register(context.Background(), RegisterCmd{CommunityID: "c1", MemberID: "m2", Nickname: "Baz"})
	assert.ErrorIs(t, err, model.ErrAlreadyVerified)
}

func TestAttemptVerify_WaitsForProofAndGuild(t *testing.T) {
	e := newEnv(t)
	e.dir.put(barProfile())
	res := register(t, e, "m1", "Bar")

	got, err := e.svc.Verification.VerifyNow(context.Background(), "c1", "m1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeProofMissing, got.Outcome)
	assert.Equal(t, "code not found in bio", got.Message)

	p := barProfile()
	p.Bio = "recruiting! " + res.ProofToken
	e.dir.put(p)
	got, err = e.svc.Verification.VerifyNow(context.Background(), "c1", "m1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotAffiliated, got.Outcome)
	assert.Equal(t, "not yet in target guild", got.Message)

	assert.Empty(t, e.mut.ops())
	assert.Equal(t, model.StatusPending, e.status(t, "c1", "m1"))
}

func TestAttemptVerify_Promotes(t *testing.T) {
	e := newEnv(t)
	e.dir.put(barProfile())
	res := register(t, e, "m1", "Bar")

	p := barProfile()
	p.GuildName, p.Bio = "foo", "code: "+res.ProofToken
	e.dir.put(p)

	got, err := e.svc.Verification.AttemptVerify(context.Background(), "c1", "m1", OnDemand)
	require.NoError(t, err)
	assert.Equal(t, OutcomeVerified, got.Outcome)
	assert.Equal(t, model.AffiliationGuild, got.Affiliation)

	assert.Equal(t, []mutation{
		{Op: "grant", Member: "m1", Arg: "role-member"},
		{Op: "revoke", Member: "m1", Arg: "role-recruit"},
		{Op: "rename", Member: "m1", Arg: "[FOO] Bar"},
	}, e.mut.calls)

	req, err := e.repos.Verification.GetByMember(context.Background(), "c1", "m1")
	require.NoError(t, err)
	assert.Equal(t, model.StatusVerified, req.Status)
	assert.Nil(t, req.ProofToken)
	assert.EqualValues(t, 1, e.actions(t, "c1")[model.ActionVerifiedAuto])
	assert.Len(t, e.note.to("log"), 1)
	assert.Len(t, e.note.to("m1"), 1)

	// a second attempt does nothing
	got, err = e.svc.Verification.AttemptVerify(context.Background(), "c1", "m1", Sweep)
	require.NoError(t, err)
	assert.Equal(t, OutcomeAlreadyVerified, got.Outcome)
	assert.Equal(t, 1, e.mut.count("grant"))
	assert.EqualValues(t, 1, e.actions(t, "c1")[model.ActionVerifiedAuto])
}

func TestAttemptVerify_AllianceMember(t *testing.T) {
	e := newEnv(t)
	e.dir.put(barProfile())
	res := register(t, e, "m1", "Bar")

	p := barProfile()
	p.AllianceTag, p.Bio = "big", res.ProofToken
	e.dir.put(p)

	got, err := e.svc.Verification.VerifyNow(context.Background(), "c1", "m1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeVerified, got.Outcome)
	assert.Equal(t, model.AffiliationAlliance, got.Affiliation)
	assert.Equal(t, "role-ally", e.mut.calls[0].Arg)
}

func TestAttemptVerify_GrantDeniedLeavesPending(t *testing.T) {
	e := newEnv(t)
	e.dir.put(barProfile())
	res := register(t, e, "m1", "Bar")
	p := barProfile()
	p.GuildName, p.Bio = "Foo", res.ProofToken
	e.dir.put(p)
	e.mut.fail["grant"] = fmt.Errorf("discord grant: %w", model.ErrAuthorizationDenied)

	_, err := e.svc.Verification.VerifyNow(context.Background(), "c1", "m1")
	assert.ErrorIs(t, err, model.ErrAuthorizationDenied)
	assert.Equal(t, []string{"grant"}, e.mut.ops())
	assert.Equal(t, model.StatusPending, e.status(t, "c1", "m1"))
	assert.EqualValues(t, 1, e.actions(t, "c1")[model.ActionPrivilegeDenied])
	assert.Len(t, e.note.to("log"), 1)
}

func TestAttemptVerify_RenameFailureStillVerifies(t *testing.T) {
	e := newEnv(t)
	e.dir.put(barProfile())
	res := register(t, e, "m1", "Bar")
	p := barProfile()
	p.GuildName, p.Bio = "Foo", res.ProofToken
	e.dir.put(p)
	e.mut.fail["rename"] = fmt.Errorf("discord rename: %w", model.ErrAuthorizationDenied)
	e.mut.fail["revoke"] = fmt.Errorf("discord revoke: %w", model.ErrAuthorizationDenied)

	got, err := e.svc.Verification.VerifyNow(context.Background(), "c1", "m1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeVerified, got.Outcome)
	assert.Equal(t, model.StatusVerified, e.status(t, "c1", "m1"))
	// one warning each for the probationary role and the rename, one announcement
	assert.Len(t, e.note.to("log"), 3)

	actions := e.actions(t, "c1")
	assert.EqualValues(t, 2, actions[model.ActionPrivilegeDenied])
	assert.EqualValues(t, 1, actions[model.ActionVerifiedAuto])
}

func TestAttemptVerify_RenameTransientFailureNotAudited(t *testing.T) {
	e := newEnv(t)
	e.dir.put(barProfile())
	res := register(t, e, "m1", "Bar")
	p := barProfile()
	p.GuildName, p.Bio = "Foo", res.ProofToken
	e.dir.put(p)
	e.mut.fail["rename"] = errors.New("discord rename: status 502")

	_, err := e.svc.Verification.VerifyNow(context.Background(), "c1", "m1")
	require.NoError(t, err)
	assert.Zero(t, e.actions(t, "c1")[model.ActionPrivilegeDenied])
}

func TestAttemptVerify_LookupProblemsKeepPending(t *testing.T) {
	e := newEnv(t)
	e.dir.put(barProfile())
	register(t, e, "m1", "Bar")

	e.dir.remove("Bar")
	_, err := e.svc.Verification.VerifyNow(context.Background(), "c1", "m1")
	assert.ErrorIs(t, err, model.ErrProfileGone)

	e.dir.fail("Bar", inconclusive())
	_, err = e.svc.Verification.VerifyNow(context.Background(), "c1", "m1")
	assert.ErrorIs(t, err, model.ErrInconclusive)

	assert.Equal(t, model.StatusPending, e.status(t, "c1", "m1"))
	assert.Empty(t, e.mut.ops())
}

func TestAttemptVerify_QueuedAndUnknown(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "c1", "m1", "Tiny", model.StatusQueued)

	got, err := e.svc.Verification.VerifyNow(context.Background(), "c1", "m1")
	require.NoError(t, err)
	assert.Equal(t, OutcomeQueued, got.Outcome)

	_, err = e.svc.Verification.VerifyNow(context.Background(), "c1", "nobody")
	assert.ErrorIs(t, err, model.ErrRequestNotFound)
}

func TestSweepPending(t *testing.T) {
	other := fooCommunity()
	other.CommunityId = "c2"
	e := newEnv(t, fooCommunity(), other)

	e.seed(t, "c1", "ready", "Ready", model.StatusPending)
	e.seed(t, "c1", "waiting", "Waiting", model.StatusPending)
	e.seed(t, "c2", "flaky", "Flaky", model.StatusPending)
	e.seed(t, "c2", "gone", "Gone", model.StatusPending)
	e.seed(t, "orphan", "lost", "Lost", model.StatusPending)
	e.seed(t, "c1", "done", "Done", model.StatusVerified)

	e.dir.put(model.Profile{ID: "1", Name: "Ready", GuildName: "Foo", Bio: "K7P2QX"})
	e.dir.put(model.Profile{ID: "2", Name: "Waiting", GuildName: "Foo"})
	e.dir.fail("Flaky", inconclusive())

	stats, err := e.svc.Verification.SweepPending(context.Background())
	require.NoError(t, err)
	assert.Equal(t, SweepStats{Visited: 5, Promoted: 1, Waiting: 1, Skipped: 3}, stats)

	assert.Equal(t, model.StatusVerified, e.status(t, "c1", "ready"))
	assert.Equal(t, model.StatusPending, e.status(t, "c1", "waiting"))
	assert.Equal(t, model.StatusPending, e.status(t, "c2", "flaky"))
	assert.Equal(t, model.StatusPending, e.status(t, "c2", "gone"))
	assert.Equal(t, 1, e.mut.count("grant"))
}

func TestSweepPending_Cancelled(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "c1", "ready", "Ready", model.StatusPending)
	e.dir.put(model.Profile{ID: "1", Name: "Ready", GuildName: "Foo", Bio: "K7P2QX"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.svc.Verification.SweepPending(ctx)
	assert.Error(t, err)
	assert.Empty(t, e.mut.ops())
	assert.Equal(t, model.StatusPending, e.status(t, "c1", "ready"))
}

func TestSweepPending_StopFinishesCurrentMember(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "c1", "ready", "Ready", model.StatusPending)
	e.seed(t, "c1", "later", "Later", model.StatusPending)
	e.dir.put(model.Profile{ID: "1", Name: "Ready", GuildName: "Foo", Bio: "K7P2QX"})
	e.dir.put(model.Profile{ID: "2", Name: "Later", GuildName: "Foo", Bio: "K7P2QX"})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	e.mut.after["grant"] = cancel

	stats, err := e.svc.Verification.SweepPending(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, stats.Promoted)

	// exactly one member was started, and it was carried through
	assert.Equal(t, 1, e.mut.count("grant"))
	promoted := "ready"
	if e.status(t, "c1", "ready") != model.StatusVerified {
		promoted = "later"
	}
	assert.Equal(t, model.StatusVerified, e.status(t, "c1", promoted))
	assert.EqualValues(t, 1, e.actions(t, "c1")[model.ActionVerifiedAuto])
	assert.Equal(t, 1, e.mut.count("rename"))
}

func TestMemberLeft(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "c1", "m1", "Bar", model.StatusVerified)

	require.NoError(t, e.svc.Verification.MemberLeft(context.Background(), "c1", "m1"))
	assert.Equal(t, model.RequestStatus(""), e.status(t, "c1", "m1"))
	assert.EqualValues(t, 1, e.actions(t, "c1")[model.ActionMemberLeft])

	require.NoError(t, e.svc.Verification.MemberLeft(context.Background(), "c1", "m1"))
	assert.EqualValues(t, 1, e.actions(t, "c1")[model.ActionMemberLeft])
}
