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
	"testing"

	"github.com/go-arcade/vigia/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var officer = Reviewer{ID: "staff-1", Tier: 2}

func TestListPending(t *testing.T) {
	e := newEnv(t)
	e.seed(t, "c1", "m1", "One", model.StatusQueued)
	e.seed(t, "c1", "m2", "Two", model.StatusPending)
	e.seed(t, "c1", "m3", "Three", model.StatusVerified)

	reqs, err := e.svc.Arbitration.ListPending(context.Background(), "c1")
	require.NoError(t, err)
	require.Len(t, reqs, 2)
	assert.Equal(t, "m1", reqs[0].MemberId)
	assert.Equal(t, "m2", reqs[1].MemberId)

	_, err = e.svc.Arbitration.ListPending(context.Background(), "")
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}

func TestApprove_TierTooLow(t *testing.T) {
	e := newEnv(t)
	req := e.seed(t, "c1", "m1", "Tiny", model.StatusQueued)
	e.dir.put(model.Profile{ID: "p", Name: "Tiny", GuildName: "Foo"})

	_, err := e.svc.Arbitration.Approve(context.Background(), req.RequestId, Reviewer{ID: "helper-1", Tier: 1})
	assert.ErrorIs(t, err, model.ErrAuthorizationDenied)
	assert.ErrorIs(t, err, ErrReviewerNotAllowed)
	assert.Equal(t, model.StatusQueued, e.status(t, "c1", "m1"))
	assert.Empty(t, e.mut.ops())
	assert.Empty(t, e.actions(t, "c1"))
}

func TestApprove_RequiresAffiliation(t *testing.T) {
	e := newEnv(t)
	req := e.seed(t, "c1", "m1", "Tiny", model.StatusQueued)
	e.dir.put(model.Profile{ID: "p", Name: "Tiny", GuildName: "Elsewhere"})

	_, err := e.svc.Arbitration.Approve(context.Background(), req.RequestId, officer)
	assert.ErrorIs(t, err, model.ErrNotAffiliated)
	assert.Contains(t, err.Error(), "join the guild in-game first")
	assert.Equal(t, model.StatusQueued, e.status(t, "c1", "m1"))
	assert.Empty(t, e.mut.ops())
}

func TestApprove_PromotesQueuedMember(t *testing.T) {
	e := newEnv(t)
	req := e.seed(t, "c1", "m1", "Tiny", model.StatusQueued)
	e.dir.put(model.Profile{ID: "p", Name: "Tiny", GuildName: "Foo", TotalFame: 10})

	res, err := e.svc.Arbitration.Approve(context.Background(), req.RequestId, officer)
	require.NoError(t, err)
	assert.Equal(t, OutcomeVerified, res.Outcome)
	assert.Equal(t, model.StatusVerified, e.status(t, "c1", "m1"))
	assert.Equal(t, []string{"grant", "revoke", "rename"}, e.mut.ops())

	entries, err := e.repos.RecruitmentLog.ListRecent(context.Background(), "c1", 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.ActionApprovedManual, entries[0].Action)
	assert.Equal(t, "staff-1", entries[0].ReviewerId)

	_, err = e.svc.Arbitration.Approve(context.Background(), req.RequestId, officer)
	assert.ErrorIs(t, err, model.ErrAlreadyVerified)
	assert.Equal(t, 1, e.mut.count("grant"))
}

func TestApprove_GrantDenied(t *testing.T) {
	e := newEnv(t)
	req := e.seed(t, "c1", "m1", "Tiny", model.StatusQueued)
	e.dir.put(model.Profile{ID: "p", Name: "Tiny", GuildName: "Foo"})
	e.mut.fail["grant"] = model.ErrAuthorizationDenied

	_, err := e.svc.Arbitration.Approve(context.Background(), req.RequestId, officer)
	assert.ErrorIs(t, err, model.ErrAuthorizationDenied)
	assert.Equal(t, model.StatusQueued, e.status(t, "c1", "m1"))
	assert.EqualValues(t, 1, e.actions(t, "c1")[model.ActionPrivilegeDenied])
}

func TestApprove_UnknownRequest(t *testing.T) {
	e := newEnv(t)
	_, err := e.svc.Arbitration.Approve(context.Background(), "missing", officer)
	assert.ErrorIs(t, err, model.ErrRequestNotFound)
}

func TestReject(t *testing.T) {
	e := newEnv(t)
	req := e.seed(t, "c1", "m1", "Tiny", model.StatusQueued)

	err := e.svc.Arbitration.Reject(context.Background(), req.RequestId, officer, " alt account ")
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatus(""), e.status(t, "c1", "m1"))

	entries, err := e.repos.RecruitmentLog.ListRecent(context.Background(), "c1", 1)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, model.ActionRejectedManual, entries[0].Action)
	assert.Equal(t, "alt account", entries[0].Reason)

	dms := e.note.to("m1")
	require.Len(t, dms, 1)
	assert.Contains(t, dms[0].Text, "alt account")
	assert.Empty(t, e.mut.ops())

	err = e.svc.Arbitration.Reject(context.Background(), req.RequestId, officer, "again")
	assert.ErrorIs(t, err, model.ErrRequestNotFound)
}

func TestReject_RefusesVerifiedAndLowTier(t *testing.T) {
	e := newEnv(t)
	verified := e.seed(t, "c1", "m1", "Bar", model.StatusVerified)
	queued := e.seed(t, "c1", "m2", "Tiny", model.StatusQueued)

	err := e.svc.Arbitration.Reject(context.Background(), verified.RequestId, officer, "")
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
	assert.Equal(t, model.StatusVerified, e.status(t, "c1", "m1"))

	err = e.svc.Arbitration.Reject(context.Background(), queued.RequestId, Reviewer{ID: "x", Tier: 0}, "")
	assert.ErrorIs(t, err, model.ErrAuthorizationDenied)
	assert.Equal(t, model.StatusQueued, e.status(t, "c1", "m2"))
}
