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

package repo

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-arcade/vigia/internal/model"
	"github.com/go-arcade/vigia/pkg/database"
	"github.com/go-arcade/vigia/pkg/id"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

func newTestRepos(t *testing.T) *Repositories {
	t.Helper()
	db, err := database.NewDatabase(database.Database{Type: database.TypeSQLite})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, AutoMigrate(db))
	return NewRepositories(database.NewGormDB(db), nil)
}

func pending(communityId, memberId, nickname string) *model.VerificationRequest {
	token := "ABC234"
	return &model.VerificationRequest{
		RequestId:       id.GetULID(),
		CommunityId:     communityId,
		MemberId:        memberId,
		ClaimedNickname: nickname,
		NicknameKey:     model.NicknameKey(nickname),
		ProofToken:      &token,
		Status:          model.StatusPending,
		Affiliation:     model.AffiliationGuild,
	}
}

func TestVerificationRepo_UpsertOverwritesPending(t *testing.T) {
	ctx := context.Background()
	r := newTestRepos(t).Verification

	first := pending("c1", "m1", "Bar")
	require.NoError(t, r.Upsert(ctx, first))

	second := pending("c1", "m1", "Baz")
	second.Status = model.StatusQueued
	require.NoError(t, r.Upsert(ctx, second))

	got, err := r.GetByMember(ctx, "c1", "m1")
	require.NoError(t, err)
	assert.Equal(t, "Baz", got.ClaimedNickname)
	assert.Equal(t, model.StatusQueued, got.Status)
	assert.Equal(t, second.RequestId, got.RequestId)
	assert.Equal(t, first.ID, got.ID)

	_, err = r.GetByRequestID(ctx, first.RequestId)
	assert.ErrorIs(t, err, model.ErrRequestNotFound)
}

func TestVerificationRepo_UpsertRefusesVerified(t *testing.T) {
	ctx := context.Background()
	r := newTestRepos(t).Verification

	req := pending("c1", "m1", "Bar")
	require.NoError(t, r.Upsert(ctx, req))
	ok, err := r.Transition(ctx, req.RequestId, []model.RequestStatus{model.StatusPending}, model.StatusVerified, map[string]any{"proof_token": nil})
	require.NoError(t, err)
	require.True(t, ok)

	err = r.Upsert(ctx, pending("c1", "m1", "Other"))
	assert.ErrorIs(t, err, model.ErrAlreadyVerified)

	got, err := r.GetByMember(ctx, "c1", "m1")
	require.NoError(t, err)
	assert.Equal(t, "Bar", got.ClaimedNickname)
	assert.Nil(t, got.ProofToken)
}

func TestVerificationRepo_DuplicateMemberIsTranslated(t *testing.T) {
	ctx := context.Background()
	r := newTestRepos(t).Verification.(*VerificationRepo)

	require.NoError(t, r.Database().WithContext(ctx).Create(pending("c1", "m1", "Bar")).Error)
	err := r.Database().WithContext(ctx).Create(pending("c1", "m1", "Baz")).Error
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestVerificationRepo_UpsertReplaysLostFirstInsert(t *testing.T) {
	ctx := context.Background()
	db, err := database.NewDatabase(database.Database{Type: database.TypeSQLite})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, AutoMigrate(db))
	r := NewVerificationRepo(database.NewGormDB(db))

	// the first insert finds the member already taken by a concurrent
	// registration that landed after the lookup
	var inserts, rivals atomic.Int32
	require.NoError(t, db.Callback().Create().Before("gorm:create").Register("test:rival", func(tx *gorm.DB) {
		if tx.Statement.Table != (model.VerificationRequest{}).TableName() {
			return
		}
		if !rivals.CompareAndSwap(0, 1) {
			inserts.Add(1)
			return
		}
		rival := pending("c1", "m1", "Rival")
		tx.AddError(tx.Session(&gorm.Session{NewDB: true}).Table(rival.TableName()).Create(rival).Error)
		inserts.Add(1)
	}))

	req := pending("c1", "m1", "Bar")
	require.NoError(t, r.Upsert(ctx, req))
	assert.EqualValues(t, 3, inserts.Load())

	got, err := r.GetByMember(ctx, "c1", "m1")
	require.NoError(t, err)
	assert.Equal(t, req.RequestId, got.RequestId)
	assert.Equal(t, "Bar", got.ClaimedNickname)
	assert.Equal(t, model.StatusPending, got.Status)
}

func TestVerificationRepo_TransitionIsConditional(t *testing.T) {
	ctx := context.Background()
	r := newTestRepos(t).Verification

	req := pending("c1", "m1", "Bar")
	require.NoError(t, r.Upsert(ctx, req))

	from := []model.RequestStatus{model.StatusPending, model.StatusQueued}
	ok, err := r.Transition(ctx, req.RequestId, from, model.StatusVerified, nil)
	require.NoError(t, err)
	assert.True(t, ok)

	// second attempt loses: the row is no longer in a source status
	ok, err = r.Transition(ctx, req.RequestId, from, model.StatusVerified, nil)
	require.NoError(t, err)
	assert.False(t, ok)

	// not in the table
	_, err = r.Transition(ctx, req.RequestId, []model.RequestStatus{model.StatusVerified}, model.StatusPending, nil)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)

	_, err = r.Transition(ctx, req.RequestId, nil, model.StatusVerified, nil)
	assert.ErrorIs(t, err, model.ErrInvalidTransition)
}

func TestVerificationRepo_DeleteIfStatus(t *testing.T) {
	ctx := context.Background()
	r := newTestRepos(t).Verification

	req := pending("c1", "m1", "Bar")
	require.NoError(t, r.Upsert(ctx, req))

	ok, err := r.DeleteIfStatus(ctx, req.RequestId, model.StatusVerified)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = r.DeleteIfStatus(ctx, req.RequestId, model.StatusPending, model.StatusQueued)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = r.DeleteIfStatus(ctx, req.RequestId, model.StatusPending)
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = r.DeleteIfStatus(ctx, req.RequestId)
	assert.Error(t, err)
}

func TestVerificationRepo_ListAndCount(t *testing.T) {
	ctx := context.Background()
	r := newTestRepos(t).Verification

	a := pending("c1", "m1", "A")
	b := pending("c1", "m2", "B")
	b.Status = model.StatusQueued
	c := pending("c2", "m3", "C")
	for _, req := range []*model.VerificationRequest{a, b, c} {
		require.NoError(t, r.Upsert(ctx, req))
		time.Sleep(2 * time.Millisecond)
	}
	_, err := r.Transition(ctx, c.RequestId, []model.RequestStatus{model.StatusPending}, model.StatusVerified, nil)
	require.NoError(t, err)

	queue, err := r.ListQueue(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, queue, 2)
	assert.Equal(t, "A", queue[0].ClaimedNickname)
	assert.Equal(t, "B", queue[1].ClaimedNickname)

	verified, err := r.ListByStatus(ctx, "", model.StatusVerified)
	require.NoError(t, err)
	require.Len(t, verified, 1)
	assert.Equal(t, "c2", verified[0].CommunityId)

	counts, err := r.CountByStatus(ctx, "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, counts[model.StatusPending])
	assert.EqualValues(t, 1, counts[model.StatusQueued])
	assert.EqualValues(t, 0, counts[model.StatusVerified])
}

func TestCommunityRepo_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	r := newTestRepos(t).Community

	_, err := r.Get(ctx, "c1")
	assert.ErrorIs(t, err, model.ErrConfigIncomplete)

	cfg := &model.CommunityConfig{
		CommunityId:   "c1",
		GuildName:     "Foo",
		MemberRoleRef: "role-member",
		MinTotalFame:  10_000_000,
		StaffRoles:    datatypes.NewJSONType(model.StaffRoles{2: {"officer"}}),
	}
	require.NoError(t, r.Save(ctx, cfg))

	got, err := r.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "Foo", got.GuildName)
	assert.Equal(t, model.MinStaffTier, got.MinReviewTier)
	assert.Equal(t, 2, got.StaffTier([]string{"officer"}))

	cfg.MinTotalFame = 1
	cfg.Locale = "pt-BR"
	cfg.EligibilityRule = "CombatFame > 0"
	require.NoError(t, r.Save(ctx, cfg))
	got, err = r.Get(ctx, "c1")
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.MinTotalFame)
	assert.Equal(t, "pt-BR", got.Locale)
	assert.Equal(t, "CombatFame > 0", got.EligibilityRule)

	all, err := r.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	bad := &model.CommunityConfig{CommunityId: "c2"}
	assert.ErrorIs(t, r.Save(ctx, bad), model.ErrConfigIncomplete)
}

func TestRecruitmentLogRepo(t *testing.T) {
	ctx := context.Background()
	r := newTestRepos(t).RecruitmentLog

	for _, a := range []model.ActionKind{model.ActionRegistered, model.ActionRegistered, model.ActionKickedAuto} {
		require.NoError(t, r.Append(ctx, &model.RecruitmentLog{CommunityId: "c1", MemberId: "m1", Action: a}))
	}
	require.NoError(t, r.Append(ctx, &model.RecruitmentLog{CommunityId: "c2", MemberId: "m9", Action: model.ActionRegistered}))

	counts, err := r.CountByAction(ctx, "c1", time.Time{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, counts[model.ActionRegistered])
	assert.EqualValues(t, 1, counts[model.ActionKickedAuto])

	counts, err = r.CountByAction(ctx, "c1", time.Now().Add(time.Hour))
	require.NoError(t, err)
	assert.Empty(t, counts)

	recent, err := r.ListRecent(ctx, "c1", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, model.ActionKickedAuto, recent[0].Action)
}
