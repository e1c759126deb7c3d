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
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-arcade/vigia/internal/model"
	"github.com/go-arcade/vigia/internal/notify"
	"github.com/go-arcade/vigia/internal/repo"
	"github.com/go-arcade/vigia/pkg/database"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

type fakeDirectory struct {
	mu       sync.Mutex
	profiles map[string]model.Profile
	errs     map[string]error
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{profiles: map[string]model.Profile{}, errs: map[string]error{}}
}

func (d *fakeDirectory) put(p model.Profile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.profiles[strings.ToLower(p.Name)] = p
}

func (d *fakeDirectory) fail(name string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errs[strings.ToLower(name)] = err
}

func (d *fakeDirectory) remove(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.profiles, strings.ToLower(name))
}

func (d *fakeDirectory) LookupByName(_ context.Context, name string) (*model.Profile, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	key := strings.ToLower(name)
	if err, ok := d.errs[key]; ok {
		return nil, err
	}
	p, ok := d.profiles[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", model.ErrNotFound, name)
	}
	return &p, nil
}

type mutation struct {
	Op     string
	Member string
	Arg    string
}

type fakeMutator struct {
	mu        sync.Mutex
	calls     []mutation
	fail      map[string]error
	absent    map[string]bool
	memberErr error
	// after runs once an op has been recorded
	after map[string]func()
}

func newFakeMutator() *fakeMutator {
	return &fakeMutator{fail: map[string]error{}, absent: map[string]bool{}, after: map[string]func(){}}
}

func (m *fakeMutator) record(op, member, arg string) error {
	m.mu.Lock()
	m.calls = append(m.calls, mutation{Op: op, Member: member, Arg: arg})
	err, hook := m.fail[op], m.after[op]
	m.mu.Unlock()
	if hook != nil {
		hook()
	}
	return err
}

func (m *fakeMutator) Grant(_ context.Context, _, memberID string, roleRefs []string) error {
	return m.record("grant", memberID, strings.Join(roleRefs, ","))
}

func (m *fakeMutator) Revoke(_ context.Context, _, memberID string, roleRefs []string) error {
	return m.record("revoke", memberID, strings.Join(roleRefs, ","))
}

func (m *fakeMutator) Rename(_ context.Context, _, memberID, label string) error {
	return m.record("rename", memberID, label)
}

func (m *fakeMutator) Evict(_ context.Context, _, memberID, reason string) error {
	return m.record("evict", memberID, reason)
}

func (m *fakeMutator) IsMember(_ context.Context, _, memberID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.memberErr != nil {
		return false, m.memberErr
	}
	return !m.absent[memberID], nil
}

func (m *fakeMutator) ops() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.calls))
	for _, c := range m.calls {
		out = append(out, c.Op)
	}
	return out
}

func (m *fakeMutator) count(op string) int {
	n := 0
	for _, o := range m.ops() {
		if o == op {
			n++
		}
	}
	return n
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notify.Notification
}

func (n *fakeNotifier) Notify(_ context.Context, msg notify.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, msg)
	return nil
}

func (n *fakeNotifier) to(dest string) []notify.Notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notify.Notification
	for _, msg := range n.sent {
		if msg.ChannelRef == dest || (msg.Direct() && msg.MemberID == dest) {
			out = append(out, msg)
		}
	}
	return out
}

type env struct {
	repos *repo.Repositories
	dir   *fakeDirectory
	mut   *fakeMutator
	note  *fakeNotifier
	svc   *Services
}

func fooCommunity() *model.CommunityConfig {
	return &model.CommunityConfig{
		CommunityId:         "c1",
		GuildName:           "Foo",
		GuildTag:            "FOO",
		MemberRoleRef:       "role-member",
		AllianceName:        "Big Ally",
		AllianceTag:         "BIG",
		AllianceRoleRef:     "role-ally",
		ProbationaryRoleRef: "role-recruit",
		LogChannelRef:       "log",
		MinTotalFame:        1_000_000,
		MinCombatFame:       100_000,
		MinReviewTier:       2,
		StaffRoles:          datatypes.NewJSONType(model.StaffRoles{1: {"helper"}, 2: {"officer"}}),
		NicknameTemplate:    "[{guildTag}] {nickname}",
	}
}

func newEnv(t *testing.T, cfgs ...*model.CommunityConfig) *env {
	t.Helper()
	db, err := database.NewDatabase(database.Database{Type: database.TypeSQLite})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	require.NoError(t, repo.AutoMigrate(db))

	repos := repo.NewRepositories(database.NewGormDB(db), nil)
	if len(cfgs) == 0 {
		cfgs = append(cfgs, fooCommunity())
	}
	for _, cfg := range cfgs {
		require.NoError(t, repos.Community.Save(context.Background(), cfg))
	}

	e := &env{
		repos: repos,
		dir:   newFakeDirectory(),
		mut:   newFakeMutator(),
		note:  &fakeNotifier{},
	}
	e.svc = NewServices(repos, e.dir, e.mut, e.note, nil, Options{Concurrency: 2})
	return e
}

// seed stores a request directly, bypassing registration.
func (e *env) seed(t *testing.T, communityID, memberID, nickname string, status model.RequestStatus) *model.VerificationRequest {
	t.Helper()
	req := &model.VerificationRequest{
		RequestId:       "req-" + memberID,
		CommunityId:     communityID,
		MemberId:        memberID,
		ClaimedNickname: nickname,
		NicknameKey:     model.NicknameKey(nickname),
		Status:          status,
		Affiliation:     model.AffiliationGuild,
	}
	if status == model.StatusPending {
		token := "K7P2QX"
		req.ProofToken = &token
	}
	require.NoError(t, e.repos.Verification.Upsert(context.Background(), req))
	return req
}

func (e *env) status(t *testing.T, communityID, memberID string) model.RequestStatus {
	t.Helper()
	req, err := e.repos.Verification.GetByMember(context.Background(), communityID, memberID)
	if err != nil {
		return ""
	}
	return req.Status
}

func (e *env) actions(t *testing.T, communityID string) map[model.ActionKind]int64 {
	t.Helper()
	counts, err := e.repos.RecruitmentLog.CountByAction(context.Background(), communityID, time.Time{})
	require.NoError(t, err)
	return counts
}

func inconclusive() error {
	return fmt.Errorf("%w: directory timeout", model.ErrInconclusive)
}
