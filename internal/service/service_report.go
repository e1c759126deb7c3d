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
	"time"

	"github.com/go-arcade/vigia/internal/model"
	"github.com/go-arcade/vigia/internal/repo"
)

const defaultRecent = 20

// Report summarises recruitment activity of one community.
type Report struct {
	CommunityID string                        `json:"communityId"`
	Since       time.Time                     `json:"since"`
	Actions     map[model.ActionKind]int64    `json:"actions"`
	Requests    map[model.RequestStatus]int64 `json:"requests"`
	Recent      []*model.RecruitmentLog       `json:"recent"`
}

type ReportService struct {
	requests repo.IVerificationRepository
	logs     repo.IRecruitmentLogRepository
}

func NewReportService(repos *repo.Repositories) *ReportService {
	return &ReportService{
		requests: repos.Verification,
		logs:     repos.RecruitmentLog,
	}
}

// Summary counts log actions since `since` (zero means all time) and the
// current requests per status. Every action kind and status is present.
func (rs *ReportService) Summary(ctx context.Context, communityID string, since time.Time, recent int) (*Report, error) {
	if communityID == "" {
		return nil, fmt.Errorf("%w: community is required", model.ErrInvalidInput)
	}
	if recent <= 0 {
		recent = defaultRecent
	}

	actions, err := rs.logs.CountByAction(ctx, communityID, since)
	if err != nil {
		return nil, err
	}
	requests, err := rs.requests.CountByStatus(ctx, communityID)
	if err != nil {
		return nil, err
	}
	entries, err := rs.logs.ListRecent(ctx, communityID, recent)
	if err != nil {
		return nil, err
	}

	report := &Report{
		CommunityID: communityID,
		Since:       since,
		Actions:     make(map[model.ActionKind]int64, len(model.ActionKinds)),
		Requests:    make(map[model.RequestStatus]int64, 4),
		Recent:      entries,
	}
	for _, kind := range model.ActionKinds {
		report.Actions[kind] = actions[kind]
	}
	for _, status := range model.RequestStates().States() {
		report.Requests[status] = requests[status]
	}
	return report, nil
}
