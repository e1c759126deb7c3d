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
	"time"

	"github.com/go-arcade/vigia/internal/model"
	"github.com/go-arcade/vigia/pkg/database"
)

// IRecruitmentLogRepository is append-only: there is no update or delete.
type IRecruitmentLogRepository interface {
	Append(ctx context.Context, entry *model.RecruitmentLog) error
	CountByAction(ctx context.Context, communityId string, since time.Time) (map[model.ActionKind]int64, error)
	ListRecent(ctx context.Context, communityId string, limit int) ([]*model.RecruitmentLog, error)
}

type RecruitmentLogRepo struct {
	database.IDatabase
}

func NewRecruitmentLogRepo(db database.IDatabase) IRecruitmentLogRepository {
	return &RecruitmentLogRepo{
		IDatabase: db,
	}
}

func (rr *RecruitmentLogRepo) Append(ctx context.Context, entry *model.RecruitmentLog) error {
	return rr.Database().WithContext(ctx).Table(entry.TableName()).Create(entry).Error
}

// CountByAction groups a community's log by action. A zero since counts
// everything.
func (rr *RecruitmentLogRepo) CountByAction(ctx context.Context, communityId string, since time.Time) (map[model.ActionKind]int64, error) {
	var rows []struct {
		Action model.ActionKind
		Total  int64
	}
	var entry model.RecruitmentLog

	query := database.ReadDB(rr.Database()).WithContext(ctx).Table(entry.TableName()).
		Where("community_id = ?", communityId)
	if !since.IsZero() {
		query = query.Where("created_at >= ?", since)
	}
	err := query.Select("action, COUNT(*) AS total").Group("action").Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[model.ActionKind]int64, len(rows))
	for _, r := range rows {
		out[r.Action] = r.Total
	}
	return out, nil
}

// ListRecent returns the newest entries first.
func (rr *RecruitmentLogRepo) ListRecent(ctx context.Context, communityId string, limit int) ([]*model.RecruitmentLog, error) {
	if limit <= 0 {
		limit = 20
	}
	var entries []*model.RecruitmentLog
	var entry model.RecruitmentLog
	err := database.ReadDB(rr.Database()).WithContext(ctx).Table(entry.TableName()).
		Where("community_id = ?", communityId).
		Order("id DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}
