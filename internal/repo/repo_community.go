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
	"errors"
	"fmt"
	"time"

	"github.com/go-arcade/vigia/internal/model"
	"github.com/go-arcade/vigia/pkg/cache"
	"github.com/go-arcade/vigia/pkg/database"
	"github.com/go-arcade/vigia/pkg/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ICommunityRepository interface {
	Get(ctx context.Context, communityId string) (*model.CommunityConfig, error)
	Save(ctx context.Context, cfg *model.CommunityConfig) error
	List(ctx context.Context) ([]*model.CommunityConfig, error)
}

const (
	communityCacheKeyPrefix = "vigia:community:"
	communityCacheTTL       = 10 * time.Minute
)

type CommunityRepo struct {
	database.IDatabase
	configs *cache.ReadThrough[*model.CommunityConfig]
}

func NewCommunityRepo(db database.IDatabase, c cache.ICache) ICommunityRepository {
	cr := &CommunityRepo{IDatabase: db}
	cr.configs = cache.NewReadThrough(c, communityCacheKeyPrefix, communityCacheTTL, cr.load)
	return cr
}

// Get returns the config of a community (with Redis JSON cache). A community
// that was never set up yields ErrConfigIncomplete.
func (cr *CommunityRepo) Get(ctx context.Context, communityId string) (*model.CommunityConfig, error) {
	return cr.configs.Get(ctx, communityId)
}

func (cr *CommunityRepo) load(ctx context.Context, communityId string) (*model.CommunityConfig, error) {
	var cfg model.CommunityConfig
	err := cr.Database().WithContext(ctx).Table(cfg.TableName()).
		Where("community_id = ?", communityId).
		Take(&cfg).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: community %s is not set up", model.ErrConfigIncomplete, communityId)
	}
	if err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save validates and upserts the config by community id, then drops the
// cached copy.
func (cr *CommunityRepo) Save(ctx context.Context, cfg *model.CommunityConfig) error {
	if cfg.MinReviewTier == 0 {
		cfg.MinReviewTier = model.MinStaffTier
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	err := cr.Database().WithContext(ctx).Table(cfg.TableName()).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "community_id"}},
			DoUpdates: clause.AssignmentColumns(communityMutableColumns),
		}).
		Create(cfg).Error
	if err != nil {
		return err
	}

	if err := cr.configs.Invalidate(ctx, cfg.CommunityId); err != nil {
		log.Warnw("community cache invalidation failed", "community", cfg.CommunityId, "error", err)
	}
	return nil
}

var communityMutableColumns = []string{
	"guild_name", "guild_tag", "member_role_ref",
	"alliance_name", "alliance_tag", "alliance_role_ref",
	"min_total_fame", "min_combat_fame", "probationary_role_ref",
	"registration_channel_ref", "log_channel_ref", "approval_queue_channel_ref",
	"staff_roles", "min_review_tier", "nickname_template",
	"eligibility_rule", "locale", "updated_at",
}

// List returns all configured communities.
func (cr *CommunityRepo) List(ctx context.Context) ([]*model.CommunityConfig, error) {
	var cfgs []*model.CommunityConfig
	var cfg model.CommunityConfig
	err := cr.Database().WithContext(ctx).Table(cfg.TableName()).
		Order("community_id ASC").
		Find(&cfgs).Error
	return cfgs, err
}
