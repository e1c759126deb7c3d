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
	"github.com/go-arcade/vigia/pkg/database"
	"gorm.io/gorm"
)

type IVerificationRepository interface {
	Upsert(ctx context.Context, req *model.VerificationRequest) error
	GetByMember(ctx context.Context, communityId, memberId string) (*model.VerificationRequest, error)
	GetByRequestID(ctx context.Context, requestId string) (*model.VerificationRequest, error)
	ListByStatus(ctx context.Context, communityId string, statuses ...model.RequestStatus) ([]*model.VerificationRequest, error)
	ListQueue(ctx context.Context, communityId string) ([]*model.VerificationRequest, error)
	Transition(ctx context.Context, requestId string, from []model.RequestStatus, to model.RequestStatus, updates map[string]any) (bool, error)
	DeleteIfStatus(ctx context.Context, requestId string, statuses ...model.RequestStatus) (bool, error)
	CountByStatus(ctx context.Context, communityId string) (map[model.RequestStatus]int64, error)
}

type VerificationRepo struct {
	database.IDatabase
}

func NewVerificationRepo(db database.IDatabase) IVerificationRepository {
	return &VerificationRepo{
		IDatabase: db,
	}
}

// Upsert stores a fresh registration for (community, member). An existing
// row is overwritten only while the table allows moving it to req.Status;
// otherwise ErrAlreadyVerified is returned and nothing changes.
//
// Two first registrations racing for the same member both see no row; the
// loser's insert hits the unique index and is replayed against the winner's
// row under the same rules.
func (vr *VerificationRepo) Upsert(ctx context.Context, req *model.VerificationRequest) error {
	err := vr.upsert(ctx, req)
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		err = vr.upsert(ctx, req)
	}
	return err
}

func (vr *VerificationRepo) upsert(ctx context.Context, req *model.VerificationRequest) error {
	return vr.Database().WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing model.VerificationRequest
		err := tx.Table(existing.TableName()).
			Where("community_id = ? AND member_id = ?", req.CommunityId, req.MemberId).
			Take(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return tx.Table(req.TableName()).Create(req).Error
		}
		if err != nil {
			return err
		}

		if !model.RequestStates().CanTransition(existing.Status, req.Status) {
			return model.ErrAlreadyVerified
		}

		now := time.Now()
		res := tx.Table(req.TableName()).
			Where("id = ? AND status = ?", existing.ID, existing.Status).
			Updates(map[string]any{
				"request_id":       req.RequestId,
				"claimed_nickname": req.ClaimedNickname,
				"nickname_key":     req.NicknameKey,
				"external_id":      req.ExternalId,
				"proof_token":      req.ProofToken,
				"status":           req.Status,
				"affiliation":      req.Affiliation,
				"created_at":       now,
				"updated_at":       now,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// lost the row to a concurrent transition
			return model.ErrAlreadyVerified
		}
		req.ID = existing.ID
		req.CreatedAt = now
		req.UpdatedAt = now
		return nil
	})
}

// GetByMember returns ErrRequestNotFound when the member has no request.
func (vr *VerificationRepo) GetByMember(ctx context.Context, communityId, memberId string) (*model.VerificationRequest, error) {
	var req model.VerificationRequest
	err := vr.Database().WithContext(ctx).Table(req.TableName()).
		Where("community_id = ? AND member_id = ?", communityId, memberId).
		Take(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// GetByRequestID returns ErrRequestNotFound for an unknown id.
func (vr *VerificationRepo) GetByRequestID(ctx context.Context, requestId string) (*model.VerificationRequest, error) {
	var req model.VerificationRequest
	err := vr.Database().WithContext(ctx).Table(req.TableName()).
		Where("request_id = ?", requestId).
		Take(&req).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, model.ErrRequestNotFound
	}
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// ListByStatus lists requests in any of statuses, oldest first. An empty
// communityId lists across all communities.
func (vr *VerificationRepo) ListByStatus(ctx context.Context, communityId string, statuses ...model.RequestStatus) ([]*model.VerificationRequest, error) {
	var reqs []*model.VerificationRequest
	var req model.VerificationRequest

	query := vr.Database().WithContext(ctx).Table(req.TableName())
	if communityId != "" {
		query = query.Where("community_id = ?", communityId)
	}
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}
	err := query.Order("created_at ASC, id ASC").Find(&reqs).Error
	return reqs, err
}

// ListQueue is the staff review list: QUEUED and PENDING, oldest first.
func (vr *VerificationRepo) ListQueue(ctx context.Context, communityId string) ([]*model.VerificationRequest, error) {
	return vr.ListByStatus(ctx, communityId, model.StatusQueued, model.StatusPending)
}

// Transition moves a request to `to` with a single conditional UPDATE that
// only matches while the row is in one of `from`. It reports whether this
// call won the transition.
func (vr *VerificationRepo) Transition(ctx context.Context, requestId string, from []model.RequestStatus, to model.RequestStatus, updates map[string]any) (bool, error) {
	if len(from) == 0 {
		return false, fmt.Errorf("%w: no source status for %s", model.ErrInvalidTransition, to)
	}
	for _, f := range from {
		if err := model.RequestStates().Check(f, to); err != nil {
			return false, err
		}
	}

	values := map[string]any{
		"status":     to,
		"updated_at": time.Now(),
	}
	for k, v := range updates {
		values[k] = v
	}

	var req model.VerificationRequest
	res := vr.Database().WithContext(ctx).Table(req.TableName()).
		Where("request_id = ? AND status IN ?", requestId, from).
		Updates(values)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// DeleteIfStatus deletes the request only while it is in one of statuses.
func (vr *VerificationRepo) DeleteIfStatus(ctx context.Context, requestId string, statuses ...model.RequestStatus) (bool, error) {
	if len(statuses) == 0 {
		return false, fmt.Errorf("%w: delete needs an expected status", model.ErrInvalidTransition)
	}
	var req model.VerificationRequest
	res := vr.Database().WithContext(ctx).Table(req.TableName()).
		Where("request_id = ? AND status IN ?", requestId, statuses).
		Delete(&model.VerificationRequest{})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// CountByStatus counts requests per status for a community, or all
// communities when communityId is empty.
func (vr *VerificationRepo) CountByStatus(ctx context.Context, communityId string) (map[model.RequestStatus]int64, error) {
	var rows []struct {
		Status model.RequestStatus
		Total  int64
	}
	var req model.VerificationRequest

	query := vr.Database().WithContext(ctx).Table(req.TableName())
	if communityId != "" {
		query = query.Where("community_id = ?", communityId)
	}
	err := query.Select("status, COUNT(*) AS total").Group("status").Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	out := make(map[model.RequestStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.Total
	}
	return out, nil
}
