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

package model

import "time"

// ActionKind is what a recruitment log row records.
type ActionKind string

const (
	ActionRegistered      ActionKind = "registered"
	ActionFilteredLowFame ActionKind = "filtered_low_fame"
	ActionVerifiedAuto    ActionKind = "verified_auto"
	ActionApprovedManual  ActionKind = "approved_manual"
	ActionRejectedManual  ActionKind = "rejected_manual"
	ActionKickedAuto      ActionKind = "kicked_auto"
	ActionPrivilegeDenied ActionKind = "privilege_denied"
	ActionMemberLeft      ActionKind = "member_left"
)

// ActionKinds lists every kind in reporting order.
var ActionKinds = []ActionKind{
	ActionRegistered,
	ActionFilteredLowFame,
	ActionVerifiedAuto,
	ActionApprovedManual,
	ActionRejectedManual,
	ActionKickedAuto,
	ActionPrivilegeDenied,
	ActionMemberLeft,
}

// RecruitmentLog is an append-only audit row. Rows are never updated.
type RecruitmentLog struct {
	ID              uint64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	CommunityId     string     `gorm:"column:community_id;type:varchar(64);not null;index:idx_log_community_action,priority:1" json:"communityId"`
	MemberId        string     `gorm:"column:member_id;type:varchar(64);not null" json:"memberId"`
	ClaimedNickname string     `gorm:"column:claimed_nickname;type:varchar(64)" json:"claimedNickname"`
	Action          ActionKind `gorm:"column:action;type:varchar(32);not null;index:idx_log_community_action,priority:2" json:"action"`
	ReviewerId      string     `gorm:"column:reviewer_id;type:varchar(64)" json:"reviewerId,omitempty"`
	Reason          string     `gorm:"column:reason;type:varchar(255)" json:"reason,omitempty"`
	CreatedAt       time.Time  `gorm:"column:created_at;autoCreateTime;index" json:"createdAt"`
}

func (RecruitmentLog) TableName() string {
	return "t_recruitment_log"
}
