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

import (
	"strings"

	"github.com/go-arcade/vigia/pkg/statemachine"
)

// RequestStatus is the lifecycle state of a VerificationRequest.
// Absence of a row is the implicit unregistered state.
type RequestStatus string

const (
	StatusPending  RequestStatus = "PENDING"  // waiting for proof
	StatusQueued   RequestStatus = "QUEUED"   // waiting for staff review
	StatusVerified RequestStatus = "VERIFIED" // privileges granted
	StatusRevoking RequestStatus = "REVOKING" // claimed by reconciliation before eviction
)

// VerificationRequest is one member's claim of a directory identity within a
// community. (community_id, member_id) is unique.
type VerificationRequest struct {
	BaseModel
	RequestId       string        `gorm:"column:request_id;type:varchar(26);not null;uniqueIndex" json:"requestId"`
	CommunityId     string        `gorm:"column:community_id;type:varchar(64);not null;uniqueIndex:idx_community_member,priority:1" json:"communityId"`
	MemberId        string        `gorm:"column:member_id;type:varchar(64);not null;uniqueIndex:idx_community_member,priority:2" json:"memberId"`
	ClaimedNickname string        `gorm:"column:claimed_nickname;type:varchar(64);not null" json:"claimedNickname"`
	NicknameKey     string        `gorm:"column:nickname_key;type:varchar(64);not null;index" json:"-"`
	ExternalId      string        `gorm:"column:external_id;type:varchar(64)" json:"externalId"`
	ProofToken      *string       `gorm:"column:proof_token;type:varchar(16)" json:"-"`
	Status          RequestStatus `gorm:"column:status;type:varchar(16);not null;index" json:"status"`
	Affiliation     Affiliation   `gorm:"column:affiliation;type:varchar(16);not null;default:none" json:"affiliation"`
}

func (VerificationRequest) TableName() string {
	return "t_verification_request"
}

// NicknameKey folds a nickname for comparison. Display casing is kept in
// ClaimedNickname.
func NicknameKey(nickname string) string {
	return strings.ToLower(strings.TrimSpace(nickname))
}

var requestStates = statemachine.New[RequestStatus]().
	Allow(StatusPending, StatusPending, StatusQueued, StatusVerified).
	Allow(StatusQueued, StatusPending, StatusQueued, StatusVerified).
	Allow(StatusVerified, StatusRevoking).
	Allow(StatusRevoking, StatusVerified)

// RequestStates is the transition table of VerificationRequest.Status.
func RequestStates() *statemachine.StateMachine[RequestStatus] {
	return requestStates
}
