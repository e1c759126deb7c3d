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

// Package privilege is the boundary to the chat platform that owns roles,
// nicknames and membership.
package privilege

import (
	"context"

	"github.com/go-arcade/vigia/internal/model"
)

// Mutator changes a member's standing in a community. Implementations return
// errors wrapping model.ErrAuthorizationDenied when the platform refuses the
// call and model.ErrMemberGone when the member is not there.
type Mutator interface {
	Grant(ctx context.Context, communityID, memberID string, roleRefs []string) error
	Revoke(ctx context.Context, communityID, memberID string, roleRefs []string) error
	Rename(ctx context.Context, communityID, memberID, label string) error
	Evict(ctx context.Context, communityID, memberID, reason string) error
	IsMember(ctx context.Context, communityID, memberID string) (bool, error)
}

// TierResolver maps a reviewer to a staff tier of cfg (0 = not staff).
type TierResolver interface {
	ReviewerTier(ctx context.Context, cfg *model.CommunityConfig, memberID string) (int, error)
}
