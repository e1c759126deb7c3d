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
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"golang.org/x/text/language"
	"gorm.io/datatypes"
)

const (
	MinStaffTier = 1
	MaxStaffTier = 4

	// MaxLabelLength is the chat platform's nickname limit, in runes.
	MaxLabelLength = 32

	DefaultNicknameTemplate = "{nickname}"
)

// StaffRoles maps a staff tier (1..4) to the role refs that grant it.
type StaffRoles map[int][]string

// CommunityConfig is the per-community setup: what counts as membership,
// the automatic eligibility bar, and where reports go.
type CommunityConfig struct {
	BaseModel
	CommunityId             string                         `gorm:"column:community_id;type:varchar(64);not null;uniqueIndex" json:"communityId"`
	GuildName               string                         `gorm:"column:guild_name;type:varchar(64)" json:"guildName"`
	GuildTag                string                         `gorm:"column:guild_tag;type:varchar(16)" json:"guildTag"`
	MemberRoleRef           string                         `gorm:"column:member_role_ref;type:varchar(64)" json:"memberRoleRef"`
	AllianceName            string                         `gorm:"column:alliance_name;type:varchar(64)" json:"allianceName"`
	AllianceTag             string                         `gorm:"column:alliance_tag;type:varchar(16)" json:"allianceTag"`
	AllianceRoleRef         string                         `gorm:"column:alliance_role_ref;type:varchar(64)" json:"allianceRoleRef"`
	MinTotalFame            int64                          `gorm:"column:min_total_fame;not null;default:0" json:"minTotalFame"`
	MinCombatFame           int64                          `gorm:"column:min_combat_fame;not null;default:0" json:"minCombatFame"`
	ProbationaryRoleRef     string                         `gorm:"column:probationary_role_ref;type:varchar(64)" json:"probationaryRoleRef"`
	RegistrationChannelRef  string                         `gorm:"column:registration_channel_ref;type:varchar(64)" json:"registrationChannelRef"`
	LogChannelRef           string                         `gorm:"column:log_channel_ref;type:varchar(64)" json:"logChannelRef"`
	ApprovalQueueChannelRef string                         `gorm:"column:approval_queue_channel_ref;type:varchar(64)" json:"approvalQueueChannelRef"`
	StaffRoles              datatypes.JSONType[StaffRoles] `gorm:"column:staff_roles" json:"staffRoles"`
	MinReviewTier           int                            `gorm:"column:min_review_tier;not null;default:1" json:"minReviewTier"`
	NicknameTemplate        string                         `gorm:"column:nickname_template;type:varchar(64)" json:"nicknameTemplate"`
	// EligibilityRule is an optional expr-lang boolean over Profile fields,
	// e.g. `CombatFame > 2 * TotalFame / 5`, required on top of the fame bars.
	EligibilityRule string `gorm:"column:eligibility_rule;type:varchar(512)" json:"eligibilityRule"`
	// Locale is the BCP 47 tag member and staff texts are rendered in.
	Locale string `gorm:"column:locale;type:varchar(16)" json:"locale"`
}

func (CommunityConfig) TableName() string {
	return "t_community_config"
}

// Validate checks the config is usable by the verification pipeline. All
// failures wrap ErrConfigIncomplete.
func (c *CommunityConfig) Validate() error {
	if c == nil {
		return ErrConfigIncomplete
	}
	if c.CommunityId == "" {
		return fmt.Errorf("%w: community id is empty", ErrConfigIncomplete)
	}
	if c.GuildName == "" && c.AllianceName == "" && c.AllianceTag == "" {
		return fmt.Errorf("%w: no target guild or alliance", ErrConfigIncomplete)
	}
	if c.GuildName != "" && c.MemberRoleRef == "" {
		return fmt.Errorf("%w: guild %q has no member role", ErrConfigIncomplete, c.GuildName)
	}
	if (c.AllianceName != "" || c.AllianceTag != "") && c.AllianceRoleRef == "" {
		return fmt.Errorf("%w: alliance has no role", ErrConfigIncomplete)
	}
	if c.MinTotalFame < 0 || c.MinCombatFame < 0 {
		return fmt.Errorf("%w: fame thresholds must not be negative", ErrConfigIncomplete)
	}
	if c.MinReviewTier < MinStaffTier || c.MinReviewTier > MaxStaffTier {
		return fmt.Errorf("%w: min review tier %d outside %d..%d", ErrConfigIncomplete, c.MinReviewTier, MinStaffTier, MaxStaffTier)
	}
	for tier := range c.StaffRoles.Data() {
		if tier < MinStaffTier || tier > MaxStaffTier {
			return fmt.Errorf("%w: staff tier %d outside %d..%d", ErrConfigIncomplete, tier, MinStaffTier, MaxStaffTier)
		}
	}
	if c.Locale != "" {
		if _, err := language.Parse(c.Locale); err != nil {
			return fmt.Errorf("%w: locale %q: %v", ErrConfigIncomplete, c.Locale, err)
		}
	}
	if c.EligibilityRule != "" {
		if _, err := CompileRule(c.EligibilityRule); err != nil {
			return fmt.Errorf("%w: eligibility rule: %v", ErrConfigIncomplete, err)
		}
	}
	return nil
}

// CompileRule compiles an eligibility rule against the Profile fields.
func CompileRule(src string) (*vm.Program, error) {
	return expr.Compile(src, expr.Env(Profile{}), expr.AsBool())
}

// StaffApprovalMode reports whether ineligible registrations go to the staff
// queue rather than straight to PENDING.
func (c *CommunityConfig) StaffApprovalMode() bool {
	return c.ApprovalQueueChannelRef != ""
}

// HasAllianceTarget reports whether an alliance path is configured.
func (c *CommunityConfig) HasAllianceTarget() bool {
	return c.AllianceName != "" || c.AllianceTag != ""
}

// RoleFor returns the role granted for an affiliation, or "".
func (c *CommunityConfig) RoleFor(a Affiliation) string {
	switch a {
	case AffiliationGuild:
		return c.MemberRoleRef
	case AffiliationAlliance:
		return c.AllianceRoleRef
	default:
		return ""
	}
}

// StaffTier returns the highest tier any of roles grants, 0 when none.
func (c *CommunityConfig) StaffTier(roles []string) int {
	held := make(map[string]struct{}, len(roles))
	for _, r := range roles {
		held[r] = struct{}{}
	}
	best := 0
	for tier, refs := range c.StaffRoles.Data() {
		if tier <= best {
			continue
		}
		for _, ref := range refs {
			if _, ok := held[ref]; ok {
				best = tier
				break
			}
		}
	}
	return best
}

// Label renders the member's display name from NicknameTemplate. The result
// is cut to MaxLabelLength runes.
func (c *CommunityConfig) Label(nickname string, p *Profile) string {
	tmpl := c.NicknameTemplate
	if tmpl == "" {
		tmpl = DefaultNicknameTemplate
	}
	var allianceTag, guild string
	if p != nil {
		allianceTag = p.AllianceTag
		guild = p.GuildName
	}
	if allianceTag == "" {
		allianceTag = c.AllianceTag
	}
	label := strings.NewReplacer(
		"{nickname}", nickname,
		"{guildTag}", c.GuildTag,
		"{allianceTag}", allianceTag,
		"{guild}", guild,
	).Replace(tmpl)
	label = strings.TrimSpace(strings.ReplaceAll(label, "[]", ""))
	if label == "" {
		label = nickname
	}
	return TruncateLabel(label)
}

// TruncateLabel cuts s to MaxLabelLength runes.
func TruncateLabel(s string) string {
	if utf8.RuneCountInString(s) <= MaxLabelLength {
		return s
	}
	return string([]rune(s)[:MaxLabelLength])
}
