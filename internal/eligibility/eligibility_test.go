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

package eligibility

import (
	"testing"

	"github.com/go-arcade/vigia/internal/model"
	"github.com/stretchr/testify/assert"
)

func fooConfig() *model.CommunityConfig {
	return &model.CommunityConfig{
		CommunityId:   "c1",
		GuildName:     "Foo",
		MemberRoleRef: "member",
		MinTotalFame:  10_000_000,
		MinCombatFame: 500_000,
	}
}

func TestEvaluate(t *testing.T) {
	cfg := fooConfig()
	cfg.AllianceName, cfg.AllianceTag, cfg.AllianceRoleRef = "Big Ally", "BIG", "ally"

	tests := []struct {
		name    string
		profile model.Profile
		want    Verdict
	}{
		{name: "low fame outsider", profile: model.Profile{GuildName: "Other", TotalFame: 5_000_000, CombatFame: 100_000}, want: Ineligible},
		{name: "low combat only", profile: model.Profile{TotalFame: 20_000_000, CombatFame: 100_000}, want: Ineligible},
		{name: "on the bar", profile: model.Profile{TotalFame: 10_000_000, CombatFame: 500_000}, want: Eligible},
		{name: "guild member with no fame", profile: model.Profile{GuildName: "foo"}, want: Exempt},
		{name: "alliance by name", profile: model.Profile{GuildName: "Sister", AllianceName: "BIG ALLY"}, want: Exempt},
		{name: "alliance by tag", profile: model.Profile{GuildName: "Sister", AllianceTag: "big"}, want: Exempt},
		{name: "empty guild never matches", profile: model.Profile{}, want: Ineligible},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := tt.profile
			got := Evaluate(&p, cfg)
			assert.Equal(t, tt.want, got)
			// deterministic
			assert.Equal(t, got, Evaluate(&p, cfg))
		})
	}
}

func TestEvaluate_ZeroThresholds(t *testing.T) {
	cfg := fooConfig()
	cfg.MinTotalFame, cfg.MinCombatFame = 0, 0
	assert.Equal(t, Eligible, Evaluate(&model.Profile{GuildName: "Other"}, cfg))
}

func TestEvaluate_Rule(t *testing.T) {
	cfg := fooConfig()
	cfg.EligibilityRule = "CombatFame * 10 >= TotalFame"

	assert.Equal(t, Eligible, Evaluate(&model.Profile{TotalFame: 10_000_000, CombatFame: 1_000_000}, cfg))
	assert.Equal(t, Ineligible, Evaluate(&model.Profile{TotalFame: 20_000_000, CombatFame: 600_000}, cfg))
	// members skip the rule like they skip the bars
	assert.Equal(t, Exempt, Evaluate(&model.Profile{GuildName: "Foo"}, cfg))

	cfg.EligibilityRule = "TotalFame >"
	assert.Equal(t, Ineligible, Evaluate(&model.Profile{TotalFame: 20_000_000, CombatFame: 20_000_000}, cfg))
}

func TestEvaluate_Nil(t *testing.T) {
	assert.Equal(t, Ineligible, Evaluate(nil, fooConfig()))
	assert.Equal(t, Ineligible, Evaluate(&model.Profile{}, nil))
}

func TestMatchAffiliation_GuildWins(t *testing.T) {
	cfg := fooConfig()
	cfg.AllianceName, cfg.AllianceRoleRef = "Ally", "ally"

	assert.Equal(t, model.AffiliationGuild, MatchAffiliation(&model.Profile{GuildName: " Foo ", AllianceName: "Ally"}, cfg))
	assert.Equal(t, model.AffiliationAlliance, MatchAffiliation(&model.Profile{GuildName: "Bar", AllianceName: "ally"}, cfg))
	assert.Equal(t, model.AffiliationNone, MatchAffiliation(&model.Profile{GuildName: "Bar"}, cfg))
}

func TestVerdict(t *testing.T) {
	assert.True(t, Exempt.Passes())
	assert.True(t, Eligible.Passes())
	assert.False(t, Ineligible.Passes())
	assert.Equal(t, "exempt", Exempt.String())
}
