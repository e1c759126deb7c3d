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

// Package eligibility classifies a player against a community's bar. Every
// function here is pure; compiled rules are memoised by source.
package eligibility

import (
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"github.com/go-arcade/vigia/internal/model"
	"github.com/go-arcade/vigia/pkg/log"
)

type Verdict int

const (
	Ineligible Verdict = iota
	Eligible
	// Exempt players already belong to the target guild or alliance and
	// skip the fame thresholds.
	Exempt
)

func (v Verdict) String() string {
	switch v {
	case Eligible:
		return "eligible"
	case Exempt:
		return "exempt"
	default:
		return "ineligible"
	}
}

// Passes reports whether the verdict allows the automatic path.
func (v Verdict) Passes() bool {
	return v == Eligible || v == Exempt
}

// Evaluate classifies p against cfg.
func Evaluate(p *model.Profile, cfg *model.CommunityConfig) Verdict {
	if p == nil || cfg == nil {
		return Ineligible
	}
	if MatchAffiliation(p, cfg) != model.AffiliationNone {
		return Exempt
	}
	if p.TotalFame >= cfg.MinTotalFame && p.CombatFame >= cfg.MinCombatFame && passesRule(p, cfg.EligibilityRule) {
		return Eligible
	}
	return Ineligible
}

var programs sync.Map // rule source -> *vm.Program

// passesRule runs the community's extra rule. An empty rule passes; a rule
// that fails to compile or run does not.
func passesRule(p *model.Profile, src string) bool {
	if strings.TrimSpace(src) == "" {
		return true
	}
	program, err := compiled(src)
	if err != nil {
		log.Warnw("eligibility rule does not compile", "rule", src, "error", err)
		return false
	}
	out, err := expr.Run(program, *p)
	if err != nil {
		log.Warnw("eligibility rule failed", "rule", src, "player", p.Name, "error", err)
		return false
	}
	ok, _ := out.(bool)
	return ok
}

func compiled(src string) (*vm.Program, error) {
	if v, ok := programs.Load(src); ok {
		return v.(*vm.Program), nil
	}
	program, err := model.CompileRule(src)
	if err != nil {
		return nil, err
	}
	programs.Store(src, program)
	return program, nil
}

// MatchAffiliation returns which configured target p belongs to. The guild
// wins over the alliance when both match.
func MatchAffiliation(p *model.Profile, cfg *model.CommunityConfig) model.Affiliation {
	if p == nil || cfg == nil {
		return model.AffiliationNone
	}
	if sameName(p.GuildName, cfg.GuildName) {
		return model.AffiliationGuild
	}
	if sameName(p.AllianceName, cfg.AllianceName) || sameName(p.AllianceTag, cfg.AllianceTag) {
		return model.AffiliationAlliance
	}
	return model.AffiliationNone
}

// sameName is a case-insensitive exact match; empty never matches.
func sameName(have, want string) bool {
	have, want = strings.TrimSpace(have), strings.TrimSpace(want)
	return have != "" && want != "" && strings.EqualFold(have, want)
}
