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

// Profile is the directory's view of one player.
type Profile struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	GuildID      string `json:"guildId"`
	GuildName    string `json:"guildName"`
	GuildTag     string `json:"guildTag"`
	AllianceID   string `json:"allianceId"`
	AllianceName string `json:"allianceName"`
	AllianceTag  string `json:"allianceTag"`
	Bio          string `json:"bio"`
	TotalFame    int64  `json:"totalFame"`
	CombatFame   int64  `json:"combatFame"`
}

// Candidate is one search hit.
type Candidate struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	GuildName    string `json:"guildName"`
	AllianceName string `json:"allianceName"`
}
