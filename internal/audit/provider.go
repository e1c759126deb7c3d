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

package audit

import (
	"github.com/go-arcade/vigia/internal/repo"
	"github.com/go-arcade/vigia/pkg/cache"
	"github.com/go-arcade/vigia/pkg/database"
	"github.com/go-arcade/vigia/pkg/log"
	"github.com/google/wire"
)

// ProviderSet builds the repositories with the audit publisher in front of
// the recruitment log.
var ProviderSet = wire.NewSet(ProvideRepositories)

// dial is replaced in tests.
var dial = NewRabbitPublisher

// ProvideRepositories returns the repositories; when audit is enabled the
// recruitment log also publishes, and the cleanup closes the connection.
func ProvideRepositories(db database.IDatabase, c cache.ICache, conf Conf) (*repo.Repositories, func(), error) {
	repos := repo.NewRepositories(db, c)
	if !conf.Enabled {
		return repos, func() {}, nil
	}
	conf.SetDefaults()
	pub, err := dial(conf.URL, conf.Exchange)
	if err != nil {
		return nil, nil, err
	}
	repos.RecruitmentLog = NewLog(repos.RecruitmentLog, pub, conf)
	log.Infow("audit events enabled", "exchange", conf.Exchange, "prefix", conf.RoutingPrefix)
	return repos, func() {
		if err := pub.Close(); err != nil {
			log.Warnw("audit publisher close failed", "error", err)
		}
	}, nil
}
