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
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/vigia/internal/model"
	"github.com/go-arcade/vigia/internal/repo"
	"github.com/go-arcade/vigia/pkg/log"
)

// Log decorates a recruitment log repository: every stored entry is also
// published. A broker failure is logged and never fails the append.
type Log struct {
	repo.IRecruitmentLogRepository
	pub     Publisher
	prefix  string
	timeout time.Duration
}

func NewLog(next repo.IRecruitmentLogRepository, pub Publisher, conf Conf) *Log {
	conf.SetDefaults()
	return &Log{
		IRecruitmentLogRepository: next,
		pub:                       pub,
		prefix:                    conf.RoutingPrefix,
		timeout:                   conf.Timeout,
	}
}

func (l *Log) Append(ctx context.Context, entry *model.RecruitmentLog) error {
	if err := l.IRecruitmentLogRepository.Append(ctx, entry); err != nil {
		return err
	}

	body, err := sonic.Marshal(entry)
	if err != nil {
		log.Warnw("audit event encode failed", "community", entry.CommunityId, "error", err)
		return nil
	}
	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), l.timeout)
	defer cancel()
	if err := l.pub.Publish(pubCtx, l.RoutingKey(entry), strconv.FormatUint(entry.ID, 10), body); err != nil {
		log.Warnw("audit event publish failed",
			"community", entry.CommunityId,
			"member", entry.MemberId,
			"action", entry.Action,
			"error", err)
	}
	return nil
}

// RoutingKey is <prefix>.<community>.<action>; dots in ids are replaced so
// topic bindings like "recruitment.*.kicked_auto" keep working.
func (l *Log) RoutingKey(entry *model.RecruitmentLog) string {
	community := strings.ReplaceAll(entry.CommunityId, ".", "_")
	return l.prefix + "." + community + "." + string(entry.Action)
}
