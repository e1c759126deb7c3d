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

package privilege

import (
	"context"
	"errors"

	"github.com/go-arcade/vigia/internal/model"
	"github.com/go-arcade/vigia/pkg/log"
	"github.com/go-arcade/vigia/pkg/metrics"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Instrumented decorates a Mutator with a span, a metric and a log line per
// call.
type Instrumented struct {
	next     Mutator
	recorder *metrics.Recorder
	tracer   trace.Tracer
}

// Instrument wraps next. recorder may be nil.
func Instrument(next Mutator, recorder *metrics.Recorder) *Instrumented {
	return &Instrumented{
		next:     next,
		recorder: recorder,
		tracer:   otel.Tracer("github.com/go-arcade/vigia/internal/privilege"),
	}
}

func (m *Instrumented) observe(ctx context.Context, action, communityID, memberID string, fn func(ctx context.Context) error) error {
	ctx, span := m.tracer.Start(ctx, "privilege."+action, trace.WithAttributes(
		attribute.String("community.id", communityID),
		attribute.String("member.id", memberID),
	))
	defer span.End()

	err := fn(ctx)
	m.recorder.ObservePrivilege(action, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if errors.Is(err, model.ErrAuthorizationDenied) {
			log.Warnw("privilege mutation denied", "action", action, "communityId", communityID, "memberId", memberID, "error", err)
		}
	}
	return err
}

func (m *Instrumented) Grant(ctx context.Context, communityID, memberID string, roleRefs []string) error {
	return m.observe(ctx, "grant", communityID, memberID, func(ctx context.Context) error {
		return m.next.Grant(ctx, communityID, memberID, roleRefs)
	})
}

func (m *Instrumented) Revoke(ctx context.Context, communityID, memberID string, roleRefs []string) error {
	return m.observe(ctx, "revoke", communityID, memberID, func(ctx context.Context) error {
		return m.next.Revoke(ctx, communityID, memberID, roleRefs)
	})
}

func (m *Instrumented) Rename(ctx context.Context, communityID, memberID, label string) error {
	return m.observe(ctx, "rename", communityID, memberID, func(ctx context.Context) error {
		return m.next.Rename(ctx, communityID, memberID, label)
	})
}

func (m *Instrumented) Evict(ctx context.Context, communityID, memberID, reason string) error {
	return m.observe(ctx, "evict", communityID, memberID, func(ctx context.Context) error {
		return m.next.Evict(ctx, communityID, memberID, reason)
	})
}

func (m *Instrumented) IsMember(ctx context.Context, communityID, memberID string) (bool, error) {
	var present bool
	err := m.observe(ctx, "is_member", communityID, memberID, func(ctx context.Context) error {
		var err error
		present, err = m.next.IsMember(ctx, communityID, memberID)
		return err
	})
	return present, err
}
