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

package service

import (
	"context"
	"testing"
	"time"

	"github.com/go-arcade/vigia/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummary(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	e.dir.put(barProfile())
	register(t, e, "m1", "Bar")
	e.seed(t, "c1", "m2", "Leaver", model.StatusVerified)
	_, err := e.svc.Reconciliation.Sweep(ctx)
	require.NoError(t, err)

	report, err := e.svc.Report.Summary(ctx, "c1", time.Time{}, 0)
	require.NoError(t, err)
	assert.Len(t, report.Actions, len(model.ActionKinds))
	assert.EqualValues(t, 1, report.Actions[model.ActionRegistered])
	assert.EqualValues(t, 1, report.Actions[model.ActionKickedAuto])
	assert.Zero(t, report.Actions[model.ActionApprovedManual])
	assert.EqualValues(t, 1, report.Requests[model.StatusPending])
	assert.Zero(t, report.Requests[model.StatusVerified])
	require.Len(t, report.Recent, 2)
	assert.Equal(t, model.ActionKickedAuto, report.Recent[0].Action)

	later, err := e.svc.Report.Summary(ctx, "c1", time.Now().Add(time.Hour), 1)
	require.NoError(t, err)
	assert.Zero(t, later.Actions[model.ActionRegistered])
	assert.Len(t, later.Recent, 1)

	_, err = e.svc.Report.Summary(ctx, "", time.Time{}, 0)
	assert.ErrorIs(t, err, model.ErrInvalidInput)
}
