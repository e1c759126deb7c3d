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

// Package scheduler drives the periodic verification and reconciliation
// sweeps.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-arcade/vigia/internal/service"
	"github.com/go-arcade/vigia/pkg/cache"
	"github.com/go-arcade/vigia/pkg/cron"
	"github.com/go-arcade/vigia/pkg/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	JobVerify    = "verify-sweep"
	JobReconcile = "reconcile-sweep"
)

var ErrUnknownJob = errors.New("scheduler: unknown job")

// Conf is the [schedule] section.
type Conf struct {
	Enabled           bool          `mapstructure:"enabled"`
	VerifyInterval    time.Duration `mapstructure:"verifyInterval"`
	ReconcileInterval time.Duration `mapstructure:"reconcileInterval"`
	Concurrency       int           `mapstructure:"concurrency"`
	// Timeout bounds a single sweep.
	Timeout time.Duration `mapstructure:"timeout"`
	// MemberTimeout bounds one member; it outlives Stop.
	MemberTimeout time.Duration `mapstructure:"memberTimeout"`
}

func (c *Conf) SetDefaults() {
	if c.VerifyInterval <= 0 {
		c.VerifyInterval = 5 * time.Minute
	}
	if c.ReconcileInterval <= 0 {
		c.ReconcileInterval = 30 * time.Minute
	}
	if c.Concurrency <= 0 {
		c.Concurrency = 4
	}
	if c.Timeout <= 0 {
		c.Timeout = 20 * time.Minute
	}
	if c.MemberTimeout <= 0 {
		c.MemberTimeout = 2 * time.Minute
	}
}

func (c *Conf) Validate() error {
	if c.VerifyInterval < time.Second || c.ReconcileInterval < time.Second {
		return fmt.Errorf("schedule: intervals must be at least 1s")
	}
	return nil
}

// Options is what the services need from the section.
func (c Conf) Options() service.Options {
	return service.Options{Concurrency: c.Concurrency, MemberTimeout: c.MemberTimeout}
}

// Sweeper is one periodic job.
type Sweeper func(ctx context.Context) (service.SweepStats, error)

// Scheduler owns the cron and a root context that Stop cancels, so running
// sweeps stop between members.
type Scheduler struct {
	conf   Conf
	cron   *cron.Cron
	jobs   map[string]Sweeper
	tracer trace.Tracer

	ctx    context.Context
	cancel context.CancelFunc
	once   sync.Once
}

// New wires the two sweeps. locker may be nil for a single instance.
func New(conf Conf, services *service.Services, locker cache.ICache) *Scheduler {
	return newScheduler(conf, map[string]Sweeper{
		JobVerify:    services.Verification.SweepPending,
		JobReconcile: services.Reconciliation.Sweep,
	}, locker)
}

func newScheduler(conf Conf, jobs map[string]Sweeper, locker cache.ICache) *Scheduler {
	conf.SetDefaults()
	var opts []cron.OpOption
	if locker != nil {
		opts = append(opts, cron.WithLocker(locker, conf.Timeout+time.Minute))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		conf:   conf,
		cron:   cron.New(opts...),
		jobs:   jobs,
		tracer: otel.Tracer("github.com/go-arcade/vigia/internal/scheduler"),
		ctx:    ctx,
		cancel: cancel,
	}
}

// Start registers the jobs and starts ticking. It is a no-op when the
// schedule is disabled.
func (s *Scheduler) Start() error {
	if !s.conf.Enabled {
		log.Info("schedule disabled, sweeps run only on demand")
		return nil
	}
	intervals := map[string]time.Duration{
		JobVerify:    s.conf.VerifyInterval,
		JobReconcile: s.conf.ReconcileInterval,
	}
	for name, every := range intervals {
		spec := fmt.Sprintf("@every %s", every)
		if err := s.cron.AddFunc(spec, s.tick(name), name); err != nil {
			return err
		}
		log.Infow("sweep scheduled", "job", name, "interval", spec)
	}
	s.cron.Start()
	return nil
}

// Stop cancels running sweeps and waits for them.
func (s *Scheduler) Stop() {
	s.once.Do(func() {
		s.cancel()
		s.cron.Stop()
	})
}

func (s *Scheduler) tick(name string) func() {
	return func() {
		if _, err := s.RunOnce(s.ctx, name); err != nil && !errors.Is(err, context.Canceled) {
			log.Errorw("sweep failed", "job", name, "error", err)
		}
	}
}

// RunOnce runs a sweep now under ctx and the configured timeout.
func (s *Scheduler) RunOnce(ctx context.Context, name string) (service.SweepStats, error) {
	sweep, ok := s.jobs[name]
	if !ok {
		return service.SweepStats{}, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	ctx, cancel := context.WithTimeout(ctx, s.conf.Timeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "sweep."+name)
	defer span.End()

	stats, err := sweep(ctx)
	span.SetAttributes(
		attribute.Int("sweep.visited", stats.Visited),
		attribute.Int("sweep.failed", stats.Failed),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	return stats, err
}

// Jobs lists scheduled jobs with their next run.
func (s *Scheduler) Jobs() []*cron.Entry {
	return s.cron.Entries()
}
