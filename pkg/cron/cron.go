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

// Package cron runs named jobs on robfig/cron schedules. A job never
// overlaps itself: a tick that arrives while the previous run is still
// going is skipped. With a cache attached, the same holds across processes.
package cron

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-arcade/vigia/pkg/cache"
	"github.com/go-arcade/vigia/pkg/log"
	"github.com/go-arcade/vigia/pkg/safe"
	robfig "github.com/robfig/cron"
)

var (
	ErrDuplicateJob = errors.New("cron: job name already registered")
	ErrStopped      = errors.New("cron: scheduler stopped")
)

const lockPrefix = "vigia:cron:lock:"

// Entry describes a registered job.
type Entry struct {
	Name string
	Spec string
	Next time.Time
	Prev time.Time
}

type namedJob struct {
	name string
	spec string
	cmd  func()
	busy atomic.Bool
	cron *Cron
}

func (j *namedJob) Run() {
	j.cron.run(j)
}

// Cron is safe for concurrent use.
type Cron struct {
	c       *robfig.Cron
	locker  cache.ICache
	lockTTL time.Duration
	owner   string

	mu      sync.Mutex
	jobs    map[string]*namedJob
	stopped bool
	wg      sync.WaitGroup
}

type OpOption func(*Cron)

// WithLocation evaluates schedules in loc instead of time.Local.
func WithLocation(loc *time.Location) OpOption {
	return func(c *Cron) {
		c.c = robfig.NewWithLocation(loc)
	}
}

// WithLocker takes a cache lock per run so that only one process runs a
// job at a time. ttl bounds how long a crashed holder blocks the others.
func WithLocker(locker cache.ICache, ttl time.Duration) OpOption {
	return func(c *Cron) {
		c.locker = locker
		c.lockTTL = ttl
	}
}

func New(opts ...OpOption) *Cron {
	host, _ := os.Hostname()
	c := &Cron{
		c:       robfig.New(),
		lockTTL: 30 * time.Minute,
		owner:   fmt.Sprintf("%s-%d", host, os.Getpid()),
		jobs:    make(map[string]*namedJob),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AddFunc registers cmd under a unique name. spec is anything robfig/cron
// parses, e.g. "@every 5m" or "0 */5 * * * *".
func (c *Cron) AddFunc(spec string, cmd func(), name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.jobs[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateJob, name)
	}
	job := &namedJob{name: name, spec: spec, cmd: cmd, cron: c}
	if err := c.c.AddJob(spec, job); err != nil {
		return fmt.Errorf("cron: job %s: %w", name, err)
	}
	c.jobs[name] = job
	return nil
}

func (c *Cron) Start() {
	c.c.Start()
}

// Stop stops scheduling and waits for running jobs to return.
func (c *Cron) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.mu.Unlock()
	c.c.Stop()
	c.wg.Wait()
}

// Entries lists the registered jobs with their next and previous run.
func (c *Cron) Entries() []*Entry {
	var out []*Entry
	for _, e := range c.c.Entries() {
		job, ok := e.Job.(*namedJob)
		if !ok {
			continue
		}
		out = append(out, &Entry{Name: job.name, Spec: job.spec, Next: e.Next, Prev: e.Prev})
	}
	return out
}

// Trigger runs a registered job now, under the same overlap rules as a
// scheduled tick. It reports whether the job ran.
func (c *Cron) Trigger(name string) (bool, error) {
	c.mu.Lock()
	job, ok := c.jobs[name]
	c.mu.Unlock()
	if !ok {
		return false, fmt.Errorf("cron: unknown job %s", name)
	}
	return c.run(job), nil
}

func (c *Cron) run(job *namedJob) bool {
	c.mu.Lock()
	if c.stopped {
		c.mu.Unlock()
		return false
	}
	c.wg.Add(1)
	c.mu.Unlock()
	defer c.wg.Done()

	if !job.busy.CompareAndSwap(false, true) {
		log.Warnw("previous run still in progress, tick skipped", "job", job.name)
		return false
	}
	defer job.busy.Store(false)

	if c.locker != nil {
		release, ok := c.lock(job.name)
		if !ok {
			log.Infow("job is running elsewhere, tick skipped", "job", job.name)
			return false
		}
		defer release()
	}

	if err := safe.Do(func() error {
		job.cmd()
		return nil
	}); err != nil {
		log.Errorw("cron job panicked", "job", job.name, "error", err)
	}
	return true
}

func (c *Cron) lock(name string) (func(), bool) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	key := lockPrefix + name
	ok, err := c.locker.SetNX(ctx, key, c.owner, c.lockTTL).Result()
	if err != nil {
		log.Warnw("failed to take job lock", "job", name, "error", err)
		return nil, false
	}
	if !ok {
		return nil, false
	}
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := c.locker.Del(ctx, key).Err(); err != nil {
			log.Warnw("failed to release job lock", "job", name, "error", err)
		}
	}, true
}
