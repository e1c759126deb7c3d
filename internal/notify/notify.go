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

// Package notify delivers plain-text messages to staff channels and
// members. Delivery is best effort and never feeds back into state changes.
package notify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-arcade/vigia/pkg/log"
	"github.com/go-arcade/vigia/pkg/safe"
)

var (
	ErrQueueFull = errors.New("notify: queue full")
	ErrClosed    = errors.New("notify: dispatcher closed")
)

// Notification goes to ChannelRef when set, otherwise to MemberID directly.
type Notification struct {
	CommunityID string
	ChannelRef  string
	MemberID    string
	Text        string
}

// Direct reports whether n is a direct message to the member.
func (n Notification) Direct() bool {
	return n.ChannelRef == ""
}

// Notifier sends one notification.
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// Conf is the [notify] section.
type Conf struct {
	QueueSize int           `mapstructure:"queueSize"`
	Workers   int           `mapstructure:"workers"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

func (c *Conf) SetDefaults() {
	if c.QueueSize <= 0 {
		c.QueueSize = 256
	}
	if c.Workers <= 0 {
		c.Workers = 1
	}
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
}

// Dispatcher queues notifications and hands them to a sink from worker
// goroutines, so callers never wait on the chat platform.
type Dispatcher struct {
	sink    Notifier
	conf    Conf
	queue   chan Notification
	mu      sync.RWMutex
	closed  bool
	wg      sync.WaitGroup
	started sync.Once
}

func NewDispatcher(sink Notifier, conf Conf) *Dispatcher {
	conf.SetDefaults()
	return &Dispatcher{
		sink:  sink,
		conf:  conf,
		queue: make(chan Notification, conf.QueueSize),
	}
}

// Start launches the workers. Calling it again is a no-op.
func (d *Dispatcher) Start() {
	d.started.Do(func() {
		for i := 0; i < d.conf.Workers; i++ {
			d.wg.Add(1)
			go d.worker()
		}
	})
}

// Notify enqueues n without blocking. ctx is not used for delivery.
func (d *Dispatcher) Notify(_ context.Context, n Notification) error {
	if n.Text == "" || (n.ChannelRef == "" && n.MemberID == "") {
		return nil
	}

	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return ErrClosed
	}
	select {
	case d.queue <- n:
		return nil
	default:
		log.Warnw("notification dropped, queue full", "communityId", n.CommunityID, "channel", n.ChannelRef, "memberId", n.MemberID)
		return ErrQueueFull
	}
}

// Close stops accepting notifications and waits until the queue is drained.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	// drain even if Start was never called
	d.Start()
	d.wg.Wait()
}

func (d *Dispatcher) worker() {
	defer d.wg.Done()
	for n := range d.queue {
		d.deliver(n)
	}
}

func (d *Dispatcher) deliver(n Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.conf.Timeout)
	defer cancel()

	err := safe.Do(func() error {
		return d.sink.Notify(ctx, n)
	})
	if err != nil {
		log.Warnw("notification failed", "communityId", n.CommunityID, "channel", n.ChannelRef, "memberId", n.MemberID, "error", err)
	}
}
