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

package discord

import (
	"github.com/go-arcade/vigia/internal/notify"
	"github.com/go-arcade/vigia/internal/privilege"
	"github.com/go-arcade/vigia/pkg/metrics"
	"github.com/google/wire"
)

var ProviderSet = wire.NewSet(
	NewClient,
	ProvideMutator,
	ProvideDispatcher,
	wire.Bind(new(privilege.TierResolver), new(*Client)),
	wire.Bind(new(notify.Notifier), new(*notify.Dispatcher)),
)

// ProvideMutator wraps the bot with privilege metrics.
func ProvideMutator(c *Client, recorder *metrics.Recorder) privilege.Mutator {
	return privilege.Instrument(c, recorder)
}

// ProvideDispatcher starts the async notification queue in front of the bot.
// The cleanup drains what is queued.
func ProvideDispatcher(c *Client, conf notify.Conf) (*notify.Dispatcher, func()) {
	d := notify.NewDispatcher(c, conf)
	d.Start()
	return d, d.Close
}
