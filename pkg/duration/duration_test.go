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

package duration

import (
	"testing"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		err  bool
	}{
		{in: "30s", want: 30 * time.Second},
		{in: "5m", want: 5 * time.Minute},
		{in: "7d", want: 7 * Day},
		{in: "1w2d", want: 9 * Day},
		{in: "1d12h", want: 36 * time.Hour},
		{in: "1M", want: 30 * Day},
		{in: "1y", want: 365 * Day},
		{in: "1.5h", want: 90 * time.Minute},
		{in: "250ms", want: 250 * time.Millisecond},
		{in: "0d", want: 0},
		{in: "", err: true},
		{in: "d", err: true},
		{in: "3x", err: true},
		{in: "yesterday", err: true},
		{in: "99999999999y", err: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := Parse(tt.in)
			if tt.err {
				assert.ErrorIs(t, err, ErrInvalidFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDecodeHook(t *testing.T) {
	var out struct {
		Stale   time.Duration `mapstructure:"stale"`
		Timeout time.Duration `mapstructure:"timeout"`
		Name    string        `mapstructure:"name"`
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: DecodeHook(),
		Result:     &out,
	})
	require.NoError(t, err)
	require.NoError(t, dec.Decode(map[string]any{"stale": "2d", "timeout": "90s", "name": "7d"}))

	assert.Equal(t, 2*Day, out.Stale)
	assert.Equal(t, 90*time.Second, out.Timeout)
	assert.Equal(t, "7d", out.Name)

	err = dec.Decode(map[string]any{"stale": "soon"})
	assert.Error(t, err)
}
