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

package albion

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-arcade/vigia/internal/model"
	"github.com/go-arcade/vigia/pkg/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchBody = `{"guilds":[],"players":[
	{"Id":"id-bart","Name":"Bart","GuildName":"Other"},
	{"Id":"id-bar","Name":"bar","GuildName":"Foo","AllianceName":"Ally"}
]}`

const playerBody = `{
	"Id":"id-bar","Name":"bar","GuildId":"g1","GuildName":"Foo",
	"AllianceId":"a1","AllianceName":"Ally","AllianceTag":"ALY",
	"About":"proof ABC234 here","KillFame":500000,
	"LifetimeStatistics":{
		"PvE":{"Total":1000000},
		"Gathering":{"All":{"Total":200000}},
		"Crafting":{"Total":300000},
		"CrystalLeague":0,"FishingFame":10,"FarmingFame":20
	}
}`

func testConf(url string) Conf {
	return Conf{BaseURL: url, Timeout: time.Second, Retries: 3, Backoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}
}

func TestLookupByName_ExactMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			assert.Equal(t, "Bar", r.URL.Query().Get("q"))
			_, _ = w.Write([]byte(searchBody))
		case "/players/id-bar":
			_, _ = w.Write([]byte(playerBody))
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	rec := metrics.NewRecorder()
	c := NewClient(testConf(srv.URL), rec)
	p, err := c.LookupByName(context.Background(), "Bar")
	require.NoError(t, err)

	assert.Equal(t, "id-bar", p.ID)
	assert.Equal(t, "Foo", p.GuildName)
	assert.Equal(t, "ALY", p.AllianceTag)
	assert.Equal(t, "proof ABC234 here", p.Bio)
	assert.EqualValues(t, 500000, p.CombatFame)
	assert.EqualValues(t, 500000+1000000+200000+300000+10+20, p.TotalFame)

	// search ok + profile ok
	assert.Equal(t, 2, testutil.CollectAndCount(rec, "vigia_directory_requests_total"))
}

func TestLookupByName_NoExactMatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"players":[{"Id":"x","Name":"Barry"}]}`))
	}))
	defer srv.Close()

	_, err := NewClient(testConf(srv.URL), nil).LookupByName(context.Background(), "Bar")
	assert.ErrorIs(t, err, model.ErrNotFound)
	assert.NotErrorIs(t, err, model.ErrInconclusive)
}

func TestGetProfile_NotFoundIsGone(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewClient(testConf(srv.URL), nil).GetProfile(context.Background(), "gone")
	assert.ErrorIs(t, err, model.ErrProfileGone)
	assert.NotErrorIs(t, err, model.ErrNotFound)
	assert.EqualValues(t, 1, calls.Load())

	var de *DirectoryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, CategoryGone, de.Category)
}

func TestLookupByName_ListedButProfileMissing(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/search" {
			_, _ = w.Write([]byte(searchBody))
			return
		}
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewClient(testConf(srv.URL), nil).LookupByName(context.Background(), "bar")
	assert.ErrorIs(t, err, model.ErrProfileGone)
	assert.NotErrorIs(t, err, model.ErrNotFound)
}

func TestGetProfile_OutageIsRetriedThenInconclusive(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := NewClient(testConf(srv.URL), nil).GetProfile(context.Background(), "id")
	assert.ErrorIs(t, err, model.ErrInconclusive)
	assert.NotErrorIs(t, err, model.ErrNotFound)
	assert.EqualValues(t, 3, calls.Load())

	var de *DirectoryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, CategoryOutage, de.Category)
	assert.Equal(t, http.StatusBadGateway, de.Status)
}

func TestGetProfile_RateLimitedThenOK(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(playerBody))
	}))
	defer srv.Close()

	p, err := NewClient(testConf(srv.URL), nil).GetProfile(context.Background(), "id-bar")
	require.NoError(t, err)
	assert.Equal(t, "bar", p.Name)
	assert.EqualValues(t, 2, calls.Load())
}

func TestGetProfile_MalformedIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		_, _ = w.Write([]byte(`{"Id": `))
	}))
	defer srv.Close()

	_, err := NewClient(testConf(srv.URL), nil).GetProfile(context.Background(), "id")
	assert.ErrorIs(t, err, model.ErrInconclusive)
	assert.EqualValues(t, 1, calls.Load())
}

func TestGetProfile_EmptyReplyIsInconclusive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`null`))
	}))
	defer srv.Close()

	_, err := NewClient(testConf(srv.URL), nil).GetProfile(context.Background(), "id")
	assert.ErrorIs(t, err, model.ErrInconclusive)
}

func TestGetProfile_TimeoutIsInconclusive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(500 * time.Millisecond):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	conf := testConf(srv.URL)
	conf.Timeout = 30 * time.Millisecond
	conf.Retries = 1
	_, err := NewClient(conf, nil).GetProfile(context.Background(), "id")
	assert.ErrorIs(t, err, model.ErrInconclusive)

	var de *DirectoryError
	require.True(t, errors.As(err, &de))
	assert.Equal(t, CategoryTimeout, de.Category)
}

func TestCall_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewClient(testConf("http://127.0.0.1:1"), nil).SearchByName(ctx, "Bar")
	assert.ErrorIs(t, err, model.ErrInconclusive)
}

func TestConf_Defaults(t *testing.T) {
	c := Conf{Region: "europe"}
	c.SetDefaults()
	require.NoError(t, c.Validate())
	assert.Equal(t, "https://gameinfo-ams.albiononline.com/api/gameinfo", c.BaseURL)

	bad := Conf{Region: "mars"}
	bad.SetDefaults()
	assert.Error(t, bad.Validate())
}
