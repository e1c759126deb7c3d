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

// Package albion is a read-only client for the Albion Online gameinfo API.
package albion

import (
	"context"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/vigia/internal/model"
	httpx "github.com/go-arcade/vigia/pkg/http"
	"github.com/go-arcade/vigia/pkg/log"
	"github.com/go-arcade/vigia/pkg/metrics"
	"github.com/go-arcade/vigia/pkg/retry"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	opSearch  = "search"
	opProfile = "profile"
)

// Client talks to one regional gameinfo host.
type Client struct {
	http     *resty.Client
	conf     Conf
	recorder *metrics.Recorder
	tracer   trace.Tracer
}

// NewClient builds a client. recorder may be nil.
func NewClient(conf Conf, recorder *metrics.Recorder) *Client {
	conf.SetDefaults()
	return &Client{
		http: httpx.NewClient(httpx.ClientConfig{
			BaseURL:   conf.BaseURL,
			Timeout:   conf.Timeout,
			UserAgent: conf.UserAgent,
		}),
		conf:     conf,
		recorder: recorder,
		tracer:   otel.Tracer("github.com/go-arcade/vigia/internal/albion"),
	}
}

type searchResponse struct {
	Players []struct {
		Id           string `json:"Id"`
		Name         string `json:"Name"`
		GuildName    string `json:"GuildName"`
		AllianceName string `json:"AllianceName"`
	} `json:"players"`
}

type playerResponse struct {
	Id                 string `json:"Id"`
	Name               string `json:"Name"`
	GuildId            string `json:"GuildId"`
	GuildName          string `json:"GuildName"`
	AllianceId         string `json:"AllianceId"`
	AllianceName       string `json:"AllianceName"`
	AllianceTag        string `json:"AllianceTag"`
	About              string `json:"About"`
	Bio                string `json:"Bio"`
	KillFame           int64  `json:"KillFame"`
	LifetimeStatistics struct {
		PvE struct {
			Total int64 `json:"Total"`
		} `json:"PvE"`
		Gathering struct {
			All struct {
				Total int64 `json:"Total"`
			} `json:"All"`
		} `json:"Gathering"`
		Crafting struct {
			Total int64 `json:"Total"`
		} `json:"Crafting"`
		CrystalLeague int64 `json:"CrystalLeague"`
		FishingFame   int64 `json:"FishingFame"`
		FarmingFame   int64 `json:"FarmingFame"`
	} `json:"LifetimeStatistics"`
}

func (p *playerResponse) profile() *model.Profile {
	bio := p.About
	if bio == "" {
		bio = p.Bio
	}
	stats := p.LifetimeStatistics
	return &model.Profile{
		ID:           p.Id,
		Name:         p.Name,
		GuildID:      p.GuildId,
		GuildName:    p.GuildName,
		AllianceID:   p.AllianceId,
		AllianceName: p.AllianceName,
		AllianceTag:  p.AllianceTag,
		Bio:          bio,
		CombatFame:   p.KillFame,
		TotalFame: p.KillFame +
			stats.PvE.Total +
			stats.Gathering.All.Total +
			stats.Crafting.Total +
			stats.CrystalLeague +
			stats.FishingFame +
			stats.FarmingFame,
	}
}

// SearchByName returns every search hit for name, in upstream order.
func (c *Client) SearchByName(ctx context.Context, name string) ([]model.Candidate, error) {
	ctx, span := c.tracer.Start(ctx, "albion.SearchByName",
		trace.WithAttributes(attribute.String("albion.query", name)))
	defer span.End()

	var out searchResponse
	err := c.call(ctx, opSearch, &out, func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().SetContext(ctx).SetQueryParam("q", name).Get("/search")
	})
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	candidates := make([]model.Candidate, 0, len(out.Players))
	for _, p := range out.Players {
		candidates = append(candidates, model.Candidate{
			ID:           p.Id,
			Name:         p.Name,
			GuildName:    p.GuildName,
			AllianceName: p.AllianceName,
		})
	}
	span.SetAttributes(attribute.Int("albion.hits", len(candidates)))
	return candidates, nil
}

// GetProfile fetches a player by directory id.
func (c *Client) GetProfile(ctx context.Context, id string) (*model.Profile, error) {
	ctx, span := c.tracer.Start(ctx, "albion.GetProfile",
		trace.WithAttributes(attribute.String("albion.player_id", id)))
	defer span.End()

	var out playerResponse
	err := c.call(ctx, opProfile, &out, func(ctx context.Context) (*resty.Response, error) {
		return c.http.R().SetContext(ctx).Get("/players/" + url.PathEscape(id))
	})
	if err == nil && out.Id == "" {
		err = &DirectoryError{Category: CategoryBadData, Op: opProfile, Err: errors.New("reply without player id")}
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return out.profile(), nil
}

// LookupByName resolves name to a profile. Only an exact, case-insensitive
// name match counts; a search without one is CategoryNotFound.
func (c *Client) LookupByName(ctx context.Context, name string) (*model.Profile, error) {
	candidates, err := c.SearchByName(ctx, name)
	if err != nil {
		return nil, err
	}
	want := strings.TrimSpace(name)
	for _, cand := range candidates {
		if strings.EqualFold(cand.Name, want) {
			return c.GetProfile(ctx, cand.ID)
		}
	}
	log.Debugw("no exact match in directory search", "nickname", name, "hits", len(candidates))
	return nil, &DirectoryError{Category: CategoryNotFound, Op: opSearch}
}

func (c *Client) call(ctx context.Context, op string, out any, do func(ctx context.Context) (*resty.Response, error)) error {
	err := retry.Do(ctx, func(ctx context.Context) error {
		resp, err := do(ctx)
		if err != nil {
			return transportError(op, err)
		}
		return decode(op, resp, out)
	},
		retry.WithMaxAttempts(c.conf.Retries),
		retry.WithBackoff(retry.Exponential(c.conf.Backoff, c.conf.MaxBackoff)),
		retry.WithMaxDelay(c.conf.MaxBackoff),
		retry.WithRetryIf(isTemporary),
	)

	var de *DirectoryError
	if err != nil && !errors.As(err, &de) {
		// ctx ended before the first attempt
		err = transportError(op, err)
	}

	result := "ok"
	if errors.As(err, &de) {
		result = string(de.Category)
		if de.Category != CategoryNotFound {
			log.Warnw("albion call failed", "op", op, "category", de.Category, "status", de.Status, "error", de.Err)
		}
	}
	c.recorder.ObserveDirectory(op, result)
	return err
}

func transportError(op string, err error) error {
	category := CategoryOutage
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) ||
		(errors.As(err, &netErr) && netErr.Timeout()) {
		category = CategoryTimeout
	}
	return &DirectoryError{Category: category, Op: op, Err: err}
}

func decode(op string, resp *resty.Response, out any) error {
	status := resp.StatusCode()
	switch {
	case status == http.StatusNotFound && op == opProfile:
		return &DirectoryError{Category: CategoryGone, Op: op, Status: status}
	case status == http.StatusNotFound:
		return &DirectoryError{Category: CategoryNotFound, Op: op, Status: status}
	case status == http.StatusTooManyRequests:
		return &DirectoryError{
			Category:   CategoryRateLimited,
			Op:         op,
			Status:     status,
			retryAfter: parseRetryAfter(resp.Header().Get("Retry-After")),
		}
	case status >= http.StatusInternalServerError:
		return &DirectoryError{Category: CategoryOutage, Op: op, Status: status}
	case status < http.StatusOK || status >= http.StatusMultipleChoices:
		return &DirectoryError{Category: CategoryBadData, Op: op, Status: status}
	}

	if err := sonic.Unmarshal(resp.Body(), out); err != nil {
		return &DirectoryError{Category: CategoryBadData, Op: op, Status: status, Err: err}
	}
	return nil
}

func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil {
		return time.Until(at)
	}
	return 0
}
