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

// Package discord implements the privilege, tier and notification contracts
// on the Discord REST API with a bot token.
package discord

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/vigia/internal/model"
	"github.com/go-arcade/vigia/internal/notify"
	"github.com/go-arcade/vigia/internal/privilege"
	httpx "github.com/go-arcade/vigia/pkg/http"
	"github.com/go-arcade/vigia/pkg/retry"
	"github.com/go-resty/resty/v2"
)

const (
	codeUnknownMember = 10007
	codeUnknownUser   = 10013

	maxMessageLength = 2000
)

// APIError is a non-2xx reply. 401/403 unwrap to model.ErrAuthorizationDenied,
// Unknown Member/User unwrap to model.ErrMemberGone.
type APIError struct {
	Op         string
	Status     int
	Code       int
	Message    string
	retryAfter time.Duration
}

func (e *APIError) Error() string {
	return fmt.Sprintf("discord %s: status %d code %d: %s", e.Op, e.Status, e.Code, e.Message)
}

func (e *APIError) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized || e.Status == http.StatusForbidden:
		return model.ErrAuthorizationDenied
	case e.Code == codeUnknownMember || e.Code == codeUnknownUser:
		return model.ErrMemberGone
	}
	return nil
}

func (e *APIError) RetryAfter() time.Duration {
	return e.retryAfter
}

func (e *APIError) temporary() bool {
	return e.Status == http.StatusTooManyRequests || e.Status >= http.StatusInternalServerError
}

type errorBody struct {
	Code       int     `json:"code"`
	Message    string  `json:"message"`
	RetryAfter float64 `json:"retry_after"`
}

var (
	_ privilege.Mutator      = (*Client)(nil)
	_ privilege.TierResolver = (*Client)(nil)
	_ notify.Notifier        = (*Client)(nil)
)

// Client is a Discord bot.
type Client struct {
	http *resty.Client
	conf Conf
}

func NewClient(conf Conf) *Client {
	conf.SetDefaults()
	return &Client{
		http: httpx.NewClient(httpx.ClientConfig{
			BaseURL:   conf.BaseURL,
			Timeout:   conf.Timeout,
			UserAgent: conf.UserAgent,
			Headers:   map[string]string{"Authorization": "Bot " + conf.Token},
		}),
		conf: conf,
	}
}

func memberPath(guildID, userID string) string {
	return "/guilds/" + url.PathEscape(guildID) + "/members/" + url.PathEscape(userID)
}

func (c *Client) send(ctx context.Context, op, method, path string, body any, reason string) (*resty.Response, error) {
	var resp *resty.Response
	err := retry.Do(ctx, func(ctx context.Context) error {
		req := c.http.R().SetContext(ctx)
		if body != nil {
			req.SetBody(body)
		}
		if reason != "" {
			req.SetHeader("X-Audit-Log-Reason", url.PathEscape(reason))
		}
		r, err := req.Execute(method, path)
		if err != nil {
			return fmt.Errorf("discord %s: %w", op, err)
		}
		if r.IsSuccess() {
			resp = r
			return nil
		}
		return apiError(op, r)
	},
		retry.WithMaxAttempts(c.conf.Retries),
		retry.WithBackoff(retry.Exponential(500*time.Millisecond, 5*time.Second)),
		retry.WithMaxDelay(30*time.Second),
		retry.WithRetryIf(func(err error) bool {
			var apiErr *APIError
			if errors.As(err, &apiErr) {
				return apiErr.temporary()
			}
			return retry.IsRetryableError(err)
		}),
	)
	return resp, err
}

func apiError(op string, resp *resty.Response) error {
	e := &APIError{Op: op, Status: resp.StatusCode()}
	var body errorBody
	if err := sonic.Unmarshal(resp.Body(), &body); err == nil {
		e.Code = body.Code
		e.Message = body.Message
		e.retryAfter = time.Duration(body.RetryAfter * float64(time.Second))
	}
	if e.retryAfter == 0 {
		if secs, err := strconv.ParseFloat(resp.Header().Get("Retry-After"), 64); err == nil {
			e.retryAfter = time.Duration(secs * float64(time.Second))
		}
	}
	if e.Message == "" {
		e.Message = http.StatusText(e.Status)
	}
	return e
}

// Grant adds each role. Empty refs are skipped.
func (c *Client) Grant(ctx context.Context, communityID, memberID string, roleRefs []string) error {
	for _, role := range roleRefs {
		if role == "" {
			continue
		}
		path := memberPath(communityID, memberID) + "/roles/" + url.PathEscape(role)
		if _, err := c.send(ctx, "grant", http.MethodPut, path, nil, ""); err != nil {
			return err
		}
	}
	return nil
}

// Revoke removes each role. Empty refs are skipped.
func (c *Client) Revoke(ctx context.Context, communityID, memberID string, roleRefs []string) error {
	for _, role := range roleRefs {
		if role == "" {
			continue
		}
		path := memberPath(communityID, memberID) + "/roles/" + url.PathEscape(role)
		if _, err := c.send(ctx, "revoke", http.MethodDelete, path, nil, ""); err != nil {
			return err
		}
	}
	return nil
}

// Rename sets the member's server nickname, cut to the platform limit.
func (c *Client) Rename(ctx context.Context, communityID, memberID, label string) error {
	body := map[string]any{"nick": model.TruncateLabel(label)}
	_, err := c.send(ctx, "rename", http.MethodPatch, memberPath(communityID, memberID), body, "")
	return err
}

// Evict kicks the member with reason in the audit log.
func (c *Client) Evict(ctx context.Context, communityID, memberID, reason string) error {
	_, err := c.send(ctx, "evict", http.MethodDelete, memberPath(communityID, memberID), nil, reason)
	return err
}

type guildMember struct {
	Roles []string `json:"roles"`
}

func (c *Client) member(ctx context.Context, communityID, memberID string) (*guildMember, error) {
	resp, err := c.send(ctx, "get_member", http.MethodGet, memberPath(communityID, memberID), nil, "")
	if err != nil {
		return nil, err
	}
	var m guildMember
	if err := sonic.Unmarshal(resp.Body(), &m); err != nil {
		return nil, fmt.Errorf("discord get_member: decode: %w", err)
	}
	return &m, nil
}

// IsMember reports false only on an Unknown Member reply.
func (c *Client) IsMember(ctx context.Context, communityID, memberID string) (bool, error) {
	_, err := c.member(ctx, communityID, memberID)
	if errors.Is(err, model.ErrMemberGone) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// ReviewerTier returns the highest staff tier the member's roles grant in cfg.
func (c *Client) ReviewerTier(ctx context.Context, cfg *model.CommunityConfig, memberID string) (int, error) {
	m, err := c.member(ctx, cfg.CommunityId, memberID)
	if errors.Is(err, model.ErrMemberGone) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return cfg.StaffTier(m.Roles), nil
}

// Notify posts n.Text to n.ChannelRef, or as a DM to n.MemberID.
func (c *Client) Notify(ctx context.Context, n notify.Notification) error {
	channelID := n.ChannelRef
	if n.Direct() {
		resp, err := c.send(ctx, "open_dm", http.MethodPost, "/users/@me/channels",
			map[string]any{"recipient_id": n.MemberID}, "")
		if err != nil {
			return err
		}
		var ch struct {
			ID string `json:"id"`
		}
		if err := sonic.Unmarshal(resp.Body(), &ch); err != nil || ch.ID == "" {
			return fmt.Errorf("discord open_dm: no channel id in reply")
		}
		channelID = ch.ID
	}

	text := []rune(n.Text)
	if len(text) > maxMessageLength {
		text = text[:maxMessageLength]
	}
	body := map[string]any{
		"content":          string(text),
		"allowed_mentions": map[string]any{"parse": []string{}},
	}
	_, err := c.send(ctx, "message", http.MethodPost, "/channels/"+url.PathEscape(channelID)+"/messages", body, "")
	return err
}
