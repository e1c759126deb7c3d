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

package router

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/go-arcade/vigia/internal/locale"
	"github.com/go-arcade/vigia/internal/model"
	"github.com/go-arcade/vigia/internal/privilege"
	"github.com/go-arcade/vigia/internal/repo"
	"github.com/go-arcade/vigia/internal/service"
	"github.com/go-arcade/vigia/pkg/duration"
	"github.com/go-arcade/vigia/pkg/http"
	"github.com/go-arcade/vigia/pkg/http/middleware"
	"github.com/go-arcade/vigia/pkg/log"
	"github.com/go-arcade/vigia/pkg/shutdown"
	"github.com/go-arcade/vigia/pkg/trace"
	"github.com/go-arcade/vigia/pkg/version"
	"github.com/gofiber/fiber/v2"
	fiberrecover "github.com/gofiber/fiber/v2/middleware/recover"
)

/**
 * @file: router.go
 * @description: command gateway used by the chat bot
 */

type Router struct {
	Http     *http.Http
	Services *service.Services
	Repos    *repo.Repositories
	Tiers    privilege.TierResolver
	Shutdown *shutdown.Manager
}

func NewRouter(
	httpConf *http.Http,
	services *service.Services,
	repos *repo.Repositories,
	tiers privilege.TierResolver,
	shutdownMgr *shutdown.Manager,
) *Router {
	return &Router{
		Http:     httpConf,
		Services: services,
		Repos:    repos,
		Tiers:    tiers,
		Shutdown: shutdownMgr,
	}
}

func (rt *Router) Router() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "Vigia",
		DisableStartupMessage: true,
		ReadTimeout:           rt.Http.ReadTimeout,
		WriteTimeout:          rt.Http.WriteTimeout,
		IdleTimeout:           rt.Http.IdleTimeout,
		BodyLimit:             rt.Http.BodyLimit,
		JSONEncoder:           sonic.Marshal,
		JSONDecoder:           sonic.Unmarshal,
	})

	app.Use(
		fiberrecover.New(),
		rt.Shutdown.Middleware(),
		middleware.RequestMiddleware(),
		locale.Middleware(),
		trace.FiberMiddleware(http.RequestIDKey),
		http.AccessLogFormat(rt.Http),
		middleware.UnifiedResponseMiddleware(),
	)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	app.Get("/version", func(c *fiber.Ctx) error {
		return c.JSON(version.GetVersion())
	})

	api := app.Group(rt.Http.ContextPath, middleware.AuthorizationMiddleware(rt.Http.Auth))
	rt.routerVerification(api)
	rt.routerApproval(api)
	rt.routerCommunity(api)

	app.Use(func(c *fiber.Ctx) error {
		return http.WithRepErrMsg(c, http.NotFound, "request path not found")
	})

	return app
}

// fail maps a core error to the gateway's error envelope.
func fail(c *fiber.Ctx, err error) error {
	rep := http.InternalError
	switch {
	case errors.Is(err, model.ErrInvalidInput):
		rep = http.BadRequest
	case errors.Is(err, model.ErrConfigIncomplete):
		rep = http.ConfigIncomplete
	case errors.Is(err, model.ErrProfileGone):
		rep = http.PlayerGone
	case errors.Is(err, model.ErrNotFound):
		rep = http.PlayerNotFound
	case errors.Is(err, model.ErrInconclusive):
		rep = http.DirectoryUnstable
	case errors.Is(err, service.ErrReviewerNotAllowed):
		rep = http.PermissionDenied
	case errors.Is(err, model.ErrAuthorizationDenied):
		rep = http.PrivilegeDenied
	case errors.Is(err, model.ErrAlreadyVerified):
		rep = http.AlreadyVerified
	case errors.Is(err, model.ErrRequestNotFound):
		rep = http.RequestNotFound
	case errors.Is(err, model.ErrNotAffiliated):
		rep = http.NotAffiliated
	case errors.Is(err, model.ErrInvalidTransition):
		rep = http.RequestStateChange
	}
	msg := locale.Localize(c, fmt.Sprintf("http.%d", rep.Code), rep.Msg)
	if rep == http.InternalError {
		log.Errorw("request failed", "path", c.Path(), "error", err)
		return http.WithRepErrMsg(c, rep, msg)
	}
	return http.WithRepErrReason(c, rep, msg, err.Error())
}

func queryInt(c *fiber.Ctx, key string) int {
	value, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return value
}

// querySince accepts RFC 3339 or a duration back from now ("7d", "1w", "90m30s").
func querySince(c *fiber.Ctx, key string) (time.Time, error) {
	raw := c.Query(key)
	if raw == "" {
		return time.Time{}, nil
	}
	if d, err := duration.Parse(raw); err == nil {
		return time.Now().Add(-d), nil
	}
	return time.Parse(time.RFC3339, raw)
}
