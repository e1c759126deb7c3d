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

package bootstrap

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-arcade/vigia/internal/conf"
	"github.com/go-arcade/vigia/internal/repo"
	"github.com/go-arcade/vigia/internal/router"
	"github.com/go-arcade/vigia/internal/scheduler"
	"github.com/go-arcade/vigia/pkg/database"
	"github.com/go-arcade/vigia/pkg/log"
	"github.com/go-arcade/vigia/pkg/metrics"
	"github.com/go-arcade/vigia/pkg/pprof"
	"github.com/go-arcade/vigia/pkg/safe"
	"github.com/go-arcade/vigia/pkg/shutdown"
	"github.com/go-arcade/vigia/pkg/trace"
	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type App struct {
	HttpApp   *fiber.App
	Scheduler *scheduler.Scheduler
	Metrics   *metrics.Server
	Pprof     *pprof.Server
	Shutdown  *shutdown.Manager
	AppConf   conf.AppConfig
}

// InitAppFunc init app function type
type InitAppFunc func(appConf conf.AppConfig) (*App, func(), error)

func NewApp(
	rt *router.Router,
	sched *scheduler.Scheduler,
	metricsSrv *metrics.Server,
	pprofSrv *pprof.Server,
	shutdownMgr *shutdown.Manager,
	appConf conf.AppConfig,
) *App {
	return &App{
		HttpApp:   rt.Router(),
		Scheduler: sched,
		Metrics:   metricsSrv,
		Pprof:     pprofSrv,
		Shutdown:  shutdownMgr,
		AppConf:   appConf,
	}
}

// ProvideDB opens the database and migrates the schema before anything reads it.
func ProvideDB(appConf conf.AppConfig) (*gorm.DB, func(), error) {
	db, cleanup, err := database.ProvideDB(appConf.Database)
	if err != nil {
		return nil, nil, err
	}
	if err := repo.AutoMigrate(db); err != nil {
		cleanup()
		return nil, nil, err
	}
	return db, cleanup, nil
}

// Bootstrap init app, return App instance and cleanup function
func Bootstrap(configFile string, initApp InitAppFunc) (*App, func(), error) {
	appConf := conf.NewConf(configFile)

	if _, err := log.NewLog(&appConf.Log); err != nil {
		return nil, nil, err
	}

	_, traceCleanup, err := trace.InitTracerProvider(context.Background(), appConf.Trace)
	if err != nil {
		return nil, nil, err
	}

	app, cleanup, err := initApp(appConf)
	if err != nil {
		traceCleanup()
		return nil, nil, err
	}

	return app, func() {
		cleanup()
		traceCleanup()
		_ = log.Sync()
	}, nil
}

// Run starts the listeners and the sweeps, waits for an exit signal, then
// shuts down in reverse order.
func Run(configFile string, app *App, cleanup func()) {
	appConf := app.AppConf

	if err := app.Metrics.Start(); err != nil {
		log.Errorw("metrics server failed to start", "error", err)
	}
	if err := app.Pprof.Start(); err != nil {
		log.Errorw("pprof server failed to start", "error", err)
	}
	if err := app.Scheduler.Start(); err != nil {
		log.Errorw("scheduler failed to start", "error", err)
	}
	if err := conf.Watch(configFile, func(next conf.AppConfig) {
		log.SetLevel(next.Log.Level)
	}); err != nil {
		log.Warnw("configuration watch disabled", "error", err)
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	listenErr := make(chan error, 1)
	addr := appConf.Http.Addr()
	safe.Go(func() {
		log.Infow("HTTP listener started", "address", addr)
		if err := app.HttpApp.Listen(addr); err != nil {
			listenErr <- err
		}
	})

	select {
	case sig := <-quit:
		log.Infof("Received signal: %v, shutting down gracefully...", sig)
	case err := <-listenErr:
		log.Errorw("HTTP listener failed", "address", addr, "error", err)
	}

	app.Shutdown.Shutdown()
	app.Scheduler.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), appConf.Http.ShutdownTimeout)
	defer cancel()
	if err := app.HttpApp.ShutdownWithContext(shutdownCtx); err != nil {
		log.Errorw("HTTP server shutdown error", "error", err)
	} else {
		log.Info("HTTP server shut down gracefully")
	}
	drain(shutdownCtx, app.Shutdown)

	metricsCtx, metricsCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer metricsCancel()
	if err := app.Metrics.Stop(metricsCtx); err != nil && !errors.Is(err, context.Canceled) {
		log.Warnw("metrics server shutdown error", "error", err)
	}
	if err := app.Pprof.Stop(metricsCtx); err != nil {
		log.Warnw("pprof server shutdown error", "error", err)
	}

	// dispatcher, audit publisher, redis and database close in wire's reverse order
	cleanup()
	log.Info("Server shutdown complete")
}

func drain(ctx context.Context, m *shutdown.Manager) {
	done := make(chan struct{})
	go func() {
		m.Drain()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		log.Warn("in-flight requests still running at shutdown deadline")
	}
}
