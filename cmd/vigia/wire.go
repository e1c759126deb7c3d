//go:build wireinject
// +build wireinject

package main

import (
	"github.com/go-arcade/vigia/internal/albion"
	"github.com/go-arcade/vigia/internal/audit"
	"github.com/go-arcade/vigia/internal/bootstrap"
	"github.com/go-arcade/vigia/internal/conf"
	"github.com/go-arcade/vigia/internal/discord"
	"github.com/go-arcade/vigia/internal/router"
	"github.com/go-arcade/vigia/internal/scheduler"
	"github.com/go-arcade/vigia/internal/service"
	"github.com/go-arcade/vigia/pkg/cache"
	"github.com/go-arcade/vigia/pkg/database"
	"github.com/go-arcade/vigia/pkg/http"
	"github.com/go-arcade/vigia/pkg/metrics"
	"github.com/go-arcade/vigia/pkg/pprof"
	"github.com/go-arcade/vigia/pkg/shutdown"
	"github.com/google/wire"
)

func initApp(appConf conf.AppConfig) (*bootstrap.App, func(), error) {
	panic(wire.Build(
		// 配置层
		confProviderSet,
		// 存储层
		bootstrap.ProvideDB,
		database.ProvideIDatabase,
		cache.ProviderSet,
		audit.ProviderSet,
		// 外部服务
		metrics.ProviderSet,
		pprof.NewServer,
		albion.ProviderSet,
		discord.ProviderSet,
		// 业务层
		service.ProviderSet,
		scheduler.ProviderSet,
		// 路由层
		shutdown.NewManager,
		router.ProviderSet,
		// 应用层
		bootstrap.NewApp,
	))
}

// confProviderSet 配置层 ProviderSet
var confProviderSet = wire.NewSet(
	provideHttpConfig,
	wire.FieldsOf(new(conf.AppConfig), "Redis", "Albion", "Discord", "Notify", "Schedule", "Metrics", "Pprof", "Audit"),
	provideServiceOptions,
)

func provideHttpConfig(appConf conf.AppConfig) *http.Http {
	return &appConf.Http
}

func provideServiceOptions(c scheduler.Conf) service.Options {
	return c.Options()
}
