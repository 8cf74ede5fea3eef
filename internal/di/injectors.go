//go:build wireinject
// +build wireinject

package di

import (
	wire "github.com/google/wire"

	"github.com/imi6/dandan/internal"
	"github.com/imi6/dandan/internal/controllers"
	"github.com/imi6/dandan/internal/providers"
	"github.com/imi6/dandan/internal/realtime"
	"github.com/imi6/dandan/internal/services"
	"github.com/imi6/dandan/internal/store"
	"github.com/imi6/dandan/internal/structures"
)

func InitApp(cfg *structures.CliFlags) (*internal.App, error) {

	wire.Build(
		providers.NewConfigProvider,
		providers.NewLogProvider,
		providers.NewMetricsProvider,
		providers.NewCacheProvider,
		providers.NewDanDanClient,

		store.NewVideoStore,
		store.NewFingerprintCache,
		realtime.NewHub,

		services.NewHashService,
		services.NewSettingsService,
		services.NewVideoService,
		services.NewDanmakuService,

		controllers.NewDanmakuController,
		controllers.NewMatchController,
		controllers.NewVideoController,
		controllers.NewSettingsController,
		controllers.NewWsController,
		controllers.NewHealthController,

		internal.InitRoutes,
		internal.NewApp,
	)

	return nil, nil
}
