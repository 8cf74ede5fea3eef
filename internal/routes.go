package internal

import (
	"net/http"

	"github.com/imi6/dandan/internal/controllers"
	"github.com/imi6/dandan/internal/providers"
)

func InitRoutes(
	danmakuController *controllers.DanmakuController,
	matchController *controllers.MatchController,
	videoController *controllers.VideoController,
	settingsController *controllers.SettingsController,
) providers.RouterProviderInterface {
	routers := providers.NewRouterProvider()

	routers.Get("/api/danmaku/{episodeId}", http.HandlerFunc(danmakuController.GetEpisode))
	routers.Post("/api/danmaku/external", http.HandlerFunc(danmakuController.GetExternal))
	routers.Post("/api/danmaku/parse/xml", http.HandlerFunc(danmakuController.ParseXML))
	routers.Post("/api/danmaku/convert", http.HandlerFunc(danmakuController.Convert))

	routers.Post("/api/match", http.HandlerFunc(matchController.Match))
	routers.Get("/api/match/search", http.HandlerFunc(matchController.Search))
	routers.Get("/api/match/anime/{animeId}", http.HandlerFunc(matchController.AnimeDetail))

	routers.Post("/api/video/upload", http.HandlerFunc(videoController.Upload))
	routers.Get("/api/video/md5/{videoId}", http.HandlerFunc(videoController.MD5))
	routers.Get("/api/video/stream/{videoId}", http.HandlerFunc(videoController.Stream))
	routers.Delete("/api/video/{videoId}", http.HandlerFunc(videoController.Delete))

	routers.Any("/api/settings", http.HandlerFunc(settingsController.Handle))

	return routers
}
