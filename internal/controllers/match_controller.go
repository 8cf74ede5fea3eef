package controllers

import (
	"errors"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"
	"github.com/gookit/validate"

	"github.com/imi6/dandan/internal/apperr"
	"github.com/imi6/dandan/internal/providers"
	"github.com/imi6/dandan/internal/structures"
)

const maxMatchBodySize = 1 << 20 // 1 MB

type MatchController struct {
	logger  providers.Logger
	client  providers.DanDanClientInterface
	cache   providers.CacheProviderInterface
	metrics providers.MetricsProviderInterface
	debug   bool
}

func NewMatchController(
	logger providers.Logger,
	client providers.DanDanClientInterface,
	cache providers.CacheProviderInterface,
	metrics providers.MetricsProviderInterface,
	conf *structures.Config,
) *MatchController {
	return &MatchController{
		logger:  logger,
		client:  client,
		cache:   cache,
		metrics: metrics,
		debug:   conf.Debug,
	}
}

type matchRequestBody struct {
	FileName      string `json:"file_name" validate:"required"`
	FileHash      string `json:"file_hash" validate:"required|minLen:32|maxLen:32"`
	FileSize      int64  `json:"file_size" validate:"required|min:1"`
	VideoDuration int64  `json:"video_duration"`
	MatchMode     string `json:"match_mode"`
}

// Match forwards a fingerprint to the remote matching service.
func (mc *MatchController) Match(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxMatchBodySize)
	var body matchRequestBody
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeAppError(w, apperr.Formatf("invalid request body: %v", err), mc.debug)
		return
	}

	v := validate.Struct(&body)
	if !v.Validate() {
		writeAppError(w, apperr.Formatf("%s", v.Errors.One()), mc.debug)
		return
	}

	result, err := mc.client.MatchVideo(r.Context(), &providers.MatchRequest{
		FileName:      body.FileName,
		FileHash:      body.FileHash,
		FileSize:      body.FileSize,
		VideoDuration: body.VideoDuration,
		MatchMode:     body.MatchMode,
	})
	if err != nil {
		writeAppError(w, err, mc.debug)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// Search passes the keyword search through opaquely. The remote response
// shape is not stable enough to type.
func (mc *MatchController) Search(w http.ResponseWriter, r *http.Request) {
	keyword := r.URL.Query().Get("keyword")
	if keyword == "" {
		writeAppError(w, apperr.Formatf("keyword is required"), mc.debug)
		return
	}

	cacheKey := "search:" + keyword
	if data, ok := mc.cache.Get(cacheKey); ok {
		mc.metrics.IncCacheHits()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}
	mc.metrics.IncCacheMisses()

	result, err := mc.client.SearchAnime(r.Context(), keyword)
	if err != nil {
		writeAppError(w, err, mc.debug)
		return
	}

	mc.cache.Set(cacheKey, result)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result)
}

// AnimeDetail passes the detail lookup through opaquely.
func (mc *MatchController) AnimeDetail(w http.ResponseWriter, r *http.Request) {
	animeID, err := strconv.ParseInt(r.PathValue("animeId"), 10, 64)
	if err != nil {
		writeAppError(w, apperr.Formatf("invalid anime id: %v", err), mc.debug)
		return
	}

	result, err := mc.client.GetAnimeDetail(r.Context(), animeID)
	if err != nil {
		var remoteErr *apperr.RemoteAPIError
		if errors.As(err, &remoteErr) && remoteErr.StatusCode == http.StatusNotFound {
			writeAppError(w, apperr.NotFound("anime"), mc.debug)
			return
		}
		writeAppError(w, err, mc.debug)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result)
}
