package controllers

import (
	"fmt"
	"net/http"
	"strconv"

	json "github.com/goccy/go-json"

	"github.com/imi6/dandan/internal/apperr"
	"github.com/imi6/dandan/internal/danmaku"
	"github.com/imi6/dandan/internal/providers"
	"github.com/imi6/dandan/internal/services"
	"github.com/imi6/dandan/internal/structures"
)

const maxXMLBodySize = 32 << 20 // 32 MB, large exports are common

type DanmakuController struct {
	logger  providers.Logger
	service services.DanmakuServiceInterface
	client  providers.DanDanClientInterface
	cache   providers.CacheProviderInterface
	metrics providers.MetricsProviderInterface
	debug   bool
}

func NewDanmakuController(
	logger providers.Logger,
	service services.DanmakuServiceInterface,
	client providers.DanDanClientInterface,
	cache providers.CacheProviderInterface,
	metrics providers.MetricsProviderInterface,
	conf *structures.Config,
) *DanmakuController {
	return &DanmakuController{
		logger:  logger,
		service: service,
		client:  client,
		cache:   cache,
		metrics: metrics,
		debug:   conf.Debug,
	}
}

type danmakuResponse struct {
	Success  bool `json:"success"`
	Count    int  `json:"count"`
	Comments any  `json:"comments"`
}

func requestedFormat(r *http.Request) danmaku.Format {
	format := r.URL.Query().Get("format")
	if format == "" {
		return danmaku.FormatRaw
	}
	return danmaku.Format(format)
}

// reshape leaves raw comments untouched and converts everything else.
func (dc *DanmakuController) reshape(comments []danmaku.RawComment, format danmaku.Format) (any, error) {
	if format == danmaku.FormatRaw {
		return comments, nil
	}
	return dc.service.ConvertBatch(comments, format)
}

// GetEpisode proxies the remote comment endpoint and reformats the result.
func (dc *DanmakuController) GetEpisode(w http.ResponseWriter, r *http.Request) {
	episodeID, err := strconv.ParseInt(r.PathValue("episodeId"), 10, 64)
	if err != nil {
		writeAppError(w, apperr.Formatf("invalid episode id: %v", err), dc.debug)
		return
	}

	format := requestedFormat(r)
	withRelated := r.URL.Query().Get("with_related") != "false"
	var chConvert *int
	if raw := r.URL.Query().Get("ch_convert"); raw != "" {
		if n, convErr := strconv.Atoi(raw); convErr == nil {
			chConvert = &n
		}
	}

	chKey := "-"
	if chConvert != nil {
		chKey = strconv.Itoa(*chConvert)
	}
	cacheKey := fmt.Sprintf("danmaku:%d:%s:%t:%s", episodeID, format, withRelated, chKey)
	if data, ok := dc.cache.Get(cacheKey); ok {
		dc.metrics.IncCacheHits()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
		return
	}
	dc.metrics.IncCacheMisses()

	result, err := dc.client.GetComments(r.Context(), episodeID, withRelated, chConvert)
	if err != nil {
		writeAppError(w, err, dc.debug)
		return
	}
	if !result.Success {
		message := result.ErrorMessage
		if message == "" {
			message = "Failed to get comments"
		}
		writeAppError(w, &apperr.RemoteAPIError{StatusCode: http.StatusBadRequest, Body: message}, dc.debug)
		return
	}

	comments, err := dc.reshape(result.Comments, format)
	if err != nil {
		writeAppError(w, err, dc.debug)
		return
	}

	resp := danmakuResponse{Success: true, Count: result.Count, Comments: comments}
	if gson, marshalErr := json.Marshal(resp); marshalErr == nil {
		dc.cache.Set(cacheKey, gson)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(gson)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// GetExternal fetches comments for a third-party video URL.
func (dc *DanmakuController) GetExternal(w http.ResponseWriter, r *http.Request) {
	videoURL := r.URL.Query().Get("url")
	if videoURL == "" {
		writeAppError(w, apperr.Formatf("url is required"), dc.debug)
		return
	}

	result, err := dc.client.GetExternalComments(r.Context(), videoURL)
	if err != nil {
		writeAppError(w, err, dc.debug)
		return
	}
	if !result.Success {
		message := result.ErrorMessage
		if message == "" {
			message = "Failed to get external comments"
		}
		writeAppError(w, &apperr.RemoteAPIError{StatusCode: http.StatusBadRequest, Body: message}, dc.debug)
		return
	}

	comments, err := dc.reshape(result.Comments, requestedFormat(r))
	if err != nil {
		writeAppError(w, err, dc.debug)
		return
	}
	writeJSON(w, http.StatusOK, danmakuResponse{Success: true, Count: result.Count, Comments: comments})
}

type xmlParseRequest struct {
	XMLContent string `json:"xml_content"`
}

// ParseXML ingests a Bilibili XML export, bypassing the remote service.
func (dc *DanmakuController) ParseXML(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxXMLBodySize)
	var req xmlParseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeAppError(w, apperr.Formatf("invalid request body: %v", err), dc.debug)
		return
	}

	parsed, err := dc.service.ParseXML(req.XMLContent)
	if err != nil {
		writeAppError(w, err, dc.debug)
		return
	}

	comments, err := dc.reshape(parsed, requestedFormat(r))
	if err != nil {
		writeAppError(w, err, dc.debug)
		return
	}
	writeJSON(w, http.StatusOK, danmakuResponse{Success: true, Count: len(parsed), Comments: comments})
}

type convertRequest struct {
	Comments     []danmaku.RawComment `json:"comments"`
	TargetFormat string               `json:"target_format"`
}

// Convert reformats a client-supplied comment batch.
func (dc *DanmakuController) Convert(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxXMLBodySize)
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if _, ok := err.(*http.MaxBytesError); ok {
			writeAppError(w, apperr.Formatf("request body too large"), dc.debug)
			return
		}
		writeAppError(w, apperr.Formatf("invalid request body: %v", err), dc.debug)
		return
	}

	converted, err := dc.service.ConvertBatch(req.Comments, danmaku.Format(req.TargetFormat))
	if err != nil {
		writeAppError(w, err, dc.debug)
		return
	}
	writeJSON(w, http.StatusOK, danmakuResponse{Success: true, Count: len(converted), Comments: converted})
}
