package controllers

import (
	"fmt"
	"net/http"
	"os"
	"strconv"

	"github.com/imi6/dandan/internal/apperr"
	"github.com/imi6/dandan/internal/providers"
	"github.com/imi6/dandan/internal/services"
	"github.com/imi6/dandan/internal/structures"
)

type VideoController struct {
	logger   providers.Logger
	videos   services.VideoServiceInterface
	hash     services.HashServiceInterface
	settings services.SettingsServiceInterface
	debug    bool
}

func NewVideoController(
	logger providers.Logger,
	videos services.VideoServiceInterface,
	hash services.HashServiceInterface,
	settings services.SettingsServiceInterface,
	conf *structures.Config,
) *VideoController {
	return &VideoController{
		logger:   logger,
		videos:   videos,
		hash:     hash,
		settings: settings,
		debug:    conf.Debug,
	}
}

type videoInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Size int64  `json:"size"`
	Path string `json:"path"`
	URL  string `json:"url"`
}

type uploadResponse struct {
	Success bool      `json:"success"`
	Message string    `json:"message"`
	Data    videoInfo `json:"data"`
}

// Upload accepts a multipart video file and kicks off fingerprinting.
func (vc *VideoController) Upload(w http.ResponseWriter, r *http.Request) {
	limit := vc.settings.MaxUploadSize()
	// Multipart framing adds a little on top of the file itself.
	r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))

	file, header, err := r.FormFile("file")
	if err != nil {
		if _, ok := err.(*http.MaxBytesError); ok {
			writeAppError(w, &apperr.SizeLimitError{Limit: limit}, vc.debug)
			return
		}
		writeAppError(w, apperr.Formatf("missing file field: %v", err), vc.debug)
		return
	}
	defer file.Close()

	video, err := vc.videos.SaveUpload(
		r.Context(),
		header.Filename,
		header.Header.Get("Content-Type"),
		header.Size,
		file,
	)
	if err != nil {
		writeAppError(w, err, vc.debug)
		return
	}

	writeJSON(w, http.StatusOK, uploadResponse{
		Success: true,
		Message: "Video uploaded successfully",
		Data: videoInfo{
			ID:   video.ID,
			Name: video.Name,
			Size: video.Size,
			Path: video.Path,
			URL:  "/api/video/stream/" + video.ID,
		},
	})
}

type md5Response struct {
	MD5   *string `json:"md5"`
	Ready bool    `json:"ready"`
	Error string  `json:"error,omitempty"`
}

// MD5 returns the cached fingerprint, computing it on demand when the file
// exists but no digest is cached yet.
func (vc *VideoController) MD5(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("videoId")

	if digest, ok := vc.hash.CachedDigest(videoID); ok {
		writeJSON(w, http.StatusOK, md5Response{MD5: &digest, Ready: true})
		return
	}

	video, err := vc.videos.Get(r.Context(), videoID)
	if err != nil {
		// Unknown video: not ready rather than an error, the upload may
		// still be in flight on another worker.
		writeJSON(w, http.StatusOK, md5Response{Ready: false})
		return
	}

	digest, err := vc.hash.DigestForVideo(r.Context(), videoID, video.Path)
	if err != nil {
		writeJSON(w, http.StatusOK, md5Response{Ready: false, Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, md5Response{MD5: &digest, Ready: true})
}

// Stream serves the stored file with partial content support.
func (vc *VideoController) Stream(w http.ResponseWriter, r *http.Request) {
	videoID := r.PathValue("videoId")

	video, err := vc.videos.Get(r.Context(), videoID)
	if err != nil {
		writeAppError(w, err, vc.debug)
		return
	}

	info, err := os.Stat(video.Path)
	if err != nil {
		writeAppError(w, apperr.NotFound("video file"), vc.debug)
		return
	}
	size := info.Size()

	rangeHeader := r.Header.Get("Range")
	start, end, err := vc.videos.ResolveRange(rangeHeader, size)
	if err != nil {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Requested Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return
	}

	if size > 0 {
		w.Header().Set("Content-Range", fmt.Sprintf("bytes %d-%d/%d", start, end, size))
	}
	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Length", strconv.FormatInt(end-start+1, 10))
	w.Header().Set("Content-Type", vc.videos.ContentType(video.Ext))

	if rangeHeader != "" {
		w.WriteHeader(http.StatusPartialContent)
	} else {
		w.WriteHeader(http.StatusOK)
	}

	if err := vc.videos.StreamRange(r.Context(), w, video.Path, start, end); err != nil {
		// Headers are gone; all we can do is log the aborted stream.
		vc.logger.Debugf(providers.TypeGet, "Stream of %s aborted: %s", videoID, err)
	}
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func (vc *VideoController) Delete(w http.ResponseWriter, r *http.Request) {
	if err := vc.videos.Delete(r.Context(), r.PathValue("videoId")); err != nil {
		writeAppError(w, err, vc.debug)
		return
	}
	writeJSON(w, http.StatusOK, deleteResponse{Success: true, Message: "Video deleted successfully"})
}
