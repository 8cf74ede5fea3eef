package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/imi6/dandan/internal/apperr"
	"github.com/imi6/dandan/internal/providers"
	"github.com/imi6/dandan/internal/store"
	"github.com/imi6/dandan/internal/structures"
)

// StreamChunkSize is how much of the file is read per write while streaming.
const StreamChunkSize = 1024 * 1024

// ErrUnsatisfiableRange reports a range start at or past the end of file.
var ErrUnsatisfiableRange = errors.New("requested range not satisfiable")

var rangeRe = regexp.MustCompile(`bytes=(\d+)-(\d*)`)

var allowedExtensions = map[string]bool{
	".mp4":  true,
	".mkv":  true,
	".avi":  true,
	".mov":  true,
	".wmv":  true,
	".flv":  true,
	".webm": true,
}

var contentTypes = map[string]string{
	".mp4":  "video/mp4",
	".webm": "video/webm",
	".mkv":  "video/x-matroska",
	".avi":  "video/x-msvideo",
	".mov":  "video/quicktime",
	".wmv":  "video/x-ms-wmv",
	".flv":  "video/x-flv",
}

type VideoServiceInterface interface {
	SaveUpload(ctx context.Context, fileName, contentType string, size int64, src io.Reader) (*store.Video, error)
	Get(ctx context.Context, videoID string) (*store.Video, error)
	Delete(ctx context.Context, videoID string) error
	ResolveRange(rangeHeader string, size int64) (start, end int64, err error)
	ContentType(ext string) string
	StreamRange(ctx context.Context, w io.Writer, path string, start, end int64) error
}

type VideoService struct {
	conf     *structures.Config
	videos   store.VideoStoreInterface
	settings SettingsServiceInterface
	hash     HashServiceInterface
	logger   providers.Logger
	metrics  providers.MetricsProviderInterface
}

func NewVideoService(
	conf *structures.Config,
	videos store.VideoStoreInterface,
	settings SettingsServiceInterface,
	hash HashServiceInterface,
	logger providers.Logger,
	metrics providers.MetricsProviderInterface,
) VideoServiceInterface {
	return &VideoService{
		conf:     conf,
		videos:   videos,
		settings: settings,
		hash:     hash,
		logger:   logger,
		metrics:  metrics,
	}
}

// SaveUpload stores the uploaded file under a fresh id and kicks off the
// background fingerprint. The size limit comes from the settings service so
// runtime changes apply without restart.
func (vs *VideoService) SaveUpload(ctx context.Context, fileName, contentType string, size int64, src io.Reader) (*store.Video, error) {
	limit := vs.settings.MaxUploadSize()
	if size > limit {
		return nil, &apperr.SizeLimitError{Limit: limit}
	}

	ext := strings.ToLower(filepath.Ext(fileName))
	if !strings.HasPrefix(contentType, "video/") && !allowedExtensions[ext] {
		return nil, apperr.Formatf("invalid file type %q, please upload a video file", ext)
	}
	if ext == "" {
		ext = ".mp4"
	}

	if err := os.MkdirAll(vs.conf.Upload.Dir, 0o755); err != nil {
		return nil, err
	}

	videoID := uuid.NewString()
	path := filepath.Join(vs.conf.Upload.Dir, videoID+ext)

	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	written, err := io.Copy(file, io.LimitReader(src, limit+1))
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, fmt.Errorf("failed to save file: %w", err)
	}
	if written > limit {
		os.Remove(path)
		return nil, &apperr.SizeLimitError{Limit: limit}
	}

	video := &store.Video{
		ID:   videoID,
		Name: fileName,
		Ext:  ext,
		Size: written,
		Path: path,
	}
	if err := vs.videos.Insert(ctx, video); err != nil {
		os.Remove(path)
		return nil, err
	}

	vs.metrics.IncUploads(written)
	vs.logger.Infof(providers.TypePost, "Uploaded %s (%d bytes) as %s", fileName, written, videoID)

	vs.hash.DigestAsync(videoID, path)
	return video, nil
}

func (vs *VideoService) Get(ctx context.Context, videoID string) (*store.Video, error) {
	video, err := vs.videos.Get(ctx, videoID)
	if err != nil {
		return nil, err
	}
	if video == nil {
		return nil, apperr.NotFound("video " + videoID)
	}
	return video, nil
}

func (vs *VideoService) Delete(ctx context.Context, videoID string) error {
	video, err := vs.Get(ctx, videoID)
	if err != nil {
		return err
	}
	if err := os.Remove(video.Path); err != nil && !os.IsNotExist(err) {
		return err
	}
	if err := vs.videos.Delete(ctx, videoID); err != nil {
		return err
	}
	vs.hash.Forget(videoID)
	return nil
}

// ResolveRange parses an optional "bytes=start-end" header. Start defaults
// to 0, end to size-1; a "start-" form takes the default end. Without a
// header the whole file is the answer, even a zero-byte one; only an
// explicit request can be unsatisfiable.
func (vs *VideoService) ResolveRange(rangeHeader string, size int64) (int64, int64, error) {
	start, end := int64(0), size-1

	if rangeHeader != "" {
		match := rangeRe.FindStringSubmatch(rangeHeader)
		if match != nil {
			fmt.Sscan(match[1], &start)
			if match[2] != "" {
				fmt.Sscan(match[2], &end)
			}
		}
		if start >= size || start > end {
			return 0, 0, ErrUnsatisfiableRange
		}
	}

	if end > size-1 {
		end = size - 1
	}
	return start, end, nil
}

func (vs *VideoService) ContentType(ext string) string {
	if ct, ok := contentTypes[strings.ToLower(ext)]; ok {
		return ct
	}
	return "video/mp4"
}

// StreamRange copies bytes start through end inclusive to w in chunks,
// stopping early if the source is exhausted or the request is cancelled.
func (vs *VideoService) StreamRange(ctx context.Context, w io.Writer, path string, start, end int64) error {
	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return apperr.NotFound("file " + path)
		}
		return err
	}
	defer file.Close()

	if _, err := file.Seek(start, io.SeekStart); err != nil {
		return err
	}

	buf := make([]byte, StreamChunkSize)
	remaining := end - start + 1
	for remaining > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		chunk := int64(len(buf))
		if remaining < chunk {
			chunk = remaining
		}
		n, err := file.Read(buf[:chunk])
		if n > 0 {
			if _, werr := w.Write(buf[:n]); werr != nil {
				return werr
			}
			remaining -= int64(n)
		}
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
	}
	return nil
}
