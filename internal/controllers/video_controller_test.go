package controllers

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	json "github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imi6/dandan/internal/services"
	"github.com/imi6/dandan/internal/store"
	"github.com/imi6/dandan/internal/structures"
	"github.com/imi6/dandan/internal/testutil"
)

type fakeVideoStore struct {
	mu     sync.Mutex
	videos map[string]*store.Video
}

func newFakeVideoStore() *fakeVideoStore {
	return &fakeVideoStore{videos: make(map[string]*store.Video)}
}

func (f *fakeVideoStore) Insert(_ context.Context, v *store.Video) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.videos[v.ID] = v
	return nil
}

func (f *fakeVideoStore) Get(_ context.Context, id string) (*store.Video, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.videos[id], nil
}

func (f *fakeVideoStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.videos, id)
	return nil
}

func (f *fakeVideoStore) Count(_ context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.videos), nil
}

func (f *fakeVideoStore) Close() error { return nil }

type fakeSettingsSvc struct {
	maxUpload int64
}

func (f *fakeSettingsSvc) Get() services.Settings            { return services.Settings{} }
func (f *fakeSettingsSvc) Save(_ services.Settings) error    { return nil }
func (f *fakeSettingsSvc) Reset() (services.Settings, error) { return services.Settings{}, nil }
func (f *fakeSettingsSvc) MaxUploadSize() int64              { return f.maxUpload }

type fakeHashSvc struct {
	mu       sync.Mutex
	digests  map[string]string
	computed string
	async    []string
}

func newFakeHashSvc() *fakeHashSvc {
	return &fakeHashSvc{digests: make(map[string]string)}
}

func (f *fakeHashSvc) ComputePrefixDigest(_ string) (string, error) { return f.computed, nil }

func (f *fakeHashSvc) DigestForVideo(_ context.Context, videoID, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.digests[videoID] = f.computed
	return f.computed, nil
}

func (f *fakeHashSvc) DigestAsync(videoID, _ string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.async = append(f.async, videoID)
}

func (f *fakeHashSvc) CachedDigest(videoID string) (string, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	d, ok := f.digests[videoID]
	return d, ok
}

func (f *fakeHashSvc) Forget(videoID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.digests, videoID)
}

type videoFixture struct {
	controller *VideoController
	store      *fakeVideoStore
	hash       *fakeHashSvc
	conf       *structures.Config
}

func newVideoFixture(t *testing.T, maxUpload int64) *videoFixture {
	t.Helper()
	conf := &structures.Config{
		Upload: structures.UploadConfig{Dir: t.TempDir(), MaxSize: maxUpload},
	}
	videoStore := newFakeVideoStore()
	settings := &fakeSettingsSvc{maxUpload: maxUpload}
	hash := newFakeHashSvc()
	logger := &testutil.MockLogger{}
	videos := services.NewVideoService(conf, videoStore, settings, hash, logger, testutil.NewMockMetrics())
	return &videoFixture{
		controller: NewVideoController(logger, videos, hash, settings, conf),
		store:      videoStore,
		hash:       hash,
		conf:       conf,
	}
}

func (fx *videoFixture) addVideo(t *testing.T, id string, data []byte) *store.Video {
	t.Helper()
	path := filepath.Join(fx.conf.Upload.Dir, id+".mp4")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	v := &store.Video{ID: id, Name: id + ".mp4", Ext: ".mp4", Size: int64(len(data)), Path: path}
	require.NoError(t, fx.store.Insert(context.Background(), v))
	return v
}

func streamRequest(id, rangeHeader string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/video/stream/"+id, nil)
	req.SetPathValue("videoId", id)
	if rangeHeader != "" {
		req.Header.Set("Range", rangeHeader)
	}
	return req
}

func patternBytes(n int) []byte {
	data := make([]byte, n)
	for i := range data {
		data[i] = byte(i % 251)
	}
	return data
}

func TestVideoController_StreamPartialContent(t *testing.T) {
	fx := newVideoFixture(t, 1<<20)
	data := patternBytes(1000)
	fx.addVideo(t, "v1", data)

	rr := httptest.NewRecorder()
	fx.controller.Stream(rr, streamRequest("v1", "bytes=200-299"))

	assert.Equal(t, http.StatusPartialContent, rr.Code)
	assert.Equal(t, "bytes 200-299/1000", rr.Header().Get("Content-Range"))
	assert.Equal(t, "bytes", rr.Header().Get("Accept-Ranges"))
	assert.Equal(t, "100", rr.Header().Get("Content-Length"))
	assert.Equal(t, "video/mp4", rr.Header().Get("Content-Type"))
	assert.Equal(t, data[200:300], rr.Body.Bytes())
}

func TestVideoController_StreamWithoutRange(t *testing.T) {
	fx := newVideoFixture(t, 1<<20)
	data := patternBytes(1000)
	fx.addVideo(t, "v1", data)

	rr := httptest.NewRecorder()
	fx.controller.Stream(rr, streamRequest("v1", ""))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "bytes 0-999/1000", rr.Header().Get("Content-Range"))
	assert.Equal(t, data, rr.Body.Bytes())
}

func TestVideoController_StreamOpenEndedRange(t *testing.T) {
	fx := newVideoFixture(t, 1<<20)
	data := patternBytes(1000)
	fx.addVideo(t, "v1", data)

	rr := httptest.NewRecorder()
	fx.controller.Stream(rr, streamRequest("v1", "bytes=900-"))

	assert.Equal(t, http.StatusPartialContent, rr.Code)
	assert.Equal(t, "bytes 900-999/1000", rr.Header().Get("Content-Range"))
	assert.Equal(t, data[900:], rr.Body.Bytes())
}

func TestVideoController_StreamEmptyFileWithoutRange(t *testing.T) {
	fx := newVideoFixture(t, 1<<20)
	fx.addVideo(t, "v1", nil)

	rr := httptest.NewRecorder()
	fx.controller.Stream(rr, streamRequest("v1", ""))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "0", rr.Header().Get("Content-Length"))
	assert.Empty(t, rr.Body.Bytes())
}

func TestVideoController_StreamEmptyFileWithRangeIs416(t *testing.T) {
	fx := newVideoFixture(t, 1<<20)
	fx.addVideo(t, "v1", nil)

	rr := httptest.NewRecorder()
	fx.controller.Stream(rr, streamRequest("v1", "bytes=0-"))

	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rr.Code)
	assert.Equal(t, "bytes */0", rr.Header().Get("Content-Range"))
}

func TestVideoController_StreamUnsatisfiableRange(t *testing.T) {
	fx := newVideoFixture(t, 1<<20)
	fx.addVideo(t, "v1", patternBytes(1000))

	rr := httptest.NewRecorder()
	fx.controller.Stream(rr, streamRequest("v1", "bytes=1000-"))

	assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, rr.Code)
	assert.Equal(t, "bytes */1000", rr.Header().Get("Content-Range"))
}

func TestVideoController_StreamUnknownVideo(t *testing.T) {
	fx := newVideoFixture(t, 1<<20)

	rr := httptest.NewRecorder()
	fx.controller.Stream(rr, streamRequest("ghost", ""))

	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func multipartUpload(t *testing.T, fieldName, fileName string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile(fieldName, fileName)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

func TestVideoController_Upload(t *testing.T) {
	fx := newVideoFixture(t, 1<<20)
	body, contentType := multipartUpload(t, "file", "ep01.mp4", patternBytes(500))

	req := httptest.NewRequest(http.MethodPost, "/api/video/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	fx.controller.Upload(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)

	var resp uploadResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "ep01.mp4", resp.Data.Name)
	assert.Equal(t, int64(500), resp.Data.Size)
	assert.Equal(t, "/api/video/stream/"+resp.Data.ID, resp.Data.URL)

	saved, err := os.ReadFile(resp.Data.Path)
	require.NoError(t, err)
	assert.Len(t, saved, 500)

	assert.Contains(t, fx.hash.async, resp.Data.ID)
}

func TestVideoController_UploadMissingFileField(t *testing.T) {
	fx := newVideoFixture(t, 1<<20)
	body, contentType := multipartUpload(t, "wrong", "ep01.mp4", []byte("data"))

	req := httptest.NewRequest(http.MethodPost, "/api/video/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	fx.controller.Upload(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestVideoController_UploadTooLarge(t *testing.T) {
	fx := newVideoFixture(t, 100)
	body, contentType := multipartUpload(t, "file", "big.mp4", patternBytes(500))

	req := httptest.NewRequest(http.MethodPost, "/api/video/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	fx.controller.Upload(rr, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rr.Code)
}

func TestVideoController_UploadRejectsNonVideo(t *testing.T) {
	fx := newVideoFixture(t, 1<<20)
	body, contentType := multipartUpload(t, "file", "notes.txt", []byte("plain text"))

	req := httptest.NewRequest(http.MethodPost, "/api/video/upload", body)
	req.Header.Set("Content-Type", contentType)
	rr := httptest.NewRecorder()
	fx.controller.Upload(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func md5Request(id string) *http.Request {
	req := httptest.NewRequest(http.MethodGet, "/api/video/md5/"+id, nil)
	req.SetPathValue("videoId", id)
	return req
}

func TestVideoController_MD5Cached(t *testing.T) {
	fx := newVideoFixture(t, 1<<20)
	fx.hash.digests["v1"] = "5eb63bbbe01eeed093cb22bb8f5acdc3"

	rr := httptest.NewRecorder()
	fx.controller.MD5(rr, md5Request("v1"))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp md5Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Ready)
	require.NotNil(t, resp.MD5)
	assert.Equal(t, "5eb63bbbe01eeed093cb22bb8f5acdc3", *resp.MD5)
}

func TestVideoController_MD5ComputesOnDemand(t *testing.T) {
	fx := newVideoFixture(t, 1<<20)
	fx.addVideo(t, "v1", patternBytes(100))
	fx.hash.computed = "deadbeefdeadbeefdeadbeefdeadbeef"

	rr := httptest.NewRecorder()
	fx.controller.MD5(rr, md5Request("v1"))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp md5Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.True(t, resp.Ready)
	require.NotNil(t, resp.MD5)
	assert.Equal(t, "deadbeefdeadbeefdeadbeefdeadbeef", *resp.MD5)
}

func TestVideoController_MD5UnknownVideoNotReady(t *testing.T) {
	fx := newVideoFixture(t, 1<<20)

	rr := httptest.NewRecorder()
	fx.controller.MD5(rr, md5Request("ghost"))

	require.Equal(t, http.StatusOK, rr.Code)
	var resp md5Response
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.False(t, resp.Ready)
	assert.Nil(t, resp.MD5)
}

func TestVideoController_Delete(t *testing.T) {
	fx := newVideoFixture(t, 1<<20)
	v := fx.addVideo(t, "v1", patternBytes(100))
	fx.hash.digests["v1"] = "digest"

	req := httptest.NewRequest(http.MethodDelete, "/api/video/v1", nil)
	req.SetPathValue("videoId", "v1")
	rr := httptest.NewRecorder()
	fx.controller.Delete(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)

	_, statErr := os.Stat(v.Path)
	assert.True(t, os.IsNotExist(statErr))

	stored, err := fx.store.Get(context.Background(), "v1")
	require.NoError(t, err)
	assert.Nil(t, stored)

	_, stillCached := fx.hash.CachedDigest("v1")
	assert.False(t, stillCached)
}

func TestVideoController_DeleteUnknownVideo(t *testing.T) {
	fx := newVideoFixture(t, 1<<20)

	req := httptest.NewRequest(http.MethodDelete, "/api/video/ghost", nil)
	req.SetPathValue("videoId", "ghost")
	rr := httptest.NewRecorder()
	fx.controller.Delete(rr, req)

	assert.Equal(t, http.StatusNotFound, rr.Code)
}
