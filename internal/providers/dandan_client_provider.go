package providers

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"

	json "github.com/goccy/go-json"

	"github.com/imi6/dandan/internal/apperr"
	"github.com/imi6/dandan/internal/danmaku"
	"github.com/imi6/dandan/internal/structures"
)

// MatchRequest identifies a local file to the DanDanPlay match endpoint.
type MatchRequest struct {
	FileName      string `json:"fileName"`
	FileHash      string `json:"fileHash"`
	FileSize      int64  `json:"fileSize"`
	VideoDuration int64  `json:"videoDuration,omitempty"`
	MatchMode     string `json:"matchMode,omitempty"`
}

type MatchCandidate struct {
	EpisodeID    int64   `json:"episodeId"`
	AnimeID      int64   `json:"animeId"`
	AnimeTitle   string  `json:"animeTitle"`
	EpisodeTitle string  `json:"episodeTitle"`
	Type         string  `json:"type"`
	Shift        float64 `json:"shift"`
}

type MatchResponse struct {
	Success      bool             `json:"success"`
	IsMatched    bool             `json:"isMatched"`
	Matches      []MatchCandidate `json:"matches"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
}

type CommentResponse struct {
	Success      bool                 `json:"success"`
	Count        int                  `json:"count"`
	Comments     []danmaku.RawComment `json:"comments"`
	ErrorMessage string               `json:"errorMessage,omitempty"`
}

type DanDanClientInterface interface {
	MatchVideo(ctx context.Context, req *MatchRequest) (*MatchResponse, error)
	GetComments(ctx context.Context, episodeID int64, withRelated bool, chConvert *int) (*CommentResponse, error)
	GetExternalComments(ctx context.Context, videoURL string) (*CommentResponse, error)
	SearchAnime(ctx context.Context, keyword string) (json.RawMessage, error)
	GetAnimeDetail(ctx context.Context, animeID int64) (json.RawMessage, error)
	SetEndpoints(baseURL, proxyURL string)
}

const maxErrorBodySize = 2048

type DanDanClient struct {
	httpClient *http.Client
	logger     Logger
	metrics    MetricsProviderInterface

	mu       sync.RWMutex
	baseURL  string
	proxyURL string
}

func NewDanDanClient(conf *structures.Config, logger Logger, metrics MetricsProviderInterface) DanDanClientInterface {
	dialer := &net.Dialer{Timeout: conf.Remote.ConnectTimeout}
	return &DanDanClient{
		httpClient: &http.Client{
			Timeout: conf.Remote.Timeout,
			Transport: &http.Transport{
				DialContext:         dialer.DialContext,
				TLSHandshakeTimeout: conf.Remote.ConnectTimeout,
			},
		},
		logger:   logger,
		metrics:  metrics,
		baseURL:  conf.Remote.BaseURL,
		proxyURL: conf.Remote.ProxyURL,
	}
}

// SetEndpoints swaps the remote base and proxy URLs at runtime. Called by
// the settings service when network settings change.
func (c *DanDanClient) SetEndpoints(baseURL, proxyURL string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if baseURL != "" {
		c.baseURL = baseURL
	}
	c.proxyURL = proxyURL
}

// resolveBase prefers the proxy URL when one is configured.
func (c *DanDanClient) resolveBase() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.proxyURL != "" {
		return strings.TrimSuffix(c.proxyURL, "/")
	}
	return strings.TrimSuffix(c.baseURL, "/")
}

func (c *DanDanClient) do(ctx context.Context, endpoint string, req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req.WithContext(ctx))
	if err != nil {
		c.metrics.IncRemoteCalls(endpoint, "error")
		return fmt.Errorf("remote request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		c.metrics.IncRemoteCalls(endpoint, "error")
		c.logger.Warnf(TypeApp, "Remote %s returned %d", endpoint, resp.StatusCode)
		return &apperr.RemoteAPIError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		c.metrics.IncRemoteCalls(endpoint, "error")
		return fmt.Errorf("decode remote response: %w", err)
	}
	c.metrics.IncRemoteCalls(endpoint, "ok")
	return nil
}

func (c *DanDanClient) getJSON(ctx context.Context, endpoint, rawURL string, out any) error {
	req, err := http.NewRequest(http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	return c.do(ctx, endpoint, req, out)
}

func (c *DanDanClient) MatchVideo(ctx context.Context, matchReq *MatchRequest) (*MatchResponse, error) {
	payload, err := json.Marshal(matchReq)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequest(http.MethodPost, c.resolveBase()+"/match", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	var out MatchResponse
	if err := c.do(ctx, "match", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *DanDanClient) GetComments(ctx context.Context, episodeID int64, withRelated bool, chConvert *int) (*CommentResponse, error) {
	params := url.Values{}
	if withRelated {
		params.Set("withRelated", "true")
	}
	if chConvert != nil {
		params.Set("chConvert", strconv.Itoa(*chConvert))
	}

	rawURL := fmt.Sprintf("%s/comment/%d", c.resolveBase(), episodeID)
	if encoded := params.Encode(); encoded != "" {
		rawURL += "?" + encoded
	}

	var out CommentResponse
	if err := c.getJSON(ctx, "comment", rawURL, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *DanDanClient) GetExternalComments(ctx context.Context, videoURL string) (*CommentResponse, error) {
	params := url.Values{}
	params.Set("url", videoURL)

	var out CommentResponse
	if err := c.getJSON(ctx, "extcomment", c.resolveBase()+"/extcomment?"+params.Encode(), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *DanDanClient) SearchAnime(ctx context.Context, keyword string) (json.RawMessage, error) {
	params := url.Values{}
	params.Set("keyword", keyword)

	var out json.RawMessage
	if err := c.getJSON(ctx, "search", c.resolveBase()+"/search/anime?"+params.Encode(), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *DanDanClient) GetAnimeDetail(ctx context.Context, animeID int64) (json.RawMessage, error) {
	var out json.RawMessage
	if err := c.getJSON(ctx, "anime", fmt.Sprintf("%s/anime/%d", c.resolveBase(), animeID), &out); err != nil {
		return nil, err
	}
	return out, nil
}
