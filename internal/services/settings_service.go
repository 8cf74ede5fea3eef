package services

import (
	"os"
	"sync/atomic"

	json "github.com/goccy/go-json"

	"github.com/imi6/dandan/internal/providers"
	"github.com/imi6/dandan/internal/structures"
)

// Settings is the user settings document, an open JSON object grouped into
// sections. Only a few fields affect the server; the rest belong to the web
// client and are stored verbatim.
type Settings map[string]any

type SettingsServiceInterface interface {
	Get() Settings
	Save(settings Settings) error
	Reset() (Settings, error)
	MaxUploadSize() int64
}

// SettingsService persists user settings to a flat JSON file and applies
// the server-affecting fields (upload limit, remote endpoints) immediately.
type SettingsService struct {
	conf   *structures.Config
	client providers.DanDanClientInterface
	logger providers.Logger

	maxUploadSize atomic.Int64
}

func NewSettingsService(conf *structures.Config, client providers.DanDanClientInterface, logger providers.Logger) SettingsServiceInterface {
	ss := &SettingsService{
		conf:   conf,
		client: client,
		logger: logger,
	}
	ss.maxUploadSize.Store(conf.Upload.MaxSize)

	// Stored settings survive restarts, so re-apply them on startup.
	if stored, err := ss.load(); err != nil {
		ss.logger.Warnf(providers.TypeApp, "Failed to load settings file: %s", err)
	} else if stored != nil {
		ss.apply(stored)
	}
	return ss
}

func (ss *SettingsService) load() (Settings, error) {
	data, err := os.ReadFile(ss.conf.Settings.FilePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var settings Settings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, err
	}
	return settings, nil
}

func (ss *SettingsService) Get() Settings {
	stored, err := ss.load()
	if err != nil {
		ss.logger.Warnf(providers.TypeApp, "Failed to read settings file: %s", err)
	}
	if stored != nil {
		return stored
	}
	return ss.defaults()
}

func (ss *SettingsService) Save(settings Settings) error {
	data, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}

	tmpFile := ss.conf.Settings.FilePath + ".tmp"
	file, err := os.Create(tmpFile)
	if err != nil {
		return err
	}

	if _, err = file.Write(data); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}
	if err = file.Sync(); err != nil {
		file.Close()
		os.Remove(tmpFile)
		return err
	}
	if err = file.Close(); err != nil {
		os.Remove(tmpFile)
		return err
	}
	if err = os.Rename(tmpFile, ss.conf.Settings.FilePath); err != nil {
		return err
	}

	ss.apply(settings)
	return nil
}

func (ss *SettingsService) Reset() (Settings, error) {
	if err := os.Remove(ss.conf.Settings.FilePath); err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	ss.maxUploadSize.Store(ss.conf.Upload.MaxSize)
	ss.client.SetEndpoints(ss.conf.Remote.BaseURL, ss.conf.Remote.ProxyURL)
	return ss.defaults(), nil
}

func (ss *SettingsService) MaxUploadSize() int64 {
	return ss.maxUploadSize.Load()
}

// apply pushes the server-affecting fields into their owners.
func (ss *SettingsService) apply(settings Settings) {
	if advanced := section(settings, "advanced"); advanced != nil {
		if mb, ok := asInt64(advanced["maxUploadSize"]); ok && mb > 0 {
			ss.maxUploadSize.Store(mb * 1024 * 1024)
			ss.logger.Infof(providers.TypeApp, "Upload limit set to %dMB", mb)
		}
	}

	if network := section(settings, "network"); network != nil {
		baseURL, _ := network["apiServer"].(string)
		proxyURL, _ := network["proxyUrl"].(string)
		if useProxy, ok := network["useProxy"].(bool); ok && !useProxy {
			proxyURL = ""
		}
		ss.client.SetEndpoints(baseURL, proxyURL)
	}
}

func (ss *SettingsService) defaults() Settings {
	return Settings{
		"general": map[string]any{
			"theme":     "auto",
			"language":  "zh-CN",
			"autoMatch": true,
		},
		"player": map[string]any{
			"engine":           "native",
			"defaultVolume":    80,
			"autoPlay":         false,
			"rememberPosition": true,
		},
		"danmaku": map[string]any{
			"opacity":     100,
			"fontSize":    "medium",
			"speed":       "normal",
			"blockTop":    false,
			"blockBottom": false,
			"blockScroll": false,
		},
		"network": map[string]any{
			"apiServer": ss.conf.Remote.BaseURL,
			"useProxy":  ss.conf.Remote.ProxyURL != "",
			"proxyUrl":  ss.conf.Remote.ProxyURL,
		},
		"advanced": map[string]any{
			"debugMode":     ss.conf.Debug,
			"logLevel":      ss.conf.Logger.Level,
			"maxUploadSize": ss.conf.Upload.MaxSize / (1024 * 1024),
		},
	}
}

func section(settings Settings, key string) map[string]any {
	s, _ := settings[key].(map[string]any)
	return s
}

// asInt64 coerces JSON numbers, which decode as float64 from untyped maps.
func asInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		return int64(n), true
	case int64:
		return n, true
	case int:
		return int64(n), true
	default:
		return 0, false
	}
}
