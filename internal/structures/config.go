package structures

import "time"

type Server struct {
	Host string `yaml:"host" validate:"required"`
	Port int    `yaml:"port" validate:"required|uint|min:1"`
}

type LoggerConfig struct {
	Level string `yaml:"level" validate:"required|in:trace,debug,info,warn,error,fatal,panic"`
	Mode  uint32 `yaml:"mode" validate:"required|uint"`
	Dir   string `yaml:"dir" validate:"required|unixPath"`
}

type UploadConfig struct {
	Dir     string `yaml:"dir" validate:"required|unixPath"`
	MaxSize int64  `yaml:"maxSize" validate:"required|min:1"`
}

type RemoteConfig struct {
	BaseURL        string        `yaml:"baseUrl" validate:"required|fullUrl"`
	ProxyURL       string        `yaml:"proxyUrl"`
	Timeout        time.Duration `yaml:"timeout" validate:"required|min:1"`
	ConnectTimeout time.Duration `yaml:"connectTimeout" validate:"required|min:1"`
}

type DatabaseConfig struct {
	Path string `yaml:"path" validate:"required|unixPath"`
}

type SettingsConfig struct {
	FilePath string `yaml:"filePath" validate:"required|unixPath"`
}

type CacheConfig struct {
	Enabled bool          `yaml:"enabled"`
	Size    int           `yaml:"size"`
	TTL     time.Duration `yaml:"ttl"`
}

type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type RealtimeConfig struct {
	WriteTimeout   time.Duration `yaml:"writeTimeout"`
	MaxMessageSize int64         `yaml:"maxMessageSize"`
}

type StaticConfig struct {
	Enabled bool   `yaml:"enabled"`
	Dir     string `yaml:"dir"`
}

type Config struct {
	AppName   string
	Debug     bool
	Path      string
	WebServer Server         `yaml:"webServer"`
	Logger    LoggerConfig   `yaml:"logger"`
	Upload    UploadConfig   `yaml:"upload"`
	Remote    RemoteConfig   `yaml:"remote"`
	Database  DatabaseConfig `yaml:"database"`
	Settings  SettingsConfig `yaml:"settings"`
	Cache     CacheConfig    `yaml:"cache"`
	Metrics   MetricsConfig  `yaml:"metrics"`
	Realtime  RealtimeConfig `yaml:"realtime"`
	Static    StaticConfig   `yaml:"static"`
}
