package providers

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/imi6/dandan/internal/structures"
)

func NewConfigProvider(flags *structures.CliFlags) (*structures.Config, error) {
	var conf structures.Config

	filename := filepath.Base(flags.ConfigPath)
	viper.AddConfigPath(filepath.Dir(flags.ConfigPath))
	viper.SetConfigName(strings.TrimSuffix(filename, filepath.Ext(filename)))
	viper.SetConfigType("yaml")

	viper.BindEnv("logger.level", "DANDAN_LOG_LEVEL")
	viper.BindEnv("remote.baseUrl", "DANDAN_API_BASE_URL")
	viper.BindEnv("remote.proxyUrl", "DANDAN_PROXY_URL")
	viper.BindEnv("upload.dir", "DANDAN_UPLOAD_DIR")
	viper.BindEnv("upload.maxSize", "DANDAN_MAX_UPLOAD_SIZE")
	viper.BindEnv("cache.enabled", "DANDAN_CACHE_ENABLED")
	viper.BindEnv("cache.size", "DANDAN_CACHE_SIZE")

	err := viper.ReadInConfig()
	if err != nil {
		return nil, err
	}

	err = viper.Unmarshal(&conf)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into config struct: %w", err)
	}

	cnfValidator := NewCnfValidator(&conf)
	err = cnfValidator.Validate()
	if err != nil {
		return nil, err
	}

	conf.AppName = "DanDanRelay"
	conf.Path = flags.ConfigPath
	conf.Debug = flags.DebugMode

	return &conf, nil
}
