// Package config loads the client configuration from MINNA_-prefixed
// environment variables with sensible defaults. Flags may override fields
// after loading.
package config

import (
	"fmt"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	ServerURL string
	ProxyURL  string
	Listen    string
	LogLevel  string

	Channel   ChannelConfig
	Reconnect ReconnectConfig
	Playback  PlaybackConfig
	Search    SearchConfig
}

type ChannelConfig struct {
	ID            string
	GuestUsername string
	JoinTimeout   time.Duration
}

type ReconnectConfig struct {
	MaxAttempts int
	Backoff     time.Duration
}

type PlaybackConfig struct {
	SuppressWindow time.Duration
	SeekDebounce   time.Duration
	DriftTolerance float64
}

type SearchConfig struct {
	Provider string
	Debounce time.Duration
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetDefault("MINNA_SERVER_URL", "ws://127.0.0.1:8443/ws")
	v.SetDefault("MINNA_PROXY_URL", "http://127.0.0.1:3000")
	v.SetDefault("MINNA_LISTEN", "127.0.0.1:8090")
	v.SetDefault("MINNA_LOG_LEVEL", "info")
	v.SetDefault("MINNA_JOIN_TIMEOUT", 10*time.Second)
	v.SetDefault("MINNA_RECONNECT_MAX_ATTEMPTS", 5)
	v.SetDefault("MINNA_RECONNECT_BACKOFF", time.Second)
	v.SetDefault("MINNA_SUPPRESS_WINDOW", time.Second)
	v.SetDefault("MINNA_SEEK_DEBOUNCE", 500*time.Millisecond)
	v.SetDefault("MINNA_DRIFT_TOLERANCE", 1.0)
	v.SetDefault("MINNA_SEARCH_PROVIDER", "animepahe")
	v.SetDefault("MINNA_SEARCH_DEBOUNCE", time.Second)
	v.AutomaticEnv()

	cfg := &Config{
		ServerURL: v.GetString("MINNA_SERVER_URL"),
		ProxyURL:  v.GetString("MINNA_PROXY_URL"),
		Listen:    v.GetString("MINNA_LISTEN"),
		LogLevel:  v.GetString("MINNA_LOG_LEVEL"),
		Channel: ChannelConfig{
			ID:            v.GetString("MINNA_CHANNEL"),
			GuestUsername: v.GetString("MINNA_USERNAME"),
			JoinTimeout:   v.GetDuration("MINNA_JOIN_TIMEOUT"),
		},
		Reconnect: ReconnectConfig{
			MaxAttempts: v.GetInt("MINNA_RECONNECT_MAX_ATTEMPTS"),
			Backoff:     v.GetDuration("MINNA_RECONNECT_BACKOFF"),
		},
		Playback: PlaybackConfig{
			SuppressWindow: v.GetDuration("MINNA_SUPPRESS_WINDOW"),
			SeekDebounce:   v.GetDuration("MINNA_SEEK_DEBOUNCE"),
			DriftTolerance: v.GetFloat64("MINNA_DRIFT_TOLERANCE"),
		},
		Search: SearchConfig{
			Provider: v.GetString("MINNA_SEARCH_PROVIDER"),
			Debounce: v.GetDuration("MINNA_SEARCH_DEBOUNCE"),
		},
	}

	if cfg.ServerURL == "" {
		return nil, fmt.Errorf("config: server url is required")
	}
	return cfg, nil
}
