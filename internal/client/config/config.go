package config

import (
	"fmt"
	"strings"
	"time"
)

// Platform identifies the runtime the client is deployed on. It decides both
// the backend base URL and the credential storage backend.
type Platform string

const (
	PlatformWeb     Platform = "web"
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
)

// ParsePlatform validates a platform name (case-insensitive).
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	switch p {
	case PlatformWeb, PlatformAndroid, PlatformIOS:
		return p, nil
	}
	return "", fmt.Errorf("unknown platform %q", s)
}

// Native reports whether p is a mobile runtime with a secure keystore.
func (p Platform) Native() bool {
	return p == PlatformAndroid || p == PlatformIOS
}

// Config holds runtime settings for the eventdesk client.
//
// Fields:
//   - Platform: runtime the process runs as; fixed for the process lifetime.
//   - BaseURLs: static platform → backend base URL mapping.
//   - RequestTimeout: default per-request timeout of the API client.
//   - StorageDir: directory holding persisted credentials.
//   - DeviceSecret: optional secret the secure keystore key is derived from;
//     a random one is generated inside StorageDir when empty.
//   - LogLevel: debug, info, warn or error.
type Config struct {
	Platform       Platform
	BaseURLs       map[Platform]string
	RequestTimeout time.Duration
	StorageDir     string
	DeviceSecret   string
	LogLevel       string
}

// LoadDefaults populates c with sensible defaults. Mobile targets talk to the
// backend over the LAN, the web/dev target over localhost.
func (c *Config) LoadDefaults() {
	c.Platform = PlatformWeb
	c.BaseURLs = map[Platform]string{
		PlatformAndroid: "http://192.168.1.50:3000/api",
		PlatformIOS:     "http://192.168.1.50:3000/api",
		PlatformWeb:     "http://localhost:3000/api",
	}
	c.RequestTimeout = 10 * time.Second
	c.StorageDir = ".eventdesk"
	c.DeviceSecret = ""
	c.LogLevel = "info"
}

// BaseURL resolves the backend URL for the configured platform, without a
// trailing slash.
func (c *Config) BaseURL() string {
	return strings.TrimRight(c.BaseURLs[c.Platform], "/")
}

// LoadConfig constructs a Config, applies defaults, then overlays values from
// JSON (if present) and command-line flags (if present). Later sources take
// precedence over earlier ones.
func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
