package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/eventdesk/internal/flagx"
	"github.com/dmitrijs2005/eventdesk/internal/timex"
)

// JsonConfig is a DTO used exclusively for JSON unmarshalling.
type JsonConfig struct {
	Platform       string            `json:"platform"`
	BaseURLs       map[string]string `json:"base_urls"`
	RequestTimeout timex.Duration    `json:"request_timeout"`
	StorageDir     string            `json:"storage_dir"`
	DeviceSecret   string            `json:"device_secret"`
	LogLevel       string            `json:"log_level"`
}

// parseJson overlays Config with the fields present in the JSON file named
// by flagx.JsonConfigFlags. Absent fields keep their current value. Panics on
// read, unmarshal or platform errors.
func parseJson(cfg *Config) {
	jsonConfigFile := flagx.JsonConfigFlags()
	if jsonConfigFile == "" {
		return
	}

	var jc JsonConfig

	data, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}
	if err := json.Unmarshal(data, &jc); err != nil {
		panic(err)
	}

	if jc.Platform != "" {
		p, err := ParsePlatform(jc.Platform)
		if err != nil {
			panic(err)
		}
		cfg.Platform = p
	}
	for name, url := range jc.BaseURLs {
		p, err := ParsePlatform(name)
		if err != nil {
			panic(err)
		}
		if cfg.BaseURLs == nil {
			cfg.BaseURLs = make(map[Platform]string)
		}
		cfg.BaseURLs[p] = url
	}
	if jc.RequestTimeout.Duration > 0 {
		cfg.RequestTimeout = jc.RequestTimeout.Duration
	}
	if jc.StorageDir != "" {
		cfg.StorageDir = jc.StorageDir
	}
	if jc.DeviceSecret != "" {
		cfg.DeviceSecret = jc.DeviceSecret
	}
	if jc.LogLevel != "" {
		cfg.LogLevel = jc.LogLevel
	}
}
