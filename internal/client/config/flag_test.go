package config

import (
	"os"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	defaults := func() *Config {
		c := &Config{}
		c.LoadDefaults()
		return c
	}

	androidURLs := defaults().BaseURLs
	androidURLs[PlatformAndroid] = "http://10.0.2.2:3000/api"

	tests := []struct {
		expected    *Config
		name        string
		args        []string
		expectPanic bool
	}{
		{
			name: "platform, url and timeout",
			args: []string{"cmd", "-p", "android", "-a", "http://10.0.2.2:3000/api", "-t", "5", "-d", "/tmp/ed", "-l", "debug"},
			expected: &Config{
				Platform:       PlatformAndroid,
				BaseURLs:       androidURLs,
				RequestTimeout: 5 * time.Second,
				StorageDir:     "/tmp/ed",
				LogLevel:       "debug",
			},
		},
		{name: "incorrect timeout", args: []string{"cmd", "-t", "abc"}, expectPanic: true},
		{name: "unknown platform", args: []string{"cmd", "-p", "symbian"}, expectPanic: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			os.Args = tt.args
			cfg := defaults()

			if tt.expectPanic {
				require.Panics(t, func() { parseFlags(cfg) })
				return
			}

			require.NotPanics(t, func() { parseFlags(cfg) })
			assert.Empty(t, cmp.Diff(tt.expected, cfg))
		})
	}
}

func TestParseFlags_KeepsSubSecondTimeoutWithoutFlag(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	for _, d := range []time.Duration{1500 * time.Millisecond, 500 * time.Millisecond} {
		os.Args = []string{"cmd", "-l", "debug"}
		cfg := &Config{}
		cfg.LoadDefaults()
		cfg.RequestTimeout = d

		require.NotPanics(t, func() { parseFlags(cfg) })
		assert.Equal(t, d, cfg.RequestTimeout)
	}

	os.Args = []string{"cmd", "-t", "3"}
	cfg := &Config{}
	cfg.LoadDefaults()
	cfg.RequestTimeout = 500 * time.Millisecond
	parseFlags(cfg)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
}
