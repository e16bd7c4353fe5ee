package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/eventdesk/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
//	-p string   platform (web, android, ios)
//	-a string   base URL override for the selected platform
//	-t int      request timeout in seconds
//	-d string   credential storage directory
//	-l string   log level
//
// Only the flags above are looked at (see flagx.FilterArgs). A bad value
// panics, like the JSON loader.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-p", "-a", "-t", "-d", "-l"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	platform := fs.String("p", string(cfg.Platform), "runtime platform: web, android or ios")
	baseURL := fs.String("a", "", "backend base URL for the selected platform")
	timeout := fs.Int("t", int(cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	fs.StringVar(&cfg.StorageDir, "d", cfg.StorageDir, "credential storage directory")
	fs.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	p, err := ParsePlatform(*platform)
	if err != nil {
		panic(err)
	}
	cfg.Platform = p

	if *baseURL != "" {
		if cfg.BaseURLs == nil {
			cfg.BaseURLs = make(map[Platform]string)
		}
		cfg.BaseURLs[p] = *baseURL
	}

	// -t only overrides the JSON/default timeout when given
	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.RequestTimeout = time.Duration(*timeout) * time.Second
		}
	})
}
