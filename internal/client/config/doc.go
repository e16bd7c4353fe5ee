// Package config loads runtime configuration for the eventdesk client.
//
// Sources & precedence
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected via -c / -config or $EVENTDESK_CONFIG.
//  3. Command-line flags, which override earlier values.
//
// Supported flags
//
//	-p string   platform: web, android or ios
//	-a string   backend base URL for the selected platform
//	-t int      request timeout (seconds)
//	-d string   credential storage directory
//	-l string   log level
//
// # JSON schema
//
//	{
//	  "platform": "android",
//	  "base_urls": {"android": "http://10.0.2.2:3000/api", "web": "http://localhost:3000/api"},
//	  "request_timeout": "10s",
//	  "storage_dir": "/var/lib/eventdesk",
//	  "device_secret": "...",
//	  "log_level": "debug"
//	}
//
// The platform → URL mapping is resolved exactly once, at start-up; nothing
// in the client recomputes it per request.
package config
