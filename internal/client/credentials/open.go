package credentials

import (
	"context"
	"path/filepath"

	"github.com/dmitrijs2005/eventdesk/internal/client/config"
	"github.com/dmitrijs2005/eventdesk/internal/logging"
)

// Open picks the backend for cfg.Platform once: page storage for the web
// target, the sealed keystore for native targets.
func Open(ctx context.Context, cfg *config.Config, log logging.Logger) (*Store, error) {
	var backend Backend

	if cfg.Platform.Native() {
		b, err := OpenSecureBackend(ctx, cfg.StorageDir, cfg.DeviceSecret)
		if err != nil {
			return nil, err
		}
		backend = b
	} else {
		backend = NewWebBackend(filepath.Join(cfg.StorageDir, "session.json"))
	}

	log.Debug(ctx, "credential backend selected", "platform", cfg.Platform)
	return NewStore(backend, log.With("component", "credentials")), nil
}
