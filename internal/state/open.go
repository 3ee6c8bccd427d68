package state

import (
	"fmt"
	"log/slog"

	"github.com/alexjbarnes/build-cli/internal/config"
)

// Open returns the token store selected by cfg.TokenStore.
func Open(cfg *config.Config, logger *slog.Logger) (Store, error) {
	switch cfg.TokenStore {
	case config.TokenStoreFile:
		return NewFileStore(cfg.TokenPath, logger), nil
	case config.TokenStoreBolt:
		s, err := OpenBolt(cfg.StatePath)
		if err != nil {
			return nil, err
		}

		logger.Debug("using bolt token store", slog.String("path", cfg.StatePath))

		return s, nil
	}

	return nil, fmt.Errorf("unknown token store %q", cfg.TokenStore)
}
