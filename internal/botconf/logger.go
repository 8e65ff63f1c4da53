package botconf

import (
	"github.com/gogogo1024/storefront-bot/internal/common"
)

// InitLogger builds the zap logger from the observability section and
// routes hertz logs through it.
func InitLogger(cfg *Config) error {
	if cfg == nil {
		return nil
	}
	if err := common.InitLogger(cfg.Observability.LogLevel, cfg.Observability.LogFileName); err != nil {
		return err
	}
	common.InitHertzLogger()
	return nil
}
