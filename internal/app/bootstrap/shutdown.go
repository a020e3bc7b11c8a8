// internal/app/bootstrap/shutdown.go
package bootstrap

import (
	"context"

	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Shutdown cleanly tears down the cache, the batcher, and the MongoDB
// connection. The cache closes first so its refreshers stop issuing reads
// against a disconnecting client.
func Shutdown(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	if runtime.sessionCleanup != nil {
		runtime.sessionCleanup.Stop()
	}
	if runtime.cache != nil {
		runtime.cache.Close()
	}
	if runtime.batcher != nil {
		runtime.batcher.Close()
	}

	if deps.MongoClient != nil {
		logger.Info("disconnecting MongoDB client")
		if err := deps.MongoClient.Disconnect(ctx); err != nil {
			logger.Error("MongoDB disconnect failed", zap.Error(err))
			return err
		}
	}
	return nil
}
