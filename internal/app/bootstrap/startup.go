// internal/app/bootstrap/startup.go
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	adminuserstore "github.com/dalemusser/dojohub/internal/app/store/adminusers"
	"github.com/dalemusser/dojohub/internal/domain/models"
	"github.com/dalemusser/waffle/config"
	"go.uber.org/zap"
)

// Startup runs one-time application initialization after DB connections and
// schema setup are complete, but before the HTTP handler is built.
//
// DojoHub seeds the owner account here so a fresh deployment has someone who
// can sign in.
func Startup(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	return seedOwner(ctx, deps, appCfg, logger)
}

// seedOwner creates the configured owner account when no admin users exist
// yet. Subsequent startups are no-ops, so a forgotten config entry can't
// overwrite a live account.
func seedOwner(ctx context.Context, deps DBDeps, appCfg AppConfig, logger *zap.Logger) error {
	admins := adminuserstore.New(deps.MongoDatabase)

	n, err := admins.Count(ctx)
	if err != nil {
		return fmt.Errorf("count admin users: %w", err)
	}
	if n > 0 {
		return nil
	}

	if appCfg.OwnerEmail == "" || appCfg.OwnerPassword == "" {
		logger.Warn("no admin users exist and owner_email/owner_password are not configured; nobody can sign in")
		return nil
	}

	_, err = admins.Create(ctx, models.AdminUser{
		FullName: appCfg.OwnerName,
		Email:    appCfg.OwnerEmail,
		Role:     adminuserstore.RoleOwner,
	}, appCfg.OwnerPassword)
	if err != nil {
		if errors.Is(err, adminuserstore.ErrDuplicateEmail) {
			return nil
		}
		return fmt.Errorf("seed owner account: %w", err)
	}

	logger.Info("seeded owner account", zap.String("email", appCfg.OwnerEmail))
	return nil
}
