// internal/app/bootstrap/db.go
package bootstrap

import (
	"context"
	"fmt"

	activitystore "github.com/dalemusser/dojohub/internal/app/store/activity"
	adminuserstore "github.com/dalemusser/dojohub/internal/app/store/adminusers"
	awardstore "github.com/dalemusser/dojohub/internal/app/store/awards"
	beltlevelstore "github.com/dalemusser/dojohub/internal/app/store/beltlevels"
	checkinstore "github.com/dalemusser/dojohub/internal/app/store/checkins"
	classsessionstore "github.com/dalemusser/dojohub/internal/app/store/classsessions"
	memberstore "github.com/dalemusser/dojohub/internal/app/store/members"
	studentlevelstore "github.com/dalemusser/dojohub/internal/app/store/studentlevels"
	"github.com/dalemusser/dojohub/internal/app/system/credentials"
	"github.com/dalemusser/waffle/config"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// ConnectDB establishes the MongoDB connection used by every store.
func ConnectDB(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, logger *zap.Logger) (DBDeps, error) {
	opts := options.Client().
		ApplyURI(appCfg.MongoURI).
		SetMaxPoolSize(appCfg.MongoMaxPoolSize).
		SetMinPoolSize(appCfg.MongoMinPoolSize)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return DBDeps{}, fmt.Errorf("mongo connect: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return DBDeps{}, fmt.Errorf("mongo ping: %w", err)
	}

	logger.Info("connected to MongoDB",
		zap.String("database", appCfg.MongoDatabase))

	return DBDeps{
		MongoClient:   client,
		MongoDatabase: client.Database(appCfg.MongoDatabase),
	}, nil
}

// EnsureSchema creates every collection index the stores rely on. Safe to run
// on every startup; index creation is idempotent.
func EnsureSchema(ctx context.Context, coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) error {
	db := deps.MongoDatabase

	type indexer interface {
		EnsureIndexes(ctx context.Context) error
	}
	for name, s := range map[string]indexer{
		"members":        memberstore.New(db, logger),
		"awards":         awardstore.New(db, logger),
		"belt_levels":    beltlevelstore.New(db),
		"student_levels": studentlevelstore.New(db),
		"class_sessions": classsessionstore.New(db),
		"checkins":       checkinstore.New(db),
		"activity_log":   activitystore.New(db),
		"admin_users":    adminuserstore.New(db),
		"portal":         credentials.NewMongoIssuer(db),
	} {
		if err := s.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes for %s: %w", name, err)
		}
	}

	logger.Info("database indexes ensured")
	return nil
}
