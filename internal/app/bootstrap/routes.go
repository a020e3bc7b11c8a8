// internal/app/bootstrap/routes.go
package bootstrap

import (
	"net/http"
	"time"

	beltsfeature "github.com/dalemusser/dojohub/internal/app/features/belts"
	cacheadminfeature "github.com/dalemusser/dojohub/internal/app/features/cacheadmin"
	classsessionsfeature "github.com/dalemusser/dojohub/internal/app/features/classsessions"
	dashboardfeature "github.com/dalemusser/dojohub/internal/app/features/dashboard"
	errorsfeature "github.com/dalemusser/dojohub/internal/app/features/errors"
	healthfeature "github.com/dalemusser/dojohub/internal/app/features/health"
	homefeature "github.com/dalemusser/dojohub/internal/app/features/home"
	loginfeature "github.com/dalemusser/dojohub/internal/app/features/login"
	logoutfeature "github.com/dalemusser/dojohub/internal/app/features/logout"
	membersfeature "github.com/dalemusser/dojohub/internal/app/features/members"
	"github.com/dalemusser/dojohub/internal/app/memberdata"
	activitystore "github.com/dalemusser/dojohub/internal/app/store/activity"
	awardstore "github.com/dalemusser/dojohub/internal/app/store/awards"
	beltlevelstore "github.com/dalemusser/dojohub/internal/app/store/beltlevels"
	checkinstore "github.com/dalemusser/dojohub/internal/app/store/checkins"
	classsessionstore "github.com/dalemusser/dojohub/internal/app/store/classsessions"
	memberstore "github.com/dalemusser/dojohub/internal/app/store/members"
	studentlevelstore "github.com/dalemusser/dojohub/internal/app/store/studentlevels"
	"github.com/dalemusser/dojohub/internal/app/system/activitylog"
	"github.com/dalemusser/dojohub/internal/app/system/auth"
	"github.com/dalemusser/dojohub/internal/app/system/batch"
	"github.com/dalemusser/dojohub/internal/app/system/cache"
	"github.com/dalemusser/dojohub/internal/app/system/credentials"
	"github.com/dalemusser/dojohub/internal/app/system/workers"
	"github.com/dalemusser/waffle/config"
	"github.com/dalemusser/waffle/pantry/fileserver"
	"github.com/dalemusser/waffle/pantry/templates"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// runtime holds the long-lived collaborators that Shutdown must close. Built
// once in BuildHandler.
var runtime struct {
	cache          *cache.Cache
	batcher        *batch.Batcher
	sessionCleanup *workers.PortalSessionCleanup
}

// BuildHandler constructs the root HTTP handler (router) for this WAFFLE app.
//
// WAFFLE calls this after configuration, DB connections, schema setup, and
// any Startup hooks have completed. DojoHub initializes the admin session
// store and the template engine, builds the member data-access layer (cache,
// batcher, portal credential issuer, activity log), and mounts a feature
// router per application area.
func BuildHandler(coreCfg *config.CoreConfig, appCfg AppConfig, deps DBDeps, logger *zap.Logger) (http.Handler, error) {
	// Secure cookies are enabled in production mode.
	secure := coreCfg.Env == "prod"
	if err := auth.InitSessionStore(appCfg.SessionKey, appCfg.SessionDomain, secure, logger); err != nil {
		logger.Error("session store init failed", zap.Error(err))
		return nil, err
	}

	// Initialize and boot the template engine once at startup.
	// Dev mode enables template reloading for faster iteration.
	eng := templates.New(coreCfg.Env == "dev")
	if err := eng.Boot(logger); err != nil {
		logger.Error("template engine boot failed", zap.Error(err))
		return nil, err
	}
	templates.UseEngine(eng, logger)

	db := deps.MongoDatabase

	// Member data-access layer. The cache and batcher run for the life of
	// the process; Shutdown closes them.
	runtime.cache = cache.New(cache.Options{
		Expiry:          appCfg.CacheExpiry,
		RefreshInterval: appCfg.CacheRefreshInterval,
		MaxEntries:      appCfg.CacheMaxEntries,
		Logger:          logger,
	})
	runtime.batcher = batch.New(batch.Options{
		Window: appCfg.BatchWindow,
		Logger: logger,
	})

	issuer := credentials.NewMongoIssuer(db)
	runtime.sessionCleanup = workers.NewPortalSessionCleanup(issuer, logger, 10*time.Minute)
	runtime.sessionCleanup.Start()

	activity := activitystore.New(db)
	belts := beltlevelstore.New(db)
	levels := studentlevelstore.New(db)
	sessions := classsessionstore.New(db)
	checkins := checkinstore.New(db)

	svc := memberdata.New(memberdata.Deps{
		Members:  memberstore.New(db, logger),
		Awards:   awardstore.New(db, logger),
		Belts:    belts,
		Levels:   levels,
		Checkins: checkins,
		Issuer:   issuer,
		Cache:    runtime.cache,
		Batcher:  runtime.batcher,
		Activity: activitylog.New(activity, logger),
		Log:      logger,
	})

	errLog := errorsfeature.NewErrorLogger(logger)

	r := chi.NewRouter()

	// Global auth middleware: loads SessionUser into context if signed in.
	r.Use(auth.LoadSessionUser)

	// Health check endpoint for load balancers and orchestrators
	healthHandler := healthfeature.NewHandler(deps.MongoClient, logger)
	r.Mount("/health", healthfeature.Routes(healthHandler))

	// Static assets with pre-compressed file support (gzip/brotli)
	r.Handle("/static/*", fileserver.Handler("/static", "public"))

	// Public pages
	homeHandler := homefeature.NewHandler(logger)
	r.Mount("/", homefeature.Routes(homeHandler))

	// Authentication
	loginHandler := loginfeature.NewHandler(db, errLog, logger)
	r.Mount("/login", loginfeature.Routes(loginHandler))

	logoutHandler := logoutfeature.NewHandler(logger)
	r.Mount("/logout", logoutfeature.Routes(logoutHandler))

	// Error pages
	errorsHandler := errorsfeature.NewHandler()
	r.Get("/forbidden", errorsHandler.Forbidden)
	r.Get("/unauthorized", errorsHandler.Unauthorized)

	// Staff console
	dashboardHandler := dashboardfeature.NewHandler(svc, activity, sessions, errLog, logger)
	r.Mount("/dashboard", dashboardfeature.Routes(dashboardHandler))

	membersHandler := membersfeature.NewHandler(svc, belts, levels, errLog, logger)
	r.Mount("/members", membersfeature.Routes(membersHandler))

	beltsHandler := beltsfeature.NewHandler(belts, levels, errLog, logger)
	r.Mount("/belts", beltsfeature.Routes(beltsHandler))

	sessionsHandler := classsessionsfeature.NewHandler(sessions, checkins, errLog, logger)
	r.Mount("/sessions", classsessionsfeature.Routes(sessionsHandler))

	cacheHandler := cacheadminfeature.NewHandler(svc, runtime.batcher, logger)
	r.Mount("/admin/cache", cacheadminfeature.Routes(cacheHandler))

	return r, nil
}
