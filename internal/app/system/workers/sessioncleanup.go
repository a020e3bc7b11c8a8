// internal/app/system/workers/sessioncleanup.go
package workers

import (
	"context"
	"sync"
	"time"

	"github.com/dalemusser/dojohub/internal/app/system/credentials"
	"go.uber.org/zap"
)

// PortalSessionCleanup is a background worker that purges expired member
// portal sessions. TTL indexes do most of this; the worker is a backstop so
// a stalled TTL monitor can't leave stale sessions valid.
type PortalSessionCleanup struct {
	issuer   *credentials.MongoIssuer
	log      *zap.Logger
	interval time.Duration
	stopCh   chan struct{}
	wg       sync.WaitGroup
}

// NewPortalSessionCleanup creates the worker. interval is how often to sweep
// (e.g. 10 minutes).
func NewPortalSessionCleanup(issuer *credentials.MongoIssuer, logger *zap.Logger, interval time.Duration) *PortalSessionCleanup {
	return &PortalSessionCleanup{
		issuer:   issuer,
		log:      logger,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop.
func (w *PortalSessionCleanup) Start() {
	w.wg.Add(1)
	go w.run()
	w.log.Info("portal session cleanup worker started",
		zap.Duration("interval", w.interval))
}

// Stop signals the worker to stop and waits for it to finish.
func (w *PortalSessionCleanup) Stop() {
	close(w.stopCh)
	w.wg.Wait()
	w.log.Info("portal session cleanup worker stopped")
}

func (w *PortalSessionCleanup) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.sweep()
		}
	}
}

func (w *PortalSessionCleanup) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	count, err := w.issuer.PurgeExpiredSessions(ctx, time.Now().UTC())
	if err != nil {
		w.log.Error("failed to purge expired portal sessions", zap.Error(err))
		return
	}

	if count > 0 {
		w.log.Info("purged expired portal sessions", zap.Int64("count", count))
	}
}
