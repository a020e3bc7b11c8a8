// internal/app/features/cacheadmin/handler.go
//
// Small owner-only JSON surface for inspecting and flushing the member read
// cache. Useful when a support script has written to the database directly
// and the console needs to pick the change up immediately.
package cacheadmin

import (
	"encoding/json"
	"net/http"

	"github.com/dalemusser/dojohub/internal/app/memberdata"
	"github.com/dalemusser/dojohub/internal/app/system/batch"
	"go.uber.org/zap"
)

type Handler struct {
	Svc     *memberdata.Service
	Batcher *batch.Batcher
	Log     *zap.Logger
}

func NewHandler(svc *memberdata.Service, batcher *batch.Batcher, logger *zap.Logger) *Handler {
	return &Handler{
		Svc:     svc,
		Batcher: batcher,
		Log:     logger,
	}
}

type statsResponse struct {
	CacheSize           int `json:"cache_size"`
	ActiveListenerCount int `json:"active_listener_count"`
	PendingBatchWindows int `json:"pending_batch_windows"`
}

// ServeStats reports cache and batcher occupancy.
// GET /admin/cache
func (h *Handler) ServeStats(w http.ResponseWriter, r *http.Request) {
	stats := h.Svc.CacheStats()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statsResponse{
		CacheSize:           stats.Size,
		ActiveListenerCount: stats.ActiveListenerCount,
		PendingBatchWindows: h.Batcher.PendingWindows(),
	})
}

// HandleClear drops every cached entry.
// POST /admin/cache/clear
func (h *Handler) HandleClear(w http.ResponseWriter, r *http.Request) {
	h.Svc.ClearCache()
	h.Log.Info("member cache cleared by admin")

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "cleared"})
}
