package cacheadmin_test

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dalemusser/dojohub/internal/app/features/cacheadmin"
	"github.com/dalemusser/dojohub/internal/app/memberdata"
	"github.com/dalemusser/dojohub/internal/app/system/batch"
	"github.com/dalemusser/dojohub/internal/app/system/cache"
	"github.com/dalemusser/dojohub/internal/testutil"
	"go.uber.org/zap"
)

func newTestHandler(t *testing.T) (*cacheadmin.Handler, *cache.Cache) {
	t.Helper()
	logger := zap.NewNop()

	c := cache.New(cache.Options{Expiry: time.Minute, RefreshInterval: time.Hour})
	b := batch.New(batch.Options{Window: 5 * time.Millisecond})
	t.Cleanup(func() {
		c.Close()
		b.Close()
	})

	svc := memberdata.New(memberdata.Deps{
		Cache:   c,
		Batcher: b,
		Log:     logger,
	})

	return cacheadmin.NewHandler(svc, b, logger), c
}

func TestServeStats_ReportsOccupancy(t *testing.T) {
	handler, c := newTestHandler(t)

	c.Set("members:all", []string{"x"})
	c.Set("members:id:abc", "y")

	req := testutil.NewAuthenticatedRequest("GET", "/admin/cache", testutil.OwnerUser())
	rec := httptest.NewRecorder()

	handler.ServeStats(rec, req)

	var got struct {
		CacheSize           int `json:"cache_size"`
		PendingBatchWindows int `json:"pending_batch_windows"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.CacheSize != 2 {
		t.Errorf("cache_size: got %d, want 2", got.CacheSize)
	}
	if got.PendingBatchWindows != 0 {
		t.Errorf("pending_batch_windows: got %d, want 0", got.PendingBatchWindows)
	}
}

func TestHandleClear_EmptiesCache(t *testing.T) {
	handler, c := newTestHandler(t)

	c.Set("members:all", []string{"x"})

	req := testutil.NewAuthenticatedRequest("POST", "/admin/cache/clear", testutil.OwnerUser())
	rec := httptest.NewRecorder()

	handler.HandleClear(rec, req)

	if stats := c.GetStats(); stats.Size != 0 {
		t.Errorf("cache size after clear: got %d, want 0", stats.Size)
	}
}
