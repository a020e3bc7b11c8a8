package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func testCache(opts Options) *Cache {
	c := New(opts)
	return c
}

func TestGet_FreshHitDoesNotRefetch(t *testing.T) {
	c := testCache(Options{Expiry: time.Minute})
	defer c.Close()
	ctx := context.Background()

	var fetches int32
	fetch := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&fetches, 1)
		return "roster", nil
	}

	for i := 0; i < 5; i++ {
		v, err := c.Get(ctx, "members:all", fetch, false)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if v != "roster" {
			t.Fatalf("got %v, want roster", v)
		}
	}

	if n := atomic.LoadInt32(&fetches); n != 1 {
		t.Errorf("expected 1 fetch, got %d", n)
	}
}

func TestGet_ExpiredEntryRefetchesOnce(t *testing.T) {
	c := testCache(Options{Expiry: 20 * time.Millisecond})
	defer c.Close()
	ctx := context.Background()

	var fetches int32
	fetch := func(ctx context.Context) (any, error) {
		return atomic.AddInt32(&fetches, 1), nil
	}

	if _, err := c.Get(ctx, "k", fetch, false); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	time.Sleep(30 * time.Millisecond)

	v, err := c.Get(ctx, "k", fetch, false)
	if err != nil {
		t.Fatalf("Get after expiry failed: %v", err)
	}
	if v != int32(2) {
		t.Errorf("expected refetched value 2, got %v", v)
	}
	if n := atomic.LoadInt32(&fetches); n != 2 {
		t.Errorf("expected exactly 2 fetches, got %d", n)
	}
}

func TestGet_StaleServeOnFetchError(t *testing.T) {
	c := testCache(Options{Expiry: 10 * time.Millisecond})
	defer c.Close()
	ctx := context.Background()

	calls := 0
	fetch := func(ctx context.Context) (any, error) {
		calls++
		if calls == 1 {
			return "first", nil
		}
		return nil, errors.New("store unavailable")
	}

	if _, err := c.Get(ctx, "k", fetch, false); err != nil {
		t.Fatalf("first Get failed: %v", err)
	}
	time.Sleep(20 * time.Millisecond)

	v, err := c.Get(ctx, "k", fetch, false)
	if err != nil {
		t.Fatalf("expected stale-serve, got error: %v", err)
	}
	if v != "first" {
		t.Errorf("expected stale value %q, got %v", "first", v)
	}
}

func TestGet_ErrorPropagatesWithoutPriorValue(t *testing.T) {
	c := testCache(Options{})
	defer c.Close()

	wantErr := errors.New("store unavailable")
	_, err := c.Get(context.Background(), "k", func(ctx context.Context) (any, error) {
		return nil, wantErr
	}, false)
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected fetch error to propagate, got %v", err)
	}
}

func TestSet_NotifiesEverySubscriberOnceDespitePanic(t *testing.T) {
	c := testCache(Options{})
	defer c.Close()

	var a, b, d int32
	c.Subscribe("k", func(any) { atomic.AddInt32(&a, 1) })
	c.Subscribe("k", func(any) {
		atomic.AddInt32(&b, 1)
		panic("subscriber bug")
	})
	c.Subscribe("k", func(any) { atomic.AddInt32(&d, 1) })

	c.Set("k", "v")

	if a != 1 || b != 1 || d != 1 {
		t.Errorf("expected each subscriber invoked once, got a=%d b=%d d=%d", a, b, d)
	}
}

func TestSubscribe_UnsubscribeStopsNotifications(t *testing.T) {
	c := testCache(Options{})
	defer c.Close()

	var n int32
	unsub := c.Subscribe("k", func(any) { atomic.AddInt32(&n, 1) })

	c.Set("k", 1)
	unsub()
	c.Set("k", 2)

	if got := atomic.LoadInt32(&n); got != 1 {
		t.Errorf("expected 1 notification, got %d", got)
	}
}

func TestSubscribe_UnknownKeyCreatesPlaceholder(t *testing.T) {
	c := testCache(Options{})
	defer c.Close()

	got := make(chan any, 1)
	c.Subscribe("later", func(v any) { got <- v })

	stats := c.GetStats()
	if stats.Size != 1 || stats.ActiveListenerCount != 1 {
		t.Fatalf("expected placeholder entry with one listener, got %+v", stats)
	}

	c.Set("later", "populated")
	select {
	case v := <-got:
		if v != "populated" {
			t.Errorf("subscriber got %v, want populated", v)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber was not notified on first population")
	}
}

func TestDelete_InvalidatesWithoutNotifying(t *testing.T) {
	c := testCache(Options{})
	defer c.Close()
	ctx := context.Background()

	var notified int32
	c.Set("k", "v")
	c.Subscribe("k", func(any) { atomic.AddInt32(&notified, 1) })

	c.Delete("k")
	if n := atomic.LoadInt32(&notified); n != 0 {
		t.Errorf("Delete must not notify, got %d notifications", n)
	}

	// Next Get repopulates and only then notifies the surviving subscriber.
	var fetches int32
	v, err := c.Get(ctx, "k", func(ctx context.Context) (any, error) {
		atomic.AddInt32(&fetches, 1)
		return "fresh", nil
	}, false)
	if err != nil || v != "fresh" {
		t.Fatalf("Get after Delete = %v, %v", v, err)
	}
	if atomic.LoadInt32(&fetches) != 1 {
		t.Error("expected repopulating fetch after Delete")
	}
	if n := atomic.LoadInt32(&notified); n != 1 {
		t.Errorf("expected subscription to survive Delete and fire on repopulation, got %d", n)
	}
}

func TestSet_EvictsLeastRecentlyRefreshed(t *testing.T) {
	c := testCache(Options{MaxEntries: 2})
	defer c.Close()

	c.Set("a", 1)
	time.Sleep(2 * time.Millisecond)
	c.Set("b", 2)
	time.Sleep(2 * time.Millisecond)
	c.Set("c", 3)

	stats := c.GetStats()
	if stats.Size != 2 {
		t.Fatalf("expected 2 entries after eviction, got %d", stats.Size)
	}

	// "a" was the least recently refreshed; a read for it must miss.
	var fetched int32
	if _, err := c.Get(context.Background(), "a", func(ctx context.Context) (any, error) {
		atomic.AddInt32(&fetched, 1)
		return 1, nil
	}, false); err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if atomic.LoadInt32(&fetched) != 1 {
		t.Error("expected evicted key to be re-fetched")
	}
}

func TestLiveUpdates_PeriodicRefreshNotifiesAndStopsOnDelete(t *testing.T) {
	c := testCache(Options{
		Expiry:          time.Minute,
		RefreshInterval: 15 * time.Millisecond,
	})
	defer c.Close()

	var fetches int32
	fetch := func(ctx context.Context) (any, error) {
		return atomic.AddInt32(&fetches, 1), nil
	}

	notified := make(chan any, 16)
	c.Subscribe("live", func(v any) { notified <- v })

	if _, err := c.Get(context.Background(), "live", fetch, true); err != nil {
		t.Fatalf("Get failed: %v", err)
	}

	select {
	case <-notified: // initial Set from the Get miss
	case <-time.After(time.Second):
		t.Fatal("no notification from initial population")
	}
	select {
	case <-notified: // at least one periodic refresh fired
	case <-time.After(time.Second):
		t.Fatal("no notification from periodic refresh")
	}

	c.Delete("live")
	time.Sleep(40 * time.Millisecond)
	before := atomic.LoadInt32(&fetches)
	time.Sleep(40 * time.Millisecond)
	if after := atomic.LoadInt32(&fetches); after != before {
		t.Errorf("refresher kept running after Delete: %d -> %d", before, after)
	}
}

func TestClear_EmptiesEverything(t *testing.T) {
	c := testCache(Options{})
	defer c.Close()

	c.Set("a", 1)
	c.Set("b", 2)
	c.Clear()

	if stats := c.GetStats(); stats.Size != 0 {
		t.Errorf("expected empty cache after Clear, got %+v", stats)
	}
}

func TestGetAs_TypedRead(t *testing.T) {
	c := testCache(Options{})
	defer c.Close()

	got, err := GetAs(context.Background(), c, "nums", func(ctx context.Context) ([]int, error) {
		return []int{1, 2, 3}, nil
	}, false)
	if err != nil {
		t.Fatalf("GetAs failed: %v", err)
	}
	if len(got) != 3 {
		t.Errorf("expected 3 elements, got %v", got)
	}
}

func TestClose_RejectsFurtherReads(t *testing.T) {
	c := testCache(Options{})
	c.Close()

	_, err := c.Get(context.Background(), "k", func(ctx context.Context) (any, error) {
		return nil, nil
	}, false)
	if !errors.Is(err, ErrClosed) {
		t.Fatalf("expected ErrClosed, got %v", err)
	}
}
