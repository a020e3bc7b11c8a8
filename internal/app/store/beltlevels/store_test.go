// internal/app/store/beltlevels/store_test.go
package beltlevelstore

import (
	"errors"
	"testing"

	"github.com/dalemusser/dojohub/internal/domain/models"
	"github.com/dalemusser/dojohub/internal/testutil"
)

func TestCreate_UniquePerStyle(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	s := New(db)
	if err := s.EnsureIndexes(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := s.Create(ctx, models.BeltLevel{Name: "Blue Belt", Style: "bjj", Rank: 2}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	// Same name in the same style collides, case-insensitively.
	_, err := s.Create(ctx, models.BeltLevel{Name: "blue belt", Style: "bjj", Rank: 3})
	if !errors.Is(err, ErrDuplicate) {
		t.Fatalf("err = %v, want ErrDuplicate", err)
	}

	// Same name in another style is fine.
	if _, err := s.Create(ctx, models.BeltLevel{Name: "Blue Belt", Style: "judo", Rank: 1}); err != nil {
		t.Fatalf("cross-style Create: %v", err)
	}
}

func TestList_OrderedByStyleThenRank(t *testing.T) {
	db := testutil.SetupTestDB(t)
	ctx := testutil.TestContext(t)
	s := New(db)

	for _, b := range []models.BeltLevel{
		{Name: "Purple Belt", Style: "bjj", Rank: 3},
		{Name: "White Belt", Style: "bjj", Rank: 1},
		{Name: "Blue Belt", Style: "bjj", Rank: 2},
	} {
		if _, err := s.Create(ctx, b); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.ListByStyle(ctx, "bjj")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 3 {
		t.Fatalf("list = %d, want 3", len(got))
	}
	for i, want := range []string{"White Belt", "Blue Belt", "Purple Belt"} {
		if got[i].Name != want {
			t.Errorf("list[%d] = %q, want %q", i, got[i].Name, want)
		}
	}
}
