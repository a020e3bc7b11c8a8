// internal/app/memberdata/stats_test.go
package memberdata

import (
	"testing"
	"time"

	"github.com/dalemusser/dojohub/internal/domain/models"
)

func TestComputeStats(t *testing.T) {
	now := time.Date(2026, 3, 15, 12, 0, 0, 0, time.UTC)
	lastMonth := now.AddDate(0, -1, 0)

	members := []models.Member{
		{
			Active:    true,
			CreatedAt: now.AddDate(0, 0, -3), // this month
			Membership: models.Membership{
				Type:        models.MembershipRecurring,
				Status:      models.StatusActive,
				AmountCents: 100,
			},
		},
		{
			Active:    true,
			CreatedAt: lastMonth,
			Membership: models.Membership{
				Type:   models.MembershipPrepaid,
				Status: models.StatusPaused,
			},
		},
		{
			// Deactivated members in the retention window are invisible
			// to every counter.
			Active:    false,
			CreatedAt: now.AddDate(0, 0, -1),
			Membership: models.Membership{
				Type:        models.MembershipRecurring,
				Status:      models.StatusActive,
				AmountCents: 5000,
			},
		},
	}

	st := ComputeStats(members, now)

	if st.TotalMembers != 2 {
		t.Errorf("TotalMembers = %d, want 2", st.TotalMembers)
	}
	if st.ActiveMembers != 1 {
		t.Errorf("ActiveMembers = %d, want 1", st.ActiveMembers)
	}
	if st.PausedMembers != 1 {
		t.Errorf("PausedMembers = %d, want 1", st.PausedMembers)
	}
	if st.NewThisMonth != 1 {
		t.Errorf("NewThisMonth = %d, want 1", st.NewThisMonth)
	}
	if st.RecurringRevenueCents != 100 {
		t.Errorf("RecurringRevenueCents = %d, want 100", st.RecurringRevenueCents)
	}
}

func TestComputeStats_PausedRecurringEarnsNothing(t *testing.T) {
	members := []models.Member{
		{
			Active: true,
			Membership: models.Membership{
				Type:        models.MembershipRecurring,
				Status:      models.StatusPaused,
				AmountCents: 9900,
			},
		},
		{
			Active: true,
			Membership: models.Membership{
				Type:        models.MembershipRecurring,
				Status:      models.StatusOverdue,
				AmountCents: 9900,
			},
		},
	}

	st := ComputeStats(members, time.Now())
	if st.RecurringRevenueCents != 0 {
		t.Fatalf("RecurringRevenueCents = %d, want 0", st.RecurringRevenueCents)
	}
	if st.PausedMembers != 1 || st.OverdueMembers != 1 {
		t.Fatalf("paused=%d overdue=%d, want 1/1", st.PausedMembers, st.OverdueMembers)
	}
}

func TestComputeStats_Empty(t *testing.T) {
	st := ComputeStats(nil, time.Now())
	if st != (MembershipStats{}) {
		t.Fatalf("non-zero stats for empty roster: %+v", st)
	}
}
