// internal/app/memberdata/stats.go
package memberdata

import (
	"context"
	"time"

	"github.com/dalemusser/dojohub/internal/domain/models"
)

// MembershipStats is the dashboard roll-up.
type MembershipStats struct {
	TotalMembers   int `json:"total_members"`
	ActiveMembers  int `json:"active_members"`
	PausedMembers  int `json:"paused_members"`
	OverdueMembers int `json:"overdue_members"`
	NoneMembers    int `json:"none_members"`
	NewThisMonth   int `json:"new_this_month"`

	// RecurringRevenueCents sums the monthly charge of every recurring
	// membership currently in active status.
	RecurringRevenueCents int64 `json:"recurring_revenue_cents"`
}

// ComputeStats folds a member list into the dashboard numbers. Deactivated
// members in the retention window are excluded from every counter.
func ComputeStats(members []models.Member, now time.Time) MembershipStats {
	var st MembershipStats
	month := now.UTC().Format("2006-01")

	for _, m := range members {
		if !m.Active {
			continue
		}
		st.TotalMembers++

		switch m.Membership.Status {
		case models.StatusActive:
			st.ActiveMembers++
		case models.StatusPaused:
			st.PausedMembers++
		case models.StatusOverdue:
			st.OverdueMembers++
		default:
			st.NoneMembers++
		}

		if m.CreatedAt.UTC().Format("2006-01") == month {
			st.NewThisMonth++
		}

		if m.Membership.Type == models.MembershipRecurring &&
			m.Membership.Status == models.StatusActive {
			st.RecurringRevenueCents += m.Membership.AmountCents
		}
	}
	return st
}

// Stats computes the dashboard roll-up over the cached member list.
func (s *Service) Stats(ctx context.Context) (MembershipStats, error) {
	members, err := s.ListMembers(ctx)
	if err != nil {
		return MembershipStats{}, err
	}
	return ComputeStats(members, time.Now()), nil
}
