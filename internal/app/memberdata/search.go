// internal/app/memberdata/search.go
package memberdata

import (
	"context"
	"strings"

	"github.com/dalemusser/dojohub/internal/app/system/normalize"
	"github.com/dalemusser/dojohub/internal/domain/models"
	"github.com/dalemusser/waffle/pantry/text"
)

// SearchQuery filters the member list. Zero-value fields are ignored.
type SearchQuery struct {
	// Term matches as a case-folded substring of name, email, or phone.
	Term string

	Status         string // exact membership status
	MembershipType string // exact membership type
	Tag            string // member must carry this tag
}

// SearchMembers filters the cached member list. Matching is in-memory; the
// roster is small enough that a database text index would be overkill.
func SearchMembers(members []models.Member, q SearchQuery) []models.Member {
	term := text.Fold(strings.TrimSpace(q.Term))
	termDigits := normalize.Phone(q.Term)
	status := normalize.Status(q.Status)
	mtype := strings.ToLower(strings.TrimSpace(q.MembershipType))
	tag := normalize.Tag(q.Tag)

	out := make([]models.Member, 0, len(members))
	for _, m := range members {
		if status != "" && m.Membership.Status != status {
			continue
		}
		if mtype != "" && m.Membership.Type != mtype {
			continue
		}
		if tag != "" && !hasTag(m.Tags, tag) {
			continue
		}
		if term != "" && !matchesTerm(m, term, termDigits) {
			continue
		}
		out = append(out, m)
	}
	return out
}

func matchesTerm(m models.Member, term, termDigits string) bool {
	if strings.Contains(m.FullNameCI, term) {
		return true
	}
	// Terms typed without a space ("anasilva") still match the full name.
	if strings.Contains(text.Fold(m.FirstName+m.LastName), term) {
		return true
	}
	if strings.Contains(text.Fold(m.Email), term) {
		return true
	}
	if termDigits != "" && strings.Contains(m.Phone, termDigits) {
		return true
	}
	return false
}

func hasTag(tags []string, want string) bool {
	for _, t := range tags {
		if t == want {
			return true
		}
	}
	return false
}

// Search runs a query against the cached member list.
func (s *Service) Search(ctx context.Context, q SearchQuery) ([]models.Member, error) {
	members, err := s.ListMembers(ctx)
	if err != nil {
		return nil, err
	}
	return SearchMembers(members, q), nil
}
