package storage

import (
	"sort"
	"strings"

	"github.com/hammamikhairi/napflow/internal/domain"
)

func checkIdentity(identity string) error {
	if strings.TrimSpace(identity) == "" {
		return domain.ErrEmptyIdentity
	}
	return nil
}

// selectRange returns a sorted copy of the records that fall inside r.
func selectRange(records []domain.SessionRecord, r domain.DateRange) []domain.SessionRecord {
	out := make([]domain.SessionRecord, 0, len(records))
	for _, rec := range records {
		if r.Contains(rec.Date) {
			out = append(out, rec)
		}
	}
	sortRecords(out)
	return out
}

func sortRecords(records []domain.SessionRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Date != b.Date {
			return a.Date.Before(b.Date)
		}
		return a.CompletedAt.Before(b.CompletedAt)
	})
}

func cloneProfile(p domain.Profile) *domain.Profile {
	if p.LastNapDate != nil {
		d := *p.LastNapDate
		p.LastNapDate = &d
	}
	return &p
}
