package storage

import (
	"strings"

	"github.com/eshaffer321/backoffice-recon/internal/domain/record"
)

// FilterRecords applies a RecordFilter to records held in memory, with the
// same semantics as the SQLite implementation. Returned records are copies.
func FilterRecords(records []*record.Record, filter RecordFilter) *RecordPage {
	filter = filter.normalized()

	var matched []*record.Record
	for _, r := range records {
		if r == nil {
			continue
		}
		if filter.Side != "" && r.Side != filter.Side {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.Search != "" && !matchesSearch(r, filter.Search) {
			continue
		}
		matched = append(matched, r)
	}

	page := &RecordPage{
		Records:    make([]*record.Record, 0),
		TotalCount: len(matched),
		Limit:      filter.Limit,
		Offset:     filter.Offset,
	}
	if filter.Offset < len(matched) {
		end := min(filter.Offset+filter.Limit, len(matched))
		for _, r := range matched[filter.Offset:end] {
			copied := *r
			page.Records = append(page.Records, &copied)
		}
	}
	return page
}

// SQLite LIKE is case-insensitive for ASCII
func matchesSearch(r *record.Record, search string) bool {
	needle := strings.ToLower(search)
	for _, field := range []string{r.Narration, r.Reference, r.HelperKey1, r.HelperKey2} {
		if strings.Contains(strings.ToLower(field), needle) {
			return true
		}
	}
	return false
}
