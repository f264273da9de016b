package model

import (
	"sort"

	"github.com/maruel/natural"
)

// SortOrder selects the direction records are walked in after sorting.
type SortOrder int

const (
	SortAsc SortOrder = iota
	SortDesc
)

// SortConfig holds sort preferences.
type SortConfig struct {
	Order SortOrder
	// NaturalTies orders records with equal mtimes by natural path order
	// instead of keeping their input order.
	NaturalTies bool
}

// DefaultSort returns the default sort config (oldest first, input order on ties).
func DefaultSort() SortConfig {
	return SortConfig{Order: SortAsc}
}

// SortRecords sorts records in place by ascending mtime. The comparator never
// depends on cfg.Order; descending output is produced by Visible walking the
// slice backwards.
func SortRecords(records []Record, cfg SortConfig) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i].Meta.ModTime, records[j].Meta.ModTime
		if !a.Equal(b) {
			return a.Before(b)
		}
		if cfg.NaturalTies {
			return natural.Less(records[i].Path(), records[j].Path())
		}
		return false
	})
}

// Visible returns the records that should be printed, in print order.
// Records without metadata are dropped.
func Visible(records []Record, order SortOrder) []Record {
	out := make([]Record, 0, len(records))
	if order == SortDesc {
		for i := len(records) - 1; i >= 0; i-- {
			if records[i].OK() {
				out = append(out, records[i])
			}
		}
		return out
	}
	for _, r := range records {
		if r.OK() {
			out = append(out, r)
		}
	}
	return out
}
