// Package sorting orders entry lists for display. Storage order is never
// touched; every call returns a new slice.
package sorting

import (
	"sort"
	"time"

	"github.com/templui/goalkeeper/internal/model"
)

type Key string

const (
	DateDesc      Key = "date_desc"
	DateAsc       Key = "date_asc"
	AmountDesc    Key = "amount_desc"
	AmountAsc     Key = "amount_asc"
	ActiveFirst   Key = "active_first"
	InactiveFirst Key = "inactive_first"

	Default = DateDesc
)

// Keys lists the accepted sort keys in menu order.
var Keys = []Key{DateDesc, DateAsc, AmountDesc, AmountAsc, ActiveFirst, InactiveFirst}

// ParseKey returns the key named by s, or Default for anything unknown.
func ParseKey(s string) Key {
	for _, k := range Keys {
		if string(k) == s {
			return k
		}
	}
	return Default
}

// Entries returns the entries ordered by key. Ties keep their input order.
func Entries(entries []model.Entry, key Key) []model.Entry {
	out := make([]model.Entry, len(entries))
	copy(out, entries)

	var less func(a, b model.Entry) bool
	switch ParseKey(string(key)) {
	case DateAsc:
		less = func(a, b model.Entry) bool { return dateKey(a) < dateKey(b) }
	case AmountDesc:
		less = func(a, b model.Entry) bool { return a.Amount.Float() > b.Amount.Float() }
	case AmountAsc:
		less = func(a, b model.Entry) bool { return a.Amount.Float() < b.Amount.Float() }
	case ActiveFirst:
		less = func(a, b model.Entry) bool { return a.IsActive && !b.IsActive }
	case InactiveFirst:
		less = func(a, b model.Entry) bool { return !a.IsActive && b.IsActive }
	default:
		less = func(a, b model.Entry) bool { return dateKey(a) > dateKey(b) }
	}

	sort.SliceStable(out, func(i, j int) bool { return less(out[i], out[j]) })
	return out
}

// dateKey is the creation timestamp, falling back to the entry date for
// legacy entries that have none.
func dateKey(e model.Entry) int64 {
	if e.CreatedAt > 0 {
		return e.CreatedAt
	}
	if e.Date == "" {
		return 0
	}
	t, err := time.Parse(time.DateOnly, e.Date)
	if err != nil {
		return 0
	}
	return t.UnixMilli()
}
