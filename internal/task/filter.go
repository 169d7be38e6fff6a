package task

import (
	"sort"
	"strings"
)

// Sort selects the ordering for filtered listings.
type Sort int

const (
	SortID Sort = iota
	SortDate
	SortName
	SortStatus
)

// SortFromString maps a CLI sort name to a Sort, defaulting to ID order.
func SortFromString(s string) Sort {
	switch strings.ToLower(s) {
	case "date":
		return SortDate
	case "name":
		return SortName
	case "status":
		return SortStatus
	}
	return SortID
}

// Filter selects and orders tasks for listings. Nil pointer fields mean "do
// not filter on this"; Category pointing at an empty string selects
// uncategorized tasks.
type Filter struct {
	Done        *bool
	Scheduled   *bool
	OverdueOnly bool
	Search      string
	Sort        Sort
	Reverse     bool
	Category    *string
	Tags        []string
}

// Matches reports whether a task passes every configured criterion.
func (f *Filter) Matches(t *Task) bool {
	if f.Done != nil && t.Done != *f.Done {
		return false
	}
	if f.Scheduled != nil && (t.Scheduled != nil) != *f.Scheduled {
		return false
	}
	if f.OverdueOnly && !t.Overdue() {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(t.Title), strings.ToLower(f.Search)) {
		return false
	}
	if f.Category != nil && t.Category != *f.Category {
		return false
	}
	for _, want := range f.Tags {
		want = strings.TrimPrefix(want, "#")
		found := false
		for _, tag := range t.Tags {
			if tag == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// Apply returns the matching tasks in the configured order.
func (f *Filter) Apply(c *Collection) []*Task {
	var out []*Task
	for _, t := range c.All() {
		if f.Matches(t) {
			out = append(out, t)
		}
	}

	switch f.Sort {
	case SortDate:
		sort.SliceStable(out, func(i, j int) bool {
			a, b := out[i], out[j]
			switch {
			case a.Scheduled != nil && b.Scheduled != nil:
				if !a.Scheduled.Equal(*b.Scheduled) {
					return a.Scheduled.Before(*b.Scheduled)
				}
				return a.ID < b.ID
			case a.Scheduled != nil:
				return true
			case b.Scheduled != nil:
				return false
			}
			return a.ID < b.ID
		})
	case SortName:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Title) < strings.ToLower(out[j].Title)
		})
	case SortStatus:
		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Done != out[j].Done {
				return !out[i].Done
			}
			return out[i].ID < out[j].ID
		})
	}

	if f.Reverse {
		for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
			out[i], out[j] = out[j], out[i]
		}
	}
	return out
}
