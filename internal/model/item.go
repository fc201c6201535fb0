package model

import (
	"strconv"
	"time"
)

// Item is a single thing kept in the drawer.
type Item struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Note         string  `json:"note"`
	Amount       int     `json:"amount"`
	Img          *string `json:"img,omitempty"`
	Label        string  `json:"label"`
	DateAcquired string  `json:"dateAcquired"`
	DateLastUsed *string `json:"dateLastUsed,omitempty"`
}

// Preset labels.
const (
	// LabelToBeRemoved marks an item as pending removal. Items carrying it are
	// excluded from every active view.
	LabelToBeRemoved = "__REMOVE__"
	LabelNotLabeled  = "Not labeled"
)

// TimeLayout is the ISO-8601 form used for item timestamps.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// FormatTime renders t as an item timestamp in UTC.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeLayout)
}

// NewItem returns a fresh item whose ID and acquisition date are derived from now.
func NewItem(now time.Time) Item {
	return Item{
		Amount:       1,
		Label:        LabelNotLabeled,
		DateAcquired: FormatTime(now),
		ID:           strconv.FormatInt(now.UnixMilli(), 10),
	}
}

// IsPendingRemoval reports whether the item carries the soft-delete label.
func (i Item) IsPendingRemoval() bool {
	return i.Label == LabelToBeRemoved
}

// MarkForRemoval returns a copy of the item labelled for removal, stamped with
// now as its last-used date.
func (i Item) MarkForRemoval(now time.Time) Item {
	used := FormatTime(now)
	i.Label = LabelToBeRemoved
	i.DateLastUsed = &used
	return i
}

// Clone returns a deep copy of the item.
func (i Item) Clone() Item {
	if i.Img != nil {
		img := *i.Img
		i.Img = &img
	}
	if i.DateLastUsed != nil {
		used := *i.DateLastUsed
		i.DateLastUsed = &used
	}
	return i
}

// StringPtr returns a pointer to s.
func StringPtr(s string) *string {
	return &s
}
