package items

import (
	"bytes"
	"encoding/json"
	"slices"
	"strings"
	"time"

	"github.com/erazemk/predal/internal/model"
)

// LabelTotal is the number of active items carrying a label.
type LabelTotal struct {
	Label string `json:"label"`
	Total int    `json:"total"`
}

// Query selects items for Search. An empty Keyword falls back to Label, an
// empty Label to all active items.
type Query struct {
	Keyword string
	Label   string
}

// View is a read-only projection over one version of the item sequence.
type View struct {
	all []model.Item
}

// NewView wraps items. The slice must not be modified afterwards.
func NewView(items []model.Item) View {
	return View{all: items}
}

// All returns the full sequence, pending-removal items included.
func (v View) All() []model.Item {
	return cloneItems(v.all)
}

// Active returns the items not labelled for removal.
func (v View) Active() []model.Item {
	out := []model.Item{}
	for _, item := range v.all {
		if !item.IsPendingRemoval() {
			out = append(out, item.Clone())
		}
	}
	return out
}

// PendingRemoval returns the items labelled for removal, oldest last use
// first. Items without a parseable last-used date sort before dated ones;
// ties keep sequence order.
func (v View) PendingRemoval() []model.Item {
	out := []model.Item{}
	for _, item := range v.all {
		if item.IsPendingRemoval() {
			out = append(out, item.Clone())
		}
	}
	slices.SortStableFunc(out, func(a, b model.Item) int {
		at, aok := lastUsed(a)
		bt, bok := lastUsed(b)
		switch {
		case !aok && !bok:
			return 0
		case !aok:
			return -1
		case !bok:
			return 1
		}
		return at.Compare(bt)
	})
	return out
}

// LabelsWithTotal counts active items per label, in order of each label's
// first occurrence.
func (v View) LabelsWithTotal() []LabelTotal {
	out := []LabelTotal{}
	index := map[string]int{}
	for _, item := range v.all {
		if item.IsPendingRemoval() {
			continue
		}
		if i, ok := index[item.Label]; ok {
			out[i].Total++
			continue
		}
		index[item.Label] = len(out)
		out = append(out, LabelTotal{Label: item.Label, Total: 1})
	}
	return out
}

// ByLabel returns active items with the given label, or all active items
// when label is empty.
func (v View) ByLabel(label string) []model.Item {
	if label == "" {
		return v.Active()
	}
	out := []model.Item{}
	for _, item := range v.all {
		if !item.IsPendingRemoval() && item.Label == label {
			out = append(out, item.Clone())
		}
	}
	return out
}

// Search matches the keyword case-insensitively against each item's JSON
// form. Keyword search covers the full sequence, pending-removal items
// included; without a keyword it behaves like ByLabel.
func (v View) Search(q Query) []model.Item {
	if q.Keyword == "" {
		return v.ByLabel(q.Label)
	}
	keyword := strings.ToLower(q.Keyword)
	out := []model.Item{}
	for _, item := range v.all {
		if strings.Contains(strings.ToLower(serialize(item)), keyword) {
			out = append(out, item.Clone())
		}
	}
	return out
}

// ByID returns the first item with the given ID.
func (v View) ByID(id string) (model.Item, bool) {
	if idx := indexOf(v.all, id); idx >= 0 {
		return v.all[idx].Clone(), true
	}
	return model.Item{}, false
}

// dateLayouts are the accepted forms of dateLastUsed.
var dateLayouts = []string{time.RFC3339, "2006-01-02T15:04:05", time.DateOnly}

func lastUsed(item model.Item) (time.Time, bool) {
	if item.DateLastUsed == nil {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, *item.DateLastUsed); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// serialize renders an item as JSON without HTML escaping, so that keywords
// such as "&" match literally.
func serialize(item model.Item) string {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(item); err != nil {
		return ""
	}
	return strings.TrimSuffix(buf.String(), "\n")
}
