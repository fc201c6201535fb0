// Package items holds the drawer's item sequence: the commands that change
// it, the views derived from it, and the write-through that persists it.
package items

import "github.com/erazemk/predal/internal/model"

// Command is a mutation of the item sequence. The set of commands is closed:
// SetItems, AddItem, UpdateItem and RemoveItem.
type Command interface {
	apply(items []model.Item) []model.Item
}

// SetItems replaces the whole sequence. Used at hydration.
type SetItems struct {
	Items []model.Item
}

// AddItem appends an item. The item's ID is not checked for uniqueness.
type AddItem struct {
	Item model.Item
}

// UpdateItem replaces the first item with the same ID, in place.
type UpdateItem struct {
	Item model.Item
}

// RemoveItem drops the first item with the given ID.
type RemoveItem struct {
	ID string
}

// Apply returns the sequence produced by cmd. The input is never modified.
func Apply(items []model.Item, cmd Command) []model.Item {
	return cmd.apply(items)
}

func (c SetItems) apply(_ []model.Item) []model.Item {
	return cloneItems(c.Items)
}

func (c AddItem) apply(items []model.Item) []model.Item {
	out := make([]model.Item, 0, len(items)+1)
	out = append(out, cloneItems(items)...)
	return append(out, c.Item.Clone())
}

func (c UpdateItem) apply(items []model.Item) []model.Item {
	out := cloneItems(items)
	if idx := indexOf(out, c.Item.ID); idx >= 0 {
		out[idx] = c.Item.Clone()
	}
	return out
}

func (c RemoveItem) apply(items []model.Item) []model.Item {
	idx := indexOf(items, c.ID)
	if idx < 0 {
		return cloneItems(items)
	}
	out := make([]model.Item, 0, len(items)-1)
	out = append(out, cloneItems(items[:idx])...)
	return append(out, cloneItems(items[idx+1:])...)
}

func indexOf(items []model.Item, id string) int {
	for i := range items {
		if items[i].ID == id {
			return i
		}
	}
	return -1
}

func cloneItems(items []model.Item) []model.Item {
	out := make([]model.Item, len(items))
	for i, item := range items {
		out[i] = item.Clone()
	}
	return out
}
