package shopping

import (
	"errors"
	"slices"
	"strings"

	"github.com/google/uuid"
)

// OtherCategory receives items that could not be categorized.
const OtherCategory = "Other"

var (
	ErrItemNotFound = errors.New("shopping item not found")
	ErrEmptyName    = errors.New("item name must not be empty")
)

var newID = uuid.NewString

// Item is one checkable line of the shopping list.
type Item struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Checked bool   `json:"checked"`
}

// Category groups items, for example by supermarket aisle.
type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Items []Item `json:"items"`
}

// CategoryDraft is a category as returned by ingredient categorization.
type CategoryDraft struct {
	Name  string   `json:"category"`
	Items []string `json:"items"`
}

// List is the ordered shopping list. No category in a List is empty.
type List []Category

// FromDrafts builds a fresh list. Blank items are dropped, categories with the
// same name (case-insensitive) are merged and empty categories are skipped.
func FromDrafts(drafts []CategoryDraft) List {
	var l List
	for _, d := range drafts {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			name = OtherCategory
		}
		for _, item := range d.Items {
			if strings.TrimSpace(item) == "" {
				continue
			}
			l.Add(name, item)
		}
	}
	return l
}

// Find returns the position of the item with the given id.
func (l List) Find(itemID string) (ci, ii int, ok bool) {
	for ci, c := range l {
		for ii, it := range c.Items {
			if it.ID == itemID {
				return ci, ii, true
			}
		}
	}
	return -1, -1, false
}

// Toggle flips the checked flag of an item.
func (l List) Toggle(itemID string) error {
	ci, ii, ok := l.Find(itemID)
	if !ok {
		return ErrItemNotFound
	}
	l[ci].Items[ii].Checked = !l[ci].Items[ii].Checked
	return nil
}

// Rename changes the name of an item.
func (l List) Rename(itemID, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrEmptyName
	}
	ci, ii, ok := l.Find(itemID)
	if !ok {
		return ErrItemNotFound
	}
	l[ci].Items[ii].Name = name
	return nil
}

// Delete removes an item. A category left without items is removed too.
func (l *List) Delete(itemID string) error {
	ci, ii, ok := l.Find(itemID)
	if !ok {
		return ErrItemNotFound
	}
	c := &(*l)[ci]
	c.Items = slices.Delete(c.Items, ii, ii+1)
	if len(c.Items) == 0 {
		*l = slices.Delete(*l, ci, ci+1)
	}
	return nil
}

// Add appends an item to the named category, matched case-insensitively. An
// unknown category is appended to the end of the list.
func (l *List) Add(category, name string) Item {
	item := Item{ID: newID(), Name: strings.TrimSpace(name)}
	category = strings.TrimSpace(category)

	for i := range *l {
		if strings.EqualFold((*l)[i].Name, category) {
			(*l)[i].Items = append((*l)[i].Items, item)
			return item
		}
	}
	*l = append(*l, Category{ID: newID(), Name: category, Items: []Item{item}})
	return item
}

// CategoryNames lists the category names in order.
func (l List) CategoryNames() []string {
	names := make([]string, 0, len(l))
	for _, c := range l {
		names = append(names, c.Name)
	}
	return names
}

// Counts returns the number of checked items and the total.
func (l List) Counts() (checked, total int) {
	for _, c := range l {
		for _, it := range c.Items {
			total++
			if it.Checked {
				checked++
			}
		}
	}
	return checked, total
}

// Clone returns a deep copy of the list.
func (l List) Clone() List {
	if l == nil {
		return nil
	}
	c := make(List, len(l))
	for i, cat := range l {
		c[i] = Category{ID: cat.ID, Name: cat.Name, Items: slices.Clone(cat.Items)}
	}
	return c
}
