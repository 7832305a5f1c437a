package booking

import (
	"errors"

	"github.com/qdclab/booking-api/internal/pricing"
)

// ErrDuplicateItem is returned when a test with the same id is already selected.
var ErrDuplicateItem = errors.New("test already selected")

// ErrIndexOutOfRange is returned when a removal references a position that no
// longer exists. Callers are expected to re-render after every mutation, so
// this indicates a stale view rather than user error.
var ErrIndexOutOfRange = errors.New("cart index out of range")

// LineItem is one selected test. Identity is the test id; name and price are
// display data fixed at selection time.
type LineItem struct {
	ID    int64         `json:"id"`
	Name  string        `json:"name"`
	Price pricing.Money `json:"price"`
}

// Cart holds the ordered selection of tests. Insertion order is display order
// and no two items may share an id.
type Cart struct {
	items []LineItem
}

// Add appends the item, rejecting duplicates by id. Name and price play no
// part in duplicate detection.
func (c *Cart) Add(item LineItem) error {
	for _, existing := range c.items {
		if existing.ID == item.ID {
			return ErrDuplicateItem
		}
	}
	c.items = append(c.items, item)
	return nil
}

// Remove deletes the item at the given position, shifting later items down.
func (c *Cart) Remove(index int) error {
	if index < 0 || index >= len(c.items) {
		return ErrIndexOutOfRange
	}
	c.items = append(c.items[:index], c.items[index+1:]...)
	return nil
}

// Items returns a copy of the current selection.
func (c *Cart) Items() []LineItem {
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// IsEmpty reports whether no tests are selected.
func (c *Cart) IsEmpty() bool {
	return len(c.items) == 0
}

// Len returns the number of selected tests.
func (c *Cart) Len() int {
	return len(c.items)
}

// TestIDs returns the selected test ids in cart order.
func (c *Cart) TestIDs() []int64 {
	ids := make([]int64, len(c.items))
	for i, item := range c.items {
		ids[i] = item.ID
	}
	return ids
}

// PricingItems projects the selection into billing line items.
func (c *Cart) PricingItems() []pricing.Item {
	items := make([]pricing.Item, len(c.items))
	for i, item := range c.items {
		items[i] = pricing.Item{Price: item.Price}
	}
	return items
}
