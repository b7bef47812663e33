package order

import (
	"sync"

	"github.com/google/uuid"
)

// Book is the live set of pending orders, keyed by order id. It is
// written only by the ingestion goroutine and read by the UI loop; the
// lock is never held across I/O.
type Book struct {
	mu       sync.RWMutex
	orders   []Order
	selected int
}

func NewBook() *Book {
	return &Book{}
}

// Apply folds one projection into the book. An existing entry with the
// same id is removed first, never merged, so a later event fully
// supersedes an earlier one. Only pending orders are (re)inserted; any
// other status removes the order from the live book. Returns false when
// the projection has no id and was rejected.
func (b *Book) Apply(o Order) bool {
	if o.ID == uuid.Nil {
		return false
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	wasEmpty := len(b.orders) == 0
	for i := range b.orders {
		if b.orders[i].ID == o.ID {
			b.orders = append(b.orders[:i], b.orders[i+1:]...)
			break
		}
	}
	if o.Status == StatusPending {
		b.orders = append(b.orders, o)
	}
	if wasEmpty && len(b.orders) > 0 {
		b.selected = 0
	}
	b.clampLocked()
	return true
}

// Scroll moves the selection cursor, saturating at the bounds.
func (b *Book) Scroll(delta int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.selected += delta
	b.clampLocked()
}

// Selected returns a copy of the order under the cursor.
func (b *Book) Selected() (Order, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	if len(b.orders) == 0 {
		return Order{}, false
	}
	return b.orders[b.selected], true
}

// Snapshot copies the current orders and cursor for rendering.
func (b *Book) Snapshot() ([]Order, int) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Order, len(b.orders))
	copy(out, b.orders)
	return out, b.selected
}

func (b *Book) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.orders)
}

func (b *Book) clampLocked() {
	if b.selected < 0 {
		b.selected = 0
	}
	if b.selected > len(b.orders)-1 {
		b.selected = len(b.orders) - 1
	}
	if b.selected < 0 {
		b.selected = 0
	}
}
