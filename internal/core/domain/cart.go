package domain

import (
	"slices"

	"github.com/shopspring/decimal"
)

type CartEntry struct {
	Product  Product
	Quantity int
}

// A Cart is the ledger of products a visitor intends to purchase.
//
// Cart is a value: every operation returns a new Cart and leaves the
// receiver untouched. Product ids are unique across entries and every
// quantity is at least 1.
type Cart struct {
	entries []CartEntry
}

// Entries returns a copy of the entries in insertion order.
func (c Cart) Entries() []CartEntry {
	return slices.Clone(c.entries)
}

func (c Cart) Len() int {
	return len(c.entries)
}

// Quantity reports the quantity of the product and whether it is in the cart.
func (c Cart) Quantity(productID int64) (int, bool) {
	i := c.index(productID)
	if i == -1 {
		return 0, false
	}
	return c.entries[i].Quantity, true
}

// Add appends a new entry with quantity 1, or increments the existing one.
func (c Cart) Add(p Product) Cart {
	i := c.index(p.ID)
	if i == -1 {
		entries := slices.Clone(c.entries)
		entries = append(entries, CartEntry{Product: p, Quantity: 1})
		return Cart{entries}
	}
	return c.withQuantity(i, c.entries[i].Quantity+1)
}

func (c Cart) Remove(productID int64) Cart {
	i := c.index(productID)
	if i == -1 {
		return c
	}
	entries := slices.Clone(c.entries)
	return Cart{slices.Delete(entries, i, i+1)}
}

func (c Cart) Increase(productID int64) Cart {
	i := c.index(productID)
	if i == -1 {
		return c
	}
	return c.withQuantity(i, c.entries[i].Quantity+1)
}

// Decrease decrements the quantity, which never drops below 1: decreasing
// an entry with quantity 1 leaves it in the cart unchanged.
func (c Cart) Decrease(productID int64) Cart {
	i := c.index(productID)
	if i == -1 || c.entries[i].Quantity <= 1 {
		return c
	}
	return c.withQuantity(i, c.entries[i].Quantity-1)
}

// TotalPrice sums price times quantity over the current entries.
func (c Cart) TotalPrice() decimal.Decimal {
	total := decimal.Zero
	for _, e := range c.entries {
		total = total.Add(e.Product.Price.Mul(decimal.NewFromInt(int64(e.Quantity))))
	}
	return total
}

// ItemCount sums the quantities of all entries.
func (c Cart) ItemCount() (n int) {
	for _, e := range c.entries {
		n += e.Quantity
	}
	return n
}

func (c Cart) index(productID int64) int {
	return slices.IndexFunc(c.entries, func(e CartEntry) bool {
		return e.Product.ID == productID
	})
}

func (c Cart) withQuantity(i, quantity int) Cart {
	entries := slices.Clone(c.entries)
	entries[i].Quantity = quantity
	return Cart{entries}
}
