package cart

import "time"

const (
	MinQuantity = 1
	MaxQuantity = 99
)

// Key identifies a line within a cart. A cart never holds two lines with the
// same key; adding to an existing key merges quantities.
type Key struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Finish    string `json:"finish"`
}

// Line is one selection in a session's cart. UnitPriceCents is a display
// price cached at add time; the price of record always comes from the
// catalog oracle at checkout.
type Line struct {
	SessionID      string    `json:"-"`
	ProductID      string    `json:"productId"`
	Size           string    `json:"size"`
	Finish         string    `json:"finish"`
	Quantity       int       `json:"quantity"`
	UnitPriceCents int       `json:"unitPriceCents"`
	ImageURL       string    `json:"imageUrl"`
	UpdatedAt      time.Time `json:"updatedAt"`
}

func (l Line) Key() Key {
	return Key{ProductID: l.ProductID, Size: l.Size, Finish: l.Finish}
}

// SnapshotLine is one priced, frozen line of an order snapshot.
type SnapshotLine struct {
	ProductID      string `json:"productId"`
	Title          string `json:"title"`
	Size           string `json:"size"`
	Finish         string `json:"finish"`
	Quantity       int    `json:"quantity"`
	UnitPriceCents int    `json:"unitPriceCents"`
	ImageURL       string `json:"imageUrl"`
}

// Snapshot is an immutable priced copy of a cart, produced by the Validator
// at checkout time. All prices come from the catalog oracle.
type Snapshot struct {
	Lines         []SnapshotLine `json:"lines"`
	SubtotalCents int            `json:"subtotalCents"`
}
