package order

import "time"

type Address struct {
	Street  string `json:"street"`
	City    string `json:"city"`
	State   string `json:"state"`
	Zip     string `json:"zip"`
	Country string `json:"country"`
}

// Item is a frozen copy of one snapshot line. Later catalog changes never
// touch it.
type Item struct {
	ID         string `json:"-"`
	OrderID    string `json:"-"`
	ProductID  string `json:"productId"`
	Title      string `json:"title"`
	Size       string `json:"size"`
	Finish     string `json:"finish"`
	Quantity   int    `json:"quantity"`
	PriceCents int    `json:"priceCents"`
}

type Order struct {
	ID              string    `json:"orderId"`
	OrderNumber     string    `json:"orderNumber"`
	Email           string    `json:"email"`
	Name            string    `json:"name"`
	ShippingAddress Address   `json:"shippingAddress"`
	SubtotalCents   int       `json:"subtotalCents"`
	ShippingCents   int       `json:"shippingCents"`
	TotalCents      int       `json:"totalCents"`
	Status          Status    `json:"status"`
	PaymentIntentID string    `json:"paymentIntentId,omitempty"`
	Items           []Item    `json:"items"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}
