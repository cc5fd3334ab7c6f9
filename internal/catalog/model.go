package catalog

type Product struct {
	ID       string `json:"productId"`
	Slug     string `json:"slug"`
	Title    string `json:"title"`
	ImageURL string `json:"imageUrl"`
}

type Variant struct {
	ProductID  string `json:"productId"`
	Size       string `json:"size"`
	Finish     string `json:"finish"`
	PriceCents int    `json:"priceCents"`
}

// PricedVariant is the oracle's answer for one (product, size, finish) key:
// the display data plus the current authoritative unit price.
type PricedVariant struct {
	Product Product `json:"product"`
	Variant Variant `json:"variant"`
}
