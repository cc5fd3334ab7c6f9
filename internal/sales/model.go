package sales

import "time"

// ChannelSite marks sales made through the shop itself, as opposed to
// marketplace channels recorded by external publishers.
const ChannelSite = "site"

// SaleRecord is one append-only ledger entry. Records are never updated or
// deleted; analytics are derived purely from this table.
type SaleRecord struct {
	ID         string    `json:"id"`
	ListingID  string    `json:"listingId"`
	Channel    string    `json:"channel"`
	Qty        int       `json:"qty"`
	TotalCents int       `json:"totalCents"`
	CreatedAt  time.Time `json:"createdAt"`
}

type ChannelRevenue struct {
	Channel    string `json:"channel"`
	TotalCents int64  `json:"totalCents"`
	Count      int64  `json:"count"`
}

type TopProduct struct {
	ProductID  string `json:"productId"`
	Title      string `json:"title"`
	TotalCents int64  `json:"totalCents"`
	UnitsSold  int64  `json:"unitsSold"`
}
