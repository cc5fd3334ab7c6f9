package cart

import (
	"context"

	"github.com/n0remac/Lumeron/internal/catalog"
)

// Validator turns a mutable cart into a priced snapshot by re-pricing every
// line from the catalog oracle. Any cached price on the cart line is ignored.
type Validator struct {
	oracle catalog.Oracle
}

func NewValidator(oracle catalog.Oracle) *Validator {
	return &Validator{oracle: oracle}
}

// Validate fails atomically: if any line's product or variant is gone, no
// snapshot is produced.
func (v *Validator) Validate(ctx context.Context, lines []Line) (*Snapshot, error) {
	snap := &Snapshot{Lines: make([]SnapshotLine, 0, len(lines))}

	for _, l := range lines {
		pv, err := v.oracle.Lookup(ctx, l.ProductID, l.Size, l.Finish)
		if err != nil {
			return nil, err
		}

		imageURL := pv.Product.ImageURL
		if imageURL == "" {
			imageURL = l.ImageURL
		}

		snap.Lines = append(snap.Lines, SnapshotLine{
			ProductID:      l.ProductID,
			Title:          pv.Product.Title,
			Size:           l.Size,
			Finish:         l.Finish,
			Quantity:       l.Quantity,
			UnitPriceCents: pv.Variant.PriceCents,
			ImageURL:       imageURL,
		})
		snap.SubtotalCents += pv.Variant.PriceCents * l.Quantity
	}

	return snap, nil
}
