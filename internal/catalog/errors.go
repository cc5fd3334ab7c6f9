package catalog

import "fmt"

// ProductNotFoundError reports a lookup for a product id that does not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// VariantUnavailableError reports a product that exists but has no variant
// for the requested size/finish.
type VariantUnavailableError struct {
	ProductID string
	Size      string
	Finish    string
}

func (e *VariantUnavailableError) Error() string {
	return fmt.Sprintf("variant %s/%s not available for product %s", e.Size, e.Finish, e.ProductID)
}
