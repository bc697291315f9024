package domain

import (
	"math"
	"strings"
	"time"
)

// ExpiryDateLayout is the calendar date format used for product expiry dates.
const ExpiryDateLayout = "2006-01-02"

// ProductStatus indicates whether a product can be purchased.
type ProductStatus string

const (
	ProductAvailable   ProductStatus = "AVAILABLE"
	ProductUnavailable ProductStatus = "UNAVAILABLE"
)

// ParseProductStatus validates a product status supplied by a seller.
func ParseProductStatus(s string) (ProductStatus, error) {
	switch st := ProductStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case ProductAvailable, ProductUnavailable:
		return st, nil
	default:
		return "", NewDomainError(ErrInvalidProduct, "status must be AVAILABLE or UNAVAILABLE", s)
	}
}

// Product is a discounted item listed by a seller.
type Product struct {
	// ProductID is the generated identifier (PRD-XXXXXXXX).
	ProductID string `xml:"productId"`

	// SellerUsername is the username of the listing seller.
	// Updates and deletes are only allowed for this user.
	SellerUsername string `xml:"sellerUsername"`

	Name            string  `xml:"name"`
	Category        string  `xml:"category"`
	OriginalPrice   float64 `xml:"originalPrice"`
	DiscountedPrice float64 `xml:"discountedPrice"`

	// AvailableQuantity is never negative. Reaching zero forces UNAVAILABLE.
	AvailableQuantity int `xml:"availableQuantity"`

	// ExpiryDate is formatted as ExpiryDateLayout.
	ExpiryDate string `xml:"expiryDate"`

	Status ProductStatus `xml:"status"`
}

// NewProduct creates an AVAILABLE product with a fresh id.
func NewProduct(seller, name, category string, originalPrice, discountedPrice float64, quantity int, expiry string) *Product {
	p := &Product{
		ProductID:         NewProductID(),
		SellerUsername:    seller,
		Name:              name,
		Category:          category,
		OriginalPrice:     originalPrice,
		DiscountedPrice:   discountedPrice,
		AvailableQuantity: quantity,
		ExpiryDate:        expiry,
		Status:            ProductAvailable,
	}
	p.normalizeStatus()
	return p
}

// IsVisible reports whether buyers can see and purchase the product.
func (p *Product) IsVisible() bool {
	return p.Status == ProductAvailable && p.AvailableQuantity > 0
}

// OwnedBy reports whether username is the listing seller.
func (p *Product) OwnedBy(username string) bool {
	return p.SellerUsername == username
}

// Matches reports whether keyword is a case-insensitive substring of the
// product name or category. An empty keyword matches everything.
func (p *Product) Matches(keyword string) bool {
	k := strings.ToLower(strings.TrimSpace(keyword))
	if k == "" {
		return true
	}
	return strings.Contains(strings.ToLower(p.Name), k) ||
		strings.Contains(strings.ToLower(p.Category), k)
}

// Reserve takes quantity units out of stock.
// It returns ErrProductUnavailable if the product is not AVAILABLE and an
// *InsufficientStockError if there are fewer than quantity units left.
func (p *Product) Reserve(quantity int) error {
	if p.Status != ProductAvailable {
		return NewDomainError(ErrProductUnavailable, "", p.ProductID)
	}
	if p.AvailableQuantity < quantity {
		return &InsufficientStockError{
			ProductID: p.ProductID,
			Available: p.AvailableQuantity,
			Requested: quantity,
		}
	}
	p.AvailableQuantity -= quantity
	p.normalizeStatus()
	return nil
}

// Restock returns quantity units to stock. When reopen is set the product
// becomes AVAILABLE again.
func (p *Product) Restock(quantity int, reopen bool) {
	p.AvailableQuantity += quantity
	if reopen {
		p.Status = ProductAvailable
	}
}

// Validate checks the invariants that hold for every stored product.
func (p *Product) Validate() error {
	if !finite(p.OriginalPrice) || !finite(p.DiscountedPrice) {
		return NewDomainError(ErrInvalidProduct, "prices must be finite numbers", p.ProductID)
	}
	if p.OriginalPrice < 0 || p.DiscountedPrice < 0 {
		return NewDomainError(ErrInvalidProduct, "prices must not be negative", p.ProductID)
	}
	if p.DiscountedPrice > p.OriginalPrice {
		return NewDomainError(ErrInvalidProduct, "discountedPrice must not exceed originalPrice", p.ProductID)
	}
	if p.AvailableQuantity < 0 {
		return NewDomainError(ErrInvalidProduct, "availableQuantity must not be negative", p.ProductID)
	}
	if _, err := time.Parse(ExpiryDateLayout, p.ExpiryDate); err != nil {
		return NewDomainError(ErrInvalidProduct, "expiryDate must be YYYY-MM-DD", p.ProductID)
	}
	p.normalizeStatus()
	return nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// normalizeStatus forces UNAVAILABLE once stock runs out.
func (p *Product) normalizeStatus() {
	if p.AvailableQuantity == 0 {
		p.Status = ProductUnavailable
	}
}
