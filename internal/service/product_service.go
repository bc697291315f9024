package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/prn-tf/freshdeal/internal/audit"
	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/metrics"
	"github.com/prn-tf/freshdeal/internal/repository"
	"github.com/prn-tf/freshdeal/internal/validation"
)

// Audit actions raised by ProductService.
const (
	actionAddProduct          = "ADD_PRODUCT"
	actionFetchAllProducts    = "FETCH_ALL_PRODUCTS"
	actionFetchSellerProducts = "FETCH_SELLER_PRODUCTS"
	actionUpdateProduct       = "UPDATE_PRODUCT"
	actionDeleteProduct       = "DELETE_PRODUCT"
	actionSearchProducts      = "SEARCH_PRODUCTS"
	actionBuyProduct          = "BUY_PRODUCT"
)

// ProductService handles listings and purchases.
type ProductService struct {
	products  repository.ProductRepository
	inventory *repository.Inventory
	validate  *validation.Validator
	audit     *audit.Logger
	metrics   *metrics.Metrics
	logger    zerolog.Logger
}

// ProductServiceConfig contains the dependencies of a ProductService.
type ProductServiceConfig struct {
	Products  repository.ProductRepository
	Inventory *repository.Inventory
	Validator *validation.Validator
	Audit     *audit.Logger

	// Metrics may be nil.
	Metrics *metrics.Metrics
	Logger  zerolog.Logger
}

// NewProductService creates a new ProductService.
func NewProductService(cfg ProductServiceConfig) *ProductService {
	return &ProductService{
		products:  cfg.Products,
		inventory: cfg.Inventory,
		validate:  cfg.Validator,
		audit:     cfg.Audit,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger.With().Str("service", "product").Logger(),
	}
}

// =============================================================================
// Listings
// =============================================================================

// AddProductInput contains the data needed to list a product. Its rules are
// also applied to every product an update produces.
type AddProductInput struct {
	Seller            string  `xml:"username" validate:"required"`
	Name              string  `xml:"name" validate:"required,max=200"`
	Category          string  `xml:"category" validate:"required,max=100"`
	OriginalPrice     float64 `xml:"originalPrice" validate:"finite,gte=0"`
	DiscountedPrice   float64 `xml:"discountedPrice" validate:"finite,gte=0,ltefield=OriginalPrice"`
	AvailableQuantity int     `xml:"availableQuantity" validate:"gte=0"`
	ExpiryDate        string  `xml:"expiryDate" validate:"required,datetime=2006-01-02"`
}

// Add lists a new product. A product listed with no stock starts UNAVAILABLE.
func (s *ProductService) Add(ctx context.Context, input AddProductInput) (*domain.Product, error) {
	if err := s.validate.Struct(input); err != nil {
		return nil, err
	}

	product := domain.NewProduct(input.Seller, input.Name, input.Category,
		input.OriginalPrice, input.DiscountedPrice, input.AvailableQuantity, input.ExpiryDate)

	err := s.products.Update(ctx, func(products []domain.Product) ([]domain.Product, error) {
		for indexOfProduct(products, product.ProductID) >= 0 {
			product.ProductID = domain.NewProductID()
		}
		return append(products, *product), nil
	})
	if err != nil {
		return nil, internalError(s.logger, err, "failed to add product")
	}

	s.logger.Info().
		Str("product_id", product.ProductID).
		Str("seller", product.SellerUsername).
		Int("quantity", product.AvailableQuantity).
		Msg("product listed")
	s.audit.Success(ctx, input.Seller, actionAddProduct,
		fmt.Sprintf("productId=%s, name=%s", product.ProductID, product.Name))

	return product, nil
}

// listingOf returns the listing fields of p for validation.
func listingOf(p *domain.Product) AddProductInput {
	return AddProductInput{
		Seller:            p.SellerUsername,
		Name:              p.Name,
		Category:          p.Category,
		OriginalPrice:     p.OriginalPrice,
		DiscountedPrice:   p.DiscountedPrice,
		AvailableQuantity: p.AvailableQuantity,
		ExpiryDate:        p.ExpiryDate,
	}
}

// ListAvailable returns the products buyers can see: AVAILABLE and in stock.
func (s *ProductService) ListAvailable(ctx context.Context, requester string) ([]domain.Product, error) {
	visible, err := s.visible(ctx, "")
	if err != nil {
		return nil, err
	}
	s.audit.Success(ctx, requester, actionFetchAllProducts, domain.ResultNone)
	return visible, nil
}

// Search returns visible products whose name or category contains keyword,
// ignoring case. An empty keyword matches every visible product.
func (s *ProductService) Search(ctx context.Context, requester, keyword string) ([]domain.Product, error) {
	visible, err := s.visible(ctx, keyword)
	if err != nil {
		return nil, err
	}
	s.audit.Success(ctx, requester, actionSearchProducts, "keyword="+keyword)
	return visible, nil
}

func (s *ProductService) visible(ctx context.Context, keyword string) ([]domain.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, internalError(s.logger, err, "failed to read products")
	}

	result := make([]domain.Product, 0, len(products))
	for i := range products {
		if products[i].IsVisible() && products[i].Matches(keyword) {
			result = append(result, products[i])
		}
	}
	return result, nil
}

// ListBySeller returns every product of seller regardless of status.
func (s *ProductService) ListBySeller(ctx context.Context, seller string) ([]domain.Product, error) {
	products, err := s.products.List(ctx)
	if err != nil {
		return nil, internalError(s.logger, err, "failed to read products")
	}

	result := make([]domain.Product, 0)
	for i := range products {
		if products[i].OwnedBy(seller) {
			result = append(result, products[i])
		}
	}
	s.audit.Success(ctx, seller, actionFetchSellerProducts, domain.ResultNone)
	return result, nil
}

// UpdateProductInput is a partial update. Nil fields are left unchanged.
type UpdateProductInput struct {
	Seller    string
	ProductID string

	Name              *string
	Category          *string
	OriginalPrice     *float64
	DiscountedPrice   *float64
	AvailableQuantity *int
	ExpiryDate        *string
	Status            *domain.ProductStatus
}

func (in UpdateProductInput) apply(p *domain.Product) {
	if in.Name != nil {
		p.Name = *in.Name
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	if in.OriginalPrice != nil {
		p.OriginalPrice = *in.OriginalPrice
	}
	if in.DiscountedPrice != nil {
		p.DiscountedPrice = *in.DiscountedPrice
	}
	if in.AvailableQuantity != nil {
		p.AvailableQuantity = *in.AvailableQuantity
	}
	if in.ExpiryDate != nil {
		p.ExpiryDate = *in.ExpiryDate
	}
	if in.Status != nil {
		p.Status = *in.Status
	}
}

// Update applies a partial update to a product owned by Seller.
// A product that does not exist and one owned by someone else are reported
// the same way, as ErrProductNotFound. Setting the quantity to 0 forces the
// product UNAVAILABLE; raising it does not re-open the product unless Status
// is also given. The edit runs under the product's purchase lock so it
// cannot interleave with a sale of the same product.
func (s *ProductService) Update(ctx context.Context, input UpdateProductInput) (*domain.Product, error) {
	var updated domain.Product
	err := s.inventory.Guard(ctx, input.ProductID, func(ctx context.Context) error {
		return s.products.Update(ctx, func(products []domain.Product) ([]domain.Product, error) {
			idx := indexOfOwnedProduct(products, input.ProductID, input.Seller)
			if idx < 0 {
				return nil, domain.NewDomainError(domain.ErrProductNotFound, "", input.ProductID)
			}

			candidate := products[idx]
			input.apply(&candidate)
			if err := s.validate.Struct(listingOf(&candidate)); err != nil {
				return nil, err
			}
			if err := candidate.Validate(); err != nil {
				return nil, err
			}
			products[idx] = candidate
			updated = candidate
			return products, nil
		})
	})
	if err != nil {
		if domain.IsBusinessError(err) {
			return nil, err
		}
		return nil, internalError(s.logger, err, "failed to update product")
	}

	s.audit.Success(ctx, input.Seller, actionUpdateProduct, "productId="+input.ProductID)
	return &updated, nil
}

// Delete removes a product owned by seller, under the same lock as Update.
func (s *ProductService) Delete(ctx context.Context, seller, productID string) error {
	err := s.inventory.Guard(ctx, productID, func(ctx context.Context) error {
		return s.products.Update(ctx, func(products []domain.Product) ([]domain.Product, error) {
			idx := indexOfOwnedProduct(products, productID, seller)
			if idx < 0 {
				return nil, domain.NewDomainError(domain.ErrProductNotFound, "", productID)
			}
			return append(products[:idx], products[idx+1:]...), nil
		})
	})
	if err != nil {
		if domain.IsBusinessError(err) {
			return err
		}
		return internalError(s.logger, err, "failed to delete product")
	}

	s.audit.Success(ctx, seller, actionDeleteProduct, "productId="+productID)
	return nil
}

// =============================================================================
// Purchase
// =============================================================================

// BuyInput contains the data of a purchase request.
type BuyInput struct {
	Buyer     string
	ProductID string

	// Quantity below 1 is treated as 1.
	Quantity int
}

// Buy sells Quantity units of a product to Buyer and returns the ledger record.
// Stock is checked and taken inside the inventory's purchase critical region,
// so concurrent buyers can never take more units than exist.
func (s *ProductService) Buy(ctx context.Context, input BuyInput) (*domain.Transaction, error) {
	quantity := input.Quantity
	if quantity <= 0 {
		quantity = 1
	}

	txn, err := s.inventory.Purchase(ctx, input.ProductID, func(p *domain.Product) (*domain.Transaction, error) {
		if err := p.Reserve(quantity); err != nil {
			return nil, err
		}
		return domain.NewTransaction(p, input.Buyer, quantity), nil
	})
	if err != nil {
		data := fmt.Sprintf("productId=%s, qty=%d", input.ProductID, quantity)
		if domain.IsBusinessError(err) {
			s.metrics.ObservePurchase(metrics.PurchaseRejected, quantity)
			s.audit.Failure(ctx, input.Buyer, actionBuyProduct, data)
			return nil, err
		}
		s.metrics.ObservePurchase(metrics.PurchaseError, quantity)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			s.logger.Warn().Err(err).Str("product_id", input.ProductID).Msg("purchase abandoned before taking the lock")
			return nil, fmt.Errorf("%w: %v", ErrInternalError, err)
		}
		return nil, internalError(s.logger, err, "purchase failed")
	}

	s.metrics.ObservePurchase(metrics.PurchaseSuccess, txn.Quantity)
	s.logger.Info().
		Str("transaction_id", txn.TransactionID).
		Str("product_id", txn.ProductID).
		Str("buyer", txn.BuyerUsername).
		Int("quantity", txn.Quantity).
		Msg("purchase completed")
	s.audit.Success(ctx, input.Buyer, actionBuyProduct,
		fmt.Sprintf("productId=%s, qty=%d, seller=%s", txn.ProductID, txn.Quantity, txn.SellerUsername))

	return txn, nil
}

func indexOfProduct(products []domain.Product, productID string) int {
	for i := range products {
		if products[i].ProductID == productID {
			return i
		}
	}
	return -1
}

func indexOfOwnedProduct(products []domain.Product, productID, seller string) int {
	idx := indexOfProduct(products, productID)
	if idx < 0 || !products[idx].OwnedBy(seller) {
		return -1
	}
	return idx
}
