package handler

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/prn-tf/freshdeal/internal/domain"
	"github.com/prn-tf/freshdeal/internal/protocol"
	"github.com/prn-tf/freshdeal/internal/service"
)

const msgNotFoundOrNotOwned = "Product not found or you don't own it."

// ProductHandler serves the listing and purchase actions.
type ProductHandler struct {
	products *service.ProductService
}

// NewProductHandler creates a new ProductHandler.
func NewProductHandler(products *service.ProductService) *ProductHandler {
	return &ProductHandler{products: products}
}

// AddProduct handles ADD_PRODUCT.
func (h *ProductHandler) AddProduct(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	if resp := missingField(req,
		protocol.FieldName, protocol.FieldCategory,
		protocol.FieldOriginalPrice, protocol.FieldDiscountedPrice,
		protocol.FieldAvailableQuantity, protocol.FieldExpiryDate,
	); resp != nil {
		return resp, nil
	}

	original, resp := optionalFloat(req, protocol.FieldOriginalPrice)
	if resp != nil {
		return resp, nil
	}
	discounted, resp := optionalFloat(req, protocol.FieldDiscountedPrice)
	if resp != nil {
		return resp, nil
	}
	quantity, resp := optionalInt(req, protocol.FieldAvailableQuantity)
	if resp != nil {
		return resp, nil
	}

	product, err := h.products.Add(ctx, service.AddProductInput{
		Seller:            req.Username,
		Name:              req.Field(protocol.FieldName),
		Category:          req.Field(protocol.FieldCategory),
		OriginalPrice:     *original,
		DiscountedPrice:   *discounted,
		AvailableQuantity: *quantity,
		ExpiryDate:        req.Field(protocol.FieldExpiryDate),
	})
	if err != nil {
		return businessResponse(err)
	}

	msg := fmt.Sprintf("Product added: %s [%s]", product.Name, product.ProductID)
	return protocol.Success(msg).WithData(&protocol.Data{ProductID: product.ProductID}), nil
}

// FetchAllProducts handles FETCH_ALL_PRODUCTS.
func (h *ProductHandler) FetchAllProducts(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	products, err := h.products.ListAvailable(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	return productList("Products fetched.", products), nil
}

// FetchSellerProducts handles FETCH_SELLER_PRODUCTS.
func (h *ProductHandler) FetchSellerProducts(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	products, err := h.products.ListBySeller(ctx, req.Username)
	if err != nil {
		return nil, err
	}
	return productList("Your products fetched.", products), nil
}

// SearchProducts handles SEARCH_PRODUCTS.
func (h *ProductHandler) SearchProducts(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	products, err := h.products.Search(ctx, req.Username, req.Field(protocol.FieldKeyword))
	if err != nil {
		return nil, err
	}
	return productList("Search results.", products), nil
}

// UpdateProduct handles UPDATE_PRODUCT. Only fields present and non-empty
// in the request are changed.
func (h *ProductHandler) UpdateProduct(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	if resp := missingField(req, protocol.FieldProductID); resp != nil {
		return resp, nil
	}

	input := service.UpdateProductInput{
		Seller:     req.Username,
		ProductID:  req.Field(protocol.FieldProductID),
		Name:       optionalString(req, protocol.FieldName),
		Category:   optionalString(req, protocol.FieldCategory),
		ExpiryDate: optionalString(req, protocol.FieldExpiryDate),
	}

	var resp *protocol.Response
	if input.OriginalPrice, resp = optionalFloat(req, protocol.FieldOriginalPrice); resp != nil {
		return resp, nil
	}
	if input.DiscountedPrice, resp = optionalFloat(req, protocol.FieldDiscountedPrice); resp != nil {
		return resp, nil
	}
	if input.AvailableQuantity, resp = optionalInt(req, protocol.FieldAvailableQuantity); resp != nil {
		return resp, nil
	}
	if raw := req.Field(protocol.FieldStatus); raw != "" {
		status, err := domain.ParseProductStatus(raw)
		if err != nil {
			return protocol.Failed("status must be AVAILABLE or UNAVAILABLE."), nil
		}
		input.Status = &status
	}

	_, err := h.products.Update(ctx, input)
	if errors.Is(err, domain.ErrProductNotFound) {
		return protocol.Failed(msgNotFoundOrNotOwned), nil
	}
	if err != nil {
		return businessResponse(err)
	}
	return protocol.Success("Product updated."), nil
}

// DeleteProduct handles DELETE_PRODUCT.
func (h *ProductHandler) DeleteProduct(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	if resp := missingField(req, protocol.FieldProductID); resp != nil {
		return resp, nil
	}

	err := h.products.Delete(ctx, req.Username, req.Field(protocol.FieldProductID))
	if errors.Is(err, domain.ErrProductNotFound) {
		return protocol.Failed(msgNotFoundOrNotOwned), nil
	}
	if err != nil {
		return businessResponse(err)
	}
	return protocol.Success("Product deleted."), nil
}

// BuyProduct handles BUY_PRODUCT. A missing, unparsable or non-positive
// quantity buys one unit.
func (h *ProductHandler) BuyProduct(ctx context.Context, req *protocol.Request) (*protocol.Response, error) {
	if resp := missingField(req, protocol.FieldProductID); resp != nil {
		return resp, nil
	}
	quantity, _ := strconv.Atoi(req.Field(protocol.FieldQuantity))

	txn, err := h.products.Buy(ctx, service.BuyInput{
		Buyer:     req.Username,
		ProductID: req.Field(protocol.FieldProductID),
		Quantity:  quantity,
	})
	if err != nil {
		return businessResponse(err)
	}

	msg := "Purchase successful! Transaction ID: " + txn.TransactionID
	return protocol.Success(msg).WithData(&protocol.Data{TransactionID: txn.TransactionID}), nil
}

func productList(msg string, products []domain.Product) *protocol.Response {
	return protocol.Success(msg).WithData(&protocol.Data{
		Products: &protocol.ProductList{Products: products},
	})
}
