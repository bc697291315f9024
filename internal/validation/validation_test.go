package validation

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prn-tf/freshdeal/internal/domain"
)

type listing struct {
	Name            string  `xml:"name" validate:"required,max=20"`
	OriginalPrice   float64 `xml:"originalPrice" validate:"finite,gte=0"`
	DiscountedPrice float64 `xml:"discountedPrice" validate:"finite,gte=0,ltefield=OriginalPrice"`
	ExpiryDate      string  `xml:"expiryDate" validate:"required,datetime=2006-01-02"`
	Status          string  `xml:"status" validate:"omitempty,oneof=AVAILABLE UNAVAILABLE"`
}

func TestValidator_Struct(t *testing.T) {
	v := New()

	tests := []struct {
		name    string
		input   listing
		wantMsg string
	}{
		{
			name:  "valid",
			input: listing{Name: "Milk", OriginalPrice: 4, DiscountedPrice: 2, ExpiryDate: "2030-01-31"},
		},
		{
			name:    "missing name",
			input:   listing{OriginalPrice: 4, DiscountedPrice: 2, ExpiryDate: "2030-01-31"},
			wantMsg: "name is required",
		},
		{
			name:    "discount above original",
			input:   listing{Name: "Milk", OriginalPrice: 2, DiscountedPrice: 4, ExpiryDate: "2030-01-31"},
			wantMsg: "discountedPrice must not exceed originalPrice",
		},
		{
			name:    "negative price",
			input:   listing{Name: "Milk", OriginalPrice: -1, DiscountedPrice: -2, ExpiryDate: "2030-01-31"},
			wantMsg: "originalPrice must be at least 0; discountedPrice must be at least 0",
		},
		{
			name:    "nan discount",
			input:   listing{Name: "Milk", OriginalPrice: 4, DiscountedPrice: math.NaN(), ExpiryDate: "2030-01-31"},
			wantMsg: "discountedPrice must be a finite number",
		},
		{
			name:    "infinite original",
			input:   listing{Name: "Milk", OriginalPrice: math.Inf(1), DiscountedPrice: 2, ExpiryDate: "2030-01-31"},
			wantMsg: "originalPrice must be a finite number",
		},
		{
			name:    "bad date",
			input:   listing{Name: "Milk", ExpiryDate: "31/01/2030"},
			wantMsg: "expiryDate must be a date in YYYY-MM-DD format",
		},
		{
			name:    "bad status",
			input:   listing{Name: "Milk", ExpiryDate: "2030-01-31", Status: "SOLD"},
			wantMsg: "status must be one of: AVAILABLE UNAVAILABLE",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Struct(tt.input)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrValidation)
			assert.Equal(t, tt.wantMsg, Message(err))
		})
	}
}

func TestMessage_NonValidationError(t *testing.T) {
	assert.Empty(t, Message(errors.New("disk full")))
	assert.Empty(t, Message(domain.NewDomainError(domain.ErrProductNotFound, "gone", "PRD-1")))
}
