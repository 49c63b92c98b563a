package model

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TemporalOrder is a cart line: a product the user intends to buy.
type TemporalOrder struct {
	ID        int             `json:"id" db:"id"`
	UserID    uuid.UUID       `json:"userId" db:"user_id"`
	ProductID int             `json:"productId" db:"product_id"`
	Product   *Product        `json:"product,omitempty"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Remarks   string          `json:"remarks,omitempty" db:"remarks"`
	Value     decimal.Decimal `json:"value"`
}

// TemporalOrderRequest adds a line to the cart or edits an existing one.
type TemporalOrderRequest struct {
	ID        int    `json:"id"`
	ProductID int    `json:"productId"`
	Quantity  int    `json:"quantity"`
	Remarks   string `json:"remarks,omitempty" validate:"max=500"`
}

// ComputeValue sets Value from the loaded product price.
func (t *TemporalOrder) ComputeValue() {
	if t.Product == nil {
		t.Value = decimal.Zero
		return
	}
	t.Value = t.Product.Price.Mul(decimal.NewFromInt(int64(t.Quantity)))
}
