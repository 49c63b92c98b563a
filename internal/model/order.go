package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus int

const (
	OrderStatusNew OrderStatus = iota
	OrderStatusDispatched
	OrderStatusSent
	OrderStatusConfirmed
	OrderStatusCancelled
)

var orderStatusNames = [...]string{"New", "Dispatched", "Sent", "Confirmed", "Cancelled"}

func (s OrderStatus) String() string {
	if !s.Valid() {
		return fmt.Sprintf("OrderStatus(%d)", int(s))
	}
	return orderStatusNames[s]
}

// Valid reports whether s is one of the defined statuses.
func (s OrderStatus) Valid() bool {
	return s >= OrderStatusNew && s <= OrderStatusCancelled
}

// Order is a placed order. Details are copied from the cart at checkout.
type Order struct {
	ID          int             `json:"id" db:"id"`
	Date        time.Time       `json:"date" db:"date"`
	UserID      uuid.UUID       `json:"userId" db:"user_id"`
	User        *User           `json:"user,omitempty"`
	Remarks     string          `json:"remarks,omitempty" db:"remarks"`
	OrderStatus OrderStatus     `json:"orderStatus" db:"order_status"`
	Details     []OrderDetail   `json:"orderDetails"`
	Lines       int             `json:"lines"`
	Quantity    int             `json:"quantity"`
	Value       decimal.Decimal `json:"value"`
}

// OrderDetail is an immutable line item of an order.
type OrderDetail struct {
	ID        int             `json:"id" db:"id"`
	OrderID   int             `json:"orderId" db:"order_id"`
	ProductID int             `json:"productId" db:"product_id"`
	Product   *Product        `json:"product,omitempty"`
	Quantity  int             `json:"quantity" db:"quantity"`
	Remarks   string          `json:"remarks,omitempty" db:"remarks"`
	Value     decimal.Decimal `json:"value"`
}

// CheckoutRequest is the body of POST /api/orders.
type CheckoutRequest struct {
	Remarks string `json:"remarks" validate:"max=500"`
}

// OrderStatusRequest is the body of PUT /api/orders.
type OrderStatusRequest struct {
	ID          int         `json:"id" validate:"required,gt=0"`
	OrderStatus OrderStatus `json:"orderStatus"`
}

// Summarize recomputes the derived totals from the loaded details.
func (o *Order) Summarize() {
	o.Lines = len(o.Details)
	o.Quantity = 0
	o.Value = decimal.Zero
	for i := range o.Details {
		d := &o.Details[i]
		if d.Product != nil {
			d.Value = d.Product.Price.Mul(decimal.NewFromInt(int64(d.Quantity)))
		}
		o.Quantity += d.Quantity
		o.Value = o.Value.Add(d.Value)
	}
}
