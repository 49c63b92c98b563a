package repository

import (
	"errors"

	"orders-api/internal/model"

	"github.com/jackc/pgx/v5/pgconn"
)

const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgCheckViolation      = "23514"
)

// checkMessages holds the client-facing text for the schema's CHECK
// constraints, keyed by the names PostgreSQL generates for them.
var checkMessages = map[string]string{
	"products_price_check":           "price cannot be negative",
	"products_stock_check":           "stock cannot be negative",
	"temporal_orders_quantity_check": "quantity must be greater than zero",
	"order_details_quantity_check":   "quantity must be greater than zero",
	"orders_order_status_check":      "invalid order status",
	"users_user_type_check":          "invalid user type",
}

const checkFallbackMessage = "a value is outside the allowed range"

type writeKind int

const (
	writeInsert writeKind = iota
	writeUpdate
	writeDelete
)

// translateWriteError maps constraint violations to domain errors. Other
// errors are returned unchanged.
func translateWriteError(err error, kind writeKind) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}

	switch pgErr.Code {
	case pgUniqueViolation:
		return model.ErrAlreadyExists
	case pgForeignKeyViolation:
		if kind == writeDelete {
			return model.ErrHasRelatedRecords
		}
		return model.ErrInvalidReference
	case pgCheckViolation:
		if msg, ok := checkMessages[pgErr.ConstraintName]; ok {
			return model.ValidationFailed(msg)
		}
		return model.ValidationFailed(checkFallbackMessage)
	default:
		return err
	}
}
