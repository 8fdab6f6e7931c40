package models

import "time"

// CapacityMovement records a change to a menu's remaining quantity.
// Every decrement on approval and restore on cancellation writes one row
// inside the same transaction as the change itself.
type CapacityMovement struct {
	ID              int64     `json:"id" db:"id"`
	MenuID          int64     `json:"menu_id" db:"menu_id"`
	OrderID         *int64    `json:"order_id,omitempty" db:"order_id"`
	ActorID         *int64    `json:"actor_id,omitempty" db:"actor_id"`
	MovementType    string    `json:"movement_type" db:"movement_type"` // order_approval, cancellation_restore, admin_adjustment
	QuantityChanged int       `json:"quantity_changed" db:"quantity_changed"`
	Reason          *string   `json:"reason,omitempty" db:"reason"`
	MovementDate    time.Time `json:"movement_date" db:"movement_date"`
}
