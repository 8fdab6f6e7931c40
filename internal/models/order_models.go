package models

import "time"

// Order is a student's request for some quantity of a menu, moving through
// the approval workflow. PickupToken is set only once the order is approved.
type Order struct {
	ID          int64      `json:"id" db:"id"`
	UserID      int64      `json:"user_id" db:"user_id"`
	MenuID      int64      `json:"menu_id" db:"menu_id"`
	Quantity    int        `json:"quantity" db:"quantity"`
	Status      string     `json:"status" db:"status"`
	PickupToken *string    `json:"pickup_token,omitempty" db:"pickup_token"`
	IsFulfilled bool       `json:"is_fulfilled" db:"is_fulfilled"`
	FulfilledAt *time.Time `json:"fulfilled_at,omitempty" db:"fulfilled_at"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" db:"updated_at"`

	Menu    *Menu    `json:"menu,omitempty"`    // For joining with Menu
	Profile *Profile `json:"profile,omitempty"` // Student identity for admin views
}

// OrderFilters defines the available filters for querying orders.
// This struct is used by both the service and repository layers.
type OrderFilters struct {
	UserID   *int64  `form:"user_id"`
	MenuID   *int64  `form:"menu_id"`
	Status   *string `form:"status"`
	Page     int     `form:"page"`
	PageSize int     `form:"page_size"`
}
