package models

import "time"

// Bill is the immutable financial record written at order approval. It is
// decoupled from the order so later cancellation or mutation of the order
// never rewrites payment history.
type Bill struct {
	ID          int64     `json:"id" db:"id"`
	OrderID     int64     `json:"order_id" db:"order_id"`
	UserID      int64     `json:"user_id" db:"user_id"`
	MenuID      int64     `json:"menu_id" db:"menu_id"`
	Quantity    int       `json:"quantity" db:"quantity"`
	UnitPrice   float64   `json:"unit_price" db:"unit_price"`
	TotalAmount float64   `json:"total_amount" db:"total_amount"`
	BillDate    time.Time `json:"bill_date" db:"bill_date"`

	Menu *Menu `json:"menu,omitempty"` // For joining with Menu
}

// OrderTotals is the live read-time aggregation over a student's orders.
type OrderTotals struct {
	PendingAmount  float64 `json:"pending_amount"`
	ApprovedAmount float64 `json:"approved_amount"`
	TotalAmount    float64 `json:"total_amount"`
	OrderCount     int     `json:"order_count"`
}
