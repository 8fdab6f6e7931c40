package models

// DateStats aggregates order quantities for one menu date.
type DateStats struct {
	Date           string `json:"date"` // YYYY-MM-DD
	TotalOrders    int    `json:"total_orders"`
	ApprovedOrders int    `json:"approved_orders"`
	RejectedOrders int    `json:"rejected_orders"`
	PendingOrders  int    `json:"pending_orders"`
}

// MealStats aggregates order quantity per meal type.
type MealStats struct {
	MealType    string `json:"meal_type"`
	TotalOrders int    `json:"total_orders"`
}

// StatisticsSummary is the admin dashboard aggregate: the last seven distinct
// menu dates present in the ledger plus per-meal totals.
type StatisticsSummary struct {
	DateStats    []DateStats `json:"date_stats"`
	MealStats    []MealStats `json:"meal_stats"`
	TotalOrders  int         `json:"total_orders"`
	PendingCount int         `json:"pending_count"`
}

// OrderStatRow is the flat projection the statistics aggregation consumes:
// one row per order with its menu's date and meal type.
type OrderStatRow struct {
	Status   string `json:"status"`
	Quantity int    `json:"quantity"`
	MenuDate string `json:"menu_date"` // YYYY-MM-DD
	MealType string `json:"meal_type"`
}
