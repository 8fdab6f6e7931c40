package models

import "time"

// Menu represents a single orderable meal offering for a date and meal slot,
// with bounded stock and an ordering deadline.
type Menu struct {
	ID                int64      `json:"id" db:"id"`
	Title             string     `json:"title" db:"title" binding:"required"`
	Description       *string    `json:"description,omitempty" db:"description"`
	ImageURL          *string    `json:"image_url,omitempty" db:"image_url"`
	MenuDate          time.Time  `json:"menu_date" db:"menu_date"`
	MealType          string     `json:"meal_type" db:"meal_type" binding:"required"` // breakfast, lunch, dinner
	OrderDeadline     time.Time  `json:"order_deadline" db:"order_deadline"`
	TotalQuantity     int        `json:"total_quantity" db:"total_quantity"`
	RemainingQuantity int        `json:"remaining_quantity" db:"remaining_quantity"`
	Price             float64    `json:"price" db:"price" binding:"required,gt=0"`
	Status            string     `json:"status" db:"status"` // open or closed
	CreatedBy         *int64     `json:"created_by,omitempty" db:"created_by"`
	DeletedAt         *time.Time `json:"-" db:"deleted_at"`
	CreatedAt         time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at" db:"updated_at"`
}

// MenuFilters defines the available filters for querying menus.
type MenuFilters struct {
	Date     *string `form:"date"` // Expected format YYYY-MM-DD
	MealType *string `form:"meal_type"`
	Status   *string `form:"status"`
}
