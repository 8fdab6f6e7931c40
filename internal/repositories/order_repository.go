package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mess_portal_backend/internal/models"

	"github.com/lib/pq" // For pq.Error
)

// OrderRepository defines the interface for order-related database operations.
// Status transitions are guarded updates: callers pass the expected current
// status and inspect the affected row count, so a stale read can never push
// an order through an illegal transition.
type OrderRepository interface {
	CreateOrder(executor SQLExecutor, order *models.Order) (int64, error)
	GetOrderByID(orderID int64) (*models.Order, error)
	GetActiveOrderByUserAndMenu(userID, menuID int64) (*models.Order, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int, error) // orders, total count, error
	GetOrdersByUserID(userID int64) ([]models.Order, error)
	CountActiveOrdersByMenu(menuID int64) (int, error)

	UpdateStatusIf(executor SQLExecutor, orderID int64, fromStatus, toStatus string, updatedAt time.Time) (int64, error)
	ApproveOrder(executor SQLExecutor, orderID int64, approvedQuantity int, pickupToken string, updatedAt time.Time) (int64, error)

	GetApprovedOrderByToken(token string) (*models.Order, error)
	TokenExists(token string) (bool, error)
	MarkFulfilled(executor SQLExecutor, orderID int64, fulfilledAt time.Time) (int64, error)

	GetStatRows() ([]models.OrderStatRow, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository.
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

const orderColumns = `id, user_id, menu_id, quantity, status, pickup_token,
	                 is_fulfilled, fulfilled_at, created_at, updated_at`

func scanOrder(row scanner, o *models.Order) error {
	return row.Scan(
		&o.ID, &o.UserID, &o.MenuID, &o.Quantity, &o.Status, &o.PickupToken,
		&o.IsFulfilled, &o.FulfilledAt, &o.CreatedAt, &o.UpdatedAt,
	)
}

func (r *orderRepository) CreateOrder(executor SQLExecutor, order *models.Order) (int64, error) {
	query := `INSERT INTO orders
	            (user_id, menu_id, quantity, status, is_fulfilled, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	if order.CreatedAt.IsZero() {
		order.CreatedAt = time.Now()
	}
	if order.UpdatedAt.IsZero() {
		order.UpdatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		order.UserID, order.MenuID, order.Quantity, order.Status, order.IsFulfilled,
		order.CreatedAt, order.UpdatedAt,
	).Scan(&order.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505": // one active order per (user, menu)
				return 0, ErrDuplicateKey
			case "23503":
				return 0, fmt.Errorf("%w: creating order (constraint: %s): %v", ErrDatabaseError, pqErr.Constraint, err)
			}
		}
		return 0, fmt.Errorf("%w: creating order: %v", ErrDatabaseError, err)
	}
	return order.ID, nil
}

func (r *orderRepository) GetOrderByID(orderID int64) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT ` + orderColumns + `
	          FROM orders
	          WHERE id = $1`
	err := scanOrder(r.db.QueryRow(query, orderID), order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return order, nil
}

// GetActiveOrderByUserAndMenu returns the user's non-cancelled order for the
// menu, or ErrNotFound when the user has none.
func (r *orderRepository) GetActiveOrderByUserAndMenu(userID, menuID int64) (*models.Order, error) {
	order := &models.Order{}
	query := `SELECT ` + orderColumns + `
	          FROM orders
	          WHERE user_id = $1 AND menu_id = $2 AND status <> 'cancelled'`
	err := scanOrder(r.db.QueryRow(query, userID, menuID), order)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order for user %d menu %d: %v", ErrDatabaseError, userID, menuID, err)
	}
	return order, nil
}

func (r *orderRepository) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	orders := []models.Order{}
	totalCount := 0

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`
        SELECT
            o.id, o.user_id, o.menu_id, o.quantity, o.status, o.pickup_token,
            o.is_fulfilled, o.fulfilled_at, o.created_at, o.updated_at,
            m.title, m.menu_date, m.meal_type, m.order_deadline, m.price,
            u.full_name, u.email,
            COUNT(*) OVER() as total_count
        FROM orders o
        JOIN menus m ON o.menu_id = m.id
        JOIN users u ON o.user_id = u.id
    `)

	var conditions []string
	var args []interface{}
	argCounter := 1

	if filters.UserID != nil {
		conditions = append(conditions, fmt.Sprintf("o.user_id = $%d", argCounter))
		args = append(args, *filters.UserID)
		argCounter++
	}
	if filters.MenuID != nil {
		conditions = append(conditions, fmt.Sprintf("o.menu_id = $%d", argCounter))
		args = append(args, *filters.MenuID)
		argCounter++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("o.status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}

	if len(conditions) > 0 {
		queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	}
	queryBuilder.WriteString(" ORDER BY o.created_at DESC")

	if filters.PageSize > 0 {
		queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d", argCounter))
		args = append(args, filters.PageSize)
		argCounter++
		if filters.Page > 0 {
			offset := (filters.Page - 1) * filters.PageSize
			queryBuilder.WriteString(fmt.Sprintf(" OFFSET $%d", argCounter))
			args = append(args, offset)
		}
	}

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: querying orders: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Order
		var menu models.Menu
		var profile models.Profile

		err := rows.Scan(
			&o.ID, &o.UserID, &o.MenuID, &o.Quantity, &o.Status, &o.PickupToken,
			&o.IsFulfilled, &o.FulfilledAt, &o.CreatedAt, &o.UpdatedAt,
			&menu.Title, &menu.MenuDate, &menu.MealType, &menu.OrderDeadline, &menu.Price,
			&profile.Name, &profile.Email,
			&totalCount,
		)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: scanning order: %v", ErrDatabaseError, err)
		}

		menu.ID = o.MenuID
		o.Menu = &menu
		profile.ID = o.UserID
		o.Profile = &profile
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%w: iterating order rows: %v", ErrDatabaseError, err)
	}
	return orders, totalCount, nil
}

func (r *orderRepository) GetOrdersByUserID(userID int64) ([]models.Order, error) {
	orders := []models.Order{}
	query := `
        SELECT
            o.id, o.user_id, o.menu_id, o.quantity, o.status, o.pickup_token,
            o.is_fulfilled, o.fulfilled_at, o.created_at, o.updated_at,
            m.title, m.menu_date, m.meal_type, m.order_deadline, m.price
        FROM orders o
        JOIN menus m ON o.menu_id = m.id
        WHERE o.user_id = $1 AND o.status <> 'cancelled'
        ORDER BY o.created_at DESC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying orders for user ID %d: %v", ErrDatabaseError, userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var o models.Order
		var menu models.Menu
		err := rows.Scan(
			&o.ID, &o.UserID, &o.MenuID, &o.Quantity, &o.Status, &o.PickupToken,
			&o.IsFulfilled, &o.FulfilledAt, &o.CreatedAt, &o.UpdatedAt,
			&menu.Title, &menu.MenuDate, &menu.MealType, &menu.OrderDeadline, &menu.Price,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning order for user ID %d: %v", ErrDatabaseError, userID, err)
		}
		menu.ID = o.MenuID
		o.Menu = &menu
		orders = append(orders, o)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order rows for user ID %d: %v", ErrDatabaseError, userID, err)
	}
	return orders, nil
}

func (r *orderRepository) CountActiveOrdersByMenu(menuID int64) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM orders WHERE menu_id = $1 AND status <> 'cancelled'`
	if err := r.db.QueryRow(query, menuID).Scan(&count); err != nil {
		return 0, fmt.Errorf("%w: counting orders for menu ID %d: %v", ErrDatabaseError, menuID, err)
	}
	return count, nil
}

func (r *orderRepository) UpdateStatusIf(executor SQLExecutor, orderID int64, fromStatus, toStatus string, updatedAt time.Time) (int64, error) {
	query := `UPDATE orders SET status = $1, updated_at = $2 WHERE id = $3 AND status = $4`
	result, err := executor.Exec(query, toStatus, updatedAt, orderID, fromStatus)
	if err != nil {
		return 0, fmt.Errorf("%w: updating order status for ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for order status update ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return rowsAffected, nil
}

func (r *orderRepository) ApproveOrder(executor SQLExecutor, orderID int64, approvedQuantity int, pickupToken string, updatedAt time.Time) (int64, error) {
	query := `UPDATE orders
	          SET status = 'approved', quantity = $1, pickup_token = $2, updated_at = $3
	          WHERE id = $4 AND status = 'pending'`
	result, err := executor.Exec(query, approvedQuantity, pickupToken, updatedAt, orderID)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			// Pickup token collision; the service regenerates and retries.
			return 0, ErrDuplicateKey
		}
		return 0, fmt.Errorf("%w: approving order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for approving order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return rowsAffected, nil
}

// GetApprovedOrderByToken matches a presented pickup token against approved
// orders only. Tokens of pending or rejected orders never resolve.
func (r *orderRepository) GetApprovedOrderByToken(token string) (*models.Order, error) {
	order := &models.Order{}
	var menu models.Menu
	var profile models.Profile

	query := `
        SELECT
            o.id, o.user_id, o.menu_id, o.quantity, o.status, o.pickup_token,
            o.is_fulfilled, o.fulfilled_at, o.created_at, o.updated_at,
            m.title, m.menu_date, m.meal_type, m.order_deadline, m.price,
            u.full_name, u.email
        FROM orders o
        JOIN menus m ON o.menu_id = m.id
        JOIN users u ON o.user_id = u.id
        WHERE o.pickup_token = $1 AND o.status = 'approved'`

	err := r.db.QueryRow(query, token).Scan(
		&order.ID, &order.UserID, &order.MenuID, &order.Quantity, &order.Status, &order.PickupToken,
		&order.IsFulfilled, &order.FulfilledAt, &order.CreatedAt, &order.UpdatedAt,
		&menu.Title, &menu.MenuDate, &menu.MealType, &menu.OrderDeadline, &menu.Price,
		&profile.Name, &profile.Email,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting order by token: %v", ErrDatabaseError, err)
	}

	menu.ID = order.MenuID
	order.Menu = &menu
	profile.ID = order.UserID
	order.Profile = &profile
	return order, nil
}

// TokenExists reports whether any non-cancelled order already carries the token.
func (r *orderRepository) TokenExists(token string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM orders WHERE pickup_token = $1 AND status <> 'cancelled')`
	if err := r.db.QueryRow(query, token).Scan(&exists); err != nil {
		return false, fmt.Errorf("%w: checking token existence: %v", ErrDatabaseError, err)
	}
	return exists, nil
}

func (r *orderRepository) MarkFulfilled(executor SQLExecutor, orderID int64, fulfilledAt time.Time) (int64, error) {
	// Guarded against double collection: only the first call sets the flag.
	query := `UPDATE orders
	          SET is_fulfilled = TRUE, fulfilled_at = $1, updated_at = $1
	          WHERE id = $2 AND status = 'approved' AND is_fulfilled = FALSE`
	result, err := executor.Exec(query, fulfilledAt, orderID)
	if err != nil {
		return 0, fmt.Errorf("%w: marking order ID %d fulfilled: %v", ErrDatabaseError, orderID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for fulfilling order ID %d: %v", ErrDatabaseError, orderID, err)
	}
	return rowsAffected, nil
}

func (r *orderRepository) GetStatRows() ([]models.OrderStatRow, error) {
	rows, err := r.db.Query(`
        SELECT o.status, o.quantity, to_char(m.menu_date, 'YYYY-MM-DD'), m.meal_type
        FROM orders o
        JOIN menus m ON o.menu_id = m.id
        WHERE o.status <> 'cancelled'
        ORDER BY m.menu_date ASC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying order statistics rows: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	statRows := []models.OrderStatRow{}
	for rows.Next() {
		var sr models.OrderStatRow
		if err := rows.Scan(&sr.Status, &sr.Quantity, &sr.MenuDate, &sr.MealType); err != nil {
			return nil, fmt.Errorf("%w: scanning order statistics row: %v", ErrDatabaseError, err)
		}
		statRows = append(statRows, sr)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating order statistics rows: %v", ErrDatabaseError, err)
	}
	return statRows, nil
}
