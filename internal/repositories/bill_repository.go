package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"mess_portal_backend/internal/models"

	"github.com/lib/pq"
)

// BillRepository defines the interface for bill-related database operations.
// Bills are insert-only; there are no update or delete methods on purpose.
type BillRepository interface {
	CreateBill(executor SQLExecutor, bill *models.Bill) (int64, error)
	GetBillsByUserID(userID int64) ([]models.Bill, error)
	GetBills() ([]models.Bill, error)
	GetOrderTotals(userID int64) (*models.OrderTotals, error)
}

type billRepository struct {
	db *sql.DB
}

// NewBillRepository creates a new instance of BillRepository.
func NewBillRepository(db *sql.DB) BillRepository {
	return &billRepository{db: db}
}

func (r *billRepository) CreateBill(executor SQLExecutor, bill *models.Bill) (int64, error) {
	query := `INSERT INTO bills
	            (order_id, user_id, menu_id, quantity, unit_price, total_amount, bill_date)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	if bill.BillDate.IsZero() {
		bill.BillDate = time.Now()
	}

	err := executor.QueryRow(query,
		bill.OrderID, bill.UserID, bill.MenuID, bill.Quantity, bill.UnitPrice,
		bill.TotalAmount, bill.BillDate,
	).Scan(&bill.ID)

	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" {
			return 0, fmt.Errorf("%w: creating bill (constraint: %s): %v", ErrDatabaseError, pqErr.Constraint, err)
		}
		return 0, fmt.Errorf("%w: creating bill: %v", ErrDatabaseError, err)
	}
	return bill.ID, nil
}

const billSelect = `
        SELECT
            b.id, b.order_id, b.user_id, b.menu_id, b.quantity, b.unit_price,
            b.total_amount, b.bill_date,
            m.title, m.menu_date, m.meal_type, m.price
        FROM bills b
        JOIN menus m ON b.menu_id = m.id`

func (r *billRepository) scanBills(rows *sql.Rows) ([]models.Bill, error) {
	bills := []models.Bill{}
	for rows.Next() {
		var b models.Bill
		var menu models.Menu
		err := rows.Scan(
			&b.ID, &b.OrderID, &b.UserID, &b.MenuID, &b.Quantity, &b.UnitPrice,
			&b.TotalAmount, &b.BillDate,
			&menu.Title, &menu.MenuDate, &menu.MealType, &menu.Price,
		)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning bill: %v", ErrDatabaseError, err)
		}
		menu.ID = b.MenuID
		b.Menu = &menu
		bills = append(bills, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating bill rows: %v", ErrDatabaseError, err)
	}
	return bills, nil
}

func (r *billRepository) GetBillsByUserID(userID int64) ([]models.Bill, error) {
	rows, err := r.db.Query(billSelect+` WHERE b.user_id = $1 ORDER BY b.bill_date DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying bills for user ID %d: %v", ErrDatabaseError, userID, err)
	}
	defer rows.Close()
	return r.scanBills(rows)
}

func (r *billRepository) GetBills() ([]models.Bill, error) {
	rows, err := r.db.Query(billSelect + ` ORDER BY b.bill_date DESC`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying bills: %v", ErrDatabaseError, err)
	}
	defer rows.Close()
	return r.scanBills(rows)
}

// GetOrderTotals computes the live per-user amounts over non-cancelled orders,
// quantity times the menu's current unit price.
func (r *billRepository) GetOrderTotals(userID int64) (*models.OrderTotals, error) {
	totals := &models.OrderTotals{}
	query := `
        SELECT
            COALESCE(SUM(CASE WHEN o.status = 'pending' THEN o.quantity * m.price ELSE 0 END), 0),
            COALESCE(SUM(CASE WHEN o.status IN ('approved', 'cancellation_requested') THEN o.quantity * m.price ELSE 0 END), 0),
            COUNT(o.id)
        FROM orders o
        JOIN menus m ON o.menu_id = m.id
        WHERE o.user_id = $1 AND o.status <> 'cancelled'`

	err := r.db.QueryRow(query, userID).Scan(&totals.PendingAmount, &totals.ApprovedAmount, &totals.OrderCount)
	if err != nil {
		return nil, fmt.Errorf("%w: computing order totals for user ID %d: %v", ErrDatabaseError, userID, err)
	}
	totals.TotalAmount = totals.PendingAmount + totals.ApprovedAmount
	return totals, nil
}
