package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"mess_portal_backend/internal/models"
)

// MenuRepository defines the interface for menu-related database operations.
type MenuRepository interface {
	CreateMenu(executor SQLExecutor, menu *models.Menu) (int64, error)
	GetMenuByID(menuID int64) (*models.Menu, error)
	GetMenus(filters models.MenuFilters) ([]models.Menu, error)
	UpdateMenu(executor SQLExecutor, menu *models.Menu) error
	SoftDeleteMenu(executor SQLExecutor, menuID int64, deletedAt time.Time) (int64, error)

	// DecrementRemaining atomically takes quantity from the menu's remaining
	// stock, refusing to go below zero. Returns the number of rows updated:
	// zero means the menu is missing or has insufficient capacity.
	DecrementRemaining(executor SQLExecutor, menuID int64, quantity int, updatedAt time.Time) (int64, error)

	// RestoreRemaining gives quantity back, capped at total_quantity.
	RestoreRemaining(executor SQLExecutor, menuID int64, quantity int, updatedAt time.Time) (int64, error)
}

type menuRepository struct {
	db *sql.DB
}

// NewMenuRepository creates a new instance of MenuRepository.
func NewMenuRepository(db *sql.DB) MenuRepository {
	return &menuRepository{db: db}
}

const menuColumns = `id, title, description, image_url, menu_date, meal_type, order_deadline,
	             total_quantity, remaining_quantity, price, status, created_by, deleted_at,
	             created_at, updated_at`

func scanMenu(row scanner, m *models.Menu) error {
	return row.Scan(
		&m.ID, &m.Title, &m.Description, &m.ImageURL, &m.MenuDate, &m.MealType, &m.OrderDeadline,
		&m.TotalQuantity, &m.RemainingQuantity, &m.Price, &m.Status, &m.CreatedBy, &m.DeletedAt,
		&m.CreatedAt, &m.UpdatedAt,
	)
}

func (r *menuRepository) CreateMenu(executor SQLExecutor, menu *models.Menu) (int64, error) {
	query := `INSERT INTO menus
	            (title, description, image_url, menu_date, meal_type, order_deadline,
	             total_quantity, remaining_quantity, price, status, created_by,
	             created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	          RETURNING id`

	if menu.CreatedAt.IsZero() {
		menu.CreatedAt = time.Now()
	}
	if menu.UpdatedAt.IsZero() {
		menu.UpdatedAt = time.Now()
	}

	err := executor.QueryRow(query,
		menu.Title, menu.Description, menu.ImageURL, menu.MenuDate, menu.MealType, menu.OrderDeadline,
		menu.TotalQuantity, menu.RemainingQuantity, menu.Price, menu.Status, menu.CreatedBy,
		menu.CreatedAt, menu.UpdatedAt,
	).Scan(&menu.ID)

	if err != nil {
		return 0, fmt.Errorf("%w: creating menu: %v", ErrDatabaseError, err)
	}
	return menu.ID, nil
}

func (r *menuRepository) GetMenuByID(menuID int64) (*models.Menu, error) {
	menu := &models.Menu{}
	query := `SELECT ` + menuColumns + `
	          FROM menus
	          WHERE id = $1 AND deleted_at IS NULL`
	err := scanMenu(r.db.QueryRow(query, menuID), menu)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: getting menu by ID %d: %v", ErrDatabaseError, menuID, err)
	}
	return menu, nil
}

func (r *menuRepository) GetMenus(filters models.MenuFilters) ([]models.Menu, error) {
	menus := []models.Menu{}

	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT ` + menuColumns + ` FROM menus`)

	conditions := []string{"deleted_at IS NULL"}
	var args []interface{}
	argCounter := 1

	if filters.Date != nil && *filters.Date != "" {
		conditions = append(conditions, fmt.Sprintf("menu_date = $%d", argCounter))
		args = append(args, *filters.Date)
		argCounter++
	}
	if filters.MealType != nil && *filters.MealType != "" {
		conditions = append(conditions, fmt.Sprintf("meal_type = $%d", argCounter))
		args = append(args, *filters.MealType)
		argCounter++
	}
	if filters.Status != nil && *filters.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argCounter))
		args = append(args, *filters.Status)
		argCounter++
	}

	queryBuilder.WriteString(" WHERE " + strings.Join(conditions, " AND "))
	queryBuilder.WriteString(" ORDER BY menu_date ASC, meal_type ASC")

	rows, err := r.db.Query(queryBuilder.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying menus: %v", ErrDatabaseError, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.Menu
		if err := scanMenu(rows, &m); err != nil {
			return nil, fmt.Errorf("%w: scanning menu: %v", ErrDatabaseError, err)
		}
		menus = append(menus, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating menu rows: %v", ErrDatabaseError, err)
	}
	return menus, nil
}

func (r *menuRepository) UpdateMenu(executor SQLExecutor, menu *models.Menu) error {
	query := `UPDATE menus
	          SET title = $1, description = $2, image_url = $3, menu_date = $4, meal_type = $5,
	              order_deadline = $6, total_quantity = $7, remaining_quantity = $8, price = $9,
	              status = $10, updated_at = $11
	          WHERE id = $12 AND deleted_at IS NULL`
	result, err := executor.Exec(query,
		menu.Title, menu.Description, menu.ImageURL, menu.MenuDate, menu.MealType,
		menu.OrderDeadline, menu.TotalQuantity, menu.RemainingQuantity, menu.Price,
		menu.Status, menu.UpdatedAt, menu.ID,
	)
	if err != nil {
		return fmt.Errorf("%w: updating menu ID %d: %v", ErrDatabaseError, menu.ID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: getting rows affected for menu update ID %d: %v", ErrDatabaseError, menu.ID, err)
	}
	if rowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *menuRepository) SoftDeleteMenu(executor SQLExecutor, menuID int64, deletedAt time.Time) (int64, error) {
	query := `UPDATE menus SET deleted_at = $1, status = 'closed', updated_at = $1
	          WHERE id = $2 AND deleted_at IS NULL`
	result, err := executor.Exec(query, deletedAt, menuID)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting menu ID %d: %v", ErrDatabaseError, menuID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for deleting menu ID %d: %v", ErrDatabaseError, menuID, err)
	}
	if rowsAffected == 0 {
		return 0, ErrNotFound
	}
	return rowsAffected, nil
}

func (r *menuRepository) DecrementRemaining(executor SQLExecutor, menuID int64, quantity int, updatedAt time.Time) (int64, error) {
	// Conditional decrement: the remaining >= quantity predicate is what keeps
	// two concurrent approvals from over-committing the same stock.
	query := `UPDATE menus
	          SET remaining_quantity = remaining_quantity - $1, updated_at = $2
	          WHERE id = $3 AND deleted_at IS NULL AND remaining_quantity >= $1`
	result, err := executor.Exec(query, quantity, updatedAt, menuID)
	if err != nil {
		return 0, fmt.Errorf("%w: decrementing remaining quantity for menu ID %d: %v", ErrDatabaseError, menuID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for capacity decrement on menu ID %d: %v", ErrDatabaseError, menuID, err)
	}
	return rowsAffected, nil
}

func (r *menuRepository) RestoreRemaining(executor SQLExecutor, menuID int64, quantity int, updatedAt time.Time) (int64, error) {
	query := `UPDATE menus
	          SET remaining_quantity = LEAST(total_quantity, remaining_quantity + $1), updated_at = $2
	          WHERE id = $3`
	result, err := executor.Exec(query, quantity, updatedAt, menuID)
	if err != nil {
		return 0, fmt.Errorf("%w: restoring remaining quantity for menu ID %d: %v", ErrDatabaseError, menuID, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: getting rows affected for capacity restore on menu ID %d: %v", ErrDatabaseError, menuID, err)
	}
	if rowsAffected == 0 {
		return 0, ErrNotFound
	}
	return rowsAffected, nil
}
