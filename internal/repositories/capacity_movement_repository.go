package repositories

import (
	"database/sql"
	"fmt"
	"time"

	"mess_portal_backend/internal/models"
)

// CapacityMovementRepository records and lists remaining-quantity changes.
type CapacityMovementRepository interface {
	CreateMovement(executor SQLExecutor, movement *models.CapacityMovement) (int64, error)
	GetMovementsByMenuID(menuID int64) ([]models.CapacityMovement, error)
}

type capacityMovementRepository struct {
	db *sql.DB
}

// NewCapacityMovementRepository creates a new instance of CapacityMovementRepository.
func NewCapacityMovementRepository(db *sql.DB) CapacityMovementRepository {
	return &capacityMovementRepository{db: db}
}

func (r *capacityMovementRepository) CreateMovement(executor SQLExecutor, movement *models.CapacityMovement) (int64, error) {
	query := `INSERT INTO capacity_movements
	            (menu_id, order_id, actor_id, movement_type, quantity_changed, reason, movement_date)
	          VALUES ($1, $2, $3, $4, $5, $6, $7)
	          RETURNING id`

	if movement.MovementDate.IsZero() {
		movement.MovementDate = time.Now()
	}

	err := executor.QueryRow(query,
		movement.MenuID, movement.OrderID, movement.ActorID, movement.MovementType,
		movement.QuantityChanged, movement.Reason, movement.MovementDate,
	).Scan(&movement.ID)

	if err != nil {
		return 0, fmt.Errorf("%w: creating capacity movement: %v", ErrDatabaseError, err)
	}
	return movement.ID, nil
}

func (r *capacityMovementRepository) GetMovementsByMenuID(menuID int64) ([]models.CapacityMovement, error) {
	movements := []models.CapacityMovement{}
	query := `SELECT id, menu_id, order_id, actor_id, movement_type, quantity_changed, reason, movement_date
	          FROM capacity_movements
	          WHERE menu_id = $1
	          ORDER BY movement_date DESC, id DESC`

	rows, err := r.db.Query(query, menuID)
	if err != nil {
		return nil, fmt.Errorf("%w: querying capacity movements for menu ID %d: %v", ErrDatabaseError, menuID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.CapacityMovement
		err := rows.Scan(&m.ID, &m.MenuID, &m.OrderID, &m.ActorID, &m.MovementType,
			&m.QuantityChanged, &m.Reason, &m.MovementDate)
		if err != nil {
			return nil, fmt.Errorf("%w: scanning capacity movement: %v", ErrDatabaseError, err)
		}
		movements = append(movements, m)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterating capacity movement rows: %v", ErrDatabaseError, err)
	}
	return movements, nil
}
