package services

import (
	"errors"
	"fmt"
	"time"

	"mess_portal_backend/internal/events"
	"mess_portal_backend/internal/models"
	"mess_portal_backend/internal/repositories"
	"mess_portal_backend/pkg/utils"
)

// Custom Errors
var (
	ErrMenuValidation = errors.New("menu data validation error")
	ErrMenuInUse      = errors.New("menu cannot be deleted while orders reference it")
	ErrDateFormat     = errors.New("invalid date format, please use YYYY-MM-DD")
)

// MenuStatus constants
const (
	MenuStatusOpen   = "open"
	MenuStatusClosed = "closed"
)

// Meal types. The column is unconstrained text so new slots (e.g. snacks)
// can be added without a migration; the service gate keeps input sane.
var validMealTypes = map[string]bool{
	"breakfast": true,
	"lunch":     true,
	"dinner":    true,
}

// --- Data Transfer Objects (DTOs) ---

// CreateMenuRequest is used for creating a new menu.
type CreateMenuRequest struct {
	Title         string  `json:"title" binding:"required"`
	Description   *string `json:"description"`
	ImageURL      *string `json:"image_url"`
	MenuDate      string  `json:"menu_date" binding:"required"` // YYYY-MM-DD
	MealType      string  `json:"meal_type" binding:"required"`
	OrderDeadline string  `json:"order_deadline" binding:"required"` // RFC3339
	TotalQuantity int     `json:"total_quantity" binding:"required,gt=0"`
	Price         float64 `json:"price" binding:"required,gt=0"`
	Status        string  `json:"status"`
}

// UpdateMenuRequest is used for partial menu updates. Nil fields are unchanged.
type UpdateMenuRequest struct {
	Title         *string  `json:"title"`
	Description   *string  `json:"description"`
	ImageURL      *string  `json:"image_url"`
	MenuDate      *string  `json:"menu_date"`
	MealType      *string  `json:"meal_type"`
	OrderDeadline *string  `json:"order_deadline"`
	TotalQuantity *int     `json:"total_quantity"`
	Price         *float64 `json:"price"`
	Status        *string  `json:"status"`
}

// --- MenuService Interface ---
type MenuService interface {
	CreateMenu(req CreateMenuRequest, actorID int64) (*models.Menu, error)
	GetMenus(filters models.MenuFilters) ([]models.Menu, error)
	GetMenuByID(menuID int64) (*models.Menu, error)
	UpdateMenu(menuID int64, req UpdateMenuRequest, actorID int64) (*models.Menu, error)
	DeleteMenu(menuID int64) error
	GetCapacityMovements(menuID int64) ([]models.CapacityMovement, error)
}

// --- menuService Implementation ---
type menuService struct {
	menuRepo     repositories.MenuRepository
	orderRepo    repositories.OrderRepository
	movementRepo repositories.CapacityMovementRepository
	db           repositories.SQLExecutor
	tx           repositories.TxBeginner
	publisher    events.Publisher
}

// NewMenuService creates a new instance of MenuService.
func NewMenuService(
	mr repositories.MenuRepository,
	or repositories.OrderRepository,
	cmr repositories.CapacityMovementRepository,
	db repositories.SQLExecutor,
	tx repositories.TxBeginner,
	publisher events.Publisher,
) MenuService {
	return &menuService{
		menuRepo:     mr,
		orderRepo:    or,
		movementRepo: cmr,
		db:           db,
		tx:           tx,
		publisher:    publisher,
	}
}

// --- Method Implementations ---

func (s *menuService) CreateMenu(req CreateMenuRequest, actorID int64) (*models.Menu, error) {
	if !validMealTypes[req.MealType] {
		return nil, fmt.Errorf("%w: unknown meal type '%s'", ErrMenuValidation, req.MealType)
	}

	menuDate, err := time.Parse("2006-01-02", req.MenuDate)
	if err != nil {
		return nil, fmt.Errorf("%w: menu_date '%s'", ErrDateFormat, req.MenuDate)
	}
	deadline, err := time.Parse(time.RFC3339, req.OrderDeadline)
	if err != nil {
		return nil, fmt.Errorf("%w: order_deadline must be RFC3339", ErrMenuValidation)
	}

	status := req.Status
	if status == "" {
		status = MenuStatusOpen
	}
	if status != MenuStatusOpen && status != MenuStatusClosed {
		return nil, fmt.Errorf("%w: invalid status '%s'", ErrMenuValidation, status)
	}

	menu := models.Menu{
		Title:             req.Title,
		Description:       req.Description,
		ImageURL:          req.ImageURL,
		MenuDate:          menuDate,
		MealType:          req.MealType,
		OrderDeadline:     deadline,
		TotalQuantity:     req.TotalQuantity,
		RemainingQuantity: req.TotalQuantity,
		Price:             req.Price,
		Status:            status,
		CreatedBy:         &actorID,
		CreatedAt:         time.Now(),
		UpdatedAt:         time.Now(),
	}

	menuID, err := s.menuRepo.CreateMenu(s.db, &menu)
	if err != nil {
		return nil, fmt.Errorf("failed to create menu record: %w", err)
	}
	menu.ID = menuID

	s.publish(events.ActionCreated, menuID)
	return &menu, nil
}

func (s *menuService) GetMenus(filters models.MenuFilters) ([]models.Menu, error) {
	if filters.Date != nil && *filters.Date != "" {
		if _, err := time.Parse("2006-01-02", *filters.Date); err != nil {
			return nil, fmt.Errorf("%w: '%s'", ErrDateFormat, *filters.Date)
		}
	}
	menus, err := s.menuRepo.GetMenus(filters)
	if err != nil {
		return nil, fmt.Errorf("failed to get menus: %w", err)
	}
	return menus, nil
}

func (s *menuService) GetMenuByID(menuID int64) (*models.Menu, error) {
	menu, err := s.menuRepo.GetMenuByID(menuID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuNotFound
		}
		return nil, fmt.Errorf("failed to get menu by ID: %w", err)
	}
	return menu, nil
}

// UpdateMenu applies a partial edit. A total_quantity change shifts the
// remaining stock by the same delta (floored at zero, capped at the new
// total) and is logged as an admin adjustment.
func (s *menuService) UpdateMenu(menuID int64, req UpdateMenuRequest, actorID int64) (*models.Menu, error) {
	menu, err := s.menuRepo.GetMenuByID(menuID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuNotFound
		}
		return nil, fmt.Errorf("failed to fetch menu for update: %w", err)
	}

	if req.Title != nil {
		if utils.IsEmpty(*req.Title) {
			return nil, fmt.Errorf("%w: title cannot be empty", ErrMenuValidation)
		}
		menu.Title = *req.Title
	}
	if req.Description != nil {
		menu.Description = req.Description
	}
	if req.ImageURL != nil {
		menu.ImageURL = req.ImageURL
	}
	if req.MenuDate != nil {
		menuDate, err := time.Parse("2006-01-02", *req.MenuDate)
		if err != nil {
			return nil, fmt.Errorf("%w: menu_date '%s'", ErrDateFormat, *req.MenuDate)
		}
		menu.MenuDate = menuDate
	}
	if req.MealType != nil {
		if !validMealTypes[*req.MealType] {
			return nil, fmt.Errorf("%w: unknown meal type '%s'", ErrMenuValidation, *req.MealType)
		}
		menu.MealType = *req.MealType
	}
	if req.OrderDeadline != nil {
		deadline, err := time.Parse(time.RFC3339, *req.OrderDeadline)
		if err != nil {
			return nil, fmt.Errorf("%w: order_deadline must be RFC3339", ErrMenuValidation)
		}
		menu.OrderDeadline = deadline
	}
	if req.Price != nil {
		if *req.Price <= 0 {
			return nil, fmt.Errorf("%w: price must be positive", ErrMenuValidation)
		}
		menu.Price = *req.Price
	}
	if req.Status != nil {
		if *req.Status != MenuStatusOpen && *req.Status != MenuStatusClosed {
			return nil, fmt.Errorf("%w: invalid status '%s'", ErrMenuValidation, *req.Status)
		}
		menu.Status = *req.Status
	}

	capacityDelta := 0
	if req.TotalQuantity != nil {
		if *req.TotalQuantity < 0 {
			return nil, fmt.Errorf("%w: total_quantity cannot be negative", ErrMenuValidation)
		}
		delta := *req.TotalQuantity - menu.TotalQuantity
		menu.TotalQuantity = *req.TotalQuantity

		newRemaining := menu.RemainingQuantity + delta
		if newRemaining < 0 {
			newRemaining = 0
		}
		if newRemaining > menu.TotalQuantity {
			newRemaining = menu.TotalQuantity
		}
		capacityDelta = newRemaining - menu.RemainingQuantity
		menu.RemainingQuantity = newRemaining
	}
	menu.UpdatedAt = time.Now()

	tx, err := s.tx.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start menu update transaction: %w", err)
	}
	defer tx.Rollback()

	if err := s.menuRepo.UpdateMenu(tx, menu); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuNotFound
		}
		return nil, fmt.Errorf("failed to update menu %d: %w", menuID, err)
	}

	if capacityDelta != 0 {
		movement := models.CapacityMovement{
			MenuID:          menuID,
			ActorID:         &actorID,
			MovementType:    MovementAdminAdjustment,
			QuantityChanged: capacityDelta,
			Reason:          utils.NewNullString("Menu capacity edited"),
			MovementDate:    menu.UpdatedAt,
		}
		if _, err := s.movementRepo.CreateMovement(tx, &movement); err != nil {
			return nil, fmt.Errorf("failed to record capacity adjustment for menu %d: %w", menuID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit menu update transaction: %w", err)
	}

	s.publish(events.ActionUpdated, menuID)
	return menu, nil
}

// DeleteMenu soft-deletes. Menus with live orders are refused so bills and
// order history never dangle.
func (s *menuService) DeleteMenu(menuID int64) error {
	count, err := s.orderRepo.CountActiveOrdersByMenu(menuID)
	if err != nil {
		return fmt.Errorf("failed to count orders for menu %d: %w", menuID, err)
	}
	if count > 0 {
		return fmt.Errorf("%w: %d active order(s)", ErrMenuInUse, count)
	}

	_, err = s.menuRepo.SoftDeleteMenu(s.db, menuID, time.Now())
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrMenuNotFound
		}
		return fmt.Errorf("failed to delete menu %d: %w", menuID, err)
	}

	s.publish(events.ActionDeleted, menuID)
	return nil
}

func (s *menuService) GetCapacityMovements(menuID int64) ([]models.CapacityMovement, error) {
	if _, err := s.menuRepo.GetMenuByID(menuID); err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuNotFound
		}
		return nil, fmt.Errorf("failed to fetch menu %d: %w", menuID, err)
	}
	movements, err := s.movementRepo.GetMovementsByMenuID(menuID)
	if err != nil {
		return nil, fmt.Errorf("failed to get capacity movements for menu %d: %w", menuID, err)
	}
	return movements, nil
}

func (s *menuService) publish(action string, id int64) {
	if s.publisher != nil {
		s.publisher.Publish(events.Change{Entity: events.EntityMenu, Action: action, ID: id, At: time.Now()})
	}
}
