package services

import (
	"errors"
	"fmt"
	"time"

	"mess_portal_backend/internal/events"
	"mess_portal_backend/internal/metrics"
	"mess_portal_backend/internal/models"
	"mess_portal_backend/internal/repositories"
	"mess_portal_backend/pkg/utils"
)

// Custom Errors
var (
	ErrMenuNotFound         = errors.New("menu not found")
	ErrOrderNotFound        = errors.New("order not found")
	ErrMenuClosed           = errors.New("menu is closed for ordering")
	ErrDeadlinePassed       = errors.New("order deadline has passed")
	ErrInsufficientCapacity = errors.New("insufficient remaining capacity")
	ErrDuplicateOrder       = errors.New("an active order already exists for this menu")
	ErrInvalidQuantity      = errors.New("invalid order quantity")
	ErrInvalidTransition    = errors.New("order status does not permit this operation")
	ErrNotOrderOwner        = errors.New("order belongs to a different user")
	ErrTokenMint            = errors.New("failed to mint a unique pickup token")
)

// OrderStatus constants
const (
	StatusPending               = "pending"
	StatusApproved              = "approved"
	StatusRejected              = "rejected"
	StatusCancellationRequested = "cancellation_requested"
	StatusCancelled             = "cancelled"
)

// Capacity movement types
const (
	MovementOrderApproval       = "order_approval"
	MovementCancellationRestore = "cancellation_restore"
	MovementAdminAdjustment     = "admin_adjustment"
)

const maxTokenMintAttempts = 5

// --- Data Transfer Objects (DTOs) ---

// PlaceOrderRequest is used by students to request an order against a menu.
type PlaceOrderRequest struct {
	MenuID   int64 `json:"menu_id" binding:"required"`
	Quantity int   `json:"quantity" binding:"required,gt=0"`
}

// ApproveOrderRequest is used by admins to approve a pending order,
// optionally for fewer items than requested.
type ApproveOrderRequest struct {
	ApprovedQuantity int `json:"approved_quantity" binding:"required,gt=0"`
}

// --- OrderService Interface ---
type OrderService interface {
	PlaceOrder(userID int64, req PlaceOrderRequest) (*models.Order, error)
	GetOrders(filters models.OrderFilters) ([]models.Order, int, error) // orders, total count, error
	GetMyOrders(userID int64) ([]models.Order, error)
	GetUserOrderForMenu(userID, menuID int64) (*models.Order, error)

	ApproveOrder(orderID int64, req ApproveOrderRequest, actorID int64) (*models.Order, error)
	RejectOrder(orderID int64) (*models.Order, error)
	WithdrawOrder(orderID, userID int64) error
	RequestCancellation(orderID, userID int64) (*models.Order, error)
	ApproveCancellation(orderID, actorID int64) error
	RejectCancellation(orderID int64) (*models.Order, error)
}

// --- orderService Implementation ---
type orderService struct {
	orderRepo    repositories.OrderRepository
	menuRepo     repositories.MenuRepository
	billRepo     repositories.BillRepository
	movementRepo repositories.CapacityMovementRepository
	db           repositories.SQLExecutor // for single-statement writes
	tx           repositories.TxBeginner  // for multi-statement transitions
	publisher    events.Publisher
}

// NewOrderService creates a new instance of OrderService.
func NewOrderService(
	or repositories.OrderRepository,
	mr repositories.MenuRepository,
	br repositories.BillRepository,
	cmr repositories.CapacityMovementRepository,
	db repositories.SQLExecutor,
	tx repositories.TxBeginner,
	publisher events.Publisher,
) OrderService {
	return &orderService{
		orderRepo:    or,
		menuRepo:     mr,
		billRepo:     br,
		movementRepo: cmr,
		db:           db,
		tx:           tx,
		publisher:    publisher,
	}
}

// --- Method Implementations ---

// PlaceOrder inserts a pending order after the placement checks pass.
// Capacity is NOT reserved here: pending requests may over-subscribe a menu,
// bounded by admin arbitration at approval time.
func (s *orderService) PlaceOrder(userID int64, req PlaceOrderRequest) (*models.Order, error) {
	if req.Quantity < 1 {
		return nil, ErrInvalidQuantity
	}

	menu, err := s.menuRepo.GetMenuByID(req.MenuID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuNotFound
		}
		return nil, fmt.Errorf("failed to fetch menu for order placement: %w", err)
	}

	if menu.Status != MenuStatusOpen {
		return nil, ErrMenuClosed
	}
	if time.Now().After(menu.OrderDeadline) {
		return nil, ErrDeadlinePassed
	}
	if req.Quantity > menu.RemainingQuantity {
		return nil, fmt.Errorf("%w: requested %d, available %d", ErrInsufficientCapacity, req.Quantity, menu.RemainingQuantity)
	}

	_, err = s.orderRepo.GetActiveOrderByUserAndMenu(userID, req.MenuID)
	if err == nil {
		return nil, ErrDuplicateOrder
	}
	if !errors.Is(err, repositories.ErrNotFound) {
		return nil, fmt.Errorf("failed to check for existing order: %w", err)
	}

	order := models.Order{
		UserID:    userID,
		MenuID:    req.MenuID,
		Quantity:  req.Quantity,
		Status:    StatusPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	orderID, err := s.orderRepo.CreateOrder(s.db, &order)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			// Lost the race against another placement by the same user.
			return nil, ErrDuplicateOrder
		}
		return nil, fmt.Errorf("failed to create order record: %w", err)
	}
	order.ID = orderID
	order.Menu = menu

	metrics.OrdersPlaced.Inc()
	s.publish(events.EntityOrder, events.ActionCreated, orderID)
	return &order, nil
}

func (s *orderService) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	orders, totalCount, err := s.orderRepo.GetOrders(filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to get orders: %w", err)
	}
	return orders, totalCount, nil
}

func (s *orderService) GetMyOrders(userID int64) ([]models.Order, error) {
	orders, err := s.orderRepo.GetOrdersByUserID(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get orders for user: %w", err)
	}
	return orders, nil
}

func (s *orderService) GetUserOrderForMenu(userID, menuID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetActiveOrderByUserAndMenu(userID, menuID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order for menu: %w", err)
	}
	return order, nil
}

// ApproveOrder is the single side-effect-bearing transition: capacity
// decrement, token mint, order update, bill insert and capacity movement all
// commit or roll back together. An observer can never see an approved order
// without its token and bill.
func (s *orderService) ApproveOrder(orderID int64, req ApproveOrderRequest, actorID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch order for approval: %w", err)
	}
	if order.Status != StatusPending {
		return nil, fmt.Errorf("%w: status is %s, expected %s", ErrInvalidTransition, order.Status, StatusPending)
	}

	approvedQty := req.ApprovedQuantity
	if approvedQty < 1 || approvedQty > order.Quantity {
		return nil, fmt.Errorf("%w: approved quantity must be between 1 and %d", ErrInvalidQuantity, order.Quantity)
	}

	menu, err := s.menuRepo.GetMenuByID(order.MenuID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrMenuNotFound
		}
		return nil, fmt.Errorf("failed to fetch menu for approval: %w", err)
	}

	token, err := s.mintPickupToken()
	if err != nil {
		return nil, err
	}

	tx, err := s.tx.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to start approval transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()

	rowsAffected, err := s.menuRepo.DecrementRemaining(tx, order.MenuID, approvedQty, now)
	if err != nil {
		return nil, fmt.Errorf("failed to reserve capacity for order %d: %w", orderID, err)
	}
	if rowsAffected == 0 {
		metrics.CapacityConflicts.Inc()
		return nil, fmt.Errorf("%w: menu %d cannot cover %d item(s)", ErrInsufficientCapacity, order.MenuID, approvedQty)
	}

	rowsAffected, err = s.orderRepo.ApproveOrder(tx, orderID, approvedQty, token, now)
	if err != nil {
		if errors.Is(err, repositories.ErrDuplicateKey) {
			return nil, ErrTokenMint
		}
		return nil, fmt.Errorf("failed to approve order %d: %w", orderID, err)
	}
	if rowsAffected == 0 {
		// Lost a race against a concurrent transition on the same order.
		return nil, fmt.Errorf("%w: order %d is no longer pending", ErrInvalidTransition, orderID)
	}

	bill := models.Bill{
		OrderID:     orderID,
		UserID:      order.UserID,
		MenuID:      order.MenuID,
		Quantity:    approvedQty,
		UnitPrice:   menu.Price,
		TotalAmount: float64(approvedQty) * menu.Price,
		BillDate:    now,
	}
	if _, err := s.billRepo.CreateBill(tx, &bill); err != nil {
		return nil, fmt.Errorf("failed to write bill for order %d: %w", orderID, err)
	}

	movement := models.CapacityMovement{
		MenuID:          order.MenuID,
		OrderID:         &orderID,
		ActorID:         &actorID,
		MovementType:    MovementOrderApproval,
		QuantityChanged: -approvedQty,
		Reason:          utils.NewNullString(fmt.Sprintf("Order %d approved", orderID)),
		MovementDate:    now,
	}
	if _, err := s.movementRepo.CreateMovement(tx, &movement); err != nil {
		return nil, fmt.Errorf("failed to record capacity movement for order %d: %w", orderID, err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit approval transaction: %w", err)
	}

	metrics.OrdersApproved.Inc()
	s.publish(events.EntityOrder, events.ActionUpdated, orderID)
	s.publish(events.EntityMenu, events.ActionUpdated, order.MenuID)
	s.publish(events.EntityBill, events.ActionCreated, bill.ID)

	order.Status = StatusApproved
	order.Quantity = approvedQty
	order.PickupToken = &token
	order.UpdatedAt = now
	return order, nil
}

func (s *orderService) RejectOrder(orderID int64) (*models.Order, error) {
	if err := s.transition(orderID, StatusPending, StatusRejected); err != nil {
		return nil, err
	}

	metrics.OrdersRejected.Inc()
	s.publish(events.EntityOrder, events.ActionUpdated, orderID)
	return s.orderRepo.GetOrderByID(orderID)
}

// WithdrawOrder lets a student take back an order that has not been decided yet.
func (s *orderService) WithdrawOrder(orderID, userID int64) error {
	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to fetch order for withdrawal: %w", err)
	}
	if order.UserID != userID {
		return ErrNotOrderOwner
	}

	if err := s.transition(orderID, StatusPending, StatusCancelled); err != nil {
		return err
	}
	s.publish(events.EntityOrder, events.ActionUpdated, orderID)
	return nil
}

func (s *orderService) RequestCancellation(orderID, userID int64) (*models.Order, error) {
	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to fetch order for cancellation request: %w", err)
	}
	if order.UserID != userID {
		return nil, ErrNotOrderOwner
	}

	if err := s.transition(orderID, StatusApproved, StatusCancellationRequested); err != nil {
		return nil, err
	}
	s.publish(events.EntityOrder, events.ActionUpdated, orderID)
	return s.orderRepo.GetOrderByID(orderID)
}

// ApproveCancellation tombstones the order and restores the menu's capacity.
// The order row is kept so the bill's reference stays intact.
func (s *orderService) ApproveCancellation(orderID, actorID int64) error {
	order, err := s.orderRepo.GetOrderByID(orderID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return ErrOrderNotFound
		}
		return fmt.Errorf("failed to fetch order for cancellation approval: %w", err)
	}
	if order.Status != StatusCancellationRequested {
		return fmt.Errorf("%w: status is %s, expected %s", ErrInvalidTransition, order.Status, StatusCancellationRequested)
	}

	tx, err := s.tx.Begin()
	if err != nil {
		return fmt.Errorf("failed to start cancellation transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()

	rowsAffected, err := s.orderRepo.UpdateStatusIf(tx, orderID, StatusCancellationRequested, StatusCancelled, now)
	if err != nil {
		return fmt.Errorf("failed to cancel order %d: %w", orderID, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: order %d is no longer awaiting cancellation", ErrInvalidTransition, orderID)
	}

	if _, err := s.menuRepo.RestoreRemaining(tx, order.MenuID, order.Quantity, now); err != nil {
		return fmt.Errorf("failed to restore capacity for menu %d: %w", order.MenuID, err)
	}

	movement := models.CapacityMovement{
		MenuID:          order.MenuID,
		OrderID:         &orderID,
		ActorID:         &actorID,
		MovementType:    MovementCancellationRestore,
		QuantityChanged: order.Quantity,
		Reason:          utils.NewNullString(fmt.Sprintf("Order %d cancelled", orderID)),
		MovementDate:    now,
	}
	if _, err := s.movementRepo.CreateMovement(tx, &movement); err != nil {
		return fmt.Errorf("failed to record capacity movement for cancellation of order %d: %w", orderID, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cancellation transaction: %w", err)
	}

	s.publish(events.EntityOrder, events.ActionUpdated, orderID)
	s.publish(events.EntityMenu, events.ActionUpdated, order.MenuID)
	return nil
}

// RejectCancellation denies the request in place: the order returns to
// approved with its quantity, pickup token and bill untouched.
func (s *orderService) RejectCancellation(orderID int64) (*models.Order, error) {
	if err := s.transition(orderID, StatusCancellationRequested, StatusApproved); err != nil {
		return nil, err
	}
	s.publish(events.EntityOrder, events.ActionUpdated, orderID)
	return s.orderRepo.GetOrderByID(orderID)
}

// transition performs a guarded single-statement status change and translates
// a zero row count into not-found or invalid-transition.
func (s *orderService) transition(orderID int64, fromStatus, toStatus string) error {
	rowsAffected, err := s.orderRepo.UpdateStatusIf(s.db, orderID, fromStatus, toStatus, time.Now())
	if err != nil {
		return fmt.Errorf("failed to update order %d status: %w", orderID, err)
	}
	if rowsAffected == 0 {
		if _, err := s.orderRepo.GetOrderByID(orderID); err != nil {
			if errors.Is(err, repositories.ErrNotFound) {
				return ErrOrderNotFound
			}
			return fmt.Errorf("failed to fetch order %d: %w", orderID, err)
		}
		return fmt.Errorf("%w: expected status %s", ErrInvalidTransition, fromStatus)
	}
	return nil
}

// mintPickupToken generates a token and pre-checks it against live orders.
// The partial unique index remains the final arbiter inside the transaction.
func (s *orderService) mintPickupToken() (string, error) {
	for attempt := 0; attempt < maxTokenMintAttempts; attempt++ {
		token, err := utils.GeneratePickupToken()
		if err != nil {
			return "", fmt.Errorf("%w: %v", ErrTokenMint, err)
		}
		exists, err := s.orderRepo.TokenExists(token)
		if err != nil {
			return "", fmt.Errorf("failed to check pickup token uniqueness: %w", err)
		}
		if !exists {
			return token, nil
		}
	}
	return "", ErrTokenMint
}

func (s *orderService) publish(entity, action string, id int64) {
	if s.publisher != nil {
		s.publisher.Publish(events.Change{Entity: entity, Action: action, ID: id, At: time.Now()})
	}
}
