package services

import (
	"database/sql"
	"strings"
	"sync"
	"time"

	"mess_portal_backend/internal/events"
	"mess_portal_backend/internal/models"
	"mess_portal_backend/internal/repositories"
)

// In-memory repository fakes. They ignore the executor argument; transaction
// boundaries are asserted through fakeTx instead.

type fakeExecutor struct{}

func (fakeExecutor) Exec(query string, args ...interface{}) (sql.Result, error) { return nil, nil }
func (fakeExecutor) QueryRow(query string, args ...interface{}) *sql.Row        { return nil }
func (fakeExecutor) Query(query string, args ...interface{}) (*sql.Rows, error) { return nil, nil }

type fakeTx struct {
	fakeExecutor
	committed  bool
	rolledBack bool
}

func (t *fakeTx) Commit() error { t.committed = true; return nil }

func (t *fakeTx) Rollback() error {
	if !t.committed {
		t.rolledBack = true
	}
	return nil
}

type fakeTxBeginner struct {
	last *fakeTx
}

func (b *fakeTxBeginner) Begin() (repositories.Tx, error) {
	b.last = &fakeTx{}
	return b.last, nil
}

type recordingPublisher struct {
	mu      sync.Mutex
	changes []events.Change
}

func (p *recordingPublisher) Publish(change events.Change) {
	p.mu.Lock()
	p.changes = append(p.changes, change)
	p.mu.Unlock()
}

// --- order repository fake ---

type fakeOrderRepo struct {
	orders   map[int64]*models.Order
	nextID   int64
	statRows []models.OrderStatRow
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: make(map[int64]*models.Order)}
}

func (r *fakeOrderRepo) put(o models.Order) *models.Order {
	if o.ID == 0 {
		r.nextID++
		o.ID = r.nextID
	} else if o.ID > r.nextID {
		r.nextID = o.ID
	}
	stored := o
	r.orders[o.ID] = &stored
	return &stored
}

func (r *fakeOrderRepo) CreateOrder(_ repositories.SQLExecutor, order *models.Order) (int64, error) {
	for _, o := range r.orders {
		if o.UserID == order.UserID && o.MenuID == order.MenuID && o.Status != StatusCancelled {
			return 0, repositories.ErrDuplicateKey
		}
	}
	stored := r.put(*order)
	order.ID = stored.ID
	return stored.ID, nil
}

func (r *fakeOrderRepo) GetOrderByID(orderID int64) (*models.Order, error) {
	o, ok := r.orders[orderID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) GetActiveOrderByUserAndMenu(userID, menuID int64) (*models.Order, error) {
	for _, o := range r.orders {
		if o.UserID == userID && o.MenuID == menuID && o.Status != StatusCancelled {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeOrderRepo) GetOrders(filters models.OrderFilters) ([]models.Order, int, error) {
	matched := []models.Order{}
	for _, o := range r.orders {
		if filters.UserID != nil && o.UserID != *filters.UserID {
			continue
		}
		if filters.MenuID != nil && o.MenuID != *filters.MenuID {
			continue
		}
		if filters.Status != nil && *filters.Status != "" && o.Status != *filters.Status {
			continue
		}
		matched = append(matched, *o)
	}
	return matched, len(matched), nil
}

func (r *fakeOrderRepo) GetOrdersByUserID(userID int64) ([]models.Order, error) {
	orders := []models.Order{}
	for _, o := range r.orders {
		if o.UserID == userID && o.Status != StatusCancelled {
			orders = append(orders, *o)
		}
	}
	return orders, nil
}

func (r *fakeOrderRepo) CountActiveOrdersByMenu(menuID int64) (int, error) {
	count := 0
	for _, o := range r.orders {
		if o.MenuID == menuID && o.Status != StatusCancelled {
			count++
		}
	}
	return count, nil
}

func (r *fakeOrderRepo) UpdateStatusIf(_ repositories.SQLExecutor, orderID int64, fromStatus, toStatus string, updatedAt time.Time) (int64, error) {
	o, ok := r.orders[orderID]
	if !ok || o.Status != fromStatus {
		return 0, nil
	}
	o.Status = toStatus
	o.UpdatedAt = updatedAt
	return 1, nil
}

func (r *fakeOrderRepo) ApproveOrder(_ repositories.SQLExecutor, orderID int64, approvedQuantity int, pickupToken string, updatedAt time.Time) (int64, error) {
	for _, o := range r.orders {
		if o.ID != orderID && o.PickupToken != nil && *o.PickupToken == pickupToken && o.Status != StatusCancelled {
			return 0, repositories.ErrDuplicateKey
		}
	}
	o, ok := r.orders[orderID]
	if !ok || o.Status != StatusPending {
		return 0, nil
	}
	o.Status = StatusApproved
	o.Quantity = approvedQuantity
	o.PickupToken = &pickupToken
	o.UpdatedAt = updatedAt
	return 1, nil
}

func (r *fakeOrderRepo) GetApprovedOrderByToken(token string) (*models.Order, error) {
	for _, o := range r.orders {
		if o.Status == StatusApproved && o.PickupToken != nil && *o.PickupToken == token {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeOrderRepo) TokenExists(token string) (bool, error) {
	for _, o := range r.orders {
		if o.PickupToken != nil && strings.EqualFold(*o.PickupToken, token) && o.Status != StatusCancelled {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeOrderRepo) MarkFulfilled(_ repositories.SQLExecutor, orderID int64, fulfilledAt time.Time) (int64, error) {
	o, ok := r.orders[orderID]
	if !ok || o.Status != StatusApproved || o.IsFulfilled {
		return 0, nil
	}
	o.IsFulfilled = true
	o.FulfilledAt = &fulfilledAt
	o.UpdatedAt = fulfilledAt
	return 1, nil
}

func (r *fakeOrderRepo) GetStatRows() ([]models.OrderStatRow, error) {
	return r.statRows, nil
}

// --- menu repository fake ---

type fakeMenuRepo struct {
	menus  map[int64]*models.Menu
	nextID int64
}

func newFakeMenuRepo() *fakeMenuRepo {
	return &fakeMenuRepo{menus: make(map[int64]*models.Menu)}
}

func (r *fakeMenuRepo) put(m models.Menu) *models.Menu {
	if m.ID == 0 {
		r.nextID++
		m.ID = r.nextID
	} else if m.ID > r.nextID {
		r.nextID = m.ID
	}
	stored := m
	r.menus[m.ID] = &stored
	return &stored
}

func (r *fakeMenuRepo) CreateMenu(_ repositories.SQLExecutor, menu *models.Menu) (int64, error) {
	stored := r.put(*menu)
	menu.ID = stored.ID
	return stored.ID, nil
}

func (r *fakeMenuRepo) GetMenuByID(menuID int64) (*models.Menu, error) {
	m, ok := r.menus[menuID]
	if !ok || m.DeletedAt != nil {
		return nil, repositories.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (r *fakeMenuRepo) GetMenus(filters models.MenuFilters) ([]models.Menu, error) {
	menus := []models.Menu{}
	for _, m := range r.menus {
		if m.DeletedAt != nil {
			continue
		}
		if filters.MealType != nil && m.MealType != *filters.MealType {
			continue
		}
		if filters.Status != nil && m.Status != *filters.Status {
			continue
		}
		menus = append(menus, *m)
	}
	return menus, nil
}

func (r *fakeMenuRepo) UpdateMenu(_ repositories.SQLExecutor, menu *models.Menu) error {
	if _, ok := r.menus[menu.ID]; !ok {
		return repositories.ErrNotFound
	}
	cp := *menu
	r.menus[menu.ID] = &cp
	return nil
}

func (r *fakeMenuRepo) SoftDeleteMenu(_ repositories.SQLExecutor, menuID int64, deletedAt time.Time) (int64, error) {
	m, ok := r.menus[menuID]
	if !ok || m.DeletedAt != nil {
		return 0, repositories.ErrNotFound
	}
	m.DeletedAt = &deletedAt
	m.Status = MenuStatusClosed
	return 1, nil
}

func (r *fakeMenuRepo) DecrementRemaining(_ repositories.SQLExecutor, menuID int64, quantity int, updatedAt time.Time) (int64, error) {
	m, ok := r.menus[menuID]
	if !ok || m.DeletedAt != nil || m.RemainingQuantity < quantity {
		return 0, nil
	}
	m.RemainingQuantity -= quantity
	m.UpdatedAt = updatedAt
	return 1, nil
}

func (r *fakeMenuRepo) RestoreRemaining(_ repositories.SQLExecutor, menuID int64, quantity int, updatedAt time.Time) (int64, error) {
	m, ok := r.menus[menuID]
	if !ok {
		return 0, nil
	}
	m.RemainingQuantity += quantity
	if m.RemainingQuantity > m.TotalQuantity {
		m.RemainingQuantity = m.TotalQuantity
	}
	m.UpdatedAt = updatedAt
	return 1, nil
}

// --- bill repository fake ---

type fakeBillRepo struct {
	bills  []models.Bill
	totals *models.OrderTotals
}

func (r *fakeBillRepo) CreateBill(_ repositories.SQLExecutor, bill *models.Bill) (int64, error) {
	bill.ID = int64(len(r.bills) + 1)
	r.bills = append(r.bills, *bill)
	return bill.ID, nil
}

func (r *fakeBillRepo) GetBillsByUserID(userID int64) ([]models.Bill, error) {
	bills := []models.Bill{}
	for _, b := range r.bills {
		if b.UserID == userID {
			bills = append(bills, b)
		}
	}
	return bills, nil
}

func (r *fakeBillRepo) GetBills() ([]models.Bill, error) {
	return append([]models.Bill{}, r.bills...), nil
}

func (r *fakeBillRepo) GetOrderTotals(userID int64) (*models.OrderTotals, error) {
	if r.totals != nil {
		return r.totals, nil
	}
	return &models.OrderTotals{}, nil
}

// --- capacity movement repository fake ---

type fakeMovementRepo struct {
	movements []models.CapacityMovement
}

func (r *fakeMovementRepo) CreateMovement(_ repositories.SQLExecutor, movement *models.CapacityMovement) (int64, error) {
	movement.ID = int64(len(r.movements) + 1)
	r.movements = append(r.movements, *movement)
	return movement.ID, nil
}

func (r *fakeMovementRepo) GetMovementsByMenuID(menuID int64) ([]models.CapacityMovement, error) {
	movements := []models.CapacityMovement{}
	for _, m := range r.movements {
		if m.MenuID == menuID {
			movements = append(movements, m)
		}
	}
	return movements, nil
}

// --- auth repository fake ---

type fakeAuthRepo struct {
	users  map[int64]*models.User
	nextID int64
}

func newFakeAuthRepo() *fakeAuthRepo {
	return &fakeAuthRepo{users: make(map[int64]*models.User)}
}

func (r *fakeAuthRepo) CreateUser(_ repositories.SQLExecutor, user *models.User) (int64, error) {
	for _, u := range r.users {
		if u.Email == user.Email {
			return 0, repositories.ErrDuplicateKey
		}
	}
	r.nextID++
	stored := *user
	stored.ID = r.nextID
	r.users[stored.ID] = &stored
	user.ID = stored.ID
	return stored.ID, nil
}

func (r *fakeAuthRepo) GetUserByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repositories.ErrNotFound
}

func (r *fakeAuthRepo) GetUserByID(userID int64) (*models.User, error) {
	u, ok := r.users[userID]
	if !ok {
		return nil, repositories.ErrNotFound
	}
	cp := *u
	return &cp, nil
}
