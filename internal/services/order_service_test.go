package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mess_portal_backend/internal/models"
	"mess_portal_backend/pkg/utils"
)

type orderTestEnv struct {
	service   OrderService
	orders    *fakeOrderRepo
	menus     *fakeMenuRepo
	bills     *fakeBillRepo
	movements *fakeMovementRepo
	tx        *fakeTxBeginner
	publisher *recordingPublisher
}

func newOrderTestEnv() *orderTestEnv {
	env := &orderTestEnv{
		orders:    newFakeOrderRepo(),
		menus:     newFakeMenuRepo(),
		bills:     &fakeBillRepo{},
		movements: &fakeMovementRepo{},
		tx:        &fakeTxBeginner{},
		publisher: &recordingPublisher{},
	}
	env.service = NewOrderService(env.orders, env.menus, env.bills, env.movements, fakeExecutor{}, env.tx, env.publisher)
	return env
}

func openMenu(id int64, total, remaining int, price float64) models.Menu {
	return models.Menu{
		ID:                id,
		Title:             "Dal Tadka Thali",
		MenuDate:          time.Now().Truncate(24 * time.Hour),
		MealType:          "lunch",
		OrderDeadline:     time.Now().Add(2 * time.Hour),
		TotalQuantity:     total,
		RemainingQuantity: remaining,
		Price:             price,
		Status:            MenuStatusOpen,
	}
}

func TestPlaceOrder(t *testing.T) {
	env := newOrderTestEnv()
	env.menus.put(openMenu(1, 10, 10, 50))

	order, err := env.service.PlaceOrder(7, PlaceOrderRequest{MenuID: 1, Quantity: 3})
	require.NoError(t, err)

	assert.Equal(t, StatusPending, order.Status)
	assert.Equal(t, 3, order.Quantity)
	assert.Nil(t, order.PickupToken)

	// Placement does not reserve capacity.
	menu, err := env.menus.GetMenuByID(1)
	require.NoError(t, err)
	assert.Equal(t, 10, menu.RemainingQuantity)
}

func TestPlaceOrderClosedMenu(t *testing.T) {
	env := newOrderTestEnv()
	menu := openMenu(1, 10, 10, 50)
	menu.Status = MenuStatusClosed
	env.menus.put(menu)

	_, err := env.service.PlaceOrder(7, PlaceOrderRequest{MenuID: 1, Quantity: 1})
	assert.ErrorIs(t, err, ErrMenuClosed)
}

func TestPlaceOrderAfterDeadline(t *testing.T) {
	env := newOrderTestEnv()
	menu := openMenu(1, 10, 10, 50)
	menu.OrderDeadline = time.Now().Add(-time.Minute)
	env.menus.put(menu)

	_, err := env.service.PlaceOrder(7, PlaceOrderRequest{MenuID: 1, Quantity: 1})
	assert.ErrorIs(t, err, ErrDeadlinePassed)
}

func TestPlaceOrderExhaustedMenu(t *testing.T) {
	env := newOrderTestEnv()
	env.menus.put(openMenu(1, 10, 0, 50))

	_, err := env.service.PlaceOrder(7, PlaceOrderRequest{MenuID: 1, Quantity: 1})
	assert.ErrorIs(t, err, ErrInsufficientCapacity)
}

func TestPlaceOrderMissingMenu(t *testing.T) {
	env := newOrderTestEnv()

	_, err := env.service.PlaceOrder(7, PlaceOrderRequest{MenuID: 42, Quantity: 1})
	assert.ErrorIs(t, err, ErrMenuNotFound)
}

func TestPlaceOrderDuplicate(t *testing.T) {
	env := newOrderTestEnv()
	env.menus.put(openMenu(1, 10, 10, 50))

	_, err := env.service.PlaceOrder(7, PlaceOrderRequest{MenuID: 1, Quantity: 1})
	require.NoError(t, err)

	_, err = env.service.PlaceOrder(7, PlaceOrderRequest{MenuID: 1, Quantity: 2})
	assert.ErrorIs(t, err, ErrDuplicateOrder)
}

func TestPlaceOrderAgainAfterCancellation(t *testing.T) {
	env := newOrderTestEnv()
	env.menus.put(openMenu(1, 10, 10, 50))
	env.orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 1, Status: StatusCancelled})

	// A cancelled order does not block a fresh one.
	_, err := env.service.PlaceOrder(7, PlaceOrderRequest{MenuID: 1, Quantity: 2})
	assert.NoError(t, err)
}

func TestApproveOrder(t *testing.T) {
	env := newOrderTestEnv()
	env.menus.put(openMenu(1, 10, 10, 50))
	pending := env.orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 3, Status: StatusPending})

	order, err := env.service.ApproveOrder(pending.ID, ApproveOrderRequest{ApprovedQuantity: 2}, 99)
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, order.Status)
	assert.Equal(t, 2, order.Quantity)
	require.NotNil(t, order.PickupToken)
	assert.True(t, utils.IsValidPickupToken(*order.PickupToken))

	menu, err := env.menus.GetMenuByID(1)
	require.NoError(t, err)
	assert.Equal(t, 8, menu.RemainingQuantity)

	require.Len(t, env.bills.bills, 1)
	bill := env.bills.bills[0]
	assert.Equal(t, pending.ID, bill.OrderID)
	assert.Equal(t, 2, bill.Quantity)
	assert.Equal(t, 50.0, bill.UnitPrice)
	assert.Equal(t, 100.0, bill.TotalAmount)

	require.Len(t, env.movements.movements, 1)
	assert.Equal(t, MovementOrderApproval, env.movements.movements[0].MovementType)
	assert.Equal(t, -2, env.movements.movements[0].QuantityChanged)

	require.NotNil(t, env.tx.last)
	assert.True(t, env.tx.last.committed)
}

func TestApproveOrderQuantityAboveRequested(t *testing.T) {
	env := newOrderTestEnv()
	env.menus.put(openMenu(1, 10, 10, 50))
	pending := env.orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 3, Status: StatusPending})

	_, err := env.service.ApproveOrder(pending.ID, ApproveOrderRequest{ApprovedQuantity: 4}, 99)
	assert.ErrorIs(t, err, ErrInvalidQuantity)
}

func TestApproveOrderInsufficientCapacity(t *testing.T) {
	env := newOrderTestEnv()
	env.menus.put(openMenu(1, 10, 10, 50))
	first := env.orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 6, Status: StatusPending})
	second := env.orders.put(models.Order{UserID: 8, MenuID: 1, Quantity: 6, Status: StatusPending})

	_, err := env.service.ApproveOrder(first.ID, ApproveOrderRequest{ApprovedQuantity: 6}, 99)
	require.NoError(t, err)

	_, err = env.service.ApproveOrder(second.ID, ApproveOrderRequest{ApprovedQuantity: 6}, 99)
	assert.ErrorIs(t, err, ErrInsufficientCapacity)

	// The losing approval leaves no trace: order stays pending, no bill.
	got, err := env.orders.GetOrderByID(second.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Nil(t, got.PickupToken)
	assert.Len(t, env.bills.bills, 1)

	menu, err := env.menus.GetMenuByID(1)
	require.NoError(t, err)
	assert.Equal(t, 4, menu.RemainingQuantity)
}

func TestApproveOrderNotPending(t *testing.T) {
	env := newOrderTestEnv()
	env.menus.put(openMenu(1, 10, 10, 50))
	rejected := env.orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 1, Status: StatusRejected})

	_, err := env.service.ApproveOrder(rejected.ID, ApproveOrderRequest{ApprovedQuantity: 1}, 99)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestApproveOrderTokensAreUnique(t *testing.T) {
	env := newOrderTestEnv()
	env.menus.put(openMenu(1, 100, 100, 50))

	seen := map[string]bool{}
	for i := int64(1); i <= 20; i++ {
		pending := env.orders.put(models.Order{UserID: i, MenuID: 1, Quantity: 1, Status: StatusPending})
		order, err := env.service.ApproveOrder(pending.ID, ApproveOrderRequest{ApprovedQuantity: 1}, 99)
		require.NoError(t, err)
		require.NotNil(t, order.PickupToken)
		assert.False(t, seen[*order.PickupToken], "token %s minted twice", *order.PickupToken)
		seen[*order.PickupToken] = true
	}
}

func TestRejectOrder(t *testing.T) {
	env := newOrderTestEnv()
	pending := env.orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 2, Status: StatusPending})

	order, err := env.service.RejectOrder(pending.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusRejected, order.Status)
	assert.Nil(t, order.PickupToken)
	assert.Empty(t, env.bills.bills)
}

func TestRejectOrderNotPending(t *testing.T) {
	env := newOrderTestEnv()
	approved := env.orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 2, Status: StatusApproved})

	_, err := env.service.RejectOrder(approved.ID)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestWithdrawOrder(t *testing.T) {
	env := newOrderTestEnv()
	pending := env.orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 2, Status: StatusPending})

	require.NoError(t, env.service.WithdrawOrder(pending.ID, 7))

	got, err := env.orders.GetOrderByID(pending.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)
}

func TestWithdrawOrderWrongOwner(t *testing.T) {
	env := newOrderTestEnv()
	pending := env.orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 2, Status: StatusPending})

	err := env.service.WithdrawOrder(pending.ID, 8)
	assert.ErrorIs(t, err, ErrNotOrderOwner)
}

func TestWithdrawOrderAlreadyApproved(t *testing.T) {
	env := newOrderTestEnv()
	approved := env.orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 2, Status: StatusApproved})

	err := env.service.WithdrawOrder(approved.ID, 7)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestCancellationRoundTrip(t *testing.T) {
	env := newOrderTestEnv()
	env.menus.put(openMenu(1, 10, 10, 50))
	pending := env.orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 3, Status: StatusPending})

	_, err := env.service.ApproveOrder(pending.ID, ApproveOrderRequest{ApprovedQuantity: 3}, 99)
	require.NoError(t, err)

	_, err = env.service.RequestCancellation(pending.ID, 7)
	require.NoError(t, err)

	require.NoError(t, env.service.ApproveCancellation(pending.ID, 99))

	got, err := env.orders.GetOrderByID(pending.ID)
	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, got.Status)

	// Capacity returned in full.
	menu, err := env.menus.GetMenuByID(1)
	require.NoError(t, err)
	assert.Equal(t, 10, menu.RemainingQuantity)

	// Approval decrement plus cancellation restore.
	require.Len(t, env.movements.movements, 2)
	assert.Equal(t, MovementCancellationRestore, env.movements.movements[1].MovementType)
	assert.Equal(t, 3, env.movements.movements[1].QuantityChanged)

	// The bill survives the cancellation.
	assert.Len(t, env.bills.bills, 1)
}

func TestRequestCancellationWrongOwner(t *testing.T) {
	env := newOrderTestEnv()
	approved := env.orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 2, Status: StatusApproved})

	_, err := env.service.RequestCancellation(approved.ID, 8)
	assert.ErrorIs(t, err, ErrNotOrderOwner)
}

func TestRequestCancellationNotApproved(t *testing.T) {
	env := newOrderTestEnv()
	pending := env.orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 2, Status: StatusPending})

	_, err := env.service.RequestCancellation(pending.ID, 7)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRejectCancellationKeepsOrderIntact(t *testing.T) {
	env := newOrderTestEnv()
	env.menus.put(openMenu(1, 10, 10, 50))
	pending := env.orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 2, Status: StatusPending})

	approved, err := env.service.ApproveOrder(pending.ID, ApproveOrderRequest{ApprovedQuantity: 2}, 99)
	require.NoError(t, err)
	token := *approved.PickupToken

	_, err = env.service.RequestCancellation(pending.ID, 7)
	require.NoError(t, err)

	order, err := env.service.RejectCancellation(pending.ID)
	require.NoError(t, err)

	assert.Equal(t, StatusApproved, order.Status)
	require.NotNil(t, order.PickupToken)
	assert.Equal(t, token, *order.PickupToken)

	// Capacity stays reserved.
	menu, err := env.menus.GetMenuByID(1)
	require.NoError(t, err)
	assert.Equal(t, 8, menu.RemainingQuantity)
}

func TestApproveCancellationRequiresRequest(t *testing.T) {
	env := newOrderTestEnv()
	approved := env.orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 2, Status: StatusApproved})

	err := env.service.ApproveCancellation(approved.ID, 99)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionOnMissingOrder(t *testing.T) {
	env := newOrderTestEnv()

	_, err := env.service.RejectOrder(404)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
