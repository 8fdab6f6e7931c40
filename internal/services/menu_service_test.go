package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mess_portal_backend/internal/models"
)

type menuTestEnv struct {
	service   MenuService
	menus     *fakeMenuRepo
	orders    *fakeOrderRepo
	movements *fakeMovementRepo
	tx        *fakeTxBeginner
}

func newMenuTestEnv() *menuTestEnv {
	env := &menuTestEnv{
		menus:     newFakeMenuRepo(),
		orders:    newFakeOrderRepo(),
		movements: &fakeMovementRepo{},
		tx:        &fakeTxBeginner{},
	}
	env.service = NewMenuService(env.menus, env.orders, env.movements, fakeExecutor{}, env.tx, &recordingPublisher{})
	return env
}

func validCreateMenuRequest() CreateMenuRequest {
	return CreateMenuRequest{
		Title:         "Paneer Butter Masala Thali",
		MenuDate:      "2026-09-01",
		MealType:      "lunch",
		OrderDeadline: time.Now().Add(24 * time.Hour).Format(time.RFC3339),
		TotalQuantity: 40,
		Price:         65,
	}
}

func TestCreateMenu(t *testing.T) {
	env := newMenuTestEnv()

	menu, err := env.service.CreateMenu(validCreateMenuRequest(), 99)
	require.NoError(t, err)

	assert.NotZero(t, menu.ID)
	assert.Equal(t, MenuStatusOpen, menu.Status)
	assert.Equal(t, 40, menu.TotalQuantity)
	assert.Equal(t, 40, menu.RemainingQuantity)
	require.NotNil(t, menu.CreatedBy)
	assert.Equal(t, int64(99), *menu.CreatedBy)
}

func TestCreateMenuUnknownMealType(t *testing.T) {
	env := newMenuTestEnv()
	req := validCreateMenuRequest()
	req.MealType = "brunch"

	_, err := env.service.CreateMenu(req, 99)
	assert.ErrorIs(t, err, ErrMenuValidation)
}

func TestCreateMenuBadDate(t *testing.T) {
	env := newMenuTestEnv()
	req := validCreateMenuRequest()
	req.MenuDate = "01-09-2026"

	_, err := env.service.CreateMenu(req, 99)
	assert.ErrorIs(t, err, ErrDateFormat)
}

func TestUpdateMenuCapacityIncrease(t *testing.T) {
	env := newMenuTestEnv()
	env.menus.put(openMenu(1, 10, 4, 50))

	newTotal := 15
	menu, err := env.service.UpdateMenu(1, UpdateMenuRequest{TotalQuantity: &newTotal}, 99)
	require.NoError(t, err)

	assert.Equal(t, 15, menu.TotalQuantity)
	assert.Equal(t, 9, menu.RemainingQuantity)

	require.Len(t, env.movements.movements, 1)
	assert.Equal(t, MovementAdminAdjustment, env.movements.movements[0].MovementType)
	assert.Equal(t, 5, env.movements.movements[0].QuantityChanged)
	assert.True(t, env.tx.last.committed)
}

func TestUpdateMenuCapacityCutBelowSold(t *testing.T) {
	env := newMenuTestEnv()
	env.menus.put(openMenu(1, 10, 2, 50))

	// Cutting total by more than the remaining stock floors remaining at zero.
	newTotal := 5
	menu, err := env.service.UpdateMenu(1, UpdateMenuRequest{TotalQuantity: &newTotal}, 99)
	require.NoError(t, err)

	assert.Equal(t, 5, menu.TotalQuantity)
	assert.Equal(t, 0, menu.RemainingQuantity)
}

func TestUpdateMenuNoCapacityChangeNoMovement(t *testing.T) {
	env := newMenuTestEnv()
	env.menus.put(openMenu(1, 10, 4, 50))

	title := "Updated title"
	_, err := env.service.UpdateMenu(1, UpdateMenuRequest{Title: &title}, 99)
	require.NoError(t, err)

	assert.Empty(t, env.movements.movements)
}

func TestUpdateMenuMissing(t *testing.T) {
	env := newMenuTestEnv()

	title := "x"
	_, err := env.service.UpdateMenu(404, UpdateMenuRequest{Title: &title}, 99)
	assert.ErrorIs(t, err, ErrMenuNotFound)
}

func TestDeleteMenu(t *testing.T) {
	env := newMenuTestEnv()
	env.menus.put(openMenu(1, 10, 10, 50))

	require.NoError(t, env.service.DeleteMenu(1))

	_, err := env.service.GetMenuByID(1)
	assert.ErrorIs(t, err, ErrMenuNotFound)
}

func TestDeleteMenuWithActiveOrders(t *testing.T) {
	env := newMenuTestEnv()
	env.menus.put(openMenu(1, 10, 10, 50))
	env.orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 1, Status: StatusPending})

	err := env.service.DeleteMenu(1)
	assert.ErrorIs(t, err, ErrMenuInUse)
}

func TestDeleteMenuOnlyCancelledOrders(t *testing.T) {
	env := newMenuTestEnv()
	env.menus.put(openMenu(1, 10, 10, 50))
	env.orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 1, Status: StatusCancelled})

	assert.NoError(t, env.service.DeleteMenu(1))
}
