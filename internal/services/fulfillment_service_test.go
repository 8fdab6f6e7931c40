package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mess_portal_backend/internal/models"
)

func newFulfillmentTestEnv() (FulfillmentService, *fakeOrderRepo) {
	orders := newFakeOrderRepo()
	service := NewFulfillmentService(orders, fakeExecutor{}, &recordingPublisher{})
	return service, orders
}

func TestLookupByToken(t *testing.T) {
	service, orders := newFulfillmentTestEnv()
	token := "A1B2C3D4"
	orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 2, Status: StatusApproved, PickupToken: &token})

	order, err := service.LookupByToken("A1B2C3D4")
	require.NoError(t, err)
	assert.Equal(t, int64(7), order.UserID)
}

func TestLookupByTokenNormalizesInput(t *testing.T) {
	service, orders := newFulfillmentTestEnv()
	token := "A1B2C3D4"
	orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 2, Status: StatusApproved, PickupToken: &token})

	order, err := service.LookupByToken("  a1b2c3d4 ")
	require.NoError(t, err)
	assert.Equal(t, token, *order.PickupToken)
}

func TestLookupByTokenMalformed(t *testing.T) {
	service, _ := newFulfillmentTestEnv()

	for _, input := range []string{"", "short", "A1B2C3D4E5", "A1B2C3D!"} {
		_, err := service.LookupByToken(input)
		assert.ErrorIs(t, err, ErrTokenNotFound, "input %q", input)
	}
}

func TestLookupByTokenIgnoresPendingOrders(t *testing.T) {
	service, orders := newFulfillmentTestEnv()
	token := "A1B2C3D4"
	orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 2, Status: StatusPending, PickupToken: &token})

	_, err := service.LookupByToken(token)
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestLookupByTokenUnknown(t *testing.T) {
	service, _ := newFulfillmentTestEnv()

	_, err := service.LookupByToken("ZZZZ9999")
	assert.ErrorIs(t, err, ErrTokenNotFound)
}

func TestMarkFulfilled(t *testing.T) {
	service, orders := newFulfillmentTestEnv()
	token := "A1B2C3D4"
	approved := orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 2, Status: StatusApproved, PickupToken: &token})

	order, err := service.MarkFulfilled(approved.ID)
	require.NoError(t, err)
	assert.True(t, order.IsFulfilled)
	require.NotNil(t, order.FulfilledAt)
	assert.WithinDuration(t, time.Now(), *order.FulfilledAt, time.Minute)
}

func TestMarkFulfilledTwice(t *testing.T) {
	service, orders := newFulfillmentTestEnv()
	token := "A1B2C3D4"
	approved := orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 2, Status: StatusApproved, PickupToken: &token})

	_, err := service.MarkFulfilled(approved.ID)
	require.NoError(t, err)

	_, err = service.MarkFulfilled(approved.ID)
	assert.ErrorIs(t, err, ErrAlreadyFulfilled)
}

func TestMarkFulfilledNotApproved(t *testing.T) {
	service, orders := newFulfillmentTestEnv()
	pending := orders.put(models.Order{UserID: 7, MenuID: 1, Quantity: 2, Status: StatusPending})

	_, err := service.MarkFulfilled(pending.ID)
	assert.ErrorIs(t, err, ErrOrderNotApproved)
}

func TestMarkFulfilledMissingOrder(t *testing.T) {
	service, _ := newFulfillmentTestEnv()

	_, err := service.MarkFulfilled(404)
	assert.ErrorIs(t, err, ErrOrderNotFound)
}
