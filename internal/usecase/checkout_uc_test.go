package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/dailybrew/internal/domain"
)

type fakeOrders struct {
	createErr error
	lastDraft domain.OrderDraft
	calls     int
}

func (f *fakeOrders) CreateOrder(_ context.Context, d domain.OrderDraft) (string, error) {
	f.calls++
	f.lastDraft = d
	if f.createErr != nil {
		return "", f.createErr
	}
	return "ord-123", nil
}

func (f *fakeOrders) ListOrders(context.Context) ([]domain.Order, error) { return nil, nil }

func (f *fakeOrders) UpdateOrderStatus(context.Context, string, domain.OrderStatus) error {
	return nil
}

func loadedCart(t *testing.T) *CartStore {
	t.Helper()
	ctx := context.Background()
	cart := NewCartStore("k1", newFakeStorage())
	require.NoError(t, cart.Add(ctx, &domain.Product{ID: "p1", Name: "Espresso Blend", Price: 4.5}))
	require.NoError(t, cart.SetQuantity(ctx, "p1", 2))
	return cart
}

func delivery() DeliveryInfo {
	return DeliveryInfo{
		Name:    "Ana García",
		Phone:   "555-0101",
		Address: "Av. Central 123",
		City:    "Rosario",
		ZipCode: "2000",
	}
}

func TestComposedAddress(t *testing.T) {
	d := delivery()
	assert.Equal(t, "Av. Central 123, Rosario, 2000", d.ComposedAddress())

	d.Apartment = "4B"
	assert.Equal(t, "Av. Central 123 4B, Rosario, 2000", d.ComposedAddress())
}

func TestSubmitCreatesOrderAndClearsCart(t *testing.T) {
	orders := &fakeOrders{}
	uc := &CheckoutUC{Orders: orders}
	cart := loadedCart(t)

	id, err := uc.Submit(context.Background(), cart, delivery())
	require.NoError(t, err)
	assert.Equal(t, "ord-123", id)
	assert.Empty(t, cart.State().Items)

	assert.Equal(t, "Ana García", orders.lastDraft.CustomerName)
	assert.Equal(t, "Av. Central 123, Rosario, 2000", orders.lastDraft.Address)
	require.Len(t, orders.lastDraft.Items, 1)
	assert.Equal(t, 2, orders.lastDraft.Items[0].Quantity)
	assert.Equal(t, 9.0, orders.lastDraft.Total)
}

func TestSubmitBackendFailureKeepsCart(t *testing.T) {
	orders := &fakeOrders{createErr: errors.New("backend caído")}
	uc := &CheckoutUC{Orders: orders}
	cart := loadedCart(t)

	_, err := uc.Submit(context.Background(), cart, delivery())
	require.Error(t, err)

	state := cart.State()
	require.Len(t, state.Items, 1)
	assert.Equal(t, 2, state.Items[0].Quantity)
	assert.Equal(t, 9.0, state.Total)
}

func TestSubmitEmptyCart(t *testing.T) {
	orders := &fakeOrders{}
	uc := &CheckoutUC{Orders: orders}
	cart := NewCartStore("k1", newFakeStorage())

	_, err := uc.Submit(context.Background(), cart, delivery())
	assert.ErrorIs(t, err, ErrEmptyCart)
	assert.Zero(t, orders.calls)
}

func TestSubmitInvalidDeliveryDoesNotCallBackend(t *testing.T) {
	orders := &fakeOrders{}
	uc := &CheckoutUC{Orders: orders}
	cart := loadedCart(t)

	d := delivery()
	d.Name = "   "
	_, err := uc.Submit(context.Background(), cart, d)
	require.Error(t, err)
	assert.Zero(t, orders.calls)
	assert.Len(t, cart.State().Items, 1)
}
