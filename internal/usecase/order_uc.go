package usecase

import (
	"context"
	"errors"

	"github.com/phenrril/dailybrew/internal/domain"
)

// OrderUC lista órdenes del backend y parchea su estado (ciclo list-and-patch
// del panel admin).
type OrderUC struct {
	Orders domain.OrderService
}

func (uc *OrderUC) List(ctx context.Context) ([]domain.Order, error) {
	return uc.Orders.ListOrders(ctx)
}

func (uc *OrderUC) UpdateStatus(ctx context.Context, id string, status string) error {
	if id == "" {
		return errors.New("order id vacío")
	}
	st, ok := domain.ParseOrderStatus(status)
	if !ok {
		return errors.New("status inválido")
	}
	return uc.Orders.UpdateOrderStatus(ctx, id, st)
}
