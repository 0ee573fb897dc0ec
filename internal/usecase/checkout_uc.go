package usecase

import (
	"context"
	"errors"
	"strings"

	"github.com/phenrril/dailybrew/internal/domain"
)

type DeliveryInfo struct {
	Name         string
	Phone        string
	Address      string
	Apartment    string
	City         string
	ZipCode      string
	Instructions string
}

// ComposedAddress arma la dirección de entrega en un solo string, igual que lo
// espera el backend: "calle depto, ciudad, código postal".
func (d DeliveryInfo) ComposedAddress() string {
	addr := strings.TrimSpace(d.Address)
	if ap := strings.TrimSpace(d.Apartment); ap != "" {
		addr += " " + ap
	}
	return addr + ", " + strings.TrimSpace(d.City) + ", " + strings.TrimSpace(d.ZipCode)
}

var ErrEmptyCart = errors.New("carrito vacío")

// CheckoutUC convierte carrito + formulario de entrega en una creación de
// orden contra el backend y reconcilia el estado local con el resultado.
type CheckoutUC struct {
	Orders domain.OrderService
}

// Submit toma un snapshot del carrito, crea la orden y, sólo si el backend
// acepta, vacía el carrito y devuelve el id emitido por el servidor. Ante
// cualquier falla el carrito queda intacto y el caller puede reintentar.
func (uc *CheckoutUC) Submit(ctx context.Context, cart *CartStore, d DeliveryInfo) (string, error) {
	state := cart.State()
	if len(state.Items) == 0 {
		return "", ErrEmptyCart
	}

	items := make([]domain.OrderItem, 0, len(state.Items))
	for _, l := range state.Items {
		items = append(items, domain.OrderItem{Name: l.Name, Quantity: l.Quantity, Price: l.Price})
	}
	draft := domain.OrderDraft{
		CustomerName: strings.TrimSpace(d.Name),
		Phone:        strings.TrimSpace(d.Phone),
		Address:      d.ComposedAddress(),
		Items:        items,
		Total:        state.Total,
	}
	if err := draft.Validate(); err != nil {
		return "", err
	}

	orderID, err := uc.Orders.CreateOrder(ctx, draft)
	if err != nil {
		return "", err
	}
	if err := cart.Clear(ctx); err != nil {
		// la orden ya existe; el carrito se limpia en la próxima transición
		return orderID, nil
	}
	return orderID, nil
}
