package domain

import "errors"

// CartLine guarda un snapshot desnormalizado del producto al momento de
// agregarlo: si después cambia el precio en el catálogo, la línea no se entera.
type CartLine struct {
	ProductID string  `json:"productId"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Image     string  `json:"image,omitempty"`
	Quantity  int     `json:"quantity"`
}

type CartState struct {
	Items []CartLine `json:"items"`
	Total float64    `json:"total"`
}

func EmptyCart() CartState {
	return CartState{Items: []CartLine{}, Total: 0}
}

func (s CartState) Count() int {
	n := 0
	for _, l := range s.Items {
		n += l.Quantity
	}
	return n
}

type CartActionType string

const (
	CartAdd            CartActionType = "add"
	CartRemove         CartActionType = "remove"
	CartSetQuantity    CartActionType = "set_quantity"
	CartAdjustQuantity CartActionType = "adjust_quantity"
	CartLoad           CartActionType = "load"
	CartClear          CartActionType = "clear"
)

// CartAction es el comando etiquetado que procesa ReduceCart. Según el tipo se
// usan distintos campos: Add lee Product, Remove lee ProductID, SetQuantity lee
// ProductID y Quantity, AdjustQuantity lee ProductID y Quantity como delta,
// Load lee Snapshot.
type CartAction struct {
	Type      CartActionType
	Product   *Product
	ProductID string
	Quantity  int
	Snapshot  *CartState
}

var (
	ErrCartQuantity = errors.New("cantidad menor a 1: usar remove")
	ErrCartProduct  = errors.New("producto nil")
	ErrCartAction   = errors.New("acción de carrito desconocida")
)

// ReduceCart aplica una acción y devuelve el estado resultante sin mutar el
// recibido. Una línea por producto: agregar un producto ya presente incrementa
// la cantidad. Quantity nunca baja de 1; un pedido de 0 se rechaza y el caller
// tiene que usar Remove.
func ReduceCart(state CartState, a CartAction) (CartState, error) {
	switch a.Type {
	case CartAdd:
		if a.Product == nil {
			return state, ErrCartProduct
		}
		for i, l := range state.Items {
			if l.ProductID == a.Product.ID {
				items := cloneLines(state.Items)
				items[i].Quantity++
				return CartState{Items: items, Total: state.Total + l.Price}, nil
			}
		}
		items := cloneLines(state.Items)
		items = append(items, CartLine{
			ProductID: a.Product.ID,
			Name:      a.Product.Name,
			Price:     a.Product.Price,
			Image:     a.Product.MainImage,
			Quantity:  1,
		})
		return CartState{Items: items, Total: state.Total + a.Product.Price}, nil

	case CartRemove:
		for i, l := range state.Items {
			if l.ProductID == a.ProductID {
				items := make([]CartLine, 0, len(state.Items)-1)
				items = append(items, state.Items[:i]...)
				items = append(items, state.Items[i+1:]...)
				return CartState{Items: items, Total: state.Total - l.Price*float64(l.Quantity)}, nil
			}
		}
		return state, nil

	case CartSetQuantity:
		if a.Quantity < 1 {
			return state, ErrCartQuantity
		}
		for i, l := range state.Items {
			if l.ProductID == a.ProductID {
				items := cloneLines(state.Items)
				items[i].Quantity = a.Quantity
				return CartState{Items: items, Total: state.Total + l.Price*float64(a.Quantity-l.Quantity)}, nil
			}
		}
		return state, nil

	case CartAdjustQuantity:
		// delta relativo en una sola transición: un inc/dec concurrente nunca
		// pisa a otro porque acá no hay lectura previa del caller
		for i, l := range state.Items {
			if l.ProductID == a.ProductID {
				q := l.Quantity + a.Quantity
				if q < 1 {
					items := make([]CartLine, 0, len(state.Items)-1)
					items = append(items, state.Items[:i]...)
					items = append(items, state.Items[i+1:]...)
					return CartState{Items: items, Total: state.Total - l.Price*float64(l.Quantity)}, nil
				}
				items := cloneLines(state.Items)
				items[i].Quantity = q
				return CartState{Items: items, Total: state.Total + l.Price*float64(a.Quantity)}, nil
			}
		}
		return state, nil

	case CartLoad:
		if a.Snapshot == nil {
			return state, errors.New("snapshot nil")
		}
		return CartState{Items: cloneLines(a.Snapshot.Items), Total: a.Snapshot.Total}, nil

	case CartClear:
		return EmptyCart(), nil
	}
	return state, ErrCartAction
}

func cloneLines(in []CartLine) []CartLine {
	out := make([]CartLine, len(in))
	copy(out, in)
	return out
}
