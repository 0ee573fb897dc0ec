package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/phenrril/dailybrew/internal/domain"
)

// CartStore es la única fuente de verdad del carrito de una sesión. Cada
// transición exitosa se serializa y se escribe completa en el storage
// (write-through, sin batching: la frecuencia de mutación es un click humano).
type CartStore struct {
	mu      sync.Mutex
	key     string
	state   domain.CartState
	storage domain.CartStorage
}

func NewCartStore(key string, storage domain.CartStorage) *CartStore {
	return &CartStore{key: key, state: domain.EmptyCart(), storage: storage}
}

// Rehydrate corre una vez por sesión, antes de aceptar mutaciones. Un snapshot
// ilegible se descarta (se borra la clave) y se arranca vacío; nunca se
// propaga el error de parseo al caller.
func (s *CartStore) Rehydrate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.storage.Load(ctx, s.key)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Warn().Err(err).Str("cart", s.key).Msg("no se pudo leer el snapshot del carrito")
		}
		return
	}
	var snap domain.CartState
	if err := json.Unmarshal(data, &snap); err != nil {
		log.Warn().Err(err).Str("cart", s.key).Msg("snapshot de carrito corrupto, se descarta")
		_ = s.storage.Delete(ctx, s.key)
		return
	}
	next, err := domain.ReduceCart(s.state, domain.CartAction{Type: domain.CartLoad, Snapshot: &snap})
	if err != nil {
		return
	}
	s.state = next
}

func (s *CartStore) Add(ctx context.Context, p *domain.Product) error {
	return s.dispatch(ctx, domain.CartAction{Type: domain.CartAdd, Product: p})
}

func (s *CartStore) Remove(ctx context.Context, productID string) error {
	return s.dispatch(ctx, domain.CartAction{Type: domain.CartRemove, ProductID: productID})
}

func (s *CartStore) SetQuantity(ctx context.Context, productID string, qty int) error {
	return s.dispatch(ctx, domain.CartAction{Type: domain.CartSetQuantity, ProductID: productID, Quantity: qty})
}

// Adjust suma delta a la cantidad de una línea en una única transición; si el
// resultado baja de 1 la línea se elimina. Los handlers usan esto para inc/dec
// en vez de leer la cantidad y despachar SetQuantity, que entre dos requests
// concurrentes pierde actualizaciones.
func (s *CartStore) Adjust(ctx context.Context, productID string, delta int) error {
	return s.dispatch(ctx, domain.CartAction{Type: domain.CartAdjustQuantity, ProductID: productID, Quantity: delta})
}

func (s *CartStore) Clear(ctx context.Context) error {
	return s.dispatch(ctx, domain.CartAction{Type: domain.CartClear})
}

// State devuelve una copia; los callers no pueden mutar el carrito por fuera
// del reducer.
func (s *CartStore) State() domain.CartState {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := make([]domain.CartLine, len(s.state.Items))
	copy(items, s.state.Items)
	return domain.CartState{Items: items, Total: s.state.Total}
}

func (s *CartStore) dispatch(ctx context.Context, a domain.CartAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, err := domain.ReduceCart(s.state, a)
	if err != nil {
		return err
	}
	s.state = next
	s.persist(ctx)
	return nil
}

// persist escribe el snapshot completo. Si el storage falla, el estado en
// memoria sigue siendo autoritativo y la próxima mutación reescribe todo.
func (s *CartStore) persist(ctx context.Context) {
	data, err := json.Marshal(s.state)
	if err != nil {
		log.Error().Err(err).Str("cart", s.key).Msg("serializar carrito")
		return
	}
	if err := s.storage.Save(ctx, s.key, data); err != nil {
		log.Warn().Err(err).Str("cart", s.key).Msg("persistir carrito")
	}
}

// Carts abre y cachea un CartStore por clave de sesión, rehidratando una sola
// vez. Se construye en el arranque y se inyecta; no hay global escondido.
type Carts struct {
	mu      sync.Mutex
	storage domain.CartStorage
	open    map[string]*cartEntry
}

type cartEntry struct {
	once  sync.Once
	store *CartStore
}

func NewCarts(storage domain.CartStorage) *Carts {
	return &Carts{storage: storage, open: map[string]*cartEntry{}}
}

// Session rehidrata fuera del lock del registro: una carga lenta de una sesión
// no bloquea el acceso al carrito de las demás. El once garantiza una sola
// rehidratación por clave aunque lleguen requests en paralelo.
func (c *Carts) Session(ctx context.Context, key string) *CartStore {
	c.mu.Lock()
	e, ok := c.open[key]
	if !ok {
		e = &cartEntry{store: NewCartStore(key, c.storage)}
		c.open[key] = e
	}
	c.mu.Unlock()

	e.once.Do(func() { e.store.Rehydrate(ctx) })
	return e.store
}
