package usecase

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/phenrril/dailybrew/internal/domain"
)

// CatalogUC cachea el último fetch del catálogo: la lista completa y un slot
// de "producto actual". Última escritura gana, sin merges ni invalidación.
// Cada slot lleva un contador de generación: un fetch lento que termina
// después de uno más nuevo se descarta en vez de pisar el resultado fresco.
type CatalogUC struct {
	Service domain.CatalogService

	mu          sync.Mutex
	products    []domain.Product
	current     *domain.Product
	listIssued  uint64
	listApplied uint64
	curIssued   uint64
	curApplied  uint64
}

func NewCatalogUC(svc domain.CatalogService) *CatalogUC {
	return &CatalogUC{Service: svc}
}

// FetchAll reemplaza la lista cacheada entera con lo que devuelva el backend.
func (uc *CatalogUC) FetchAll(ctx context.Context) ([]domain.Product, error) {
	uc.mu.Lock()
	uc.listIssued++
	gen := uc.listIssued
	uc.mu.Unlock()

	list, err := uc.Service.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	if gen > uc.listApplied {
		uc.listApplied = gen
		uc.products = list
	}
	return list, nil
}

// FetchByID reemplaza sólo el producto actual.
func (uc *CatalogUC) FetchByID(ctx context.Context, id string) (*domain.Product, error) {
	uc.mu.Lock()
	uc.curIssued++
	gen := uc.curIssued
	uc.mu.Unlock()

	p, err := uc.Service.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	uc.mu.Lock()
	defer uc.mu.Unlock()
	if gen > uc.curApplied {
		uc.curApplied = gen
		uc.current = p
	}
	return p, nil
}

func (uc *CatalogUC) Products() []domain.Product {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	out := make([]domain.Product, len(uc.products))
	copy(out, uc.products)
	return out
}

func (uc *CatalogUC) Current() *domain.Product {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	return uc.current
}

// Filter aplica búsqueda, filtro de tueste, rango de precio y orden sobre la
// lista cacheada. Mismo comportamiento que tenía la página de la tienda.
func (uc *CatalogUC) Filter(f domain.ProductFilter) []domain.Product {
	list := uc.Products()
	out := make([]domain.Product, 0, len(list))

	q := strings.ToLower(strings.TrimSpace(f.Query))
	for _, p := range list {
		if q != "" && !matchesQuery(p, q) {
			continue
		}
		if len(f.RoastLevels) > 0 && !containsRoast(f.RoastLevels, p.RoastLevel) {
			continue
		}
		if f.PriceMin > 0 && p.Price < f.PriceMin {
			continue
		}
		if f.PriceMax > 0 && p.Price > f.PriceMax {
			continue
		}
		out = append(out, p)
	}

	switch f.Sort {
	case "name_desc":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	case "price_asc":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price < out[j].Price })
	case "price_desc":
		sort.SliceStable(out, func(i, j int) bool { return out[i].Price > out[j].Price })
	default:
		sort.SliceStable(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	}
	return out
}

func matchesQuery(p domain.Product, q string) bool {
	if strings.Contains(strings.ToLower(p.Name), q) ||
		strings.Contains(strings.ToLower(p.Description), q) ||
		strings.Contains(strings.ToLower(p.Origin), q) {
		return true
	}
	for _, note := range p.FlavorNotes {
		if strings.Contains(strings.ToLower(note), q) {
			return true
		}
	}
	return false
}

func containsRoast(levels []domain.RoastLevel, r domain.RoastLevel) bool {
	for _, l := range levels {
		if l == r {
			return true
		}
	}
	return false
}

// Create da de alta un producto contra el backend y refresca la lista.
func (uc *CatalogUC) Create(ctx context.Context, form domain.ProductForm) (*domain.Product, error) {
	p, err := uc.Service.CreateProduct(ctx, form)
	if err != nil {
		return nil, err
	}
	_, _ = uc.FetchAll(ctx)
	return p, nil
}

func (uc *CatalogUC) Update(ctx context.Context, id string, form domain.ProductForm) error {
	if err := uc.Service.UpdateProduct(ctx, id, form); err != nil {
		return err
	}
	_, _ = uc.FetchAll(ctx)
	return nil
}

func (uc *CatalogUC) Delete(ctx context.Context, id string) error {
	if err := uc.Service.DeleteProduct(ctx, id); err != nil {
		return err
	}
	_, _ = uc.FetchAll(ctx)
	return nil
}

// Similar rankea la lista cacheada contra un producto: dos puntos por nota de
// sabor compartida, uno por mismo tueste, uno por mismo origen.
func (uc *CatalogUC) Similar(p *domain.Product, n int) []domain.Product {
	if p == nil || n <= 0 {
		return nil
	}
	type scored struct {
		p     domain.Product
		score int
	}
	notes := map[string]struct{}{}
	for _, note := range p.FlavorNotes {
		notes[strings.ToLower(note)] = struct{}{}
	}
	ranked := []scored{}
	for _, cand := range uc.Products() {
		if cand.ID == p.ID {
			continue
		}
		score := 0
		for _, note := range cand.FlavorNotes {
			if _, ok := notes[strings.ToLower(note)]; ok {
				score += 2
			}
		}
		if cand.RoastLevel == p.RoastLevel {
			score++
		}
		if cand.Origin != "" && cand.Origin == p.Origin {
			score++
		}
		if score > 0 {
			ranked = append(ranked, scored{p: cand, score: score})
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].score > ranked[j].score })
	if len(ranked) > n {
		ranked = ranked[:n]
	}
	out := make([]domain.Product, 0, len(ranked))
	for _, s := range ranked {
		out = append(out, s.p)
	}
	return out
}
