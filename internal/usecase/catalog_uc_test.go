package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/dailybrew/internal/domain"
)

type stubCatalog struct {
	list []domain.Product
	byID map[string]*domain.Product
}

func (s *stubCatalog) ListProducts(context.Context) ([]domain.Product, error) { return s.list, nil }

func (s *stubCatalog) GetProduct(_ context.Context, id string) (*domain.Product, error) {
	if p, ok := s.byID[id]; ok {
		return p, nil
	}
	return nil, domain.ErrNotFound
}

func (s *stubCatalog) CreateProduct(context.Context, domain.ProductForm) (*domain.Product, error) {
	return &domain.Product{ID: "new"}, nil
}

func (s *stubCatalog) UpdateProduct(context.Context, string, domain.ProductForm) error { return nil }
func (s *stubCatalog) DeleteProduct(context.Context, string) error                     { return nil }

func sampleCatalog() []domain.Product {
	return []domain.Product{
		{ID: "p1", Name: "Ethiopia Yirgacheffe", Price: 14.0, Origin: "Ethiopia", RoastLevel: domain.RoastLight, FlavorNotes: []string{"Jasmine", "Lemon"}, Description: "Floral and bright"},
		{ID: "p2", Name: "Colombia Huila", Price: 11.5, Origin: "Colombia", RoastLevel: domain.RoastMedium, FlavorNotes: []string{"Caramel", "Red Apple"}},
		{ID: "p3", Name: "Sumatra Mandheling", Price: 12.0, Origin: "Indonesia", RoastLevel: domain.RoastDark, FlavorNotes: []string{"Chocolate", "Earthy"}},
		{ID: "p4", Name: "Brazil Cerrado", Price: 9.0, Origin: "Brazil", RoastLevel: domain.RoastMedium, FlavorNotes: []string{"Chocolate", "Hazelnut"}},
	}
}

func TestFetchAllCachesList(t *testing.T) {
	uc := NewCatalogUC(&stubCatalog{list: sampleCatalog()})

	list, err := uc.FetchAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, list, 4)
	assert.Len(t, uc.Products(), 4)
}

// gatedCatalog deja al test decidir en qué orden terminan los fetches.
type gatedCall struct {
	entered chan struct{}
	release chan []domain.Product
}

func newGatedCall() *gatedCall {
	return &gatedCall{entered: make(chan struct{}), release: make(chan []domain.Product, 1)}
}

type gatedCatalog struct {
	stubCatalog
	mu    sync.Mutex
	calls []*gatedCall
	next  int
}

func (g *gatedCatalog) ListProducts(context.Context) ([]domain.Product, error) {
	g.mu.Lock()
	c := g.calls[g.next]
	g.next++
	g.mu.Unlock()
	close(c.entered)
	return <-c.release, nil
}

func TestFetchAllStaleCompletionDiscarded(t *testing.T) {
	ctx := context.Background()
	slow := newGatedCall()
	fast := newGatedCall()
	svc := &gatedCatalog{calls: []*gatedCall{slow, fast}}
	uc := NewCatalogUC(svc)

	stale := []domain.Product{{ID: "stale", Name: "Old List"}}
	fresh := []domain.Product{{ID: "fresh", Name: "New List"}}

	done1 := make(chan struct{})
	go func() {
		defer close(done1)
		_, _ = uc.FetchAll(ctx)
	}()
	<-slow.entered

	done2 := make(chan struct{})
	go func() {
		defer close(done2)
		_, _ = uc.FetchAll(ctx)
	}()
	<-fast.entered

	// el fetch emitido segundo termina primero y queda aplicado
	fast.release <- fresh
	<-done2

	// el primero termina tarde: se descarta en vez de pisar al más nuevo
	slow.release <- stale
	<-done1

	got := uc.Products()
	require.Len(t, got, 1)
	assert.Equal(t, "fresh", got[0].ID)
}

func TestFetchByIDUpdatesCurrent(t *testing.T) {
	p := &domain.Product{ID: "p1", Name: "Ethiopia Yirgacheffe"}
	uc := NewCatalogUC(&stubCatalog{byID: map[string]*domain.Product{"p1": p}})

	got, err := uc.FetchByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)
	assert.Equal(t, "p1", uc.Current().ID)

	_, err = uc.FetchByID(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	// el fetch fallido no toca el slot
	assert.Equal(t, "p1", uc.Current().ID)
}

func loadedCatalogUC(t *testing.T) *CatalogUC {
	t.Helper()
	uc := NewCatalogUC(&stubCatalog{list: sampleCatalog()})
	_, err := uc.FetchAll(context.Background())
	require.NoError(t, err)
	return uc
}

func TestFilterQueryMatchesAllTextFields(t *testing.T) {
	uc := loadedCatalogUC(t)

	byName := uc.Filter(domain.ProductFilter{Query: "sumatra"})
	require.Len(t, byName, 1)
	assert.Equal(t, "p3", byName[0].ID)

	byNote := uc.Filter(domain.ProductFilter{Query: "chocolate"})
	assert.Len(t, byNote, 2)

	byOrigin := uc.Filter(domain.ProductFilter{Query: "ethiopia"})
	require.Len(t, byOrigin, 1)

	byDescription := uc.Filter(domain.ProductFilter{Query: "floral"})
	require.Len(t, byDescription, 1)
	assert.Equal(t, "p1", byDescription[0].ID)
}

func TestFilterRoastAndPriceRange(t *testing.T) {
	uc := loadedCatalogUC(t)

	medium := uc.Filter(domain.ProductFilter{RoastLevels: []domain.RoastLevel{domain.RoastMedium}})
	assert.Len(t, medium, 2)

	cheap := uc.Filter(domain.ProductFilter{PriceMax: 11.5})
	assert.Len(t, cheap, 2)

	mid := uc.Filter(domain.ProductFilter{PriceMin: 10, PriceMax: 12})
	assert.Len(t, mid, 2)
}

func TestFilterSortOrders(t *testing.T) {
	uc := loadedCatalogUC(t)

	byPrice := uc.Filter(domain.ProductFilter{Sort: "price_asc"})
	require.Len(t, byPrice, 4)
	assert.Equal(t, "p4", byPrice[0].ID)
	assert.Equal(t, "p1", byPrice[3].ID)

	byNameDesc := uc.Filter(domain.ProductFilter{Sort: "name_desc"})
	assert.Equal(t, "Sumatra Mandheling", byNameDesc[0].Name)

	defaultSort := uc.Filter(domain.ProductFilter{})
	assert.Equal(t, "Brazil Cerrado", defaultSort[0].Name)
}

func TestSimilarRanksSharedNotesAboveRoast(t *testing.T) {
	uc := loadedCatalogUC(t)
	list := uc.Products()
	sumatra := &list[2]

	similar := uc.Similar(sumatra, 4)
	require.NotEmpty(t, similar)
	// p4 comparte "Chocolate" (2 puntos); los demás empatan como mucho en tueste
	assert.Equal(t, "p4", similar[0].ID)
	for _, p := range similar {
		assert.NotEqual(t, sumatra.ID, p.ID)
	}
}

func TestSimilarLimitsResults(t *testing.T) {
	uc := loadedCatalogUC(t)
	list := uc.Products()

	similar := uc.Similar(&list[1], 1)
	assert.Len(t, similar, 1)
	assert.Nil(t, uc.Similar(nil, 4))
}
