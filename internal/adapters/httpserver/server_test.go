package httpserver

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/phenrril/dailybrew/internal/domain"
	"github.com/phenrril/dailybrew/internal/usecase"
)

type stubCatalogService struct {
	err error
}

func (s *stubCatalogService) ListProducts(context.Context) ([]domain.Product, error) {
	return nil, s.err
}

func (s *stubCatalogService) GetProduct(context.Context, string) (*domain.Product, error) {
	return nil, s.err
}

func (s *stubCatalogService) CreateProduct(context.Context, domain.ProductForm) (*domain.Product, error) {
	return nil, s.err
}

func (s *stubCatalogService) UpdateProduct(context.Context, string, domain.ProductForm) error {
	return s.err
}

func (s *stubCatalogService) DeleteProduct(context.Context, string) error { return s.err }

func TestHandleProductUnknownIDIs404(t *testing.T) {
	s := &Server{catalog: usecase.NewCatalogUC(&stubCatalogService{err: domain.ErrNotFound})}

	rr := httptest.NewRecorder()
	s.handleProduct(rr, httptest.NewRequest(http.MethodGet, "/product/ghost", nil))
	assert.Equal(t, http.StatusNotFound, rr.Code)
}

func TestHandleProductBackendFailureIs502(t *testing.T) {
	s := &Server{catalog: usecase.NewCatalogUC(&stubCatalogService{err: errors.New("connection refused")})}

	rr := httptest.NewRecorder()
	s.handleProduct(rr, httptest.NewRequest(http.MethodGet, "/product/p1", nil))
	assert.Equal(t, http.StatusBadGateway, rr.Code)
}
