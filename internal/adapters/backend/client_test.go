package backend

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phenrril/dailybrew/internal/domain"
)

func TestListProductsNormalizesPriceVariants(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"p1","name":"Espresso","price":4.5,"roastLevel":"Dark"},
			{"id":"p2","name":"Filter","price":"$6.25","roastLevel":"Light"},
			{"id":"p3","name":"Decaf","price":"12.50 lei","roastLevel":"rubio"}
		]`))
	}))
	defer srv.Close()

	list, err := New(srv.URL).ListProducts(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)

	assert.Equal(t, 4.5, list[0].Price)
	assert.Equal(t, domain.RoastDark, list[0].RoastLevel)
	assert.Equal(t, 6.25, list[1].Price)
	assert.Equal(t, 12.5, list[2].Price)
	// tueste desconocido cae en el default
	assert.Equal(t, domain.RoastMedium, list[2].RoastLevel)
}

func TestGetProductMapsWireFields(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/products/p1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id":"p1","name":"Ethiopia Yirgacheffe","price":14,
			"mainImage":"yirg.jpg","galleryImages":["a.jpg","b.jpg"],
			"description":"Floral","origin":"Ethiopia","roastLevel":"Light",
			"flavorNotes":["Jasmine","Lemon"]
		}`))
	}))
	defer srv.Close()

	p, err := New(srv.URL).GetProduct(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, "Ethiopia Yirgacheffe", p.Name)
	assert.Equal(t, 14.0, p.Price)
	assert.Equal(t, "yirg.jpg", p.MainImage)
	assert.Equal(t, []string{"a.jpg", "b.jpg"}, p.GalleryImages)
	assert.Equal(t, domain.RoastLight, p.RoastLevel)
	assert.Equal(t, []string{"Jasmine", "Lemon"}, p.FlavorNotes)
}

func TestGetProductNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := New(srv.URL).GetProduct(context.Background(), "ghost")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestCreateProductSendsMultipart(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "Espresso Blend", r.FormValue("name"))
		assert.Equal(t, "4.50", r.FormValue("price"))
		assert.Equal(t, "Dark", r.FormValue("roastLevel"))
		assert.Equal(t, []string{"Chocolate", "Caramel"}, r.MultipartForm.Value["flavorNotes"])

		fhs := r.MultipartForm.File["mainImage"]
		require.Len(t, fhs, 1)
		assert.Equal(t, "blend.jpg", fhs[0].Filename)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(201)
		_, _ = w.Write([]byte(`{"id":"p9","name":"Espresso Blend","price":4.5,"roastLevel":"Dark"}`))
	}))
	defer srv.Close()

	form := domain.ProductForm{
		Name:        "Espresso Blend",
		Price:       4.5,
		RoastLevel:  domain.RoastDark,
		FlavorNotes: []string{"Chocolate", "Caramel"},
		MainImage:   &domain.ImageFile{Name: "blend.jpg", Data: []byte("jpegdata")},
	}
	p, err := New(srv.URL).CreateProduct(context.Background(), form)
	require.NoError(t, err)
	assert.Equal(t, "p9", p.ID)
}

func TestCreateOrderPayloadAndID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/orders", r.URL.Path)

		var got map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, "Ana García", got["customerName"])
		assert.Equal(t, "Av. Central 123, Rosario, 2000", got["address"])
		assert.Equal(t, 9.0, got["total"])

		items := got["items"].([]any)
		require.Len(t, items, 1)
		first := items[0].(map[string]any)
		assert.Equal(t, "Espresso Blend", first["name"])
		assert.Equal(t, 2.0, first["quantity"])

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(201)
		_, _ = w.Write([]byte(`{"id":"ord-77"}`))
	}))
	defer srv.Close()

	draft := domain.OrderDraft{
		CustomerName: "Ana García",
		Phone:        "555-0101",
		Address:      "Av. Central 123, Rosario, 2000",
		Items:        []domain.OrderItem{{Name: "Espresso Blend", Quantity: 2, Price: 4.5}},
		Total:        9.0,
	}
	id, err := New(srv.URL).CreateOrder(context.Background(), draft)
	require.NoError(t, err)
	assert.Equal(t, "ord-77", id)
}

func TestCreateOrderMissingIDFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).CreateOrder(context.Background(), domain.OrderDraft{})
	require.Error(t, err)
}

func TestListOrdersParsesStatusAndDate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"o1","customerName":"Ana","status":"processing","createdAt":"2026-08-30T12:00:00Z","total":9},
			{"id":"o2","customerName":"Bruno","status":"weird","total":5}
		]`))
	}))
	defer srv.Close()

	orders, err := New(srv.URL).ListOrders(context.Background())
	require.NoError(t, err)
	require.Len(t, orders, 2)

	assert.Equal(t, domain.OrderStatusProcessing, orders[0].Status)
	assert.Equal(t, 2026, orders[0].CreatedAt.Year())
	// status desconocido cae en pending
	assert.Equal(t, domain.OrderStatusPending, orders[1].Status)
}

func TestUpdateOrderStatusHitsStatusPath(t *testing.T) {
	var gotPath, gotMethod string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		w.WriteHeader(200)
	}))
	defer srv.Close()

	err := New(srv.URL).UpdateOrderStatus(context.Background(), "o1", domain.OrderStatusDelivered)
	require.NoError(t, err)
	assert.Equal(t, http.MethodPut, gotMethod)
	assert.Equal(t, "/orders/o1/delivered", gotPath)
}

func TestCheckStatusSurfacesBackendMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(422)
		_, _ = w.Write([]byte(`{"message":"precio inválido"}`))
	}))
	defer srv.Close()

	err := New(srv.URL).DeleteProduct(context.Background(), "p1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "precio inválido")
}
