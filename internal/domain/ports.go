package domain

import "context"

// CatalogService es el backend remoto que es dueño del catálogo.
type CatalogService interface {
	ListProducts(ctx context.Context) ([]Product, error)
	GetProduct(ctx context.Context, id string) (*Product, error)
	CreateProduct(ctx context.Context, form ProductForm) (*Product, error)
	UpdateProduct(ctx context.Context, id string, form ProductForm) error
	DeleteProduct(ctx context.Context, id string) error
}

// OrderService es el backend remoto que es dueño de las órdenes.
type OrderService interface {
	CreateOrder(ctx context.Context, draft OrderDraft) (string, error)
	ListOrders(ctx context.Context) ([]Order, error)
	UpdateOrderStatus(ctx context.Context, id string, status OrderStatus) error
}

// CartStorage persiste snapshots serializados del carrito bajo una clave fija
// por sesión. Load devuelve ErrNotFound si la clave no existe.
type CartStorage interface {
	Load(ctx context.Context, key string) ([]byte, error)
	Save(ctx context.Context, key string, data []byte) error
	Delete(ctx context.Context, key string) error
}

type ImageFile struct {
	Name string
	Data []byte
}

// ProductForm es el alta/edición de producto que el admin reenvía al backend
// como multipart (las imágenes viajan como archivos).
type ProductForm struct {
	Name        string
	Description string
	Origin      string
	RoastLevel  RoastLevel
	FlavorNotes []string
	Price       float64
	MainImage   *ImageFile
	Gallery     []ImageFile
}
