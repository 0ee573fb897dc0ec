package domain

import (
	"errors"
	"strings"
	"time"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusDelivered  OrderStatus = "delivered"
)

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch OrderStatus(s) {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusDelivered:
		return OrderStatus(s), true
	}
	return "", false
}

type OrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

// Order es propiedad del backend; acá sólo se refleja para el panel admin.
type Order struct {
	ID           string
	CustomerName string
	Phone        string
	Address      string
	Items        []OrderItem
	Total        float64
	Status       OrderStatus
	CreatedAt    time.Time
}

// OrderDraft es el payload de creación que arma el flujo de checkout.
type OrderDraft struct {
	CustomerName string
	Phone        string
	Address      string
	Items        []OrderItem
	Total        float64
}

var ErrEmptyOrder = errors.New("orden sin items")

func (d OrderDraft) Validate() error {
	if strings.TrimSpace(d.CustomerName) == "" {
		return errors.New("nombre vacío")
	}
	if strings.TrimSpace(d.Phone) == "" {
		return errors.New("teléfono vacío")
	}
	if strings.TrimSpace(d.Address) == "" {
		return errors.New("dirección vacía")
	}
	if len(d.Items) == 0 {
		return ErrEmptyOrder
	}
	return nil
}
