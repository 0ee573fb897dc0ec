package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/phenrril/dailybrew/internal/domain"
)

// Client habla con el backend REST dueño del catálogo y las órdenes. Los
// nombres de campo del wire no coinciden con el modelo del cliente y el precio
// llega en formatos mezclados; todo eso se normaliza acá, en el borde.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

func New(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(20), 40),
	}
}

type wireProduct struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Price         json.RawMessage `json:"price"`
	MainImage     string          `json:"mainImage"`
	GalleryImages []string        `json:"galleryImages"`
	Description   string          `json:"description"`
	Origin        string          `json:"origin"`
	RoastLevel    string          `json:"roastLevel"`
	FlavorNotes   []string        `json:"flavorNotes"`
}

func (w wireProduct) toDomain() domain.Product {
	roast, ok := domain.ParseRoastLevel(w.RoastLevel)
	if !ok {
		roast = domain.RoastMedium
	}
	return domain.Product{
		ID:            w.ID,
		Name:          w.Name,
		Price:         parsePrice(w.Price),
		MainImage:     w.MainImage,
		GalleryImages: w.GalleryImages,
		Description:   w.Description,
		Origin:        w.Origin,
		RoastLevel:    roast,
		FlavorNotes:   w.FlavorNotes,
	}
}

// parsePrice acepta las variantes que manda el backend: número crudo (4.5),
// string con símbolo ("$4.50") o string con moneda al final ("4.50 lei").
// Todo se reduce al float64 canónico del modelo.
func parsePrice(raw json.RawMessage) float64 {
	if len(raw) == 0 {
		return 0
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0
	}
	s = strings.TrimSpace(s)
	start := 0
	for start < len(s) && (s[start] < '0' || s[start] > '9') && s[start] != '-' {
		start++
	}
	end := start
	for end < len(s) && (s[end] == '-' || s[end] == '.' || (s[end] >= '0' && s[end] <= '9')) {
		end++
	}
	v, err := strconv.ParseFloat(s[start:end], 64)
	if err != nil {
		return 0
	}
	return v
}

func (c *Client) ListProducts(ctx context.Context) ([]domain.Product, error) {
	var wires []wireProduct
	if err := c.getJSON(ctx, "/products", &wires); err != nil {
		return nil, err
	}
	out := make([]domain.Product, 0, len(wires))
	for _, w := range wires {
		out = append(out, w.toDomain())
	}
	return out, nil
}

func (c *Client) GetProduct(ctx context.Context, id string) (*domain.Product, error) {
	var w wireProduct
	if err := c.getJSON(ctx, "/products/"+id, &w); err != nil {
		return nil, err
	}
	p := w.toDomain()
	return &p, nil
}

func (c *Client) CreateProduct(ctx context.Context, form domain.ProductForm) (*domain.Product, error) {
	body, contentType, err := encodeProductForm(form)
	if err != nil {
		return nil, err
	}
	res, err := c.do(ctx, http.MethodPost, "/products", body, contentType)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if err := checkStatus(res); err != nil {
		return nil, err
	}
	var w wireProduct
	if err := json.NewDecoder(res.Body).Decode(&w); err != nil {
		return nil, err
	}
	p := w.toDomain()
	return &p, nil
}

func (c *Client) UpdateProduct(ctx context.Context, id string, form domain.ProductForm) error {
	body, contentType, err := encodeProductForm(form)
	if err != nil {
		return err
	}
	res, err := c.do(ctx, http.MethodPut, "/products/"+id, body, contentType)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return checkStatus(res)
}

func (c *Client) DeleteProduct(ctx context.Context, id string) error {
	res, err := c.do(ctx, http.MethodDelete, "/products/"+id, nil, "")
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return checkStatus(res)
}

type wireOrderItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`
}

type wireOrderReq struct {
	CustomerName string          `json:"customerName"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	Items        []wireOrderItem `json:"items"`
	Total        float64         `json:"total"`
}

type wireOrder struct {
	ID           string          `json:"id"`
	CustomerName string          `json:"customerName"`
	Phone        string          `json:"phone"`
	Address      string          `json:"address"`
	Items        []wireOrderItem `json:"items"`
	Total        float64         `json:"total"`
	Status       string          `json:"status"`
	CreatedAt    string          `json:"createdAt"`
}

func (c *Client) CreateOrder(ctx context.Context, draft domain.OrderDraft) (string, error) {
	req := wireOrderReq{
		CustomerName: draft.CustomerName,
		Phone:        draft.Phone,
		Address:      draft.Address,
		Total:        draft.Total,
	}
	for _, it := range draft.Items {
		req.Items = append(req.Items, wireOrderItem(it))
	}
	buf, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("serializar orden: %w", err)
	}
	res, err := c.do(ctx, http.MethodPost, "/orders", bytes.NewReader(buf), "application/json")
	if err != nil {
		return "", err
	}
	defer res.Body.Close()
	if err := checkStatus(res); err != nil {
		return "", err
	}
	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(res.Body).Decode(&created); err != nil {
		return "", err
	}
	if created.ID == "" {
		return "", errors.New("respuesta del backend sin id de orden")
	}
	return created.ID, nil
}

func (c *Client) ListOrders(ctx context.Context) ([]domain.Order, error) {
	var wires []wireOrder
	if err := c.getJSON(ctx, "/orders", &wires); err != nil {
		return nil, err
	}
	out := make([]domain.Order, 0, len(wires))
	for _, w := range wires {
		o := domain.Order{
			ID:           w.ID,
			CustomerName: w.CustomerName,
			Phone:        w.Phone,
			Address:      w.Address,
			Total:        w.Total,
		}
		if st, ok := domain.ParseOrderStatus(w.Status); ok {
			o.Status = st
		} else {
			o.Status = domain.OrderStatusPending
		}
		if t, err := time.Parse(time.RFC3339, w.CreatedAt); err == nil {
			o.CreatedAt = t
		}
		for _, it := range w.Items {
			o.Items = append(o.Items, domain.OrderItem(it))
		}
		out = append(out, o)
	}
	return out, nil
}

func (c *Client) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	res, err := c.do(ctx, http.MethodPut, "/orders/"+id+"/"+string(status), nil, "")
	if err != nil {
		return err
	}
	defer res.Body.Close()
	return checkStatus(res)
}

func (c *Client) getJSON(ctx context.Context, path string, v any) error {
	res, err := c.do(ctx, http.MethodGet, path, nil, "")
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if err := checkStatus(res); err != nil {
		return err
	}
	return json.NewDecoder(res.Body).Decode(v)
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, err
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error de conexión con el backend: %w", err)
	}
	return res, nil
}

func checkStatus(res *http.Response) error {
	if res.StatusCode < 300 {
		return nil
	}
	if res.StatusCode == http.StatusNotFound {
		return domain.ErrNotFound
	}
	b, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
	var apiErr struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &apiErr); err == nil && apiErr.Message != "" {
		return fmt.Errorf("backend status %d: %s", res.StatusCode, apiErr.Message)
	}
	return fmt.Errorf("backend status %d: %s", res.StatusCode, strings.TrimSpace(string(b)))
}

func encodeProductForm(form domain.ProductForm) (io.Reader, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	_ = w.WriteField("name", form.Name)
	_ = w.WriteField("description", form.Description)
	_ = w.WriteField("origin", form.Origin)
	_ = w.WriteField("roastLevel", string(form.RoastLevel))
	_ = w.WriteField("price", strconv.FormatFloat(form.Price, 'f', 2, 64))
	for _, note := range form.FlavorNotes {
		_ = w.WriteField("flavorNotes", note)
	}
	if form.MainImage != nil {
		fw, err := w.CreateFormFile("mainImage", form.MainImage.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(form.MainImage.Data); err != nil {
			return nil, "", err
		}
	}
	for _, img := range form.Gallery {
		fw, err := w.CreateFormFile("galleryImages", img.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := fw.Write(img.Data); err != nil {
			return nil, "", err
		}
	}
	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
