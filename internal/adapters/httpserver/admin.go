package httpserver

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/phenrril/dailybrew/internal/domain"
)

const adminCookie = "admin_session"

func (s *Server) handleAdminAuth(w http.ResponseWriter, r *http.Request) {
	if s.isAdminSession(r) {
		http.Redirect(w, r, "/admin/products", 302)
		return
	}
	s.render(w, "admin_auth.html", map[string]any{"OAuthEnabled": s.oauthCfg != nil})
}

func (s *Server) handleAdminLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{Name: adminCookie, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, "/", 302)
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	if s.oauthCfg == nil {
		http.Error(w, "oauth no configurado", 500)
		return
	}
	state := uuid.NewString()
	http.SetCookie(w, &http.Cookie{Name: "oauth_state", Value: state, Path: "/", MaxAge: 300, HttpOnly: true})
	http.Redirect(w, r, s.oauthCfg.AuthCodeURL(state), 302)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	if s.oauthCfg == nil {
		http.Error(w, "oauth no configurado", 500)
		return
	}
	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" || stateCookie.Value != r.URL.Query().Get("state") {
		http.Error(w, "state", 400)
		return
	}
	tok, err := s.oauthCfg.Exchange(r.Context(), r.URL.Query().Get("code"))
	if err != nil {
		log.Error().Err(err).Msg("oauth exchange")
		http.Error(w, "oauth", 502)
		return
	}
	client := s.oauthCfg.Client(r.Context(), tok)
	res, err := client.Get("https://www.googleapis.com/oauth2/v2/userinfo")
	if err != nil {
		http.Error(w, "userinfo", 502)
		return
	}
	defer res.Body.Close()
	var info struct {
		Email string `json:"email"`
	}
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		http.Error(w, "userinfo", 502)
		return
	}
	email := strings.ToLower(strings.TrimSpace(info.Email))
	if _, ok := s.adminAllowed[email]; !ok {
		http.Error(w, "no autorizado", 403)
		return
	}
	val, exp, err := s.issueAdminToken(email, 12*time.Hour)
	if err != nil {
		http.Error(w, "token", 500)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: adminCookie, Value: val, Path: "/", Expires: exp, HttpOnly: true})
	http.Redirect(w, r, "/admin/products", 302)
}

// token admin: email|exp firmado con HMAC-SHA256, igual que la cookie de
// carrito del proyecto anterior
func (s *Server) issueAdminToken(email string, dur time.Duration) (string, time.Time, error) {
	exp := time.Now().Add(dur)
	payload := email + "|" + strconv.FormatInt(exp.Unix(), 10)
	h := hmac.New(sha256.New, s.adminSecret)
	h.Write([]byte(payload))
	sig := base64.RawURLEncoding.EncodeToString(h.Sum(nil))
	return base64.RawURLEncoding.EncodeToString([]byte(payload)) + "." + sig, exp, nil
}

func (s *Server) verifyAdminToken(tok string) (string, error) {
	parts := strings.SplitN(tok, ".", 2)
	if len(parts) != 2 {
		return "", errors.New("formato")
	}
	payload, err := base64.RawURLEncoding.DecodeString(parts[0])
	if err != nil {
		return "", err
	}
	h := hmac.New(sha256.New, s.adminSecret)
	h.Write(payload)
	want := base64.RawURLEncoding.EncodeToString(h.Sum(nil))
	if !hmac.Equal([]byte(want), []byte(parts[1])) {
		return "", errors.New("firma")
	}
	fields := strings.SplitN(string(payload), "|", 2)
	if len(fields) != 2 {
		return "", errors.New("payload")
	}
	expUnix, err := strconv.ParseInt(fields[1], 10, 64)
	if err != nil || time.Now().Unix() > expUnix {
		return "", errors.New("expirado")
	}
	return fields[0], nil
}

func (s *Server) isAdminSession(r *http.Request) bool {
	c, err := r.Cookie(adminCookie)
	if err != nil || c.Value == "" {
		return false
	}
	_, err = s.verifyAdminToken(c.Value)
	return err == nil
}

func (s *Server) requireAdmin(w http.ResponseWriter, r *http.Request) bool {
	if s.isAdminSession(r) {
		return true
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		if _, err := s.verifyAdminToken(strings.TrimPrefix(auth, "Bearer ")); err == nil {
			return true
		}
	}
	http.Error(w, "unauthorized", 401)
	return false
}

func (s *Server) handleAdminProducts(w http.ResponseWriter, r *http.Request) {
	if !s.isAdminSession(r) {
		http.Redirect(w, r, "/admin/auth", 302)
		return
	}
	list, err := s.catalog.FetchAll(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("catálogo no disponible")
		list = s.catalog.Products()
	}
	s.render(w, "admin_products.html", map[string]any{"Products": list, "Total": len(list)})
}

func (s *Server) handleAdminOrders(w http.ResponseWriter, r *http.Request) {
	if !s.isAdminSession(r) {
		http.Redirect(w, r, "/admin/auth", 302)
		return
	}
	list, err := s.orders.List(r.Context())
	if err != nil {
		http.Error(w, "err", 500)
		return
	}
	s.render(w, "admin_orders.html", map[string]any{
		"Orders":   list,
		"Statuses": []domain.OrderStatus{domain.OrderStatusPending, domain.OrderStatusProcessing, domain.OrderStatusDelivered},
	})
}

func (s *Server) handleAdminOrderStatus(w http.ResponseWriter, r *http.Request) {
	if !s.isAdminSession(r) {
		http.Redirect(w, r, "/admin/auth", 302)
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "form", 400)
		return
	}
	if err := s.orders.UpdateStatus(r.Context(), r.FormValue("order_id"), r.FormValue("status")); err != nil {
		log.Error().Err(err).Msg("actualizar status")
		http.Error(w, "status", 500)
		return
	}
	http.Redirect(w, r, "/admin/orders", 302)
}

func (s *Server) handleAdminExportOrders(w http.ResponseWriter, r *http.Request) {
	if !s.isAdminSession(r) {
		http.Redirect(w, r, "/admin/auth", 302)
		return
	}
	list, err := s.orders.List(r.Context())
	if err != nil {
		http.Error(w, "err", 500)
		return
	}
	f := excelize.NewFile()
	sheet := "Orders"
	_ = f.SetSheetName("Sheet1", sheet)
	headers := []string{"ID", "Customer", "Phone", "Address", "Items", "Total", "Status", "Created"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for row, o := range list {
		itemsDesc := make([]string, 0, len(o.Items))
		for _, it := range o.Items {
			itemsDesc = append(itemsDesc, fmt.Sprintf("%dx %s", it.Quantity, it.Name))
		}
		values := []any{o.ID, o.CustomerName, o.Phone, o.Address, strings.Join(itemsDesc, ", "), o.Total, string(o.Status), o.CreatedAt.Format(time.RFC3339)}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="orders.xlsx"`)
	if err := f.Write(w); err != nil {
		log.Error().Err(err).Msg("export xlsx")
	}
}

func (s *Server) apiProducts(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	if r.Method == http.MethodGet {
		list, err := s.catalog.FetchAll(r.Context())
		if err != nil {
			http.Error(w, "backend", 502)
			return
		}
		writeJSON(w, 200, map[string]any{"items": list, "total": len(list)})
		return
	}
	if r.Method == http.MethodPost {
		form, err := parseProductForm(r)
		if err != nil {
			http.Error(w, "form", 400)
			return
		}
		p, err := s.catalog.Create(r.Context(), form)
		if err != nil {
			log.Error().Err(err).Msg("crear producto")
			http.Error(w, "crear", 502)
			return
		}
		writeJSON(w, 201, p)
		return
	}
	http.Error(w, "method", 405)
}

func (s *Server) apiProductByID(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/products/")
	if id == "" {
		http.Error(w, "id", 400)
		return
	}
	switch r.Method {
	case http.MethodGet:
		p, err := s.catalog.FetchByID(r.Context(), id)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "backend", 502)
			return
		}
		writeJSON(w, 200, p)
	case http.MethodPut:
		form, err := parseProductForm(r)
		if err != nil {
			http.Error(w, "form", 400)
			return
		}
		if err := s.catalog.Update(r.Context(), id, form); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			log.Error().Err(err).Msg("actualizar producto")
			http.Error(w, "update", 502)
			return
		}
		writeJSON(w, 200, map[string]any{"status": "ok", "id": id})
	case http.MethodDelete:
		if err := s.catalog.Delete(r.Context(), id); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				http.NotFound(w, r)
				return
			}
			http.Error(w, "delete", 502)
			return
		}
		writeJSON(w, 200, map[string]any{"status": "ok", "id": id})
	default:
		http.Error(w, "method", 405)
	}
}

func (s *Server) apiOrders(w http.ResponseWriter, r *http.Request) {
	if !s.requireAdmin(w, r) {
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "method", 405)
		return
	}
	list, err := s.orders.List(r.Context())
	if err != nil {
		http.Error(w, "backend", 502)
		return
	}
	writeJSON(w, 200, map[string]any{"items": list, "total": len(list)})
}

// parseProductForm arma el ProductForm que se reenvía multipart al backend.
// Las imágenes viajan como archivos; el resto como campos de texto.
func parseProductForm(r *http.Request) (domain.ProductForm, error) {
	if err := r.ParseMultipartForm(25 << 20); err != nil {
		return domain.ProductForm{}, err
	}
	price, err := strconv.ParseFloat(r.FormValue("price"), 64)
	if err != nil || price < 0 {
		return domain.ProductForm{}, errors.New("precio inválido")
	}
	name := strings.TrimSpace(r.FormValue("name"))
	if name == "" {
		return domain.ProductForm{}, errors.New("nombre vacío")
	}
	roast, ok := domain.ParseRoastLevel(r.FormValue("roast_level"))
	if !ok {
		roast = domain.RoastMedium
	}
	form := domain.ProductForm{
		Name:        name,
		Description: r.FormValue("description"),
		Origin:      r.FormValue("origin"),
		RoastLevel:  roast,
		Price:       price,
	}
	for _, raw := range strings.Split(r.FormValue("flavor_notes"), ",") {
		if note := strings.TrimSpace(raw); note != "" {
			form.FlavorNotes = append(form.FlavorNotes, note)
		}
	}
	if r.MultipartForm != nil {
		if fhs, ok := r.MultipartForm.File["main_image"]; ok && len(fhs) > 0 {
			img, err := readImage(fhs[0])
			if err != nil {
				return domain.ProductForm{}, err
			}
			form.MainImage = img
		}
		for _, fh := range r.MultipartForm.File["gallery_images"] {
			img, err := readImage(fh)
			if err != nil {
				continue
			}
			form.Gallery = append(form.Gallery, *img)
		}
	}
	return form, nil
}

func readImage(fh *multipart.FileHeader) (*domain.ImageFile, error) {
	if fh.Size == 0 {
		return nil, errors.New("archivo vacío")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil || len(data) == 0 {
		return nil, errors.New("no se pudo leer el archivo")
	}
	return &domain.ImageFile{Name: fh.Filename, Data: data}, nil
}
