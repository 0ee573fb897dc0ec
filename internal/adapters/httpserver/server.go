package httpserver

import (
	"encoding/json"
	"errors"
	"html/template"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"

	"github.com/phenrril/dailybrew/internal/config"
	"github.com/phenrril/dailybrew/internal/domain"
	"github.com/phenrril/dailybrew/internal/usecase"
)

const (
	cartCookie    = "cart_session"
	consentCookie = "storage_consent"
)

type Server struct {
	mux      *http.ServeMux
	tmpl     *template.Template
	catalog  *usecase.CatalogUC
	carts    *usecase.Carts
	checkout *usecase.CheckoutUC
	orders   *usecase.OrderUC
	oauthCfg *oauth2.Config

	adminAllowed map[string]struct{}
	adminSecret  []byte
}

func New(t *template.Template, catalog *usecase.CatalogUC, carts *usecase.Carts, checkout *usecase.CheckoutUC, orders *usecase.OrderUC, oauthCfg *oauth2.Config, cfg config.Config) http.Handler {
	s := &Server{
		mux:      http.NewServeMux(),
		tmpl:     t,
		catalog:  catalog,
		carts:    carts,
		checkout: checkout,
		orders:   orders,
		oauthCfg: oauthCfg,
	}

	allowed := map[string]struct{}{}
	for _, e := range cfg.AdminAllowedEmails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e != "" {
			allowed[e] = struct{}{}
		}
	}
	s.adminAllowed = allowed
	sec := cfg.SessionKey
	if sec == "" {
		sec = "dev-admin-secret"
	}
	s.adminSecret = []byte(sec)

	s.routes()
	return Chain(s.mux,
		RateLimit(120),
		Gzip,
		RequestID,
		Recovery,
		Logging,
	)
}

func (s *Server) routes() {
	s.mux.Handle("/public/", http.StripPrefix("/public/", http.FileServer(http.Dir("public"))))

	s.mux.HandleFunc("/", s.handleHome)
	s.mux.HandleFunc("/shop", s.handleShop)
	s.mux.HandleFunc("/product/", s.handleProduct)

	s.mux.HandleFunc("/cart", s.handleCart)
	s.mux.HandleFunc("/cart/update", s.handleCartUpdate)
	s.mux.HandleFunc("/cart/remove", s.handleCartRemove)

	s.mux.HandleFunc("/checkout", s.handleCheckout)
	s.mux.HandleFunc("/thank-you", s.handleThankYou)
	s.mux.HandleFunc("/consent", s.handleConsent)

	s.mux.HandleFunc("/api/products", s.apiProducts)
	s.mux.HandleFunc("/api/products/", s.apiProductByID)
	s.mux.HandleFunc("/api/orders", s.apiOrders)

	s.mux.HandleFunc("/auth/google/login", s.handleGoogleLogin)
	s.mux.HandleFunc("/auth/google/callback", s.handleGoogleCallback)

	s.mux.HandleFunc("/admin/auth", s.handleAdminAuth)
	s.mux.HandleFunc("/admin/logout", s.handleAdminLogout)
	s.mux.HandleFunc("/admin/products", s.handleAdminProducts)
	s.mux.HandleFunc("/admin/orders", s.handleAdminOrders)
	s.mux.HandleFunc("/admin/orders/status", s.handleAdminOrderStatus)
	s.mux.HandleFunc("/admin/export/orders", s.handleAdminExportOrders)
}

// cartSession devuelve el carrito de la sesión, creando la cookie si hace
// falta. La rehidratación corre una sola vez por clave, adentro de Carts.
func (s *Server) cartSession(w http.ResponseWriter, r *http.Request) *usecase.CartStore {
	key := ""
	if c, err := r.Cookie(cartCookie); err == nil {
		key = strings.TrimSpace(c.Value)
	}
	if key == "" || uuid.Validate(key) != nil {
		key = uuid.NewString()
		http.SetCookie(w, &http.Cookie{Name: cartCookie, Value: key, Path: "/", MaxAge: 60 * 60 * 24 * 7, HttpOnly: true})
	}
	return s.carts.Session(r.Context(), key)
}

func (s *Server) hasConsent(r *http.Request) bool {
	c, err := r.Cookie(consentCookie)
	return err == nil && c.Value == "true"
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	list, err := s.catalog.FetchAll(r.Context())
	if err != nil {
		log.Warn().Err(err).Msg("catálogo no disponible")
		list = s.catalog.Products()
	}
	if len(list) > 4 {
		list = list[:4]
	}
	cart := s.cartSession(w, r)
	s.render(w, "home.html", map[string]any{
		"Products":    list,
		"CartCount":   cart.State().Count(),
		"ShowConsent": !s.hasConsent(r),
	})
}

func (s *Server) handleShop(w http.ResponseWriter, r *http.Request) {
	if _, err := s.catalog.FetchAll(r.Context()); err != nil {
		log.Warn().Err(err).Msg("catálogo no disponible")
	}
	qv := r.URL.Query()
	f := domain.ProductFilter{
		Query: qv.Get("q"),
		Sort:  qv.Get("sort"),
	}
	for _, raw := range qv["roast"] {
		if roast, ok := domain.ParseRoastLevel(raw); ok {
			f.RoastLevels = append(f.RoastLevels, roast)
		}
	}
	if v, err := strconv.ParseFloat(qv.Get("price_min"), 64); err == nil {
		f.PriceMin = v
	}
	if v, err := strconv.ParseFloat(qv.Get("price_max"), 64); err == nil {
		f.PriceMax = v
	}
	cart := s.cartSession(w, r)
	s.render(w, "shop.html", map[string]any{
		"Products":    s.catalog.Filter(f),
		"Query":       f.Query,
		"Sort":        f.Sort,
		"Roasts":      f.RoastLevels,
		"CartCount":   cart.State().Count(),
		"ShowConsent": !s.hasConsent(r),
	})
}

func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/product/")
	if id == "" {
		http.NotFound(w, r)
		return
	}
	p, err := s.catalog.FetchByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			http.NotFound(w, r)
			return
		}
		log.Error().Err(err).Str("id", id).Msg("producto no disponible")
		http.Error(w, "backend", 502)
		return
	}
	if len(s.catalog.Products()) == 0 {
		_, _ = s.catalog.FetchAll(r.Context())
	}
	cart := s.cartSession(w, r)
	added := r.URL.Query().Get("added") == "1"
	s.render(w, "product.html", map[string]any{
		"Product":     p,
		"Similar":     s.catalog.Similar(p, 4),
		"Added":       added,
		"CartCount":   cart.State().Count(),
		"ShowConsent": !s.hasConsent(r),
	})
}

func (s *Server) handleCart(w http.ResponseWriter, r *http.Request) {
	cart := s.cartSession(w, r)
	if r.Method == http.MethodGet {
		state := cart.State()
		s.render(w, "cart.html", map[string]any{
			"Items":       state.Items,
			"Total":       state.Total,
			"CartCount":   state.Count(),
			"ShowConsent": !s.hasConsent(r),
		})
		return
	}
	if r.Method == http.MethodPost {
		if err := r.ParseForm(); err != nil {
			http.Error(w, "form", 400)
			return
		}
		id := r.FormValue("product_id")
		if id == "" {
			http.Error(w, "product_id", 400)
			return
		}
		p, err := s.catalog.FetchByID(r.Context(), id)
		if err != nil {
			http.Error(w, "prod", 404)
			return
		}
		if err := cart.Add(r.Context(), p); err != nil {
			http.Error(w, "cart", 500)
			return
		}
		if wantsJSON(r) {
			writeJSON(w, 200, map[string]any{"status": "ok", "items": cart.State().Count()})
			return
		}
		http.Redirect(w, r, "/product/"+id+"?added=1", 302)
		return
	}
	http.Error(w, "method", 405)
}

func (s *Server) handleCartUpdate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "form", 400)
		return
	}
	id := r.FormValue("product_id")
	op := r.FormValue("op")
	cart := s.cartSession(w, r)

	var err error
	switch op {
	case "inc":
		err = cart.Adjust(r.Context(), id, 1)
	case "dec":
		// Adjust elimina la línea si el delta la deja abajo de 1
		err = cart.Adjust(r.Context(), id, -1)
	case "set":
		q, convErr := strconv.Atoi(r.FormValue("qty"))
		if convErr != nil {
			http.Error(w, "qty", 400)
			return
		}
		if q < 1 {
			err = cart.Remove(r.Context(), id)
		} else {
			err = cart.SetQuantity(r.Context(), id, q)
		}
	default:
		http.Error(w, "op", 400)
		return
	}
	if err != nil {
		http.Error(w, "cart", 500)
		return
	}
	http.Redirect(w, r, "/cart", 302)
}

func (s *Server) handleCartRemove(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "form", 400)
		return
	}
	cart := s.cartSession(w, r)
	if err := cart.Remove(r.Context(), r.FormValue("product_id")); err != nil {
		http.Error(w, "cart", 500)
		return
	}
	http.Redirect(w, r, "/cart", 302)
}

func (s *Server) handleCheckout(w http.ResponseWriter, r *http.Request) {
	cart := s.cartSession(w, r)
	state := cart.State()
	// precondición del flujo: con carrito vacío no se llega acá
	if len(state.Items) == 0 {
		http.Redirect(w, r, "/cart", 302)
		return
	}
	if r.Method == http.MethodGet {
		s.render(w, "checkout.html", map[string]any{
			"Items":     state.Items,
			"Total":     state.Total,
			"CartCount": state.Count(),
			"Form":      usecase.DeliveryInfo{},
		})
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
	info := usecase.DeliveryInfo{
		Name:         r.FormValue("name"),
		Phone:        r.FormValue("phone"),
		Address:      r.FormValue("address"),
		Apartment:    r.FormValue("apartment"),
		City:         r.FormValue("city"),
		ZipCode:      r.FormValue("zip_code"),
		Instructions: r.FormValue("instructions"),
	}
	orderID, err := s.checkout.Submit(r.Context(), cart, info)
	if err != nil {
		if errors.Is(err, usecase.ErrEmptyCart) {
			http.Redirect(w, r, "/cart", 302)
			return
		}
		log.Error().Err(err).Msg("crear orden")
		s.render(w, "checkout.html", map[string]any{
			"Items":     state.Items,
			"Total":     state.Total,
			"CartCount": state.Count(),
			"Form":      info,
			"Error":     "No pudimos crear tu orden. Probá de nuevo.",
		})
		return
	}
	http.Redirect(w, r, "/thank-you?order="+orderID, 302)
}

func (s *Server) handleThankYou(w http.ResponseWriter, r *http.Request) {
	orderID := r.URL.Query().Get("order")
	if orderID == "" {
		http.Redirect(w, r, "/", 302)
		return
	}
	s.render(w, "thankyou.html", map[string]any{"OrderID": orderID})
}

func (s *Server) handleConsent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method", 405)
		return
	}
	http.SetCookie(w, &http.Cookie{Name: consentCookie, Value: "true", Path: "/", MaxAge: 60 * 60 * 24 * 365})
	ref := r.Header.Get("Referer")
	if ref == "" {
		ref = "/"
	}
	http.Redirect(w, r, ref, 302)
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json") ||
		r.Header.Get("X-Requested-With") == "fetch"
}

func (s *Server) render(w http.ResponseWriter, name string, data any) {
	if m, ok := data.(map[string]any); ok {
		if _, exists := m["Year"]; !exists {
			m["Year"] = time.Now().Year()
		}
		data = m
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := s.tmpl.ExecuteTemplate(w, name, data); err != nil {
		log.Error().Err(err).Str("tpl", name).Msg("render")
		http.Error(w, "tpl", 500)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
