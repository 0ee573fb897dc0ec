package app

import (
	"fmt"
	"html/template"
	"net/http"
	"strings"

	"github.com/redis/go-redis/v9"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/phenrril/dailybrew/internal/adapters/backend"
	"github.com/phenrril/dailybrew/internal/adapters/cartstore/gormstore"
	"github.com/phenrril/dailybrew/internal/adapters/cartstore/localfs"
	"github.com/phenrril/dailybrew/internal/adapters/cartstore/redisstore"
	"github.com/phenrril/dailybrew/internal/adapters/httpserver"
	"github.com/phenrril/dailybrew/internal/config"
	"github.com/phenrril/dailybrew/internal/domain"
	"github.com/phenrril/dailybrew/internal/usecase"
	"github.com/phenrril/dailybrew/internal/views"
)

type App struct {
	Cfg         config.Config
	Tmpl        *template.Template
	CatalogUC   *usecase.CatalogUC
	Carts       *usecase.Carts
	CheckoutUC  *usecase.CheckoutUC
	OrderUC     *usecase.OrderUC
	OAuthConfig *oauth2.Config
}

func NewApp(cfg config.Config) (*App, error) {
	client := backend.New(cfg.BackendURL)

	storage, err := newCartStorage(cfg)
	if err != nil {
		return nil, err
	}

	var oauthCfg *oauth2.Config
	if cfg.GoogleClientID != "" && cfg.GoogleClientSecret != "" {
		oauthCfg = &oauth2.Config{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RedirectURL:  cfg.BaseURL + "/auth/google/callback",
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		}
	}

	tmpl, err := parseTemplates(cfg)
	if err != nil {
		return nil, err
	}

	return &App{
		Cfg:         cfg,
		Tmpl:        tmpl,
		CatalogUC:   usecase.NewCatalogUC(client),
		Carts:       usecase.NewCarts(storage),
		CheckoutUC:  &usecase.CheckoutUC{Orders: client},
		OrderUC:     &usecase.OrderUC{Orders: client},
		OAuthConfig: oauthCfg,
	}, nil
}

func (a *App) HTTPHandler() http.Handler {
	return httpserver.New(a.Tmpl, a.CatalogUC, a.Carts, a.CheckoutUC, a.OrderUC, a.OAuthConfig, a.Cfg)
}

func newCartStorage(cfg config.Config) (domain.CartStorage, error) {
	switch strings.ToLower(cfg.CartStore) {
	case "", "localfs":
		return localfs.New(cfg.CartDir), nil
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		return redisstore.New(rdb), nil
	case "postgres":
		if cfg.DBDSN == "" {
			return nil, fmt.Errorf("CART_STORE=postgres requiere DB_DSN")
		}
		db, err := gorm.Open(postgres.Open(cfg.DBDSN), &gorm.Config{})
		if err != nil {
			return nil, fmt.Errorf("abrir postgres: %w", err)
		}
		return gormstore.New(db)
	default:
		return nil, fmt.Errorf("CART_STORE desconocido: %q", cfg.CartStore)
	}
}

func parseTemplates(cfg config.Config) (*template.Template, error) {
	funcMap := template.FuncMap{
		"add":     func(a, b int) int { return a + b },
		"sub":     func(a, b int) int { return a - b },
		"mul":     func(a, b float64) float64 { return a * b },
		"tofloat": func(n int) float64 { return float64(n) },
		"usd": func(v float64) string {
			if v < 0 {
				return fmt.Sprintf("-$%.2f", -v)
			}
			return fmt.Sprintf("$%.2f", v)
		},
		"img": func(u string) string {
			s := strings.TrimSpace(u)
			if s == "" {
				return s
			}
			if !strings.HasPrefix(s, "http://") && !strings.HasPrefix(s, "https://") && !strings.HasPrefix(s, "/") {
				s = "/" + s
			}
			return strings.ReplaceAll(s, " ", "%20")
		},
	}

	if cfg.IsDev() {
		tmpl, err := template.New("layout").Funcs(funcMap).ParseGlob("internal/views/*.html")
		if err != nil {
			return nil, err
		}
		return tmpl.ParseGlob("internal/views/admin/*.html")
	}
	return template.New("layout").Funcs(funcMap).ParseFS(views.FS, "*.html", "admin/*.html")
}
