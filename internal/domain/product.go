package domain

import (
	"errors"
	"strings"
)

type RoastLevel string

const (
	RoastLight  RoastLevel = "Light"
	RoastMedium RoastLevel = "Medium"
	RoastDark   RoastLevel = "Dark"
)

func ParseRoastLevel(s string) (RoastLevel, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "light":
		return RoastLight, true
	case "medium":
		return RoastMedium, true
	case "dark":
		return RoastDark, true
	}
	return "", false
}

// Product es el modelo canónico del catálogo. El precio es siempre numérico;
// cualquier formato con símbolo de moneda se normaliza en el adapter del backend.
type Product struct {
	ID            string
	Name          string
	Price         float64
	MainImage     string
	GalleryImages []string
	Description   string
	Origin        string
	RoastLevel    RoastLevel
	FlavorNotes   []string
}

type ProductFilter struct {
	Query       string
	RoastLevels []RoastLevel
	PriceMin    float64
	PriceMax    float64
	Sort        string // name_asc | name_desc | price_asc | price_desc
}

var ErrNotFound = errors.New("not found")
