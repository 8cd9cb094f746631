package appstate

import (
	"errors"
)

type Language string

const (
	LanguageEnglish    Language = "en"
	LanguageIndonesian Language = "id"
)

type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Promo types
const (
	PromoDoublePoint = "double_point"
	PromoDiscount    = "discount"
	PromoSpecial     = "special"
)

var (
	ErrInvalidLanguage = errors.New("language must be en or id")
	ErrNegativePoints  = errors.New("points must not be negative")
)

type User struct {
	Name   string `json:"name"`
	Points int    `json:"points"`
	Avatar string `json:"avatar,omitempty"`
}

type Promo struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Image       string `json:"image"`
	Type        string `json:"type"`
}

type Product struct {
	ID    string   `json:"id"`
	Name  string   `json:"name"`
	Image string   `json:"image"`
	Color string   `json:"color"`
	Price *float64 `json:"price,omitempty"`
}

// State is the client-facing app state for one user. Reducers below never
// mutate their input; they return a new State.
type State struct {
	Language Language  `json:"language"`
	Theme    Theme     `json:"theme"`
	User     User      `json:"user"`
	Promos   []Promo   `json:"promos"`
	Products []Product `json:"products"`
}

const (
	promoImage   = "https://images.pexels.com/photos/5632381/pexels-photo-5632381.jpeg?auto=compress&cs=tinysrgb&w=400"
	productImage = "https://images.pexels.com/photos/7078619/pexels-photo-7078619.jpeg?auto=compress&cs=tinysrgb&w=200"
)

// Initial returns the seed state a new user starts from.
func Initial() State {
	return State{
		Language: LanguageEnglish,
		Theme:    ThemeLight,
		User:     User{Name: "MOCHAMMAD HUSNI THA", Points: 2450},
		Promos: []Promo{
			{ID: "1", Title: "Double Point Promos", Description: "Saatnya untuk mulai mengumpulkan poin. Bersama IQOS", Image: promoImage, Type: PromoDoublePoint},
			{ID: "2", Title: "Double Point Promos", Description: "Saatnya untuk mulai mengumpulkan poin. Bersama IQOS", Image: promoImage, Type: PromoDoublePoint},
		},
		Products: []Product{
			{ID: "1", Name: "IQOS ILUMAi", Image: productImage, Color: "Midnight Black"},
			{ID: "2", Name: "IQOS ILUMAi", Image: productImage, Color: "Pearl White"},
		},
	}
}

func SetLanguage(s State, lang Language) (State, error) {
	if lang != LanguageEnglish && lang != LanguageIndonesian {
		return s, ErrInvalidLanguage
	}
	s.Language = lang
	return s, nil
}

func ToggleTheme(s State) State {
	if s.Theme == ThemeLight {
		s.Theme = ThemeDark
	} else {
		s.Theme = ThemeLight
	}
	return s
}

func UpdatePoints(s State, points int) (State, error) {
	if points < 0 {
		return s, ErrNegativePoints
	}
	s.User.Points = points
	return s, nil
}

// clone copies the slices so callers cannot alias stored state.
func (s State) clone() State {
	s.Promos = append([]Promo(nil), s.Promos...)
	s.Products = append([]Product(nil), s.Products...)
	return s
}
