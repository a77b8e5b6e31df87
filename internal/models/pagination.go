package models

const (
	DefaultPageLimit = 10
	MaxPageLimit     = 100
	// MaxPage держит смещение (MaxPage-1)*MaxPageLimit в пределах int32.
	MaxPage = 1_000_000
)

// Page - параметры постраничной выборки. Page начинается с 1.
type Page struct {
	Page  int
	Limit int
}

// Normalize приводит параметры к допустимым значениям.
func (p Page) Normalize() Page {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Page > MaxPage {
		p.Page = MaxPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageLimit
	}
	if p.Limit > MaxPageLimit {
		p.Limit = MaxPageLimit
	}
	return p
}

// Offset возвращает смещение для SQL.
func (p Page) Offset() int {
	p = p.Normalize()
	return (p.Page - 1) * p.Limit
}

// PageResponse - обёртка постраничного ответа.
type PageResponse[T any] struct {
	Items       []T `json:"items"`
	Total       int `json:"total"`
	CurrentPage int `json:"current_page"`
	PerPage     int `json:"per_page"`
}

// NewPageResponse собирает ответ, пустой список сериализуется как [].
func NewPageResponse[T any](items []T, total int, p Page) PageResponse[T] {
	p = p.Normalize()
	if items == nil {
		items = []T{}
	}
	return PageResponse[T]{Items: items, Total: total, CurrentPage: p.Page, PerPage: p.Limit}
}
