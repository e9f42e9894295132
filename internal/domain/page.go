package domain

const (
	// DefaultPage — страница по умолчанию, если параметр не передан.
	DefaultPage = 1
	// DefaultPageSize — размер страницы по умолчанию.
	DefaultPageSize = 10
	// MaxPageSize — потолок размера страницы, применяется независимо от
	// того, что запросил клиент: ограничивает размер ответа.
	MaxPageSize = 10
)

// PageRequest — запрошенные параметры пагинации.
type PageRequest struct {
	Page  int
	Limit int
}

// Normalize приводит параметры к допустимым значениям: страница не меньше 1,
// лимит в пределах [1, MaxPageSize].
func (p PageRequest) Normalize() PageRequest {
	if p.Page < 1 {
		p.Page = DefaultPage
	}
	if p.Limit < 1 {
		p.Limit = DefaultPageSize
	}
	if p.Limit > MaxPageSize {
		p.Limit = MaxPageSize
	}
	return p
}

// Offset возвращает количество записей, пропускаемых перед текущей страницей.
func (p PageRequest) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Page — ограниченный срез полного набора результатов плюс метаданные о
// позиции внутри него. Живет один запрос и не сохраняется.
type Page[T any] struct {
	Items       []T
	Page        int
	Limit       int
	TotalDocs   int
	TotalPages  int
	HasPrevPage bool
	HasNextPage bool
}

// NewPage собирает страницу из выбранных записей и общего количества
// совпадений. totalPages = ceil(totalDocs/limit); страница за пределами
// набора дает пустой Items при корректных итогах.
func NewPage[T any](items []T, req PageRequest, totalDocs int) Page[T] {
	req = req.Normalize()
	if items == nil {
		items = []T{}
	}
	totalPages := (totalDocs + req.Limit - 1) / req.Limit
	return Page[T]{
		Items:       items,
		Page:        req.Page,
		Limit:       req.Limit,
		TotalDocs:   totalDocs,
		TotalPages:  totalPages,
		HasPrevPage: req.Page > 1,
		HasNextPage: req.Page < totalPages,
	}
}
