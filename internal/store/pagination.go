package store

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"book-review-service/internal/domain"
)

// Paginate выполняет пагинированную выборку: сначала count, затем select с
// LIMIT/OFFSET. Обе команды получают один и тот же WHERE-фрагмент и одни и те
// же аргументы, поэтому итоговые счетчики всегда считаются по тому же фильтру,
// что и сама страница. Аргументы вызывающего не изменяются.
//
// Запрос страницы за пределами набора не ошибка: вернется пустой Items при
// корректных TotalDocs/TotalPages.
func Paginate[T any](ctx context.Context, db *sqlx.DB, selectSQL, countSQL, where string, args []interface{}, orderBy string, req domain.PageRequest) (domain.Page[T], error) {
	req = req.Normalize()

	countQuery := countSQL
	if where != "" {
		countQuery += " WHERE " + where
	}
	var totalDocs int
	if err := db.GetContext(ctx, &totalDocs, countQuery, args...); err != nil {
		return domain.Page[T]{}, fmt.Errorf("failed to count rows: %w", err)
	}
	if totalDocs == 0 {
		return domain.NewPage[T](nil, req, 0), nil
	}

	query := selectSQL
	if where != "" {
		query += " WHERE " + where
	}
	query += " ORDER BY " + orderBy
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", req.Limit, req.Offset())

	var items []T
	if err := db.SelectContext(ctx, &items, query, args...); err != nil {
		return domain.Page[T]{}, fmt.Errorf("failed to select page: %w", err)
	}
	return domain.NewPage(items, req, totalDocs), nil
}

// pageSlice — пагинация среза в памяти для мок-хранилищ, та же семантика,
// что и у Paginate.
func pageSlice[T any](items []T, req domain.PageRequest) domain.Page[T] {
	req = req.Normalize()
	totalDocs := len(items)

	start := req.Offset()
	if start >= totalDocs {
		return domain.NewPage[T](nil, req, totalDocs)
	}
	end := start + req.Limit
	if end > totalDocs {
		end = totalDocs
	}
	return domain.NewPage(items[start:end], req, totalDocs)
}
