package query

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rezvoj/RecipeSiteBackend/internal/model"
)

// Querier is satisfied by *sql.DB and *sql.Tx.
type Querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Scanner is satisfied by *sql.Rows and *sql.Row.
type Scanner interface {
	Scan(dest ...any) error
}

// Params are the validated inputs of one listing request.
type Params struct {
	Search  string
	OrderBy []string
	// Window is the trailing number of days statistics are restricted to
	// when ordering; 0 disables windowing.
	Window   int
	Page     int
	PageSize int
	// Filters are kind-specific predicates ANDed with the search.
	Filters []Expr
	// Now anchors the window; zero means time.Now.
	Now time.Time
}

// Page is one slice of an ordered listing.
type Page[T any] struct {
	Count    int `json:"count"`
	Page     int `json:"page"`
	PageSize int `json:"page_size"`
	Results  []T `json:"results"`
}

func (p Params) validate() error {
	if p.Page < 1 {
		return model.Invalid("page", "must be at least 1")
	}
	if p.PageSize < 0 {
		return model.Invalid("page_size", "must not be negative")
	}
	if p.Window < 0 {
		return model.Invalid("order_time_window", "must not be negative")
	}
	return nil
}

// List searches, orders and paginates the records described by d. scan reads
// one row: the descriptor's Columns followed by its Stats.
func List[T any](ctx context.Context, q Querier, d *Descriptor, p Params, scan func(Scanner) (T, error)) (*Page[T], error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	keys, err := d.parseOrder(p.OrderBy)
	if err != nil {
		return nil, err
	}

	var window *Window
	if p.Window > 0 {
		now := p.Now
		if now.IsZero() {
			now = time.Now()
		}
		window = TrailingDays(p.Window, now)
	}

	where := And(append([]Expr{Match(p.Search, d.Search)}, p.Filters...)...)

	page := &Page[T]{Page: p.Page, PageSize: p.PageSize, Results: []T{}}

	err = q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE %s`, d.From, where.SQL),
		where.Args...,
	).Scan(&page.Count)
	if err != nil {
		return nil, fmt.Errorf("counting records: %w", err)
	}

	if p.PageSize == 0 {
		return page, nil
	}
	// Compare in pages so a huge page number cannot overflow the offset.
	pages := page.Count / p.PageSize
	if page.Count%p.PageSize != 0 {
		pages++
	}
	if p.Page > pages {
		return page, nil
	}
	offset := (p.Page - 1) * p.PageSize

	sel := d.selectList()
	order := d.orderBy(keys, window)

	args := append([]any{}, sel.Args...)
	args = append(args, where.Args...)
	args = append(args, order.Args...)
	args = append(args, p.PageSize, offset)

	rows, err := q.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE %s ORDER BY %s LIMIT ? OFFSET ?`,
			sel.SQL, d.From, where.SQL, order.SQL),
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		item, err := scan(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning record: %w", err)
		}
		page.Results = append(page.Results, item)
	}
	return page, rows.Err()
}

// One reads the single record matching filters, with its unwindowed
// statistics. It returns false when no record matches.
func One[T any](ctx context.Context, q Querier, d *Descriptor, scan func(Scanner) (T, error), filters ...Expr) (T, bool, error) {
	var zero T

	sel := d.selectList()
	where := And(filters...)

	args := append([]any{}, sel.Args...)
	args = append(args, where.Args...)

	item, err := scan(q.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT %s FROM %s WHERE %s LIMIT 1`, sel.SQL, d.From, where.SQL),
		args...,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return zero, false, nil
	}
	if err != nil {
		return zero, false, fmt.Errorf("reading record: %w", err)
	}
	return item, true, nil
}
