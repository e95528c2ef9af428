package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rezvoj/RecipeSiteBackend/internal/model"
	"github.com/rezvoj/RecipeSiteBackend/internal/query"
)

// DefaultPageSize applies when a listing does not name page_size.
const DefaultPageSize = 10

// MaxPageSize caps page_size.
const MaxPageSize = 100

// listParams reads the shared listing parameters:
//
//	search_string      free text, split into words
//	order_by           repeated or comma separated keys, "-" for descending
//	order_time_window  trailing days for statistic keys, 0 for all time
//	page, page_size    1-based page and its size
func listParams(r *http.Request) (query.Params, error) {
	q := r.URL.Query()
	p := query.Params{
		Search:   q.Get("search_string"),
		Page:     1,
		PageSize: DefaultPageSize,
	}

	for _, raw := range q["order_by"] {
		for _, key := range strings.Split(raw, ",") {
			if key = strings.TrimSpace(key); key != "" {
				p.OrderBy = append(p.OrderBy, key)
			}
		}
	}

	var err error
	if p.Window, err = intParam(q, "order_time_window", 0); err != nil {
		return p, err
	}
	if p.Page, err = intParam(q, "page", 1); err != nil {
		return p, err
	}
	if p.PageSize, err = intParam(q, "page_size", DefaultPageSize); err != nil {
		return p, err
	}
	if p.PageSize > MaxPageSize {
		return p, model.Invalid("page_size", "must be at most "+strconv.Itoa(MaxPageSize))
	}
	return p, nil
}

func intParam(q url.Values, name string, def int) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, model.Invalid(name, "must be an integer")
	}
	return n, nil
}

func idParam(q url.Values, name string) (int64, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, model.Invalid(name, "invalid id")
	}
	return id, nil
}

func idsParam(q url.Values, name string) ([]int64, error) {
	var ids []int64
	for _, raw := range q[name] {
		for _, part := range strings.Split(raw, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil || id < 1 {
				return nil, model.Invalid(name, "invalid id")
			}
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func boolParam(q url.Values, name string) (bool, error) {
	raw := q.Get(name)
	if raw == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, model.Invalid(name, "must be a boolean")
	}
	return b, nil
}
