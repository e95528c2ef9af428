package query

import (
	"strings"

	"github.com/rezvoj/RecipeSiteBackend/internal/model"
)

// Stat is a named derived statistic of a record kind.
type Stat struct {
	Name      string
	Aggregate Aggregate
}

// Descriptor tells the engine how to search, order and select one record
// kind.
type Descriptor struct {
	// From is the table (with alias) the records are read from.
	From string
	// Key is the primary key column, the final ordering tiebreaker.
	Key string
	// Columns are the plain selected columns, in scan order.
	Columns []string
	// Search lists the columns matched by the search tokens.
	Search []string
	// Sorts maps plain sort keys to their columns.
	Sorts map[string]string
	// Stats are selected after Columns, in order, and are sortable by name.
	Stats []Stat
}

// sortKey is one parsed ordering key. Exactly one of column and stat is set.
type sortKey struct {
	column string
	stat   *Aggregate
	desc   bool
}

// parseOrder validates the requested ordering against the descriptor's
// whitelist (plain sort keys plus statistic names) and resolves each key.
func (d *Descriptor) parseOrder(orderBy []string) ([]sortKey, error) {
	stats := make(map[string]*Aggregate, len(d.Stats))
	for i := range d.Stats {
		stats[d.Stats[i].Name] = &d.Stats[i].Aggregate
	}

	keys := make([]sortKey, 0, len(orderBy))
	for _, raw := range orderBy {
		name, desc := strings.CutPrefix(raw, "-")
		key := sortKey{desc: desc}
		if agg, ok := stats[name]; ok {
			key.stat = agg
		} else if column, ok := d.Sorts[name]; ok {
			key.column = column
		} else {
			return nil, model.Invalid("order_by", "invalid ordering parameters")
		}
		keys = append(keys, key)
	}
	return keys, nil
}

// orderBy compiles the ORDER BY clause. Statistic keys sort on the windowed
// aggregate when w is non-nil. The primary key always breaks remaining ties.
func (d *Descriptor) orderBy(keys []sortKey, w *Window) Expr {
	var parts []string
	var args []any
	for _, k := range keys {
		term := k.column
		if k.stat != nil {
			e := k.stat.Expr(w)
			term = e.SQL
			args = append(args, e.Args...)
		}
		if k.desc {
			term += " DESC"
		} else {
			term += " ASC"
		}
		parts = append(parts, term)
	}
	parts = append(parts, d.Key+" ASC")
	return Expr{SQL: strings.Join(parts, ", "), Args: args}
}

// selectList returns the selected columns followed by the unwindowed
// statistics.
func (d *Descriptor) selectList() Expr {
	parts := append([]string{}, d.Columns...)
	var args []any
	for _, s := range d.Stats {
		e := s.Aggregate.Expr(nil)
		parts = append(parts, e.SQL+" AS "+s.Name)
		args = append(args, e.Args...)
	}
	return Expr{SQL: strings.Join(parts, ", "), Args: args}
}
