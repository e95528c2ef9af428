package query

import (
	"fmt"
	"time"
)

// Aggregate functions.
const (
	Count = "COUNT"
	Avg   = "AVG"
)

// Aggregate describes a derived statistic as a correlated subquery over the
// rows related to the outer record.
type Aggregate struct {
	// Func is Count or Avg.
	Func string
	// Value is the aggregated expression (counted distinctly for Count).
	Value string
	// From lists the related rows, joins included.
	From string
	// Link correlates the related rows with the outer record.
	Link string
	// Stamp is the creation time of the related rows, used for windowing.
	Stamp string
	// Accepted names the recipes alias when the join path touches recipes;
	// only accepted recipes contribute.
	Accepted string
}

// Window is a trailing time range [Since, Until].
type Window struct {
	Since time.Time
	Until time.Time
}

// MaxWindowDays bounds a window; longer windows already reach back past any
// stored record.
const MaxWindowDays = 366 * 1000

// TrailingDays returns the window of the given number of days ending at now.
func TrailingDays(days int, now time.Time) *Window {
	days = min(days, MaxWindowDays)
	return &Window{Since: now.AddDate(0, 0, -days), Until: now}
}

// Expr returns the subquery computing the statistic. A non-nil window
// restricts the related rows to those created within it.
func (a Aggregate) Expr(w *Window) Expr {
	value := fmt.Sprintf("COUNT(DISTINCT %s)", a.Value)
	if a.Func == Avg {
		value = fmt.Sprintf("COALESCE(AVG(%s), 0)", a.Value)
	}

	filter := []Expr{Where(a.Link)}
	if a.Accepted != "" {
		filter = append(filter, Where(a.Accepted+".status = 'ACCEPTED'"))
	}
	if w != nil {
		filter = append(filter, Where(a.Stamp+" BETWEEN ? AND ?", FormatTime(w.Since), FormatTime(w.Until)))
	}
	where := And(filter...)

	return Expr{
		SQL:  fmt.Sprintf("(SELECT %s FROM %s WHERE %s)", value, a.From, where.SQL),
		Args: where.Args,
	}
}
