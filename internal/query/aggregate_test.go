package query

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAggregateExpr(t *testing.T) {
	agg := Aggregate{
		Func:     Avg,
		Value:    "ra.stars",
		From:     "ratings ra JOIN recipes rr ON rr.id = ra.recipe_id",
		Link:     "rr.account_id = a.id",
		Stamp:    "ra.created_at",
		Accepted: "rr",
	}

	plain := agg.Expr(nil)
	assert.Equal(t,
		"(SELECT COALESCE(AVG(ra.stars), 0) FROM ratings ra JOIN recipes rr ON rr.id = ra.recipe_id WHERE (rr.account_id = a.id) AND (rr.status = 'ACCEPTED'))",
		plain.SQL)
	assert.Empty(t, plain.Args)

	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)
	windowed := agg.Expr(TrailingDays(7, now))
	assert.Contains(t, windowed.SQL, "(ra.created_at BETWEEN ? AND ?)")
	assert.Equal(t, []any{"2024-03-03 12:00:00", "2024-03-10 12:00:00"}, windowed.Args)
}

func TestAggregateCountIsDistinct(t *testing.T) {
	agg := Aggregate{Func: Count, Value: "f.account_id", From: "category_favourites f", Link: "f.category_id = c.id"}
	assert.Equal(t,
		"(SELECT COUNT(DISTINCT f.account_id) FROM category_favourites f WHERE f.category_id = c.id)",
		agg.Expr(nil).SQL)
}

func TestTrailingDays(t *testing.T) {
	now := time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

	week := TrailingDays(7, now)
	assert.Equal(t, now.AddDate(0, 0, -7), week.Since)
	assert.Equal(t, now, week.Until)

	for _, days := range []int{200000, MaxWindowDays, math.MaxInt} {
		w := TrailingDays(days, now)
		assert.True(t, w.Since.Before(now), days)
		assert.Len(t, FormatTime(w.Since), len(FormatTime(now)), days)
	}
	assert.Equal(t, TrailingDays(MaxWindowDays, now), TrailingDays(math.MaxInt, now))
}
