// Package position plans the renumbering of a dense 1..N ordered
// collection under insert, move and delete. It computes what has to change;
// the store applies it.
package position

import (
	"fmt"

	"github.com/rezvoj/RecipeSiteBackend/internal/model"
)

// Shift moves every sibling whose position lies in [From, To] by Delta.
// A shift with From > To touches nothing.
type Shift struct {
	From  int
	To    int
	Delta int
}

// Empty reports whether the shift touches no position.
func (s Shift) Empty() bool {
	return s.From > s.To || s.Delta == 0
}

// Covers reports whether pos is moved by the shift.
func (s Shift) Covers(pos int) bool {
	return !s.Empty() && pos >= s.From && pos <= s.To
}

// Apply returns where pos ends up after the shift.
func (s Shift) Apply(pos int) int {
	if s.Covers(pos) {
		return pos + s.Delta
	}
	return pos
}

func requested(p int) error {
	if p < 1 {
		return model.Invalid("number", "must be at least 1")
	}
	return nil
}

func existing(n, pos int) error {
	if pos < 1 || pos > n {
		return fmt.Errorf("position %d of %d: %w", pos, n, model.ErrNotFound)
	}
	return nil
}

// Insert plans adding an item at requested position p to a collection of n
// items. It returns the effective position, min(p, n+1), and the shift that
// opens a gap there.
func Insert(n, p int) (int, Shift, error) {
	if err := requested(p); err != nil {
		return 0, Shift{}, err
	}
	at := min(p, n+1)
	return at, Shift{From: at, To: n, Delta: 1}, nil
}

// Move plans moving the item at position old to requested position p. It
// returns the effective target, min(p, n), and the shift of the siblings in
// between. The target equals old when nothing changes.
func Move(n, old, p int) (int, Shift, error) {
	if err := requested(p); err != nil {
		return 0, Shift{}, err
	}
	if err := existing(n, old); err != nil {
		return 0, Shift{}, err
	}

	target := min(p, n)
	switch {
	case target > old:
		return target, Shift{From: old + 1, To: target, Delta: -1}, nil
	case target < old:
		return target, Shift{From: target, To: old - 1, Delta: 1}, nil
	default:
		return target, Shift{}, nil
	}
}

// Delete plans removing the item at position d and closing the gap.
func Delete(n, d int) (Shift, error) {
	if err := existing(n, d); err != nil {
		return Shift{}, err
	}
	return Shift{From: d + 1, To: n, Delta: -1}, nil
}
