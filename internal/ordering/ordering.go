// Package ordering moves one element of a display-ordered list and keeps the
// order values contiguous.
package ordering

import (
	"context"
	"fmt"

	"go.uber.org/multierr"
)

// Reorder returns a copy of items with the element at src moved to dst
// (splice semantics: remove, then insert into the shortened list) and calls
// assign on every element with its new 0-based position. items is not
// modified. Indices outside [0, len(items)) panic.
func Reorder[T any](items []T, src, dst int, assign func(*T, int)) []T {
	n := len(items)
	if src < 0 || src >= n || dst < 0 || dst >= n {
		panic(fmt.Sprintf("ordering: move %d -> %d out of range for %d items", src, dst, n))
	}

	out := make([]T, 0, n)
	out = append(out, items[:src]...)
	out = append(out, items[src+1:]...)
	moved := items[src]
	out = append(out, moved)
	copy(out[dst+1:], out[dst:n-1])
	out[dst] = moved

	if assign != nil {
		for i := range out {
			assign(&out[i], i)
		}
	}
	return out
}

// PersistPositions writes one update per element, in order, without stopping
// on failure and without rolling back earlier writes. It returns how many
// updates succeeded and every failure combined.
func PersistPositions[T any](ctx context.Context, items []T, update func(context.Context, T) error) (int, error) {
	var (
		errs error
		ok   int
	)
	for _, item := range items {
		if err := ctx.Err(); err != nil {
			errs = multierr.Append(errs, err)
			break
		}
		if err := update(ctx, item); err != nil {
			errs = multierr.Append(errs, err)
			continue
		}
		ok++
	}
	return ok, errs
}
