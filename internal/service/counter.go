package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/Adam-Grimes/CINEMA/internal/repository"
)

// CountersCollection holds one document per sequence name with a single
// numeric "count" field.
const CountersCollection = "counters"

const countField = "count"

// Counter mints strictly increasing integers per sequence name.
type Counter struct {
	store repository.DocumentRepo
}

func NewCounter(store repository.DocumentRepo) *Counter {
	return &Counter{store: store}
}

// Next increments the named sequence and returns the new value.  The read
// and the write happen inside one store transaction, so concurrent callers
// never receive the same number.  A missing counter document counts as 0.
// Any store failure is returned unchanged and nothing is retried.
func (c *Counter) Next(ctx context.Context, sequence string) (int64, error) {
	var next int64
	err := c.store.Transact(ctx, CountersCollection, sequence,
		func(cur repository.Document, exists bool) (repository.Document, error) {
			var n int64
			if exists {
				v, err := countValue(cur[countField])
				if err != nil {
					return nil, fmt.Errorf("counter %q: %w", sequence, err)
				}
				n = v
			}
			next = n + 1
			out := cur
			if out == nil {
				out = repository.Document{}
			}
			out[countField] = next
			return out, nil
		})
	if err != nil {
		return 0, err
	}
	return next, nil
}

// Current returns the last value handed out, or 0 for an unused sequence.
func (c *Counter) Current(ctx context.Context, sequence string) (int64, error) {
	doc, err := c.store.Get(ctx, CountersCollection, sequence)
	if err != nil {
		if errors.Is(err, repository.ErrDocumentNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return countValue(doc[countField])
}

// FormatID renders the visible identifier, e.g. FormatID("Screening", 7)
// is "Screening7".
func FormatID(prefix string, n int64) string {
	return prefix + strconv.FormatInt(n, 10)
}

// countValue accepts the numeric shapes the drivers hand back: int64 from
// the memory store, float64 or json.Number after a JSON round trip.
func countValue(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case float64:
		if n != math.Trunc(n) {
			return 0, fmt.Errorf("count %v is not an integer", n)
		}
		return int64(n), nil
	case json.Number:
		return n.Int64()
	}
	return 0, fmt.Errorf("count has unexpected type %T", v)
}
