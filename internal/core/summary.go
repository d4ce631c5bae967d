package core

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Bucket is one aggregation group: a key (date or supplier), the summed
// amount and how many rows contributed to it.
type Bucket struct {
	Key   string
	Total decimal.Decimal
	Count int
}

// GroupByDay sums amounts per issue date, chronologically. Rows whose date or
// amount failed to parse are excluded, not treated as zero.
func GroupByDay(records []Record) []Bucket {
	order := []string{}
	times := map[string]int64{}
	sums := map[string]*Bucket{}
	for _, r := range records {
		if !r.IssueDate.Valid || !r.Amount.Valid {
			continue
		}
		key := r.IssueDate.String()
		b, ok := sums[key]
		if !ok {
			b = &Bucket{Key: key}
			sums[key] = b
			order = append(order, key)
			times[key] = r.IssueDate.Time.Unix()
		}
		b.Total = b.Total.Add(r.Amount.Value)
		b.Count++
	}
	sort.SliceStable(order, func(i, j int) bool {
		return times[order[i]] < times[order[j]]
	})
	out := make([]Bucket, 0, len(order))
	for _, key := range order {
		out = append(out, *sums[key])
	}
	return out
}

// GroupBySupplier sums amounts per supplier, descending by total. Ordering is
// stable: equal totals keep first-encountered order.
func GroupBySupplier(records []Record) []Bucket {
	order := []string{}
	sums := map[string]*Bucket{}
	for _, r := range records {
		if !r.Amount.Valid || r.Supplier == "" {
			continue
		}
		b, ok := sums[r.Supplier]
		if !ok {
			b = &Bucket{Key: r.Supplier}
			sums[r.Supplier] = b
			order = append(order, r.Supplier)
		}
		b.Total = b.Total.Add(r.Amount.Value)
		b.Count++
	}
	out := make([]Bucket, 0, len(order))
	for _, key := range order {
		out = append(out, *sums[key])
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Total.GreaterThan(out[j].Total)
	})
	return out
}

// Top returns the bucket with the largest total. Ties go to the
// first-encountered bucket, so the result is deterministic for a fixed input
// order. ok is false for an empty group list.
func Top(buckets []Bucket) (Bucket, bool) {
	if len(buckets) == 0 {
		return Bucket{}, false
	}
	best := buckets[0]
	for _, b := range buckets[1:] {
		if b.Total.GreaterThan(best.Total) {
			best = b
		}
	}
	return best, true
}

// Sum totals the parseable amounts and reports how many rows were counted.
// Unparseable rows are excluded from both.
func Sum(records []Record) (decimal.Decimal, int) {
	total := decimal.Zero
	counted := 0
	for _, r := range records {
		if !r.Amount.Valid {
			continue
		}
		total = total.Add(r.Amount.Value)
		counted++
	}
	return total, counted
}
