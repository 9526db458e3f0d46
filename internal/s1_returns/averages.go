package s1_returns

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/wonny/mfatlas/internal/contracts"
)

// CategoryMember pairs a fund's sub-category with its returns
type CategoryMember struct {
	SubCategory string
	Returns     contracts.TrailingReturns
}

// CategoryAverages returns the mean of each window per sub-category.
// Only non-null values contribute; a window nobody reports stays nil.
// Output is sorted by sub-category.
func CategoryAverages(members []CategoryMember) []contracts.CategoryAverage {
	type bucket struct {
		count  int
		values map[contracts.Window][]float64
	}

	buckets := make(map[string]*bucket)
	for _, m := range members {
		if m.SubCategory == "" {
			continue
		}
		b, ok := buckets[m.SubCategory]
		if !ok {
			b = &bucket{values: make(map[contracts.Window][]float64)}
			buckets[m.SubCategory] = b
		}
		b.count++
		for _, w := range contracts.AllWindows {
			if v := m.Returns.Get(w); v != nil {
				b.values[w] = append(b.values[w], *v)
			}
		}
	}

	out := make([]contracts.CategoryAverage, 0, len(buckets))
	for name, b := range buckets {
		avg := contracts.CategoryAverage{SubCategory: name, FundCount: b.count}
		for _, w := range contracts.AllWindows {
			vals := b.values[w]
			if len(vals) == 0 {
				continue
			}
			avg.Returns.Set(w, contracts.Float(contracts.Round(stat.Mean(vals, nil), contracts.PercentPlaces)))
		}
		out = append(out, avg)
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].SubCategory < out[j].SubCategory
	})
	return out
}
