package catalog

import "sort"

// FacetCount is one facet value and its document count.
type FacetCount struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// RankFacets orders facet values by count, highest first, breaking ties
// by key in descending order.
func RankFacets(facets map[string]int) []FacetCount {
	out := make([]FacetCount, 0, len(facets))
	for k, v := range facets {
		out = append(out, FacetCount{Key: k, Count: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Key > out[j].Key
	})
	return out
}
