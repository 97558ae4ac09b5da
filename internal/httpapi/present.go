package httpapi

import (
	"github.com/Aman-CERP/bookmarks/internal/catalog"
	"github.com/Aman-CERP/bookmarks/internal/record"
)

// resultView is a record as shown to readers: a single bookmark carries
// its url, a collection its parts.
type resultView struct {
	Title    string        `json:"title"`
	URL      string        `json:"url,omitempty"`
	Parts    []record.Part `json:"parts,omitempty"`
	Domain   string        `json:"domain"`
	Tag      []string      `json:"tag"`
	Fragment string        `json:"fragment"`
}

func presentRecord(r record.Record, fragment string) resultView {
	v := resultView{
		Domain:   r.Domain,
		Tag:      r.Tag,
		Fragment: fragment,
	}
	if v.Tag == nil {
		v.Tag = []string{}
	}
	if len(r.Title) > 0 {
		v.Title = r.Title[0]
	}
	if r.IsCollection() {
		v.Parts = r.Parts()
	} else {
		v.URL = r.ID()
	}
	return v
}

type searchView struct {
	Query   string               `json:"q"`
	Domains []catalog.FacetCount `json:"domains"`
	Tags    []catalog.FacetCount `json:"tags"`
	Results []resultView         `json:"results"`
	Total   int                  `json:"total"`
	Page    int                  `json:"page"`
	Pages   int                  `json:"pages"`
}

func presentSearch(q string, res *catalog.SearchResult) searchView {
	v := searchView{
		Query:   q,
		Domains: catalog.RankFacets(res.Domains),
		Tags:    catalog.RankFacets(res.Tags),
		Results: make([]resultView, 0, len(res.Results)),
		Total:   res.Total,
		Page:    res.Page,
		Pages:   res.Pages,
	}
	for _, r := range res.Results {
		v.Results = append(v.Results, presentRecord(r.Record, r.Fragment))
	}
	return v
}
