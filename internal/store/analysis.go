package store

import (
	"fmt"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"
	"github.com/blevesearch/bleve/v2/search/highlight"
	simplefragmenter "github.com/blevesearch/bleve/v2/search/highlight/fragmenter/simple"
	simplehighlighter "github.com/blevesearch/bleve/v2/search/highlight/highlighter/simple"
)

const (
	// StemOverrideName is the registered token filter type that rewrites
	// listed terms and shields them from the stemmer that follows.
	StemOverrideName = "stem_override"

	// stemOverrideInstance is the configured instance used by the analyzer.
	stemOverrideInstance = "bookmark_stem_override"

	// AnalyzerName is the analyzer applied to text fields.
	AnalyzerName = "bookmark_english"
)

func init() {
	_ = registry.RegisterTokenFilter(StemOverrideName, stemOverrideConstructor)
}

// ParseStemOverrides parses rules of the form "a, b => c" into a lookup
// from each left-hand term to its replacement. Terms are lowercased since
// the filter runs after lowercasing.
func ParseStemOverrides(rules []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, rule := range rules {
		lhs, rhs, ok := strings.Cut(rule, "=>")
		rhs = strings.ToLower(strings.TrimSpace(rhs))
		if !ok || rhs == "" {
			return nil, fmt.Errorf("stem override %q: want \"term[, term...] => stem\"", rule)
		}
		for _, term := range strings.Split(lhs, ",") {
			term = strings.ToLower(strings.TrimSpace(term))
			if term == "" {
				return nil, fmt.Errorf("stem override %q: empty term", rule)
			}
			out[term] = rhs
		}
	}
	return out, nil
}

// stemOverrideConstructor builds the filter from its mapping config. Rules
// arrive as []string when the mapping is built and as []interface{} when it
// is read back from disk.
func stemOverrideConstructor(config map[string]interface{}, cache *registry.Cache) (analysis.TokenFilter, error) {
	var rules []string
	switch v := config["rules"].(type) {
	case []string:
		rules = v
	case []interface{}:
		for _, r := range v {
			s, ok := r.(string)
			if !ok {
				return nil, fmt.Errorf("stem override rule must be a string, got %T", r)
			}
			rules = append(rules, s)
		}
	case nil:
	default:
		return nil, fmt.Errorf("stem override rules must be a list, got %T", v)
	}

	table, err := ParseStemOverrides(rules)
	if err != nil {
		return nil, err
	}
	return &stemOverrideFilter{table: table}, nil
}

type stemOverrideFilter struct {
	table map[string]string
}

// Filter implements analysis.TokenFilter. Matched tokens are marked as
// keywords, which the porter stemmer leaves untouched.
func (f *stemOverrideFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	for _, token := range input {
		if token.KeyWord {
			continue
		}
		if stem, ok := f.table[string(token.Term)]; ok {
			token.Term = []byte(stem)
			token.KeyWord = true
		}
	}
	return input
}

// markFormatter wraps matched terms in the configured markers. Unlike
// bleve's html formatter it does not escape the surrounding text, so a
// fragment with its markers removed is a verbatim slice of the field.
type markFormatter struct {
	before string
	after  string
}

// Format implements highlight.FragmentFormatter.
func (m *markFormatter) Format(f *highlight.Fragment, orderedTermLocations highlight.TermLocations) string {
	var sb strings.Builder
	curr := f.Start
	for _, tl := range orderedTermLocations {
		if tl == nil || !tl.ArrayPositions.Equals(f.ArrayPositions) {
			continue
		}
		if tl.Start < curr {
			continue
		}
		if tl.End > f.End {
			break
		}
		sb.Write(f.Orig[curr:tl.Start])
		sb.WriteString(m.before)
		sb.Write(f.Orig[tl.Start:tl.End])
		sb.WriteString(m.after)
		curr = tl.End
	}
	sb.Write(f.Orig[curr:f.End])
	return sb.String()
}

var (
	highlightersMu sync.Mutex
	highlighters   = map[string]bool{}
)

// registerHighlighter registers, once per distinct configuration, a
// highlighter producing fragments of fragmentSize bytes with the given
// markers and no separator, and returns its style name.
func registerHighlighter(fragmentSize int, before, after string) string {
	name := fmt.Sprintf("bookmark_mark_%d_%q_%q", fragmentSize, before, after)

	highlightersMu.Lock()
	defer highlightersMu.Unlock()
	if highlighters[name] {
		return name
	}

	registry.RegisterHighlighter(name, func(config map[string]interface{}, cache *registry.Cache) (highlight.Highlighter, error) {
		return simplehighlighter.NewHighlighter(
			simplefragmenter.NewFragmenter(fragmentSize),
			&markFormatter{before: before, after: after},
			"",
		), nil
	})
	highlighters[name] = true
	return name
}
