package catalog

import "strings"

// Ellipsis marks text cut from either end of a fragment.
const Ellipsis = "…"

// StitchFragment adds ellipses to a highlight fragment where it was cut
// from content. The fragment with its markers removed is compared against
// content: a leading cut gets a leading ellipsis, a trailing cut a
// trailing one. An empty fragment stays empty.
func StitchFragment(fragment, content, preTag, postTag string) string {
	if fragment == "" {
		return ""
	}
	plain := strings.ReplaceAll(strings.ReplaceAll(fragment, preTag, ""), postTag, "")

	starts := strings.HasPrefix(content, plain)
	ends := strings.HasSuffix(content, plain)
	switch {
	case starts && ends:
		return fragment
	case starts:
		return fragment + Ellipsis
	case ends:
		return Ellipsis + fragment
	default:
		return Ellipsis + fragment + Ellipsis
	}
}
