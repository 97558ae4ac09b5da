package ingest

import (
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// skipped elements never contribute visible text.
var skipped = map[atom.Atom]bool{
	atom.Script:   true,
	atom.Style:    true,
	atom.Noscript: true,
	atom.Template: true,
}

// ExtractText returns the visible text of an HTML document with runs of
// whitespace collapsed to single spaces.
func ExtractText(r io.Reader) (string, error) {
	z := html.NewTokenizer(r)
	var sb strings.Builder
	depth := 0

	for {
		switch z.Next() {
		case html.ErrorToken:
			if err := z.Err(); err != io.EOF {
				return "", err
			}
			return strings.Join(strings.Fields(sb.String()), " "), nil

		case html.StartTagToken:
			name, _ := z.TagName()
			if skipped[atom.Lookup(name)] {
				depth++
			}

		case html.EndTagToken:
			name, _ := z.TagName()
			if skipped[atom.Lookup(name)] && depth > 0 {
				depth--
			}

		case html.TextToken:
			if depth == 0 {
				sb.Write(z.Text())
				sb.WriteByte(' ')
			}
		}
	}
}
