package record

import (
	"fmt"

	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
)

// Document is the store representation of a Record. Values are strings or
// []string; Decode also accepts the []any shape produced by JSON and YAML
// decoders.
type Document map[string]any

// Encode converts r into its store document. Tag is always present, as an
// empty list when r has none.
func Encode(r Record) Document {
	tags := r.Tag
	if tags == nil {
		tags = []string{}
	}
	return Document{
		FieldTitle:     append([]string(nil), r.Title...),
		FieldTitleSort: r.TitleSort,
		FieldURL:       append([]string(nil), r.URL...),
		FieldDomain:    r.Domain,
		FieldTag:       append([]string(nil), tags...),
		FieldContent:   r.Content,
	}
}

// Decode converts a store document back into a Record. title, url,
// title_sort and domain are required; tag and content default to empty.
// The result is normalized: Decode(Encode(r)) equals r.Normalize().
// Any shape mismatch is a DecodeError naming the field.
func Decode(doc map[string]any) (Record, error) {
	if doc == nil {
		return Record{}, bmerrors.DecodeError("document is empty", nil)
	}

	var r Record
	var err error

	if r.Title, err = requiredList(doc, FieldTitle); err != nil {
		return Record{}, err
	}
	if r.URL, err = requiredList(doc, FieldURL); err != nil {
		return Record{}, err
	}
	if r.TitleSort, err = requiredString(doc, FieldTitleSort); err != nil {
		return Record{}, err
	}
	if r.Domain, err = requiredString(doc, FieldDomain); err != nil {
		return Record{}, err
	}
	if v, ok := doc[FieldTag]; ok && v != nil {
		if r.Tag, err = asList(FieldTag, v); err != nil {
			return Record{}, err
		}
	}
	if v, ok := doc[FieldContent]; ok && v != nil {
		s, ok := v.(string)
		if !ok {
			return Record{}, shapeError(FieldContent, "string", v)
		}
		r.Content = s
	}

	if len(r.Title) != len(r.URL) {
		return Record{}, bmerrors.DecodeError(
			fmt.Sprintf("document has %d titles but %d urls", len(r.Title), len(r.URL)), nil).
			WithDetail("id", r.URL[0])
	}
	return r.Normalize(), nil
}

func requiredList(doc map[string]any, field string) ([]string, error) {
	v, ok := doc[field]
	if !ok || v == nil {
		return nil, missingError(field)
	}
	list, err := asList(field, v)
	if err != nil {
		return nil, err
	}
	if len(list) == 0 {
		return nil, missingError(field)
	}
	return list, nil
}

func requiredString(doc map[string]any, field string) (string, error) {
	v, ok := doc[field]
	if !ok || v == nil {
		return "", missingError(field)
	}
	s, ok := v.(string)
	if !ok {
		return "", shapeError(field, "string", v)
	}
	return s, nil
}

// asList accepts a list of strings in any of the shapes decoders produce.
// A bare string is a one-element list, matching how stores flatten
// singleton arrays.
func asList(field string, v any) ([]string, error) {
	switch t := v.(type) {
	case string:
		return []string{t}, nil
	case []string:
		return append([]string(nil), t...), nil
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			s, ok := item.(string)
			if !ok {
				return nil, shapeError(field, "list of strings", v)
			}
			out = append(out, s)
		}
		return out, nil
	default:
		return nil, shapeError(field, "list of strings", v)
	}
}

func missingError(field string) error {
	return bmerrors.DecodeError(fmt.Sprintf("document is missing %q", field), nil).
		WithDetail("field", field)
}

func shapeError(field, want string, got any) error {
	return bmerrors.DecodeError(fmt.Sprintf("document field %q is %T, want %s", field, got, want), nil).
		WithDetail("field", field)
}
