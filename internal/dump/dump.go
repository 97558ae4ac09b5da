// Package dump reads and writes backup files: a single JSON or YAML object
// mapping each record's identity to its stored document.
package dump

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	bmerrors "github.com/Aman-CERP/bookmarks/internal/errors"
	"github.com/Aman-CERP/bookmarks/internal/record"
)

// Format is a dump encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// Stdin is the path that reads from standard input.
const Stdin = "-"

// ParseFormat accepts json, yaml or yml.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(s) {
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", bmerrors.ValidationError("unknown dump format", nil).
		WithDetail("format", s).
		WithSuggestion("Use json or yaml")
}

// FormatForPath guesses the format from a file extension, defaulting to
// JSON.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// Write encodes recs as one object keyed by identity. Keys come out sorted.
func Write(w io.Writer, recs []record.Record, format Format) error {
	out := make(map[string]record.Document, len(recs))
	for _, r := range recs {
		out[r.ID()] = record.Encode(r)
	}

	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode yaml dump: %w", err)
		}
		return enc.Close()
	case FormatJSON, "":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		enc.SetEscapeHTML(false)
		if err := enc.Encode(out); err != nil {
			return fmt.Errorf("failed to encode json dump: %w", err)
		}
		return nil
	default:
		_, err := ParseFormat(string(format))
		return err
	}
}

// Read decodes a dump in either format, sniffing JSON by its leading brace.
// Records come back ordered by identity. A document stored under a key
// other than its own url[0] is a decode error.
func Read(r io.Reader) ([]record.Record, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dump: %w", err)
	}

	var docs map[string]map[string]any
	trimmed := bytes.TrimSpace(raw)
	switch {
	case len(trimmed) == 0:
		return []record.Record{}, nil
	case trimmed[0] == '{':
		if err := json.Unmarshal(trimmed, &docs); err != nil {
			return nil, bmerrors.DecodeError("dump is not a valid JSON object of documents", err)
		}
	default:
		if err := yaml.Unmarshal(trimmed, &docs); err != nil {
			return nil, bmerrors.DecodeError("dump is not a valid YAML mapping of documents", err)
		}
	}

	keys := make([]string, 0, len(docs))
	for k := range docs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	recs := make([]record.Record, 0, len(docs))
	for _, k := range keys {
		rec, err := record.Decode(docs[k])
		if err != nil {
			var be *bmerrors.BookmarkError
			if stderrors.As(err, &be) {
				return nil, be.WithDetail("id", k)
			}
			return nil, err
		}
		if rec.ID() != k {
			return nil, bmerrors.DecodeError("document key does not match its first url", nil).
				WithDetail("id", k).
				WithDetail("url", rec.ID())
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// ReadFile reads a dump from path, or from stdin when path is "-".
func ReadFile(path string, stdin io.Reader) ([]record.Record, error) {
	if path == Stdin {
		return Read(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, bmerrors.ValidationError("cannot open dump file", err).
			WithDetail("path", path)
	}
	defer func() {
		_ = f.Close()
	}()
	return Read(f)
}
