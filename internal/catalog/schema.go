package catalog

import (
	"context"
	"log/slog"

	"github.com/Aman-CERP/bookmarks/internal/record"
	"github.com/Aman-CERP/bookmarks/internal/store"
)

// StemOverrides keep anime, animation and animism apart under stemming
// while folding animal and animals together.
var StemOverrides = []string{
	"anime => anime",
	"animation => animation",
	"animism => animism",
	"animal, animals => animal",
}

// BookmarkSchema is the collection layout for bookmark records. Unqualified
// query terms search content.
func BookmarkSchema() store.Schema {
	return store.Schema{
		Fields: []store.Field{
			{Name: record.FieldTitle, Kind: store.FieldText},
			{Name: record.FieldTitleSort, Kind: store.FieldKeyword},
			{Name: record.FieldURL, Kind: store.FieldKeyword},
			{Name: record.FieldDomain, Kind: store.FieldKeyword},
			{Name: record.FieldTag, Kind: store.FieldKeyword},
			{Name: record.FieldContent, Kind: store.FieldText},
		},
		DefaultField:  record.FieldContent,
		StemOverrides: append([]string(nil), StemOverrides...),
	}
}

// SchemaManager creates and drops the bookmark collection.
type SchemaManager struct {
	store  store.DocumentStore
	logger *slog.Logger
}

// NewSchemaManager returns a SchemaManager for s.
func NewSchemaManager(s store.DocumentStore, opts ...Option) *SchemaManager {
	o := buildOptions(opts)
	return &SchemaManager{store: s, logger: o.logger}
}

// Create creates the collection. It fails with a schema error if the
// collection already exists.
func (m *SchemaManager) Create(ctx context.Context) error {
	if err := m.store.CreateCollection(ctx, BookmarkSchema()); err != nil {
		return err
	}
	m.logger.Info("schema_created")
	return nil
}

// Drop deletes the collection and every document in it. It fails with a
// schema error if the collection is absent.
func (m *SchemaManager) Drop(ctx context.Context) error {
	if err := m.store.DropCollection(ctx); err != nil {
		return err
	}
	m.logger.Info("schema_dropped")
	return nil
}

// Recreate drops the collection if present and creates it empty.
func (m *SchemaManager) Recreate(ctx context.Context) error {
	exists, err := m.store.Exists(ctx)
	if err != nil {
		return err
	}
	if exists {
		if err := m.Drop(ctx); err != nil {
			return err
		}
	}
	return m.Create(ctx)
}

// Exists reports whether the collection exists.
func (m *SchemaManager) Exists(ctx context.Context) (bool, error) {
	return m.store.Exists(ctx)
}
