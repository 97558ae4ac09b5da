package cmd

import (
	"github.com/spf13/cobra"

	"github.com/Aman-CERP/bookmarks/internal/catalog"
	"github.com/Aman-CERP/bookmarks/internal/output"
)

func newCreateCmd(a *app) *cobra.Command {
	var deleteExisting bool

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create the bookmark collection",
		Long: `Create the bookmark collection with its text analysis chain.

Fails if the collection already exists, unless --delete-existing is given,
in which case the collection and every bookmark in it are dropped first.`,
		Example: `  bookmarks create
  bookmarks create --delete-existing`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer a.closeStore(s)

			schema := catalog.NewSchemaManager(s, catalog.WithLogger(a.logger))
			if deleteExisting {
				err = schema.Recreate(cmd.Context())
			} else {
				err = schema.Create(cmd.Context())
			}
			if err != nil {
				return err
			}

			output.New(cmd.OutOrStdout()).Successf("Created collection %q", a.cfg.Store.Collection)
			return nil
		},
	}

	cmd.Flags().BoolVar(&deleteExisting, "delete-existing", false, "Drop the collection first if it exists")

	return cmd
}

func newDropCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "drop",
		Short: "Drop the bookmark collection and every bookmark in it",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			s, err := a.openStore()
			if err != nil {
				return err
			}
			defer a.closeStore(s)

			if err := catalog.NewSchemaManager(s, catalog.WithLogger(a.logger)).Drop(cmd.Context()); err != nil {
				return err
			}

			output.New(cmd.OutOrStdout()).Successf("Dropped collection %q", a.cfg.Store.Collection)
			return nil
		},
	}
}
