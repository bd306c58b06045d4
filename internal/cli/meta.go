package cli

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/termmeta/internal/admin"
	"github.com/mesh-intelligence/termmeta/internal/request"
	"github.com/mesh-intelligence/termmeta/pkg/types"
)

// editAction names CLI metadata edits in request info and logs.
const editAction = "editedtag"

func newMetaCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "meta",
		Short: "Show and edit term metadata",
	}
	cmd.AddCommand(newMetaShowCmd(flags), newMetaSetCmd(flags), newMetaDeleteCmd(flags))
	return cmd
}

func newMetaShowCmd(flags *rootFlags) *cobra.Command {
	var raw bool
	cmd := &cobra.Command{
		Use:   "show <taxonomy> <id>",
		Short: "Show the metadata of a term",
		Long: "Show prints the decorated metadata of a term: defaults merged with the\n" +
			"stored entry and decoded. With --raw the stored entry is printed as is.",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTermID(args[1])
			if err != nil {
				return err
			}
			a, _, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			term, err := a.Terms.Get(cmd.Context(), args[0], id)
			if err != nil {
				return classify(err)
			}
			if !raw {
				return writeJSON(cmd.OutOrStdout(), term.Meta)
			}
			table, err := a.Store.Load(cmd.Context())
			if err != nil {
				return sysError(err)
			}
			stored := table[id]
			if stored == nil {
				stored = types.TermMeta{}
			}
			return writeJSON(cmd.OutOrStdout(), stored)
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print the stored entry without defaults or decoding")
	return cmd
}

func newMetaSetCmd(flags *rootFlags) *cobra.Command {
	var unfiltered bool
	cmd := &cobra.Command{
		Use:   "set <taxonomy> <id> field=value...",
		Short: "Replace the metadata of a term",
		Long: "Set submits the given fields as the term edit form would. The stored\n" +
			"entry is replaced, so fields not given are dropped.",
		Example: `  termmeta meta set category 3 headline="Latest news" layout=full-width-content`,
		Args:    cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTermID(args[1])
			if err != nil {
				return err
			}
			form, err := metaForm(args[2:])
			if err != nil {
				return err
			}
			a, s, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := request.With(cmd.Context(), request.Info{
				Action:         editAction,
				UnfilteredHTML: unfiltered || s.Server.UnfilteredHTML,
			})
			term, err := a.Terms.Get(ctx, args[0], id)
			if err != nil {
				return classify(err)
			}
			if err := a.Terms.Update(ctx, term, form); err != nil {
				return classify(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "saved %d field(s) for %s %d\n", len(form), term.Taxonomy, term.ID)
			return nil
		},
	}
	cmd.Flags().BoolVar(&unfiltered, "unfiltered-html", false, "keep archive_description markup unsanitized")
	return cmd
}

// metaForm turns field=value arguments into a posted term-meta form.
func metaForm(pairs []string) (url.Values, error) {
	form := url.Values{}
	for _, pair := range pairs {
		field, value, ok := strings.Cut(pair, "=")
		if !ok || field == "" {
			return nil, userError(fmt.Errorf("invalid field %q (expected field=value)", pair))
		}
		form.Set(admin.FieldName(field), value)
	}
	return form, nil
}

func newMetaDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete the stored metadata of a term",
		Long:  "Delete removes the stored entry for a term id. The term itself is kept.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseTermID(args[0])
			if err != nil {
				return err
			}
			a, _, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.Store.Delete(cmd.Context(), id); err != nil {
				return classify(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted metadata for term %d\n", id)
			return nil
		},
	}
}
