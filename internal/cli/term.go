package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/termmeta/pkg/types"
)

func newTermCmd(flags *rootFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "term",
		Short: "Manage taxonomy terms",
	}
	cmd.AddCommand(newTermAddCmd(flags), newTermGetCmd(flags), newTermListCmd(flags), newTermDeleteCmd(flags))
	return cmd
}

func newTermAddCmd(flags *rootFlags) *cobra.Command {
	var slug, description string
	cmd := &cobra.Command{
		Use:   "add <taxonomy> <name>",
		Short: "Create a term",
		Example: `  termmeta term add category News
  termmeta term add post_tag "Go Tips" --slug go`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			term, err := a.Terms.Create(cmd.Context(), args[0], args[1], slug, description)
			if err != nil {
				return classify(err)
			}
			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), term)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %s %d (%s)\n", term.Taxonomy, term.ID, term.Slug)
			return nil
		},
	}
	cmd.Flags().StringVar(&slug, "slug", "", "term slug (default: derived from name)")
	cmd.Flags().StringVar(&description, "description", "", "term description")
	return cmd
}

func newTermGetCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "get <taxonomy> <id>",
		Short: "Show a term with its metadata",
		Args:  cobra.ExactArgs(2),
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
			return writeJSON(cmd.OutOrStdout(), term)
		},
	}
}

func newTermListCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "list <taxonomy>",
		Short: "List the terms of a taxonomy",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			terms, err := a.Terms.List(cmd.Context(), args[0])
			if err != nil {
				return classify(err)
			}
			if flags.jsonMode {
				return writeJSON(cmd.OutOrStdout(), terms)
			}
			return writeTermTable(cmd.OutOrStdout(), terms)
		},
	}
}

func newTermDeleteCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <taxonomy> <id>",
		Short: "Delete a term and its metadata",
		Args:  cobra.ExactArgs(2),
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

			if err := a.Terms.Delete(cmd.Context(), args[0], id); err != nil {
				return classify(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %s %d\n", args[0], id)
			return nil
		},
	}
}

func writeTermTable(w io.Writer, terms []*types.Term) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSLUG\tNAME\tLAYOUT\tHEADLINE")
	for _, t := range terms {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", t.ID, t.Slug, t.Name, t.Meta[types.FieldLayout], t.Meta[types.FieldHeadline])
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return sysError(fmt.Errorf("marshal output: %w", err))
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}
