package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newFormCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "form <taxonomy> <id>",
		Short: "Render the term edit sections as HTML",
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

			tax, err := a.Terms.Taxonomy(args[0])
			if err != nil {
				return classify(err)
			}
			if !a.Hooks.HasEditSections(tax.Name) {
				return userError(fmt.Errorf("taxonomy %q has no edit sections", tax.Name))
			}
			term, err := a.Terms.Get(cmd.Context(), tax.Name, id)
			if err != nil {
				return classify(err)
			}
			if err := a.Hooks.RenderEditSections(cmd.OutOrStdout(), term, tax); err != nil {
				return sysError(err)
			}
			return nil
		},
	}
}
