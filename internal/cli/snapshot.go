package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/termmeta/internal/sqlite"
)

func newExportCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "export <path>",
		Short: "Write all term metadata to a JSONL file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, _, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Backend.Export(cmd.Context(), args[0])
			if err != nil {
				return sysError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "exported %d term(s) to %s\n", n, args[0])
			return nil
		},
	}
}

func newImportCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "import <path>",
		Short: "Load term metadata from a JSONL file",
		Long:  "Import saves every record of the file, replacing the stored entry of each term it names. Malformed lines are skipped.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(args[0]); err != nil {
				return userError(err)
			}
			a, _, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.Backend.Import(cmd.Context(), args[0])
			if err != nil {
				return sysError(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d term(s) from %s\n", n, args[0])
			return nil
		},
	}
}

func newMigrateCmd(flags *rootFlags) *cobra.Command {
	var key string
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Move a legacy serialized metadata option into per-term rows",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, s, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if key == "" {
				key = s.LegacyOptionKey
			}
			n, err := a.Backend.MigrateLegacy(cmd.Context(), key)
			if errors.Is(err, sqlite.ErrMigrateBlobStorage) {
				return userError(fmt.Errorf("%w: switch storage to rows before migrating %q", err, key))
			}
			if err != nil {
				return classify(err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "migrated %d term(s) from option %q\n", n, key)
			return nil
		},
	}
	cmd.Flags().StringVar(&key, "key", "", "option key holding the legacy table (default: legacy_option_key)")
	return cmd
}
