package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/termmeta/internal/server"
)

func newServeCmd(flags *rootFlags) *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the term edit screen and JSON API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, s, err := openApp(cmd, flags)
			if err != nil {
				return err
			}
			defer a.Close()

			if addr == "" {
				addr = s.Server.Addr
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(a.Terms, a.Hooks,
				server.WithUnfilteredHTML(s.Server.UnfilteredHTML),
				server.WithLogger(a.Logger.With("component", "server")),
			)
			if err := srv.ListenAndServe(ctx, addr); err != nil {
				return sysError(err)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default: server.addr)")
	return cmd
}
