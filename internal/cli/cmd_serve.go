package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/viant/oversight"
)

// newServeCmd creates the serve command
func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the approval engine with its HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			config := oversight.DefaultConfig()
			if cfgFile != "" {
				loaded, err := oversight.LoadConfig(ctx, cfgFile)
				if err != nil {
					return err
				}
				config = loaded
			}
			if addr != "" {
				config.HTTP.Addr = addr
			}

			srv, err := oversight.New(oversight.WithConfig(config))
			if err != nil {
				return err
			}

			color.Cyan("oversight engine listening on %s", config.HTTP.Addr)
			color.Cyan("  decision window: %s, audit: %s, notifier: %s",
				config.Engine.DefaultTimeout, vendorName(config.Audit.Vendor), vendorName(config.Notifier.Vendor))
			return srv.Serve(ctx)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides config)")
	return cmd
}

func vendorName(vendor string) string {
	if vendor == "" {
		return "memory"
	}
	return vendor
}
