package commands

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/AndriiKulakovskyi/thesaurus/internal/api"
)

// NewServeCommand creates the serve command.
func NewServeCommand(getConfig ConfigGetter) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the extraction API server",
		Long: `Start the HTTP server exposing the study catalog and the extraction
endpoint. The server runs until interrupted.`,
		Example: `  # Serve on the configured address
  thesaurus serve

  # Serve on a specific port with catalog hot reload
  thesaurus serve --listen :9000 --watch`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, getConfig)
		},
	}

	cmd.Flags().Bool("watch", false, "Reload the catalog when descriptor files change")
	return cmd
}

func runServe(cmd *cobra.Command, getConfig ConfigGetter) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd, getConfig)
	if err != nil {
		return err
	}
	defer cleanup()

	watch := cmdCtx.Config.Watch
	if cmd.Flags().Changed("watch") {
		watch, _ = cmd.Flags().GetBool("watch")
	}

	srv := api.NewServer(api.Config{
		Listen:  cmdCtx.Config.Listen,
		Catalog: cmdCtx.Catalog,
		Engine:  cmdCtx.Engine,
		DB:      cmdCtx.Adapter,
		Watch:   watch,
		Logger:  cmdCtx.Logger,
	})

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return srv.Serve(ctx)
}
