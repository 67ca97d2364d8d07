package cli

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_transcript/internal/httpapi"
	"github.com/anatolykoptev/go_transcript/internal/ytserver"
)

func newServeCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the local HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cache, cfg, err := buildService()
			if err != nil {
				return err
			}
			defer cache.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := httpapi.New(svc, version, cfg.MaxConcurrent)
			return srv.ListenAndServe(ctx, cfg.Addr())
		},
	}
}

func newMCPCmd(version string) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Run the MCP tool server on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, cache, _, err := buildService()
			if err != nil {
				return err
			}
			defer cache.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return ytserver.ServeStdio(ctx, svc, version)
		},
	}
}
