package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/mark3labs/mcp-go/server"
	"github.com/spf13/cobra"

	"github.com/aetherdebug/aetherdebug/internal/mcpserver"
)

func newMCPCmd(st *cliState) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the debugger as MCP tools over stdio",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, st.cfg, appOptions{})
			if err != nil {
				return err
			}
			defer func() { _ = a.Close() }()

			mcpSrv := mcpserver.New(mcpserver.Deps{
				Catalog:   a.catalog,
				Pipeline:  a.pipeline,
				Assistant: a.assistant,
				Version:   version,
			})
			stdioSrv := server.NewStdioServer(mcpSrv)

			slog.Info("MCP server started (stdio transport)")
			if err := stdioSrv.Listen(ctx, os.Stdin, os.Stdout); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
