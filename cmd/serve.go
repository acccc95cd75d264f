package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/bgdnvk/spendwise/internal/mcp"
)

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("transport", "", "MCP transport: stdio, sse, http (or set MCP_TRANSPORT)")
	serveCmd.Flags().String("addr", "", "listen address for sse and http transports (or set MCP_ADDR)")

	viper.BindPFlag("mcp_transport", serveCmd.Flags().Lookup("transport"))
	viper.BindPFlag("mcp_addr", serveCmd.Flags().Lookup("addr"))
}

// serveCmd runs the MCP server
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the MCP server",
	Long: `Expose the usage and cost tools, the analyst prompt and the config resource
over the Model Context Protocol.

Examples:
  spendwise serve                              # stdio, for local agents
  spendwise serve --transport sse --addr :8080
  MCP_TRANSPORT=http spendwise serve`,
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := newService()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return mcp.NewServer(svc, Version).Serve(ctx)
	},
}
