package main

import (
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/aretw0/msquare/internal/cli"
)

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the Model Context Protocol (MCP) server",
	Long: `Exposes the portfolio and the contact form as MCP tools.

Supported Transports:
- stdio (default): Uses Standard Input/Output. Ideal for local process integration.
- sse: Uses Server-Sent Events over HTTP. Ideal for remote agents or debuggers.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		transport, _ := cmd.Flags().GetString("transport")
		port, _ := cmd.Flags().GetInt("port")

		site, logger, err := openSite(cmd)
		if err != nil {
			return err
		}
		defer site.Close()
		srv := site.MCP()

		switch transport {
		case "stdio":
			// stdout carries JSON-RPC
			log.SetOutput(os.Stderr)
			logger.Info("starting MCP server (stdio)")
			return srv.ServeStdio()
		case "sse":
			sigCtx := cli.NewSignalContext(cmd.Context())
			defer sigCtx.Cancel()
			return srv.ServeSSE(sigCtx, port)
		default:
			return fmt.Errorf("unknown transport %q (use stdio or sse)", transport)
		}
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
	mcpCmd.Flags().StringP("transport", "t", "stdio", "Transport: stdio or sse")
	mcpCmd.Flags().IntP("port", "p", 8081, "Port for the sse transport")
}
