package commands

import (
	"github.com/spf13/cobra"

	"github.com/CarloJGTI/ProyectoDocumentAI-TranslationHub/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	Long:  "Serve /uploadInvoice, /confirmInvoice, /translateFile, /jobs and /health until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if servePort > 0 {
			cfg.Server.Port = servePort
		}
		return server.Run(cmd.Context(), cfg, logger)
	},
}

func init() {
	serveCmd.Flags().IntVarP(&servePort, "port", "p", 0, "listen port (overrides config)")
	rootCmd.AddCommand(serveCmd)
}
