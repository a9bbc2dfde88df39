package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/greenloan/validator-cli/internal/ingest"
	"github.com/greenloan/validator-cli/internal/server"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for document analysis",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		env, err := initAnalyzer(ctx, true)
		if err != nil {
			return err
		}
		defer env.Close()

		pageText := func(docID string) ([]string, error) {
			return ingest.PageText(cfg.UploadDir, docID)
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := server.New(env.analyzer, env.store, cfg.UploadDir, pageText)
		return srv.ListenAndServe(ctx, port)
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
