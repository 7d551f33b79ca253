package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/xhad/docspace/server"
)

func newServeCmd(flags *globalFlags) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP and WebSocket server",
		RunE: func(cmd *cobra.Command, args []string) error {
			eng, cfg, err := flags.openEngine()
			if err != nil {
				return err
			}
			defer eng.Close()
			if addr != "" {
				cfg.Server.Addr = addr
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(eng, server.Config{
				Addr:           cfg.Server.Addr,
				AllowedOrigins: cfg.Server.AllowedOrigins,
				MaxUploadBytes: cfg.Server.MaxUploadBytes,
			}, flags.serverLogger())

			color.Cyan("docspace listening on %s", cfg.Server.Addr)
			return srv.ListenAndServe(ctx)
		},
	}

	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides server.addr)")
	return cmd
}
