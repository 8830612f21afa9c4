package main

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/pkrm0306/gp-backend/internal/adminapi"
	"github.com/pkrm0306/gp-backend/internal/webserver"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	application, err := setup()
	if err != nil {
		return err
	}
	defer application.Release()

	adminapi.Init()
	server, err := webserver.NewServer(application.Config(), application)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	zap.S().Infof("gpreg %s starting", version)
	return server.Start(ctx)
}
