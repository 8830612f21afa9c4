package main

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var migrateTrack bool

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Create or update database tables",
	RunE: func(cmd *cobra.Command, _ []string) error {
		application, err := setup()
		if err != nil {
			return err
		}
		defer application.Release()
		if err := application.MigrateDB(migrateTrack); err != nil {
			return err
		}
		zap.S().Info("database migration done")
		return nil
	},
}

func init() {
	migrateCmd.Flags().BoolVar(&migrateTrack, "track", false, "log every migration statement")
}
