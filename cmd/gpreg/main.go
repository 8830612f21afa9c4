package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pkrm0306/gp-backend/config"
	"github.com/pkrm0306/gp-backend/internal/app"
)

var (
	version = "dev"
	cfgFile string
)

var rootCmd = &cobra.Command{
	Use:     "gpreg",
	Short:   "Product registration service",
	Long:    `gpreg registers products and their manufacturing plants, minting URN and EOI identifiers.`,
	Version: version,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "",
		"config file (default: ./gpreg.yml or /etc/gpreg.yml)")
	rootCmd.AddCommand(serveCmd, migrateCmd, importCmd)
}

// setup loads the configuration and initializes the application. Callers
// must Release it.
func setup() (*app.Application, error) {
	cfg, err := config.LoadConfig(cfgFile)
	if err != nil {
		return nil, err
	}
	application := app.NewApplication(cfg)
	if err := application.Init(); err != nil {
		application.Release()
		return nil, err
	}
	return application, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
