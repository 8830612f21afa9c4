package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"github.com/pkrm0306/gp-backend/internal/importer"
)

var importCmd = &cobra.Command{
	Use:   "import <file.csv>",
	Short: "Register every product of a CSV file in one batch",
	Args:  cobra.ExactArgs(1),
	RunE:  runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	f, err := os.Open(filepath.Clean(args[0]))
	if err != nil {
		return errors.Wrap(err, "open csv")
	}
	defer f.Close()

	application, err := setup()
	if err != nil {
		return err
	}
	defer application.Release()

	products, err := importer.Import(cmd.Context(), application.Registration(), f)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, p := range products {
		fmt.Fprintf(out, "%s\t%s\t%s\t%d plants\n", p.ID, p.EoiNo, p.UrnNo, p.PlantCount)
	}
	return nil
}
