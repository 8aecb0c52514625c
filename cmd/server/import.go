package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/prasenjit/go-intentions/internal/importer"
	"github.com/prasenjit/go-intentions/internal/logging"
	"github.com/prasenjit/go-intentions/internal/storage"
	"github.com/prasenjit/go-intentions/internal/validation"
)

var importCmd = &cobra.Command{
	Use:   "import <file>",
	Short: "Import intentions from an export document",
	Long: `Reads a JSON export document and creates its intentions in the configured
storage. The document may be an array of intentions, an object with an
"Intentions" array, or a single intention.

Every element is validated on its own; invalid elements are reported and
the rest are still created. The memory backend is not persistent, so use
file or bolt storage.`,
	Args: cobra.ExactArgs(1),
	RunE: runImport,
}

func runImport(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", args[0], err)
	}

	result, err := importer.Parse(data)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize %s storage: %w", cfg.Storage.Type, err)
	}
	defer store.Close()

	warnSkipped(logging.New(cfg.Logging), store)

	report := importer.Store(store, validation.New(), result)

	out, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))

	if len(report.Failed) > 0 || len(report.Skipped) > 0 {
		return fmt.Errorf("%d of %d elements were not imported",
			len(report.Failed)+len(report.Skipped), len(report.Created)+len(report.Failed)+len(report.Skipped))
	}
	return nil
}
