package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/prasenjit/go-intentions/internal/config"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize go-intentions with default configuration and directory structure",
	Long: `Creates the default configuration file (config.yaml) and data directory structure.

This command will:
  - Create config.yaml with default settings
  - Create data/ directory for file and bolt storage
  - Create data/intentions/ directory for file storage

If config.yaml already exists, it will not be overwritten unless --force is used.`,
	RunE: runInit,
}

var (
	initForce   bool
	initPath    string
	initStorage string
)

func init() {
	initCmd.Flags().BoolVarP(&initForce, "force", "f", false, "Overwrite existing config file")
	initCmd.Flags().StringVarP(&initPath, "path", "p", ".", "Path where to initialize (default: current directory)")
	initCmd.Flags().StringVar(&initStorage, "storage", config.StorageFile, "Storage type written to the config (memory, file or bolt)")
}

func runInit(cmd *cobra.Command, args []string) error {
	absPath, err := filepath.Abs(initPath)
	if err != nil {
		return fmt.Errorf("failed to resolve path: %w", err)
	}

	configFile := filepath.Join(absPath, "config.yaml")
	dataDir := filepath.Join(absPath, "data")

	if _, err := os.Stat(configFile); err == nil && !initForce {
		return fmt.Errorf("config.yaml already exists. Use --force to overwrite")
	}

	switch initStorage {
	case config.StorageMemory, config.StorageFile, config.StorageBolt:
	default:
		return fmt.Errorf("unknown storage type %q", initStorage)
	}

	dirs := []string{
		dataDir,
		filepath.Join(dataDir, "intentions"),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
		fmt.Printf("Created directory: %s\n", dir)
	}

	cfg := config.Default()
	cfg.Storage.Type = initStorage

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to generate config: %w", err)
	}

	header := `# Go-Intentions Configuration
# Every key can be overridden with an INTENTIONS_ environment variable,
# for example INTENTIONS_SERVER_PORT=9000

`
	if err := os.WriteFile(configFile, []byte(header+string(data)), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	// Make sure the written file loads back
	if _, err := config.Load(configFile); err != nil {
		return fmt.Errorf("generated config is not loadable: %w", err)
	}
	fmt.Printf("Created config file: %s\n", configFile)

	fmt.Println()
	fmt.Println("Initialization complete! You can now start the server with:")
	fmt.Println()
	fmt.Printf("  cd %s\n", absPath)
	fmt.Println("  go-intentions serve")
	fmt.Println()

	return nil
}
