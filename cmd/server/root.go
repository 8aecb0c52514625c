package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prasenjit/go-intentions/internal/config"
	"github.com/prasenjit/go-intentions/internal/storage"
)

var (
	cfgFile string
	rootCmd = &cobra.Command{
		Use:   "go-intentions",
		Short: "Go-Intentions - service-to-service intention registry",
		Long: `Go-Intentions stores service-to-service intentions and their L7 HTTP
permissions. Permissions can match on request paths, methods and headers;
header conditions select exactly one match type (Exact, Prefix, Suffix,
Contains, Regex or Present).`,
	}
)

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./config.yaml)")

	// Add subcommands
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(importCmd)
}

// initConfig reads in config file and ENV variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		cwd, err := os.Getwd()
		if err != nil {
			cwd = "."
		}

		viper.AddConfigPath(cwd)
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	// INTENTIONS_SERVER_PORT overrides server.port and so on
	viper.SetEnvPrefix("INTENTIONS")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	setDefaults()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	}
}

// setDefaults sets the default configuration values
func setDefaults() {
	def := config.Default()

	cwd, err := os.Getwd()
	if err != nil {
		cwd = "."
	}

	viper.SetDefault("server.port", def.Server.Port)
	viper.SetDefault("server.host", def.Server.Host)
	viper.SetDefault("server.tls.enabled", def.Server.TLS.Enabled)
	viper.SetDefault("server.tls.certFile", "")
	viper.SetDefault("server.tls.keyFile", "")
	viper.SetDefault("server.tls.autoGenerate", def.Server.TLS.AutoGenerate)
	viper.SetDefault("server.tls.storePath", "")

	viper.SetDefault("storage.type", def.Storage.Type)
	viper.SetDefault("storage.path", filepath.Join(cwd, "data"))

	viper.SetDefault("events.maxEvents", def.Events.MaxEvents)

	viper.SetDefault("logging.level", def.Logging.Level)
	viper.SetDefault("logging.format", def.Logging.Format)

	viper.SetDefault("metrics.enabled", def.Metrics.Enabled)
}

// loadConfig builds the effective configuration from viper
func loadConfig() *config.Config {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port: viper.GetInt("server.port"),
			Host: viper.GetString("server.host"),
			TLS: config.TLSConfig{
				Enabled:      viper.GetBool("server.tls.enabled"),
				CertFile:     viper.GetString("server.tls.certFile"),
				KeyFile:      viper.GetString("server.tls.keyFile"),
				AutoGenerate: viper.GetBool("server.tls.autoGenerate"),
				StorePath:    viper.GetString("server.tls.storePath"),
			},
		},
		Storage: config.StorageConfig{
			Type: viper.GetString("storage.type"),
			Path: viper.GetString("storage.path"),
		},
		Events: config.EventsConfig{
			MaxEvents: viper.GetInt("events.maxEvents"),
		},
		Logging: config.LoggingConfig{
			Level:  viper.GetString("logging.level"),
			Format: viper.GetString("logging.format"),
		},
		Metrics: config.MetricsConfig{
			Enabled: viper.GetBool("metrics.enabled"),
		},
	}

	// Resolve relative storage path to absolute
	if cfg.Storage.Path != "" && !filepath.IsAbs(cfg.Storage.Path) {
		if cwd, err := os.Getwd(); err == nil {
			cfg.Storage.Path = filepath.Join(cwd, cfg.Storage.Path)
		}
	}

	return cfg
}

// warnSkipped logs records the file backend could not load
func warnSkipped(logger *slog.Logger, store storage.Storage) {
	fs, ok := store.(*storage.FileStorage)
	if !ok {
		return
	}
	for _, skipped := range fs.Skipped() {
		logger.Warn("skipped unreadable intention file", "file", skipped)
	}
}
