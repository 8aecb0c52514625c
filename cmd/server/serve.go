package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/prasenjit/go-intentions/internal/api"
	"github.com/prasenjit/go-intentions/internal/config"
	"github.com/prasenjit/go-intentions/internal/events"
	"github.com/prasenjit/go-intentions/internal/logging"
	"github.com/prasenjit/go-intentions/internal/metrics"
	"github.com/prasenjit/go-intentions/internal/storage"
	"github.com/prasenjit/go-intentions/internal/tlsutil"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the Go-Intentions server",
	Long: `Starts the Go-Intentions server.

The server will:
  - Load intentions from the configured storage backend
  - Expose the Admin API at /_api/
  - Stream intention changes at /_api/events/stream
  - Expose Prometheus metrics at /metrics when enabled

With TLS enabled, HTTP and HTTPS are served on the same port.

Configuration is loaded from config.yaml in the current directory,
or specify a custom config file with the --config flag.`,
	RunE: runServe,
}

var (
	portFlag int
	tlsFlag  bool
)

func init() {
	serveCmd.Flags().IntVarP(&portFlag, "port", "p", 0, "Override server port")
	serveCmd.Flags().BoolVar(&tlsFlag, "tls", false, "Enable TLS (overrides config)")
	serveCmd.Flags().String("storage", "", "Override storage type (memory, file or bolt)")

	// Bind flags to viper
	viper.BindPFlag("server.port", serveCmd.Flags().Lookup("port"))
	viper.BindPFlag("server.tls.enabled", serveCmd.Flags().Lookup("tls"))
	viper.BindPFlag("storage.type", serveCmd.Flags().Lookup("storage"))
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()

	// Override port and TLS if flags were explicitly set
	if portFlag > 0 {
		cfg.Server.Port = portFlag
	}
	if tlsFlag {
		cfg.Server.TLS.Enabled = true
	}

	logger := logging.New(cfg.Logging)

	store, err := storage.Open(cfg.Storage)
	if err != nil {
		return fmt.Errorf("failed to initialize %s storage: %w", cfg.Storage.Type, err)
	}
	defer store.Close()

	logger.Info("storage ready", "type", cfg.Storage.Type, "path", cfg.Storage.Path)
	warnSkipped(logger, store)

	m := metrics.New()
	if list, err := store.ListIntentions(nil); err == nil {
		m.IntentionsStored.Set(float64(len(list)))
	}

	eventService := events.NewService(cfg.Events.MaxEvents)

	router := api.NewRouter(store, eventService, m, logger, api.Options{
		ExposeMetrics: cfg.Metrics.Enabled,
	})

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     router.Handler(),
		ReadTimeout: 30 * time.Second,
		IdleTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	shutdown := server.Shutdown

	if cfg.Server.TLS.Enabled {
		dual, err := startTLSServer(server, addr, cfg)
		if err != nil {
			return err
		}
		shutdown = dual.Shutdown
		go func() {
			if err := <-dual.Errors(); err != nil {
				errCh <- err
			}
		}()
		logger.Info("starting go-intentions server", "addr", addr, "tls", true)
		logger.Info("admin API available", "url", fmt.Sprintf("https://%s/_api/", addr))
	} else {
		go func() {
			logger.Info("starting go-intentions server", "addr", addr, "tls", false)
			logger.Info("admin API available", "url", fmt.Sprintf("http://%s/_api/", addr))
			if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				errCh <- err
			}
		}()
	}

	// Wait for interrupt signal or a listener failure
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-quit:
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := shutdown(ctx); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	logger.Info("server stopped")
	return nil
}

// startTLSServer serves HTTP and HTTPS on addr. Certificates are stored
// under <storage.path>/certs unless server.tls.storePath is set.
func startTLSServer(server *http.Server, addr string, cfg *config.Config) (*tlsutil.DualServer, error) {
	certManager := tlsutil.NewCertificateManager(
		cfg.Server.TLS,
		filepath.Join(cfg.Storage.Path, "certs"),
		cfg.Server.Host,
	)

	tlsConfig, err := certManager.TLSConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to get TLS certificate: %w", err)
	}

	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to create listener: %w", err)
	}

	return tlsutil.Serve(server, listener, tlsConfig), nil
}
