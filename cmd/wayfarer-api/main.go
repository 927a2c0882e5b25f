package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/wayfarerhq/wayfarer/backend/internal/auth"
	"github.com/wayfarerhq/wayfarer/backend/internal/config"
	"github.com/wayfarerhq/wayfarer/backend/internal/database"
	"github.com/wayfarerhq/wayfarer/backend/internal/ids"
	"github.com/wayfarerhq/wayfarer/backend/internal/logging"
	"github.com/wayfarerhq/wayfarer/backend/internal/planner"
	"github.com/wayfarerhq/wayfarer/backend/internal/server"
	"github.com/wayfarerhq/wayfarer/backend/internal/store"
	"github.com/wayfarerhq/wayfarer/backend/internal/trips"
	"github.com/wayfarerhq/wayfarer/backend/internal/users"
	"go.uber.org/zap"
)

var (
	cfgFile string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "wayfarer-api",
		Short: "Wayfarer trip planning backend service",
		PreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context())
		},
	}

	setupFlags(rootCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func setupFlags(cmd *cobra.Command) {
	config.ApplyDefaults(viper.GetViper())
	defaults := config.NewViper()
	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "Path to configuration file")
	cmd.PersistentFlags().String("http-address", defaults.GetString("http.address"), "HTTP listen address")
	cmd.PersistentFlags().String("database-path", defaults.GetString("database.path"), "SQLite database path")
	cmd.PersistentFlags().String("store-backend", defaults.GetString("store.backend"), "Sheet store backend (sqlite, memory)")
	cmd.PersistentFlags().String("log-level", defaults.GetString("log.level"), "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("password-salt", "", "Password hashing salt (overrides env)")

	bindFlag(cmd, "http.address", "http-address")
	bindFlag(cmd, "database.path", "database-path")
	bindFlag(cmd, "store.backend", "store-backend")
	bindFlag(cmd, "log.level", "log-level")
	bindFlag(cmd, "auth.password_salt", "password-salt")
}

func bindFlag(cmd *cobra.Command, key, flag string) {
	if err := viper.BindPFlag(key, cmd.PersistentFlags().Lookup(flag)); err != nil {
		panic(err)
	}
}

func initConfig() error {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	}

	if err := viper.ReadInConfig(); err != nil {
		// An explicitly named file must be readable; only the implicit
		// search is allowed to come up empty.
		if cfgFile != "" {
			return err
		}
	}

	return nil
}

func runServer(ctx context.Context) error {
	appConfig, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}

	logger, err := logging.NewLogger(appConfig.LogLevel)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	backend, cleanup, err := openStore(appConfig, logger)
	if err != nil {
		return err
	}
	if cleanup != nil {
		defer cleanup()
	}

	if err := database.Bootstrap(backend, logger); err != nil {
		return err
	}

	idProvider := ids.NewUUIDProvider()
	userRepo, err := users.NewRepository(users.RepositoryConfig{
		Store:      backend,
		IDProvider: idProvider,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	tripCfg := trips.RepositoryConfig{
		Store:      backend,
		IDProvider: idProvider,
		Logger:     logger,
	}
	tripRepo, err := trips.NewRepository(tripCfg)
	if err != nil {
		return err
	}
	itemRepo, err := trips.NewItemRepository(tripCfg)
	if err != nil {
		return err
	}
	authService, err := auth.NewService(auth.ServiceConfig{
		Users:      userRepo,
		Salt:       appConfig.PasswordSalt,
		IDProvider: idProvider,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	command, err := planner.NewService(planner.ServiceConfig{
		Trips:  tripRepo,
		Items:  itemRepo,
		Auth:   authService,
		Logger: logger,
	})
	if err != nil {
		return err
	}

	handler, err := server.NewHTTPHandler(server.Dependencies{
		Planner: command,
		Logger:  logger,
	})
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:    appConfig.HTTPAddress,
		Handler: handler,
	}

	signalCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.String("address", appConfig.HTTPAddress),
			zap.String("store", appConfig.StoreBackend))
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-signalCtx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func openStore(appConfig config.AppConfig, logger *zap.Logger) (store.Store, func(), error) {
	switch appConfig.StoreBackend {
	case config.StoreBackendMemory:
		logger.Warn("memory store selected; data will not survive restarts")
		return store.NewMemoryStore(), nil, nil
	default:
		db, err := database.OpenSQLite(appConfig.DatabasePath, logger)
		if err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, err
		}
		backend, err := store.NewSQLiteStore(db)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() { sqlDB.Close() } //nolint:errcheck
		return backend, cleanup, nil
	}
}
