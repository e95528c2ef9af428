package main

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/natefinch/atomic"
	"github.com/spf13/cobra"

	"github.com/rezvoj/RecipeSiteBackend/internal/api"
	"github.com/rezvoj/RecipeSiteBackend/internal/config"
	"github.com/rezvoj/RecipeSiteBackend/internal/db"
	"github.com/rezvoj/RecipeSiteBackend/internal/media"
	"github.com/rezvoj/RecipeSiteBackend/internal/store"
)

// rootOptions holds the flags shared by every command. Flags that are set
// override the config file, which overrides the defaults.
type rootOptions struct {
	ConfigPath string
	DBPath     string
	MediaDir   string
	LogPath    string
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "recipesite",
		Short:         "Recipe sharing backend",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	defaults := config.DefaultConfig()
	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", "", "JSONC config file")
	cmd.PersistentFlags().StringVarP(&opts.DBPath, "db", "d", defaults.DBPath, "SQLite database path")
	cmd.PersistentFlags().StringVarP(&opts.MediaDir, "media", "m", defaults.MediaDir, "directory for uploaded photos")
	cmd.PersistentFlags().StringVarP(&opts.LogPath, "log", "l", "", "log file path (default: stdout/stderr only)")

	cmd.AddCommand(newServeCommand(opts))
	cmd.AddCommand(newInitCommand(opts))
	return cmd
}

// load resolves the configuration for cmd.
func (o *rootOptions) load(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load(o.ConfigPath)
	if err != nil {
		return config.Config{}, err
	}

	flags := cmd.Flags()
	if flags.Changed("db") {
		cfg.DBPath = o.DBPath
	}
	if flags.Changed("media") {
		cfg.MediaDir = o.MediaDir
	}
	if flags.Changed("log") {
		cfg.LogPath = o.LogPath
	}
	return cfg, cfg.Validate()
}

type serveOptions struct {
	*rootOptions
	Addr      string
	AdminCode string
	JWTSecret string
}

func newServeCommand(root *rootOptions) *cobra.Command {
	opts := &serveOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Long: `Start the HTTP API.

The database is created and migrated on start. Without a configured JWT
secret one is generated and kept in the database, so tokens survive
restarts. Requests carrying the admin code in the X-Admin-Code header act
as the site administrator.

Example:
  recipesite serve --config recipesite.jsonc
  recipesite serve --db /var/lib/recipes.sqlite3 --addr :9000`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			flags := cmd.Flags()
			if flags.Changed("addr") {
				cfg.Addr = opts.Addr
			}
			if flags.Changed("admin-code") {
				cfg.AdminCode = opts.AdminCode
			}
			if flags.Changed("jwt-secret") {
				cfg.JWTSecret = opts.JWTSecret
			}
			return serve(cmd.Context(), cfg)
		},
	}

	cmd.Flags().StringVarP(&opts.Addr, "addr", "a", config.DefaultConfig().Addr, "listen address")
	cmd.Flags().StringVar(&opts.AdminCode, "admin-code", "", "admin code (default: from config, admin disabled if empty)")
	cmd.Flags().StringVar(&opts.JWTSecret, "jwt-secret", "", "JWT signing key (default: generated and stored in the database)")
	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	logger, closeLog, err := newLogger(os.Stdout, os.Stderr, cfg.LogPath)
	if err != nil {
		return err
	}
	defer closeLog()
	slog.SetDefault(logger)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		return err
	}
	slog.Info("database ready", "path", cfg.DBPath)

	secret, err := store.JWTSecret(ctx, database, cfg.JWTSecret)
	if err != nil {
		return err
	}

	files, err := media.New(cfg.MediaDir)
	if err != nil {
		return err
	}

	if cfg.AdminCode == "" {
		slog.Warn("no admin code configured, admin requests are disabled")
	}

	handler := api.NewRouter(database, files, api.Options{
		JWTSecret: secret,
		AdminCode: cfg.AdminCode,
		Limits:    cfg.Limits,
	})

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM.
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	go func() {
		sig := <-quit
		slog.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
	}()

	slog.Info("server started", "addr", cfg.Addr, "media", cfg.MediaDir)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	slog.Info("server stopped, closing database")
	return nil
}

type initOptions struct {
	*rootOptions
	Output string
}

func newInitCommand(root *rootOptions) *cobra.Command {
	opts := &initOptions{rootOptions: root}

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create the database and a config file with a fresh admin code",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.load(cmd)
			if err != nil {
				return err
			}
			return initSite(cfg, opts.Output, cmd.OutOrStdout())
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "recipesite.jsonc", "config file to write")
	return cmd
}

// initSite creates the database, the media directory and a config file
// holding a generated admin code. It refuses to touch an existing database
// or config file.
func initSite(cfg config.Config, output string, w io.Writer) error {
	for _, path := range []string{cfg.DBPath, output} {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	if err := db.Migrate(database); err != nil {
		os.Remove(cfg.DBPath)
		return err
	}

	if _, err := media.New(cfg.MediaDir); err != nil {
		return err
	}

	code, err := generateCode(24)
	if err != nil {
		return fmt.Errorf("generating admin code: %w", err)
	}
	cfg.AdminCode = code

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	header := []byte("// recipesite configuration. Keep admin_code secret.\n")
	if err := atomic.WriteFile(output, bytes.NewReader(append(header, data...))); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	fmt.Fprintf(w, "Database created: %s\n", cfg.DBPath)
	fmt.Fprintf(w, "Config written: %s\n\n", output)
	fmt.Fprintf(w, "Admin code: %s\n", code)
	fmt.Fprintln(w, "Send it in the X-Admin-Code header to act as administrator.")
	return nil
}

// generateCode creates a random code of the given length.
func generateCode(length int) (string, error) {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	result := make([]byte, length)
	for i := range result {
		n, err := rand.Int(rand.Reader, big.NewInt(int64(len(charset))))
		if err != nil {
			return "", err
		}
		result[i] = charset[n.Int64()]
	}
	return string(result), nil
}
