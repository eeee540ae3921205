package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/gemstage/gemstage/internal/assets"
	"github.com/gemstage/gemstage/internal/server"
)

var (
	servePort     int
	serveAllowAll bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the gemstage HTTP server",
	Long:  `Starts the gemstage API server: uploads, analysis, shoots, virtual try-on, and the project archive, for use from a browser front end or scripts.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if servePort > 0 {
			cfg.Port = servePort
		}
		if serveAllowAll {
			cfg.CORSAllowAll = true
		}

		st, err := createStudioFromConfig(cfg)
		if err != nil {
			return fmt.Errorf("creating studio: %w", err)
		}

		database, err := openDatabase(cfg)
		if err != nil {
			return fmt.Errorf("opening database: %w", err)
		}
		defer database.Close()

		files, err := assets.NewStore(cfg.DataDir)
		if err != nil {
			return fmt.Errorf("creating image store: %w", err)
		}

		srv := server.New(cfg, database, files, st)

		// Graceful shutdown.
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		go func() {
			<-ctx.Done()
			fmt.Fprintln(os.Stderr, "\nShutting down server...")
			srv.Shutdown(context.Background())
		}()

		fmt.Fprintf(os.Stderr, "gemstage server v%s starting on port %d\n", Version, cfg.Port)
		fmt.Fprintf(os.Stderr, "  Provider: %s\n", cfg.Provider)
		fmt.Fprintf(os.Stderr, "  Database: %s\n", filepath.Join(cfg.DataDir, "gemstage.db"))

		return srv.Start()
	},
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "port to listen on (overrides config)")
	serveCmd.Flags().BoolVar(&serveAllowAll, "allow-all-origins", false, "allow all CORS origins (dev mode)")
	rootCmd.AddCommand(serveCmd)
}
