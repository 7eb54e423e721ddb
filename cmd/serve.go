package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"runtime"
	"runtime/pprof"
	"syscall"
	"time"

	"github.com/cwbudde/goiqdb/internal/iqdb"
	"github.com/cwbudde/goiqdb/internal/server"
	"github.com/spf13/cobra"
)

var (
	serverAddr      string
	serverPort      int
	serveCPUProfile string
	serveMemProfile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP reverse-image-search server",
	Long: `Starts an HTTP server exposing the image catalog for add/query/remove
over multipart uploads, backed by the catalog file named by --database.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serverAddr, "addr", "localhost", "Server bind address")
	serveCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serveCmd.Flags().StringVar(&serveCPUProfile, "cpuprofile", "", "Write CPU profile to file")
	serveCmd.Flags().StringVar(&serveMemProfile, "memprofile", "", "Write memory profile to file on shutdown")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	if databaseURL == "" {
		return fmt.Errorf("--database (or $DATABASE_URL) is required")
	}

	if serveCPUProfile != "" {
		f, err := os.Create(serveCPUProfile)
		if err != nil {
			return fmt.Errorf("failed to create CPU profile: %w", err)
		}
		defer f.Close()
		if err := pprof.StartCPUProfile(f); err != nil {
			return fmt.Errorf("failed to start CPU profile: %w", err)
		}
		defer pprof.StopCPUProfile()
		slog.Info("CPU profiling enabled", "output", serveCPUProfile)
	}

	db, err := iqdb.Open(databaseURL)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer db.Close()

	addr := fmt.Sprintf("%s:%d", serverAddr, serverPort)
	srv := server.New(addr, db)

	slog.Info("starting goiqdb server", "addr", addr, "database", databaseURL)
	fmt.Printf("Server listening on http://%s\n", addr)
	fmt.Println("Endpoints:")
	fmt.Println("  POST   /images        - Add an image (multipart: image, postId)")
	fmt.Println("  GET    /images/:id    - Get stored signature for a post id")
	fmt.Println("  DELETE /images/:id    - Remove an image")
	fmt.Println("  POST   /query?k=N     - Query for the N most similar images")
	fmt.Println("  GET    /stats         - Catalog and index size")
	fmt.Println("\nPress Ctrl+C to shutdown")

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- srv.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		slog.Info("shutdown signal received", "signal", sig)
		fmt.Println("\nShutting down server...")

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("shutdown error: %w", err)
		}

		if serveMemProfile != "" {
			f, err := os.Create(serveMemProfile)
			if err != nil {
				return fmt.Errorf("failed to create memory profile: %w", err)
			}
			defer f.Close()
			runtime.GC()
			if err := pprof.WriteHeapProfile(f); err != nil {
				return fmt.Errorf("failed to write memory profile: %w", err)
			}
			slog.Info("memory profile written", "output", serveMemProfile)
		}

		fmt.Println("Server stopped gracefully")
	}

	return nil
}
