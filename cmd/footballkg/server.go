package footballkg

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soundprediction/footballkg/pkg/server"
	"github.com/spf13/cobra"
)

var serverCmd = &cobra.Command{
	Use:   "server",
	Short: "Start the footballkg HTTP server",
	Long: `Start the HTTP front-end for the question answering pipeline.

The server provides endpoints for:
- Answering questions (POST /api/v1/answer)
- Reading and refreshing the graph schema
- Player similarity search
- Health, readiness and Prometheus metrics

Configuration can be provided through config files, environment variables, or command-line flags.`,
	RunE: runServer,
}

var (
	serverHost string
	serverPort int
	serverMode string
)

func init() {
	rootCmd.AddCommand(serverCmd)

	serverCmd.Flags().StringVar(&serverHost, "host", "localhost", "Server host")
	serverCmd.Flags().IntVar(&serverPort, "port", 8080, "Server port")
	serverCmd.Flags().StringVar(&serverMode, "mode", "release", "Server mode (debug, release, test)")
}

func runServer(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	if cmd.Flags().Changed("host") {
		a.cfg.Server.Host = serverHost
	}
	if cmd.Flags().Changed("port") {
		a.cfg.Server.Port = serverPort
	}
	if cmd.Flags().Changed("mode") {
		a.cfg.Server.Mode = serverMode
	}

	fmt.Println("Initializing footballkg...")
	client, err := a.qaClient(cmd.Context(), true)
	if err != nil {
		return fmt.Errorf("failed to initialize client: %w", err)
	}

	srv := server.New(a.cfg, client, server.WithMetrics(a.metrics), server.WithLogger(a.logger))
	srv.Setup()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- srv.Start()
	}()

	select {
	case err := <-serverErrChan:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal: %v\n", sig)

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Stop(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		fmt.Println("Server stopped gracefully")
		return nil
	}
}
