// Command vocational corre el recomendador de carreras desde la terminal.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:           "vocational",
	Short:         "Recomendador vocacional basado en cuestionario",
	Long:          "Construye un perfil de habilidades a partir de respuestas, elige el eje profesional y recomienda carreras filtradas por requisitos mínimos.",
	SilenceUsage:  true,
	SilenceErrors: true,
}

var metricsAddr string

func init() {
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (overrides METRICS_ADDR)")
}

func main() {
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
