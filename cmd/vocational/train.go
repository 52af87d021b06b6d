package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Entrena el modelo desde el dataset y reemplaza el artefacto",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		m, err := a.registry.TrainFromDataset(cmd.Context())
		if err != nil {
			return fmt.Errorf("train model: %w", err)
		}
		a.logger.Info("model trained",
			zap.Int("samples", m.Meta.NSamples),
			zap.Int("classes", len(m.Meta.Classes)),
			zap.Bool("calibrated", m.Meta.Calibrated),
		)
		fmt.Fprintf(os.Stdout, "Modelo entrenado con %d filas y %d carreras.\n", m.Meta.NSamples, len(m.Meta.Classes))
		fmt.Fprintf(os.Stdout, "Features: %s\n", strings.Join(m.Meta.FeatureColumns, ", "))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(trainCmd)
}
