package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vocational-ai/internal/service"
)

var retrainCmd = &cobra.Command{
	Use:   "retrain",
	Short: "Reentrena con el dataset más las correcciones acumuladas",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()
		return runRetrain(cmd, a)
	},
}

func runRetrain(cmd *cobra.Command, a *app) error {
	done, err := a.retrain.Retrain(cmd.Context())
	switch {
	case errors.Is(err, service.ErrRetrainInProgress):
		fmt.Fprintln(os.Stdout, "Ya hay un reentrenamiento en curso.")
		return nil
	case err != nil:
		return err
	case !done:
		fmt.Fprintln(os.Stdout, "No hay correcciones pendientes; el modelo no cambió.")
	default:
		fmt.Fprintln(os.Stdout, "Modelo reentrenado y publicado.")
	}
	return nil
}

func init() {
	rootCmd.AddCommand(retrainCmd)
}
