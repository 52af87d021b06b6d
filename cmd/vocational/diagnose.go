package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var diagnoseAnswers answerFlags

var diagnoseCmd = &cobra.Command{
	Use:   "diagnose",
	Short: "Muestra el eje, los scores y el macro-perfil calculados para unas respuestas",
	RunE: func(cmd *cobra.Command, args []string) error {
		answers, err := diagnoseAnswers.load()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		fmt.Fprintln(os.Stdout, a.recommender.Diagnose(a.builder.Build(answers)))
		return nil
	},
}

func init() {
	diagnoseCmd.Flags().StringVar(&diagnoseAnswers.inline, "answers", "", "Answers as question:option pairs")
	diagnoseCmd.Flags().StringVar(&diagnoseAnswers.file, "answers-file", "", "JSON file with an array of {question_id, option_index}")
	rootCmd.AddCommand(diagnoseCmd)
}
