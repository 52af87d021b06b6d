package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	correctAnswers answerFlags
	correctCareers []string
	correctRetrain bool
)

var correctCmd = &cobra.Command{
	Use:   "correct",
	Short: "Registra las carreras correctas para unas respuestas",
	RunE: func(cmd *cobra.Command, args []string) error {
		answers, err := correctAnswers.load()
		if err != nil {
			return err
		}
		a, err := newApp(cmd.Context())
		if err != nil {
			return err
		}
		defer a.close()

		sample, err := a.feedback.Record(cmd.Context(), a.builder.Build(answers), correctCareers)
		if err != nil {
			return err
		}
		fmt.Fprintf(os.Stdout, "Corrección %s guardada (%d carreras).\n", sample.ID, len(sample.Labels))
		if correctRetrain {
			return runRetrain(cmd, a)
		}
		return nil
	},
}

func init() {
	correctCmd.Flags().StringVar(&correctAnswers.inline, "answers", "", "Answers as question:option pairs")
	correctCmd.Flags().StringVar(&correctAnswers.file, "answers-file", "", "JSON file with an array of {question_id, option_index}")
	correctCmd.Flags().StringArrayVar(&correctCareers, "career", nil, "Correct career (repeatable)")
	correctCmd.Flags().BoolVar(&correctRetrain, "retrain", false, "Retrain right after storing the correction")
	_ = correctCmd.MarkFlagRequired("career")
	rootCmd.AddCommand(correctCmd)
}
