package main

import (
	"fmt"
	"io"
	"os"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"vocational-ai/internal/domain"
)

var (
	recommendAnswers answerFlags
	recommendTop     int
	recommendJSON    bool
)

var recommendCmd = &cobra.Command{
	Use:   "recommend",
	Short: "Recomienda carreras a partir de respuestas ya dadas",
	RunE: func(cmd *cobra.Command, args []string) error {
		answers, err := recommendAnswers.load()
		if err != nil {
			return err
		}

		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()

		top := recommendTop
		if top <= 0 {
			top = a.cfg.TopK
		}
		recs, err := a.recommender.Recommend(ctx, answers, top)
		if err != nil {
			return err
		}
		if recommendJSON {
			return writeJSON(os.Stdout, recs)
		}
		printRecommendations(os.Stdout, recs)
		return nil
	},
}

func init() {
	recommendCmd.Flags().StringVar(&recommendAnswers.inline, "answers", "", "Answers as question:option pairs, e.g. \"0:2,1:0\"")
	recommendCmd.Flags().StringVar(&recommendAnswers.file, "answers-file", "", "JSON file with an array of {question_id, option_index}")
	recommendCmd.Flags().IntVar(&recommendTop, "top", 0, "Number of careers to return (defaults to TOP_K)")
	recommendCmd.Flags().BoolVar(&recommendJSON, "json", false, "Print recommendations as JSON")
	rootCmd.AddCommand(recommendCmd)
}

func writeJSON(w io.Writer, v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	_, err = fmt.Fprintln(w, string(out))
	return err
}

func printRecommendations(w io.Writer, recs []domain.Recommendation) {
	if len(recs) == 0 {
		fmt.Fprintln(w, "No hay carreras que cumplan los requisitos mínimos para este perfil.")
		return
	}
	for i, r := range recs {
		fmt.Fprintf(w, "\n%d. %s (%d%% compatible)\n", i+1, r.Career, r.Compatibility)
		if r.AxisName != "" {
			hybrid := ""
			if r.IsHybrid {
				hybrid = " (perfil híbrido)"
			}
			fmt.Fprintf(w, "   Eje: %s%s\n", r.AxisName, hybrid)
		}
		if r.Description != "" {
			fmt.Fprintf(w, "   %s\n", r.Description)
		}
		for _, reason := range r.Reasons {
			fmt.Fprintf(w, "   - %s\n", reason)
		}
	}
}
