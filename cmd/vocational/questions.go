package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vocational-ai/internal/catalog"
)

var questionsJSON bool

type questionView struct {
	ID      int      `json:"id"`
	Text    string   `json:"text"`
	Kind    string   `json:"kind"`
	Options []string `json:"options"`
}

var questionsCmd = &cobra.Command{
	Use:   "questions",
	Short: "Lista las preguntas del cuestionario con sus opciones",
	RunE: func(cmd *cobra.Command, args []string) error {
		cat, err := catalog.Load()
		if err != nil {
			return fmt.Errorf("load catalog: %w", err)
		}
		var views []questionView
		for _, q := range cat.Questions.All() {
			v := questionView{ID: q.ID, Text: q.Text, Kind: string(q.Kind)}
			for _, o := range q.Options {
				v.Options = append(v.Options, o.Text)
			}
			views = append(views, v)
		}
		if questionsJSON {
			return writeJSON(os.Stdout, views)
		}
		for _, v := range views {
			fmt.Fprintf(os.Stdout, "\n[%d] %s\n", v.ID, v.Text)
			for i, o := range v.Options {
				fmt.Fprintf(os.Stdout, "   %d) %s\n", i, o)
			}
		}
		return nil
	},
}

func init() {
	questionsCmd.Flags().BoolVar(&questionsJSON, "json", false, "Print questions as JSON")
	rootCmd.AddCommand(questionsCmd)
}
