package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"vocational-ai/internal/domain"
)

var errQuizAborted = errors.New("quiz aborted")

var quizTop int

var quizCmd = &cobra.Command{
	Use:   "quiz",
	Short: "Responde el cuestionario de forma interactiva",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := newApp(ctx)
		if err != nil {
			return err
		}
		defer a.close()
		return runQuiz(ctx, a, bufio.NewReader(os.Stdin), os.Stdout)
	},
}

func init() {
	quizCmd.Flags().IntVar(&quizTop, "top", 0, "Number of careers to return (defaults to TOP_K)")
	rootCmd.AddCommand(quizCmd)
}

func runQuiz(ctx context.Context, a *app, reader *bufio.Reader, w io.Writer) error {
	questions := a.catalog.Questions.All()
	fmt.Fprintf(w, "\n--- TEST VOCACIONAL (%d Preguntas) ---\n", len(questions))
	fmt.Fprintln(w, "Elige el número de la opción que mejor te describa. Escribe 'q' para salir.")

	answers, err := askQuestions(reader, w, questions)
	if errors.Is(err, errQuizAborted) {
		fmt.Fprintln(w, "Test cancelado.")
		return nil
	}
	if err != nil {
		return err
	}

	top := quizTop
	if top <= 0 {
		top = a.cfg.TopK
	}
	fmt.Fprintln(w, "\nCalculando recomendaciones...")
	profile := a.builder.Build(answers)
	recs, err := a.recommender.RecommendProfile(ctx, profile, top)
	if err != nil {
		a.logger.Error("recommendation failed", zap.Error(err))
		fmt.Fprintln(w, "ERROR: No se pudieron calcular las recomendaciones. Revise los logs.")
		return err
	}
	printRecommendations(w, recs)

	fmt.Fprint(w, "\nSi conoces tu carrera correcta escríbela para mejorar el modelo (Enter para omitir): ")
	line, _ := reader.ReadString('\n')
	career := strings.TrimSpace(line)
	if career == "" {
		return nil
	}
	if _, err := a.feedback.Record(ctx, profile, []string{career}); err != nil {
		fmt.Fprintf(w, "No se pudo guardar la corrección: %v\n", err)
		return nil
	}
	fmt.Fprintln(w, "\n✅ Corrección guardada. Se usará en el próximo reentrenamiento.")
	return nil
}

// askQuestions repite cada pregunta hasta recibir una opción válida.
func askQuestions(reader *bufio.Reader, w io.Writer, questions []domain.Question) ([]domain.Answer, error) {
	answers := make([]domain.Answer, 0, len(questions))
	for i, q := range questions {
		fmt.Fprintf(w, "\n[%d/%d] %s\n", i+1, len(questions), q.Text)
		for j, o := range q.Options {
			fmt.Fprintf(w, "   %d) %s\n", j+1, o.Text)
		}
		for {
			fmt.Fprint(w, "> ")
			line, err := reader.ReadString('\n')
			input := strings.TrimSpace(line)
			if strings.EqualFold(input, "q") {
				return nil, errQuizAborted
			}
			n, convErr := strconv.Atoi(input)
			if convErr == nil && n >= 1 && n <= len(q.Options) {
				answers = append(answers, domain.Answer{QuestionID: q.ID, OptionIndex: n - 1})
				break
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					return nil, errQuizAborted
				}
				return nil, fmt.Errorf("read answer: %w", err)
			}
			fmt.Fprintf(w, "Opción inválida. Ingresa un número entre 1 y %d.\n", len(q.Options))
		}
	}
	return answers, nil
}
