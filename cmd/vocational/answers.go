package main

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"vocational-ai/internal/domain"
)

var errNoAnswers = errors.New("no answers given: use --answers or --answers-file")

// parseAnswers lee pares "pregunta:opción" separados por coma, por ejemplo "0:2,1:0".
func parseAnswers(raw string) ([]domain.Answer, error) {
	var answers []domain.Answer
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		q, o, ok := strings.Cut(part, ":")
		if !ok {
			return nil, fmt.Errorf("answer %q: expected question:option", part)
		}
		qid, err := strconv.Atoi(strings.TrimSpace(q))
		if err != nil {
			return nil, fmt.Errorf("answer %q: question id: %w", part, err)
		}
		opt, err := strconv.Atoi(strings.TrimSpace(o))
		if err != nil {
			return nil, fmt.Errorf("answer %q: option index: %w", part, err)
		}
		answers = append(answers, domain.Answer{QuestionID: qid, OptionIndex: opt})
	}
	return answers, nil
}

// readAnswersFile acepta un arreglo JSON de {"question_id", "option_index"}.
func readAnswersFile(path string) ([]domain.Answer, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read answers: %w", err)
	}
	var answers []domain.Answer
	if err := json.Unmarshal(raw, &answers); err != nil {
		return nil, fmt.Errorf("decode answers %s: %w", path, err)
	}
	return answers, nil
}

// answerFlags agrupa las dos formas de pasar respuestas por línea de comandos.
type answerFlags struct {
	inline string
	file   string
}

func (f answerFlags) load() ([]domain.Answer, error) {
	switch {
	case f.file != "":
		return readAnswersFile(f.file)
	case f.inline != "":
		return parseAnswers(f.inline)
	default:
		return nil, errNoAnswers
	}
}
