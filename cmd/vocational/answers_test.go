package main

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"vocational-ai/internal/domain"
)

func TestParseAnswers(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    []domain.Answer
		wantErr bool
	}{
		{"pairs", "0:2, 1:0,5:3", []domain.Answer{{QuestionID: 0, OptionIndex: 2}, {QuestionID: 1, OptionIndex: 0}, {QuestionID: 5, OptionIndex: 3}}, false},
		{"trailing comma", "3:1,", []domain.Answer{{QuestionID: 3, OptionIndex: 1}}, false},
		{"empty", "", nil, false},
		{"missing colon", "3-1", nil, true},
		{"bad question", "x:1", nil, true},
		{"bad option", "1:y", nil, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseAnswers(tc.raw)
			if (err != nil) != tc.wantErr {
				t.Fatalf("wantErr=%v, got %v", tc.wantErr, err)
			}
			if !tc.wantErr && !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("want %v, got %v", tc.want, got)
			}
		})
	}
}

func TestAnswerFlagsLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "answers.json")
	if err := os.WriteFile(path, []byte(`[{"question_id":4,"option_index":1}]`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	got, err := answerFlags{inline: "0:0", file: path}.load()
	if err != nil {
		t.Fatalf("load file: %v", err)
	}
	if len(got) != 1 || got[0] != (domain.Answer{QuestionID: 4, OptionIndex: 1}) {
		t.Fatalf("file should take precedence, got %v", got)
	}

	if _, err := (answerFlags{}).load(); !errors.Is(err, errNoAnswers) {
		t.Fatalf("expected errNoAnswers, got %v", err)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`{not json`), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := (answerFlags{file: bad}).load(); err == nil {
		t.Fatalf("expected decode error")
	}
}
