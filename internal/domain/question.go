package domain

// WeightDelta es el aporte de una opción a una feature.
type WeightDelta struct {
	Feature string
	Delta   float64
}

type Option struct {
	Text    string
	Weights []WeightDelta
}

// Question es una pregunta del test. Kind decide que clase de features puede
// modificar; Informativeness pondera cuanto pesan sus respuestas.
type Question struct {
	ID              int
	Text            string
	Kind            FeatureClass
	Informativeness float64
	Options         []Option
}

// Answer es el par (pregunta, opción) que envía el usuario.
type Answer struct {
	QuestionID  int `json:"question_id"`
	OptionIndex int `json:"option_index"`
}

// QuestionBank indexa las preguntas por posición.
type QuestionBank struct {
	questions []Question
}

func NewQuestionBank(questions []Question) *QuestionBank {
	q := make([]Question, len(questions))
	copy(q, questions)
	return &QuestionBank{questions: q}
}

func (b *QuestionBank) Get(id int) (Question, bool) {
	if b == nil || id < 0 || id >= len(b.questions) {
		return Question{}, false
	}
	return b.questions[id], true
}

func (b *QuestionBank) Len() int {
	if b == nil {
		return 0
	}
	return len(b.questions)
}

func (b *QuestionBank) All() []Question {
	out := make([]Question, len(b.questions))
	copy(out, b.questions)
	return out
}
