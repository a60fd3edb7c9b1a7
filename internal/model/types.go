// Package model defines shared data structures.
package model

import "time"

// ExerciseKind tags the exercise type of a question.
type ExerciseKind string

// Exercise kinds produced by quiz generation.
const (
	KindVocabulary ExerciseKind = "vocabulary"
	KindGrammar    ExerciseKind = "grammar"
	KindFillBlank  ExerciseKind = "fill_in_blank"
	KindMatching   ExerciseKind = "matching"
	KindDialogue   ExerciseKind = "dialogue_completion"
	KindSentence   ExerciseKind = "sentence_construction"
	KindReading    ExerciseKind = "reading_comprehension"
	KindTextInput  ExerciseKind = "text_input"
)

// Kinds lists every known exercise kind.
var Kinds = []ExerciseKind{
	KindVocabulary,
	KindGrammar,
	KindFillBlank,
	KindMatching,
	KindDialogue,
	KindSentence,
	KindReading,
	KindTextInput,
}

// Valid reports whether k is a known exercise kind.
func (k ExerciseKind) Valid() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// InputMode selects how typed answers are compared.
type InputMode string

// Input modes for text-input questions.
const (
	InputPinyin  InputMode = "pinyin"
	InputHanzi   InputMode = "hanzi"
	InputEnglish InputMode = "english"
)

// MatchPair is one left/right pair of a matching exercise.
type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

// DialogueLine is one turn of a dialogue-completion exercise.
type DialogueLine struct {
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	IsBlank bool   `json:"is_blank,omitempty"`
}

// SubQuestion is a multiple-choice item attached to a reading passage.
type SubQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"correct_answer"`
	Explanation   string   `json:"explanation,omitempty"`
}

// Question is a generated quiz item. Kind-specific payload fields are empty
// for kinds that do not use them.
type Question struct {
	ID             string       `json:"id"`
	Kind           ExerciseKind `json:"exercise_type"`
	Prompt         string       `json:"question"`
	CorrectAnswer  string       `json:"correct_answer"`
	Explanation    string       `json:"explanation,omitempty"`
	SourceCitation string       `json:"source_citation,omitempty"`

	Options []string `json:"options,omitempty"`

	SentenceWithBlanks string   `json:"sentence_with_blanks,omitempty"`
	WordBank           []string `json:"word_bank,omitempty"`
	Blanks             []string `json:"blanks,omitempty"`

	Pairs []MatchPair `json:"pairs,omitempty"`

	Dialogue []DialogueLine `json:"dialogue,omitempty"`

	ScrambledWords []string `json:"scrambled_words,omitempty"`

	Passage      string        `json:"passage,omitempty"`
	SubQuestions []SubQuestion `json:"sub_questions,omitempty"`

	Placeholder string    `json:"placeholder,omitempty"`
	InputMode   InputMode `json:"input_mode,omitempty"`
}

// QuizMeta identifies what a quiz was generated for.
type QuizMeta struct {
	ChapterID string       `json:"chapter_id"`
	BookID    string       `json:"book_id"`
	Kind      ExerciseKind `json:"kind"`
}

// QuizRequest asks a quiz source for a new quiz.
type QuizRequest struct {
	ChapterID string
	BookID    string
	Kind      ExerciseKind
	Count     int
}

// Quiz is a generated quiz payload.
type Quiz struct {
	ID        string     `json:"quiz_id"`
	Questions []Question `json:"questions"`
}

// Feedback is the transient post-answer flag. Correct is nil when unknown.
type Feedback struct {
	Visible bool  `json:"visible"`
	Correct *bool `json:"is_correct"`
}

// ValidationRequest carries an answer to the remote validation service.
type ValidationRequest struct {
	Question      string       `json:"question"`
	UserAnswer    string       `json:"user_answer"`
	CorrectAnswer string       `json:"correct_answer"`
	Kind          ExerciseKind `json:"exercise_type"`
}

// Verdict is the remote validation service response.
type Verdict struct {
	IsCorrect    bool     `json:"is_correct"`
	Explanation  string   `json:"explanation"`
	Alternatives []string `json:"alternatives,omitempty"`
}

// ValidationResult is the outcome of validating one answer.
type ValidationResult struct {
	IsCorrect     bool
	IsAlternative bool
	Explanation   string
	Alternatives  []string
	UsedRemote    bool
}

// QuestionResult is a persisted per-question outcome.
type QuestionResult struct {
	UserID      string
	QuizID      string
	QuestionID  string
	ChapterID   string
	BookID      string
	Kind        ExerciseKind
	Correct     bool
	TimeSpentMs int64
	AnsweredAt  time.Time
}

// QuizAttempt is a persisted end-of-quiz outcome.
type QuizAttempt struct {
	ID             string
	UserID         string
	QuizID         string
	ChapterID      string
	BookID         string
	Kind           ExerciseKind
	Score          int
	MaxScore       int
	TotalQuestions int
	CorrectCount   int
	AnswersJSON    string
	CompletedAt    time.Time
}

// Percent returns the attempt score as a 0-100 percentage.
func (a QuizAttempt) Percent() int {
	if a.MaxScore <= 0 {
		return 0
	}
	return a.Score * 100 / a.MaxScore
}

// Mastery is a per-exercise-kind aggregate for a user.
type Mastery struct {
	UserID     string
	Kind       ExerciseKind
	BestScore  int
	Attempts   int
	MasteredAt *time.Time
	UpdatedAt  time.Time
}

// MasteryThreshold is the best score at which a kind counts as mastered.
const MasteryThreshold = 80

// Config defines practice settings.
type Config struct {
	BookID            string
	ChapterID         string
	Kind              ExerciseKind
	Count             int
	PointsPerQuestion int
	DeckPath          string
	Fresh             bool
}

// StatsConfig defines filters and options for stats output.
type StatsConfig struct {
	UserID string
	Kind   ExerciseKind
	Since  *time.Time
	Last   int
	Window int
}

// KindAggregate summarizes question results for one exercise kind.
type KindAggregate struct {
	Kind      ExerciseKind
	Correct   int
	Incorrect int
	TimeSumMs int64
}
