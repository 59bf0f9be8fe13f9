package domain

// AnswerSubmission is one question's answer as submitted by the quiz UI.
type AnswerSubmission struct {
	// QuestionIndex is the zero-based index into the quiz.
	QuestionIndex int `json:"questionIndex"`

	// SelectedOption is the chosen key. Empty when the student skipped the question.
	SelectedOption OptionKey `json:"selectedOption"`

	// IsCorrect is the UI's grading of the selection.
	IsCorrect bool `json:"isCorrect"`
}

// AnswerSheet is the full set of submissions for one attempt.
type AnswerSheet struct {
	Answers []AnswerSubmission `json:"answers"`
}

// Incorrect returns the submissions marked incorrect, in submission order.
func (s AnswerSheet) Incorrect() []AnswerSubmission {
	var out []AnswerSubmission
	for _, a := range s.Answers {
		if !a.IsCorrect {
			out = append(out, a)
		}
	}
	return out
}

// Explanation is the tutor feedback for one incorrect answer.
type Explanation struct {
	// Index is the zero-based question index.
	Index         int       `json:"index"`
	Question      string    `json:"question"`
	Options       Options   `json:"options"`
	UserAnswer    OptionKey `json:"userAnswer"`
	CorrectAnswer OptionKey `json:"correctAnswer"`
	Explanation   string    `json:"explanation"`
}
