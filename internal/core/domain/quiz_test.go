package domain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseOptionKey(t *testing.T) {
	k, err := ParseOptionKey(" b ")
	require.NoError(t, err)
	assert.Equal(t, OptionB, k)

	_, err = ParseOptionKey("E")
	assert.True(t, errors.Is(err, ErrInput))
}

func TestOptions_Get(t *testing.T) {
	o := Options{A: "1", B: "2", C: "3", D: "4"}
	assert.Equal(t, "1", o.Get(OptionA))
	assert.Equal(t, "4", o.Get(OptionD))
	assert.Empty(t, o.Get("Z"))
}

func TestQuizQuestion_Validate(t *testing.T) {
	valid := QuizQuestion{Question: "q", Options: Options{A: "a", B: "b", C: "c", D: "d"}, Answer: OptionC}
	require.NoError(t, valid.Validate())

	noText := valid
	noText.Question = " "
	assert.True(t, errors.Is(noText.Validate(), ErrFormat))

	missingOption := valid
	missingOption.Options.D = ""
	assert.True(t, errors.Is(missingOption.Validate(), ErrFormat))

	badAnswer := valid
	badAnswer.Answer = "E"
	assert.True(t, errors.Is(badAnswer.Validate(), ErrFormat))
}

func TestFlashcard_Validate(t *testing.T) {
	assert.NoError(t, Flashcard{Question: "q", Answer: "a"}.Validate())
	assert.True(t, errors.Is(Flashcard{Answer: "a"}.Validate(), ErrFormat))
	assert.True(t, errors.Is(Flashcard{Question: "q"}.Validate(), ErrFormat))
}

func TestAnswerSheet_Incorrect(t *testing.T) {
	sheet := AnswerSheet{Answers: []AnswerSubmission{
		{QuestionIndex: 0, SelectedOption: OptionA, IsCorrect: true},
		{QuestionIndex: 1, SelectedOption: OptionB, IsCorrect: false},
		{QuestionIndex: 2, IsCorrect: false},
	}}

	wrong := sheet.Incorrect()
	require.Len(t, wrong, 2)
	assert.Equal(t, 1, wrong[0].QuestionIndex)
	assert.Equal(t, 2, wrong[1].QuestionIndex)
	assert.Empty(t, AnswerSheet{}.Incorrect())
}
