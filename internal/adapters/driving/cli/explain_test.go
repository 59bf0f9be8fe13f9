package cli

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studypipe/internal/core/domain"
	"github.com/custodia-labs/studypipe/internal/core/ports/driving"
)

func writeAnswers(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "answers.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestExplainCmd_Use(t *testing.T) {
	assert.Equal(t, "explain <material-id> <answers.json>", explainCmd.Use)
	assert.NotNil(t, explainCmd.Flags().Lookup("attempt"))
}

func TestExplainCmd_RequiresTwoArgs(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	_, err := execute(t, "explain", "m-1")
	requireExit(t, ExitUsage, err)
}

func TestExplainCmd_Executes(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.explanation.result = &driving.ExplainResult{
		AttemptID: "attempt-7",
		Path:      "data/tutor_explanations/Loops_attempt-7_tutor_explanations.json",
		Explanations: []domain.Explanation{{
			Index:         1,
			Question:      "q2",
			UserAnswer:    "",
			CorrectAnswer: domain.OptionB,
			Explanation:   "B is right because the loop runs twice.",
		}},
	}

	answers := writeAnswers(t, `{"answers":[
		{"questionIndex":0,"selectedOption":"A","isCorrect":true},
		{"questionIndex":1,"selectedOption":"","isCorrect":false}]}`)

	out, err := execute(t, "explain", "m-1", answers, "--attempt", "attempt-7")
	require.NoError(t, err)

	assert.Equal(t, "m-1", ts.explanation.got.MaterialID)
	assert.Equal(t, "attempt-7", ts.explanation.got.AttemptID)
	require.Len(t, ts.explanation.got.Answers.Answers, 2)
	assert.Equal(t, domain.OptionA, ts.explanation.got.Answers.Answers[0].SelectedOption)

	assert.Contains(t, out, "Attempt: attempt-7")
	assert.Contains(t, out, "Loops_attempt-7_tutor_explanations.json")
	assert.Contains(t, out, "2. q2")
	assert.Contains(t, out, "Your answer: -  Correct: B")
}

func TestExplainCmd_NoIncorrectAnswers(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.explanation.result = &driving.ExplainResult{AttemptID: "a-1", Path: "x.json"}

	out, err := execute(t, "explain", "m-1", writeAnswers(t, `{"answers":[]}`))
	require.NoError(t, err)
	assert.Contains(t, out, "No incorrect answers.")
}

func TestExplainCmd_BadAnswersFile(t *testing.T) {
	_, cleanup := setupTestServices()
	defer cleanup()

	t.Run("missing", func(t *testing.T) {
		_, err := execute(t, "explain", "m-1", filepath.Join(t.TempDir(), "none.json"))
		assert.ErrorIs(t, err, domain.ErrInput)
	})

	t.Run("not json", func(t *testing.T) {
		_, err := execute(t, "explain", "m-1", writeAnswers(t, "selected B"))
		assert.ErrorIs(t, err, domain.ErrInput)
	})
}

func TestExplainCmd_MaterialNotCompleted(t *testing.T) {
	ts, cleanup := setupTestServices()
	defer cleanup()
	ts.explanation.err = domain.ErrInput

	_, err := execute(t, "explain", "m-1", writeAnswers(t, `{"answers":[]}`))
	requireExit(t, ExitUsage, err)
}
