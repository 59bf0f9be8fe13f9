package domain

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSafeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Lecture 1.pdf", "Lecture_1"},
		{"loops, part 2.pdf", "loops_part_2"},
		{"/uploads/intro.pdf", "intro"},
		{"notes", "notes"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, SafeName(tt.in))
		})
	}
}

func TestDeriveArtifacts(t *testing.T) {
	set, err := DeriveArtifacts("/data", SubjectPython, "Week 3, Loops.pdf")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("/data", "extracted_text", "python", "Week_3_Loops_labeled.json"), set[ArtifactExtracted])
	assert.Equal(t, filepath.Join("/data", "extracted_text", "python", "Week_3_Loops_context.txt"), set[ArtifactContext])
	assert.Equal(t, filepath.Join("/data", "generated_quizzes", "python", "Week_3_Loops_quiz.json"), set[ArtifactQuiz])
	assert.Equal(t, filepath.Join("/data", "generated_flashcards", "python", "Week_3_Loops_flashcards.json"), set[ArtifactFlashcards])
}

func TestDeriveArtifacts_Deterministic(t *testing.T) {
	a, err := DeriveArtifacts("root", SubjectC, "x.pdf")
	require.NoError(t, err)
	b, err := DeriveArtifacts("root", SubjectC, "x.pdf")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	other, err := DeriveArtifacts("root", SubjectJava, "x.pdf")
	require.NoError(t, err)
	assert.NotEqual(t, a[ArtifactQuiz], other[ArtifactQuiz])
}

func TestDeriveArtifacts_InvalidInput(t *testing.T) {
	_, err := DeriveArtifacts("root", "rust", "x.pdf")
	assert.True(t, errors.Is(err, ErrInput))

	_, err = DeriveArtifacts("root", SubjectC, "")
	assert.True(t, errors.Is(err, ErrInput))
}

func TestExplanationPath(t *testing.T) {
	got := ExplanationPath("/data", "Week_3_Loops", "a1")
	assert.Equal(t, filepath.Join("/data", "tutor_explanations", "Week_3_Loops_a1_tutor_explanations.json"), got)
	assert.NotEqual(t, got, ExplanationPath("/data", "Week_3_Loops", "a2"))
}

func TestArtifactSet_MandatoryAndPaths(t *testing.T) {
	set, err := DeriveArtifacts("r", SubjectMixed, "a.pdf")
	require.NoError(t, err)

	assert.Equal(t, []ArtifactName{ArtifactExtracted, ArtifactContext, ArtifactQuiz}, set.Mandatory())
	assert.NotContains(t, set.Mandatory(), ArtifactFlashcards)

	paths := set.Paths()
	require.Len(t, paths, 4)
	assert.Equal(t, set[ArtifactExtracted], paths[0])
	assert.Equal(t, set[ArtifactFlashcards], paths[3])
}

func TestArtifactSet_Clone(t *testing.T) {
	set := ArtifactSet{ArtifactQuiz: "q.json"}
	c := set.Clone()
	c[ArtifactQuiz] = "other.json"
	assert.Equal(t, "q.json", set[ArtifactQuiz])
	assert.Nil(t, ArtifactSet(nil).Clone())
}
