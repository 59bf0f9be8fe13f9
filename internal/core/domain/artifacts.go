package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// ArtifactName is the logical name of one artifact in a run.
type ArtifactName string

// Artifact names.
const (
	// ArtifactExtracted is the labelled text block file.
	ArtifactExtracted ArtifactName = "extracted"

	// ArtifactContext is the synthesised digest.
	ArtifactContext ArtifactName = "context"

	// ArtifactQuiz is the generated quiz.
	ArtifactQuiz ArtifactName = "quiz"

	// ArtifactFlashcards is the generated flashcard deck. Supplementary.
	ArtifactFlashcards ArtifactName = "flashcards"
)

// Artifact kind directories under the artifact root.
const (
	DirExtractedText       = "extracted_text"
	DirGeneratedQuizzes    = "generated_quizzes"
	DirGeneratedFlashcards = "generated_flashcards"
	DirTutorExplanations   = "tutor_explanations"
)

// ArtifactSet maps each logical artifact to its path for one run.
type ArtifactSet map[ArtifactName]string

// DeriveArtifacts computes the artifact set from the original filename and subject.
// Called once per run; every stage reads and writes through the result.
func DeriveArtifacts(root string, subject Subject, filename string) (ArtifactSet, error) {
	if !subject.IsValid() {
		return nil, fmt.Errorf("%w: unknown subject %q", ErrInput, subject)
	}
	safe := SafeName(filename)
	if safe == "" {
		return nil, fmt.Errorf("%w: filename %q has no usable stem", ErrInput, filename)
	}
	sub := string(subject)
	return ArtifactSet{
		ArtifactExtracted:  filepath.Join(root, DirExtractedText, sub, safe+"_labeled.json"),
		ArtifactContext:    filepath.Join(root, DirExtractedText, sub, safe+"_context.txt"),
		ArtifactQuiz:       filepath.Join(root, DirGeneratedQuizzes, sub, safe+"_quiz.json"),
		ArtifactFlashcards: filepath.Join(root, DirGeneratedFlashcards, sub, safe+"_flashcards.json"),
	}, nil
}

// ExplanationPath returns the attempt-keyed explanation file path.
func ExplanationPath(root, baseName, attemptID string) string {
	return filepath.Join(root, DirTutorExplanations,
		fmt.Sprintf("%s_%s_tutor_explanations.json", baseName, attemptID))
}

// SafeName strips directory and extension, replaces spaces with underscores
// and drops commas.
func SafeName(filename string) string {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "." || base == string(filepath.Separator) {
		return ""
	}
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	stem = strings.ReplaceAll(stem, " ", "_")
	stem = strings.ReplaceAll(stem, ",", "")
	return stem
}

// Mandatory returns the gate-checked artifacts in stage order.
func (a ArtifactSet) Mandatory() []ArtifactName {
	return []ArtifactName{ArtifactExtracted, ArtifactContext, ArtifactQuiz}
}

// Paths returns every path in the set in stage order.
func (a ArtifactSet) Paths() []string {
	order := []ArtifactName{ArtifactExtracted, ArtifactContext, ArtifactQuiz, ArtifactFlashcards}
	paths := make([]string, 0, len(order))
	for _, name := range order {
		if p, ok := a[name]; ok && p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// Clone returns a copy of the set.
func (a ArtifactSet) Clone() ArtifactSet {
	if a == nil {
		return nil
	}
	out := make(ArtifactSet, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}
