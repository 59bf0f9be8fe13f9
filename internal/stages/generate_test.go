package stages

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/studypipe/internal/core/domain"
)

func quizReply(n int) string {
	var items []string
	for i := 0; i < n; i++ {
		items = append(items, fmt.Sprintf(
			`{"question":"Q%d","options":{"A":"a","B":"b","C":"c","D":"d"},"answer":"A"}`, i))
	}
	return "Here you go:\n```json\n[" + strings.Join(items, ",") + "]\n```"
}

func TestQuizGenerator_Run_WritesExtractedList(t *testing.T) {
	store := newMemArtifacts()
	gw := reply(quizReply(2))
	g := NewQuizGenerator(gw, stubPrompts{}, store, GenerateConfig{Count: 5})

	quiz, err := g.Run(context.Background(), "digest text", "quiz.json")
	require.NoError(t, err)
	require.Len(t, quiz, 2)

	data, err := store.ReadFile("quiz.json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "["))
	assert.True(t, strings.HasSuffix(string(data), "]"))
	assert.NotContains(t, string(data), "Here you go")

	require.Len(t, gw.prompts, 1)
	assert.Contains(t, gw.prompts[0], "count=5")
	assert.Contains(t, gw.prompts[0], "digest text")
}

func TestQuizGenerator_Run_UnmatchedBracketWritesNothing(t *testing.T) {
	store := newMemArtifacts()
	g := NewQuizGenerator(reply("Sure:\n[{\"question\":\"Q\""), stubPrompts{}, store, GenerateConfig{})

	_, err := g.Run(context.Background(), "digest", "quiz.json")
	assert.True(t, errors.Is(err, domain.ErrArtifactFormat))
	assert.False(t, store.Exists("quiz.json"))
}

func TestQuizGenerator_Run_InvalidRecordWritesNothing(t *testing.T) {
	store := newMemArtifacts()
	g := NewQuizGenerator(reply(`[{"question":"Q","answer":"A"}]`), stubPrompts{}, store, GenerateConfig{})

	_, err := g.Run(context.Background(), "digest", "quiz.json")
	assert.True(t, errors.Is(err, domain.ErrArtifactFormat))
	assert.False(t, store.Exists("quiz.json"))
}

func TestQuizGenerator_Run_TruncatesToCount(t *testing.T) {
	store := newMemArtifacts()
	g := NewQuizGenerator(reply(quizReply(4)), stubPrompts{}, store, GenerateConfig{Count: 2})

	quiz, err := g.Run(context.Background(), "digest", "quiz.json")
	require.NoError(t, err)
	assert.Len(t, quiz, 2)

	data, err := store.ReadFile("quiz.json")
	require.NoError(t, err)
	var persisted []domain.QuizQuestion
	require.NoError(t, json.Unmarshal(data, &persisted))
	assert.Len(t, persisted, 2)
	assert.Equal(t, "Q1", persisted[1].Question)
}

func TestQuizGenerator_WithCount(t *testing.T) {
	gw := reply(quizReply(1))
	base := NewQuizGenerator(gw, stubPrompts{}, newMemArtifacts(), GenerateConfig{})

	assert.Same(t, base, base.WithCount(0))

	_, err := base.WithCount(3).Run(context.Background(), "d", "q.json")
	require.NoError(t, err)
	assert.Contains(t, gw.prompts[0], "count=3")

	_, err = base.Run(context.Background(), "d", "q.json")
	require.NoError(t, err)
	assert.Contains(t, gw.prompts[1], fmt.Sprintf("count=%d", DefaultCount))
}

func TestQuizGenerator_Run_Timeout(t *testing.T) {
	gw := &stubGateway{fn: func(string) (string, error) { return "", context.DeadlineExceeded }}
	store := newMemArtifacts()

	_, err := NewQuizGenerator(gw, stubPrompts{}, store, GenerateConfig{}).Run(context.Background(), "d", "q.json")
	assert.True(t, errors.Is(err, domain.ErrTimeout))
	assert.False(t, store.Exists("q.json"))
}

func TestFlashcardGenerator_Run(t *testing.T) {
	store := newMemArtifacts()
	gw := reply("```json\n[{\"question\":\"Loop?\",\"answer\":\"Repeats\"},{\"question\":\"Var?\",\"answer\":\"Name\"}]\n```")

	cards, err := NewFlashcardGenerator(gw, stubPrompts{}, store, GenerateConfig{Count: 10}).
		Run(context.Background(), "digest", "cards.json")
	require.NoError(t, err)
	assert.Len(t, cards, 2)
	assert.True(t, store.Exists("cards.json"))
	assert.Contains(t, gw.prompts[0], "cards count=10")
}

func TestFlashcardGenerator_Run_RejectsQuizShape(t *testing.T) {
	store := newMemArtifacts()
	g := NewFlashcardGenerator(reply(`[{"question":"Q","options":{"A":"1"}}]`), stubPrompts{}, store, GenerateConfig{})

	_, err := g.Run(context.Background(), "digest", "cards.json")
	assert.True(t, errors.Is(err, domain.ErrArtifactFormat))
	assert.False(t, store.Exists("cards.json"))
}

func TestFlashcardGenerator_Run_RejectsFullQuizRecord(t *testing.T) {
	store := newMemArtifacts()
	quiz := `[{"question":"Q","options":{"A":"1","B":"2","C":"3","D":"4"},"answer":"A"}]`
	g := NewFlashcardGenerator(reply(quiz), stubPrompts{}, store, GenerateConfig{})

	cards, err := g.Run(context.Background(), "digest", "cards.json")
	assert.True(t, errors.Is(err, domain.ErrArtifactFormat))
	assert.Nil(t, cards)
	assert.False(t, store.Exists("cards.json"))
}

func TestQuizGenerator_Run_NoWriteOnceCancelled(t *testing.T) {
	store := newMemArtifacts()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	// The reply arrives after the run was abandoned.
	gw := &stubGateway{fn: func(string) (string, error) {
		cancel()
		return quizReply(1), nil
	}}

	_, err := NewQuizGenerator(gw, stubPrompts{}, store, GenerateConfig{Count: 1}).Run(ctx, "digest", "q.json")
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, store.Exists("q.json"))
}
