package domain

import (
	"fmt"
	"strings"
)

// OptionKey identifies one of the four answer options.
type OptionKey string

// Option keys.
const (
	OptionA OptionKey = "A"
	OptionB OptionKey = "B"
	OptionC OptionKey = "C"
	OptionD OptionKey = "D"
)

// OptionKeys returns the keys in display order.
func OptionKeys() []OptionKey {
	return []OptionKey{OptionA, OptionB, OptionC, OptionD}
}

// IsValid returns true for A through D.
func (k OptionKey) IsValid() bool {
	switch k {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	default:
		return false
	}
}

// ParseOptionKey parses an option key, case-insensitively.
func ParseOptionKey(raw string) (OptionKey, error) {
	k := OptionKey(strings.ToUpper(strings.TrimSpace(raw)))
	if !k.IsValid() {
		return "", fmt.Errorf("%w: unknown option %q", ErrInput, raw)
	}
	return k, nil
}

// Options holds the text of each answer option.
type Options struct {
	A string `json:"A"`
	B string `json:"B"`
	C string `json:"C"`
	D string `json:"D"`
}

// Get returns the text for key, or "" for an unknown key.
func (o Options) Get(key OptionKey) string {
	switch key {
	case OptionA:
		return o.A
	case OptionB:
		return o.B
	case OptionC:
		return o.C
	case OptionD:
		return o.D
	default:
		return ""
	}
}

// QuizQuestion is one multiple-choice question.
type QuizQuestion struct {
	Question string    `json:"question"`
	Options  Options   `json:"options"`
	Answer   OptionKey `json:"answer"`
}

// Validate checks that the question is complete and the answer names an option.
func (q QuizQuestion) Validate() error {
	if strings.TrimSpace(q.Question) == "" {
		return fmt.Errorf("%w: quiz question text is empty", ErrFormat)
	}
	for _, k := range OptionKeys() {
		if strings.TrimSpace(q.Options.Get(k)) == "" {
			return fmt.Errorf("%w: quiz option %s is empty", ErrFormat, k)
		}
	}
	if !q.Answer.IsValid() {
		return fmt.Errorf("%w: quiz answer %q is not an option key", ErrFormat, q.Answer)
	}
	return nil
}

// Flashcard is one question/answer study card.
type Flashcard struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// Validate checks that both sides are present.
func (f Flashcard) Validate() error {
	if strings.TrimSpace(f.Question) == "" {
		return fmt.Errorf("%w: flashcard question is empty", ErrFormat)
	}
	if strings.TrimSpace(f.Answer) == "" {
		return fmt.Errorf("%w: flashcard answer is empty", ErrFormat)
	}
	return nil
}
